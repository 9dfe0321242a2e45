// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns a worker failure into either a Zeebe job failure with retries
// or a thrown BPMN error the process can catch.
type ErrorHandler struct {
	logger Logger
}

// Logger is the subset of the application logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError reports err for job. Retryable codes fail the job while it has
// retries left; everything else is thrown as a BPMN error keyed by the error code.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := AsStandard(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	if bpmnErr.Retries > 0 && job.Retries > 0 {
		h.failJob(ctx, client, job, bpmnErr)
		return
	}
	h.throwBPMNError(ctx, client, job, bpmnErr)
}

// RetriesFor caps the recommended retry count by what the job has left.
func RetriesFor(jobRetries int32, recommended int) int32 {
	if jobRetries > 0 && int(jobRetries) < recommended {
		return jobRetries
	}
	return int32(recommended)
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(RetriesFor(job.Retries, bpmnErr.Retries) - 1).
		ErrorMessage(bpmnErr.Error())

	if payload, ok := encodeVariables(bpmnErr); ok {
		if withVars, err := cmd.VariablesFromString(payload); err == nil {
			h.send(ctx, job, "fail", func() error { _, err := withVars.Send(ctx); return err })
			return
		}
	}
	h.send(ctx, job, "fail", func() error { _, err := cmd.Send(ctx); return err })
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if payload, ok := encodeVariables(bpmnErr); ok {
		if withVars, err := cmd.VariablesFromString(payload); err == nil {
			h.send(ctx, job, "throw", func() error { _, err := withVars.Send(ctx); return err })
			return
		}
	}
	h.send(ctx, job, "throw", func() error { _, err := cmd.Send(ctx); return err })
}

func (h *ErrorHandler) send(_ context.Context, job entities.Job, action string, fn func() error) {
	if err := fn(); err != nil {
		h.logger.Error("Failed to report job error to broker", map[string]interface{}{
			"jobKey": job.Key,
			"action": action,
			"error":  err.Error(),
		})
	}
}

func encodeVariables(bpmnErr *BPMNError) (string, bool) {
	raw, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":          job.Key,
		"jobType":         job.Type,
		"errorCode":       string(stdErr.Code),
		"message":         bpmnErr.Message,
		"details":         stdErr.Details,
		"retryable":       stdErr.Retryable,
		"retries":         bpmnErr.Retries,
		"errorCategory":   GetErrorCategory(stdErr.Code),
		"processInstance": job.ProcessInstanceKey,
	})
}
