package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/codes"

	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/common/observability"
)

// VariableValidator checks raw job variables for a task type.
type VariableValidator interface {
	ValidateJSON(taskType, raw string) error
}

// JobOptions carries what every pipeline job handler shares.
type JobOptions struct {
	TaskType  string
	Timeout   time.Duration
	Validator VariableValidator
	Logger    logger.Logger
	// Observability may be nil.
	Observability *observability.Observability
}

// StartWorker opens a job worker for taskType unless it is disabled. fetch limits the
// variables pulled from the process instance; nil fetches all.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, fetch []string, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout))
	if len(fetch) > 0 {
		builder = builder.FetchVariables(fetch...)
	}
	w := builder.Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return w
}

// DecodeVariables validates raw job variables and unmarshals them into input.
func DecodeVariables(opts JobOptions, raw string, input interface{}) error {
	if opts.Validator != nil {
		if err := opts.Validator.ValidateJSON(opts.TaskType, raw); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(raw), input); err != nil {
		return errors.NewValidationError("parse input: " + err.Error())
	}
	return nil
}

// RunJob is the shared Handle body: decode, execute under a timeout, then complete
// the job or hand the error to the ErrorHandler.
func RunJob[I any, O any](
	client worker.JobClient,
	job entities.Job,
	opts JobOptions,
	execute func(context.Context, *I) (*O, error),
) {
	start := time.Now()
	log := opts.Logger.WithFields(map[string]interface{}{
		"jobKey":          job.Key,
		"processInstance": job.ProcessInstanceKey,
	})
	log.Info("processing job", nil)

	metrics.WorkerJobsActive.WithLabelValues(opts.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(opts.TaskType).Dec()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ctx, span := opts.Observability.StartSpan(ctx, "job."+opts.TaskType, map[string]string{
		"job.type": opts.TaskType,
	})
	defer span.End()

	errHandler := errors.NewErrorHandler(log)
	fail := func(err error) {
		code := string(errors.CodeOf(err))
		metrics.WorkerJobsFailed.WithLabelValues(opts.TaskType, code).Inc()
		opts.Observability.RecordJobProcessed(ctx, opts.TaskType, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		errHandler.HandleJobError(ctx, client, job, err)
	}

	var input I
	if err := DecodeVariables(opts, job.Variables, &input); err != nil {
		fail(err)
		return
	}

	output, err := execute(ctx, &input)
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(opts.TaskType).Observe(elapsed.Seconds())
	opts.Observability.RecordJobDuration(ctx, opts.TaskType, elapsed, errors.Outcome(err))
	if err != nil {
		fail(err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		errHandler.HandleJobError(ctx, client, job, errors.NewValidationError("encode output: "+err.Error()))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to complete job", map[string]interface{}{"error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(opts.TaskType).Inc()
	opts.Observability.RecordJobProcessed(ctx, opts.TaskType, "completed")
	log.Info("job completed", map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})
}
