// internal/workers/candidate/reject-candidate/handler.go
package rejectcandidate

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/pipeline/engine"
)

const TaskType = "reject-candidate"

type Rejecter interface {
	Reject(ctx context.Context, candidateID, reason string) (*engine.Result, error)
}

type Handler struct {
	engine Rejecter
	opts   camunda.JobOptions
}

func NewHandler(cfg *Config, eng Rejecter, validator camunda.VariableValidator, log logger.Logger) *Handler {
	return &Handler{
		engine: eng,
		opts: camunda.JobOptions{
			TaskType:      TaskType,
			Timeout:       cfg.Timeout,
			Validator:     validator,
			Logger:        log.WithFields(map[string]interface{}{"taskType": TaskType}),
			Observability: cfg.Observability,
		},
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.RunJob(client, job, h.opts, h.Execute)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.engine.Reject(ctx, input.CandidateID, input.Reason)
	if err != nil {
		return nil, err
	}
	return &Output{
		CandidateID: res.Candidate.ID,
		FromStage:   string(res.From),
		Stage:       string(res.To),
	}, nil
}
