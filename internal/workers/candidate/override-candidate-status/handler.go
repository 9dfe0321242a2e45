// internal/workers/candidate/override-candidate-status/handler.go
package overridecandidatestatus

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

const TaskType = "override-candidate-status"

type Overrider interface {
	Override(ctx context.Context, candidateID string, field models.StatusField, value string) (*models.Candidate, error)
}

type Handler struct {
	status Overrider
	opts   camunda.JobOptions
}

func NewHandler(cfg *Config, status Overrider, validator camunda.VariableValidator, log logger.Logger) *Handler {
	return &Handler{
		status: status,
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
	field := models.StatusField(input.Field)
	c, err := h.status.Override(ctx, input.CandidateID, field, input.Value)
	if err != nil {
		return nil, err
	}
	step := c.Step(field)
	return &Output{
		CandidateID: c.ID,
		Field:       input.Field,
		Status:      step.Status,
		Locked:      step.Locked,
	}, nil
}
