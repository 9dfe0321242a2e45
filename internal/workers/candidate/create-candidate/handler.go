// internal/workers/candidate/create-candidate/handler.go
package createcandidate

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/intake"
)

const TaskType = "create-candidate"

type Creator interface {
	CreateCandidate(ctx context.Context, app intake.Application) (*models.Candidate, error)
}

type Handler struct {
	intake Creator
	opts   camunda.JobOptions
	logger logger.Logger
}

func NewHandler(cfg *Config, svc Creator, validator camunda.VariableValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		intake: svc,
		logger: log,
		opts: camunda.JobOptions{
			TaskType:      TaskType,
			Timeout:       cfg.Timeout,
			Validator:     validator,
			Logger:        log,
			Observability: cfg.Observability,
		},
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.RunJob(client, job, h.opts, h.Execute)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	c, err := h.intake.CreateCandidate(ctx, *input)
	if err != nil {
		return nil, err
	}
	h.logger.Info("candidate created", map[string]interface{}{
		"candidateId": c.ID,
		"source":      c.Source,
	})
	return &Output{CandidateID: c.ID, Stage: string(c.Stage)}, nil
}
