// internal/workers/candidate/transition-candidate-stage/handler.go
package transitioncandidatestage

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/engine"
)

const TaskType = "transition-candidate-stage"

type Transitioner interface {
	Transition(ctx context.Context, candidateID string, to models.Stage, reason string) (*engine.Result, error)
}

type Handler struct {
	engine Transitioner
	opts   camunda.JobOptions
	logger logger.Logger
}

func NewHandler(cfg *Config, eng Transitioner, validator camunda.VariableValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		engine: eng,
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
	res, err := h.engine.Transition(ctx, input.CandidateID, models.Stage(input.ToStage), input.Reason)
	if err != nil {
		return nil, err
	}
	return &Output{
		CandidateID: res.Candidate.ID,
		FromStage:   string(res.From),
		Stage:       string(res.To),
	}, nil
}
