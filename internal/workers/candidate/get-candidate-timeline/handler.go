// internal/workers/candidate/get-candidate-timeline/handler.go
package getcandidatetimeline

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

const (
	TaskType     = "get-candidate-timeline"
	defaultLimit = 50
)

type TimelineReader interface {
	Timeline(ctx context.Context, candidateID string, limit int) ([]models.Event, error)
}

type Handler struct {
	timeline TimelineReader
	opts     camunda.JobOptions
}

func NewHandler(cfg *Config, timeline TimelineReader, validator camunda.VariableValidator, log logger.Logger) *Handler {
	return &Handler{
		timeline: timeline,
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
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	evs, err := h.timeline.Timeline(ctx, input.CandidateID, limit)
	if err != nil {
		return nil, err
	}
	if evs == nil {
		evs = []models.Event{}
	}
	return &Output{CandidateID: input.CandidateID, Events: evs, EventCount: len(evs)}, nil
}
