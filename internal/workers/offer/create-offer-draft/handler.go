// internal/workers/offer/create-offer-draft/handler.go
package createofferdraft

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

const TaskType = "create-offer-draft"

type DraftCreator interface {
	CreateDraft(ctx context.Context, candidateID string, fields models.OfferFields) (*models.Offer, error)
}

type Handler struct {
	offers DraftCreator
	opts   camunda.JobOptions
}

func NewHandler(cfg *Config, offers DraftCreator, validator camunda.VariableValidator, log logger.Logger) *Handler {
	return &Handler{
		offers: offers,
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
	o, err := h.offers.CreateDraft(ctx, input.CandidateID, input.Fields())
	if err != nil {
		return nil, err
	}
	return &Output{OfferID: o.ID, OfferStatus: string(o.Status), OfferLocked: o.Locked}, nil
}
