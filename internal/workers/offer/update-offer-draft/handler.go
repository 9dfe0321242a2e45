// internal/workers/offer/update-offer-draft/handler.go
package updateofferdraft

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

const TaskType = "update-offer-draft"

type DraftUpdater interface {
	UpdateDraft(ctx context.Context, offerID string, fields models.OfferFields) (*models.Offer, error)
}

type Handler struct {
	offers DraftUpdater
	opts   camunda.JobOptions
}

func NewHandler(cfg *Config, offers DraftUpdater, validator camunda.VariableValidator, log logger.Logger) *Handler {
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
	o, err := h.offers.UpdateDraft(ctx, input.OfferID, input.Fields())
	if err != nil {
		return nil, err
	}
	return &Output{OfferID: o.ID, OfferStatus: string(o.Status), OfferLocked: o.Locked}, nil
}
