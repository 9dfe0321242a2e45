// internal/workers/candidate/reference-check/handler.go
package referencecheck

import (
	"context"
	stderrors "errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

const TaskType = "reference-check"

type StatusApplier interface {
	Apply(ctx context.Context, candidateID string, field models.StatusField, value string) error
}

type CandidateReader interface {
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
}

type Handler struct {
	cfg        *Config
	status     StatusApplier
	candidates CandidateReader
	opts       camunda.JobOptions
	logger     logger.Logger
}

func NewHandler(cfg *Config, status StatusApplier, candidates CandidateReader, validator camunda.VariableValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		cfg:        cfg,
		status:     status,
		candidates: candidates,
		logger:     log,
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
	err := h.status.Apply(ctx, input.CandidateID, models.FieldReference, input.Result)
	switch {
	case err == nil:
		return &Output{CandidateID: input.CandidateID, ReferenceStatus: input.Result, Applied: true}, nil
	case stderrors.Is(err, errors.ErrLocked) && !h.cfg.FailOnLocked:
	default:
		return nil, err
	}

	c, err := h.candidates.GetCandidate(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}
	h.logger.Info("reference status kept by manual override", map[string]interface{}{
		"candidateId": input.CandidateID,
		"result":      input.Result,
		"kept":        c.Reference.Status,
	})
	return &Output{CandidateID: c.ID, ReferenceStatus: c.Reference.Status, Applied: false}, nil
}
