package hooks

import (
	"context"

	"recruiting-pipeline/internal/models"
)

// StatusSyncHook keeps the offer step status in line with the pipeline stage.
type StatusSyncHook struct {
	Base
	offerStage models.Stage
	status     StatusApplier
}

func NewStatusSyncHook(offerStage models.Stage, status StatusApplier) *StatusSyncHook {
	return &StatusSyncHook{offerStage: offerStage, status: status}
}

func (h *StatusSyncHook) Name() string { return "status-sync" }

func (h *StatusSyncHook) OnStageChanged(ctx context.Context, candidateID string, _, to models.Stage) error {
	if to != h.offerStage {
		return nil
	}
	return applyUnlessLocked(ctx, h.status, candidateID, models.FieldOffer, "extended")
}

func (h *StatusSyncHook) OnOfferAccepted(ctx context.Context, candidateID string) error {
	return applyUnlessLocked(ctx, h.status, candidateID, models.FieldOffer, "accepted")
}
