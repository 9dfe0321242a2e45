package hooks

import (
	"context"
	stderrors "errors"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

// ProcessStarter starts a BPMN process instance.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

// StatusApplier is the lock-honouring automated status write.
type StatusApplier interface {
	Apply(ctx context.Context, candidateID string, field models.StatusField, value string) error
}

// OnboardingHook starts the onboarding process when an offer is accepted and
// marks onboarding as in progress unless a recruiter has locked that field.
type OnboardingHook struct {
	Base
	processID string
	starter   ProcessStarter
	status    StatusApplier
	log       logger.Logger
}

// NewOnboardingHook builds the hook. starter may be nil when Zeebe is disabled.
func NewOnboardingHook(processID string, starter ProcessStarter, status StatusApplier, log logger.Logger) *OnboardingHook {
	return &OnboardingHook{
		processID: processID,
		starter:   starter,
		status:    status,
		log:       log.WithFields(map[string]interface{}{"component": "onboarding-hook"}),
	}
}

func (h *OnboardingHook) Name() string { return "onboarding" }

func (h *OnboardingHook) OnOfferAccepted(ctx context.Context, candidateID string) error {
	if err := applyUnlessLocked(ctx, h.status, candidateID, models.FieldOnboarding, "in_progress"); err != nil {
		return err
	}
	if h.starter == nil {
		return nil
	}

	key, err := h.starter.StartProcess(ctx, h.processID, map[string]interface{}{
		"candidateId": candidateID,
	})
	if err != nil {
		return err
	}
	h.log.Info("Onboarding process started", map[string]interface{}{
		"candidateId":        candidateID,
		"processInstanceKey": key,
	})
	return nil
}

// applyUnlessLocked treats a locked field as success; the lock is the answer.
func applyUnlessLocked(ctx context.Context, status StatusApplier, candidateID string, field models.StatusField, value string) error {
	err := status.Apply(ctx, candidateID, field, value)
	if stderrors.Is(err, errors.ErrLocked) {
		return nil
	}
	return err
}
