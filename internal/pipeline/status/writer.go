// Package status owns the side-channel step statuses of a candidate (reference,
// offer, onboarding). Manual overrides always win and lock the field; automated
// writers go through Apply, which refuses to touch a locked field.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/store"
)

// EventRecorder is the best-effort timeline sink.
type EventRecorder interface {
	Record(ctx context.Context, candidateID, eventType string, meta map[string]interface{}, source string)
}

type Writer struct {
	candidates store.CandidateStore
	recorder   EventRecorder
	timeout    time.Duration
	now        func() time.Time
	log        logger.Logger
}

func NewWriter(candidates store.CandidateStore, recorder EventRecorder, timeout time.Duration, log logger.Logger) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		candidates: candidates,
		recorder:   recorder,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.WithFields(map[string]interface{}{"component": "status-writer"}),
	}
}

func validate(field models.StatusField, value string) error {
	if !field.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unknown status field %q", field))
	}
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError("status value is required")
	}
	return nil
}

// Override sets the field with source manual and locks it, regardless of the
// stage graph or an existing lock. It always records {field}_{value} as manual.
func (w *Writer) Override(ctx context.Context, candidateID string, field models.StatusField, value string) (c *models.Candidate, err error) {
	defer func() {
		metrics.StatusWrites.WithLabelValues(string(field), string(models.SourceManual), errors.Outcome(err)).Inc()
	}()

	if err := validate(field, value); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	c, err = w.candidates.OverrideStatus(sctx, candidateID, field, value, w.now())
	if err != nil {
		return nil, err
	}

	w.recorder.Record(context.WithoutCancel(ctx), candidateID, models.StatusEventType(field, value), map[string]interface{}{
		"field": string(field),
		"value": value,
	}, models.EventSourceManual)

	w.log.Info("Status overridden", map[string]interface{}{
		"candidateId": candidateID,
		"field":       string(field),
		"value":       value,
	})
	return c, nil
}

// Apply is the automated write path. It fails with LOCKED when a manual override
// holds the field and records {field}_{value} with source automation on success.
func (w *Writer) Apply(ctx context.Context, candidateID string, field models.StatusField, value string) (err error) {
	defer func() {
		metrics.StatusWrites.WithLabelValues(string(field), string(models.SourceSystem), errors.Outcome(err)).Inc()
	}()

	if err := validate(field, value); err != nil {
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.candidates.SetStatusIfUnlocked(sctx, candidateID, field, value, w.now()); err != nil {
		if errors.CodeOf(err) == errors.ErrCodeLocked {
			w.log.Info("Automated status write refused, field is locked", map[string]interface{}{
				"candidateId": candidateID,
				"field":       string(field),
				"value":       value,
			})
		}
		return err
	}

	w.recorder.Record(context.WithoutCancel(ctx), candidateID, models.StatusEventType(field, value), map[string]interface{}{
		"field": string(field),
		"value": value,
	}, models.EventSourceAutomation)
	return nil
}
