// Package offers implements the offer lifecycle: draft, sent, accepted or
// rejected, with a monotonic lock bit. Every mutation is a read, a check and a
// version-conditioned write, so concurrent callers on one offer never clobber
// each other.
package offers

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/common/observability"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/store"
)

// EventRecorder is the best-effort timeline sink.
type EventRecorder interface {
	Record(ctx context.Context, candidateID, eventType string, meta map[string]interface{}, source string)
}

// CandidateReader resolves the candidate an offer is drafted for.
type CandidateReader interface {
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
}

type Config struct {
	StoreTimeout time.Duration
	// LockAttempts bounds how often LockOffer re-reads after losing a race.
	LockAttempts int
}

type Service struct {
	offers     store.OfferStore
	candidates CandidateReader
	recorder   EventRecorder
	obs        *observability.Observability
	cfg        Config
	now        func() time.Time
	newID      func() string
	log        logger.Logger
}

func NewService(offers store.OfferStore, candidates CandidateReader, recorder EventRecorder, obs *observability.Observability, cfg Config, log logger.Logger) *Service {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.LockAttempts <= 0 {
		cfg.LockAttempts = 3
	}
	return &Service{
		offers:     offers,
		candidates: candidates,
		recorder:   recorder,
		obs:        obs,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		log:        log.WithFields(map[string]interface{}{"component": "offer-lifecycle"}),
	}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *Service) span(ctx context.Context, op string, attrs map[string]string) (context.Context, trace.Span) {
	return s.obs.StartSpan(ctx, "offers."+op, attrs)
}

func (s *Service) finish(span trace.Span, op string, err error) {
	metrics.OfferOperations.WithLabelValues(op, errors.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.CodeOf(err)))
	}
	span.End()
}

// GetOffer returns the offer or NOT_FOUND.
func (s *Service) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.offers.GetOffer(sctx, offerID)
}

// CreateDraft opens a new draft for the candidate. It fails with DUPLICATE_DRAFT
// while the candidate still has an unlocked draft or sent offer.
func (s *Service) CreateDraft(ctx context.Context, candidateID string, fields models.OfferFields) (offer *models.Offer, err error) {
	ctx, span := s.span(ctx, "CreateDraft", map[string]string{"candidate.id": candidateID})
	defer func() { s.finish(span, "create_draft", err) }()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.candidates.GetCandidate(sctx, candidateID); err != nil {
		return nil, err
	}

	now := s.now()
	o := &models.Offer{
		ID:          s.newID(),
		CandidateID: candidateID,
		Status:      models.OfferDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	changed := fields.ApplyTo(o)

	if err := s.offers.InsertOffer(sctx, o); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, candidateID, models.EventOfferDraftCreated, map[string]interface{}{
		"offerId": o.ID,
		"fields":  changed,
	}, models.EventSourceSystem)

	s.log.Info("Offer draft created", map[string]interface{}{"offerId": o.ID, "candidateId": candidateID})
	return o, nil
}

// UpdateDraft merges fields into a draft. Locked offers fail with LOCKED and
// offers past draft fail with INVALID_OFFER_STATE. An empty update is a no-op.
func (s *Service) UpdateDraft(ctx context.Context, offerID string, fields models.OfferFields) (offer *models.Offer, err error) {
	ctx, span := s.span(ctx, "UpdateDraft", map[string]string{"offer.id": offerID})
	defer func() { s.finish(span, "update_draft", err) }()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	o, err := s.offers.GetOffer(sctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.Locked {
		return nil, errors.NewLockedError("offer", offerID)
	}
	if o.Status != models.OfferDraft {
		return nil, errors.NewInvalidOfferStateError(offerID, string(o.Status), string(models.OfferDraft))
	}
	if fields.Empty() {
		return o, nil
	}

	expected := o.Version
	changed := fields.ApplyTo(o)
	o.UpdatedAt = s.now()
	if err := s.offers.UpdateOffer(sctx, o, expected); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, o.CandidateID, models.EventOfferUpdated, map[string]interface{}{
		"offerId": o.ID,
		"fields":  changed,
	}, models.EventSourceSystem)
	return o, nil
}

// SendOffer moves a draft to sent.
func (s *Service) SendOffer(ctx context.Context, offerID string) (offer *models.Offer, err error) {
	ctx, span := s.span(ctx, "SendOffer", map[string]string{"offer.id": offerID})
	defer func() { s.finish(span, "send", err) }()

	o, err := s.move(ctx, offerID, models.OfferDraft, models.OfferSent)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, o.CandidateID, models.EventOfferSent, map[string]interface{}{
		"offerId": o.ID,
		"from":    string(models.OfferDraft),
		"to":      string(models.OfferSent),
	}, models.EventSourceSystem)
	s.log.Info("Offer sent", map[string]interface{}{"offerId": o.ID, "candidateId": o.CandidateID})
	return o, nil
}

// RespondToOffer records the candidate's answer to a sent offer.
func (s *Service) RespondToOffer(ctx context.Context, offerID string, accepted bool) (offer *models.Offer, err error) {
	ctx, span := s.span(ctx, "RespondToOffer", map[string]string{"offer.id": offerID})
	defer func() { s.finish(span, "respond", err) }()

	next, eventType := models.OfferRejected, models.EventOfferDeclined
	if accepted {
		next, eventType = models.OfferAccepted, models.EventOfferAccepted
	}

	o, err := s.move(ctx, offerID, models.OfferSent, next)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, o.CandidateID, eventType, map[string]interface{}{
		"offerId": o.ID,
		"from":    string(models.OfferSent),
		"to":      string(next),
	}, models.EventSourceSystem)
	return o, nil
}

// move performs one status step guarded by the lock bit and the version.
func (s *Service) move(ctx context.Context, offerID string, from, to models.OfferStatus) (*models.Offer, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	o, err := s.offers.GetOffer(sctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.Locked {
		return nil, errors.NewLockedError("offer", offerID)
	}
	if o.Status != from {
		return nil, errors.NewInvalidOfferStateError(offerID, string(o.Status), string(from))
	}

	expected := o.Version
	o.Status = to
	o.UpdatedAt = s.now()
	if err := s.offers.UpdateOffer(sctx, o, expected); err != nil {
		return nil, err
	}
	return o, nil
}

// LockOffer sets the lock bit regardless of status. Locking an already locked
// offer succeeds without writing or recording anything. A lost race is retried
// because the outcome does not depend on what the other writer did.
func (s *Service) LockOffer(ctx context.Context, offerID string) (offer *models.Offer, err error) {
	ctx, span := s.span(ctx, "LockOffer", map[string]string{"offer.id": offerID})
	defer func() { s.finish(span, "lock", err) }()

	for attempt := 1; ; attempt++ {
		o, changed, err := s.lockOnce(ctx, offerID)
		if err == nil {
			if changed {
				s.recorder.Record(ctx, o.CandidateID, models.EventOfferLocked, map[string]interface{}{
					"offerId": o.ID,
					"status":  string(o.Status),
				}, models.EventSourceSystem)
			}
			return o, nil
		}
		if !stderrors.Is(err, errors.ErrConcurrentModification) || attempt >= s.cfg.LockAttempts {
			return nil, err
		}
		s.log.Debug("Lock lost a race, retrying", map[string]interface{}{"offerId": offerID, "attempt": attempt})
	}
}

func (s *Service) lockOnce(ctx context.Context, offerID string) (*models.Offer, bool, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	o, err := s.offers.GetOffer(sctx, offerID)
	if err != nil {
		return nil, false, err
	}
	if o.Locked {
		return o, false, nil
	}

	expected := o.Version
	o.Locked = true
	o.UpdatedAt = s.now()
	if err := s.offers.UpdateOffer(sctx, o, expected); err != nil {
		return nil, false, err
	}
	return o, true, nil
}
