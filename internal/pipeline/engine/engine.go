// Package engine applies validated stage transitions to candidates. A transition
// is committed by a compare-and-set on the stage; everything after the commit
// (timeline events, automation hooks) is best-effort and never undoes it.
package engine

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/common/observability"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/stagegraph"
	"recruiting-pipeline/internal/store"
)

// EventRecorder is the timeline: Record never fails, Query is the read side.
type EventRecorder interface {
	Record(ctx context.Context, candidateID, eventType string, meta map[string]interface{}, source string)
	Query(ctx context.Context, candidateID string, limit int) ([]models.Event, error)
}

// HookDispatcher fires automation after a commit. It swallows hook failures.
type HookDispatcher interface {
	StageChanged(ctx context.Context, candidateID string, from, to models.Stage)
	OfferAccepted(ctx context.Context, candidateID string)
}

type Config struct {
	StoreTimeout time.Duration
	// RequireSentOffer gates the accepted stage on the latest offer being sent or accepted.
	RequireSentOffer bool
}

type Deps struct {
	Graph         *stagegraph.Graph
	Candidates    store.CandidateStore
	Offers        store.OfferReader
	Recorder      EventRecorder
	Hooks         HookDispatcher
	Observability *observability.Observability
	Logger        logger.Logger
}

type Engine struct {
	cfg        Config
	graph      *stagegraph.Graph
	candidates store.CandidateStore
	offers     store.OfferReader
	recorder   EventRecorder
	hooks      HookDispatcher
	obs        *observability.Observability
	now        func() time.Time
	log        logger.Logger
}

type noHooks struct{}

func (noHooks) StageChanged(context.Context, string, models.Stage, models.Stage) {}
func (noHooks) OfferAccepted(context.Context, string)                           {}

func New(cfg Config, deps Deps) *Engine {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if deps.Hooks == nil {
		deps.Hooks = noHooks{}
	}
	return &Engine{
		cfg:        cfg,
		graph:      deps.Graph,
		candidates: deps.Candidates,
		offers:     deps.Offers,
		recorder:   deps.Recorder,
		hooks:      deps.Hooks,
		obs:        deps.Observability,
		now:        func() time.Time { return time.Now().UTC() },
		log:        deps.Logger.WithFields(map[string]interface{}{"component": "transition-engine"}),
	}
}

// Result is the committed transition. From lets callers roll back their own view.
type Result struct {
	Candidate *models.Candidate `json:"candidate"`
	From      models.Stage      `json:"from"`
	To        models.Stage      `json:"to"`
}

// Graph exposes the loaded stage graph.
func (e *Engine) Graph() *stagegraph.Graph { return e.graph }

// GetCandidate reads one candidate.
func (e *Engine) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	return e.candidates.GetCandidate(sctx, id)
}

// Transition moves the candidate to the requested stage. Validation runs in a
// fixed order: unknown stage, unknown candidate, terminal current stage, missing
// edge, then the offer gate. A lost race fails with CONCURRENT_MODIFICATION and
// changes nothing; the caller re-reads and retries.
func (e *Engine) Transition(ctx context.Context, candidateID string, to models.Stage, reason string) (res *Result, err error) {
	ctx, span := e.obs.StartSpan(ctx, "engine.Transition", map[string]string{
		"candidate.id": candidateID,
		"stage.to":     string(to),
	})
	defer func() { e.finish(span, err) }()

	if !e.graph.IsValidStage(to) {
		return nil, errors.NewInvalidStageError(string(to))
	}

	sctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	c, err := e.candidates.GetCandidate(sctx, candidateID)
	if err != nil {
		return nil, err
	}
	from := c.Stage

	if e.graph.IsTerminal(from) {
		return nil, errors.NewTerminalStateViolationError(candidateID, string(from))
	}
	if !e.graph.CanTransition(from, to) {
		return nil, errors.NewIllegalTransitionError(candidateID, string(from), string(to))
	}
	if to == e.graph.Accepted() && e.cfg.RequireSentOffer {
		if err := e.checkOffer(sctx, candidateID); err != nil {
			return nil, err
		}
	}

	at := e.now()
	if err := e.candidates.CompareAndSetStage(sctx, candidateID, from, to, at); err != nil {
		return nil, err
	}

	// committed
	c.Stage = to
	c.LastStatusChangedAt = &at
	metrics.StageTransitions.WithLabelValues(string(from), string(to)).Inc()
	span.SetAttributes(attribute.String("stage.from", string(from)))

	e.log.Info("Stage transition committed", map[string]interface{}{
		"candidateId": candidateID,
		"from":        string(from),
		"to":          string(to),
		"reason":      reason,
	})

	e.afterCommit(context.WithoutCancel(ctx), candidateID, from, to, reason)
	return &Result{Candidate: c, From: from, To: to}, nil
}

// Reject moves a non-terminal candidate to the rejected stage.
func (e *Engine) Reject(ctx context.Context, candidateID, reason string) (*Result, error) {
	return e.Transition(ctx, candidateID, e.graph.Rejected(), reason)
}

func (e *Engine) checkOffer(ctx context.Context, candidateID string) error {
	o, err := e.offers.LatestOfferForCandidate(ctx, candidateID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return errors.NewInvalidOfferStateError("", "none", string(models.OfferSent))
	}
	if err != nil {
		return err
	}
	if o.Status != models.OfferSent && o.Status != models.OfferAccepted {
		return errors.NewInvalidOfferStateError(o.ID, string(o.Status), string(models.OfferSent))
	}
	return nil
}

func (e *Engine) afterCommit(ctx context.Context, candidateID string, from, to models.Stage, reason string) {
	meta := map[string]interface{}{"from": string(from), "to": string(to)}
	if reason != "" {
		meta["reason"] = reason
	}
	e.recorder.Record(ctx, candidateID, models.EventStageChange, meta, models.EventSourceSystem)

	if to == e.graph.Rejected() {
		e.recorder.Record(ctx, candidateID, models.EventRejected, map[string]interface{}{
			"reason": reason,
			"from":   string(from),
		}, models.EventSourceSystem)
	}

	e.hooks.StageChanged(ctx, candidateID, from, to)

	if to == e.graph.Accepted() {
		e.recorder.Record(ctx, candidateID, models.EventOnboardingStarted, map[string]interface{}{
			"from": string(from),
		}, models.EventSourceSystem)
		e.hooks.OfferAccepted(ctx, candidateID)
	}
}

// Timeline returns the candidate's events newest first, or NOT_FOUND.
func (e *Engine) Timeline(ctx context.Context, candidateID string, limit int) ([]models.Event, error) {
	if _, err := e.GetCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	return e.recorder.Query(ctx, candidateID, limit)
}

func (e *Engine) finish(span trace.Span, err error) {
	if err != nil {
		code := errors.CodeOf(err)
		metrics.TransitionsRejected.WithLabelValues(string(code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
	}
	span.End()
}
