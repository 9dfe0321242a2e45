// Package events records candidate timeline events. Recording is best-effort:
// a failed write is logged with everything needed to replay it, pushed to the
// dead-letter queue when one is configured, and never returned to the caller.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/store"
)

// DeadLetter holds events whose append failed.
type DeadLetter interface {
	Push(ctx context.Context, e models.Event) error
	// Peek returns the oldest event without removing it.
	Peek(ctx context.Context) (models.Event, bool, error)
	// Ack removes the oldest event after it was re-appended.
	Ack(ctx context.Context, e models.Event) error
}

// Mirror receives a copy of every persisted event, e.g. a search index.
type Mirror interface {
	Mirror(ctx context.Context, e models.Event) error
}

// Options tunes a Recorder. Zero values are usable.
type Options struct {
	Timeout    time.Duration
	DeadLetter DeadLetter
	Mirrors    []Mirror
	Now        func() time.Time
	NewID      func() string
}

type Recorder struct {
	store      store.EventStore
	timeout    time.Duration
	deadLetter DeadLetter
	mirrors    []Mirror
	now        func() time.Time
	newID      func() string
	log        logger.Logger
}

func NewRecorder(es store.EventStore, opts Options, log logger.Logger) *Recorder {
	r := &Recorder{
		store:      es,
		timeout:    opts.Timeout,
		deadLetter: opts.DeadLetter,
		mirrors:    opts.Mirrors,
		now:        opts.Now,
		newID:      opts.NewID,
		log:        log.WithFields(map[string]interface{}{"component": "event-recorder"}),
	}
	if r.timeout <= 0 {
		r.timeout = 3 * time.Second
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// Record appends one event. It never fails and never panics; an empty source
// defaults to "system". The caller's cancellation does not abort the write.
func (r *Recorder) Record(ctx context.Context, candidateID, eventType string, meta map[string]interface{}, source string) {
	if source == "" {
		source = models.EventSourceSystem
	}
	if meta == nil {
		meta = map[string]interface{}{}
	}
	r.RecordEvent(ctx, models.Event{
		ID:          r.newID(),
		CandidateID: candidateID,
		EventType:   eventType,
		Meta:        meta,
		Source:      source,
		CreatedAt:   r.now(),
	})
}

// RecordEvent is Record for a fully built event.
func (r *Recorder) RecordEvent(ctx context.Context, e models.Event) {
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			r.failed(ctx, e, fmt.Errorf("panic while recording event: %v", rec))
		}
	}()

	if err := r.append(ctx, e); err != nil {
		r.failed(ctx, e, err)
		return
	}
	metrics.EventsRecorded.WithLabelValues(e.EventType, "ok").Inc()
	r.mirror(ctx, e)
}

func (r *Recorder) append(ctx context.Context, e models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.AppendEvent(ctx, &e)
}

func (r *Recorder) failed(ctx context.Context, e models.Event, err error) {
	metrics.EventsRecorded.WithLabelValues(e.EventType, "failed").Inc()
	r.log.Error("Failed to record timeline event", replayFields(e, err))

	if r.deadLetter == nil {
		return
	}
	dctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if perr := r.deadLetter.Push(dctx, e); perr != nil {
		r.log.Error("Failed to dead-letter timeline event", replayFields(e, perr))
		return
	}
	metrics.EventsRecorded.WithLabelValues(e.EventType, "dead_lettered").Inc()
}

func (r *Recorder) mirror(ctx context.Context, e models.Event) {
	for _, m := range r.mirrors {
		mctx, cancel := context.WithTimeout(ctx, r.timeout)
		if err := m.Mirror(mctx, e); err != nil {
			r.log.Warn("Failed to mirror timeline event", map[string]interface{}{
				"eventId":     e.ID,
				"candidateId": e.CandidateID,
				"eventType":   e.EventType,
				"error":       err.Error(),
			})
		}
		cancel()
	}
}

// replayFields carries enough context to re-append the event by hand.
func replayFields(e models.Event, err error) map[string]interface{} {
	return map[string]interface{}{
		"eventId":     e.ID,
		"candidateId": e.CandidateID,
		"eventType":   e.EventType,
		"meta":        e.Meta,
		"source":      e.Source,
		"createdAt":   e.CreatedAt.Format(time.RFC3339Nano),
		"error":       err.Error(),
	}
}

// Query returns the candidate's events newest first. limit <= 0 returns all of them.
func (r *Recorder) Query(ctx context.Context, candidateID string, limit int) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	events, err := r.store.ListEvents(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// ReplayResult summarizes a Replay run.
type ReplayResult struct {
	Replayed int `json:"replayed"`
}

// Replay re-appends up to max dead-lettered events (all when max <= 0), oldest
// first. An event is acked only after its append succeeds, so a crash mid-replay
// leaves it queued and the next run appends it again; the event store ignores
// the repeated ID. Replay stops at the first event that still cannot be appended.
func (r *Recorder) Replay(ctx context.Context, max int) (ReplayResult, error) {
	var res ReplayResult
	if r.deadLetter == nil {
		return res, fmt.Errorf("no dead-letter queue configured")
	}

	for max <= 0 || res.Replayed < max {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e, ok, err := r.deadLetter.Peek(ctx)
		if err != nil {
			return res, err
		}
		if !ok {
			return res, nil
		}

		if err := r.append(ctx, e); err != nil {
			return res, fmt.Errorf("replay event %s: %w", e.ID, err)
		}
		if err := r.deadLetter.Ack(ctx, e); err != nil {
			return res, fmt.Errorf("ack replayed event %s: %w", e.ID, err)
		}
		metrics.EventsRecorded.WithLabelValues(e.EventType, "replayed").Inc()
		r.mirror(ctx, e)
		res.Replayed++
	}
	return res, nil
}
