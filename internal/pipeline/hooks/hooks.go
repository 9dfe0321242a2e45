// Package hooks dispatches best-effort automation after committed changes:
// recruiter notifications, the onboarding process and status synchronisation.
// A hook failure is logged and counted, never returned to the caller.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/models"
)

// Hook is one automation target. Embed Base to implement only some callbacks.
type Hook interface {
	Name() string
	OnStageChanged(ctx context.Context, candidateID string, from, to models.Stage) error
	OnOfferAccepted(ctx context.Context, candidateID string) error
	OnCandidateCreated(ctx context.Context, c *models.Candidate) error
}

// Base implements every callback as a no-op.
type Base struct{}

func (Base) OnStageChanged(context.Context, string, models.Stage, models.Stage) error { return nil }
func (Base) OnOfferAccepted(context.Context, string) error                           { return nil }
func (Base) OnCandidateCreated(context.Context, *models.Candidate) error             { return nil }

// Guard de-duplicates one-shot callbacks across processes.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type DispatcherConfig struct {
	Timeout time.Duration
	// Async runs hooks on their own goroutines; Wait blocks until they finish.
	Async bool
}

// Dispatcher fans callbacks out to every registered hook.
type Dispatcher struct {
	hooks   []Hook
	timeout time.Duration
	async   bool
	guard   Guard
	wg      sync.WaitGroup
	log     logger.Logger
}

// NewDispatcher builds a dispatcher. guard may be nil.
func NewDispatcher(cfg DispatcherConfig, guard Guard, log logger.Logger, hooks ...Hook) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		hooks:   hooks,
		timeout: cfg.Timeout,
		async:   cfg.Async,
		guard:   guard,
		log:     log.WithFields(map[string]interface{}{"component": "hook-dispatcher"}),
	}
}

// StageChanged notifies every hook of a committed stage change.
func (d *Dispatcher) StageChanged(ctx context.Context, candidateID string, from, to models.Stage) {
	d.each(ctx, "stage_changed", "", candidateID, func(ctx context.Context, h Hook) error {
		return h.OnStageChanged(ctx, candidateID, from, to)
	}, map[string]interface{}{"from": string(from), "to": string(to)})
}

// OfferAccepted fires at most once per candidate and hook while the guard holds the claim.
func (d *Dispatcher) OfferAccepted(ctx context.Context, candidateID string) {
	d.each(ctx, "offer_accepted", "offer_accepted:"+candidateID, candidateID, func(ctx context.Context, h Hook) error {
		return h.OnOfferAccepted(ctx, candidateID)
	}, nil)
}

// CandidateCreated fires at most once per candidate and hook while the guard holds the claim.
func (d *Dispatcher) CandidateCreated(ctx context.Context, c *models.Candidate) {
	snapshot := c.Clone()
	d.each(ctx, "candidate_created", "candidate_created:"+c.ID, c.ID, func(ctx context.Context, h Hook) error {
		return h.OnCandidateCreated(ctx, snapshot)
	}, nil)
}

// Wait blocks until every asynchronous invocation has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) each(ctx context.Context, callback, onceKey, candidateID string, call func(context.Context, Hook) error, extra map[string]interface{}) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range d.hooks {
		h := h
		run := func() {
			d.invoke(ctx, h, callback, onceKey, candidateID, call, extra)
		}
		if d.async {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				run()
			}()
			continue
		}
		run()
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h Hook, callback, onceKey, candidateID string, call func(context.Context, Hook) error, extra map[string]interface{}) {
	fields := map[string]interface{}{
		"hook":        h.Name(),
		"callback":    callback,
		"candidateId": candidateID,
	}
	for k, v := range extra {
		fields[k] = v
	}

	var key string
	if onceKey != "" && d.guard != nil {
		key = h.Name() + ":" + onceKey
		claimed, err := d.guard.Claim(ctx, key)
		switch {
		case err != nil:
			// fail open
			d.log.Warn("Hook guard unavailable, invoking anyway", mergeFields(fields, "error", err.Error()))
			key = ""
		case !claimed:
			metrics.HookInvocations.WithLabelValues(h.Name(), callback, "duplicate").Inc()
			d.log.Debug("Hook already fired, skipping", fields)
			return
		}
	}

	start := time.Now()
	err := d.safeCall(ctx, h, call)
	metrics.HookDuration.WithLabelValues(h.Name(), callback).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.HookInvocations.WithLabelValues(h.Name(), callback, "failed").Inc()
		d.log.Error("Automation hook failed", mergeFields(fields, "error", err.Error()))
		if key != "" {
			if rerr := d.guard.Release(ctx, key); rerr != nil {
				d.log.Warn("Failed to release hook guard", mergeFields(fields, "error", rerr.Error()))
			}
		}
		return
	}
	metrics.HookInvocations.WithLabelValues(h.Name(), callback, "ok").Inc()
}

func (d *Dispatcher) safeCall(ctx context.Context, h Hook, call func(context.Context, Hook) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewExternalServiceError(h.Name(), fmt.Errorf("panic: %v", rec), false)
		}
	}()
	return call(ctx, h)
}

func mergeFields(fields map[string]interface{}, k string, v interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for key, val := range fields {
		out[key] = val
	}
	out[k] = v
	return out
}
