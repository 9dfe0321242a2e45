// Package memory is an in-process implementation of the store contracts. Each
// candidate, offer and event log carries its own mutex, so work on different
// candidates never contends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/store"
)

var _ store.Store = (*Store)(nil)

type candidateRow struct {
	mu sync.Mutex
	c  *models.Candidate
}

type offerRow struct {
	mu sync.Mutex
	o  *models.Offer
}

// offerIndex serializes offer creation per candidate.
type offerIndex struct {
	mu  sync.Mutex
	ids []string
}

type eventLog struct {
	mu     sync.Mutex
	events []storedEvent
}

type storedEvent struct {
	seq uint64
	e   models.Event
}

type Store struct {
	candidates sync.Map // id -> *candidateRow
	offers     sync.Map // id -> *offerRow
	byCand     sync.Map // candidateID -> *offerIndex
	events     sync.Map // candidateID -> *eventLog
	seq        atomic.Uint64
}

func New() *Store {
	return &Store{}
}

// ==========================
// Candidates
// ==========================

func (s *Store) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDatabaseError("create candidate", err)
	}
	if _, loaded := s.candidates.LoadOrStore(c.ID, &candidateRow{c: c.Clone()}); loaded {
		return errors.NewValidationError(fmt.Sprintf("candidate %s already exists", c.ID))
	}
	return nil
}

func (s *Store) row(id string) (*candidateRow, error) {
	v, ok := s.candidates.Load(id)
	if !ok {
		return nil, errors.NewNotFoundError("candidate", id)
	}
	return v.(*candidateRow), nil
}

func (s *Store) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDatabaseError("get candidate", err)
	}
	r, err := s.row(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c.Clone(), nil
}

func (s *Store) CompareAndSetStage(ctx context.Context, id string, expected, next models.Stage, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDatabaseError("compare and set stage", err)
	}
	r, err := s.row(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c.Stage != expected {
		return errors.NewConcurrentModificationError("candidate", id)
	}
	r.c.Stage = next
	ts := at
	r.c.LastStatusChangedAt = &ts
	return nil
}

func (s *Store) OverrideStatus(ctx context.Context, id string, field models.StatusField, value string, at time.Time) (*models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDatabaseError("override status", err)
	}
	r, err := s.row(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.c.SetStep(field, models.StepStatus{Status: value, Source: models.SourceManual, Locked: true})
	ts := at
	r.c.LastStatusChangedAt = &ts
	return r.c.Clone(), nil
}

func (s *Store) SetStatusIfUnlocked(ctx context.Context, id string, field models.StatusField, value string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDatabaseError("set status", err)
	}
	r, err := s.row(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c.Step(field).Locked {
		return errors.NewLockedError(string(field)+"_status", id)
	}
	r.c.SetStep(field, models.StepStatus{Status: value, Source: models.SourceSystem})
	ts := at
	r.c.LastStatusChangedAt = &ts
	return nil
}

// ==========================
// Offers
// ==========================

func (s *Store) InsertOffer(ctx context.Context, o *models.Offer) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDatabaseError("insert offer", err)
	}
	v, _ := s.byCand.LoadOrStore(o.CandidateID, &offerIndex{})
	idx := v.(*offerIndex)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, id := range idx.ids {
		if existing, ok := s.offers.Load(id); ok {
			row := existing.(*offerRow)
			row.mu.Lock()
			open := row.o.Open()
			row.mu.Unlock()
			if open {
				return errors.NewDuplicateDraftError(o.CandidateID)
			}
		}
	}

	s.offers.Store(o.ID, &offerRow{o: o.Clone()})
	idx.ids = append(idx.ids, o.ID)
	return nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDatabaseError("get offer", err)
	}
	v, ok := s.offers.Load(id)
	if !ok {
		return nil, errors.NewNotFoundError("offer", id)
	}
	row := v.(*offerRow)
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.o.Clone(), nil
}

func (s *Store) LatestOfferForCandidate(ctx context.Context, candidateID string) (*models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDatabaseError("latest offer", err)
	}
	v, ok := s.byCand.Load(candidateID)
	if !ok {
		return nil, errors.NewNotFoundError("offer", "candidate:"+candidateID)
	}
	idx := v.(*offerIndex)
	idx.mu.Lock()
	var last string
	if n := len(idx.ids); n > 0 {
		last = idx.ids[n-1]
	}
	idx.mu.Unlock()

	if last == "" {
		return nil, errors.NewNotFoundError("offer", "candidate:"+candidateID)
	}
	return s.GetOffer(ctx, last)
}

func (s *Store) UpdateOffer(ctx context.Context, o *models.Offer, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDatabaseError("update offer", err)
	}
	v, ok := s.offers.Load(o.ID)
	if !ok {
		return errors.NewNotFoundError("offer", o.ID)
	}
	row := v.(*offerRow)
	row.mu.Lock()
	defer row.mu.Unlock()

	if row.o.Version != expectedVersion {
		return errors.NewConcurrentModificationError("offer", o.ID)
	}
	next := o.Clone()
	next.Version = expectedVersion + 1
	next.CandidateID = row.o.CandidateID
	next.CreatedAt = row.o.CreatedAt
	// locking is monotonic
	next.Locked = next.Locked || row.o.Locked
	row.o = next
	o.Version = next.Version
	return nil
}

// ==========================
// Events
// ==========================

func (s *Store) AppendEvent(ctx context.Context, e *models.Event) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDatabaseError("append event", err)
	}
	v, _ := s.events.LoadOrStore(e.CandidateID, &eventLog{})
	log := v.(*eventLog)

	cp := *e
	cp.Meta = copyMeta(e.Meta)

	log.mu.Lock()
	defer log.mu.Unlock()
	// replays re-append by ID; the first write wins
	for _, se := range log.events {
		if se.e.ID == cp.ID {
			return nil
		}
	}
	log.events = append(log.events, storedEvent{seq: s.seq.Add(1), e: cp})
	return nil
}

func (s *Store) ListEvents(ctx context.Context, candidateID string) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDatabaseError("list events", err)
	}
	v, ok := s.events.Load(candidateID)
	if !ok {
		return []models.Event{}, nil
	}
	log := v.(*eventLog)

	log.mu.Lock()
	stored := make([]storedEvent, len(log.events))
	copy(stored, log.events)
	log.mu.Unlock()

	sort.SliceStable(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.e.CreatedAt.Equal(b.e.CreatedAt) {
			return a.e.CreatedAt.After(b.e.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.Event, len(stored))
	for i, se := range stored {
		out[i] = se.e
		out[i].Meta = copyMeta(se.e.Meta)
	}
	return out, nil
}

func copyMeta(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
