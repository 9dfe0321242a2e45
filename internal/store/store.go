// Package store defines the persistence contracts of the pipeline core. Every
// mutation is conditioned on previously read state so concurrent callers never
// silently overwrite one another.
package store

import (
	"context"
	"time"

	"recruiting-pipeline/internal/models"
)

// CandidateStore is the candidate table.
type CandidateStore interface {
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)

	// CompareAndSetStage writes next only if the row still holds expected.
	// It fails with ErrConcurrentModification on a lost race and ErrNotFound for an unknown id.
	CompareAndSetStage(ctx context.Context, id string, expected, next models.Stage, at time.Time) error

	// OverrideStatus sets the field's status with source manual and locks it, unconditionally.
	OverrideStatus(ctx context.Context, id string, field models.StatusField, value string, at time.Time) (*models.Candidate, error)

	// SetStatusIfUnlocked sets the field's status with source system unless the field is locked,
	// in which case it fails with ErrLocked.
	SetStatusIfUnlocked(ctx context.Context, id string, field models.StatusField, value string, at time.Time) error
}

// OfferStore is the offer table.
type OfferStore interface {
	// InsertOffer fails with ErrDuplicateDraft when the candidate already has an open offer.
	InsertOffer(ctx context.Context, o *models.Offer) error
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	// LatestOfferForCandidate returns the most recently created offer, or ErrNotFound.
	LatestOfferForCandidate(ctx context.Context, candidateID string) (*models.Offer, error)
	// UpdateOffer replaces the row if its version still equals expectedVersion and bumps the version.
	UpdateOffer(ctx context.Context, o *models.Offer, expectedVersion int64) error
}

// OfferReader is the read side of OfferStore the transition engine consults.
type OfferReader interface {
	LatestOfferForCandidate(ctx context.Context, candidateID string) (*models.Offer, error)
}

// EventStore is the append-only candidate_events table.
type EventStore interface {
	AppendEvent(ctx context.Context, e *models.Event) error
	// ListEvents returns the candidate's events, newest first.
	ListEvents(ctx context.Context, candidateID string) ([]models.Event, error)
}

// Store bundles the three tables.
type Store interface {
	CandidateStore
	OfferStore
	EventStore
}
