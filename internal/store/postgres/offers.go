package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/models"
)

const offerColumns = `id, candidate_id, salary, start_date, notes, content, status, locked, version, created_at, updated_at`

func scanOffer(row rowScanner) (*models.Offer, error) {
	var (
		o      models.Offer
		salary sql.NullFloat64
		start  sql.NullTime
		status string
	)
	err := row.Scan(&o.ID, &o.CandidateID, &salary, &start, &o.Notes, &o.Content, &status, &o.Locked, &o.Version,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = models.OfferStatus(status)
	if salary.Valid {
		v := salary.Float64
		o.Salary = &v
	}
	if start.Valid {
		t := start.Time
		o.StartDate = &t
	}
	return &o, nil
}

// InsertOffer relies on the offers_one_unlocked_open_per_candidate partial unique index.
func (s *Store) InsertOffer(ctx context.Context, o *models.Offer) error {
	defer observe("insert_offer", time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (id, candidate_id, salary, start_date, notes, content, status, locked, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.CandidateID, nullFloat(o.Salary), nullTime(o.StartDate), o.Notes, o.Content, string(o.Status),
		o.Locked, o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateDraftError(o.CandidateID)
		}
		return errors.NewDatabaseError("insert offer", err)
	}
	return nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	defer observe("get_offer", time.Now())

	o, err := scanOffer(s.db.QueryRowContext(ctx, "SELECT "+offerColumns+" FROM offers WHERE id = $1", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("offer", id)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get offer", err)
	}
	return o, nil
}

func (s *Store) LatestOfferForCandidate(ctx context.Context, candidateID string) (*models.Offer, error) {
	defer observe("latest_offer", time.Now())

	o, err := scanOffer(s.db.QueryRowContext(ctx,
		"SELECT "+offerColumns+" FROM offers WHERE candidate_id = $1 ORDER BY created_at DESC LIMIT 1", candidateID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("offer", "candidate:"+candidateID)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("latest offer", err)
	}
	return o, nil
}

// UpdateOffer writes o if the row version is still expectedVersion. locked is OR-ed so it never clears.
func (s *Store) UpdateOffer(ctx context.Context, o *models.Offer, expectedVersion int64) error {
	defer observe("update_offer", time.Now())

	res, err := s.db.ExecContext(ctx, `
		UPDATE offers SET salary = $3, start_date = $4, notes = $5, content = $6, status = $7,
			locked = (locked OR $8), version = version + 1, updated_at = $9
		WHERE id = $1 AND version = $2`,
		o.ID, expectedVersion, nullFloat(o.Salary), nullTime(o.StartDate), o.Notes, o.Content, string(o.Status),
		o.Locked, o.UpdatedAt,
	)
	if err != nil {
		return errors.NewDatabaseError("update offer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("update offer", err)
	}
	if n == 1 {
		o.Version = expectedVersion + 1
		return nil
	}

	ok, err := s.exists(ctx, "offers", o.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("offer", o.ID)
	}
	return errors.NewConcurrentModificationError("offer", o.ID)
}
