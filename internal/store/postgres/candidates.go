package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/models"
)

const candidateColumns = `id, name, email, phone, location, linkedin, portfolio, role, job_id, source, stage,
	pre_score, post_score,
	reference_status, reference_source, reference_locked,
	offer_status, offer_source, offer_locked,
	onboarding_status, onboarding_source, onboarding_locked,
	last_status_changed_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(row rowScanner) (*models.Candidate, error) {
	var (
		c                     models.Candidate
		stage                 string
		pre, post             sql.NullFloat64
		lastChanged           sql.NullTime
		refSrc, offSrc, onSrc string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Location, &c.LinkedIn, &c.Portfolio, &c.Role, &c.JobID, &c.Source, &stage,
		&pre, &post,
		&c.Reference.Status, &refSrc, &c.Reference.Locked,
		&c.Offer.Status, &offSrc, &c.Offer.Locked,
		&c.Onboarding.Status, &onSrc, &c.Onboarding.Locked,
		&lastChanged, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Stage = models.Stage(stage)
	c.Reference.Source = models.StatusSource(refSrc)
	c.Offer.Source = models.StatusSource(offSrc)
	c.Onboarding.Source = models.StatusSource(onSrc)
	if pre.Valid {
		v := pre.Float64
		c.PreScore = &v
	}
	if post.Valid {
		v := post.Float64
		c.PostScore = &v
	}
	if lastChanged.Valid {
		t := lastChanged.Time
		c.LastStatusChangedAt = &t
	}
	return &c, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// statusColumns whitelists the column triple for a side-channel field.
func statusColumns(field models.StatusField) (status, source, locked string, err error) {
	switch field {
	case models.FieldReference:
		return "reference_status", "reference_source", "reference_locked", nil
	case models.FieldOffer:
		return "offer_status", "offer_source", "offer_locked", nil
	case models.FieldOnboarding:
		return "onboarding_status", "onboarding_source", "onboarding_locked", nil
	}
	return "", "", "", errors.NewValidationError(fmt.Sprintf("unknown status field %q", field))
}

func (s *Store) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	defer observe("create_candidate", time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates (id, name, email, phone, location, linkedin, portfolio, role, job_id, source, stage,
			pre_score, post_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Name, c.Email, c.Phone, c.Location, c.LinkedIn, c.Portfolio, c.Role, c.JobID, c.Source, string(c.Stage),
		nullFloat(c.PreScore), nullFloat(c.PostScore), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewValidationError(fmt.Sprintf("candidate %s already exists", c.ID))
		}
		return errors.NewDatabaseError("create candidate", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	defer observe("get_candidate", time.Now())

	row := s.db.QueryRowContext(ctx, "SELECT "+candidateColumns+" FROM candidates WHERE id = $1", id)
	c, err := scanCandidate(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("candidate", id)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get candidate", err)
	}
	return c, nil
}

func (s *Store) CompareAndSetStage(ctx context.Context, id string, expected, next models.Stage, at time.Time) error {
	defer observe("compare_and_set_stage", time.Now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET stage = $3, last_status_changed_at = $4 WHERE id = $1 AND stage = $2`,
		id, string(expected), string(next), at,
	)
	if err != nil {
		return errors.NewDatabaseError("compare and set stage", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("compare and set stage", err)
	}
	if n == 1 {
		return nil
	}

	ok, err := s.exists(ctx, "candidates", id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("candidate", id)
	}
	return errors.NewConcurrentModificationError("candidate", id)
}

func (s *Store) OverrideStatus(ctx context.Context, id string, field models.StatusField, value string, at time.Time) (*models.Candidate, error) {
	defer observe("override_status", time.Now())

	statusCol, sourceCol, lockedCol, err := statusColumns(field)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		`UPDATE candidates SET %s = $2, %s = $3, %s = TRUE, last_status_changed_at = $4 WHERE id = $1 RETURNING %s`,
		statusCol, sourceCol, lockedCol, candidateColumns,
	)
	c, err := scanCandidate(s.db.QueryRowContext(ctx, query, id, value, string(models.SourceManual), at))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("candidate", id)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("override status", err)
	}
	return c, nil
}

func (s *Store) SetStatusIfUnlocked(ctx context.Context, id string, field models.StatusField, value string, at time.Time) error {
	defer observe("set_status", time.Now())

	statusCol, sourceCol, lockedCol, err := statusColumns(field)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`UPDATE candidates SET %s = $2, %s = $3, last_status_changed_at = $4 WHERE id = $1 AND %s = FALSE`,
		statusCol, sourceCol, lockedCol,
	)
	res, err := s.db.ExecContext(ctx, query, id, value, string(models.SourceSystem), at)
	if err != nil {
		return errors.NewDatabaseError("set status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("set status", err)
	}
	if n == 1 {
		return nil
	}

	ok, err := s.exists(ctx, "candidates", id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("candidate", id)
	}
	return errors.NewLockedError(statusCol, id)
}
