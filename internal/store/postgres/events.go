package postgres

import (
	"context"
	"encoding/json"
	"time"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/models"
)

func (s *Store) AppendEvent(ctx context.Context, e *models.Event) error {
	defer observe("append_event", time.Now())

	meta := e.Meta
	if meta == nil {
		meta = map[string]interface{}{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return errors.NewValidationError("event meta is not JSON-encodable: " + err.Error())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidate_events (id, candidate_id, event_type, meta, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.CandidateID, e.EventType, string(raw), e.Source, e.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseError("append event", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, candidateID string) ([]models.Event, error) {
	defer observe("list_events", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, event_type, meta, source, created_at
		FROM candidate_events
		WHERE candidate_id = $1
		ORDER BY created_at DESC, seq DESC`, candidateID)
	if err != nil {
		return nil, errors.NewDatabaseError("list events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e   models.Event
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.EventType, &raw, &e.Source, &e.CreatedAt); err != nil {
			return nil, errors.NewDatabaseError("scan event", err)
		}
		e.Meta = map[string]interface{}{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Meta); err != nil {
				return nil, errors.NewDatabaseError("decode event meta", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("list events", err)
	}
	return events, nil
}
