// Package postgres implements the store contracts on PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/metrics"
	"recruiting-pipeline/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

var _ store.Store = (*Store)(nil)

// Store runs every statement against db. It never holds a transaction across calls;
// concurrency is handled by conditional UPDATEs.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables and indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.NewDatabaseError("ensure schema", err)
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *Store) exists(ctx context.Context, table, id string) (bool, error) {
	var ok bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&ok); err != nil {
		return false, errors.NewDatabaseError("check "+table, err)
	}
	return ok, nil
}
