package main

import (
	"context"
	"fmt"

	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/database"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/store"
	"recruiting-pipeline/internal/store/memory"
	"recruiting-pipeline/internal/store/postgres"
	"recruiting-pipeline/internal/store/redisstore"
)

// session is the slice of the pipeline an operator command needs: the event
// store behind a recorder wired to the dead-letter queue.
type session struct {
	Recorder *events.Recorder
	closers  []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func openSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*session, error) {
	s := &session{}

	var es store.EventStore
	switch cfg.Pipeline.Store {
	case "memory":
		es = memory.New()
	default:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pg.Close)
		if err := pg.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres unreachable: %w", err)
		}
		es = postgres.New(pg.DB)
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	s.closers = append(s.closers, rdb.Close)
	if err := rdb.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	s.Recorder = events.NewRecorder(es, events.Options{
		Timeout:    config.GetDuration(cfg.Pipeline.EventTimeout),
		DeadLetter: redisstore.NewDeadLetterQueue(rdb.Client, cfg.Pipeline.DeadLetterKey),
	}, log)
	return s, nil
}
