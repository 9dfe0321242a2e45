// internal/workers/offer/lock-offer/handler_test.go
package lockoffer

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/pipeline/offers"
	"recruiting-pipeline/internal/store/memory"
)

func TestHandler_Execute_Idempotent(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.CreateCandidate(ctx, &models.Candidate{
		ID: "c-1", Name: "Valerie Thomas", Stage: models.StageOffer, CreatedAt: time.Now().UTC(),
	}))
	log := logger.NewTestLogger(t)
	svc := offers.NewService(st, st, events.NewRecorder(st, events.Options{}, log), nil, offers.Config{}, log)
	draft, err := svc.CreateDraft(ctx, "c-1", models.OfferFields{})
	require.NoError(t, err)

	h := NewHandler(LoadConfig(config.WorkerConfig{}, nil), svc, nil, log)
	for i := 0; i < 2; i++ {
		out, err := h.Execute(ctx, &Input{OfferID: draft.ID})
		require.NoError(t, err)
		assert.True(t, out.OfferLocked)
		assert.Equal(t, "draft", out.OfferStatus)
	}

	evs, err := st.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	locked := 0
	for _, e := range evs {
		if e.EventType == models.EventOfferLocked {
			locked++
		}
	}
	assert.Equal(t, 1, locked)

	_, err = h.Execute(ctx, &Input{OfferID: "missing"})
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}
