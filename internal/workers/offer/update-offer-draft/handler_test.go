// internal/workers/offer/update-offer-draft/handler_test.go
package updateofferdraft

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

func TestHandler_Execute(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.CreateCandidate(ctx, &models.Candidate{
		ID: "c-1", Name: "Gladys West", Stage: models.StageOffer, CreatedAt: time.Now().UTC(),
	}))
	log := logger.NewTestLogger(t)
	svc := offers.NewService(st, st, events.NewRecorder(st, events.Options{}, log), nil, offers.Config{}, log)
	draft, err := svc.CreateDraft(ctx, "c-1", models.OfferFields{})
	require.NoError(t, err)

	h := NewHandler(LoadConfig(config.WorkerConfig{}, nil), svc, nil, log)
	content := "Dear Gladys"
	out, err := h.Execute(ctx, &Input{OfferID: draft.ID, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, &Output{OfferID: draft.ID, OfferStatus: "draft", OfferLocked: false}, out)

	o, err := st.GetOffer(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dear Gladys", o.Content)

	_, err = svc.LockOffer(ctx, draft.ID)
	require.NoError(t, err)
	_, err = h.Execute(ctx, &Input{OfferID: draft.ID, Content: &content})
	assert.True(t, stderrors.Is(err, errors.ErrLocked))
}
