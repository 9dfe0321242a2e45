// internal/workers/candidate/get-candidate-timeline/handler_test.go
package getcandidatetimeline

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
	"recruiting-pipeline/internal/pipeline/engine"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/pipeline/stagegraph"
	"recruiting-pipeline/internal/store/memory"
)

func TestHandler_Execute(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.CreateCandidate(ctx, &models.Candidate{
		ID: "c-1", Name: "Melba Roy", Stage: models.StageApplied, CreatedAt: time.Now().UTC(),
	}))
	log := logger.NewTestLogger(t)
	eng := engine.New(engine.Config{}, engine.Deps{
		Graph:      stagegraph.Default(),
		Candidates: st,
		Offers:     st,
		Recorder:   events.NewRecorder(st, events.Options{}, log),
		Logger:     log,
	})
	for _, to := range []models.Stage{models.StageScreening, models.StageInterview, models.StageOffer} {
		_, err := eng.Transition(ctx, "c-1", to, "")
		require.NoError(t, err)
	}
	h := NewHandler(LoadConfig(config.WorkerConfig{}, nil), eng, nil, log)

	out, err := h.Execute(ctx, &Input{CandidateID: "c-1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, out.EventCount)
	assert.Equal(t, "offer", out.Events[0].Meta["to"])

	out, err = h.Execute(ctx, &Input{CandidateID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.EventCount)

	_, err = h.Execute(ctx, &Input{CandidateID: "ghost"})
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}
