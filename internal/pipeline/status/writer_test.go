package status

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/store/memory"
)

func setup(t *testing.T) (*Writer, *memory.Store) {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.CreateCandidate(context.Background(), &models.Candidate{
		ID: "c-1", Name: "Alan Turing", Stage: models.StageInterview, CreatedAt: time.Now().UTC(),
	}))
	log := logger.NewTestLogger(t)
	return NewWriter(st, events.NewRecorder(st, events.Options{}, log), time.Second, log), st
}

func TestOverrideThenAutomatedWriteIsRefused(t *testing.T) {
	w, st := setup(t)
	ctx := context.Background()

	c, err := w.Override(ctx, "c-1", models.FieldReference, "passed")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatus{Status: "passed", Source: models.SourceManual, Locked: true}, c.Reference)
	require.NotNil(t, c.LastStatusChangedAt)

	err = w.Apply(ctx, "c-1", models.FieldReference, "failed")
	assert.True(t, stderrors.Is(err, errors.ErrLocked))

	got, err := st.GetCandidate(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "passed", got.Reference.Status)

	evs, err := st.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "reference_passed", evs[0].EventType)
	assert.Equal(t, models.EventSourceManual, evs[0].Source)
}

func TestApply_UnlockedField(t *testing.T) {
	w, st := setup(t)
	ctx := context.Background()

	require.NoError(t, w.Apply(ctx, "c-1", models.FieldOnboarding, "started"))

	got, err := st.GetCandidate(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatus{Status: "started", Source: models.SourceSystem}, got.Onboarding)

	evs, err := st.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "onboarding_started", evs[0].EventType)
	assert.Equal(t, models.EventSourceAutomation, evs[0].Source)
}

func TestOverride_LockedFieldCanStillBeOverridden(t *testing.T) {
	w, _ := setup(t)
	ctx := context.Background()

	_, err := w.Override(ctx, "c-1", models.FieldOffer, "extended")
	require.NoError(t, err)
	c, err := w.Override(ctx, "c-1", models.FieldOffer, "withdrawn")
	require.NoError(t, err)
	assert.Equal(t, "withdrawn", c.Offer.Status)
	assert.True(t, c.Offer.Locked)
}

func TestValidation(t *testing.T) {
	w, _ := setup(t)
	ctx := context.Background()

	_, err := w.Override(ctx, "c-1", "salary", "high")
	assert.True(t, stderrors.Is(err, errors.ErrValidationFailed))

	err = w.Apply(ctx, "c-1", models.FieldReference, " ")
	assert.True(t, stderrors.Is(err, errors.ErrValidationFailed))

	_, err = w.Override(ctx, "missing", models.FieldReference, "passed")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}
