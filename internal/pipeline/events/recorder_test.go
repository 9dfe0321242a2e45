package events

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/store/memory"
	"recruiting-pipeline/internal/store/redisstore"
)

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// flakyStore fails AppendEvent while down is set and otherwise delegates.
type flakyStore struct {
	*memory.Store
	mu    sync.Mutex
	down  bool
	panic bool
}

func (f *flakyStore) setDown(v bool) {
	f.mu.Lock()
	f.down = v
	f.mu.Unlock()
}

func (f *flakyStore) AppendEvent(ctx context.Context, e *models.Event) error {
	f.mu.Lock()
	down, p := f.down, f.panic
	f.mu.Unlock()
	if p {
		panic("driver exploded")
	}
	if down {
		return stderrors.New("connection refused")
	}
	return f.Store.AppendEvent(ctx, e)
}

type recordingMirror struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (m *recordingMirror) Mirror(_ context.Context, e models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e-%d", n)
	}
}

func ticking() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func newDeadLetter(t *testing.T) *redisstore.DeadLetterQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewDeadLetterQueue(client, "dlq")
}

func TestRecord_AppendsAndMirrors(t *testing.T) {
	st := memory.New()
	mirror := &recordingMirror{}
	rec := NewRecorder(st, Options{Mirrors: []Mirror{mirror}, NewID: sequentialIDs(), Now: ticking()}, logger.NewTestLogger(t))
	ctx := context.Background()

	rec.Record(ctx, "c-1", models.EventStageChange, map[string]interface{}{"from": "applied", "to": "screening"}, "")
	rec.Record(ctx, "c-1", "reference_passed", nil, models.EventSourceManual)

	events, err := rec.Query(ctx, "c-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "reference_passed", events[0].EventType)
	assert.Equal(t, models.EventSourceManual, events[0].Source)
	assert.NotNil(t, events[0].Meta)
	assert.Equal(t, models.EventSourceSystem, events[1].Source)
	assert.Equal(t, "applied", events[1].Meta["from"])

	limited, err := rec.Query(ctx, "c-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "e-2", limited[0].ID)

	assert.Len(t, mirror.events, 2)
}

func TestRecord_MirrorFailureIsIgnored(t *testing.T) {
	st := memory.New()
	rec := NewRecorder(st, Options{Mirrors: []Mirror{&recordingMirror{err: stderrors.New("es down")}}}, logger.NewNoOpLogger())

	rec.Record(context.Background(), "c-1", models.EventOfferSent, nil, "")

	events, err := st.ListEvents(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecord_FailureIsLoggedWithReplayContext(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	st := &flakyStore{Store: memory.New(), down: true}
	rec := NewRecorder(st, Options{NewID: sequentialIDs(), Now: ticking()}, logger.NewZapAdapter(zap.New(core)))

	rec.Record(context.Background(), "c-1", models.EventStageChange, map[string]interface{}{"from": "offer", "to": "rejected"}, "")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "e-1", fields["eventId"])
	assert.Equal(t, "c-1", fields["candidateId"])
	assert.Equal(t, models.EventStageChange, fields["eventType"])
	assert.Equal(t, "system", fields["source"])
	assert.Equal(t, "connection refused", fields["error"])
	assert.NotEmpty(t, fields["createdAt"])
	assert.NotNil(t, fields["meta"])
}

func TestRecord_RecoversPanics(t *testing.T) {
	st := &flakyStore{Store: memory.New(), panic: true}
	rec := NewRecorder(st, Options{}, logger.NewNoOpLogger())

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), "c-1", models.EventStageChange, nil, "")
	})
}

func TestRecord_IgnoresCallerCancellation(t *testing.T) {
	st := memory.New()
	rec := NewRecorder(st, Options{}, logger.NewNoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec.Record(ctx, "c-1", models.EventStageChange, nil, "")

	events, err := st.ListEvents(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestReplay_DrainsDeadLetterInOrder(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: memory.New(), down: true}
	dlq := newDeadLetter(t)
	rec := NewRecorder(st, Options{DeadLetter: dlq, NewID: sequentialIDs(), Now: ticking()}, logger.NewNoOpLogger())

	rec.Record(ctx, "c-1", models.EventStageChange, map[string]interface{}{"to": "screening"}, "")
	rec.Record(ctx, "c-1", models.EventStageChange, map[string]interface{}{"to": "interview"}, "")
	rec.Record(ctx, "c-1", models.EventStageChange, map[string]interface{}{"to": "offer"}, "")

	events, err := st.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	require.Empty(t, events)

	// still down: nothing leaves the queue
	res, err := rec.Replay(ctx, 0)
	require.Error(t, err)
	assert.Equal(t, 0, res.Replayed)
	n, err := dlq.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	st.setDown(false)
	res, err = rec.Replay(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replayed)

	res, err = rec.Replay(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replayed)

	events, err = st.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"e-3", "e-2", "e-1"}, []string{events[0].ID, events[1].ID, events[2].ID})
	assert.Equal(t, "offer", events[0].Meta["to"])
}

type failingAck struct {
	DeadLetter
	mu    sync.Mutex
	fails int
}

func (f *failingAck) Ack(ctx context.Context, e models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return stderrors.New("connection reset by peer")
	}
	return f.DeadLetter.Ack(ctx, e)
}

func TestReplay_EventSurvivesLostAck(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: memory.New(), down: true}
	dlq := &failingAck{DeadLetter: newDeadLetter(t), fails: 1}
	rec := NewRecorder(st, Options{DeadLetter: dlq, NewID: sequentialIDs(), Now: ticking()}, logger.NewNoOpLogger())

	rec.Record(ctx, "c-1", models.EventStageChange, map[string]interface{}{"to": "screening"}, "")
	st.setDown(false)

	_, err := rec.Replay(ctx, 0)
	require.Error(t, err)
	_, ok, err := dlq.Peek(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := rec.Replay(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replayed)

	events, err := st.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e-1", events[0].ID)

	_, ok, err = dlq.Peek(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplay_WithoutDeadLetter(t *testing.T) {
	rec := NewRecorder(memory.New(), Options{}, logger.NewNoOpLogger())
	_, err := rec.Replay(context.Background(), 0)
	assert.Error(t, err)
}
