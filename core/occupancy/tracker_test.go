package occupancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverne/parkcast/core/model"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(string, ...any)        {}
func (nopLogger) Infow(string, map[string]any) {}

func newTracker(t *testing.T, slots ...string) (*Tracker, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewTracker(slots, store, nil, nopLogger{}), store
}

func TestTracker_CompletedSession(t *testing.T) {
	tr, store := newTracker(t, "slot1")
	ctx := context.Background()
	entry := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	exit := time.Date(2026, 3, 2, 10, 5, 30, 0, time.UTC)

	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, entry))
	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusEmpty, exit))

	ivs, err := store.Intervals(ctx, "slot1")
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	assert.Equal(t, 330.0, ivs[0].DurationSec)
	assert.Equal(t, entry, ivs[0].Entry)
	assert.Equal(t, exit, ivs[0].Exit)
}

func TestTracker_ExitWithoutEntryDropped(t *testing.T) {
	tr, store := newTracker(t, "slot1")
	ctx := context.Background()

	// Force occupied state without a session by clearing it first.
	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, time.Now()))
	tr.mu.Lock()
	delete(tr.sessions, "slot1")
	tr.mu.Unlock()

	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusEmpty, time.Now()))
	ivs, err := store.Intervals(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, ivs)
}

func TestTracker_SelfTransitionNoop(t *testing.T) {
	tr, store := newTracker(t, "slot1")
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusEmpty, now))
	_, open := tr.ActiveSince("slot1")
	assert.False(t, open)

	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, now))
	first, _ := tr.ActiveSince("slot1")
	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, now.Add(time.Minute)))
	again, _ := tr.ActiveSince("slot1")
	assert.Equal(t, first, again, "self-transition must not touch the session")

	ivs, err := store.Intervals(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, ivs)
}

func TestTracker_InvalidSlot(t *testing.T) {
	tr, store := newTracker(t, "slot1")
	ctx := context.Background()

	err := tr.RecordTransition(ctx, "ghost", model.StatusOccupied, time.Now())
	var ise InvalidSlotError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "ghost", ise.SlotID)

	_, known := tr.Status("ghost")
	assert.False(t, known, "invalid slot must not be created")
	ivs, _ := store.Intervals(ctx, "")
	assert.Empty(t, ivs)
}

func TestTracker_StaleSessionOverwritten(t *testing.T) {
	tr, _ := newTracker(t, "slot1")
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, t0))
	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusEmpty, t0.Add(time.Hour)))
	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, t0.Add(2*time.Hour)))

	since, open := tr.ActiveSince("slot1")
	require.True(t, open)
	assert.Equal(t, t0.Add(2*time.Hour), since)
}

func TestTracker_PairingProperty(t *testing.T) {
	tr, store := newTracker(t, "slot1")
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Three full occupy/release cycles.
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, at))
		require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusEmpty, at.Add(10*time.Minute)))
	}
	// One dangling entry without exit.
	require.NoError(t, tr.RecordTransition(ctx, "slot1", model.StatusOccupied, base.Add(5*time.Hour)))

	ivs, err := store.Intervals(ctx, "slot1")
	require.NoError(t, err)
	assert.Len(t, ivs, 3)
	for _, iv := range ivs {
		assert.GreaterOrEqual(t, iv.DurationSec, 0.0)
	}
}
