package intervallog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverne/parkcast/core/model"
)

func newStore(t *testing.T) (*CSVStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "occupancy.csv")
	s, err := NewCSVStore(path)
	require.NoError(t, err)
	return s, path
}

func TestCSVStore_HeaderWrittenOnce(t *testing.T) {
	_, path := newStore(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "slot_id,time_entered,time_left,duration_sec\n", string(data))

	// Reopening must not duplicate the header.
	_, err = NewCSVStore(path)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "slot_id"))
}

func TestCSVStore_AppendAndRead(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, model.NewInterval("slot1", t0, t0.Add(330*time.Second))))
	require.NoError(t, s.Append(ctx, model.NewInterval("slot2", t0.Add(time.Hour), t0.Add(2*time.Hour))))

	ivs, err := s.Intervals(ctx, "slot1")
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	assert.Equal(t, "slot1", ivs[0].SlotID)
	assert.Equal(t, 330.0, ivs[0].DurationSec)
	assert.True(t, ivs[0].Entry.Equal(t0))

	all, err := s.Intervals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCSVStore_OrderedByEntryAscending(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// Append out of order.
	require.NoError(t, s.Append(ctx, model.NewInterval("slot1", base.Add(2*time.Hour), base.Add(3*time.Hour))))
	require.NoError(t, s.Append(ctx, model.NewInterval("slot1", base, base.Add(time.Hour))))

	ivs, err := s.Intervals(ctx, "slot1")
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	assert.True(t, ivs[0].Entry.Before(ivs[1].Entry))
}

func TestCSVStore_MalformedRowsSkipped(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, model.NewInterval("slot1", t0, t0.Add(time.Minute))))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage row without enough fields\nslot2,not-a-time,also-bad,xyz\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(ctx, model.NewInterval("slot1", t0.Add(time.Hour), t0.Add(2*time.Hour))))

	ivs, err := s.Intervals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, ivs, 2, "bad rows must be skipped, good rows kept")
}
