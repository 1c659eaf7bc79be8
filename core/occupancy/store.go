package occupancy

import (
	"context"
	"sort"
	"sync"

	"github.com/kverne/parkcast/core/model"
)

// IntervalStore persists completed occupancy intervals and supports
// reading them back ordered by entry time ascending.
type IntervalStore interface {
	Append(ctx context.Context, iv model.Interval) error
	// Intervals returns the intervals for one slot, or for every slot
	// when slotID is empty.
	Intervals(ctx context.Context, slotID string) ([]model.Interval, error)
	Close() error
}

// MemoryStore keeps intervals in memory. It backs tests and small
// deployments that do not need the durable log.
type MemoryStore struct {
	mu   sync.RWMutex
	data []model.Interval
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, iv model.Interval) error {
	s.mu.Lock()
	s.data = append(s.data, iv)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Intervals(_ context.Context, slotID string) ([]model.Interval, error) {
	s.mu.RLock()
	res := make([]model.Interval, 0, len(s.data))
	for _, iv := range s.data {
		if slotID != "" && iv.SlotID != slotID {
			continue
		}
		res = append(res, iv)
	}
	s.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].Entry.Before(res[j].Entry) })
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
