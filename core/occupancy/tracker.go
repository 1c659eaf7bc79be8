package occupancy

import (
	"context"
	"fmt"
	"sync"
	"time"

	corelogger "github.com/kverne/parkcast/core/logger"
	"github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/core/model"
	"github.com/kverne/parkcast/internal/eventbus"
)

// InvalidSlotError reports an update for a slot that is not configured.
type InvalidSlotError struct {
	SlotID string
}

func (e InvalidSlotError) Error() string {
	return fmt.Sprintf("invalid slot %q", e.SlotID)
}

// Tracker owns the slot state machine. It holds the current status of
// every configured slot and the active sessions opened by
// empty->occupied transitions. All state is reset on restart.
type Tracker struct {
	mu       sync.Mutex
	states   map[string]model.Status
	sessions map[string]time.Time

	store IntervalStore
	bus   *eventbus.Bus[metrics.TransitionEvent]
	log   corelogger.Logger
}

// NewTracker creates a Tracker for the given slot identifiers. Every
// slot starts empty. The bus may be nil when no observer is attached.
func NewTracker(slotIDs []string, store IntervalStore, bus *eventbus.Bus[metrics.TransitionEvent], log corelogger.Logger) *Tracker {
	states := make(map[string]model.Status, len(slotIDs))
	for _, id := range slotIDs {
		states[id] = model.StatusEmpty
	}
	return &Tracker{
		states:   states,
		sessions: make(map[string]time.Time),
		store:    store,
		bus:      bus,
		log:      log,
	}
}

// RecordTransition applies a reported status change to the slot state
// machine:
//
//   - unknown slot: InvalidSlotError, no state is mutated
//   - same status reported twice: no-op
//   - empty->occupied: opens a session, overwriting any stale one
//   - occupied->empty with a session: appends an interval and closes it
//   - occupied->empty without a session: the exit is dropped silently
func (t *Tracker) RecordTransition(ctx context.Context, slotID string, next model.Status, ts time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.states[slotID]
	if !ok {
		return InvalidSlotError{SlotID: slotID}
	}
	if cur == next {
		return nil
	}

	ev := metrics.TransitionEvent{SlotID: slotID, From: cur, To: next, Time: ts}
	switch next {
	case model.StatusOccupied:
		// Last-write-wins: a stale session is replaced, not flagged.
		t.sessions[slotID] = ts
	case model.StatusEmpty:
		entry, open := t.sessions[slotID]
		if !open {
			t.log.Debugf("slot %s: exit without matching entry, dropped", slotID)
			break
		}
		iv := model.NewInterval(slotID, entry, ts)
		if err := t.store.Append(ctx, iv); err != nil {
			return fmt.Errorf("append interval: %w", err)
		}
		delete(t.sessions, slotID)
		ev.IntervalLogged = true
		ev.DurationSec = iv.DurationSec
	}

	t.states[slotID] = next
	if t.bus != nil {
		t.bus.Publish(ev)
	}
	return nil
}

// Status returns the current status of a slot.
func (t *Tracker) Status(slotID string) (model.Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[slotID]
	return st, ok
}

// ActiveSince returns the entry time of the slot's open session, if any.
func (t *Tracker) ActiveSince(slotID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.sessions[slotID]
	return ts, ok
}
