package feed

import (
	"sync"

	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
	"github.com/itchan-dev/postfeed/shared/logger"
)

// Ticket is issued when a load starts. It carries the generation the load
// is compared against at commit time and the set its handles go into.
type Ticket struct {
	generation uint64
	set        *HandleSet
}

func (t *Ticket) Generation() uint64 { return t.generation }

func (t *Ticket) Handles() *HandleSet { return t.set }

// Lifecycle owns the live HandleSet of one view instance. It is the only
// writer of that set.
//
// Invariants:
//   - at most one set is live;
//   - a committed set's data is published before the previous set is released;
//   - a set belonging to a superseded ticket is released without ever becoming live;
//   - every handle is released at most once (see HandleSet.release).
type Lifecycle struct {
	alloc HandleAllocator

	mu     sync.Mutex
	issued uint64
	live   *HandleSet
}

func NewLifecycle(alloc HandleAllocator) *Lifecycle {
	return &Lifecycle{alloc: alloc}
}

// Begin starts a load. Any ticket issued earlier becomes stale.
func (l *Lifecycle) Begin() *Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.issued++
	return &Ticket{generation: l.issued, set: newHandleSet(l.alloc)}
}

// Commit makes the ticket's set live, runs publish to swap the view state
// in, and only then releases the previously live set. A stale ticket is not
// committed: its handles are released and ErrStaleResult is returned.
//
// publish runs under the lifecycle lock and must not call back into it.
func (l *Lifecycle) Commit(t *Ticket, publish func()) error {
	l.mu.Lock()
	if t.generation != l.issued {
		l.mu.Unlock()
		n := t.set.release()
		staleResultsTotal.Inc()
		logger.Log.Debug("discarded stale load",
			"component", "feed",
			"generation", t.generation,
			"handles_released", n)
		return internal_errors.ErrStaleResult
	}

	prev := l.live
	l.live = t.set
	if publish != nil {
		publish()
	}
	l.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	return nil
}

// Abandon drops a ticket whose load failed before anything was committed.
func (l *Lifecycle) Abandon(t *Ticket) {
	t.set.release()
}

// DisposeAll runs unpublish to clear the view state, releases the live set
// and turns every in-flight ticket stale so a late load cannot resurrect
// handles after teardown. Safe to call repeatedly.
func (l *Lifecycle) DisposeAll(unpublish func()) {
	l.mu.Lock()
	prev := l.live
	l.live = nil
	l.issued++
	if unpublish != nil {
		unpublish()
	}
	l.mu.Unlock()

	if prev != nil {
		n := prev.release()
		logger.Log.Debug("disposed live handle set", "component", "feed", "handles_released", n)
	}
}

// Live returns the handles of the live set, nil when nothing is committed.
func (l *Lifecycle) Live() []domain.ResourceHandle {
	l.mu.Lock()
	live := l.live
	l.mu.Unlock()

	if live == nil {
		return nil
	}
	return live.Handles()
}
