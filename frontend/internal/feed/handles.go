package feed

import (
	"errors"
	"sync"

	"github.com/itchan-dev/postfeed/shared/domain"
)

// HandleAllocator creates and revokes local handles for fetched payloads.
type HandleAllocator interface {
	Allocate(payload domain.BinaryPayload) (domain.ResourceHandle, error)
	Release(handle domain.ResourceHandle)
}

var errSetReleased = errors.New("handle set already released")

type trackedHandle struct {
	handle   domain.ResourceHandle
	released bool
}

// HandleSet owns every handle allocated while resolving one page or one
// single post. Resolver goroutines add to it concurrently; the Lifecycle
// releases it as a whole.
type HandleSet struct {
	alloc HandleAllocator

	mu       sync.Mutex
	handles  []*trackedHandle
	released bool
}

func newHandleSet(alloc HandleAllocator) *HandleSet {
	return &HandleSet{alloc: alloc}
}

func (s *HandleSet) allocate(payload domain.BinaryPayload) (domain.ResourceHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return "", errSetReleased
	}
	h, err := s.alloc.Allocate(payload)
	if err != nil {
		return "", err
	}
	s.handles = append(s.handles, &trackedHandle{handle: h})
	return h, nil
}

// release revokes every handle not revoked yet and seals the set.
// Calling it again is a no-op. Returns the number of handles revoked.
func (s *HandleSet) release() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true
	n := 0
	for _, th := range s.handles {
		if th.released {
			continue
		}
		th.released = true
		s.alloc.Release(th.handle)
		n++
	}
	handlesReleasedTotal.Add(float64(n))
	return n
}

// Handles lists the handles of the set that have not been revoked.
func (s *HandleSet) Handles() []domain.ResourceHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ResourceHandle, 0, len(s.handles))
	for _, th := range s.handles {
		if !th.released {
			out = append(out, th.handle)
		}
	}
	return out
}

func (s *HandleSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
