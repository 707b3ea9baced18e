// Package blobstore keeps fetched binary payloads in memory and hands out
// revocable local URLs for them.
package blobstore

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/itchan-dev/postfeed/shared/domain"
	"github.com/itchan-dev/postfeed/shared/logger"
	"github.com/itchan-dev/postfeed/shared/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PathPrefix is the route blobs are served under.
const PathPrefix = "/h/"

var ErrEmptyPayload = errors.New("empty payload")

var liveBlobs = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: metrics.Namespace,
	Subsystem: "blobstore",
	Name:      "live_handles",
	Help:      "Number of allocated handles that have not been released.",
})

type blob struct {
	data        []byte
	contentType string
}

type Store struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

func New() *Store {
	return &Store{blobs: make(map[string]blob)}
}

// Allocate stores payload and returns its handle, a URL path under PathPrefix.
func (s *Store) Allocate(payload domain.BinaryPayload) (domain.ResourceHandle, error) {
	if len(payload.Data) == 0 {
		return "", ErrEmptyPayload
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.blobs[id] = blob{data: payload.Data, contentType: payload.ContentType}
	s.mu.Unlock()

	liveBlobs.Inc()
	return domain.ResourceHandle(PathPrefix + id), nil
}

// Release revokes h. Releasing an unknown or already released handle is a
// no-op.
func (s *Store) Release(h domain.ResourceHandle) {
	id, ok := idOf(h)
	if !ok {
		return
	}

	s.mu.Lock()
	_, found := s.blobs[id]
	delete(s.blobs, id)
	s.mu.Unlock()

	if found {
		liveBlobs.Dec()
	} else {
		logger.Log.Debug("release of unknown handle", "component", "blobstore", "handle", h)
	}
}

// Get returns the payload behind a handle id, false once it was released.
func (s *Store) Get(id string) (domain.BinaryPayload, bool) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return domain.BinaryPayload{}, false
	}
	return domain.BinaryPayload{Data: b.data, ContentType: b.contentType}, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func idOf(h domain.ResourceHandle) (string, bool) {
	id, ok := strings.CutPrefix(string(h), PathPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
