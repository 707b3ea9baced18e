// Package views tracks one feed assembler per open browser view. A view is
// identified by a cookie; idle views expire and release their handles.
package views

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/shared/logger"
)

// CookieName carries the view id.
const CookieName = "feedView"

// Factory creates the assembler for a new view.
type Factory func() *feed.Assembler

type Registry struct {
	newAssembler Factory

	mu    sync.Mutex
	views *expirable.LRU[string, *feed.Assembler]
}

// New creates a registry holding at most size views, each disposed after ttl
// without use. Evicted views are disposed the same way.
func New(size int, ttl time.Duration, newAssembler Factory) *Registry {
	onEvict := func(id string, a *feed.Assembler) {
		a.DisposeCurrentPage()
		logger.Log.Debug("view disposed", "component", "views", "view", id)
	}
	return &Registry{
		newAssembler: newAssembler,
		views:        expirable.NewLRU[string, *feed.Assembler](size, onEvict, ttl),
	}
}

// Acquire returns the assembler for id and refreshes its expiry. An empty or
// unknown id gets a fresh view; the returned id is the one to hand back to
// the client.
func (r *Registry) Acquire(id string) (string, *feed.Assembler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if a, ok := r.views.Get(id); ok {
			r.views.Add(id, a)
			return id, a
		}
	}

	id = uuid.NewString()
	a := r.newAssembler()
	r.views.Add(id, a)
	logger.Log.Debug("view opened", "component", "views", "view", id)
	return id, a
}

// Close disposes the view. Unknown ids are ignored.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views.Remove(id)
}

// CloseAll disposes every view, e.g. on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views.Purge()
}

func (r *Registry) Len() int {
	return r.views.Len()
}
