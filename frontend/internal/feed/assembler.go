package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
	"github.com/itchan-dev/postfeed/shared/logger"
	"golang.org/x/sync/errgroup"
)

// PostStore reads posts from the remote post service. Page indices are
// zero-based.
type PostStore interface {
	ListPosts(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error)
	GetPost(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error)
}

type Page struct {
	Items      []*PostViewModel `json:"items"`
	TotalPages int              `json:"totalPages"`
	PageIndex  int              `json:"pageIndex"`
}

// View is the committed state of one view instance: either a feed page or
// a single post, never both.
type View struct {
	Generation uint64
	Page       *Page
	Single     *PostViewModel
}

// PageIndex converts a one-based page number from the presentation layer
// to the zero-based transport index.
func PageIndex(displayPage int) int {
	return displayPage - 1
}

// DisplayPage is the inverse of PageIndex.
func DisplayPage(pageIndex int) int {
	return pageIndex + 1
}

// Assembler drives loading for one view instance. Loads may overlap; the
// one started last wins and earlier ones are discarded at commit.
type Assembler struct {
	posts         PostStore
	resolver      *Resolver
	lifecycle     *Lifecycle
	maxConcurrent int
	log           *slog.Logger

	mu      sync.RWMutex
	current View
}

// NewAssembler creates an Assembler. maxConcurrent bounds the number of posts
// resolved at once; 0 resolves the whole page at once.
func NewAssembler(posts PostStore, resolver *Resolver, alloc HandleAllocator, maxConcurrent int) *Assembler {
	return &Assembler{
		posts:         posts,
		resolver:      resolver,
		lifecycle:     NewLifecycle(alloc),
		maxConcurrent: maxConcurrent,
		log:           logger.Component("feed"),
	}
}

// LoadPage fetches page pageIndex and resolves every post on it. Items keep
// the order of the post service. Only a failure of the listing itself is an
// error (*errors.PageLoadError); a superseded load returns
// errors.ErrStaleResult and changes nothing.
func (a *Assembler) LoadPage(ctx context.Context, s domain.Session, pageIndex, pageSize int) (*Page, error) {
	if pageIndex < 0 || pageSize < 1 {
		return nil, &internal_errors.PageLoadError{
			PageIndex: pageIndex,
			Err:       &internal_errors.ErrorWithStatusCode{Message: "invalid page request", StatusCode: http.StatusBadRequest},
		}
	}

	start := time.Now()
	ticket := a.lifecycle.Begin()

	result, err := a.posts.ListPosts(ctx, s, pageIndex, pageSize)
	if err != nil {
		a.lifecycle.Abandon(ticket)
		a.log.Warn("page load failed", "page", pageIndex, "error", err)
		return nil, &internal_errors.PageLoadError{PageIndex: pageIndex, Err: err}
	}

	posts := result.Content
	if len(posts) > pageSize {
		posts = posts[:pageSize]
	}

	page := &Page{
		Items:      a.resolveAll(ctx, s, ticket.Handles(), posts),
		TotalPages: result.Page.TotalPages,
		PageIndex:  pageIndex,
	}

	err = a.lifecycle.Commit(ticket, func() {
		a.publish(View{Generation: ticket.Generation(), Page: page})
	})
	if err != nil {
		return nil, err
	}

	loadDuration.WithLabelValues("page").Observe(time.Since(start).Seconds())
	a.log.Debug("page committed",
		"page", pageIndex,
		"items", len(page.Items),
		"handles", ticket.Handles().Len(),
		"generation", ticket.Generation())
	return page, nil
}

// LoadSingle fetches and resolves one post for the single post view.
func (a *Assembler) LoadSingle(ctx context.Context, s domain.Session, id domain.PostId) (*PostViewModel, error) {
	start := time.Now()
	ticket := a.lifecycle.Begin()

	post, err := a.posts.GetPost(ctx, s, id)
	if err != nil {
		a.lifecycle.Abandon(ticket)
		a.log.Warn("post load failed", "post", id, "error", err)
		return nil, &internal_errors.PageLoadError{PostId: id, Err: err}
	}

	vm := a.resolver.Resolve(ctx, s, ticket.Handles(), &post)

	err = a.lifecycle.Commit(ticket, func() {
		a.publish(View{Generation: ticket.Generation(), Single: vm})
	})
	if err != nil {
		return nil, err
	}

	loadDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())
	return vm, nil
}

// DisposeCurrentPage clears the view and releases every handle it holds.
// Loads still in flight will be discarded when they finish.
func (a *Assembler) DisposeCurrentPage() {
	a.lifecycle.DisposeAll(func() {
		a.publish(View{})
	})
}

// Current returns the committed view state.
func (a *Assembler) Current() View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// LiveHandles lists the handles the committed view may reference.
func (a *Assembler) LiveHandles() []domain.ResourceHandle {
	return a.lifecycle.Live()
}

func (a *Assembler) publish(v View) {
	a.mu.Lock()
	a.current = v
	a.mu.Unlock()
}

// resolveAll resolves posts concurrently into a slice addressed by the
// post's index, so completion order cannot reorder the page.
func (a *Assembler) resolveAll(ctx context.Context, s domain.Session, set *HandleSet, posts []domain.RawPost) []*PostViewModel {
	items := make([]*PostViewModel, len(posts))

	var g errgroup.Group
	if a.maxConcurrent > 0 {
		g.SetLimit(a.maxConcurrent)
	}
	for i := range posts {
		g.Go(func() error {
			items[i] = a.resolver.Resolve(ctx, s, set, &posts[i])
			return nil
		})
	}
	_ = g.Wait() // resolution never fails

	return items
}
