package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/postfeed/frontend/internal/blobstore"
	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/frontend/internal/views"
	"github.com/itchan-dev/postfeed/shared/config"
	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPostStore struct {
	ListPostsFunc func(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error)
	GetPostFunc   func(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error)
}

func (m *MockPostStore) ListPosts(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
	if m.ListPostsFunc != nil {
		return m.ListPostsFunc(ctx, s, pageIndex, pageSize)
	}
	return domain.PagedResult{}, nil
}

func (m *MockPostStore) GetPost(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error) {
	if m.GetPostFunc != nil {
		return m.GetPostFunc(ctx, s, id)
	}
	return domain.RawPost{}, internal_errors.ErrNotFound
}

type echoFiles struct{}

func (echoFiles) FetchBinary(ctx context.Context, s domain.Session, ref domain.ResourceRef) (domain.BinaryPayload, error) {
	return domain.BinaryPayload{Data: []byte("bytes of " + ref), ContentType: "image/png"}, nil
}

type noPreviews struct{}

func (noPreviews) FetchPreview(ctx context.Context, s domain.Session, url string) (domain.LinkPreview, error) {
	return domain.LinkPreview{}, internal_errors.ErrTransport
}

// testTemplates stand in for the real layout: they print just enough to
// assert on.
func testTemplates() map[string]*template.Template {
	return map[string]*template.Template{
		"feed.html": template.Must(template.New("feed").Parse(
			`{{range .Data.Posts}}[{{.Id}}:{{.Content}}:{{.Context.ActionLabel}}]{{end}} page {{.Data.Pagination.Current}}/{{.Data.Pagination.Total}}`)),
		"post.html": template.Must(template.New("post").Parse(
			`post {{.Data.Post.Id}}{{with .Data.Post.Parent}} parent {{.Id}}{{end}}`)),
		"error.html": template.Must(template.New("error").Parse(
			`error: {{.Common.Error}} retry: {{.Common.RetryURL}}`)),
	}
}

type testEnv struct {
	handler *Handler
	router  *chi.Mux
	store   *MockPostStore
	blobs   *blobstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := &MockPostStore{
		ListPostsFunc: func(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
			var r domain.PagedResult
			r.Page.TotalPages = 3
			for i := 0; i < 2; i++ {
				id := domain.PostId(pageIndex*10 + i + 1)
				r.Content = append(r.Content, domain.RawPost{
					Id:          id,
					Author:      domain.UserRef{Id: 1, Username: "ann", AvatarRef: fmt.Sprintf("avatars/%d", id)},
					ContentHTML: fmt.Sprintf(`<p>post %d</p><script>alert(1)</script>`, id),
					LastAction:  "CREATED",
				})
			}
			return r, nil
		},
	}
	blobs := blobstore.New()
	resolver := feed.NewResolver(echoFiles{}, noPreviews{})
	registry := views.New(100, time.Minute, func() *feed.Assembler {
		return feed.NewAssembler(store, resolver, blobs, 0)
	})
	h := New(testTemplates(), config.Public{PageSize: 10}, registry, blobs)

	r := chi.NewRouter()
	r.Get("/", h.FeedGetHandler)
	r.Get("/post/{postId}", h.PostGetHandler)
	r.Get("/h/{handleId}", h.MediaGetHandler)
	r.Post("/view/close", h.ViewCloseHandler)
	r.Get("/api/feed", h.APIFeedHandler)
	r.Get("/api/posts/{postId}", h.APIPostHandler)

	return &testEnv{handler: h, router: r, store: store, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, url string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func viewCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == views.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", views.CookieName)
	return nil
}

func TestFeedGetHandler(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/?page=2")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "[11:<p>post 11</p>:Created]")
	assert.Contains(t, body, "[12:")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "page 2/3")
	assert.NotEmpty(t, viewCookie(t, rr).Value)
}

func TestFeedGetHandler_BadPage(t *testing.T) {
	e := newTestEnv(t)

	for _, page := range []string{"0", "-1", "abc"} {
		rr := e.do(t, http.MethodGet, "/?page="+page)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "page=%s", page)
	}
}

func TestFeedGetHandler_ListingFailure(t *testing.T) {
	e := newTestEnv(t)
	e.store.ListPostsFunc = func(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
		return domain.PagedResult{}, &internal_errors.ErrorWithStatusCode{Message: "backend down", StatusCode: http.StatusBadGateway, Err: internal_errors.ErrTransport}
	}

	rr := e.do(t, http.MethodGet, "/?page=3")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "backend down")
	assert.Contains(t, rr.Body.String(), "retry: /?page=3")
}

func TestNavigationReleasesPreviousPage(t *testing.T) {
	e := newTestEnv(t)

	first := e.do(t, http.MethodGet, "/?page=1")
	require.Equal(t, http.StatusOK, first.Code)
	cookie := viewCookie(t, first)
	require.Equal(t, 2, e.blobs.Len())

	second := e.do(t, http.MethodGet, "/?page=2", cookie)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 2, e.blobs.Len(), "page 1 avatars were released")

	// a second browser view keeps its own handles
	other := e.do(t, http.MethodGet, "/?page=1")
	require.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, 4, e.blobs.Len())
}

func TestViewCloseHandler(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/")
	cookie := viewCookie(t, rr)
	require.Equal(t, 2, e.blobs.Len())

	rr = e.do(t, http.MethodPost, "/view/close", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, e.blobs.Len())
	assert.Equal(t, -1, viewCookie(t, rr).MaxAge)

	// closing twice, or without a view, is harmless
	rr = e.do(t, http.MethodPost, "/view/close", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = e.do(t, http.MethodPost, "/view/close")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestMediaGetHandler(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/api/feed?page=1")
	require.Equal(t, http.StatusOK, rr.Code)
	cookie := viewCookie(t, rr)

	var page feed.Page
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.NotEmpty(t, page.Items)
	require.NotNil(t, page.Items[0].Author.Avatar)
	handle := page.Items[0].Author.Avatar.String()

	media := e.do(t, http.MethodGet, handle)
	require.Equal(t, http.StatusOK, media.Code)
	assert.Equal(t, "image/png", media.Header().Get("Content-Type"))
	assert.Equal(t, "bytes of avatars/1", media.Body.String())

	e.do(t, http.MethodPost, "/view/close", cookie)
	gone := e.do(t, http.MethodGet, handle)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestPostGetHandler(t *testing.T) {
	e := newTestEnv(t)
	e.store.GetPostFunc = func(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error) {
		if id != 5 {
			return domain.RawPost{}, &internal_errors.ErrorWithStatusCode{Message: "post not found", StatusCode: http.StatusNotFound, Err: internal_errors.ErrNotFound}
		}
		parent := domain.RawPost{Id: 4, Author: domain.UserRef{Username: "bob"}}
		return domain.RawPost{Id: 5, Author: domain.UserRef{Username: "ann"}, Parent: &parent}, nil
	}

	rr := e.do(t, http.MethodGet, "/post/5")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "post 5 parent 4", rr.Body.String())

	rr = e.do(t, http.MethodGet, "/post/6")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "retry: /post/6")

	rr = e.do(t, http.MethodGet, "/post/nope")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIFeedHandler(t *testing.T) {
	e := newTestEnv(t)
	var gotSize int
	list := e.store.ListPostsFunc
	e.store.ListPostsFunc = func(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
		gotSize = pageSize
		return list(ctx, s, pageIndex, pageSize)
	}

	t.Run("default size", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/feed")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Equal(t, 10, gotSize)

		var page feed.Page
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, 0, page.PageIndex)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("size is capped", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/feed?size=1000")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, maxPageSize, gotSize)
	})

	t.Run("bad size", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/api/feed?size=x")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("listing failure is retryable", func(t *testing.T) {
		e.store.ListPostsFunc = func(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
			return domain.PagedResult{}, internal_errors.ErrTransport
		}
		rr := e.do(t, http.MethodGet, "/api/feed")
		assert.Equal(t, http.StatusBadGateway, rr.Code)

		var body apiError
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Retry)
		assert.True(t, strings.Contains(body.Error, "cannot load page 0"))
	})
}

func TestAPIPostHandler(t *testing.T) {
	e := newTestEnv(t)
	e.store.GetPostFunc = func(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error) {
		return domain.RawPost{Id: id, Author: domain.UserRef{Id: 3, Username: "ann"}, MediaRef: "videos/v.mp4"}, nil
	}

	rr := e.do(t, http.MethodGet, "/api/posts/9")
	require.Equal(t, http.StatusOK, rr.Code)

	var vm feed.PostViewModel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	assert.Equal(t, domain.PostId(9), vm.Id)
	assert.Equal(t, domain.MediaVideo, vm.MediaKind)
	require.NotNil(t, vm.Media)
}

func TestSetTemplatesWhileRendering(t *testing.T) {
	e := newTestEnv(t)
	reloaded := map[string]*template.Template{
		"error.html": template.Must(template.New("error").Parse(`reloaded`)),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				e.handler.SetTemplates(reloaded)
			} else {
				e.handler.SetTemplates(testTemplates())
			}
		}
	}()
	for i := 0; i < 200; i++ {
		rr := httptest.NewRecorder()
		e.handler.renderTemplate(rr, "error.html", http.StatusBadGateway, TemplateData{})
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	}
	wg.Wait()

	e.handler.SetTemplates(reloaded)
	rr := httptest.NewRecorder()
	e.handler.renderTemplate(rr, "error.html", http.StatusOK, TemplateData{})
	assert.Equal(t, "reloaded", rr.Body.String())

	rr = httptest.NewRecorder()
	e.handler.renderTemplate(rr, "feed.html", http.StatusOK, TemplateData{})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
