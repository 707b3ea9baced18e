package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
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
	return domain.RawPost{Id: id}, nil
}

// MockBinaryFetcher echoes the reference back as payload unless
// FetchBinaryFunc says otherwise, and records every reference asked for.
type MockBinaryFetcher struct {
	FetchBinaryFunc func(ctx context.Context, s domain.Session, ref domain.ResourceRef) (domain.BinaryPayload, error)

	mu    sync.Mutex
	calls []domain.ResourceRef
}

func (m *MockBinaryFetcher) FetchBinary(ctx context.Context, s domain.Session, ref domain.ResourceRef) (domain.BinaryPayload, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ref)
	m.mu.Unlock()

	if m.FetchBinaryFunc != nil {
		return m.FetchBinaryFunc(ctx, s, ref)
	}
	return domain.BinaryPayload{Data: []byte(ref), ContentType: "application/octet-stream"}, nil
}

func (m *MockBinaryFetcher) Calls() []domain.ResourceRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ResourceRef(nil), m.calls...)
}

type MockPreviewFetcher struct {
	FetchPreviewFunc func(ctx context.Context, s domain.Session, url string) (domain.LinkPreview, error)

	calls atomic.Int64
}

func (m *MockPreviewFetcher) FetchPreview(ctx context.Context, s domain.Session, url string) (domain.LinkPreview, error) {
	m.calls.Add(1)
	if m.FetchPreviewFunc != nil {
		return m.FetchPreviewFunc(ctx, s, url)
	}
	return domain.LinkPreview{Title: "title of " + url, URL: "https://echo.invalid"}, nil
}

func (m *MockPreviewFetcher) Calls() int {
	return int(m.calls.Load())
}

// fakeAllocator hands out sequential handles and counts releases per handle.
type fakeAllocator struct {
	AllocateErr error
	OnRelease   func(h domain.ResourceHandle, ref string)

	mu       sync.Mutex
	next     int
	refs     map[domain.ResourceHandle]string
	released map[domain.ResourceHandle]int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{
		refs:     make(map[domain.ResourceHandle]string),
		released: make(map[domain.ResourceHandle]int),
	}
}

func (f *fakeAllocator) Allocate(payload domain.BinaryPayload) (domain.ResourceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AllocateErr != nil {
		return "", f.AllocateErr
	}
	f.next++
	h := domain.ResourceHandle(fmt.Sprintf("/h/%d", f.next))
	f.refs[h] = string(payload.Data)
	return h, nil
}

func (f *fakeAllocator) Release(h domain.ResourceHandle) {
	f.mu.Lock()
	f.released[h]++
	ref := f.refs[h]
	hook := f.OnRelease
	f.mu.Unlock()

	if hook != nil {
		hook(h, ref)
	}
}

func (f *fakeAllocator) ReleaseCount(h domain.ResourceHandle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released[h]
}

func (f *fakeAllocator) Ref(h domain.ResourceHandle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[h]
}

// Allocated returns every handle ever handed out.
func (f *fakeAllocator) Allocated() []domain.ResourceHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ResourceHandle, 0, len(f.refs))
	for h := range f.refs {
		out = append(out, h)
	}
	return out
}

func rawPost(id domain.PostId, opts ...func(*domain.RawPost)) domain.RawPost {
	p := domain.RawPost{
		Id:          id,
		Author:      domain.UserRef{Id: 100 + id, Username: fmt.Sprintf("user%d", id), Role: "USER"},
		ContentHTML: fmt.Sprintf("<p>post %d</p>", id),
		LastAction:  "CREATED",
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func withAvatar(ref string) func(*domain.RawPost) {
	return func(p *domain.RawPost) { p.Author.AvatarRef = ref }
}

func withMedia(ref string) func(*domain.RawPost) {
	return func(p *domain.RawPost) { p.MediaRef = ref }
}

func withLink(href string) func(*domain.RawPost) {
	return func(p *domain.RawPost) {
		p.ContentHTML = fmt.Sprintf(`<p>look <a href="%s">here</a></p>`, href)
	}
}

func withParent(parent domain.RawPost) func(*domain.RawPost) {
	return func(p *domain.RawPost) { p.Parent = &parent }
}

// pagedStore serves total posts, each with an avatar and a media file whose
// references carry the post id.
func pagedStore(total int) *MockPostStore {
	return &MockPostStore{
		ListPostsFunc: func(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
			var result domain.PagedResult
			result.Page = domain.PageInfo{Size: pageSize, Number: pageIndex, TotalElements: int64(total), TotalPages: (total + pageSize - 1) / pageSize}
			for i := pageIndex * pageSize; i < total && i < (pageIndex+1)*pageSize; i++ {
				id := domain.PostId(i + 1)
				result.Content = append(result.Content, rawPost(id,
					withAvatar(fmt.Sprintf("avatars/%d", id)),
					withMedia(fmt.Sprintf("images/%d.png", id)),
				))
			}
			return result, nil
		},
		GetPostFunc: func(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error) {
			if id < 1 || int(id) > total {
				return domain.RawPost{}, internal_errors.ErrNotFound
			}
			return rawPost(id, withAvatar(fmt.Sprintf("avatars/%d", id))), nil
		},
	}
}
