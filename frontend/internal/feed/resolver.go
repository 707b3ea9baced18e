package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itchan-dev/postfeed/shared/domain"
	"github.com/itchan-dev/postfeed/shared/logger"
)

// BinaryFetcher fetches raw file content by resource reference.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, s domain.Session, ref domain.ResourceRef) (domain.BinaryPayload, error)
}

// PreviewFetcher fetches link preview metadata for a URL.
type PreviewFetcher interface {
	FetchPreview(ctx context.Context, s domain.Session, url string) (domain.LinkPreview, error)
}

type AuthorView struct {
	Id       domain.UserId          `json:"id"`
	Username domain.Username        `json:"username"`
	Role     domain.Role            `json:"role"`
	Avatar   *domain.ResourceHandle `json:"avatar"`
}

// PostViewModel is a post with every auxiliary resource resolved. Absent or
// failed resources are nil. Parent is resolved one level deep only.
type PostViewModel struct {
	Id          domain.PostId          `json:"id"`
	Author      AuthorView             `json:"author"`
	ParentId    domain.PostId          `json:"parentId,omitempty"`
	Parent      *PostViewModel         `json:"parent"`
	ContentHTML string                 `json:"contentHtml"`
	Media       *domain.ResourceHandle `json:"media"`
	MediaKind   domain.MediaKind       `json:"mediaKind"`
	LinkPreview *domain.LinkPreview    `json:"linkPreview"`
	LastAction  string                 `json:"lastAction"`
	Timestamp   time.Time              `json:"timestamp"`
	CanModify   bool                   `json:"canModify"`
}

type Resolver struct {
	files    BinaryFetcher
	previews PreviewFetcher
	log      *slog.Logger
}

func NewResolver(files BinaryFetcher, previews PreviewFetcher) *Resolver {
	return &Resolver{
		files:    files,
		previews: previews,
		log:      logger.Component("feed"),
	}
}

// Resolve builds the view model for post, allocating handles into set.
// It never fails: each resource that cannot be resolved is left empty.
// The post's resources and its parent's are fetched concurrently.
func (r *Resolver) Resolve(ctx context.Context, s domain.Session, set *HandleSet, post *domain.RawPost) *PostViewModel {
	var wg sync.WaitGroup

	vm := r.start(ctx, s, set, post, &wg)
	if post.IsReply() {
		vm.Parent = r.start(ctx, s, set, post.Parent, &wg)
	}

	wg.Wait()
	return vm
}

// start creates the view model and launches the fetches it needs on wg.
// post.Parent is never followed from here, which caps resolution at the
// depth Resolve asks for.
func (r *Resolver) start(ctx context.Context, s domain.Session, set *HandleSet, post *domain.RawPost, wg *sync.WaitGroup) *PostViewModel {
	vm := &PostViewModel{
		Id: post.Id,
		Author: AuthorView{
			Id:       post.Author.Id,
			Username: post.Author.Username,
			Role:     post.Author.Role,
		},
		ContentHTML: post.ContentHTML,
		MediaKind:   domain.MediaKindOf(post.MediaRef),
		LastAction:  post.LastAction,
		Timestamp:   post.Timestamp,
		CanModify:   s.CanModify(post.Author.Id),
	}
	if post.IsReply() {
		vm.ParentId = post.Parent.Id
	}

	// Each goroutine writes its own fields of vm only.
	if ref := post.Author.AvatarRef; ref != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vm.Author.Avatar = r.handle(ctx, s, set, resourceAvatar, ref)
		}()
	}

	if ref := post.MediaRef; ref != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vm.Media = r.handle(ctx, s, set, resourceMedia, ref)
			if vm.Media == nil {
				vm.MediaKind = domain.MediaNone
			}
		}()
	}

	if href := FirstAnchorHref(post.ContentHTML); href != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vm.LinkPreview = r.preview(ctx, s, href)
		}()
	}

	return vm
}

func (r *Resolver) handle(ctx context.Context, s domain.Session, set *HandleSet, resource string, ref domain.ResourceRef) *domain.ResourceHandle {
	payload, err := r.files.FetchBinary(ctx, s, ref)
	if err != nil {
		r.failed(resource, ref, err)
		return nil
	}

	h, err := set.allocate(payload)
	if err != nil {
		r.failed(resource, ref, err)
		return nil
	}

	resolutionsTotal.WithLabelValues(resource, outcomeResolved).Inc()
	return &h
}

func (r *Resolver) preview(ctx context.Context, s domain.Session, href string) *domain.LinkPreview {
	p, err := r.previews.FetchPreview(ctx, s, href)
	if err != nil {
		r.failed(resourcePreview, href, err)
		return nil
	}

	// the link in the post is canonical, whatever the service echoes back
	p.URL = href
	resolutionsTotal.WithLabelValues(resourcePreview, outcomeResolved).Inc()
	return &p
}

func (r *Resolver) failed(resource, ref string, err error) {
	resolutionsTotal.WithLabelValues(resource, outcomeFailed).Inc()
	r.log.Debug("resource resolution failed", "resource", resource, "ref", ref, "error", err)
}
