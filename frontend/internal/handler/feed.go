package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	frontend_domain "github.com/itchan-dev/postfeed/frontend/internal/domain"
	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/shared/logger"
	mw "github.com/itchan-dev/postfeed/shared/middleware"
)

const paginationWindow = 7

func (h *Handler) FeedGetHandler(w http.ResponseWriter, r *http.Request) {
	display, err := parseIntParam(r.URL.Query().Get("page"), "page", defaultPage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	viewId, a := h.acquireView(w, r)
	common := h.initCommonTemplateData(r, viewId)

	page, err := loadPage(r.Context(), a, mw.GetSessionFromContext(r), feed.PageIndex(display), h.Public.PageSize)
	if err != nil {
		logger.Log.Warn("feed page failed", "component", "handler", "page", display, "error", err)
		common.Error = err.Error()
		common.RetryURL = fmt.Sprintf("/?page=%d", display)
		h.renderTemplate(w, "error.html", loadErrorStatus(err), TemplateData{Common: common})
		return
	}

	data := frontend_domain.FeedPageData{
		Posts:      make([]*frontend_domain.Post, len(page.Items)),
		Pagination: buildPagination(page.PageIndex, page.TotalPages, paginationWindow),
	}
	for i, item := range page.Items {
		data.Posts[i] = h.renderPost(item, "feed-post")
	}
	h.renderTemplate(w, "feed.html", http.StatusOK, TemplateData{Data: data, Common: common})
}

func (h *Handler) PostGetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostId(chi.URLParam(r, "postId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	viewId, a := h.acquireView(w, r)
	common := h.initCommonTemplateData(r, viewId)

	vm, err := loadSingle(r.Context(), a, mw.GetSessionFromContext(r), id)
	if err != nil {
		logger.Log.Warn("post page failed", "component", "handler", "post", id, "error", err)
		common.Error = err.Error()
		common.RetryURL = fmt.Sprintf("/post/%d", id)
		h.renderTemplate(w, "error.html", loadErrorStatus(err), TemplateData{Common: common})
		return
	}

	data := frontend_domain.PostPageData{Post: h.renderPost(vm, "single-post")}
	h.renderTemplate(w, "post.html", http.StatusOK, TemplateData{Data: data, Common: common})
}
