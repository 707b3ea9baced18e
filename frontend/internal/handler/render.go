package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	frontend_domain "github.com/itchan-dev/postfeed/frontend/internal/domain"
	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	frontend_mw "github.com/itchan-dev/postfeed/frontend/internal/middleware"
	"github.com/itchan-dev/postfeed/shared/logger"
	mw "github.com/itchan-dev/postfeed/shared/middleware"
	"github.com/microcosm-cc/bluemonday"
)

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common frontend_domain.CommonTemplateData
}

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

func (h *Handler) initCommonTemplateData(r *http.Request, viewId string) frontend_domain.CommonTemplateData {
	return frontend_domain.CommonTemplateData{
		Session:   mw.GetSessionFromContext(r),
		ViewId:    viewId,
		CSRFToken: frontend_mw.GetCSRFTokenFromContext(r),
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, name string, status int, data TemplateData) {
	tmpl, ok := h.template(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderPost transforms a resolved post into its template model.
func (h *Handler) renderPost(vm *feed.PostViewModel, extraClasses string) *frontend_domain.Post {
	if vm == nil {
		return nil
	}
	post := &frontend_domain.Post{
		PostViewModel: vm,
		Content:       template.HTML(h.Sanitizer.Sanitize(vm.ContentHTML)),
		Context: frontend_domain.RenderContext{
			ExtraClasses: extraClasses,
			ActionLabel:  actionLabel(vm.LastAction),
		},
	}
	if vm.Parent != nil {
		post.Parent = h.renderPost(vm.Parent, "parent-post")
	}
	return post
}

// actionLabel turns "CREATED" into "Created".
func actionLabel(action string) string {
	if action == "" {
		return "Created"
	}
	lower := strings.ToLower(action)
	first, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(first)) + lower[size:]
}

// buildPagination lays out previous/next and numbered links around the
// zero-based pageIndex. window bounds how many numbers are shown.
func buildPagination(pageIndex, totalPages, window int) frontend_domain.Pagination {
	current := feed.DisplayPage(pageIndex)
	p := frontend_domain.Pagination{Current: current, Total: totalPages}
	if totalPages <= 0 {
		return p
	}
	if current > 1 {
		p.Prev = current - 1
	}
	if current < totalPages {
		p.Next = current + 1
	}

	first := max(1, current-window/2)
	last := min(totalPages, first+window-1)
	first = max(1, last-window+1)
	for n := first; n <= last; n++ {
		p.Pages = append(p.Pages, frontend_domain.PageLink{Number: n, Current: n == current})
	}
	return p
}
