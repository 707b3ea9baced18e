package handler

import (
	"html/template"
	"net/http"
	"sync/atomic"

	"github.com/itchan-dev/postfeed/frontend/internal/blobstore"
	"github.com/itchan-dev/postfeed/frontend/internal/views"
	"github.com/itchan-dev/postfeed/shared/config"
	"github.com/microcosm-cc/bluemonday"
)

type Handler struct {
	// replaced wholesale by the development reloader while requests render
	templates atomic.Pointer[map[string]*template.Template]

	Public    config.Public
	Views     *views.Registry
	Blobs     *blobstore.Store
	Sanitizer *bluemonday.Policy
}

func New(templates map[string]*template.Template, publicCfg config.Public, registry *views.Registry, blobs *blobstore.Store) *Handler {
	h := &Handler{
		Public:    publicCfg,
		Views:     registry,
		Blobs:     blobs,
		Sanitizer: newSanitizer(),
	}
	h.SetTemplates(templates)
	return h
}

// SetTemplates swaps the template set used by later renders.
func (h *Handler) SetTemplates(templates map[string]*template.Template) {
	h.templates.Store(&templates)
}

func (h *Handler) template(name string) (*template.Template, bool) {
	templates := h.templates.Load()
	if templates == nil {
		return nil, false
	}
	tmpl, ok := (*templates)[name]
	return tmpl, ok
}

// Health is a liveness probe endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
