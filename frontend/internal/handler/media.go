package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// MediaGetHandler serves the content behind a handle. Released handles are
// gone for good and answer 404.
func (h *Handler) MediaGetHandler(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.Blobs.Get(chi.URLParam(r, "handleId"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	if payload.ContentType != "" {
		w.Header().Set("Content-Type", payload.ContentType)
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(payload.Data))
}
