package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/shared/logger"
	mw "github.com/itchan-dev/postfeed/shared/middleware"
)

type apiError struct {
	Error string `json:"error"`
	Retry bool   `json:"retry"`
}

// APIFeedHandler is the JSON rendition of the feed. page is one-based.
func (h *Handler) APIFeedHandler(w http.ResponseWriter, r *http.Request) {
	display, err := parseIntParam(r.URL.Query().Get("page"), "page", defaultPage)
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	size, err := parseIntParam(r.URL.Query().Get("size"), "size", h.Public.PageSize)
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	size = min(size, maxPageSize)

	_, a := h.acquireView(w, r)
	page, err := loadPage(r.Context(), a, mw.GetSessionFromContext(r), feed.PageIndex(display), size)
	if err != nil {
		status := loadErrorStatus(err)
		writeJSONStatus(w, status, apiError{Error: err.Error(), Retry: status >= http.StatusInternalServerError})
		return
	}
	writeJSON(w, page)
}

func (h *Handler) APIPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostId(chi.URLParam(r, "postId"))
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	_, a := h.acquireView(w, r)
	vm, err := loadSingle(r.Context(), a, mw.GetSessionFromContext(r), id)
	if err != nil {
		status := loadErrorStatus(err)
		writeJSONStatus(w, status, apiError{Error: err.Error(), Retry: status >= http.StatusInternalServerError})
		return
	}
	writeJSON(w, vm)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("encoding response", "component", "handler", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
