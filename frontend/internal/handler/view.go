package handler

import (
	"net/http"

	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/frontend/internal/views"
)

// acquireView returns the assembler of the caller's view, opening a new one
// (and setting the cookie) when the cookie is missing or expired.
func (h *Handler) acquireView(w http.ResponseWriter, r *http.Request) (string, *feed.Assembler) {
	var id string
	if c, err := r.Cookie(views.CookieName); err == nil {
		id = c.Value
	}

	newId, a := h.Views.Acquire(id)
	if newId != id {
		http.SetCookie(w, &http.Cookie{
			Name:     views.CookieName,
			Value:    newId,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.Public.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return newId, a
}

// ViewCloseHandler disposes the caller's view. Pages call it on unload.
func (h *Handler) ViewCloseHandler(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(views.CookieName)
	if err == nil {
		h.Views.Close(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     views.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
