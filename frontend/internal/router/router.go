package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	frontend_mw "github.com/itchan-dev/postfeed/frontend/internal/middleware"
	"github.com/itchan-dev/postfeed/frontend/internal/setup"
	"github.com/itchan-dev/postfeed/shared/middleware/metrics"
)

func SetupRouter(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	// Handles are unguessable ids and stay readable without a session, so
	// <img> and <video> tags work for anonymous viewers too.
	r.Get("/h/{handleId}", h.MediaGetHandler)

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.OptionalAuth())

		r.Group(func(r chi.Router) {
			r.Use(frontend_mw.GenerateCSRFToken(frontend_mw.CSRFConfig{SecureCookies: deps.Public.SecureCookies}))
			r.Get("/", h.FeedGetHandler)
			r.Get("/post/{postId}", h.PostGetHandler)
		})
		r.With(frontend_mw.ValidateCSRFToken()).Post("/view/close", h.ViewCloseHandler)

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   deps.Public.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders:   []string{"Authorization", "Content-Type"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Get("/feed", h.APIFeedHandler)
			r.Get("/posts/{postId}", h.APIPostHandler)
		})
	})

	return r
}
