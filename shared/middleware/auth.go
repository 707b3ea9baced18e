package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/postfeed/shared/domain"
	jwt_internal "github.com/itchan-dev/postfeed/shared/jwt"
	"github.com/itchan-dev/postfeed/shared/logger"
)

// Key to store the session in the request context
type key int

const SessionKey key = 0

const AccessTokenCookie = "accessToken"

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// OptionalAuth stores the session when a valid token is present and lets
// the request through as anonymous otherwise.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := a.jwtService.DecodeSession(tokenString)
			if err != nil {
				logger.Log.Debug("ignoring invalid token", "component", "auth", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the cookie first (browsers), then the Authorization
// header (script clients).
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

// GetSessionFromContext returns the session stored by OptionalAuth, or the zero
// (anonymous) session.
func GetSessionFromContext(r *http.Request) domain.Session {
	session, ok := r.Context().Value(SessionKey).(domain.Session)
	if !ok {
		return domain.Session{}
	}
	return session
}
