package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type contextKey int

const userContextKey contextKey = iota

// ContextWithUser returns a new context carrying the given user.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the user from the context, or nil if not present.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// MemberAuthMiddleware validates the session token and injects the user into
// context. Any role is accepted, including a missing one.
func MemberAuthMiddleware(sessions SessionLookup, obs Observer) func(http.Handler) http.Handler {
	return sessionMiddleware(sessions, obs, "session", false)
}

// AdminSessionMiddleware validates the session token and requires the
// admin role. The role comes from the Role Record read during the lookup,
// never from the token.
func AdminSessionMiddleware(sessions SessionLookup, obs Observer) func(http.Handler) http.Handler {
	return sessionMiddleware(sessions, obs, "admin", true)
}

func sessionMiddleware(sessions SessionLookup, obs Observer, kind string, requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				failure(obs, kind)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing or malformed authorization header")
				return
			}

			user, err := sessions.LookupSession(r.Context(), token)
			if err != nil || user == nil {
				if err != nil && !errors.Is(err, ErrInvalidSession) {
					slog.Error("session lookup failed", "error", err)
					writeError(w, http.StatusInternalServerError, "upstream", "internal server error")
					return
				}
				failure(obs, kind)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired session")
				return
			}
			if requireAdmin && !user.IsAdmin() {
				failure(obs, kind)
				writeError(w, http.StatusForbidden, "unauthorized", "admin access required")
				return
			}
			if obs != nil {
				obs.IncAuthSuccess(kind)
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func failure(obs Observer, kind string) {
	if obs != nil {
		obs.IncAuthFailure(kind)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}
