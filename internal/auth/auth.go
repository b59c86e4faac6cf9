package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// SessionCookie carries the bearer token for browser page requests.
const SessionCookie = "accolade_session"

// ErrInvalidSession is returned by a SessionLookup when the token is
// missing, malformed, expired, or revoked.
var ErrInvalidSession = errors.New("invalid or expired session")

// User represents an authenticated portal user. Role is re-read from the
// Role Record on every lookup and is empty when no record exists.
type User struct {
	ID    string
	Email string
	Name  string
	Role  string
	Token string
}

// IsAdmin returns true if the user's Role Record grants admin. A missing or
// unknown role is treated as employee.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// SessionLookup is the interface for resolving bearer tokens to users.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}

// Observer is notified of authentication outcomes. kind is "session" or
// "admin".
type Observer interface {
	IncAuthSuccess(kind string)
	IncAuthFailure(kind string)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if tok := BearerToken(r); tok != "" {
		return tok
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// BearerToken returns the token from an "Authorization: Bearer" header,
// or "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
