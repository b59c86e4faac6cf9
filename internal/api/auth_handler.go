package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alecgard/accolade/internal/auth"
	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/user"
)

// LoginObserver counts sign-in attempts by result.
type LoginObserver interface {
	IncLogin(result string)
}

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	identity     *identity.Service
	roles        *user.Store
	obs          LoginObserver
	secureCookie bool
}

func newAuthHandler(ids *identity.Service, roles *user.Store, obs LoginObserver, secureCookie bool) *authHandler {
	return &authHandler{identity: ids, roles: roles, obs: obs, secureCookie: secureCookie}
}

// loginStatus maps a provider code to the HTTP status of a failed login.
func loginStatus(code string) int {
	switch code {
	case identity.CodeInvalidEmail, identity.CodeMissingPassword:
		return http.StatusBadRequest
	case identity.CodeInvalidCredential:
		return http.StatusUnauthorized
	case identity.CodeUserDisabled:
		return http.StatusForbidden
	case identity.CodeTooManyRequests:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (h *authHandler) count(result string) {
	if h.obs != nil {
		h.obs.IncLogin(result)
	}
}

func (h *authHandler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	} else {
		c.Expires = expires
	}
	http.SetCookie(w, c)
}

// Login handles POST /api/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	sess, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		code := identity.CodeOf(err)
		if code == "" {
			slog.Error("sign-in failed", "error", err)
			h.count("error")
		} else {
			h.count(code)
		}
		writeError(w, loginStatus(code), code, identity.FriendlyMessage(err))
		return
	}
	h.count("success")

	role, err := h.roles.Role(r.Context(), sess.UID)
	if err != nil {
		// The session is valid; the gate treats an unknown role as employee.
		slog.Warn("loading role after sign-in failed", "uid", sess.UID, "error", err)
	}

	h.setCookie(w, sess.IDToken, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     sess.IDToken,
		"expiresAt": sess.ExpiresAt,
		"user": map[string]any{
			"uid":         sess.UID,
			"email":       sess.Email,
			"displayName": sess.DisplayName,
			"role":        role,
		},
	})
}

// Logout handles POST /api/auth/logout. It always clears the cookie.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		err := h.identity.SignOut(r.Context(), token)
		if err != nil && !errors.Is(err, identity.ErrInvalidToken) {
			slog.Warn("revoking session failed", "error", err)
		}
	}
	h.setCookie(w, "", time.Time{})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var record *user.RoleRecord
	rec, err := h.roles.Get(r.Context(), u.ID)
	switch {
	case err == nil:
		record = rec
	case !errors.Is(err, user.ErrNotFound):
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uid":        u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"isAdmin":    u.IsAdmin(),
		"roleRecord": record,
	})
}
