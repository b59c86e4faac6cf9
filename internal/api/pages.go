package api

import (
	"net/http"

	"github.com/alecgard/accolade/internal/auth"
	"github.com/alecgard/accolade/internal/gate"
)

// pageNames maps each portal route to the page it renders.
var pageNames = map[string]string{
	"/login":        "login",
	"/":             "dashboard",
	"/nominations":  "nominations",
	"/leaderboard":  "leaderboard",
	"/hall-of-fame": "hall-of-fame",
	"/analytics":    "analytics",
	"/admin":        "admin",
}

type pageUser struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

func toPageUser(u *auth.User) *pageUser {
	if u == nil {
		return nil
	}
	return &pageUser{UID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, IsAdmin: u.IsAdmin()}
}

// page describes the page the presentation layer should render. It only
// runs after the gate has allowed the request.
func page(w http.ResponseWriter, r *http.Request) {
	p := gate.CleanPath(r.URL.Path)
	name, ok := pageNames[p]
	if !ok && gate.IsAdminPath(p) {
		name, ok = "admin", true
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "page not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page": name,
		"path": p,
		"user": toPageUser(auth.UserFromContext(r.Context())),
	})
}

// gateCheck handles GET /api/gate?path=. It reports the decision the
// page gate would make for the caller's session without redirecting.
func gateCheck(sessions auth.SessionLookup, obs gate.DecisionObserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("path")
		if target == "" {
			writeError(w, http.StatusBadRequest, "validation", "path is required")
			return
		}

		in, u := gate.ResolveRequest(r, sessions)
		in.Path = target
		d := gate.Decide(in)
		if obs != nil {
			obs.ObserveGateDecision(d.Outcome.String())
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"path":     gate.CleanPath(target),
			"decision": d,
			"user":     toPageUser(u),
		})
	}
}
