package gate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alecgard/accolade/internal/auth"
)

// DecisionObserver is told about every page decision.
type DecisionObserver interface {
	ObserveGateDecision(outcome string)
}

// ResolveRequest builds the decision input for r. The session comes from
// the bearer header or the session cookie and the role is read from the
// store on every call, so the state is always loaded. An infrastructure
// failure during lookup is treated as a session without a Role Record.
func ResolveRequest(r *http.Request, sessions auth.SessionLookup) (Input, *auth.User) {
	in := Input{Loaded: true, Path: r.URL.Path}

	token := auth.TokenFromRequest(r)
	if token == "" {
		return in, nil
	}
	u, err := sessions.LookupSession(r.Context(), token)
	switch {
	case err == nil && u != nil:
		in.HasSession = true
		in.Role = u.Role
		return in, u
	case errors.Is(err, auth.ErrInvalidSession):
	case err != nil:
		slog.Warn("page session lookup failed", "path", r.URL.Path, "error", err)
		in.HasSession = true
	}
	return in, nil
}

// Middleware guards page routes. Allowed requests carry the user in their
// context; the rest are redirected with 302.
func Middleware(sessions auth.SessionLookup, obs DecisionObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			in, user := ResolveRequest(r, sessions)

			d := Decide(in)
			if obs != nil {
				obs.ObserveGateDecision(d.Outcome.String())
			}
			if d.Outcome == Redirect {
				http.Redirect(w, r, d.Target, http.StatusFound)
				return
			}
			if user != nil {
				r = r.WithContext(auth.ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}
