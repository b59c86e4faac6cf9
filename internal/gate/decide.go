// Package gate decides which portal routes a session may reach.
package gate

import (
	"path"
	"strings"
)

// Route paths the gate redirects to.
const (
	LoginPath = "/login"
	HomePath  = "/"
	AdminPath = "/admin"
)

// Outcome is the kind of decision.
type Outcome int

const (
	// Loading means the session or its role is still being resolved and
	// no decision may be made yet.
	Loading Outcome = iota
	Allow
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Input is everything the gate looks at. Role is the role from the Role
// Record, or "" when there is none.
type Input struct {
	Loaded     bool
	HasSession bool
	Role       string
	Path       string
}

// Decision is the gate's answer. Target is set for redirects.
type Decision struct {
	Outcome Outcome `json:"outcome"`
	Target  string  `json:"target,omitempty"`
}

// MarshalText lets Outcome render as its name in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// CleanPath normalizes a request path for matching.
func CleanPath(p string) string {
	if p == "" {
		return HomePath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsAdminPath reports whether p starts with the admin prefix. The match is
// on the raw prefix, so "/adminx" counts as admin too.
func IsAdminPath(p string) bool {
	return strings.HasPrefix(CleanPath(p), AdminPath)
}

// Decide applies the routing rules. Only the literal role "admin" grants
// admin routes; anything else, including no Role Record, is treated as an
// employee.
func Decide(in Input) Decision {
	if !in.Loaded {
		return Decision{Outcome: Loading}
	}
	p := CleanPath(in.Path)
	admin := in.Role == "admin"

	switch {
	case !in.HasSession:
		if p == LoginPath {
			return Decision{Outcome: Allow}
		}
		return Decision{Outcome: Redirect, Target: LoginPath}
	case p == LoginPath:
		if admin {
			return Decision{Outcome: Redirect, Target: AdminPath}
		}
		return Decision{Outcome: Redirect, Target: HomePath}
	case !admin && IsAdminPath(p):
		return Decision{Outcome: Redirect, Target: HomePath}
	}
	return Decision{Outcome: Allow}
}
