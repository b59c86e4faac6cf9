package gate

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{"not loaded", Input{Path: "/admin"}, Decision{Outcome: Loading}},
		{"not loaded with session", Input{HasSession: true, Role: "admin", Path: "/login"}, Decision{Outcome: Loading}},
		{"anonymous on home", Input{Loaded: true, Path: "/"}, Decision{Outcome: Redirect, Target: "/login"}},
		{"anonymous on admin", Input{Loaded: true, Path: "/admin/employees"}, Decision{Outcome: Redirect, Target: "/login"}},
		{"anonymous on login", Input{Loaded: true, Path: "/login"}, Decision{Outcome: Allow}},
		{"anonymous on login trailing slash", Input{Loaded: true, Path: "/login/"}, Decision{Outcome: Allow}},
		{"admin on login", Input{Loaded: true, HasSession: true, Role: "admin", Path: "/login"}, Decision{Outcome: Redirect, Target: "/admin"}},
		{"employee on login", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/login"}, Decision{Outcome: Redirect, Target: "/"}},
		{"no role on login", Input{Loaded: true, HasSession: true, Path: "/login"}, Decision{Outcome: Redirect, Target: "/"}},
		{"employee on admin", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/admin"}, Decision{Outcome: Redirect, Target: "/"}},
		{"employee on admin subpage", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/admin/employees"}, Decision{Outcome: Redirect, Target: "/"}},
		{"no role on admin subpage", Input{Loaded: true, HasSession: true, Path: "/admin/employees"}, Decision{Outcome: Redirect, Target: "/"}},
		{"unknown role on admin", Input{Loaded: true, HasSession: true, Role: "Admin", Path: "/admin"}, Decision{Outcome: Redirect, Target: "/"}},
		{"employee on admin-prefixed path", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/administrators"}, Decision{Outcome: Redirect, Target: "/"}},
		{"employee on dot-dot admin", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/nominations/../admin"}, Decision{Outcome: Redirect, Target: "/"}},
		{"employee on home", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/"}, Decision{Outcome: Allow}},
		{"employee on leaderboard", Input{Loaded: true, HasSession: true, Role: "employee", Path: "/leaderboard"}, Decision{Outcome: Allow}},
		{"admin on admin", Input{Loaded: true, HasSession: true, Role: "admin", Path: "/admin/employees"}, Decision{Outcome: Allow}},
		{"admin on home", Input{Loaded: true, HasSession: true, Role: "admin", Path: "/"}, Decision{Outcome: Allow}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.in); got != tt.want {
				t.Errorf("Decide(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsAdminPath(t *testing.T) {
	tests := map[string]bool{
		"/admin":           true,
		"/admin/":          true,
		"/admin/employees": true,
		"admin":            true,
		"/adminx":          true,
		"/administrators":  true,
		"/x/admin":         false,
		"/":                false,
		"":                 false,
		"/leaderboard":     false,
	}
	for p, want := range tests {
		if got := IsAdminPath(p); got != want {
			t.Errorf("IsAdminPath(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Loading: "loading", Allow: "allow", Redirect: "redirect", Outcome(9): "unknown"} {
		if o.String() != want {
			t.Errorf("%d: got %q, want %q", int(o), o.String(), want)
		}
	}
}
