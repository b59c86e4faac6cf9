package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- mock session lookup ---

type mockSessionLookup struct {
	users map[string]*User
	err   error
	calls int
}

func (m *mockSessionLookup) LookupSession(ctx context.Context, token string) (*User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	return u, nil
}

type countingObserver struct {
	successes map[string]int
	failures  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{successes: map[string]int{}, failures: map[string]int{}}
}

func (o *countingObserver) IncAuthSuccess(kind string) { o.successes[kind]++ }
func (o *countingObserver) IncAuthFailure(kind string) { o.failures[kind]++ }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			http.Error(w, "no user", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(u.ID))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

// --- TokenFromRequest tests ---

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"case insensitive scheme", "bearer abc", "", "abc"},
		{"basic is ignored", "Basic abc", "", ""},
		{"no scheme", "abc", "", ""},
		{"cookie fallback", "", "from-cookie", "from-cookie"},
		{"header wins over cookie", "Bearer hdr", "from-cookie", "hdr"},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if got := TokenFromRequest(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// --- middleware tests ---

func TestMemberAuthMiddleware(t *testing.T) {
	lookup := &mockSessionLookup{users: map[string]*User{
		"tok-emp":    {ID: "u3", Role: "employee"},
		"tok-norole": {ID: "u2"},
	}}
	obs := newCountingObserver()
	h := MemberAuthMiddleware(lookup, obs)(okHandler())

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing token", "", http.StatusUnauthorized, "unauthenticated"},
		{"invalid token", "tok-bogus", http.StatusUnauthorized, "unauthenticated"},
		{"employee", "tok-emp", http.StatusOK, ""},
		{"no role record", "tok-norole", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.code != "" {
				if body := decodeError(t, rec); body.Code != tt.code {
					t.Errorf("expected code %q, got %q", tt.code, body.Code)
				}
			}
		})
	}
	if obs.successes["session"] != 2 || obs.failures["session"] != 2 {
		t.Errorf("unexpected observer counts: %+v %+v", obs.successes, obs.failures)
	}
}

func TestAdminSessionMiddleware(t *testing.T) {
	lookup := &mockSessionLookup{users: map[string]*User{
		"tok-admin":  {ID: "u1", Role: "admin"},
		"tok-emp":    {ID: "u3", Role: "employee"},
		"tok-norole": {ID: "u2"},
	}}
	h := AdminSessionMiddleware(lookup, nil)(okHandler())

	tests := []struct {
		token  string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"tok-bogus", http.StatusUnauthorized},
		{"tok-emp", http.StatusForbidden},
		{"tok-norole", http.StatusForbidden},
		{"tok-admin", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("token %q: expected %d, got %d", tt.token, tt.status, rec.Code)
		}
	}
}

func TestAdminSessionMiddleware_RoleReadEveryRequest(t *testing.T) {
	admin := &User{ID: "u1", Role: "admin"}
	lookup := &mockSessionLookup{users: map[string]*User{"tok": admin}}
	h := AdminSessionMiddleware(lookup, nil)(okHandler())

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if do() != http.StatusOK {
		t.Fatal("admin should pass")
	}
	admin.Role = "employee"
	if do() != http.StatusForbidden {
		t.Fatal("demoted admin should be rejected on the next request")
	}
	if lookup.calls != 2 {
		t.Errorf("expected a lookup per request, got %d", lookup.calls)
	}
}

func TestSessionMiddleware_LookupFailureIs500(t *testing.T) {
	lookup := &mockSessionLookup{err: errors.New("store unreachable")}
	h := MemberAuthMiddleware(lookup, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestIsAdmin(t *testing.T) {
	var nilUser *User
	if nilUser.IsAdmin() {
		t.Error("nil user must not be admin")
	}
	if (&User{Role: "employee"}).IsAdmin() {
		t.Error("employee must not be admin")
	}
	if !(&User{Role: "admin"}).IsAdmin() {
		t.Error("admin should be admin")
	}
}
