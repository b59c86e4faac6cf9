package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandler_Summary(t *testing.T) {
	m := New()
	m.HTTPRequestsTotal.WithLabelValues("api", "GET", "/api/employees", "200").Add(3)
	m.HTTPRequestsTotal.WithLabelValues("api", "POST", "/api/admin/create-user", "403").Inc()
	m.HTTPRequestsTotal.WithLabelValues("page", "GET", "/", "302").Inc()
	m.HTTPRequestDuration.WithLabelValues("api", "GET", "/api/employees").Observe(0.02)
	m.IncAuthSuccess("session")
	m.IncAuthFailure("admin")
	m.IncLogin("success")
	m.IncLogin("invalid-credential")
	m.IncLogin("invalid-credential")
	m.IncRateLimitRejection("login_email")
	m.ObserveGateDecision("redirect")
	m.ObserveGateDecision("allow")
	m.IncProvision("created")
	m.ObserveStoreOp("memory", "get", 0.001, nil)
	m.ObserveStoreOp("memory", "batch", 0.002, errors.New("boom"))
	m.SetAuditBuffer(4)
	m.IncAuditFlush(true)
	m.IncAuditFlush(false)
	m.RegisterDBPoolCollector(func() (int32, int32, int32) { return 10, 7, 3 })

	rec := httptest.NewRecorder()
	m.Handler()(rec, httptest.NewRequest(http.MethodGet, "/api/admin/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var s Summary
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if s.API.TotalRequests != 4 || s.API.ErrorRate != 0.25 {
		t.Errorf("unexpected api summary %+v", s.API)
	}
	if s.API.P50Latency <= 0 {
		t.Errorf("expected api latency, got %+v", s.API)
	}
	if s.Pages.TotalRequests != 1 {
		t.Errorf("unexpected page summary %+v", s.Pages)
	}
	if s.Auth.Successes != 1 || s.Auth.Failures != 1 {
		t.Errorf("unexpected auth %+v", s.Auth)
	}
	if s.Logins["invalid-credential"] != 2 || s.Logins["success"] != 1 {
		t.Errorf("unexpected logins %v", s.Logins)
	}
	if s.RateLimit.Rejections != 1 {
		t.Errorf("unexpected rate limit %+v", s.RateLimit)
	}
	if s.Gate["redirect"] != 1 || s.Gate["allow"] != 1 {
		t.Errorf("unexpected gate %v", s.Gate)
	}
	if s.Provision["created"] != 1 {
		t.Errorf("unexpected provision %v", s.Provision)
	}
	if s.Store.Operations != 2 || s.Store.Errors != 1 {
		t.Errorf("unexpected store %+v", s.Store)
	}
	if s.Audit.BufferSize != 4 || s.Audit.TotalFlushes != 2 || s.Audit.FlushErrors != 1 {
		t.Errorf("unexpected audit %+v", s.Audit)
	}
	if s.DB.TotalConns != 10 || s.DB.IdleConns != 7 || s.DB.AcquiredConns != 3 {
		t.Errorf("unexpected db %+v", s.DB)
	}
	if s.Server.StartTime == 0 {
		t.Error("expected start time")
	}
}
