package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alecgard/accolade/internal/audit"
	"github.com/alecgard/accolade/internal/auth"
	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/gate"
	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/metrics"
	"github.com/alecgard/accolade/internal/nomination"
	"github.com/alecgard/accolade/internal/provision"
	"github.com/alecgard/accolade/internal/ratelimit"
	"github.com/alecgard/accolade/internal/recognition"
	"github.com/alecgard/accolade/internal/user"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Store       docstore.Store
	Sessions    auth.SessionLookup
	Identity    *identity.Service
	Users       *user.Store
	Employees   *employee.Store
	Nominations *nomination.Service
	Recognition *recognition.Store
	Provisioner *provision.Service
	Audit       AuditRecorder
	AuditStore  *audit.Store
	Metrics     *metrics.Metrics
	// LoginLimiter throttles login attempts per client address. Nil
	// leaves only the per-email throttle inside the identity service.
	LoginLimiter   *ratelimit.Limiter
	AllowedOrigins []string
	SecureCookie   bool
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(m))
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))

	// Handlers.
	authH := newAuthHandler(deps.Identity, deps.Users, m, deps.SecureCookie)
	portal := newPortalHandler(deps.Employees, deps.Nominations, deps.Recognition)
	admin := &adminHandler{
		db:          deps.Store,
		roles:       deps.Users,
		employees:   deps.Employees,
		nominations: deps.Nominations,
		auditRec:    deps.Audit,
		auditStore:  deps.AuditStore,
	}
	prov := &provisionHandler{svc: deps.Provisioner, auditRec: deps.Audit}

	r.Get("/health", healthHandler(deps.Store))
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api/auth", func(ar chi.Router) {
		ar.Group(func(lr chi.Router) {
			if deps.LoginLimiter != nil {
				lr.Use(ratelimit.Middleware(deps.LoginLimiter, ratelimit.ClientIP))
			}
			lr.Post("/login", authH.Login)
		})
		ar.Post("/logout", authH.Logout)
		ar.With(auth.MemberAuthMiddleware(deps.Sessions, m)).Get("/me", authH.Me)
	})

	// Gate decisions are answered for anonymous callers too.
	r.Get("/api/gate", gateCheck(deps.Sessions, m))

	// Member routes (any valid session).
	r.Group(func(mr chi.Router) {
		mr.Use(auth.MemberAuthMiddleware(deps.Sessions, m))

		mr.Get("/api/employees", portal.ListEmployees)
		mr.Get("/api/employees/active", portal.ListActiveEmployees)
		mr.Get("/api/nominations", portal.ListNominations)
		mr.Post("/api/nominations", portal.SubmitNomination)
		mr.Get("/api/categories", portal.Categories)
		mr.Get("/api/leaderboard", portal.Leaderboard)
		mr.Get("/api/hall-of-fame", portal.HallOfFame)
		mr.Get("/api/analytics", portal.Analytics)
		mr.Get("/api/stats", portal.Stats)
	})

	r.Route("/api/admin", func(ar chi.Router) {
		// Provisioning runs its own token and role checks.
		ar.Post("/create-user", prov.CreateUser)

		ar.Group(func(gr chi.Router) {
			gr.Use(auth.AdminSessionMiddleware(deps.Sessions, m))

			gr.Get("/users", admin.ListUsers)
			gr.Put("/employees/{id}", admin.UpdateEmployee)
			gr.Post("/employees/{id}/deactivate", admin.DeactivateEmployee)
			gr.Delete("/employees/{id}", admin.DeleteEmployee)
			gr.Post("/nominations/{id}/approve", admin.ApproveNomination)
			gr.Post("/nominations/{id}/reject", admin.RejectNomination)
			gr.Post("/seed", admin.Seed)
			gr.Get("/audit", admin.ListAudit)
			gr.Get("/metrics", m.Handler())
		})
	})

	// Portal pages.
	r.Group(func(pr chi.Router) {
		pr.Use(gate.Middleware(deps.Sessions, m))

		for path := range pageNames {
			pr.Get(path, page)
		}
		pr.Get("/admin/*", page)
	})

	return r
}

// healthHandler reports whether the document store is reachable.
func healthHandler(db docstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
