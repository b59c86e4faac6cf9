package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/accolade/internal/api"
	"github.com/alecgard/accolade/internal/audit"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/metrics"
	"github.com/alecgard/accolade/internal/nomination"
	"github.com/alecgard/accolade/internal/provision"
	"github.com/alecgard/accolade/internal/ratelimit"
	"github.com/alecgard/accolade/internal/recognition"
	"github.com/alecgard/accolade/internal/user"
)

// maintenanceInterval is how often expired sessions and idle limiter
// buckets are swept.
const maintenanceInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Accolade portal server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	db, err := openStore(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			slog.Warn("closing store", "error", err)
		}
	}()
	slog.Info("connected to document store", "driver", cfg.Store.Driver)

	// Two throttles guard sign-in: one per email inside the identity
	// service, one per client address in front of the login route.
	emailLimiter := ratelimit.New(cfg.LoginLimit.Attempts, cfg.LoginLimit.Window)
	emailLimiter.OnReject(func(string) { m.IncRateLimitRejection("login_email") })
	ipLimiter := ratelimit.New(cfg.LoginLimit.Attempts*4, cfg.LoginLimit.Window)
	ipLimiter.OnReject(func(string) { m.IncRateLimitRejection("login_ip") })

	ids, err := newIdentity(db, cfg, emailLimiter)
	if err != nil {
		return err
	}

	roles := user.NewStore(db)
	employees := employee.NewStore(db)
	auditStore := audit.NewStore(db)

	collector := audit.NewCollector(auditStore, cfg.Audit.BatchSize, cfg.Audit.FlushInterval)
	collector.SetObserver(m)
	go collector.Start(ctx)

	go maintain(ctx, ids, emailLimiter, ipLimiter)

	router := api.NewRouter(api.RouterDeps{
		Store:          db,
		Sessions:       user.NewAuthAdapter(ids, roles),
		Identity:       ids,
		Users:          roles,
		Employees:      employees,
		Nominations:    nomination.NewService(nomination.NewStore(db)),
		Recognition:    recognition.NewStore(db),
		Provisioner:    provision.NewService(ids, roles, ids, employees, logger, m),
		Audit:          collector,
		AuditStore:     auditStore,
		Metrics:        m,
		LoginLimiter:   ipLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SecureCookie:   cfg.Server.SecureCookie,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		slog.Info("shutting down")
	case err := <-errCh:
		slog.Error("server error", "error", err)
		collector.Stop()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)
	collector.Stop()
	return err
}

// maintain sweeps expired sessions and idle limiter buckets until ctx is
// done.
func maintain(ctx context.Context, ids *identity.Service, limiters ...*ratelimit.Limiter) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ids.CleanExpiredSessions(ctx)
			if err != nil {
				slog.Warn("cleaning expired sessions", "error", err)
			} else if n > 0 {
				slog.Info("cleaned expired sessions", "count", n)
			}
			for _, l := range limiters {
				l.Prune()
			}
		}
	}
}
