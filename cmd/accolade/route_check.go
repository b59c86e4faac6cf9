package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/accolade/internal/gate"
	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/user"
)

var (
	routeEmail    string
	routePassword string
	routeTimeout  time.Duration
)

var routeCheckCmd = &cobra.Command{
	Use:   "route-check PATH...",
	Short: "Sign in and print the gate decision for each path",
	Long: "Signs in as --email (or stays anonymous when it is empty), waits for the " +
		"session's role to load, and prints what the page gate decides for every path.",
	Args: cobra.MinimumNArgs(1),
	RunE: runRouteCheck,
}

func init() {
	routeCheckCmd.Flags().StringVar(&routeEmail, "email", "", "account to sign in as (anonymous when empty)")
	routeCheckCmd.Flags().StringVar(&routePassword, "password", "", "password (default: $ACCOLADE_ROUTE_CHECK_PASSWORD)")
	routeCheckCmd.Flags().DurationVar(&routeTimeout, "timeout", 10*time.Second, "how long to wait for the role to load")
	rootCmd.AddCommand(routeCheckCmd)
}

func runRouteCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
	defer cancel()

	db, err := openStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	ids, err := newIdentity(db, cfg, nil)
	if err != nil {
		return err
	}

	client := identity.NewClient(ids)
	defer client.Close()

	if routeEmail != "" {
		password := routePassword
		if password == "" {
			password = os.Getenv("ACCOLADE_ROUTE_CHECK_PASSWORD")
		}
		if _, err := client.SignIn(ctx, routeEmail, password); err != nil {
			return fmt.Errorf("sign-in failed: %s", identity.FriendlyMessage(err))
		}
	}

	// Subscribing after sign-in makes the first event the signed-in state.
	guard := gate.NewGuard(user.NewStore(db), slog.Default())
	defer guard.Close()
	sub := client.Subscribe()
	defer sub.Cancel()
	go func() {
		if err := guard.Run(ctx, sub.C()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("guard stopped", "error", err)
		}
	}()

	st, err := guard.WaitSettled(ctx)
	if err != nil {
		return fmt.Errorf("waiting for session state: %w", err)
	}
	if st.Err != nil {
		slog.Warn("role lookup failed; treating the session as an employee", "error", st.Err)
	}

	who := "anonymous"
	if st.Session != nil {
		who = fmt.Sprintf("%s (role %q)", st.Session.Email, st.Role)
	}
	fmt.Printf("Session: %s\n", who)
	for _, p := range args {
		d := guard.Evaluate(p)
		switch d.Outcome {
		case gate.Redirect:
			fmt.Printf("  %-24s redirect -> %s\n", gate.CleanPath(p), d.Target)
		default:
			fmt.Printf("  %-24s %s\n", gate.CleanPath(p), d.Outcome)
		}
	}
	return nil
}
