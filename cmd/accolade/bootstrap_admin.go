package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/user"
)

var (
	bootstrapEmail    string
	bootstrapName     string
	bootstrapPassword string
)

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create (or promote) an admin account",
	Long: "Creates an identity for --email if none exists and writes an admin Role Record for it. " +
		"Running it again for the same email only re-asserts the admin role.",
	RunE: runBootstrapAdmin,
}

func init() {
	bootstrapAdminCmd.Flags().StringVar(&bootstrapEmail, "email", "", "admin email address (required)")
	bootstrapAdminCmd.Flags().StringVar(&bootstrapName, "name", "Administrator", "display name for a new account")
	bootstrapAdminCmd.Flags().StringVar(&bootstrapPassword, "password", "", "password for a new account (default: $ACCOLADE_ADMIN_PASSWORD)")
	_ = bootstrapAdminCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(bootstrapAdminCmd)
}

func runBootstrapAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := openStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	ids, err := newIdentity(db, cfg, nil)
	if err != nil {
		return err
	}

	acct, err := ids.GetAccountByEmail(ctx, bootstrapEmail)
	switch {
	case err == nil:
		slog.Info("account exists, promoting", "uid", acct.UID)
	case errors.Is(err, identity.ErrAccountNotFound):
		password := bootstrapPassword
		if password == "" {
			password = os.Getenv("ACCOLADE_ADMIN_PASSWORD")
		}
		if password == "" {
			return errors.New("a password is required to create a new account (--password or ACCOLADE_ADMIN_PASSWORD)")
		}
		acct, err = ids.CreateAccount(ctx, bootstrapEmail, password, bootstrapName)
		if err != nil {
			return fmt.Errorf("creating account: %s: %w", identity.FriendlyMessage(err), err)
		}
		slog.Info("created account", "uid", acct.UID)
	default:
		return fmt.Errorf("looking up account: %w", err)
	}

	rec, err := user.NewStore(db).Upsert(ctx, &user.RoleRecord{
		UID:   acct.UID,
		Name:  acct.DisplayName,
		Email: acct.Email,
		Role:  user.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("writing role record: %w", err)
	}

	fmt.Printf("Admin ready: %s (%s)\n", rec.Email, rec.UID)
	return nil
}
