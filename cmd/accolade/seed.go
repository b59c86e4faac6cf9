package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alecgard/accolade/internal/recognition"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample employees, nominations, and recognition views",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	res, err := recognition.Seed(ctx, db, recognition.Sample())
	if err != nil {
		return fmt.Errorf("seeding sample data: %w", err)
	}

	slog.Info("sample data loaded",
		"employees", res.Employees,
		"nominations", res.Nominations,
		"leaderboard", res.Leaderboard,
		"monthly_winners", res.Winners,
		"analytics", res.Analytics,
	)
	fmt.Printf("\n=== Sample Data Loaded ===\n")
	fmt.Printf("Employees:       %d\n", res.Employees)
	fmt.Printf("Nominations:     %d\n", res.Nominations)
	fmt.Printf("Leaderboard:     %d\n", res.Leaderboard)
	fmt.Printf("Monthly winners: %d\n", res.Winners)
	fmt.Printf("Analytics:       %d months\n", res.Analytics)
	return nil
}
