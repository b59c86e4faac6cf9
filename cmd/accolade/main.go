package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alecgard/accolade/internal/config"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "accolade",
	Short: "Accolade employee recognition portal",
	Long:  "Accolade serves the employee recognition portal: sign-in, nominations, leaderboards, and the admin tools that provision accounts and review nominations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return config.LoadDotEnv()
		}
		return config.LoadDotEnv(envFile)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: .env when present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
