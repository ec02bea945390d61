package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "policyscan",
	Short: "Policy page discovery and contact enrichment",
	Long:  "Discovers privacy/terms/DPA pages for company domains, scrapes them, and extracts contact emails, countries, and data-deletion links with confidence scoring.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
