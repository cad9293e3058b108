package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-grc/riskflow/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "riskflow",
	Short: "Customer risk review pipeline",
	Long:  "Runs compliance review requests through intake, PII scrubbing, moderation, risk scoring, routing, and human-in-the-loop escalation, with a full audit trail per run.",
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
