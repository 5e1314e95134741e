package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one full cycle and exit",
	Long:  "One-shot: collect, filter and apply once, print the cycle counters, exit.",
	RunE:  runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadSettings(settingsPath)
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	profile, err := loadProfile(profilePath)
	if err != nil {
		logger.Error("failed to load profile", "error", err)
		os.Exit(1)
	}

	jobStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer jobStore.Close()

	runner := buildRunner(cfg, profile, jobStore, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := runner.RunCycle(ctx)
	if err != nil {
		logger.Error("cycle failed", "error", err)
		os.Exit(1)
	}

	logger.Info("cycle complete",
		"seen", stats.Seen,
		"enqueued", stats.Enqueued,
		"entry_skipped", stats.EntrySkipped,
		"policy_skipped", stats.PolicySkipped,
		"ai_skipped", stats.AISkipped,
		"review", stats.Review+stats.ReviewApply,
		"applied", stats.Applied,
		"deferred", stats.Deferred,
	)
	return nil
}
