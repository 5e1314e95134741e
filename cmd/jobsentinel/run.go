package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cucia/job-sentinel/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline daemon",
	Long:  "Runs full cycles (collect, filter, apply) on the configured interval; blocks until SIGINT/SIGTERM.",
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
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

	logger.Info("settings loaded",
		"platforms", cfg.Platforms.Enabled,
		"interval", cfg.App.RunInterval.String(),
		"daily_limit", cfg.Limits.DailyApplications,
		"use_ai", cfg.App.UseAI,
		"use_policy", cfg.App.UsePolicy,
		"apply_all", cfg.App.ApplyAll,
	)

	jobStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer jobStore.Close()

	runner := buildRunner(cfg, profile, jobStore, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(runner, cfg.App.RunInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
