package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cucia/job-sentinel/internal/config"
	"github.com/cucia/job-sentinel/internal/model"
	"github.com/cucia/job-sentinel/internal/notifier"
	"github.com/cucia/job-sentinel/internal/pipeline"
	"github.com/cucia/job-sentinel/internal/platform"
	"github.com/cucia/job-sentinel/internal/store"
)

var (
	settingsPath string
	profilePath  string
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsentinel",
	Short: "Job application pipeline — discover, filter, apply",
	Long:  "JobSentinel collects postings from job platforms, filters them against your profile and policy, and works through the queue applying under a daily quota.",
	// Default to `run` so that `jobsentinel` with no args starts the daemon.
	RunE: runDaemon,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "c", "", "path to settings file (default: JOBSENTINEL_SETTINGS env var or ./settings.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", "", "path to profile file (default: JOBSENTINEL_PROFILE env var or ./profile.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadSettings resolves the settings path and parses it.
// Priority: explicit flag > JOBSENTINEL_SETTINGS env var > "./settings.yaml"
func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		if env := os.Getenv("JOBSENTINEL_SETTINGS"); env != "" {
			path = env
		} else {
			path = "settings.yaml"
		}
	}
	return config.LoadSettings(path)
}

// loadProfile resolves the profile path the same way. A missing profile file
// is not an error: the scoring gate just sees an empty profile.
func loadProfile(path string) (*config.Profile, error) {
	if path == "" {
		if env := os.Getenv("JOBSENTINEL_PROFILE"); env != "" {
			path = env
		} else {
			path = "profile.yaml"
		}
	}
	return config.LoadProfile(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Settings, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		httpClient := &http.Client{Timeout: 30 * time.Second}
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func openStore(cfg *config.Settings) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Storage.DBPath)
}

func buildRunner(cfg *config.Settings, profile *config.Profile, jobStore model.JobStore, logger *slog.Logger) *pipeline.Runner {
	registry := platform.Default(cfg, logger)
	n := setupNotifier(cfg, logger)
	return pipeline.NewRunner(cfg, profile, registry, jobStore, n, logger)
}
