package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cucia/job-sentinel/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review jobs the pipeline could not settle",
	Long:  "Opens an interactive queue of jobs in review or deferred state; requeue them for the next apply phase or skip them for good.",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load settings: %v\n", err)
		os.Exit(1)
	}

	jobStore, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer jobStore.Close()

	return review.Run(jobStore)
}
