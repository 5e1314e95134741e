package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cucia/job-sentinel/internal/model"
)

var (
	jobsStatus   []string
	jobsPlatform []string
	jobsLimit    int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List tracked jobs",
	Long:  "Reads the job store and prints a table of tracked jobs, newest first.",
	RunE:  runJobs,
}

var jobsRequeueCmd = &cobra.Command{
	Use:   "requeue <job_key>",
	Short: "Put a deferred or reviewed job back in the apply queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRequeue,
}

func init() {
	jobsCmd.Flags().StringSliceVar(&jobsStatus, "status", nil, "filter by status (queued, skipped, review, rejected, applied, deferred)")
	jobsCmd.Flags().StringSliceVar(&jobsPlatform, "platform", nil, "filter by platform")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum rows to print (0 = no limit)")
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsRequeueCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
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

	var statuses []model.Status
	for _, s := range jobsStatus {
		st, err := model.ParseStatus(s)
		if err != nil {
			return err
		}
		statuses = append(statuses, st)
	}

	jobs, err := jobStore.List(model.ListFilter{
		Statuses:  statuses,
		Platforms: jobsPlatform,
		Limit:     jobsLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list jobs: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tPLATFORM\tTITLE\tCOMPANY\tSTATUS\tSCORE\tCREATED")
	for _, j := range jobs {
		score := "-"
		if j.Score != nil {
			score = fmt.Sprintf("%d", *j.Score)
		}
		fmt.Fprintf(w, "%.8s\t%s\t%.40s\t%.20s\t%s\t%s\t%s\n",
			j.Key, j.Platform, j.Title, j.Company, j.Status, score,
			j.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d jobs\n", len(jobs))
	return nil
}

func runJobsRequeue(cmd *cobra.Command, args []string) error {
	key := args[0]

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

	job, err := jobStore.Get(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read job: %v\n", err)
		os.Exit(1)
	}
	if job == nil {
		return fmt.Errorf("no job with key %q", key)
	}
	if job.Status == model.StatusApplied {
		return fmt.Errorf("job %q is already applied and cannot be requeued", key)
	}

	status := model.StatusQueued
	if err := jobStore.Update(key, model.JobUpdate{Status: &status}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to requeue job: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("requeued %s (%s at %s)\n", key, job.Title, job.Company)
	return nil
}
