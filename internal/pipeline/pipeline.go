package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cucia/job-sentinel/internal/config"
	"github.com/cucia/job-sentinel/internal/decision"
	"github.com/cucia/job-sentinel/internal/model"
	"github.com/cucia/job-sentinel/internal/platform"
	"github.com/cucia/job-sentinel/internal/ratelimit"
)

// JobKey derives the stable identity of a posting: md5 of platform plus URL
// when a URL exists, else platform plus title, company and location. Computed
// here, never by the store.
func JobKey(p model.RawPosting) string {
	var raw string
	if url := strings.TrimSpace(p.URL); url != "" {
		raw = p.Platform + "|" + url
	} else {
		raw = p.Platform + "|" + p.Title + "|" + p.Company + "|" + p.Location
	}
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CycleStats are the aggregate counters of one full cycle. Phase 1 counters
// cover ingest and filtering; phase 2 counters cover the apply loop.
type CycleStats struct {
	Seen          int // dedup hits, not re-evaluated
	Enqueued      int
	EntrySkipped  int
	PolicySkipped int
	AISkipped     int
	Review        int // routed to review by the scoring gate

	Applied      int
	ReviewApply  int // routed to review by the apply phase
	SkippedApply int
	Deferred     int
}

// Runner drives the two-phase cycle: ingest and filter freshly collected
// postings, then work through the queue applying under the daily quota. It
// holds no job state of its own between cycles; the store is the single
// source of truth, which is what makes a cycle safely restartable.
type Runner struct {
	settings *config.Settings
	profile  *config.Profile
	registry *platform.Registry
	store    model.JobStore
	quota    *ratelimit.DailyQuota
	pacer    *ratelimit.Pacer
	notifier model.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Minimum delay between consecutive apply calls to the same platform.
const applyMinDelay = 5 * time.Second

// NewRunner creates a runner wired with all its dependencies. notifier may
// be nil to disable review escalations.
func NewRunner(
	settings *config.Settings,
	profile *config.Profile,
	registry *platform.Registry,
	store model.JobStore,
	notifier model.Notifier,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		settings: settings,
		profile:  profile,
		registry: registry,
		store:    store,
		quota:    ratelimit.NewDailyQuota(store, settings.Limits.DailyApplications),
		pacer:    ratelimit.NewPacer(applyMinDelay),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RunCycle executes one full cycle. Per-job and per-platform failures are
// contained and logged; only store failures abort the cycle, and the partial
// stats accumulated so far are returned alongside the error.
func (r *Runner) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	postings := r.collect(ctx)
	r.logger.Info("collected postings", "count", len(postings))

	reviewJobs, err := r.ingest(ctx, postings, &stats)
	if err != nil {
		return stats, err
	}

	r.logger.Info("ingest phase done",
		"seen", stats.Seen,
		"enqueued", stats.Enqueued,
		"entry_skipped", stats.EntrySkipped,
		"policy_skipped", stats.PolicySkipped,
		"ai_skipped", stats.AISkipped,
		"review", stats.Review,
	)

	applyReview, err := r.apply(ctx, &stats)
	if err != nil {
		return stats, err
	}
	reviewJobs = append(reviewJobs, applyReview...)

	r.logger.Info("apply phase done",
		"applied", stats.Applied,
		"review", stats.ReviewApply,
		"skipped", stats.SkippedApply,
		"deferred", stats.Deferred,
	)

	if r.notifier != nil && len(reviewJobs) > 0 {
		if err := r.notifier.Notify(reviewJobs); err != nil {
			r.logger.Warn("review notification failed", "error", err)
		}
	}

	return stats, nil
}

// collect gathers raw postings from every enabled platform. A failing
// collector contributes zero postings and never aborts the cycle.
func (r *Runner) collect(ctx context.Context) []model.RawPosting {
	var postings []model.RawPosting
	for _, id := range r.settings.Platforms.Enabled {
		collector, ok := r.registry.Collector(id)
		if !ok {
			r.logger.Warn("no collector registered", "platform", id)
			continue
		}
		batch, err := collector.Collect(ctx)
		if err != nil {
			r.logger.Warn("collection failed", "platform", id, "error", err)
			continue
		}
		r.logger.Info("collector returned postings", "platform", id, "count", len(batch))
		postings = append(postings, batch...)
	}
	return postings
}

// ingest is phase 1: dedup, persist, enrich, and run each new posting
// through the filter chain. Returns the jobs routed to review.
func (r *Runner) ingest(ctx context.Context, postings []model.RawPosting, stats *CycleStats) ([]model.Job, error) {
	app := r.settings.App
	var reviewJobs []model.Job

	for _, posting := range postings {
		key := JobKey(posting)

		seen, err := r.store.HasSeen(key)
		if err != nil {
			return reviewJobs, fmt.Errorf("checking seen status: %w", err)
		}
		if seen {
			stats.Seen++
			continue
		}

		job := model.Job{
			Key:         key,
			Platform:    posting.Platform,
			Title:       posting.Title,
			Company:     posting.Company,
			Location:    posting.Location,
			Description: posting.Description,
			URL:         posting.URL,
			Status:      model.StatusQueued,
		}
		if err := r.store.Enqueue(job); err != nil {
			return reviewJobs, fmt.Errorf("enqueuing job: %w", err)
		}
		stats.Enqueued++

		r.enrich(ctx, &job)

		if app.EntryLevelOnly && !decision.IsEntryLevel(job, app.SeniorityBlocklist) {
			if err := r.settle(key, model.StatusSkipped, model.DecisionSeniorityReject, 0); err != nil {
				return reviewJobs, err
			}
			stats.EntrySkipped++
			continue
		}

		if app.UsePolicy && !decision.PolicyAllows(job, r.settings.Policy) {
			if err := r.settle(key, model.StatusSkipped, model.DecisionPolicyReject, 0); err != nil {
				return reviewJobs, err
			}
			stats.PolicySkipped++
			continue
		}

		if app.UseAI {
			verdict := decision.Evaluate(job, *r.profile, r.settings.AI.MinScore, r.settings.AI.UncertaintyMargin)
			switch {
			case verdict.Confused:
				if err := r.settle(key, model.StatusReview, model.DecisionAI, verdict.Score); err != nil {
					return reviewJobs, err
				}
				stats.Review++
				job.Status = model.StatusReview
				reviewJobs = append(reviewJobs, job)
			case !verdict.Apply:
				if err := r.settle(key, model.StatusSkipped, model.DecisionAI, verdict.Score); err != nil {
					return reviewJobs, err
				}
				stats.AISkipped++
			default:
				// Passed: record the score and leave the job queued.
				if err := r.store.RecordDecision(key, model.DecisionAI, verdict.Score); err != nil {
					return reviewJobs, fmt.Errorf("recording decision: %w", err)
				}
			}
		}
	}

	return reviewJobs, nil
}

// enrich fills missing fields in place, best-effort. Runs only when the
// scoring gate is on and the posting arrived without a description.
func (r *Runner) enrich(ctx context.Context, job *model.Job) {
	app := r.settings.App
	if !app.UseAI || !app.EnrichBeforeAI || strings.TrimSpace(job.Description) != "" {
		return
	}
	enricher, ok := r.registry.Enricher(job.Platform)
	if !ok {
		return
	}

	fields, err := enricher.Enrich(ctx, *job)
	if err != nil {
		r.logger.Warn("enrichment failed", "platform", job.Platform, "error", err)
		return
	}
	if fields.Description == "" && fields.Company == "" && fields.Location == "" {
		return
	}

	if fields.Description != "" {
		job.Description = fields.Description
	}
	if fields.Company != "" {
		job.Company = fields.Company
	}
	if fields.Location != "" {
		job.Location = fields.Location
	}

	update := model.JobUpdate{
		Description: &job.Description,
		Company:     &job.Company,
		Location:    &job.Location,
	}
	if err := r.store.Update(job.Key, update); err != nil {
		r.logger.Warn("persisting enrichment failed", "platform", job.Platform, "error", err)
		return
	}
	r.logger.Info("enriched job",
		"platform", job.Platform,
		"description_len", len(job.Description),
	)
}

// settle writes a decided status and its decision record in one place.
func (r *Runner) settle(key string, status model.Status, reason string, score int) error {
	if err := r.store.Update(key, model.JobUpdate{Status: &status}); err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}
	if err := r.store.RecordDecision(key, reason, score); err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}
	return nil
}

// apply is phase 2: pop the oldest queued job and dispatch it to its
// platform's apply capability, while the daily quota holds. The loop stops
// when the queue empties or the quota is spent, whichever comes first.
// Returns the jobs routed to review by failed or inconclusive applies.
func (r *Runner) apply(ctx context.Context, stats *CycleStats) ([]model.Job, error) {
	var reviewJobs []model.Job
	resumePath := r.settings.App.ResumePath

	for {
		if !r.settings.App.ApplyAll {
			ok, err := r.quota.CanApply(r.now())
			if err != nil {
				return reviewJobs, fmt.Errorf("checking daily quota: %w", err)
			}
			if !ok {
				r.logger.Info("daily quota exhausted, stopping apply phase")
				break
			}
		}

		job, err := r.store.NextQueued()
		if err != nil {
			return reviewJobs, fmt.Errorf("popping queued job: %w", err)
		}
		if job == nil {
			break
		}

		applier, ok := r.registry.Applier(job.Platform)
		if !ok {
			status := model.StatusSkipped
			if err := r.store.Update(job.Key, model.JobUpdate{Status: &status}); err != nil {
				return reviewJobs, fmt.Errorf("updating job status: %w", err)
			}
			stats.SkippedApply++
			continue
		}

		r.logger.Info("applying",
			"platform", job.Platform,
			"title", job.Title,
			"url", job.URL,
		)

		if err := r.pacer.Wait(ctx, job.Platform); err != nil {
			return reviewJobs, err
		}

		outcome, err := applier.Apply(ctx, *job, resumePath)
		if err != nil {
			// An adapter failure must not crash the cycle or strand the
			// job in the queue.
			r.logger.Warn("apply failed", "job_key", job.Key, "error", err)
			status := model.StatusReview
			easyApply := 0
			update := model.JobUpdate{Status: &status, EasyApply: &easyApply}
			if err := r.store.Update(job.Key, update); err != nil {
				return reviewJobs, fmt.Errorf("updating job status: %w", err)
			}
			stats.ReviewApply++
			job.Status = model.StatusReview
			reviewJobs = append(reviewJobs, *job)
			continue
		}

		status, easyApply := outcomeStatus(outcome)
		update := model.JobUpdate{Status: &status}
		if easyApply != nil {
			update.EasyApply = easyApply
		}
		if err := r.store.Update(job.Key, update); err != nil {
			return reviewJobs, fmt.Errorf("updating job status: %w", err)
		}

		switch status {
		case model.StatusApplied:
			stats.Applied++
		case model.StatusReview:
			stats.ReviewApply++
			job.Status = model.StatusReview
			reviewJobs = append(reviewJobs, *job)
		case model.StatusSkipped:
			stats.SkippedApply++
		default:
			stats.Deferred++
		}
		r.logger.Info("apply result", "status", status, "job_key", job.Key)
	}

	return reviewJobs, nil
}

// outcomeStatus maps an adapter result onto a job status. A nil outcome or
// an unrecognized status means "no usable result" and defers the job.
func outcomeStatus(outcome *model.ApplyOutcome) (model.Status, *int) {
	if outcome == nil {
		return model.StatusDeferred, nil
	}
	easyApply := outcome.EasyApply
	switch outcome.Status {
	case model.StatusApplied, model.StatusReview, model.StatusSkipped:
		return outcome.Status, &easyApply
	}
	return model.StatusDeferred, &easyApply
}
