package model

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle state of a job record.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusSkipped  Status = "skipped"
	StatusReview   Status = "review"
	StatusRejected Status = "rejected"
	StatusApplied  Status = "applied"
	StatusDeferred Status = "deferred"
)

// Decision reason tags, recorded alongside the score when a filter stage
// settles a job's fate.
const (
	DecisionSeniorityReject = "seniority_reject"
	DecisionPolicyReject    = "policy_reject"
	DecisionAI              = "ai_decision"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusQueued, StatusSkipped, StatusReview, StatusRejected, StatusApplied, StatusDeferred:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTerminal reports whether a status ends processing for the current cycle.
// Only queued jobs are eligible for further work.
func IsTerminal(s Status) bool { return s != StatusQueued }

// Job is one discovered posting, uniquely identified by a content-derived key.
// Optional fields are pointers: nil means "never set", matching the nullable
// columns in the store.
type Job struct {
	Key         string // content-derived, computed by the pipeline
	Platform    string
	Title       string
	Company     string
	Location    string
	Description string // may be empty until enrichment
	URL         string
	Status      Status
	EasyApply   *int    // set only from an apply outcome
	Score       *int    // meaningful only for ai_decision
	Decision    *string // last decision reason tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AppliedAt   *time.Time // set iff Status == applied
}

// RawPosting is what a collector produces: adapter-supplied free text with
// no identity and no state. Missing fields are empty strings, never absent.
type RawPosting struct {
	Platform    string
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
}

// Enrichment carries best-effort fill-in fields for a job that was collected
// without a description. Empty fields are ignored by the caller.
type Enrichment struct {
	Description string
	Company     string
	Location    string
}

// ApplyOutcome is the explicit result of an apply attempt. A nil *ApplyOutcome
// from an Applier means "no result" and maps to deferred.
type ApplyOutcome struct {
	Status    Status // applied, review, or skipped; anything else maps to deferred
	EasyApply int
}

// Collector produces a finite batch of raw postings per call. Search
// parameters and session material are injected at construction.
type Collector interface {
	Collect(ctx context.Context) ([]RawPosting, error)
}

// Enricher fills in missing fields for a collected job. It is best-effort:
// an error leaves the job with whatever fields it already has.
type Enricher interface {
	Enrich(ctx context.Context, job Job) (Enrichment, error)
}

// Applier attempts to apply to a job with the given resume. A nil outcome
// with a nil error means the adapter produced no usable result.
type Applier interface {
	Apply(ctx context.Context, job Job, resumePath string) (*ApplyOutcome, error)
}

// JobUpdate is a partial update of a job row. Nil fields are left untouched.
// The store stamps updated_at on every update and applied_at when Status
// transitions to applied; callers never supply timestamps.
type JobUpdate struct {
	Status      *Status
	Description *string
	Company     *string
	Location    *string
	EasyApply   *int
}

// ListFilter selects jobs for read-only projections. Empty slices match all;
// Limit <= 0 means no limit.
type ListFilter struct {
	Statuses  []Status
	Platforms []string
	Limit     int
}

// JobStore is the single source of truth for job state. Implementations must
// treat updates of missing keys as harmless no-ops; only availability
// problems surface as errors.
type JobStore interface {
	HasSeen(key string) (bool, error)
	Enqueue(job Job) error
	NextQueued() (*Job, error)
	Update(key string, fields JobUpdate) error
	RecordDecision(key string, reason string, score int) error
	DailyApplyCount(day time.Time) (int, error)
	List(filter ListFilter) ([]Job, error)
}

// Notifier surfaces jobs that need human attention.
type Notifier interface {
	Notify(jobs []Job) error
}
