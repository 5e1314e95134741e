// Package notifier surfaces jobs that were routed to human review: an
// uncertain score, a failed apply, or an external application the pipeline
// cannot finish on its own.
package notifier

import (
	"log/slog"

	"github.com/cucia/job-sentinel/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes review escalations to the given logger as structured
// messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with platform, title, company, URL and score.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{"platform", j.Platform, "title", j.Title, "company", j.Company, "url", j.URL}
		if j.Score != nil {
			args = append(args, "score", *j.Score)
		}
		n.logger.Info("job needs review", args...)
	}
	return nil
}
