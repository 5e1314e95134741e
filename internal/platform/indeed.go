package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/cucia/job-sentinel/internal/config"
	"github.com/cucia/job-sentinel/internal/model"
)

const indeedBaseURL = "https://www.indeed.com"

var (
	_ model.Collector = (*IndeedAdapter)(nil)
	_ model.Applier   = (*IndeedAdapter)(nil)
)

// IndeedAdapter collects postings from the search results page and applies
// where it can. What it cannot finish on its own, it routes to review: the
// Indeed apply flow is a multi-step modal, so the adapter's job is to
// classify the posting, not to fake a submission.
type IndeedAdapter struct {
	search      config.SearchSettings
	sessionPath string
	baseURL     string
	logger      *slog.Logger
}

// NewIndeedAdapter creates the Indeed adapter with its search settings and
// session file path.
func NewIndeedAdapter(search config.SearchSettings, sessionPath string, logger *slog.Logger) *IndeedAdapter {
	return &IndeedAdapter{
		search:      search,
		sessionPath: sessionPath,
		baseURL:     indeedBaseURL,
		logger:      logger,
	}
}

// Collect scrapes one page of search results.
func (a *IndeedAdapter) Collect(ctx context.Context) ([]model.RawPosting, error) {
	if len(a.search.Keywords) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", strings.Join(a.search.Keywords, " "))
	if a.search.Location != "" {
		params.Set("l", a.search.Location)
	}
	searchURL := a.baseURL + "/jobs?" + params.Encode()

	c := newScraper()
	withSession(c, a.baseURL, a.sessionPath, "indeed", a.logger)

	var postings []model.RawPosting
	c.OnHTML("div.job_seen_beacon", func(e *colly.HTMLElement) {
		if len(postings) >= a.search.MaxResults {
			return
		}
		title := strings.TrimSpace(e.ChildText("h2.jobTitle"))
		link := e.ChildAttr("h2.jobTitle a", "href")
		if title == "" || link == "" {
			return
		}

		postings = append(postings, model.RawPosting{
			Platform:    "indeed",
			Title:       title,
			Company:     strings.TrimSpace(e.ChildText(`[data-testid="company-name"]`)),
			Location:    strings.TrimSpace(e.ChildText(`[data-testid="text-location"]`)),
			Description: strings.TrimSpace(e.ChildText("div.job-snippet")),
			URL:         stripQuery(e.Request.AbsoluteURL(link)),
		})
	})

	var reqErr error
	captureError(c, &reqErr)
	if err := c.Visit(searchURL); err != nil && reqErr == nil {
		reqErr = err
	}
	if reqErr != nil {
		return nil, fmt.Errorf("indeed collect: %w", reqErr)
	}

	a.logger.Info("indeed collected", "jobs", len(postings))
	return postings, nil
}

// Apply fetches the posting and classifies it:
//   - easy-apply postings go to review with easy_apply=1 so a human can
//     finish the modal flow in an authenticated browser,
//   - postings that only link out to an external site are skipped,
//   - postings with no apply control at all go to review.
//
// A posting without a URL yields no result and is deferred by the caller.
func (a *IndeedAdapter) Apply(ctx context.Context, job model.Job, resumePath string) (*model.ApplyOutcome, error) {
	if strings.TrimSpace(job.URL) == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := newScraper()
	withSession(c, a.baseURL, a.sessionPath, "indeed", a.logger)

	var (
		easyApply    bool
		externalOnly bool
	)
	c.OnHTML("html", func(e *colly.HTMLElement) {
		if e.DOM.Find("#indeedApplyButton, .indeed-apply-button, [data-indeed-apply-jobid]").Length() > 0 {
			easyApply = true
			return
		}
		if e.DOM.Find(`[data-testid="applyButton-external"], a[href*="/applystart"]`).Length() > 0 {
			externalOnly = true
		}
	})

	var reqErr error
	captureError(c, &reqErr)
	if err := c.Visit(job.URL); err != nil && reqErr == nil {
		reqErr = err
	}
	if reqErr != nil {
		return nil, fmt.Errorf("indeed apply: %w", reqErr)
	}

	switch {
	case easyApply:
		return &model.ApplyOutcome{Status: model.StatusReview, EasyApply: 1}, nil
	case externalOnly:
		return &model.ApplyOutcome{Status: model.StatusSkipped, EasyApply: 0}, nil
	default:
		return &model.ApplyOutcome{Status: model.StatusReview, EasyApply: 0}, nil
	}
}
