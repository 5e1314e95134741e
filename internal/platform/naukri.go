package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cucia/job-sentinel/internal/config"
	"github.com/cucia/job-sentinel/internal/model"
)

const naukriBaseURL = "https://www.naukri.com"

// Naukri job URLs carry the job id as the last dash-separated segment.
var naukriJobIDPattern = regexp.MustCompile(`-(\d+)(?:\?.*)?$`)

// naukriSearchResponse is the shape of the public search API response,
// reduced to the fields the collector uses.
type naukriSearchResponse struct {
	JobDetails []naukriJob `json:"jobDetails"`
}

type naukriJob struct {
	Title          string              `json:"title"`
	CompanyName    string              `json:"companyName"`
	JDURL          string              `json:"jdURL"`
	JobDescription string              `json:"jobDescription"`
	Placeholders   []naukriPlaceholder `json:"placeholders"`
}

type naukriPlaceholder struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

var (
	_ model.Collector = (*NaukriAdapter)(nil)
	_ model.Applier   = (*NaukriAdapter)(nil)
)

// NaukriAdapter collects postings via the public search API and submits
// one-click applications through the apply endpoint using a saved session.
type NaukriAdapter struct {
	search      config.SearchSettings
	sessionPath string
	baseURL     string
	client      *http.Client
	logger      *slog.Logger
}

// NewNaukriAdapter creates the Naukri adapter with its search settings and
// session file path.
func NewNaukriAdapter(search config.SearchSettings, sessionPath string, logger *slog.Logger) *NaukriAdapter {
	return &NaukriAdapter{
		search:      search,
		sessionPath: sessionPath,
		baseURL:     naukriBaseURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// Collect queries the search API for one batch of postings. The API serves
// descriptions inline, so Naukri jobs usually skip enrichment.
func (a *NaukriAdapter) Collect(ctx context.Context) ([]model.RawPosting, error) {
	if len(a.search.Keywords) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("noOfResults", fmt.Sprintf("%d", a.search.MaxResults))
	params.Set("urlType", "search_by_keyword")
	params.Set("searchType", "adv")
	params.Set("keyword", strings.Join(a.search.Keywords, " "))
	if a.search.Location != "" {
		params.Set("location", a.search.Location)
	}
	searchURL := a.baseURL + "/jobapi/v3/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("naukri collect: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naukri collect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("naukri collect: %w", &model.HTTPError{StatusCode: resp.StatusCode})
	}

	var parsed naukriSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("naukri collect: decoding response: %w", err)
	}

	postings := make([]model.RawPosting, 0, len(parsed.JobDetails))
	for _, j := range parsed.JobDetails {
		if j.Title == "" || j.JDURL == "" {
			continue
		}
		jobURL := j.JDURL
		if !strings.HasPrefix(jobURL, "http") {
			jobURL = a.baseURL + "/" + strings.TrimPrefix(jobURL, "/")
		}

		var location string
		for _, p := range j.Placeholders {
			if p.Type == "location" {
				location = p.Label
				break
			}
		}

		postings = append(postings, model.RawPosting{
			Platform:    "naukri",
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    location,
			Description: j.JobDescription,
			URL:         stripQuery(jobURL),
		})
		if len(postings) >= a.search.MaxResults {
			break
		}
	}

	a.logger.Info("naukri collected", "jobs", len(postings))
	return postings, nil
}

// Apply submits a one-click application through the apply endpoint. It needs
// a saved session; without one the attempt fails and the caller routes the
// job to review. A posting whose URL carries no job id yields no result.
func (a *NaukriAdapter) Apply(ctx context.Context, job model.Job, resumePath string) (*model.ApplyOutcome, error) {
	m := naukriJobIDPattern.FindStringSubmatch(job.URL)
	if m == nil {
		return nil, nil
	}
	jobID := m[1]

	cookies, err := loadSessionCookies(a.sessionPath)
	if err != nil {
		return nil, fmt.Errorf("naukri apply: %w", err)
	}
	if len(cookies) == 0 {
		return nil, &model.SessionError{Platform: "naukri", Path: a.sessionPath}
	}

	payload, err := json.Marshal(map[string]any{
		"jobs":                    []string{jobID},
		"applySrc":                "jobsearchDesk",
		"sid":                     "",
		"mandatoryFieldsResponse": map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("naukri apply: %w", err)
	}

	applyURL := a.baseURL + "/cloudgateway-jobseeker/jobapply-services/v1/apply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, applyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("naukri apply: %w", err)
	}
	a.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader(cookies))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naukri apply: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		a.logger.Info("naukri applied", "job_id", jobID)
		return &model.ApplyOutcome{Status: model.StatusApplied, EasyApply: 1}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Session expired: a human has to log in again, so park the job.
		a.logger.Warn("naukri session rejected", "status", resp.StatusCode)
		return &model.ApplyOutcome{Status: model.StatusReview, EasyApply: 0}, nil
	default:
		a.logger.Warn("naukri apply got unexpected status", "status", resp.StatusCode, "job_id", jobID)
		return nil, nil
	}
}

func (a *NaukriAdapter) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("appid", "109")
	req.Header.Set("systemid", "109")
}
