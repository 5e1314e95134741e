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

const linkedinBaseURL = "https://www.linkedin.com"

// Selectors for the job detail page, most specific first. LinkedIn serves
// several layouts depending on authentication state.
var linkedinDescriptionSelectors = []string{
	"div.show-more-less-html__markup",
	"div.jobs-description__content",
	"div.jobs-description-content__text",
	"div.jobs-box__html-content",
	"section#job-details",
}

var (
	_ model.Collector = (*LinkedInAdapter)(nil)
	_ model.Enricher  = (*LinkedInAdapter)(nil)
)

// LinkedInAdapter collects postings from the public jobs search and enriches
// them with descriptions from the job detail page. Collection works without
// a session; a saved session improves the results it gets served.
type LinkedInAdapter struct {
	search      config.SearchSettings
	sessionPath string
	baseURL     string
	logger      *slog.Logger
}

// NewLinkedInAdapter creates the LinkedIn adapter with its search settings
// and session file path.
func NewLinkedInAdapter(search config.SearchSettings, sessionPath string, logger *slog.Logger) *LinkedInAdapter {
	return &LinkedInAdapter{
		search:      search,
		sessionPath: sessionPath,
		baseURL:     linkedinBaseURL,
		logger:      logger,
	}
}

// Collect scrapes one page of job search results. Returns an empty batch when
// no keywords are configured.
func (a *LinkedInAdapter) Collect(ctx context.Context) ([]model.RawPosting, error) {
	if len(a.search.Keywords) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("keywords", strings.Join(a.search.Keywords, " "))
	if a.search.Location != "" {
		params.Set("location", a.search.Location)
	}
	searchURL := a.baseURL + "/jobs/search/?" + params.Encode()

	c := newScraper()
	withSession(c, a.baseURL, a.sessionPath, "linkedin", a.logger)

	var postings []model.RawPosting
	seen := make(map[string]struct{})
	c.OnHTML("ul.jobs-search__results-list li, div.base-card", func(e *colly.HTMLElement) {
		if len(postings) >= a.search.MaxResults {
			return
		}
		link := e.ChildAttr("a.base-card__full-link", "href")
		title := strings.TrimSpace(e.ChildText("h3.base-search-card__title"))
		if title == "" || link == "" {
			return
		}
		link = stripQuery(e.Request.AbsoluteURL(link))
		// The two selectors can both match the same card.
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}

		postings = append(postings, model.RawPosting{
			Platform:    "linkedin",
			Title:       title,
			Company:     strings.TrimSpace(e.ChildText("h4.base-search-card__subtitle")),
			Location:    strings.TrimSpace(e.ChildText("span.job-search-card__location")),
			Description: "",
			URL:         link,
		})
	})

	var reqErr error
	captureError(c, &reqErr)
	if err := c.Visit(searchURL); err != nil && reqErr == nil {
		reqErr = err
	}
	if reqErr != nil {
		return nil, fmt.Errorf("linkedin collect: %w", reqErr)
	}

	a.logger.Info("linkedin collected", "jobs", len(postings))
	return postings, nil
}

// Enrich fetches the job detail page and pulls the first non-empty
// description it can find. Company and location are filled in only when the
// collected posting lacked them.
func (a *LinkedInAdapter) Enrich(ctx context.Context, job model.Job) (model.Enrichment, error) {
	if strings.TrimSpace(job.URL) == "" {
		return model.Enrichment{}, nil
	}
	if err := ctx.Err(); err != nil {
		return model.Enrichment{}, err
	}

	c := newScraper()
	withSession(c, a.baseURL, a.sessionPath, "linkedin", a.logger)

	var enr model.Enrichment
	c.OnHTML("html", func(e *colly.HTMLElement) {
		for _, sel := range linkedinDescriptionSelectors {
			if text := strings.TrimSpace(e.DOM.Find(sel).First().Text()); text != "" {
				enr.Description = text
				break
			}
		}
		if enr.Company == "" {
			enr.Company = strings.TrimSpace(e.DOM.Find("a.topcard__org-name-link").First().Text())
		}
		if enr.Location == "" {
			enr.Location = strings.TrimSpace(e.DOM.Find("span.topcard__flavor--bullet").First().Text())
		}
	})

	var reqErr error
	captureError(c, &reqErr)
	if err := c.Visit(job.URL); err != nil && reqErr == nil {
		reqErr = err
	}
	if reqErr != nil {
		return model.Enrichment{}, fmt.Errorf("linkedin enrich: %w", reqErr)
	}

	a.logger.Debug("linkedin enriched", "url", job.URL, "description_len", len(enr.Description))
	return enr, nil
}
