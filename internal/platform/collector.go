package platform

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/cucia/job-sentinel/internal/model"
)

// The sites the adapters talk to reject obvious bot user agents.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newScraper builds a colly collector with the shared request defaults.
func newScraper() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(30 * time.Second)
	return c
}

// withSession attaches saved session cookies to a collector, if a session
// file exists. Missing or broken sessions are logged and skipped: most
// collection paths work unauthenticated, just with weaker results.
func withSession(c *colly.Collector, baseURL, sessionPath, platform string, logger *slog.Logger) bool {
	cookies, err := loadSessionCookies(sessionPath)
	if err != nil {
		logger.Warn("session file unusable", "platform", platform, "path", sessionPath, "error", err)
		return false
	}
	if len(cookies) == 0 {
		return false
	}
	if err := c.SetCookies(baseURL, cookies); err != nil {
		logger.Warn("setting session cookies failed", "platform", platform, "error", err)
		return false
	}
	return true
}

// captureError wires an OnError handler that records request failures,
// wrapping HTTP statuses so retry logic can classify them.
func captureError(c *colly.Collector, out *error) {
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			var retryAfter time.Duration
			if r.Headers != nil {
				if secs := r.Headers.Get("Retry-After"); secs != "" {
					if d, perr := time.ParseDuration(secs + "s"); perr == nil {
						retryAfter = d
					}
				}
			}
			*out = &model.HTTPError{StatusCode: r.StatusCode, RetryAfter: retryAfter, Err: err}
			return
		}
		*out = err
	})
}

// stripQuery removes the query string from a posting URL so tracking
// parameters do not defeat URL-based dedup.
func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
