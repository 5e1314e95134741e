package platform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// storageState is the saved-browser-session format: a cookie dump captured
// once by hand after an interactive login, reused by the adapters on every
// request until it expires.
type storageState struct {
	Cookies []storedCookie `json:"cookies"`
}

type storedCookie struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Domain  string  `json:"domain"`
	Path    string  `json:"path"`
	Expires float64 `json:"expires"` // unix seconds, -1 for session cookies
	Secure  bool    `json:"secure"`
	HTTP    bool    `json:"httpOnly"`
}

// loadSessionCookies reads a session file and converts its cookies for use
// with an HTTP client. A missing file returns (nil, nil): adapters fall back
// to unauthenticated access where the platform allows it.
func loadSessionCookies(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", path, err)
	}

	var state storageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(state.Cookies))
	for _, c := range state.Cookies {
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(now) {
			continue // expired
		}
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTP,
		})
	}
	return cookies, nil
}
