// Package decision holds the three filter gates a freshly enqueued job runs
// through: the entry-level blocklist, the policy gate, and the heuristic
// scoring gate. All three are pure functions of their inputs; persistence of
// the verdict is the pipeline's job.
package decision

import (
	"strings"

	"github.com/cucia/job-sentinel/internal/config"
	"github.com/cucia/job-sentinel/internal/model"
)

const baseScore = 50

// IsEntryLevel reports whether a posting's text is free of every term in the
// seniority blocklist. Matching is a case-insensitive substring check over
// title and description, no tokenization.
func IsEntryLevel(job model.Job, blocklist []string) bool {
	text := strings.ToLower(job.Title + " " + job.Description)
	for _, term := range blocklist {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// PolicyAllows is the deterministic policy gate. Blocked keywords veto first;
// then allowed_roles requires a match in title or description, and
// required_skills a match in the description. An empty list disables its rule.
func PolicyAllows(job model.Job, policy config.PolicySettings) bool {
	title := strings.ToLower(job.Title)
	description := strings.ToLower(job.Description)

	for _, kw := range policy.BlockedKeywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		if strings.Contains(title, k) || strings.Contains(description, k) {
			return false
		}
	}

	if len(policy.AllowedRoles) > 0 {
		matched := false
		for _, role := range policy.AllowedRoles {
			r := strings.ToLower(role)
			if strings.Contains(title, r) || strings.Contains(description, r) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(policy.RequiredSkills) > 0 {
		matched := false
		for _, skill := range policy.RequiredSkills {
			if strings.Contains(description, strings.ToLower(skill)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Verdict is the scoring gate's outcome. Confused is evaluated independently
// of Apply and takes precedence: a confused job goes to human review no
// matter what the raw score would have decided.
type Verdict struct {
	Apply    bool
	Confused bool
	Score    int
}

// Evaluate scores a job against the profile: 50 baseline, +10 per distinct
// profile skill found in the description, +10 per distinct profile keyword
// found in the title. Case-insensitive substring matches; a term listed twice
// in the profile still counts once.
func Evaluate(job model.Job, profile config.Profile, minScore, uncertaintyMargin int) Verdict {
	score := baseScore
	score += 10 * countDistinctMatches(job.Description, profile.Skills)
	score += 10 * countDistinctMatches(job.Title, profile.Keywords)

	diff := score - minScore
	if diff < 0 {
		diff = -diff
	}

	return Verdict{
		Apply:    score >= minScore,
		Confused: diff <= uncertaintyMargin,
		Score:    score,
	}
}

func countDistinctMatches(text string, terms []string) int {
	if text == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if _, done := matched[t]; done {
			continue
		}
		if strings.Contains(lower, t) {
			matched[t] = struct{}{}
		}
	}
	return len(matched)
}
