package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing settings file: %v", err)
	}
	return path
}

const minimalSettings = `
platforms:
  enabled: [linkedin]
`

func TestLoadSettingsDefaults(t *testing.T) {
	cfg, err := LoadSettings(writeSettings(t, minimalSettings))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if cfg.Limits.DailyApplications != 10 {
		t.Errorf("daily_applications = %d, want default 10", cfg.Limits.DailyApplications)
	}
	if cfg.AI.MinScore != 70 || cfg.AI.UncertaintyMargin != 5 {
		t.Errorf("ai defaults = (%d, %d), want (70, 5)", cfg.AI.MinScore, cfg.AI.UncertaintyMargin)
	}
	if cfg.App.RunInterval != 300*time.Second {
		t.Errorf("run interval = %v, want 300s", cfg.App.RunInterval)
	}
	if !cfg.App.EntryLevelOnly || !cfg.App.EnrichBeforeAI {
		t.Error("entry_level_only and enrich_before_ai should default to true")
	}
	if len(cfg.App.SeniorityBlocklist) != 8 {
		t.Errorf("seniority blocklist has %d terms, want 8 defaults", len(cfg.App.SeniorityBlocklist))
	}
	if cfg.Storage.DBPath != "data/jobsentinel.db" {
		t.Errorf("db_path = %q, want default", cfg.Storage.DBPath)
	}
	if cfg.Platforms.LinkedIn.MaxResults != 10 {
		t.Errorf("linkedin max_results = %d, want default 10", cfg.Platforms.LinkedIn.MaxResults)
	}
}

func TestLoadSettingsExplicitValues(t *testing.T) {
	cfg, err := LoadSettings(writeSettings(t, `
platforms:
  enabled: [linkedin, naukri]
  sessions:
    linkedin: /tmp/li.json
  linkedin:
    keywords: [golang, backend]
    location: Remote
    max_results: 25
limits:
  daily_applications: 3
policy:
  blocked_keywords: [clearance]
  allowed_roles: [engineer]
app:
  apply_all: true
  use_ai: true
  use_policy: true
  entry_level_only: false
  run_interval_seconds: 60
ai:
  min_score: 80
  uncertainty_margin: 0
storage:
  db_path: /tmp/test.db
`))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if cfg.Limits.DailyApplications != 3 {
		t.Errorf("daily_applications = %d, want 3", cfg.Limits.DailyApplications)
	}
	if cfg.AI.MinScore != 80 || cfg.AI.UncertaintyMargin != 0 {
		t.Errorf("ai = (%d, %d), want (80, 0)", cfg.AI.MinScore, cfg.AI.UncertaintyMargin)
	}
	if cfg.App.EntryLevelOnly {
		t.Error("entry_level_only should be false when set explicitly")
	}
	if cfg.App.RunInterval != time.Minute {
		t.Errorf("run interval = %v, want 1m", cfg.App.RunInterval)
	}
	if got := cfg.Platforms.SessionPath("linkedin"); got != "/tmp/li.json" {
		t.Errorf("SessionPath(linkedin) = %q, want /tmp/li.json", got)
	}
	if got := cfg.Platforms.SessionPath("naukri"); got != "sessions/naukri.json" {
		t.Errorf("SessionPath(naukri) = %q, want conventional fallback", got)
	}
	if len(cfg.Platforms.LinkedIn.Keywords) != 2 || cfg.Platforms.LinkedIn.MaxResults != 25 {
		t.Errorf("linkedin search = %+v, want keywords and max_results honored", cfg.Platforms.LinkedIn)
	}
}

func TestLoadSettingsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no platforms enabled",
			content: "app:\n  use_ai: true\n",
			wantErr: "at least one platform",
		},
		{
			name:    "unknown platform",
			content: "platforms:\n  enabled: [monster]\n",
			wantErr: "unknown platform",
		},
		{
			name:    "negative daily limit",
			content: "platforms:\n  enabled: [linkedin]\nlimits:\n  daily_applications: -1\n",
			wantErr: "daily_applications",
		},
		{
			name:    "slack without webhook",
			content: "platforms:\n  enabled: [linkedin]\nnotification:\n  type: slack\n",
			wantErr: "webhook_url",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProfileMissingFileIsEmpty(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if len(p.Skills) != 0 || len(p.Keywords) != 0 {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("skills: [python, go]\nkeywords: [junior]\n"), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if len(p.Skills) != 2 || len(p.Keywords) != 1 {
		t.Errorf("profile = %+v, want 2 skills and 1 keyword", p)
	}
}
