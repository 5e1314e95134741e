package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the root configuration for one orchestration cycle. It is
// loaded once, validated, and passed explicitly to every component that
// needs it; nothing reads ambient global state.
type Settings struct {
	Platforms    PlatformSettings
	Limits       LimitSettings
	Policy       PolicySettings
	App          AppSettings
	AI           AISettings
	Storage      StorageSettings
	Notification NotificationSettings
}

// PlatformSettings controls which platforms run and how their adapters search.
type PlatformSettings struct {
	Enabled  []string
	Sessions map[string]string // platform id -> session file path
	LinkedIn SearchSettings
	Indeed   SearchSettings
	Naukri   SearchSettings
}

// SearchSettings is one platform's collection query.
type SearchSettings struct {
	Keywords   []string
	Location   string
	MaxResults int
}

// LimitSettings holds the shared daily application quota.
type LimitSettings struct {
	DailyApplications int
}

// PolicySettings is the deterministic allow/block rule set. An absent list
// disables its rule.
type PolicySettings struct {
	BlockedKeywords []string
	AllowedRoles    []string
	RequiredSkills  []string
}

// AppSettings holds cycle behavior toggles.
type AppSettings struct {
	ApplyAll           bool // bypass the daily quota entirely
	UseAI              bool
	UsePolicy          bool
	EnrichBeforeAI     bool
	EntryLevelOnly     bool
	SeniorityBlocklist []string
	ResumePath         string
	RunInterval        time.Duration
}

// AISettings tunes the scoring gate.
type AISettings struct {
	MinScore          int
	UncertaintyMargin int
}

// StorageSettings locates the job record database.
type StorageSettings struct {
	DBPath string
}

// NotificationSettings controls which notifier is used for review escalations.
type NotificationSettings struct {
	Type       string // "log" or "slack"
	WebhookURL string // required if type is "slack"
}

// Profile is the read-only candidate profile consumed by the scoring gate.
type Profile struct {
	Skills   []string `yaml:"skills"`
	Keywords []string `yaml:"keywords"`
}

// defaultSeniorityBlocklist rejects postings whose text implies a seniority
// level above the target.
var defaultSeniorityBlocklist = []string{
	"senior", "lead", "manager", "principal", "director", "head", "staff", "architect",
}

// rawSettings is used for YAML unmarshaling (snake_case fields, interval in
// seconds).
type rawSettings struct {
	Platforms struct {
		Enabled  []string          `yaml:"enabled"`
		Sessions map[string]string `yaml:"sessions"`
		LinkedIn rawSearch         `yaml:"linkedin"`
		Indeed   rawSearch         `yaml:"indeed"`
		Naukri   rawSearch         `yaml:"naukri"`
	} `yaml:"platforms"`
	Limits struct {
		DailyApplications *int `yaml:"daily_applications"`
	} `yaml:"limits"`
	Policy struct {
		BlockedKeywords []string `yaml:"blocked_keywords"`
		AllowedRoles    []string `yaml:"allowed_roles"`
		RequiredSkills  []string `yaml:"required_skills"`
	} `yaml:"policy"`
	App struct {
		ApplyAll           bool     `yaml:"apply_all"`
		UseAI              bool     `yaml:"use_ai"`
		UsePolicy          bool     `yaml:"use_policy"`
		EnrichBeforeAI     *bool    `yaml:"enrich_before_ai"`
		EntryLevelOnly     *bool    `yaml:"entry_level_only"`
		SeniorityBlocklist []string `yaml:"seniority_blocklist"`
		ResumePath         string   `yaml:"resume_path"`
		RunIntervalSeconds int      `yaml:"run_interval_seconds"`
	} `yaml:"app"`
	AI struct {
		MinScore          *int `yaml:"min_score"`
		UncertaintyMargin *int `yaml:"uncertainty_margin"`
	} `yaml:"ai"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Notification struct {
		Type       string `yaml:"type"`
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"notification"`
}

type rawSearch struct {
	Keywords   []string `yaml:"keywords"`
	Location   string   `yaml:"location"`
	MaxResults int      `yaml:"max_results"`
}

func searchFromRaw(r rawSearch) SearchSettings {
	maxResults := r.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return SearchSettings{Keywords: r.Keywords, Location: r.Location, MaxResults: maxResults}
}

// LoadSettings reads and parses the settings YAML at path, applies defaults,
// validates it, and returns Settings.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawSettings
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	dailyLimit := 10
	if raw.Limits.DailyApplications != nil {
		dailyLimit = *raw.Limits.DailyApplications
	}

	minScore := 70
	if raw.AI.MinScore != nil {
		minScore = *raw.AI.MinScore
	}
	margin := 5
	if raw.AI.UncertaintyMargin != nil {
		margin = *raw.AI.UncertaintyMargin
	}

	enrich := true
	if raw.App.EnrichBeforeAI != nil {
		enrich = *raw.App.EnrichBeforeAI
	}
	entryOnly := true
	if raw.App.EntryLevelOnly != nil {
		entryOnly = *raw.App.EntryLevelOnly
	}

	blocklist := raw.App.SeniorityBlocklist
	if len(blocklist) == 0 {
		blocklist = defaultSeniorityBlocklist
	}

	intervalSecs := raw.App.RunIntervalSeconds
	if intervalSecs <= 0 {
		intervalSecs = 300
	}

	resumePath := raw.App.ResumePath
	if resumePath == "" {
		resumePath = "resumes/resume.pdf"
	}

	dbPath := raw.Storage.DBPath
	if dbPath == "" {
		dbPath = "data/jobsentinel.db"
	}

	cfg := &Settings{
		Platforms: PlatformSettings{
			Enabled:  raw.Platforms.Enabled,
			Sessions: raw.Platforms.Sessions,
			LinkedIn: searchFromRaw(raw.Platforms.LinkedIn),
			Indeed:   searchFromRaw(raw.Platforms.Indeed),
			Naukri:   searchFromRaw(raw.Platforms.Naukri),
		},
		Limits: LimitSettings{DailyApplications: dailyLimit},
		Policy: PolicySettings{
			BlockedKeywords: raw.Policy.BlockedKeywords,
			AllowedRoles:    raw.Policy.AllowedRoles,
			RequiredSkills:  raw.Policy.RequiredSkills,
		},
		App: AppSettings{
			ApplyAll:           raw.App.ApplyAll,
			UseAI:              raw.App.UseAI,
			UsePolicy:          raw.App.UsePolicy,
			EnrichBeforeAI:     enrich,
			EntryLevelOnly:     entryOnly,
			SeniorityBlocklist: blocklist,
			ResumePath:         resumePath,
			RunInterval:        time.Duration(intervalSecs) * time.Second,
		},
		AI:           AISettings{MinScore: minScore, UncertaintyMargin: margin},
		Storage:      StorageSettings{DBPath: dbPath},
		Notification: NotificationSettings{Type: raw.Notification.Type, WebhookURL: raw.Notification.WebhookURL},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadProfile reads and parses the profile YAML at path. A missing file
// yields an empty profile: the scoring gate then scores on the baseline only.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// SessionPath returns the session file for a platform, falling back to the
// conventional sessions/<platform>.json location.
func (p PlatformSettings) SessionPath(platform string) string {
	if path, ok := p.Sessions[platform]; ok && path != "" {
		return path
	}
	return "sessions/" + platform + ".json"
}

func validate(cfg *Settings) error {
	if len(cfg.Platforms.Enabled) == 0 {
		return fmt.Errorf("at least one platform must be enabled")
	}
	for _, p := range cfg.Platforms.Enabled {
		switch p {
		case "linkedin", "indeed", "naukri":
		default:
			return fmt.Errorf("unknown platform %q in platforms.enabled", p)
		}
	}

	if cfg.Limits.DailyApplications < 0 {
		return fmt.Errorf("limits.daily_applications must not be negative, got %d", cfg.Limits.DailyApplications)
	}

	if cfg.AI.UncertaintyMargin < 0 {
		return fmt.Errorf("ai.uncertainty_margin must not be negative, got %d", cfg.AI.UncertaintyMargin)
	}

	if cfg.Notification.Type == "slack" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
	}

	return nil
}
