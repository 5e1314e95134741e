// Package platform holds the adapters for the external job sites and the
// registry the pipeline uses to look up each platform's capabilities. A
// platform implements whichever subset of Collector, Enricher and Applier it
// supports; adding a platform means registering a new adapter, not editing
// the pipeline.
package platform

import (
	"log/slog"
	"time"

	"github.com/cucia/job-sentinel/internal/config"
	"github.com/cucia/job-sentinel/internal/model"
	"github.com/cucia/job-sentinel/internal/retry"
)

// Collection retry policy shared by every default adapter.
const (
	collectMaxRetries = 2
	collectBaseDelay  = 2 * time.Second
)

// Registry maps platform ids to the capabilities their adapters implement.
type Registry struct {
	collectors map[string]model.Collector
	enrichers  map[string]model.Enricher
	appliers   map[string]model.Applier
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]model.Collector),
		enrichers:  make(map[string]model.Enricher),
		appliers:   make(map[string]model.Applier),
	}
}

// RegisterCollector adds a collection capability for a platform.
func (r *Registry) RegisterCollector(id string, c model.Collector) {
	r.collectors[id] = c
}

// RegisterEnricher adds an enrichment capability for a platform.
func (r *Registry) RegisterEnricher(id string, e model.Enricher) {
	r.enrichers[id] = e
}

// RegisterApplier adds an apply capability for a platform.
func (r *Registry) RegisterApplier(id string, a model.Applier) {
	r.appliers[id] = a
}

// Collector returns the collection capability for a platform, if registered.
func (r *Registry) Collector(id string) (model.Collector, bool) {
	c, ok := r.collectors[id]
	return c, ok
}

// Enricher returns the enrichment capability for a platform, if registered.
func (r *Registry) Enricher(id string) (model.Enricher, bool) {
	e, ok := r.enrichers[id]
	return e, ok
}

// Applier returns the apply capability for a platform, if registered.
func (r *Registry) Applier(id string) (model.Applier, bool) {
	a, ok := r.appliers[id]
	return a, ok
}

// Default builds the registry for the enabled platforms, wiring each
// adapter with its search settings and session file. Collectors are wrapped
// with retry handling; enrichment and apply are single-shot by design.
func Default(settings *config.Settings, logger *slog.Logger) *Registry {
	reg := NewRegistry()
	for _, id := range settings.Platforms.Enabled {
		sessionPath := settings.Platforms.SessionPath(id)
		switch id {
		case "linkedin":
			li := NewLinkedInAdapter(settings.Platforms.LinkedIn, sessionPath, logger)
			reg.RegisterCollector(id, retry.NewCollector(li, collectMaxRetries, collectBaseDelay, logger))
			reg.RegisterEnricher(id, li)
		case "indeed":
			in := NewIndeedAdapter(settings.Platforms.Indeed, sessionPath, logger)
			reg.RegisterCollector(id, retry.NewCollector(in, collectMaxRetries, collectBaseDelay, logger))
			reg.RegisterApplier(id, in)
		case "naukri":
			nk := NewNaukriAdapter(settings.Platforms.Naukri, sessionPath, logger)
			reg.RegisterCollector(id, retry.NewCollector(nk, collectMaxRetries, collectBaseDelay, logger))
			reg.RegisterApplier(id, nk)
		default:
			logger.Warn("unsupported platform, skipping", "platform", id)
		}
	}
	return reg
}
