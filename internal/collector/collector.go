package collector

import (
	"context"
	"fmt"

	"BlogPipeline/internal/config"
)

// Request carries all parameters required to execute one collection run.
// Limit caps the number of new articles; zero or negative means no cap.
type Request struct {
	Source config.SourceConfig
	Limit  int
}

// Collector captures a single scraping strategy. A collector consults the
// dedup store before network I/O and persists every article it accepts,
// returning the number of new raw articles written.
type Collector interface {
	Name() string
	Collect(ctx context.Context, req Request) (int, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	collectors map[string]Collector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: map[string]Collector{}}
}

// Register adds or replaces a collector implementation.
func (r *Registry) Register(c Collector) {
	if r.collectors == nil {
		r.collectors = map[string]Collector{}
	}
	r.collectors[c.Name()] = c
}

// Resolve returns a collector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Collector, error) {
	if c, ok := r.collectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("collector %s is not registered", name)
}
