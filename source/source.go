// Package source defines the platform adapter interface and its registry,
// plus the built-in adapters for hot-list APIs, YouTube trending, and HTML
// trending boards.
package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trendwatch/config"
	"trendwatch/model"
)

// Source pulls one platform's current ranked listing. Adapters normalize
// platform ids and strip source-specific noise before handing items to the
// pipeline.
type Source interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) ([]model.RawItem, error)
}

// Registry maps source ids to their adapters, preserving registration order
// so fetch cycles are deterministic.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds or replaces a source adapter.
func (r *Registry) Register(src Source) {
	if _, ok := r.sources[src.ID()]; !ok {
		r.order = append(r.order, src.ID())
	}
	r.sources[src.ID()] = src
}

// Resolve returns a source by id or an error if it is absent.
func (r *Registry) Resolve(id string) (Source, error) {
	if src, ok := r.sources[id]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %q is not registered", id)
}

// All returns every registered source in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	return out
}

// Build constructs the adapter described by cfg.
func Build(cfg config.SourceConfig, client *http.Client) (Source, error) {
	switch cfg.Kind {
	case "hotlist":
		return NewHotList(cfg.ID, cfg.Name, cfg.URL, client), nil
	case "youtube":
		return NewYouTube(cfg.ID, cfg.Name, cfg.Options["api_key"], cfg.Options["region"], client), nil
	case "htmlboard":
		return NewHTMLBoard(cfg.ID, cfg.Name, cfg.URL, cfg.Options["item_selector"], client), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

func defaultClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 10 * time.Second}
	}
	return client
}
