// Package fetcher routes page requests to per-provider implementations.
package fetcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/jobsparser/jobsparser/internal/scraper"
)

// Registry dispatches FetchPage calls to the provider registered for the
// request's site. It implements scraper.Fetcher so the orchestration layer
// stays provider-agnostic.
type Registry struct {
	providers map[scraper.Site]scraper.Fetcher
}

// NewRegistry builds a Registry from a site-to-fetcher mapping.
func NewRegistry(providers map[scraper.Site]scraper.Fetcher) *Registry {
	m := make(map[scraper.Site]scraper.Fetcher, len(providers))
	for site, f := range providers {
		if f != nil {
			m[site] = f
		}
	}
	return &Registry{providers: m}
}

// Supports reports whether a provider is registered for the site.
func (r *Registry) Supports(site scraper.Site) bool {
	_, ok := r.providers[site]
	return ok
}

// Sites lists the registered sites in stable order.
func (r *Registry) Sites() []scraper.Site {
	sites := make([]scraper.Site, 0, len(r.providers))
	for site := range r.providers {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })
	return sites
}

// FetchPage forwards the request to the provider registered for req.Site.
func (r *Registry) FetchPage(ctx context.Context, req scraper.FetchRequest) ([]scraper.JobRecord, error) {
	provider, ok := r.providers[req.Site]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for site %q", req.Site)
	}
	return provider.FetchPage(ctx, req)
}
