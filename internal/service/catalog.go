// Package service orchestrates the sync core: grid loads through the
// coordinator and cache, optimistic user-data mutations, and
// suggestion fetches.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aribau/cartelera/internal/cache"
	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/filter"
	"github.com/aribau/cartelera/internal/request"
	"github.com/aribau/cartelera/internal/state"
)

// OpGridLoad is the coordinator key for main-grid searches. Every grid
// load shares it, so a new load always supersedes the previous one.
const OpGridLoad = "movie-grid-load"

// CatalogService drives the filter/search/paginate pipeline.
type CatalogService struct {
	state  *state.Store
	cache  *cache.Cache
	coord  *request.Coordinator
	remote domain.Catalog
	logger *slog.Logger
}

func NewCatalogService(st *state.Store, qc *cache.Cache, coord *request.Coordinator, remote domain.Catalog, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{state: st, cache: qc, coord: coord, remote: remote, logger: logger}
}

// LoadPage loads one result page for the current filters: fresh token,
// canonical key, cache lookup, remote search on miss. Results from a
// superseded token are never committed to the cache or the store.
func (s *CatalogService) LoadPage(ctx context.Context, page int) ([]domain.Movie, error) {
	s.state.SetPage(page)

	tok := s.coord.Begin(ctx, OpGridLoad)
	defer s.coord.Finish(tok)

	filters := s.state.Filters()
	pageSize := s.state.PageSize()
	key := cache.Canonicalize(filters.Fields(), page, pageSize)

	if entry, ok := s.cache.Get(key); ok {
		s.logger.Debug("query cache hit", "key", key, "token", tok.ID())
		s.state.SetTotal(entry.Total)
		return entry.Items, nil
	}

	result, err := s.remote.Search(tok.Context(), filters, page, pageSize)
	if err != nil {
		if errors.Is(err, domain.ErrAborted) {
			s.logger.Debug("search superseded", "token", tok.ID())
			return nil, domain.ErrAborted
		}
		s.logger.Error("search failed", "error", err, "token", tok.ID())
		return nil, err
	}

	// A late response for a superseded token must not populate the
	// cache or overwrite state produced by a newer request.
	if tok.Cancelled() {
		s.logger.Debug("discarding stale search result", "token", tok.ID())
		return nil, domain.ErrAborted
	}

	s.cache.Set(key, cache.Entry{Items: result.Items, Total: result.Total})
	s.state.SetTotal(result.Total)
	s.logger.Debug("search complete", "page", page, "items", len(result.Items), "total", result.Total)

	return result.Items, nil
}

// Reload re-runs the current page, typically after a filter change.
func (s *CatalogService) Reload(ctx context.Context) ([]domain.Movie, error) {
	return s.LoadPage(ctx, s.state.Page())
}

// SetFilter validates and applies a filter value. On success it rewinds
// to the first page and announces the change; on rejection it returns
// false so the caller can show a limit notice.
func (s *CatalogService) SetFilter(key filter.Key, value string) bool {
	if !s.state.SetFilter(key, value) {
		return false
	}
	s.state.SetPage(1)
	s.state.Publish(state.EventFiltersChanged, string(key))
	return true
}

// ToggleExclusion validates and applies an exclusion toggle.
func (s *CatalogService) ToggleExclusion(category filter.Category, value string) bool {
	if !s.state.ToggleExcludedFilter(category, value) {
		return false
	}
	s.state.SetPage(1)
	s.state.Publish(state.EventFiltersChanged, string(category))
	return true
}

// SetSearchTerm updates the free-text term; never limit-checked.
func (s *CatalogService) SetSearchTerm(term string) {
	s.state.SetSearchTerm(term)
	s.state.SetPage(1)
	s.state.Publish(state.EventFiltersChanged, "term")
}

// SetSort updates the combined "field,direction" sort control.
func (s *CatalogService) SetSort(sort string) {
	s.state.SetSort(sort)
	s.state.SetPage(1)
	s.state.Publish(state.EventFiltersChanged, "sort")
}

// SetMediaType updates the media-type presentation control.
func (s *CatalogService) SetMediaType(mt domain.MediaType) {
	s.state.SetMediaType(mt)
	s.state.SetPage(1)
	s.state.Publish(state.EventFiltersChanged, "media_type")
}

// ResetFilters restores the defaults and announces the reset.
func (s *CatalogService) ResetFilters() {
	s.state.ResetFilters()
	s.state.SetPage(1)
	s.state.Publish(state.EventFiltersReset, "")
}
