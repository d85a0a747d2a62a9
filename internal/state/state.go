// Package state holds the single source of truth for the browsing
// session: pagination, active filters, last-known total, and the
// per-item user-data map. Every read returns a defensive copy; every
// write goes through a validated setter.
package state

import (
	"log/slog"
	"sync"

	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/filter"
)

// Event names on the store's observer bus.
type Event string

const (
	// EventUserDataChanged carries the affected item id. Fired by the
	// store itself after every user-data mutation.
	EventUserDataChanged Event = "user-data-changed"

	// EventFiltersChanged and EventFiltersReset are fired by callers
	// after bulk filter updates, not by the store.
	EventFiltersChanged Event = "filters-changed"
	EventFiltersReset   Event = "filters-reset"
)

// Snapshot is a copy of the store's browsing state.
type Snapshot struct {
	Filters  domain.ActiveFilters
	Page     int
	PageSize int
	Total    int
}

// Store is the process-wide state container. It is owned by the
// composition root and passed to consumers; no other component keeps a
// second copy of filter or user-data state across calls.
type Store struct {
	mu     sync.RWMutex
	logger *slog.Logger
	engine *filter.Engine

	defaults domain.ActiveFilters
	filters  domain.ActiveFilters
	page     int
	pageSize int
	total    int
	userData map[string]domain.UserMovieEntry

	subMu sync.RWMutex
	subs  map[Event][]func(payload string)
}

// New creates a store seeded with the default filters.
func New(engine *filter.Engine, defaults domain.ActiveFilters, pageSize int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		engine:   engine,
		defaults: defaults.Clone(),
		filters:  defaults.Clone(),
		page:     1,
		pageSize: pageSize,
		userData: make(map[string]domain.UserMovieEntry),
		subs:     make(map[Event][]func(string)),
	}
}

// === Read accessors (copy-on-read) ===

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Filters: s.filters.Clone(), Page: s.page, PageSize: s.pageSize, Total: s.total}
}

func (s *Store) Filters() domain.ActiveFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

func (s *Store) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *Store) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSize
}

func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// UserEntry returns the entry for an item, or the zero entry when the
// item has no user state yet.
func (s *Store) UserEntry(itemID string) (domain.UserMovieEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.userData[itemID]
	return e.Clone(), ok
}

func (s *Store) UserData() map[string]domain.UserMovieEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.UserMovieEntry, len(s.userData))
	for id, e := range s.userData {
		out[id] = e.Clone()
	}
	return out
}

// ActiveFilterCount exposes the constraint engine's count for the
// current filter set.
func (s *Store) ActiveFilterCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.filters
	return s.engine.CountActive(&f)
}

// === Setters ===

func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
}

func (s *Store) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	s.mu.Lock()
	s.total = total
	s.mu.Unlock()
}

// SetFilter delegates to the constraint engine and propagates its
// verdict so callers can surface a "limit reached" notice.
func (s *Store) SetFilter(key filter.Key, value string) bool {
	s.mu.Lock()
	ok := s.engine.TrySet(&s.filters, key, value)
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("filter mutation rejected", "key", string(key), "value", value)
	}
	return ok
}

// ToggleExcludedFilter delegates exclusion toggles to the engine.
func (s *Store) ToggleExcludedFilter(category filter.Category, value string) bool {
	s.mu.Lock()
	ok := s.engine.TryToggleExclusion(&s.filters, category, value)
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("exclusion toggle rejected", "category", string(category), "value", value)
	}
	return ok
}

// SetSearchTerm never counts against the filter limit.
func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	s.filters.Term = term
	s.mu.Unlock()
}

func (s *Store) SetSort(sort string) {
	s.mu.Lock()
	s.filters.Sort = sort
	s.mu.Unlock()
}

func (s *Store) SetMediaType(mt domain.MediaType) {
	s.mu.Lock()
	s.filters.MediaType = mt
	s.mu.Unlock()
}

// ResetFilters restores the filter sub-tree to its defaults without
// touching pagination or user data.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	s.filters = s.defaults.Clone()
	s.mu.Unlock()
}

// === User data ===

// SetUserEntry stores an entry and notifies subscribers with the item id.
func (s *Store) SetUserEntry(itemID string, entry domain.UserMovieEntry) {
	s.mu.Lock()
	s.userData[itemID] = entry.Clone()
	s.mu.Unlock()
	s.Publish(EventUserDataChanged, itemID)
}

// MergeUserData applies a partial map on top of the existing one,
// notifying per affected item.
func (s *Store) MergeUserData(entries map[string]domain.UserMovieEntry) {
	s.mu.Lock()
	ids := make([]string, 0, len(entries))
	for id, e := range entries {
		s.userData[id] = e.Clone()
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Publish(EventUserDataChanged, id)
	}
}

// ReplaceUserData swaps the whole map, as on login.
func (s *Store) ReplaceUserData(entries map[string]domain.UserMovieEntry) {
	fresh := make(map[string]domain.UserMovieEntry, len(entries))
	for id, e := range entries {
		fresh[id] = e.Clone()
	}
	s.mu.Lock()
	s.userData = fresh
	s.mu.Unlock()
	s.logger.Info("replaced user data", "entries", len(fresh))
}

// ClearUserData wipes the map, as on logout.
func (s *Store) ClearUserData() {
	s.mu.Lock()
	s.userData = make(map[string]domain.UserMovieEntry)
	s.mu.Unlock()
}

// === Observer bus ===

// Subscribe registers a callback for an event. Callbacks run
// synchronously on the mutating goroutine; keep them cheap.
func (s *Store) Subscribe(event Event, fn func(payload string)) {
	s.subMu.Lock()
	s.subs[event] = append(s.subs[event], fn)
	s.subMu.Unlock()
}

// Publish fires an event to every subscriber. Fire-and-forget: the
// store never inspects results.
func (s *Store) Publish(event Event, payload string) {
	s.subMu.RLock()
	fns := make([]func(string), len(s.subs[event]))
	copy(fns, s.subs[event])
	s.subMu.RUnlock()
	for _, fn := range fns {
		fn(payload)
	}
}
