// Package filter implements the constraint engine for active filter
// selections: pure counting and validated mutation, no I/O.
package filter

import (
	"slices"

	"github.com/aribau/cartelera/internal/domain"
)

// Key identifies a limit-checked filter slot.
type Key string

const (
	KeyGenre    Key = "genre"
	KeyCountry  Key = "country"
	KeyDirector Key = "director"
	KeyYears    Key = "years"
)

// Category identifies a filter dimension that carries an exclusion set.
type Category string

const (
	CategoryGenre   Category = "genre"
	CategoryCountry Category = "country"
)

// Limits configures the engine. MaxActive caps the number of
// simultaneously active filters; MaxExcludedPerCategory caps the size
// of each exclusion set.
type Limits struct {
	MaxActive              int
	MaxExcludedPerCategory int
}

// Engine validates filter mutations against configured limits.
// DefaultYears is the full year range; the years slot only counts as
// active when it differs from it.
type Engine struct {
	limits       Limits
	defaultYears string
}

func New(limits Limits, defaultYears string) *Engine {
	return &Engine{limits: limits, defaultYears: defaultYears}
}

// DefaultYears returns the configured full year range.
func (e *Engine) DefaultYears() string {
	return e.defaultYears
}

// CountActive counts the meaningful filters: each non-empty categorical
// slot is 1, each non-empty exclusion set is 1 regardless of size, and
// the year range is 1 only when narrowed from the default bounds.
// Search term, sort and media type never count.
func (e *Engine) CountActive(f *domain.ActiveFilters) int {
	n := 0
	if f.Genre != "" {
		n++
	}
	if f.Country != "" {
		n++
	}
	if f.Director != "" {
		n++
	}
	if len(f.ExcludedGenres) > 0 {
		n++
	}
	if len(f.ExcludedCountries) > 0 {
		n++
	}
	if f.Years != "" && f.Years != e.defaultYears {
		n++
	}
	return n
}

// TrySet applies value to the named slot. It refuses (without mutating)
// when the value would newly activate a filter past the limit. Removals
// are always permitted, even at the limit. Setting a categorical value
// clears the conflicting exclusion set for that category. Unknown keys
// are a no-op returning false.
func (e *Engine) TrySet(f *domain.ActiveFilters, key Key, value string) bool {
	current, ok := e.slotValue(f, key)
	if !ok {
		return false
	}

	activating := !e.slotActive(key, current) && e.slotActive(key, value)
	if activating && e.CountActive(f) >= e.limits.MaxActive {
		return false
	}

	switch key {
	case KeyGenre:
		f.Genre = value
		if value != "" {
			f.ExcludedGenres = nil
		}
	case KeyCountry:
		f.Country = value
		if value != "" {
			f.ExcludedCountries = nil
		}
	case KeyDirector:
		f.Director = value
	case KeyYears:
		f.Years = value
	}
	return true
}

// TryToggleExclusion adds or removes value from a category's exclusion
// set. Removal always succeeds. Addition fails at the per-category
// sub-limit, or when newly activating the set would exceed the global
// limit after the conflicting inclusive filter is cleared. A successful
// addition clears that inclusive filter.
func (e *Engine) TryToggleExclusion(f *domain.ActiveFilters, category Category, value string) bool {
	set, inclusive := e.exclusionSlot(f, category)
	if set == nil {
		return false
	}

	if i := slices.Index(*set, value); i >= 0 {
		*set = slices.Delete(*set, i, i+1)
		return true
	}

	if len(*set) >= e.limits.MaxExcludedPerCategory {
		return false
	}
	if len(*set) == 0 {
		// Adding the first exclusion activates the category. The
		// inclusive slot it replaces no longer counts.
		count := e.CountActive(f)
		if *inclusive != "" {
			count--
		}
		if count >= e.limits.MaxActive {
			return false
		}
	}

	*inclusive = ""
	*set = append(*set, value)
	return true
}

func (e *Engine) slotValue(f *domain.ActiveFilters, key Key) (string, bool) {
	switch key {
	case KeyGenre:
		return f.Genre, true
	case KeyCountry:
		return f.Country, true
	case KeyDirector:
		return f.Director, true
	case KeyYears:
		return f.Years, true
	}
	return "", false
}

func (e *Engine) slotActive(key Key, value string) bool {
	if key == KeyYears {
		return value != "" && value != e.defaultYears
	}
	return value != ""
}

func (e *Engine) exclusionSlot(f *domain.ActiveFilters, category Category) (*[]string, *string) {
	switch category {
	case CategoryGenre:
		return &f.ExcludedGenres, &f.Genre
	case CategoryCountry:
		return &f.ExcludedCountries, &f.Country
	}
	return nil, nil
}
