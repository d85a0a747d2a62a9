package domain

// MediaType distinguishes catalog content types. It is a presentation
// control: switching it never counts against the active-filter limit.
type MediaType string

const (
	MediaTypeAll    MediaType = "all"
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Movie represents one catalog row as returned by the search RPC.
type Movie struct {
	ID            string   // Catalog-wide unique identifier
	Title         string   // Display title
	OriginalTitle string   // Title in the original language
	Year          int      // Release year
	Genres        []string // Genre labels
	Country       string   // Production country
	Director      string   // Primary director
	Synopsis      string   // Plot summary
	Score         float64  // Community score, 0-10 scale
	PosterURL     string   // Poster image URL
	Type          MediaType
}

// UserMovieEntry holds the per-user state for a single catalog item.
// Rating is nil when the item is unrated; non-nil values are drawn from
// the closed set {2, 3, 5, 7, 9}.
type UserMovieEntry struct {
	OnWatchlist bool
	Rating      *int
}

// Clone returns a deep copy, so callers can hold an entry across a
// remote round-trip without aliasing store internals.
func (e UserMovieEntry) Clone() UserMovieEntry {
	c := UserMovieEntry{OnWatchlist: e.OnWatchlist}
	if e.Rating != nil {
		r := *e.Rating
		c.Rating = &r
	}
	return c
}

// Equal reports whether two entries hold the same values.
func (e UserMovieEntry) Equal(o UserMovieEntry) bool {
	if e.OnWatchlist != o.OnWatchlist {
		return false
	}
	if (e.Rating == nil) != (o.Rating == nil) {
		return false
	}
	return e.Rating == nil || *e.Rating == *o.Rating
}

// SearchResult is one page of catalog rows plus the total match count.
type SearchResult struct {
	Items []Movie
	Total int
}

// ActiveFilters is the full set of user-selected filter slots.
// An inclusive categorical value and its exclusion set are mutually
// exclusive; the constraint engine enforces that on every mutation.
type ActiveFilters struct {
	Term     string // Free-text search, never counted against the limit
	Genre    string
	Country  string
	Director string
	Years    string // "from-to" range; counts only when it differs from the default bounds

	ExcludedGenres    []string
	ExcludedCountries []string

	Sort      string    // "field,direction", presentation only
	MediaType MediaType // presentation only
}

// Clone returns a copy whose exclusion slices do not alias the original.
func (f ActiveFilters) Clone() ActiveFilters {
	c := f
	c.ExcludedGenres = append([]string(nil), f.ExcludedGenres...)
	c.ExcludedCountries = append([]string(nil), f.ExcludedCountries...)
	return c
}

// Fields flattens the filters into the key/value form used for cache-key
// canonicalization. Blank and empty values are kept here; the
// canonicalizer is responsible for omitting them.
func (f ActiveFilters) Fields() map[string]any {
	return map[string]any{
		"term":               f.Term,
		"genre":              f.Genre,
		"country":            f.Country,
		"director":           f.Director,
		"years":              f.Years,
		"excluded_genres":    f.ExcludedGenres,
		"excluded_countries": f.ExcludedCountries,
		"sort":               f.Sort,
		"media_type":         string(f.MediaType),
	}
}
