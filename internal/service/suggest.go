package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/request"
	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"
)

// OpSuggestPrefix namespaces suggestion fetches per category, so a
// genre fetch never cancels an in-flight director fetch.
const OpSuggestPrefix = "suggestion-"

// termIndex implements sahilm/fuzzy.Source over the values seen so far
// for one category. Lowercase forms are pre-computed at insert time.
type termIndex struct {
	values []string
	lower  []string
	seen   map[string]bool
}

func (idx *termIndex) String(i int) string { return idx.lower[i] }
func (idx *termIndex) Len() int            { return len(idx.values) }

func (idx *termIndex) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	low := strings.ToLower(value)
	if idx.seen[low] {
		return
	}
	idx.seen[low] = true
	idx.values = append(idx.values, value)
	idx.lower = append(idx.lower, low)
}

// SuggestService fetches per-category filter suggestions, ranks them
// locally, and keeps an in-memory index of already-seen values for
// offline completion.
type SuggestService struct {
	coord  *request.Coordinator
	remote domain.Catalog
	logger *slog.Logger

	mu      sync.RWMutex
	indexes map[string]*termIndex
}

func NewSuggestService(coord *request.Coordinator, remote domain.Catalog, logger *slog.Logger) *SuggestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestService{
		coord:   coord,
		remote:  remote,
		logger:  logger,
		indexes: make(map[string]*termIndex),
	}
}

// Suggest fetches candidates for a category, cancelling any in-flight
// fetch for the same category. On remote failure it falls back to the
// local index; on abort it returns domain.ErrAborted.
func (s *SuggestService) Suggest(ctx context.Context, category, term string) ([]string, error) {
	tok := s.coord.Begin(ctx, OpSuggestPrefix+category)
	defer s.coord.Finish(tok)

	values, err := s.remote.Suggest(tok.Context(), category, term)
	if err != nil {
		if errors.Is(err, domain.ErrAborted) {
			return nil, domain.ErrAborted
		}
		s.logger.Warn("suggestion fetch failed, falling back to local index", "category", category, "error", err)
		return s.LocalSuggest(category, term), nil
	}
	if tok.Cancelled() {
		return nil, domain.ErrAborted
	}

	s.indexValues(category, values)
	return rankSuggestions(values, term), nil
}

// LocalSuggest completes term from the in-memory index only.
func (s *SuggestService) LocalSuggest(category, term string) []string {
	s.mu.RLock()
	idx, ok := s.indexes[category]
	s.mu.RUnlock()
	if !ok || idx.Len() == 0 {
		return nil
	}

	if strings.TrimSpace(term) == "" {
		return append([]string(nil), idx.values...)
	}

	matches := sahilm.FindFrom(strings.ToLower(term), idx)
	results := make([]string, 0, len(matches))
	for _, m := range matches {
		results = append(results, idx.values[m.Index])
	}
	return results
}

// IndexMovies feeds the index from a fetched page, so values the user
// has already seen complete without a network round-trip.
func (s *SuggestService) IndexMovies(movies []domain.Movie) {
	for _, m := range movies {
		s.indexValues("genre", m.Genres)
		if m.Country != "" {
			s.indexValues("country", []string{m.Country})
		}
		if m.Director != "" {
			s.indexValues("director", []string{m.Director})
		}
	}
}

func (s *SuggestService) indexValues(category string, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[category]
	if !ok {
		idx = &termIndex{seen: make(map[string]bool)}
		s.indexes[category] = idx
	}
	for _, v := range values {
		idx.add(v)
	}
}

// rankSuggestions orders server candidates by fuzzy distance to the
// term, keeping the server order for an empty term.
func rankSuggestions(values []string, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" || len(values) == 0 {
		return values
	}

	matches := fuzzy.RankFindFold(term, values)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	results := make([]string, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.Target)
	}
	return results
}
