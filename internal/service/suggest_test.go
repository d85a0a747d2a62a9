package service

import (
	"context"
	"testing"

	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/log"
	"github.com/aribau/cartelera/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSuggestFixture(fake *fakeCatalog) *SuggestService {
	coord := request.NewCoordinator(log.NullLogger())
	return NewSuggestService(coord, fake, log.NullLogger())
}

func TestSuggestRanksByDistance(t *testing.T) {
	fake := &fakeCatalog{
		suggestFn: func(_ context.Context, _, _ string) ([]string, error) {
			return []string{"Dramedy", "Drama", "Docudrama"}, nil
		},
	}
	svc := newSuggestFixture(fake)

	got, err := svc.Suggest(context.Background(), "genre", "drama")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Drama", got[0], "closest match first")
}

func TestSuggestEmptyTermKeepsServerOrder(t *testing.T) {
	fake := &fakeCatalog{
		suggestFn: func(_ context.Context, _, _ string) ([]string, error) {
			return []string{"Western", "Animación", "Drama"}, nil
		},
	}
	svc := newSuggestFixture(fake)

	got, err := svc.Suggest(context.Background(), "genre", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Western", "Animación", "Drama"}, got)
}

func TestSuggestFallsBackToLocalIndexOnFailure(t *testing.T) {
	calls := 0
	fake := &fakeCatalog{
		suggestFn: func(_ context.Context, _, _ string) ([]string, error) {
			calls++
			if calls == 1 {
				return []string{"Drama", "Comedia"}, nil
			}
			return nil, domain.ErrServerOffline
		},
	}
	svc := newSuggestFixture(fake)

	// First fetch succeeds and feeds the index.
	_, err := svc.Suggest(context.Background(), "genre", "")
	require.NoError(t, err)

	// Second fetch fails; the local index answers instead.
	got, err := svc.Suggest(context.Background(), "genre", "dra")
	require.NoError(t, err)
	assert.Contains(t, got, "Drama")
	assert.NotContains(t, got, "Comedia")
}

func TestSuggestAbortIsSilent(t *testing.T) {
	fake := &fakeCatalog{
		suggestFn: func(_ context.Context, _, _ string) ([]string, error) {
			return nil, domain.ErrAborted
		},
	}
	svc := newSuggestFixture(fake)

	_, err := svc.Suggest(context.Background(), "genre", "dra")
	assert.ErrorIs(t, err, domain.ErrAborted)
}

func TestIndexMoviesFeedsLocalSuggestions(t *testing.T) {
	svc := newSuggestFixture(&fakeCatalog{})

	svc.IndexMovies([]domain.Movie{
		{ID: "1", Genres: []string{"Drama", "Thriller"}, Country: "Spain", Director: "Víctor Erice"},
		{ID: "2", Genres: []string{"Drama"}, Country: "France", Director: "Agnès Varda"},
	})

	assert.ElementsMatch(t, []string{"Drama", "Thriller"}, svc.LocalSuggest("genre", ""))
	assert.Contains(t, svc.LocalSuggest("director", "erice"), "Víctor Erice")
	assert.Empty(t, svc.LocalSuggest("year", "19"), "unknown category has no index")
}

func TestLocalIndexDeduplicates(t *testing.T) {
	svc := newSuggestFixture(&fakeCatalog{})

	svc.IndexMovies([]domain.Movie{
		{ID: "1", Genres: []string{"Drama"}},
		{ID: "2", Genres: []string{"drama", "Drama"}},
	})

	assert.Len(t, svc.LocalSuggest("genre", ""), 1)
}
