package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aribau/cartelera/internal/cache"
	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/filter"
	"github.com/aribau/cartelera/internal/log"
	"github.com/aribau/cartelera/internal/request"
	"github.com/aribau/cartelera/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultYears = "1900-2030"

// fakeCatalog is a scriptable domain.Catalog for service tests.
type fakeCatalog struct {
	mu          sync.Mutex
	searchCalls int
	searchFn    func(ctx context.Context, call int) (*domain.SearchResult, error)

	writeCalls []writeCall
	writeErr   error

	fetchData map[string]domain.UserMovieEntry
	fetchErr  error

	suggestFn func(ctx context.Context, category, term string) ([]string, error)
}

type writeCall struct {
	itemID string
	entry  domain.UserMovieEntry
}

func (f *fakeCatalog) Search(ctx context.Context, _ domain.ActiveFilters, _, _ int) (*domain.SearchResult, error) {
	f.mu.Lock()
	f.searchCalls++
	call := f.searchCalls
	fn := f.searchFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, call)
	}
	return &domain.SearchResult{Items: []domain.Movie{{ID: "m1", Title: "El Sur"}}, Total: 1}, nil
}

func (f *fakeCatalog) FetchUserData(context.Context) (map[string]domain.UserMovieEntry, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fetchData, nil
}

func (f *fakeCatalog) WriteUserData(_ context.Context, itemID string, entry domain.UserMovieEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writeCalls = append(f.writeCalls, writeCall{itemID: itemID, entry: entry.Clone()})
	return nil
}

func (f *fakeCatalog) Suggest(ctx context.Context, category, term string) ([]string, error) {
	if f.suggestFn != nil {
		return f.suggestFn(ctx, category, term)
	}
	return nil, nil
}

func (f *fakeCatalog) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func newCatalogFixture(remote domain.Catalog) (*CatalogService, *state.Store) {
	engine := filter.New(filter.Limits{MaxActive: 3, MaxExcludedPerCategory: 3}, defaultYears)
	defaults := domain.ActiveFilters{Years: defaultYears, Sort: "year,desc", MediaType: domain.MediaTypeAll}
	st := state.New(engine, defaults, 20, log.NullLogger())
	qc := cache.New(cache.Options{MaxEntries: 10, TTL: time.Minute, RefreshOnAccess: true})
	coord := request.NewCoordinator(log.NullLogger())
	return NewCatalogService(st, qc, coord, remote, log.NullLogger()), st
}

func TestLoadPageCommitsResult(t *testing.T) {
	fake := &fakeCatalog{
		searchFn: func(context.Context, int) (*domain.SearchResult, error) {
			return &domain.SearchResult{
				Items: []domain.Movie{{ID: "m1", Title: "El Sur"}, {ID: "m2", Title: "Amanece"}},
				Total: 42,
			}, nil
		},
	}
	svc, st := newCatalogFixture(fake)

	items, err := svc.LoadPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 42, st.Total())
	assert.Equal(t, 2, st.Page())
}

func TestLoadPageServesIdenticalQueryFromCache(t *testing.T) {
	fake := &fakeCatalog{}
	svc, _ := newCatalogFixture(fake)

	_, err := svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls(), "identical query must not hit the network twice")
}

func TestLoadPageDistinctQueriesMissCache(t *testing.T) {
	fake := &fakeCatalog{}
	svc, _ := newCatalogFixture(fake)

	_, err := svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.LoadPage(context.Background(), 2)
	require.NoError(t, err)

	require.True(t, svc.SetFilter(filter.KeyGenre, "Drama"))
	_, err = svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, fake.calls())
}

func TestLoadPageFailureKeepsPreviousTotal(t *testing.T) {
	fake := &fakeCatalog{}
	svc, st := newCatalogFixture(fake)

	_, err := svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, st.Total())

	fake.searchFn = func(context.Context, int) (*domain.SearchResult, error) {
		return nil, domain.ErrServerOffline
	}
	_, err = svc.LoadPage(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrServerOffline)
	assert.Equal(t, 1, st.Total(), "failed read leaves the previous result authoritative")
}

func TestSupersededLoadNeverCommits(t *testing.T) {
	// A slow first load is overtaken by a second one. The first must
	// surface as aborted and must not populate the cache or the store,
	// even though its response eventually arrives.
	started := make(chan struct{})
	fake := &fakeCatalog{}
	fake.searchFn = func(ctx context.Context, call int) (*domain.SearchResult, error) {
		if call == 1 {
			close(started)
			<-ctx.Done()
			return nil, domain.ErrAborted
		}
		return &domain.SearchResult{Items: []domain.Movie{{ID: "fresh"}}, Total: 200}, nil
	}
	svc, st := newCatalogFixture(fake)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.LoadPage(context.Background(), 1)
		firstErr <- err
	}()
	<-started

	items, err := svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].ID)

	require.ErrorIs(t, <-firstErr, domain.ErrAborted)
	assert.Equal(t, 200, st.Total(), "only the fresh result may own the total")

	// The cache holds the fresh result, not the stale one.
	items, err = svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", items[0].ID)
	assert.Equal(t, 2, fake.calls(), "third load must be a cache hit")
}

func TestLateResponseForSupersededTokenIsDiscarded(t *testing.T) {
	// The transport cannot always abort: the stale call returns a real
	// result after supersession. The commit-time liveness check must
	// still discard it.
	started := make(chan struct{})
	proceed := make(chan struct{})
	fake := &fakeCatalog{}
	fake.searchFn = func(ctx context.Context, call int) (*domain.SearchResult, error) {
		if call == 1 {
			close(started)
			<-proceed
			return &domain.SearchResult{Items: []domain.Movie{{ID: "stale"}}, Total: 1}, nil
		}
		return &domain.SearchResult{Items: []domain.Movie{{ID: "fresh"}}, Total: 2}, nil
	}
	svc, st := newCatalogFixture(fake)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.LoadPage(context.Background(), 1)
		firstErr <- err
	}()
	<-started

	_, err := svc.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	close(proceed)
	require.ErrorIs(t, <-firstErr, domain.ErrAborted)
	assert.Equal(t, 2, st.Total())
}

func TestFilterSettersRewindToFirstPage(t *testing.T) {
	fake := &fakeCatalog{}
	svc, st := newCatalogFixture(fake)

	st.SetPage(5)
	require.True(t, svc.SetFilter(filter.KeyGenre, "Drama"))
	assert.Equal(t, 1, st.Page())

	st.SetPage(5)
	svc.SetSearchTerm("amanece")
	assert.Equal(t, 1, st.Page())

	st.SetPage(5)
	require.True(t, svc.ToggleExclusion(filter.CategoryCountry, "USA"))
	assert.Equal(t, 1, st.Page())
}

func TestSetFilterRejectionPublishesNothing(t *testing.T) {
	fake := &fakeCatalog{}
	svc, st := newCatalogFixture(fake)

	var changes int
	st.Subscribe(state.EventFiltersChanged, func(string) { changes++ })

	require.True(t, svc.SetFilter(filter.KeyGenre, "Drama"))
	require.True(t, svc.SetFilter(filter.KeyCountry, "Spain"))
	require.True(t, svc.SetFilter(filter.KeyDirector, "Erice"))
	require.False(t, svc.SetFilter(filter.KeyYears, "1990-2000"), "fourth activation exceeds the limit")

	assert.Equal(t, 3, changes)
}

func TestResetFiltersPublishesReset(t *testing.T) {
	fake := &fakeCatalog{}
	svc, st := newCatalogFixture(fake)

	var resets int
	st.Subscribe(state.EventFiltersReset, func(string) { resets++ })

	require.True(t, svc.SetFilter(filter.KeyGenre, "Drama"))
	svc.ResetFilters()

	assert.Equal(t, 1, resets)
	assert.Empty(t, st.Filters().Genre)
}

func TestLoadPageAbortedRemoteError(t *testing.T) {
	fake := &fakeCatalog{
		searchFn: func(context.Context, int) (*domain.SearchResult, error) {
			return nil, domain.ErrAborted
		},
	}
	svc, st := newCatalogFixture(fake)

	_, err := svc.LoadPage(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrAborted)
	assert.Equal(t, 0, st.Total())
	assert.False(t, errors.Is(err, domain.ErrServerOffline))
}
