package request

import (
	"context"
	"testing"

	"github.com/aribau/cartelera/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginSupersedesPriorToken(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	first := c.Begin(context.Background(), "grid")
	require.False(t, first.Cancelled())

	second := c.Begin(context.Background(), "grid")
	assert.True(t, first.Cancelled(), "superseded token must be cancelled")
	assert.False(t, second.Cancelled())
	assert.True(t, c.IsLive(second))
	assert.False(t, c.IsLive(first))
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestDistinctKeysAreIndependent(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	grid := c.Begin(context.Background(), "movie-grid-load")
	genre := c.Begin(context.Background(), "suggestion-genre")

	c.Begin(context.Background(), "suggestion-genre")
	assert.True(t, genre.Cancelled())
	assert.False(t, grid.Cancelled(), "grid load must survive a suggestion supersession")
}

func TestBeginWithNoLiveTokenIsPlainCreation(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	tok := c.Begin(context.Background(), "grid")
	assert.False(t, tok.Cancelled())
	assert.True(t, c.IsLive(tok))
	assert.Equal(t, "grid", tok.Key())
}

func TestFinishUnregistersToken(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	tok := c.Begin(context.Background(), "grid")
	c.Finish(tok)

	assert.True(t, tok.Cancelled())
	assert.False(t, c.IsLive(tok), "finished token must not stay registered")

	// A fresh Begin after Finish behaves like the no-live-token case.
	next := c.Begin(context.Background(), "grid")
	assert.False(t, next.Cancelled())
}

func TestFinishSupersededTokenDoesNotDisturbSuccessor(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	first := c.Begin(context.Background(), "grid")
	second := c.Begin(context.Background(), "grid")

	// The slow first operation completes late and cleans up.
	c.Finish(first)

	assert.False(t, second.Cancelled())
	assert.True(t, c.IsLive(second))
}

func TestLateCompletionMustNotCommit(t *testing.T) {
	// The commit-time discipline: a consumer checks Cancelled() before
	// writing results. Simulate a first operation resolving after a
	// second has begun.
	c := NewCoordinator(log.NullLogger())

	first := c.Begin(context.Background(), "grid")
	committed := ""

	commit := func(tok *Token, result string) {
		if tok.Cancelled() {
			return
		}
		committed = result
	}

	second := c.Begin(context.Background(), "grid")
	commit(first, "stale")
	commit(second, "fresh")

	assert.Equal(t, "fresh", committed)
}

func TestTokenContextCancellation(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	tok := c.Begin(context.Background(), "grid")
	select {
	case <-tok.Done():
		t.Fatal("token cancelled prematurely")
	default:
	}

	c.Begin(context.Background(), "grid")
	select {
	case <-tok.Done():
	default:
		t.Fatal("superseded token's signal did not fire")
	}
	assert.Error(t, tok.Context().Err())
}

func TestParentContextCancellationPropagates(t *testing.T) {
	c := NewCoordinator(log.NullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	tok := c.Begin(ctx, "grid")
	cancel()

	<-tok.Done()
	assert.True(t, tok.Cancelled())
}
