// Package request manages cancellation tokens keyed by logical
// operation name. Starting a new operation under a key supersedes and
// cancels any prior in-flight operation sharing that key.
package request

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Token is the abortable handle for one logical operation. Its context
// is forwarded to remote calls; its cancellation doubles as the local
// "discard the eventual result" marker even when the transport cannot
// truly be aborted.
type Token struct {
	id     string
	key    string
	ctx    context.Context
	cancel context.CancelFunc
}

// ID returns the token's correlation id for logging.
func (t *Token) ID() string { return t.id }

// Key returns the logical operation name the token was issued for.
func (t *Token) Key() string { return t.key }

// Context carries the cancellation signal for remote calls.
func (t *Token) Context() context.Context { return t.ctx }

// Cancelled reports whether the token has been superseded or finished.
// Callers must check this before committing results to shared state.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

// Done exposes the cancellation signal as a channel.
func (t *Token) Done() <-chan struct{} { return t.ctx.Done() }

// Coordinator holds at most one live token per operation key.
type Coordinator struct {
	mu     sync.Mutex
	live   map[string]*Token
	logger *slog.Logger
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{live: make(map[string]*Token), logger: logger}
}

// Begin cancels any live token under key, then registers and returns a
// fresh one derived from parent. Tokens unregister themselves when
// their signal fires, so superseded tokens are never retained.
func (c *Coordinator) Begin(parent context.Context, key string) *Token {
	if parent == nil {
		parent = context.Background()
	}

	c.mu.Lock()
	if prev, ok := c.live[key]; ok {
		delete(c.live, key)
		prev.cancel()
		c.logger.Debug("superseded request", "key", key, "token", prev.id)
	}

	ctx, cancel := context.WithCancel(parent)
	tok := &Token{id: uuid.NewString(), key: key, ctx: ctx, cancel: cancel}
	c.live[key] = tok
	c.mu.Unlock()

	context.AfterFunc(ctx, func() { c.release(tok) })
	return tok
}

// Finish releases a completed token. Safe to call on a token that has
// already been superseded.
func (c *Coordinator) Finish(tok *Token) {
	if tok == nil {
		return
	}
	tok.cancel()
	c.release(tok)
}

// IsLive reports whether tok is still the current token for its key.
func (c *Coordinator) IsLive(tok *Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live[tok.key] == tok
}

func (c *Coordinator) release(tok *Token) {
	c.mu.Lock()
	if c.live[tok.key] == tok {
		delete(c.live, tok.key)
	}
	c.mu.Unlock()
}
