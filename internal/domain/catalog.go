package domain

import "context"

// Catalog is the remote collaborator: the search RPC plus the
// row-level-secured user store. Implementations must honor context
// cancellation by aborting the underlying call and returning ErrAborted
// so callers can tell "superseded" apart from "failed".
type Catalog interface {
	// Search runs the catalog search RPC for one page of results.
	Search(ctx context.Context, filters ActiveFilters, page, pageSize int) (*SearchResult, error)

	// FetchUserData returns the authenticated user's full per-item map.
	// Called once after authentication.
	FetchUserData(ctx context.Context) (map[string]UserMovieEntry, error)

	// WriteUserData upserts one user row. The remote store is a blind
	// upsert keyed by (user, item): callers must send the fully merged
	// entry, not a partial delta.
	WriteUserData(ctx context.Context, itemID string, entry UserMovieEntry) error

	// Suggest returns completion candidates for a filter category.
	// Best effort, independently cancellable per category.
	Suggest(ctx context.Context, category, term string) ([]string, error)
}
