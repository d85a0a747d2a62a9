package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/state"
	"github.com/aribau/cartelera/internal/store"
)

// UserDataService applies rating and watchlist actions optimistically:
// the local mutation lands before the remote write is dispatched, and a
// remote failure restores the pre-mutation snapshot verbatim.
type UserDataService struct {
	state   *state.Store
	remote  domain.Catalog
	offline *store.UserStore
	logger  *slog.Logger
}

func NewUserDataService(st *state.Store, remote domain.Catalog, offline *store.UserStore, logger *slog.Logger) *UserDataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserDataService{state: st, remote: remote, offline: offline, logger: logger}
}

// RateAtLevel handles a click on star level 1-4 for an item.
func (s *UserDataService) RateAtLevel(ctx context.Context, itemID string, level int) error {
	return s.mutate(ctx, itemID, func(e *domain.UserMovieEntry) {
		e.Rating = domain.RatingForLevel(e.Rating, level)
	})
}

// CycleLowMark advances the dedicated low-mark affordance for an item.
func (s *UserDataService) CycleLowMark(ctx context.Context, itemID string) error {
	return s.mutate(ctx, itemID, func(e *domain.UserMovieEntry) {
		e.Rating = domain.CycleLowMark(e.Rating)
	})
}

// ToggleWatchlist flips the item's watchlist membership.
func (s *UserDataService) ToggleWatchlist(ctx context.Context, itemID string) error {
	return s.mutate(ctx, itemID, func(e *domain.UserMovieEntry) {
		e.OnWatchlist = !e.OnWatchlist
	})
}

// mutate runs the optimistic mutation protocol: snapshot, local apply,
// remote write of the fully merged entry, rollback on failure. The
// local apply is visible to any synchronous read that follows, so a
// redraw invoked right after sees the optimistic value.
func (s *UserDataService) mutate(ctx context.Context, itemID string, apply func(*domain.UserMovieEntry)) error {
	snapshot, _ := s.state.UserEntry(itemID)

	next := snapshot.Clone()
	apply(&next)
	s.state.SetUserEntry(itemID, next)

	if err := s.remote.WriteUserData(ctx, itemID, next); err != nil {
		// The rollback re-applies the retained snapshot, not a second
		// read: the store may have moved on while the write was in
		// flight.
		s.state.SetUserEntry(itemID, snapshot)
		if errors.Is(err, domain.ErrAborted) {
			s.logger.Debug("user-data write aborted", "item", itemID)
			return domain.ErrAborted
		}
		s.logger.Warn("user-data write failed, rolled back", "item", itemID, "error", err)
		return fmt.Errorf("failed to save change for %s: %w", itemID, err)
	}

	if s.offline != nil {
		if err := s.offline.SaveEntry(itemID, next); err != nil {
			s.logger.Warn("offline snapshot write failed", "item", itemID, "error", err)
		}
	}
	return nil
}

// Login pulls the full user snapshot after authentication and replaces
// both the in-memory map and the offline snapshot.
func (s *UserDataService) Login(ctx context.Context) error {
	entries, err := s.remote.FetchUserData(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch user data: %w", err)
	}

	s.state.ReplaceUserData(entries)
	if s.offline != nil {
		if err := s.offline.ReplaceAll(entries); err != nil {
			s.logger.Warn("offline snapshot replace failed", "error", err)
		}
	}
	s.logger.Info("user data loaded", "entries", len(entries))
	return nil
}

// Logout clears user data everywhere.
func (s *UserDataService) Logout() {
	s.state.ClearUserData()
	if s.offline != nil {
		s.offline.Clear()
	}
	s.logger.Info("user data cleared")
}

// Preload seeds the in-memory map from the offline snapshot so entries
// render before the remote fetch completes. Safe to call when the
// snapshot is empty.
func (s *UserDataService) Preload() {
	if s.offline == nil {
		return
	}
	entries, err := s.offline.All()
	if err != nil {
		s.logger.Warn("offline snapshot read failed", "error", err)
		return
	}
	if len(entries) > 0 {
		s.state.ReplaceUserData(entries)
		s.logger.Debug("preloaded offline user data", "entries", len(entries))
	}
}
