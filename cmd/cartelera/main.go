package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aribau/cartelera/internal/cache"
	"github.com/aribau/cartelera/internal/config"
	"github.com/aribau/cartelera/internal/domain"
	"github.com/aribau/cartelera/internal/filter"
	"github.com/aribau/cartelera/internal/log"
	"github.com/aribau/cartelera/internal/remote"
	"github.com/aribau/cartelera/internal/request"
	"github.com/aribau/cartelera/internal/service"
	"github.com/aribau/cartelera/internal/state"
	"github.com/aribau/cartelera/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("cartelera %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting cartelera", "version", Version)

	if !cfg.IsConfigured() {
		fmt.Println("No catalog service configured.")
		fmt.Println("Set server.url and server.api_key in the config file, or")
		fmt.Println("export CARTELERA_SERVER_URL and CARTELERA_SERVER_API_KEY.")
		return nil
	}

	offline, err := store.NewUserStore(config.DefaultDataPath(), cfg.Server.UserID)
	if err != nil {
		return fmt.Errorf("failed to open offline store: %w", err)
	}
	defer offline.Close()

	client := remote.NewClient(cfg.Server.URL, cfg.Server.APIKey, cfg.Server.UserID, logger)

	engine := filter.New(filter.Limits{
		MaxActive:              cfg.Catalog.MaxActiveFilters,
		MaxExcludedPerCategory: cfg.Catalog.MaxExcludedPerCategory,
	}, cfg.Catalog.DefaultYears())

	defaults := domain.ActiveFilters{
		Years:     cfg.Catalog.DefaultYears(),
		Sort:      cfg.Catalog.DefaultSort,
		MediaType: domain.MediaTypeAll,
	}

	st := state.New(engine, defaults, cfg.Catalog.PageSize, logger)
	qc := cache.New(cache.Options{
		MaxEntries:      cfg.Cache.MaxEntries,
		TTL:             time.Duration(cfg.Cache.TTLMillis) * time.Millisecond,
		RefreshOnAccess: cfg.Cache.RefreshOnAccess,
	})
	coord := request.NewCoordinator(logger)

	catalogSvc := service.NewCatalogService(st, qc, coord, client, logger)
	userSvc := service.NewUserDataService(st, client, offline, logger)
	suggestSvc := service.NewSuggestService(coord, client, logger)

	// A wholesale filter reset invalidates every cached page.
	st.Subscribe(state.EventFiltersReset, func(string) { qc.Purge() })

	return sync(context.Background(), cfg, st, catalogSvc, userSvc, suggestSvc, logger)
}

// sync runs a headless pass over the core pipeline: offline preload,
// user-data fetch, and a first-page load.
func sync(ctx context.Context, cfg *config.Config, st *state.Store, catalogSvc *service.CatalogService, userSvc *service.UserDataService, suggestSvc *service.SuggestService, logger *slog.Logger) error {
	userSvc.Preload()

	if cfg.Server.UserID != "" {
		if err := userSvc.Login(ctx); err != nil {
			if errors.Is(err, domain.ErrAuthFailed) {
				return err
			}
			// Offline snapshot keeps the session usable.
			logger.Warn("user data fetch failed, continuing with offline snapshot", "error", err)
		}
	}

	items, err := catalogSvc.LoadPage(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load first page: %w", err)
	}
	suggestSvc.IndexMovies(items)

	snap := st.Snapshot()
	fmt.Printf("Loaded page %d: %d of %d items\n", snap.Page, len(items), snap.Total)
	for _, m := range items {
		marker := " "
		if e, ok := st.UserEntry(m.ID); ok {
			if e.OnWatchlist {
				marker = "+"
			}
			if lvl := domain.StarLevel(e.Rating); lvl > 0 {
				marker = fmt.Sprintf("%d", lvl)
			}
		}
		fmt.Printf("  [%s] %s (%d)\n", marker, m.Title, m.Year)
	}
	return nil
}
