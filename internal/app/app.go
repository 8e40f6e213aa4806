// Package app wires configuration into stores, caches and services for the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/cache"
	"github.com/grid-nexus/nexus-api/internal/config"
	"github.com/grid-nexus/nexus-api/internal/database"
	"github.com/grid-nexus/nexus-api/internal/filter"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/seed"
	"github.com/grid-nexus/nexus-api/internal/service"
)

// App holds the wired dependencies of a running process
type App struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Services *service.Services

	// DB is set only for the postgres driver
	DB *database.DB

	closers []func(ctx context.Context) error
	log     zerolog.Logger
}

// Options adjusts what New sets up
type Options struct {
	// Migrate runs pending postgres migrations on start
	Migrate bool
	// SeedMemory loads the embedded seed data into the memory store
	SeedMemory bool
}

// New opens the configured store and cache and builds the services
func New(ctx context.Context, cfg *config.Config, opts Options, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	if err := a.openStore(ctx, opts); err != nil {
		a.Close(ctx)
		return nil, err
	}

	statsCache, err := a.openCache()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	words, err := filter.New(cfg.Comments.BannedWords, cfg.Comments.BannedWordsFile)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Services = service.NewServices(a.Repos, cfg, service.CommentOptions{
		Filter: words,
		Cache:  statsCache,
	}, log)

	if opts.SeedMemory && cfg.Store.Driver == config.DriverMemory {
		if err := a.Seed(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, opts Options) error {
	cfg := a.Config

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.New(&cfg.Database, a.log)
		if err != nil {
			return err
		}
		a.DB = db
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		if opts.Migrate {
			if err := db.RunMigrations(cfg.Store.MigrationsPath); err != nil {
				return err
			}
		}
		a.Repos = repository.New(db)

	case config.DriverMongo:
		m, err := database.NewMongo(&cfg.Mongo, a.log)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, m.Close)

		if err := m.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.Repos = repository.NewMongo(m)

	case config.DriverMemory:
		a.Repos = repository.NewMemory()

	default:
		return fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}

	a.log.Info().Str("driver", cfg.Store.Driver).Msg("Store ready")
	return nil
}

func (a *App) openCache() (cache.StatsCache, error) {
	cfg := a.Config

	switch cfg.Cache.Driver {
	case config.CacheLRU:
		c, err := cache.NewLRU(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CacheRedis:
		client, err := database.NewRedis(&cfg.Redis, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return cache.NewRedis(client, cfg.Cache.TTL, a.log), nil
	default:
		return cache.NewNoop(), nil
	}
}

// Seed imports the embedded users and articles. Records already present are skipped.
func (a *App) Seed(ctx context.Context) error {
	users, err := a.Services.Import.ImportUsers(ctx, seed.Users())
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	articles, err := a.Services.Import.ImportArticles(ctx, seed.Articles())
	if err != nil {
		return fmt.Errorf("failed to seed articles: %w", err)
	}

	a.log.Info().
		Int("users", users.SuccessfulCount).
		Int("articles", articles.SuccessfulCount).
		Msg("Seed data loaded")
	return nil
}

// Close releases connections in reverse order of opening
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close connection")
		}
	}
	a.closers = nil
}
