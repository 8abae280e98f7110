package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lexiz/internal/config"
	"github.com/abhisek/lexiz/internal/logger"
	"github.com/abhisek/lexiz/internal/metrics"
	"github.com/abhisek/lexiz/internal/store"
	"github.com/abhisek/lexiz/internal/store/postgres"
)

// env is what every subcommand needs: configuration, a logger, the
// repositories and the metrics collector.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	repos   store.Repos
	metrics *metrics.Collector
}

// setup loads configuration and opens the configured backend. Callers must
// Close the returned env.
func setup(cmd *cobra.Command) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	dataDir, err := store.DataDir()
	if err != nil {
		return nil, err
	}

	var dbPath string
	if cfg.Database.Driver == config.DriverSQLite {
		dbPath, err = resolveDBPath(cmd, cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		dataDir = filepath.Dir(dbPath)
	}

	log, err := logger.New(cfg, dataDir)
	if err != nil {
		return nil, err
	}

	repos, err := openRepos(cmd.Context(), cfg, dbPath)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Debug("store opened", zap.String("driver", cfg.Database.Driver), zap.String("path", dbPath))

	return &env{cfg: cfg, log: log, repos: repos, metrics: metrics.New()}, nil
}

func openRepos(ctx context.Context, cfg *config.Config, dbPath string) (store.Repos, error) {
	if cfg.Database.Driver == config.DriverPostgres {
		st, err := postgres.Open(ctx, cfg.Database.DSN, postgres.PoolConfig{
			MaxConns:        int32(cfg.Database.MaxConnections),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return st, nil
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (LEXIZ_DB or database.path), then the default
// XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if p := cfg.Database.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// Close exports metrics when configured, then releases the store and
// flushes the logger.
func (e *env) Close() {
	if path := e.cfg.Metrics.Textfile; path != "" {
		if err := e.metrics.WriteTextfile(path); err != nil {
			e.log.Warn("write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	if err := e.repos.Close(); err != nil {
		e.log.Warn("close store", zap.Error(err))
	}
	_ = e.log.Sync()
}
