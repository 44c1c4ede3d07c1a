package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/config"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/storage"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/tracker"
)

const closeTimeout = 5 * time.Second

// app bundles what every command needs: the loaded config, a logger and the
// open sleep repository.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	loc   *time.Location
	store storage.Store
	repo  *tracker.Repository
}

// openApp loads the configuration and opens the repository. Configuration and
// storage failures exit with status 2.
func openApp(ctx context.Context) *app {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	policy, err := tracker.ParseStartPolicy(cfg.StartWhileTracking)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.Debug("storage opened", "backend", cfg.Storage.Backend, "dir", cfg.Storage.Dir)

	repo := tracker.Open(ctx, store, tracker.Options{
		Key:         cfg.Storage.Key,
		Location:    loc,
		Logger:      logger,
		StartPolicy: policy,
	})
	return &app{cfg: cfg, log: logger, loc: loc, store: store, repo: repo}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level := slog.LevelDebug
	if !verbose {
		l, err := config.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// close writes pending changes and releases the store. A failed write exits
// with status 2.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := a.repo.Close(ctx)
	a.drainErrors()
	if cerr := a.store.Close(); cerr != nil {
		a.log.Warn("closing storage failed", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Saving sleep data failed: %v\n", err)
		os.Exit(2)
	}
}

func (a *app) drainErrors() {
	for {
		select {
		case err := <-a.repo.Errors():
			a.log.Debug("persistence error", "error", err)
		default:
			return
		}
	}
}

// fail closes the app, prints msg and exits with code.
func (a *app) fail(code int, msg string) {
	a.close()
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
