package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridbooth/gridbooth/internal/web"
	"github.com/gridbooth/gridbooth/pkg/cache"
	"github.com/gridbooth/gridbooth/pkg/config"
	"github.com/gridbooth/gridbooth/pkg/pipeline"
	"github.com/gridbooth/gridbooth/pkg/printer"
	"github.com/gridbooth/gridbooth/pkg/session"
	"github.com/gridbooth/gridbooth/pkg/storage"
)

// serveCommand creates the serve command running the kiosk HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk HTTP API",
		Long: `Run the kiosk HTTP API.

The server wires the configured cache, composite storage, session store
and print service behind the REST endpoints the kiosk frontend talks to.
Configuration comes from booth.toml (see --config); every section is
optional and the defaults run a single-booth kiosk out of the box.

The server runs until interrupted and shuts down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: ~/.config/gridbooth/booth.toml)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config file")

	return cmd
}

// runServe loads the configuration, wires the backends and serves until
// the context is cancelled.
func (c *CLI) runServe(ctx context.Context, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.RegisterLayouts(); err != nil {
		return fmt.Errorf("register layouts: %w", err)
	}

	pipelineCache, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("build cache: %w", err)
	}

	sessions, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build session store: %w", err)
	}
	defer sessions.Close()

	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("build storage: %w", err)
	}

	printClient, err := buildPrinter(cfg)
	if err != nil {
		return fmt.Errorf("build printer: %w", err)
	}
	if cfg.Printer.Endpoint == "" {
		printWarning("No printer endpoint configured, print jobs complete without printing")
	}

	composeDefaults, err := cfg.ComposeOptions()
	if err != nil {
		return fmt.Errorf("compose defaults: %w", err)
	}

	runner := pipeline.NewRunner(pipelineCache, nil, c.Logger)
	defer runner.Close()

	srv := web.NewServer(web.Options{
		Addr:            cfg.Server.Addr,
		BaseURL:         cfg.Server.BaseURL,
		Runner:          runner,
		Store:           store,
		Sessions:        sessions,
		Printer:         printClient,
		SessionTTL:      cfg.Session.TTL.Duration,
		Logger:          c.Logger,
		ComposeDefaults: composeDefaults,
	})

	go c.cleanupSessions(ctx, sessions, cfg.Session.TTL.Duration)

	printInfo("Booth API listening on %s", cfg.Server.Addr)
	printDetail("Base URL: %s", cfg.Server.BaseURL)
	printDetail("Press Ctrl+C to stop")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cleanupSessions removes expired sessions on a fixed interval until the
// context is cancelled.
func (c *CLI) cleanupSessions(ctx context.Context, store session.Store, ttl time.Duration) {
	interval := ttl / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				c.Logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

// buildCache selects the pipeline cache backend from the config.
func buildCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(cfg.Cache.RedisAddr, "", cfg.Cache.RedisDB)
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// buildSessionStore selects the session store backend from the config.
func buildSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "file":
		return session.NewFileStore(cfg.Session.Dir)
	case "mongo":
		return session.NewMongoStore(ctx, session.MongoConfig{
			URI:      cfg.Session.MongoURI,
			Database: cfg.Session.MongoDB,
		})
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// buildPrinter returns the print client, or the null client when no
// endpoint is configured.
func buildPrinter(cfg *config.Config) (printer.Client, error) {
	if cfg.Printer.Endpoint == "" {
		return printer.NewNullClient(), nil
	}
	return printer.NewHTTPClient(cfg.Printer.Endpoint, cfg.Printer.APIKey, cfg.Printer.Timeout.Duration)
}
