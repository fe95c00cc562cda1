package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/internal/server"
	"github.com/splitkit/splitkit/pkg/manifest"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the splitkit HTTP API",
		Long: `Run the splitkit HTTP API.

The server exposes the splitting pipeline over JSON (POST /v1/split) and
archives completed runs (GET /v1/runs, GET /v1/runs/{id}).

The manifest cache uses Redis when redis_url is configured, otherwise a
local file cache. The run archive uses MongoDB when mongo_uri is
configured, otherwise process memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr, else \":8080\")")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	cfg, err := c.config()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = defaultServeAddr
	}

	runner, err := c.newRunner(cmd, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize run archive: %w", err)
	}
	defer store.Close(context.Background())

	srv := server.New(runner, store, c.Logger)
	return srv.ListenAndServe(ctx, addr)
}

// newStore picks the run archive backend from the configuration.
func (c *CLI) newStore(ctx context.Context, cfg *Config) (manifest.Store, error) {
	if cfg.MongoURI == "" {
		c.Logger.Warn("no mongo_uri configured, archiving runs in memory")
		return manifest.NewMemoryStore(), nil
	}
	db := cfg.MongoDatabase
	if db == "" {
		db = appName
	}
	return manifest.NewMongoStore(ctx, cfg.MongoURI, db)
}
