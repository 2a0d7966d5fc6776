package cli

import (
	"os"
	"os/signal"
	"syscall"

	"fruitbid/internal/server"
	"fruitbid/internal/session"
	"fruitbid/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Long: `Start the FruitBid HTTP server.

The store is opened (and migrated), sample lots are seeded once when the
store is empty and seeding is enabled, then pages and the JSON API are served
until SIGINT or SIGTERM.

Example:
  fruitbid serve --db ./fruitbid.db --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config and PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := opts.Config
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := opts.openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Store.Seed {
		if _, err := svc.SeedIfEmpty(ctx); err != nil {
			return WrapExitError(ExitFailure, "failed to seed sample lots", err)
		}
	}

	sessions := session.NewManager(cfg.Server.SessionTTL)
	defer sessions.Close()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := server.SetupRouter(svc, sessions)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build router", err)
	}

	utils.Info("starting fruitbid", map[string]any{
		"addr":   cfg.Server.Addr,
		"driver": cfg.Store.Driver,
		"path":   cfg.Store.Path,
	})
	if err := server.Run(ctx, cfg.Server.Addr, router, cfg.Server.ShutdownTimeout); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
