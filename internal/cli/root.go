package cli

import (
	"context"
	"errors"
	"fmt"

	bidding "fruitbid/internal/biddingService"
	"fruitbid/internal/config"
	"fruitbid/internal/repository"
	"fruitbid/utils"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // operation failed (storage, validation)
	ExitCommandError = 2 // bad flags or configuration
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, ExitFailure when none is attached
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds global flags and the resolved configuration
type RootOptions struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	Config *config.Config
}

// NewRootCommand creates the root command for the fruitbid CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fruitbid",
		Short: "FruitBid - a fresh produce marketplace",
		Long: `FruitBid lists lots of fresh produce and lets buyers bid on them.

Run "fruitbid serve" for the web UI and JSON API, or use the lots and bids
commands to work with the store directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewLotsCommand(opts))
	cmd.AddCommand(NewBidsCommand(opts))

	return cmd
}

// resolve loads config, applies flag overrides and configures logging
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.Store.Path = o.DBPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if err := utils.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return WrapExitError(ExitCommandError, "invalid log settings", err)
	}
	o.Config = cfg
	return nil
}

// openService opens the configured store and wraps it in a BiddingService.
// The returned close func releases the store.
func (o *RootOptions) openService(ctx context.Context) (*bidding.BiddingService, func(), error) {
	store, err := repository.Open(ctx, o.Config.Store.Driver, o.Config.Store.Path)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to open store", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			utils.Error("error closing store", map[string]any{"error": err.Error()})
		}
	}
	svc := bidding.NewBiddingService(store, bidding.WithTopBidsLimit(o.Config.Marketplace.TopBids))
	return svc, closeFn, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
