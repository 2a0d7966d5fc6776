package cli

import (
	"fmt"

	"fruitbid/internal/repository"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users, lots and bids tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			store, err := repository.Open(ctx, opts.Config.Store.Driver, opts.Config.Store.Path)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to open store", err)
			}
			defer store.Close()

			// Open already applied the schema; running it again is a no-op
			if sq, ok := store.(*repository.SQLiteRepo); ok {
				if err := sq.Migrate(ctx); err != nil {
					return WrapExitError(ExitFailure, "migration failed", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", opts.Config.Store.Driver)
			return nil
		},
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample lots when the store has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, closeStore, err := opts.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := svc.SeedIfEmpty(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "seeding failed", err)
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "store already has lots; nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d sample lots\n", n)
			return nil
		},
	}
}
