package cli

import (
	"fmt"
	"text/tabwriter"

	"fruitbid/internal/web"

	"github.com/spf13/cobra"
)

// NewLotsCommand creates the lots command group.
func NewLotsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lots",
		Short: "List and add produce lots",
	}
	cmd.AddCommand(newLotsListCommand(opts))
	cmd.AddCommand(newLotsAddCommand(opts))
	return cmd
}

func newLotsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, closeStore, err := opts.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			lots, err := svc.ListLots(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list lots", err)
			}
			if len(lots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no lots")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tITEM\tQUANTITY\tBASE PRICE\tADDED")
			for _, l := range lots {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.ID, l.ItemName, l.Quantity, web.FormatRupees(l.BasePrice), l.DateAdded)
			}
			return tw.Flush()
		},
	}
}

type lotsAddOptions struct {
	name     string
	quantity string
	price    float64
}

func newLotsAddCommand(opts *RootOptions) *cobra.Command {
	add := &lotsAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a lot dated today",
		Long: `Add a lot of produce to the marketplace.

Example:
  fruitbid lots add --name Apples --quantity "100 kg" --price 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, closeStore, err := opts.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			lot, err := svc.AddLot(ctx, add.name, add.quantity, add.price)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to add lot", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added lot %d: %s (%s) at %s\n",
				lot.ID, lot.ItemName, lot.Quantity, web.FormatRupees(lot.BasePrice))
			return nil
		},
	}

	cmd.Flags().StringVar(&add.name, "name", "", "item name (required)")
	cmd.Flags().StringVar(&add.quantity, "quantity", "", `quantity, e.g. "100 kg" (required)`)
	cmd.Flags().Float64Var(&add.price, "price", 0, "base price in rupees")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}
