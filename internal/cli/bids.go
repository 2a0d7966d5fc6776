package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"fruitbid/internal/models"
	"fruitbid/internal/web"

	"github.com/spf13/cobra"
)

// NewBidsCommand creates the bids command group.
func NewBidsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bids",
		Short: "Inspect bids",
	}
	cmd.AddCommand(newBidsTopCommand(opts))
	cmd.AddCommand(newBidsUserCommand(opts))
	return cmd
}

func newBidsTopCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top <lot-id>",
		Short: "Show the highest bids on a lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lotID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || lotID <= 0 {
				return WrapExitError(ExitCommandError, "invalid lot id", fmt.Errorf("%q", args[0]))
			}

			ctx := commandContext(cmd)
			svc, closeStore, err := opts.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			lot, err := svc.GetLot(ctx, lotID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load lot", err)
			}
			bids, err := svc.TopBids(ctx, lotID, limit)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load bids", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), base %s\n", lot.ItemName, lot.Quantity, web.FormatRupees(lot.BasePrice))
			if len(bids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no bids")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tBIDDER\tAMOUNT\tTIME")
			for i, b := range bids {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, b.UserName, web.FormatRupees(b.Amount), web.FormatTimestamp(b.Timestamp))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of bids to show (defaults to marketplace.top_bids)")
	return cmd
}

func newBidsUserCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user <name>",
		Short: "Show a bidder's history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, closeStore, err := opts.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			bids, err := svc.BidsByUser(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load bids", err)
			}
			writeUserBids(cmd, bids)
			return nil
		},
	}
}

func writeUserBids(cmd *cobra.Command, bids []models.UserBid) {
	if len(bids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no bids")
		return
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOT\tITEM\tAMOUNT\tTIME")
	for _, b := range bids {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.LotID, b.ItemName, web.FormatRupees(b.Amount), web.FormatTimestamp(b.Timestamp))
	}
	_ = tw.Flush()
}
