package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTransactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List imported transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			transactions, err := c.Transactions(context.Background())
			if err != nil {
				return err
			}
			if len(transactions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions yet. Run 'sentinel-cli import' first.")
				return nil
			}
			if limit > 0 && len(transactions) > limit {
				transactions = transactions[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tMERCHANT\tAMOUNT\tCATEGORY")
			for _, tx := range transactions {
				fmt.Fprintf(w, "%s\t%s\t%.2f %s\t%s\n", tx.Date, tx.Merchant, tx.Amount, tx.Currency, tx.Category)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many transactions")
	return cmd
}
