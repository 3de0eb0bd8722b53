package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func stockCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Read and set product stock",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <product-id>",
		Short: "Print the stock counter for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				n, err := a.inventory.GetStock(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\t%d\n", args[0], n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <count>",
		Short: "Overwrite the stock counter for a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("count must be a whole number: %w", err)
			}
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				if err := a.inventory.SetStock(ctx, args[0], n); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\t%d\n", args[0], n)
				return nil
			})
		},
	})

	return cmd
}
