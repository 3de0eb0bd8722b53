package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/email"
	"github.com/spf13/cobra"
)

func ordersCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and update orders",
	}

	cmd.AddCommand(ordersListCmd(open))
	cmd.AddCommand(ordersShowCmd(open))
	cmd.AddCommand(ordersSetStatusCmd(open))
	cmd.AddCommand(ordersSetPaymentCmd(open))

	return cmd
}

func ordersListCmd(open opener) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				orders, err := a.orders.ListOrders(ctx, domain.OrderStatus(status))
				if err != nil {
					return err
				}
				if len(orders) == 0 {
					fmt.Fprintln(a.out, "No orders.")
					return nil
				}

				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tPAYMENT\tTOTAL\tCUSTOMER")
				for _, o := range orders {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						o.ID,
						o.CreatedAt.Format("2006-01-02 15:04"),
						o.Status,
						o.PaymentStatus,
						email.FormatCents(o.Total),
						o.CustomerEmail,
					)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only orders with this status")

	return cmd
}

func ordersShowCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Print one order as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				order, err := a.orders.GetOrderByID(ctx, args[0])
				if err != nil {
					return err
				}
				if order == nil {
					return domain.ErrOrderNotFound
				}
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(order)
			})
		},
	}
}

func ordersSetStatusCmd(open opener) *cobra.Command {
	var tracking string

	cmd := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order to a fulfillment status",
		Long: `Move an order to a fulfillment status.

Passing --tracking stores a tracking number and, for orders not yet
shipped, promotes them to shipped. --tracking "" clears the number.
Omitting the flag leaves it unchanged.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var trackingPtr *string
			if cmd.Flags().Changed("tracking") {
				trackingPtr = &tracking
			}
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				order, err := a.orders.UpdateOrderStatus(ctx, args[0], domain.OrderStatus(args[1]), trackingPtr)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Order %s is now %s", order.ID, order.Status)
				if order.TrackingNumber != "" {
					fmt.Fprintf(a.out, " (tracking %s)", order.TrackingNumber)
				}
				fmt.Fprintln(a.out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tracking, "tracking", "t", "", "Tracking number")

	return cmd
}

func ordersSetPaymentCmd(open opener) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "set-payment <order-id> <payment-status>",
		Short: "Record a payment status change made outside the webhook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				order, err := a.orders.UpdateOrderPaymentStatus(ctx, args[0], domain.PaymentStatus(args[1]), method)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Order %s payment is now %s (order %s)\n", order.ID, order.PaymentStatus, order.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "Payment method, e.g. bank_transfer")

	return cmd
}
