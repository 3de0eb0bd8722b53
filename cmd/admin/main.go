// Command loomworks-admin is the operator CLI: it reads and updates orders
// and stock directly against the configured backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dukerupert/loomworks/internal"
	"github.com/dukerupert/loomworks/internal/bootstrap"
	"github.com/dukerupert/loomworks/internal/service"
	"github.com/spf13/cobra"
)

var Version = "dev"

// app is what every subcommand runs against.
type app struct {
	orders    service.OrderService
	inventory service.InventoryService
	out       io.Writer
	close     func()
}

// opener builds an app. Tests swap it for one backed by memory stores.
type opener func(ctx context.Context) (*app, error)

func openFromConfig(ctx context.Context) (*app, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	if cfg.StoreBackend == internal.BackendMemory {
		return nil, fmt.Errorf("STORE_BACKEND is memory; the admin CLI needs postgres or mongo")
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, false, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		orders:    service.NewOrderService(stores.Orders, nil, logger),
		inventory: service.NewInventoryService(stores.Stock, logger),
		out:       os.Stdout,
		close:     stores.Close,
	}, nil
}

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "loomworks-admin",
		Short:         "Loomworks operator tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(ordersCmd(open))
	rootCmd.AddCommand(stockCmd(open))
	rootCmd.AddCommand(migrateCmd())

	return rootCmd
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	if a.close != nil {
		defer a.close()
	}
	if a.out == nil {
		a.out = cmd.OutOrStdout()
	}
	return fn(ctx, a)
}

func main() {
	if err := newRootCmd(openFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
