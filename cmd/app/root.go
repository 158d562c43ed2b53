package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"backoffice/internal/app"
	"backoffice/internal/db"
	"backoffice/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var actorID int

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Back-office CLI for inventory, invoicing and receivables",
	Long: `backoffice manages the stock ledger, invoices, quotations, payments
and receivables reports against a PostgreSQL database.

All amounts are computed with exact decimal arithmetic; stock and payment
writes are transactional and idempotent.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&actorID, "actor", 1, "User ID recorded on mutating operations")
}

// runWithApp opens the database, builds the application service, runs fn
// and closes the pool after.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, svc app.ApplicationService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := db.NewPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, app.NewAppService(pool))
}

// printJSON renders any result as indented JSON on stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
