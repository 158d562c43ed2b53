package main

import (
	"context"
	"fmt"

	"backoffice/internal/app"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Stock ledger operations",
}

var stockReceiveCmd = &cobra.Command{
	Use:   "receive <product-code> <quantity>",
	Short: "Record a goods receipt",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runMovement(cmd, args, "receive") },
}

var stockRemoveCmd = &cobra.Command{
	Use:   "remove <product-code> <quantity>",
	Short: "Record a sale or issue from stock",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runMovement(cmd, args, "remove") },
}

var stockAdjustCmd = &cobra.Command{
	Use:   "adjust <product-code> -- <signed-quantity>",
	Short: "Record a stocktake correction (signed quantity)",
	Long: `Record a stocktake correction. The quantity is signed: positive adds
to stock, negative removes. A negative quantity must follow a "--" so it
is not read as a flag:

  backoffice stock adjust PRD-001 --reference "stocktake 2026-08" -- -3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error { return runMovement(cmd, args, "adjust") },
}

var stockReturnCmd = &cobra.Command{
	Use:   "return <product-code> <quantity>",
	Short: "Record a customer return into stock",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runMovement(cmd, args, "return") },
}

var stockLevelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show cached stock levels with status",
	RunE: func(cmd *cobra.Command, args []string) error {
		lowOnly, _ := cmd.Flags().GetBool("low")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			var result *app.StockLevelsResult
			var err error
			if lowOnly {
				result, err = svc.GetLowStock(ctx)
			} else {
				result, err = svc.GetStockLevels(ctx)
			}
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var stockHistoryCmd = &cobra.Command{
	Use:   "history <product-code>",
	Short: "Show a product's movement ledger with running balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.GetTransactionHistory(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

func runMovement(cmd *cobra.Command, args []string, kind string) error {
	quantity, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", args[1], err)
	}
	date, _ := cmd.Flags().GetString("date")
	reference, _ := cmd.Flags().GetString("reference")
	key, _ := cmd.Flags().GetString("idempotency-key")

	req := app.MovementRequest{
		ProductCode:    args[0],
		Quantity:       quantity,
		OccurredAt:     date,
		Reference:      reference,
		IdempotencyKey: key,
		ActorID:        actorID,
	}

	return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
		var result *app.MovementResult
		var err error
		switch kind {
		case "receive":
			result, err = svc.ReceiveStock(ctx, req)
		case "remove":
			result, err = svc.RemoveStock(ctx, req)
		case "adjust":
			result, err = svc.AdjustStock(ctx, req)
		case "return":
			result, err = svc.ReturnStock(ctx, req)
		}
		if err != nil {
			return err
		}
		return printJSON(result)
	})
}

func init() {
	rootCmd.AddCommand(stockCmd)
	stockCmd.AddCommand(stockReceiveCmd, stockRemoveCmd, stockAdjustCmd, stockReturnCmd, stockLevelsCmd, stockHistoryCmd)

	for _, c := range []*cobra.Command{stockReceiveCmd, stockRemoveCmd, stockAdjustCmd, stockReturnCmd} {
		c.Flags().String("date", "", "Movement date (YYYY-MM-DD, default today)")
		c.Flags().String("reference", "", "Free-text reference (GRN, invoice number, reason)")
		c.Flags().String("idempotency-key", "", "Client-supplied key to make retries safe")
	}
	stockLevelsCmd.Flags().Bool("low", false, "Show only LOW_STOCK and OUT_OF_STOCK products")
}
