package main

import (
	"context"

	"backoffice/internal/app"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Receivables and stock reports",
}

var reportStatementCmd = &cobra.Command{
	Use:   "statement <customer-code>",
	Short: "Customer statement with running balance and aging",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, _ := cmd.Flags().GetString("as-of")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.GetCustomerStatement(ctx, args[0], asOf)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var reportAgingCmd = &cobra.Command{
	Use:   "aging",
	Short: "Company-wide receivables aging schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, _ := cmd.Flags().GetString("as-of")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.GetAgingReport(ctx, asOf)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var reportStockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Stock levels with status classification",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.GetStockReport(ctx)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportStatementCmd, reportAgingCmd, reportStockCmd)

	reportStatementCmd.Flags().String("as-of", "", "Statement date (YYYY-MM-DD, default today)")
	reportAgingCmd.Flags().String("as-of", "", "Report date (YYYY-MM-DD, default today)")
}
