package main

import (
	"context"
	"fmt"

	"backoffice/internal/app"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Payment operations",
}

var paymentRecordCmd = &cobra.Command{
	Use:   "record <invoice-number> <amount>",
	Short: "Apply a payment to an invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		date, _ := cmd.Flags().GetString("date")
		method, _ := cmd.Flags().GetString("method")
		reference, _ := cmd.Flags().GetString("reference")

		req := app.RecordPaymentRequest{
			InvoiceNumber:   args[0],
			Amount:          amount,
			PaymentDate:     date,
			Method:          method,
			ReferenceNumber: reference,
			ActorID:         actorID,
		}

		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.RecordPayment(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var paymentListCmd = &cobra.Command{
	Use:   "list <invoice-number>",
	Short: "Show the payment ledger for one invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.ListPayments(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentRecordCmd, paymentListCmd)

	paymentRecordCmd.Flags().String("date", "", "Payment date (YYYY-MM-DD, default today)")
	paymentRecordCmd.Flags().String("method", "bank_transfer", "Payment method (cash, bank_transfer, cheque, mobile_money)")
	paymentRecordCmd.Flags().String("reference", "", "Bank or receipt reference (default generated)")
}
