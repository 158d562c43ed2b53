package main

import (
	"context"
	"fmt"
	"strings"

	"backoffice/internal/app"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Invoice lifecycle operations",
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create <customer-code>",
	Short: "Create a Draft invoice",
	Long: `Create a Draft invoice for a customer. Lines are passed with repeated
--line flags in the form "description|quantity|unit|rate", e.g.

  backoffice invoice create CUST-001 \
      --line "Cement 50kg|10|bag|12500" \
      --line "Delivery|1|trip|30000" \
      --due 2026-04-30 --ppda`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawLines, _ := cmd.Flags().GetStringArray("line")
		date, _ := cmd.Flags().GetString("date")
		due, _ := cmd.Flags().GetString("due")
		ppda, _ := cmd.Flags().GetBool("ppda")
		notes, _ := cmd.Flags().GetString("notes")

		lines, err := parseLines(rawLines)
		if err != nil {
			return err
		}

		req := app.CreateInvoiceRequest{
			CustomerCode: args[0],
			InvoiceDate:  date,
			DueDate:      due,
			PPDAEnabled:  ppda,
			Notes:        notes,
			Lines:        lines,
			ActorID:      actorID,
		}

		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.CreateInvoice(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var invoiceSendCmd = &cobra.Command{
	Use:   "send <invoice-number>",
	Short: "Transition a Draft invoice to Sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.SendInvoice(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var invoiceCancelCmd = &cobra.Command{
	Use:   "cancel <invoice-number>",
	Short: "Cancel a non-terminal invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.CancelInvoice(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var invoiceShowCmd = &cobra.Command{
	Use:   "show <invoice-number>",
	Short: "Show one invoice with its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.GetInvoice(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.ListInvoices(ctx, status)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var invoiceOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Sweep open invoices past their due date into Overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, _ := cmd.Flags().GetString("as-of")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			n, err := svc.MarkOverdue(ctx, asOf)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"marked_overdue": n})
		})
	},
}

// parseLines turns "description|quantity|unit|rate" strings into requests.
func parseLines(raw []string) ([]app.InvoiceLineRequest, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one --line is required")
	}
	lines := make([]app.InvoiceLineRequest, len(raw))
	for i, entry := range raw {
		parts := strings.Split(entry, "|")
		if len(parts) != 4 {
			return nil, fmt.Errorf("line %d: want description|quantity|unit|rate, got %q", i+1, entry)
		}
		quantity, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid quantity %q: %w", i+1, parts[1], err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rate %q: %w", i+1, parts[3], err)
		}
		lines[i] = app.InvoiceLineRequest{
			Description: strings.TrimSpace(parts[0]),
			Quantity:    quantity,
			Unit:        strings.TrimSpace(parts[2]),
			RatePerUnit: rate,
		}
	}
	return lines, nil
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceCreateCmd, invoiceSendCmd, invoiceCancelCmd, invoiceShowCmd, invoiceListCmd, invoiceOverdueCmd)

	invoiceCreateCmd.Flags().StringArray("line", nil, `Invoice line as "description|quantity|unit|rate" (repeatable)`)
	invoiceCreateCmd.Flags().String("date", "", "Invoice date (YYYY-MM-DD, default today)")
	invoiceCreateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	invoiceCreateCmd.Flags().Bool("ppda", false, "Apply the PPDA levy to this invoice")
	invoiceCreateCmd.Flags().String("notes", "", "Free-text notes")

	invoiceListCmd.Flags().String("status", "", "Filter by status (Draft, Sent, Partially Paid, Paid, Overdue, Cancelled)")
	invoiceOverdueCmd.Flags().String("as-of", "", "Reference date (YYYY-MM-DD, default today)")
}
