package main

import (
	"context"

	"backoffice/internal/app"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quotation lifecycle operations",
}

var quoteCreateCmd = &cobra.Command{
	Use:   "create <customer-code>",
	Short: "Create a Draft quotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawLines, _ := cmd.Flags().GetStringArray("line")
		date, _ := cmd.Flags().GetString("date")
		validUntil, _ := cmd.Flags().GetString("valid-until")
		ppda, _ := cmd.Flags().GetBool("ppda")
		notes, _ := cmd.Flags().GetString("notes")

		lines, err := parseLines(rawLines)
		if err != nil {
			return err
		}

		req := app.CreateQuotationRequest{
			CustomerCode: args[0],
			QuoteDate:    date,
			ValidUntil:   validUntil,
			PPDAEnabled:  ppda,
			Notes:        notes,
			Lines:        lines,
			ActorID:      actorID,
		}

		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.CreateQuotation(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var quoteSendCmd = &cobra.Command{
	Use:   "send <quotation-number>",
	Short: "Transition a Draft quotation to Sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.SendQuotation(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var quoteDeclineCmd = &cobra.Command{
	Use:   "decline <quotation-number>",
	Short: "Mark a quotation Declined",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.DeclineQuotation(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var quoteAcceptCmd = &cobra.Command{
	Use:   "accept <quotation-number>",
	Short: "Accept a Sent quotation and create a Draft invoice from it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		due, _ := cmd.Flags().GetString("due")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.AcceptQuotation(ctx, actorID, args[0], due)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var quoteExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Sweep Sent quotations past their validity date into Expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, _ := cmd.Flags().GetString("as-of")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			n, err := svc.ExpireQuotations(ctx, asOf)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"expired": n})
		})
	},
}

var quoteShowCmd = &cobra.Command{
	Use:   "show <quotation-number>",
	Short: "Show one quotation with its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.GetQuotation(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var quoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quotations, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			result, err := svc.ListQuotations(ctx, status)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.AddCommand(quoteCreateCmd, quoteSendCmd, quoteDeclineCmd, quoteAcceptCmd, quoteExpireCmd, quoteShowCmd, quoteListCmd)

	quoteCreateCmd.Flags().StringArray("line", nil, `Quotation line as "description|quantity|unit|rate" (repeatable)`)
	quoteCreateCmd.Flags().String("date", "", "Quote date (YYYY-MM-DD, default today)")
	quoteCreateCmd.Flags().String("valid-until", "", "Validity date (YYYY-MM-DD)")
	quoteCreateCmd.Flags().Bool("ppda", false, "Apply the PPDA levy to this quotation")
	quoteCreateCmd.Flags().String("notes", "", "Free-text notes")

	quoteAcceptCmd.Flags().String("due", "", "Due date for the created invoice (YYYY-MM-DD)")
	quoteExpireCmd.Flags().String("as-of", "", "Reference date (YYYY-MM-DD, default today)")
	quoteListCmd.Flags().String("status", "", "Filter by status (Draft, Sent, Accepted, Declined, Expired)")
}
