package main

import (
	"context"
	"fmt"

	"backoffice/internal/app"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Customer master data",
}

var customerCreateCmd = &cobra.Command{
	Use:   "create <code> <name>",
	Short: "Create a customer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := customerRequestFromFlags(cmd, args[0], args[1])
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			customer, err := svc.CreateCustomer(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(customer)
		})
	},
}

var customerUpdateCmd = &cobra.Command{
	Use:   "update <code> <name>",
	Short: "Update a customer's details",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := customerRequestFromFlags(cmd, args[0], args[1])
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			customer, err := svc.UpdateCustomer(ctx, args[0], req)
			if err != nil {
				return err
			}
			return printJSON(customer)
		})
	},
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			customers, err := svc.ListCustomers(ctx)
			if err != nil {
				return err
			}
			return printJSON(customers)
		})
	},
}

func customerRequestFromFlags(cmd *cobra.Command, code, name string) app.CustomerRequest {
	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	address, _ := cmd.Flags().GetString("address")
	tpin, _ := cmd.Flags().GetString("tpin")
	return app.CustomerRequest{
		Code: code, Name: name, Email: email,
		Phone: phone, Address: address, TPIN: tpin,
	}
}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Product master data",
}

var productCreateCmd = &cobra.Command{
	Use:   "create <code> <name>",
	Short: "Create a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := productRequestFromFlags(cmd, args[0], args[1])
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			product, err := svc.CreateProduct(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(product)
		})
	},
}

var productUpdateCmd = &cobra.Command{
	Use:   "update <code> <name>",
	Short: "Update a product's details",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := productRequestFromFlags(cmd, args[0], args[1])
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			product, err := svc.UpdateProduct(ctx, args[0], req)
			if err != nil {
				return err
			}
			return printJSON(product)
		})
	},
}

var productDeactivateCmd = &cobra.Command{
	Use:   "deactivate <code>",
	Short: "Hide a product from new documents and movements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			if err := svc.DeactivateProduct(ctx, args[0]); err != nil {
				return err
			}
			return printJSON(map[string]string{"deactivated": args[0]})
		})
	},
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return runWithApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
			products, err := svc.ListProducts(ctx, !all)
			if err != nil {
				return err
			}
			return printJSON(products)
		})
	},
}

func productRequestFromFlags(cmd *cobra.Command, code, name string) (app.ProductRequest, error) {
	description, _ := cmd.Flags().GetString("description")
	unit, _ := cmd.Flags().GetString("unit")
	priceStr, _ := cmd.Flags().GetString("price")
	minStr, _ := cmd.Flags().GetString("min-stock")

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return app.ProductRequest{}, fmt.Errorf("invalid price %q: %w", priceStr, err)
	}
	minimum, err := decimal.NewFromString(minStr)
	if err != nil {
		return app.ProductRequest{}, fmt.Errorf("invalid min-stock %q: %w", minStr, err)
	}

	return app.ProductRequest{
		Code: code, Name: name, Description: description,
		Unit: unit, UnitPrice: price, MinimumStockLevel: minimum,
	}, nil
}

func init() {
	rootCmd.AddCommand(customerCmd, productCmd)
	customerCmd.AddCommand(customerCreateCmd, customerUpdateCmd, customerListCmd)
	productCmd.AddCommand(productCreateCmd, productUpdateCmd, productDeactivateCmd, productListCmd)

	for _, c := range []*cobra.Command{customerCreateCmd, customerUpdateCmd} {
		c.Flags().String("email", "", "Contact email")
		c.Flags().String("phone", "", "Contact phone")
		c.Flags().String("address", "", "Postal address")
		c.Flags().String("tpin", "", "Taxpayer identification number")
	}

	for _, c := range []*cobra.Command{productCreateCmd, productUpdateCmd} {
		c.Flags().String("description", "", "Product description")
		c.Flags().String("unit", "each", "Unit of measure")
		c.Flags().String("price", "0", "Unit price")
		c.Flags().String("min-stock", "0", "Minimum stock level for the low-stock alert")
	}
	productListCmd.Flags().Bool("all", false, "Include deactivated products")
}
