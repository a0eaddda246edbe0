package main

import (
	"fmt"
	"strings"

	"github.com/example/luxejewel-storefront/internal/admin"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func (sf *storefront) console(c *cli.Context) *admin.Console {
	confirm := admin.ConfirmFunc(func(question string) bool {
		if c.Bool("yes") {
			return true
		}
		answer, err := prompt(sf.in, sf.out, question+" [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	})
	return admin.NewConsole(sf.client, sf.session, confirm, sf.log)
}

func productFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: required},
		&cli.StringFlag{Name: "description", Required: required},
		&cli.StringFlag{Name: "price", Required: required, Usage: "e.g. 2499 or 1149.50"},
		&cli.StringFlag{Name: "category", Required: required},
		&cli.StringFlag{Name: "image-url", Required: required},
		&cli.IntFlag{Name: "stock", Required: required},
	}
}

// applyProductFlags overlays the flags that were set onto in.
func applyProductFlags(c *cli.Context, in *product.Input) error {
	if c.IsSet("name") {
		in.Name = c.String("name")
	}
	if c.IsSet("description") {
		in.Description = c.String("description")
	}
	if c.IsSet("price") {
		p, err := decimal.NewFromString(c.String("price"))
		if err != nil {
			return fmt.Errorf("price %q is not a number", c.String("price"))
		}
		in.Price = p
	}
	if c.IsSet("category") {
		in.Category = c.String("category")
	}
	if c.IsSet("image-url") {
		in.ImageURL = c.String("image-url")
	}
	if c.IsSet("stock") {
		in.Stock = c.Int("stock")
	}
	return nil
}

func (sf *storefront) adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "store administration",
		Subcommands: []*cli.Command{
			{
				Name:  "analytics",
				Usage: "show the dashboard",
				Action: func(c *cli.Context) error {
					a, err := sf.console(c).Analytics(c.Context)
					if err != nil {
						return err
					}
					return printAnalytics(sf.out, a)
				},
			},
			{
				Name:  "products",
				Usage: "list every product",
				Action: func(c *cli.Context) error {
					products, err := sf.console(c).Products(c.Context)
					if err != nil {
						return err
					}
					return printProducts(sf.out, products)
				},
			},
			{
				Name:  "product",
				Usage: "create, update or delete a product",
				Subcommands: []*cli.Command{
					{
						Name:  "create",
						Flags: productFlags(true),
						Action: func(c *cli.Context) error {
							var in product.Input
							if err := applyProductFlags(c, &in); err != nil {
								return err
							}
							products, err := sf.console(c).CreateProduct(c.Context, in)
							if err != nil {
								return err
							}
							fmt.Fprintln(sf.out, "Product created successfully")
							return printProducts(sf.out, products)
						},
					},
					{
						Name:      "update",
						ArgsUsage: "<product-id>",
						Flags:     productFlags(false),
						Action: func(c *cli.Context) error {
							id, err := requireArg(c, 0, "product-id")
							if err != nil {
								return err
							}
							existing, err := sf.catalog.Product(c.Context, id)
							if err != nil {
								return err
							}
							in := product.InputFrom(*existing)
							if err := applyProductFlags(c, &in); err != nil {
								return err
							}
							products, err := sf.console(c).UpdateProduct(c.Context, id, in)
							if err != nil {
								return err
							}
							fmt.Fprintln(sf.out, "Product updated successfully")
							return printProducts(sf.out, products)
						},
					},
					{
						Name:      "delete",
						ArgsUsage: "<product-id>",
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation"}},
						Action: func(c *cli.Context) error {
							id, err := requireArg(c, 0, "product-id")
							if err != nil {
								return err
							}
							products, err := sf.console(c).DeleteProduct(c.Context, id)
							if err != nil {
								return err
							}
							fmt.Fprintln(sf.out, "Product deleted successfully")
							return printProducts(sf.out, products)
						},
					},
				},
			},
			{
				Name:  "orders",
				Usage: "list every order",
				Action: func(c *cli.Context) error {
					list, err := sf.console(c).Orders(c.Context)
					if err != nil {
						return err
					}
					return printOrders(sf.out, list)
				},
			},
			{
				Name:      "order-status",
				Usage:     "set an order's fulfilment status",
				ArgsUsage: "<order-id> <pending|confirmed|shipped|delivered|cancelled>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, 0, "order-id")
					if err != nil {
						return err
					}
					status, err := requireArg(c, 1, "status")
					if err != nil {
						return err
					}
					list, err := sf.console(c).UpdateOrderStatus(c.Context, id, status)
					if err != nil {
						return err
					}
					fmt.Fprintln(sf.out, "Order status updated")
					return printOrders(sf.out, list)
				},
			},
		},
	}
}
