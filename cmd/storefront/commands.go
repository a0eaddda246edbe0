package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/example/luxejewel-storefront/internal/catalog"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/urfave/cli/v2"
)

// Account

func (sf *storefront) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in to your account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "prompted for when omitted"},
		},
		Action: func(c *cli.Context) error {
			password, err := sf.passwordFlag(c)
			if err != nil {
				return err
			}
			if _, err := sf.session.Login(c.Context, c.String("email"), password); err != nil {
				return err
			}
			u, _ := sf.session.Current()
			_, err = fmt.Fprintf(sf.out, "Welcome back, %s!\n", u.Name)
			return err
		},
	}
}

func (sf *storefront) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "prompted for when omitted"},
		},
		Action: func(c *cli.Context) error {
			password, err := sf.passwordFlag(c)
			if err != nil {
				return err
			}
			if _, err := sf.session.Register(c.Context, c.String("name"), c.String("email"), password); err != nil {
				return err
			}
			_, err = fmt.Fprintln(sf.out, "Account created successfully!")
			return err
		},
	}
}

func (sf *storefront) passwordFlag(c *cli.Context) (string, error) {
	if c.IsSet("password") {
		return c.String("password"), nil
	}
	return prompt(sf.in, sf.out, "Password: ")
}

func (sf *storefront) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "sign out",
		Action: func(c *cli.Context) error {
			sf.session.Logout()
			_, err := fmt.Fprintln(sf.out, "Logged out.")
			return err
		},
	}
}

func (sf *storefront) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in account",
		Action: func(c *cli.Context) error {
			u, ok := sf.session.Current()
			if !ok {
				return session.ErrAuth
			}
			role := "customer"
			if u.IsAdmin {
				role = "admin"
			}
			_, err := fmt.Fprintf(sf.out, "%s <%s> (%s)\n", u.Name, u.Email, role)
			return err
		},
	}
}

// Catalogue

func (sf *storefront) productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "list products, optionally in one category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Value: catalog.AllCategories},
			&cli.BoolFlag{Name: "featured", Usage: "show only the landing page selection"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("featured") {
				products, err := sf.catalog.Featured(c.Context)
				if err != nil {
					return err
				}
				return printProducts(sf.out, products)
			}

			filter := catalog.ParseFilter(url.Values{"category": {c.String("category")}})
			products, err := sf.catalog.Browse(c.Context, filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(sf.out, "%s\n\n", filter.Label())
			return printProducts(sf.out, products)
		},
	}
}

func (sf *storefront) productCommand() *cli.Command {
	return &cli.Command{
		Name:      "product",
		Usage:     "show one product",
		ArgsUsage: "<product-id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, 0, "product-id")
			if err != nil {
				return err
			}
			p, err := sf.catalog.Product(c.Context, id)
			if err != nil {
				return err
			}
			return printProduct(sf.out, p)
		},
	}
}

func (sf *storefront) categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "list product categories",
		Action: func(c *cli.Context) error {
			categories, err := sf.catalog.Categories(c.Context)
			if err != nil {
				return err
			}
			for _, category := range categories {
				fmt.Fprintln(sf.out, category)
			}
			return nil
		},
	}
}

// Cart

func (sf *storefront) cartCommand() *cli.Command {
	show := func(c *cli.Context) error {
		current, err := sf.cart.Fetch(c.Context)
		if err != nil {
			return err
		}
		return printCart(sf.out, current)
	}

	return &cli.Command{
		Name:   "cart",
		Usage:  "show or change your cart",
		Action: show,
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "add a product",
				ArgsUsage: "<product-id>",
				Flags:     []cli.Flag{&cli.IntFlag{Name: "qty", Aliases: []string{"q"}, Value: 1}},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, 0, "product-id")
					if err != nil {
						return err
					}
					if _, err := sf.cart.Fetch(c.Context); err != nil {
						return err
					}
					if err := sf.cart.Add(c.Context, id, c.Int("qty")); err != nil {
						return err
					}
					fmt.Fprintln(sf.out, "Added to cart!")
					return printCart(sf.out, sf.cart.Snapshot())
				},
			},
			{
				Name:      "set",
				Usage:     "set a line's quantity; 0 removes it",
				ArgsUsage: "<product-id> <quantity>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, 0, "product-id")
					if err != nil {
						return err
					}
					raw, err := requireArg(c, 1, "quantity")
					if err != nil {
						return err
					}
					qty, err := strconv.Atoi(raw)
					if err != nil {
						return fmt.Errorf("quantity %q is not a number", raw)
					}
					if _, err := sf.cart.Fetch(c.Context); err != nil {
						return err
					}
					if err := sf.cart.SetQuantity(c.Context, id, qty); err != nil {
						return err
					}
					return printCart(sf.out, sf.cart.Snapshot())
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a product",
				ArgsUsage: "<product-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, 0, "product-id")
					if err != nil {
						return err
					}
					if err := sf.cart.Remove(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintln(sf.out, "Item removed from cart")
					return printCart(sf.out, sf.cart.Snapshot())
				},
			},
			{
				Name:  "clear",
				Usage: "empty the cart",
				Action: func(c *cli.Context) error {
					if err := sf.cart.Clear(c.Context); err != nil {
						return err
					}
					_, err := fmt.Fprintln(sf.out, "Cart cleared.")
					return err
				},
			},
		},
	}
}

// Orders

func (sf *storefront) ordersCommand() *cli.Command {
	return &cli.Command{
		Name:      "orders",
		Usage:     "list your orders, or show one",
		ArgsUsage: "[order-id]",
		Action: func(c *cli.Context) error {
			if id := c.Args().First(); id != "" {
				o, err := sf.orders.Get(c.Context, id)
				if err != nil {
					return err
				}
				return printOrder(sf.out, o)
			}
			list, err := sf.orders.List(c.Context)
			if err != nil {
				return err
			}
			return printOrders(sf.out, list)
		},
	}
}

func requireArg(c *cli.Context, i int, name string) (string, error) {
	v := c.Args().Get(i)
	if v == "" {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return v, nil
}
