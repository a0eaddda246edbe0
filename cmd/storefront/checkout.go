package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/example/luxejewel-storefront/internal/checkout"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/gateway"
	"github.com/example/luxejewel-storefront/internal/infrastructure/kafka"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/urfave/cli/v2"
)

func (sf *storefront) checkoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkout",
		Usage: "pay for your cart",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "full-name", Usage: "defaults to your account name"},
			&cli.StringFlag{Name: "email", Usage: "defaults to your account email"},
			&cli.StringFlag{Name: "phone"},
			&cli.StringFlag{Name: "address"},
			&cli.StringFlag{Name: "city"},
			&cli.StringFlag{Name: "state"},
			&cli.StringFlag{Name: "pincode"},
			&cli.StringFlag{Name: "gateway", Usage: "payment widget: browser or sandbox (default from STOREFRONT_GATEWAY)"},
			&cli.BoolFlag{Name: "decline", Usage: "sandbox gateway declines the payment"},
		},
		Action: sf.runCheckout,
	}
}

func (sf *storefront) runCheckout(c *cli.Context) error {
	widget, closeWidget, err := sf.widget(c)
	if err != nil {
		return err
	}
	defer closeWidget()

	observers := []checkout.Observer{checkout.NewLogObserver(sf.log)}
	if len(sf.cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(sf.cfg.KafkaBrokers, sf.cfg.KafkaTopic, sf.log)
		defer producer.Close()
		journal := checkout.NewJournalObserver(producer, sf.log)
		defer journal.Close()
		observers = append(observers, journal)
	}
	merchant := checkout.Merchant{
		Name:        sf.cfg.MerchantName,
		Description: sf.cfg.MerchantDescription,
		ThemeColor:  sf.cfg.ThemeColor,
	}
	o := checkout.NewOrchestrator(sf.session, sf.cart, sf.client, widget, merchant, sf.log, observers...)

	redirect, err := o.Begin(c.Context)
	if err != nil {
		return err
	}
	switch redirect {
	case checkout.RedirectLogin:
		return session.ErrAuth
	case checkout.RedirectCatalog:
		_, err := fmt.Fprintln(sf.out, "Your cart is empty. Browse products with: storefront products")
		return err
	}

	if err := printCart(sf.out, sf.cart.Snapshot()); err != nil {
		return err
	}
	if err := o.Submit(c.Context, sf.shippingAddress(c)); err != nil {
		return err
	}
	fmt.Fprintln(sf.out, "\nComplete the payment in the payment window...")

	state, err := o.Wait(c.Context)
	if ctxErr := c.Context.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return fmt.Errorf("checkout abandoned while %s", state)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(sf.out, "Payment successful! Order placed. Order #%s\n",
		order.Order{ID: o.Order().OrderID}.ShortID())
	return err
}

// shippingAddress builds the form from flags, prefilled from the signed-in profile.
func (sf *storefront) shippingAddress(c *cli.Context) order.ShippingAddress {
	u, _ := sf.session.Current()
	a := order.ShippingAddress{
		FullName: u.Name,
		Email:    u.Email,
		Phone:    c.String("phone"),
		Address:  c.String("address"),
		City:     c.String("city"),
		State:    c.String("state"),
		Pincode:  c.String("pincode"),
	}
	if c.IsSet("full-name") {
		a.FullName = c.String("full-name")
	}
	if c.IsSet("email") {
		a.Email = c.String("email")
	}
	return a
}

func (sf *storefront) widget(c *cli.Context) (gateway.Widget, func(), error) {
	kind := sf.cfg.Gateway
	if c.IsSet("gateway") {
		kind = c.String("gateway")
	}

	switch kind {
	case "sandbox":
		opts := []gateway.SandboxOption{gateway.WithSandboxLogger(sf.log)}
		if c.Bool("decline") {
			opts = append(opts, gateway.WithDecline())
		}
		return gateway.NewSandboxWidget(sf.cfg.SandboxURL, opts...), func() {}, nil
	case "browser":
		loader := gateway.NewScriptLoader(sf.cfg.GatewayScriptURL, &http.Client{Timeout: sf.cfg.RequestTimeout}, sf.log)
		w := gateway.NewBrowserWidget(loader, nil, sf.log)
		return w, func() { _ = w.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown gateway %q: use browser or sandbox", kind)
}
