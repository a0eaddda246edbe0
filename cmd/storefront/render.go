package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/luxejewel-storefront/internal/admin"
	"github.com/example/luxejewel-storefront/internal/apiclient"
	cartsvc "github.com/example/luxejewel-storefront/internal/cart"
	"github.com/example/luxejewel-storefront/internal/checkout"
	"github.com/example/luxejewel-storefront/internal/domain/cart"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/validate"
	"github.com/example/luxejewel-storefront/internal/session"
	"github.com/shopspring/decimal"
)

const dateLayout = "2 Jan 2006"

func price(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func table(out io.Writer, header string, rows func(w io.Writer)) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	return w.Flush()
}

func printProducts(out io.Writer, products []product.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(out, "No products found.")
		return err
	}
	return table(out, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK", func(w io.Writer) {
		for _, p := range products {
			stock := fmt.Sprint(p.Stock)
			if !p.InStock() {
				stock = "out of stock"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, price(p.Price), stock)
		}
	})
}

func printProduct(out io.Writer, p *product.Product) error {
	availability := fmt.Sprintf("%d in stock", p.Stock)
	if !p.InStock() {
		availability = "Out of stock"
	}
	_, err := fmt.Fprintf(out, "%s\n%s\n\n%s\n\nPrice:    %s\nCategory: %s\nStock:    %s\nImage:    %s\n",
		p.Name, strings.Repeat("=", len(p.Name)), p.Description, price(p.Price), p.Category, availability, p.ImageURL)
	return err
}

func printCart(out io.Writer, c cart.Cart) error {
	if c.IsEmpty() {
		_, err := fmt.Fprintln(out, "Your cart is empty.")
		return err
	}
	err := table(out, "PRODUCT ID\tNAME\tQTY\tPRICE\tSUBTOTAL", func(w io.Writer) {
		for _, item := range c.Items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				item.Product.ID, item.Product.Name, item.Quantity, price(item.Product.Price), price(item.Subtotal()))
		}
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nItems: %d\nTotal: %s\n", c.ItemCount(), price(c.Total()))
	return err
}

func printOrders(out io.Writer, orders []order.Order) error {
	if len(orders) == 0 {
		_, err := fmt.Fprintln(out, "No orders yet.")
		return err
	}
	return table(out, "ORDER\tDATE\tITEMS\tTOTAL\tSTATUS\tPAYMENT", func(w io.Writer) {
		for _, o := range orders {
			fmt.Fprintf(w, "#%s\t%s\t%d\t%s\t%s\t%s\n",
				o.ShortID(), o.CreatedAt.Local().Format(dateLayout), len(o.Items), price(o.TotalAmount), o.Status, o.PaymentStatus)
		}
	})
}

func printOrder(out io.Writer, o *order.Order) error {
	fmt.Fprintf(out, "Order #%s (%s)\nPlaced:  %s\nStatus:  %s\nPayment: %s\n\n",
		o.ShortID(), o.ID, o.CreatedAt.Local().Format(dateLayout), o.Status, o.PaymentStatus)
	err := table(out, "ITEM\tQTY\tPRICE\tSUBTOTAL", func(w io.Writer) {
		for _, item := range o.Items {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", item.ProductName, item.Quantity, price(item.Price), price(item.Subtotal()))
		}
	})
	if err != nil {
		return err
	}
	a := o.ShippingAddress
	_, err = fmt.Fprintf(out, "\nTotal: %s\n\nShip to:\n  %s\n  %s\n  %s, %s %s\n  %s | %s\n",
		price(o.TotalAmount), a.FullName, a.Address, a.City, a.State, a.Pincode, a.Phone, a.Email)
	return err
}

func printAnalytics(out io.Writer, a *order.Analytics) error {
	fmt.Fprintf(out, "Products: %d\nOrders:   %d\nCustomers: %d\nRevenue:  %s\n\n",
		a.TotalProducts, a.TotalOrders, a.TotalUsers, price(a.TotalRevenue))
	if len(a.CategorySales) > 0 {
		err := table(out, "CATEGORY\tSALES", func(w io.Writer) {
			for category, sales := range a.CategorySales {
				fmt.Fprintf(w, "%s\t%s\n", category, price(sales))
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Recent orders:")
	return printOrders(out, a.RecentOrders)
}

// prompt reads one trimmed line after showing label.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// notification turns an error into the one-line message shown to the user.
func notification(err error) string {
	var failure *validate.Error
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, session.ErrAuth):
		return "Please log in first: storefront login"
	case errors.Is(err, admin.ErrForbidden):
		return "Admin access required."
	case errors.Is(err, admin.ErrNotConfirmed):
		return "Cancelled."
	case errors.As(err, &failure):
		return "Please fill in: " + strings.Join(failure.Fields, ", ")
	case errors.Is(err, cartsvc.ErrExceedsStock):
		return "Not enough stock: " + err.Error()
	case errors.Is(err, checkout.ErrCartEmpty):
		return "Your cart is empty. Browse products with: storefront products"
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return "Payment failed: " + err.Error()
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		return "Payment gateway is unavailable. Please try again later."
	case errors.Is(err, checkout.ErrOrderCreationFailed):
		return "Could not create your order: " + err.Error()
	case errors.Is(err, checkout.ErrVerificationFailed):
		return "Payment could not be verified. Please contact support."
	case apiclient.IsNotFound(err):
		return "Not found."
	}
	return "Error: " + err.Error()
}
