package sandbox

import (
	"context"
	"testing"

	"github.com/example/luxejewel-storefront/internal/auth"
	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/example/luxejewel-storefront/internal/domain/validate"
	"github.com/example/luxejewel-storefront/internal/gateway"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := NewService(NewStore(), auth.NewPasswordHasher(bcrypt.MinCost), NewPaymentGateway("rzp_test_sandbox", "sandbox-secret"), "INR", logger)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@luxejewel.com", "admin123"))
	svc.SeedProducts(context.Background())
	return svc
}

func registerCustomer(t *testing.T, svc *Service) user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), "Asha Rao", "asha@example.com", "pearls-please")
	require.NoError(t, err)
	return u
}

func productNamed(t *testing.T, svc *Service, name string) product.Product {
	t.Helper()
	for _, p := range svc.Products(context.Background(), "") {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no product named %q", name)
	return product.Product{}
}

func address() order.ShippingAddress {
	return order.ShippingAddress{FullName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210", Address: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001"}
}

// ============================================
// Accounts
// ============================================

func TestService_SeedsAdminAndCatalogue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Authenticate(ctx, "ADMIN@luxejewel.com ", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	assert.Len(t, svc.Products(ctx, ""), 14)
	assert.Equal(t, []string{"Bracelets", "Earrings", "Necklaces", "Rings", "Sets"}, svc.Categories(ctx))
	assert.Len(t, svc.Products(ctx, "Rings"), 3)
	assert.Zero(t, svc.SeedProducts(ctx))
}

func TestService_Register(t *testing.T) {
	svc := newTestService(t)
	u := registerCustomer(t, svc)

	assert.False(t, u.IsAdmin)
	_, err := svc.Register(context.Background(), "Other", "asha@example.com", "another-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.Register(context.Background(), "", "x@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidRegistration)
	_, err = svc.Register(context.Background(), "Short", "short@example.com", "abc")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	svc := newTestService(t)
	registerCustomer(t, svc)

	_, err := svc.Authenticate(context.Background(), "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "pearls-please")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ============================================
// Products
// ============================================

func TestService_ProductCRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	in := product.Input{Name: "Opal Ear Cuff", Description: "Lab opal cuff", Price: decimal.RequireFromString("1149.50"), Category: "Cuffs", ImageURL: "https://images.example/cuff.jpg", Stock: 4}

	created, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Contains(t, svc.Categories(ctx), "Cuffs")

	in.Stock = 9
	updated, err := svc.UpdateProduct(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = svc.Product(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), ErrProductNotFound)
}

func TestService_CreateProduct_Invalid(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), product.Input{Name: "No price"})

	assert.ErrorIs(t, err, validate.ErrValidation)
}

// ============================================
// Cart
// ============================================

func TestService_AddToCartMergesQuantities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	p := productNamed(t, svc, "Tennis Bracelet")

	require.NoError(t, svc.AddToCart(ctx, u.ID, p.ID, 1))
	require.NoError(t, svc.AddToCart(ctx, u.ID, p.ID, 2))

	c := svc.Cart(ctx, u.ID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)

	assert.ErrorIs(t, svc.AddToCart(ctx, u.ID, "missing", 1), ErrProductNotFound)
	assert.ErrorIs(t, svc.AddToCart(ctx, u.ID, p.ID, 0), ErrInvalidQuantity)
}

func TestService_UpdateCartItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	a := productNamed(t, svc, "Tennis Bracelet")
	b := productNamed(t, svc, "Vintage Rose Ring")

	assert.ErrorIs(t, svc.UpdateCartItem(ctx, u.ID, a.ID, 1), ErrCartNotFound)

	require.NoError(t, svc.AddToCart(ctx, u.ID, a.ID, 1))
	require.NoError(t, svc.AddToCart(ctx, u.ID, b.ID, 1))
	require.NoError(t, svc.UpdateCartItem(ctx, u.ID, a.ID, 4))
	assert.Equal(t, 5, svc.Cart(ctx, u.ID).ItemCount())

	require.NoError(t, svc.UpdateCartItem(ctx, u.ID, a.ID, 0))
	c := svc.Cart(ctx, u.ID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, b.ID, c.Items[0].Product.ID)

	assert.ErrorIs(t, svc.UpdateCartItem(ctx, u.ID, a.ID, 2), ErrItemNotInCart)
}

func TestService_CartSkipsDeletedProducts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	p := productNamed(t, svc, "Tennis Bracelet")
	require.NoError(t, svc.AddToCart(ctx, u.ID, p.ID, 1))

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	assert.True(t, svc.Cart(ctx, u.ID).IsEmpty())
}

// ============================================
// Orders and payment
// ============================================

func TestService_CreateOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)

	_, err := svc.CreateOrder(ctx, u.ID, address())
	assert.ErrorIs(t, err, ErrCartEmpty)

	ring := productNamed(t, svc, "Delicate Gold Band Ring")
	bracelet := productNamed(t, svc, "Charm Bracelet Set")
	require.NoError(t, svc.AddToCart(ctx, u.ID, ring.ID, 2))
	require.NoError(t, svc.AddToCart(ctx, u.ID, bracelet.ID, 1))

	created, err := svc.CreateOrder(ctx, u.ID, address())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1899*2+1799).Equal(created.Amount))
	assert.Equal(t, "INR", created.Currency)
	assert.Equal(t, "rzp_test_sandbox", created.KeyID)
	assert.Contains(t, created.RazorpayOrderID, "order_")

	o, err := svc.Order(ctx, u, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, 3, svc.Cart(ctx, u.ID).ItemCount(), "cart is kept until payment is verified")
}

func TestService_CreateOrder_OutOfStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	set := productNamed(t, svc, "Bridal Jewelry Set")
	require.NoError(t, svc.AddToCart(ctx, u.ID, set.ID, set.Stock+1))

	_, err := svc.CreateOrder(ctx, u.ID, address())

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Contains(t, err.Error(), "Bridal Jewelry Set")
	assert.Empty(t, svc.Orders(ctx, u))
}

func TestService_VerifyPayment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	ring := productNamed(t, svc, "Moonstone Cocktail Ring")
	require.NoError(t, svc.AddToCart(ctx, u.ID, ring.ID, 2))
	created, err := svc.CreateOrder(ctx, u.ID, address())
	require.NoError(t, err)

	success, failure, err := svc.Payments().Pay(gateway.PayRequest{RazorpayOrderID: created.RazorpayOrderID, Amount: gateway.MinorUnits(created.Amount)})
	require.NoError(t, err)
	require.Nil(t, failure)

	err = svc.VerifyPayment(ctx, u.ID, order.PaymentVerification{
		RazorpayOrderID:   success.RazorpayOrderID,
		RazorpayPaymentID: success.RazorpayPaymentID,
		RazorpaySignature: success.RazorpaySignature,
		OrderID:           created.OrderID,
	})
	require.NoError(t, err)

	o, err := svc.Order(ctx, u, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, success.RazorpayPaymentID, o.RazorpayPaymentID)
	assert.True(t, svc.Cart(ctx, u.ID).IsEmpty())

	after, err := svc.Product(ctx, ring.ID)
	require.NoError(t, err)
	assert.Equal(t, ring.Stock-2, after.Stock)
}

func TestService_VerifyPayment_BadSignature(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	ring := productNamed(t, svc, "Moonstone Cocktail Ring")
	require.NoError(t, svc.AddToCart(ctx, u.ID, ring.ID, 1))
	created, err := svc.CreateOrder(ctx, u.ID, address())
	require.NoError(t, err)

	err = svc.VerifyPayment(ctx, u.ID, order.PaymentVerification{
		RazorpayOrderID:   created.RazorpayOrderID,
		RazorpayPaymentID: "pay_forged",
		RazorpaySignature: "deadbeef",
		OrderID:           created.OrderID,
	})

	assert.ErrorIs(t, err, ErrPaymentVerification)
	o, err := svc.Order(ctx, u, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentFailed, o.PaymentStatus)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, 1, svc.Cart(ctx, u.ID).ItemCount())

	after, err := svc.Product(ctx, ring.ID)
	require.NoError(t, err)
	assert.Equal(t, ring.Stock, after.Stock)
}

func TestService_OrderVisibility(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	asha := registerCustomer(t, svc)
	other, err := svc.Register(ctx, "Min Ji", "minji@example.com", "hanbok-2026")
	require.NoError(t, err)
	admin, err := svc.Authenticate(ctx, "admin@luxejewel.com", "admin123")
	require.NoError(t, err)

	p := productNamed(t, svc, "Crystal Stud Earrings")
	require.NoError(t, svc.AddToCart(ctx, asha.ID, p.ID, 1))
	created, err := svc.CreateOrder(ctx, asha.ID, address())
	require.NoError(t, err)

	assert.Len(t, svc.Orders(ctx, asha), 1)
	assert.Empty(t, svc.Orders(ctx, other))
	assert.Len(t, svc.Orders(ctx, admin), 1)

	_, err = svc.Order(ctx, other, created.OrderID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = svc.Order(ctx, admin, created.OrderID)
	assert.NoError(t, err)

	require.NoError(t, svc.UpdateOrderStatus(ctx, created.OrderID, order.StatusShipped))
	o, err := svc.Order(ctx, asha, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, o.Status)
	assert.ErrorIs(t, svc.UpdateOrderStatus(ctx, "missing", order.StatusShipped), ErrOrderNotFound)
}

// ============================================
// Analytics
// ============================================

func TestService_Analytics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := registerCustomer(t, svc)
	ring := productNamed(t, svc, "Vintage Rose Ring")
	necklace := productNamed(t, svc, "Layered Chain Necklace")

	require.NoError(t, svc.AddToCart(ctx, u.ID, ring.ID, 1))
	require.NoError(t, svc.AddToCart(ctx, u.ID, necklace.ID, 2))
	paid, err := svc.CreateOrder(ctx, u.ID, address())
	require.NoError(t, err)
	success, _, err := svc.Payments().Pay(gateway.PayRequest{RazorpayOrderID: paid.RazorpayOrderID})
	require.NoError(t, err)
	require.NoError(t, svc.VerifyPayment(ctx, u.ID, order.PaymentVerification{
		RazorpayOrderID: success.RazorpayOrderID, RazorpayPaymentID: success.RazorpayPaymentID,
		RazorpaySignature: success.RazorpaySignature, OrderID: paid.OrderID,
	}))

	require.NoError(t, svc.AddToCart(ctx, u.ID, ring.ID, 1))
	_, err = svc.CreateOrder(ctx, u.ID, address())
	require.NoError(t, err)

	a := svc.Analytics(ctx)

	assert.Equal(t, 14, a.TotalProducts)
	assert.Equal(t, 2, a.TotalOrders)
	assert.Equal(t, 1, a.TotalUsers)
	assert.True(t, decimal.NewFromInt(2799+2*3299).Equal(a.TotalRevenue), "revenue %s", a.TotalRevenue)
	assert.Len(t, a.RecentOrders, 2)
	assert.True(t, decimal.NewFromInt(2799).Equal(a.CategorySales["Rings"]))
	assert.True(t, decimal.NewFromInt(6598).Equal(a.CategorySales["Necklaces"]))
}
