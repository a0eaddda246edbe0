package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/luxejewel-storefront/internal/domain/order"
	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// newTestClient serves every request with respond and records what arrived.
func newTestClient(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var recorded []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		recorded = append(recorded, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/api"), &recorded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ============================================
// Transport Tests
// ============================================

func TestClient_SendsBearerAndRequestID(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{"Rings"})
	})
	client.SetTokenSource(staticToken("tok-123"))

	_, err := client.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, *recorded, 1)
	req := (*recorded)[0]
	assert.Equal(t, "/api/categories", req.Path)
	assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	client.SetTokenSource(staticToken(""))

	_, err := client.ListProducts(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, (*recorded)[0].Header.Get("Authorization"))
	assert.Empty(t, (*recorded)[0].Query)
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		expected string
	}{
		{"fastapi detail", http.StatusBadRequest, map[string]string{"detail": "Cart is empty"}, "Cart is empty"},
		{"error field", http.StatusUnauthorized, map[string]string{"error": "invalid token"}, "invalid token"},
		{"structured detail", http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "field required"}}}, `[{"msg":"field required"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := client.ClearCart(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNetwork)
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.expected, apiErr.Detail)
			assert.Equal(t, http.MethodDelete, apiErr.Method)
			assert.Equal(t, "/cart/clear", apiErr.Path)
		})
	}
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	err := client.ClearCart(context.Background())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Method not allowed", apiErr.Detail)
}

func TestClient_StatusHelpers(t *testing.T) {
	assert.True(t, IsUnauthorized(&Error{StatusCode: http.StatusUnauthorized}))
	assert.True(t, IsForbidden(&Error{StatusCode: http.StatusForbidden}))
	assert.True(t, IsNotFound(&Error{StatusCode: http.StatusNotFound}))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestClient_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL)

	_, err := client.ListCategories(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestClient_CancelledContext(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListCategories(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Empty(t, *recorded)
}

// ============================================
// Endpoint Tests
// ============================================

func TestClient_ListProducts_CategoryQuery(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "p1", "name": "Ring", "price": 1899, "stock": 3}})
	})

	products, err := client.ListProducts(context.Background(), "Rings & Bands")

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.NewFromInt(1899).Equal(products[0].Price))
	assert.Equal(t, "category=Rings+%26+Bands", (*recorded)[0].Query)
}

func TestClient_GetCart_NullItems(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": null}`))
	})

	c, err := client.GetCart(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, c.Items)
	assert.True(t, c.IsEmpty())
}

func TestClient_CartMutations(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	ctx := context.Background()

	require.NoError(t, client.AddToCart(ctx, "p1", 2))
	require.NoError(t, client.UpdateCartItem(ctx, "p1", 0))

	require.Len(t, *recorded, 2)
	assert.Equal(t, http.MethodPost, (*recorded)[0].Method)
	assert.Equal(t, "/api/cart/add", (*recorded)[0].Path)
	assert.JSONEq(t, `{"product_id":"p1","quantity":2}`, string((*recorded)[0].Body))
	assert.Equal(t, http.MethodPut, (*recorded)[1].Method)
	assert.Equal(t, "/api/cart/update", (*recorded)[1].Path)
	assert.JSONEq(t, `{"product_id":"p1","quantity":0}`, string((*recorded)[1].Body))
}

func TestClient_CreateOrder(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"order_id":          "ord-1",
			"razorpay_order_id": "order_abc",
			"amount":            2500,
			"currency":          "INR",
			"key_id":            "rzp_test_key",
		})
	})

	created, err := client.CreateOrder(context.Background(), order.ShippingAddress{FullName: "Asha", City: "Pune"})

	require.NoError(t, err)
	assert.Equal(t, "ord-1", created.OrderID)
	assert.Equal(t, "order_abc", created.RazorpayOrderID)
	assert.True(t, decimal.NewFromInt(2500).Equal(created.Amount))
	assert.Equal(t, "INR", created.Currency)
	assert.Equal(t, "rzp_test_key", created.KeyID)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal((*recorded)[0].Body, &body))
	assert.Equal(t, "Asha", body["shipping_address"]["fullName"])
	assert.Equal(t, "Pune", body["shipping_address"]["city"])
}

func TestClient_VerifyPayment(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Payment verified successfully"})
	})

	err := client.VerifyPayment(context.Background(), order.PaymentVerification{
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "sig",
		OrderID:           "ord-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/orders/verify-payment", (*recorded)[0].Path)
	assert.JSONEq(t, `{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_1","razorpay_signature":"sig","order_id":"ord-1"}`,
		string((*recorded)[0].Body))
}

func TestClient_UpdateOrderStatus_QueryParameter(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
	})

	err := client.UpdateOrderStatus(context.Background(), "ord-9", order.StatusShipped)

	require.NoError(t, err)
	req := (*recorded)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/orders/ord-9/status", req.Path)
	assert.Equal(t, "status=shipped", req.Query)
	assert.Empty(t, req.Body)
}

func TestClient_CreateProduct(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "p-new", "name": "Bangle", "price": "2599", "stock": 13})
	})

	p, err := client.CreateProduct(context.Background(), product.Input{
		Name:     "Bangle",
		Price:    decimal.NewFromInt(2599),
		Category: "Bracelets",
		Stock:    13,
	})

	require.NoError(t, err)
	assert.Equal(t, "p-new", p.ID)
	assert.Equal(t, http.MethodPost, (*recorded)[0].Method)
	assert.Equal(t, "/api/products", (*recorded)[0].Path)
}

func TestClient_DecodeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.ListOrders(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}
