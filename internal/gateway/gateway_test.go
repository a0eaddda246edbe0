package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Key:         "rzp_test_sandbox",
		Amount:      250000,
		Currency:    "INR",
		Name:        "LuxeJewel",
		Description: "Premium Korean Jewelry",
		OrderID:     "order_9A33XWu170gUtm",
		Prefill:     Prefill{Name: "Asha Rao", Email: "asha@example.com", Contact: "9876543210"},
		Theme:       Theme{Color: "#E0C097"},
	}
}

// ============================================
// MinorUnits / once
// ============================================

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"2500", 250000},
		{"1299.99", 129999},
		{"0.5", 50},
		{"10.005", 1001},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestOnce_DeliversFirstOutcomeOnly(t *testing.T) {
	var successes, failures int
	cb := once(Callbacks{
		OnSuccess: func(Success) { successes++ },
		OnFailure: func(Failure) { failures++ },
	})

	cb.OnSuccess(Success{RazorpayPaymentID: "pay_1"})
	cb.OnFailure(Failure{Code: "BAD_REQUEST_ERROR"})
	cb.OnSuccess(Success{RazorpayPaymentID: "pay_2"})

	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Code: "BAD_REQUEST_ERROR", Description: "Payment failed", Reason: "payment_failed"}
	assert.Equal(t, "BAD_REQUEST_ERROR: Payment failed (payment_failed)", f.Error())
}

// ============================================
// ScriptLoader
// ============================================

func TestScriptLoader_LoadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("window.Razorpay = function () {};"))
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	loader := NewScriptLoader(srv.URL, srv.Client(), logger)

	require.NoError(t, loader.Load(context.Background()))
	require.NoError(t, loader.Load(context.Background()))

	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, loader.Loaded())
	assert.Contains(t, string(loader.Script()), "Razorpay")
}

func TestScriptLoader_FailureIsNotCached(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	loader := NewScriptLoader(srv.URL, srv.Client(), logger)

	err := loader.Load(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, loader.Loaded())

	healthy.Store(true)
	assert.NoError(t, loader.Load(context.Background()))
	assert.True(t, loader.Loaded())
}

func TestScriptLoader_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	loader := NewScriptLoader(url, nil, nil)

	assert.ErrorIs(t, loader.Load(context.Background()), ErrUnavailable)
}

// ============================================
// BrowserWidget
// ============================================

func newLoadedBrowserWidget(t *testing.T, open Opener) *BrowserWidget {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("window.Razorpay = function () {};"))
	}))
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	w := NewBrowserWidget(NewScriptLoader(srv.URL, srv.Client(), logger), open, logger)
	require.NoError(t, w.Load(context.Background()))
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestBrowserWidget_OpenBeforeLoad(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := NewBrowserWidget(NewScriptLoader("http://127.0.0.1:1/checkout.js", nil, logger), func(string) error { return nil }, logger)

	err := w.Open(context.Background(), testOptions(), Callbacks{})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBrowserWidget_ServesPageAndRelaysSuccess(t *testing.T) {
	var pageURL string
	w := newLoadedBrowserWidget(t, func(url string) error {
		pageURL = url
		return nil
	})

	got := make(chan Success, 1)
	err := w.Open(context.Background(), testOptions(), Callbacks{
		OnSuccess: func(s Success) { got <- s },
		OnFailure: func(Failure) { t.Error("unexpected failure callback") },
	})
	require.NoError(t, err)
	require.NotEmpty(t, pageURL)

	resp, err := http.Get(pageURL)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(page), "order_9A33XWu170gUtm")
	assert.Contains(t, string(page), "/checkout.js")

	resp, err = http.Get(pageURL + "checkout.js")
	require.NoError(t, err)
	script, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(script), "Razorpay")

	body, _ := json.Marshal(Success{
		RazorpayOrderID:   "order_9A33XWu170gUtm",
		RazorpayPaymentID: "pay_29QQoUBi66xm2f",
		RazorpaySignature: "9ef4dffbfd84f1318f6739a3ce19f9d85851857ae648f114332d8401e0949a3d",
	})
	resp, err = http.Post(pageURL+"success", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case s := <-got:
		assert.Equal(t, "pay_29QQoUBi66xm2f", s.RazorpayPaymentID)
	case <-time.After(2 * time.Second):
		t.Fatal("success callback not delivered")
	}
}

func TestBrowserWidget_RelaysFailure(t *testing.T) {
	var pageURL string
	w := newLoadedBrowserWidget(t, func(url string) error {
		pageURL = url
		return nil
	})

	got := make(chan Failure, 1)
	require.NoError(t, w.Open(context.Background(), testOptions(), Callbacks{
		OnFailure: func(f Failure) { got <- f },
	}))

	body := []byte(`{"code":"BAD_REQUEST_ERROR","description":"Your payment has been cancelled.","reason":"payment_cancelled"}`)
	resp, err := http.Post(pageURL+"failure", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case f := <-got:
		assert.Equal(t, "payment_cancelled", f.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("failure callback not delivered")
	}
}

func TestBrowserWidget_OpenerFailure(t *testing.T) {
	w := newLoadedBrowserWidget(t, func(string) error { return assert.AnError })

	err := w.Open(context.Background(), testOptions(), Callbacks{})

	assert.ErrorIs(t, err, ErrUnavailable)
}

// ============================================
// SandboxWidget
// ============================================

func newSandboxGateway(t *testing.T) (*httptest.Server, func() []PayRequest) {
	t.Helper()
	var mu sync.Mutex
	requests := []PayRequest{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sandbox/checkout.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("// sandbox"))
	})
	mux.HandleFunc("POST /sandbox/pay", func(w http.ResponseWriter, r *http.Request) {
		var req PayRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if req.Decline {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(PayDeclined{Error: Failure{
				Code: "BAD_REQUEST_ERROR", Description: "Payment declined", Reason: "payment_failed",
			}})
			return
		}
		_ = json.NewEncoder(w).Encode(Success{
			RazorpayOrderID:   req.RazorpayOrderID,
			RazorpayPaymentID: "pay_sandbox",
			RazorpaySignature: "sig",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func() []PayRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]PayRequest(nil), requests...)
	}
}

func TestSandboxWidget_Approves(t *testing.T) {
	srv, requests := newSandboxGateway(t)
	logger, _ := test.NewNullLogger()
	w := NewSandboxWidget(srv.URL, WithSandboxHTTPClient(srv.Client()), WithSandboxLogger(logger))

	require.NoError(t, w.Load(context.Background()))
	got := make(chan Success, 1)
	require.NoError(t, w.Open(context.Background(), testOptions(), Callbacks{
		OnSuccess: func(s Success) { got <- s },
	}))

	select {
	case s := <-got:
		assert.Equal(t, "order_9A33XWu170gUtm", s.RazorpayOrderID)
		assert.Equal(t, "pay_sandbox", s.RazorpayPaymentID)
	case <-time.After(2 * time.Second):
		t.Fatal("success callback not delivered")
	}
	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, int64(250000), reqs[0].Amount)
}

func TestSandboxWidget_Declines(t *testing.T) {
	srv, _ := newSandboxGateway(t)
	w := NewSandboxWidget(srv.URL, WithDecline(), WithSandboxHTTPClient(srv.Client()))

	require.NoError(t, w.Load(context.Background()))
	got := make(chan Failure, 1)
	require.NoError(t, w.Open(context.Background(), testOptions(), Callbacks{
		OnFailure: func(f Failure) { got <- f },
	}))

	select {
	case f := <-got:
		assert.Equal(t, "BAD_REQUEST_ERROR", f.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("failure callback not delivered")
	}
}

func TestSandboxWidget_OpenBeforeLoad(t *testing.T) {
	w := NewSandboxWidget("http://127.0.0.1:1")

	assert.ErrorIs(t, w.Open(context.Background(), testOptions(), Callbacks{}), ErrUnavailable)
}
