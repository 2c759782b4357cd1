package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/settlement"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	transport "github.com/vladislavdragonenkov/checkout/internal/transport/http"
)

func loggerForTests() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubLister struct {
	products []domain.Product
	err      error
}

func (s *stubLister) ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func newTestServer(t *testing.T, lister transport.ProductLister) (*httptest.Server, *memory.Ledger) {
	t.Helper()

	ledger := memory.NewLedger()
	ledger.SeedUser(domain.User{ID: "user-1", Email: "user-1@example.com"})
	ledger.SeedVariant(domain.ProductVariant{
		ID: "var-x", ProductID: "prod-1", StoreID: "store-1",
		Name: "Футболка", Size: "M", PriceMinor: 1500, Quantity: 5,
	})
	ledger.SeedVoucher(domain.Voucher{
		ID: "v-10", Code: "TEN", DiscountPercent: 10,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	ledger.SeedGrant(domain.UserVoucherGrant{UserID: "user-1", VoucherID: "v-10"})
	ledger.SeedVoucher(domain.Voucher{
		ID: "v-secret", Code: "SECRET", DiscountPercent: 50,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})

	logger := loggerForTests()
	adapter := settlement.NewAdapter(
		logger.WithField("component", "settlement"),
		settlement.WithConfirmLatency(time.Millisecond),
	)
	orchestrator := checkout.NewOrchestratorWithoutMetrics(
		ledger, adapter, nil, logger.WithField("component", "checkout"),
	)

	handler := transport.NewHandler(orchestrator, ledger, lister, logger)
	router := transport.NewRouter(handler, health.NewHandler("test"))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, ledger
}

func placeOrderBody(t *testing.T, overrides map[string]any) *bytes.Reader {
	t.Helper()

	body := map[string]any{
		"user_id":          "user-1",
		"shipping_address": map[string]string{"city": "Hanoi", "street": "Main 1"},
		"items": []map[string]any{
			{"product_variant_id": "var-x", "quantity": 2},
		},
		"payment_method": "cash",
		"shipping_fee":   2500,
	}
	for k, v := range overrides {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestPlaceOrderCreated(t *testing.T) {
	server, ledger := newTestServer(t, &stubLister{})

	resp, err := http.Post(server.URL+"/orders", "application/json", placeOrderBody(t, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary domain.OrderSummary
	decodeBody(t, resp, &summary)
	require.NotEmpty(t, summary.ID)
	require.Equal(t, int64(5500), summary.TotalMinor)
	require.Equal(t, domain.PaymentStatusPending, summary.PaymentStatus)

	qty, ok := ledger.VariantQuantity("var-x")
	require.True(t, ok)
	require.Equal(t, int32(3), qty)
}

func TestPlaceOrderWithVoucher(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	resp, err := http.Post(server.URL+"/orders", "application/json", placeOrderBody(t, map[string]any{
		"voucher_codes": []string{"TEN"},
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary domain.OrderSummary
	decodeBody(t, resp, &summary)
	// 3000 - 10% + 2500 доставка.
	require.Equal(t, int64(5200), summary.TotalMinor)
}

func TestPlaceOrderStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		overrides  map[string]any
		wantStatus int
	}{
		{
			name: "insufficient stock",
			overrides: map[string]any{
				"items": []map[string]any{{"product_variant_id": "var-x", "quantity": 6}},
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown user",
			overrides:  map[string]any{"user_id": "ghost"},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "unknown variant",
			overrides: map[string]any{
				"items": []map[string]any{{"product_variant_id": "ghost", "quantity": 1}},
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown payment method",
			overrides:  map[string]any{"payment_method": "bitcoin"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "momo without details",
			overrides:  map[string]any{"payment_method": "momo"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "voucher without grant",
			overrides:  map[string]any{"voucher_codes": []string{"SECRET"}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "empty items",
			overrides:  map[string]any{"items": []map[string]any{}},
			wantStatus: http.StatusBadRequest,
		},
	}

	server, ledger := newTestServer(t, &stubLister{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/orders", "application/json", placeOrderBody(t, tc.overrides))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.NotEmpty(t, body["error"])
		})
	}

	// Ни один отказ не тронул остаток.
	qty, ok := ledger.VariantQuantity("var-x")
	require.True(t, ok)
	require.Equal(t, int32(5), qty)
}

func TestPlaceOrderInvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	resp, err := http.Post(server.URL+"/orders", "application/json", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrderRoundTrip(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	resp, err := http.Post(server.URL+"/orders", "application/json", placeOrderBody(t, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var summary domain.OrderSummary
	decodeBody(t, resp, &summary)

	resp, err = http.Get(server.URL + "/orders/" + summary.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var order struct {
		domain.OrderSummary
		UserID string `json:"user_id"`
		Items  []struct {
			VariantID string `json:"product_variant_id"`
			Qty       int32  `json:"quantity"`
			Price     int64  `json:"price"`
		} `json:"items"`
	}
	decodeBody(t, resp, &order)
	require.Equal(t, summary.ID, order.ID)
	require.Equal(t, "user-1", order.UserID)
	require.Len(t, order.Items, 1)
	require.Equal(t, "var-x", order.Items[0].VariantID)
	require.Equal(t, int32(2), order.Items[0].Qty)
	require.Equal(t, int64(1500), order.Items[0].Price)
}

func TestGetOrderNotFound(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	resp, err := http.Get(server.URL + "/orders/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUserOrders(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	for i := 0; i < 2; i++ {
		resp, err := http.Post(server.URL+"/orders", "application/json", placeOrderBody(t, map[string]any{
			"items": []map[string]any{{"product_variant_id": "var-x", "quantity": 1}},
		}))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(server.URL + "/users/user-1/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []json.RawMessage
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 2)

	resp, err = http.Get(server.URL + "/users/user-1/orders?limit=1")
	require.NoError(t, err)
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 1)
}

func TestListUserOrdersEmpty(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	resp, err := http.Get(server.URL + "/users/user-1/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []json.RawMessage
	decodeBody(t, resp, &orders)
	require.Empty(t, orders)
}

func TestListCategoryProducts(t *testing.T) {
	lister := &stubLister{products: []domain.Product{
		{
			ID: "prod-1", CategoryID: "cat-1", Name: "Футболка",
			Variants: []domain.ProductVariant{
				{ID: "var-x", ProductID: "prod-1", Size: "M", PriceMinor: 1500, Quantity: 5},
			},
		},
	}}
	server, _ := newTestServer(t, lister)

	resp, err := http.Get(server.URL + "/categories/cat-1/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Variants []struct {
			ID    string `json:"id"`
			Price int64  `json:"price"`
		} `json:"variants"`
	}
	decodeBody(t, resp, &products)
	require.Len(t, products, 1)
	require.Equal(t, "prod-1", products[0].ID)
	require.Len(t, products[0].Variants, 1)
	require.Equal(t, int64(1500), products[0].Variants[0].Price)
}

func TestListCategoryProductsNotFound(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{err: domain.ErrCategoryNotFound})

	resp, err := http.Get(server.URL + "/categories/ghost/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t, &stubLister{})

	for _, path := range []string{"/healthz", "/readyz", "/livez"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
