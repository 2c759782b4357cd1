package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestPaymentMethod(t *testing.T) {
	if !domain.PaymentMethodCash.Valid() || !domain.PaymentMethodMomo.Valid() {
		t.Fatal("cash and momo are the supported methods")
	}
	if domain.PaymentMethod("paypal").Valid() {
		t.Fatal("unknown method must be invalid")
	}
	if domain.PaymentMethodCash.RequiresSettlement() {
		t.Fatal("cash settles on delivery, outside this core")
	}
	if !domain.PaymentMethodMomo.RequiresSettlement() {
		t.Fatal("momo requires external confirmation")
	}
}

func TestOrderSummary(t *testing.T) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:               "order-1",
		UserID:           "user-1",
		ShippingAddress:  json.RawMessage(`{"city":"Hanoi"}`),
		TotalMinor:       4500,
		ShippingFeeMinor: 1000,
		PaymentMethod:    domain.PaymentMethodCash,
		PaymentStatus:    domain.PaymentStatusPending,
		ShippingStatus:   domain.ShippingStatusPending,
		CreatedAt:        now,
	}

	got := order.Summary()
	want := domain.OrderSummary{
		ID:               "order-1",
		CreatedAt:        now,
		TotalMinor:       4500,
		ShippingFeeMinor: 1000,
		PaymentMethod:    domain.PaymentMethodCash,
		PaymentStatus:    domain.PaymentStatusPending,
		ShippingStatus:   domain.ShippingStatusPending,
	}
	if got != want {
		t.Fatalf("summary mismatch: got %+v want %+v", got, want)
	}
}

func TestOrderConfirmationEmailSubject(t *testing.T) {
	cases := []struct {
		status  domain.PaymentStatus
		subject string
	}{
		{domain.PaymentStatusPending, "Order is pending"},
		{domain.PaymentStatusPaid, "Order has been paid"},
		{domain.PaymentStatus("unknown"), "Order Confirmation"},
	}
	for _, tc := range cases {
		c := domain.OrderConfirmation{Summary: domain.OrderSummary{PaymentStatus: tc.status}}
		if got := c.EmailSubject(); got != tc.subject {
			t.Errorf("status %q: got subject %q want %q", tc.status, got, tc.subject)
		}
	}
}
