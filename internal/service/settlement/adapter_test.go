package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func newTestAdapter() *Adapter {
	return NewAdapter(nil, WithConfirmLatency(time.Millisecond))
}

func TestSettleCashAlwaysPending(t *testing.T) {
	status, err := newTestAdapter().Settle(context.Background(), domain.PaymentMethodCash, domain.PaymentDetails{}, 5500)
	if err != nil {
		t.Fatalf("cash settle: %v", err)
	}
	if status != domain.PaymentStatusPending {
		t.Fatalf("cash status: got %q want pending", status)
	}
}

func TestSettleMomoConfirmed(t *testing.T) {
	details := domain.PaymentDetails{TransactionID: "tx-1", PhoneNumber: "+84901234567"}
	status, err := newTestAdapter().Settle(context.Background(), domain.PaymentMethodMomo, details, 5500)
	if err != nil {
		t.Fatalf("momo settle: %v", err)
	}
	if status != domain.PaymentStatusPaid {
		t.Fatalf("momo status: got %q want paid", status)
	}
}

func TestSettleMomoMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		details domain.PaymentDetails
	}{
		{name: "no transaction id", details: domain.PaymentDetails{PhoneNumber: "+84901234567"}},
		{name: "no phone number", details: domain.PaymentDetails{TransactionID: "tx-1"}},
		{name: "empty", details: domain.PaymentDetails{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestAdapter().Settle(context.Background(), domain.PaymentMethodMomo, tc.details, 100)
			if !errors.Is(err, domain.ErrPaymentDetailsInvalid) {
				t.Fatalf("got %v want ErrPaymentDetailsInvalid", err)
			}
		})
	}
}

func TestSettleUnknownMethod(t *testing.T) {
	_, err := newTestAdapter().Settle(context.Background(), domain.PaymentMethod("paypal"), domain.PaymentDetails{}, 100)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v want validation error", err)
	}
}

func TestSettleCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAdapter(nil, WithConfirmLatency(time.Second))
	details := domain.PaymentDetails{TransactionID: "tx-1", PhoneNumber: "+84901234567"}
	if _, err := a.Settle(ctx, domain.PaymentMethodMomo, details, 100); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v want context.Canceled", err)
	}
}
