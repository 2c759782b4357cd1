package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestIsExpected_BusinessKinds(t *testing.T) {
	expected := []error{
		domain.ErrValidation,
		domain.ErrUserNotFound,
		domain.ErrVariantNotFound,
		domain.ErrInsufficientStock,
		domain.ErrVoucherNotEligible,
		domain.ErrPaymentDetailsInvalid,
		domain.ErrContention,
		domain.ErrOrderNotFound,
		domain.ErrCategoryNotFound,
	}
	for _, kind := range expected {
		if !domain.IsExpected(kind) {
			t.Errorf("kind %v should be expected", kind)
		}
		// Обёртка с контекстом не должна менять классификацию.
		if !domain.IsExpected(fmt.Errorf("variant v-1: %w", kind)) {
			t.Errorf("wrapped %v should stay expected", kind)
		}
	}
}

func TestIsExpected_Faults(t *testing.T) {
	if domain.IsExpected(domain.ErrStoreUnavailable) {
		t.Fatal("store unavailability is a fault, not an expected outcome")
	}
	if domain.IsExpected(errors.New("something else")) {
		t.Fatal("unclassified errors must propagate as faults")
	}
}

func TestValidationErrorsWrapValidationKind(t *testing.T) {
	cases := []error{
		domain.ErrItemsRequired,
		domain.ErrItemQtyInvalid,
		domain.ErrItemVariantMissing,
		domain.ErrShippingFeeInvalid,
		domain.ErrPaymentMethodUnknown,
	}
	for _, err := range cases {
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%v must wrap ErrValidation", err)
		}
	}
}

func TestIsContention(t *testing.T) {
	if !domain.IsContention(fmt.Errorf("variant v-7: %w", domain.ErrContention)) {
		t.Fatal("wrapped contention must be detected")
	}
	if domain.IsContention(domain.ErrInsufficientStock) {
		t.Fatal("insufficient stock is not contention")
	}
}
