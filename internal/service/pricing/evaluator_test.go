package pricing_test

import (
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
)

func TestSubtotal(t *testing.T) {
	lines := []pricing.Line{
		{VariantID: "v-1", Qty: 3, PriceMinor: 1500},
		{VariantID: "v-2", Qty: 1, PriceMinor: 9900},
	}
	if got := pricing.Subtotal(lines); got != 3*1500+9900 {
		t.Fatalf("subtotal: got %d want %d", got, 3*1500+9900)
	}
	if got := pricing.Subtotal(nil); got != 0 {
		t.Fatalf("empty subtotal: got %d want 0", got)
	}
}

func TestDiscountAdditiveNotCompounding(t *testing.T) {
	vouchers := []domain.Voucher{
		{ID: "vo-1", Code: "TEN", DiscountPercent: 10},
		{ID: "vo-2", Code: "TWENTY", DiscountPercent: 20},
	}
	// 10% + 20% от 1000 = 300, а не 1000*0.9*0.8.
	if got := pricing.Discount(1000, vouchers); got != 300 {
		t.Fatalf("discount: got %d want 300", got)
	}
}

func TestDiscountNotClamped(t *testing.T) {
	vouchers := []domain.Voucher{
		{ID: "vo-1", DiscountPercent: 70},
		{ID: "vo-2", DiscountPercent: 70},
	}
	// 140% от subtotal проходит как есть: итог может уйти в минус,
	// это фиксируется как продуктовое решение, а не чинится молча.
	if got := pricing.Discount(1000, vouchers); got != 1400 {
		t.Fatalf("discount: got %d want 1400", got)
	}
	if got := pricing.Total(1000, 1400, 0); got != -400 {
		t.Fatalf("total: got %d want -400", got)
	}
}

func TestTotal(t *testing.T) {
	if got := pricing.Total(4500, 0, 1000); got != 5500 {
		t.Fatalf("total: got %d want 5500", got)
	}
}

func TestDeterminism(t *testing.T) {
	lines := []pricing.Line{{VariantID: "v-1", Qty: 7, PriceMinor: 333}}
	vouchers := []domain.Voucher{{ID: "vo-1", DiscountPercent: 15}}

	first := pricing.Total(pricing.Subtotal(lines), pricing.Discount(pricing.Subtotal(lines), vouchers), 250)
	for i := 0; i < 100; i++ {
		again := pricing.Total(pricing.Subtotal(lines), pricing.Discount(pricing.Subtotal(lines), vouchers), 250)
		if again != first {
			t.Fatalf("iteration %d: got %d want %d", i, again, first)
		}
	}
}
