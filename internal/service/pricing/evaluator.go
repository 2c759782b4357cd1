// Package pricing — чистое вычисление сумм заказа поверх уже заблокированных
// строк. Никакого I/O: одинаковый вход всегда даёт одинаковый итог.
package pricing

import "github.com/vladislavdragonenkov/checkout/internal/domain"

// Line — позиция с зафиксированной на момент блокировки ценой.
type Line struct {
	VariantID  string
	Qty        int32
	PriceMinor int64
}

// Subtotal суммирует цену × количество по всем позициям.
func Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.PriceMinor * int64(line.Qty)
	}
	return subtotal
}

// Discount считает суммарную скидку по ваучерам: каждый ваучер даёт
// процент от subtotal, проценты складываются, а не перемножаются.
// Итог не ограничивается ни нулём, ни subtotal — некорректная
// конфигурация скидок чинится выше по течению, а не здесь.
func Discount(subtotalMinor int64, vouchers []domain.Voucher) int64 {
	var discount int64
	for _, v := range vouchers {
		discount += subtotalMinor * int64(v.DiscountPercent) / 100
	}
	return discount
}

// Total — финальная сумма к оплате.
func Total(subtotalMinor, discountMinor, shippingFeeMinor int64) int64 {
	return subtotalMinor - discountMinor + shippingFeeMinor
}
