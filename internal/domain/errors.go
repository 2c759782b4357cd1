package domain

import (
	"errors"
	"fmt"
)

// Закрытый набор видов ошибок ядра оформления заказа. Транспортный слой
// сопоставляет их с HTTP-статусами через errors.Is, а не по тексту сообщения.
var (
	// ErrValidation — некорректный вход, отклонённый до открытия транзакции.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound — пользователь не найден внутри транзакции.
	ErrUserNotFound = errors.New("user not found")
	// ErrVariantNotFound — запрошенный вариант товара не существует.
	ErrVariantNotFound = errors.New("product variant not found")
	// ErrInsufficientStock — остаток на складе меньше запрошенного количества.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrVoucherNotEligible — ваучер валиден, но у пользователя нет права на него.
	ErrVoucherNotEligible = errors.New("voucher not available for user")
	// ErrPaymentDetailsInvalid — неполные реквизиты или отказ при подтверждении оплаты.
	ErrPaymentDetailsInvalid = errors.New("invalid payment details")
	// ErrContention — блокировка строки не получена за отведённое время; можно повторить.
	ErrContention = errors.New("lock contention")
	// ErrStoreUnavailable — инфраструктурный сбой хранилища, не бизнес-исход.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	// ErrOrderNotFound возвращается read-path'ом, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCategoryNotFound возвращается каталожным read-path'ом.
	ErrCategoryNotFound = errors.New("category not found")
)

// Ошибки предвалидации входа; все оборачивают ErrValidation,
// чтобы вызывающая сторона различала их одним errors.Is.
var (
	ErrItemsRequired        = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	ErrItemQtyInvalid       = fmt.Errorf("%w: item quantity must be greater than zero", ErrValidation)
	ErrItemVariantMissing   = fmt.Errorf("%w: item variant id is required", ErrValidation)
	ErrShippingFeeInvalid   = fmt.Errorf("%w: shipping fee must be non-negative", ErrValidation)
	ErrPaymentMethodUnknown = fmt.Errorf("%w: unknown payment method", ErrValidation)
)

// IsExpected сообщает, является ли ошибка ожидаемым бизнес-исходом,
// который логируется как warning, а не как сбой.
func IsExpected(err error) bool {
	for _, kind := range []error{
		ErrValidation,
		ErrUserNotFound,
		ErrVariantNotFound,
		ErrInsufficientStock,
		ErrVoucherNotEligible,
		ErrPaymentDetailsInvalid,
		ErrContention,
		ErrOrderNotFound,
		ErrCategoryNotFound,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsContention проверяет, является ли ошибка конфликтом блокировок.
func IsContention(err error) bool {
	return errors.Is(err, ErrContention)
}
