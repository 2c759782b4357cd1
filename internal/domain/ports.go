package domain

import (
	"context"
	"time"
)

// Ledger — точка входа в реляционное хранилище заказа.
type Ledger interface {
	// Begin открывает транзакцию, внутри которой живут блокировки строк.
	Begin(ctx context.Context) (LedgerTx, error)
	// GetOrder возвращает сохранённый заказ с позициями или ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (Order, error)
	// ListOrdersByUser возвращает заказы пользователя, новые первыми.
	ListOrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error)
}

// LedgerTx — одна транзакция оформления заказа. Все мутации видны другим
// транзакциям только после Commit; Rollback не оставляет следов.
type LedgerTx interface {
	// LockVariant берёт эксклюзивную блокировку строки варианта и возвращает
	// её текущее состояние. ErrVariantNotFound, если варианта нет;
	// ErrContention, если блокировка не получена за отведённое время.
	LockVariant(ctx context.Context, variantID string) (ProductVariant, error)
	// GetUser возвращает пользователя или ErrUserNotFound.
	GetUser(ctx context.Context, userID string) (User, error)
	// ResolveVouchers возвращает неистёкшие на момент at ваучеры по кодам.
	// Несуществующие и истёкшие коды молча пропускаются.
	ResolveVouchers(ctx context.Context, codes []string, at time.Time) ([]Voucher, error)
	// HasGrant проверяет право пользователя на ваучер.
	HasGrant(ctx context.Context, userID, voucherID string) (bool, error)
	// InsertOrder сохраняет строку заказа.
	InsertOrder(ctx context.Context, order Order) error
	// InsertOrderItem сохраняет позицию заказа.
	InsertOrderItem(ctx context.Context, item OrderItem) error
	// DecrementVariantQuantity уменьшает остаток под уже взятой блокировкой.
	DecrementVariantQuantity(ctx context.Context, variantID string, qty int32) error
	// InsertOrderVoucherLink фиксирует применённый ваучер.
	InsertOrderVoucherLink(ctx context.Context, orderID, voucherID string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SettlementService подтверждает оплату до необратимого списания остатков.
type SettlementService interface {
	// Settle валидирует реквизиты и выполняет подтверждение; возвращает
	// итоговый статус оплаты или ErrPaymentDetailsInvalid.
	Settle(ctx context.Context, method PaymentMethod, details PaymentDetails, amountMinor int64) (PaymentStatus, error)
}

// NotificationDispatcher доставляет подтверждение заказа после коммита.
// Вызов не блокирует и не возвращает ошибку: сбой доставки не должен
// быть наблюдаем в результате транзакции.
type NotificationDispatcher interface {
	NotifyOrderConfirmed(confirmation OrderConfirmation)
}

// CatalogRepository — read-only источник каталога для листинга товаров.
type CatalogRepository interface {
	// ListProductsByCategory возвращает товары категории с вариантами
	// или ErrCategoryNotFound.
	ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]Product, error)
}
