package domain

import "time"

// User — ссылка на покупателя; ядро оформления заказа его только читает.
type User struct {
	ID    string
	Email string
}

// ProductVariant — конкретный SKU товара (размер/цвет) со своей ценой и остатком.
type ProductVariant struct {
	ID        string
	ProductID string
	StoreID   string
	Name      string
	Size      string
	Color     string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Quantity — остаток на складе; инвариант: никогда не опускается ниже нуля.
	Quantity int32
}

// Product агрегирует варианты для каталожного read-path.
type Product struct {
	ID          string
	CategoryID  string
	StoreID     string
	Name        string
	Description string
	Variants    []ProductVariant
}

// Voucher — скидочный купон с процентом и сроком действия.
type Voucher struct {
	ID              string
	Code            string
	DiscountPercent int32
	ExpiresAt       time.Time
}

// UserVoucherGrant — запись, дающая пользователю право применить ваучер.
type UserVoucherGrant struct {
	UserID    string
	VoucherID string
}
