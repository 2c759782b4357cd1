package domain

import (
	"encoding/json"
	"time"
)

// PaymentMethod — способ оплаты заказа.
type PaymentMethod string

const (
	// PaymentMethodCash — оплата при получении; заказ создаётся со статусом pending.
	PaymentMethodCash PaymentMethod = "cash"
	// PaymentMethodMomo — внешний кошелёк; требует подтверждения до коммита.
	PaymentMethodMomo PaymentMethod = "momo"
)

// Valid проверяет, что способ оплаты входит в закрытый набор.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodMomo
}

// RequiresSettlement сообщает, требует ли метод внешнего подтверждения оплаты.
func (m PaymentMethod) RequiresSettlement() bool {
	return m == PaymentMethodMomo
}

// PaymentStatus — статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// ShippingStatus — статус доставки; переходы выполняют внешние fulfillment-процессы.
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
)

// PaymentDetails — реквизиты, которые внешние методы оплаты обязаны заполнить.
type PaymentDetails struct {
	TransactionID string `json:"transaction_id"`
	PhoneNumber   string `json:"phone_number"`
}

// OrderItem — одна позиция заказа. Цена фиксируется на момент покупки
// и не пересчитывается при будущих изменениях прайса.
type OrderItem struct {
	OrderID    string
	VariantID  string
	Qty        int32
	PriceMinor int64
}

// Order — результат успешной транзакции оформления; создаётся ровно один раз
// и далее неизменяем, кроме статусных переходов вне этого ядра.
type Order struct {
	ID               string
	UserID           string
	ShippingAddress  json.RawMessage
	TotalMinor       int64
	ShippingFeeMinor int64
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	ShippingStatus   ShippingStatus
	CreatedAt        time.Time
	Items            []OrderItem
	// VoucherIDs — применённые ваучеры, для аудита и анализа повторного использования.
	VoucherIDs []string
}

// OrderSummary — то, что возвращается вызывающей стороне после коммита.
type OrderSummary struct {
	ID               string         `json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	TotalMinor       int64          `json:"total_amount"`
	ShippingFeeMinor int64          `json:"shipping_fee"`
	PaymentMethod    PaymentMethod  `json:"payment_method"`
	PaymentStatus    PaymentStatus  `json:"payment_status"`
	ShippingStatus   ShippingStatus `json:"shipping_status"`
}

// Summary собирает OrderSummary из заказа.
func (o Order) Summary() OrderSummary {
	return OrderSummary{
		ID:               o.ID,
		CreatedAt:        o.CreatedAt,
		TotalMinor:       o.TotalMinor,
		ShippingFeeMinor: o.ShippingFeeMinor,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		ShippingStatus:   o.ShippingStatus,
	}
}

// ConfirmationLine — строка заказа в письме-подтверждении.
type ConfirmationLine struct {
	Name       string `json:"name"`
	Size       string `json:"size"`
	Color      string `json:"color"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price"`
}

// OrderConfirmation — payload для диспетчера уведомлений после коммита.
type OrderConfirmation struct {
	Summary        OrderSummary       `json:"summary"`
	RecipientEmail string             `json:"recipient_email"`
	Items          []ConfirmationLine `json:"items"`
}

// EmailSubject подбирает тему письма по статусу оплаты.
func (c OrderConfirmation) EmailSubject() string {
	switch c.Summary.PaymentStatus {
	case PaymentStatusPending:
		return "Order is pending"
	case PaymentStatusPaid:
		return "Order has been paid"
	default:
		return "Order Confirmation"
	}
}
