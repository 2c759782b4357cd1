package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// EventType определяет тип события заказа.
type EventType string

const (
	// EventTypeOrderConfirmed — заказ закоммичен, подтверждение готово к доставке.
	EventTypeOrderConfirmed EventType = "order.confirmed"
)

// Топики Kafka.
const (
	// TopicOrderNotifications — очередь подтверждений для почтового шлюза.
	TopicOrderNotifications = "checkout.order.notifications"
)

// OrderConfirmedEvent — событие подтверждения заказа; несёт всё,
// что нужно почтовому шлюзу для письма без обратных запросов.
type OrderConfirmedEvent struct {
	EventType      EventType                 `json:"event_type"`
	OrderID        string                    `json:"order_id"`
	RecipientEmail string                    `json:"recipient_email"`
	Subject        string                    `json:"subject"`
	Summary        domain.OrderSummary       `json:"summary"`
	Items          []domain.ConfirmationLine `json:"items"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// NewOrderConfirmedEvent собирает событие из пост-коммитного подтверждения.
func NewOrderConfirmedEvent(c domain.OrderConfirmation) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		EventType:      EventTypeOrderConfirmed,
		OrderID:        c.Summary.ID,
		RecipientEmail: c.RecipientEmail,
		Subject:        c.EmailSubject(),
		Summary:        c.Summary,
		Items:          c.Items,
		Timestamp:      time.Now().UTC(),
	}
}
