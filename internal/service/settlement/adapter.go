// Package settlement подтверждает оплату заказа. Адаптер синхронный,
// но спрятан за domain.SettlementService, чтобы стать асинхронным,
// не трогая транзакционное ядро.
package settlement

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// defaultConfirmLatency — фиксированный латентный контракт подтверждения
// внешнего кошелька.
const defaultConfirmLatency = 1 * time.Second

// Adapter реализует подтверждение оплаты для cash и momo.
type Adapter struct {
	logger         *log.Entry
	confirmLatency time.Duration
}

// Option настраивает Adapter.
type Option func(*Adapter)

// WithConfirmLatency задаёт длительность подтверждения внешнего кошелька.
func WithConfirmLatency(d time.Duration) Option {
	return func(a *Adapter) {
		a.confirmLatency = d
	}
}

// NewAdapter создаёт рабочий адаптер оплаты.
func NewAdapter(logger *log.Entry, opts ...Option) *Adapter {
	if logger == nil {
		logger = log.New().WithField("component", "settlement")
	}
	a := &Adapter{
		logger:         logger,
		confirmLatency: defaultConfirmLatency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateDetails проверяет обязательные реквизиты метода до открытия
// транзакции; для cash реквизиты не нужны.
func ValidateDetails(method domain.PaymentMethod, details domain.PaymentDetails) error {
	switch method {
	case domain.PaymentMethodCash:
		return nil
	case domain.PaymentMethodMomo:
		if details.TransactionID == "" {
			return fmt.Errorf("%w: momo transaction id is required", domain.ErrPaymentDetailsInvalid)
		}
		if details.PhoneNumber == "" {
			return fmt.Errorf("%w: momo phone number is required", domain.ErrPaymentDetailsInvalid)
		}
		return nil
	default:
		return domain.ErrPaymentMethodUnknown
	}
}

// Settle подтверждает оплату. Cash всегда принимается и остаётся pending
// до доставки; momo проходит подтверждение с фиксированной задержкой
// и помечается paid.
func (a *Adapter) Settle(ctx context.Context, method domain.PaymentMethod, details domain.PaymentDetails, amountMinor int64) (domain.PaymentStatus, error) {
	if err := ValidateDetails(method, details); err != nil {
		return "", err
	}

	if !method.RequiresSettlement() {
		return domain.PaymentStatusPending, nil
	}

	timer := time.NewTimer(a.confirmLatency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("settlement interrupted: %w", ctx.Err())
	case <-timer.C:
	}

	a.logger.WithFields(log.Fields{
		"method":       method,
		"amount_minor": amountMinor,
		"phone":        details.PhoneNumber,
	}).Debug("settlement confirmed")

	return domain.PaymentStatusPaid, nil
}

var _ domain.SettlementService = (*Adapter)(nil)
