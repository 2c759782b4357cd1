// Package checkout реализует транзакцию оформления заказа: валидация
// остатков, расчёт суммы, резервирование, запись заказа и подтверждение
// оплаты — атомарно, либо без единого следа.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
)

// PlaceOrderItem — запрошенная позиция заказа.
type PlaceOrderItem struct {
	VariantID string `json:"product_variant_id"`
	Qty       int32  `json:"quantity"`
}

// PlaceOrderInput — вход операции PlaceOrder.
type PlaceOrderInput struct {
	UserID           string
	ShippingAddress  json.RawMessage
	Items            []PlaceOrderItem
	VoucherCodes     []string
	PaymentDetails   domain.PaymentDetails
	ShippingFeeMinor int64
	PaymentMethod    domain.PaymentMethod
}

// Orchestrator ведёт транзакцию оформления от блокировок до коммита
// и владеет решением commit/rollback.
type Orchestrator struct {
	ledger     domain.Ledger
	settlement domain.SettlementService
	notifier   domain.NotificationDispatcher
	logger     *log.Entry
	metrics    *metrics.CheckoutMetrics

	now   func() time.Time
	newID func() string
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	ledger domain.Ledger,
	settlement domain.SettlementService,
	notifier domain.NotificationDispatcher,
	logger *log.Entry,
) *Orchestrator {
	o := newOrchestrator(ledger, settlement, notifier, logger)
	o.metrics = metrics.NewCheckoutMetrics()
	return o
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(
	ledger domain.Ledger,
	settlement domain.SettlementService,
	notifier domain.NotificationDispatcher,
	logger *log.Entry,
) *Orchestrator {
	return newOrchestrator(ledger, settlement, notifier, logger)
}

func newOrchestrator(
	ledger domain.Ledger,
	settlement domain.SettlementService,
	notifier domain.NotificationDispatcher,
	logger *log.Entry,
) *Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Orchestrator{
		ledger:     ledger,
		settlement: settlement,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// lockedLine — позиция после блокировки строки варианта: запрошенное
// количество плюс состояние строки на момент блокировки.
type lockedLine struct {
	variant domain.ProductVariant
	qty     int32
}

// PlaceOrder выполняет шаги оформления внутри одной транзакции хранилища.
// Любая ошибка после Begin приводит к полному rollback; уведомление
// уходит строго после коммита и не влияет на результат.
func (o *Orchestrator) PlaceOrder(ctx context.Context, in PlaceOrderInput) (domain.OrderSummary, error) {
	start := o.now()
	if o.metrics != nil {
		o.metrics.RecordOrderInFlightStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordOrderInFlightFinished()
			o.metrics.RecordPlaceDuration(time.Since(start))
		}
	}()

	if err := validateInput(in); err != nil {
		return domain.OrderSummary{}, o.failed(in.UserID, err)
	}

	summary, confirmation, err := o.runTransaction(ctx, in)
	if err != nil {
		return domain.OrderSummary{}, o.failed(in.UserID, err)
	}

	if o.metrics != nil {
		o.metrics.RecordOrderPlaced()
	}
	o.logger.WithFields(log.Fields{
		"order_id":       summary.ID,
		"user_id":        in.UserID,
		"total_minor":    summary.TotalMinor,
		"payment_method": summary.PaymentMethod,
		"payment_status": summary.PaymentStatus,
	}).Info("order placed")

	// После коммита: fire-and-forget, сбой доставки не наблюдаем в результате.
	if o.notifier != nil {
		o.notifier.NotifyOrderConfirmed(confirmation)
		if o.metrics != nil {
			o.metrics.RecordNotificationDispatched()
		}
	}

	return summary, nil
}

// validateInput отсекает некорректный вход до открытия транзакции.
func validateInput(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for _, item := range in.Items {
		if item.VariantID == "" {
			return domain.ErrItemVariantMissing
		}
		if item.Qty <= 0 {
			return fmt.Errorf("%w: variant %s", domain.ErrItemQtyInvalid, item.VariantID)
		}
	}
	if in.ShippingFeeMinor < 0 {
		return domain.ErrShippingFeeInvalid
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrPaymentMethodUnknown, in.PaymentMethod)
	}
	if in.PaymentMethod.RequiresSettlement() {
		if in.PaymentDetails.TransactionID == "" || in.PaymentDetails.PhoneNumber == "" {
			return fmt.Errorf("%w: transaction id and phone number are required", domain.ErrPaymentDetailsInvalid)
		}
	}
	return nil
}

func (o *Orchestrator) runTransaction(ctx context.Context, in PlaceOrderInput) (domain.OrderSummary, domain.OrderConfirmation, error) {
	tx, err := o.ledger.Begin(ctx)
	if err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf("%w: begin: %v", domain.ErrStoreUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	// Шаг 1: эксклюзивные блокировки всех вариантов, строго по возрастанию
	// id — одинаковый порядок у всех транзакций исключает циклическое ожидание.
	lines, err := o.lockVariants(ctx, tx, in.Items)
	if err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, err
	}

	// Шаг 2: пользователь проверяется внутри транзакции, чтобы удалённый
	// пользователь не протащил заказ.
	user, err := tx.GetUser(ctx, in.UserID)
	if err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, err
	}

	// Шаг 3: проверка остатков и subtotal по зафиксированным ценам.
	priceLines := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if line.variant.Quantity < line.qty {
			return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf(
				"variant %s: requested %d, on hand %d: %w",
				line.variant.ID, line.qty, line.variant.Quantity, domain.ErrInsufficientStock,
			)
		}
		priceLines = append(priceLines, pricing.Line{
			VariantID:  line.variant.ID,
			Qty:        line.qty,
			PriceMinor: line.variant.PriceMinor,
		})
	}
	subtotal := pricing.Subtotal(priceLines)

	// Шаг 4: ваучеры и право пользователя на каждый из них.
	vouchers, err := o.resolveEligibleVouchers(ctx, tx, in.UserID, in.VoucherCodes)
	if err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, err
	}

	// Шаг 5: финальная сумма; отрицательные итоги проходят как есть.
	discount := pricing.Discount(subtotal, vouchers)
	total := pricing.Total(subtotal, discount, in.ShippingFeeMinor)

	// Шаг 6: подтверждение оплаты до необратимого списания остатков.
	settleStart := o.now()
	paymentStatus, err := o.settlement.Settle(ctx, in.PaymentMethod, in.PaymentDetails, total)
	if err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, err
	}
	if o.metrics != nil {
		o.metrics.RecordStepDuration("settle", time.Since(settleStart))
	}

	// Шаг 7: строки заказа, позиции, списания и ссылки на ваучеры.
	order := domain.Order{
		ID:               o.newID(),
		UserID:           in.UserID,
		ShippingAddress:  in.ShippingAddress,
		TotalMinor:       total,
		ShippingFeeMinor: in.ShippingFeeMinor,
		PaymentMethod:    in.PaymentMethod,
		PaymentStatus:    paymentStatus,
		ShippingStatus:   domain.ShippingStatusPending,
		CreatedAt:        o.now(),
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf("insert order: %w", err)
	}
	for _, line := range lines {
		item := domain.OrderItem{
			OrderID:    order.ID,
			VariantID:  line.variant.ID,
			Qty:        line.qty,
			PriceMinor: line.variant.PriceMinor,
		}
		if err := tx.InsertOrderItem(ctx, item); err != nil {
			return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf("insert order item: %w", err)
		}
		if err := tx.DecrementVariantQuantity(ctx, line.variant.ID, line.qty); err != nil {
			return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf("decrement variant %s: %w", line.variant.ID, err)
		}
	}
	for _, voucher := range vouchers {
		if err := tx.InsertOrderVoucherLink(ctx, order.ID, voucher.ID); err != nil {
			return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf("link voucher %s: %w", voucher.ID, err)
		}
	}

	// Шаг 8: коммит; блокировки держатся до этого момента.
	if err := tx.Commit(ctx); err != nil {
		return domain.OrderSummary{}, domain.OrderConfirmation{}, fmt.Errorf("%w: commit: %v", domain.ErrStoreUnavailable, err)
	}
	committed = true

	confirmation := buildConfirmation(order, user.Email, lines)
	return order.Summary(), confirmation, nil
}

// lockVariants агрегирует дубли по варианту и берёт блокировки
// в порядке возрастания id.
func (o *Orchestrator) lockVariants(ctx context.Context, tx domain.LedgerTx, items []PlaceOrderItem) ([]lockedLine, error) {
	qtyByVariant := make(map[string]int32, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := qtyByVariant[item.VariantID]; !seen {
			order = append(order, item.VariantID)
		}
		qtyByVariant[item.VariantID] += item.Qty
	}
	sort.Strings(order)

	lines := make([]lockedLine, 0, len(order))
	for _, variantID := range order {
		variant, err := tx.LockVariant(ctx, variantID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, lockedLine{variant: variant, qty: qtyByVariant[variantID]})
	}
	return lines, nil
}

// resolveEligibleVouchers возвращает неистёкшие ваучеры, на каждый из
// которых у пользователя есть право.
func (o *Orchestrator) resolveEligibleVouchers(ctx context.Context, tx domain.LedgerTx, userID string, codes []string) ([]domain.Voucher, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	vouchers, err := tx.ResolveVouchers(ctx, codes, o.now())
	if err != nil {
		return nil, fmt.Errorf("resolve vouchers: %w", err)
	}
	for _, voucher := range vouchers {
		granted, err := tx.HasGrant(ctx, userID, voucher.ID)
		if err != nil {
			return nil, fmt.Errorf("check grant for voucher %s: %w", voucher.ID, err)
		}
		if !granted {
			return nil, fmt.Errorf("voucher %s: %w", voucher.Code, domain.ErrVoucherNotEligible)
		}
	}
	return vouchers, nil
}

func buildConfirmation(order domain.Order, email string, lines []lockedLine) domain.OrderConfirmation {
	items := make([]domain.ConfirmationLine, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.ConfirmationLine{
			Name:       line.variant.Name,
			Size:       line.variant.Size,
			Color:      line.variant.Color,
			Qty:        line.qty,
			PriceMinor: line.variant.PriceMinor,
		})
	}
	return domain.OrderConfirmation{
		Summary:        order.Summary(),
		RecipientEmail: email,
		Items:          items,
	}
}

// failed переводит ошибку в метрику и лог: бизнес-исходы — warning,
// всё остальное — фатальный сбой транзакции.
func (o *Orchestrator) failed(userID string, err error) error {
	kind := errorKind(err)
	if o.metrics != nil {
		o.metrics.RecordOrderFailed(kind)
	}
	entry := o.logger.WithError(err).WithFields(log.Fields{
		"user_id": userID,
		"kind":    kind,
	})
	if domain.IsExpected(err) {
		entry.Warn("order attempt rejected")
	} else {
		entry.Error("order transaction failed")
	}
	return err
}

func errorKind(err error) string {
	switch {
	case domain.IsContention(err):
		return "contention"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrVariantNotFound):
		return "variant_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrVoucherNotEligible):
		return "voucher_not_eligible"
	case errors.Is(err, domain.ErrPaymentDetailsInvalid):
		return "payment_details_invalid"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
