// Package memory — in-memory реализация Ledger для тестов и локального
// запуска. Семантика та же, что у postgres-реализации: эксклюзивные
// блокировки вариантов на время транзакции, атомарный commit, rollback
// без следов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const defaultLockWait = 200 * time.Millisecond

// Ledger хранит все таблицы в памяти.
type Ledger struct {
	mu       sync.Mutex
	lockWait time.Duration

	users    map[string]domain.User
	variants map[string]domain.ProductVariant
	vouchers map[string]domain.Voucher
	grants   map[string]map[string]bool
	orders   map[string]domain.Order

	// Семафоры блокировок строк variants, по одному на вариант.
	locks map[string]chan struct{}
}

// Option настраивает Ledger.
type Option func(*Ledger)

// WithLockWait задаёт предельное ожидание блокировки варианта.
func WithLockWait(d time.Duration) Option {
	return func(l *Ledger) {
		l.lockWait = d
	}
}

// NewLedger возвращает пустое in-memory хранилище.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		lockWait: defaultLockWait,
		users:    make(map[string]domain.User),
		variants: make(map[string]domain.ProductVariant),
		vouchers: make(map[string]domain.Voucher),
		grants:   make(map[string]map[string]bool),
		orders:   make(map[string]domain.Order),
		locks:    make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SeedUser добавляет пользователя.
func (l *Ledger) SeedUser(u domain.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[u.ID] = u
}

// SeedVariant добавляет вариант товара.
func (l *Ledger) SeedVariant(v domain.ProductVariant) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.variants[v.ID] = v
}

// SeedVoucher добавляет ваучер.
func (l *Ledger) SeedVoucher(v domain.Voucher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vouchers[v.ID] = v
}

// SeedGrant выдаёт пользователю право на ваучер.
func (l *Ledger) SeedGrant(g domain.UserVoucherGrant) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.grants[g.UserID] == nil {
		l.grants[g.UserID] = make(map[string]bool)
	}
	l.grants[g.UserID][g.VoucherID] = true
}

// VariantQuantity возвращает текущий закоммиченный остаток варианта.
func (l *Ledger) VariantQuantity(variantID string) (int32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.variants[variantID]
	return v.Quantity, ok
}

// OrderCount возвращает количество закоммиченных заказов.
func (l *Ledger) OrderCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}

// Begin открывает транзакцию.
func (l *Ledger) Begin(ctx context.Context) (domain.LedgerTx, error) {
	return &ledgerTx{ledger: l}, nil
}

// GetOrder возвращает закоммиченный заказ или ErrOrderNotFound.
func (l *Ledger) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми.
func (l *Ledger) ListOrdersByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]domain.Order, 0)
	for _, order := range l.orders {
		if order.UserID == userID {
			result = append(result, cloneOrder(order))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// lockSem возвращает семафор для варианта, создавая его при первом обращении.
func (l *Ledger) lockSem(variantID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.locks[variantID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[variantID] = sem
	}
	return sem
}

// ledgerTx стейджит мутации и применяет их атомарно на Commit.
type ledgerTx struct {
	ledger *Ledger
	done   bool

	// held — варианты, заблокированные этой транзакцией, в порядке захвата.
	held []string
	// Стейдж-область: применяется целиком на Commit или отбрасывается.
	stagedOrders     []domain.Order
	stagedItems      []domain.OrderItem
	stagedDecrements map[string]int32
	stagedLinks      map[string][]string
}

func (tx *ledgerTx) LockVariant(ctx context.Context, variantID string) (domain.ProductVariant, error) {
	sem := tx.ledger.lockSem(variantID)

	timer := time.NewTimer(tx.ledger.lockWait)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
	case <-timer.C:
		return domain.ProductVariant{}, fmt.Errorf("variant %s: %w", variantID, domain.ErrContention)
	case <-ctx.Done():
		return domain.ProductVariant{}, fmt.Errorf("variant %s: %w", variantID, domain.ErrContention)
	}
	tx.held = append(tx.held, variantID)

	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()
	variant, ok := tx.ledger.variants[variantID]
	if !ok {
		return domain.ProductVariant{}, fmt.Errorf("variant %s: %w", variantID, domain.ErrVariantNotFound)
	}
	return variant, nil
}

func (tx *ledgerTx) GetUser(ctx context.Context, userID string) (domain.User, error) {
	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()
	user, ok := tx.ledger.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
	}
	return user, nil
}

func (tx *ledgerTx) ResolveVouchers(ctx context.Context, codes []string, at time.Time) ([]domain.Voucher, error) {
	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()

	byCode := make(map[string]domain.Voucher, len(tx.ledger.vouchers))
	for _, v := range tx.ledger.vouchers {
		byCode[v.Code] = v
	}

	resolved := make([]domain.Voucher, 0, len(codes))
	for _, code := range codes {
		v, ok := byCode[code]
		if !ok || v.ExpiresAt.Before(at) {
			// Несуществующие и истёкшие коды пропускаются молча.
			continue
		}
		resolved = append(resolved, v)
	}
	return resolved, nil
}

func (tx *ledgerTx) HasGrant(ctx context.Context, userID, voucherID string) (bool, error) {
	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()
	return tx.ledger.grants[userID][voucherID], nil
}

func (tx *ledgerTx) InsertOrder(ctx context.Context, order domain.Order) error {
	tx.stagedOrders = append(tx.stagedOrders, cloneOrder(order))
	return nil
}

func (tx *ledgerTx) InsertOrderItem(ctx context.Context, item domain.OrderItem) error {
	tx.stagedItems = append(tx.stagedItems, item)
	return nil
}

func (tx *ledgerTx) DecrementVariantQuantity(ctx context.Context, variantID string, qty int32) error {
	if tx.stagedDecrements == nil {
		tx.stagedDecrements = make(map[string]int32)
	}
	tx.stagedDecrements[variantID] += qty
	return nil
}

func (tx *ledgerTx) InsertOrderVoucherLink(ctx context.Context, orderID, voucherID string) error {
	if tx.stagedLinks == nil {
		tx.stagedLinks = make(map[string][]string)
	}
	tx.stagedLinks[orderID] = append(tx.stagedLinks[orderID], voucherID)
	return nil
}

// Commit применяет стейдж атомарно и отпускает блокировки.
func (tx *ledgerTx) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true

	tx.ledger.mu.Lock()
	for variantID, qty := range tx.stagedDecrements {
		v := tx.ledger.variants[variantID]
		v.Quantity -= qty
		tx.ledger.variants[variantID] = v
	}
	for _, order := range tx.stagedOrders {
		for _, item := range tx.stagedItems {
			if item.OrderID == order.ID {
				order.Items = append(order.Items, item)
			}
		}
		order.VoucherIDs = append(order.VoucherIDs, tx.stagedLinks[order.ID]...)
		tx.ledger.orders[order.ID] = order
	}
	tx.ledger.mu.Unlock()

	tx.releaseLocks()
	return nil
}

// Rollback отбрасывает стейдж; закоммиченное состояние не меняется.
func (tx *ledgerTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.releaseLocks()
	return nil
}

func (tx *ledgerTx) releaseLocks() {
	for _, variantID := range tx.held {
		<-tx.ledger.lockSem(variantID)
	}
	tx.held = nil
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	clone.VoucherIDs = append([]string(nil), order.VoucherIDs...)
	return clone
}

var _ domain.Ledger = (*Ledger)(nil)
var _ domain.LedgerTx = (*ledgerTx)(nil)
