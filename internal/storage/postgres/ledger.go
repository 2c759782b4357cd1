package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	// pgCodeLockNotAvailable — SQLSTATE 55P03: lock_timeout истёк.
	pgCodeLockNotAvailable = "55P03"

	defaultLockTimeout = 2 * time.Second
)

// ledger — PostgreSQL-реализация domain.Ledger. Блокировки строк —
// SELECT ... FOR UPDATE под lock_timeout; истечение таймаута
// превращается в ErrContention.
type ledger struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// LedgerOption настраивает ledger.
type LedgerOption func(*ledger)

// WithLockTimeout задаёт предельное ожидание блокировки строки варианта.
func WithLockTimeout(d time.Duration) LedgerOption {
	return func(l *ledger) {
		if d > 0 {
			l.lockTimeout = d
		}
	}
}

// NewLedger создаёт PostgreSQL-реализацию Ledger.
func NewLedger(store *Store, opts ...LedgerOption) domain.Ledger {
	l := &ledger{db: store.DB(), lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Begin открывает транзакцию и выставляет lock_timeout на её время.
func (l *ledger) Begin(ctx context.Context) (domain.LedgerTx, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", domain.ErrStoreUnavailable, err)
	}
	// SET LOCAL живёт до конца транзакции.
	timeoutMs := l.lockTimeout.Milliseconds()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMs)); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: set lock_timeout: %v", domain.ErrStoreUnavailable, err)
	}
	return &ledgerTx{tx: tx}, nil
}

// GetOrder возвращает заказ с позициями и применёнными ваучерами.
func (l *ledger) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		order   domain.Order
		method  string
		payment string
		shipped string
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT id, user_id, shipping_address, total_minor, shipping_fee_minor,
		       payment_method, payment_status, shipping_status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.UserID, &order.ShippingAddress, &order.TotalMinor, &order.ShippingFeeMinor,
		&method, &payment, &shipped, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.PaymentMethod = domain.PaymentMethod(method)
	order.PaymentStatus = domain.PaymentStatus(payment)
	order.ShippingStatus = domain.ShippingStatus(shipped)

	if order.Items, err = l.loadItems(ctx, order.ID); err != nil {
		return domain.Order{}, err
	}
	if order.VoucherIDs, err = l.loadVoucherLinks(ctx, order.ID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми.
func (l *ledger) ListOrdersByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, shipping_address, total_minor, shipping_fee_minor,
		       payment_method, payment_status, shipping_status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = l.db.QueryContext(ctx, query+" LIMIT $2", userID, limit)
	} else {
		rows, err = l.db.QueryContext(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order   domain.Order
			method  string
			payment string
			shipped string
		)
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.ShippingAddress, &order.TotalMinor, &order.ShippingFeeMinor,
			&method, &payment, &shipped, &order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.PaymentMethod = domain.PaymentMethod(method)
		order.PaymentStatus = domain.PaymentStatus(payment)
		order.ShippingStatus = domain.ShippingStatus(shipped)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = l.loadItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (l *ledger) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT order_id, variant_id, qty, price_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY variant_id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.VariantID, &item.Qty, &item.PriceMinor); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func (l *ledger) loadVoucherLinks(ctx context.Context, orderID string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT voucher_id FROM order_vouchers WHERE order_id = $1 ORDER BY voucher_id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load voucher links: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan voucher link: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voucher links: %w", err)
	}
	return ids, nil
}

// ledgerTx оборачивает sql.Tx в контракт domain.LedgerTx.
type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) LockVariant(ctx context.Context, variantID string) (domain.ProductVariant, error) {
	var v domain.ProductVariant
	err := t.tx.QueryRowContext(ctx, `
		SELECT pv.id, pv.product_id, p.store_id, p.name, pv.size, pv.color, pv.price_minor, pv.quantity
		FROM product_variants pv
		JOIN products p ON p.id = pv.product_id
		WHERE pv.id = $1
		FOR UPDATE OF pv
	`, variantID).Scan(
		&v.ID, &v.ProductID, &v.StoreID, &v.Name, &v.Size, &v.Color, &v.PriceMinor, &v.Quantity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductVariant{}, fmt.Errorf("variant %s: %w", variantID, domain.ErrVariantNotFound)
		}
		if isLockNotAvailable(err) {
			return domain.ProductVariant{}, fmt.Errorf("variant %s: %w", variantID, domain.ErrContention)
		}
		return domain.ProductVariant{}, fmt.Errorf("lock variant %s: %w", variantID, err)
	}
	return v, nil
}

func (t *ledgerTx) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	err := t.tx.QueryRowContext(ctx, `SELECT id, email FROM users WHERE id = $1`, userID).Scan(&u.ID, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (t *ledgerTx) ResolveVouchers(ctx context.Context, codes []string, at time.Time) ([]domain.Voucher, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(codes))
	args := make([]any, 0, len(codes)+1)
	for i, code := range codes {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, code)
	}
	args = append(args, at)

	query := fmt.Sprintf(`
		SELECT id, code, discount_percent, expires_at
		FROM vouchers
		WHERE code IN (%s) AND expires_at >= $%d
	`, strings.Join(placeholders, ","), len(codes)+1)

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := make([]domain.Voucher, 0, len(codes))
	for rows.Next() {
		var v domain.Voucher
		if err := rows.Scan(&v.ID, &v.Code, &v.DiscountPercent, &v.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vouchers: %w", err)
	}
	return vouchers, nil
}

func (t *ledgerTx) HasGrant(ctx context.Context, userID, voucherID string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `
		SELECT 1 FROM user_vouchers WHERE user_id = $1 AND voucher_id = $2
	`, userID, voucherID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check voucher grant: %w", err)
	}
	return true, nil
}

func (t *ledgerTx) InsertOrder(ctx context.Context, order domain.Order) error {
	address := order.ShippingAddress
	if len(address) == 0 {
		address = []byte("{}")
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, shipping_address, total_minor, shipping_fee_minor,
			payment_method, payment_status, shipping_status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		order.ID, order.UserID, []byte(address), order.TotalMinor, order.ShippingFeeMinor,
		string(order.PaymentMethod), string(order.PaymentStatus), string(order.ShippingStatus), order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *ledgerTx) InsertOrderItem(ctx context.Context, item domain.OrderItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, variant_id, qty, price_minor)
		VALUES ($1,$2,$3,$4)
	`, item.OrderID, item.VariantID, item.Qty, item.PriceMinor)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *ledgerTx) DecrementVariantQuantity(ctx context.Context, variantID string, qty int32) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE product_variants SET quantity = quantity - $1 WHERE id = $2
	`, qty, variantID)
	if err != nil {
		return fmt.Errorf("decrement variant %s: %w", variantID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("variant %s: %w", variantID, domain.ErrVariantNotFound)
	}
	return nil
}

func (t *ledgerTx) InsertOrderVoucherLink(ctx context.Context, orderID, voucherID string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_vouchers (order_id, voucher_id) VALUES ($1,$2)
	`, orderID, voucherID)
	if err != nil {
		return fmt.Errorf("insert order voucher link: %w", err)
	}
	return nil
}

func (t *ledgerTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *ledgerTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeLockNotAvailable
	}
	return false
}

var _ domain.Ledger = (*ledger)(nil)
var _ domain.LedgerTx = (*ledgerTx)(nil)
