package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const opTimeout = 5 * time.Second

type orderStore struct {
	db *sql.DB
}

// NewOrderStore создаёт PostgreSQL-реализацию RemoteOrderStore.
func NewOrderStore(store *Store) domain.RemoteOrderStore {
	return &orderStore{db: store.DB()}
}

const orderColumns = `
	id, order_number, user_id, status,
	subtotal_minor, delivery_fee_minor, tax_minor, total_minor,
	delivery_address, order_type, customer_name, customer_phone,
	created_at, updated_at
`

// Query возвращает заказы по фильтру, старые первыми — тот же порядок
// видит реконсилятор при каждом старте.
func (s *orderStore) Query(ctx context.Context, q domain.OrderQuery) ([]domain.Order, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if q.UserID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, q.UserID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, mapStoreError("list orders", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("iterate order rows", err)
	}

	for i := range orders {
		items, err := s.loadItems(queryCtx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// Create сохраняет заказ вместе с позициями в одной транзакции.
func (s *orderStore) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	execCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	tx, err := s.db.BeginTx(execCtx, nil)
	if err != nil {
		return domain.Order{}, mapStoreError("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(execCtx, `
		INSERT INTO orders (
			id, order_number, user_id, status,
			subtotal_minor, delivery_fee_minor, tax_minor, total_minor,
			delivery_address, order_type, customer_name, customer_phone,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		order.ID, order.OrderNumber, order.UserID, string(order.Status),
		order.SubtotalMinor, order.DeliveryFeeMinor, order.TaxMinor, order.TotalMinor,
		order.DeliveryAddress, string(order.OrderType), order.CustomerName, order.CustomerPhone,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderExists, order.ID)
		}
		return domain.Order{}, mapStoreError("insert order", err)
	}

	if err = insertItems(execCtx, tx, order.ID, order.Items); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, mapStoreError("commit create order", err)
	}

	return order, nil
}

// Update накладывает патч и возвращает авторитетную строку. Замена позиций
// (когда патч их задаёт) выполняется в той же транзакции, что и UPDATE.
func (s *orderStore) Update(ctx context.Context, orderID string, patch domain.OrderPatch) (domain.Order, error) {
	execCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(execCtx, nil)
	if err != nil {
		return domain.Order{}, mapStoreError("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	set, args := patchAssignments(patch)
	args = append(args, orderID)

	query := fmt.Sprintf(`
		UPDATE orders SET %s
		WHERE id = $%d
		RETURNING `+orderColumns,
		strings.Join(set, ", "), len(args))
	row := tx.QueryRowContext(execCtx, query, args...)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
			return domain.Order{}, err
		}
		return domain.Order{}, err
	}

	if patch.Items != nil {
		if _, err = tx.ExecContext(execCtx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
			return domain.Order{}, mapStoreError("delete order items", err)
		}
		if err = insertItems(execCtx, tx, orderID, patch.Items); err != nil {
			return domain.Order{}, err
		}
		order.Items = patch.Items
	} else {
		items, loadErr := loadItemsTx(execCtx, tx, orderID)
		if loadErr != nil {
			err = loadErr
			return domain.Order{}, err
		}
		order.Items = items
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, mapStoreError("commit update order", err)
	}

	return order, nil
}

// patchAssignments превращает патч в SET-клаузы; updated_at обновляется
// всегда, даже на пустом патче.
func patchAssignments(patch domain.OrderPatch) ([]string, []any) {
	set := []string{"updated_at = NOW()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.SubtotalMinor != nil {
		add("subtotal_minor", *patch.SubtotalMinor)
	}
	if patch.DeliveryFeeMinor != nil {
		add("delivery_fee_minor", *patch.DeliveryFeeMinor)
	}
	if patch.TaxMinor != nil {
		add("tax_minor", *patch.TaxMinor)
	}
	if patch.TotalMinor != nil {
		add("total_minor", *patch.TotalMinor)
	}
	if patch.DeliveryAddress != nil {
		add("delivery_address", *patch.DeliveryAddress)
	}
	if patch.OrderType != nil {
		add("order_type", string(*patch.OrderType))
	}
	if patch.CustomerName != nil {
		add("customer_name", *patch.CustomerName)
	}
	if patch.CustomerPhone != nil {
		add("customer_phone", *patch.CustomerPhone)
	}

	return set, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order     domain.Order
		status    string
		orderType string
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &status,
		&order.SubtotalMinor, &order.DeliveryFeeMinor, &order.TaxMinor, &order.TotalMinor,
		&order.DeliveryAddress, &orderType, &order.CustomerName, &order.CustomerPhone,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, err
		}
		return domain.Order{}, mapStoreError("scan order row", err)
	}
	order.Status = domain.OrderStatus(status)
	order.OrderType = domain.OrderType(orderType)
	return order, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, name, qty, price_minor, position)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, item.ID, orderID, item.Name, item.Qty, item.PriceMinor, i); err != nil {
			return mapStoreError("insert order item", err)
		}
	}
	return nil
}

func (s *orderStore) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, qty, price_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, mapStoreError("load order items", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func loadItemsTx(ctx context.Context, tx *sql.Tx, orderID string) ([]domain.OrderItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, qty, price_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, mapStoreError("load order items", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Qty, &item.PriceMinor); err != nil {
			return nil, mapStoreError("scan order item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("iterate order items", err)
	}
	return items, nil
}

// mapStoreError переводит ошибки драйвера в таксономию домена: отказ по
// политике доступа отличим от транспортного сбоя, всё остальное считается
// недоступностью хранилища.
func mapStoreError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501": // insufficient_privilege
			return fmt.Errorf("%s: %w", op, domain.ErrPermissionDenied)
		case strings.HasPrefix(pgErr.Code, "28"): // invalid authorization
			return fmt.Errorf("%s: %w", op, domain.ErrPermissionDenied)
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			strings.HasPrefix(pgErr.Code, "57"): // operator intervention
			return fmt.Errorf("%s: %w (%v)", op, domain.ErrStoreUnavailable, err)
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	// Ошибки без кода SQLSTATE — обрыв соединения, таймаут, DNS.
	return fmt.Errorf("%s: %w (%v)", op, domain.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.RemoteOrderStore = (*orderStore)(nil)
