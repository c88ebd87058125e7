package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore implements OrderStore against Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FetchPendingOrders returns every order that still has at least one item in
// a non-terminal state, with all of its items. Items come back in creation
// order within each order.
func (s *PostgresStore) FetchPendingOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.table_id, o.customer_name, o.diner_count, o.pricing_mode,
		       o.status, o.total, o.created_at,
		       i.id, i.product_id, i.name, i.station, i.state, i.quantity,
		       i.unit_price, i.created_at
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.id IN (
			SELECT DISTINCT order_id FROM order_items
			WHERE state NOT IN ($1, $2)
		)
		ORDER BY o.created_at, o.id, i.created_at, i.id
	`, enum.ItemStateServed, enum.ItemStateCancelled)
	if err != nil {
		return nil, fmt.Errorf("fetch pending orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []Order
		cur    *Order
	)
	for rows.Next() {
		var (
			o            Order
			it           OrderItem
			customerName pgtype.Text
			orderTotal   pgtype.Numeric
			unitPrice    pgtype.Numeric
		)
		if err := rows.Scan(
			&o.ID, &o.TableID, &customerName, &o.DinerCount, &o.PricingMode,
			&o.Status, &orderTotal, &o.CreatedAt,
			&it.ID, &it.ProductID, &it.Name, &it.Station, &it.State, &it.Quantity,
			&unitPrice, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending order row: %w", err)
		}
		o.CustomerName = customerName.String
		o.Total = numericToDecimal(orderTotal)
		it.OrderID = o.ID
		it.UnitPrice = numericToDecimal(unitPrice)

		if cur == nil || cur.ID != o.ID {
			orders = append(orders, o)
			cur = &orders[len(orders)-1]
		}
		cur.Items = append(cur.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending orders: %w", err)
	}
	return orders, nil
}

// CreateOrder inserts the order header and returns the generated id.
func (s *PostgresStore) CreateOrder(ctx context.Context, p CreateOrderParams) (uuid.UUID, error) {
	customerName := pgtype.Text{}
	if p.CustomerName != "" {
		customerName = pgtype.Text{String: p.CustomerName, Valid: true}
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO orders (table_id, customer_name, diner_count, pricing_mode, status, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.TableID, customerName, p.DinerCount, p.PricingMode,
		enum.OrderStatusSubmitted, decimalToNumeric(p.Total)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
	}
	return id, nil
}

// CreateOrderItem inserts one item in QUEUED state and returns its id.
func (s *PostgresStore) CreateOrderItem(ctx context.Context, p CreateItemParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, name, station, state, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.OrderID, p.ProductID, p.Name, p.Station,
		enum.ItemStateQueued, p.Quantity, decimalToNumeric(p.UnitPrice)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrItemCreateFailed, err)
	}
	return id, nil
}

// GetOrderItem returns a single item by id.
func (s *PostgresStore) GetOrderItem(ctx context.Context, itemID uuid.UUID) (OrderItem, error) {
	var (
		it        OrderItem
		unitPrice pgtype.Numeric
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, order_id, product_id, name, station, state, quantity, unit_price, created_at
		FROM order_items WHERE id = $1
	`, itemID).Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Station,
		&it.State, &it.Quantity, &unitPrice, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderItem{}, ErrItemNotFound
		}
		return OrderItem{}, fmt.Errorf("get order item: %w", err)
	}
	it.UnitPrice = numericToDecimal(unitPrice)
	return it, nil
}

// SetItemState performs a state-guarded update. Zero rows affected means the
// item moved under us (or never was in the expected state), which surfaces as
// ErrIllegalTransition so the caller re-reads on the next poll.
func (s *PostgresStore) SetItemState(ctx context.Context, itemID uuid.UUID, from, to string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE order_items SET state = $1 WHERE id = $2 AND state = $3
	`, to, itemID, from)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrItemUpdateFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIllegalTransition
	}
	return nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
