// Package store defines the order store collaborator: the single source of
// truth for persisted orders and kitchen items. Everything else in the system
// holds at most a read-only cached copy of what this store returns.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by order store implementations. I/O failures are wrapped
// around these sentinels so callers can match with errors.Is.
var (
	ErrOrderCreateFailed = errors.New("order create failed")
	ErrItemCreateFailed  = errors.New("order item create failed")
	ErrItemUpdateFailed  = errors.New("order item update failed")
	ErrIllegalTransition = errors.New("illegal item state transition")
	ErrItemNotFound      = errors.New("order item not found")
)

// Order is a persisted order with its kitchen items.
type Order struct {
	ID           uuid.UUID
	TableID      uuid.UUID
	CustomerName string
	DinerCount   int32
	PricingMode  string
	Status       string
	Total        decimal.Decimal
	CreatedAt    time.Time
	Items        []OrderItem
}

// OrderItem is one kitchen work unit belonging to an order.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Station   string
	State     string
	Quantity  int32
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// CreateOrderParams carries the order header written at submit time.
type CreateOrderParams struct {
	TableID      uuid.UUID
	CustomerName string
	DinerCount   int32
	PricingMode  string
	Total        decimal.Decimal
}

// CreateItemParams carries one line written at submit time. Station and
// UnitPrice are the snapshots taken when the product was added to the cart.
type CreateItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Station   string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// OrderStore is the collaborator contract consumed by the submitter, the
// kitchen reconciler, and the item transition service.
type OrderStore interface {
	// FetchPendingOrders returns all orders that still have kitchen work,
	// items included. An empty result is not an error.
	FetchPendingOrders(ctx context.Context) ([]Order, error)

	// CreateOrder persists an order header and returns its id.
	CreateOrder(ctx context.Context, p CreateOrderParams) (uuid.UUID, error)

	// CreateOrderItem persists one item in QUEUED state and returns its id.
	CreateOrderItem(ctx context.Context, p CreateItemParams) (uuid.UUID, error)

	// GetOrderItem returns a single item by id.
	GetOrderItem(ctx context.Context, itemID uuid.UUID) (OrderItem, error)

	// SetItemState moves an item from one state to another. The update is
	// guarded on the expected current state; a concurrent change surfaces
	// as ErrIllegalTransition.
	SetItemState(ctx context.Context, itemID uuid.UUID, from, to string) error
}
