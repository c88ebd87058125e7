package service

import (
	"context"
	"fmt"

	"github.com/comanda-pos/api/internal/kitchen"
	"github.com/comanda-pos/api/internal/store"
	"github.com/google/uuid"
)

// TransitionStore is the slice of the order store the transition service
// needs.
type TransitionStore interface {
	GetOrderItem(ctx context.Context, itemID uuid.UUID) (store.OrderItem, error)
	SetItemState(ctx context.Context, itemID uuid.UUID, from, to string) error
}

// ItemTransitions advances and cancels kitchen items. The store is the sole
// source of truth: the returned item reflects a state the store confirmed,
// and a guard failure (someone else moved the item first) surfaces as
// store.ErrIllegalTransition for the next poll to straighten out.
type ItemTransitions struct {
	store TransitionStore
}

// NewItemTransitions creates an ItemTransitions service.
func NewItemTransitions(st TransitionStore) *ItemTransitions {
	return &ItemTransitions{store: st}
}

// Advance moves an item to its next lifecycle state.
func (t *ItemTransitions) Advance(ctx context.Context, itemID uuid.UUID) (store.OrderItem, error) {
	item, err := t.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return store.OrderItem{}, fmt.Errorf("load item: %w", err)
	}
	next, err := kitchen.NextState(item.State)
	if err != nil {
		return store.OrderItem{}, err
	}
	if err := t.store.SetItemState(ctx, itemID, item.State, next); err != nil {
		return store.OrderItem{}, err
	}
	item.State = next
	return item, nil
}

// Cancel cancels an item from any non-terminal state.
func (t *ItemTransitions) Cancel(ctx context.Context, itemID uuid.UUID) (store.OrderItem, error) {
	item, err := t.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return store.OrderItem{}, fmt.Errorf("load item: %w", err)
	}
	next, err := kitchen.CancelState(item.State)
	if err != nil {
		return store.OrderItem{}, err
	}
	if err := t.store.SetItemState(ctx, itemID, item.State, next); err != nil {
		return store.OrderItem{}, err
	}
	item.State = next
	return item, nil
}
