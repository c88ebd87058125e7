// Package kitchen holds the item lifecycle rules, the station-partitioned
// queue views, and the reconciler that keeps displays in sync with the order
// store by polling.
package kitchen

import (
	"errors"

	"github.com/comanda-pos/api/internal/enum"
)

// Transition errors. Both are recovered locally by ignoring the requested
// action; neither should ever take a display down.
var (
	ErrNoValidTransition = errors.New("no valid transition from state")
	ErrAlreadyTerminal   = errors.New("item is already in a terminal state")
)

// NextState returns the state an item advances to from current:
// QUEUED → PREPARING → READY → SERVED.
func NextState(current string) (string, error) {
	switch current {
	case enum.ItemStateQueued:
		return enum.ItemStatePreparing, nil
	case enum.ItemStatePreparing:
		return enum.ItemStateReady, nil
	case enum.ItemStateReady:
		return enum.ItemStateServed, nil
	}
	return "", ErrNoValidTransition
}

// CancelState returns CANCELLED when cancelling from current is legal.
// Terminal states return ErrAlreadyTerminal; anything unrecognized returns
// ErrNoValidTransition.
func CancelState(current string) (string, error) {
	switch current {
	case enum.ItemStateQueued, enum.ItemStatePreparing, enum.ItemStateReady:
		return enum.ItemStateCancelled, nil
	case enum.ItemStateServed, enum.ItemStateCancelled:
		return "", ErrAlreadyTerminal
	}
	return "", ErrNoValidTransition
}
