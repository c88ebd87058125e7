package ws

import (
	"encoding/json"

	"github.com/comanda-pos/api/internal/kitchen"
)

// ReconcilerNotifier adapts the Hub to the reconciler's Notifier interface:
// every reconciler notification is pushed to all connected displays.
type ReconcilerNotifier struct {
	hub *Hub
}

// NewReconcilerNotifier wraps a hub.
func NewReconcilerNotifier(hub *Hub) *ReconcilerNotifier {
	return &ReconcilerNotifier{hub: hub}
}

// Notify broadcasts the notification as a JSON event. Never blocks; the hub
// drops messages to displays that cannot keep up.
func (n *ReconcilerNotifier) Notify(notification kitchen.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	n.hub.BroadcastAll(Event{Type: notification.Type, Payload: payload})
}
