package kitchen

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/store"
	"github.com/google/uuid"
)

// Notification types raised by the reconciler. All are advisory and
// non-blocking; a display renders them as toasts or badges.
const (
	NotifyNewItems    = "kitchen.new_items"
	NotifyNewOrders   = "kitchen.new_orders"
	NotifyFetchFailed = "kitchen.fetch_failed"
)

// Notification is one advisory message for the kitchen displays.
type Notification struct {
	Type    string `json:"type"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// Notifier receives reconciler notifications. Implementations must not
// block; the websocket hub adapter satisfies this.
type Notifier interface {
	Notify(n Notification)
}

// Fetcher is the read side of the order store the reconciler polls.
type Fetcher interface {
	FetchPendingOrders(ctx context.Context) ([]store.Order, error)
}

// Reconciler maintains a near-real-time view of kitchen work without a push
// channel: it polls the order store on an interval, diffs each fetch against
// its previous snapshot, and raises notifications for what changed. An
// out-of-band new-order signal or a display regaining focus forces an
// immediate poll, debounced so signal storms cannot hammer the store.
//
// All fetching and diffing happens on the single goroutine inside Run, so
// ticks are strictly sequential; a forced poll can never overlap an interval
// poll.
type Reconciler struct {
	fetcher  Fetcher
	notifier Notifier
	interval time.Duration
	minGap   time.Duration

	refresh chan struct{}

	mu       sync.RWMutex
	snapshot []store.Order
	queues   StationQueues

	forcedMu   sync.Mutex
	lastForced time.Time
}

// NewReconciler creates a reconciler polling fetcher every interval. Forced
// polls closer together than minGap are coalesced into the pending one or
// dropped.
func NewReconciler(fetcher Fetcher, notifier Notifier, interval, minGap time.Duration) *Reconciler {
	return &Reconciler{
		fetcher:  fetcher,
		notifier: notifier,
		interval: interval,
		minGap:   minGap,
		refresh:  make(chan struct{}, 1),
		queues:   QueuesByStation(nil, enum.ItemStateQueued),
	}
}

// Run polls until ctx is cancelled. It performs one immediate poll on entry
// so a freshly opened display is not blank for a full interval.
func (r *Reconciler) Run(ctx context.Context) error {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.refresh:
			r.tick(ctx)
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// Refresh requests an immediate out-of-cycle poll. Requests arriving within
// the minimum spacing of the previous forced poll are dropped; the next
// interval tick covers them. Safe to call from any goroutine.
func (r *Reconciler) Refresh() {
	r.forcedMu.Lock()
	if time.Since(r.lastForced) < r.minGap {
		r.forcedMu.Unlock()
		return
	}
	r.lastForced = time.Now()
	r.forcedMu.Unlock()

	select {
	case r.refresh <- struct{}{}:
	default:
	}
}

// HandleNewOrder is the signal-bus entry point. The order id is advisory; we
// re-poll rather than trust the payload.
func (r *Reconciler) HandleNewOrder(uuid.UUID) {
	r.Refresh()
}

// Queues returns the current station-partitioned view of queued items.
func (r *Reconciler) Queues() StationQueues {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(StationQueues, len(r.queues))
	for st, items := range r.queues {
		out[st] = append([]store.OrderItem(nil), items...)
	}
	return out
}

// Orders returns the last fetched snapshot.
func (r *Reconciler) Orders() []store.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.Order(nil), r.snapshot...)
}

// tick fetches, diffs against the previous snapshot, and notifies. A forced
// poll that finds no change is a no-op.
func (r *Reconciler) tick(ctx context.Context) {
	fetched, err := r.fetcher.FetchPendingOrders(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("kitchen: poll failed: %v", err)
		r.notifier.Notify(Notification{Type: NotifyFetchFailed, Message: err.Error()})
		return
	}

	r.mu.Lock()
	prev := r.snapshot
	newItems := countInState(fetched, enum.ItemStateQueued) - countInState(prev, enum.ItemStateQueued)
	newOrders := len(fetched) - len(prev)

	if !ordersEqual(prev, fetched) || newItems > 0 {
		r.snapshot = fetched
		r.queues = QueuesByStation(fetched, enum.ItemStateQueued)
	}
	r.mu.Unlock()

	if newItems > 0 {
		r.notifier.Notify(Notification{Type: NotifyNewItems, Count: newItems})
	}
	if newOrders > 0 {
		r.notifier.Notify(Notification{Type: NotifyNewOrders, Count: newOrders})
	}
}

func countInState(orders []store.Order, state string) int {
	n := 0
	for _, o := range orders {
		for _, it := range o.Items {
			if it.State == state {
				n++
			}
		}
	}
	return n
}

// ordersEqual compares two fetches structurally: same orders in the same
// positions, each with the same items by id, state, station, and quantity.
// The store returns orders and items in creation order, so positional
// comparison is stable.
func ordersEqual(a, b []store.Order) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].Items) != len(b[i].Items) {
			return false
		}
		for j := range a[i].Items {
			x, y := a[i].Items[j], b[i].Items[j]
			if x.ID != y.ID || x.State != y.State || x.Station != y.Station || x.Quantity != y.Quantity {
				return false
			}
		}
	}
	return true
}
