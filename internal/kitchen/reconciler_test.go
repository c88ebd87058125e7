package kitchen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/store"
	"github.com/google/uuid"
)

// --- Mocks ---

type mockFetcher struct {
	mu      sync.Mutex
	orders  []store.Order
	err     error
	fetches int
}

func (m *mockFetcher) FetchPendingOrders(ctx context.Context) ([]store.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *mockFetcher) set(orders []store.Order) {
	m.mu.Lock()
	m.orders = orders
	m.mu.Unlock()
}

func (m *mockFetcher) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

type mockNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (m *mockNotifier) Notify(n Notification) {
	m.mu.Lock()
	m.notifications = append(m.notifications, n)
	m.mu.Unlock()
}

func (m *mockNotifier) all() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.notifications...)
}

func (m *mockNotifier) reset() {
	m.mu.Lock()
	m.notifications = nil
	m.mu.Unlock()
}

// --- Fixtures ---

func makeOrder(items ...store.OrderItem) store.Order {
	o := store.Order{ID: uuid.New(), TableID: uuid.New(), DinerCount: 2, CreatedAt: time.Now()}
	for i := range items {
		items[i].OrderID = o.ID
	}
	o.Items = items
	return o
}

func queuedItem(station string) store.OrderItem {
	return store.OrderItem{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Station:   station,
		State:     enum.ItemStateQueued,
		Quantity:  1,
		CreatedAt: time.Now(),
	}
}

func newTestReconciler(f *mockFetcher, n *mockNotifier) *Reconciler {
	return NewReconciler(f, n, time.Hour, time.Millisecond)
}

// --- Tests ---

func TestTickIdenticalSnapshotIsSilent(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := newTestReconciler(fetcher, notifier)

	order := makeOrder(queuedItem(enum.StationCaliente))
	fetcher.set([]store.Order{order})

	ctx := context.Background()
	r.tick(ctx)
	notifier.reset()

	// Same data again: no notifications.
	r.tick(ctx)
	if got := notifier.all(); len(got) != 0 {
		t.Fatalf("second identical tick raised %d notifications, want 0", len(got))
	}
}

func TestTickNewQueuedItemNotifiesAndUpdatesQueue(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := newTestReconciler(fetcher, notifier)

	order := makeOrder(queuedItem(enum.StationFrio))
	fetcher.set([]store.Order{order})

	ctx := context.Background()
	r.tick(ctx)
	notifier.reset()

	// One more queued item in caliente, same order count.
	added := queuedItem(enum.StationCaliente)
	added.OrderID = order.ID
	order.Items = append(order.Items, added)
	fetcher.set([]store.Order{order})

	r.tick(ctx)

	got := notifier.all()
	if len(got) != 1 {
		t.Fatalf("notifications = %v, want exactly one", got)
	}
	if got[0].Type != NotifyNewItems || got[0].Count != 1 {
		t.Errorf("notification = %+v, want {%s 1}", got[0], NotifyNewItems)
	}

	queues := r.Queues()
	found := false
	for _, it := range queues[enum.StationCaliente] {
		if it.ID == added.ID {
			found = true
		}
	}
	if !found {
		t.Error("new item missing from caliente queue view")
	}
}

func TestTickNewOrderRaisesBothNotifications(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := newTestReconciler(fetcher, notifier)

	first := makeOrder(queuedItem(enum.StationFrio))
	fetcher.set([]store.Order{first})

	ctx := context.Background()
	r.tick(ctx)
	notifier.reset()

	second := makeOrder(queuedItem(enum.StationBebida))
	fetcher.set([]store.Order{first, second})
	r.tick(ctx)

	var haveItems, haveOrders bool
	for _, n := range notifier.all() {
		switch n.Type {
		case NotifyNewItems:
			haveItems = n.Count == 1
		case NotifyNewOrders:
			haveOrders = n.Count == 1
		}
	}
	if !haveItems || !haveOrders {
		t.Errorf("notifications = %v, want one new-items and one new-orders", notifier.all())
	}
}

func TestTickStateChangeRefreshesWithoutNewItemNotification(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := newTestReconciler(fetcher, notifier)

	item := queuedItem(enum.StationCaliente)
	order := makeOrder(item)
	fetcher.set([]store.Order{order})

	ctx := context.Background()
	r.tick(ctx)
	notifier.reset()

	// Item advanced out of the queue: structural change, fewer queued items.
	advanced := item
	advanced.OrderID = order.ID
	advanced.State = enum.ItemStatePreparing
	updated := order
	updated.Items = []store.OrderItem{advanced}
	fetcher.set([]store.Order{updated})
	r.tick(ctx)

	if got := notifier.all(); len(got) != 0 {
		t.Errorf("state-change tick raised %v, want none", got)
	}
	if got := len(r.Queues()[enum.StationCaliente]); got != 0 {
		t.Errorf("caliente queue still has %d items after state change", got)
	}
}

func TestTickUnknownStationBucketedAsOtros(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := newTestReconciler(fetcher, notifier)

	item := queuedItem("parrilla")
	fetcher.set([]store.Order{makeOrder(item)})

	r.tick(context.Background())

	queues := r.Queues()
	if got := len(queues[enum.StationOtros]); got != 1 {
		t.Fatalf("otros bucket has %d items, want 1", got)
	}
	for _, st := range enum.Stations {
		if len(queues[st]) != 0 {
			t.Errorf("station %s unexpectedly has items", st)
		}
	}
}

func TestTickFetchFailureNotifiesAndKeepsSnapshot(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := newTestReconciler(fetcher, notifier)

	fetcher.set([]store.Order{makeOrder(queuedItem(enum.StationFrio))})
	ctx := context.Background()
	r.tick(ctx)
	notifier.reset()

	fetcher.mu.Lock()
	fetcher.err = errors.New("store unavailable")
	fetcher.mu.Unlock()

	r.tick(ctx)

	got := notifier.all()
	if len(got) != 1 || got[0].Type != NotifyFetchFailed {
		t.Fatalf("notifications = %v, want one fetch-failed", got)
	}
	if got := len(r.Orders()); got != 1 {
		t.Errorf("snapshot lost on fetch failure: %d orders held", got)
	}
}

func TestRefreshDebounce(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := NewReconciler(fetcher, notifier, time.Hour, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	// Wait for the startup poll.
	deadline := time.Now().Add(time.Second)
	for fetcher.fetchCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	base := fetcher.fetchCount()

	// A burst of forced refreshes inside the spacing window coalesces into
	// at most one extra poll.
	for i := 0; i < 10; i++ {
		r.Refresh()
	}
	time.Sleep(50 * time.Millisecond)

	if got := fetcher.fetchCount(); got > base+1 {
		t.Errorf("fetches after burst = %d, want at most %d", got, base+1)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestHandleNewOrderTriggersPoll(t *testing.T) {
	fetcher := &mockFetcher{}
	notifier := &mockNotifier{}
	r := NewReconciler(fetcher, notifier, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for fetcher.fetchCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	base := fetcher.fetchCount()

	time.Sleep(5 * time.Millisecond) // clear the debounce window
	r.HandleNewOrder(uuid.New())

	deadline = time.Now().Add(time.Second)
	for fetcher.fetchCount() <= base && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fetcher.fetchCount() <= base {
		t.Error("new-order signal did not trigger a poll")
	}
}
