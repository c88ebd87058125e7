package signal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInProcessBusDelivery(t *testing.T) {
	bus := NewInProcessBus()

	var (
		mu       sync.Mutex
		received []uuid.UUID
	)
	unsubscribe := bus.Subscribe(func(id uuid.UUID) {
		mu.Lock()
		received = append(received, id)
		mu.Unlock()
	})
	defer unsubscribe()

	want := uuid.New()
	if err := bus.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	// Give the dispatch goroutine time to run.
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != want {
		t.Fatalf("received = %v, want [%s]", received, want)
	}
}

func TestInProcessBusFanOut(t *testing.T) {
	bus := NewInProcessBus()

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		unsub := bus.Subscribe(func(uuid.UUID) { wg.Done() })
		defer unsub()
	}

	if err := bus.Publish(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all subscribers received the signal")
	}
}

func TestInProcessBusUnsubscribe(t *testing.T) {
	bus := NewInProcessBus()

	var (
		mu    sync.Mutex
		count int
	)
	unsubscribe := bus.Subscribe(func(uuid.UUID) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	unsubscribe()
	unsubscribe() // safe to call twice

	if err := bus.Publish(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("handler called %d times after unsubscribe", count)
	}
}
