package signal

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const newOrderExchange = "orders.new"

// AmqpBus is the cross-process Bus: a fanout exchange on RabbitMQ. Every
// kitchen display binds its own auto-delete queue, so each one sees every
// signal at least once.
type AmqpBus struct {
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel
}

// DialAmqp connects to the broker and declares the fanout exchange.
func DialAmqp(url string) (*AmqpBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(newOrderExchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AmqpBus{conn: conn, ch: ch}, nil
}

// Close tears down the channel and connection.
func (b *AmqpBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}

// Publish broadcasts the order id to the fanout exchange.
func (b *AmqpBus) Publish(ctx context.Context, orderID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch.PublishWithContext(
		ctx,
		newOrderExchange,
		"", // fanout ignores the routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "text/plain",
			Timestamp:   time.Now(),
			Body:        []byte(orderID.String()),
		},
	)
}

// Subscribe binds a private auto-delete queue to the exchange and dispatches
// deliveries to h. A malformed body still triggers h with uuid.Nil: the
// signal's only meaning is "go poll".
func (b *AmqpBus) Subscribe(h Handler) func() {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() { once.Do(func() { close(done) }) }

	ch, err := b.conn.Channel()
	if err != nil {
		log.Printf("signal: open channel: %v", err)
		return unsubscribe
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		log.Printf("signal: declare queue: %v", err)
		_ = ch.Close()
		return unsubscribe
	}
	if err := ch.QueueBind(q.Name, "", newOrderExchange, false, nil); err != nil {
		log.Printf("signal: bind queue: %v", err)
		_ = ch.Close()
		return unsubscribe
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		log.Printf("signal: consume: %v", err)
		_ = ch.Close()
		return unsubscribe
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				id, err := uuid.ParseBytes(d.Body)
				if err != nil {
					id = uuid.Nil
				}
				h(id)
			case <-done:
				return
			}
		}
	}()

	return unsubscribe
}
