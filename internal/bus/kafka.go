package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaBus relays messages between server instances through a Kafka topic.
// Every instance joins its own consumer group so each one observes every
// message, including echoes of its own publishes; subscribers filter those
// out by Origin.
type KafkaBus struct {
	writer *kafka.Writer
	reader *kafka.Reader
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

// NewKafkaBus connects to the given brokers and starts consuming the topic.
func NewKafkaBus(brokers []string, topic string) *KafkaBus {
	b := &KafkaBus{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			// One group per instance so every instance sees every message.
			GroupID:  "vet-telehealth-" + uuid.NewString(),
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		handlers: make(map[int]Handler),
		done:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.consume(ctx)

	return b
}

// Subscribe registers a handler for inbound messages.
func (b *KafkaBus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish writes the message to the topic in the background. Delivery is
// fire-and-forget; failures are logged and never surfaced to the caller.
func (b *KafkaBus) Publish(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(msg.Type),
			Value: data,
		}); err != nil {
			log.Printf("bus: failed to publish %s: %v", msg.Type, err)
		}
	}()
	return nil
}

func (b *KafkaBus) consume(ctx context.Context) {
	defer close(b.done)
	for {
		km, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("bus: read error: %v", err)
			continue
		}

		var msg Message
		if err := json.Unmarshal(km.Value, &msg); err != nil {
			log.Printf("bus: dropping malformed message: %v", err)
			continue
		}

		b.mu.RLock()
		hs := make([]Handler, 0, len(b.handlers))
		for _, h := range b.handlers {
			hs = append(hs, h)
		}
		b.mu.RUnlock()

		for _, h := range hs {
			h(msg)
		}
	}
}

// Close stops the consumer loop and releases the Kafka connections.
func (b *KafkaBus) Close() error {
	b.cancel()
	<-b.done
	if err := b.reader.Close(); err != nil {
		log.Printf("bus: failed to close reader: %v", err)
	}
	return b.writer.Close()
}
