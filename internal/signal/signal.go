// Package signal provides typed publish/subscribe topics used for
// cross-component requests such as "save requested" and "mission deleted".
// Delivery is synchronous on the publisher's goroutine.
package signal

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Handler receives one published value.
type Handler[T any] func(ctx context.Context, v T)

// Topic is a named channel carrying values of a single type.
type Topic[T any] struct {
	name   string
	logger Logger

	mu     sync.RWMutex
	subs   map[uint64]Handler[T]
	order  []uint64
	nextID uint64

	published metric.Int64Counter
	delivered metric.Int64Counter
	attrs     metric.MeasurementOption
}

// NewTopic creates a topic. Metrics come from the global OTel meter, which is
// a no-op until a provider is installed.
func NewTopic[T any](name string, logger Logger) (*Topic[T], error) {
	t := &Topic[T]{
		name:   name,
		logger: logger,
		subs:   make(map[uint64]Handler[T]),
		attrs:  metric.WithAttributes(attribute.String("topic", name)),
	}

	m := meter()
	var err error

	t.published, err = m.Int64Counter(
		"signal.published",
		metric.WithDescription("Total values published per topic"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}

	t.delivered, err = m.Int64Counter(
		"signal.delivered",
		metric.WithDescription("Total handler deliveries per topic"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivered counter: %w", err)
	}

	return t, nil
}

// Name returns the topic name.
func (t *Topic[T]) Name() string {
	return t.name
}

// Subscribe registers h and returns a function that removes it.
// Calling the returned function more than once is safe.
func (t *Topic[T]) Subscribe(h Handler[T]) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = h
	t.order = append(t.order, id)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			for i, oid := range t.order {
				if oid == id {
					t.order = append(t.order[:i], t.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Publish delivers v to every subscriber in subscription order and returns the
// number of handlers invoked.
func (t *Topic[T]) Publish(ctx context.Context, v T) int {
	t.mu.RLock()
	handlers := make([]Handler[T], 0, len(t.order))
	for _, id := range t.order {
		handlers = append(handlers, t.subs[id])
	}
	t.mu.RUnlock()

	t.published.Add(ctx, 1, t.attrs)
	if t.logger != nil {
		t.logger.Debug("signal published", "topic", t.name, "subscribers", len(handlers))
	}

	for _, h := range handlers {
		h(ctx, v)
	}
	t.delivered.Add(ctx, int64(len(handlers)), t.attrs)
	return len(handlers)
}
