// Package bus implements the in-process event bus: a single background
// consumer dispatching published messages to topic subscribers through a
// bounded queue, with non-blocking publish (drop on full) and subscriber
// panic isolation.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WildcardTopic receives every published message, in addition to that
// message's own topic subscribers. It is an optional convenience the
// specification permits but does not require.
const WildcardTopic = "*"

// Handler is the event-bus callback contract: a function accepting one
// payload argument. A handler that panics is recovered and suppressed by
// the bus; it must not starve other subscribers or crash the consumer.
type Handler func(payload interface{})

type message struct {
	id      string
	topic   string
	payload interface{}
}

// Bus is a thread-safe, single-consumer publish/subscribe dispatcher.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler

	queue chan message
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once

	dropped atomic.Int64
	log     zerolog.Logger
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithLogger overrides the default logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bus) { b.log = l }
}

// New creates a Bus with the given bounded queue capacity and starts its
// consumer goroutine. capacity must be at least 1.
func New(capacity int, opts ...Option) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	b := &Bus{
		subs:  make(map[string][]Handler),
		queue: make(chan message, capacity),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

// Subscribe registers fn to be invoked, in registration order relative to
// other subscribers of the same topic, whenever a message is published to
// topic. There is no unsubscribe; subscriptions are additive for the
// lifetime of the bus.
func (b *Bus) Subscribe(topic string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], fn)
}

// Publish attempts a non-blocking enqueue of (topic, payload). If the
// queue is full the message is dropped silently; DroppedCount reflects how
// many messages have been dropped this way.
func (b *Bus) Publish(topic string, payload interface{}) {
	msg := message{id: uuid.NewString(), topic: topic, payload: payload}
	select {
	case b.queue <- msg:
	default:
		b.dropped.Add(1)
		b.log.Debug().Str("topic", topic).Msg("bus: queue full, message dropped")
	}
}

// DroppedCount reports how many published messages were dropped due to a
// full queue.
func (b *Bus) DroppedCount() int64 {
	return b.dropped.Load()
}

// Shutdown stops the consumer goroutine. It does not drain the remaining
// queue; any messages still buffered when Shutdown is called are not
// delivered. Shutdown is idempotent.
func (b *Bus) Shutdown() {
	b.once.Do(func() {
		close(b.stop)
	})
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		select {
		case <-b.stop:
			return
		case msg := <-b.queue:
			b.dispatch(msg)
		}
	}
}

func (b *Bus) dispatch(msg message) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[msg.topic]...)
	if msg.topic != WildcardTopic {
		handlers = append(handlers, b.subs[WildcardTopic]...)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.invoke(msg, fn)
	}
}

func (b *Bus) invoke(msg message, fn Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().
				Str("topic", msg.topic).
				Str("message_id", msg.id).
				Interface("panic", r).
				Msg("bus: subscriber panicked, suppressed")
		}
	}()
	fn(msg.payload)
}
