package memory

import (
	"context"
	"sync"

	"github.com/viant/diskor/internal/idgen"
	"github.com/viant/diskor/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	// DeadLetter keeps nacked messages for DeadLetters
	DeadLetter bool
	// FailWhenFull makes Publish return messaging.ErrFull instead of blocking
	FailWhenFull bool
	QueueBuffer  int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message implements messaging.Message for the in-memory queue
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
	lastErr   error
}

// ID returns the message id
func (m *Message[T]) ID() string { return m.id }

// Err returns the error passed to the last Nack
func (m *Message[T]) Err() error { return m.lastErr }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	return nil
}

// Nack rejects the message; it moves to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	m.lastErr = err
	if m.queue.config.DeadLetter {
		m.queue.mu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.mu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages  chan *Message[T]
	done      chan struct{}
	closeOnce sync.Once
	dlq       []*Message[T]
	config    Config
	mu        sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		done:     make(chan struct{}),
		config:   config,
	}
}

// Publish adds a new item to the queue. While the buffer is full it blocks,
// or fails with messaging.ErrFull when FailWhenFull is set.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: idgen.New(), payload: *t, queue: q}
	select {
	case <-q.done:
		return messaging.ErrClosed
	default:
	}
	if q.config.FailWhenFull {
		select {
		case q.messages <- msg:
			return nil
		default:
			return messaging.ErrFull
		}
	}
	select {
	case q.messages <- msg:
		return nil
	case <-q.done:
		return messaging.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case <-q.done:
		return nil, messaging.ErrClosed
	default:
	}
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-q.done:
		return nil, messaging.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the queue. Buffered messages are dropped.
func (q *Queue[T]) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dlq)
}

// DeadLetters returns payloads of dead lettered messages
func (q *Queue[T]) DeadLetters() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	ret := make([]T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		ret = append(ret, msg.payload)
	}
	return ret
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
