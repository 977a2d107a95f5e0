package event

import (
	"context"
	"sort"
	"sync"

	"github.com/containerd/log"
	"github.com/viant/diskor/internal/clock"
	"github.com/viant/diskor/service/messaging"
)

// Handler receives published events
type Handler[T any] func(ctx context.Context, event *Event[T])

// Publisher delivers events to subscribed handlers synchronously and, when a
// drain queue is attached, forwards a copy for asynchronous listeners.
type Publisher[T any] struct {
	mux      sync.RWMutex
	queue    messaging.Queue[Event[T]]
	anyQueue messaging.Queue[Event[any]]
	handlers map[int]Handler[T]
	nextID   int
}

// NewPublisher creates a publisher; queue may be nil.
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue:    queue,
		handlers: make(map[int]Handler[T]),
	}
}

// Subscribe registers a handler and returns a function removing it. Handlers
// run in subscription order on the publishing goroutine.
func (p *Publisher[T]) Subscribe(handler Handler[T]) func() {
	p.mux.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	p.mux.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mux.Lock()
			delete(p.handlers, id)
			p.mux.Unlock()
		})
	}
}

func (p *Publisher[T]) snapshot() ([]Handler[T], messaging.Queue[Event[T]], messaging.Queue[Event[any]]) {
	p.mux.RLock()
	defer p.mux.RUnlock()
	ids := make([]int, 0, len(p.handlers))
	for id := range p.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler[T], 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, p.handlers[id])
	}
	return handlers, p.queue, p.anyQueue
}

func (p *Publisher[T]) setQueue(queue messaging.Queue[Event[T]]) {
	p.mux.Lock()
	p.queue = queue
	p.mux.Unlock()
}

func (p *Publisher[T]) setAnyQueue(queue messaging.Queue[Event[any]]) {
	p.mux.Lock()
	p.anyQueue = queue
	p.mux.Unlock()
}

// Publish delivers the event to handlers, then to the drain queues. Queue
// failures are logged; the returned error reports the typed queue only.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = clock.Now()
	}
	handlers, queue, anyQueue := p.snapshot()
	for _, handler := range handlers {
		handler(ctx, event)
	}
	if anyQueue != nil {
		if err := anyQueue.Publish(ctx, &Event[any]{
			Context:   event.Context,
			CreatedAt: event.CreatedAt,
			Metadata:  event.Metadata,
			Data:      event.Data,
		}); err != nil {
			log.G(ctx).WithError(err).Debug("failed to forward event")
		}
	}
	if queue == nil {
		return nil
	}
	return queue.Publish(ctx, event)
}

// Consume returns the next queued event
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	_, queue, _ := p.snapshot()
	if queue == nil {
		return nil, messaging.ErrClosed
	}
	msg, err := queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}

func (p *Publisher[T]) detach() {
	p.mux.Lock()
	queue := p.queue
	p.queue = nil
	p.anyQueue = nil
	p.mux.Unlock()
	if queue != nil {
		_ = queue.Close()
	}
}
