package event

import (
	"context"
	"errors"
	"sync"

	"github.com/containerd/log"
	"github.com/viant/diskor/service/messaging"
)

// Listener drains a publisher queue on its own goroutine
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
}

// NewListener creates a listener
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop cancels the listener and waits for the loop to exit
func (l *Listener[T]) Stop() {
	l.cancel()
	l.startOnce.Do(func() { close(l.done) })
	<-l.done
}

// Start runs the consume loop
func (l *Listener[T]) Start() {
	l.startOnce.Do(func() {
		go l.run()
	})
}

func (l *Listener[T]) run() {
	defer close(l.done)
	for {
		event, err := l.publisher.Consume(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil || errors.Is(err, messaging.ErrClosed) {
				return
			}
			log.G(l.ctx).WithError(err).Warn("failed to consume event")
			continue
		}
		if event != nil {
			l.handler(event)
		}
	}
}
