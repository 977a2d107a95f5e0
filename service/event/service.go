package event

import (
	"context"
	"reflect"
	"sync"

	"github.com/viant/diskor/service/messaging"
	"github.com/viant/diskor/service/messaging/memory"
)

type typedPublisher interface {
	setAnyQueue(queue messaging.Queue[Event[any]])
	detach()
}

type stopper interface{ Stop() }

// Service is a registry of typed publishers. Drain queues are created lazily
// when a listener is registered so that publishing without a listener never
// fills a buffer.
type Service struct {
	publisher       *Publisher[any]
	listener        *Listener[any]
	typedPublishers map[reflect.Type]typedPublisher
	typedListener   map[reflect.Type]stopper
	mux             sync.RWMutex
	newQueueConfig  func(name string) memory.Config
}

// New creates an event service backed by memory queues
func New(opts ...Option) *Service {
	ret := &Service{
		publisher:       NewPublisher[any](nil),
		typedPublishers: make(map[reflect.Type]typedPublisher),
		typedListener:   make(map[reflect.Type]stopper),
		newQueueConfig:  func(string) memory.Config { return memory.DefaultConfig() },
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// QueueOf returns a new memory queue for the event type name
func QueueOf[T any](s *Service, name string) messaging.Queue[T] {
	return memory.NewQueue[T](s.newQueueConfig(name))
}

// SetListener consumes every event published by any typed publisher
func (s *Service) SetListener(handler func(*Event[any])) {
	queue := QueueOf[Event[any]](s, "any")
	s.publisher.setQueue(queue)
	listener := NewListener[any](s.publisher, handler)
	s.mux.Lock()
	previous := s.listener
	s.listener = listener
	for _, p := range s.typedPublishers {
		p.setAnyQueue(queue)
	}
	s.mux.Unlock()
	if previous != nil {
		previous.Stop()
	}
	listener.Start()
}

// SetListenerOf consumes events of type T on a dedicated goroutine
func SetListenerOf[T any](s *Service, handler func(*Event[T])) {
	key := keyOf[T]()
	publisher := PublisherOf[T](s)
	publisher.setQueue(QueueOf[Event[T]](s, key.String()))
	listener := NewListener[T](publisher, handler)
	s.mux.Lock()
	previous, ok := s.typedListener[key]
	s.typedListener[key] = listener
	s.mux.Unlock()
	if ok {
		previous.Stop()
	}
	listener.Start()
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) *Publisher[T] {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T])
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.typedPublishers[key]; ok {
		return ret.(*Publisher[T])
	}
	publisher := NewPublisher[T](nil)
	_, anyQueue, _ := s.publisher.snapshot()
	publisher.anyQueue = anyQueue
	s.typedPublishers[key] = publisher
	return publisher
}

// Close stops listeners and detaches drain queues. Synchronous handlers keep
// working.
func (s *Service) Close() error {
	s.mux.Lock()
	listeners := make([]stopper, 0, len(s.typedListener)+1)
	if s.listener != nil {
		listeners = append(listeners, s.listener)
		s.listener = nil
	}
	for key, l := range s.typedListener {
		listeners = append(listeners, l)
		delete(s.typedListener, key)
	}
	publishers := make([]typedPublisher, 0, len(s.typedPublishers)+1)
	publishers = append(publishers, s.publisher)
	for _, p := range s.typedPublishers {
		publishers = append(publishers, p)
	}
	s.mux.Unlock()
	for _, p := range publishers {
		p.detach()
	}
	for _, l := range listeners {
		l.Stop()
	}
	return nil
}

func keyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Listen is a convenience combining PublisherOf and Subscribe.
func Listen[T any](s *Service, handler func(ctx context.Context, event *Event[T])) func() {
	return PublisherOf[T](s).Subscribe(handler)
}
