package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// ErrClosed is returned by Publish and Consume after the queue was closed.
var ErrClosed = fmt.Errorf("messaging: queue closed: %w", errdefs.ErrUnavailable)

// ErrFull is returned by Publish when a non-blocking queue is at capacity.
var ErrFull = fmt.Errorf("messaging: queue full: %w", errdefs.ErrUnavailable)

// ErrProcessed is returned when a message is acknowledged twice.
var ErrProcessed = errors.New("messaging: message already processed")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue. Implementations
	// either block while at capacity or return ErrFull.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue, blocking until one
	// is available, the context is done or the queue is closed.
	Consume(ctx context.Context) (Message[T], error)

	// Close stops the queue; pending consumers return ErrClosed.
	Close() error
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
