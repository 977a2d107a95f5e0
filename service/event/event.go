package event

import (
	"time"

	"github.com/viant/diskor/internal/clock"
)

// Context describes where an event originated
type Context struct {
	Source    string `json:"source"`
	EventType string `json:"eventType"`
	Object    string `json:"object,omitempty"`
}

// Event wraps a typed payload with metadata
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
