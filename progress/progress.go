// Package progress provides a lightweight tracker that keeps the step counter
// and status message of a single running task. The tracker instance lives in
// the task context – the work unit reports through ReportCtx without having to
// know anything about the runner that executes it.

package progress

import (
	"context"
	"sync"
	"time"
)

// Snapshot is an immutable copy of the tracker state.
type Snapshot struct {
	Step      int       `json:"step" yaml:"step"`
	Steps     int       `json:"steps" yaml:"steps"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Percent returns completion ratio in range 0..100, or 0 when steps are unknown.
func (s Snapshot) Percent() int {
	if s.Steps <= 0 {
		return 0
	}
	step := s.Step
	if step > s.Steps {
		step = s.Steps
	}
	return step * 100 / s.Steps
}

// Tracker keeps the progress of one task. It is safe for concurrent use.
type Tracker struct {
	TaskID string

	mux      sync.Mutex
	state    Snapshot
	onChange func(Snapshot)
}

// Report moves the tracker to the given step with a message. Steps never go
// backwards; a lower step only updates the message. If an onChange callback
// has been registered it is invoked with a copy of the state outside the
// critical section.
func (t *Tracker) Report(step int, message string) {
	if t == nil {
		return
	}
	t.mux.Lock()
	if step > t.state.Step {
		t.state.Step = step
	}
	if t.state.Steps > 0 && t.state.Step > t.state.Steps {
		t.state.Step = t.state.Steps
	}
	t.state.Message = message
	t.state.UpdatedAt = time.Now()
	snapshot := t.state
	cb := t.onChange
	t.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.state
}

// OnChange registers a callback that is invoked after every Report.
// Passing nil disables the callback.
func (t *Tracker) OnChange(cb func(Snapshot)) {
	if t == nil {
		return
	}
	t.mux.Lock()
	t.onChange = cb
	t.mux.Unlock()
}

// NewTracker creates a tracker for the task with the expected step count.
func NewTracker(taskID string, steps int, onChange func(Snapshot)) *Tracker {
	return &Tracker{
		TaskID:   taskID,
		state:    Snapshot{Steps: steps},
		onChange: onChange,
	}
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds the tracker in a derived context.
func WithTracker(ctx context.Context, tracker *Tracker) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the tracker from ctx.  The second return value is
// false when the context carries no tracker.
func FromContext(ctx context.Context) (*Tracker, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Tracker)
	return tr, ok
}

// ReportCtx looks up the tracker in ctx (if any) and reports the step.
func ReportCtx(ctx context.Context, step int, message string) {
	if tr, ok := FromContext(ctx); ok {
		tr.Report(step, message)
	}
}
