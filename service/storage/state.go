package storage

// State is the orchestrator level state
type State string

// Orchestrator states
const (
	StateUninitialized State = "uninitialized"
	StateResetting     State = "resetting"
	StateReady         State = "ready"
)

// NoPartitioning is the AppliedPartitioning value when no plan is applied
const NoPartitioning = ""

// Observable properties
const (
	PropertyCreatedPartitioning = "CreatedPartitioning"
	PropertyAppliedPartitioning = "AppliedPartitioning"
)

// Change reports a committed property value
type Change struct {
	Property string      `json:"property"`
	Value    interface{} `json:"value"`
}

type properties struct {
	created []string
	applied string
}

func (p properties) diff(next properties) []Change {
	var ret []Change
	if !equalHandles(p.created, next.created) {
		ret = append(ret, Change{Property: PropertyCreatedPartitioning, Value: next.created})
	}
	if p.applied != next.applied {
		ret = append(ret, Change{Property: PropertyAppliedPartitioning, Value: next.applied})
	}
	return ret
}

func equalHandles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
