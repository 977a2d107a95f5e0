package partitioning

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/diskor/internal/clock"
	"github.com/viant/diskor/internal/idgen"
	"github.com/viant/diskor/model/partitioning"
)

// DefaultPathPrefix is the handle prefix of plans
const DefaultPathPrefix = "/org/viant/Diskor/Partitioning"

// Registry holds the plans created by one orchestrator. It is not safe for
// concurrent use; the owner serialises access.
type Registry struct {
	prefix   string
	token    string
	sequence uint64
	handles  []string
	plans    map[string]*partitioning.Plan
}

// Option configures a Registry
type Option func(r *Registry)

// WithPathPrefix overrides DefaultPathPrefix
func WithPathPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithToken sets the instance token embedded in handles
func WithToken(token string) Option {
	return func(r *Registry) {
		r.token = token
	}
}

// New creates an empty registry
func New(options ...Option) *Registry {
	r := &Registry{prefix: DefaultPathPrefix, plans: map[string]*partitioning.Plan{}}
	for _, opt := range options {
		opt(r)
	}
	if r.token == "" {
		r.token = idgen.Token()
	}
	r.prefix = strings.TrimRight(r.prefix, "/") + "/" + r.token + "/"
	return r
}

// Create validates method, adds a plan with the method default request and
// returns its handle. An invalid method leaves the registry unchanged.
func (r *Registry) Create(method string) (string, error) {
	aMethod, err := partitioning.ParseMethod(method)
	if err != nil {
		return "", err
	}
	handle := r.prefix + strconv.FormatUint(r.sequence+1, 10)
	plan, err := partitioning.NewPlan(handle, aMethod, clock.Now())
	if err != nil {
		return "", err
	}
	r.sequence++
	r.handles = append(r.handles, handle)
	r.plans[handle] = plan
	return handle, nil
}

// List returns plan handles in creation order
func (r *Registry) List() []string {
	return append([]string{}, r.handles...)
}

// Owns returns true when handle was minted by this registry
func (r *Registry) Owns(handle string) bool {
	return strings.HasPrefix(handle, r.prefix)
}

// Lookup returns the plan of handle
func (r *Registry) Lookup(handle string) (*partitioning.Plan, error) {
	if !r.Owns(handle) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, handle)
	}
	plan, ok := r.plans[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, handle)
	}
	return plan, nil
}

// Configure replaces the request of a plan
func (r *Registry) Configure(handle string, request partitioning.Request) error {
	plan, err := r.Lookup(handle)
	if err != nil {
		return err
	}
	return plan.Configure(request)
}

// Describe returns a copy of the plan
func (r *Registry) Describe(handle string) (*partitioning.Plan, error) {
	plan, err := r.Lookup(handle)
	if err != nil {
		return nil, err
	}
	return plan.Clone(), nil
}

// Len returns the number of plans
func (r *Registry) Len() int {
	return len(r.handles)
}

// Reset drops every plan. Sequence numbers keep growing so that discarded
// handles never come back.
func (r *Registry) Reset() {
	r.handles = nil
	r.plans = map[string]*partitioning.Plan{}
}
