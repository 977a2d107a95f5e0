package partitioning

import (
	"fmt"
	"time"

	"github.com/viant/diskor/internal/yml"
	"github.com/viant/diskor/model/device"
	"gopkg.in/yaml.v3"
)

// Plan is a partitioning plan owned by one registry
type Plan struct {
	Handle    string    `json:"handle" yaml:"handle"`
	Method    Method    `json:"method" yaml:"method"`
	Request   Request   `json:"request" yaml:"request"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// NewPlan creates a plan with the default request of method
func NewPlan(handle string, method Method, createdAt time.Time) (*Plan, error) {
	request, err := NewRequest(method)
	if err != nil {
		return nil, err
	}
	return &Plan{Handle: handle, Method: method, Request: request, CreatedAt: createdAt}, nil
}

// Configure replaces the request. The request has to match the plan method
// and pass validation.
func (p *Plan) Configure(request Request) error {
	if request == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if request.Method() != p.Method {
		return fmt.Errorf("%w: %v plan got %v request", ErrMethodMismatch, p.Method, request.Method())
	}
	if err := request.Validate(); err != nil {
		return err
	}
	p.Request = request.Clone()
	return nil
}

// Layout resolves the plan against model
func (p *Plan) Layout(model *device.Model) (*Layout, error) {
	return Build(p.Request, model)
}

// Clone returns a deep copy
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	ret := *p
	if p.Request != nil {
		ret.Request = p.Request.Clone()
	}
	return &ret
}

// Document is the persisted form of an applied plan
type Document struct {
	Handle  string  `yaml:"handle"`
	Method  Method  `yaml:"method"`
	Request Request `yaml:"request"`
	Layout  *Layout `yaml:"layout"`
}

// UnmarshalYAML decodes the request into the type selected by the method
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	root := (*yml.Node)(node).Root()
	method, err := ParseMethod(root.Lookup("method").String())
	if err != nil {
		return err
	}
	request, err := NewRequest(method)
	if err != nil {
		return err
	}
	if requestNode := root.Lookup("request"); requestNode != nil {
		if err = requestNode.Decode(request); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	d.Handle = root.Lookup("handle").String()
	d.Method = method
	d.Request = request
	d.Layout = nil
	if layoutNode := root.Lookup("layout"); layoutNode != nil {
		d.Layout = &Layout{}
		if err = layoutNode.Decode(d.Layout); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}
	}
	return nil
}
