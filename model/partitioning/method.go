package partitioning

import "fmt"

// Method is a partitioning strategy
type Method string

// Supported methods
const (
	MethodAutomatic   Method = "AUTOMATIC"
	MethodCustom      Method = "CUSTOM"
	MethodManual      Method = "MANUAL"
	MethodInteractive Method = "INTERACTIVE"
	MethodBlivet      Method = "BLIVET"
)

// Methods returns all supported methods
func Methods() []Method {
	return []Method{MethodAutomatic, MethodCustom, MethodManual, MethodInteractive, MethodBlivet}
}

// IsValid returns true for supported methods. Matching is case sensitive.
func (m Method) IsValid() bool {
	switch m {
	case MethodAutomatic, MethodCustom, MethodManual, MethodInteractive, MethodBlivet:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod converts text to a Method
func ParseMethod(text string) (Method, error) {
	method := Method(text)
	if !method.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, text)
	}
	return method, nil
}

// NewRequest returns the default request of a method
func NewRequest(method Method) (Request, error) {
	switch method {
	case MethodAutomatic:
		return DefaultAutomaticRequest(), nil
	case MethodCustom:
		return &CustomRequest{}, nil
	case MethodManual:
		return &ManualRequest{}, nil
	case MethodInteractive:
		return &InteractiveRequest{}, nil
	case MethodBlivet:
		return &BlivetRequest{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, string(method))
}
