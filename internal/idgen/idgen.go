package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier. Override in tests.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// Token returns a short identifier that is safe to embed in a bus object
// path element (letters and digits only).
func Token() string {
	token := strings.ReplaceAll(New(), "-", "")
	if len(token) > 12 {
		token = token[:12]
	}
	return token
}
