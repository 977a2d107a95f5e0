package memory

import (
	"context"
	"sync"

	"github.com/viant/diskor/model/zfcp"
)

// ZFCP records discovered devices
type ZFCP struct {
	mux        sync.Mutex
	startups   int
	discovered []zfcp.Device
	startup    func(ctx context.Context) error
	discover   func(ctx context.Context, aDevice *zfcp.Device) error
}

// ZFCPOption configures ZFCP
type ZFCPOption func(z *ZFCP)

// WithStartup sets the startup hook
func WithStartup(fn func(ctx context.Context) error) ZFCPOption {
	return func(z *ZFCP) {
		z.startup = fn
	}
}

// WithDiscover sets the discovery hook
func WithDiscover(fn func(ctx context.Context, aDevice *zfcp.Device) error) ZFCPOption {
	return func(z *ZFCP) {
		z.discover = fn
	}
}

// NewZFCP creates a recording zFCP backend
func NewZFCP(options ...ZFCPOption) *ZFCP {
	z := &ZFCP{}
	for _, opt := range options {
		opt(z)
	}
	return z
}

// Startup counts calls
func (z *ZFCP) Startup(ctx context.Context) error {
	z.mux.Lock()
	z.startups++
	hook := z.startup
	z.mux.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return nil
}

// Discover records aDevice when the hook accepts it
func (z *ZFCP) Discover(ctx context.Context, aDevice *zfcp.Device) error {
	z.mux.Lock()
	hook := z.discover
	z.mux.Unlock()
	if hook != nil {
		if err := hook(ctx, aDevice); err != nil {
			return err
		}
	}
	z.mux.Lock()
	defer z.mux.Unlock()
	z.discovered = append(z.discovered, *aDevice)
	return nil
}

// Startups returns the number of Startup calls
func (z *ZFCP) Startups() int {
	z.mux.Lock()
	defer z.mux.Unlock()
	return z.startups
}

// Discovered returns the devices brought online
func (z *ZFCP) Discovered() []zfcp.Device {
	z.mux.Lock()
	defer z.mux.Unlock()
	return append([]zfcp.Device(nil), z.discovered...)
}
