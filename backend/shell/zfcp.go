package shell

import (
	"context"
	"fmt"

	"github.com/viant/diskor/model/zfcp"
)

// ZFCP activates LUNs with chzdev
type ZFCP struct {
	*Service
}

// NewZFCP wraps service as a zFCP backend
func NewZFCP(service *Service) *ZFCP {
	return &ZFCP{Service: service}
}

// Startup loads the zfcp kernel module
func (z *ZFCP) Startup(ctx context.Context) error {
	_, err := z.run(ctx, "modprobe zfcp")
	return err
}

// Discover enables the LUN persistently
func (z *ZFCP) Discover(ctx context.Context, aDevice *zfcp.Device) error {
	_, err := z.run(ctx, fmt.Sprintf("chzdev --enable zfcp-lun %s:%s:%s", aDevice.DeviceNumber, aDevice.WWPN, aDevice.LUN))
	return err
}
