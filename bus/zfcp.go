package bus

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/viant/diskor/kickstart"
	"github.com/viant/diskor/service/zfcp"
)

// ZFCPInterface exposes the zFCP module
type ZFCPInterface struct {
	ctx   context.Context
	zfcp  *zfcp.Service
	tasks *Tasks
}

// NewZFCPInterface creates the zFCP object
func NewZFCPInterface(ctx context.Context, service *zfcp.Service, tasks *Tasks) *ZFCPInterface {
	return &ZFCPInterface{ctx: ctx, zfcp: service, tasks: tasks}
}

// ReloadModule starts the backend up again
func (i *ZFCPInterface) ReloadModule() *dbus.Error {
	return Error(i.zfcp.ReloadModule(i.ctx))
}

// DiscoverWithTask returns the path of a discovery task
func (i *ZFCPInterface) DiscoverWithTask(deviceNumber, wwpn, lun string) (dbus.ObjectPath, *dbus.Error) {
	return i.tasks.publish(i.zfcp.DiscoverWithTask(i.ctx, deviceNumber, wwpn, lun))
}

// WriteConfiguration writes zfcp.conf to the system root
func (i *ZFCPInterface) WriteConfiguration() *dbus.Error {
	return Error(i.zfcp.WriteConfiguration(i.ctx))
}

// ReadKickstart replaces the records with the zfcp commands of text
func (i *ZFCPInterface) ReadKickstart(text string) *dbus.Error {
	data, err := kickstart.Parse([]byte(text))
	if err != nil {
		return Error(err)
	}
	return Error(i.zfcp.ProcessKickstart(i.ctx, data))
}

// GenerateKickstart renders the records as zfcp commands
func (i *ZFCPInterface) GenerateKickstart() (string, *dbus.Error) {
	data := &kickstart.Data{}
	i.zfcp.SetupKickstart(data)
	return data.String(), nil
}
