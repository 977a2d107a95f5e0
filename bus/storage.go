package bus

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/storage"
)

// StorageInterface exposes the storage orchestrator
type StorageInterface struct {
	ctx     context.Context
	storage *storage.Service
	tasks   *Tasks
	props   *prop.Properties
}

// NewStorageInterface creates the storage object
func NewStorageInterface(ctx context.Context, service *storage.Service, tasks *Tasks) *StorageInterface {
	return &StorageInterface{ctx: ctx, storage: service, tasks: tasks}
}

// ResetWithTask returns the path of a reset task
func (i *StorageInterface) ResetWithTask() (dbus.ObjectPath, *dbus.Error) {
	return i.tasks.publish(i.storage.ResetWithTask(i.ctx))
}

// CreatePartitioning creates a plan and returns its path
func (i *StorageInterface) CreatePartitioning(method string) (dbus.ObjectPath, *dbus.Error) {
	handle, err := i.storage.CreatePartitioning(i.ctx, method)
	if err != nil {
		return "", Error(err)
	}
	return dbus.ObjectPath(handle), nil
}

// ApplyPartitioning selects a plan
func (i *StorageInterface) ApplyPartitioning(path dbus.ObjectPath) *dbus.Error {
	return Error(i.storage.ApplyPartitioning(i.ctx, string(path)))
}

// ConfigurePartitioning sets the plan request from a dictionary keyed by the
// request field names
func (i *StorageInterface) ConfigurePartitioning(path dbus.ObjectPath, values map[string]dbus.Variant) *dbus.Error {
	plan, err := i.storage.DescribePartitioning(string(path))
	if err != nil {
		return Error(err)
	}
	request, err := decodeRequest(plan.Method, values)
	if err != nil {
		return Error(err)
	}
	return Error(i.storage.ConfigurePartitioning(i.ctx, string(path), request))
}

// DescribePartitioning returns the method and the request of a plan
func (i *StorageInterface) DescribePartitioning(path dbus.ObjectPath) (string, map[string]dbus.Variant, *dbus.Error) {
	plan, err := i.storage.DescribePartitioning(string(path))
	if err != nil {
		return "", nil, Error(err)
	}
	request, err := encode(plan.Request)
	if err != nil {
		return "", nil, Error(err)
	}
	return string(plan.Method), request, nil
}

// ValidatePartitioning resolves a plan and returns the fstab it would write
func (i *StorageInterface) ValidatePartitioning(path dbus.ObjectPath) (string, *dbus.Error) {
	layout, err := i.storage.ValidatePartitioning(string(path))
	if err != nil {
		return "", Error(err)
	}
	return layout.Fstab(), nil
}

// WriteConfigurationWithTask returns the path of a write task
func (i *StorageInterface) WriteConfigurationWithTask() (dbus.ObjectPath, *dbus.Error) {
	return i.tasks.publish(i.storage.WriteConfigurationWithTask(i.ctx))
}

// CreatedPartitioning returns plan paths in creation order
func (i *StorageInterface) CreatedPartitioning() []dbus.ObjectPath {
	return objectPaths(i.storage.CreatedPartitioning())
}

// AppliedPartitioning returns the applied plan path or the empty string
func (i *StorageInterface) AppliedPartitioning() string {
	return i.storage.AppliedPartitioning()
}

func (i *StorageInterface) propertyMap() prop.Map {
	return prop.Map{
		StorageInterfaceName: {
			storage.PropertyCreatedPartitioning: {Value: i.CreatedPartitioning(), Emit: prop.EmitTrue},
			storage.PropertyAppliedPartitioning: {Value: i.AppliedPartitioning(), Emit: prop.EmitTrue},
		},
	}
}

// onChange mirrors an orchestrator change into the exported properties
func (i *StorageInterface) onChange(ctx context.Context, anEvent *event.Event[storage.Change]) {
	if i.props == nil {
		return
	}
	change := anEvent.Data
	switch value := change.Value.(type) {
	case []string:
		i.props.SetMust(StorageInterfaceName, change.Property, objectPaths(value))
	case string:
		i.props.SetMust(StorageInterfaceName, change.Property, value)
	}
}

func objectPaths(handles []string) []dbus.ObjectPath {
	ret := make([]dbus.ObjectPath, 0, len(handles))
	for _, handle := range handles {
		ret = append(ret, dbus.ObjectPath(handle))
	}
	return ret
}
