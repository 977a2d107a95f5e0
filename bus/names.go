// Package bus publishes the storage and zFCP modules on D-Bus.
package bus

// Well known names, paths and interfaces
const (
	ServiceName = "org.viant.Diskor"

	StoragePath          = "/org/viant/Diskor/Storage"
	StorageInterfaceName = "org.viant.Diskor.Storage"

	ZFCPPath          = "/org/viant/Diskor/Storage/ZFCP"
	ZFCPInterfaceName = "org.viant.Diskor.Storage.ZFCP"

	TaskInterfaceName = "org.viant.Diskor.Task"

	ErrorPrefix = "org.viant.Diskor.Error."
)

// Task signals
const (
	SignalProgressChanged = TaskInterfaceName + ".ProgressChanged"
	SignalStopped         = TaskInterfaceName + ".Stopped"
)
