package bus

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const introspectableName = "org.freedesktop.DBus.Introspectable"

func exportIntrospection(exporter Exporter, path dbus.ObjectPath, iface string, object interface{}, props *prop.Properties) error {
	anInterface := introspect.Interface{Name: iface, Methods: introspect.Methods(object)}
	interfaces := []introspect.Interface{introspect.IntrospectData}
	if props != nil {
		anInterface.Properties = props.Introspection(iface)
		interfaces = append(interfaces, prop.IntrospectData)
	}
	node := &introspect.Node{Name: string(path), Interfaces: append(interfaces, anInterface)}
	return exporter.Export(introspect.NewIntrospectable(node), path, introspectableName)
}
