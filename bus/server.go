package bus

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/runner"
	"github.com/viant/diskor/service/storage"
	"github.com/viant/diskor/service/zfcp"
)

// Services are the modules published on the bus
type Services struct {
	Storage *storage.Service
	ZFCP    *zfcp.Service
	Runner  *runner.Service
	// Events delivers task snapshots; task signals are not emitted when nil
	Events *event.Service
}

// Server holds the published objects
type Server struct {
	conn        *dbus.Conn
	name        string
	Storage     *StorageInterface
	ZFCP        *ZFCPInterface
	Tasks       *Tasks
	unsubscribe []func()
}

// Publish exports the modules on conn and requests name. An empty name
// selects ServiceName.
func Publish(ctx context.Context, conn *dbus.Conn, name string, services Services) (*Server, error) {
	if name == "" {
		name = ServiceName
	}
	tasks := NewTasks(ctx, conn, services.Runner)
	server := &Server{
		conn:    conn,
		name:    name,
		Tasks:   tasks,
		Storage: NewStorageInterface(ctx, services.Storage, tasks),
		ZFCP:    NewZFCPInterface(ctx, services.ZFCP, tasks),
	}
	if err := server.export(); err != nil {
		server.Close()
		return nil, err
	}
	server.unsubscribe = append(server.unsubscribe, services.Storage.Subscribe(server.Storage.onChange))
	if services.Events != nil {
		server.unsubscribe = append(server.unsubscribe, event.PublisherOf[task.Task](services.Events).Subscribe(tasks.Notify))
	}

	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to request %v: %w", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		server.Close()
		return nil, fmt.Errorf("bus name %v is taken: %w", name, errdefs.ErrAlreadyExists)
	}
	log.G(ctx).WithField("name", name).Info("published on the bus")
	return server, nil
}

func (s *Server) export() error {
	if err := s.conn.Export(s.Storage, StoragePath, StorageInterfaceName); err != nil {
		return fmt.Errorf("failed to export %v: %w", StoragePath, err)
	}
	props, err := prop.Export(s.conn, StoragePath, s.Storage.propertyMap())
	if err != nil {
		return fmt.Errorf("failed to export %v properties: %w", StoragePath, err)
	}
	s.Storage.props = props
	if err = exportIntrospection(s.conn, StoragePath, StorageInterfaceName, s.Storage, props); err != nil {
		return err
	}
	if err = s.conn.Export(s.ZFCP, ZFCPPath, ZFCPInterfaceName); err != nil {
		return fmt.Errorf("failed to export %v: %w", ZFCPPath, err)
	}
	return exportIntrospection(s.conn, ZFCPPath, ZFCPInterfaceName, s.ZFCP, nil)
}

// Close stops mirroring changes and releases the bus name
func (s *Server) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	if _, err := s.conn.ReleaseName(s.name); err != nil {
		log.L.WithError(err).WithField("name", s.name).Debug("failed to release bus name")
	}
}
