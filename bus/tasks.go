package bus

import (
	"context"
	"sync"

	"github.com/containerd/log"
	"github.com/godbus/dbus/v5"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/runner"
)

// Exporter is the part of *dbus.Conn used to publish objects
type Exporter interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Tasks publishes one object per task handle
type Tasks struct {
	ctx      context.Context
	exporter Exporter
	runner   *runner.Service
	mux      sync.Mutex
	exported map[string]*TaskInterface
}

// NewTasks creates a task publisher
func NewTasks(ctx context.Context, exporter Exporter, aRunner *runner.Service) *Tasks {
	return &Tasks{ctx: ctx, exporter: exporter, runner: aRunner, exported: map[string]*TaskInterface{}}
}

// publish exports the task object of id and returns its path
func (t *Tasks) publish(id string, err error) (dbus.ObjectPath, *dbus.Error) {
	if err != nil {
		return "", Error(err)
	}
	path := dbus.ObjectPath(id)
	object := &TaskInterface{tasks: t, id: id}
	if err = t.exporter.Export(object, path, TaskInterfaceName); err != nil {
		return "", Error(err)
	}
	if err = exportIntrospection(t.exporter, path, TaskInterfaceName, object, nil); err != nil {
		return "", Error(err)
	}
	t.mux.Lock()
	t.exported[id] = object
	t.mux.Unlock()
	return path, nil
}

func (t *Tasks) unpublish(id string) {
	t.mux.Lock()
	_, ok := t.exported[id]
	delete(t.exported, id)
	t.mux.Unlock()
	if !ok {
		return
	}
	path := dbus.ObjectPath(id)
	for _, iface := range []string{TaskInterfaceName, introspectableName} {
		if err := t.exporter.Export(nil, path, iface); err != nil {
			log.G(t.ctx).WithError(err).WithField("path", path).Debug("failed to unexport task")
		}
	}
}

// Exported returns true when the task of id is published
func (t *Tasks) Exported(id string) bool {
	t.mux.Lock()
	defer t.mux.Unlock()
	_, ok := t.exported[id]
	return ok
}

// Notify emits progress and stop signals of published tasks
func (t *Tasks) Notify(ctx context.Context, anEvent *event.Event[task.Task]) {
	snapshot := &anEvent.Data
	if !t.Exported(snapshot.ID) {
		return
	}
	path := dbus.ObjectPath(snapshot.ID)
	var err error
	switch {
	case snapshot.State.IsTerminal():
		err = t.exporter.Emit(path, SignalStopped, string(snapshot.State))
	case snapshot.State == task.StateRunning:
		err = t.exporter.Emit(path, SignalProgressChanged, int32(snapshot.Progress.Step), snapshot.Progress.Message)
	}
	if err != nil {
		log.G(ctx).WithError(err).WithField("path", path).Debug("failed to emit task signal")
	}
}

// TaskInterface is the D-Bus object of one task
type TaskInterface struct {
	tasks *Tasks
	id    string
}

// Name returns the task name
func (i *TaskInterface) Name() (string, *dbus.Error) {
	aTask, err := i.tasks.runner.Task(i.id)
	if err != nil {
		return "", Error(err)
	}
	return aTask.Name, nil
}

// Start queues the task
func (i *TaskInterface) Start() *dbus.Error {
	return Error(i.tasks.runner.StartTask(i.tasks.ctx, i.id))
}

// Cancel interrupts the task
func (i *TaskInterface) Cancel() *dbus.Error {
	return Error(i.tasks.runner.Cancel(i.tasks.ctx, i.id))
}

// Status returns the task state
func (i *TaskInterface) Status() (string, *dbus.Error) {
	state, err := i.tasks.runner.Status(i.id)
	if err != nil {
		return "", Error(err)
	}
	return string(state), nil
}

// Progress returns the current step, the step count and the last message
func (i *TaskInterface) Progress() (int32, int32, string, *dbus.Error) {
	aTask, err := i.tasks.runner.Task(i.id)
	if err != nil {
		return 0, 0, "", Error(err)
	}
	return int32(aTask.Progress.Step), int32(aTask.Progress.Steps), aTask.Progress.Message, nil
}

// Finish reports the task error, if any. It fails with NotReady while the
// task runs.
func (i *TaskInterface) Finish() *dbus.Error {
	_, err := i.tasks.runner.Result(i.id)
	return Error(err)
}

// Discard removes a finished task and its object
func (i *TaskInterface) Discard() *dbus.Error {
	if err := i.tasks.runner.Discard(i.tasks.ctx, i.id); err != nil {
		return Error(err)
	}
	i.tasks.unpublish(i.id)
	return nil
}
