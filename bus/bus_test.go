package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/diskor/backend/memory"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/runner"
	"github.com/viant/diskor/service/storage"
	"github.com/viant/diskor/service/zfcp"
)

type signal struct {
	path dbus.ObjectPath
	name string
	body []interface{}
}

type fakeExporter struct {
	mux     sync.Mutex
	objects map[string]interface{}
	signals []signal
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{objects: map[string]interface{}{}}
}

func (f *fakeExporter) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	key := string(path) + "#" + iface
	if v == nil {
		delete(f.objects, key)
		return nil
	}
	f.objects[key] = v
	return nil
}

func (f *fakeExporter) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.signals = append(f.signals, signal{path: path, name: name, body: values})
	return nil
}

func (f *fakeExporter) object(path dbus.ObjectPath, iface string) interface{} {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.objects[string(path)+"#"+iface]
}

func (f *fakeExporter) signalsOf(path dbus.ObjectPath) []signal {
	f.mux.Lock()
	defer f.mux.Unlock()
	var ret []signal
	for _, s := range f.signals {
		if s.path == path {
			ret = append(ret, s)
		}
	}
	return ret
}

type fixture struct {
	exporter *fakeExporter
	runner   *runner.Service
	storage  *StorageInterface
	zfcp     *ZFCPInterface
}

func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	events := event.New()
	t.Cleanup(func() { _ = events.Close() })
	aRunner, err := runner.New(runner.WithWorkers(2), runner.WithListener(func(snapshot *task.Task) {
		_ = event.PublisherOf[task.Task](events).Publish(ctx, event.NewEvent(&event.Context{Source: "runner", EventType: string(snapshot.State), Object: snapshot.ID}, *snapshot))
	}))
	require.NoError(t, err)
	require.NoError(t, aRunner.Start(ctx))
	t.Cleanup(aRunner.Shutdown)

	sysroot := fmt.Sprintf("mem://localhost/bus/%v/sysroot", time.Now().UnixNano())
	storageService, err := storage.New(memory.NewStorage(memory.SampleModel()), aRunner, storage.WithFS(afs.New()), storage.WithSysroot(sysroot))
	require.NoError(t, err)
	zfcpService, err := zfcp.New(ctx, memory.NewZFCP(), aRunner, zfcp.WithFS(afs.New()), zfcp.WithSysroot(sysroot))
	require.NoError(t, err)

	exporter := newFakeExporter()
	tasks := NewTasks(ctx, exporter, aRunner)
	unsubscribe := event.PublisherOf[task.Task](events).Subscribe(tasks.Notify)
	t.Cleanup(unsubscribe)
	return &fixture{
		exporter: exporter,
		runner:   aRunner,
		storage:  NewStorageInterface(ctx, storageService, tasks),
		zfcp:     NewZFCPInterface(ctx, zfcpService, tasks),
	}
}

func (f *fixture) taskOf(t *testing.T, path dbus.ObjectPath) *TaskInterface {
	object, ok := f.exporter.object(path, TaskInterfaceName).(*TaskInterface)
	require.True(t, ok, path)
	return object
}

func (f *fixture) finish(t *testing.T, path dbus.ObjectPath) *TaskInterface {
	object := f.taskOf(t, path)
	require.Nil(t, object.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := f.runner.Wait(ctx, string(path))
	require.NoError(t, err)
	return object
}

func TestErrorName(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		expect      string
	}{
		{description: "invalid method", err: partitioning.ErrInvalidMethod, expect: "org.viant.Diskor.Error.InvalidMethod"},
		{description: "not found", err: storage.ErrNotFound, expect: "org.viant.Diskor.Error.NotFound"},
		{description: "failed task", err: &task.FailedError{TaskID: "1", Cause: storage.ErrNoAppliedPlan}, expect: "org.viant.Diskor.Error.NoAppliedPlan"},
		{description: "not cancellable", err: task.ErrNotCancellable, expect: "org.viant.Diskor.Error.NotCancellable"},
		{description: "double start", err: fmt.Errorf("start: %w", task.ErrInvalidState), expect: "org.viant.Diskor.Error.InvalidState"},
		{description: "io", err: zfcp.ErrIO, expect: "org.viant.Diskor.Error.IOError"},
		{description: "invalid request", err: partitioning.ErrMethodMismatch, expect: "org.viant.Diskor.Error.InvalidArgument"},
		{description: "other", err: errors.New("boom"), expect: "org.viant.Diskor.Error.Failed"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, ErrorName(testCase.err), testCase.description)
	}
	assert.Nil(t, Error(nil))
	dbusErr := Error(errors.New("boom"))
	assert.Equal(t, []interface{}{"boom"}, dbusErr.Body)
}

func TestStorageInterface(t *testing.T) {
	f := newFixture(t)

	path, dbusErr := f.storage.ResetWithTask()
	require.Nil(t, dbusErr)
	reset := f.finish(t, path)
	require.Nil(t, reset.Finish())
	status, _ := reset.Status()
	assert.Equal(t, "succeeded", status)
	step, steps, message, _ := reset.Progress()
	assert.EqualValues(t, 2, step)
	assert.EqualValues(t, 2, steps)
	assert.Equal(t, "Updating the model.", message)
	assert.NotNil(t, f.exporter.object(path, introspectableName))

	_, dbusErr = f.storage.CreatePartitioning("NOPE")
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.InvalidMethod", dbusErr.Name)

	plan, dbusErr := f.storage.CreatePartitioning("AUTOMATIC")
	require.Nil(t, dbusErr)
	assert.Equal(t, []dbus.ObjectPath{plan}, f.storage.CreatedPartitioning())
	assert.Equal(t, storage.NoPartitioning, f.storage.AppliedPartitioning())

	dbusErr = f.storage.ApplyPartitioning("/org/viant/Diskor/Partitioning/other/1")
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.NotFound", dbusErr.Name)
	require.Nil(t, f.storage.ApplyPartitioning(plan))
	assert.Equal(t, string(plan), f.storage.AppliedPartitioning())

	write, dbusErr := f.storage.WriteConfigurationWithTask()
	require.Nil(t, dbusErr)
	object := f.finish(t, write)
	require.Nil(t, object.Finish())

	signals := f.exporter.signalsOf(write)
	require.NotEmpty(t, signals)
	last := signals[len(signals)-1]
	assert.Equal(t, SignalStopped, last.name)
	assert.Equal(t, []interface{}{"succeeded"}, last.body)

	require.Nil(t, object.Discard())
	assert.Nil(t, f.exporter.object(write, TaskInterfaceName))
	assert.False(t, f.storage.tasks.Exported(string(write)))
}

func TestStorageInterface_NoAppliedPlan(t *testing.T) {
	f := newFixture(t)
	path, dbusErr := f.storage.WriteConfigurationWithTask()
	require.Nil(t, dbusErr)
	object := f.taskOf(t, path)

	dbusErr = object.Finish()
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.NotReady", dbusErr.Name)

	f.finish(t, path)
	dbusErr = object.Finish()
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.NoAppliedPlan", dbusErr.Name)

	dbusErr = object.Start()
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.InvalidState", dbusErr.Name)
	dbusErr = object.Cancel()
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.InvalidState", dbusErr.Name)
}

func TestStorageInterface_ConfigurePartitioning(t *testing.T) {
	f := newFixture(t)
	path, _ := f.storage.ResetWithTask()
	f.finish(t, path)
	plan, dbusErr := f.storage.CreatePartitioning("AUTOMATIC")
	require.Nil(t, dbusErr)

	require.Nil(t, f.storage.ConfigurePartitioning(plan, map[string]dbus.Variant{
		"scheme":         dbus.MakeVariant("plain"),
		"filesystemType": dbus.MakeVariant("ext4"),
	}))
	method, request, dbusErr := f.storage.DescribePartitioning(plan)
	require.Nil(t, dbusErr)
	assert.Equal(t, "AUTOMATIC", method)
	assert.Equal(t, "plain", request["scheme"].Value())
	assert.Equal(t, "ext4", request["filesystemType"].Value())

	fstab, dbusErr := f.storage.ValidatePartitioning(plan)
	require.Nil(t, dbusErr)
	assert.Contains(t, fstab, "/dev/vda3 / ext4 defaults 0 1\n")

	dbusErr = f.storage.ConfigurePartitioning(plan, map[string]dbus.Variant{"scheme": dbus.MakeVariant("raid")})
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.InvalidArgument", dbusErr.Name)
}

func TestZFCPInterface(t *testing.T) {
	f := newFixture(t)
	require.Nil(t, f.zfcp.ReloadModule())

	path, dbusErr := f.zfcp.DiscoverWithTask("fc00", "0x5005076300c213e9", "0x5022")
	require.Nil(t, dbusErr)
	require.Nil(t, f.finish(t, path).Finish())

	path, dbusErr = f.zfcp.DiscoverWithTask("bogus", "0x5005076300c213e9", "0x5022")
	require.Nil(t, dbusErr)
	dbusErr = f.finish(t, path).Finish()
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.InvalidArgument", dbusErr.Name)

	text, _ := f.zfcp.GenerateKickstart()
	assert.Equal(t, "zfcp --devnum=0.0.fc00 --wwpn=0x5005076300c213e9 --fcplun=0x5022000000000000\n", text)

	require.Nil(t, f.zfcp.ReadKickstart("zfcp --devnum=fc01 --wwpn=0x5005076300c213e9 --fcplun=0x5023\n"))
	text, _ = f.zfcp.GenerateKickstart()
	assert.Equal(t, "zfcp --devnum=0.0.fc01 --wwpn=0x5005076300c213e9 --fcplun=0x5023000000000000\n", text)

	dbusErr = f.zfcp.ReadKickstart("zfcp --devnum\n")
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.viant.Diskor.Error.InvalidArgument", dbusErr.Name)
	require.Nil(t, f.zfcp.WriteConfiguration())
}

func TestConvert(t *testing.T) {
	unwrapped := unwrap(map[string]dbus.Variant{
		"requests": dbus.MakeVariant([]map[string]dbus.Variant{
			{"deviceSpec": dbus.MakeVariant("vdb1"), "mountPoint": dbus.MakeVariant("/")},
		}),
	})
	assert.Equal(t, map[string]interface{}{
		"requests": []interface{}{map[string]interface{}{"deviceSpec": "vdb1", "mountPoint": "/"}},
	}, unwrapped)

	encoded, err := encode(&partitioning.CustomRequest{Partitions: []partitioning.PartitionRequest{{MountPoint: "/", FSType: "xfs", SizeMiB: 4096}}})
	require.NoError(t, err)
	partitions, ok := encoded["partitions"].Value().([]dbus.Variant)
	require.True(t, ok)
	require.Len(t, partitions, 1)
	partition, ok := partitions[0].Value().(map[string]dbus.Variant)
	require.True(t, ok)
	assert.Equal(t, int64(4096), partition["sizeMiB"].Value())
	assert.Equal(t, "xfs", partition["fsType"].Value())
}
