package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/backend/memory"
	"github.com/viant/diskor/model/device"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/runner"
	"gopkg.in/yaml.v3"
)

type recorder struct {
	mux     sync.Mutex
	changes []Change
}

func (r *recorder) handle(ctx context.Context, anEvent *event.Event[Change]) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.changes = append(r.changes, anEvent.Data)
}

func (r *recorder) snapshot() []Change {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]Change(nil), r.changes...)
}

func newService(t *testing.T, storage backend.Storage, options ...Option) (*Service, *runner.Service, *recorder) {
	aRunner, err := runner.New(runner.WithWorkers(2))
	require.NoError(t, err)
	require.NoError(t, aRunner.Start(context.Background()))
	t.Cleanup(aRunner.Shutdown)
	sysroot := "mem://localhost/" + strings.ReplaceAll(t.Name(), "/", "_") + "/sysroot"
	srv, err := New(storage, aRunner, append([]Option{WithFS(afs.New()), WithSysroot(sysroot)}, options...)...)
	require.NoError(t, err)
	events := &recorder{}
	srv.Subscribe(events.handle)
	return srv, aRunner, events
}

func run(t *testing.T, aRunner *runner.Service, id string) *task.Task {
	require.NoError(t, aRunner.StartTask(context.Background(), id))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	finished, err := aRunner.Wait(ctx, id)
	require.NoError(t, err)
	return finished
}

func reset(t *testing.T, srv *Service, aRunner *runner.Service) *task.Task {
	id, err := srv.ResetWithTask(context.Background())
	require.NoError(t, err)
	return run(t, aRunner, id)
}

func TestService_Scenario(t *testing.T) {
	srv, aRunner, events := newService(t, memory.NewStorage(memory.SampleModel()))
	ctx := context.Background()
	assert.Equal(t, StateUninitialized, srv.State())
	assert.Nil(t, srv.Model())

	finished := reset(t, srv, aRunner)
	require.Equal(t, task.StateSucceeded, finished.State)
	assert.Equal(t, StateReady, srv.State())
	assert.Equal(t, 4, srv.Model().Count())
	assert.Equal(t, NoPartitioning, srv.AppliedPartitioning())
	assert.Empty(t, srv.CreatedPartitioning())

	p1, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	assert.Equal(t, []string{p1}, srv.CreatedPartitioning())
	require.NoError(t, srv.ApplyPartitioning(ctx, p1))
	assert.Equal(t, p1, srv.AppliedPartitioning())

	p2, err := srv.CreatePartitioning(ctx, "MANUAL")
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, srv.CreatedPartitioning())
	assert.Equal(t, p1, srv.AppliedPartitioning())
	require.NoError(t, srv.ApplyPartitioning(ctx, p2))
	assert.Equal(t, p2, srv.AppliedPartitioning())

	require.NoError(t, srv.ApplyPartitioning(ctx, p2))
	assert.Equal(t, StateReady, srv.State())

	assert.Equal(t, []Change{
		{Property: PropertyCreatedPartitioning, Value: []string{p1}},
		{Property: PropertyAppliedPartitioning, Value: p1},
		{Property: PropertyCreatedPartitioning, Value: []string{p1, p2}},
		{Property: PropertyAppliedPartitioning, Value: p2},
	}, events.snapshot())
}

func TestService_CreatePartitioning(t *testing.T) {
	testCases := []struct {
		description string
		method      string
		expectErr   error
	}{
		{description: "automatic", method: "AUTOMATIC"},
		{description: "custom", method: "CUSTOM"},
		{description: "manual", method: "MANUAL"},
		{description: "interactive", method: "INTERACTIVE"},
		{description: "blivet", method: "BLIVET"},
		{description: "unknown", method: "MAGIC", expectErr: partitioning.ErrInvalidMethod},
		{description: "case", method: "Automatic", expectErr: partitioning.ErrInvalidMethod},
		{description: "empty", method: "", expectErr: partitioning.ErrInvalidMethod},
	}
	srv, _, events := newService(t, memory.NewStorage(memory.SampleModel()))
	ctx := context.Background()
	for _, testCase := range testCases {
		before := srv.CreatedPartitioning()
		eventsBefore := len(events.snapshot())
		handle, err := srv.CreatePartitioning(ctx, testCase.method)
		if testCase.expectErr != nil {
			assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
			assert.True(t, errdefs.IsInvalidArgument(err), testCase.description)
			assert.Equal(t, before, srv.CreatedPartitioning(), testCase.description)
			assert.Len(t, events.snapshot(), eventsBefore, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		after := srv.CreatedPartitioning()
		assert.Len(t, after, len(before)+1, testCase.description)
		assert.Equal(t, handle, after[len(after)-1], testCase.description)
		plan, err := srv.DescribePartitioning(handle)
		require.NoError(t, err, testCase.description)
		assert.EqualValues(t, testCase.method, plan.Method, testCase.description)
	}
}

func TestService_ApplyPartitioning_NotFound(t *testing.T) {
	srv, _, events := newService(t, memory.NewStorage(memory.SampleModel()))
	other, _, _ := newService(t, memory.NewStorage(memory.SampleModel()))
	ctx := context.Background()
	foreign, err := other.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)

	for _, handle := range []string{foreign, "", "/org/viant/Diskor/Partitioning/x/1"} {
		err = srv.ApplyPartitioning(ctx, handle)
		assert.ErrorIs(t, err, ErrNotFound, handle)
		assert.True(t, errdefs.IsNotFound(err), handle)
	}
	assert.Equal(t, NoPartitioning, srv.AppliedPartitioning())
	assert.Empty(t, events.snapshot())
}

func TestService_ResetDiscardsPlans(t *testing.T) {
	srv, aRunner, events := newService(t, memory.NewStorage(memory.SampleModel()))
	ctx := context.Background()
	reset(t, srv, aRunner)
	handle, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	require.NoError(t, srv.ApplyPartitioning(ctx, handle))

	finished := reset(t, srv, aRunner)
	require.Equal(t, task.StateSucceeded, finished.State)
	assert.Empty(t, srv.CreatedPartitioning())
	assert.Equal(t, NoPartitioning, srv.AppliedPartitioning())
	_, err = srv.DescribePartitioning(handle)
	assert.ErrorIs(t, err, ErrNotFound)

	changes := events.snapshot()
	require.Len(t, changes, 4)
	assert.Equal(t, Change{Property: PropertyCreatedPartitioning, Value: []string{}}, changes[2])
	assert.Equal(t, Change{Property: PropertyAppliedPartitioning, Value: NoPartitioning}, changes[3])

	again, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	assert.NotEqual(t, handle, again)
}

func TestService_ResetFailure(t *testing.T) {
	cause := errors.New("lsblk: not found")
	srv, aRunner, _ := newService(t, memory.NewStorage(nil, memory.WithProbe(func(ctx context.Context) (*device.Model, error) {
		return nil, cause
	})))
	finished := reset(t, srv, aRunner)
	assert.Equal(t, task.StateFailed, finished.State)
	_, err := finished.Result()
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateUninitialized, srv.State())
	assert.Nil(t, srv.Model())
}

func TestService_ResetCancelled(t *testing.T) {
	var blocking atomic.Bool
	started := make(chan struct{}, 1)
	storage := memory.NewStorage(nil, memory.WithProbe(func(ctx context.Context) (*device.Model, error) {
		if !blocking.Load() {
			return memory.SampleModel(), nil
		}
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	srv, aRunner, events := newService(t, storage)
	ctx := context.Background()
	reset(t, srv, aRunner)
	handle, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	require.NoError(t, srv.ApplyPartitioning(ctx, handle))
	emitted := len(events.snapshot())

	blocking.Store(true)
	id, err := srv.ResetWithTask(ctx)
	require.NoError(t, err)
	require.NoError(t, aRunner.StartTask(ctx, id))
	<-started
	assert.Equal(t, StateResetting, srv.State())
	require.NoError(t, aRunner.Cancel(ctx, id))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	finished, err := aRunner.Wait(waitCtx, id)
	require.NoError(t, err)
	assert.Equal(t, task.StateCancelled, finished.State)
	assert.Equal(t, StateReady, srv.State())
	assert.Equal(t, []string{handle}, srv.CreatedPartitioning())
	assert.Equal(t, handle, srv.AppliedPartitioning())
	assert.Equal(t, 4, srv.Model().Count())
	assert.Len(t, events.snapshot(), emitted)
}

func TestService_ResetOverlapping(t *testing.T) {
	cause := errors.New("lsblk: device busy")
	var calls atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	storage := memory.NewStorage(nil, memory.WithProbe(func(ctx context.Context) (*device.Model, error) {
		switch calls.Add(1) {
		case 1:
			return memory.SampleModel(), nil
		case 2:
			started <- struct{}{}
			<-release
			return &device.Model{}, nil
		default:
			return nil, cause
		}
	}))
	srv, aRunner, events := newService(t, storage)
	ctx := context.Background()
	reset(t, srv, aRunner)
	handle, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	emitted := len(events.snapshot())

	slow, err := srv.ResetWithTask(ctx)
	require.NoError(t, err)
	require.NoError(t, aRunner.StartTask(ctx, slow))
	<-started
	assert.Equal(t, StateResetting, srv.State())

	failed := reset(t, srv, aRunner)
	assert.Equal(t, task.StateFailed, failed.State)
	_, err = failed.Result()
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateReady, srv.State())

	close(release)
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	finished, err := aRunner.Wait(waitCtx, slow)
	require.NoError(t, err)
	assert.Equal(t, task.StateFailed, finished.State)
	_, err = finished.Result()
	assert.ErrorIs(t, err, ErrSuperseded)

	assert.Equal(t, StateReady, srv.State())
	assert.Equal(t, 4, srv.Model().Count())
	assert.Equal(t, []string{handle}, srv.CreatedPartitioning())
	assert.Len(t, events.snapshot(), emitted)
}

func TestService_WriteConfiguration(t *testing.T) {
	storage := memory.NewStorage(memory.SampleModel())
	srv, aRunner, _ := newService(t, storage)
	ctx := context.Background()

	id, err := srv.WriteConfigurationWithTask(ctx)
	require.NoError(t, err)
	finished := run(t, aRunner, id)
	assert.Equal(t, task.StateFailed, finished.State)
	_, err = aRunner.Result(id)
	assert.ErrorIs(t, err, ErrNoAppliedPlan)
	assert.True(t, errdefs.IsFailedPrecondition(err))

	reset(t, srv, aRunner)
	handle, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	require.NoError(t, srv.ApplyPartitioning(ctx, handle))

	id, err = srv.WriteConfigurationWithTask(ctx)
	require.NoError(t, err)
	finished = run(t, aRunner, id)
	require.Equal(t, task.StateSucceeded, finished.State, finished.Error)
	assert.Equal(t, 100, finished.Progress.Percent())
	output, err := aRunner.Result(id)
	require.NoError(t, err)
	result, ok := output.(*WriteResult)
	require.True(t, ok)
	assert.Equal(t, handle, result.Handle)
	assert.NotEmpty(t, result.Actions)
	require.Len(t, result.Files, 2)
	assert.Len(t, storage.Applied(), 1)

	fs := afs.New()
	fstab, err := fs.DownloadWithURL(ctx, result.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "#\n# /etc/fstab\n# Created by diskor\n#\n"+
		"/dev/mapper/diskor-root / xfs defaults 0 1\n"+
		"/dev/vda1 /boot xfs defaults 0 2\n"+
		"/dev/mapper/diskor-swap none swap defaults 0 0\n", string(fstab))

	data, err := fs.DownloadWithURL(ctx, result.Files[1])
	require.NoError(t, err)
	document := &partitioning.Document{}
	require.NoError(t, yaml.Unmarshal(data, document))
	assert.Equal(t, handle, document.Handle)
	assert.Equal(t, partitioning.MethodAutomatic, document.Method)
	assert.Equal(t, partitioning.DefaultAutomaticRequest(), document.Request)
	assert.Equal(t, result.Layout, document.Layout)

	// a second write replaces the files
	id, err = srv.WriteConfigurationWithTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.StateSucceeded, run(t, aRunner, id).State)
}

func TestService_WriteConfiguration_Failures(t *testing.T) {
	cause := errors.New("device busy")
	storage := memory.NewStorage(memory.SampleModel(), memory.WithApply(func(ctx context.Context, model *device.Model, layout *partitioning.Layout) (*backend.Result, error) {
		return nil, cause
	}))
	srv, aRunner, _ := newService(t, storage)
	ctx := context.Background()
	reset(t, srv, aRunner)

	manual, err := srv.CreatePartitioning(ctx, "MANUAL")
	require.NoError(t, err)
	require.NoError(t, srv.ApplyPartitioning(ctx, manual))
	id, err := srv.WriteConfigurationWithTask(ctx)
	require.NoError(t, err)
	run(t, aRunner, id)
	_, err = aRunner.Result(id)
	assert.ErrorIs(t, err, partitioning.ErrInvalidLayout)

	automatic, err := srv.CreatePartitioning(ctx, "AUTOMATIC")
	require.NoError(t, err)
	require.NoError(t, srv.ApplyPartitioning(ctx, automatic))
	id, err = srv.WriteConfigurationWithTask(ctx)
	require.NoError(t, err)
	run(t, aRunner, id)
	_, err = aRunner.Result(id)
	assert.ErrorIs(t, err, cause)
	var failed *task.FailedError
	assert.True(t, errors.As(err, &failed))
}

func TestService_ConfigurePartitioning(t *testing.T) {
	srv, aRunner, _ := newService(t, memory.NewStorage(memory.SampleModel()))
	ctx := context.Background()
	reset(t, srv, aRunner)
	handle, err := srv.CreatePartitioning(ctx, "MANUAL")
	require.NoError(t, err)

	err = srv.ConfigurePartitioning(ctx, handle, &partitioning.CustomRequest{})
	assert.ErrorIs(t, err, partitioning.ErrMethodMismatch)
	assert.True(t, errdefs.IsInvalidArgument(err))
	assert.ErrorIs(t, srv.ConfigurePartitioning(ctx, "unknown", &partitioning.ManualRequest{}), ErrNotFound)

	require.NoError(t, srv.ConfigurePartitioning(ctx, handle, &partitioning.ManualRequest{Requests: []partitioning.MountRequest{
		{DeviceSpec: "vdb1", MountPoint: "/"},
		{DeviceSpec: "vda", MountPoint: "/home", FormatType: "ext4", Reformat: true},
	}}))
	layout, err := srv.ValidatePartitioning(handle)
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/home"}, layout.MountPoints())
	assert.Equal(t, "/dev/vdb1", layout.Entries[0].Device)
	assert.Equal(t, "xfs", layout.Entries[0].FSType)
}

func TestService_ConcurrentCreate(t *testing.T) {
	srv, _, events := newService(t, memory.NewStorage(memory.SampleModel()))
	ctx := context.Background()
	methods := []string{"AUTOMATIC", "MANUAL"}
	handles := make([]string, len(methods))
	var wg sync.WaitGroup
	for i, method := range methods {
		wg.Add(1)
		go func(i int, method string) {
			defer wg.Done()
			handle, err := srv.CreatePartitioning(ctx, method)
			assert.NoError(t, err)
			handles[i] = handle
		}(i, method)
	}
	wg.Wait()

	created := srv.CreatedPartitioning()
	assert.ElementsMatch(t, handles, created)
	changes := events.snapshot()
	require.Len(t, changes, 2)
	assert.Equal(t, created[:1], changes[0].Value)
	assert.Equal(t, created, changes[1].Value)
}
