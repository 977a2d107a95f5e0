package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/model/device"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/zfcp"
	"github.com/viant/gosh/runner"
)

type fakeRunner struct {
	commands []string
	outputs  map[string]string
	status   int
}

func (f *fakeRunner) Run(ctx context.Context, command string, options ...runner.Option) (string, int, error) {
	f.commands = append(f.commands, command)
	return f.outputs[command], f.status, nil
}

const lsblkOutput = `{
   "blockdevices": [
      {"name":"sda", "path":"/dev/sda", "type":"disk", "size":107374182400, "fstype":null, "mountpoint":null, "ro":false,
         "children": [
            {"name":"sda1", "path":"/dev/sda1", "type":"part", "size":"1073741824", "fstype":"xfs", "mountpoint":"/boot", "ro":false}
         ]
      },
      {"name":"sr0", "type":"rom", "size":1073741824, "ro":"1"}
   ]
}`

func TestParseLsblk(t *testing.T) {
	model, err := ParseLsblk(lsblkOutput)
	require.NoError(t, err)
	require.Len(t, model.Devices, 2)
	assert.Equal(t, 3, model.Count())

	sda := model.Devices[0]
	assert.Equal(t, device.TypeDisk, sda.Type)
	assert.EqualValues(t, 102400, sda.SizeMiB())
	assert.Equal(t, "", sda.FSType)
	require.Len(t, sda.Children, 1)
	assert.Equal(t, "xfs", sda.Children[0].FSType)
	assert.EqualValues(t, 1024, sda.Children[0].SizeMiB())
	assert.Equal(t, "/boot", sda.Children[0].Mountpoint)

	sr0 := model.Devices[1]
	assert.Equal(t, "/dev/sr0", sr0.Path)
	assert.True(t, sr0.ReadOnly)
	assert.Len(t, model.Disks(), 1)

	_, err = ParseLsblk("not json")
	assert.ErrorIs(t, err, backend.ErrCommand)
	_, err = ParseLsblk(`{"devices":[]}`)
	assert.ErrorIs(t, err, backend.ErrCommand)
}

func TestStorage(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{lsblkCommand: lsblkOutput}}
	storage := NewStorage(NewWithRunner(DefaultConfig(), fake))
	ctx := context.Background()

	model, err := storage.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{lsblkCommand}, fake.commands)

	layout := &partitioning.Layout{Method: partitioning.MethodManual, Entries: []partitioning.MountEntry{
		{Device: "/dev/sda1", MountPoint: "/", FSType: "xfs"},
	}}
	result, err := storage.Apply(ctx, model, layout)
	require.NoError(t, err)
	assert.Equal(t, []backend.Action{{Kind: backend.ActionMount, Device: "/dev/sda1", Detail: "/"}}, result.Actions)
	assert.Len(t, fake.commands, 1)

	layout.Entries[0].Device = "/dev/sdz1"
	_, err = storage.Apply(ctx, model, layout)
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)

	fake.status = 32
	_, err = storage.Probe(ctx)
	assert.ErrorIs(t, err, backend.ErrCommand)
}

func TestZFCP(t *testing.T) {
	fake := &fakeRunner{}
	backendZFCP := NewZFCP(NewWithRunner(DefaultConfig(), fake))
	ctx := context.Background()
	require.NoError(t, backendZFCP.Startup(ctx))
	aDevice, err := zfcp.NewDevice("fc00", "0x5005076300c213e9", "0x5022000000000000")
	require.NoError(t, err)
	require.NoError(t, backendZFCP.Discover(ctx, aDevice))
	assert.Equal(t, []string{
		"modprobe zfcp",
		"chzdev --enable zfcp-lun 0.0.fc00:0x5005076300c213e9:0x5022000000000000",
	}, fake.commands)

	fake.status = 1
	assert.ErrorIs(t, backendZFCP.Startup(ctx), backend.ErrCommand)
}
