package partitioning

import (
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/diskor/model/device"
)

func testModel() *device.Model {
	return &device.Model{Devices: []*device.Device{
		{Name: "sda", Path: "/dev/sda", Type: device.TypeDisk, Size: 40960 * device.MiB, Children: []*device.Device{
			{Name: "sda1", Path: "/dev/sda1", Type: device.TypePartition, Size: 1024 * device.MiB, FSType: "ext4"},
			{Name: "sda2", Path: "/dev/sda2", Type: device.TypePartition, Size: 39936 * device.MiB, FSType: "xfs"},
		}},
		{Name: "nvme0n1", Path: "/dev/nvme0n1", Type: device.TypeDisk, Size: 8192 * device.MiB},
	}}
}

func TestParseMethod(t *testing.T) {
	for _, method := range Methods() {
		actual, err := ParseMethod(string(method))
		require.NoError(t, err)
		assert.Equal(t, method, actual)
	}
	for _, text := range []string{"", "automatic", "GUIDED", "AUTOMATIC "} {
		_, err := ParseMethod(text)
		assert.ErrorIs(t, err, ErrInvalidMethod, text)
		assert.True(t, errdefs.IsInvalidArgument(err), text)
	}
}

func TestBuild(t *testing.T) {
	testCases := []struct {
		description string
		request     Request
		expect      []MountEntry
		expectErr   error
	}{
		{
			description: "automatic lvm",
			request:     DefaultAutomaticRequest(),
			expect: []MountEntry{
				{Device: "/dev/sda1", MountPoint: "/boot", FSType: "xfs", SizeMiB: 1024, Format: true, Create: true},
				{Device: "/dev/mapper/diskor-swap", MountPoint: "swap", FSType: "swap", SizeMiB: 2048, Format: true, Create: true},
				{Device: "/dev/mapper/diskor-root", MountPoint: "/", FSType: "xfs", SizeMiB: 37888, Format: true, Create: true},
			},
		},
		{
			description: "automatic plain encrypted without swap",
			request:     &AutomaticRequest{Scheme: SchemePlain, FilesystemType: "ext4", Encrypted: true, Passphrase: "secret", ExcludedMountPoints: []string{"swap"}},
			expect: []MountEntry{
				{Device: "/dev/sda1", MountPoint: "/boot", FSType: "ext4", SizeMiB: 1024, Format: true, Create: true},
				{Device: "/dev/mapper/luks-sda2", MountPoint: "/", FSType: "ext4", SizeMiB: 39936, Format: true, Create: true, Encrypted: true},
			},
		},
		{
			description: "automatic excluding root",
			request:     &AutomaticRequest{Scheme: SchemePlain, ExcludedMountPoints: []string{"/"}},
			expectErr:   ErrInvalidRequest,
		},
		{
			description: "manual",
			request: &ManualRequest{Requests: []MountRequest{
				{DeviceSpec: "sda1", MountPoint: "/boot"},
				{DeviceSpec: "/dev/sda2", MountPoint: "/", FormatType: "ext4", Reformat: true},
				{DeviceSpec: "nvme0n1"},
			}},
			expect: []MountEntry{
				{Device: "/dev/sda1", MountPoint: "/boot", FSType: "ext4", SizeMiB: 1024},
				{Device: "/dev/sda2", MountPoint: "/", FSType: "ext4", SizeMiB: 39936, Format: true},
			},
		},
		{
			description: "manual unknown device",
			request:     &ManualRequest{Requests: []MountRequest{{DeviceSpec: "sdz1", MountPoint: "/"}}},
			expectErr:   ErrInvalidLayout,
		},
		{
			description: "manual without root",
			request:     &ManualRequest{Requests: []MountRequest{{DeviceSpec: "sda1", MountPoint: "/boot"}}},
			expectErr:   ErrInvalidLayout,
		},
		{
			description: "custom on nvme with grow",
			request: &CustomRequest{Partitions: []PartitionRequest{
				{MountPoint: "/boot/efi", FSType: "vfat", SizeMiB: 512, OnDisk: "nvme0n1"},
				{MountPoint: "/", FSType: "xfs", SizeMiB: 4096, Grow: true, OnDisk: "nvme0n1"},
			}},
			expect: []MountEntry{
				{Device: "/dev/nvme0n1p1", MountPoint: "/boot/efi", FSType: "vfat", SizeMiB: 512, Format: true, Create: true},
				{Device: "/dev/nvme0n1p2", MountPoint: "/", FSType: "xfs", SizeMiB: 7680, Format: true, Create: true},
			},
		},
		{
			description: "custom over capacity",
			request:     &CustomRequest{Partitions: []PartitionRequest{{MountPoint: "/", FSType: "xfs", SizeMiB: 9000, OnDisk: "nvme0n1"}}},
			expectErr:   ErrInsufficientSpace,
		},
		{
			description: "custom duplicate mount point",
			request: &CustomRequest{Partitions: []PartitionRequest{
				{MountPoint: "/", FSType: "xfs", SizeMiB: 1024},
				{MountPoint: "/", FSType: "xfs", SizeMiB: 1024},
			}},
			expectErr: ErrInvalidLayout,
		},
		{
			description: "interactive on existing devices",
			request:     &InteractiveRequest{Entries: []MountEntry{{Device: "sda2", MountPoint: "/"}}},
			expect:      []MountEntry{{Device: "/dev/sda2", MountPoint: "/", FSType: "xfs", SizeMiB: 39936}},
		},
		{
			description: "interactive on new device",
			request:     &InteractiveRequest{Entries: []MountEntry{{Device: "sdb1", MountPoint: "/"}}},
			expectErr:   ErrInvalidLayout,
		},
		{
			description: "blivet as given",
			request:     &BlivetRequest{Entries: []MountEntry{{Device: "/dev/md0", MountPoint: "/", FSType: "xfs", Create: true}}},
			expect:      []MountEntry{{Device: "/dev/md0", MountPoint: "/", FSType: "xfs", Create: true}},
		},
	}

	for _, testCase := range testCases {
		layout, err := Build(testCase.request, testModel())
		if testCase.expectErr != nil {
			assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.request.Method(), layout.Method, testCase.description)
		assert.Equal(t, testCase.expect, layout.Entries, testCase.description)
	}
}

func TestBuild_NoDisks(t *testing.T) {
	_, err := Build(DefaultAutomaticRequest(), &device.Model{})
	assert.ErrorIs(t, err, ErrNoDisks)
	assert.True(t, errdefs.IsFailedPrecondition(err))
}

func TestPlan_Configure(t *testing.T) {
	plan, err := NewPlan("/p/1", MethodManual, testModel().ProbedAt)
	require.NoError(t, err)
	assert.IsType(t, &ManualRequest{}, plan.Request)

	err = plan.Configure(DefaultAutomaticRequest())
	assert.ErrorIs(t, err, ErrMethodMismatch)

	request := &ManualRequest{Requests: []MountRequest{{DeviceSpec: "sda2", MountPoint: "/"}}}
	require.NoError(t, plan.Configure(request))
	request.Requests[0].MountPoint = "/home"
	assert.Equal(t, "/", plan.Request.(*ManualRequest).Requests[0].MountPoint)

	assert.ErrorIs(t, plan.Configure(&ManualRequest{Requests: []MountRequest{{DeviceSpec: "sda2", MountPoint: "home"}}}), ErrInvalidRequest)

	_, err = NewPlan("/p/2", Method("GUIDED"), testModel().ProbedAt)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestLayout_Fstab(t *testing.T) {
	layout := &Layout{Entries: []MountEntry{
		{Device: "/dev/mapper/diskor-swap", MountPoint: "swap", FSType: "swap"},
		{Device: "/dev/sda1", MountPoint: "/boot", FSType: "xfs"},
		{Device: "/dev/sda3", MountPoint: "/", FSType: "btrfs", Options: "subvol=root"},
	}}
	fstab := layout.Fstab()
	lines := strings.Split(strings.TrimSpace(fstab), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "/dev/sda3 / btrfs subvol=root 0 0", lines[4])
	assert.Equal(t, "/dev/sda1 /boot xfs defaults 0 2", lines[5])
	assert.Equal(t, "/dev/mapper/diskor-swap none swap defaults 0 0", lines[6])
	assert.Equal(t, []string{"/", "/boot"}, layout.MountPoints())
}
