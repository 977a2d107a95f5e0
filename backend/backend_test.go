package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/diskor/model/partitioning"
)

func TestPlan(t *testing.T) {
	layout := &partitioning.Layout{Entries: []partitioning.MountEntry{
		{Device: "/dev/vda1", MountPoint: "/boot", FSType: "xfs", SizeMiB: 1024, Format: true, Create: true},
		{Device: "/dev/vda2", MountPoint: "swap", FSType: "swap", SizeMiB: 2048, Format: true, Create: true, Encrypted: true},
		{Device: "/dev/vdb1", MountPoint: "/", FSType: "xfs"},
	}}
	actions := Plan(layout)
	var rendered []string
	for _, action := range actions {
		rendered = append(rendered, action.String())
	}
	assert.Equal(t, []string{
		"create /dev/vda1 1024MiB",
		"create /dev/vda2 2048MiB",
		"encrypt /dev/vda2 luks2",
		"format /dev/vda1 xfs",
		"format /dev/vda2 swap",
		"mount /dev/vda1 /boot",
		"mount /dev/vdb1 /",
	}, rendered)
}
