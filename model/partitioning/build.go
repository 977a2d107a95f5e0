package partitioning

import (
	"fmt"
	"unicode"

	"github.com/viant/diskor/model/device"
)

const (
	bootSizeMiB    = int64(1024)
	minRootSizeMiB = int64(4096)
	volumeGroup    = "diskor"
)

// Build resolves request against model into a validated layout.
func Build(request Request, model *device.Model) (*Layout, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	var (
		entries []MountEntry
		err     error
	)
	switch actual := request.(type) {
	case *AutomaticRequest:
		entries, err = buildAutomatic(actual, model)
	case *ManualRequest:
		entries, err = buildManual(actual, model)
	case *CustomRequest:
		entries, err = buildCustom(actual, model)
	case *InteractiveRequest:
		entries, err = buildInteractive(actual, model)
	case *BlivetRequest:
		entries = append([]MountEntry(nil), actual.Entries...)
	default:
		return nil, fmt.Errorf("%w: unsupported request %T", ErrInvalidRequest, request)
	}
	if err != nil {
		return nil, err
	}
	layout := &Layout{Method: request.Method(), Entries: entries}
	if err = layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// PartitionPath returns the device path of partition number n on disk,
// inserting "p" for disks whose name ends with a digit (nvme0n1p1).
func PartitionPath(disk string, n int) string {
	separator := ""
	if last := disk[len(disk)-1]; unicode.IsDigit(rune(last)) {
		separator = "p"
	}
	return fmt.Sprintf("/dev/%s%s%d", disk, separator, n)
}

// swapSizeMiB follows the usual recommendation for small and large disks
func swapSizeMiB(diskMiB int64) int64 {
	switch {
	case diskMiB < 16*1024:
		return 1024
	case diskMiB < 64*1024:
		return 2048
	default:
		return 4096
	}
}

func buildAutomatic(request *AutomaticRequest, model *device.Model) ([]MountEntry, error) {
	disks := model.Disks()
	if len(disks) == 0 {
		return nil, ErrNoDisks
	}
	disk := disks[0]
	available := disk.SizeMiB()
	fsType := request.FilesystemType
	if fsType == "" {
		fsType = "xfs"
	}

	var entries []MountEntry
	partition := 0
	nextPartition := func() string {
		partition++
		return PartitionPath(disk.Name, partition)
	}

	if !request.excluded("/boot") {
		bootType := fsType
		if request.Scheme == SchemeBtrfs {
			bootType = "ext4"
		}
		entries = append(entries, MountEntry{Device: nextPartition(), MountPoint: "/boot", FSType: bootType, SizeMiB: bootSizeMiB, Format: true, Create: true})
		available -= bootSizeMiB
	}
	swapSize := int64(0)
	if !request.excluded(SwapMountPoint) {
		swapSize = swapSizeMiB(disk.SizeMiB())
	}
	rootSize := available - swapSize
	if rootSize < minRootSizeMiB {
		return nil, fmt.Errorf("%w: %v has %d MiB, / needs %d MiB", ErrInsufficientSpace, disk.Name, available, minRootSizeMiB+swapSize)
	}

	switch request.Scheme {
	case SchemeLVM:
		// the physical volume takes the rest of the disk
		nextPartition()
		if swapSize > 0 {
			entries = append(entries, MountEntry{Device: "/dev/mapper/" + volumeGroup + "-swap", MountPoint: SwapMountPoint, FSType: SwapMountPoint, SizeMiB: swapSize, Format: true, Create: true, Encrypted: request.Encrypted})
		}
		entries = append(entries, MountEntry{Device: "/dev/mapper/" + volumeGroup + "-root", MountPoint: RootMountPoint, FSType: fsType, SizeMiB: rootSize, Format: true, Create: true, Encrypted: request.Encrypted})
	case SchemePlain, SchemeBtrfs:
		if swapSize > 0 {
			entries = append(entries, MountEntry{Device: encryptedPath(nextPartition(), request.Encrypted), MountPoint: SwapMountPoint, FSType: SwapMountPoint, SizeMiB: swapSize, Format: true, Create: true, Encrypted: request.Encrypted})
		}
		root := MountEntry{Device: encryptedPath(nextPartition(), request.Encrypted), MountPoint: RootMountPoint, FSType: fsType, SizeMiB: rootSize, Format: true, Create: true, Encrypted: request.Encrypted}
		if request.Scheme == SchemeBtrfs {
			root.FSType = "btrfs"
			root.Options = "subvol=root"
		}
		entries = append(entries, root)
	}
	return entries, nil
}

func encryptedPath(path string, encrypted bool) string {
	if !encrypted {
		return path
	}
	return "/dev/mapper/luks-" + baseName(path)
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func devicePath(d *device.Device) string {
	if d.Path != "" {
		return d.Path
	}
	return "/dev/" + d.Name
}

func buildManual(request *ManualRequest, model *device.Model) ([]MountEntry, error) {
	var entries []MountEntry
	for _, mount := range request.Requests {
		if mount.MountPoint == "" {
			continue
		}
		d, err := model.Lookup(mount.DeviceSpec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}
		fsType := d.FSType
		if mount.Reformat {
			fsType = mount.FormatType
		}
		if fsType == "" {
			return nil, fmt.Errorf("%w: %v has no filesystem, reformat it", ErrInvalidLayout, mount.DeviceSpec)
		}
		entries = append(entries, MountEntry{
			Device:     devicePath(d),
			MountPoint: mount.MountPoint,
			FSType:     fsType,
			SizeMiB:    d.SizeMiB(),
			Format:     mount.Reformat,
		})
	}
	return entries, nil
}

type allocation struct {
	disk      *device.Device
	free      int64
	partition int
	grow      int
}

func buildCustom(request *CustomRequest, model *device.Model) ([]MountEntry, error) {
	disks := model.Disks()
	if len(disks) == 0 {
		return nil, ErrNoDisks
	}
	allocations := map[string]*allocation{}
	allocationOf := func(name string) (*allocation, error) {
		if name == "" {
			name = disks[0].Name
		}
		if ret, ok := allocations[name]; ok {
			return ret, nil
		}
		d, err := model.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}
		if d.Type != device.TypeDisk || d.ReadOnly {
			return nil, fmt.Errorf("%w: %v is not a writable disk", ErrInvalidLayout, name)
		}
		ret := &allocation{disk: d, free: d.SizeMiB(), grow: -1}
		allocations[d.Name] = ret
		allocations[name] = ret
		return ret, nil
	}

	entries := make([]MountEntry, 0, len(request.Partitions))
	for _, partition := range request.Partitions {
		alloc, err := allocationOf(partition.OnDisk)
		if err != nil {
			return nil, err
		}
		if partition.SizeMiB > alloc.free {
			return nil, fmt.Errorf("%w: %v needs %d MiB, %v has %d MiB left", ErrInsufficientSpace, partition.MountPoint, partition.SizeMiB, alloc.disk.Name, alloc.free)
		}
		alloc.free -= partition.SizeMiB
		alloc.partition++
		if partition.Grow {
			if alloc.grow >= 0 {
				return nil, fmt.Errorf("%w: more than one growing partition on %v", ErrInvalidRequest, alloc.disk.Name)
			}
			alloc.grow = len(entries)
		}
		entries = append(entries, MountEntry{
			Device:     PartitionPath(alloc.disk.Name, alloc.partition),
			MountPoint: partition.MountPoint,
			FSType:     partition.FSType,
			SizeMiB:    partition.SizeMiB,
			Format:     true,
			Create:     true,
		})
	}
	seen := map[*allocation]bool{}
	for _, alloc := range allocations {
		if seen[alloc] || alloc.grow < 0 {
			continue
		}
		seen[alloc] = true
		entries[alloc.grow].SizeMiB += alloc.free
		alloc.free = 0
	}
	return entries, nil
}

func buildInteractive(request *InteractiveRequest, model *device.Model) ([]MountEntry, error) {
	entries := make([]MountEntry, 0, len(request.Entries))
	for _, entry := range request.Entries {
		d, err := model.Lookup(entry.Device)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}
		entry.Device = devicePath(d)
		entry.Create = false
		if entry.FSType == "" {
			entry.FSType = d.FSType
		}
		if entry.SizeMiB == 0 {
			entry.SizeMiB = d.SizeMiB()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
