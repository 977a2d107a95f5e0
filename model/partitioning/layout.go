package partitioning

import (
	"fmt"
	"sort"
	"strings"
)

// SwapMountPoint marks a swap entry
const SwapMountPoint = "swap"

// RootMountPoint is required in every layout
const RootMountPoint = "/"

// MountEntry is one device of a resolved layout
type MountEntry struct {
	Device     string `json:"device" yaml:"device"`
	MountPoint string `json:"mountPoint" yaml:"mountPoint"`
	FSType     string `json:"fsType" yaml:"fsType"`
	Options    string `json:"options,omitempty" yaml:"options,omitempty"`
	SizeMiB    int64  `json:"sizeMiB,omitempty" yaml:"sizeMiB,omitempty"`
	Format     bool   `json:"format,omitempty" yaml:"format,omitempty"`
	Encrypted  bool   `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	// Create is set for devices the backend has to create
	Create bool `json:"create,omitempty" yaml:"create,omitempty"`
}

// IsSwap returns true for swap entries
func (e *MountEntry) IsSwap() bool {
	return e.MountPoint == SwapMountPoint || e.FSType == SwapMountPoint
}

// Layout is the resolved device assignment of a plan
type Layout struct {
	Method  Method       `json:"method" yaml:"method"`
	Entries []MountEntry `json:"entries" yaml:"entries"`
}

// Validate checks that mount points are unique and / is present. Swap may
// repeat.
func (l *Layout) Validate() error {
	seen := map[string]bool{}
	for _, entry := range l.Entries {
		if entry.IsSwap() {
			continue
		}
		if seen[entry.MountPoint] {
			return fmt.Errorf("%w: duplicate mount point %v", ErrInvalidLayout, entry.MountPoint)
		}
		seen[entry.MountPoint] = true
	}
	if !seen[RootMountPoint] {
		return fmt.Errorf("%w: no %v mount point", ErrInvalidLayout, RootMountPoint)
	}
	return nil
}

// MountPoints returns the sorted non swap mount points
func (l *Layout) MountPoints() []string {
	var ret []string
	for _, entry := range l.Entries {
		if !entry.IsSwap() {
			ret = append(ret, entry.MountPoint)
		}
	}
	sort.Strings(ret)
	return ret
}

// Fstab renders the layout as an fstab(5) document. Entries are ordered by
// mount point depth so that parents mount first; swap goes last.
func (l *Layout) Fstab() string {
	entries := append([]MountEntry(nil), l.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsSwap() != b.IsSwap() {
			return !a.IsSwap()
		}
		return depth(a.MountPoint) < depth(b.MountPoint)
	})

	builder := strings.Builder{}
	builder.WriteString("#\n# /etc/fstab\n# Created by diskor\n#\n")
	for _, entry := range entries {
		options := entry.Options
		if options == "" {
			options = "defaults"
		}
		mountPoint, fsType, pass := entry.MountPoint, entry.FSType, 2
		switch {
		case entry.IsSwap():
			mountPoint, fsType, pass = "none", SwapMountPoint, 0
		case entry.MountPoint == RootMountPoint:
			pass = 1
		}
		if fsType == "btrfs" {
			pass = 0
		}
		fmt.Fprintf(&builder, "%s %s %s %s 0 %d\n", entry.Device, mountPoint, fsType, options, pass)
	}
	return builder.String()
}

func depth(mountPoint string) int {
	if mountPoint == RootMountPoint {
		return 0
	}
	return strings.Count(strings.TrimRight(mountPoint, "/"), "/")
}
