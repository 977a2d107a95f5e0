package partitioning

import (
	"fmt"
	"strings"
)

// Request is the method specific configuration of a plan. The set of
// implementations is closed.
type Request interface {
	// Method returns the method the request belongs to
	Method() Method
	// Validate checks the request without a storage model
	Validate() error
	// Clone returns a deep copy
	Clone() Request

	sealed()
}

// Scheme is the automatic partitioning scheme
type Scheme string

// Automatic partitioning schemes
const (
	SchemePlain Scheme = "plain"
	SchemeLVM   Scheme = "lvm"
	SchemeBtrfs Scheme = "btrfs"
)

// IsValid returns true for known schemes
func (s Scheme) IsValid() bool {
	switch s {
	case SchemePlain, SchemeLVM, SchemeBtrfs:
		return true
	}
	return false
}

// AutomaticRequest lays out /boot, swap and / on the first disk
type AutomaticRequest struct {
	Scheme              Scheme   `json:"scheme" yaml:"scheme"`
	FilesystemType      string   `json:"filesystemType,omitempty" yaml:"filesystemType,omitempty"`
	Encrypted           bool     `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Passphrase          string   `json:"-" yaml:"-"`
	ExcludedMountPoints []string `json:"excludedMountPoints,omitempty" yaml:"excludedMountPoints,omitempty"`
}

// DefaultAutomaticRequest returns the request used by new AUTOMATIC plans
func DefaultAutomaticRequest() *AutomaticRequest {
	return &AutomaticRequest{Scheme: SchemeLVM, FilesystemType: "xfs"}
}

func (r *AutomaticRequest) sealed() {}

// Method returns MethodAutomatic
func (r *AutomaticRequest) Method() Method { return MethodAutomatic }

// Validate checks the request
func (r *AutomaticRequest) Validate() error {
	if !r.Scheme.IsValid() {
		return fmt.Errorf("%w: unknown scheme %q", ErrInvalidRequest, r.Scheme)
	}
	if r.Encrypted && r.Passphrase == "" {
		return fmt.Errorf("%w: encryption requires a passphrase", ErrInvalidRequest)
	}
	for _, mountPoint := range r.ExcludedMountPoints {
		if mountPoint == "/" {
			return fmt.Errorf("%w: / cannot be excluded", ErrInvalidRequest)
		}
	}
	return nil
}

// Clone returns a deep copy
func (r *AutomaticRequest) Clone() Request {
	ret := *r
	ret.ExcludedMountPoints = append([]string(nil), r.ExcludedMountPoints...)
	return &ret
}

func (r *AutomaticRequest) excluded(mountPoint string) bool {
	for _, candidate := range r.ExcludedMountPoints {
		if candidate == mountPoint {
			return true
		}
	}
	return false
}

// MountRequest assigns an existing device to a mount point
type MountRequest struct {
	DeviceSpec string `json:"deviceSpec" yaml:"deviceSpec"`
	MountPoint string `json:"mountPoint,omitempty" yaml:"mountPoint,omitempty"`
	FormatType string `json:"formatType,omitempty" yaml:"formatType,omitempty"`
	Reformat   bool   `json:"reformat,omitempty" yaml:"reformat,omitempty"`
}

// ManualRequest assigns mount points to existing devices
type ManualRequest struct {
	Requests []MountRequest `json:"requests" yaml:"requests"`
}

func (r *ManualRequest) sealed() {}

// Method returns MethodManual
func (r *ManualRequest) Method() Method { return MethodManual }

// Validate checks the request
func (r *ManualRequest) Validate() error {
	for i, request := range r.Requests {
		if request.DeviceSpec == "" {
			return fmt.Errorf("%w: request %d has no device", ErrInvalidRequest, i)
		}
		if request.Reformat && request.FormatType == "" {
			return fmt.Errorf("%w: request %d reformats %v without a format type", ErrInvalidRequest, i, request.DeviceSpec)
		}
		if err := validateMountPoint(request.MountPoint, true); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy
func (r *ManualRequest) Clone() Request {
	return &ManualRequest{Requests: append([]MountRequest(nil), r.Requests...)}
}

// PartitionRequest describes a new partition
type PartitionRequest struct {
	MountPoint string `json:"mountPoint" yaml:"mountPoint"`
	FSType     string `json:"fsType" yaml:"fsType"`
	SizeMiB    int64  `json:"sizeMiB" yaml:"sizeMiB"`
	Grow       bool   `json:"grow,omitempty" yaml:"grow,omitempty"`
	OnDisk     string `json:"onDisk,omitempty" yaml:"onDisk,omitempty"`
}

// CustomRequest allocates new partitions
type CustomRequest struct {
	Partitions []PartitionRequest `json:"partitions" yaml:"partitions"`
}

func (r *CustomRequest) sealed() {}

// Method returns MethodCustom
func (r *CustomRequest) Method() Method { return MethodCustom }

// Validate checks the request
func (r *CustomRequest) Validate() error {
	for i, partition := range r.Partitions {
		if partition.FSType == "" {
			return fmt.Errorf("%w: partition %d has no filesystem type", ErrInvalidRequest, i)
		}
		if partition.SizeMiB <= 0 && !partition.Grow {
			return fmt.Errorf("%w: partition %d needs a size or grow", ErrInvalidRequest, i)
		}
		if partition.SizeMiB < 0 {
			return fmt.Errorf("%w: partition %d has negative size", ErrInvalidRequest, i)
		}
		if err := validateMountPoint(partition.MountPoint, false); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy
func (r *CustomRequest) Clone() Request {
	return &CustomRequest{Partitions: append([]PartitionRequest(nil), r.Partitions...)}
}

// InteractiveRequest carries entries edited by a user interface on existing
// devices
type InteractiveRequest struct {
	Entries []MountEntry `json:"entries" yaml:"entries"`
}

func (r *InteractiveRequest) sealed() {}

// Method returns MethodInteractive
func (r *InteractiveRequest) Method() Method { return MethodInteractive }

// Validate checks the request
func (r *InteractiveRequest) Validate() error {
	return validateEntries(r.Entries)
}

// Clone returns a deep copy
func (r *InteractiveRequest) Clone() Request {
	return &InteractiveRequest{Entries: append([]MountEntry(nil), r.Entries...)}
}

// BlivetRequest carries a raw layout accepted as given
type BlivetRequest struct {
	Entries []MountEntry `json:"entries" yaml:"entries"`
}

func (r *BlivetRequest) sealed() {}

// Method returns MethodBlivet
func (r *BlivetRequest) Method() Method { return MethodBlivet }

// Validate checks the request
func (r *BlivetRequest) Validate() error {
	return validateEntries(r.Entries)
}

// Clone returns a deep copy
func (r *BlivetRequest) Clone() Request {
	return &BlivetRequest{Entries: append([]MountEntry(nil), r.Entries...)}
}

func validateEntries(entries []MountEntry) error {
	for i, entry := range entries {
		if entry.Device == "" {
			return fmt.Errorf("%w: entry %d has no device", ErrInvalidRequest, i)
		}
		if err := validateMountPoint(entry.MountPoint, false); err != nil {
			return err
		}
	}
	return nil
}

// validateMountPoint accepts absolute paths and swap
func validateMountPoint(mountPoint string, optional bool) error {
	switch {
	case mountPoint == "":
		if optional {
			return nil
		}
		return fmt.Errorf("%w: missing mount point", ErrInvalidRequest)
	case mountPoint == SwapMountPoint:
		return nil
	case !strings.HasPrefix(mountPoint, "/"):
		return fmt.Errorf("%w: mount point %q is not absolute", ErrInvalidRequest, mountPoint)
	case strings.ContainsAny(mountPoint, " \t\n"):
		return fmt.Errorf("%w: mount point %q contains white space", ErrInvalidRequest, mountPoint)
	}
	return nil
}
