package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/internal/clock"
	"github.com/viant/diskor/model/device"
	"github.com/viant/diskor/model/partitioning"
)

const lsblkCommand = "lsblk --json --bytes --output NAME,PATH,TYPE,SIZE,FSTYPE,MOUNTPOINT,RO"

// Storage probes block devices with lsblk. Apply only plans the actions.
type Storage struct {
	*Service
}

// NewStorage wraps service as a storage backend
func NewStorage(service *Service) *Storage {
	return &Storage{Service: service}
}

// Probe lists block devices
func (s *Storage) Probe(ctx context.Context) (*device.Model, error) {
	output, err := s.run(ctx, lsblkCommand)
	if err != nil {
		return nil, err
	}
	return ParseLsblk(output)
}

// Apply returns the actions realising layout without running them
func (s *Storage) Apply(ctx context.Context, model *device.Model, layout *partitioning.Layout) (*backend.Result, error) {
	for _, entry := range layout.Entries {
		if entry.Create {
			continue
		}
		if _, err := model.Lookup(entry.Device); err != nil && !strings.HasPrefix(entry.Device, "/dev/mapper/") {
			return nil, fmt.Errorf("failed to apply %v: %w", entry.MountPoint, err)
		}
	}
	return &backend.Result{Actions: backend.Plan(layout)}, nil
}

// ParseLsblk converts lsblk JSON output into a model
func ParseLsblk(output string) (*device.Model, error) {
	if !gjson.Valid(output) {
		return nil, fmt.Errorf("%w: lsblk returned invalid JSON", backend.ErrCommand)
	}
	root := gjson.Get(output, "blockdevices")
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: lsblk output has no blockdevices", backend.ErrCommand)
	}
	return &device.Model{Devices: parseDevices(root), ProbedAt: clock.Now()}, nil
}

func parseDevices(list gjson.Result) []*device.Device {
	var ret []*device.Device
	list.ForEach(func(_, value gjson.Result) bool {
		d := &device.Device{
			Name:       value.Get("name").String(),
			Path:       value.Get("path").String(),
			Type:       device.Type(value.Get("type").String()),
			Size:       value.Get("size").Int(),
			FSType:     value.Get("fstype").String(),
			Mountpoint: value.Get("mountpoint").String(),
			ReadOnly:   value.Get("ro").Bool(),
		}
		if d.Path == "" {
			d.Path = "/dev/" + d.Name
		}
		if children := value.Get("children"); children.IsArray() {
			d.Children = parseDevices(children)
		}
		ret = append(ret, d)
		return true
	})
	return ret
}
