// Package zfcp implements zFCP device discovery and the zfcp.conf writer.
package zfcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/containerd/log"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/kickstart"
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/model/zfcp"
	"github.com/viant/diskor/progress"
	"github.com/viant/diskor/service/runner"
	"github.com/viant/diskor/tracing"
)

// DefaultSysroot is the root of the installed system
const DefaultSysroot = "/mnt/sysroot"

// ConfigPath is zfcp.conf relative to the system root
const ConfigPath = "etc/zfcp.conf"

// DiscoverTaskName names discovery tasks
const DiscoverTaskName = "Discover a zFCP device"

// Service owns the zFCP records of one process
type Service struct {
	mux     sync.RWMutex
	records []*zfcp.Device

	backend backend.ZFCP
	runner  *runner.Service
	fs      afs.Service
	sysroot string
	metrics *metrics.Metrics
}

// New creates the module and starts the backend up. A startup failure is
// logged; ReloadModule retries it.
func New(ctx context.Context, aBackend backend.ZFCP, aRunner *runner.Service, options ...Option) (*Service, error) {
	if aBackend == nil {
		return nil, fmt.Errorf("zfcp: backend was nil")
	}
	if aRunner == nil {
		return nil, fmt.Errorf("zfcp: runner was nil")
	}
	s := &Service{backend: aBackend, runner: aRunner, sysroot: DefaultSysroot}
	for _, opt := range options {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	s.sysroot = url.Normalize(s.sysroot, file.Scheme)
	if err := s.ReloadModule(ctx); err != nil {
		log.G(ctx).WithError(err).Warn("failed to start up zfcp")
	}
	return s, nil
}

// ReloadModule starts the backend up again
func (s *Service) ReloadModule(ctx context.Context) error {
	log.G(ctx).Debug("starting up zfcp")
	return s.backend.Startup(ctx)
}

// DiscoverWithTask returns a pending task that validates the triple, brings
// the LUN online and records it. Validation errors fail the task.
func (s *Service) DiscoverWithTask(ctx context.Context, deviceNumber, wwpn, lun string) (string, error) {
	return s.runner.Create(ctx, &task.Work{
		Name:  DiscoverTaskName,
		Steps: 2,
		Run: func(ctx context.Context) (interface{}, error) {
			aDevice, err := zfcp.NewDevice(deviceNumber, wwpn, lun)
			if err != nil {
				return nil, err
			}
			progress.ReportCtx(ctx, 1, fmt.Sprintf("Discovering %v.", aDevice.DeviceNumber))
			discoverCtx, span := tracing.StartBackendSpan(ctx, "discover")
			err = s.backend.Discover(discoverCtx, aDevice)
			tracing.EndSpan(span, err)
			if err != nil {
				return nil, fmt.Errorf("failed to discover %v: %w", aDevice, err)
			}
			progress.ReportCtx(ctx, 2, fmt.Sprintf("Discovered %v.", aDevice.DeviceNumber))
			s.add(aDevice)
			return aDevice, nil
		},
	})
}

func (s *Service) add(aDevice *zfcp.Device) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, record := range s.records {
		if record.Equal(aDevice) {
			return
		}
	}
	s.records = append(s.records, aDevice)
	s.metrics.ZFCPRecords(len(s.records))
}

// Records returns copies of the records in insertion order
func (s *Service) Records() []zfcp.Device {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret := make([]zfcp.Device, 0, len(s.records))
	for _, record := range s.records {
		ret = append(ret, *record)
	}
	return ret
}

// WriteConfiguration writes every record to <sysroot>/etc/zfcp.conf
func (s *Service) WriteConfiguration(ctx context.Context) error {
	records := s.Records()
	builder := strings.Builder{}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			log.G(ctx).WithError(err).Warn("skipping zfcp record")
			continue
		}
		builder.WriteString(records[i].String())
		builder.WriteByte('\n')
	}
	URL := url.Join(s.sysroot, ConfigPath)
	log.G(ctx).WithField("url", URL).WithField("records", len(records)).Debug("writing zfcp configuration")
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader([]byte(builder.String()))); err != nil {
		return fmt.Errorf("%w: failed to write %v: %v", ErrIO, URL, err)
	}
	return nil
}

// ProcessKickstart replaces the records with the zfcp commands of data. The
// records stay unchanged when any command is invalid.
func (s *Service) ProcessKickstart(ctx context.Context, data *kickstart.Data) error {
	if data == nil {
		return nil
	}
	var (
		records []*zfcp.Device
		errs    []error
	)
	for _, command := range data.ZFCP {
		aDevice, err := zfcp.NewDevice(command.DevNum, command.WWPN, command.FCPLun)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", command.Line, err))
			continue
		}
		duplicate := false
		for _, record := range records {
			if record.Equal(aDevice) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			records = append(records, aDevice)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.mux.Lock()
	s.records = records
	s.metrics.ZFCPRecords(len(records))
	s.mux.Unlock()
	log.G(ctx).WithField("records", len(records)).Debug("processed zfcp kickstart")
	return nil
}

// SetupKickstart stores the records as zfcp commands of data
func (s *Service) SetupKickstart(data *kickstart.Data) {
	records := s.Records()
	data.ZFCP = make([]*kickstart.ZFCPData, 0, len(records))
	for _, record := range records {
		data.ZFCP = append(data.ZFCP, &kickstart.ZFCPData{DevNum: record.DeviceNumber, WWPN: record.WWPN, FCPLun: record.LUN})
	}
}
