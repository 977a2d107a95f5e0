package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/containerd/log"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/progress"
	"github.com/viant/diskor/tracing"
	"gopkg.in/yaml.v3"
)

// Files written under the system root
const (
	FstabPath        = "etc/fstab"
	PartitioningPath = "etc/diskor/partitioning.yaml"
)

// WriteResult is the output of the write task
type WriteResult struct {
	Handle  string               `json:"handle" yaml:"handle"`
	Layout  *partitioning.Layout `json:"layout" yaml:"layout"`
	Actions []backend.Action     `json:"actions,omitempty" yaml:"actions,omitempty"`
	Files   []string             `json:"files" yaml:"files"`
}

// WriteConfigurationWithTask returns a pending task that applies the applied
// plan through the backend and writes fstab and the plan document. The task
// fails with ErrNoAppliedPlan when no plan is applied once it runs.
func (s *Service) WriteConfigurationWithTask(ctx context.Context) (string, error) {
	return s.runner.Create(ctx, &task.Work{
		Name:  WriteTaskName,
		Steps: 3,
		Run: func(ctx context.Context) (interface{}, error) {
			result, err := s.writeConfiguration(ctx)
			if err != nil {
				return nil, err
			}
			return result, nil
		},
	})
}

func (s *Service) writeConfiguration(ctx context.Context) (*WriteResult, error) {
	s.mux.RLock()
	handle := s.applied
	model := s.model.Clone()
	var (
		plan *partitioning.Plan
		err  error
	)
	if handle != NoPartitioning {
		plan, err = s.registry.Describe(handle)
	}
	s.mux.RUnlock()
	if handle == NoPartitioning {
		return nil, ErrNoAppliedPlan
	}
	if err != nil {
		return nil, err
	}

	progress.ReportCtx(ctx, 1, "Resolving the partitioning layout.")
	layout, err := plan.Layout(model)
	if err != nil {
		return nil, err
	}

	progress.ReportCtx(ctx, 2, "Applying the partitioning layout.")
	applyCtx, span := tracing.StartBackendSpan(ctx, "apply")
	applied, err := s.backend.Apply(applyCtx, model, layout)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %v: %w", handle, err)
	}

	progress.ReportCtx(ctx, 3, "Writing the storage configuration.")
	result := &WriteResult{Handle: handle, Layout: layout}
	if applied != nil {
		result.Actions = applied.Actions
	}
	fstabURL := url.Join(s.sysroot, FstabPath)
	if err = s.upload(ctx, fstabURL, []byte(layout.Fstab())); err != nil {
		return nil, err
	}
	document, err := yaml.Marshal(&partitioning.Document{Handle: handle, Method: plan.Method, Request: plan.Request, Layout: layout})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %v: %w", handle, err)
	}
	documentURL := url.Join(s.sysroot, PartitioningPath)
	if err = s.upload(ctx, documentURL, document); err != nil {
		return nil, err
	}
	result.Files = []string{fstabURL, documentURL}
	return result, nil
}

// upload replaces URL content, logging a diff of the previous version
func (s *Service) upload(ctx context.Context, URL string, data []byte) error {
	if ok, _ := s.fs.Exists(ctx, URL); ok {
		if previous, err := s.fs.DownloadWithURL(ctx, URL); err == nil && !bytes.Equal(previous, data) {
			diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(previous)),
				B:        difflib.SplitLines(string(data)),
				FromFile: URL + ".orig",
				ToFile:   URL,
				Context:  1,
			})
			log.G(ctx).WithField("url", URL).WithField("diff", diff).Debug("replacing configuration")
		}
	}
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: failed to write %v: %v", ErrIO, URL, err)
	}
	return nil
}
