package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/containerd/log"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/dao"
	"github.com/viant/diskor/service/dao/criteria"
)

// Service implements a task journal storing one JSON document per task.
// Any afs scheme works; tests use mem://.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, task.Task] = (*Service)(nil)

// Save persists a task document
func (s *Service) Save(ctx context.Context, aTask *task.Task) error {
	if aTask == nil {
		return dao.ErrNilEntity
	}
	if aTask.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(aTask)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	URL := s.taskURL(aTask.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save task to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves a task document
func (s *Service) Load(ctx context.Context, id string) (*task.Task, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	URL := s.taskURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check if task exists: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	ret := &task.Task{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task data: %w", err)
	}
	return ret, nil
}

// Delete removes a task document
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	URL := s.taskURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if task exists: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete task file: %w", err)
	}
	return nil
}

// List returns journaled tasks ordered by sequence
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list task files: %w", err)
	}

	var tasks []*task.Task
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.G(ctx).WithError(err).WithField("url", object.URL()).Warn("failed to read task file")
			continue
		}
		aTask := &task.Task{}
		if err := json.Unmarshal(data, aTask); err != nil {
			log.G(ctx).WithError(err).WithField("url", object.URL()).Warn("failed to unmarshal task")
			continue
		}
		if !criteria.Match(string(aTask.State), aTask.Name, parameters) {
			continue
		}
		tasks = append(tasks, aTask)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Sequence < tasks[j].Sequence })
	return tasks, nil
}

// taskURL maps a task handle to a flat file name
func (s *Service) taskURL(id string) string {
	name := strings.ReplaceAll(strings.Trim(id, "/"), "/", "_")
	return url.Join(s.baseURL, name+".json")
}

// New creates a task journal rooted at baseURL
func New(ctx context.Context, baseURL string, fs afs.Service) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("journal URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs}, nil
}
