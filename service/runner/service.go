package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/containerd/log"
	"github.com/viant/diskor/internal/clock"
	"github.com/viant/diskor/internal/idgen"
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/progress"
	"github.com/viant/diskor/service/dao"
	taskmemory "github.com/viant/diskor/service/dao/task/memory"
	"github.com/viant/diskor/service/messaging"
	"github.com/viant/diskor/service/messaging/memory"
	"github.com/viant/diskor/tracing"
)

// Service runs tasks
type Service struct {
	config    Config
	token     string
	prefix    string
	taskDAO   dao.Service[string, task.Task]
	journal   dao.Service[string, task.Task]
	queue     messaging.Queue[task.Ref]
	metrics   *metrics.Metrics
	listeners []Listener

	mux      sync.Mutex
	sequence uint64
	jobs     map[string]*job

	workers  []*worker
	workerWg sync.WaitGroup
	running  bool
	cancel   context.CancelFunc
}

type job struct {
	task            *task.Task
	work            *task.Work
	done            chan struct{}
	cancel          context.CancelFunc
	cancelRequested bool
}

type worker struct {
	id      int
	service *Service
	ctx     context.Context
}

// New creates a runner. Workers are started with Start.
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		jobs:   make(map[string]*job),
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.token == "" {
		s.token = idgen.Token()
	}
	s.prefix = strings.TrimRight(s.config.PathPrefix, "/") + "/" + s.token + "/"
	if s.taskDAO == nil {
		s.taskDAO = taskmemory.New()
	}
	if s.queue == nil {
		config := memory.DefaultConfig()
		config.QueueBuffer = s.config.QueueBuffer
		config.FailWhenFull = true
		s.queue = memory.NewQueue[task.Ref](config)
	}
	return s, nil
}

// Start launches the workers. Calling it again is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.running {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	for i := 0; i < s.config.Workers; i++ {
		w := &worker{id: i, service: s, ctx: ctx}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	return nil
}

// Shutdown stops accepting work, interrupts running tasks and waits for the
// workers to exit. Queued tasks that never ran stay pending.
func (s *Service) Shutdown() {
	s.mux.Lock()
	cancel := s.cancel
	s.running = false
	s.mux.Unlock()
	if cancel != nil {
		cancel()
	}
	_ = s.queue.Close()
	s.workerWg.Wait()
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if w.ctx.Err() != nil || errors.Is(err, messaging.ErrClosed) {
				return
			}
			log.G(w.ctx).WithError(err).WithField("worker", w.id).Warn("failed to consume task")
			continue
		}
		if msg == nil {
			continue
		}
		if err = w.service.execute(w.ctx, msg.T().ID); err != nil {
			log.G(w.ctx).WithError(err).WithField("worker", w.id).Warn("dropping start request")
			err = msg.Nack(err)
		} else {
			err = msg.Ack()
		}
		if err != nil {
			log.G(w.ctx).WithError(err).WithField("worker", w.id).Debug("failed to settle start request")
		}
	}
}

// Create registers a pending task for work and returns its handle
func (s *Service) Create(ctx context.Context, work *task.Work) (string, error) {
	if work == nil || work.Run == nil {
		return "", ErrInvalidWork
	}
	s.mux.Lock()
	s.sequence++
	id := s.prefix + strconv.FormatUint(s.sequence, 10)
	aJob := &job{
		task: task.New(id, s.sequence, work),
		work: work,
		done: make(chan struct{}),
	}
	s.jobs[id] = aJob
	snapshot := s.saveLocked(ctx, aJob)
	s.mux.Unlock()
	log.G(ctx).WithField("task", id).WithField("name", work.Name).Debug("task created")
	s.notify(snapshot)
	return id, nil
}

// Submit creates and starts a task
func (s *Service) Submit(ctx context.Context, work *task.Work) (string, error) {
	id, err := s.Create(ctx, work)
	if err != nil {
		return "", err
	}
	return id, s.StartTask(ctx, id)
}

// StartTask enqueues a pending task and returns immediately. Starting a task
// twice fails with task.ErrInvalidState; a full start queue fails with
// messaging.ErrFull and leaves the task startable.
func (s *Service) StartTask(ctx context.Context, id string) error {
	s.mux.Lock()
	aJob, err := s.lookupLocked(id)
	if err == nil {
		err = aJob.task.Queue()
	}
	if err != nil {
		s.mux.Unlock()
		return err
	}
	snapshot := s.saveLocked(ctx, aJob)
	s.mux.Unlock()
	s.notify(snapshot)

	if err = s.queue.Publish(ctx, &task.Ref{ID: id}); err != nil {
		s.mux.Lock()
		if aJob.task.State == task.StatePending {
			aJob.task.QueuedAt = nil
			snapshot = s.saveLocked(ctx, aJob)
		}
		s.mux.Unlock()
		s.notify(snapshot)
		return fmt.Errorf("failed to queue task %v: %w", id, err)
	}
	return nil
}

// execute runs the work of a queued task. Tasks cancelled while queued are
// skipped; a task discarded while queued is reported as ErrNotFound.
func (s *Service) execute(ctx context.Context, id string) error {
	s.mux.Lock()
	aJob, ok := s.jobs[id]
	if !ok {
		s.mux.Unlock()
		return fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if aJob.task.State != task.StatePending {
		s.mux.Unlock()
		return nil
	}
	if err := aJob.task.Start(); err != nil {
		s.mux.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	aJob.cancel = cancel
	snapshot := s.saveLocked(ctx, aJob)
	s.mux.Unlock()
	defer cancel()

	s.metrics.TaskStarted()
	s.notify(snapshot)

	runCtx, span := tracing.StartTaskSpan(runCtx, id, aJob.work.Name)
	tracker := progress.NewTracker(id, aJob.work.Steps, func(state progress.Snapshot) {
		span.AddProgress(state.Step, state.Message)
		s.mux.Lock()
		aJob.task.Progress = state
		snapshot := s.saveLocked(ctx, aJob)
		s.mux.Unlock()
		s.notify(snapshot)
	})
	runCtx = progress.WithTracker(runCtx, tracker)
	runCtx = log.WithLogger(runCtx, log.G(runCtx).WithField("task", id))

	output, err := s.invoke(runCtx, aJob.work)
	tracing.EndSpan(span, err)

	s.mux.Lock()
	switch {
	case aJob.cancelRequested && err != nil:
		_ = aJob.task.Cancel()
	case err != nil:
		_ = aJob.task.Fail(err)
	default:
		_ = aJob.task.Complete(output)
	}
	aJob.task.Progress = tracker.Snapshot()
	aJob.cancel = nil
	final := aJob.task.Clone()
	snapshot = s.saveLocked(ctx, aJob)
	s.mux.Unlock()
	defer close(aJob.done)

	entry := log.G(ctx).WithField("task", id).WithField("state", final.State)
	if err != nil && final.State == task.StateFailed {
		entry.WithError(err).Warn("task failed")
	} else {
		entry.Debug("task finished")
	}
	s.metrics.TaskFinished(final.Name, string(final.State), clock.Since(*final.StartedAt), true)
	s.notify(snapshot)
	return nil
}

// invoke calls work.Run and converts a panic into an error
func (s *Service) invoke(ctx context.Context, work *task.Work) (output interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return work.Run(ctx)
}

// Cancel cancels a pending or running task. A running task settles in the
// cancelled state once its work returned.
func (s *Service) Cancel(ctx context.Context, id string) error {
	s.mux.Lock()
	aJob, err := s.lookupLocked(id)
	if err != nil {
		s.mux.Unlock()
		return err
	}
	aTask := aJob.task
	switch {
	case aTask.State.IsTerminal():
		s.mux.Unlock()
		return fmt.Errorf("task %v already %v: %w", id, aTask.State, task.ErrInvalidState)
	case !aTask.Cancellable:
		s.mux.Unlock()
		return fmt.Errorf("task %v: %w", id, task.ErrNotCancellable)
	case aTask.State == task.StateRunning:
		if !aJob.cancelRequested {
			aJob.cancelRequested = true
			aJob.cancel()
		}
		s.mux.Unlock()
		log.G(ctx).WithField("task", id).Debug("task cancellation requested")
		return nil
	}
	if err = aTask.Cancel(); err != nil {
		s.mux.Unlock()
		return err
	}
	snapshot := s.saveLocked(ctx, aJob)
	s.mux.Unlock()
	s.metrics.TaskFinished(snapshot.Name, string(snapshot.State), 0, false)
	s.notify(snapshot)
	close(aJob.done)
	return nil
}

// Task returns a copy of the task
func (s *Service) Task(id string) (*task.Task, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	aJob, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return aJob.task.Clone(), nil
}

// Status returns the task state
func (s *Service) Status(id string) (task.State, error) {
	aTask, err := s.Task(id)
	if err != nil {
		return "", err
	}
	return aTask.Status(), nil
}

// Result returns the task result, see task.Task.Result
func (s *Service) Result(id string) (interface{}, error) {
	aTask, err := s.Task(id)
	if err != nil {
		return nil, err
	}
	return aTask.Result()
}

// Wait blocks until the task reached a terminal state or ctx is done.
func (s *Service) Wait(ctx context.Context, id string) (*task.Task, error) {
	s.mux.Lock()
	aJob, err := s.lookupLocked(id)
	s.mux.Unlock()
	if err != nil {
		return nil, err
	}
	select {
	case <-aJob.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	return aJob.task.Clone(), nil
}

// Tasks lists tasks in creation order
func (s *Service) Tasks(ctx context.Context, parameters ...*dao.Parameter) ([]*task.Task, error) {
	return s.taskDAO.List(ctx, parameters...)
}

// Discard removes a terminal task from the table
func (s *Service) Discard(ctx context.Context, id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	aJob, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	if !aJob.task.State.IsTerminal() {
		return fmt.Errorf("task %v is %v: %w", id, aJob.task.State, task.ErrInvalidState)
	}
	delete(s.jobs, id)
	if err = s.taskDAO.Delete(ctx, id); err != nil && !errors.Is(err, dao.ErrNotFound) {
		return err
	}
	return nil
}

// DeadLetters returns start requests whose task was gone when a worker took
// them. Queues without a dead letter list report none.
func (s *Service) DeadLetters() []task.Ref {
	if queue, ok := s.queue.(interface{ DeadLetters() []task.Ref }); ok {
		return queue.DeadLetters()
	}
	return nil
}

// Owns returns true when the handle was minted by this runner
func (s *Service) Owns(id string) bool {
	return strings.HasPrefix(id, s.prefix)
}

func (s *Service) lookupLocked(id string) (*job, error) {
	if !s.Owns(id) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	aJob, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return aJob, nil
}

// saveLocked mirrors the task into the table and the journal; the caller
// holds s.mux.
func (s *Service) saveLocked(ctx context.Context, aJob *job) *task.Task {
	snapshot := aJob.task.Clone()
	if err := s.taskDAO.Save(ctx, snapshot); err != nil {
		log.G(ctx).WithError(err).WithField("task", snapshot.ID).Warn("failed to save task")
	}
	if s.journal != nil {
		if err := s.journal.Save(ctx, snapshot); err != nil {
			log.G(ctx).WithError(err).WithField("task", snapshot.ID).Warn("failed to journal task")
		}
	}
	return snapshot
}

func (s *Service) notify(snapshot *task.Task) {
	for _, listener := range s.listeners {
		listener(snapshot.Clone())
	}
}
