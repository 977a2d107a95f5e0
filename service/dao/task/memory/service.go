package memory

import (
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/dao"
	"github.com/viant/diskor/service/dao/criteria"
	"github.com/viant/diskor/service/dao/store"
)

// Service implements an in-memory task storage. All operations are
// thread-safe and return copies of the stored tasks; List is ordered by
// task sequence.
type Service struct {
	*store.MemoryStore[string, task.Task]
}

// Compile-time check that Service implements the generic DAO interface.
var _ dao.Service[string, task.Task] = (*Service)(nil)

// New constructor.
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, task.Task](
			func(t *task.Task) string { return t.ID },
			store.WithCloner[string, task.Task]((*task.Task).Clone),
			store.WithOrder[string, task.Task](func(a, b *task.Task) bool { return a.Sequence < b.Sequence }),
			store.WithMatcher[string, task.Task](func(t *task.Task, parameters []*dao.Parameter) bool {
				return criteria.Match(string(t.State), t.Name, parameters)
			}),
		),
	}
}
