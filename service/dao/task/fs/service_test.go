package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/dao"
	"github.com/viant/diskor/service/dao/criteria"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv, err := New(ctx, "mem://localhost/diskor/journal", afs.New())
	require.NoError(t, err)

	reset := task.New("/org/viant/Diskor/Task/abc/1", 1, &task.Work{Name: "Reset storage", Cancellable: true})
	require.NoError(t, reset.Start())
	require.NoError(t, reset.Fail(errors.New("probe failed")))
	write := task.New("/org/viant/Diskor/Task/abc/2", 2, &task.Work{Name: "Write configuration"})

	require.NoError(t, srv.Save(ctx, write))
	require.NoError(t, srv.Save(ctx, reset))
	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)

	loaded, err := srv.Load(ctx, reset.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StateFailed, loaded.State)
	assert.Equal(t, "probe failed", loaded.Error)
	_, err = loaded.Result()
	assert.ErrorContains(t, err, "probe failed")

	list, err := srv.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, reset.ID, list[0].ID)
	assert.Equal(t, write.ID, list[1].ID)

	list, err = srv.List(ctx, dao.NewParameter(criteria.State, string(task.StatePending)))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, write.ID, list[0].ID)

	require.NoError(t, srv.Delete(ctx, write.ID))
	_, err = srv.Load(ctx, write.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, srv.Delete(ctx, write.ID), dao.ErrNotFound)
}
