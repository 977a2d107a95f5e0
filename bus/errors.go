package bus

import (
	"errors"

	"github.com/containerd/errdefs"
	"github.com/godbus/dbus/v5"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/storage"
)

type errorName struct {
	target error
	name   string
}

var errorNames = []errorName{
	{target: partitioning.ErrInvalidMethod, name: "InvalidMethod"},
	{target: storage.ErrNoAppliedPlan, name: "NoAppliedPlan"},
	{target: task.ErrNotCancellable, name: "NotCancellable"},
	{target: task.ErrInvalidState, name: "InvalidState"},
	{target: task.ErrNotReady, name: "NotReady"},
	{target: task.ErrCancelled, name: "Cancelled"},
}

// ErrorName returns the D-Bus error name of err
func ErrorName(err error) string {
	for _, candidate := range errorNames {
		if errors.Is(err, candidate.target) {
			return ErrorPrefix + candidate.name
		}
	}
	switch {
	case errdefs.IsNotFound(err):
		return ErrorPrefix + "NotFound"
	case errdefs.IsUnavailable(err):
		return ErrorPrefix + "IOError"
	case errdefs.IsInvalidArgument(err):
		return ErrorPrefix + "InvalidArgument"
	}
	return ErrorPrefix + "Failed"
}

// Error converts err into a D-Bus error, nil stays nil
func Error(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.NewError(ErrorName(err), []interface{}{err.Error()})
}
