// Package progress defines primitives for reporting the progress of
// long-running tasks executed by the diskor runner. Work units report steps
// through the context; the runner copies every update onto the task snapshot
// so that callers polling a task observe it without extra plumbing.
package progress
