// Package runner executes tasks on a pool of workers fed by a message queue.
// Each task runs exactly once; its state, progress and outcome stay in the
// runner table until discarded.
package runner
