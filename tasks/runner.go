// Package tasks provides the default implementation of the "submit
// parallel tasks and await" capability the cluster controller consumes as
// an external task framework (spec §6). Grounded on the teacher's
// pkg/scheduler/optimized_scheduler_utils.go ParallelNodeFilter: a bounded
// goroutine worker pool guarded by a semaphore channel.
package tasks

import (
	"context"
	"runtime"
)

// Task is a handle to a submitted unit of work.
type Task struct {
	name        string
	inessential bool
	done        chan struct{}
	err         error
}

// Name returns the task's human-readable label.
func (t *Task) Name() string { return t.name }

// MarkInessential tags the task so its failure does not fail an enclosing
// batch; ParallelStarter uses this to mark every member start/stop task.
func (t *Task) MarkInessential() *Task {
	t.inessential = true
	return t
}

// Inessential reports whether MarkInessential was called.
func (t *Task) Inessential() bool { return t.inessential }

// Wait blocks until the task finishes or ctx is done, returning the task's
// error (nil on success) or ctx.Err().
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runner is the task-framework contract the controller consumes: submit a
// unit of work and obtain a handle, then await a batch of handles.
type Runner interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) *Task
	AwaitAll(ctx context.Context, tasks []*Task) []error
}

// WorkerPoolRunner is a bounded goroutine worker pool implementation of
// Runner.
type WorkerPoolRunner struct {
	sem chan struct{}
}

// NewWorkerPoolRunner builds a runner bounded to workers concurrent tasks.
// workers <= 0 defaults to runtime.NumCPU() * 2.
func NewWorkerPoolRunner(workers int) *WorkerPoolRunner {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	return &WorkerPoolRunner{sem: make(chan struct{}, workers)}
}

// Submit schedules fn to run asynchronously, subject to the pool's
// concurrency bound, and returns a handle.
func (r *WorkerPoolRunner) Submit(ctx context.Context, name string, fn func(context.Context) error) *Task {
	t := &Task{name: name, done: make(chan struct{})}
	go func() {
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			t.err = ctx.Err()
			close(t.done)
			return
		}
		t.err = fn(ctx)
		close(t.done)
	}()
	return t
}

// AwaitAll blocks until every task has finished, returning per-task errors
// index-aligned with the input slice.
func (r *WorkerPoolRunner) AwaitAll(ctx context.Context, batch []*Task) []error {
	errs := make([]error, len(batch))
	for i, t := range batch {
		errs[i] = t.Wait(ctx)
	}
	return errs
}
