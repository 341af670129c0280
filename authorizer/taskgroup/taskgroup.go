package taskgroup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LerianStudio/lib-authorizer/authorizer/runtime"
)

// ErrPanicRecovered is returned when a task panics.
var ErrPanicRecovered = errors.New("taskgroup: panic recovered")

// Outcome is the terminal state of a task.
type Outcome uint8

const (
	// OutcomeSucceeded is a task that returned nil.
	OutcomeSucceeded Outcome = iota + 1
	// OutcomeFailed is a task whose error caused, or could have caused, the
	// group to cancel.
	OutcomeFailed
	// OutcomeCancelled is a task that stopped with a context error after the
	// group was cancelled.
	OutcomeCancelled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is the record of one finished task.
type Task struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Group is a fail-fast scope. Use WithContext to create one; the zero value
// is not usable.
type Group struct {
	name   string
	ctx    context.Context
	cancel context.CancelCauseFunc
	panics *runtime.PanicHandler

	wg    sync.WaitGroup
	mu    sync.Mutex
	err   error
	tasks []Task
}

// Option configures a Group.
type Option func(*Group)

// WithName labels the group in panic logs and metrics.
func WithName(name string) Option {
	return func(grp *Group) {
		grp.name = name
	}
}

// WithPanicHandler reports recovered panics through h.
func WithPanicHandler(h *runtime.PanicHandler) Option {
	return func(grp *Group) {
		grp.panics = h
	}
}

// WithContext returns a Group and the context its tasks run under. The
// context is cancelled when a task fails, when parent is cancelled, or when
// Wait returns.
func WithContext(parent context.Context, opts ...Option) (*Group, context.Context) {
	ctx, cancel := context.WithCancelCause(parent)

	grp := &Group{name: "taskgroup", ctx: ctx, cancel: cancel}
	for _, opt := range opts {
		opt(grp)
	}

	return grp, ctx
}

// Go runs fn on a new goroutine with the group context. A non-nil error
// from fn fails the group, unless it is the context error of a group that
// was already cancelled, in which case the task counts as cancelled.
// Go must not be called after Wait.
func (grp *Group) Go(name string, fn func(ctx context.Context) error) {
	grp.wg.Add(1)

	go func() {
		defer grp.wg.Done()

		grp.finish(name, grp.run(name, fn))
	}()
}

func (grp *Group) run(name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			grp.panics.Handle(grp.ctx, recovered, grp.name, name)

			err = fmt.Errorf("%w: %s: %v", ErrPanicRecovered, name, recovered)
		}
	}()

	return fn(grp.ctx)
}

func (grp *Group) finish(name string, err error) {
	outcome := classify(grp.ctx, err)

	grp.mu.Lock()
	defer grp.mu.Unlock()

	grp.tasks = append(grp.tasks, Task{Name: name, Outcome: outcome, Err: err})

	if outcome == OutcomeFailed && grp.err == nil {
		grp.err = err
		grp.cancel(err)
	}
}

func classify(ctx context.Context, err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// Wait blocks until every task has finished and returns the first failure.
// When no task failed but some were cancelled from outside, the returned
// error matches the context error and wraps the outside cause.
func (grp *Group) Wait() error {
	grp.wg.Wait()

	grp.mu.Lock()
	err := grp.err
	cancelled := false

	for _, task := range grp.tasks {
		if task.Outcome == OutcomeCancelled {
			cancelled = true
			break
		}
	}
	grp.mu.Unlock()

	if err == nil && cancelled {
		err = cancellation(grp.ctx)
	}

	grp.cancel(nil)

	return err
}

// cancellation reports an outside cancellation so that it still matches
// context.Canceled while carrying the cause set by an enclosing group.
func cancellation(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, ctx.Err()) {
		return ctx.Err()
	}

	return fmt.Errorf("%w: %w", ctx.Err(), cause)
}

// Tasks returns the finished tasks in completion order. It is complete only
// after Wait has returned.
func (grp *Group) Tasks() []Task {
	grp.mu.Lock()
	defer grp.mu.Unlock()

	return append([]Task(nil), grp.tasks...)
}

// Outcome returns the outcome of the named task, or false if no finished
// task carries that name.
func (grp *Group) Outcome(name string) (Outcome, bool) {
	grp.mu.Lock()
	defer grp.mu.Unlock()

	for _, task := range grp.tasks {
		if task.Name == name {
			return task.Outcome, true
		}
	}

	return 0, false
}
