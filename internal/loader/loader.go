// Package loader schedules background work cooperatively on the runtime
// goroutine.
//
// Tasks wait in a double-ended queue. Each Work call rotates the throbber
// and steps the front task until it finishes, fails, or the time budget
// runs out, in which case it resumes on the next call.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
)

// DefaultBudget is the work time granted per Work call.
const DefaultBudget = 50 * time.Millisecond

// ErrInvalidMove is returned by Move for destinations other than the
// front (0) or back (-1).
var ErrInvalidMove = errors.New("loader: tasks can only move to the front or back")

// ErrTaskPanic is matched by errors recovered from a panicking task.
var ErrTaskPanic = errors.New("loader: task panicked")

// PanicError wraps a value recovered from a panicking Step.
type PanicError struct {
	Task  string
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %v", e.Task, e.Value)
}

// Unwrap lets errors.Is match ErrTaskPanic.
func (e *PanicError) Unwrap() error {
	return ErrTaskPanic
}

// throbber frames shown while work is pending.
var throbber = [...]string{"/", "-", "\\", "|"}

// Notifier receives task failures.
type Notifier func(task Task, err error)

// Loader is the cooperative task scheduler. It is not safe for
// concurrent use.
type Loader struct {
	queue   []Task
	budget  time.Duration
	now     func() time.Time
	notify  Notifier
	log     *slog.Logger
	metrics *metrics.Metrics

	debug   bool
	frame   int
	paused  bool
	current Task
}

// Option configures a Loader.
type Option func(*Loader)

// WithBudget sets the default work budget.
func WithBudget(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.budget = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// WithNotifier sets the failure callback.
func WithNotifier(n Notifier) Option {
	return func(l *Loader) {
		l.notify = n
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) {
		l.log = logging.Component(log, "loader")
	}
}

// WithMetrics records steps and outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// WithDebug lets task panics propagate instead of failing the task.
func WithDebug(debug bool) Option {
	return func(l *Loader) {
		l.debug = debug
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		budget: DefaultBudget,
		now:    time.Now,
		log:    logging.Component(nil, "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add queues t at the front. Any queued task that is t, or that has the
// same description, is dropped first without being unloaded.
func (l *Loader) Add(t Task) {
	if t == nil {
		return
	}
	desc := t.Description()
	kept := l.queue[:0]
	for _, queued := range l.queue {
		if sameTask(queued, t) || queued.Description() == desc {
			continue
		}
		kept = append(kept, queued)
	}
	// clear the tail so dropped tasks can be collected
	for i := len(kept); i < len(l.queue); i++ {
		l.queue[i] = nil
	}
	l.queue = append([]Task{t}, kept...)
	l.metrics.SetQueueLength(len(l.queue))
}

// Remove unloads and drops t. It reports whether t was queued.
func (l *Loader) Remove(t Task) bool {
	for i, queued := range l.queue {
		if sameTask(queued, t) {
			return l.RemoveAt(i)
		}
	}
	return false
}

// Cancel unloads and drops every queued task described as desc. It
// returns the number removed.
func (l *Loader) Cancel(desc string) int {
	removed := 0
	for i := len(l.queue) - 1; i >= 0; i-- {
		if l.queue[i].Description() == desc && l.RemoveAt(i) {
			removed++
		}
	}
	return removed
}

// RemoveAt unloads and drops the task at index. Out of range is a no-op.
func (l *Loader) RemoveAt(index int) bool {
	if index < 0 || index >= len(l.queue) {
		return false
	}
	t := l.queue[index]
	if u, ok := t.(Unloader); ok {
		u.Unload()
	}
	l.queue = append(l.queue[:index], l.queue[index+1:]...)
	l.metrics.SetQueueLength(len(l.queue))
	return true
}

// Move relocates the task at from to the front (to == 0) or the back
// (to == -1). An out of range from is a no-op.
func (l *Loader) Move(from, to int) error {
	if to != 0 && to != -1 {
		return fmt.Errorf("%w: %d", ErrInvalidMove, to)
	}
	if from < 0 || from >= len(l.queue) {
		return nil
	}
	t := l.queue[from]
	l.queue = append(l.queue[:from], l.queue[from+1:]...)
	if to == 0 {
		l.queue = append([]Task{t}, l.queue...)
	} else {
		l.queue = append(l.queue, t)
	}
	return nil
}

// Work runs the front task for up to the configured budget.
func (l *Loader) Work() {
	l.WorkFor(l.budget)
}

// WorkFor runs the front task until it finishes, fails, or budget
// elapses. At least one step runs. A finished or failed task is dropped
// and the call returns; the next task starts on the next call.
func (l *Loader) WorkFor(budget time.Duration) {
	if l.paused || len(l.queue) == 0 {
		return
	}

	l.frame = (l.frame + 1) % len(throbber)

	task := l.queue[0]
	if !sameTask(task, l.current) {
		l.current = task
		l.log.Debug("working", "task", task.Description(), "queued", len(l.queue))
	}

	deadline := l.now().Add(budget)
	for {
		result, err := l.step(task)
		l.metrics.LoaderStep()

		if err != nil {
			l.drop(task)
			l.metrics.TaskFailed()
			l.log.Warn("task failed", "task", task.Description(), "err", err)
			if l.notify != nil {
				l.notify(task, err)
			}
			return
		}
		if result == Done {
			l.drop(task)
			l.metrics.TaskCompleted()
			return
		}
		if !l.now().Before(deadline) {
			return
		}
	}
}

// step runs one step of t, turning a panic into a *PanicError unless
// the loader is in debug mode.
func (l *Loader) step(t Task) (result StepResult, err error) {
	if !l.debug {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Task: t.Description(), Value: r, Stack: string(debug.Stack())}
			}
		}()
	}
	return t.Step()
}

// drop removes a finished task without unloading it. The task may have
// reordered the queue while stepping, so it is looked up by identity.
func (l *Loader) drop(t Task) {
	for i, queued := range l.queue {
		if sameTask(queued, t) {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	if sameTask(l.current, t) {
		l.current = nil
	}
	l.metrics.SetQueueLength(len(l.queue))
}

// HasWork reports whether tasks are queued.
func (l *Loader) HasWork() bool { return len(l.queue) > 0 }

// Len returns the number of queued tasks.
func (l *Loader) Len() int { return len(l.queue) }

// Tasks returns the queue, front first.
func (l *Loader) Tasks() []Task {
	out := make([]Task, len(l.queue))
	copy(out, l.queue)
	return out
}

// Status returns the current throbber frame.
func (l *Loader) Status() string {
	return throbber[l.frame]
}

// Pause makes Work a no-op until Resume.
func (l *Loader) Pause() { l.paused = true }

// Resume reverts Pause.
func (l *Loader) Resume() { l.paused = false }

// Paused reports whether the loader is paused.
func (l *Loader) Paused() bool { return l.paused }

// Destroy unloads and drops every queued task.
func (l *Loader) Destroy() {
	for _, t := range l.queue {
		if u, ok := t.(Unloader); ok {
			u.Unload()
		}
	}
	l.queue = nil
	l.current = nil
	l.metrics.SetQueueLength(0)
}

// sameTask compares tasks by identity without panicking on incomparable
// dynamic types.
func sameTask(a, b Task) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
