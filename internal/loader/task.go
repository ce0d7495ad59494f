package loader

import "fmt"

// StepResult reports the progress of one task step.
type StepResult int

const (
	// More means the task has work left.
	More StepResult = iota
	// Done means the task finished.
	Done
)

// String returns the result name.
func (r StepResult) String() string {
	switch r {
	case More:
		return "more"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// Task is a unit of resumable background work. Step performs a bounded
// slice of it; a non-nil error fails the task.
type Task interface {
	Description() string
	Step() (StepResult, error)
}

// Unloader is implemented by tasks that release resources when removed
// from the queue before finishing.
type Unloader interface {
	Unload()
}

// FuncTask is a Task backed by a step closure.
type FuncTask struct {
	desc string
	step func() (StepResult, error)
}

// NewFuncTask creates a task that calls step until it reports Done or
// fails.
func NewFuncTask(desc string, step func() (StepResult, error)) *FuncTask {
	return &FuncTask{desc: desc, step: step}
}

// Description implements Task.
func (t *FuncTask) Description() string { return t.desc }

// Step implements Task.
func (t *FuncTask) Step() (StepResult, error) { return t.step() }

// StepsTask runs a fixed list of closures, one per step.
type StepsTask struct {
	desc  string
	steps []func() error
	next  int
}

// Steps creates a task running each closure in its own step.
func Steps(desc string, steps ...func() error) *StepsTask {
	return &StepsTask{desc: desc, steps: steps}
}

// Description implements Task.
func (t *StepsTask) Description() string { return t.desc }

// Step implements Task.
func (t *StepsTask) Step() (StepResult, error) {
	if t.next >= len(t.steps) {
		return Done, nil
	}
	fn := t.steps[t.next]
	t.next++
	if err := fn(); err != nil {
		return Done, err
	}
	if t.next >= len(t.steps) {
		return Done, nil
	}
	return More, nil
}

// Remaining returns the number of steps not yet run.
func (t *StepsTask) Remaining() int {
	return len(t.steps) - t.next
}
