package ui

import "time"

// Null is a Frontend that records frames and replays queued input. Poll
// never sleeps.
type Null struct {
	inputs []Input
	frames []View
	title  string
	inited bool
	closed bool

	// OnPoll runs at the start of every Poll, before the queue is read.
	OnPoll func()
}

// NewNull creates an empty Null frontend.
func NewNull() *Null {
	return &Null{}
}

// Ensure Null implements Frontend.
var _ Frontend = (*Null)(nil)

// Push queues inputs for Poll.
func (n *Null) Push(inputs ...Input) {
	n.inputs = append(n.inputs, inputs...)
}

// Type queues the runes of s followed by Enter.
func (n *Null) Type(s string) {
	for _, r := range s {
		n.inputs = append(n.inputs, RuneInput(r))
	}
	n.inputs = append(n.inputs, KeyInput(KeyEnter))
}

// Init implements Frontend.
func (n *Null) Init() error {
	n.inited = true
	return nil
}

// Close implements Frontend.
func (n *Null) Close() {
	n.closed = true
}

// Draw implements Frontend.
func (n *Null) Draw(v View) {
	n.frames = append(n.frames, v)
}

// Poll implements Frontend.
func (n *Null) Poll(time.Duration) (Input, bool) {
	if n.OnPoll != nil {
		n.OnPoll()
	}
	if len(n.inputs) == 0 {
		return Input{}, false
	}
	in := n.inputs[0]
	n.inputs = n.inputs[1:]
	return in, true
}

// SetTitle implements Frontend.
func (n *Null) SetTitle(title string) {
	n.title = title
}

// Frames returns the number of frames drawn.
func (n *Null) Frames() int { return len(n.frames) }

// Last returns the most recent frame.
func (n *Null) Last() View {
	if len(n.frames) == 0 {
		return View{}
	}
	return n.frames[len(n.frames)-1]
}

// Title returns the last title set.
func (n *Null) Title() string { return n.title }

// Pending returns the number of queued inputs.
func (n *Null) Pending() int { return len(n.inputs) }

// Inited reports whether Init was called.
func (n *Null) Inited() bool { return n.inited }

// Closed reports whether Close was called.
func (n *Null) Closed() bool { return n.closed }
