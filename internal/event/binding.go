package event

import (
	"math"
	"sort"
)

// DefaultPriority is used when Register is given no priority.
const DefaultPriority = 0.5

// Binding is the handle returned by Register. It identifies one handler
// bound to one signal name.
type Binding struct {
	id       string
	signal   string
	handler  Handler
	priority float64
	seq      uint64
	active   bool
}

// ID returns the unique binding ID.
func (b *Binding) ID() string { return b.id }

// Signal returns the signal name the binding listens to.
func (b *Binding) Signal() string { return b.signal }

// Priority returns the clamped priority.
func (b *Binding) Priority() float64 { return b.priority }

// Active reports whether the binding is still registered.
func (b *Binding) Active() bool { return b.active }

// ClampPriority forces p into [0, 1]. NaN becomes DefaultPriority.
func ClampPriority(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return DefaultPriority
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// bindingList holds the bindings of one signal. The order is recomputed
// lazily after a registration.
type bindingList struct {
	bindings []*Binding
	sorted   bool
}

func (l *bindingList) add(b *Binding) {
	l.bindings = append(l.bindings, b)
	l.sorted = false
}

func (l *bindingList) remove(b *Binding) bool {
	for i, other := range l.bindings {
		if other == b {
			l.bindings = append(l.bindings[:i], l.bindings[i+1:]...)
			return true
		}
	}
	return false
}

// ordered returns the bindings sorted by descending priority, ties by
// registration sequence.
func (l *bindingList) ordered() []*Binding {
	if !l.sorted {
		sortBindings(l.bindings)
		l.sorted = true
	}
	return l.bindings
}

func sortBindings(bs []*Binding) {
	sort.Slice(bs, func(i, j int) bool {
		return before(bs[i], bs[j])
	})
}

func before(a, b *Binding) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}
