package event

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
)

// Bus dispatches signals to prioritized bindings.
type Bus struct {
	signals map[string]*bindingList
	seq     uint64

	log     *slog.Logger
	metrics *metrics.Metrics
	debug   bool
	newID   func() string
}

// NewBus creates a new signal bus with the given options.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		signals: make(map[string]*bindingList),
		log:     logging.Component(nil, "event"),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register binds h to the signal name. The optional priority defaults to
// DefaultPriority and is clamped into [0, 1]; higher runs earlier.
func (b *Bus) Register(name string, h Handler, priority ...float64) (*Binding, error) {
	if name == "" {
		return nil, ErrInvalidSignal
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	prio := DefaultPriority
	if len(priority) > 0 {
		prio = priority[0]
	}

	b.seq++
	binding := &Binding{
		id:       b.newID(),
		signal:   name,
		handler:  h,
		priority: ClampPriority(prio),
		seq:      b.seq,
		active:   true,
	}

	list := b.signals[name]
	if list == nil {
		list = &bindingList{}
		b.signals[name] = list
	}
	list.add(binding)
	return binding, nil
}

// RegisterFunc binds a handler that never stops propagation or fails.
func (b *Bus) RegisterFunc(name string, fn func(sig *Signal), priority ...float64) (*Binding, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Register(name, HandlerFunc(func(sig *Signal) (Result, error) {
		fn(sig)
		return Continue, nil
	}), priority...)
}

// Unbind removes a binding. Removing an already removed binding is a no-op.
func (b *Bus) Unbind(binding *Binding) {
	if binding == nil || !binding.active {
		return
	}
	binding.active = false

	list := b.signals[binding.signal]
	if list == nil {
		return
	}
	list.remove(binding)
	if len(list.bindings) == 0 {
		delete(b.signals, binding.signal)
	}
}

// Emit calls every binding of name. Handler failures are logged and
// skipped. It returns nil, without side effects, when nothing is bound.
func (b *Bus) Emit(name string, fields map[string]any) *Signal {
	sig, _ := b.emit(name, fields, false)
	return sig
}

// EmitVital is Emit for signals whose handlers must succeed: the first
// handler error aborts propagation and is returned.
func (b *Bus) EmitVital(name string, fields map[string]any) (*Signal, error) {
	return b.emit(name, fields, true)
}

func (b *Bus) emit(name string, fields map[string]any, vital bool) (*Signal, error) {
	list := b.signals[name]
	if list == nil || len(list.bindings) == 0 {
		return nil, nil
	}

	// Handlers may bind or unbind while we iterate.
	ordered := list.ordered()
	snapshot := make([]*Binding, len(ordered))
	copy(snapshot, ordered)

	sig := NewSignal(name, fields)
	b.metrics.SignalEmitted(name)

	for _, binding := range snapshot {
		if !binding.active {
			continue
		}

		result, err := b.invoke(binding, sig)
		if err != nil {
			b.metrics.HandlerFailed(name)
			if vital {
				return sig, err
			}
			if b.debug {
				panic(err)
			}
			b.log.Error("signal handler failed", "signal", name, "binding", binding.id, "err", err)
			continue
		}

		if result == Stop {
			sig.stopped = true
			b.metrics.SignalStopped(name)
			break
		}
	}
	return sig, nil
}

func (b *Bus) invoke(binding *Binding, sig *Signal) (result Result, err error) {
	b.metrics.HandlerCalled(sig.Name)

	if !b.debug {
		defer func() {
			if r := recover(); r != nil {
				result = Continue
				err = &HandlerError{
					BindingID: binding.id,
					Signal:    sig.Name,
					Err:       &PanicError{Value: r, Stack: string(debug.Stack())},
				}
			}
		}()
	}

	result, err = binding.handler.Handle(sig)
	if err != nil {
		return Continue, &HandlerError{BindingID: binding.id, Signal: sig.Name, Err: err}
	}
	return result, nil
}

// Count returns the number of bindings for name.
func (b *Bus) Count(name string) int {
	if list := b.signals[name]; list != nil {
		return len(list.bindings)
	}
	return 0
}

// Names returns every signal name with at least one binding, sorted.
func (b *Bus) Names() []string {
	names := make([]string, 0, len(b.signals))
	for name := range b.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bindings returns the bindings of name in dispatch order.
func (b *Bus) Bindings(name string) []*Binding {
	list := b.signals[name]
	if list == nil {
		return nil
	}
	ordered := list.ordered()
	out := make([]*Binding, len(ordered))
	copy(out, ordered)
	return out
}

// Clear removes every binding.
func (b *Bus) Clear() {
	for _, list := range b.signals {
		for _, binding := range list.bindings {
			binding.active = false
		}
	}
	b.signals = make(map[string]*bindingList)
}

// String describes the bus for debug output.
func (b *Bus) String() string {
	return fmt.Sprintf("event.Bus{signals: %d}", len(b.signals))
}
