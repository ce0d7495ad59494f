package event

import "fmt"

// Result tells the bus whether to keep propagating a signal.
type Result int

const (
	// Continue passes the signal on to the next binding.
	Continue Result = iota
	// Stop halts propagation for this emission.
	Stop
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Handler processes an emitted signal.
type Handler interface {
	Handle(sig *Signal) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(sig *Signal) (Result, error)

// Handle calls f(sig).
func (f HandlerFunc) Handle(sig *Signal) (Result, error) {
	return f(sig)
}

// Signal is a single emission. Fields are shared by all handlers of the
// emission and by the emitter.
type Signal struct {
	Name   string
	Fields map[string]any

	stopped bool
}

// NewSignal creates a signal carrying fields. A nil map is replaced by an
// empty one.
func NewSignal(name string, fields map[string]any) *Signal {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Signal{Name: name, Fields: fields}
}

// Get returns the field value for key, or nil.
func (s *Signal) Get(key string) any {
	if s == nil {
		return nil
	}
	return s.Fields[key]
}

// Set assigns a field.
func (s *Signal) Set(key string, value any) {
	s.Fields[key] = value
}

// String returns the field as a string, or "" if absent or not a string.
func (s *Signal) String(key string) string {
	v, _ := s.Get(key).(string)
	return v
}

// Bool returns the field as a bool, or false if absent or not a bool.
func (s *Signal) Bool(key string) bool {
	v, _ := s.Get(key).(bool)
	return v
}

// Int returns the field as an int, or 0 if absent or not an int.
func (s *Signal) Int(key string) int {
	v, _ := s.Get(key).(int)
	return v
}

// Stopped reports whether a handler halted propagation.
func (s *Signal) Stopped() bool {
	return s != nil && s.stopped
}
