package event

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dshills/rover/internal/metrics"
)

func record(calls *[]string, tag string) HandlerFunc {
	return func(sig *Signal) (Result, error) {
		*calls = append(*calls, tag)
		return Continue, nil
	}
}

func TestBus_PriorityOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	prios := []float64{0.5, 1, 1, 0, 0.7}
	for i, p := range prios {
		if _, err := bus.Register("test", record(&calls, strconv.Itoa(i)), p); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	bus.Emit("test", nil)

	// equal priorities keep registration order
	want := []string{"1", "2", "4", "0", "3"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestBus_RegisterAfterEmitResorts(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Register("s", record(&calls, "low"), 0.1)
	bus.Emit("s", nil)
	bus.Register("s", record(&calls, "high"), 0.9)

	calls = nil
	bus.Emit("s", nil)
	if diff := cmp.Diff([]string{"high", "low"}, calls); diff != "" {
		t.Errorf("order after late register (-want +got):\n%s", diff)
	}
}

func TestBus_PriorityClamp(t *testing.T) {
	bus := NewBus()

	tests := []struct {
		in   float64
		want float64
	}{
		{-3, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{42, 1},
	}
	for _, tt := range tests {
		b, err := bus.Register("clamp", record(new([]string), "x"), tt.in)
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if b.Priority() != tt.want {
			t.Errorf("priority %v clamped to %v, want %v", tt.in, b.Priority(), tt.want)
		}
	}

	b, _ := bus.RegisterFunc("default", func(*Signal) {})
	if b.Priority() != DefaultPriority {
		t.Errorf("default priority = %v, want %v", b.Priority(), DefaultPriority)
	}
}

func TestBus_EmitUnknownSignal(t *testing.T) {
	m := metrics.New()
	bus := NewBus(WithMetrics(m))

	if sig := bus.Emit("nobody.listens", map[string]any{"a": 1}); sig != nil {
		t.Errorf("Emit() on unknown signal = %v, want nil", sig)
	}
	if sig, err := bus.EmitVital("nobody.listens", nil); sig != nil || err != nil {
		t.Errorf("EmitVital() on unknown signal = %v, %v", sig, err)
	}
	n, err := testutil.GatherAndCount(m.Registry(), "rover_signals_emitted_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("emitted series = %d, want 0", n)
	}
	if len(bus.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", bus.Names())
	}
}

func TestBus_ModifyingFields(t *testing.T) {
	bus := NewBus()

	bus.RegisterFunc("setting", func(sig *Signal) {
		sig.Set("value", sig.Int("value")*2)
	}, 1)
	var seen int
	bus.RegisterFunc("setting", func(sig *Signal) {
		seen = sig.Int("value")
	}, 0)

	fields := map[string]any{"value": 21}
	sig := bus.Emit("setting", fields)

	if seen != 42 {
		t.Errorf("later handler saw %d, want 42", seen)
	}
	if sig.Int("value") != 42 || fields["value"] != 42 {
		t.Errorf("emitter sees %v, want 42", sig.Get("value"))
	}
}

func TestBus_Stop(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Register("s", record(&calls, "first"), 0.9)
	bus.Register("s", HandlerFunc(func(*Signal) (Result, error) {
		calls = append(calls, "stopper")
		return Stop, nil
	}), 0.5)
	bus.Register("s", record(&calls, "never"), 0.1)

	sig := bus.Emit("s", nil)
	if !sig.Stopped() {
		t.Error("Stopped() = false, want true")
	}
	if diff := cmp.Diff([]string{"first", "stopper"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}

	// stop applies to one emission only
	calls = nil
	bus.Emit("s", nil)
	if len(calls) != 2 {
		t.Errorf("second emission calls = %v", calls)
	}
}

func TestBus_NonVitalErrorsAreSkipped(t *testing.T) {
	m := metrics.New()
	bus := NewBus(WithMetrics(m))
	var calls []string

	bus.Register("s", HandlerFunc(func(*Signal) (Result, error) {
		return Continue, errors.New("boom")
	}), 0.9)
	bus.Register("s", HandlerFunc(func(*Signal) (Result, error) {
		panic("kaboom")
	}), 0.8)
	bus.Register("s", record(&calls, "after"), 0.1)

	sig := bus.Emit("s", nil)
	if sig == nil {
		t.Fatal("Emit() returned nil signal")
	}
	if diff := cmp.Diff([]string{"after"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
	summary, err := m.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got := summary["rover_signal_handler_errors_total"]; got != 2 {
		t.Errorf("handler errors = %v, want 2", got)
	}
}

func TestBus_VitalErrorAborts(t *testing.T) {
	bus := NewBus()
	var calls []string
	errInit := errors.New("init failed")

	bus.Register(SignalCoreInit, record(&calls, "first"), 0.9)
	bus.Register(SignalCoreInit, HandlerFunc(func(*Signal) (Result, error) {
		return Continue, errInit
	}), 0.5)
	bus.Register(SignalCoreInit, record(&calls, "never"), 0.1)

	_, err := bus.EmitVital(SignalCoreInit, nil)
	if !errors.Is(err, errInit) {
		t.Fatalf("EmitVital() error = %v, want %v", err, errInit)
	}
	var herr *HandlerError
	if !errors.As(err, &herr) || herr.Signal != SignalCoreInit {
		t.Errorf("error %v is not a HandlerError for %s", err, SignalCoreInit)
	}
	if diff := cmp.Diff([]string{"first"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestBus_VitalPanicIsReturned(t *testing.T) {
	bus := NewBus()
	bus.Register("v", HandlerFunc(func(*Signal) (Result, error) {
		panic("bad plugin")
	}))

	_, err := bus.EmitVital("v", nil)
	if !errors.Is(err, ErrHandlerPanic) {
		t.Fatalf("EmitVital() error = %v, want ErrHandlerPanic", err)
	}
}

func TestBus_DebugRepanics(t *testing.T) {
	t.Run("panic", func(t *testing.T) {
		bus := NewBus(WithDebug(true))
		bus.Register("s", HandlerFunc(func(*Signal) (Result, error) {
			panic("loud")
		}))
		defer func() {
			if r := recover(); r != "loud" {
				t.Errorf("recovered %v, want loud", r)
			}
		}()
		bus.Emit("s", nil)
		t.Error("Emit() did not panic in debug mode")
	})

	t.Run("error", func(t *testing.T) {
		bus := NewBus(WithDebug(true))
		boom := errors.New("boom")
		bus.Register("s", HandlerFunc(func(*Signal) (Result, error) {
			return Continue, boom
		}))
		defer func() {
			err, ok := recover().(error)
			if !ok || !errors.Is(err, boom) {
				t.Errorf("recovered %v, want wrapped boom", err)
			}
		}()
		bus.Emit("s", nil)
		t.Error("Emit() did not panic in debug mode")
	})
}

func TestBus_Unbind(t *testing.T) {
	bus := NewBus()
	var calls []string

	a, _ := bus.Register("s", record(&calls, "a"))
	bus.Register("s", record(&calls, "b"))

	bus.Unbind(a)
	bus.Unbind(a)
	bus.Unbind(nil)

	if a.Active() {
		t.Error("Active() = true after Unbind")
	}
	if bus.Count("s") != 1 {
		t.Errorf("Count() = %d, want 1", bus.Count("s"))
	}
	bus.Emit("s", nil)
	if diff := cmp.Diff([]string{"b"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestBus_UnbindDuringEmit(t *testing.T) {
	bus := NewBus()
	var calls []string
	var later *Binding

	bus.RegisterFunc("s", func(*Signal) {
		calls = append(calls, "first")
		bus.Unbind(later)
	}, 1)
	later, _ = bus.Register("s", record(&calls, "later"), 0)

	bus.Emit("s", nil)
	if diff := cmp.Diff([]string{"first"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestBus_RegisterErrors(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Register("", record(new([]string), "x")); !errors.Is(err, ErrInvalidSignal) {
		t.Errorf("Register(\"\") error = %v, want ErrInvalidSignal", err)
	}
	if _, err := bus.Register("s", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Register(nil) error = %v, want ErrNilHandler", err)
	}
	if _, err := bus.RegisterFunc("s", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("RegisterFunc(nil) error = %v, want ErrNilHandler", err)
	}
}

func TestBus_Introspection(t *testing.T) {
	n := 0
	bus := NewBus(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}))

	bus.RegisterFunc(SignalLoopEnd, func(*Signal) {}, 0.2)
	bus.RegisterFunc(SignalCd, func(*Signal) {})
	bus.RegisterFunc(SignalLoopEnd, func(*Signal) {}, 0.8)

	if diff := cmp.Diff([]string{SignalCd, SignalLoopEnd}, bus.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}

	var ids []string
	for _, b := range bus.Bindings(SignalLoopEnd) {
		ids = append(ids, b.ID())
	}
	if diff := cmp.Diff([]string{"b3", "b1"}, ids); diff != "" {
		t.Errorf("Bindings() (-want +got):\n%s", diff)
	}

	bus.Clear()
	if bus.Count(SignalCd) != 0 || len(bus.Names()) != 0 {
		t.Error("Clear() left bindings behind")
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		b, _ := bus.RegisterFunc("s", func(*Signal) {})
		if seen[b.ID()] {
			t.Fatalf("duplicate binding ID %s", b.ID())
		}
		seen[b.ID()] = true
	}
}

func TestResult_String(t *testing.T) {
	if Continue.String() != "continue" || Stop.String() != "stop" {
		t.Errorf("unexpected names %s %s", Continue, Stop)
	}
	if Result(9).String() != "Result(9)" {
		t.Errorf("unknown result = %s", Result(9))
	}
}
