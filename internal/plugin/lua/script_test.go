package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/rover/internal/event"
)

type fakeHost struct {
	bus      *event.Bus
	notes    []string
	settings map[string]any
	cwd      string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		bus:      event.NewBus(),
		settings: map[string]any{"show_hidden": false},
		cwd:      "/home/user",
	}
}

func (h *fakeHost) Bus() *event.Bus { return h.bus }

func (h *fakeHost) Notify(message string, bad bool) {
	if bad {
		message = "!" + message
	}
	h.notes = append(h.notes, message)
}

func (h *fakeHost) Setting(key string) (any, bool) {
	v, ok := h.settings[key]
	return v, ok
}

func (h *fakeHost) SetSetting(key string, value any) error {
	if _, ok := h.settings[key]; !ok {
		return errors.New("unknown setting")
	}
	h.settings[key] = value
	return nil
}

func (h *fakeHost) Cwd() string { return h.cwd }

func writeScript(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScript_BindAndLifecycle(t *testing.T) {
	host := newFakeHost()
	path := writeScript(t, `
local rover = require("rover")

function install()
	rover.bind("cd", function(sig)
		rover.notify("entered " .. sig.new .. " from " .. rover.cwd())
	end, 0.9)
end

function deactivate()
	rover.notify("bye")
end
`)

	s, err := LoadScript("greeter", path, host, nil)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	defer s.Close()

	if err := s.Install(); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if err := s.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() without hook error = %v", err)
	}
	if s.Bindings() != 1 || host.bus.Count(event.SignalCd) != 1 {
		t.Fatalf("bindings = %d, bus count = %d", s.Bindings(), host.bus.Count(event.SignalCd))
	}
	if b := host.bus.Bindings(event.SignalCd)[0]; b.Priority() != 0.9 {
		t.Errorf("priority = %v, want 0.9", b.Priority())
	}

	host.bus.Emit(event.SignalCd, map[string]any{"previous": "/", "new": "/tmp"})

	if err := s.Deactivate(context.Background()); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if host.bus.Count(event.SignalCd) != 0 {
		t.Error("Deactivate() left bindings on the bus")
	}

	want := []string{"entered /tmp from /home/user", "bye"}
	if diff := cmp.Diff(want, host.notes); diff != "" {
		t.Errorf("notes (-want +got):\n%s", diff)
	}
}

func TestScript_HandlerMutatesAndStops(t *testing.T) {
	host := newFakeHost()
	path := writeScript(t, `
rover.bind("setting.changed", function(sig)
	if sig.key == "sort" then
		sig.value = "mtime"
	end
	if sig.key == "locked" then
		return false
	end
end)
`)

	s, err := LoadScript("sorter", path, host, nil)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	defer s.Close()

	var after []string
	host.bus.RegisterFunc(event.SignalSettingChanged, func(sig *event.Signal) {
		after = append(after, sig.String("key"))
	}, 0)

	sig := host.bus.Emit(event.SignalSettingChanged, map[string]any{"key": "sort", "value": "name", "previous": "size"})
	if got := sig.String("value"); got != "mtime" {
		t.Errorf("value = %q, want mtime", got)
	}
	if _, leaked := sig.Fields["signal"]; leaked {
		t.Error("signal name leaked into fields")
	}
	if sig.String("previous") != "size" {
		t.Errorf("untouched field changed: %v", sig.Get("previous"))
	}

	sig = host.bus.Emit(event.SignalSettingChanged, map[string]any{"key": "locked", "value": true})
	if !sig.Stopped() {
		t.Error("returning false did not stop the signal")
	}
	if diff := cmp.Diff([]string{"sort"}, after); diff != "" {
		t.Errorf("later handler calls (-want +got):\n%s", diff)
	}
}

func TestScript_SignalFieldKept(t *testing.T) {
	host := newFakeHost()
	path := writeScript(t, `
rover.bind("custom", function(sig)
	rover.notify(sig.signal)
end)
rover.bind("other", function(sig)
	rover.notify(sig.signal)
end)
`)

	s, err := LoadScript("fields", path, host, nil)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	defer s.Close()

	sig := host.bus.Emit("custom", map[string]any{"signal": "SIGHUP"})
	if got := sig.String("signal"); got != "SIGHUP" {
		t.Errorf("signal field = %q, want SIGHUP", got)
	}
	sig = host.bus.Emit("other", nil)
	if _, leaked := sig.Fields["signal"]; leaked {
		t.Error("signal name leaked into fields")
	}

	if diff := cmp.Diff([]string{"SIGHUP", "other"}, host.notes); diff != "" {
		t.Errorf("notes (-want +got):\n%s", diff)
	}
}

func TestScript_Settings(t *testing.T) {
	host := newFakeHost()
	path := writeScript(t, `
function install()
	rover.set("show_hidden", not rover.get("show_hidden"))
	missing = rover.get("nope")
end
`)

	s, err := LoadScript("toggler", path, host, nil)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	defer s.Close()

	if err := s.Install(); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if host.settings["show_hidden"] != true {
		t.Errorf("show_hidden = %v, want true", host.settings["show_hidden"])
	}

	if err := s.State().DoString(`rover.set("bogus", 1)`); err == nil {
		t.Error("set of unknown setting did not raise")
	}
}

func TestScript_EmitAndUnbind(t *testing.T) {
	host := newFakeHost()
	path := writeScript(t, `
id = rover.bind("ping", function(sig)
	rover.notify("pong " .. sig.n)
end)

function fire()
	return rover.emit("ping", {n = 3})
end
`)

	s, err := LoadScript("pinger", path, host, nil)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	defer s.Close()

	if _, err := s.State().Call("fire"); err != nil {
		t.Fatalf("Call(fire) error = %v", err)
	}
	if err := s.State().DoString(`rover.unbind(id)`); err != nil {
		t.Fatalf("unbind error = %v", err)
	}
	if host.bus.Count("ping") != 0 || s.Bindings() != 0 {
		t.Error("unbind left the binding in place")
	}

	if diff := cmp.Diff([]string{"pong 3"}, host.notes); diff != "" {
		t.Errorf("notes (-want +got):\n%s", diff)
	}
}

func TestScript_Errors(t *testing.T) {
	host := newFakeHost()

	if _, err := LoadScript("broken", writeScript(t, `this is not lua`), host, nil); err == nil {
		t.Error("LoadScript() accepted invalid lua")
	}

	path := writeScript(t, `
function install() error("nope") end
rover.bind("boom", function() error("handler failed") end)
`)
	s, err := LoadScript("failing", path, host, nil)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	defer s.Close()

	if err := s.Install(); err == nil {
		t.Error("Install() did not surface the lua error")
	}
	if _, err := host.bus.EmitVital("boom", nil); err == nil {
		t.Error("EmitVital() did not surface the handler error")
	}
}
