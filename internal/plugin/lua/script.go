package lua

import (
	"context"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/logging"
)

// ModuleName is the name scripts require to reach the runtime.
const ModuleName = "rover"

// Hook names a script may define as globals.
const (
	HookInstall    = "install"
	HookActivate   = "activate"
	HookDeactivate = "deactivate"
)

// Host is the slice of the runtime a script can reach.
type Host interface {
	Bus() *event.Bus
	Notify(message string, bad bool)
	Setting(key string) (any, bool)
	SetSetting(key string, value any) error
	Cwd() string
}

// Script is a loaded script plugin.
type Script struct {
	name   string
	path   string
	host   Host
	state  *State
	bridge *Bridge
	log    *slog.Logger

	bindings []*event.Binding
}

// LoadScript creates a state for the plugin name, exposes the rover
// module and runs the entry script at path.
func LoadScript(name, path string, host Host, log *slog.Logger, opts ...StateOption) (*Script, error) {
	state := NewState(opts...)
	s := &Script{
		name:   name,
		path:   path,
		host:   host,
		state:  state,
		bridge: NewBridge(state.L),
		log:    logging.Component(log, "lua").With("plugin", name),
	}
	state.PreloadModule(ModuleName, s.moduleFuncs())

	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// Name returns the plugin name.
func (s *Script) Name() string { return s.name }

// Path returns the entry script path.
func (s *Script) Path() string { return s.path }

// State returns the underlying state.
func (s *Script) State() *State { return s.state }

// Bindings returns the number of live bindings made by the script.
func (s *Script) Bindings() int { return len(s.bindings) }

// Install runs the script's install global, if any.
func (s *Script) Install() error {
	return s.callHook(HookInstall)
}

// Activate runs the script's activate global, if any.
func (s *Script) Activate(context.Context) error {
	return s.callHook(HookActivate)
}

// Deactivate runs the script's deactivate global, if any, then removes
// every binding the script made.
func (s *Script) Deactivate(context.Context) error {
	err := s.callHook(HookDeactivate)
	s.UnbindAll()
	return err
}

// UnbindAll removes the script's bindings from the bus.
func (s *Script) UnbindAll() {
	for _, b := range s.bindings {
		s.host.Bus().Unbind(b)
	}
	s.bindings = nil
}

// Close unbinds the script and releases its state.
func (s *Script) Close() {
	s.UnbindAll()
	s.state.Close()
}

func (s *Script) callHook(name string) error {
	if !s.state.HasFunction(name) {
		return nil
	}
	if _, err := s.state.Call(name); err != nil {
		return fmt.Errorf("%s.%s: %w", s.name, name, err)
	}
	return nil
}

func (s *Script) moduleFuncs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"bind":   s.luaBind,
		"unbind": s.luaUnbind,
		"emit":   s.luaEmit,
		"notify": s.luaNotify,
		"get":    s.luaGet,
		"set":    s.luaSet,
		"cwd":    s.luaCwd,
	}
}

// rover.bind(signal, fn [, priority]) -> binding id
func (s *Script) luaBind(L *lua.LState) int {
	signal := L.CheckString(1)
	fn := L.CheckFunction(2)
	prio := float64(L.OptNumber(3, lua.LNumber(event.DefaultPriority)))

	binding, err := s.host.Bus().Register(signal, event.HandlerFunc(func(sig *event.Signal) (event.Result, error) {
		return s.dispatch(fn, sig)
	}), prio)
	if err != nil {
		L.RaiseError("bind %s: %v", signal, err)
		return 0
	}
	s.bindings = append(s.bindings, binding)
	L.Push(lua.LString(binding.ID()))
	return 1
}

// dispatch runs a Lua handler with the signal fields as a table.
func (s *Script) dispatch(fn *lua.LFunction, sig *event.Signal) (event.Result, error) {
	table, snapshot := s.bridge.FieldsToTable(sig.Fields)
	// An emitted "signal" field takes precedence over the signal name.
	_, named := sig.Fields["signal"]
	if !named {
		table.RawSetString("signal", lua.LString(sig.Name))
		snapshot["signal"] = lua.LString(sig.Name)
	}

	results, err := s.state.CallValue(fn, table)
	if err != nil {
		return event.Continue, fmt.Errorf("%s: %w", s.name, err)
	}
	s.bridge.ApplyChanges(table, snapshot, sig.Fields)
	if !named {
		delete(sig.Fields, "signal")
	}

	if len(results) > 0 {
		switch r := results[0].(type) {
		case lua.LBool:
			if !bool(r) {
				return event.Stop, nil
			}
		case lua.LString:
			if r == "stop" {
				return event.Stop, nil
			}
		}
	}
	return event.Continue, nil
}

// rover.unbind(id)
func (s *Script) luaUnbind(L *lua.LState) int {
	id := L.CheckString(1)
	for i, b := range s.bindings {
		if b.ID() == id {
			s.host.Bus().Unbind(b)
			s.bindings = append(s.bindings[:i], s.bindings[i+1:]...)
			break
		}
	}
	return 0
}

// rover.emit(signal [, fields]) -> stopped
func (s *Script) luaEmit(L *lua.LState) int {
	signal := L.CheckString(1)
	fields := map[string]any{}
	if t, ok := L.Get(2).(*lua.LTable); ok {
		if m, ok := s.bridge.ToGoValue(t).(map[string]any); ok {
			fields = m
		}
	}
	sig := s.host.Bus().Emit(signal, fields)
	L.Push(lua.LBool(sig.Stopped()))
	return 1
}

// rover.notify(message [, bad])
func (s *Script) luaNotify(L *lua.LState) int {
	s.host.Notify(L.CheckString(1), L.OptBool(2, false))
	return 0
}

// rover.get(key) -> value
func (s *Script) luaGet(L *lua.LState) int {
	v, ok := s.host.Setting(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(s.bridge.ToLuaValue(v))
	return 1
}

// rover.set(key, value)
func (s *Script) luaSet(L *lua.LState) int {
	key := L.CheckString(1)
	if err := s.host.SetSetting(key, s.bridge.ToGoValue(L.Get(2))); err != nil {
		L.RaiseError("set %s: %v", key, err)
	}
	return 0
}

// rover.cwd() -> path
func (s *Script) luaCwd(L *lua.LState) int {
	L.Push(lua.LString(s.host.Cwd()))
	return 1
}
