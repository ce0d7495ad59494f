package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/plugin"
	"github.com/dshills/rover/internal/plugins"
)

// registerCommands adds the built-in commands.
func (r *Runtime) registerCommands() {
	builtins := map[string]plugins.CommandFunc{
		"cd":      r.cdCommand,
		"set":     r.setCommand,
		"reset":   func([]string) error { return r.Reset() },
		"reload":  func([]string) error { r.Reload(); return nil },
		"quit":    func([]string) error { r.Quit(); return nil },
		"back":    func([]string) error { return r.Back() },
		"forward": func([]string) error { return r.Forward() },
		"plugins": r.pluginsCommand,
		"plugin":  r.pluginCommand,
	}
	for name, fn := range builtins {
		r.commands[name] = fn
	}
}

// AddCommand registers a command under name.
func (r *Runtime) AddCommand(name string, fn plugins.CommandFunc) error {
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	r.commands[name] = fn
	return nil
}

// RemoveCommand unregisters a command.
func (r *Runtime) RemoveCommand(name string) {
	delete(r.commands, name)
}

// Commands returns the registered command names, sorted.
func (r *Runtime) Commands() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a command line. command.pre may veto it; command.post is
// emitted with the outcome. Failures are also shown on the status line.
func (r *Runtime) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	pre := r.bus.Emit(event.SignalCommandPre, map[string]any{"line": line, "commandName": name})
	if pre.Stopped() {
		r.log.Debug("command vetoed", "command", name)
		return &CommandError{Command: name, Err: ErrCommandVetoed}
	}

	var err error
	if fn, ok := r.commands[name]; ok {
		err = fn(args)
	} else {
		err = ErrUnknownCommand
	}

	r.bus.Emit(event.SignalCommandPost, map[string]any{"line": line, "commandName": name, "err": err})
	if err != nil {
		cmdErr := &CommandError{Command: name, Err: err}
		r.Notify(cmdErr.Error(), true)
		return cmdErr
	}
	return nil
}

func (r *Runtime) cdCommand(args []string) error {
	return r.Cd(strings.Join(args, " "))
}

// setCommand accepts "key value" and "key=value".
func (r *Runtime) setCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: set <key> <value>")
	}
	key, value, found := strings.Cut(args[0], "=")
	if !found {
		if len(args) < 2 {
			current, ok := r.Setting(key)
			if !ok {
				return fmt.Errorf("usage: set <key> <value>")
			}
			r.Notify(fmt.Sprintf("%s = %v", key, current), false)
			return nil
		}
		value = strings.Join(args[1:], " ")
	} else if len(args) > 1 {
		value = strings.Join(append([]string{value}, args[1:]...), " ")
	}
	return r.SetSetting(key, value)
}

func (r *Runtime) pluginsCommand([]string) error {
	installed := r.resolver.Installed()
	if len(installed) == 0 {
		r.Notify("no plugins installed", false)
		return nil
	}
	r.Notify(strings.Join(installed, ", "), false)
	return nil
}

// pluginCommand installs, activates or deactivates a plugin by name.
func (r *Runtime) pluginCommand(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: plugin install|activate|deactivate <name>")
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	verb, name := args[0], plugin.NormalizeName(args[1])
	switch verb {
	case "install":
		if err := r.resolver.Install(name, true); err != nil {
			return err
		}
		return r.resolver.Activate(ctx, name)
	case "activate":
		return r.resolver.Activate(ctx, name)
	case "deactivate":
		return r.resolver.Deactivate(ctx, name)
	default:
		return fmt.Errorf("unknown plugin action %q", verb)
	}
}
