package plugins

import (
	"context"
	"log/slog"

	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/plugin"
	"github.com/dshills/rover/internal/plugin/lua"
)

// Scripts builds descriptors for manifest plugins and owns their Lua
// states.
type Scripts struct {
	host    lua.Host
	log     *slog.Logger
	opts    []lua.StateOption
	scripts []*lua.Script
}

// NewScripts creates a builder for script plugins run against host.
func NewScripts(host lua.Host, log *slog.Logger, opts ...lua.StateOption) *Scripts {
	return &Scripts{host: host, log: logging.Component(log, "plugins"), opts: opts}
}

// Build implements plugin.BuildFunc. The script is loaded by the
// install hook, so only plugins the resolver installs are run.
func (s *Scripts) Build(m *plugin.Manifest) (*plugin.Descriptor, error) {
	d := m.Descriptor()
	var script *lua.Script

	d.Install = func() error {
		loaded, err := lua.LoadScript(m.Name, m.MainPath(), s.host, s.log, s.opts...)
		if err != nil {
			return err
		}
		if err := loaded.Install(); err != nil {
			loaded.Close()
			return err
		}
		script = loaded
		s.scripts = append(s.scripts, loaded)
		return nil
	}
	d.Activate = func(ctx context.Context) error {
		if script == nil {
			return nil
		}
		return script.Activate(ctx)
	}
	d.Deactivate = func(ctx context.Context) error {
		if script == nil {
			return nil
		}
		return script.Deactivate(ctx)
	}
	return d, nil
}

// Loaded returns the scripts installed so far.
func (s *Scripts) Loaded() []*lua.Script {
	return append([]*lua.Script(nil), s.scripts...)
}

// Close releases every loaded script.
func (s *Scripts) Close() {
	for _, script := range s.scripts {
		script.Close()
	}
	s.scripts = nil
}
