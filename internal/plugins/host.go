package plugins

import (
	"errors"
	"log/slog"

	"github.com/dshills/rover/internal/cache"
	"github.com/dshills/rover/internal/config"
	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/loader"
	"github.com/dshills/rover/internal/plugin"
	"github.com/dshills/rover/internal/plugin/lua"
	"github.com/dshills/rover/internal/vfs"
	"github.com/dshills/rover/internal/watcher"
)

// Feature names claimed by bundled plugins.
const (
	FeatureDataLoader = "data_loader"
	FeatureBookmarks  = "bookmarks"
	FeatureFSWatch    = "fs_watch"
	FeatureTitle      = "title"
)

// CommandFunc runs a command with its arguments.
type CommandFunc func(args []string) error

// Host is the runtime surface bundled plugins use.
type Host interface {
	lua.Host

	Loader() *loader.Loader
	Cache() *cache.DirectoryCache
	FS() vfs.VFS
	Settings() config.Settings
	Resolver() *plugin.Resolver
	Logger() *slog.Logger

	// Cd changes the current directory.
	Cd(path string) error
	// AddCommand registers a command. It fails if the name is taken.
	AddCommand(name string, fn CommandFunc) error
	RemoveCommand(name string)
	// SetIndicator sets a named status-line segment; "" removes it.
	SetIndicator(name, text string)
	SetTitle(title string)
}

// Options configure the bundled plugins.
type Options struct {
	// NewWatcher creates the watch plugin's watcher. Defaults to fsnotify.
	NewWatcher func() (watcher.Watcher, error)
}

// Register adds the bundled plugins to reg, bound to host.
func Register(reg *plugin.Registry, host Host, opts Options) error {
	if opts.NewWatcher == nil {
		opts.NewWatcher = func() (watcher.Watcher, error) {
			return watcher.NewFSNotifyWatcher(watcher.WithLogger(host.Logger()))
		}
	}
	descriptors := []*plugin.Descriptor{
		newDirLoader(host).descriptor(),
		newThrobber(host).descriptor(),
		newBookmarks(host).descriptor(),
		newWatch(host, opts.NewWatcher).descriptor(),
		newTitle(host).descriptor(),
	}
	var errs []error
	for _, d := range descriptors {
		errs = append(errs, reg.Register(d))
	}
	return errors.Join(errs...)
}

// bindings tracks a plugin's bus registrations.
type bindings struct {
	bus  *event.Bus
	list []*event.Binding
}

func (b *bindings) add(name string, h event.Handler, priority float64) error {
	binding, err := b.bus.Register(name, h, priority)
	if err != nil {
		return err
	}
	b.list = append(b.list, binding)
	return nil
}

func (b *bindings) addFunc(name string, fn func(*event.Signal), priority float64) error {
	binding, err := b.bus.RegisterFunc(name, fn, priority)
	if err != nil {
		return err
	}
	b.list = append(b.list, binding)
	return nil
}

func (b *bindings) clear() {
	for _, binding := range b.list {
		b.bus.Unbind(binding)
	}
	b.list = nil
}
