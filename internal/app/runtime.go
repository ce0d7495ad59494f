// Package app wires the runtime together: it owns the bus, settings,
// plugin resolver, loader and directory cache, implements the host
// surface plugins run against, and drives the main loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/rover/internal/cache"
	"github.com/dshills/rover/internal/config"
	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/fsobject"
	"github.com/dshills/rover/internal/loader"
	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
	"github.com/dshills/rover/internal/plugin"
	"github.com/dshills/rover/internal/plugins"
	"github.com/dshills/rover/internal/ui"
	"github.com/dshills/rover/internal/vfs"
	"github.com/dshills/rover/internal/watcher"
)

// hookTimeout bounds plugin activate and deactivate hooks.
const hookTimeout = 5 * time.Second

// Options configures a Runtime. Zero values select the defaults.
type Options struct {
	// ConfigDir holds rc.toml and the user plugin directory.
	ConfigDir string

	// Clean skips the rc file, the environment and user plugins.
	Clean bool

	// Debug disables handler panic recovery and logs a metrics summary
	// on shutdown.
	Debug bool

	// StartPath is the initial directory. Defaults to the process cwd.
	StartPath string

	// PluginDir is the bundled manifest plugin directory.
	PluginDir string

	// Plugins are extra descriptors registered next to the bundled ones.
	Plugins []*plugin.Descriptor

	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	FS       vfs.VFS
	Frontend ui.Frontend

	// Environ replaces os.Environ for settings overrides.
	Environ func() []string

	// NewWatcher replaces the fsnotify watcher used by the watch plugin.
	NewWatcher func() (watcher.Watcher, error)

	// Clock replaces time.Now for cache ages.
	Clock func() time.Time
}

// Runtime is the context object shared by the main loop, commands and
// plugins. Apart from Quit and State it must only be used from the
// goroutine that calls Run.
type Runtime struct {
	opts     Options
	log      *slog.Logger
	metrics  *metrics.Metrics
	bus      *event.Bus
	config   *config.Config
	fs       vfs.VFS
	cache    *cache.DirectoryCache
	loader   *loader.Loader
	registry *plugin.Registry
	resolver *plugin.Resolver
	scripts  *plugins.Scripts
	frontend ui.Frontend

	cwd        string
	history    *history
	commands   map[string]plugins.CommandFunc
	indicators map[string]string

	message   string
	bad       bool
	prompt    []rune
	prompting bool

	ticks       int
	initialized bool
	ran         bool
	shutdown    bool
	quit        atomic.Bool
	state       atomic.Pointer[State]
}

// Ensure Runtime implements the plugin host.
var _ plugins.Host = (*Runtime)(nil)

// New builds the runtime components and registers the bundled plugins.
// Nothing is loaded or installed until Init.
func New(opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.FS == nil {
		opts.FS = vfs.NewOSFS()
	}
	if opts.Frontend == nil {
		opts.Frontend = ui.NewNull()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	r := &Runtime{
		opts:       opts,
		log:        logging.Component(opts.Logger, "app"),
		metrics:    opts.Metrics,
		fs:         opts.FS,
		frontend:   opts.Frontend,
		history:    newHistory(DefaultHistorySize),
		commands:   make(map[string]plugins.CommandFunc),
		indicators: make(map[string]string),
	}

	r.bus = event.NewBus(
		event.WithLogger(opts.Logger),
		event.WithMetrics(opts.Metrics),
		event.WithDebug(opts.Debug),
	)

	configOpts := []config.Option{
		config.WithBus(r.bus),
		config.WithLogger(opts.Logger),
		config.WithClean(opts.Clean),
		config.WithEnviron(opts.Environ),
	}
	if opts.ConfigDir != "" {
		configOpts = append(configOpts, config.WithDir(opts.ConfigDir))
	}
	r.config = config.New(configOpts...)

	r.cache = cache.New(r.fs,
		cache.WithClock(opts.Clock),
		cache.WithLogger(opts.Logger),
		cache.WithMetrics(opts.Metrics),
		cache.WithEvictHook(func(d *fsobject.Directory) {
			r.loader.Cancel(fsobject.Describe(d.Path))
		}),
	)
	r.loader = loader.New(
		loader.WithLogger(opts.Logger),
		loader.WithMetrics(opts.Metrics),
		loader.WithDebug(opts.Debug),
		loader.WithNotifier(func(task loader.Task, err error) {
			r.Notify(fmt.Sprintf("%s: %v", task.Description(), err), true)
		}),
	)

	r.registry = plugin.NewRegistry()
	err := plugins.Register(r.registry, r, plugins.Options{NewWatcher: opts.NewWatcher})
	for _, d := range opts.Plugins {
		err = errors.Join(err, r.registry.Register(d))
	}
	if err != nil {
		return nil, &InitError{Component: "plugins", Err: err}
	}

	r.scripts = plugins.NewScripts(r, opts.Logger)
	userDir := r.config.Dir()
	if opts.Clean {
		userDir = ""
	}
	finder := plugin.Finders(
		r.registry,
		plugin.NewManifestFinder(r.scripts.Build, plugin.DefaultPluginPaths(userDir, opts.PluginDir)...),
	)
	r.resolver = plugin.NewResolver(finder,
		plugin.WithBus(r.bus),
		plugin.WithLogger(opts.Logger),
		plugin.WithMetrics(opts.Metrics),
	)

	r.registerCommands()
	return r, nil
}

// Init loads settings, starts the frontend, installs and activates the
// configured plugins, emits core.init and enters the start directory.
func (r *Runtime) Init() error {
	if r.initialized {
		return nil
	}
	if err := r.config.Load(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	start, err := r.startPath()
	if err != nil {
		return &InitError{Component: "start path", Err: err}
	}

	if err := r.frontend.Init(); err != nil {
		return &InitError{Component: "frontend", Err: err}
	}

	settings := r.config.Settings()
	if err := r.resolver.InstallAll(settings.Plugins...); err != nil {
		r.frontend.Close()
		return &InitError{Component: "plugins", Err: err}
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if err := r.resolver.ActivateAll(ctx); err != nil {
		r.frontend.Close()
		return &InitError{Component: "plugins", Err: err}
	}

	if _, err := r.bus.EmitVital(event.SignalCoreInit, nil); err != nil {
		r.frontend.Close()
		return &InitError{Component: "core.init", Err: err}
	}

	if err := r.Cd(start); err != nil {
		r.frontend.Close()
		return &InitError{Component: "start path", Err: err}
	}

	r.initialized = true
	r.log.Info("initialized",
		"cwd", r.cwd,
		"plugins", r.resolver.Installed(),
		"config", r.config.Path(),
		"clean", r.config.Clean(),
	)
	r.publish()
	return nil
}

// startPath returns the directory to enter first.
func (r *Runtime) startPath() (string, error) {
	if r.opts.StartPath != "" {
		return r.opts.StartPath, nil
	}
	return os.Getwd()
}

// Run emits core.run and loops until Quit. It returns after the loop
// ends; call Shutdown to release resources. Run may only be called once.
func (r *Runtime) Run() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if r.ran {
		return ErrAlreadyRunning
	}
	r.ran = true

	r.bus.Emit(event.SignalCoreRun, nil)
	for !r.quit.Load() {
		r.tick()
	}
	return nil
}

// Quit asks the loop to stop after the current iteration. It is safe
// for concurrent use.
func (r *Runtime) Quit() {
	r.quit.Store(true)
}

// Quitting reports whether Quit was called.
func (r *Runtime) Quitting() bool {
	return r.quit.Load()
}

// Shutdown emits core.quit, deactivates plugins and releases the
// frontend, loader and script states. Only the first call has effect.
func (r *Runtime) Shutdown() {
	if r.shutdown {
		return
	}
	r.shutdown = true
	r.quit.Store(true)

	if r.initialized {
		r.bus.Emit(event.SignalCoreQuit, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if err := r.resolver.DeactivateAll(ctx); err != nil {
		r.log.Warn("deactivating plugins", "err", err)
	}
	r.scripts.Close()
	r.loader.Destroy()
	if r.initialized {
		r.frontend.Close()
	}

	if r.opts.Debug {
		r.logSummary()
	}
	r.log.Info("shut down", "ticks", r.ticks)
}

// logSummary writes the collected metrics to the log.
func (r *Runtime) logSummary() {
	summary, err := r.metrics.Summary()
	if err != nil {
		r.log.Warn("gathering metrics", "err", err)
		return
	}
	for _, name := range metrics.SummaryKeys(summary) {
		r.log.Debug("metric", "name", name, "value", summary[name])
	}
}

// Bus returns the event bus.
func (r *Runtime) Bus() *event.Bus { return r.bus }

// Config returns the settings store.
func (r *Runtime) Config() *config.Config { return r.config }

// Loader returns the background task scheduler.
func (r *Runtime) Loader() *loader.Loader { return r.loader }

// Cache returns the directory cache.
func (r *Runtime) Cache() *cache.DirectoryCache { return r.cache }

// FS returns the filesystem scans read from.
func (r *Runtime) FS() vfs.VFS { return r.fs }

// Resolver returns the plugin resolver.
func (r *Runtime) Resolver() *plugin.Resolver { return r.resolver }

// Logger returns the root logger.
func (r *Runtime) Logger() *slog.Logger { return r.opts.Logger }

// Metrics returns the collector set, which may be nil.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Settings returns a copy of the current settings.
func (r *Runtime) Settings() config.Settings { return r.config.Settings() }

// Setting returns the value of a setting by key.
func (r *Runtime) Setting(key string) (any, bool) { return r.config.Get(key) }

// SetSetting changes a setting, emitting setting.changed.
func (r *Runtime) SetSetting(key string, value any) error { return r.config.Set(key, value) }

// Cwd returns the current directory.
func (r *Runtime) Cwd() string { return r.cwd }

// History returns the visited directories, oldest first.
func (r *Runtime) History() []string { return r.history.list() }

// Cd enters path, relative to the current directory, and records it in
// the history.
func (r *Runtime) Cd(path string) error {
	return r.enter(r.resolve(path), true)
}

// resolve expands ~ and makes p absolute against the current directory.
func (r *Runtime) resolve(p string) string {
	if p == "" || p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = home + strings.TrimPrefix(p, "~")
		}
	}
	if !filepath.IsAbs(p) && r.cwd != "" {
		p = r.fs.Join(r.cwd, p)
	}
	return r.cache.Canonical(p)
}

// enter makes target the current directory and emits cd.
func (r *Runtime) enter(target string, record bool) error {
	if !r.fs.IsDir(target) {
		return fmt.Errorf("cd %s: %w", target, ErrNotDirectory)
	}
	previous := r.cwd
	if d := r.cache.EnterDir(target); d.LoadErr() != nil {
		d.MarkStale()
	}
	r.cwd = target
	if record {
		r.history.push(target)
	}
	r.log.Debug("entered directory", "path", target, "previous", previous)
	r.bus.Emit(event.SignalCd, map[string]any{"previous": previous, "new": target})
	return nil
}

// Back returns to the previous history entry.
func (r *Runtime) Back() error {
	p, ok := r.history.back()
	if !ok {
		return ErrHistoryEnd
	}
	return r.enter(p, false)
}

// Forward undoes a Back.
func (r *Runtime) Forward() error {
	p, ok := r.history.forward()
	if !ok {
		return ErrHistoryEnd
	}
	return r.enter(p, false)
}

// Current returns the directory object of the current directory.
func (r *Runtime) Current() *fsobject.Directory {
	pathway := r.cache.Pathway()
	if len(pathway) == 0 {
		return nil
	}
	return pathway[len(pathway)-1]
}

// Notify shows message on the status line. notify handlers may rewrite
// the message or stop it from being shown.
func (r *Runtime) Notify(message string, bad bool) {
	sig := r.bus.Emit(event.SignalNotify, map[string]any{"message": message, "bad": bad})
	if sig.Stopped() {
		return
	}
	if sig != nil {
		message, bad = sig.String("message"), sig.Bool("bad")
	}
	r.message, r.bad = message, bad
	if bad {
		r.log.Warn("notify", "message", message)
	} else {
		r.log.Debug("notify", "message", message)
	}
}

// SetIndicator sets a named status-line segment; "" removes it.
func (r *Runtime) SetIndicator(name, text string) {
	if text == "" {
		delete(r.indicators, name)
		return
	}
	r.indicators[name] = text
}

// SetTitle sets the terminal title.
func (r *Runtime) SetTitle(title string) {
	r.frontend.SetTitle(title)
}

// View builds the frame for the current state.
func (r *Runtime) View() ui.View {
	v := ui.View{
		Path:      r.cwd,
		Message:   r.message,
		Bad:       r.bad,
		Prompt:    string(r.prompt),
		Prompting: r.prompting,
	}
	if d := r.Current(); d != nil {
		v.Entries = d.Visible()
		v.Cursor = d.Cursor
		v.Loading = !d.Loaded() || d.Loading()
	}
	names := make([]string, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.Indicators = append(v.Indicators, r.indicators[name])
	}
	return v
}
