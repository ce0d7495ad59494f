package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
)

// Resolver installs plugins in dependency order and tracks which plugin
// owns each feature. It is owned by the runtime goroutine.
type Resolver struct {
	finder Finder

	bus     *event.Bus
	log     *slog.Logger
	metrics *metrics.Metrics

	installed        []string
	descriptors      map[string]*Descriptor
	states           map[string]State
	features         map[string]string
	excludedPlugins  map[string]bool
	excludedFeatures map[string]bool
	stack            []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBus emits plugin lifecycle signals on bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Resolver) {
		r.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		r.log = logging.Component(log, "plugin")
	}
}

// WithMetrics records the installed plugin count on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver that looks plugins up through finder.
func NewResolver(finder Finder, opts ...Option) *Resolver {
	r := &Resolver{
		finder: finder,
		log:    logging.Component(nil, "plugin"),
	}
	r.Reset()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset forgets every installed plugin, feature and exclusion.
func (r *Resolver) Reset() {
	r.installed = nil
	r.descriptors = make(map[string]*Descriptor)
	r.states = make(map[string]State)
	r.features = make(map[string]string)
	r.excludedPlugins = make(map[string]bool)
	r.excludedFeatures = make(map[string]bool)
	r.stack = nil
	r.metrics.SetPluginsInstalled(0)
}

// InstallAll processes a configuration list. "!name" excludes a plugin,
// "~feature" excludes a feature, anything else is installed in order.
// The first error stops processing.
func (r *Resolver) InstallAll(names ...string) error {
	for _, entry := range names {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
			continue
		case strings.HasPrefix(entry, "!"):
			r.ExcludePlugin(NormalizeName(entry[1:]))
		case strings.HasPrefix(entry, "~"):
			r.ExcludeFeature(entry[1:])
		default:
			if err := r.Install(entry, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// Install installs name and, first, its dependencies. Installing an
// installed or excluded plugin is a no-op, as is installing a plugin
// whose features are excluded or already implemented. force bypasses the
// exclusions and lets the plugin take over features it implements.
func (r *Resolver) Install(name string, force bool) error {
	err := r.install(NormalizeName(name), force)
	if err != nil {
		r.stack = nil
	}
	return err
}

func (r *Resolver) install(name string, force bool) error {
	if r.IsInstalled(name) {
		return nil
	}
	if !force && r.excludedPlugins[name] {
		r.log.Debug("skipping excluded plugin", "plugin", name)
		return nil
	}

	d, err := r.finder.Find(name)
	if err != nil {
		return fmt.Errorf("install %s: %w", name, err)
	}

	if !force {
		for _, feature := range d.Implements {
			if r.excludedFeatures[feature] {
				r.log.Debug("skipping plugin with excluded feature", "plugin", name, "feature", feature)
				return nil
			}
			if owner, taken := r.features[feature]; taken {
				r.log.Debug("skipping plugin, feature implemented", "plugin", name, "feature", feature, "owner", owner)
				return nil
			}
		}
	}

	for _, pending := range r.stack {
		if pending == name {
			return &DependencyCycleError{Stack: r.stackWith(name)}
		}
	}
	r.stack = append(r.stack, name)

	for _, dep := range d.Dependencies {
		dep = NormalizeName(dep)
		if r.IsInstalled(dep) {
			continue
		}
		if err := r.install(dep, false); err != nil {
			return err
		}
	}

	var missing []string
	for _, feature := range d.Requires {
		if _, ok := r.features[feature]; !ok {
			missing = append(missing, feature)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFeatureError{Plugin: name, Missing: missing, Stack: r.stackWith()}
	}

	if d.Install != nil {
		if err := d.Install(); err != nil {
			return &HookError{Plugin: name, Hook: "install", Err: err}
		}
	}

	for _, feature := range d.Implements {
		if err := r.ImplementFeature(feature, name, force); err != nil {
			return err
		}
	}

	r.installed = append(r.installed, name)
	r.descriptors[name] = d
	r.states[name] = StateInstalled
	r.pop(name)

	r.log.Debug("installed plugin", "plugin", name, "source", d.Source)
	r.metrics.SetPluginsInstalled(len(r.installed))
	r.emit(event.SignalPluginInstalled, name)
	return nil
}

// pop removes name from the top of the install stack. A hook that
// swallowed a failed nested Install leaves the stack already cleared.
func (r *Resolver) pop(name string) {
	if n := len(r.stack); n > 0 && r.stack[n-1] == name {
		r.stack = r.stack[:n-1]
	}
}

// stackWith returns a copy of the install stack followed by extra.
func (r *Resolver) stackWith(extra ...string) []string {
	out := make([]string, 0, len(r.stack)+len(extra))
	out = append(out, r.stack...)
	return append(out, extra...)
}

// ImplementFeature records owner as the implementation of feature. A
// feature owned by another plugin is only taken over with force.
func (r *Resolver) ImplementFeature(feature, owner string, force bool) error {
	if current, taken := r.features[feature]; taken && current != owner && !force {
		return &FeatureAlreadyExistsError{Feature: feature, Owner: current, Plugin: owner}
	}
	r.features[feature] = owner
	return nil
}

// ExcludePlugin prevents name from being installed unless forced.
func (r *Resolver) ExcludePlugin(name string) { r.excludedPlugins[name] = true }

// AllowPlugin reverts ExcludePlugin.
func (r *Resolver) AllowPlugin(name string) { delete(r.excludedPlugins, name) }

// ExcludeFeature prevents plugins implementing feature from being
// installed unless forced.
func (r *Resolver) ExcludeFeature(feature string) { r.excludedFeatures[feature] = true }

// AllowFeature reverts ExcludeFeature.
func (r *Resolver) AllowFeature(feature string) { delete(r.excludedFeatures, feature) }

// IsExcluded reports whether name is excluded.
func (r *Resolver) IsExcluded(name string) bool { return r.excludedPlugins[name] }

// Installed returns installed plugin names in install order.
func (r *Resolver) Installed() []string {
	out := make([]string, len(r.installed))
	copy(out, r.installed)
	return out
}

// IsInstalled reports whether name is installed.
func (r *Resolver) IsInstalled(name string) bool {
	_, ok := r.descriptors[name]
	return ok
}

// Features returns a copy of the feature -> owner map.
func (r *Resolver) Features() map[string]string {
	out := make(map[string]string, len(r.features))
	for k, v := range r.features {
		out[k] = v
	}
	return out
}

// Owner returns the plugin implementing feature.
func (r *Resolver) Owner(feature string) (string, bool) {
	owner, ok := r.features[feature]
	return owner, ok
}

// Find returns the descriptor of an installed plugin.
func (r *Resolver) Find(name string) (*Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// State returns the lifecycle state of an installed plugin.
func (r *Resolver) State(name string) (State, bool) {
	s, ok := r.states[name]
	return s, ok
}

// InstallStack returns the in-progress install chain. It is empty
// outside Install.
func (r *Resolver) InstallStack() []string {
	return r.stackWith()
}

// Activate runs the activate hook of an installed plugin.
func (r *Resolver) Activate(ctx context.Context, name string) error {
	d, ok := r.descriptors[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if r.states[name] == StateActive {
		return nil
	}
	if d.Activate != nil {
		if err := d.Activate(ctx); err != nil {
			r.states[name] = StateError
			return &HookError{Plugin: name, Hook: "activate", Err: err}
		}
	}
	r.states[name] = StateActive
	r.emit(event.SignalPluginActivated, name)
	return nil
}

// Deactivate runs the deactivate hook of an active plugin.
func (r *Resolver) Deactivate(ctx context.Context, name string) error {
	d, ok := r.descriptors[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if r.states[name] != StateActive {
		return nil
	}
	if d.Deactivate != nil {
		if err := d.Deactivate(ctx); err != nil {
			r.states[name] = StateError
			return &HookError{Plugin: name, Hook: "deactivate", Err: err}
		}
	}
	r.states[name] = StateInactive
	r.emit(event.SignalPluginDeactivated, name)
	return nil
}

// ActivateAll activates plugins in install order, stopping at the first
// failure.
func (r *Resolver) ActivateAll(ctx context.Context) error {
	for _, name := range r.installed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Activate(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// DeactivateAll deactivates plugins in reverse install order. Every
// plugin is visited; the errors are joined.
func (r *Resolver) DeactivateAll(ctx context.Context) error {
	var errs []error
	for i := len(r.installed) - 1; i >= 0; i-- {
		if err := r.Deactivate(ctx, r.installed[i]); err != nil {
			r.log.Warn("plugin deactivate failed", "plugin", r.installed[i], "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Resolver) emit(signal, name string) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(signal, map[string]any{"name": name})
}
