package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/logging"
)

// Config owns the active settings. It is not safe for concurrent use.
type Config struct {
	settings Settings
	dir      string
	clean    bool
	environ  func() []string

	bus *event.Bus
	log *slog.Logger
}

// Option configures a Config instance.
type Option func(*Config)

// WithDir sets the config directory holding rc.toml and plugins/.
func WithDir(dir string) Option {
	return func(c *Config) {
		c.dir = dir
	}
}

// WithClean skips the rc file and environment overrides.
func WithClean(clean bool) Option {
	return func(c *Config) {
		c.clean = clean
	}
}

// WithBus sets the bus receiving setting.changed.
func WithBus(bus *event.Bus) Option {
	return func(c *Config) {
		c.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		c.log = logging.Component(log, "config")
	}
}

// WithEnviron replaces os.Environ.
func WithEnviron(fn func() []string) Option {
	return func(c *Config) {
		if fn != nil {
			c.environ = fn
		}
	}
}

// New creates a Config holding the defaults. Call Load to read the rc
// file and environment.
func New(opts ...Option) *Config {
	c := &Config{
		settings: Defaults(),
		environ:  environ,
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dir == "" {
		c.dir = DefaultDir()
	}
	return c
}

// DefaultDir returns $XDG_CONFIG_HOME/rover or its platform equivalent.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".rover")
	}
	return filepath.Join(base, "rover")
}

// Load rebuilds the settings from defaults, the rc file and the
// environment. Unknown keys are logged and ignored.
func (c *Config) Load() error {
	settings := Defaults()
	if c.clean {
		c.settings = settings
		return nil
	}

	path := c.Path()
	file, err := loadTOML(path)
	if err != nil {
		return err
	}
	if file != nil {
		if err := c.merge(&settings, path, file); err != nil {
			return err
		}
	}
	if env := loadEnv(EnvPrefix, c.environ()); len(env) > 0 {
		if err := c.merge(&settings, "environment", env); err != nil {
			return err
		}
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.settings = settings
	return nil
}

// merge decodes each key of layer over settings.
func (c *Config) merge(settings *Settings, source string, layer map[string]any) error {
	for key, value := range layer {
		if !IsKey(key) {
			c.log.Warn("ignoring unknown setting", "key", key, "source", source)
			continue
		}
		next, err := decodeKey(*settings, key, value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", source, err)
		}
		*settings = next
	}
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.dir
}

// Path returns the rc file path.
func (c *Config) Path() string {
	return filepath.Join(c.dir, RCFile)
}

// Clean reports whether user files are skipped.
func (c *Config) Clean() bool {
	return c.clean
}

// Settings returns a copy of the active settings.
func (c *Config) Settings() Settings {
	s := c.settings
	s.Plugins = append([]string(nil), c.settings.Plugins...)
	return s
}

// Get returns the value of a setting by key.
func (c *Config) Get(key string) (any, bool) {
	return c.settings.get(key)
}

// Set decodes value for key, emits setting.changed and applies the
// result. Handlers may replace the "value" field; stopping the signal
// vetoes the change with ErrVetoed.
func (c *Config) Set(key string, value any) error {
	if !IsKey(key) {
		return &SettingError{Key: key, Value: value, Err: ErrUnknownSetting}
	}
	next, err := c.candidate(key, value)
	if err != nil {
		return err
	}

	previous, _ := c.settings.get(key)
	decoded, _ := next.get(key)

	if c.bus != nil {
		sig := c.bus.Emit(event.SignalSettingChanged, map[string]any{
			"key":      key,
			"value":    decoded,
			"previous": previous,
		})
		if sig.Stopped() {
			return &SettingError{Key: key, Value: value, Err: ErrVetoed}
		}
		if v := sig.Get("value"); sig != nil && !reflect.DeepEqual(v, decoded) {
			if next, err = c.candidate(key, v); err != nil {
				return err
			}
		}
	}

	c.settings = next
	final, _ := next.get(key)
	c.log.Debug("setting changed", "key", key, "value", final)
	return nil
}

func (c *Config) candidate(key string, value any) (Settings, error) {
	next, err := decodeKey(c.settings, key, value)
	if err != nil {
		return c.settings, err
	}
	if err := next.Validate(); err != nil {
		var serr *SettingError
		if errors.As(err, &serr) {
			serr.Value = value
		}
		return c.settings, err
	}
	return next, nil
}
