package config

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/dshills/rover/internal/fsobject"
)

// Settings is the typed set of rover options. The mapstructure tags are
// the keys used by rc.toml, ROVER_* variables and the set command.
type Settings struct {
	// Plugins lists plugins to install, in order. "!name" excludes a
	// plugin and "~feature" excludes a feature.
	Plugins []string `mapstructure:"plugins"`

	ShowHidden           bool   `mapstructure:"show_hidden"`
	Sort                 string `mapstructure:"sort"`
	SortReverse          bool   `mapstructure:"sort_reverse"`
	SortDirectoriesFirst bool   `mapstructure:"sort_directories_first"`

	// GCTicks is the number of loop iterations between collections.
	GCTicks int `mapstructure:"gc_ticks"`
	// GCAge is the load age past which cached directories are evicted.
	GCAge time.Duration `mapstructure:"gc_age"`

	LoadBudget   time.Duration `mapstructure:"load_budget"`
	InputTimeout time.Duration `mapstructure:"input_timeout"`
	ScanChunk    int           `mapstructure:"scan_chunk"`

	UpdateTitle  bool `mapstructure:"update_title"`
	WatchPathway bool `mapstructure:"watch_pathway"`
}

// DefaultPlugins is the plugin list used when none is configured.
var DefaultPlugins = []string{"dirloader", "throbber", "bookmarks", "watch", "title"}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Plugins:              append([]string(nil), DefaultPlugins...),
		Sort:                 string(fsobject.SortName),
		SortDirectoriesFirst: true,
		GCTicks:              100,
		GCAge:                1200 * time.Second,
		LoadBudget:           50 * time.Millisecond,
		InputTimeout:         100 * time.Millisecond,
		ScanChunk:            fsobject.DefaultChunk,
		UpdateTitle:          false,
		WatchPathway:         true,
	}
}

// Validate checks ranges and enumerations.
func (s Settings) Validate() error {
	if _, err := fsobject.ParseSortKey(s.Sort); err != nil {
		return &SettingError{Key: "sort", Value: s.Sort, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
	}
	positive := []struct {
		key string
		ok  bool
		val any
	}{
		{"gc_ticks", s.GCTicks > 0, s.GCTicks},
		{"gc_age", s.GCAge >= 0, s.GCAge},
		{"load_budget", s.LoadBudget > 0, s.LoadBudget},
		{"input_timeout", s.InputTimeout > 0, s.InputTimeout},
		{"scan_chunk", s.ScanChunk > 0, s.ScanChunk},
	}
	for _, p := range positive {
		if !p.ok {
			return &SettingError{Key: p.key, Value: p.val, Err: fmt.Errorf("%w: must be positive", ErrInvalidValue)}
		}
	}
	return nil
}

// FileOptions returns the listing options the settings select.
func (s Settings) FileOptions() fsobject.Options {
	key, err := fsobject.ParseSortKey(s.Sort)
	if err != nil {
		key = fsobject.SortName
	}
	return fsobject.Options{
		Sort:       key,
		Reverse:    s.SortReverse,
		DirsFirst:  s.SortDirectoriesFirst,
		ShowHidden: s.ShowHidden,
	}
}

// fieldIndex maps setting keys to struct field indices.
var fieldIndex = func() map[string]int {
	t := reflect.TypeOf(Settings{})
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			idx[key] = i
		}
	}
	return idx
}()

// Keys returns every setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fieldIndex))
	for k := range fieldIndex {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key names a setting.
func IsKey(key string) bool {
	_, ok := fieldIndex[key]
	return ok
}

// get returns the value of one setting.
func (s *Settings) get(key string) (any, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return nil, false
	}
	v := reflect.ValueOf(s).Elem().Field(i)
	if v.Kind() == reflect.Slice {
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(cp, v)
		return cp.Interface(), true
	}
	return v.Interface(), true
}

// setField copies one field from src.
func (s *Settings) setField(key string, src *Settings) {
	i := fieldIndex[key]
	reflect.ValueOf(s).Elem().Field(i).Set(reflect.ValueOf(src).Elem().Field(i))
}
