package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name inside a plugin directory.
const ManifestFile = "plugin.yaml"

// Manifest describes a script plugin directory.
type Manifest struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Description  string   `yaml:"description"`
	Author       string   `yaml:"author"`
	Main         string   `yaml:"main"`
	Dependencies []string `yaml:"dependencies"`
	Requires     []string `yaml:"requires"`
	Implements   []string `yaml:"implements"`

	// dir is the plugin directory
	dir string
}

// Validation errors.
var (
	ErrMissingName = errors.New("manifest: name is required")
	ErrInvalidMain = errors.New("manifest: main must be a .lua file")
)

// LoadManifest loads and validates a plugin manifest from a file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	m.dir = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// LoadManifestFromDir loads plugin.yaml from a plugin directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFile))
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks that the manifest is usable.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	return m.Descriptor().Validate()
}

// Dir returns the plugin directory.
func (m *Manifest) Dir() string { return m.dir }

// MainPath returns the absolute path of the entry script.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.dir, m.Main)
}

// Descriptor converts the manifest into a hook-less descriptor.
func (m *Manifest) Descriptor() *Descriptor {
	return &Descriptor{
		Name:         m.Name,
		Version:      m.Version,
		Description:  m.Description,
		Dependencies: m.Dependencies,
		Requires:     m.Requires,
		Implements:   m.Implements,
		Source:       m.dir,
	}
}

// BuildFunc turns a manifest into a descriptor with hooks attached,
// typically by loading its script.
type BuildFunc func(m *Manifest) (*Descriptor, error)

// ManifestFinder finds plugins stored as directories under search paths.
// Earlier paths shadow later ones, so user plugins override bundled ones.
type ManifestFinder struct {
	paths []string
	build BuildFunc
}

// NewManifestFinder creates a finder over paths. A nil build yields
// descriptors without hooks.
func NewManifestFinder(build BuildFunc, paths ...string) *ManifestFinder {
	if build == nil {
		build = func(m *Manifest) (*Descriptor, error) { return m.Descriptor(), nil }
	}
	return &ManifestFinder{paths: paths, build: build}
}

// DefaultPluginPaths returns the user plugin directory under confdir
// followed by the bundled directory. Empty entries are skipped.
func DefaultPluginPaths(confdir, bundled string) []string {
	var paths []string
	if confdir != "" {
		paths = append(paths, filepath.Join(confdir, "plugins"))
	}
	if bundled != "" {
		paths = append(paths, bundled)
	}
	return paths
}

// Paths returns the configured search paths.
func (f *ManifestFinder) Paths() []string {
	return f.paths
}

// Find implements Finder.
func (f *ManifestFinder) Find(name string) (*Descriptor, error) {
	for _, base := range f.paths {
		dir := filepath.Join(base, name)
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}

		m, err := LoadManifestFromDir(dir)
		if err != nil {
			return nil, err
		}
		if m.Name != name {
			return nil, fmt.Errorf("%w: directory %s declares %q", ErrInvalidPlugin, dir, m.Name)
		}
		return f.build(m)
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// Discover lists every loadable manifest, sorted by name. A name found in
// several paths is reported once, from the first path.
func (f *ManifestFinder) Discover() ([]*Manifest, error) {
	seen := make(map[string]*Manifest)
	for _, base := range f.paths {
		entries, err := os.ReadDir(base)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if _, dup := seen[entry.Name()]; dup {
				continue
			}
			m, err := LoadManifestFromDir(filepath.Join(base, entry.Name()))
			if err != nil {
				continue
			}
			seen[entry.Name()] = m
		}
	}

	manifests := make([]*Manifest, 0, len(seen))
	for _, m := range seen {
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].Name < manifests[j].Name
	})
	return manifests, nil
}
