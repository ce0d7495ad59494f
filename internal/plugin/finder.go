package plugin

import (
	"errors"
	"fmt"
	"sort"
)

// Finder looks up plugin descriptors by name. Implementations return an
// error matching ErrPluginNotFound when they do not know the name.
type Finder interface {
	Find(name string) (*Descriptor, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(name string) (*Descriptor, error)

// Find calls f(name).
func (f FinderFunc) Find(name string) (*Descriptor, error) {
	return f(name)
}

// Registry is a Finder over descriptors registered in Go code.
type Registry struct {
	plugins map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Descriptor)}
}

// Register adds d. Names must be unique.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.plugins[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, d.Name)
	}
	if d.Source == "" {
		d.Source = "builtin"
	}
	r.plugins[d.Name] = d
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Find implements Finder.
func (r *Registry) Find(name string) (*Descriptor, error) {
	if d, ok := r.plugins[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finders chains finders: the first one that knows a name wins. Errors
// other than ErrPluginNotFound stop the search.
func Finders(finders ...Finder) Finder {
	return FinderFunc(func(name string) (*Descriptor, error) {
		for _, f := range finders {
			if f == nil {
				continue
			}
			d, err := f.Find(name)
			if err == nil {
				return d, nil
			}
			if !errors.Is(err, ErrPluginNotFound) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	})
}
