package plugin

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// namePattern validates plugin and feature names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Descriptor declares a plugin. It is immutable once handed to a finder.
type Descriptor struct {
	Name        string
	Version     string
	Description string

	// Dependencies are plugins installed before this one.
	Dependencies []string
	// Requires are features some installed plugin must implement.
	Requires []string
	// Implements are features this plugin provides.
	Implements []string

	// Source records where the descriptor came from ("builtin" or a
	// plugin directory).
	Source string

	Install    func() error
	Activate   func(ctx context.Context) error
	Deactivate func(ctx context.Context) error
}

// NormalizeName maps dotted module-style names onto plugin names.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), ".", "_")
}

// Validate checks the descriptor's names.
func (d *Descriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidPlugin)
	}
	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidPlugin, d.Name)
	}
	for _, group := range [][]string{d.Dependencies, d.Requires, d.Implements} {
		for _, n := range group {
			if !namePattern.MatchString(n) {
				return fmt.Errorf("%w: %s: bad reference %q", ErrInvalidPlugin, d.Name, n)
			}
		}
	}
	return nil
}
