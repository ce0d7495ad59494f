package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when no finder knows a plugin.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrDependencyCycle is matched by *DependencyCycleError.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrMissingFeature is matched by *MissingFeatureError.
	ErrMissingFeature = errors.New("missing feature")

	// ErrFeatureAlreadyExists is matched by *FeatureAlreadyExistsError.
	ErrFeatureAlreadyExists = errors.New("feature already implemented")

	// ErrDuplicatePlugin is returned when a name is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrNotInstalled is returned when activating an unknown plugin.
	ErrNotInstalled = errors.New("plugin is not installed")

	// ErrInvalidPlugin is returned when descriptor validation fails.
	ErrInvalidPlugin = errors.New("invalid plugin")
)

// DependencyCycleError reports a plugin that was reached again while it
// was still being installed. Stack is the install stack with the
// repeated name appended.
type DependencyCycleError struct {
	Stack []string
}

// Error implements the error interface.
func (e *DependencyCycleError) Error() string {
	return "dependency cycle encountered: " + e.Chain()
}

// Chain renders the stack as "a -> b -> a".
func (e *DependencyCycleError) Chain() string {
	return strings.Join(e.Stack, " -> ")
}

// Cycle returns the plugins forming the loop, each exactly once, starting
// at the first occurrence of the repeated name.
func (e *DependencyCycleError) Cycle() []string {
	if len(e.Stack) == 0 {
		return nil
	}
	repeated := e.Stack[len(e.Stack)-1]
	for i, name := range e.Stack[:len(e.Stack)-1] {
		if name == repeated {
			return append([]string(nil), e.Stack[i:len(e.Stack)-1]...)
		}
	}
	return []string{repeated}
}

// Unwrap returns ErrDependencyCycle.
func (e *DependencyCycleError) Unwrap() error {
	return ErrDependencyCycle
}

// MissingFeatureError reports required features no installed plugin
// implements.
type MissingFeatureError struct {
	Plugin  string
	Missing []string
	Stack   []string
}

// Error implements the error interface.
func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("plugin %q requires the features: %s (stack: %s)",
		e.Plugin, strings.Join(e.Missing, ", "), strings.Join(e.Stack, " -> "))
}

// Unwrap returns ErrMissingFeature.
func (e *MissingFeatureError) Unwrap() error {
	return ErrMissingFeature
}

// FeatureAlreadyExistsError reports a feature claimed by a second plugin.
type FeatureAlreadyExistsError struct {
	Feature string
	Owner   string
	Plugin  string
}

// Error implements the error interface.
func (e *FeatureAlreadyExistsError) Error() string {
	return fmt.Sprintf("plugin %q cannot implement %q: already implemented by %q",
		e.Plugin, e.Feature, e.Owner)
}

// Unwrap returns ErrFeatureAlreadyExists.
func (e *FeatureAlreadyExistsError) Unwrap() error {
	return ErrFeatureAlreadyExists
}

// HookError wraps a failing install, activate or deactivate hook.
type HookError struct {
	Plugin string
	Hook   string
	Err    error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %q %s: %v", e.Plugin, e.Hook, e.Err)
}

// Unwrap returns the hook's error.
func (e *HookError) Unwrap() error {
	return e.Err
}
