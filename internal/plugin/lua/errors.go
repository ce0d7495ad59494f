package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when calling a global that is not a function.
	ErrNotFunction = errors.New("lua global is not a function")

	// ErrModuleNotAllowed is returned by require for unknown modules.
	ErrModuleNotAllowed = errors.New("lua module not allowed")
)
