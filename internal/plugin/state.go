package plugin

// State represents the lifecycle state of an installed plugin.
type State int

// Plugin states.
const (
	// StateInstalled - install hook ran, features claimed.
	StateInstalled State = iota

	// StateActive - activate hook ran.
	StateActive

	// StateInactive - deactivated after being active.
	StateInactive

	// StateError - a lifecycle hook failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
