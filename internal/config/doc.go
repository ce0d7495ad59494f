// Package config holds rover's settings.
//
// Settings come from three layers, lowest first: built-in defaults, the
// rc.toml file in the config directory, and ROVER_* environment
// variables. Clean mode skips the last two.
//
// Values are decoded weakly, so the strings typed at the command line
// ("true", "50ms", "dirloader,bookmarks") convert to the field types.
// Bare numbers given for durations are seconds.
//
// Changing a setting at runtime emits setting.changed. Handlers may
// overwrite the "value" field or stop the signal to veto the change.
package config
