package config

import (
	"os"
	"strings"
)

// EnvPrefix starts the environment variables that override settings.
const EnvPrefix = "ROVER_"

// loadEnv collects prefixed variables naming known settings, so
// ROVER_SHOW_HIDDEN=true sets show_hidden. Others, such as the CLI's
// own variables, are ignored.
func loadEnv(prefix string, environ []string) map[string]any {
	out := make(map[string]any)
	for _, env := range environ {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		if IsKey(key) {
			out[key] = value
		}
	}
	return out
}

func environ() []string {
	return os.Environ()
}
