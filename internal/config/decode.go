package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var durationType = reflect.TypeOf(time.Duration(0))

// secondsHook reads bare numbers given for durations as seconds.
func secondsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
	}
	return data, nil
}

// decode weakly decodes input into out and returns the keys it did not
// recognize.
func decode(input map[string]any, out *Settings) ([]string, error) {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(input); err != nil {
		return nil, err
	}
	return md.Unused, nil
}

// decodeKey decodes value for a single key into a copy of base.
func decodeKey(base Settings, key string, value any) (Settings, error) {
	var fresh Settings
	if _, err := decode(map[string]any{key: value}, &fresh); err != nil {
		return base, &SettingError{Key: key, Value: value, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
	}
	next := base
	next.Plugins = append([]string(nil), base.Plugins...)
	next.setField(key, &fresh)
	return next, nil
}
