// Package config provides typed access to loosely structured configuration
// maps loaded from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config wraps a map[string]any for type-safe value extraction.
// Accessors return the given default when the key is missing or the value
// cannot be converted to the requested type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not
// convertible. Accepts int, int64, and float64 values without a fractional
// part (JSON decodes numbers as float64).
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not
// convertible. Accepts float64, int, and int64.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch val := c.data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or
// invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing or
// not convertible. YAML and JSON decode lists as []any, so each element is
// converted individually; a single non-string element yields defaultVal.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.data[key].(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}

// Section returns the nested Config under key. Missing or non-map values
// yield an empty Config, so chained lookups degrade to defaults.
func (c Config) Section(key string) Config {
	if m, ok := c.data[key].(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Has returns true if the key exists.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map. The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

// decode runs one unmarshal function over raw bytes and wraps the result.
// YAML and JSON both decode into map[string]any, so a single helper covers
// both formats.
func decode(data []byte, unmarshal func([]byte, any) error, format string) (Config, error) {
	var m map[string]any
	if err := unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", format, err)
	}
	return New(m), nil
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	return decode(data, yaml.Unmarshal, "yaml")
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	return decode(data, json.Unmarshal, "json")
}

// FromFile reads a configuration file, choosing the decoder by extension.
// Supported extensions: .yaml, .yml, .json.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}
