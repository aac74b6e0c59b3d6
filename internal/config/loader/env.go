package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of calculator environment variables.
const DefaultEnvPrefix = "CALCULATOR_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "CALCULATOR_")
	mapping map[string]string // Env var -> config key
	skip    map[string]bool   // Env vars that are not settings
	lookup  func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "CALCULATOR_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithMapping(prefix, defaultEnvMapping(prefix))
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		skip:    map[string]bool{prefix + "CONFIG_FILE": true},
		lookup:  os.Environ,
	}
}

// defaultEnvMapping returns the default environment variable mappings.
func defaultEnvMapping(prefix string) map[string]string {
	keys := []string{
		"base_dir",
		"log_dir",
		"history_dir",
		"log_file",
		"history_file",
		"max_history_size",
		"auto_save",
		"precision",
		"max_input_value",
		"default_encoding",
		"history_format",
		"log_level",
	}
	mapping := make(map[string]string, len(keys))
	for _, key := range keys {
		mapping[prefix+strings.ToUpper(key)] = key
	}
	return mapping
}

// Load reads environment variables and returns a configuration map.
// Empty values are treated as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.lookup() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) || l.skip[name] {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}

		key, mapped := l.mapping[name]
		if !mapped {
			key = l.envToKey(name)
		}
		if key == "" {
			continue
		}
		config[key] = l.parseValue(value)
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, key string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = key
}

// RemoveMapping removes an environment variable mapping.
func (l *EnvLoader) RemoveMapping(envVar string) {
	delete(l.mapping, envVar)
}

// envToKey converts CALCULATOR_MAX_HISTORY_SIZE to max_history_size.
func (l *EnvLoader) envToKey(env string) string {
	return strings.ToLower(strings.TrimPrefix(env, l.prefix))
}

// parseValue converts booleans and integers; everything else stays a
// string so decimal settings keep their exact text.
func (l *EnvLoader) parseValue(s string) any {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	return s
}
