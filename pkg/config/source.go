package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// source resolves configuration keys. Environment variables take precedence
// over values read from the optional YAML file.
type source struct {
	lookup func(string) (string, bool)
	file   map[string]string
}

func newSource(lookup func(string) (string, bool), file map[string]string) *source {
	if file == nil {
		file = map[string]string{}
	}
	return &source{lookup: lookup, file: file}
}

// readConfigFile parses a flat YAML mapping of KEY: value pairs.
func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		values[key] = fmt.Sprint(value)
	}
	return values, nil
}

func (s *source) raw(key string) (string, bool) {
	if value, ok := s.lookup(key); ok && value != "" {
		return value, true
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value, true
	}
	return "", false
}

func (s *source) str(key, fallback string) string {
	if value, ok := s.raw(key); ok {
		return value
	}
	return fallback
}

func (s *source) num(key string, fallback int) int {
	if value, ok := s.raw(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func (s *source) boolean(key string, fallback bool) bool {
	if value, ok := s.raw(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func (s *source) duration(key string, fallback time.Duration) time.Duration {
	if value, ok := s.raw(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
