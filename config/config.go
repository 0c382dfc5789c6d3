// Package config holds the flat name→string configuration registry the
// decision client is built from, together with the loaders that
// populate it from JSON documents and the environment.
package config

import (
	"strconv"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables loaded via LoadEnv;
// DECISION_MODEL_SOURCE becomes "model.source".
const EnvPrefix = "DECISION_"

// Config is a flat map of configuration names to string values with
// typed accessors. It additionally carries a mutable "current section"
// selector: while a section is set, Get consults "<section>.<name>"
// before the bare name, which is how sender factories disambiguate
// per-channel options. Config is not safe for concurrent mutation; the
// client treats it as read-only after Init.
type Config struct {
	values  map[string]string
	section string
}

// New returns an empty registry.
func New() *Config {
	return &Config{values: make(map[string]string)}
}

// LoadJSON merges a JSON client-configuration document into the
// registry. Nested objects are flattened with "." separators, matching
// the dotted key constants in this package.
func (c *Config) LoadJSON(doc []byte) error {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(doc), koanfjson.Parser()); err != nil {
		return err
	}
	return c.merge(k)
}

// LoadEnv merges DECISION_-prefixed environment variables into the
// registry, lowercased with underscores mapped to dots.
func (c *Config) LoadEnv() error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return err
	}
	return c.merge(k)
}

func (c *Config) merge(k *koanf.Koanf) error {
	for key, val := range k.All() {
		switch v := val.(type) {
		case string:
			c.values[key] = v
		case bool:
			c.values[key] = strconv.FormatBool(v)
		case float64:
			c.values[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			c.values[key] = k.String(key)
		}
	}
	return nil
}

// Set stores a value under name, replacing any previous value.
func (c *Config) Set(name, value string) {
	c.values[name] = value
}

// SetSection selects the current section consulted by the typed
// accessors. An empty string clears it.
func (c *Config) SetSection(section string) {
	c.section = section
}

// Section returns the current section selector.
func (c *Config) Section() string {
	return c.section
}

// Get returns the value stored under the current section's qualified
// name, then under the bare name, then defaultVal.
func (c *Config) Get(name, defaultVal string) string {
	if c.section != "" {
		if v, ok := c.values[c.section+"."+name]; ok {
			return v
		}
	}
	if v, ok := c.values[name]; ok {
		return v
	}
	return defaultVal
}

// GetInt returns the value under name parsed as an int, or defaultVal
// when absent or unparsable.
func (c *Config) GetInt(name string, defaultVal int) int {
	v := c.Get(name, "")
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// GetFloat64 returns the value under name parsed as a float, or
// defaultVal when absent or unparsable.
func (c *Config) GetFloat64(name string, defaultVal float64) float64 {
	v := c.Get(name, "")
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// GetBool returns the value under name parsed as a bool, or defaultVal
// when absent or unparsable.
func (c *Config) GetBool(name string, defaultVal bool) bool {
	v := c.Get(name, "")
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
