package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"vocabhub/internal/domain"
)

// Config is the root configuration structure
type Config struct {
	Version      int                 `yaml:"version"`
	Server       ServerConfig        `yaml:"server"`
	Database     DatabaseConfig      `yaml:"database"`
	Logging      LoggingConfig       `yaml:"logging"`
	Language     string              `yaml:"language"` // default label language (BCP 47)
	Resolver     ResolverConfig      `yaml:"resolver"`
	Cache        CacheConfig         `yaml:"cache"`
	Files        FilesConfig         `yaml:"files"`
	Vocabularies []domain.Vocabulary `yaml:"vocabularies,omitempty"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// ResolverConfig tunes hierarchy resolution
type ResolverConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	Parallelism  int      `yaml:"parallelism"` // concurrent fetches; 1 = sequential
	FetchTimeout Duration `yaml:"fetch_timeout"`
}

// CacheConfig holds the fetched-graph cache settings
type CacheConfig struct {
	TTL Duration `yaml:"ttl"` // 0 disables caching; defaults to 1h when absent
}

// Enabled reports whether fetched graphs are cached
func (c CacheConfig) Enabled() bool {
	return c.TTL > 0
}

// FilesConfig holds the file backend settings
type FilesConfig struct {
	Dir      string   `yaml:"dir"`
	Patterns []string `yaml:"patterns,omitempty"`
	Watch    bool     `yaml:"watch"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
