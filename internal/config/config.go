// Package config provides configuration management for vocabhub.
//
// The config file declares which vocabularies exist and how to reach them;
// the database only mirrors that catalog and caches fetched graphs, so it can
// be wiped without losing anything.
//
// Config file locations (priority order):
//  1. $VOCABHUB_CONFIG
//  2. ./vocabhub.yaml
//  3. ~/.config/vocabhub/config.yaml
//  4. /etc/vocabhub/config.yaml
//
// A handful of settings can be overridden from the environment, see ApplyEnv.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"vocabhub/internal/domain"
)

// Environment overrides
const (
	EnvAddr     = "VOCABHUB_ADDR"
	EnvDatabase = "VOCABHUB_DB"
	EnvLogLevel = "VOCABHUB_LOG_LEVEL"
	EnvVocabDir = "VOCABHUB_VOCAB_DIR"
)

const (
	defaultAddr         = ":3000"
	defaultDBPath       = "./vocabhub.db"
	defaultLanguage     = "en"
	defaultMaxAttempts  = 10
	defaultFetchTimeout = 30 * time.Second
	defaultCacheTTL     = time.Hour
)

// DefaultPatterns are the vocabulary file globs used when none are configured
var DefaultPatterns = []string{"**/*.ttl", "**/*.nt"}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	// keys absent from the file keep these values; an explicit zero survives
	cfg := Config{Cache: CacheConfig{TTL: Duration(defaultCacheTTL)}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Cache: CacheConfig{TTL: Duration(defaultCacheTTL)}}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.Resolver.MaxAttempts <= 0 {
		c.Resolver.MaxAttempts = defaultMaxAttempts
	}
	if c.Resolver.Parallelism <= 0 {
		c.Resolver.Parallelism = 1
	}
	if c.Resolver.FetchTimeout == 0 {
		c.Resolver.FetchTimeout = Duration(defaultFetchTimeout)
	}
	if len(c.Files.Patterns) == 0 {
		c.Files.Patterns = append([]string(nil), DefaultPatterns...)
	}
	for i := range c.Vocabularies {
		v := &c.Vocabularies[i]
		if v.Source == "" {
			v.Source = domain.SourceFile
			if v.Endpoint != "" {
				v.Source = domain.SourceSPARQL
			}
		}
	}
}

// ApplyEnv overrides settings from VOCABHUB_* environment variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvVocabDir); v != "" {
		c.Files.Dir = v
	}
}

// Validate checks the config for values that cannot be defaulted
func (c *Config) Validate() error {
	var errs []error

	if _, err := language.Parse(c.Language); err != nil {
		errs = append(errs, fmt.Errorf("language %q: %w", c.Language, err))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format))
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl %s: must not be negative, use 0 to disable caching", c.Cache.TTL.Duration()))
	}

	seen := make(map[string]bool, len(c.Vocabularies))
	for i, v := range c.Vocabularies {
		if v.ID == "" {
			errs = append(errs, fmt.Errorf("vocabularies[%d]: missing id", i))
			continue
		}
		if seen[v.ID] {
			errs = append(errs, fmt.Errorf("vocabularies[%d]: duplicate id %q", i, v.ID))
		}
		seen[v.ID] = true

		if !v.Source.Valid() {
			errs = append(errs, fmt.Errorf("vocabulary %s: unknown source %q", v.ID, v.Source))
			continue
		}
		if v.Source == domain.SourceSPARQL && v.Endpoint == "" {
			errs = append(errs, fmt.Errorf("vocabulary %s: %s source requires an endpoint", v.ID, v.Source))
		}
		if v.Source == domain.SourceFile && c.Files.Dir == "" {
			errs = append(errs, fmt.Errorf("vocabulary %s: file source requires files.dir", v.ID))
		}
	}

	return errors.Join(errs...)
}

// LanguageTag returns the configured default label language
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// Vocabulary looks up a declared vocabulary by ID
func (c *Config) Vocabulary(id string) (domain.Vocabulary, bool) {
	for _, v := range c.Vocabularies {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Vocabulary{}, false
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s, Language: %s\n", c.Server.Addr, c.Database.Path, c.Language)
	summary += fmt.Sprintf("Resolver: %d attempts, parallelism %d, timeout %s, cache TTL %s\n",
		c.Resolver.MaxAttempts, c.Resolver.Parallelism, c.Resolver.FetchTimeout.Duration(), c.Cache.TTL.Duration())
	summary += fmt.Sprintf("Vocabularies (%d):", len(c.Vocabularies))
	for _, v := range c.Vocabularies {
		summary += fmt.Sprintf(" %s[%s]", v.ID, v.Source)
	}

	return summary
}
