// Package config loads decviz settings from defaults, a YAML file, .env and
// DECVIZ_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads "30s" style strings from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Render   RenderConfig   `yaml:"render"`
	Share    ShareConfig    `yaml:"share"`
	Examples ExamplesConfig `yaml:"examples"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
}

// RenderConfig configures the Graphviz bridge.
type RenderConfig struct {
	DotBinary string   `yaml:"dot_binary"`
	Timeout   Duration `yaml:"timeout"`
	CacheSize int      `yaml:"cache_size"`
	// CacheTTL of zero keeps entries until evicted.
	CacheTTL Duration `yaml:"cache_ttl"`
}

// ShareConfig configures the share store. An empty DataDir with InMemory
// false disables sharing.
type ShareConfig struct {
	DataDir         string   `yaml:"data_dir"`
	InMemory        bool     `yaml:"in_memory"`
	TTL             Duration `yaml:"ttl"`
	KeyPrefix       string   `yaml:"key_prefix"`
	MaxPayloadBytes int      `yaml:"max_payload_bytes"`
}

// Enabled reports whether a share store should be opened.
func (c ShareConfig) Enabled() bool {
	return c.InMemory || c.DataDir != ""
}

// ExamplesConfig configures the example catalog.
type ExamplesConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the default slog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: gin.ReleaseMode,
		},
		Render: RenderConfig{
			DotBinary: "dot",
			Timeout:   Duration(10 * time.Second),
			CacheSize: 256,
			CacheTTL:  Duration(time.Hour),
		},
		Share: ShareConfig{
			DataDir:         "./data",
			TTL:             Duration(30 * 24 * time.Hour),
			KeyPrefix:       "decviz:share:",
			MaxPayloadBytes: 1 << 20, // 1MB
		},
		Examples: ExamplesConfig{
			Dir: "./examples",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty; otherwise the YAML file
// must exist. A .env file in the working directory is loaded if present and
// never overrides variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides settings from DECVIZ_* variables. PORT is honored
// for platforms that inject it.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}

	texts := map[string]*string{
		"DECVIZ_ADDR":             &c.Server.Addr,
		"DECVIZ_GIN_MODE":         &c.Server.Mode,
		"DECVIZ_DOT_BINARY":       &c.Render.DotBinary,
		"DECVIZ_SHARE_DIR":        &c.Share.DataDir,
		"DECVIZ_SHARE_KEY_PREFIX": &c.Share.KeyPrefix,
		"DECVIZ_EXAMPLES_DIR":     &c.Examples.Dir,
		"DECVIZ_LOG_LEVEL":        &c.Logging.Level,
		"DECVIZ_LOG_FORMAT":       &c.Logging.Format,
	}
	for key, dst := range texts {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"DECVIZ_RENDER_TIMEOUT":   &c.Render.Timeout,
		"DECVIZ_RENDER_CACHE_TTL": &c.Render.CacheTTL,
		"DECVIZ_SHARE_TTL":        &c.Share.TTL,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}

	ints := map[string]*int{
		"DECVIZ_RENDER_CACHE_SIZE": &c.Render.CacheSize,
		"DECVIZ_SHARE_MAX_PAYLOAD": &c.Share.MaxPayloadBytes,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup("DECVIZ_SHARE_IN_MEMORY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DECVIZ_SHARE_IN_MEMORY: %w", err)
		}
		c.Share.InMemory = b
	}
	return nil
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}

	if c.Render.DotBinary == "" {
		return fmt.Errorf("render.dot_binary must not be empty")
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be positive, got %s", time.Duration(c.Render.Timeout))
	}
	if c.Render.CacheSize < 0 {
		return fmt.Errorf("render.cache_size must be non-negative, got %d", c.Render.CacheSize)
	}
	if c.Render.CacheTTL < 0 {
		return fmt.Errorf("render.cache_ttl must be non-negative, got %s", time.Duration(c.Render.CacheTTL))
	}

	if c.Share.Enabled() {
		if c.Share.TTL <= 0 {
			return fmt.Errorf("share.ttl must be positive, got %s", time.Duration(c.Share.TTL))
		}
		if c.Share.KeyPrefix == "" {
			return fmt.Errorf("share.key_prefix must not be empty")
		}
	}
	if c.Share.MaxPayloadBytes < 0 {
		return fmt.Errorf("share.max_payload_bytes must be non-negative, got %d", c.Share.MaxPayloadBytes)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return l, nil
}
