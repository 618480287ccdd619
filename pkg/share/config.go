package share

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Config holds the configuration for the share store.
type Config struct {
	// DataDir is the directory where BadgerDB will store its data.
	DataDir string

	// InMemory enables in-memory mode (useful for testing).
	InMemory bool

	// TTL is how long a shared payload stays retrievable.
	TTL time.Duration

	// KeyPrefix namespaces share keys, "decviz:share:" by default.
	KeyPrefix string

	// MaxPayloadBytes rejects larger payloads. Zero disables the limit.
	MaxPayloadBytes int

	// Compression enables ZSTD compression of badger tables.
	Compression bool

	// SyncWrites enables synchronous writes.
	SyncWrites bool
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("TTL must be positive, got %s", c.TTL)
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("KeyPrefix must not be empty")
	}
	if c.MaxPayloadBytes < 0 {
		return fmt.Errorf("MaxPayloadBytes must be non-negative, got %d", c.MaxPayloadBytes)
	}
	return nil
}

// DefaultConfig returns the configuration used by the HTTP server.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:         dataDir,
		TTL:             30 * 24 * time.Hour,
		KeyPrefix:       "decviz:share:",
		MaxPayloadBytes: 1 << 20, // 1MB
		Compression:     true,
	}
}

// buildBadgerOptions converts Config to badger.Options.
func buildBadgerOptions(cfg *Config) badger.Options {
	if cfg.InMemory {
		return badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "share")).WithLogger(nil)

	// Payloads are small and written once.
	opts.ValueLogFileSize = 64 << 20 // 64MB
	opts.NumCompactors = 2
	opts.SyncWrites = cfg.SyncWrites

	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}
	return opts
}
