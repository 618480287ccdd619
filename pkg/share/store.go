// Package share persists shared editor histories under short random ids.
package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/decviz/pkg/common/errors"
	"github.com/google/uuid"
	"github.com/klauspost/compress/s2"
)

// IDLength is the length of generated share ids.
const IDLength = 8

const maxIDAttempts = 5

// Store keeps share payloads in BadgerDB with a per-entry TTL.
type Store struct {
	db  *badger.DB
	cfg *Config
	// newID is replaced in tests to force collisions.
	newID func() string
}

// Open opens the share store with the given configuration.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid share config: %w", err)
	}
	db, err := badger.Open(buildBadgerOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open share store: %w", err)
	}
	slog.Info("share store opened", "dir", cfg.DataDir, "inMemory", cfg.InMemory, "ttl", cfg.TTL)
	return &Store{db: db, cfg: cfg, newID: randomID}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	slog.Info("share store closed")
	return s.db.Close()
}

// ValidatePayload checks that payload is a JSON object with an "entries" array.
func ValidatePayload(payload []byte) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil || body == nil {
		return fmt.Errorf("%w: payload must be a JSON object", errors.ErrInvalidInput)
	}
	entries, ok := body["entries"]
	if !ok {
		return fmt.Errorf("%w: payload has no entries", errors.ErrInvalidInput)
	}
	if trimmed := bytes.TrimSpace(entries); len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: entries must be an array", errors.ErrInvalidInput)
	}
	return nil
}

// Save validates and stores payload, returning its new id.
func (s *Store) Save(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.cfg.MaxPayloadBytes > 0 && len(payload) > s.cfg.MaxPayloadBytes {
		return "", fmt.Errorf("%w: payload exceeds %d bytes", errors.ErrInvalidInput, s.cfg.MaxPayloadBytes)
	}
	if err := ValidatePayload(payload); err != nil {
		return "", err
	}

	compressed := s2.Encode(nil, payload)

	for range maxIDAttempts {
		id := s.newID()
		key := s.key(id)

		err := s.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(key); err == nil {
				return errIDTaken
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			return txn.SetEntry(badger.NewEntry(key, compressed).WithTTL(s.cfg.TTL))
		})
		if err == errIDTaken {
			slog.Debug("share id collision", "id", id)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to save share: %w", err)
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: no free share id after %d attempts", errors.ErrInternal, maxIDAttempts)
}

// Load returns the payload stored under id. Unknown and expired ids return
// errors.ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", errors.ErrInvalidInput)
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: share %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load share: %w", err)
	}

	payload, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress share: %w", err)
	}
	return payload, nil
}

func (s *Store) key(id string) []byte {
	return []byte(s.cfg.KeyPrefix + id)
}

var errIDTaken = fmt.Errorf("share id taken")

func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}
