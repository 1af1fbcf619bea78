package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Mode selects whether a namespace handle may write.
type Mode int

const (
	// ReadOnly handles reject Put and Clear.
	ReadOnly Mode = iota
	// ReadWrite handles allow every operation.
	ReadWrite
)

// Store is a namespaced key/value store backed by the settings table.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a Store on an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open returns a handle on namespace in the given mode.
func (s *Store) Open(namespace string, mode Mode) *Namespace {
	return &Namespace{store: s, name: namespace, mode: mode}
}

// Get returns the stored value or def when the key is absent.
func (s *Store) Get(ctx context.Context, namespace, key, def string) (string, error) {
	if err := checkName(namespace, key); err != nil {
		return def, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("reading %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// GetBool returns the stored boolean or def when the key is absent or
// unparsable.
func (s *Store) GetBool(ctx context.Context, namespace, key string, def bool) (bool, error) {
	raw, err := s.Get(ctx, namespace, key, strconv.FormatBool(def))
	if err != nil {
		return def, err
	}
	v, perr := strconv.ParseBool(raw)
	if perr != nil {
		return def, nil
	}
	return v, nil
}

// Put stores value under namespace/key, replacing any previous value.
func (s *Store) Put(ctx context.Context, namespace, key, value string) error {
	return s.PutMany(ctx, namespace, map[string]string{key: value})
}

// PutBool stores a boolean.
func (s *Store) PutBool(ctx context.Context, namespace, key string, value bool) error {
	return s.Put(ctx, namespace, key, strconv.FormatBool(value))
}

// PutMany stores several keys of one namespace atomically.
func (s *Store) PutMany(ctx context.Context, namespace string, values map[string]string) error {
	if namespace == "" {
		return ErrInvalidNamespace
	}
	for key := range values {
		if key == "" {
			return ErrInvalidKey
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting settings transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			namespace, key, value, now,
		)
		if err != nil {
			return fmt.Errorf("writing %s/%s: %w", namespace, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}
	return nil
}

// Clear removes every key in namespace.
func (s *Store) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrInvalidNamespace
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE namespace = ?", namespace); err != nil {
		return fmt.Errorf("clearing %s: %w", namespace, err)
	}
	return nil
}

func checkName(namespace, key string) error {
	if namespace == "" {
		return ErrInvalidNamespace
	}
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

// Namespace is a handle on one settings namespace.
type Namespace struct {
	store *Store
	name  string
	mode  Mode
}

// Name returns the namespace name.
func (n *Namespace) Name() string { return n.name }

// Get returns the value for key or def.
func (n *Namespace) Get(ctx context.Context, key, def string) (string, error) {
	return n.store.Get(ctx, n.name, key, def)
}

// GetBool returns the boolean for key or def.
func (n *Namespace) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	return n.store.GetBool(ctx, n.name, key, def)
}

// Put stores value under key.
func (n *Namespace) Put(ctx context.Context, key, value string) error {
	if n.mode != ReadWrite {
		return ErrReadOnly
	}
	return n.store.Put(ctx, n.name, key, value)
}

// PutBool stores a boolean under key.
func (n *Namespace) PutBool(ctx context.Context, key string, value bool) error {
	if n.mode != ReadWrite {
		return ErrReadOnly
	}
	return n.store.PutBool(ctx, n.name, key, value)
}

// PutMany stores several keys atomically.
func (n *Namespace) PutMany(ctx context.Context, values map[string]string) error {
	if n.mode != ReadWrite {
		return ErrReadOnly
	}
	return n.store.PutMany(ctx, n.name, values)
}

// Clear removes every key in the namespace.
func (n *Namespace) Clear(ctx context.Context) error {
	if n.mode != ReadWrite {
		return ErrReadOnly
	}
	return n.store.Clear(ctx, n.name)
}
