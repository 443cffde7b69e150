package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/hydrate"
)

// SQLStore keeps snapshots in a key/payload table
type SQLStore struct {
	db          *sql.DB
	placeholder hydrate.Placeholder
	config      Config
}

// NewSQLStore creates a store over an open database
func NewSQLStore(db *sql.DB, placeholder hydrate.Placeholder, config Config) *SQLStore {
	config.normalize()
	if placeholder == nil {
		placeholder = hydrate.Dollar
	}
	return &SQLStore{
		db:          db,
		placeholder: placeholder,
		config:      config,
	}
}

func (s *SQLStore) table() string {
	return pq.QuoteIdentifier(s.config.Table)
}

// Migrate creates the snapshot table if it does not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`, s.table())

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Save upserts the snapshot for key
func (s *SQLStore) Save(ctx context.Context, key string, set *attribute.Set) error {
	payload, err := encode(set, s.config.Format)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (key, payload, updated_at) VALUES (%s, %s, %s) "+
			"ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at",
		s.table(), s.placeholder(1), s.placeholder(2), s.placeholder(3))

	s.config.Logger.Debug("saving snapshot", zap.String("key", key), zap.Int("attributes", set.Len()))

	if _, err := s.db.ExecContext(ctx, query, key, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, hydrate.ConvertDBError(err))
	}
	return nil
}

// Load restores the snapshot for key
func (s *SQLStore) Load(ctx context.Context, key string) (*attribute.Set, error) {
	query := fmt.Sprintf("SELECT payload FROM %s WHERE key = %s", s.table(), s.placeholder(1))

	var payload string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}

	s.config.Logger.Debug("loaded snapshot", zap.String("key", key))
	return decode([]byte(payload), s.config.Format, s.config.Resolver)
}

// Delete removes the snapshot for key. Deleting a missing key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = %s", s.table(), s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
