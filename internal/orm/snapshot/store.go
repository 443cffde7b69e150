// Package snapshot persists attribute sets, provenance included, so a record
// with pending changes can be saved and restored later.
//
// Backends:
//   - PostgreSQL via pgx (postgres:// and postgresql:// URLs)
//   - SQLite via modernc.org/sqlite, or mattn/go-sqlite3 with -tags cgo_sqlite
//     (sqlite:// URLs)
//   - Redis (redis:// and rediss:// URLs)
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/codec"
	"github.com/conduit-lang/attributes/internal/orm/hydrate"
)

// Store saves and restores attribute sets by key
type Store interface {
	// Save stores the set under key, replacing any previous snapshot
	Save(ctx context.Context, key string, set *attribute.Set) error

	// Load restores the set stored under key
	Load(ctx context.Context, key string) (*attribute.Set, error)

	// Delete removes the snapshot stored under key
	Delete(ctx context.Context, key string) error

	// Close releases the backend connection
	Close() error
}

// ErrNotFound is returned by Load when no snapshot exists for a key
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "snapshot not found: " + e.Key
}

// IsNotFound checks if an error is a missing snapshot
func IsNotFound(err error) bool {
	var notFound ErrNotFound
	return errors.As(err, &notFound)
}

// Config holds store configuration
type Config struct {
	// URL selects the backend by scheme
	URL string
	// Table is the SQL table holding snapshots
	Table string
	// Prefix is prepended to Redis keys
	Prefix string
	// TTL expires Redis snapshots; zero keeps them forever
	TTL time.Duration
	// Format is the payload encoding
	Format codec.Format
	// Resolver turns stored type names back into types
	Resolver codec.TypeResolver
	// Logger receives store operations at debug level
	Logger *zap.Logger
}

// DefaultConfig returns a default store configuration
func DefaultConfig() Config {
	return Config{
		URL:    "sqlite://attributes.db",
		Table:  "attribute_snapshots",
		Prefix: "attributes:",
		Format: codec.FormatJSON,
		Logger: zap.NewNop(),
	}
}

func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.Table == "" {
		c.Table = defaults.Table
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.Logger == nil {
		c.Logger = defaults.Logger
	}
}

// SQLiteDriver returns the registered SQLite driver name
func SQLiteDriver() string {
	return sqliteDriver
}

// SQLiteDriverType returns "cgo" for mattn/go-sqlite3, "purego" for
// modernc.org/sqlite
func SQLiteDriverType() string {
	return sqliteDriverType
}

// Open connects to the backend named by cfg.URL. SQL backends create their
// table if it does not exist.
func Open(ctx context.Context, cfg Config) (Store, error) {
	cfg.normalize()

	scheme, _, ok := strings.Cut(cfg.URL, "://")
	if !ok {
		return nil, fmt.Errorf("invalid snapshot url %q: missing scheme", cfg.URL)
	}

	switch scheme {
	case "postgres", "postgresql":
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, db, hydrate.Dollar, cfg)

	case "sqlite":
		db, err := sql.Open(sqliteDriver, sqlitePath(cfg.URL))
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, db, hydrate.Question, cfg)

	case "redis", "rediss":
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client, cfg), nil

	default:
		return nil, fmt.Errorf("unsupported snapshot backend %q", scheme)
	}
}

func openSQL(ctx context.Context, db *sql.DB, placeholder hydrate.Placeholder, cfg Config) (Store, error) {
	store := NewSQLStore(db, placeholder, cfg)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// sqlitePath strips the scheme from sqlite://path URLs
func sqlitePath(raw string) string {
	path := strings.TrimPrefix(raw, "sqlite://")
	if path == "" {
		return ":memory:"
	}
	return path
}

// encode renders a set as a payload in the configured format
func encode(set *attribute.Set, format codec.Format) ([]byte, error) {
	records, err := codec.EncodeSet(set)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return codec.Marshal(records, format)
}

// decode restores a set from a payload
func decode(data []byte, format codec.Format, resolver codec.TypeResolver) (*attribute.Set, error) {
	records, err := codec.Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return codec.DecodeSet(records, resolver)
}
