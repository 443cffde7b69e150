package snapshot

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/codec"
	"github.com/conduit-lang/attributes/internal/orm/hydrate"
	"github.com/conduit-lang/attributes/internal/orm/types"
)

// dirtySet returns a record loaded from the database with one pending change
func dirtySet(t *testing.T) *attribute.Set {
	t.Helper()

	builder := attribute.NewBuilder(
		[]attribute.Column{
			{Name: "id", Type: types.Integer{}},
			{Name: "title", Type: types.String{}},
			{Name: "settings", Type: types.JSON{}},
		},
		nil,
		attribute.DefaultBuilderConfig(),
	)
	set, err := builder.BuildFromRow(
		[]string{"id", "title", "settings"},
		[]interface{}{int64(1), "Hello", `{"theme":"dark"}`},
	)
	require.NoError(t, err)
	require.NoError(t, set.WriteFromUser("title", "Changed"))
	return set
}

func assertRestored(t *testing.T, want, got *attribute.Set) {
	t.Helper()

	assert.True(t, want.Equal(got))
	assert.Equal(t, want.Names(), got.Names())

	title, ok := got.Get("title")
	require.True(t, ok)
	changed, err := title.IsChanged()
	require.NoError(t, err)
	assert.True(t, changed)

	original, err := title.OriginalValue()
	require.NoError(t, err)
	assert.Equal(t, "Hello", original)
}

func setupTestRedis(t *testing.T, config Config) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, config)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStoreSaveLoad(t *testing.T) {
	config := DefaultConfig()
	config.Resolver = types.NewRegistry()
	store, mr := setupTestRedis(t, config)
	ctx := context.Background()

	set := dirtySet(t)
	require.NoError(t, store.Save(ctx, "post:1", set))
	assert.True(t, mr.Exists("attributes:post:1"))

	restored, err := store.Load(ctx, "post:1")
	require.NoError(t, err)
	assertRestored(t, set, restored)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"post:1"}, keys)

	require.NoError(t, store.Delete(ctx, "post:1"))
	_, err = store.Load(ctx, "post:1")
	assert.True(t, IsNotFound(err))
}

func TestRedisStoreTTL(t *testing.T) {
	config := DefaultConfig()
	config.Resolver = types.NewRegistry()
	config.TTL = time.Minute
	store, mr := setupTestRedis(t, config)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "post:1", dirtySet(t)))
	assert.Equal(t, time.Minute, mr.TTL("attributes:post:1"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "post:1")
	assert.True(t, IsNotFound(err))
}

func TestRedisStoreYAML(t *testing.T) {
	config := DefaultConfig()
	config.Resolver = types.NewRegistry()
	config.Format = codec.FormatYAML
	store, mr := setupTestRedis(t, config)
	ctx := context.Background()

	set := dirtySet(t)
	require.NoError(t, store.Save(ctx, "post:1", set))

	raw, err := mr.Get("attributes:post:1")
	require.NoError(t, err)
	assert.Contains(t, raw, "source: from_user")

	restored, err := store.Load(ctx, "post:1")
	require.NoError(t, err)
	assertRestored(t, set, restored)
}

func TestRedisStoreMalformedPayload(t *testing.T) {
	config := DefaultConfig()
	config.Resolver = types.NewRegistry()
	store, mr := setupTestRedis(t, config)

	require.NoError(t, mr.Set("attributes:bad", `[{"name":"a","source":"from_cache"}]`))

	_, err := store.Load(context.Background(), "bad")
	assert.True(t, codec.IsMalformedState(err))
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	config := DefaultConfig()
	config.URL = "redis://" + mr.Addr()
	config.Resolver = types.NewRegistry()

	store, err := Open(context.Background(), config)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*RedisStore)
	assert.True(t, ok)
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	config := DefaultConfig()
	config.URL = "sqlite://" + filepath.Join(t.TempDir(), "snapshots.db")
	config.Resolver = types.NewRegistry()
	ctx := context.Background()

	store, err := Open(ctx, config)
	require.NoError(t, err)
	defer store.Close()

	set := dirtySet(t)
	require.NoError(t, store.Save(ctx, "post:1", set))

	// Saving again replaces the snapshot
	require.NoError(t, set.WriteFromUser("title", "Changed again"))
	require.NoError(t, store.Save(ctx, "post:1", set))

	restored, err := store.Load(ctx, "post:1")
	require.NoError(t, err)
	title, err := restored.FetchValue("title")
	require.NoError(t, err)
	assert.Equal(t, "Changed again", title)

	require.NoError(t, store.Delete(ctx, "post:1"))
	_, err = store.Load(ctx, "post:1")
	assert.True(t, IsNotFound(err))
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{URL: "attributes.db"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{URL: "mysql://localhost/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported snapshot backend")
}

func TestSQLStoreQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	config := DefaultConfig()
	config.Resolver = types.NewRegistry()
	store := NewSQLStore(db, hydrate.Dollar, config)
	defer store.Close()

	ctx := context.Background()
	set := dirtySet(t)
	payload, err := encode(set, codec.FormatJSON)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "attribute_snapshots" (key, payload, updated_at) VALUES ($1, $2, $3) ON CONFLICT (key) DO UPDATE`)).
		WithArgs("post:1", string(payload), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM "attribute_snapshots" WHERE key = $1`)).
		WithArgs("post:1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(string(payload)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM "attribute_snapshots" WHERE key = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	require.NoError(t, store.Save(ctx, "post:1", set))

	restored, err := store.Load(ctx, "post:1")
	require.NoError(t, err)
	assertRestored(t, set, restored)

	_, err = store.Load(ctx, "missing")
	assert.True(t, IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteDriverName(t *testing.T) {
	switch SQLiteDriverType() {
	case "purego":
		assert.Equal(t, "sqlite", SQLiteDriver())
	case "cgo":
		assert.Equal(t, "sqlite3", SQLiteDriver())
	default:
		t.Fatalf("unexpected driver type %s", SQLiteDriverType())
	}
}
