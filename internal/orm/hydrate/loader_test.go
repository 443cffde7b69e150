package hydrate

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/schema"
	"github.com/conduit-lang/attributes/internal/orm/tracking"
	"github.com/conduit-lang/attributes/internal/orm/types"
)

const postSchema = `
name: Post
table: posts
fields:
  - name: id
    type: int
    primary: true
  - name: title
    type: string
    default: Untitled
  - name: views
    type: int
    nullable: true
`

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupLoader(t *testing.T, db DB, config Config) *Loader {
	t.Helper()

	resource, err := schema.ParseResource([]byte(postSchema))
	require.NoError(t, err)

	builder, err := types.NewRegistry().Builder(resource, nil)
	require.NoError(t, err)

	return NewLoader(db, resource, builder, config)
}

func TestLoaderFind(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "id" = $1 LIMIT 1`)).
		WithArgs(int64(1)).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "views", "legacy"}).
				AddRow(int64(1), "Hello", "12", "x"),
		)

	set, err := loader.Find(context.Background(), int64(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "title", "views", "legacy"}, set.Keys())

	values, err := set.Materialize()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"id":     int64(1),
		"title":  "Hello",
		"views":  int64(12),
		"legacy": "x",
	}, values)

	title, _ := set.Get("title")
	assert.Equal(t, attribute.SourceFromDatabase, title.Source())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderFindNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectQuery(`SELECT \* FROM "posts"`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "views"}))

	_, err := loader.Find(context.Background(), int64(9))
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderFindQuestionPlaceholders(t *testing.T) {
	db, mock := setupTestDB(t)
	config := DefaultConfig()
	config.Placeholder = Question
	loader := setupLoader(t, db, config)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "id" = ? LIMIT 1`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	set, err := loader.Find(context.Background(), int64(2))
	require.NoError(t, err)

	id, err := set.FetchValue("id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	// Columns missing from the row fall back to the declared default
	title, err := set.FetchValue("title")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderFindAll(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "title" = $1 AND "views" = $2`)).
		WithArgs("Hello", int64(12)).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "views"}).
				AddRow(int64(1), "Hello", int64(12)).
				AddRow(int64(2), "Hello", int64(12)),
		)

	sets, err := loader.FindAll(context.Background(), map[string]interface{}{"views": int64(12), "title": "Hello"})
	require.NoError(t, err)
	require.Len(t, sets, 2)

	id, err := sets[1].FetchValue("id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderFindAllUnknownField(t *testing.T) {
	db, _ := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	_, err := loader.FindAll(context.Background(), map[string]interface{}{"nope": 1})
	assert.True(t, attribute.IsMissingAttribute(err))
}

func TestLoaderUpdateWritesOnlyChanges(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectQuery(`SELECT \* FROM "posts"`).
		WithArgs(int64(1)).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "views"}).
				AddRow(int64(1), "Hello", int64(12)),
		)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "title" = $1 WHERE "id" = $2`)).
		WithArgs("Changed", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	set, err := loader.Find(ctx, int64(1))
	require.NoError(t, err)

	ct := tracking.NewChangeTracker(set)
	require.NoError(t, ct.SetFieldValue("title", "Changed"))
	require.NoError(t, ct.SetFieldValue("views", "12"))

	updated, err := loader.Update(ctx, ct)
	require.NoError(t, err)
	assert.True(t, updated)

	has, err := ct.HasChanges()
	require.NoError(t, err)
	assert.False(t, has)

	// Nothing left to write
	updated, err = loader.Update(ctx, ct)
	require.NoError(t, err)
	assert.False(t, updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderUpdateMatchesOriginalKey(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectQuery(`SELECT \* FROM "posts"`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(1), "Hello"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "id" = $1 WHERE "id" = $2`)).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	set, err := loader.Find(ctx, int64(1))
	require.NoError(t, err)

	ct := tracking.NewChangeTracker(set)
	require.NoError(t, ct.SetFieldValue("id", 5))

	_, err = loader.Update(ctx, ct)
	assert.True(t, IsNotFound(err))

	// A failed update keeps the pending change
	changed, err := ct.Changed("id")
	require.NoError(t, err)
	assert.True(t, changed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderCreate(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "posts" ("id", "title", "views") VALUES ($1, $2, $3)`)).
		WithArgs(int64(5), "Untitled", int64(3)).
		WillReturnResult(sqlmock.NewResult(5, 1))

	set := loader.builder.Build()
	require.NoError(t, set.WriteFromUser("id", 5))
	require.NoError(t, set.WriteFromUser("views", "3"))

	require.NoError(t, loader.Create(context.Background(), set))

	views, _ := set.Get("views")
	assert.Equal(t, attribute.SourceFromDatabase, views.Source())
	changed, err := views.IsChanged()
	require.NoError(t, err)
	assert.False(t, changed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderCreateUniqueViolation(t *testing.T) {
	db, mock := setupTestDB(t)
	loader := setupLoader(t, db, DefaultConfig())

	mock.ExpectExec(`INSERT INTO "posts"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (id)=(5) already exists."})

	set := loader.builder.Build()
	require.NoError(t, set.WriteFromUser("id", 5))

	err := loader.Create(context.Background(), set)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// The assignment is still pending
	id, _ := set.Get("id")
	assert.Equal(t, attribute.SourceFromUser, id.Source())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertDBError(t *testing.T) {
	assert.Nil(t, ConvertDBError(nil))
	assert.True(t, IsNotFound(ConvertDBError(sql.ErrNoRows)))

	err := ConvertDBError(&pgconn.PgError{Code: "23502", ColumnName: "title"})
	assert.ErrorIs(t, err, ErrNotNullViolation)
	assert.Contains(t, err.Error(), "column title")

	other := assert.AnError
	assert.Equal(t, other, ConvertDBError(other))
}

func TestScanRowsCopiesBytes(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectQuery("SELECT payload").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow([]byte("one")).
			AddRow([]byte("two")))

	rows, err := db.Query("SELECT payload")
	require.NoError(t, err)
	defer rows.Close()

	builder := attribute.NewBuilder([]attribute.Column{{Name: "payload", Type: types.Binary{}}}, nil, attribute.DefaultBuilderConfig())
	sets, err := ScanRows(rows, builder)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	first, err := sets[0].FetchValue("payload")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), first)
}
