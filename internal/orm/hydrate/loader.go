// Package hydrate loads records from SQL databases into attribute sets and
// writes their changes back.
package hydrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/schema"
	"github.com/conduit-lang/attributes/internal/orm/tracking"
)

// DB is the subset of *sql.DB and *sql.Tx the loader needs
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Placeholder renders the nth (1-based) bind parameter
type Placeholder func(n int) string

// Dollar renders PostgreSQL style placeholders
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders SQLite and MySQL style placeholders
func Question(int) string { return "?" }

// Config holds loader settings
type Config struct {
	Placeholder Placeholder
	Logger      *zap.Logger
}

// DefaultConfig returns PostgreSQL placeholders and a no-op logger
func DefaultConfig() Config {
	return Config{
		Placeholder: Dollar,
		Logger:      zap.NewNop(),
	}
}

// Loader reads and writes records of one resource
type Loader struct {
	db       DB
	resource *schema.ResourceSchema
	builder  *attribute.Builder
	config   Config
}

// NewLoader creates a loader for resource
func NewLoader(db DB, resource *schema.ResourceSchema, builder *attribute.Builder, config Config) *Loader {
	if config.Placeholder == nil {
		config.Placeholder = Dollar
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Loader{
		db:       db,
		resource: resource,
		builder:  builder,
		config:   config,
	}
}

func (l *Loader) table() string {
	return pq.QuoteIdentifier(l.resource.TableName)
}

// Find retrieves a record by its primary key
func (l *Loader) Find(ctx context.Context, id interface{}) (*attribute.Set, error) {
	pk, err := l.resource.GetPrimaryKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, l.resource.Name)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s LIMIT 1",
		l.table(), pq.QuoteIdentifier(pk.Name), l.config.Placeholder(1))

	sets, err := l.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, ErrNotFound
	}
	return sets[0], nil
}

// FindAll retrieves all records matching the given equality conditions
func (l *Loader) FindAll(ctx context.Context, conditions map[string]interface{}) ([]*attribute.Set, error) {
	fields := make([]string, 0, len(conditions))
	for field := range conditions {
		if !l.resource.HasField(field) {
			return nil, fmt.Errorf("invalid field %s: %w", field, &attribute.MissingAttributeError{Name: field})
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	query := fmt.Sprintf("SELECT * FROM %s", l.table())
	values := make([]interface{}, 0, len(fields))
	if len(fields) > 0 {
		clauses := make([]string, len(fields))
		for i, field := range fields {
			clauses[i] = fmt.Sprintf("%s = %s", pq.QuoteIdentifier(field), l.config.Placeholder(i+1))
			values = append(values, conditions[field])
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	return l.Query(ctx, query, values...)
}

// Query runs an arbitrary query and hydrates every returned row
func (l *Loader) Query(ctx context.Context, query string, args ...interface{}) ([]*attribute.Set, error) {
	l.config.Logger.Debug("query", zap.String("resource", l.resource.Name), zap.String("sql", query))

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", ConvertDBError(err))
	}
	defer rows.Close()

	sets, err := ScanRows(rows, l.builder)
	if err != nil {
		return nil, fmt.Errorf("failed to scan query results: %w", ConvertDBError(err))
	}
	return sets, nil
}

// Create inserts every initialized attribute of set, then rebases the set on
// what was written
func (l *Loader) Create(ctx context.Context, set *attribute.Set) error {
	columns := set.Keys()
	if len(columns) == 0 {
		return fmt.Errorf("no attributes to insert into %s", l.resource.Name)
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, name := range columns {
		attr, _ := set.Get(name)
		value, err := attr.ValueForDatabase()
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", name, err)
		}
		quoted[i] = pq.QuoteIdentifier(name)
		placeholders[i] = l.config.Placeholder(i + 1)
		values[i] = value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		l.table(), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	l.config.Logger.Debug("insert", zap.String("resource", l.resource.Name), zap.Strings("columns", columns))

	if _, err := l.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to create record: %w", ConvertDBError(err))
	}
	return set.ForgetAssignments()
}

// Update writes only the changed attributes tracked by ct and resets the
// tracker. It returns false without touching the database when nothing
// changed.
func (l *Loader) Update(ctx context.Context, ct *tracking.ChangeTracker) (bool, error) {
	pk, err := l.resource.GetPrimaryKey()
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrNoPrimaryKey, l.resource.Name)
	}

	fields, err := ct.ChangedFields()
	if err != nil {
		return false, err
	}
	if len(fields) == 0 {
		return false, nil
	}

	data, err := ct.GetChangedData()
	if err != nil {
		return false, err
	}

	// Match the row by the key it was loaded with
	pkAttr, ok := ct.Set().Get(pk.Name)
	if !ok {
		return false, &attribute.MissingAttributeError{Name: pk.Name}
	}
	id, err := pkAttr.OriginalValueForDatabase()
	if err != nil {
		return false, err
	}
	if id == attribute.UninitializedValue {
		return false, fmt.Errorf("%s has no stored %s", l.resource.Name, pk.Name)
	}

	clauses := make([]string, len(fields))
	values := make([]interface{}, 0, len(fields)+1)
	for i, field := range fields {
		clauses[i] = fmt.Sprintf("%s = %s", pq.QuoteIdentifier(field), l.config.Placeholder(i+1))
		values = append(values, data[field])
	}
	values = append(values, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		l.table(), strings.Join(clauses, ", "), pq.QuoteIdentifier(pk.Name), l.config.Placeholder(len(fields)+1))

	l.config.Logger.Debug("update", zap.String("resource", l.resource.Name), zap.Strings("columns", fields))

	result, err := l.db.ExecContext(ctx, query, values...)
	if err != nil {
		return false, fmt.Errorf("failed to update record: %w", ConvertDBError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, ErrNotFound
	}

	return true, ct.Reset()
}
