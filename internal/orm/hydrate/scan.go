package hydrate

import (
	"database/sql"
	"fmt"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
)

// scanRow reads the current row into positional values
func scanRow(rows *sql.Rows, width int) ([]interface{}, error) {
	values := make([]interface{}, width)
	valuePtrs := make([]interface{}, width)
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	// Drivers may reuse byte buffers between rows
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
	}
	return values, nil
}

// ScanRows hydrates every remaining row into its own attribute set. Columns
// keep the order the query returned them in.
func ScanRows(rows *sql.Rows, builder *attribute.Builder) ([]*attribute.Set, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []*attribute.Set
	for rows.Next() {
		values, err := scanRow(rows, len(columns))
		if err != nil {
			return nil, err
		}

		set, err := builder.BuildFromRow(columns, values)
		if err != nil {
			return nil, fmt.Errorf("failed to build attributes: %w", err)
		}
		results = append(results, set)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
