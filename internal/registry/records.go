// Package registry implements schema-validated generic record access and the
// named relationship operations over the housing tables. Table and field
// names are resolved through the schema registry before any SQL is built;
// values always travel as statement parameters.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"housing-registry/internal/schema"
	"housing-registry/internal/storage"
)

// Record is one table row, keyed by column name.
type Record map[string]any

// Repository provides table-name-parameterized access to every registered
// table.
type Repository struct {
	store  *storage.Store
	schema *schema.Registry
	logger *zap.Logger
}

// NewRepository creates a repository over the given store and schema.
func NewRepository(store *storage.Store, reg *schema.Registry, logger *zap.Logger) *Repository {
	return &Repository{store: store, schema: reg, logger: logger}
}

// GetAll returns every row of the table, in store order.
func (r *Repository) GetAll(ctx context.Context, table string) ([]Record, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.ColumnNames(), ", "), t.Name)
	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, err)
	}
	defer rows.Close()

	return scanRecords(rows, t)
}

// GetByID returns the row with the given id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, table string, id int64) (Record, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(t.ColumnNames(), ", "), t.Name)
	rows, err := r.store.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, t)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Insert adds a row and returns its store-assigned id. Every field name is
// validated against the schema; textual inputs are coerced to the column
// kind.
func (r *Repository) Insert(ctx context.Context, table string, fields Record) (int64, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return 0, err
	}
	if err := r.validateFieldNames(t, fields); err != nil {
		return 0, err
	}

	var cols []string
	var placeholders []string
	var args []any
	for _, c := range t.Columns {
		v, ok := fields[c.Name]
		if !ok {
			continue
		}
		typed, err := r.coerceValue(t.Name, &c, v)
		if err != nil {
			return 0, err
		}
		cols = append(cols, c.Name)
		placeholders = append(placeholders, "?")
		args = append(args, typed)
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("%w: no fields given for insert into %q", schema.ErrUnknownField, t.Name)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	res, err := r.store.Execute(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", t.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new id for %s: %w", t.Name, err)
	}
	return id, nil
}

// Update modifies the listed fields of one row. Returns false when no row
// matched the id. Unlisted columns are untouched.
func (r *Repository) Update(ctx context.Context, table string, id int64, fields Record) (bool, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return false, err
	}
	if err := r.validateFieldNames(t, fields); err != nil {
		return false, err
	}
	if len(fields) == 0 {
		return false, nil
	}

	var sets []string
	var args []any
	for _, c := range t.Columns {
		v, ok := fields[c.Name]
		if !ok {
			continue
		}
		typed, err := r.coerceValue(t.Name, &c, v)
		if err != nil {
			return false, err
		}
		sets = append(sets, fmt.Sprintf("%s = ?", c.Name))
		args = append(args, typed)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.Name, strings.Join(sets, ", "))
	res, err := r.store.Execute(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", t.Name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result for %s: %w", t.Name, err)
	}
	return n > 0, nil
}

// Delete removes one row. Returns false when no row matched. Dependent rows
// are removed by the store's ownership cascades.
func (r *Repository) Delete(ctx context.Context, table string, id int64) (bool, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.Name)
	res, err := r.store.Execute(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", t.Name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result for %s: %w", t.Name, err)
	}
	return n > 0, nil
}

// Search matches rows on one field: substring for textual columns, equality
// for numeric columns when text parses as a number, substring otherwise.
func (r *Repository) Search(ctx context.Context, table, field, text string) ([]Record, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return nil, err
	}
	c, err := r.schema.ValidateField(table, field)
	if err != nil {
		return nil, err
	}

	cond := fmt.Sprintf("%s LIKE ?", c.Name)
	arg := any("%" + text + "%")
	if c.Kind.Numeric() {
		if typed, cerr := r.schema.Coerce(t.Name, c.Name, text); cerr == nil {
			cond = fmt.Sprintf("%s = ?", c.Name)
			arg = typed
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(t.ColumnNames(), ", "), t.Name, cond)
	rows, err := r.store.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", t.Name, err)
	}
	defer rows.Close()

	return scanRecords(rows, t)
}

// Filter returns the rows satisfying every given condition: equality on
// numeric and boolean columns, substring on textual ones. Empty or nil
// values impose no constraint.
func (r *Repository) Filter(ctx context.Context, table string, conditions Record) ([]Record, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return nil, err
	}
	if err := r.validateFieldNames(t, conditions); err != nil {
		return nil, err
	}

	var wheres []string
	var args []any
	for _, c := range t.Columns {
		v, ok := conditions[c.Name]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		if c.Kind.Numeric() || c.Kind == schema.Boolean {
			typed, cerr := r.coerceValue(t.Name, &c, v)
			if cerr != nil {
				return nil, cerr
			}
			wheres = append(wheres, fmt.Sprintf("%s = ?", c.Name))
			args = append(args, typed)
		} else {
			wheres = append(wheres, fmt.Sprintf("%s LIKE ?", c.Name))
			args = append(args, fmt.Sprintf("%%%v%%", v))
		}
	}
	if len(wheres) == 0 {
		return r.GetAll(ctx, table)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(t.ColumnNames(), ", "), t.Name, strings.Join(wheres, " AND "))
	rows, err := r.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", t.Name, err)
	}
	defer rows.Close()

	return scanRecords(rows, t)
}

// Sort returns the full table ordered by one field. Tie order is the store's
// and must not be relied on.
func (r *Repository) Sort(ctx context.Context, table, field string, ascending bool) ([]Record, error) {
	t, err := r.schema.Describe(table)
	if err != nil {
		return nil, err
	}
	c, err := r.schema.ValidateField(table, field)
	if err != nil {
		return nil, err
	}

	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s %s",
		strings.Join(t.ColumnNames(), ", "), t.Name, c.Name, direction)
	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sort %s: %w", t.Name, err)
	}
	defer rows.Close()

	return scanRecords(rows, t)
}

// validateFieldNames fails fast on any field outside the table's column set.
func (r *Repository) validateFieldNames(t *schema.Table, fields Record) error {
	for name := range fields {
		if _, ok := t.Column(name); !ok {
			return fmt.Errorf("%w: %q in table %q", schema.ErrUnknownField, name, t.Name)
		}
	}
	return nil
}

// coerceValue normalizes an input value for one column. Strings are coerced
// through the registry; already-typed values pass through.
func (r *Repository) coerceValue(table string, c *schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && c.Kind != schema.Text {
		return r.schema.Coerce(table, c.Name, s)
	}
	return v, nil
}

// scanRecords reads all rows into records, converting driver values to the
// column's semantic type.
func scanRecords(rows *sql.Rows, t *schema.Table) ([]Record, error) {
	records := []Record{}
	values := make([]any, len(t.Columns))
	ptrs := make([]any, len(t.Columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.Name, err)
		}
		rec := make(Record, len(t.Columns))
		for i, c := range t.Columns {
			rec[c.Name] = convertValue(&c, values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", t.Name, err)
	}
	return records, nil
}

// convertValue maps a raw driver value onto the column kind.
func convertValue(c *schema.Column, v any) any {
	if v == nil {
		return nil
	}
	switch c.Kind {
	case schema.Boolean:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		}
	case schema.Real:
		if x, ok := v.(int64); ok {
			return float64(x)
		}
	case schema.Text, schema.Date:
		if x, ok := v.([]byte); ok {
			return string(x)
		}
	}
	return v
}
