// Package schema is the single source of truth for the registry's table
// shapes. Every dynamic table or column identifier used in SQL text must be
// resolved through a Registry before it is placed into a statement; raw
// external strings never reach query construction.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validation errors detected before any statement is issued.
var (
	ErrUnknownTable      = errors.New("unknown table")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidFieldValue = errors.New("invalid field value")
)

// Kind is the semantic type of a column.
type Kind int

const (
	Text Kind = iota
	Integer
	Real
	Boolean
	Date
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	}
	return "unknown"
}

// Numeric reports whether values of this kind compare by equality rather
// than substring in search and filter operations.
func (k Kind) Numeric() bool {
	return k == Integer || k == Real
}

// Column describes one table column.
type Column struct {
	Name    string
	Kind    Kind
	NotNull bool
	// References names the parent table for a foreign-key column, "" otherwise.
	References string
}

// Table describes one registered table.
type Table struct {
	Name    string
	Columns []Column
	// CascadeChildren lists the tables whose rows are deleted together with
	// a row of this table.
	CascadeChildren []string
}

// Column returns the named column description.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Registry maps table names to their descriptions.
type Registry struct {
	tables map[string]*Table
	order  []string
}

// NewRegistry builds a registry over the given tables.
func NewRegistry(tables ...*Table) *Registry {
	r := &Registry{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		r.tables[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r
}

// Describe returns the description of the named table.
func (r *Registry) Describe(table string) (*Table, error) {
	t, ok := r.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return t, nil
}

// ValidateField resolves a column of a registered table. It is the gate every
// dynamic identifier passes through before SQL construction.
func (r *Registry) ValidateField(table, field string) (*Column, error) {
	t, err := r.Describe(table)
	if err != nil {
		return nil, err
	}
	c, ok := t.Column(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q in table %q", ErrUnknownField, field, table)
	}
	return c, nil
}

// Tables returns the registered table names in registration order.
func (r *Registry) Tables() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Coerce converts an external textual input into the column's semantic type.
// An empty string on a nullable column coerces to nil.
func (r *Registry) Coerce(table, field, raw string) (any, error) {
	c, err := r.ValidateField(table, field)
	if err != nil {
		return nil, err
	}
	if raw == "" && !c.NotNull {
		return nil, nil
	}
	switch c.Kind {
	case Text:
		return raw, nil
	case Integer:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer for %s.%s", ErrInvalidFieldValue, raw, table, field)
		}
		return n, nil
	case Real:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number for %s.%s", ErrInvalidFieldValue, raw, table, field)
		}
		return f, nil
	case Boolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean for %s.%s", ErrInvalidFieldValue, raw, table, field)
	case Date:
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(raw)); err != nil {
			return nil, fmt.Errorf("%w: %q is not a date (want YYYY-MM-DD) for %s.%s", ErrInvalidFieldValue, raw, table, field)
		}
		return strings.TrimSpace(raw), nil
	}
	return nil, fmt.Errorf("%w: unsupported kind for %s.%s", ErrInvalidFieldValue, table, field)
}
