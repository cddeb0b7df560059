package fixture

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/flowkit/pipeline"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Int returns the integer value of col.
func (r Row) Int(col string) (int64, bool) {
	switch v := r[col].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// String returns the text value of col.
func (r Row) String(col string) (string, bool) {
	switch v := r[col].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

var _ pipeline.Pager[[]Row] = (*Table)(nil)

// Table is a uniquely named table created from a literal column definition.
// It is dropped on Close.
type Table struct {
	db   *gorm.DB
	name string

	mu     sync.Mutex
	closed bool
}

// NewTable creates a table named fx_<uuid> with the given column definition,
// for example "(id INTEGER, name TEXT)", and inserts rows.
func NewTable(ctx context.Context, db *gorm.DB, definition string, rows ...Row) (*Table, error) {
	def := strings.TrimSpace(definition)
	if !strings.HasPrefix(def, "(") {
		def = "(" + def + ")"
	}
	t := &Table{
		db:   db,
		name: "fx_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	if err := db.WithContext(ctx).Exec(fmt.Sprintf("CREATE TABLE %s %s", t.name, def)).Error; err != nil {
		return nil, fmt.Errorf("create fixture table: %w", err)
	}
	if err := t.Insert(ctx, rows...); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

// Name returns the generated table name.
func (t *Table) Name() string { return t.name }

// Insert appends rows. Values are written as SQL literals: nil as NULL,
// integers as numbers and everything else as a quoted string.
func (t *Table) Insert(ctx context.Context, rows ...Row) error {
	for i, row := range rows {
		cols := make([]string, 0, len(row))
		for col := range row {
			cols = append(cols, col)
		}
		slices.Sort(cols)

		values := make([]string, len(cols))
		for j, col := range cols {
			values[j] = Literal(row[col])
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			t.name, strings.Join(cols, ","), strings.Join(values, ","))
		if err := t.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("insert fixture row %d into %s: %w", i, t.name, err)
		}
	}
	return nil
}

// ReadAll returns every row in insertion order.
func (t *Table) ReadAll(ctx context.Context) ([]Row, error) {
	return t.query(ctx, t.db.WithContext(ctx).Table(t.name).Order("rowid"))
}

// Size returns the number of rows.
func (t *Table) Size(ctx context.Context) (int, error) {
	var n int64
	if err := t.db.WithContext(ctx).Table(t.name).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return int(n), nil
}

// Read returns the rows in [skip, skip+take) in insertion order.
func (t *Table) Read(ctx context.Context, skip, take int) ([]Row, error) {
	return t.query(ctx, t.db.WithContext(ctx).Table(t.name).Order("rowid").Offset(skip).Limit(take))
}

func (t *Table) query(_ context.Context, q *gorm.DB) ([]Row, error) {
	var raw []map[string]any
	if err := q.Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", t.name, err)
	}
	rows := make([]Row, len(raw))
	for i, r := range raw {
		rows[i] = Row(r)
	}
	return rows, nil
}

// Close drops the table. Calling it again does nothing.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.db.Migrator().DropTable(t.name); err != nil {
		return fmt.Errorf("drop %s: %w", t.name, err)
	}
	return nil
}

// Literal encodes v as a SQL literal.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}
