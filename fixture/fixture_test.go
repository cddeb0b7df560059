package fixture

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/kbukum/flowkit/pipeline"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(MemoryDSN, WithLogLevel("silent"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func people(t *testing.T, db *gorm.DB) *Table {
	t.Helper()
	table, err := NewTable(context.Background(), db, "(id INTEGER, name TEXT)",
		Row{"id": 1, "name": "alice"},
		Row{"id": 2, "name": "o'brien"},
		Row{"id": 3, "name": nil},
		Row{"id": 4, "name": "dave"},
		Row{"id": 5, "name": "erin"},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	t.Cleanup(func() { _ = table.Close() })
	return table
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(3), "3"},
		{"plain", "'plain'"},
		{"o'brien", "'o''brien'"},
		{2.5, "'2.5'"},
		{true, "'true'"},
	}
	for _, tt := range tests {
		if got := Literal(tt.in); got != tt.want {
			t.Errorf("Literal(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTable_ReadAll(t *testing.T) {
	table := people(t, openDB(t))

	rows, err := table.ReadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	for i, row := range rows {
		if id, ok := row.Int("id"); !ok || id != int64(i+1) {
			t.Errorf("row %d id = %v", i, row["id"])
		}
	}
	if name, _ := rows[1].String("name"); name != "o'brien" {
		t.Errorf("quoted name = %q", name)
	}
	if rows[2]["name"] != nil {
		t.Errorf("NULL name read back as %v", rows[2]["name"])
	}
}

func TestTable_Pager(t *testing.T) {
	table := people(t, openDB(t))
	ctx := context.Background()

	size, err := table.Size(ctx)
	if err != nil || size != 5 {
		t.Fatalf("Size = (%d, %v), want 5", size, err)
	}

	page, err := table.Read(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("page = %d rows, want 2", len(page))
	}
	if id, _ := page[0].Int("id"); id != 2 {
		t.Errorf("first row of window = %d, want 2", id)
	}
}

func TestTable_ReadPipe(t *testing.T) {
	table := people(t, openDB(t))

	windows, err := pipeline.Collect(context.Background(), pipeline.Read[[]Row](table, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	var ids []int64
	for _, w := range windows {
		for _, row := range w {
			id, _ := row.Int("id")
			ids = append(ids, id)
		}
	}
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("ids = %v, want 1..5 in order", ids)
		}
	}
}

func TestTable_Close(t *testing.T) {
	db := openDB(t)
	table, err := NewTable(context.Background(), db, "id INTEGER")
	if err != nil {
		t.Fatal(err)
	}
	if !db.Migrator().HasTable(table.Name()) {
		t.Fatalf("table %s was not created", table.Name())
	}

	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if db.Migrator().HasTable(table.Name()) {
		t.Errorf("table %s still exists after Close", table.Name())
	}
	if err := table.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestTable_UniqueNames(t *testing.T) {
	db := openDB(t)
	a, err := NewTable(context.Background(), db, "(id INTEGER)")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewTable(context.Background(), db, "(id INTEGER)")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if a.Name() == b.Name() {
		t.Errorf("two tables share the name %s", a.Name())
	}
}

func TestTable_InvalidInput(t *testing.T) {
	db := openDB(t)
	if _, err := NewTable(context.Background(), db, "(id INTEGER"); err == nil {
		t.Error("expected error for malformed definition")
	}
	if _, err := NewTable(context.Background(), db, "(id INTEGER)", Row{"missing": 1}); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory("a", "b", "c", "d", "e")

	windows, err := pipeline.Collect(context.Background(), pipeline.Read[[]string](m, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 3 || len(windows[2]) != 1 || windows[2][0] != "e" {
		t.Errorf("windows = %v", windows)
	}
	if m.Reads() != 3 {
		t.Errorf("reads = %d, want 3", m.Reads())
	}

	if _, err := m.Read(context.Background(), 9, 1); err == nil {
		t.Error("expected error for window past the end")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Read(ctx, 0, 1); err == nil {
		t.Error("expected error for cancelled context")
	}
}
