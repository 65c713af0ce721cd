package schema

import (
	"encoding/json"

	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

type Columns = pkg.InsertSortMap[string, types.ColumnType]

// TableSchema is the persisted definition of one table.
// ID is always the first column.
type TableSchema struct {
	Columns    *Columns `json:"columns"`
	PrimaryKey string   `json:"primary_key"`
}

func newTableSchema() *TableSchema {
	columns := pkg.NewInsertSortMap[string, types.ColumnType]()
	columns.Push(types.PRIMARY_KEY, types.ColumnTypeInt)
	return &TableSchema{Columns: columns, PrimaryKey: types.PRIMARY_KEY}
}

func (t *TableSchema) ColumnType(name string) (types.ColumnType, bool) {
	if t.Columns == nil || !t.Columns.Has(name) {
		return "", false
	}
	return t.Columns.Get(name), true
}

func (t *TableSchema) ColumnNames() []string {
	if t.Columns == nil {
		return []string{}
	}
	return t.Columns.Keys()
}

// DataColumns are the caller-supplied columns, in declaration order, without ID.
func (t *TableSchema) DataColumns() []string {
	return pkg.Filter(t.ColumnNames(), func(name string) bool {
		return name != t.PrimaryKey
	})
}

// NormalizeRecord converts the values of r to the native types of their
// columns, in place. Columns outside the schema keep their value.
func (t *TableSchema) NormalizeRecord(r types.Record) types.Record {
	for name, value := range r {
		if col_type, ok := t.ColumnType(name); ok {
			r[name] = types.Normalize(value, col_type)
		} else {
			r[name] = types.NormalizeUntyped(value)
		}
	}
	return r
}

// Metadata maps table name to schema, in creation order.
type Metadata struct {
	tables *pkg.InsertSortMap[string, *TableSchema]
}

func NewMetadata() *Metadata {
	return &Metadata{pkg.NewInsertSortMap[string, *TableSchema]()}
}

func (m *Metadata) Has(name string) bool         { return m.tables.Has(name) }
func (m *Metadata) Get(name string) *TableSchema { return m.tables.Get(name) }
func (m *Metadata) Len() int                     { return m.tables.Len() }
func (m *Metadata) Names() []string              { return m.tables.Keys() }

// Clone copies the table list; schemas themselves are shared since they are
// never mutated after creation.
func (m *Metadata) Clone() *Metadata {
	return &Metadata{m.tables.Clone()}
}

func (m *Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.tables)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	tables := pkg.NewInsertSortMap[string, *TableSchema]()
	if err := json.Unmarshal(data, tables); err != nil {
		return err
	}
	for _, name := range tables.Keys() {
		t := tables.Get(name)
		if t == nil {
			t = &TableSchema{}
		}
		if t.Columns == nil {
			t.Columns = pkg.NewInsertSortMap[string, types.ColumnType]()
		}
		if t.PrimaryKey == "" {
			t.PrimaryKey = types.PRIMARY_KEY
		}
		tables.Push(name, t)
	}
	m.tables = tables
	return nil
}
