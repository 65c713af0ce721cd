package schema

import (
	"regexp"
	"strings"

	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

var identifier_regexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func IsValidIdentifier(name string) bool {
	return identifier_regexp.MatchString(name)
}

type column struct {
	name     string
	col_type types.ColumnType
}

// CreateTable validates name and column definitions ("name:type") and adds
// the table to metadata with ID:int prepended. Nothing is mutated on error.
func CreateTable(metadata *Metadata, name string, column_defs []string) (*Metadata, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewSchemaError(types.EmptyName, "Table name cannot be empty")
	}
	if !IsValidIdentifier(name) {
		return nil, invalidIdentifierError("Table", name)
	}
	if metadata.Has(name) {
		return nil, types.NewSchemaError(types.DuplicateTable, "Table %s already exists", name)
	}

	columns := make([]column, 0, len(column_defs))
	seen := map[string]bool{types.PRIMARY_KEY: true}
	for i, def := range column_defs {
		col, err := parseColumnDef(i, def)
		if err != nil {
			return nil, err
		}
		if seen[col.name] {
			return nil, types.NewSchemaError(types.DuplicateColumn, "Duplicate column %s", col.name)
		}
		seen[col.name] = true
		columns = append(columns, col)
	}

	table := newTableSchema()
	for _, col := range columns {
		table.Columns.Push(col.name, col.col_type)
	}
	metadata.tables.Push(name, table)

	pkg.DebugLog("created table", name, table.ColumnNames())
	return metadata, nil
}

func parseColumnDef(idx int, def string) (column, error) {
	col_name, raw_type, ok := strings.Cut(def, ":")
	if !ok {
		return column{}, types.NewSchemaError(
			types.InvalidColumnFormat,
			"Column %q has an invalid format; use name:type (e.g. name:str)",
			strings.TrimSpace(def),
		)
	}

	col_name = strings.TrimSpace(col_name)
	if col_name == "" {
		return column{}, types.NewSchemaError(types.EmptyName, "Column name cannot be empty (column #%d)", idx+1)
	}
	if !IsValidIdentifier(col_name) {
		return column{}, invalidIdentifierError("Column", col_name)
	}

	col_type, ok := types.ParseColumnType(raw_type)
	if !ok {
		return column{}, types.NewSchemaError(
			types.InvalidType,
			"Invalid type %q for column %s; valid types are int, str, bool, float",
			strings.TrimSpace(raw_type), col_name,
		)
	}

	return column{col_name, col_type}, nil
}

func invalidIdentifierError(what, name string) error {
	return types.NewSchemaError(
		types.InvalidIdentifier,
		"%s name %q contains invalid characters; use letters, digits and underscores, not starting with a digit",
		what, name,
	)
}

// DropTable removes the table definition. Removing the table's records is
// left to the caller.
func DropTable(metadata *Metadata, name string) (*Metadata, error) {
	name = strings.TrimSpace(name)
	if !metadata.Has(name) {
		return nil, &types.NotFoundError{Table: name}
	}
	metadata.tables.Delete(name)
	pkg.DebugLog("dropped table", name)
	return metadata, nil
}

// ListTables returns table names in creation order.
func ListTables(metadata *Metadata) []string {
	return metadata.Names()
}

func DescribeTable(metadata *Metadata, name string) (*TableSchema, error) {
	name = strings.TrimSpace(name)
	if !metadata.Has(name) {
		return nil, &types.NotFoundError{Table: name}
	}
	return metadata.Get(name), nil
}

type RecordLoader interface {
	LoadRecords(table string) ([]types.Record, error)
}

type TableInfo struct {
	Name        string   `json:"name"`
	Columns     *Columns `json:"columns"`
	PrimaryKey  string   `json:"primary_key"`
	RecordCount int      `json:"record_count"`
}

// GetTableInfo describes the table and counts its records through store.
// The count is never cached.
func GetTableInfo(metadata *Metadata, store RecordLoader, name string) (*TableInfo, error) {
	table, err := DescribeTable(metadata, name)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	records, err := store.LoadRecords(name)
	if err != nil {
		return nil, err
	}

	return &TableInfo{
		Name:        name,
		Columns:     table.Columns,
		PrimaryKey:  table.PrimaryKey,
		RecordCount: len(records),
	}, nil
}
