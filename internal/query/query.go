// Package query executes record operations against a table. Every call loads
// the whole table from the record store and, when it changes anything, saves
// the whole table back.
package query

import (
	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/storage"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

type Executor struct {
	Records storage.RecordStore
}

func NewExecutor(records storage.RecordStore) *Executor {
	return &Executor{Records: records}
}

type Result struct {
	Records []types.Record `json:"records,omitempty"`
	IDs     []int          `json:"ids"`
	Count   int            `json:"count"`
}

func newResult(records []types.Record, include_records bool) *Result {
	res := &Result{IDs: types.RecordIDs(records), Count: len(records)}
	if include_records {
		res.Records = records
	}
	return res
}

// loadTable returns the table's schema and its records with values brought
// back to their column types.
func (e *Executor) loadTable(metadata *schema.Metadata, table string) (*schema.TableSchema, []types.Record, error) {
	t_schema, err := schema.DescribeTable(metadata, table)
	if err != nil {
		return nil, nil, err
	}
	records, err := e.Records.LoadRecords(table)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range records {
		t_schema.NormalizeRecord(r)
	}
	return t_schema, records, nil
}

// Insert converts raw values positionally against the table's data columns
// and appends the record with the next ID.
func (e *Executor) Insert(metadata *schema.Metadata, table string, raw []string) (int, error) {
	t_schema, records, err := e.loadTable(metadata, table)
	if err != nil {
		return 0, err
	}

	columns := t_schema.DataColumns()
	if len(raw) != len(columns) {
		return 0, &types.ArityError{Expected: len(columns), Actual: len(raw)}
	}

	record := make(types.Record, len(columns)+1)
	for i, col_name := range columns {
		col_type, _ := t_schema.ColumnType(col_name)
		value, err := types.Convert(raw[i], col_type, col_name)
		if err != nil {
			return 0, err
		}
		record.Set(col_name, value)
	}

	id := nextID(records)
	types.SetPrimaryKey(record, id)

	if err := e.Records.SaveRecords(table, append(records, record)); err != nil {
		return 0, err
	}
	pkg.DebugLog("inserted", id, "into", table)
	return id, nil
}

// nextID is one past the highest ID in use. IDs freed by deleting the
// highest records are handed out again.
func nextID(records []types.Record) int {
	max_id := 0
	for _, r := range records {
		if id := types.GetPrimaryKey(r); id > max_id {
			max_id = id
		}
	}
	return max_id + 1
}

// Select never writes. A nil clause selects every record.
func (e *Executor) Select(metadata *schema.Metadata, table string, where types.Clause) (*Result, error) {
	t_schema, records, err := e.loadTable(metadata, table)
	if err != nil {
		return nil, err
	}

	match, err := compileClause(t_schema, where)
	if err != nil {
		return nil, err
	}

	return newResult(pkg.Filter(records, match), true), nil
}

// Update applies set to every matching record, in order. The table is only
// saved when something matched and changed, and not at all when a value fails
// to convert.
func (e *Executor) Update(metadata *schema.Metadata, table string, set []types.Assignment, where types.Clause) (*Result, error) {
	t_schema, records, err := e.loadTable(metadata, table)
	if err != nil {
		return nil, err
	}

	match, err := compileClause(t_schema, where)
	if err != nil {
		return nil, err
	}

	set = pkg.Filter(set, func(a types.Assignment) bool {
		if a.Column == t_schema.PrimaryKey {
			pkg.WarnLog("ignoring assignment to", a.Column, "in update of", table)
			return false
		}
		return true
	})
	if len(set) == 0 {
		// nothing left to change
		return newResult([]types.Record{}, false), nil
	}

	updated := []types.Record{}
	for _, r := range records {
		if !match(r) {
			continue
		}
		for _, a := range set {
			if err := assign(t_schema, r, a); err != nil {
				return nil, err
			}
		}
		updated = append(updated, r)
	}

	if len(updated) > 0 {
		if err := e.Records.SaveRecords(table, records); err != nil {
			return nil, err
		}
	}
	pkg.DebugLog("updated", len(updated), "records in", table)
	return newResult(updated, false), nil
}

func assign(t_schema *schema.TableSchema, r types.Record, a types.Assignment) error {
	col_type, ok := t_schema.ColumnType(a.Column)
	if !ok {
		// outside the schema: stored as written
		r.Set(a.Column, a.Value)
		return nil
	}
	value, err := types.Convert(a.Value, col_type, a.Column)
	if err != nil {
		return err
	}
	r.Set(a.Column, value)
	return nil
}

func (e *Executor) Delete(metadata *schema.Metadata, table string, where types.Clause) (*Result, error) {
	t_schema, records, err := e.loadTable(metadata, table)
	if err != nil {
		return nil, err
	}

	match, err := compileClause(t_schema, where)
	if err != nil {
		return nil, err
	}

	deleted, remaining := pkg.Partition(records, match)
	if len(deleted) > 0 {
		if err := e.Records.SaveRecords(table, remaining); err != nil {
			return nil, err
		}
	}
	pkg.DebugLog("deleted", len(deleted), "records from", table)
	return newResult(deleted, false), nil
}

func (e *Executor) Info(metadata *schema.Metadata, table string) (*schema.TableInfo, error) {
	return schema.GetTableInfo(metadata, e.Records, table)
}
