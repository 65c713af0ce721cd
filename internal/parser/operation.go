package parser

import "github.com/tobsdb/tdblite/internal/types"

type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpDrop   OperationKind = "drop"
	OpList   OperationKind = "list"
	OpInsert OperationKind = "insert"
	OpSelect OperationKind = "select"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
	OpInfo   OperationKind = "info"
)

// IsReadOnly reports whether the operation never writes to a store.
func (k OperationKind) IsReadOnly() bool {
	return k == OpList || k == OpSelect || k == OpInfo
}

// IsDestructive reports whether the operation needs confirmation before it runs.
func (k OperationKind) IsDestructive() bool {
	return k == OpDrop || k == OpDelete
}

// Operation is one parsed command. The concrete types below are the only implementations.
type Operation interface {
	Kind() OperationKind
	// TableName is empty for LIST
	TableName() string
}

// CREATE <table> (<col>:<type>, ...)
type CreateOp struct {
	Table string
	// raw "name:type" definitions; validated by the schema registry
	Columns []string
}

// DROP <table>
type DropOp struct{ Table string }

// LIST
type ListOp struct{}

// INSERT <table> VALUES (<v>, ...)
type InsertOp struct {
	Table  string
	Values []string
}

// SELECT <table> [WHERE <col> = <v>]
type SelectOp struct {
	Table string
	// nil when there is no WHERE
	Where types.Clause
}

// UPDATE <table> SET <col>=<v>, ... WHERE <col> = <v>
type UpdateOp struct {
	Table string
	Set   []types.Assignment
	Where types.Clause
}

// DELETE <table> WHERE <col> = <v>
type DeleteOp struct {
	Table string
	Where types.Clause
}

// INFO <table>
type InfoOp struct{ Table string }

func (CreateOp) Kind() OperationKind { return OpCreate }
func (DropOp) Kind() OperationKind   { return OpDrop }
func (ListOp) Kind() OperationKind   { return OpList }
func (InsertOp) Kind() OperationKind { return OpInsert }
func (SelectOp) Kind() OperationKind { return OpSelect }
func (UpdateOp) Kind() OperationKind { return OpUpdate }
func (DeleteOp) Kind() OperationKind { return OpDelete }
func (InfoOp) Kind() OperationKind   { return OpInfo }

func (op CreateOp) TableName() string { return op.Table }
func (op DropOp) TableName() string   { return op.Table }
func (ListOp) TableName() string      { return "" }
func (op InsertOp) TableName() string { return op.Table }
func (op SelectOp) TableName() string { return op.Table }
func (op UpdateOp) TableName() string { return op.Table }
func (op DeleteOp) TableName() string { return op.Table }
func (op InfoOp) TableName() string   { return op.Table }
