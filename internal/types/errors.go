package types

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is implemented by every error the core returns.
// Status follows HTTP conventions so the websocket transport can forward it as is.
type StatusError interface {
	error
	Status() int
}

type SchemaErrorKind string

const (
	EmptyName           SchemaErrorKind = "EmptyName"
	InvalidIdentifier   SchemaErrorKind = "InvalidIdentifier"
	DuplicateTable      SchemaErrorKind = "DuplicateTable"
	InvalidColumnFormat SchemaErrorKind = "InvalidColumnFormat"
	InvalidType         SchemaErrorKind = "InvalidType"
	DuplicateColumn     SchemaErrorKind = "DuplicateColumn"
)

type SchemaError struct {
	Kind SchemaErrorKind
	msg  string
}

func NewSchemaError(kind SchemaErrorKind, format string, args ...any) *SchemaError {
	return &SchemaError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e SchemaError) Error() string { return e.msg }
func (e SchemaError) Status() int {
	if e.Kind == DuplicateTable {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

type ParseErrorKind string

const (
	UnknownCommand   ParseErrorKind = "UnknownCommand"
	MalformedGrammar ParseErrorKind = "MalformedGrammar"
	MissingClause    ParseErrorKind = "MissingClause"
)

type ParseError struct {
	Kind ParseErrorKind
	msg  string
}

func NewParseError(kind ParseErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e ParseError) Error() string { return e.msg }
func (e ParseError) Status() int   { return http.StatusBadRequest }

type ConversionError struct {
	Column string
	Value  string
	Type   ColumnType
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("Invalid value for column %s: %q is not a valid %s", e.Column, e.Value, e.Type)
}
func (e ConversionError) Status() int { return http.StatusUnprocessableEntity }

type NotFoundError struct {
	Table string
}

func (e NotFoundError) Error() string { return fmt.Sprintf("Table %s not found", e.Table) }
func (e NotFoundError) Status() int   { return http.StatusNotFound }

type ArityError struct {
	Expected int
	Actual   int
}

func (e ArityError) Error() string {
	return fmt.Sprintf("Wrong number of values: expected %d, got %d", e.Expected, e.Actual)
}
func (e ArityError) Status() int { return http.StatusBadRequest }

// ErrorStatus returns the status carried by err, or 500 for anything that
// didn't come from the core (storage failures and the like).
func ErrorStatus(err error) int {
	var s StatusError
	if errors.As(err, &s) {
		return s.Status()
	}
	return http.StatusInternalServerError
}
