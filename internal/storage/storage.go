// Package storage holds the collaborators the core persists through: one
// metadata blob for the whole database and one record blob per table.
//
// None of the stores lock. Two processes working on the same data at once
// are unsupported and can lose writes.
package storage

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
)

type MetadataStore interface {
	LoadMetadata() (*schema.Metadata, error)
	SaveMetadata(metadata *schema.Metadata) error
}

type RecordStore interface {
	// LoadRecords returns an empty slice for a table that has never been saved.
	LoadRecords(table string) ([]types.Record, error)
	SaveRecords(table string, records []types.Record) error
	DropRecords(table string) error
}

type Store interface {
	MetadataStore
	RecordStore
	Close() error
}

type Kind string

const (
	KindJSON   Kind = "json"
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
)

var VALID_KINDS = []Kind{KindJSON, KindMemory, KindSQLite}

// Open creates the store of the given kind. path is the data directory for
// json, the database file for sqlite, and ignored for memory.
func Open(kind Kind, path string) (Store, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindJSON:
		return NewFileStore(path)
	case KindMemory:
		return NewMemStore(), nil
	case KindSQLite:
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("Unknown store kind: %s", kind)
}

func checkTableName(table string) error {
	if !schema.IsValidIdentifier(table) {
		return fmt.Errorf("Invalid table name for storage: %q", table)
	}
	return nil
}
