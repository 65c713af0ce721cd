package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

const SQLITE_FILE = "tdblite.db"

const sqlite_schema = `
CREATE TABLE IF NOT EXISTS tdb_meta (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	body TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tdb_records (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL
);`

// SQLiteStore keeps the same JSON documents as FileStore, one row each,
// inside a single sqlite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database in dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if dir == "" {
		return nil, errors.New("Must provide a data directory for the sqlite store")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating data directory %s", dir)
	}

	path := filepath.Join(dir, SQLITE_FILE)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	// one writer at a time; sqlite would return SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqlite_schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "initializing %s", path)
	}

	pkg.InfoLog("using sqlite store at", path)
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	return errors.Wrap(s.db.Close(), "closing sqlite store")
}

func (s *SQLiteStore) LoadMetadata() (*schema.Metadata, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM tdb_meta WHERE id = 1`).Scan(&body)
	metadata := schema.NewMetadata()
	if err == sql.ErrNoRows {
		return metadata, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading metadata")
	}
	if err := json.Unmarshal([]byte(body), metadata); err != nil {
		return nil, errors.Wrap(err, "decoding metadata")
	}
	return metadata, nil
}

func (s *SQLiteStore) SaveMetadata(metadata *schema.Metadata) error {
	if metadata == nil {
		return errors.New("Cannot save nil metadata")
	}
	body, err := json.Marshal(metadata)
	if err != nil {
		return errors.Wrap(err, "encoding metadata")
	}
	_, err = s.db.Exec(
		`INSERT INTO tdb_meta (id, body) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body`,
		string(body),
	)
	return errors.Wrap(err, "saving metadata")
}

func (s *SQLiteStore) LoadRecords(table string) ([]types.Record, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}

	records := []types.Record{}
	var body string
	err := s.db.QueryRow(`SELECT body FROM tdb_records WHERE name = ?`, table).Scan(&body)
	if err == sql.ErrNoRows {
		return records, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading records of %s", table)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrapf(err, "decoding records of %s", table)
	}
	if records == nil {
		records = []types.Record{}
	}
	return records, nil
}

func (s *SQLiteStore) SaveRecords(table string, records []types.Record) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	if records == nil {
		records = []types.Record{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "encoding records of %s", table)
	}
	_, err = s.db.Exec(
		`INSERT INTO tdb_records (name, body) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body`,
		table, string(body),
	)
	return errors.Wrapf(err, "saving records of %s", table)
}

func (s *SQLiteStore) DropRecords(table string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM tdb_records WHERE name = ?`, table)
	return errors.Wrapf(err, "dropping records of %s", table)
}
