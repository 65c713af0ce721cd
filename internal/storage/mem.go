package storage

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	sorted "github.com/tobshub/go-sortedmap"

	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

type memTable = sorted.SortedMap[int, types.Record]

func memTableComparisonFunc(a, b types.Record) bool {
	return types.GetPrimaryKey(a) < types.GetPrimaryKey(b)
}

// MemStore keeps everything in process memory. Nothing survives Close.
// Loads and saves copy, so callers never share records with the store.
type MemStore struct {
	locker sync.Mutex

	// metadata is kept encoded so a load always hands out a fresh copy
	metadata []byte
	tables   pkg.Map[string, *memTable]
}

func NewMemStore() *MemStore {
	return &MemStore{tables: pkg.Map[string, *memTable]{}}
}

func (s *MemStore) GetLocker() *sync.Mutex { return &s.locker }

func (s *MemStore) Close() error {
	pkg.LockWrap(s, func() {
		s.metadata = nil
		s.tables = pkg.Map[string, *memTable]{}
	})
	return nil
}

func (s *MemStore) LoadMetadata() (*schema.Metadata, error) {
	buf := pkg.LockWrapResult(s, func() []byte { return s.metadata })

	metadata := schema.NewMetadata()
	if buf == nil {
		return metadata, nil
	}
	if err := json.Unmarshal(buf, metadata); err != nil {
		return nil, errors.Wrap(err, "decoding in-memory metadata")
	}
	return metadata, nil
}

func (s *MemStore) SaveMetadata(metadata *schema.Metadata) error {
	if metadata == nil {
		return errors.New("Cannot save nil metadata")
	}
	buf, err := json.Marshal(metadata)
	if err != nil {
		return errors.Wrap(err, "encoding metadata")
	}
	pkg.LockWrap(s, func() { s.metadata = buf })
	return nil
}

func (s *MemStore) LoadRecords(table string) ([]types.Record, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}

	s.locker.Lock()
	defer s.locker.Unlock()

	records := []types.Record{}
	m, ok := s.tables[table]
	if !ok {
		return records, nil
	}

	// IterCh errors on an empty map
	iterCh, err := m.IterCh()
	if err != nil {
		return records, nil
	}
	for rec := range iterCh.Records() {
		records = append(records, types.CopyRecord(rec.Val))
	}
	return records, nil
}

// SaveRecords replaces the table's records. The store orders them by ID.
func (s *MemStore) SaveRecords(table string, records []types.Record) error {
	if err := checkTableName(table); err != nil {
		return err
	}

	m := sorted.New[int, types.Record](len(records), memTableComparisonFunc)
	for _, r := range records {
		id := types.GetPrimaryKey(r)
		if !m.Insert(id, types.CopyRecord(r)) {
			return errors.Errorf("Duplicate primary key %d in table %s", id, table)
		}
	}

	pkg.LockWrap(s, func() { s.tables.Set(table, m) })
	return nil
}

func (s *MemStore) DropRecords(table string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	pkg.LockWrap(s, func() { s.tables.Delete(table) })
	return nil
}

// Len reports how many records the table holds without copying them.
func (s *MemStore) Len(table string) int {
	return pkg.LockWrapResult(s, func() int {
		m, ok := s.tables[table]
		if !ok {
			return 0
		}
		return m.Len()
	})
}
