package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

const metadata_file = "metadata.json"

// FileStore keeps metadata.json and one <table>.json per table in base.
// Every save rewrites the whole file through a temp file and a rename.
type FileStore struct {
	base string

	// digest of the last bytes this process wrote or read, per file name.
	// A mismatch on the next read means someone else touched the file.
	digests pkg.Map[string, [32]byte]
}

func NewFileStore(base string) (*FileStore, error) {
	if base == "" {
		return nil, errors.New("Must provide a data directory for the json store")
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating data directory %s", base)
	}
	pkg.InfoLog("using json store at", base)
	return &FileStore{base: base, digests: pkg.Map[string, [32]byte]{}}, nil
}

func (s *FileStore) Base() string { return s.base }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) tablePath(table string) string {
	return filepath.Join(s.base, table+".json")
}

// read returns nil, nil when the file doesn't exist.
func (s *FileStore) read(name string) ([]byte, error) {
	path := filepath.Join(s.base, name)
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.digests.Delete(name)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	digest := blake3.Sum256(buf)
	if last, ok := s.digests[name]; ok && last != digest {
		pkg.WarnLog(path, "was modified outside this process since it was last written")
	}
	s.digests.Set(name, digest)
	return buf, nil
}

func (s *FileStore) write(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}

	path := filepath.Join(s.base, name)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	s.digests.Set(name, blake3.Sum256(buf.Bytes()))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	tmp_name := tmp.Name()
	defer os.Remove(tmp_name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "syncing %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	if err := os.Chmod(tmp_name, 0644); err != nil {
		return errors.Wrapf(err, "setting mode of %s", path)
	}
	return errors.Wrapf(os.Rename(tmp_name, path), "replacing %s", path)
}

func (s *FileStore) LoadMetadata() (*schema.Metadata, error) {
	buf, err := s.read(metadata_file)
	if err != nil {
		return nil, err
	}

	metadata := schema.NewMetadata()
	if len(bytes.TrimSpace(buf)) == 0 {
		return metadata, nil
	}
	if err := json.Unmarshal(buf, metadata); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filepath.Join(s.base, metadata_file))
	}
	return metadata, nil
}

func (s *FileStore) SaveMetadata(metadata *schema.Metadata) error {
	if metadata == nil {
		return errors.New("Cannot save nil metadata")
	}
	return s.write(metadata_file, metadata)
}

func (s *FileStore) LoadRecords(table string) ([]types.Record, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}

	buf, err := s.read(table + ".json")
	if err != nil {
		return nil, err
	}
	records := []types.Record{}
	if len(bytes.TrimSpace(buf)) == 0 {
		return records, nil
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.tablePath(table))
	}
	if records == nil {
		records = []types.Record{}
	}
	return records, nil
}

func (s *FileStore) SaveRecords(table string, records []types.Record) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	if records == nil {
		records = []types.Record{}
	}
	return s.write(table+".json", records)
}

func (s *FileStore) DropRecords(table string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	s.digests.Delete(table + ".json")
	err := os.Remove(s.tablePath(table))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", s.tablePath(table))
	}
	return nil
}
