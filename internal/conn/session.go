package conn

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tobsdb/tdblite/internal/parser"
	"github.com/tobsdb/tdblite/internal/query"
	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/storage"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

// Confirmer is asked before DROP and DELETE run. Returning false cancels the
// command. A nil Confirmer confirms everything.
type Confirmer func(op parser.Operation) bool

func AlwaysConfirm(parser.Operation) bool { return true }
func NeverConfirm(parser.Operation) bool  { return false }

// Session owns the store for one database and runs one command at a time.
// Every command reloads metadata from the store, so nothing but the select
// cache outlives a call.
type Session struct {
	locker sync.Mutex

	store storage.Store
	exec  *query.Executor
	cache *SelectCache
}

func NewSession(store storage.Store, cache_size int) *Session {
	return &Session{
		store: store,
		exec:  query.NewExecutor(store),
		cache: NewSelectCache(cache_size),
	}
}

func (s *Session) GetLocker() *sync.Mutex { return &s.locker }

func (s *Session) Cache() *SelectCache { return s.cache }

func (s *Session) Close() error { return s.store.Close() }

// Execute parses and runs one command line.
func (s *Session) Execute(line string, confirm Confirmer) Response {
	op, err := parser.Parse(line)
	if err != nil {
		pkg.DebugLog("parse failed:", err)
		return ErrorResponse(err)
	}
	return s.Run(op, confirm)
}

// Run executes op and turns whatever happens into a Response. It never panics.
func (s *Session) Run(op parser.Operation, confirm Confirmer) Response {
	return pkg.LockWrapResult(s, func() Response { return s.guard(op, confirm) })
}

func (s *Session) guard(op parser.Operation, confirm Confirmer) (res Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			pkg.ErrorLog("recovered from panic while running", op.Kind(), r)
			res = NewErrorResponse(http.StatusInternalServerError, fmt.Sprint(r))
		}
		pkg.DebugLog(op.Kind(), op.TableName(), "took", time.Since(start))
	}()

	if op.Kind().IsDestructive() && confirm != nil && !confirm(op) {
		pkg.InfoLog(op.Kind(), op.TableName(), "cancelled")
		return NewErrorResponse(StatusCancelled, "Operation cancelled")
	}

	res, err := s.run(op)
	if err != nil {
		res = ErrorResponse(err)
		if res.Status >= http.StatusInternalServerError {
			pkg.ErrorLog(op.Kind(), op.TableName(), "failed:", err)
		} else {
			pkg.DebugLog(op.Kind(), op.TableName(), "failed:", err)
		}
	}
	return res
}

func (s *Session) run(op parser.Operation) (Response, error) {
	metadata, err := s.store.LoadMetadata()
	if err != nil {
		return Response{}, err
	}

	switch op := op.(type) {
	case parser.CreateOp:
		return s.create(metadata, op)
	case parser.DropOp:
		return s.drop(metadata, op)
	case parser.ListOp:
		tables := schema.ListTables(metadata)
		return NewResponse(http.StatusOK, fmt.Sprintf("%d tables", len(tables)), tables), nil
	case parser.InsertOp:
		id, err := s.exec.Insert(metadata, op.Table, op.Values)
		if err != nil {
			return Response{}, err
		}
		s.cache.Invalidate(op.Table)
		return NewResponse(
			http.StatusCreated,
			fmt.Sprintf("Record %d inserted into %s", id, op.Table),
			map[string]int{"ID": id},
		), nil
	case parser.SelectOp:
		return s.selectRecords(metadata, op)
	case parser.UpdateOp:
		res, err := s.exec.Update(metadata, op.Table, op.Set, op.Where)
		if err != nil {
			return Response{}, err
		}
		if res.Count > 0 {
			s.cache.Invalidate(op.Table)
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Updated %d records in %s", res.Count, op.Table), res), nil
	case parser.DeleteOp:
		res, err := s.exec.Delete(metadata, op.Table, op.Where)
		if err != nil {
			return Response{}, err
		}
		if res.Count > 0 {
			s.cache.Invalidate(op.Table)
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Deleted %d records from %s", res.Count, op.Table), res), nil
	case parser.InfoOp:
		info, err := s.exec.Info(metadata, op.Table)
		if err != nil {
			return Response{}, err
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Table %s", info.Name), info), nil
	}

	return Response{}, fmt.Errorf("Unsupported operation: %s", op.Kind())
}

func (s *Session) create(metadata *schema.Metadata, op parser.CreateOp) (Response, error) {
	metadata, err := schema.CreateTable(metadata, op.Table, op.Columns)
	if err != nil {
		return Response{}, err
	}
	t_schema := metadata.Get(op.Table)

	// records first: a table that is in metadata always has a record store
	if err := s.store.SaveRecords(op.Table, nil); err != nil {
		return Response{}, err
	}
	if err := s.store.SaveMetadata(metadata); err != nil {
		return Response{}, err
	}
	s.cache.Invalidate(op.Table)

	return NewResponse(http.StatusCreated, fmt.Sprintf("Table %s created", op.Table), t_schema), nil
}

func (s *Session) drop(metadata *schema.Metadata, op parser.DropOp) (Response, error) {
	metadata, err := schema.DropTable(metadata, op.Table)
	if err != nil {
		return Response{}, err
	}
	if err := s.store.SaveMetadata(metadata); err != nil {
		return Response{}, err
	}
	if err := s.store.DropRecords(op.Table); err != nil {
		return Response{}, err
	}
	s.cache.Invalidate(op.Table)

	return NewResponse(http.StatusOK, fmt.Sprintf("Table %s dropped", op.Table), nil), nil
}

func (s *Session) selectRecords(metadata *schema.Metadata, op parser.SelectOp) (Response, error) {
	// a table dropped from metadata by hand must not be served from cache
	if !metadata.Has(op.Table) {
		return Response{}, &types.NotFoundError{Table: op.Table}
	}

	res, ok := s.cache.Get(op.Table, op.Where)
	if !ok {
		var err error
		res, err = s.exec.Select(metadata, op.Table, op.Where)
		if err != nil {
			return Response{}, err
		}
		s.cache.Add(op.Table, op.Where, res)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Found %d records", res.Count), res.Records), nil
}

// TableColumns returns the declared columns of table, ID first.
func (s *Session) TableColumns(table string) ([]string, error) {
	s.locker.Lock()
	defer s.locker.Unlock()

	metadata, err := s.store.LoadMetadata()
	if err != nil {
		return nil, err
	}
	t_schema, err := schema.DescribeTable(metadata, table)
	if err != nil {
		return nil, err
	}
	return t_schema.ColumnNames(), nil
}
