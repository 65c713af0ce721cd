package conn_test

import (
	"net/http"
	"testing"

	. "github.com/tobsdb/tdblite/internal/conn"
	"github.com/tobsdb/tdblite/internal/parser"
	"github.com/tobsdb/tdblite/internal/query"
	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/storage"
	"github.com/tobsdb/tdblite/internal/types"
	"gotest.tools/assert"
	"gotest.tools/assert/cmp"
)

func newTestSession(t *testing.T, cache_size int) *Session {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	assert.NilError(t, err)
	return NewSession(store, cache_size)
}

func mustExec(t *testing.T, s *Session, line string) Response {
	t.Helper()
	res := s.Execute(line, AlwaysConfirm)
	assert.Assert(t, res.Ok(), "%s: %d %s", line, res.Status, res.Message)
	return res
}

func TestSessionScenario(t *testing.T) {
	s := newTestSession(t, 0)

	res := mustExec(t, s, "CREATE users (name:str, age:int)")
	assert.Equal(t, res.Status, http.StatusCreated)
	assert.Equal(t, res.Message, "Table users created")

	res = mustExec(t, s, "INSERT users VALUES ('Ann', 30)")
	assert.DeepEqual(t, res.Data, map[string]int{"ID": 1})

	res = mustExec(t, s, "SELECT users WHERE age = 30")
	assert.DeepEqual(t, res.Data, []types.Record{{"ID": 1, "name": "Ann", "age": 30}})

	res = mustExec(t, s, "UPDATE users SET age=31 WHERE ID=1")
	assert.Equal(t, res.Message, "Updated 1 records in users")

	res = mustExec(t, s, "SELECT users")
	assert.Equal(t, res.Data.([]types.Record)[0]["age"], 31)

	res = mustExec(t, s, "DELETE users WHERE ID=1")
	assert.Equal(t, res.Data.(*query.Result).Count, 1)

	res = mustExec(t, s, "INFO users")
	info := res.Data.(*schema.TableInfo)
	assert.Equal(t, info.RecordCount, 0)
	assert.DeepEqual(t, info.Columns.Keys(), []string{"ID", "name", "age"})
}

func TestSessionErrors(t *testing.T) {
	s := newTestSession(t, 0)
	mustExec(t, s, "CREATE users (age:int)")

	cases := []struct {
		line   string
		status int
		msg    string
	}{
		{"TRUNCATE users", http.StatusBadRequest, "Unknown command: TRUNCATE"},
		{"CREATE users (a:int)", http.StatusConflict, "Table users already exists"},
		{"CREATE t (a:text)", http.StatusBadRequest, `Invalid type "text"`},
		{"INSERT nope VALUES (1)", http.StatusNotFound, "Table nope not found"},
		{"INSERT users VALUES (1, 2)", http.StatusBadRequest, "expected 1, got 2"},
		{"INSERT users VALUES ('x')", http.StatusUnprocessableEntity, "Invalid value for column age"},
		{"DROP nope", http.StatusNotFound, "Table nope not found"},
	}
	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			res := s.Execute(c.line, AlwaysConfirm)
			assert.Equal(t, res.Status, c.status, res.Message)
			assert.Assert(t, cmp.Contains(res.Message, c.msg))
		})
	}
}

func TestSessionConfirmation(t *testing.T) {
	s := newTestSession(t, 0)
	mustExec(t, s, "CREATE users (name:str)")
	mustExec(t, s, "INSERT users VALUES ('Ann')")

	asked := []parser.OperationKind{}
	deny := func(op parser.Operation) bool {
		asked = append(asked, op.Kind())
		return false
	}

	res := s.Execute("DELETE users WHERE ID = 1", deny)
	assert.Equal(t, res.Status, StatusCancelled)
	res = s.Execute("DROP users", deny)
	assert.Equal(t, res.Status, StatusCancelled)

	// non destructive commands never ask
	mustExec(t, s, "INSERT users VALUES ('Bob')")
	res = s.Execute("SELECT users", deny)
	assert.Equal(t, res.Status, http.StatusOK)

	assert.DeepEqual(t, asked, []parser.OperationKind{parser.OpDelete, parser.OpDrop})
	assert.Equal(t, len(res.Data.([]types.Record)), 2)

	res = s.Execute("DROP users", nil)
	assert.Equal(t, res.Status, http.StatusOK)
	res = mustExec(t, s, "LIST")
	assert.DeepEqual(t, res.Data, []string{})
}

func TestSessionDropRemovesRecords(t *testing.T) {
	s := newTestSession(t, 0)
	mustExec(t, s, "CREATE users (name:str)")
	mustExec(t, s, "INSERT users VALUES ('Ann')")
	mustExec(t, s, "DROP users")
	mustExec(t, s, "CREATE users (name:str)")

	res := mustExec(t, s, "SELECT users")
	assert.DeepEqual(t, res.Data, []types.Record{})

	res = mustExec(t, s, "INSERT users VALUES ('Bob')")
	assert.DeepEqual(t, res.Data, map[string]int{"ID": 1})
}

func TestSessionSelectCache(t *testing.T) {
	s := newTestSession(t, 8)
	mustExec(t, s, "CREATE users (name:str)")
	mustExec(t, s, "INSERT users VALUES ('Ann')")

	mustExec(t, s, "SELECT users")
	res := mustExec(t, s, "SELECT users")
	assert.Equal(t, len(res.Data.([]types.Record)), 1)
	hits, misses := s.Cache().Stats()
	assert.Equal(t, hits, 1)
	assert.Equal(t, misses, 1)

	mustExec(t, s, "INSERT users VALUES ('Bob')")
	res = mustExec(t, s, "SELECT users")
	assert.Equal(t, len(res.Data.([]types.Record)), 2)
	hits, misses = s.Cache().Stats()
	assert.Equal(t, hits, 1)
	assert.Equal(t, misses, 2)

	// modifying served records leaves the cached copy alone
	res.Data.([]types.Record)[0]["name"] = "Zed"
	res = mustExec(t, s, "SELECT users")
	assert.Equal(t, res.Data.([]types.Record)[0]["name"], "Ann")

	mustExec(t, s, "DROP users")
	res = s.Execute("SELECT users", nil)
	assert.Equal(t, res.Status, http.StatusNotFound)
}

func TestSessionQuotedValueOutsideSchema(t *testing.T) {
	s := newTestSession(t, 0)
	mustExec(t, s, "CREATE t (a:int)")
	mustExec(t, s, "INSERT t VALUES (1)")

	res := mustExec(t, s, `UPDATE t SET nick="'x'" WHERE ID=1`)
	assert.Equal(t, res.Message, "Updated 1 records in t")

	res = mustExec(t, s, `SELECT t WHERE nick = "'x'"`)
	assert.DeepEqual(t, res.Data, []types.Record{{"ID": 1, "a": 1, "nick": "'x'"}})

	res = mustExec(t, s, "SELECT t WHERE nick = x")
	assert.Equal(t, res.Message, "Found 0 records")
}
