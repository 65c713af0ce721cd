package pkg_test

import (
	"encoding/json"
	"testing"

	. "github.com/tobsdb/tdblite/pkg"
	"gotest.tools/assert"
)

func TestInsertSortMap(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		m := NewInsertSortMap[string, int]()
		m.Push("c", 1)
		m.Push("a", 2)
		m.Push("b", 3)

		assert.DeepEqual(t, m.Keys(), []string{"c", "a", "b"})
		assert.Equal(t, m.Len(), 3)
		assert.Equal(t, m.Get("a"), 2)
	})

	t.Run("push existing key keeps position", func(t *testing.T) {
		m := NewInsertSortMap[string, int]()
		m.Push("a", 1)
		m.Push("b", 2)
		m.Push("a", 3)

		assert.DeepEqual(t, m.Keys(), []string{"a", "b"})
		assert.Equal(t, m.Get("a"), 3)
	})

	t.Run("delete", func(t *testing.T) {
		m := NewInsertSortMap[string, int]()
		m.Push("a", 1)
		m.Push("b", 2)
		m.Delete("a")
		m.Delete("missing")

		assert.DeepEqual(t, m.Keys(), []string{"b"})
		assert.Assert(t, !m.Has("a"))
	})

	t.Run("clone is independent", func(t *testing.T) {
		m := NewInsertSortMap[string, int]()
		m.Push("a", 1)
		c := m.Clone()
		c.Push("b", 2)

		assert.Equal(t, m.Len(), 1)
		assert.Equal(t, c.Len(), 2)
	})
}

func TestInsertSortMapJSON(t *testing.T) {
	t.Run("marshal keeps order", func(t *testing.T) {
		m := NewInsertSortMap[string, string]()
		m.Push("z", "int")
		m.Push("a", "str")

		buf, err := json.Marshal(m)
		assert.NilError(t, err)
		assert.Equal(t, string(buf), `{"z":"int","a":"str"}`)
	})

	t.Run("unmarshal keeps order", func(t *testing.T) {
		m := NewInsertSortMap[string, string]()
		err := json.Unmarshal([]byte(`{"z": "int", "m": "bool", "a": "str"}`), m)

		assert.NilError(t, err)
		assert.DeepEqual(t, m.Keys(), []string{"z", "m", "a"})
		assert.Equal(t, m.Get("m"), "bool")
	})

	t.Run("nested values", func(t *testing.T) {
		type entry struct {
			Columns *InsertSortMap[string, string] `json:"columns"`
		}
		outer := NewInsertSortMap[string, *entry]()
		err := json.Unmarshal([]byte(`{"b": {"columns": {"ID": "int", "x": "str"}}, "a": {"columns": {}}}`), outer)

		assert.NilError(t, err)
		assert.DeepEqual(t, outer.Keys(), []string{"b", "a"})
		assert.DeepEqual(t, outer.Get("b").Columns.Keys(), []string{"ID", "x"})
	})

	t.Run("not an object", func(t *testing.T) {
		m := NewInsertSortMap[string, string]()
		err := json.Unmarshal([]byte(`["a"]`), m)
		assert.ErrorContains(t, err, "Expected a JSON object")
	})
}
