package pkg_test

import (
	"encoding/json"
	"testing"

	. "github.com/tobsdb/tdblite/pkg"
	"gotest.tools/assert"
)

func TestFilter(t *testing.T) {
	res := Filter([]int{1, 2, 3, 4, 5, 6}, func(i int) bool {
		return i%2 == 0
	})

	assert.DeepEqual(t, res, []int{2, 4, 6})
}

func TestPartition(t *testing.T) {
	even, odd := Partition([]int{1, 2, 3, 4, 5}, func(i int) bool {
		return i%2 == 0
	})

	assert.DeepEqual(t, even, []int{2, 4})
	assert.DeepEqual(t, odd, []int{1, 3, 5})

	none, all := Partition([]int{1}, func(int) bool { return false })
	assert.Equal(t, len(none), 0)
	assert.DeepEqual(t, all, []int{1})
}

func TestNumToInt(t *testing.T) {
	assert.Equal(t, NumToInt(1), 1)
	assert.Equal(t, NumToInt(int64(7)), 7)
	assert.Equal(t, NumToInt(1.1), 1)
	assert.Equal(t, NumToInt(json.Number("12")), 12)
	assert.Equal(t, NumToInt("3"), 3)
	assert.Equal(t, NumToInt(nil), 0)
	assert.Equal(t, NumToInt(true), 0)
}
