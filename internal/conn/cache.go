package conn

import (
	"github.com/golang/groupcache/lru"

	"github.com/tobsdb/tdblite/internal/query"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

type selectKey struct {
	table      string
	generation int
	where      string
}

// SelectCache remembers SELECT results per table generation. Any write to a
// table bumps its generation, so older entries are never hit again and age
// out of the LRU. Writes made by other processes are not seen.
//
// Results are copied on the way in and out, so callers may modify what they
// get back. A nil *SelectCache is a valid, disabled cache. It is not safe for
// concurrent use; the Session serializes access.
type SelectCache struct {
	lru         *lru.Cache
	generations pkg.Map[string, int]

	hits, misses int
}

// NewSelectCache returns nil when size is not positive.
func NewSelectCache(size int) *SelectCache {
	if size <= 0 {
		return nil
	}
	return &SelectCache{lru: lru.New(size), generations: pkg.Map[string, int]{}}
}

func (c *SelectCache) key(table string, where types.Clause) selectKey {
	return selectKey{table, c.generations.Get(table), where.String()}
}

func (c *SelectCache) Get(table string, where types.Clause) (*query.Result, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(c.key(table, where))
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	pkg.DebugLog("select cache hit for", table, where.String())
	return copyResult(v.(*query.Result)), true
}

func (c *SelectCache) Add(table string, where types.Clause, res *query.Result) {
	if c == nil {
		return
	}
	c.lru.Add(c.key(table, where), copyResult(res))
}

func copyResult(res *query.Result) *query.Result {
	c := *res
	if res.Records != nil {
		c.Records = make([]types.Record, len(res.Records))
		for i, r := range res.Records {
			c.Records[i] = types.CopyRecord(r)
		}
	}
	if res.IDs != nil {
		c.IDs = append([]int{}, res.IDs...)
	}
	return &c
}

func (c *SelectCache) Invalidate(table string) {
	if c == nil {
		return
	}
	c.generations.Set(table, c.generations.Get(table)+1)
}

func (c *SelectCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *SelectCache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	return c.hits, c.misses
}
