package types

import "github.com/tobsdb/tdblite/pkg"

const PRIMARY_KEY = "ID"

// Maps column name to its stored value
type Record = pkg.Map[string, any]

func GetPrimaryKey(r Record) int {
	return pkg.NumToInt(r.Get(PRIMARY_KEY))
}

func SetPrimaryKey(r Record, id int) {
	r.Set(PRIMARY_KEY, id)
}

// CopyRecord is shallow; stored values are all scalars.
func CopyRecord(r Record) Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func RecordIDs(records []Record) []int {
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, GetPrimaryKey(r))
	}
	return ids
}

// Condition is a single `column = value` equality. Value is the raw token.
type Condition struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Clause is a set of conditions combined with AND. A nil Clause matches everything.
type Clause []Condition

func (c Clause) String() string {
	s := ""
	for i, cond := range c {
		if i > 0 {
			s += " AND "
		}
		s += cond.Column + "=" + cond.Value
	}
	return s
}

// Assignment is a single `column=value` entry of a SET list. Value is the raw token.
type Assignment struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}
