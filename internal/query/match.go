package query

import (
	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
)

type compiledCondition struct {
	column   string
	expected string
}

// compileClause coerces every literal of where to its column's type once,
// up front, and returns the predicate a record must satisfy. Comparison is on
// the canonical display form: "31" matches 31 but also the string "31".
func compileClause(t_schema *schema.TableSchema, where types.Clause) (func(types.Record) bool, error) {
	if len(where) == 0 {
		return func(types.Record) bool { return true }, nil
	}

	conds := make([]compiledCondition, 0, len(where))
	for _, cond := range where {
		expected, err := formatLiteral(t_schema, cond)
		if err != nil {
			return nil, err
		}
		conds = append(conds, compiledCondition{cond.Column, expected})
	}

	return func(r types.Record) bool {
		for _, c := range conds {
			// a missing column reads as ""
			if types.Format(r[c.column]) != c.expected {
				return false
			}
		}
		return true
	}, nil
}

func formatLiteral(t_schema *schema.TableSchema, cond types.Condition) (string, error) {
	col_type, ok := t_schema.ColumnType(cond.Column)
	if !ok {
		// compared as stored by an UPDATE outside the schema
		return cond.Value, nil
	}
	value, err := types.Convert(cond.Value, col_type, cond.Column)
	if err != nil {
		return "", err
	}
	return types.Format(value), nil
}
