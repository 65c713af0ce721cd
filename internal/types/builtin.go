package types

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var VALID_BUILTIN_TYPES = []ColumnType{
	ColumnTypeInt, ColumnTypeString, ColumnTypeBool, ColumnTypeFloat,
}

type ColumnType string

const (
	ColumnTypeInt    ColumnType = "int"
	ColumnTypeFloat  ColumnType = "float"
	ColumnTypeBool   ColumnType = "bool"
	ColumnTypeString ColumnType = "str"
)

func (t ColumnType) IsValid() bool {
	return slices.Contains(VALID_BUILTIN_TYPES, t)
}

// ParseColumnType normalises a declared type name. Type names are case-insensitive.
func ParseColumnType(name string) (ColumnType, bool) {
	t := ColumnType(strings.ToLower(strings.TrimSpace(name)))
	return t, t.IsValid()
}

// literals that coerce to true for bool columns; anything else is false
var truthy = []string{"true", "1", "yes", "да"}

// Convert coerces a raw command token into the native value for t.
// column is only used to name the offending column in a ConversionError.
func Convert(raw string, t ColumnType, column string) (any, error) {
	switch t {
	case ColumnTypeInt:
		v, err := strconv.ParseInt(raw, 10, 0)
		if err != nil {
			return nil, &ConversionError{Column: column, Value: raw, Type: t}
		}
		return int(v), nil
	case ColumnTypeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ConversionError{Column: column, Value: raw, Type: t}
		}
		return v, nil
	case ColumnTypeBool:
		return slices.Contains(truthy, strings.ToLower(raw)), nil
	case ColumnTypeString:
		return StripQuotes(raw), nil
	}
	return nil, unsupportedColumnTypeError(t, column)
}

// StripQuotes removes one pair of matching ' or " around s.
func StripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Normalize brings a value read back from a store to the native type of its
// column. JSON stores hand back float64 or json.Number for every number.
// Values that don't fit the column are returned unchanged.
func Normalize(value any, t ColumnType) any {
	switch t {
	case ColumnTypeInt:
		switch v := value.(type) {
		case int64:
			return int(v)
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return int(v)
			}
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return int(i)
			}
			if f, err := v.Float64(); err == nil && f == math.Trunc(f) {
				return int(f)
			}
		}
	case ColumnTypeFloat:
		switch v := value.(type) {
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
	default:
		if v, ok := value.(json.Number); ok {
			return NormalizeUntyped(v)
		}
	}
	return value
}

// NormalizeUntyped is Normalize for values outside the schema.
func NormalizeUntyped(value any) any {
	v, ok := value.(json.Number)
	if !ok {
		return value
	}
	if i, err := v.Int64(); err == nil {
		return int(i)
	}
	if f, err := v.Float64(); err == nil {
		return f
	}
	return v.String()
}

// Format renders a stored or coerced value in its canonical display form.
// Equality in WHERE clauses is defined on this form, not on native values.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return FormatFloat(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return fmt.Sprint(value)
}

// FormatFloat always shows a fraction or an exponent so a float never reads
// like an int: 31 -> "31.0", 0.1 -> "0.1", 1e16 -> "1e+16".
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// if schema validation is working properly this error should never occur
func unsupportedColumnTypeError(t ColumnType, column string) error {
	return fmt.Errorf("Unsupported column type for %s: %s", column, t)
}
