package types_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	. "github.com/tobsdb/tdblite/internal/types"
	"gotest.tools/assert"
)

func TestConvert(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		v, err := Convert("42", ColumnTypeInt, "age")
		assert.NilError(t, err)
		assert.Equal(t, v, 42)

		v, err = Convert("-7", ColumnTypeInt, "age")
		assert.NilError(t, err)
		assert.Equal(t, v, -7)
	})

	t.Run("int not numeric", func(t *testing.T) {
		_, err := Convert("abc", ColumnTypeInt, "age")

		var conv_err *ConversionError
		assert.Assert(t, errors.As(err, &conv_err))
		assert.Equal(t, conv_err.Column, "age")
		assert.Equal(t, conv_err.Value, "abc")
		assert.Equal(t, conv_err.Status(), http.StatusUnprocessableEntity)
		assert.ErrorContains(t, err, "Invalid value for column age")
	})

	t.Run("int rejects decimals", func(t *testing.T) {
		_, err := Convert("3.5", ColumnTypeInt, "age")
		assert.ErrorContains(t, err, "is not a valid int")
	})

	t.Run("float", func(t *testing.T) {
		v, err := Convert("3.5", ColumnTypeFloat, "score")
		assert.NilError(t, err)
		assert.Equal(t, v, 3.5)

		v, err = Convert("2", ColumnTypeFloat, "score")
		assert.NilError(t, err)
		assert.Equal(t, v, 2.0)
	})

	t.Run("float not numeric", func(t *testing.T) {
		_, err := Convert("fast", ColumnTypeFloat, "score")
		assert.ErrorContains(t, err, "is not a valid float")

		_, err = Convert("NaN", ColumnTypeFloat, "score")
		assert.ErrorContains(t, err, "is not a valid float")
	})

	t.Run("bool", func(t *testing.T) {
		for _, raw := range []string{"yes", "TRUE", "1", "Да"} {
			v, err := Convert(raw, ColumnTypeBool, "active")
			assert.NilError(t, err)
			assert.Equal(t, v, true, raw)
		}
		for _, raw := range []string{"no", "false", "0", "whatever", ""} {
			v, err := Convert(raw, ColumnTypeBool, "active")
			assert.NilError(t, err)
			assert.Equal(t, v, false, raw)
		}
	})

	t.Run("str", func(t *testing.T) {
		v, err := Convert("'Ann'", ColumnTypeString, "name")
		assert.NilError(t, err)
		assert.Equal(t, v, "Ann")

		v, _ = Convert(`"Bob"`, ColumnTypeString, "name")
		assert.Equal(t, v, "Bob")

		v, _ = Convert(`'mixed"`, ColumnTypeString, "name")
		assert.Equal(t, v, `'mixed"`)

		v, _ = Convert("plain", ColumnTypeString, "name")
		assert.Equal(t, v, "plain")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Convert("1", ColumnType("date"), "when")
		assert.ErrorContains(t, err, "Unsupported column type for when: date")
	})
}

func TestParseColumnType(t *testing.T) {
	ct, ok := ParseColumnType(" INT ")
	assert.Assert(t, ok)
	assert.Equal(t, ct, ColumnTypeInt)

	_, ok = ParseColumnType("String")
	assert.Assert(t, !ok)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, Format(nil), "")
	assert.Equal(t, Format(30), "30")
	assert.Equal(t, Format(31.0), "31.0")
	assert.Equal(t, Format(3.5), "3.5")
	assert.Equal(t, Format(0.1), "0.1")
	assert.Equal(t, Format(1e16), "1e+16")
	assert.Equal(t, Format(0.00001), "1e-05")
	assert.Equal(t, Format(true), "true")
	assert.Equal(t, Format("Ann"), "Ann")
	assert.Equal(t, Format(json.Number("12")), "12")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Normalize(float64(30), ColumnTypeInt), 30)
	assert.Equal(t, Normalize(json.Number("30"), ColumnTypeInt), 30)
	assert.Equal(t, Normalize(json.Number("31"), ColumnTypeFloat), 31.0)
	assert.Equal(t, Normalize(31, ColumnTypeFloat), 31.0)
	assert.Equal(t, Normalize(true, ColumnTypeBool), true)
	assert.Equal(t, Normalize("x", ColumnTypeInt), "x")
	assert.Equal(t, Normalize(json.Number("2.5"), ColumnTypeString), 2.5)

	assert.Equal(t, NormalizeUntyped(json.Number("4")), 4)
	assert.Equal(t, NormalizeUntyped("raw"), "raw")
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, ErrorStatus(&NotFoundError{Table: "a"}), http.StatusNotFound)
	assert.Equal(t, ErrorStatus(NewSchemaError(DuplicateTable, "dup")), http.StatusConflict)
	assert.Equal(t, ErrorStatus(NewParseError(UnknownCommand, "bad")), http.StatusBadRequest)
	assert.Equal(t, ErrorStatus(&ArityError{Expected: 2, Actual: 1}), http.StatusBadRequest)
	assert.Equal(t, ErrorStatus(errors.New("disk on fire")), http.StatusInternalServerError)
}
