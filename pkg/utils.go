package pkg

import (
	"encoding/json"
	"math"
	"strconv"
)

func Filter[T any](items []T, predicate func(T) bool) []T {
	filtered := []T{}
	for _, item := range items {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Partition splits items into those matching predicate and the rest, keeping order.
func Partition[T any](items []T, predicate func(T) bool) (matched, rest []T) {
	matched, rest = []T{}, []T{}
	for _, item := range items {
		if predicate(item) {
			matched = append(matched, item)
		} else {
			rest = append(rest, item)
		}
	}
	return matched, rest
}

// Converts a value suspected to be a number to an int.
// Records decoded from JSON carry float64 or json.Number, records built in
// memory carry int, so this shows up wherever an ID is read back.
func NumToInt(num any) int {
	switch num := num.(type) {
	case int:
		return num
	case int64:
		return int(num)
	case float64:
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return 0
		}
		return int(num)
	case json.Number:
		if i, err := num.Int64(); err == nil {
			return int(i)
		}
		if f, err := num.Float64(); err == nil {
			return int(f)
		}
	case string:
		if i, err := strconv.Atoi(num); err == nil {
			return i
		}
	}
	return 0
}
