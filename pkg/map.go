package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Map[K comparable, V any] map[K]V

func (m Map[K, V]) Get(key K) V {
	return m[key]
}

func (m Map[K, V]) Set(key K, value V) {
	m[key] = value
}

func (m Map[K, V]) Has(key K) bool {
	_, ok := m[key]
	return ok
}

func (m Map[K, V]) Delete(key K) {
	delete(m, key)
}

func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// InsertSortMap is a map that remembers the order keys were first pushed in.
// It round-trips through JSON as an object whose key order is the insertion order.
type InsertSortMap[K comparable, V any] struct {
	Idx    Map[K, V]
	Sorted []K
}

func NewInsertSortMap[K comparable, V any]() *InsertSortMap[K, V] {
	return &InsertSortMap[K, V]{Idx: Map[K, V]{}, Sorted: []K{}}
}

func (m *InsertSortMap[K, V]) Len() int { return len(m.Sorted) }

func (m *InsertSortMap[K, V]) Get(key K) V { return m.Idx.Get(key) }

func (m *InsertSortMap[K, V]) Has(key K) bool { return m.Idx.Has(key) }

// Push appends key to the end of the order. Pushing an existing key only
// replaces its value.
func (m *InsertSortMap[K, V]) Push(key K, value V) {
	if !m.Idx.Has(key) {
		m.Sorted = append(m.Sorted, key)
	}
	m.Idx.Set(key, value)
}

func (m *InsertSortMap[K, V]) Delete(key K) {
	if !m.Idx.Has(key) {
		return
	}
	m.Idx.Delete(key)
	for i, k := range m.Sorted {
		if k == key {
			m.Sorted = append(m.Sorted[:i], m.Sorted[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (m *InsertSortMap[K, V]) Keys() []K {
	keys := make([]K, len(m.Sorted))
	copy(keys, m.Sorted)
	return keys
}

// Clone is shallow: values are shared with m.
func (m *InsertSortMap[K, V]) Clone() *InsertSortMap[K, V] {
	c := NewInsertSortMap[K, V]()
	for _, k := range m.Sorted {
		c.Push(k, m.Idx.Get(k))
	}
	return c
}

func (m InsertSortMap[K, V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(fmt.Sprint(key))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.Idx.Get(key))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *InsertSortMap[K, V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	fresh := NewInsertSortMap[K, V]()
	if tok == nil {
		*m = *fresh
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("Expected a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := any(tok).(K)
		if !ok {
			return fmt.Errorf("Unsupported key type for ordered map: %T", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return err
		}
		fresh.Push(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *fresh
	return nil
}
