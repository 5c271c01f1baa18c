package serialize

import (
	"bytes"
	"encoding/json"
)

// Map is an insertion-ordered string-keyed map produced by DumpMap.
type Map struct {
	keys   []string
	values map[string]any
}

func newMap(capacity int) *Map {
	return &Map{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (m *Map) set(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Keys returns the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Plain converts the map and every nested Map into plain map[string]any values,
// suitable for feeding back into Schema.Validate.
func (m *Map) Plain() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case *Map:
		return x.Plain()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	}
	return v
}

// MarshalJSON writes the map as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type byteWriter interface {
	Write(p []byte) (int, error)
	WriteByte(c byte) error
	WriteString(s string) (int, error)
}

func writeJSON(w byteWriter, v any) error {
	switch x := v.(type) {
	case *Map:
		if x == nil {
			_, err := w.WriteString("null")
			return err
		}
		_ = w.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				_ = w.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			_, _ = w.Write(kb)
			_ = w.WriteByte(':')
			if err := writeJSON(w, x.values[k]); err != nil {
				return err
			}
		}
		return w.WriteByte('}')
	case []any:
		_ = w.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				_ = w.WriteByte(',')
			}
			if err := writeJSON(w, e); err != nil {
				return err
			}
		}
		return w.WriteByte(']')
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
