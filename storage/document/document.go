// Package document implements schemaless JSON documents with partial merge-writes.
//
// A write is a patch: nested maps merge into what is stored, scalars replace,
// Delete removes a field and ServerTimestamp is replaced by the write time.
// Top-level patch keys containing dots are field paths ("basic.checklist.board").
package document

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Doc is a decoded JSON object.
type Doc map[string]interface{}

type sentinel int

const (
	deleteField sentinel = iota + 1
	serverTimestamp
)

// Delete marks a field for removal in a patch.
func Delete() interface{} { return deleteField }

// ServerTimestamp marks a field to be set to the time of the write.
func ServerTimestamp() interface{} { return serverTimestamp }

// TimestampLayout is how server timestamps are stored.
const TimestampLayout = time.RFC3339Nano

// Decode parses a stored JSON object. Empty input decodes to an empty Doc.
func Decode(data []byte) (Doc, error) {
	doc := make(Doc)
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return doc, nil
}

// Encode serializes a Doc. Sentinels must have been resolved by Merge.
func Encode(doc Doc) ([]byte, error) {
	if doc == nil {
		doc = Doc{}
	}
	data, err := json.Marshal(doc)
	return data, errors.Wrap(err, "encoding document")
}

// Merge applies patch on a copy of dst and returns it. Neither argument is modified.
func Merge(dst, patch Doc, now time.Time) Doc {
	out := Clone(dst)
	if out == nil {
		out = make(Doc)
	}
	for key, val := range patch {
		fieldPath := strings.Split(key, ".")
		parent := map[string]interface{}(out)
		if len(fieldPath) > 1 {
			parent = descend(parent, fieldPath[:len(fieldPath)-1], val == deleteField)
			if parent == nil {
				continue
			}
		}
		apply(parent, fieldPath[len(fieldPath)-1], val, now)
	}
	return out
}

// descend walks m along path, creating intermediate maps unless lookupOnly is set.
func descend(m map[string]interface{}, path []string, lookupOnly bool) map[string]interface{} {
	for _, p := range path {
		child, ok := asMap(m[p])
		if !ok {
			if lookupOnly {
				return nil
			}
			child = make(map[string]interface{})
			m[p] = child
		}
		m = child
	}
	return m
}

func apply(m map[string]interface{}, key string, val interface{}, now time.Time) {
	if s, ok := val.(sentinel); ok {
		switch s {
		case deleteField:
			delete(m, key)
		case serverTimestamp:
			m[key] = now.UTC().Format(TimestampLayout)
		}
		return
	}
	if patch, ok := asMap(val); ok {
		child, ok := asMap(m[key])
		if !ok {
			child = make(map[string]interface{})
			m[key] = child
		}
		for k, v := range patch {
			apply(child, k, v, now)
		}
		return
	}
	m[key] = cloneValue(val)
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Doc:
		return m, true
	}
	return nil, false
}

// Clone deep-copies a document.
func Clone(doc Doc) Doc {
	if doc == nil {
		return nil
	}
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = cloneValue(vv)
		}
		return out
	case Doc:
		return map[string]interface{}(Clone(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = cloneValue(vv)
		}
		return out
	}
	return v
}

// Lookup returns the value at a dotted field path.
func (d Doc) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(d)
	for _, p := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Number returns the value at path if it is a number.
func (d Doc) Number(path string) (float64, bool) {
	v, ok := d.Lookup(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the value at path if it is a boolean.
func (d Doc) Bool(path string) (value, ok bool) {
	v, found := d.Lookup(path)
	if !found {
		return false, false
	}
	value, ok = v.(bool)
	return value, ok
}

// String returns the value at path if it is a string.
func (d Doc) String(path string) (string, bool) {
	v, ok := d.Lookup(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Truthy reports whether the value at path is set to something other than
// false, null, zero, NaN or the empty string.
func (d Doc) Truthy(path string) bool {
	v, ok := d.Lookup(path)
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	}
	if n, ok := d.Number(path); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}
