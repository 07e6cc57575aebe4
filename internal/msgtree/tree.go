// Package msgtree provides defaulting lookups into a decoded StUF message.
//
// A Tree has no fixed shape. Elements may be absent, a single value, or a
// sequence, and the wire format collapses a repeated element with one
// occurrence into a single value. Lookups never fail: a missing key anywhere
// on the path yields "absent".
//
// Paths are dot separated keys. A segment matches a key exactly or, failing
// that, by local name, so "body.BLJ" finds "ns2:body" -> "ns2:BLJ" whatever
// prefixes the sender used. A numeric segment indexes into a sequence.
package msgtree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TextKey holds an element's character data when it also has attributes.
const TextKey = "#"

// AttrPrefix marks attribute keys.
const AttrPrefix = "@"

// Tree is a decoded message body.
type Tree map[string]any

// Get returns the raw value at path.
func (t Tree) Get(path string) (any, bool) {
	var cur any = map[string]any(t)
	if path == "" {
		return cur, t != nil
	}
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Has reports whether path resolves to anything.
func (t Tree) Has(path string) bool {
	_, ok := t.Get(path)
	return ok
}

// String returns the text at path. Elements carrying attributes are read
// through their text key. Blank text counts as absent.
func (t Tree) String(path string) (string, bool) {
	v, ok := t.Get(path)
	if !ok {
		return "", false
	}
	return Text(v)
}

// StringOr returns the text at path or def.
func (t Tree) StringOr(path, def string) string {
	if s, ok := t.String(path); ok {
		return s
	}
	return def
}

// Sub returns the mapping at path. A one-element sequence is unwrapped.
func (t Tree) Sub(path string) (Tree, bool) {
	v, ok := t.Get(path)
	if !ok {
		return nil, false
	}
	if seq, isSeq := v.([]any); isSeq && len(seq) == 1 {
		v = seq[0]
	}
	m, ok := asMap(v)
	if !ok {
		return nil, false
	}
	return Tree(m), true
}

// List returns the value at path as a sequence. A single value becomes a
// one-element sequence; an absent path yields nil.
func (t Tree) List(path string) []any {
	v, ok := t.Get(path)
	if !ok || v == nil {
		return nil
	}
	if seq, isSeq := v.([]any); isSeq {
		return seq
	}
	return []any{v}
}

// Trees is List restricted to mapping entries.
func (t Tree) Trees(path string) []Tree {
	seq := t.List(path)
	out := make([]Tree, 0, len(seq))
	for _, v := range seq {
		if m, ok := asMap(v); ok {
			out = append(out, Tree(m))
		}
	}
	return out
}

// Attr returns attribute name of the element at path.
func (t Tree) Attr(path, name string) (string, bool) {
	sub, ok := t.Sub(path)
	if !ok {
		return "", false
	}
	return sub.String(AttrPrefix + name)
}

// Text renders a scalar (or an element's text key) as a trimmed string.
func Text(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case map[string]any:
		return Text(x[TextKey])
	case Tree:
		return Text(x[TextKey])
	case []any:
		if len(x) != 1 {
			return "", false
		}
		return Text(x[0])
	case nil:
		return "", false
	case bool, int, int64, float64:
		s = fmt.Sprint(x)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// LocalName strips a namespace prefix.
func LocalName(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func step(cur any, seg string) (any, bool) {
	if seq, ok := cur.([]any); ok {
		if idx, err := strconv.Atoi(seg); err == nil {
			if idx < 0 || idx >= len(seq) {
				return nil, false
			}
			return seq[idx], true
		}
		if len(seq) != 1 {
			return nil, false
		}
		cur = seq[0]
	}

	m, ok := asMap(cur)
	if !ok {
		return nil, false
	}
	if v, ok := m[seg]; ok {
		return v, true
	}

	want := LocalName(seg)
	var matches []string
	for k := range m {
		if LocalName(k) == want {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return m[matches[0]], true
}

func asMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case Tree:
		return map[string]any(x), true
	default:
		return nil, false
	}
}
