// Package opengraph builds and serializes the Open Graph tag set that every
// page carries in its <head>.
package opengraph

import "iter"

// Tag is a single key/value pair of a TagSet.
type Tag struct {
	Key   string
	Value string
}

// TagSet is an ordered mapping of tag keys (e.g. "og:title") to values.
// Keys are unique. Setting an existing key replaces its value but keeps
// its original position.
type TagSet struct {
	keys   []string
	values map[string]string
}

// NewTagSet returns a TagSet holding the given pairs in order.
func NewTagSet(pairs ...Tag) *TagSet {
	ts := &TagSet{values: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		ts.Set(p.Key, p.Value)
	}
	return ts
}

// Set writes value under key.
func (ts *TagSet) Set(key, value string) {
	if ts.values == nil {
		ts.values = make(map[string]string)
	}
	if _, ok := ts.values[key]; !ok {
		ts.keys = append(ts.keys, key)
	}
	ts.values[key] = value
}

// Get returns the value stored under key.
func (ts *TagSet) Get(key string) (string, bool) {
	if ts == nil {
		return "", false
	}
	v, ok := ts.values[key]
	return v, ok
}

// Value returns the value stored under key, or "" when absent.
func (ts *TagSet) Value(key string) string {
	v, _ := ts.Get(key)
	return v
}

// Has reports whether key is present, even with an empty value.
func (ts *TagSet) Has(key string) bool {
	_, ok := ts.Get(key)
	return ok
}

// Delete removes key. It is a no-op when key is absent.
func (ts *TagSet) Delete(key string) {
	if !ts.Has(key) {
		return
	}
	delete(ts.values, key)
	for i, k := range ts.keys {
		if k == key {
			ts.keys = append(ts.keys[:i:i], ts.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of tags.
func (ts *TagSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.keys)
}

// Keys returns the tag keys in insertion order.
func (ts *TagSet) Keys() []string {
	if ts == nil {
		return nil
	}
	out := make([]string, len(ts.keys))
	copy(out, ts.keys)
	return out
}

// Pairs returns the tags in insertion order.
func (ts *TagSet) Pairs() []Tag {
	if ts == nil {
		return nil
	}
	out := make([]Tag, 0, len(ts.keys))
	for _, k := range ts.keys {
		out = append(out, Tag{Key: k, Value: ts.values[k]})
	}
	return out
}

// All iterates over the tags in insertion order.
func (ts *TagSet) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if ts == nil {
			return
		}
		for _, k := range ts.keys {
			if !yield(k, ts.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy. Cloning a nil TagSet yields an empty one.
func (ts *TagSet) Clone() *TagSet {
	if ts == nil {
		return NewTagSet()
	}
	return NewTagSet(ts.Pairs()...)
}
