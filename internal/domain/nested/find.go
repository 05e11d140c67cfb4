package nested

import "fmt"

// Result is the outcome of a key search. Found distinguishes a match whose
// value is falsy (0, "", false, null) from no match at all.
type Result struct {
	Value Value
	Found bool
}

// Absent is the Result of a search that matched nothing.
var Absent = Result{}

// Float returns the matched value as a number, if it is one.
func (r Result) Float() (float64, bool) {
	if !r.Found {
		return 0, false
	}
	return r.Value.AsFloat()
}

// MarshalJSON renders absent results as null.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Found {
		return []byte("null"), nil
	}
	return r.Value.MarshalJSON()
}

// frame is one mapping being walked and the index of its next entry.
type frame struct {
	entries []Entry
	next    int
}

// Find searches root depth-first for key and returns the last match in
// traversal order.
//
// Entries are visited in mapping order. A mapping-typed value is descended
// into in place and its own key is not compared, so {"a": {"a": 1}} yields 1
// and {"a": {"b": 1}} yields nothing for "a". Any other value (scalar or list)
// whose key equals key replaces the current candidate. A nested mapping only
// replaces the candidate when it contains a match itself.
//
// Find fails with ErrTypeMismatch if root is not a mapping.
func Find(root Value, key string) (Result, error) {
	m, ok := root.AsMapping()
	if !ok {
		return Absent, fmt.Errorf("%w: search root is %s, want mapping", ErrTypeMismatch, root.Kind())
	}
	return FindIn(m, key), nil
}

// FindIn is Find for a root already known to be a mapping.
func FindIn(m Mapping, key string) Result {
	res := Absent
	// explicit stack bounds goroutine stack growth on deep trees
	stack := []frame{{entries: m.entries}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++

		if e.Value.kind == KindMapping {
			stack = append(stack, frame{entries: e.Value.m.entries})
			continue
		}
		if e.Key == key {
			res = Result{Value: e.Value, Found: true}
		}
	}
	return res
}
