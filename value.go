package persist

import (
	"encoding/json"
	"maps"
)

// ValueStore is the generic persisted shape of one record instance: a mapping
// from field name to a dynamically-typed value. Values are restricted to what
// both codecs can represent losslessly: nil, booleans, numbers, strings,
// sequences and nested mappings.
type ValueStore struct {
	Values map[string]any
}

// NewValueStore returns an empty store.
func NewValueStore() ValueStore {
	return ValueStore{Values: map[string]any{}}
}

// Set normalizes value through the JSON representation and stores it under
// key. Values that cannot be serialized are silently dropped; partial
// persistence beats aborting a whole save.
func (vs ValueStore) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	var norm any
	if err := json.Unmarshal(raw, &norm); err != nil {
		return
	}
	vs.Values[key] = norm
}

// Get decodes the value stored under key as T. A missing key and a value that
// no longer decodes as T both report false; schema drift turns into a missing
// field, never an error.
func Get[T any](vs ValueStore, key string) (T, bool) {
	var out T
	v, ok := vs.Values[key]
	if !ok {
		return out, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// Clone returns a deep-enough copy for handing out without aliasing the
// store's top-level map.
func (vs ValueStore) Clone() ValueStore {
	c := NewValueStore()
	maps.Copy(c.Values, vs.Values)
	return c
}

// StoreFrom builds a ValueStore from any JSON-serializable struct, one entry
// per exported field. Serialization failures yield an empty store.
func StoreFrom(v any) ValueStore {
	vs := NewValueStore()
	raw, err := json.Marshal(v)
	if err != nil {
		return vs
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return vs
	}
	vs.Values = m
	return vs
}

// MergeInto overlays the fields present in vs onto v, which must be a
// pointer. Fields absent from vs keep their current values, and a stored
// value whose type no longer matches v's field is left alone. Best effort:
// nothing is reported on failure.
func MergeInto(v any, vs ValueStore) {
	base := StoreFrom(v)
	maps.Copy(base.Values, vs.Values)
	raw, err := json.Marshal(base.Values)
	if err != nil {
		return
	}
	// Unmarshal keeps decoding past individual field type mismatches, so a
	// single drifted field cannot wipe the rest of the merge.
	_ = json.Unmarshal(raw, v)
}
