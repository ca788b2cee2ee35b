package domain

import "encoding/json"

// Enriched is a best-effort value from an external lookup.
// When Known is false the lookup failed or was not attempted and Value is
// the zero value, which downstream rules treat as "unknown".
type Enriched[T any] struct {
	Value T
	Known bool
}

// Known wraps a value obtained from a successful lookup.
func Known[T any](v T) Enriched[T] {
	return Enriched[T]{Value: v, Known: true}
}

// MarshalJSON renders unknown values as null.
func (e Enriched[T]) MarshalJSON() ([]byte, error) {
	if !e.Known {
		return []byte("null"), nil
	}
	return json.Marshal(e.Value)
}

// UnmarshalJSON treats null as unknown.
func (e *Enriched[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		var zero T
		e.Value, e.Known = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &e.Value); err != nil {
		return err
	}
	e.Known = true
	return nil
}
