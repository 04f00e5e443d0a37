package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
)

// Reducer defines how a state field should be updated. It takes the current
// value and the new value, and returns the merged value.
type Reducer func(current, new any) (any, error)

// StateSchema defines the structure and update logic for the graph state.
//
// Init produces the fully-defaulted initial state; Update folds a node's
// return value (possibly a partial update) into the current state. After any
// successful invocation every schema field is present in the result, because
// Init fills defaults and Update never removes fields.
type StateSchema[S any] interface {
	// Init returns the initial state with every declared field defaulted.
	Init() S

	// Update merges the new state into the current state.
	Update(current, new S) (S, error)
}

// FieldSpec declares one named state field: its default value, an optional
// concrete type enforced on updates, and an optional reducer. Without a
// reducer the field is replaced wholesale on update (collections included).
type FieldSpec struct {
	Default any
	Type    reflect.Type
	Reducer Reducer
}

// MapSchema implements StateSchema for map[string]any state. Fields are
// declared up front with defaults; updates touching undeclared fields or
// violating a declared type are rejected at the merge boundary.
//
// A MapSchema with no declared fields behaves as an open schema: any key is
// accepted and merged by shallow overwrite, with reducers still applied to
// the keys they were registered for.
type MapSchema struct {
	Fields map[string]FieldSpec
}

var _ StateSchema[map[string]any] = (*MapSchema)(nil)

// NewMapSchema creates a new, empty MapSchema.
func NewMapSchema() *MapSchema {
	return &MapSchema{
		Fields: make(map[string]FieldSpec),
	}
}

// RegisterField declares a state field.
func (s *MapSchema) RegisterField(name string, spec FieldSpec) {
	if spec.Type == nil && spec.Default != nil {
		spec.Type = reflect.TypeOf(spec.Default)
	}
	s.Fields[name] = spec
}

// RegisterReducer adds a reducer for a specific key, declaring the field if
// it was not declared yet.
func (s *MapSchema) RegisterReducer(name string, reducer Reducer) {
	spec := s.Fields[name]
	spec.Reducer = reducer
	s.Fields[name] = spec
}

// declared reports whether the schema restricts the field set at all. A field
// registered through RegisterReducer alone does not close the schema.
func (s *MapSchema) declared() bool {
	for _, spec := range s.Fields {
		if spec.Default != nil || spec.Type != nil {
			return true
		}
	}
	return false
}

// Init returns a map holding the default value of every declared field.
// Fields without an explicit default start as nil and still appear as keys.
func (s *MapSchema) Init() map[string]any {
	state := make(map[string]any, len(s.Fields))
	for name, spec := range s.Fields {
		state[name] = spec.Default
	}
	return state
}

// Update merges the new map into the current map: for each field present in
// new, the corresponding field in current is replaced (or reduced, when a
// reducer is registered); absent fields keep their current value. The inputs
// are not mutated.
func (s *MapSchema) Update(current, new map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(current)+len(new))
	maps.Copy(result, current)

	closed := s.declared()
	for k, v := range new {
		spec, known := s.Fields[k]
		if closed && !known {
			return nil, fmt.Errorf("state field %q is not declared in the schema", k)
		}
		if v != nil && spec.Type != nil && !reflect.TypeOf(v).AssignableTo(spec.Type) {
			return nil, fmt.Errorf("state field %q: expected %s, got %T", k, spec.Type, v)
		}
		if spec.Reducer != nil {
			merged, err := spec.Reducer(result[k], v)
			if err != nil {
				return nil, fmt.Errorf("failed to reduce field %q: %w", k, err)
			}
			result[k] = merged
			continue
		}
		result[k] = v
	}

	return result, nil
}

// StateRehydrator is implemented by schemas that can restore typed field
// values after the state has been through a JSON round trip in a checkpoint
// store. The executor applies it when seeding a run from a checkpoint.
type StateRehydrator[S any] interface {
	Rehydrate(state S) (S, error)
}

var _ StateRehydrator[map[string]any] = (*MapSchema)(nil)

// Rehydrate restores declared field types on a state loaded from a durable
// store. JSON decoding turns typed collections into []any and numbers into
// float64; each declared field whose value no longer matches its type is
// re-encoded into the declared type, so reducers see the values they were
// written against.
func (s *MapSchema) Rehydrate(state map[string]any) (map[string]any, error) {
	result := maps.Clone(state)
	for name, spec := range s.Fields {
		if spec.Type == nil {
			continue
		}
		v, ok := result[name]
		if !ok || v == nil {
			continue
		}
		if reflect.TypeOf(v).AssignableTo(spec.Type) {
			continue
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to rehydrate field %q: %w", name, err)
		}
		ptr := reflect.New(spec.Type)
		if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("failed to rehydrate field %q as %s: %w", name, spec.Type, err)
		}
		result[name] = ptr.Elem().Interface()
	}
	return result, nil
}

// Common reducers.

// OverwriteReducer replaces the old value with the new one.
func OverwriteReducer(current, new any) (any, error) {
	return new, nil
}

// AppendReducer appends the new value to the current slice. It supports
// appending a slice to a slice, or a single element to a slice.
func AppendReducer(current, new any) (any, error) {
	if new == nil {
		return current, nil
	}
	if current == nil {
		newVal := reflect.ValueOf(new)
		if newVal.Kind() == reflect.Slice {
			return new, nil
		}
		slice := reflect.MakeSlice(reflect.SliceOf(newVal.Type()), 0, 1)
		return reflect.Append(slice, newVal).Interface(), nil
	}

	currVal := reflect.ValueOf(current)
	newVal := reflect.ValueOf(new)

	if currVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("current value is not a slice")
	}

	if newVal.Kind() == reflect.Slice {
		if currVal.Type().Elem() != newVal.Type().Elem() {
			// Element types differ; widen to []any.
			result := make([]any, 0, currVal.Len()+newVal.Len())
			for i := 0; i < currVal.Len(); i++ {
				result = append(result, currVal.Index(i).Interface())
			}
			for i := 0; i < newVal.Len(); i++ {
				result = append(result, newVal.Index(i).Interface())
			}
			return result, nil
		}
		return reflect.AppendSlice(currVal, newVal).Interface(), nil
	}

	return reflect.Append(currVal, newVal).Interface(), nil
}

// CountReducer sums integer updates into the current value. Useful for
// turn or attempt counters that accumulate across checkpointed runs.
func CountReducer(current, new any) (any, error) {
	curr, ok := toInt(current)
	if !ok {
		return nil, fmt.Errorf("current value is not an integer")
	}
	delta, ok := toInt(new)
	if !ok {
		return nil, fmt.Errorf("new value is not an integer")
	}
	return curr + delta, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
