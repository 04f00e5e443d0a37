package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// TypeRegistry maps struct state types to stable names so the JSON-backed
// checkpoint stores can return a thread's state as its original Go type
// instead of a generic map. Register the state type once at startup:
//
//	store.RegisterStateType(AgentState{}, "AgentState")
//
// Unregistered states round-trip as plain JSON; map[string]any states need
// no registration.
type TypeRegistry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

var defaultTypeRegistry = NewTypeRegistry()

// DefaultTypeRegistry returns the registry the checkpoint stores serialize
// through.
func DefaultTypeRegistry() *TypeRegistry {
	return defaultTypeRegistry
}

// RegisterStateType registers a state type with the default registry under a
// stable name. The name is written alongside the serialized state, so it must
// not change while old checkpoints are still around.
func RegisterStateType(value any, name string) error {
	return defaultTypeRegistry.Register(value, name)
}

// Register registers the type of value under the given name. Only structs and
// pointers to structs can be registered; registering the same pairing twice
// is a no-op.
func (r *TypeRegistry) Register(value any, name string) error {
	if name == "" {
		return fmt.Errorf("state type name must not be empty")
	}

	t := reflect.TypeOf(value)
	elem := t
	if t != nil && t.Kind() == reflect.Ptr {
		elem = t.Elem()
	}
	if t == nil || elem.Kind() != reflect.Struct {
		return fmt.Errorf("state type %v must be a struct or pointer to struct", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byType[t]; ok && existing != name {
		return fmt.Errorf("type %s already registered as %q", t, existing)
	}
	if existing, ok := r.byName[name]; ok && existing != t {
		return fmt.Errorf("name %q already registered for type %s", name, existing)
	}

	r.byName[name] = t
	r.byType[t] = name
	return nil
}

func (r *TypeRegistry) typeName(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byType[t]
	return name, ok
}

func (r *TypeRegistry) typeByName(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// typedState is the wire envelope for registered state types. The key names
// cannot collide with ordinary JSON object keys produced by struct tags.
type typedState struct {
	TypeName string          `json:"$type"`
	State    json.RawMessage `json:"$state"`
}

// MarshalState serializes a checkpoint state. Registered types are wrapped
// with their type name; everything else is plain JSON.
func (r *TypeRegistry) MarshalState(state any) ([]byte, error) {
	if state == nil {
		return json.Marshal(nil)
	}

	name, ok := r.typeName(reflect.TypeOf(state))
	if !ok {
		return json.Marshal(state)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(typedState{TypeName: name, State: payload})
}

// UnmarshalState deserializes a checkpoint state. Data carrying a registered
// type name comes back as that concrete type; everything else decodes into
// generic JSON values.
func (r *TypeRegistry) UnmarshalState(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var wrapped typedState
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.TypeName != "" && wrapped.State != nil {
		t, ok := r.typeByName(wrapped.TypeName)
		if !ok {
			return nil, fmt.Errorf("state type %q is not registered", wrapped.TypeName)
		}

		elem := t
		if t.Kind() == reflect.Ptr {
			elem = t.Elem()
		}
		ptr := reflect.New(elem)
		if err := json.Unmarshal(wrapped.State, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s state: %w", wrapped.TypeName, err)
		}
		if t.Kind() == reflect.Ptr {
			return ptr.Interface(), nil
		}
		return ptr.Elem().Interface(), nil
	}

	var state any
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// MarshalState serializes a state through the default registry.
func MarshalState(state any) ([]byte, error) {
	return defaultTypeRegistry.MarshalState(state)
}

// UnmarshalState deserializes a state through the default registry.
func UnmarshalState(data []byte) (any, error) {
	return defaultTypeRegistry.UnmarshalState(data)
}
