package graph

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSchema_Init(t *testing.T) {
	t.Run("defaults every declared field", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("count", FieldSpec{Default: 0})
		schema.RegisterField("name", FieldSpec{Default: "anonymous"})

		initial := schema.Init()
		assert.Equal(t, 0, initial["count"])
		assert.Equal(t, "anonymous", initial["name"])
	})

	t.Run("field without default starts nil but present", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("items", FieldSpec{Type: reflect.TypeOf([]string{})})

		initial := schema.Init()
		v, ok := initial["items"]
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("empty schema yields empty state", func(t *testing.T) {
		schema := NewMapSchema()
		assert.Empty(t, schema.Init())
	})
}

func TestMapSchema_Update(t *testing.T) {
	t.Run("shallow merge replaces touched fields only", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("a", FieldSpec{Default: ""})
		schema.RegisterField("b", FieldSpec{Default: ""})

		current := map[string]any{"a": "old-a", "b": "old-b"}
		result, err := schema.Update(current, map[string]any{"a": "new-a"})
		require.NoError(t, err)

		assert.Equal(t, "new-a", result["a"])
		assert.Equal(t, "old-b", result["b"])
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("a", FieldSpec{Default: ""})

		current := map[string]any{"a": "old"}
		_, err := schema.Update(current, map[string]any{"a": "new"})
		require.NoError(t, err)
		assert.Equal(t, "old", current["a"])
	})

	t.Run("undeclared field rejected when schema is closed", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("known", FieldSpec{Default: 0})

		_, err := schema.Update(map[string]any{}, map[string]any{"mystery": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mystery")
	})

	t.Run("type violation rejected", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("count", FieldSpec{Default: 0})

		_, err := schema.Update(map[string]any{}, map[string]any{"count": "ten"})
		require.Error(t, err)
	})

	t.Run("reducer-only registration keeps the schema open", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterReducer("log", AppendReducer)

		result, err := schema.Update(map[string]any{}, map[string]any{"anything": 42})
		require.NoError(t, err)
		assert.Equal(t, 42, result["anything"])
	})

	t.Run("reducer applied to its field", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterReducer("log", AppendReducer)

		state := map[string]any{"log": []string{"first"}}
		result, err := schema.Update(state, map[string]any{"log": "second"})
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, result["log"])
	})
}

func TestOverwriteReducer(t *testing.T) {
	v, err := OverwriteReducer("old", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestAppendReducer(t *testing.T) {
	t.Run("slice to slice", func(t *testing.T) {
		v, err := AppendReducer([]int{1, 2}, []int{3})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, v)
	})

	t.Run("element to slice", func(t *testing.T) {
		v, err := AppendReducer([]string{"a"}, "b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
	})

	t.Run("nil current starts a slice", func(t *testing.T) {
		v, err := AppendReducer(nil, "first")
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, v)
	})

	t.Run("nil update keeps current", func(t *testing.T) {
		v, err := AppendReducer([]int{1}, nil)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, v)
	})

	t.Run("non-slice current is an error", func(t *testing.T) {
		_, err := AppendReducer(42, "x")
		require.Error(t, err)
	})
}

func TestCountReducer(t *testing.T) {
	t.Run("sums integer deltas", func(t *testing.T) {
		v, err := CountReducer(2, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	})

	t.Run("nil current counts from zero", func(t *testing.T) {
		v, err := CountReducer(nil, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("non-numeric update is an error", func(t *testing.T) {
		_, err := CountReducer(1, "two")
		require.Error(t, err)
	})
}

func TestMapSchema_Rehydrate(t *testing.T) {
	t.Run("restores declared slice type from generic values", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("items", FieldSpec{Type: reflect.TypeOf([]string{})})

		restored, err := schema.Rehydrate(map[string]any{
			"items": []any{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, restored["items"])
	})

	t.Run("restores int from float64", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("count", FieldSpec{Default: 0})

		restored, err := schema.Rehydrate(map[string]any{"count": float64(7)})
		require.NoError(t, err)
		assert.Equal(t, 7, restored["count"])
	})

	t.Run("already typed values pass through", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("items", FieldSpec{Type: reflect.TypeOf([]string{})})

		items := []string{"kept"}
		restored, err := schema.Rehydrate(map[string]any{"items": items})
		require.NoError(t, err)
		assert.Equal(t, items, restored["items"])
	})

	t.Run("nil and absent fields untouched", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("items", FieldSpec{Type: reflect.TypeOf([]string{})})
		schema.RegisterField("count", FieldSpec{Default: 0})

		restored, err := schema.Rehydrate(map[string]any{"items": nil})
		require.NoError(t, err)
		assert.Nil(t, restored["items"])
		_, ok := restored["count"]
		assert.False(t, ok)
	})

	t.Run("undeclared fields untouched", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterReducer("log", AppendReducer)

		restored, err := schema.Rehydrate(map[string]any{"extra": []any{1.0}})
		require.NoError(t, err)
		assert.Equal(t, []any{1.0}, restored["extra"])
	})

	t.Run("incompatible value is an error", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("count", FieldSpec{Default: 0})

		_, err := schema.Rehydrate(map[string]any{"count": "seven"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "count")
	})

	t.Run("input is not mutated", func(t *testing.T) {
		schema := NewMapSchema()
		schema.RegisterField("count", FieldSpec{Default: 0})

		state := map[string]any{"count": float64(1)}
		_, err := schema.Rehydrate(state)
		require.NoError(t, err)
		assert.Equal(t, float64(1), state["count"])
	})
}

func TestMapSchema_TypeInference(t *testing.T) {
	schema := NewMapSchema()
	schema.RegisterField("count", FieldSpec{Default: 0})

	spec := schema.Fields["count"]
	assert.Equal(t, reflect.TypeOf(0), spec.Type)
}
