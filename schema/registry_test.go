package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/reglet-dev/reglet-docindex/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" jsonschema:"minLength=1"`
	Tags  []string `json:"tags" jsonschema:"minItems=1"`
	Extra bool     `json:"extra,omitempty"`
}

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestRegistry_RegisterStruct(t *testing.T) {
	t.Parallel()

	reg := schema.NewRegistry()
	require.NoError(t, reg.Register("sample", sample{}))

	raw, ok := reg.GetSchema("sample")
	require.True(t, ok)

	doc := decode(t, raw)
	assert.Equal(t, "object", doc["type"])
	assert.ElementsMatch(t, []interface{}{"name", "tags"}, doc["required"])
	assert.NotContains(t, doc, "$ref")
	assert.NotEqual(t, false, doc["additionalProperties"])

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "extra")
}

func TestRegistry_StrictMode(t *testing.T) {
	t.Parallel()

	reg := schema.NewRegistry(schema.WithStrictMode(true))
	require.NoError(t, reg.Register("sample", &sample{}))

	raw, _ := reg.GetSchema("sample")
	assert.Equal(t, false, decode(t, raw)["additionalProperties"])
}

func TestRegistry_RawSchemas(t *testing.T) {
	t.Parallel()

	reg := schema.NewRegistry()
	require.NoError(t, reg.Register("string", `{"type":"string"}`))
	require.NoError(t, reg.Register("bytes", []byte(`{"type":"number"}`)))
	require.NoError(t, reg.Register("map", map[string]interface{}{"type": "boolean"}))

	assert.Equal(t, []string{"bytes", "map", "string"}, reg.List())

	raw, ok := reg.GetSchema("map")
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"boolean"}`, raw)
}

func TestRegistry_Errors(t *testing.T) {
	t.Parallel()

	reg := schema.NewRegistry()
	require.NoError(t, reg.Register("sample", sample{}))

	tests := []struct {
		name  string
		kind  string
		model interface{}
	}{
		{"duplicate kind", "sample", sample{}},
		{"empty kind", "", sample{}},
		{"nil model", "nil", nil},
		{"invalid json string", "bad", `{"type":`},
		{"scalar model", "int", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, reg.Register(tt.kind, tt.model))
		})
	}

	assert.Panics(t, func() { reg.MustRegister("sample", sample{}) })

	_, ok := reg.GetSchema("missing")
	assert.False(t, ok)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	reg := schema.Default()
	assert.Equal(t, []string{
		schema.KindRecord,
		schema.KindImplementorsDocument,
		schema.KindSidebarDocument,
	}, reg.List())

	raw, ok := reg.GetSchema(schema.KindRecord)
	require.True(t, ok)
	doc := decode(t, raw)
	assert.ElementsMatch(t, []interface{}{"text", "types"}, doc["required"])

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, props, "Module", "module is stamped by the registry, never read from producers")
}
