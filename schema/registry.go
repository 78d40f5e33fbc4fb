// Package schema implements a registry of JSON schemas for producer data.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

// Registry manages JSON schemas keyed by document kind
// (e.g. "implementation-record").
type Registry struct {
	schemas   map[string]string
	mu        sync.RWMutex
	strict    bool
	reflector *jsonschema.Reflector
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithStrictMode rejects unknown properties in generated schemas. Off by
// default so producers can add fields without breaking older readers.
func WithStrictMode(strict bool) RegistryOption {
	return func(r *Registry) {
		r.strict = strict
	}
}

// NewRegistry creates a new schema registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		schemas: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.reflector = &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: !r.strict,
	}
	return r
}

// Register adds a schema for a document kind.
// model can be a Go struct (to generate schema) or a raw JSON schema string,
// byte slice or map.
func (r *Registry) Register(kind string, model interface{}) error {
	if kind == "" {
		return fmt.Errorf("schema kind cannot be empty")
	}

	schemaStr, err := r.render(model)
	if err != nil {
		return fmt.Errorf("schema %q: %w", kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[kind]; exists {
		return fmt.Errorf("schema kind already registered: %s", kind)
	}
	r.schemas[kind] = schemaStr
	return nil
}

// MustRegister panics on registration error.
func (r *Registry) MustRegister(kind string, model interface{}) {
	if err := r.Register(kind, model); err != nil {
		panic(err)
	}
}

func (r *Registry) render(model interface{}) (string, error) {
	switch v := model.(type) {
	case nil:
		return "", fmt.Errorf("nil model")
	case string:
		if !json.Valid([]byte(v)) {
			return "", fmt.Errorf("schema string is not valid JSON")
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return "", fmt.Errorf("schema bytes are not valid JSON")
		}
		return string(v), nil
	case map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal schema map: %w", err)
		}
		return string(b), nil
	}

	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct && t.Kind() != reflect.Slice && t.Kind() != reflect.Map {
		return "", fmt.Errorf("cannot generate schema from %s", t.Kind())
	}

	s := r.reflector.Reflect(model)
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	return string(b), nil
}

// GetSchema retrieves the JSON schema for a document kind.
func (r *Registry) GetSchema(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[kind]
	return s, ok
}

// List returns all registered kinds in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
