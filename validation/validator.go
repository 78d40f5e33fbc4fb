// Package validation checks raw producer data against registered JSON schemas.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaSource provides JSON schemas by kind.
type SchemaSource interface {
	GetSchema(kind string) (string, bool)
}

// Result is the outcome of validating one value.
type Result struct {
	Errors []string
	Valid  bool
}

// Error joins the validation errors into one message.
func (r *Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

// Validator compiles schemas on first use and caches them.
// It is safe for concurrent use.
type Validator struct {
	source   SchemaSource
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator creates a validator reading schemas from source.
func NewValidator(source SchemaSource) *Validator {
	return &Validator{
		source:   source,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

func (v *Validator) schema(kind string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[kind]; ok {
		return s, nil
	}

	raw, ok := v.source.GetSchema(kind)
	if !ok {
		return nil, fmt.Errorf("no schema registered for %q", kind)
	}

	url := "https://docindex.local/schemas/" + kind + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("loading schema %q: %w", kind, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %q: %w", kind, err)
	}
	v.compiled[kind] = s
	return s, nil
}

// Validate checks a decoded JSON value (as produced by json.Unmarshal into
// interface{}) against the schema for kind. The returned error is only set
// when the schema itself is unavailable.
func (v *Validator) Validate(kind string, value interface{}) (*Result, error) {
	s, err := v.schema(kind)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(value); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &Result{Errors: flatten(verr)}, nil
		}
		return &Result{Errors: []string{err.Error()}}, nil
	}
	return &Result{Valid: true}, nil
}

// ValidateJSON decodes data and validates it against the schema for kind.
func (v *Validator) ValidateJSON(kind string, data []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return &Result{Errors: []string{fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}
	return v.Validate(kind, value)
}

// flatten collects leaf messages, prefixed with their instance location.
func flatten(err *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(err)
	sort.Strings(out)
	return out
}
