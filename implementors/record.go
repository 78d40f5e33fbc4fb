// Package implementors implements the implementor registry: per-module
// fragments listing which concrete types implement which capability are
// merged into one index and delivered to a single rendering consumer.
package implementors

import (
	"sort"
	"strings"
)

// Record is one concrete type's claim to implement a capability within one
// originating module.
type Record struct {
	// Text is the rendered implementation signature. It may contain markup,
	// generic parameters and trailing where-clauses.
	Text string `json:"text" yaml:"text" jsonschema:"minLength=1"`

	// Types holds stable identifier paths for the implementing type.
	// The first entry is the target type used for links and deduplication.
	Types []string `json:"types" yaml:"types" jsonschema:"minItems=1"`

	// Synthetic is true when the implementation was derived automatically
	// rather than written explicitly. It only affects display grouping.
	Synthetic bool `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`

	// Module is the originating module. Set by the registry on ingestion.
	Module string `json:"-" yaml:"-"`
}

// TargetTypeID returns the stable identifier of the implementing type.
func (r Record) TargetTypeID() string {
	if len(r.Types) == 0 {
		return ""
	}
	return r.Types[0]
}

// validate reports why the record cannot be ingested, or "" when it is fine.
func (r Record) validate() string {
	if strings.TrimSpace(r.Text) == "" {
		return "missing display text"
	}
	if len(r.Types) == 0 {
		return "missing type identifiers"
	}
	for _, t := range r.Types {
		if strings.TrimSpace(t) == "" {
			return "empty type identifier"
		}
	}
	return ""
}

func (r Record) clone() Record {
	out := r
	out.Types = append([]string(nil), r.Types...)
	return out
}

// Implementors maps a capability name to its accumulated records.
// It is the payload handed to consumers.
type Implementors map[string][]Record

// Merge appends other's records to m, capability by capability.
// Capabilities are visited in sorted order; order within a capability is kept.
func (m Implementors) Merge(other Implementors) {
	for _, capability := range other.Capabilities() {
		records := other[capability]
		existing, ok := m[capability]
		if !ok {
			existing = make([]Record, 0, len(records))
		}
		for _, rec := range records {
			existing = append(existing, rec.clone())
		}
		m[capability] = existing
	}
}

// Clone returns a deep copy of m.
func (m Implementors) Clone() Implementors {
	out := make(Implementors, len(m))
	out.Merge(m)
	return out
}

// Capabilities returns the capability names in lexicographic order.
func (m Implementors) Capabilities() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of records across all capabilities.
func (m Implementors) Count() int {
	n := 0
	for _, records := range m {
		n += len(records)
	}
	return n
}
