package schema

import "github.com/reglet-dev/reglet-docindex/implementors"

// Well-known kinds registered by Default.
const (
	KindRecord               = "implementation-record"
	KindImplementorsDocument = "implementors-document"
	KindSidebarDocument      = "sidebar-document"
)

// Default returns a registry holding every producer record and document
// kind. Records are reflected from implementors.Record; document envelopes
// are written by hand so their member lists stay open to per-record checks.
func Default() *Registry {
	reg := NewRegistry()
	reg.MustRegister(KindRecord, implementors.Record{})
	reg.MustRegister(KindImplementorsDocument, map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"module", "implementors"},
		"properties": map[string]interface{}{
			"module": map[string]interface{}{"type": "string", "minLength": 1},
			"implementors": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": []interface{}{"array", "null"}},
			},
		},
	})
	reg.MustRegister(KindSidebarDocument, map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"module", "items"},
		"properties": map[string]interface{}{
			"module": map[string]interface{}{"type": "string", "minLength": 1},
			"items": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "array"},
			},
		},
	})
	return reg
}
