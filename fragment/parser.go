// Package fragment parses producer output into implementor fragments and
// sidebar listings.
package fragment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/reglet-dev/reglet-docindex/schema"
	"github.com/reglet-dev/reglet-docindex/sidebar"
	"github.com/reglet-dev/reglet-docindex/validation"
)

// Schema kinds checked by the parsers.
const (
	KindRecord               = schema.KindRecord
	KindImplementorsDocument = schema.KindImplementorsDocument
	KindSidebarDocument      = schema.KindSidebarDocument
)

// Parser turns one producer file into registry input.
type Parser interface {
	// ParseImplementors returns the fragments contained in an implementors file.
	ParseImplementors(path string, data []byte) ([]implementors.Fragment, error)

	// ParseSidebar returns the sidebar listing contained in a sidebar file.
	ParseSidebar(path string, data []byte) (*SidebarDocument, error)
}

// SidebarDocument is one module's sidebar listing.
type SidebarDocument struct {
	Module string
	Items  sidebar.Items
}

// Option configures a parser.
type Option func(*options)

type options struct {
	validator *validation.Validator
	warnings  implementors.WarningHandler
	logger    *slog.Logger
}

// WithValidator sets the schema validator used for records and documents.
func WithValidator(v *validation.Validator) Option {
	return func(o *options) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithWarningHandler sets where skipped records are reported.
func WithWarningHandler(h implementors.WarningHandler) Option {
	return func(o *options) {
		if h != nil {
			o.warnings = h
		}
	}
}

// WithLogger sets the parser logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.validator == nil {
		o.validator = validation.NewValidator(schema.Default())
	}
	if o.warnings == nil {
		o.warnings = &implementors.LogWarningHandler{Logger: o.logger}
	}
	return o
}

// ForPath picks a parser by file extension: .js for generated scripts,
// .json and .yaml/.yml for documents.
func ForPath(p string, opts ...Option) (Parser, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".js":
		return NewScriptParser(opts...), nil
	case ".json":
		return NewJSONParser(opts...), nil
	case ".yaml", ".yml":
		return NewYAMLParser(opts...), nil
	default:
		return nil, fmt.Errorf("no parser for %q", p)
	}
}

// decodeRecords validates each raw record and decodes the valid ones.
// Invalid records are reported and skipped.
func (o options) decodeRecords(module, capability string, raw []json.RawMessage) []implementors.Record {
	records := make([]implementors.Record, 0, len(raw))
	for i, msg := range raw {
		res, err := o.validator.ValidateJSON(KindRecord, msg)
		if err != nil {
			o.warn(module, capability, i, err.Error())
			continue
		}
		if !res.Valid {
			o.warn(module, capability, i, res.Error())
			continue
		}
		var rec implementors.Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			o.warn(module, capability, i, err.Error())
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (o options) warn(module, capability string, index int, reason string) {
	o.warnings.OnMalformed(&implementors.MalformedFragmentWarning{
		Module:     module,
		Capability: capability,
		Record:     index,
		Reason:     reason,
	})
}

// decodeSidebarItems accepts items as [name, description] pairs, as
// one-element [name] arrays, or as bare name strings.
func (o options) decodeSidebarItems(module string, raw map[string][]json.RawMessage) sidebar.Items {
	items := make(sidebar.Items, len(raw))
	for kind, list := range raw {
		out := make([]sidebar.Item, 0, len(list))
		for i, msg := range list {
			item, err := decodeSidebarItem(msg)
			if err != nil {
				o.logger.Warn("skipping malformed sidebar item",
					"module", module, "kind", kind, "index", i, "error", err)
				continue
			}
			out = append(out, item)
		}
		items[sidebar.Kind(kind)] = out
	}
	return items
}

func decodeSidebarItem(msg json.RawMessage) (sidebar.Item, error) {
	var name string
	if err := json.Unmarshal(msg, &name); err == nil {
		return sidebar.Item{Name: name}, nil
	}

	var parts []interface{}
	if err := json.Unmarshal(msg, &parts); err != nil {
		return sidebar.Item{}, fmt.Errorf("want a name or a [name, description] pair")
	}
	if len(parts) == 0 {
		return sidebar.Item{}, fmt.Errorf("empty item")
	}
	name, ok := parts[0].(string)
	if !ok {
		return sidebar.Item{}, fmt.Errorf("item name is not a string")
	}
	item := sidebar.Item{Name: name}
	if len(parts) > 1 && parts[1] != nil {
		desc, ok := parts[1].(string)
		if !ok {
			return sidebar.Item{}, fmt.Errorf("item description is not a string")
		}
		item.Description = desc
	}
	return item, nil
}
