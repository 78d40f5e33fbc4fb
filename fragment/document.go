package fragment

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/reglet-docindex/implementors"
)

// implementorsDocument is the document form of one module's fragment:
//
//	{"module": "tokio_uds", "implementors": {"tokio_io::AsyncWrite": [ ... ]}}
type implementorsDocument struct {
	Module       string          `json:"module"`
	Implementors json.RawMessage `json:"implementors"`
}

// sidebarDocument is the document form of one module's sidebar:
//
//	{"module": "pallet_balances", "items": {"struct": [["Pallet", "..."]]}}
type sidebarDocument struct {
	Module string                       `json:"module"`
	Items  map[string][]json.RawMessage `json:"items"`
}

// JSONParser reads fragment and sidebar documents encoded as JSON.
type JSONParser struct {
	opts options
}

// NewJSONParser creates a new JSONParser.
func NewJSONParser(opts ...Option) Parser {
	return &JSONParser{opts: newOptions(opts)}
}

// ParseImplementors returns the single fragment the document describes.
// Capabilities keep the order they appear in the document.
func (p *JSONParser) ParseImplementors(path string, data []byte) ([]implementors.Fragment, error) {
	return p.opts.parseImplementorsDocument(path, data)
}

// ParseSidebar returns the sidebar listing the document describes.
func (p *JSONParser) ParseSidebar(path string, data []byte) (*SidebarDocument, error) {
	return p.opts.parseSidebarDocument(path, data)
}

// YAMLParser reads the same documents as JSONParser, written in YAML.
type YAMLParser struct {
	opts options
}

// NewYAMLParser creates a new YAMLParser.
func NewYAMLParser(opts ...Option) Parser {
	return &YAMLParser{opts: newOptions(opts)}
}

// ParseImplementors converts the document to JSON and parses it.
func (p *YAMLParser) ParseImplementors(path string, data []byte) ([]implementors.Fragment, error) {
	converted, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p.opts.parseImplementorsDocument(path, converted)
}

// ParseSidebar converts the document to JSON and parses it.
func (p *YAMLParser) ParseSidebar(path string, data []byte) (*SidebarDocument, error) {
	converted, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p.opts.parseSidebarDocument(path, converted)
}

func (o options) checkDocument(path, kind string, data []byte) error {
	res, err := o.validator.ValidateJSON(kind, data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !res.Valid {
		return fmt.Errorf("%s: invalid %s: %s", path, kind, res.Error())
	}
	return nil
}

func (o options) parseImplementorsDocument(path string, data []byte) ([]implementors.Fragment, error) {
	if err := o.checkDocument(path, KindImplementorsDocument, data); err != nil {
		return nil, err
	}

	var doc implementorsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entries, err := orderedEntries(doc.Implementors)
	if err != nil {
		return nil, fmt.Errorf("%s: implementors: %w", path, err)
	}

	frag := implementors.NewFragment(doc.Module)
	for _, e := range entries {
		var raw []json.RawMessage
		if err := json.Unmarshal(e.value, &raw); err != nil {
			o.warn(doc.Module, e.key, -1, fmt.Sprintf("unreadable record list: %v", err))
			continue
		}
		frag.Add(e.key, o.decodeRecords(doc.Module, e.key, raw)...)
	}
	return []implementors.Fragment{*frag}, nil
}

func (o options) parseSidebarDocument(path string, data []byte) (*SidebarDocument, error) {
	if err := o.checkDocument(path, KindSidebarDocument, data); err != nil {
		return nil, err
	}

	var doc sidebarDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &SidebarDocument{
		Module: doc.Module,
		Items:  o.decodeSidebarItems(doc.Module, doc.Items),
	}, nil
}

type keyedValue struct {
	key   string
	value json.RawMessage
}

// orderedEntries walks a JSON object and returns its members in order.
func orderedEntries(obj json.RawMessage) ([]keyedValue, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object")
	}

	var out []keyedValue
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, keyedValue{key: key, value: value})
	}
	return out, nil
}
