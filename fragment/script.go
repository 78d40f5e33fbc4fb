package fragment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/reglet-dev/reglet-docindex/implementors"
)

var (
	// implementors["crate_name"] = [ ... ];
	implementorsAssign = regexp.MustCompile(`implementors\[("(?:[^"\\]|\\.)*")\]\s*=\s*`)

	sidebarCall = []byte("initSidebarItems(")
)

// ScriptParser reads the JavaScript files emitted by rustdoc. Implementors
// scripts assign one array per crate; the capability is taken from the
// file path. Sidebar scripts call initSidebarItems with a kind-keyed object;
// the module is taken from the directory.
type ScriptParser struct {
	opts options
}

// NewScriptParser creates a new ScriptParser.
func NewScriptParser(opts ...Option) Parser {
	return &ScriptParser{opts: newOptions(opts)}
}

// ParseImplementors returns one fragment per crate assignment, in file order.
func (p *ScriptParser) ParseImplementors(path string, data []byte) ([]implementors.Fragment, error) {
	capability, err := CapabilityFromPath(path)
	if err != nil {
		return nil, err
	}

	matches := implementorsAssign.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: no implementors assignments found", path)
	}

	fragments := make([]implementors.Fragment, 0, len(matches))
	for _, m := range matches {
		var module string
		if err := json.Unmarshal(data[m[2]:m[3]], &module); err != nil {
			return nil, fmt.Errorf("%s: crate name: %w", path, err)
		}

		var raw []json.RawMessage
		dec := json.NewDecoder(bytes.NewReader(data[m[1]:]))
		if err := dec.Decode(&raw); err != nil {
			// A broken array only loses this crate's records.
			p.opts.warn(module, capability, -1, fmt.Sprintf("unreadable record list: %v", err))
			continue
		}

		// A crate whose records were all rejected still lists the capability.
		records := p.opts.decodeRecords(module, capability, raw)
		fragments = append(fragments, *implementors.NewFragment(module).Add(capability, records...))
	}
	return fragments, nil
}

// ParseSidebar decodes the argument of the initSidebarItems call.
func (p *ScriptParser) ParseSidebar(path string, data []byte) (*SidebarDocument, error) {
	module, err := ModuleFromSidebarPath(path)
	if err != nil {
		return nil, err
	}

	start := bytes.Index(data, sidebarCall)
	if start < 0 {
		return nil, fmt.Errorf("%s: no initSidebarItems call found", path)
	}

	var raw map[string][]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data[start+len(sidebarCall):]))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: sidebar items: %w", path, err)
	}

	return &SidebarDocument{
		Module: module,
		Items:  p.opts.decodeSidebarItems(module, raw),
	}, nil
}
