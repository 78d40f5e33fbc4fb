// Package sidebar holds per-module listings of exported symbols, grouped by
// kind, as shown in a documentation navigation sidebar.
package sidebar

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Kind tags a group of sidebar items (struct, fn, constant, ...).
type Kind string

const (
	KindModule      Kind = "mod"
	KindMacro       Kind = "macro"
	KindStruct      Kind = "struct"
	KindEnum        Kind = "enum"
	KindUnion       Kind = "union"
	KindPrimitive   Kind = "primitive"
	KindTrait       Kind = "trait"
	KindFunction    Kind = "fn"
	KindType        Kind = "type"
	KindStatic      Kind = "static"
	KindConstant    Kind = "constant"
	KindKeyword     Kind = "keyword"
	KindAttribute   Kind = "attr"
	KindDerive      Kind = "derive"
	KindTraitAlias  Kind = "traitalias"
	KindExternCrate Kind = "externcrate"
	KindImport      Kind = "import"
)

// displayOrder is the order kinds appear in a sidebar.
var displayOrder = []Kind{
	KindExternCrate,
	KindImport,
	KindModule,
	KindMacro,
	KindStruct,
	KindEnum,
	KindUnion,
	KindPrimitive,
	KindTrait,
	KindTraitAlias,
	KindFunction,
	KindType,
	KindStatic,
	KindConstant,
	KindKeyword,
	KindAttribute,
	KindDerive,
}

// Known reports whether k is one of the predefined kinds.
func (k Kind) Known() bool {
	return k.rank() < len(displayOrder)
}

func (k Kind) rank() int {
	for i, known := range displayOrder {
		if known == k {
			return i
		}
	}
	return len(displayOrder)
}

// Title returns the sidebar heading for k.
func (k Kind) Title() string {
	switch k {
	case KindModule:
		return "Modules"
	case KindMacro:
		return "Macros"
	case KindStruct:
		return "Structs"
	case KindEnum:
		return "Enums"
	case KindUnion:
		return "Unions"
	case KindPrimitive:
		return "Primitive Types"
	case KindTrait:
		return "Traits"
	case KindFunction:
		return "Functions"
	case KindType:
		return "Type Definitions"
	case KindStatic:
		return "Statics"
	case KindConstant:
		return "Constants"
	case KindKeyword:
		return "Keywords"
	case KindAttribute:
		return "Attribute Macros"
	case KindDerive:
		return "Derive Macros"
	case KindTraitAlias:
		return "Trait Aliases"
	case KindExternCrate:
		return "Re-exported Crates"
	case KindImport:
		return "Re-exports"
	default:
		return string(k)
	}
}

// SortKinds orders kinds for display: known kinds first in sidebar order,
// unknown kinds after them alphabetically.
func SortKinds(kinds []Kind) {
	sort.SliceStable(kinds, func(i, j int) bool {
		ri, rj := kinds[i].rank(), kinds[j].rank()
		if ri != rj {
			return ri < rj
		}
		return kinds[i] < kinds[j]
	})
}

// Item is one exported symbol with a one-line description.
type Item struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Items maps a kind to its items in display order.
type Items map[Kind][]Item

// Count returns the number of items across all kinds.
func (it Items) Count() int {
	n := 0
	for _, items := range it {
		n += len(items)
	}
	return n
}

// Index associates each module with its sidebar items. Registrations for
// the same module replace earlier ones. It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	modules map[string]Items
	logger  *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for index events.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// NewIndex creates an empty sidebar index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		modules: make(map[string]Items),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Set stores items for module, replacing any previous registration.
// Empty names are dropped; a repeated name within a kind keeps the first.
func (ix *Index) Set(module string, items Items) {
	clean := make(Items, len(items))
	for kind, list := range items {
		if !kind.Known() {
			ix.logger.Debug("unknown sidebar kind", "module", module, "kind", kind)
		}
		seen := make(map[string]struct{}, len(list))
		out := make([]Item, 0, len(list))
		for _, item := range list {
			name := strings.TrimSpace(item.Name)
			if name == "" {
				ix.logger.Warn("dropping sidebar item without a name", "module", module, "kind", kind)
				continue
			}
			if _, dup := seen[name]; dup {
				ix.logger.Warn("dropping duplicate sidebar item", "module", module, "kind", kind, "name", name)
				continue
			}
			seen[name] = struct{}{}
			out = append(out, Item{Name: name, Description: item.Description})
		}
		clean[kind] = out
	}

	ix.mu.Lock()
	_, replaced := ix.modules[module]
	ix.modules[module] = clean
	ix.mu.Unlock()

	ix.logger.Debug("sidebar items registered", "module", module, "items", clean.Count(), "replaced", replaced)
}

// Lookup returns module's items of kind. Unknown modules or kinds yield an
// empty list.
func (ix *Index) Lookup(module string, kind Kind) []Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	list := ix.modules[module][kind]
	return append(make([]Item, 0, len(list)), list...)
}

// Items returns a copy of everything registered for module.
func (ix *Index) Items(module string) (Items, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	items, ok := ix.modules[module]
	if !ok {
		return Items{}, false
	}
	out := make(Items, len(items))
	for kind, list := range items {
		out[kind] = append([]Item(nil), list...)
	}
	return out, true
}

// Kinds returns the kinds registered for module in display order.
func (ix *Index) Kinds(module string) []Kind {
	ix.mu.RLock()
	kinds := make([]Kind, 0, len(ix.modules[module]))
	for kind := range ix.modules[module] {
		kinds = append(kinds, kind)
	}
	ix.mu.RUnlock()
	SortKinds(kinds)
	return kinds
}

// Modules returns all registered module identifiers, sorted.
func (ix *Index) Modules() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.modules))
	for module := range ix.modules {
		out = append(out, module)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered modules.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.modules)
}
