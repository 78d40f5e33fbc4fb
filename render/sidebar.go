package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/reglet-dev/reglet-docindex/sidebar"
)

// WriteSidebar writes module's sidebar listing grouped by kind in display
// order. When kinds are given only those are written.
func WriteSidebar(w io.Writer, ix *sidebar.Index, module string, kinds ...sidebar.Kind) error {
	if _, ok := ix.Items(module); !ok {
		return fmt.Errorf("no sidebar items for module %q", module)
	}
	if len(kinds) == 0 {
		kinds = ix.Kinds(module)
	}

	var b strings.Builder
	b.WriteString(module + "\n")
	for _, kind := range kinds {
		items := ix.Lookup(module, kind)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s:\n", kind.Title())
		for _, item := range items {
			if item.Description == "" {
				fmt.Fprintf(&b, "    %s\n", item.Name)
			} else {
				fmt.Fprintf(&b, "    %s - %s\n", item.Name, PlainText(item.Description))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
