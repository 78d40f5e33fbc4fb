package fragment

import (
	"fmt"
	"path"
	"strings"
)

const (
	implementorsDir = "implementors"
	pathSeparator   = "::"
	traitFilePrefix = "trait."
)

// CapabilityFromPath derives a capability name from an implementors script
// path: "implementors/tokio_io/async_write/trait.AsyncWrite.js" becomes
// "tokio_io::async_write::AsyncWrite".
func CapabilityFromPath(p string) (string, error) {
	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	segments := strings.Split(p, "/")
	for i, s := range segments {
		if s == implementorsDir {
			segments = segments[i+1:]
			break
		}
	}
	if len(segments) < 2 {
		return "", fmt.Errorf("path %q has no crate and trait file", p)
	}

	file := segments[len(segments)-1]
	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	name = strings.TrimPrefix(name, traitFilePrefix)
	if name == "" {
		return "", fmt.Errorf("path %q has an empty trait name", p)
	}

	parts := append(segments[:len(segments)-1:len(segments)-1], name)
	return strings.Join(parts, pathSeparator), nil
}

// ModuleFromSidebarPath derives a module path from a sidebar file location:
// "pallet_balances/sidebar-items.js" becomes "pallet_balances" and
// "a/b/sidebar-items.js" becomes "a::b".
func ModuleFromSidebarPath(p string) (string, error) {
	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	dir := path.Dir(p)
	if dir == "." || dir == "/" || dir == "" {
		return "", fmt.Errorf("sidebar file %q is not inside a module directory", p)
	}
	dir = strings.Trim(dir, "/")
	return strings.ReplaceAll(dir, "/", pathSeparator), nil
}
