package modules

import (
	"context"
	"strings"
)

// Registry is a source of standard library modules, keyed by the
// slash-joined module path ("strings", "net/http").
type Registry interface {
	Lookup(ctx context.Context, name string) (src string, ok bool, err error)
}

// MapRegistry is an in-memory Registry.
type MapRegistry map[string]string

func (m MapRegistry) Lookup(_ context.Context, name string) (string, bool, error) {
	src, ok := m[name]
	return src, ok, nil
}

// ModuleName joins path segments into a registry key.
func ModuleName(path []string) string {
	return strings.Join(path, "/")
}
