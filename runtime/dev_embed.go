// Package runtimeembed provides the embedded development runtime that
// bootstraps evaluated chunk groups.
package runtimeembed

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed dev/*.js
var devRuntimeFS embed.FS

// DevRuntimeFS exposes the embedded runtime sources.
func DevRuntimeFS() fs.FS {
	return devRuntimeFS
}

// DevRuntime returns the shared runtime followed by the chunk loading
// backend for the given platform ("dom" or "node").
func DevRuntime(backend string) ([]byte, error) {
	base, err := devRuntimeFS.ReadFile("dev/base.js")
	if err != nil {
		return nil, err
	}
	loader, err := devRuntimeFS.ReadFile("dev/" + backend + ".js")
	if err != nil {
		return nil, fmt.Errorf("unknown runtime backend %q: %w", backend, err)
	}
	out := make([]byte, 0, len(base)+len(loader)+1)
	out = append(out, base...)
	out = append(out, '\n')
	out = append(out, loader...)
	return out, nil
}
