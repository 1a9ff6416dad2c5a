// Package ecmascript renders the development-mode script artifacts: module
// chunks, chunk-list registrations, evaluate bootstraps and on-demand loaders.
package ecmascript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
	"devchunk/internal/static"
)

// RuntimeType selects the runtime code included in evaluate chunks.
type RuntimeType uint8

const (
	// RuntimeDevelopment includes the full development runtime.
	RuntimeDevelopment RuntimeType = iota
	// RuntimeDummy includes no runtime code; used by tests and snapshots.
	RuntimeDummy
)

// String returns the string representation of RuntimeType.
func (r RuntimeType) String() string {
	switch r {
	case RuntimeDevelopment:
		return "development"
	case RuntimeDummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// ParseRuntimeType converts a config string to a RuntimeType.
func ParseRuntimeType(s string) (RuntimeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "development", "dev":
		return RuntimeDevelopment, nil
	case "dummy":
		return RuntimeDummy, nil
	default:
		return RuntimeDevelopment, fmt.Errorf("invalid runtime type %q (expected development|dummy)", s)
	}
}

// Context is the chunking policy as seen by script renderers. On-demand
// loaders list the artifacts of a lazy group through ChunkGroupAssets.
type Context interface {
	chunk.Context
	RuntimeType() RuntimeType
	HasReactRefresh() bool
	ChunkGroup(ctx context.Context, module chunk.Module, availability chunk.Availability) (chunk.ChunkGroupResult, error)
	ChunkGroupAssets(ctx context.Context, module chunk.Module, availability chunk.Availability) ([]chunk.OutputAsset, chunk.Availability, error)
	AsyncLoaderChunkItem(module chunk.Module, availability chunk.Availability) *ManifestLoaderItem
}

func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func jsonValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// chunkURLs maps artifacts to the URLs the runtime requests them from.
// Static assets are served from the asset base path, everything else from
// the chunk base path.
func chunkURLs(cc chunk.Context, assets []chunk.OutputAsset) ([]string, error) {
	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		if s, ok := a.(*static.Asset); ok {
			url, err := s.URL()
			if err != nil {
				return nil, err
			}
			urls = append(urls, url)
			continue
		}
		p, err := a.Path()
		if err != nil {
			return nil, err
		}
		url, err := cc.ChunkURL(p)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func moduleIDs(cc chunk.Context, modules []chunk.Module) []chunk.ModuleID {
	ids := make([]chunk.ModuleID, len(modules))
	for i, m := range modules {
		ids[i] = cc.ChunkItemIDFromIdent(m.Ident())
	}
	return ids
}

func sourceMapComment(p ident.Path) string {
	return "//# sourceMappingURL=" + p.FileName() + ".map\n"
}
