package ecmascript

import (
	"context"
	"fmt"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
)

// ManifestAsyncModule stands for a module reached only through an on-demand
// import. Resolving it assembles the lazy chunk group of the target.
type ManifestAsyncModule struct {
	cc           Context
	target       chunk.Module
	availability chunk.Availability
}

// NewManifestAsyncModule defers the lazy group of target.
func NewManifestAsyncModule(cc Context, target chunk.Module, availability chunk.Availability) *ManifestAsyncModule {
	return &ManifestAsyncModule{cc: cc, target: target, availability: availability}
}

// Target returns the module loaded on demand.
func (m *ManifestAsyncModule) Target() chunk.Module { return m.target }

// Availability returns the availability the lazy group is assembled against.
func (m *ManifestAsyncModule) Availability() chunk.Availability { return m.availability }

func (m *ManifestAsyncModule) Ident() ident.AssetIdent {
	return m.target.Ident().WithModifier("manifest chunk")
}

// ChunkGroup assembles the lazy group of the target.
func (m *ManifestAsyncModule) ChunkGroup(ctx context.Context) (chunk.ChunkGroupResult, error) {
	return m.cc.ChunkGroup(ctx, m.target, m.availability)
}

// Assets lists the artifacts of the lazy group without rendering them.
func (m *ManifestAsyncModule) Assets(ctx context.Context) ([]chunk.OutputAsset, error) {
	assets, _, err := m.cc.ChunkGroupAssets(ctx, m.target, m.availability)
	return assets, err
}

// LoaderIdentFor returns the identity of the loader item for module. It
// depends on nothing but the module identity, so the derived id is stable
// across rebuilds.
func LoaderIdentFor(module chunk.Module) ident.AssetIdent {
	return module.Ident().WithModifier("manifest chunk").WithModifier("loader")
}

// ManifestLoaderItem is the chunk item embedded in the importing chunk. It
// loads every chunk of the lazy group, then imports the target.
type ManifestLoaderItem struct {
	cc       Context
	manifest *ManifestAsyncModule
}

// NewManifestLoaderItem creates the loader for manifest.
func NewManifestLoaderItem(cc Context, manifest *ManifestAsyncModule) *ManifestLoaderItem {
	return &ManifestLoaderItem{cc: cc, manifest: manifest}
}

// Manifest returns the deferred group.
func (l *ManifestLoaderItem) Manifest() *ManifestAsyncModule { return l.manifest }

// Ident returns the loader identity.
func (l *ManifestLoaderItem) Ident() ident.AssetIdent { return LoaderIdentFor(l.manifest.target) }

// ID returns the module id the importing chunk refers to the loader by.
func (l *ManifestLoaderItem) ID() chunk.ModuleID {
	return l.cc.ChunkItemIDFromIdent(l.Ident())
}

// Content renders the loader factory body. Only the paths of the lazy
// group are read and its chunks are never rendered, so async import cycles
// terminate.
func (l *ManifestLoaderItem) Content(ctx context.Context) ([]byte, error) {
	assets, err := l.manifest.Assets(ctx)
	if err != nil {
		return nil, fmt.Errorf("loader for %s: %w", l.manifest.target.Ident(), err)
	}
	urls, err := chunkURLs(l.cc, assets)
	if err != nil {
		return nil, err
	}
	list, err := jsonValue(urls)
	if err != nil {
		return nil, err
	}
	target := l.cc.ChunkItemIDFromIdent(l.manifest.target.Ident())

	var sb strings.Builder
	sb.WriteString("__turbopack_context__.v((__turbopack_import__) => {\n")
	sb.WriteString("  return Promise.all(")
	sb.WriteString(list)
	sb.WriteString(".map((chunk) => __turbopack_context__.l(chunk))).then(() => __turbopack_import__(")
	sb.WriteString(jsString(string(target)))
	sb.WriteString("));\n});\n")
	return []byte(sb.String()), nil
}
