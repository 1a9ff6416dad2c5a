package chunking

import (
	"devchunk/internal/chunk"
	"devchunk/internal/ecmascript"
)

// AsyncLoaderChunkItem returns the chunk item that loads module on demand.
// The lazy group of module is assembled against availability when the
// item is rendered.
func (p *Policy) AsyncLoaderChunkItem(module chunk.Module, availability chunk.Availability) *ecmascript.ManifestLoaderItem {
	manifest := ecmascript.NewManifestAsyncModule(p, module, availability)
	return ecmascript.NewManifestLoaderItem(p, manifest)
}

// AsyncLoaderChunkItemID returns the id of the loader item for module. It
// depends only on the module identity.
func (p *Policy) AsyncLoaderChunkItemID(module chunk.Module) chunk.ModuleID {
	return p.ChunkItemIDFromIdent(ecmascript.LoaderIdentFor(module))
}
