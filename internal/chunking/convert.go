package chunking

import (
	"fmt"

	"devchunk/internal/chunk"
	"devchunk/internal/ecmascript"
)

// GenerateChunk turns a chunk produced by the grouping algorithm into its
// output artifact. Script chunks get the development representation; kinds
// that already are output artifacts pass through unchanged.
func (p *Policy) GenerateChunk(c chunk.Chunk) (chunk.OutputAsset, error) {
	switch c.Kind() {
	case chunk.KindScript:
		script, ok := c.(*chunk.ScriptChunk)
		if !ok {
			return nil, fmt.Errorf("%w: script chunk %s has type %T", chunk.ErrUnsupportedChunkKind, c.Ident(), c)
		}
		return ecmascript.NewDevChunk(p, script), nil
	case chunk.KindStyle, chunk.KindAsset:
		if asset, ok := c.(chunk.OutputAsset); ok {
			return asset, nil
		}
	}
	return nil, fmt.Errorf("%w: unable to generate output asset for %s chunk %s", chunk.ErrUnsupportedChunkKind, c.Kind(), c.Ident())
}
