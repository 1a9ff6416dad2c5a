package chunking

import (
	"strings"

	"devchunk/internal/chunk"
)

const vendorSegment = "node_modules"

// CanBeInSameChunk reports whether b may join the chunk of a. The check is
// directional: b must lie below a's directory without crossing a
// node_modules segment on the way. Callers that need symmetry query both
// directions.
func (p *Policy) CanBeInSameChunk(a, b chunk.Module) bool {
	parent := a.Ident().Path.Parent()
	rel, ok := parent.PathTo(b.Ident().Path)
	if !ok {
		return false
	}
	return !strings.HasPrefix(rel, vendorSegment+"/") && !strings.Contains(rel, "/"+vendorSegment+"/")
}
