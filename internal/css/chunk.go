// Package css implements stylesheet chunks. A stylesheet chunk is already a
// finished output artifact, so the chunking policy passes it through as is.
package css

import (
	"context"
	"fmt"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
	"devchunk/internal/sourcemap"
)

// Chunk concatenates stylesheet modules into one file.
type Chunk struct {
	cc      chunk.Context
	ident   ident.AssetIdent
	modules []chunk.Module
}

// NewChunk creates a stylesheet chunk. modules is copied.
func NewChunk(cc chunk.Context, id ident.AssetIdent, modules []chunk.Module) *Chunk {
	return &Chunk{cc: cc, ident: id, modules: append([]chunk.Module(nil), modules...)}
}

func (c *Chunk) Ident() ident.AssetIdent { return c.ident }

func (c *Chunk) Kind() chunk.Kind { return chunk.KindStyle }

func (c *Chunk) Modules() []chunk.Module { return c.modules }

func (c *Chunk) Path() (ident.Path, error) {
	return c.cc.ChunkPath(c.ident, ".css"), nil
}

func (c *Chunk) Content(context.Context) ([]byte, error) {
	out, _, err := c.render(false)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// SourceMap maps every stylesheet back to its module.
func (c *Chunk) SourceMap(context.Context) ([]byte, error) {
	_, sm, err := c.render(true)
	if err != nil {
		return nil, err
	}
	return sm.Encode()
}

func (c *Chunk) render(withMap bool) (string, *sourcemap.Builder, error) {
	p, _ := c.Path()
	var sm *sourcemap.Builder
	if withMap {
		sm = sourcemap.NewBuilder(p.FileName())
	}
	var sb strings.Builder
	line := 0
	for _, m := range c.modules {
		src, err := m.Content()
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", m.Ident(), err)
		}
		id := string(c.cc.ChunkItemIDFromIdent(m.Ident()))
		sb.WriteString("/* ")
		sb.WriteString(id)
		sb.WriteString(" */\n")
		line++
		n := sourcemap.LineCount(src)
		if sm != nil {
			sm.MapLines(line, sm.AddSource(id, src), 0, n)
		}
		sb.Write(src)
		if len(src) > 0 && src[len(src)-1] != '\n' {
			sb.WriteByte('\n')
		}
		line += n
	}
	if c.cc.ReferenceChunkSourceMaps(c) {
		sb.WriteString("/*# sourceMappingURL=")
		sb.WriteString(p.FileName())
		sb.WriteString(".map */\n")
	}
	return sb.String(), sm, nil
}
