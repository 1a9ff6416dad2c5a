package ecmascript

import (
	"context"
	"fmt"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
	"devchunk/internal/sourcemap"
)

// DevChunk is the development output of a script chunk: readable module ids,
// one factory per module and an optional source map reference.
type DevChunk struct {
	cc    Context
	chunk *chunk.ScriptChunk
}

// NewDevChunk wraps c for output.
func NewDevChunk(cc Context, c *chunk.ScriptChunk) *DevChunk {
	return &DevChunk{cc: cc, chunk: c}
}

// Chunk returns the wrapped script chunk.
func (c *DevChunk) Chunk() *chunk.ScriptChunk { return c.chunk }

func (c *DevChunk) Ident() ident.AssetIdent { return c.chunk.Ident() }

func (c *DevChunk) Path() (ident.Path, error) {
	return c.cc.ChunkPath(c.chunk.Ident(), ".js"), nil
}

// Content renders the chunk. Loaders for the chunk's on-demand imports are
// rendered as additional factories after the module factories.
func (c *DevChunk) Content(ctx context.Context) ([]byte, error) {
	out, _, err := c.render(ctx, false)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// SourceMap maps every module factory body back to its module.
func (c *DevChunk) SourceMap(ctx context.Context) ([]byte, error) {
	_, sm, err := c.render(ctx, true)
	if err != nil {
		return nil, err
	}
	return sm.Encode()
}

func (c *DevChunk) render(ctx context.Context, withMap bool) (string, *sourcemap.Builder, error) {
	p, _ := c.Path()
	url, err := c.cc.ChunkURL(p)
	if err != nil {
		return "", nil, err
	}
	refresh := c.cc.IsHotModuleReplacementEnabled() && c.cc.HasReactRefresh()

	var sm *sourcemap.Builder
	if withMap {
		sm = sourcemap.NewBuilder(p.FileName())
	}
	var lb lineBuilder
	lb.write("(globalThis.TURBOPACK = globalThis.TURBOPACK || []).push([")
	lb.write(jsString(url))
	lb.write(", {\n")
	for _, m := range c.chunk.Modules() {
		src, err := m.Content()
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", m.Ident(), err)
		}
		id := c.cc.ChunkItemIDFromIdent(m.Ident())
		bodyLine := writeFactory(&lb, id, string(src), refresh)
		if sm != nil {
			source := sm.AddSource(string(id), src)
			sm.MapLines(bodyLine, source, 0, sourcemap.LineCount(src))
		}
	}
	for _, target := range c.chunk.AsyncTargets {
		loader := c.cc.AsyncLoaderChunkItem(target, c.chunk.Availability)
		code, err := loader.Content(ctx)
		if err != nil {
			return "", nil, err
		}
		writeFactory(&lb, loader.ID(), string(code), false)
	}
	lb.write("}]);\n")
	if c.cc.ReferenceChunkSourceMaps(c) {
		lb.write(sourceMapComment(p))
	}
	return lb.String(), sm, nil
}

// lineBuilder collects output and counts the newlines written.
type lineBuilder struct {
	sb    strings.Builder
	lines int
}

func (b *lineBuilder) write(s string) {
	b.lines += strings.Count(s, "\n")
	b.sb.WriteString(s)
}

func (b *lineBuilder) String() string { return b.sb.String() }

// writeFactory writes one module factory and returns the generated line its
// body starts on.
func writeFactory(lb *lineBuilder, id chunk.ModuleID, body string, refresh bool) int {
	lb.write(jsString(string(id)))
	lb.write(": ((__turbopack_context__) => {\n")
	start := lb.lines
	lb.write(body)
	if !strings.HasSuffix(body, "\n") {
		lb.write("\n")
	}
	if refresh {
		lb.write("__turbopack_context__.k?.register(")
		lb.write(jsString(string(id)))
		lb.write(");\n")
	}
	lb.write("}),\n")
	return start
}
