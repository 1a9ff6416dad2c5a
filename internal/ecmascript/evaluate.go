package ecmascript

import (
	"context"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
	"devchunk/internal/sourcemap"
	runtimeembed "devchunk/runtime"
)

// EvaluateChunk bootstraps an entry group: it carries the runtime and asks
// it to load every other chunk of the group before running the evaluatable
// modules in order.
type EvaluateChunk struct {
	cc           Context
	ident        ident.AssetIdent
	otherChunks  []chunk.OutputAsset
	evaluatables chunk.EvaluatableAssets
}

// NewEvaluateChunk builds the bootstrap for a group. otherChunks is copied.
func NewEvaluateChunk(cc Context, id ident.AssetIdent, otherChunks []chunk.OutputAsset, evaluatables chunk.EvaluatableAssets) *EvaluateChunk {
	return &EvaluateChunk{
		cc:           cc,
		ident:        id,
		otherChunks:  append([]chunk.OutputAsset(nil), otherChunks...),
		evaluatables: evaluatables,
	}
}

// Evaluatables returns the ordered modules the bootstrap runs.
func (c *EvaluateChunk) Evaluatables() chunk.EvaluatableAssets { return c.evaluatables }

func (c *EvaluateChunk) Ident() ident.AssetIdent { return c.ident.WithModifier("evaluate") }

func (c *EvaluateChunk) Path() (ident.Path, error) {
	return c.cc.ChunkPath(c.Ident(), ".js"), nil
}

type evaluateParams struct {
	OtherChunks      []string         `json:"otherChunks"`
	RuntimeModuleIDs []chunk.ModuleID `json:"runtimeModuleIds"`
}

func (c *EvaluateChunk) Content(context.Context) ([]byte, error) {
	p, _ := c.Path()
	self, err := c.cc.ChunkURL(p)
	if err != nil {
		return nil, err
	}
	urls, err := chunkURLs(c.cc, c.otherChunks)
	if err != nil {
		return nil, err
	}
	params, err := jsonValue(evaluateParams{
		OtherChunks:      urls,
		RuntimeModuleIDs: moduleIDs(c.cc, c.evaluatables.Modules()),
	})
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("(globalThis.TURBOPACK = globalThis.TURBOPACK || []).push([")
	sb.WriteString(jsString(self))
	sb.WriteString(", {}, ")
	sb.WriteString(params)
	sb.WriteString("]);\n")

	if c.cc.RuntimeType() == RuntimeDevelopment {
		backend := "dom"
		if c.cc.Environment() == chunk.EnvNode {
			backend = "node"
		}
		code, err := runtimeembed.DevRuntime(backend)
		if err != nil {
			return nil, err
		}
		sb.Write(code)
	}
	if c.cc.ReferenceChunkSourceMaps(c) {
		sb.WriteString(sourceMapComment(p))
	}
	return []byte(sb.String()), nil
}

// SourceMap describes the bootstrap. It carries no module code, so the map
// has no sources.
func (c *EvaluateChunk) SourceMap(context.Context) ([]byte, error) {
	p, _ := c.Path()
	return sourcemap.NewBuilder(p.FileName()).Encode()
}
