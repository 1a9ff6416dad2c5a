package ecmascript

import (
	"context"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
)

// ChunkListSource tells the runtime why a chunk list was registered.
type ChunkListSource uint8

const (
	// SourceDynamic marks the chunk list of a lazily loaded group.
	SourceDynamic ChunkListSource = iota + 1
	// SourceEntry marks the chunk list of an evaluated entry group.
	SourceEntry
)

// String returns the string representation of ChunkListSource.
func (s ChunkListSource) String() string {
	switch s {
	case SourceDynamic:
		return "dynamic"
	case SourceEntry:
		return "entry"
	default:
		return "unknown"
	}
}

// ChunkList is the registration artifact of a chunk group. The hot reload
// client subscribes to its chunks; entry lists also record the modules to
// evaluate, in order.
type ChunkList struct {
	cc           Context
	ident        ident.AssetIdent
	evaluatables chunk.EvaluatableAssets
	chunks       []chunk.OutputAsset
	source       ChunkListSource
}

// NewChunkList builds the registration artifact for a group. chunks is
// copied.
func NewChunkList(cc Context, id ident.AssetIdent, evaluatables chunk.EvaluatableAssets, chunks []chunk.OutputAsset, source ChunkListSource) *ChunkList {
	return &ChunkList{
		cc:           cc,
		ident:        id,
		evaluatables: evaluatables,
		chunks:       append([]chunk.OutputAsset(nil), chunks...),
		source:       source,
	}
}

// Source returns why the list was registered.
func (l *ChunkList) Source() ChunkListSource { return l.source }

// Evaluatables returns the ordered modules recorded by the list.
func (l *ChunkList) Evaluatables() chunk.EvaluatableAssets { return l.evaluatables }

func (l *ChunkList) Ident() ident.AssetIdent { return l.ident.WithModifier("chunk list") }

func (l *ChunkList) Path() (ident.Path, error) {
	return l.cc.ChunkPath(l.Ident(), ".js"), nil
}

type chunkListPayload struct {
	ChunkListPath string           `json:"chunkListPath"`
	Chunks        []string         `json:"chunks"`
	Source        string           `json:"source"`
	Evaluate      []chunk.ModuleID `json:"evaluate"`
	HMR           bool             `json:"hmr"`
}

func (l *ChunkList) Content(context.Context) ([]byte, error) {
	p, _ := l.Path()
	self, err := l.cc.ChunkURL(p)
	if err != nil {
		return nil, err
	}
	urls, err := chunkURLs(l.cc, l.chunks)
	if err != nil {
		return nil, err
	}
	payload := chunkListPayload{
		ChunkListPath: self,
		Chunks:        urls,
		Source:        l.source.String(),
		Evaluate:      moduleIDs(l.cc, l.evaluatables.Modules()),
		HMR:           l.cc.IsHotModuleReplacementEnabled(),
	}
	body, err := jsonValue(payload)
	if err != nil {
		return nil, err
	}
	out := "(globalThis.TURBOPACK_CHUNK_LISTS = globalThis.TURBOPACK_CHUNK_LISTS || []).push(" + body + ");\n"
	return []byte(out), nil
}
