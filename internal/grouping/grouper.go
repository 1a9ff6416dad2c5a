package grouping

import (
	"context"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/css"
	"devchunk/internal/ident"
	"devchunk/internal/static"
)

var scriptExtensions = map[string]struct{}{
	"js": {}, "mjs": {}, "cjs": {}, "jsx": {}, "ts": {}, "mts": {}, "cts": {}, "tsx": {}, "json": {},
}

// Grouper walks a Graph and splits the reachable, not yet available modules
// into chunks. Scripts and styles are co-located with the first chunk whose
// leader accepts them; every other module becomes its own asset.
type Grouper struct {
	graph *Graph
}

// NewGrouper returns a grouper over g.
func NewGrouper(g *Graph) *Grouper {
	return &Grouper{graph: g}
}

// Graph returns the graph the grouper walks.
func (gr *Grouper) Graph() *Graph { return gr.graph }

type bucket struct {
	kind    chunk.Kind
	leader  chunk.Module
	members []chunk.Module
}

func (gr *Grouper) MakeChunkGroup(ctx context.Context, cc chunk.Context, entries []chunk.Module, availability chunk.Availability) (chunk.GroupResult, error) {
	if err := ctx.Err(); err != nil {
		return chunk.GroupResult{}, err
	}
	roots := make([]ModuleID, 0, len(entries))
	for _, entry := range entries {
		id, err := gr.graph.Lookup(entry)
		if err != nil {
			return chunk.GroupResult{}, err
		}
		roots = append(roots, id)
	}

	order := gr.reachable(roots, availability)
	if len(order) == 0 {
		return chunk.GroupResult{Availability: availability}, nil
	}

	emitted := make([]chunk.Module, len(order))
	for i, id := range order {
		emitted[i] = gr.graph.Modules[id]
	}
	next := availability.With(emitted)

	var buckets []*bucket
	for _, m := range emitted {
		kind := classify(m)
		placed := false
		if kind != chunk.KindAsset {
			for _, b := range buckets {
				if b.kind == kind && cc.CanBeInSameChunk(b.leader, m) {
					b.members = append(b.members, m)
					placed = true
					break
				}
			}
		}
		if !placed {
			buckets = append(buckets, &bucket{kind: kind, leader: m, members: []chunk.Module{m}})
		}
	}

	chunks := make([]chunk.Chunk, 0, len(buckets))
	for _, b := range buckets {
		switch b.kind {
		case chunk.KindScript:
			chunks = append(chunks, &chunk.ScriptChunk{
				ID:           chunkIdent(b, next.Digest().String()),
				Members:      b.members,
				AsyncTargets: gr.asyncTargets(b.members),
				Availability: next,
			})
		case chunk.KindStyle:
			chunks = append(chunks, css.NewChunk(cc, chunkIdent(b, ""), b.members))
		default:
			chunks = append(chunks, static.NewAsset(cc, b.leader))
		}
	}
	return chunk.GroupResult{Chunks: chunks, Availability: next}, nil
}

// reachable returns the modules reachable from roots over synchronous
// edges in depth-first preorder. Available modules are neither emitted nor
// traversed.
func (gr *Grouper) reachable(roots []ModuleID, availability chunk.Availability) []ModuleID {
	visited := make([]bool, len(gr.graph.Modules))
	var order []ModuleID
	stack := make([]ModuleID, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		if availability.IncludesKey(gr.graph.Index.IDToName[id]) {
			continue
		}
		order = append(order, id)
		edges := gr.graph.Edges[id]
		for i := len(edges) - 1; i >= 0; i-- {
			if !visited[edges[i]] {
				stack = append(stack, edges[i])
			}
		}
	}
	return order
}

func (gr *Grouper) asyncTargets(members []chunk.Module) []chunk.Module {
	var out []chunk.Module
	seen := make(map[string]struct{})
	for _, m := range members {
		for _, target := range gr.graph.AsyncTargets(m) {
			key := target.Ident().String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, target)
		}
	}
	return out
}

func classify(m chunk.Module) chunk.Kind {
	ext, ok := m.Ident().Path.Extension()
	if !ok {
		return chunk.KindAsset
	}
	ext = strings.ToLower(ext)
	if ext == "css" {
		return chunk.KindStyle
	}
	if _, ok := scriptExtensions[ext]; ok {
		return chunk.KindScript
	}
	return chunk.KindAsset
}

// chunkIdent names a chunk after its leader, qualified by its members so
// different groups led by the same module do not share an output path.
// Script chunks also pass the digest of the availability their loaders are
// rendered against.
func chunkIdent(b *bucket, availability string) ident.AssetIdent {
	keys := make([]string, len(b.members), len(b.members)+1)
	for i, m := range b.members {
		keys[i] = m.Ident().String()
	}
	if availability != "" {
		keys = append(keys, "availability:"+availability)
	}
	d := chunk.DigestString(strings.Join(keys, "\n"))
	return b.leader.Ident().WithModifier("chunk " + d.String()[:8])
}
