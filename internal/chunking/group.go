package chunking

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"devchunk/internal/chunk"
	"devchunk/internal/ecmascript"
	"devchunk/internal/ident"
	"devchunk/internal/sourcemap"
	"devchunk/internal/trace"
)

// ChunkGroup assembles the lazily loaded group of module: its chunks, a
// dynamic chunk-list registration and the source maps the chunks reference.
func (p *Policy) ChunkGroup(ctx context.Context, module chunk.Module, availability chunk.Availability) (chunk.ChunkGroupResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeGroup, "chunking")
	span.Set("module", module.Ident().String())
	defer span.End()

	assets, next, err := p.ChunkGroupAssets(ctx, module, availability)
	if err != nil {
		return chunk.ChunkGroupResult{}, err
	}
	resolved, err := resolveAssets(ctx, p.withSourceMaps(assets))
	if err != nil {
		return chunk.ChunkGroupResult{}, err
	}
	span.Set("assets", strconv.Itoa(len(resolved)))
	return chunk.ChunkGroupResult{Assets: resolved, Availability: next}, nil
}

// ChunkGroupAssets returns the chunks and the chunk list of the lazy group
// of module without rendering them. The chunk list is named after module
// and the availability the group is assembled against.
func (p *Policy) ChunkGroupAssets(ctx context.Context, module chunk.Module, availability chunk.Availability) ([]chunk.OutputAsset, chunk.Availability, error) {
	assets, next, err := p.makeChunkGroup(ctx, []chunk.Module{module}, availability)
	if err != nil {
		return nil, chunk.Availability{}, err
	}
	listID := module.Ident().WithModifier("availability " + availability.Digest().String()[:8])
	assets = append(assets, ecmascript.NewChunkList(
		p,
		listID,
		chunk.NewEvaluatableAssets(),
		assets,
		ecmascript.SourceDynamic,
	))
	return assets, next, nil
}

// EvaluatedChunkGroup assembles an entry group that runs evaluatables, in
// order, as soon as it loads: its chunks, an entry chunk-list registration,
// the evaluate bootstrap and the source maps the chunks reference.
// The bootstrap is omitted when evaluatables is empty. id names the list and
// the bootstrap; callers assembling one id against several availabilities
// must qualify it.
func (p *Policy) EvaluatedChunkGroup(ctx context.Context, id ident.AssetIdent, evaluatables chunk.EvaluatableAssets, availability chunk.Availability) (chunk.ChunkGroupResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeGroup, "chunking")
	span.Set("chunking_type", "evaluated").Set("ident", id.String())
	defer span.End()

	assets, next, err := p.makeChunkGroup(ctx, evaluatables.Modules(), availability)
	if err != nil {
		return chunk.ChunkGroupResult{}, err
	}
	otherChunks := append([]chunk.OutputAsset(nil), assets...)

	assets = append(assets, ecmascript.NewChunkList(p, id, evaluatables, otherChunks, ecmascript.SourceEntry))
	// nothing to bootstrap without evaluatables
	if evaluatables.Len() > 0 {
		assets = append(assets, ecmascript.NewEvaluateChunk(p, id, otherChunks, evaluatables))
	}

	resolved, err := resolveAssets(ctx, p.withSourceMaps(assets))
	if err != nil {
		return chunk.ChunkGroupResult{}, err
	}
	span.Set("assets", strconv.Itoa(len(resolved)))
	return chunk.ChunkGroupResult{Assets: resolved, Availability: next}, nil
}

// withSourceMaps appends a map asset for every asset that references one.
func (p *Policy) withSourceMaps(assets []chunk.OutputAsset) []chunk.OutputAsset {
	out := append([]chunk.OutputAsset(nil), assets...)
	for _, a := range assets {
		g, ok := a.(sourcemap.Generator)
		if ok && p.ReferenceChunkSourceMaps(a) {
			out = append(out, sourcemap.NewAsset(g))
		}
	}
	return out
}

// makeChunkGroup runs the grouping algorithm and converts every chunk.
func (p *Policy) makeChunkGroup(ctx context.Context, entries []chunk.Module, availability chunk.Availability) ([]chunk.OutputAsset, chunk.Availability, error) {
	if p.grouper == nil {
		return nil, chunk.Availability{}, fmt.Errorf("%w: no grouping algorithm configured", chunk.ErrMisconfigured)
	}
	if len(entries) == 0 {
		return nil, availability, nil
	}
	result, err := p.grouper.MakeChunkGroup(ctx, p, entries, availability)
	if err != nil {
		return nil, chunk.Availability{}, fmt.Errorf("make chunk group: %w", err)
	}
	assets := make([]chunk.OutputAsset, 0, len(result.Chunks)+2)
	for _, c := range result.Chunks {
		asset, err := p.GenerateChunk(c)
		if err != nil {
			return nil, chunk.Availability{}, err
		}
		assets = append(assets, asset)
	}
	return assets, result.Availability, nil
}

// resolveAssets forces every artifact to its path and content hash.
// Artifacts are resolved concurrently; results keep the input order and the
// first failure fails the whole group.
func resolveAssets(ctx context.Context, assets []chunk.OutputAsset) ([]chunk.ResolvedAsset, error) {
	resolved := make([]chunk.ResolvedAsset, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, asset := range assets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, span := trace.Start(gctx, trace.ScopeChunk, "resolve")
			r, err := chunk.Resolve(gctx, asset)
			if err != nil {
				span.Fail(err)
				return err
			}
			span.Set("path", r.Path.String()).End()
			resolved[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}
