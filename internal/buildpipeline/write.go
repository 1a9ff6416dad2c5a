package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"devchunk/internal/chunk"
	"devchunk/internal/chunking"
	"devchunk/internal/css"
	"devchunk/internal/ecmascript"
	"devchunk/internal/ident"
	"devchunk/internal/memo"
	"devchunk/internal/sourcemap"
	"devchunk/internal/static"
	"devchunk/internal/trace"
)

type writeStats struct {
	written int
	reused  int
}

// collect merges the artifacts of every group. Groups may share artifacts;
// a path rendered with different content by two groups is an error.
func collect(policy *chunking.Policy, groups []Group) ([]Artifact, error) {
	byPath := make(map[ident.Path]Artifact)
	for _, grp := range groups {
		for _, a := range grp.Result.Assets {
			if prev, ok := byPath[a.Path]; ok {
				if prev.Hash != a.Hash {
					return nil, fmt.Errorf("conflicting content for %s (groups disagree, %s vs %s)", a.Path, prev.Hash[:8], a.Hash[:8])
				}
				continue
			}
			url, err := artifactURL(policy, a)
			if err != nil {
				return nil, err
			}
			byPath[a.Path] = Artifact{Path: a.Path, Hash: a.Hash, Size: a.Size, Kind: artifactKind(a.Asset), URL: url}
		}
	}
	out := make([]Artifact, 0, len(byPath))
	for _, a := range byPath {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func artifactURL(policy *chunking.Policy, a chunk.ResolvedAsset) (string, error) {
	if asset, ok := a.Asset.(*static.Asset); ok {
		return asset.URL()
	}
	return policy.ChunkURL(a.Path)
}

func artifactKind(a chunk.OutputAsset) string {
	switch v := a.(type) {
	case *ecmascript.DevChunk:
		return chunk.KindScript.String()
	case *ecmascript.ChunkList:
		return "chunk list"
	case *ecmascript.EvaluateChunk:
		return "evaluate"
	case *css.Chunk:
		return chunk.KindStyle.String()
	case *sourcemap.Asset:
		return "source map"
	case chunk.Chunk:
		return v.Kind().String()
	default:
		return "other"
	}
}

// write stores every artifact under its path. Artifacts whose hash matches
// the manifest of the previous build and whose file is intact are left
// alone. Manifests are updated once everything is written.
func write(ctx context.Context, cache *memo.DiskCache, policy chunk.Digest, groups []Group, artifacts []Artifact, jobs int) (writeStats, error) {
	previous := make(map[string]string)
	for _, grp := range groups {
		m, ok, err := cache.Get(grp.digest(policy))
		if err != nil {
			trace.Mark(ctx, trace.ScopeDriver, "cache_miss", err.Error())
			continue
		}
		if ok {
			for p, h := range m.Hashes() {
				previous[p] = h
			}
		}
	}

	data := make(map[ident.Path][]byte)
	for _, grp := range groups {
		for _, a := range grp.Result.Assets {
			data[a.Path] = a.Data
		}
	}

	var written, reused atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range artifacts {
		art := &artifacts[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			target := filepath.FromSlash(art.Path.String())
			if previous[art.Path.String()] == art.Hash && intact(target, art.Size) {
				art.Reused = true
				reused.Add(1)
				return nil
			}
			if err := writeAtomic(target, data[art.Path]); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return writeStats{}, err
	}

	for _, grp := range groups {
		if err := cache.Put(grp.digest(policy), memo.NewManifest(grp.key, grp.Result)); err != nil {
			return writeStats{}, fmt.Errorf("failed to update build cache: %w", err)
		}
	}
	return writeStats{written: int(written.Load()), reused: int(reused.Load())}, nil
}

// digest keys the manifest of g in the disk cache.
func (g Group) digest(policy chunk.Digest) chunk.Digest {
	return chunk.Combine(policy, chunk.DigestString(g.key))
}

func intact(path string, size int) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() == int64(size)
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
