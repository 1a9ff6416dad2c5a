package chunking

import (
	"fmt"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
)

const contentHashPrefix = 8

// ChunkPath places a chunk named after id under the chunk root.
func (p *Policy) ChunkPath(id ident.AssetIdent, extension string) ident.Path {
	return p.chunkRootPath.Join(id.OutputName(p.contextPath, extension))
}

// AssetURL returns the public URL of an asset already placed under the
// output root: the asset base path (default "/") followed by the path
// relative to the output root.
func (p *Policy) AssetURL(id ident.AssetIdent) (string, error) {
	rel, err := p.relativeToOutput(id.Path)
	if err != nil {
		return "", err
	}
	base := "/"
	if p.assetBasePath != nil {
		base = *p.assetBasePath
	}
	return base + rel, nil
}

// ChunkURL returns the URL a chunk at path is requested from: the chunk
// base path (default "/") followed by the path relative to the output root.
func (p *Policy) ChunkURL(path ident.Path) (string, error) {
	rel, err := p.relativeToOutput(path)
	if err != nil {
		return "", err
	}
	base := "/"
	if p.chunkBasePath != nil {
		base = *p.chunkBasePath
	}
	return base + rel, nil
}

func (p *Policy) relativeToOutput(path ident.Path) (string, error) {
	rel, ok := p.outputRoot.PathTo(path)
	if !ok || rel == "" {
		return "", fmt.Errorf("%w: expected output root %q to contain %q", chunk.ErrMisconfigured, p.outputRoot, path)
	}
	return rel, nil
}

// AssetPath names a static asset by the first eight hex characters of its
// content hash: "<stem>.<hash>.<ext>", or "<stem>.<hash>" without extension.
func (p *Policy) AssetPath(contentHash string, original ident.AssetIdent) (ident.Path, error) {
	if len(contentHash) < contentHashPrefix {
		return "", fmt.Errorf("%w: content hash %q for %q is shorter than %d characters", chunk.ErrMalformedPath, contentHash, original.Path, contentHashPrefix)
	}
	if original.Path.IsRoot() {
		return "", fmt.Errorf("%w: asset %q has no file name", chunk.ErrMalformedPath, original.Path)
	}
	hash := contentHash[:contentHashPrefix]
	var name string
	if ext, ok := original.Path.Extension(); ok {
		name = original.Path.Stem() + "." + hash + "." + ext
	} else {
		name = original.Path.FileName() + "." + hash
	}
	return p.assetRootPath.Join(name), nil
}

// ReferenceChunkSourceMaps reports whether asset should reference its
// source map. Stylesheets follow their own flag.
func (p *Policy) ReferenceChunkSourceMaps(asset chunk.OutputAsset) bool {
	path, err := asset.Path()
	if err != nil {
		return p.referenceChunkSourceMaps
	}
	ext, _ := path.Extension()
	switch ext {
	case "css":
		return p.referenceCSSChunkSourceMaps
	default:
		return p.referenceChunkSourceMaps
	}
}

// ChunkItemIDFromIdent derives the readable development module id of id.
func (p *Policy) ChunkItemIDFromIdent(id ident.AssetIdent) chunk.ModuleID {
	if !id.Path.HasPrefix(p.contextPath) {
		return chunk.ModuleID("[root]" + id.Relative(p.contextPath))
	}
	return chunk.ModuleID("[project]/" + id.Relative(p.contextPath))
}
