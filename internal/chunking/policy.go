// Package chunking implements the development-mode chunking policy: how
// modules are grouped into chunks, how chunks and assets are named and
// served, and which registration and bootstrap artifacts surround a group.
//
// It uses readable file names and module ids and splits node_modules into
// separate chunks, since vendor code rarely changes during development.
// Every function is a pure function of the policy and its arguments so a
// memoizing build layer can cache the results.
package chunking

import (
	"fmt"
	"strconv"

	"devchunk/internal/chunk"
	"devchunk/internal/ecmascript"
	"devchunk/internal/ident"
)

// Policy is an immutable development chunking policy. Build one with
// NewBuilder.
type Policy struct {
	// stripped from chunk paths before naming output files
	contextPath ident.Path
	// public URLs are computed relative to this root
	outputRoot    ident.Path
	chunkRootPath ident.Path
	assetRootPath ident.Path
	// prepended to chunk URLs only, never to chunk paths
	chunkBasePath *string
	assetBasePath *string

	referenceChunkSourceMaps    bool
	referenceCSSChunkSourceMaps bool
	enableHotModuleReplacement  bool

	environment chunk.Environment
	runtimeType ecmascript.RuntimeType

	grouper chunk.Grouper
}

// Builder configures a Policy.
type Builder struct {
	policy Policy
}

// NewBuilder starts a policy from its required roots. Source maps are
// referenced by default, hot module replacement is off and the development
// runtime is used. Roots are not validated here; inconsistent roots surface
// when a path is resolved.
func NewBuilder(contextPath, outputRoot, chunkRootPath, assetRootPath ident.Path, env chunk.Environment) *Builder {
	return &Builder{policy: Policy{
		contextPath:                 contextPath,
		outputRoot:                  outputRoot,
		chunkRootPath:               chunkRootPath,
		assetRootPath:               assetRootPath,
		referenceChunkSourceMaps:    true,
		referenceCSSChunkSourceMaps: true,
		environment:                 env,
		runtimeType:                 ecmascript.RuntimeDevelopment,
	}}
}

// HotModuleReplacement enables hot module replacement.
func (b *Builder) HotModuleReplacement() *Builder {
	b.policy.enableHotModuleReplacement = true
	return b
}

// AssetBasePath sets the URL prefix of static assets.
func (b *Builder) AssetBasePath(prefix string) *Builder {
	b.policy.assetBasePath = &prefix
	return b
}

// ChunkBasePath sets the URL prefix used when loading chunks.
func (b *Builder) ChunkBasePath(prefix string) *Builder {
	b.policy.chunkBasePath = &prefix
	return b
}

// ReferenceChunkSourceMaps toggles source map references in script chunks.
func (b *Builder) ReferenceChunkSourceMaps(enabled bool) *Builder {
	b.policy.referenceChunkSourceMaps = enabled
	return b
}

// ReferenceCSSChunkSourceMaps toggles source map references in style chunks.
func (b *Builder) ReferenceCSSChunkSourceMaps(enabled bool) *Builder {
	b.policy.referenceCSSChunkSourceMaps = enabled
	return b
}

// RuntimeType selects the runtime included in evaluate chunks.
func (b *Builder) RuntimeType(rt ecmascript.RuntimeType) *Builder {
	b.policy.runtimeType = rt
	return b
}

// Grouper sets the grouping algorithm chunk groups are computed with.
func (b *Builder) Grouper(g chunk.Grouper) *Builder {
	b.policy.grouper = g
	return b
}

// Build returns the policy. Later builder calls do not affect it.
func (b *Builder) Build() *Policy {
	p := b.policy
	return &p
}

func (p *Policy) ContextPath() ident.Path { return p.contextPath }

func (p *Policy) OutputRoot() ident.Path { return p.outputRoot }

func (p *Policy) Environment() chunk.Environment { return p.environment }

// RuntimeType returns the kind of runtime included in evaluate chunks.
func (p *Policy) RuntimeType() ecmascript.RuntimeType { return p.runtimeType }

// ChunkBasePath returns the chunk URL prefix, if configured.
func (p *Policy) ChunkBasePath() (string, bool) {
	if p.chunkBasePath == nil {
		return "", false
	}
	return *p.chunkBasePath, true
}

// AssetBasePath returns the asset URL prefix, if configured.
func (p *Policy) AssetBasePath() (string, bool) {
	if p.assetBasePath == nil {
		return "", false
	}
	return *p.assetBasePath, true
}

func (p *Policy) IsHotModuleReplacementEnabled() bool { return p.enableHotModuleReplacement }

// HasReactRefresh is always true in development mode.
func (p *Policy) HasReactRefresh() bool { return true }

// Digest identifies the policy for memoization. The grouping algorithm is
// not part of the digest.
func (p *Policy) Digest() chunk.Digest {
	parts := []string{
		string(p.contextPath),
		string(p.outputRoot),
		string(p.chunkRootPath),
		string(p.assetRootPath),
		optional(p.chunkBasePath),
		optional(p.assetBasePath),
		strconv.FormatBool(p.referenceChunkSourceMaps),
		strconv.FormatBool(p.referenceCSSChunkSourceMaps),
		strconv.FormatBool(p.enableHotModuleReplacement),
		string(p.environment),
		p.runtimeType.String(),
	}
	digests := make([]chunk.Digest, len(parts))
	for i, s := range parts {
		digests[i] = chunk.DigestString(s)
	}
	return chunk.Combine(chunk.DigestString("policy"), digests...)
}

func optional(s *string) string {
	if s == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *s)
}
