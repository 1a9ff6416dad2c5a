// Package chunk defines the values exchanged between the grouping algorithm,
// the chunking policy and the artifact renderers.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devchunk/internal/ident"
)

var (
	// ErrMisconfigured reports a chunking policy whose roots are inconsistent.
	ErrMisconfigured = errors.New("chunking policy misconfigured")
	// ErrUnsupportedChunkKind reports a chunk the policy cannot turn into an artifact.
	ErrUnsupportedChunkKind = errors.New("unsupported chunk kind")
	// ErrMalformedPath reports a path or hash that cannot be turned into an output name.
	ErrMalformedPath = errors.New("malformed path")
)

// Environment names the platform chunks are evaluated in.
type Environment string

const (
	// EnvBrowser evaluates chunks in a browser.
	EnvBrowser Environment = "browser"
	// EnvNode evaluates chunks in Node.js.
	EnvNode Environment = "node"
	// EnvEdge evaluates chunks in an edge worker.
	EnvEdge Environment = "edge"
)

// ParseEnvironment converts a config string to an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "browser":
		return EnvBrowser, nil
	case "node":
		return EnvNode, nil
	case "edge":
		return EnvEdge, nil
	default:
		return "", fmt.Errorf("invalid environment %q (expected browser|node|edge)", s)
	}
}

// ModuleID is the identifier a chunk item is registered under at runtime.
type ModuleID string

// Module is a node of the module graph.
type Module interface {
	Ident() ident.AssetIdent
	Content() ([]byte, error)
}

// StaticModule is an in-memory Module.
type StaticModule struct {
	ID   ident.AssetIdent
	Code []byte
}

// NewStaticModule builds a module for path with the given source.
func NewStaticModule(path, code string) *StaticModule {
	return &StaticModule{ID: ident.New(path), Code: []byte(code)}
}

func (m *StaticModule) Ident() ident.AssetIdent { return m.ID }

func (m *StaticModule) Content() ([]byte, error) { return m.Code, nil }

// Kind tags the runtime representation of a chunk.
type Kind uint8

const (
	// KindScript marks chunks of script modules.
	KindScript Kind = iota + 1
	// KindStyle marks stylesheet chunks.
	KindStyle
	// KindAsset marks static assets that are emitted as-is.
	KindAsset
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindStyle:
		return "style"
	case KindAsset:
		return "asset"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Chunk is a grouping of modules produced by a Grouper.
type Chunk interface {
	Ident() ident.AssetIdent
	Kind() Kind
	Modules() []Module
}

// OutputAsset is a deliverable with a path and renderable content.
type OutputAsset interface {
	Ident() ident.AssetIdent
	Path() (ident.Path, error)
	Content(ctx context.Context) ([]byte, error)
}

// ScriptChunk groups script modules. AsyncTargets are modules imported on
// demand from this chunk; their loaders are rendered against Availability.
type ScriptChunk struct {
	ID           ident.AssetIdent
	Members      []Module
	AsyncTargets []Module
	Availability Availability
}

func (c *ScriptChunk) Ident() ident.AssetIdent { return c.ID }

func (c *ScriptChunk) Kind() Kind { return KindScript }

func (c *ScriptChunk) Modules() []Module { return c.Members }

// EvaluatableAssets is the ordered set of modules executed when an entry
// group loads. Order is preserved and the backing slice is never shared.
type EvaluatableAssets struct {
	modules []Module
}

// NewEvaluatableAssets copies modules into a new ordered set.
func NewEvaluatableAssets(modules ...Module) EvaluatableAssets {
	return EvaluatableAssets{modules: append([]Module(nil), modules...)}
}

// Modules returns a copy of the ordered modules.
func (e EvaluatableAssets) Modules() []Module {
	return append([]Module(nil), e.modules...)
}

// Len returns the number of modules.
func (e EvaluatableAssets) Len() int { return len(e.modules) }

// Context is the view of a chunking policy consumed by the grouping
// algorithm and by artifact renderers.
type Context interface {
	ContextPath() ident.Path
	OutputRoot() ident.Path
	Environment() Environment
	ChunkPath(id ident.AssetIdent, extension string) ident.Path
	ChunkURL(p ident.Path) (string, error)
	AssetURL(id ident.AssetIdent) (string, error)
	AssetPath(contentHash string, original ident.AssetIdent) (ident.Path, error)
	ReferenceChunkSourceMaps(asset OutputAsset) bool
	CanBeInSameChunk(a, b Module) bool
	IsHotModuleReplacementEnabled() bool
	ChunkItemIDFromIdent(id ident.AssetIdent) ModuleID
}

// GroupResult is what a Grouper returns: new chunks plus the updated
// availability.
type GroupResult struct {
	Chunks       []Chunk
	Availability Availability
}

// Grouper computes the minimal set of chunks covering modules reachable from
// entries that are not already available. Implementations must be
// deterministic for identical inputs.
type Grouper interface {
	MakeChunkGroup(ctx context.Context, cc Context, entries []Module, availability Availability) (GroupResult, error)
}

// ResolvedAsset is an artifact forced to a stable, comparable identity.
// Data holds the rendered content the hash was computed from.
type ResolvedAsset struct {
	Path  ident.Path
	Hash  string
	Size  int
	Data  []byte
	Asset OutputAsset
}

// ChunkGroupResult is returned by the chunk group assemblers.
type ChunkGroupResult struct {
	Assets       []ResolvedAsset
	Availability Availability
}

// Paths lists the artifact paths in order.
func (r ChunkGroupResult) Paths() []ident.Path {
	out := make([]ident.Path, len(r.Assets))
	for i, a := range r.Assets {
		out[i] = a.Path
	}
	return out
}

// Resolve renders a and records its path and content hash.
func Resolve(ctx context.Context, a OutputAsset) (ResolvedAsset, error) {
	p, err := a.Path()
	if err != nil {
		return ResolvedAsset{}, fmt.Errorf("resolve %s: %w", a.Ident(), err)
	}
	data, err := a.Content(ctx)
	if err != nil {
		return ResolvedAsset{}, fmt.Errorf("render %s: %w", p, err)
	}
	return ResolvedAsset{
		Path:  p,
		Hash:  ContentHash(data),
		Size:  len(data),
		Data:  data,
		Asset: a,
	}, nil
}
