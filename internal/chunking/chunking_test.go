package chunking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"devchunk/internal/chunk"
	"devchunk/internal/css"
	"devchunk/internal/ecmascript"
	"devchunk/internal/ident"
	"devchunk/internal/sourcemap"
	"devchunk/internal/static"
)

// fakeGrouper puts every non-available entry into its own script chunk.
type fakeGrouper struct {
	async map[string][]chunk.Module
	extra []chunk.Chunk
	err   error
}

func (f *fakeGrouper) MakeChunkGroup(_ context.Context, _ chunk.Context, entries []chunk.Module, availability chunk.Availability) (chunk.GroupResult, error) {
	if f.err != nil {
		return chunk.GroupResult{}, f.err
	}
	var fresh []chunk.Module
	for _, m := range entries {
		if !availability.Includes(m) {
			fresh = append(fresh, m)
		}
	}
	next := availability.With(fresh)
	chunks := make([]chunk.Chunk, 0, len(fresh)+len(f.extra))
	for _, m := range fresh {
		chunks = append(chunks, &chunk.ScriptChunk{
			ID:           m.Ident().WithModifier("chunk"),
			Members:      []chunk.Module{m},
			AsyncTargets: f.async[m.Ident().String()],
			Availability: next,
		})
	}
	chunks = append(chunks, f.extra...)
	return chunk.GroupResult{Chunks: chunks, Availability: next}, nil
}

// bogusChunk is a chunk kind no converter knows.
type bogusChunk struct {
	kind chunk.Kind
}

func (b bogusChunk) Ident() ident.AssetIdent { return ident.New("/app/bogus") }
func (b bogusChunk) Kind() chunk.Kind        { return b.kind }
func (b bogusChunk) Modules() []chunk.Module { return nil }

func appBuilder(g chunk.Grouper) *Builder {
	return NewBuilder(
		ident.NewPath("/app"),
		ident.NewPath("/app/.next"),
		ident.NewPath("/app/.next/chunks"),
		ident.NewPath("/app/.next/static"),
		chunk.EnvBrowser,
	).RuntimeType(ecmascript.RuntimeDummy).Grouper(g)
}

func mod(path, code string) chunk.Module {
	return chunk.NewStaticModule(path, code)
}

func bootstrapOf(t *testing.T, res chunk.ChunkGroupResult) chunk.ResolvedAsset {
	t.Helper()
	for _, a := range res.Assets {
		if _, ok := a.Asset.(*ecmascript.EvaluateChunk); ok {
			return a
		}
	}
	t.Fatal("group has no evaluate bootstrap")
	return chunk.ResolvedAsset{}
}

func contentOf(t *testing.T, a chunk.ResolvedAsset) string {
	t.Helper()
	data, err := a.Asset.Content(context.Background())
	if err != nil {
		t.Fatalf("content of %s: %v", a.Path, err)
	}
	return string(data)
}

func TestAssetPathAndURLScenario(t *testing.T) {
	p := NewBuilder(
		ident.NewPath("/src"),
		ident.NewPath("/out"),
		ident.NewPath("/out/chunks"),
		ident.NewPath("/out/static"),
		chunk.EnvBrowser,
	).Build()

	path, err := p.AssetPath("deadbeef1234", ident.New("/src/logo.png"))
	if err != nil {
		t.Fatalf("AssetPath failed: %v", err)
	}
	if path != "/out/static/logo.deadbeef.png" {
		t.Fatalf("AssetPath = %q", path)
	}
	url, err := p.AssetURL(ident.AssetIdent{Path: path})
	if err != nil {
		t.Fatalf("AssetURL failed: %v", err)
	}
	if url != "/static/logo.deadbeef.png" {
		t.Fatalf("AssetURL = %q", url)
	}

	bare, err := p.AssetPath("deadbeef1234", ident.New("/src/LICENSE"))
	if err != nil {
		t.Fatalf("AssetPath failed: %v", err)
	}
	if bare != "/out/static/LICENSE.deadbeef" {
		t.Fatalf("AssetPath without extension = %q", bare)
	}
}

func TestAssetPathContentAddressing(t *testing.T) {
	p := appBuilder(nil).Build()
	id := ident.New("/app/img/a.svg")
	tests := []struct {
		h1, h2 string
		same   bool
	}{
		{"0123456789", "01234567ff", true},
		{"0123456789", "0123456889", true},
		{"0123456789", "1123456789", false},
		{"abcdef01", "abcdef02", false},
	}
	for _, tt := range tests {
		a, err := p.AssetPath(tt.h1, id)
		if err != nil {
			t.Fatal(err)
		}
		b, err := p.AssetPath(tt.h2, id)
		if err != nil {
			t.Fatal(err)
		}
		if (a == b) != tt.same {
			t.Errorf("AssetPath(%q) = %q, AssetPath(%q) = %q, same = %v", tt.h1, a, tt.h2, b, tt.same)
		}
	}
}

func TestAssetPathMalformed(t *testing.T) {
	p := appBuilder(nil).Build()
	if _, err := p.AssetPath("abc", ident.New("/app/a.png")); !errors.Is(err, chunk.ErrMalformedPath) {
		t.Fatalf("short hash: got %v", err)
	}
	if _, err := p.AssetPath("deadbeef", ident.New("/")); !errors.Is(err, chunk.ErrMalformedPath) {
		t.Fatalf("root path: got %v", err)
	}
}

func TestAssetURLPrefix(t *testing.T) {
	tests := []struct {
		name string
		base *string
		want string
	}{
		{name: "default", want: "/static/a.png"},
		{name: "static", base: ptr("/static"), want: "/staticstatic/a.png"},
		{name: "cdn", base: ptr("https://cdn.example.com/"), want: "https://cdn.example.com/static/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := appBuilder(nil)
			if tt.base != nil {
				b.AssetBasePath(*tt.base)
			}
			got, err := b.Build().AssetURL(ident.New("/app/.next/static/a.png"))
			if err != nil {
				t.Fatalf("AssetURL failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("AssetURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }

func TestAssetURLOutsideOutputRoot(t *testing.T) {
	p := appBuilder(nil).Build()
	for _, path := range []string{"/app/src/a.png", "/app/.next", "/app/.nextother/a.png"} {
		if _, err := p.AssetURL(ident.New(path)); !errors.Is(err, chunk.ErrMisconfigured) {
			t.Errorf("AssetURL(%q): expected ErrMisconfigured, got %v", path, err)
		}
	}
}

func TestChunkURLUsesChunkBasePath(t *testing.T) {
	p := appBuilder(nil).ChunkBasePath("/_next/").AssetBasePath("/assets/").Build()
	got, err := p.ChunkURL(ident.NewPath("/app/.next/chunks/a.js"))
	if err != nil {
		t.Fatalf("ChunkURL failed: %v", err)
	}
	if got != "/_next/chunks/a.js" {
		t.Fatalf("ChunkURL = %q", got)
	}
}

func TestChunkPathDeterministic(t *testing.T) {
	p := appBuilder(nil).Build()
	id := ident.New("/app/src/index.js")
	a := p.ChunkPath(id, ".js")
	if a != "/app/.next/chunks/src_index.js.js" {
		t.Fatalf("ChunkPath = %q", a)
	}
	if b := p.ChunkPath(id, ".js"); a != b {
		t.Fatalf("ChunkPath not deterministic: %q vs %q", a, b)
	}
	if c := p.ChunkPath(id.WithModifier("evaluate"), ".js"); c == a {
		t.Fatal("modifier must change the chunk path")
	}
}

func TestCanBeInSameChunk(t *testing.T) {
	p := appBuilder(nil).Build()
	tests := []struct {
		a, b string
		want bool
	}{
		{"/app/a.js", "/app/b.js", true},
		{"/app/a.js", "/app/node_modules/dep/b.js", false},
		{"/app/a.js", "/app/src/deep/c.js", true},
		{"/app/a.js", "/app/src/node_modules/x.js", false},
		{"/app/node_modules/dep/a.js", "/app/node_modules/dep/lib/b.js", true},
		{"/app/node_modules/dep/b.js", "/app/a.js", false},
		{"/app/src/a.js", "/app/b.js", false},
		{"/app/a.js", "/app/node_modules_extra/x.js", true},
	}
	for _, tt := range tests {
		got := p.CanBeInSameChunk(mod(tt.a, ""), mod(tt.b, ""))
		if got != tt.want {
			t.Errorf("CanBeInSameChunk(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestReferenceChunkSourceMapsPerKind(t *testing.T) {
	p := appBuilder(nil).ReferenceCSSChunkSourceMaps(false).Build()
	style := css.NewChunk(p, ident.New("/app/a.css"), []chunk.Module{mod("/app/a.css", "a{}")})
	script := ecmascript.NewDevChunk(p, &chunk.ScriptChunk{ID: ident.New("/app/a.js")})
	if p.ReferenceChunkSourceMaps(style) {
		t.Fatal("stylesheet must follow the css flag")
	}
	if !p.ReferenceChunkSourceMaps(script) {
		t.Fatal("script must follow the general flag")
	}
}

func TestGenerateChunk(t *testing.T) {
	p := appBuilder(nil).Build()

	script := &chunk.ScriptChunk{ID: ident.New("/app/a.js")}
	out, err := p.GenerateChunk(script)
	if err != nil {
		t.Fatalf("GenerateChunk(script) failed: %v", err)
	}
	dev, ok := out.(*ecmascript.DevChunk)
	if !ok || dev.Chunk() != script {
		t.Fatalf("script chunk converted to %T", out)
	}

	style := css.NewChunk(p, ident.New("/app/a.css"), nil)
	out, err = p.GenerateChunk(style)
	if err != nil {
		t.Fatalf("GenerateChunk(style) failed: %v", err)
	}
	if out != chunk.OutputAsset(style) {
		t.Fatal("stylesheet chunk must pass through unchanged")
	}

	for _, kind := range []chunk.Kind{0, chunk.KindScript, chunk.KindAsset} {
		if _, err := p.GenerateChunk(bogusChunk{kind: kind}); !errors.Is(err, chunk.ErrUnsupportedChunkKind) {
			t.Errorf("kind %s: expected ErrUnsupportedChunkKind, got %v", kind, err)
		}
	}
}

func TestChunkGroupWithoutGrouper(t *testing.T) {
	p := appBuilder(nil).Build()
	_, err := p.ChunkGroup(context.Background(), mod("/app/a.js", ""), chunk.Root())
	if !errors.Is(err, chunk.ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestChunkGroupUnsupportedChunkFailsGroup(t *testing.T) {
	p := appBuilder(&fakeGrouper{extra: []chunk.Chunk{bogusChunk{}}}).Build()
	_, err := p.ChunkGroup(context.Background(), mod("/app/a.js", ""), chunk.Root())
	if !errors.Is(err, chunk.ErrUnsupportedChunkKind) {
		t.Fatalf("expected ErrUnsupportedChunkKind, got %v", err)
	}
}

func TestChunkGroupGrouperError(t *testing.T) {
	boom := errors.New("boom")
	p := appBuilder(&fakeGrouper{err: boom}).Build()
	_, err := p.ChunkGroup(context.Background(), mod("/app/a.js", ""), chunk.Root())
	if !errors.Is(err, boom) {
		t.Fatalf("expected grouper error, got %v", err)
	}
}

func TestChunkGroupDynamic(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	a := mod("/app/src/a.js", "export const a = 1;")

	res, err := p.ChunkGroup(context.Background(), a, chunk.Root())
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	if len(res.Assets) != 3 {
		t.Fatalf("got %d assets, want chunk, chunk list and source map", len(res.Assets))
	}
	if _, ok := res.Assets[2].Asset.(*sourcemap.Asset); !ok {
		t.Fatalf("last asset is %T, want the chunk's source map", res.Assets[2].Asset)
	}
	if !res.Availability.Includes(a) {
		t.Fatal("entry must become available")
	}
	list := contentOf(t, res.Assets[1])
	if !strings.Contains(list, `"source":"dynamic"`) || !strings.Contains(list, `"evaluate":[]`) {
		t.Fatalf("unexpected chunk list:\n%s", list)
	}
	if !strings.Contains(list, `"chunks":["/chunks/src_a.js_`) {
		t.Fatalf("chunk list does not reference the chunk:\n%s", list)
	}
}

func TestChunkGroupDeterministic(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	a := mod("/app/src/a.js", "1")
	first, err := p.ChunkGroup(context.Background(), a, chunk.Root())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.ChunkGroup(context.Background(), a, chunk.Root())
	if err != nil {
		t.Fatal(err)
	}
	fp, sp := first.Paths(), second.Paths()
	if len(fp) != len(sp) {
		t.Fatalf("asset counts differ: %v vs %v", fp, sp)
	}
	for i := range fp {
		if fp[i] != sp[i] || first.Assets[i].Hash != second.Assets[i].Hash {
			t.Fatalf("asset %d differs: %s vs %s", i, fp[i], sp[i])
		}
	}
	if first.Availability.Digest() != second.Availability.Digest() {
		t.Fatal("availability differs")
	}
}

func TestChunkGroupSkipsAvailableModules(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	m := mod("/app/src/shared.js", "")
	availability := chunk.Root().With([]chunk.Module{m})

	res, err := p.ChunkGroup(context.Background(), m, availability)
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	if len(res.Assets) != 1 {
		t.Fatalf("got %d assets, want only the chunk list", len(res.Assets))
	}
	if list := contentOf(t, res.Assets[0]); !strings.Contains(list, `"chunks":[]`) {
		t.Fatalf("chunk list re-emitted an available module:\n%s", list)
	}
}

func TestEvaluatedChunkGroupPreservesOrder(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	b := mod("/app/src/b.js", "")
	a := mod("/app/src/a.js", "")
	evaluatables := chunk.NewEvaluatableAssets(b, a)

	res, err := p.EvaluatedChunkGroup(context.Background(), ident.New("/app/src/entry"), evaluatables, chunk.Root())
	if err != nil {
		t.Fatalf("EvaluatedChunkGroup failed: %v", err)
	}
	// two chunks, chunk list, bootstrap, then maps of both chunks and the bootstrap
	if len(res.Assets) != 7 {
		t.Fatalf("got %d assets, want 7", len(res.Assets))
	}
	list := contentOf(t, res.Assets[2])
	if !strings.Contains(list, `"evaluate":["[project]/src/b.js","[project]/src/a.js"]`) {
		t.Fatalf("chunk list lost evaluation order:\n%s", list)
	}
	if !strings.Contains(list, `"source":"entry"`) {
		t.Fatalf("chunk list source:\n%s", list)
	}
	bootstrap := contentOf(t, res.Assets[3])
	if !strings.Contains(bootstrap, `"runtimeModuleIds":["[project]/src/b.js","[project]/src/a.js"]`) {
		t.Fatalf("bootstrap lost evaluation order:\n%s", bootstrap)
	}
	if strings.Contains(bootstrap, "__DEVCHUNK_RUNTIME__") {
		t.Fatal("dummy runtime must not embed runtime code")
	}
	if res.Availability.Len() != 2 {
		t.Fatalf("availability = %d modules", res.Availability.Len())
	}
}

func TestEvaluatedChunkGroupEmpty(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	res, err := p.EvaluatedChunkGroup(context.Background(), ident.New("/app/src/entry"), chunk.NewEvaluatableAssets(), chunk.Root())
	if err != nil {
		t.Fatalf("EvaluatedChunkGroup failed: %v", err)
	}
	if len(res.Assets) != 1 {
		t.Fatalf("got %d assets, want the chunk list only", len(res.Assets))
	}
	if list := contentOf(t, res.Assets[0]); !strings.Contains(list, `"evaluate":[]`) {
		t.Fatalf("unexpected chunk list:\n%s", list)
	}
}

func TestEvaluatedChunkGroupDevelopmentRuntime(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).RuntimeType(ecmascript.RuntimeDevelopment).Build()
	res, err := p.EvaluatedChunkGroup(context.Background(), ident.New("/app/src/entry"), chunk.NewEvaluatableAssets(mod("/app/src/a.js", "")), chunk.Root())
	if err != nil {
		t.Fatalf("EvaluatedChunkGroup failed: %v", err)
	}
	dummy := appBuilder(&fakeGrouper{}).Build()
	plain, err := dummy.EvaluatedChunkGroup(context.Background(), ident.New("/app/src/entry"), chunk.NewEvaluatableAssets(mod("/app/src/a.js", "")), chunk.Root())
	if err != nil {
		t.Fatalf("EvaluatedChunkGroup failed: %v", err)
	}
	dev, dummyBoot := bootstrapOf(t, res), bootstrapOf(t, plain)
	if dev.Size <= dummyBoot.Size {
		t.Fatalf("development bootstrap (%d bytes) must embed the runtime", dev.Size)
	}
}

func TestAsyncLoaderEmbedsLazyGroup(t *testing.T) {
	lazy := mod("/app/src/lazy.js", "export default 1;")
	a := mod("/app/src/a.js", "import('./lazy.js')")
	g := &fakeGrouper{async: map[string][]chunk.Module{a.Ident().String(): {lazy}}}
	p := appBuilder(g).Build()

	res, err := p.EvaluatedChunkGroup(context.Background(), ident.New("/app/src/entry"), chunk.NewEvaluatableAssets(a), chunk.Root())
	if err != nil {
		t.Fatalf("EvaluatedChunkGroup failed: %v", err)
	}
	code := contentOf(t, res.Assets[0])

	loaderID := string(p.AsyncLoaderChunkItemID(lazy))
	if loaderID != "[project]/src/lazy.js [manifest chunk] [loader]" {
		t.Fatalf("loader id = %q", loaderID)
	}
	if !strings.Contains(code, `"`+loaderID+`": ((__turbopack_context__) => {`) {
		t.Fatalf("chunk does not embed the loader:\n%s", code)
	}
	if !strings.Contains(code, `__turbopack_import__("[project]/src/lazy.js")`) {
		t.Fatalf("loader does not import the target:\n%s", code)
	}

	group, err := p.ChunkGroup(context.Background(), lazy, res.Availability)
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	for _, asset := range group.Assets {
		if _, ok := asset.Asset.(*sourcemap.Asset); ok {
			continue
		}
		url, err := p.ChunkURL(asset.Path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(code, `"`+url+`"`) {
			t.Errorf("loader does not load %s:\n%s", url, code)
		}
	}
}

func TestAsyncLoaderChunkItemIDStable(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	m := mod("/app/src/lazy.js", "")
	id := p.AsyncLoaderChunkItemID(m)
	item := p.AsyncLoaderChunkItem(m, chunk.Root().With([]chunk.Module{mod("/app/src/other.js", "")}))
	if item.ID() != id {
		t.Fatalf("loader item id %q differs from %q", item.ID(), id)
	}
	if other := p.AsyncLoaderChunkItemID(mod("/app/src/lazy.js", "changed")); other != id {
		t.Fatal("loader id must depend on identity only")
	}
}

func TestDevChunkHotModuleReplacement(t *testing.T) {
	a := mod("/app/src/a.js", "export {}")
	for _, hmr := range []bool{false, true} {
		b := appBuilder(&fakeGrouper{}).ReferenceChunkSourceMaps(false)
		if hmr {
			b.HotModuleReplacement()
		}
		p := b.Build()
		res, err := p.ChunkGroup(context.Background(), a, chunk.Root())
		if err != nil {
			t.Fatal(err)
		}
		code := contentOf(t, res.Assets[0])
		if got := strings.Contains(code, "__turbopack_context__.k?.register"); got != hmr {
			t.Errorf("hmr=%v: refresh registration present = %v", hmr, got)
		}
		if strings.Contains(code, "sourceMappingURL") {
			t.Errorf("hmr=%v: source map referenced while disabled", hmr)
		}
		if list := contentOf(t, res.Assets[1]); !strings.Contains(list, `"hmr":`+map[bool]string{true: "true", false: "false"}[hmr]) {
			t.Errorf("hmr=%v: chunk list flag wrong:\n%s", hmr, list)
		}
	}
}

func TestChunkItemIDFromIdent(t *testing.T) {
	p := appBuilder(nil).Build()
	if got := p.ChunkItemIDFromIdent(ident.New("/app/src/a.js")); got != "[project]/src/a.js" {
		t.Fatalf("inside context: %q", got)
	}
	if got := p.ChunkItemIDFromIdent(ident.New("/lib/x.js")); got != "[root]/lib/x.js" {
		t.Fatalf("outside context: %q", got)
	}
}

func TestBuilderDoesNotLeakIntoBuiltPolicy(t *testing.T) {
	b := appBuilder(nil)
	first := b.Build()
	b.HotModuleReplacement().AssetBasePath("/cdn/")
	second := b.Build()
	if first.IsHotModuleReplacementEnabled() {
		t.Fatal("built policy changed after builder mutation")
	}
	if _, ok := first.AssetBasePath(); ok {
		t.Fatal("asset base path leaked into earlier policy")
	}
	if first.Digest() == second.Digest() {
		t.Fatal("different policies share a digest")
	}
	if again := appBuilder(nil).Build(); again.Digest() != first.Digest() {
		t.Fatal("equal policies must share a digest")
	}
}

func TestChunkGroupEmitsReferencedSourceMaps(t *testing.T) {
	g := &fakeGrouper{}
	p := appBuilder(g).Build()
	g.extra = []chunk.Chunk{css.NewChunk(p, ident.New("/app/src/a.css"), []chunk.Module{mod("/app/src/a.css", "a{}\nb{}")})}
	a := mod("/app/src/a.js", "line1\nline2")

	res, err := p.ChunkGroup(context.Background(), a, chunk.Root())
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	byPath := make(map[ident.Path]chunk.ResolvedAsset)
	for _, r := range res.Assets {
		byPath[r.Path] = r
	}
	referencing := 0
	for _, r := range res.Assets {
		if !strings.Contains(string(r.Data), "sourceMappingURL=") {
			continue
		}
		referencing++
		if !strings.Contains(string(r.Data), "sourceMappingURL="+r.Path.FileName()+".map") {
			t.Fatalf("%s references another map:\n%s", r.Path, r.Data)
		}
		m, ok := byPath[ident.Path(r.Path.String()+".map")]
		if !ok {
			t.Fatalf("%s references a map that is not emitted", r.Path)
		}
		var doc struct {
			Version  int      `json:"version"`
			Sources  []string `json:"sources"`
			Mappings string   `json:"mappings"`
		}
		if err := json.Unmarshal(m.Data, &doc); err != nil {
			t.Fatalf("map of %s is not JSON: %v", r.Path, err)
		}
		if doc.Version != 3 || len(doc.Sources) != 1 || doc.Mappings == "" {
			t.Fatalf("map of %s = %+v", r.Path, doc)
		}
	}
	if referencing != 2 {
		t.Fatalf("%d assets reference a map, want the script and the stylesheet", referencing)
	}

	// script chunk: header line, factory line, then the two body lines
	script := byPath[ident.Path(res.Assets[0].Path.String()+".map")]
	if !strings.Contains(string(script.Data), `"mappings":";;AAAA;AACA"`) {
		t.Fatalf("script map:\n%s", script.Data)
	}
}

func TestChunkGroupOmitsDisabledSourceMaps(t *testing.T) {
	g := &fakeGrouper{}
	p := appBuilder(g).ReferenceChunkSourceMaps(false).ReferenceCSSChunkSourceMaps(false).Build()
	g.extra = []chunk.Chunk{css.NewChunk(p, ident.New("/app/src/a.css"), []chunk.Module{mod("/app/src/a.css", "a{}")})}

	res, err := p.ChunkGroup(context.Background(), mod("/app/src/a.js", ""), chunk.Root())
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	for _, r := range res.Assets {
		if _, ok := r.Asset.(*sourcemap.Asset); ok {
			t.Fatalf("map %s emitted while disabled", r.Path)
		}
		if strings.Contains(string(r.Data), "sourceMappingURL") {
			t.Fatalf("%s references a map while disabled", r.Path)
		}
	}
}

func TestChunkGroupAsyncCycleUntracked(t *testing.T) {
	a := mod("/app/src/a.js", "import('./b.js')")
	b := mod("/app/src/b.js", "import('./a.js')")
	g := &fakeGrouper{async: map[string][]chunk.Module{
		a.Ident().String(): {b},
		b.Ident().String(): {a},
	}}
	p := appBuilder(g).Build()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := p.ChunkGroup(ctx, a, chunk.Untracked())
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	code := contentOf(t, res.Assets[0])
	if !strings.Contains(code, string(p.AsyncLoaderChunkItemID(b))) {
		t.Fatalf("chunk does not embed the loader of b:\n%s", code)
	}
	if res.Availability.Len() != 0 {
		t.Fatalf("untracked availability recorded %d modules", res.Availability.Len())
	}
}

func TestChunkGroupAsyncCycleTracked(t *testing.T) {
	a := mod("/app/src/a.js", "")
	b := mod("/app/src/b.js", "")
	g := &fakeGrouper{async: map[string][]chunk.Module{
		a.Ident().String(): {b},
		b.Ident().String(): {a},
	}}
	p := appBuilder(g).Build()

	first, err := p.ChunkGroup(context.Background(), a, chunk.Root())
	if err != nil {
		t.Fatalf("ChunkGroup(a) failed: %v", err)
	}
	second, err := p.ChunkGroup(context.Background(), b, first.Availability)
	if err != nil {
		t.Fatalf("ChunkGroup(b) failed: %v", err)
	}
	back, err := p.ChunkGroup(context.Background(), a, second.Availability)
	if err != nil {
		t.Fatalf("ChunkGroup(a) again failed: %v", err)
	}
	if len(back.Assets) != 1 {
		t.Fatalf("available module re-emitted: %v", back.Paths())
	}
}

func TestChunkListNamedByAvailability(t *testing.T) {
	p := appBuilder(&fakeGrouper{}).Build()
	m := mod("/app/src/lazy.js", "")
	listPath := func(availability chunk.Availability) ident.Path {
		t.Helper()
		assets, _, err := p.ChunkGroupAssets(context.Background(), m, availability)
		if err != nil {
			t.Fatalf("ChunkGroupAssets failed: %v", err)
		}
		path, err := assets[len(assets)-1].Path()
		if err != nil {
			t.Fatal(err)
		}
		return path
	}
	root := listPath(chunk.Root())
	if again := listPath(chunk.Root()); again != root {
		t.Fatalf("chunk list path not stable: %s vs %s", root, again)
	}
	other := listPath(chunk.Root().With([]chunk.Module{mod("/app/src/other.js", "")}))
	if other == root {
		t.Fatalf("groups against different availabilities share %s", root)
	}
}

func TestChunkListServesStaticAssetsFromAssetBase(t *testing.T) {
	g := &fakeGrouper{}
	p := appBuilder(g).AssetBasePath("/cdn/").ChunkBasePath("/_next/").Build()
	g.extra = []chunk.Chunk{static.NewAsset(p, mod("/app/src/logo.png", "PNG"))}

	res, err := p.ChunkGroup(context.Background(), mod("/app/src/a.js", ""), chunk.Root())
	if err != nil {
		t.Fatalf("ChunkGroup failed: %v", err)
	}
	var list string
	for _, r := range res.Assets {
		if _, ok := r.Asset.(*ecmascript.ChunkList); ok {
			list = string(r.Data)
		}
	}
	if !strings.Contains(list, `"/cdn/static/logo.`) {
		t.Fatalf("static asset not served from the asset base path:\n%s", list)
	}
	if !strings.Contains(list, `"/_next/chunks/src_a.js_`) {
		t.Fatalf("script chunk not served from the chunk base path:\n%s", list)
	}
}
