package ident

import (
	"strings"
	"testing"
)

func TestNewPathNormalizes(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"/app/src/../a.js", "/app/a.js"},
		{"C:\\app\\b.js", "C:/app/b.js"},
		{"/app//c.js", "/app/c.js"},
		// "e" + combining acute accent folds into the precomposed rune.
		{"/app/caf\u0065\u0301.js", "/app/caf\u00e9.js"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NewPath(tt.in); got != tt.want {
			t.Errorf("NewPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathParentAndJoin(t *testing.T) {
	p := NewPath("/app/src/index.js")
	if got := p.Parent(); got != "/app/src" {
		t.Fatalf("Parent() = %q", got)
	}
	if got := NewPath("/a.js").Parent(); got != "/" {
		t.Fatalf("Parent of root file = %q", got)
	}
	if got := NewPath("/out").Join("static", "logo.png"); got != "/out/static/logo.png" {
		t.Fatalf("Join() = %q", got)
	}
}

func TestPathTo(t *testing.T) {
	tests := []struct {
		from, to string
		want     string
		ok       bool
	}{
		{"/app", "/app/node_modules/dep/b.js", "node_modules/dep/b.js", true},
		{"/app", "/app", "", true},
		{"/app", "/application/x.js", "", false},
		{"/app/src", "/app/lib/x.js", "", false},
		{"/", "/x.js", "x.js", true},
	}
	for _, tt := range tests {
		got, ok := NewPath(tt.from).PathTo(NewPath(tt.to))
		if got != tt.want || ok != tt.ok {
			t.Errorf("PathTo(%q, %q) = (%q, %v), want (%q, %v)", tt.from, tt.to, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtensionAndStem(t *testing.T) {
	tests := []struct {
		in     string
		ext    string
		hasExt bool
		stem   string
	}{
		{"/src/logo.png", "png", true, "logo"},
		{"/src/archive.tar.gz", "gz", true, "archive.tar"},
		{"/src/Makefile", "", false, "Makefile"},
		{"/src/.env", "", false, ".env"},
	}
	for _, tt := range tests {
		p := NewPath(tt.in)
		ext, ok := p.Extension()
		if ext != tt.ext || ok != tt.hasExt {
			t.Errorf("Extension(%q) = (%q, %v), want (%q, %v)", tt.in, ext, ok, tt.ext, tt.hasExt)
		}
		if got := p.Stem(); got != tt.stem {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.stem)
		}
	}
}

func TestWithModifierDoesNotAlias(t *testing.T) {
	base := New("/app/a.js").WithModifier("one")
	a := base.WithModifier("two")
	b := base.WithModifier("three")
	if a.Modifiers[1] != "two" || b.Modifiers[1] != "three" {
		t.Fatalf("modifiers aliased: %v %v", a.Modifiers, b.Modifiers)
	}
	if len(base.Modifiers) != 1 {
		t.Fatalf("base modified: %v", base.Modifiers)
	}
}

func TestOutputNameDeterministic(t *testing.T) {
	ctx := NewPath("/app")
	id := New("/app/src/index.js")
	if got := id.OutputName(ctx, ".js"); got != "src_index.js.js" {
		t.Fatalf("OutputName() = %q", got)
	}
	mod := id.WithModifier("chunk list")
	first := mod.OutputName(ctx, ".js")
	second := mod.OutputName(ctx, ".js")
	if first != second {
		t.Fatalf("OutputName not deterministic: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "src_index.js_") || first == id.OutputName(ctx, ".js") {
		t.Fatalf("modifier not reflected in %q", first)
	}
	outside := New("/lib/x.js").OutputName(ctx, ".js")
	if outside != "[root]_lib_x.js.js" {
		t.Fatalf("OutputName outside context = %q", outside)
	}
}

func TestRelative(t *testing.T) {
	id := New("/app/src/a.js").WithModifier("loader")
	if got := id.Relative(NewPath("/app")); got != "src/a.js [loader]" {
		t.Fatalf("Relative() = %q", got)
	}
}
