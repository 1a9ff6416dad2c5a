package graphfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devchunk/internal/chunk"
	"devchunk/internal/grouping"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadReadsSourcesAndInlineContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app", "src", "index.js"), "import './util.js';\n")
	writeFile(t, filepath.Join(dir, "graph.toml"), `
root = "app"

[[module]]
path = "src/index.js"
imports = ["src/util.js"]
async = ["src/lazy.js"]

[[module]]
path = "src/util.js"
content = "export const x = 1;"

[[module]]
path = "src/lazy.js"
content = "export default 2;"
`)

	f, err := Load(filepath.Join(dir, "graph.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Graph.Len() != 3 {
		t.Fatalf("graph has %d modules, want 3", f.Graph.Len())
	}

	index, err := f.Module("src/index.js")
	if err != nil {
		t.Fatalf("Module failed: %v", err)
	}
	if !strings.HasSuffix(index.Ident().Path.String(), "/app/src/index.js") {
		t.Fatalf("index path = %s", index.Ident().Path)
	}
	data, _ := index.Content()
	if string(data) != "import './util.js';\n" {
		t.Fatalf("index content = %q", data)
	}
	if index.(*Module).Hash() != chunk.ContentHash(data) {
		t.Fatal("module hash does not match its content")
	}

	targets := f.Graph.AsyncTargets(index)
	if len(targets) != 1 || !strings.HasSuffix(targets[0].Ident().Path.String(), "/src/lazy.js") {
		t.Fatalf("async targets = %v", targets)
	}

	entries, err := f.Entries([]string{"src/lazy.js", "src/index.js"})
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if entries[0].Ident().Path.FileName() != "lazy.js" || entries[1].Ident().Path.FileName() != "index.js" {
		t.Fatalf("entries out of order: %v", entries)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no modules", content: `root = "."`, want: "missing [[module]]"},
		{name: "missing path", content: "[[module]]\ncontent = \"x\"", want: "missing path"},
		{name: "unknown key", content: "[[module]]\npath = \"a.js\"\ncontent = \"\"\nweight = 3", want: "unknown key"},
		{name: "missing source", content: "[[module]]\npath = \"nope.js\"", want: "source not found"},
		{name: "bad toml", content: "[[module]\n", want: "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "graph.toml")
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadUndeclaredImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.toml")
	writeFile(t, path, "[[module]]\npath = \"a.js\"\ncontent = \"\"\nimports = [\"b.js\"]\n")
	if _, err := Load(path); !errors.Is(err, grouping.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}

func TestEntriesUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.toml")
	writeFile(t, path, "[[module]]\npath = \"a.js\"\ncontent = \"\"\n")
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := f.Entries([]string{"b.js"}); !errors.Is(err, grouping.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}
