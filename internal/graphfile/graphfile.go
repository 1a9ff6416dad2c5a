// Package graphfile loads a module graph description from TOML.
//
//	root = "."
//
//	[[module]]
//	path = "src/index.js"
//	imports = ["src/util.js"]
//	async = ["src/lazy.js"]
//
//	[[module]]
//	path = "src/util.js"
//	content = "export const x = 1;"
//
// Paths are relative to root, which is itself relative to the graph file.
// Modules without inline content are read from disk.
package graphfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"

	"devchunk/internal/chunk"
	"devchunk/internal/grouping"
	"devchunk/internal/ident"
)

type fileConfig struct {
	Root    string         `toml:"root"`
	Modules []moduleConfig `toml:"module"`
}

type moduleConfig struct {
	Path    string   `toml:"path"`
	Imports []string `toml:"imports"`
	Async   []string `toml:"async"`
	Content *string  `toml:"content"`
}

// Module is a module of the graph file with its source loaded.
type Module struct {
	id   ident.AssetIdent
	data []byte
	hash string
}

func (m *Module) Ident() ident.AssetIdent { return m.id }

func (m *Module) Content() ([]byte, error) { return m.data, nil }

// Hash returns the content hash of the module source.
func (m *Module) Hash() string { return m.hash }

// File is a loaded graph description.
type File struct {
	Path  string
	Root  ident.Path
	Graph *grouping.Graph
}

// Load reads and validates the graph file at path.
func Load(path string) (*File, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("module") || len(cfg.Modules) == 0 {
		return nil, fmt.Errorf("%s: missing [[module]]", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	root := filepath.Dir(abs)
	if cfg.Root != "" {
		root = filepath.Join(root, filepath.FromSlash(cfg.Root))
	}
	rootPath := ident.NewPath(filepath.ToSlash(root))

	for i, mc := range cfg.Modules {
		if strings.TrimSpace(mc.Path) == "" {
			return nil, fmt.Errorf("%s: module %d: missing path", path, i+1)
		}
	}

	modules := make([]*Module, len(cfg.Modules))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, mc := range cfg.Modules {
		g.Go(func() error {
			m, err := loadModule(root, rootPath, mc)
			if err != nil {
				return fmt.Errorf("%s: module %q: %w", path, mc.Path, err)
			}
			modules[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes := make([]grouping.Node, len(modules))
	for i, m := range modules {
		nodes[i] = grouping.Node{
			Module:       m,
			Imports:      keys(rootPath, cfg.Modules[i].Imports),
			AsyncImports: keys(rootPath, cfg.Modules[i].Async),
		}
	}
	graph, err := grouping.BuildGraph(nodes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: abs, Root: rootPath, Graph: graph}, nil
}

func loadModule(root string, rootPath ident.Path, mc moduleConfig) (*Module, error) {
	var data []byte
	if mc.Content != nil {
		data = []byte(*mc.Content)
	} else {
		var err error
		data, err = os.ReadFile(filepath.Join(root, filepath.FromSlash(mc.Path)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("source not found and no inline content given")
			}
			return nil, err
		}
	}
	return &Module{
		id:   ident.AssetIdent{Path: resolve(rootPath, mc.Path)},
		data: data,
		hash: chunk.ContentHash(data),
	}, nil
}

func resolve(root ident.Path, rel string) ident.Path {
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "/") {
		return ident.NewPath(rel)
	}
	return root.Join(rel)
}

func keys(root ident.Path, rels []string) []string {
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		if strings.TrimSpace(rel) == "" {
			continue
		}
		out = append(out, ident.AssetIdent{Path: resolve(root, rel)}.String())
	}
	return out
}

// Module returns the module declared at rel, a path relative to the root
// or absolute.
func (f *File) Module(rel string) (chunk.Module, error) {
	p := resolve(f.Root, rel)
	m, ok := f.Graph.Module(ident.AssetIdent{Path: p}.String())
	if !ok {
		return nil, fmt.Errorf("%w: %s", grouping.ErrUnknownModule, p)
	}
	return m, nil
}

// Entries resolves every rel to its module, keeping order.
func (f *File) Entries(rels []string) ([]chunk.Module, error) {
	out := make([]chunk.Module, 0, len(rels))
	for _, rel := range rels {
		m, err := f.Module(rel)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
