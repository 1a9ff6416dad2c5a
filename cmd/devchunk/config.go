package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"devchunk/internal/chunk"
	"devchunk/internal/chunking"
	"devchunk/internal/ecmascript"
	"devchunk/internal/ident"
)

const manifestName = "devchunk.toml"

const noManifestMessage = "no devchunk.toml found\nplease create one or pass --config path/to/devchunk.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Chunking chunkingConfig `toml:"chunking"`
	Graph    graphConfig    `toml:"graph"`
}

type chunkingConfig struct {
	Context       string  `toml:"context"`
	Output        string  `toml:"output"`
	Chunks        string  `toml:"chunks"`
	Assets        string  `toml:"assets"`
	ChunkBasePath *string `toml:"chunk_base_path"`
	AssetBasePath *string `toml:"asset_base_path"`
	HMR           bool    `toml:"hmr"`
	SourceMaps    *bool   `toml:"source_maps"`
	CSSSourceMaps *bool   `toml:"css_source_maps"`
	Runtime       string  `toml:"runtime"`
	Environment   string  `toml:"environment"`
}

type graphConfig struct {
	File    string   `toml:"file"`
	Entries []string `toml:"entries"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadManifestFor honors --config and falls back to searching upwards from
// the working directory.
func loadManifestFor(cmd *cobra.Command) (*projectManifest, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		var ok bool
		path, ok, err = findManifest(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(noManifestMessage)
		}
	}
	return loadManifest(path)
}

func loadManifest(path string) (*projectManifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	cfg, err := loadProjectConfig(abs)
	if err != nil {
		return nil, err
	}
	return &projectManifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("chunking") {
		return projectConfig{}, fmt.Errorf("%s: missing [chunking]", path)
	}
	required := []struct {
		key   string
		value string
	}{
		{"context", cfg.Chunking.Context},
		{"output", cfg.Chunking.Output},
		{"chunks", cfg.Chunking.Chunks},
		{"assets", cfg.Chunking.Assets},
	}
	for _, r := range required {
		if !meta.IsDefined("chunking", r.key) || strings.TrimSpace(r.value) == "" {
			return projectConfig{}, fmt.Errorf("%s: missing [chunking].%s", path, r.key)
		}
	}
	if meta.IsDefined("graph") && !meta.IsDefined("graph", "file") {
		return projectConfig{}, fmt.Errorf("%s: missing [graph].file", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// resolve makes p absolute against the manifest directory.
func (m *projectManifest) resolve(p string) ident.Path {
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.Root, p)
	}
	return ident.NewPath(filepath.ToSlash(p))
}

// policyBuilder maps [chunking] onto a policy builder.
func (m *projectManifest) policyBuilder() (*chunking.Builder, error) {
	c := m.Config.Chunking
	env, err := chunk.ParseEnvironment(c.Environment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Path, err)
	}
	runtimeType, err := ecmascript.ParseRuntimeType(c.Runtime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Path, err)
	}

	b := chunking.NewBuilder(m.resolve(c.Context), m.resolve(c.Output), m.resolve(c.Chunks), m.resolve(c.Assets), env).
		RuntimeType(runtimeType)
	if c.HMR {
		b.HotModuleReplacement()
	}
	if c.ChunkBasePath != nil {
		b.ChunkBasePath(*c.ChunkBasePath)
	}
	if c.AssetBasePath != nil {
		b.AssetBasePath(*c.AssetBasePath)
	}
	if c.SourceMaps != nil {
		b.ReferenceChunkSourceMaps(*c.SourceMaps)
	}
	if c.CSSSourceMaps != nil {
		b.ReferenceCSSChunkSourceMaps(*c.CSSSourceMaps)
	}
	return b, nil
}

func (m *projectManifest) graphPath() (string, error) {
	if strings.TrimSpace(m.Config.Graph.File) == "" {
		return "", fmt.Errorf("%s: missing [graph].file", m.Path)
	}
	return filepath.FromSlash(m.resolve(m.Config.Graph.File).String()), nil
}
