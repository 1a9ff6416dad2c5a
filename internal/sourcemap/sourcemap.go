// Package sourcemap writes version 3 source maps for development chunks and
// wraps them as output assets placed next to the chunk they describe.
package sourcemap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
)

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Builder accumulates line mappings of one generated file. Each generated
// line maps at most once, to column 0 of a source line.
type Builder struct {
	file     string
	sources  []string
	contents []string
	lines    map[int]segment
	maxLine  int
}

type segment struct {
	source int
	line   int
}

// NewBuilder starts a map for the generated file named file.
func NewBuilder(file string) *Builder {
	return &Builder{file: file, lines: make(map[int]segment), maxLine: -1}
}

// AddSource registers a source and returns its index.
func (b *Builder) AddSource(name string, content []byte) int {
	b.sources = append(b.sources, name)
	b.contents = append(b.contents, string(content))
	return len(b.sources) - 1
}

// MapLines maps count generated lines starting at genLine onto the lines of
// source starting at srcLine. Lines are zero based.
func (b *Builder) MapLines(genLine, source, srcLine, count int) {
	for i := range count {
		b.lines[genLine+i] = segment{source: source, line: srcLine + i}
		b.maxLine = max(b.maxLine, genLine+i)
	}
}

type document struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Encode renders the map as JSON.
func (b *Builder) Encode() ([]byte, error) {
	doc := document{
		Version:        3,
		File:           b.file,
		Sources:        append([]string{}, b.sources...),
		SourcesContent: append([]string{}, b.contents...),
		Names:          []string{},
		Mappings:       b.mappings(),
	}
	return json.Marshal(doc)
}

// mappings encodes one segment per mapped line. Source index and source
// line are deltas against the previous segment of the whole file.
func (b *Builder) mappings() string {
	var sb strings.Builder
	prevSource, prevLine := 0, 0
	for gen := 0; gen <= b.maxLine; gen++ {
		if gen > 0 {
			sb.WriteByte(';')
		}
		seg, ok := b.lines[gen]
		if !ok {
			continue
		}
		writeVLQ(&sb, 0)
		writeVLQ(&sb, seg.source-prevSource)
		writeVLQ(&sb, seg.line-prevLine)
		writeVLQ(&sb, 0)
		prevSource, prevLine = seg.source, seg.line
	}
	return sb.String()
}

func writeVLQ(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 0x1f
		u >>= 5
		if u > 0 {
			digit |= 0x20
		}
		sb.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}

// Generator is an output asset that can describe its content with a map.
type Generator interface {
	chunk.OutputAsset
	SourceMap(ctx context.Context) ([]byte, error)
}

// Asset is the source map of a generated chunk, written beside it as
// "<chunk file>.map".
type Asset struct {
	of Generator
}

// NewAsset returns the map asset of g.
func NewAsset(g Generator) *Asset { return &Asset{of: g} }

// Of returns the chunk the map describes.
func (a *Asset) Of() Generator { return a.of }

func (a *Asset) Ident() ident.AssetIdent { return a.of.Ident().WithModifier("source map") }

func (a *Asset) Path() (ident.Path, error) {
	p, err := a.of.Path()
	if err != nil {
		return "", err
	}
	return ident.Path(p.String() + ".map"), nil
}

func (a *Asset) Content(ctx context.Context) ([]byte, error) {
	data, err := a.of.SourceMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("source map of %s: %w", a.of.Ident(), err)
	}
	return data, nil
}

// LineCount returns the number of lines in s, counting a trailing partial
// line.
func LineCount(s []byte) int {
	if len(s) == 0 {
		return 0
	}
	n := strings.Count(string(s), "\n")
	if s[len(s)-1] != '\n' {
		n++
	}
	return n
}
