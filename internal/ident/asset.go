package ident

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
)

// AssetIdent identifies a module or an artifact derived from one.
type AssetIdent struct {
	Path      Path
	Query     string
	Modifiers []string
}

// New returns the identity of a plain file.
func New(p string) AssetIdent {
	return AssetIdent{Path: NewPath(p)}
}

// WithModifier returns a copy of id with modifier appended. The receiver is
// never changed.
func (id AssetIdent) WithModifier(modifier string) AssetIdent {
	mods := make([]string, 0, len(id.Modifiers)+1)
	mods = append(mods, id.Modifiers...)
	mods = append(mods, modifier)
	return AssetIdent{Path: id.Path, Query: id.Query, Modifiers: mods}
}

// Equal reports whether two identities are the same.
func (id AssetIdent) Equal(other AssetIdent) bool {
	return id.Path == other.Path && id.Query == other.Query && slices.Equal(id.Modifiers, other.Modifiers)
}

// String returns the canonical key of the identity, e.g. "/app/a.js?raw (loader)".
func (id AssetIdent) String() string {
	var sb strings.Builder
	sb.WriteString(string(id.Path))
	sb.WriteString(id.Query)
	if len(id.Modifiers) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(id.Modifiers, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// Relative renders the identity relative to context for display and ids.
// Paths outside context keep their absolute form.
func (id AssetIdent) Relative(context Path) string {
	name, ok := context.PathTo(id.Path)
	if !ok {
		name = string(id.Path)
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(id.Query)
	for _, mod := range id.Modifiers {
		sb.WriteString(" [")
		sb.WriteString(mod)
		sb.WriteByte(']')
	}
	return sb.String()
}

// OutputName derives a flat, readable file name for the identity: the path
// relative to context with separators replaced, a short digest of query and
// modifiers when present, then extension (which must include its dot).
func (id AssetIdent) OutputName(context Path, extension string) string {
	rel, ok := context.PathTo(id.Path)
	if !ok {
		rel = "[root]/" + strings.TrimPrefix(string(id.Path), "/")
	}
	name := sanitize(rel)
	if id.Query != "" || len(id.Modifiers) > 0 {
		h := blake3.New()
		_, _ = h.Write([]byte(id.Query))
		for _, mod := range id.Modifiers {
			_, _ = h.Write([]byte{0})
			_, _ = h.Write([]byte(mod))
		}
		name += "_" + hex.EncodeToString(h.Sum(nil))[:8]
	}
	return name + extension
}

func sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '/':
			sb.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_', r == '[', r == ']', r == '@':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
