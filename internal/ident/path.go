// Package ident models module identities: normalized slash paths plus the
// query and modifiers that disambiguate several assets derived from one file.
package ident

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Path is a cleaned, slash-separated filesystem path in NFC form.
// The zero value is the empty path, which is treated as the filesystem root
// by PathTo.
type Path string

// NewPath normalizes p: backslashes become slashes, the result is cleaned
// and converted to Unicode NFC so that visually identical names compare equal.
func NewPath(p string) Path {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = norm.NFC.String(p)
	return Path(path.Clean(p))
}

// String returns the path as a plain string.
func (p Path) String() string { return string(p) }

// IsRoot reports whether p names the filesystem root.
func (p Path) IsRoot() bool { return p == "" || p == "/" }

// Parent returns the directory containing p.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	dir := path.Dir(string(p))
	if dir == "." {
		return ""
	}
	return Path(dir)
}

// Join appends slash-separated segments to p.
func (p Path) Join(elem ...string) Path {
	parts := make([]string, 0, len(elem)+1)
	parts = append(parts, string(p))
	for _, e := range elem {
		parts = append(parts, strings.ReplaceAll(e, "\\", "/"))
	}
	return NewPath(path.Join(parts...))
}

// PathTo returns the path of inner relative to p. It only succeeds when
// inner is p itself or lies below it; unrelated paths report ok=false.
func (p Path) PathTo(inner Path) (string, bool) {
	if p.IsRoot() {
		return strings.TrimPrefix(string(inner), "/"), true
	}
	if inner == p {
		return "", true
	}
	prefix := string(p) + "/"
	if !strings.HasPrefix(string(inner), prefix) {
		return "", false
	}
	return string(inner)[len(prefix):], true
}

// HasPrefix reports whether p is root or lies below it.
func (p Path) HasPrefix(root Path) bool {
	_, ok := root.PathTo(p)
	return ok
}

// FileName returns the last path segment.
func (p Path) FileName() string {
	if p.IsRoot() {
		return ""
	}
	return path.Base(string(p))
}

// Extension returns the file extension without the leading dot. Dot files
// such as ".env" have no extension.
func (p Path) Extension() (string, bool) {
	name := p.FileName()
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return "", false
	}
	return name[idx+1:], true
}

// Stem returns the file name without its extension.
func (p Path) Stem() string {
	name := p.FileName()
	if ext, ok := p.Extension(); ok {
		return name[:len(name)-len(ext)-1]
	}
	return name
}
