// Package static implements assets copied verbatim to a content addressed
// path, such as images and fonts.
package static

import (
	"context"
	"fmt"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
)

// Asset is a single-module chunk emitted byte for byte.
type Asset struct {
	cc     chunk.Context
	module chunk.Module
}

// NewAsset wraps module as a static asset.
func NewAsset(cc chunk.Context, module chunk.Module) *Asset {
	return &Asset{cc: cc, module: module}
}

func (a *Asset) Ident() ident.AssetIdent { return a.module.Ident() }

func (a *Asset) Kind() chunk.Kind { return chunk.KindAsset }

func (a *Asset) Modules() []chunk.Module { return []chunk.Module{a.module} }

// Path places the asset under the asset root, named by its content hash.
func (a *Asset) Path() (ident.Path, error) {
	data, err := a.module.Content()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", a.module.Ident(), err)
	}
	return a.cc.AssetPath(chunk.ContentHash(data), a.module.Ident())
}

// URL returns the public URL of the asset.
func (a *Asset) URL() (string, error) {
	p, err := a.Path()
	if err != nil {
		return "", err
	}
	return a.cc.AssetURL(ident.AssetIdent{Path: p})
}

func (a *Asset) Content(context.Context) ([]byte, error) {
	return a.module.Content()
}
