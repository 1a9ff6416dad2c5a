// Package grouping is a reference implementation of the grouping algorithm:
// given entry modules and the current availability it computes the chunks
// covering every reachable module that has not been emitted yet.
package grouping

import (
	"errors"
	"fmt"

	"devchunk/internal/chunk"
)

// ErrUnknownModule reports an entry or import that is not part of the graph.
var ErrUnknownModule = errors.New("unknown module")

// Node declares a module and its outgoing edges by module key.
type Node struct {
	Module       chunk.Module
	Imports      []string
	AsyncImports []string
}

// Graph is the module graph the grouper traverses. Edges keep declaration
// order; duplicates and self imports are dropped.
type Graph struct {
	Index   ModuleIndex
	Modules []chunk.Module // nil for keys that are only imported
	Edges   [][]ModuleID   // Edges[from] = synchronous imports
	Async   [][]ModuleID   // Async[from] = on-demand imports
	Indeg   []int          // in-degree over present modules, for Kahn
	Present []bool
}

// BuildGraph indexes nodes and resolves their edges. Duplicate modules and
// imports of undeclared modules are reported together.
func BuildGraph(nodes []Node) (*Graph, error) {
	idx := BuildIndex(nodes)
	count := len(idx.IDToName)
	g := &Graph{
		Index:   idx,
		Modules: make([]chunk.Module, count),
		Edges:   make([][]ModuleID, count),
		Async:   make([][]ModuleID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}

	var errs []error
	declared := make([]*Node, count)
	for i := range nodes {
		node := &nodes[i]
		if node.Module == nil {
			continue
		}
		key := node.Module.Ident().String()
		id := idx.NameToID[key]
		if g.Present[id] {
			errs = append(errs, fmt.Errorf("duplicate module %q", key))
			continue
		}
		g.Present[id] = true
		g.Modules[id] = node.Module
		declared[id] = node
	}

	for from, node := range declared {
		if node == nil {
			continue
		}
		fromID := mustID(from)
		var err error
		g.Edges[from], err = g.resolveEdges(fromID, node.Imports)
		if err != nil {
			errs = append(errs, err)
		}
		g.Async[from], err = g.resolveEdges(fromID, node.AsyncImports)
		if err != nil {
			errs = append(errs, err)
		}
		for _, to := range g.Edges[from] {
			g.Indeg[to]++
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

func (g *Graph) resolveEdges(from ModuleID, keys []string) ([]ModuleID, error) {
	out := make([]ModuleID, 0, len(keys))
	seen := make(map[ModuleID]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		to := g.Index.NameToID[key]
		if !g.Present[to] {
			return nil, fmt.Errorf("%w: %q imports undeclared module %q", ErrUnknownModule, g.Index.IDToName[from], key)
		}
		if to == from {
			continue
		}
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}
		out = append(out, to)
	}
	return out, nil
}

// Lookup returns the id of the module with the given key.
func (g *Graph) Lookup(m chunk.Module) (ModuleID, error) {
	key := m.Ident().String()
	id, ok := g.Index.NameToID[key]
	if !ok || !g.Present[id] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModule, key)
	}
	return id, nil
}

// Module returns the module with the given key.
func (g *Graph) Module(key string) (chunk.Module, bool) {
	id, ok := g.Index.NameToID[key]
	if !ok || !g.Present[id] {
		return nil, false
	}
	return g.Modules[id], true
}

// AsyncTargets returns the modules m imports on demand.
func (g *Graph) AsyncTargets(m chunk.Module) []chunk.Module {
	id, err := g.Lookup(m)
	if err != nil {
		return nil
	}
	out := make([]chunk.Module, len(g.Async[id]))
	for i, to := range g.Async[id] {
		out[i] = g.Modules[to]
	}
	return out
}

// Len returns the number of declared modules.
func (g *Graph) Len() int {
	n := 0
	for _, present := range g.Present {
		if present {
			n++
		}
	}
	return n
}
