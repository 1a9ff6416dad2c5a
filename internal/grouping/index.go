package grouping

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// ModuleID is the dense index of a module in a Graph.
type ModuleID uint32

// ModuleIndex maps module keys (ident strings) to dense ids and back.
type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// BuildIndex collects every key that appears as a node or an import target,
// sorts them and hands out ids in that order.
func BuildIndex(nodes []Node) ModuleIndex {
	uniq := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		if node.Module != nil {
			uniq[node.Module.Ident().String()] = struct{}{}
		}
		for _, dep := range node.Imports {
			if dep != "" {
				uniq[dep] = struct{}{}
			}
		}
		for _, dep := range node.AsyncImports {
			if dep != "" {
				uniq[dep] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(uniq))
	for key := range uniq {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	nameToID := make(map[string]ModuleID, len(keys))
	for i, key := range keys {
		nameToID[key] = mustID(i)
	}
	return ModuleIndex{NameToID: nameToID, IDToName: keys}
}

func mustID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}
