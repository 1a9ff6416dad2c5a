package chunk

import (
	"slices"
	"strings"
)

// Availability records which modules earlier chunk groups of the same
// traversal already emitted. It is an immutable persistent set: With returns
// a new value that shares every earlier layer with its parent.
//
// The zero value is the empty, tracked root.
type Availability struct {
	untracked bool
	top       *availabilityLayer
}

type availabilityLayer struct {
	parent *availabilityLayer
	keys   map[string]struct{}
	size   int
	digest Digest
}

// Snapshot is the serializable form of an Availability.
type Snapshot struct {
	Untracked bool     `msgpack:"untracked"`
	Modules   []string `msgpack:"modules"`
}

var untrackedDigest = DigestString("availability:untracked")

// Root returns the empty availability a build traversal starts with.
func Root() Availability { return Availability{} }

// Untracked returns an availability that never reports modules as available,
// so every group is self-contained.
func Untracked() Availability { return Availability{untracked: true} }

// IsUntracked reports whether availability tracking is disabled.
func (a Availability) IsUntracked() bool { return a.untracked }

// Includes reports whether m was already emitted.
func (a Availability) Includes(m Module) bool {
	return a.IncludesKey(m.Ident().String())
}

// IncludesKey reports whether the module with the given ident key was emitted.
func (a Availability) IncludesKey(key string) bool {
	for l := a.top; l != nil; l = l.parent {
		if _, ok := l.keys[key]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of available modules.
func (a Availability) Len() int {
	if a.top == nil {
		return 0
	}
	return a.top.size
}

// With returns a new availability that additionally contains modules.
// The receiver is left untouched.
func (a Availability) With(modules []Module) Availability {
	if a.untracked {
		return a
	}
	added := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		key := m.Ident().String()
		if a.IncludesKey(key) {
			continue
		}
		added[key] = struct{}{}
	}
	if len(added) == 0 {
		return a
	}
	next := &availabilityLayer{
		parent: a.top,
		keys:   added,
		size:   a.Len() + len(added),
	}
	next.digest = digestKeys(collectKeys(next))
	return Availability{top: next}
}

// Keys returns every available module key in sorted order.
func (a Availability) Keys() []string {
	if a.top == nil {
		return nil
	}
	return collectKeys(a.top)
}

// Digest identifies the availability for memoization. Two availabilities
// containing the same modules have the same digest regardless of how they
// were built up.
func (a Availability) Digest() Digest {
	if a.untracked {
		return untrackedDigest
	}
	if a.top == nil {
		return digestKeys(nil)
	}
	return a.top.digest
}

// Snapshot flattens the availability for persistence.
func (a Availability) Snapshot() Snapshot {
	return Snapshot{Untracked: a.untracked, Modules: a.Keys()}
}

// FromSnapshot rebuilds an availability from its serialized form.
func FromSnapshot(s Snapshot) Availability {
	if s.Untracked {
		return Untracked()
	}
	if len(s.Modules) == 0 {
		return Root()
	}
	keys := make(map[string]struct{}, len(s.Modules))
	for _, k := range s.Modules {
		keys[k] = struct{}{}
	}
	l := &availabilityLayer{keys: keys, size: len(keys)}
	l.digest = digestKeys(collectKeys(l))
	return Availability{top: l}
}

func collectKeys(top *availabilityLayer) []string {
	out := make([]string, 0, top.size)
	for l := top; l != nil; l = l.parent {
		for k := range l.keys {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func digestKeys(sorted []string) Digest {
	return DigestString("availability:" + strings.Join(sorted, "\x00"))
}
