package graph

import (
	"strconv"
)

// NameAllocator hands out identifiers that are unique within one generation
// pass. Collisions are resolved by appending underscores: arg1, arg1_, arg1__.
type NameAllocator struct {
	used map[string]struct{}
}

// NewNameAllocator returns an empty allocator.
func NewNameAllocator() *NameAllocator {
	return &NameAllocator{used: make(map[string]struct{})}
}

// NewName returns a fresh name for the parameter at index.
func (a *NameAllocator) NewName(index int) string {
	return a.Unique("arg" + strconv.Itoa(index))
}

// Unique returns base, or base with underscores appended until unused.
func (a *NameAllocator) Unique(base string) string {
	name := base
	for {
		if _, taken := a.used[name]; !taken {
			break
		}
		name += "_"
	}
	a.used[name] = struct{}{}
	return name
}

// Reset forgets every allocated name.
func (a *NameAllocator) Reset() {
	clear(a.used)
}
