package graph

import (
	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/diag"
)

// Aggregate merges the contributions to a collection key into one
// SetMultibinding or MapMultibinding. entries must already be ordered
// ancestor first, declaration order within a component. No entries yields an
// empty collection.
func Aggregate(key Key, entries []Entry) (Binding, *diag.Error) {
	t := key.Type.Resolve()
	base := bindingBase{key: key, source: "multibinding " + key.String()}
	if len(entries) > 0 {
		base.pos = entries[0].Binding.Pos()
	}

	switch t.Kind {
	case decl.Slice:
		for _, e := range entries {
			if c := contributionOf(e.Binding); c == nil || c.Kind != SetContribution {
				return nil, diag.Newf(diag.InvalidMultibindingShape, e.Binding.Pos(),
					"%s is not a set contribution to %s", e.Binding.Source(), key)
			}
		}
		return &SetMultibinding{bindingBase: base, Elem: t.Elem, Entries: append([]Entry(nil), entries...)}, nil

	case decl.Map:
		removed := make([]bool, len(entries))
		literal := make(map[string]int)
		for i, e := range entries {
			c := contributionOf(e.Binding)
			if c == nil || c.Kind != MapContribution {
				return nil, diag.Newf(diag.InvalidMultibindingShape, e.Binding.Pos(),
					"%s is not a map contribution to %s", e.Binding.Source(), key)
			}
			if c.Multiple || c.MapKey == "" {
				continue
			}
			if prev, dup := literal[c.MapKey]; dup {
				if !c.Override {
					return nil, diag.Newf(diag.DuplicateMapKey, e.Binding.Pos(),
						"map key %q of %s is contributed by both %s and %s",
						c.MapKey, key, entries[prev].Binding.Source(), e.Binding.Source())
				}
				removed[prev] = true
			}
			literal[c.MapKey] = i
		}
		var merged []Entry
		for i, e := range entries {
			if !removed[i] {
				merged = append(merged, e)
			}
		}
		return &MapMultibinding{bindingBase: base, KeyType: t.Key, Elem: t.Elem, Entries: merged}, nil

	default:
		return nil, diag.Newf(diag.InvalidMultibindingShape, base.pos,
			"multibinding %s must be a slice or map type", key)
	}
}
