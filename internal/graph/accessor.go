package graph

import (
	"slices"
	"strings"
)

// Accessor is a path of hops through component parameters, starting at the
// component being generated. ["parent", "root"] means "the root param of the
// parent param".
type Accessor []string

// IsEmpty reports whether the accessor points at the origin itself.
func (a Accessor) IsEmpty() bool { return len(a) == 0 }

// Plus returns a new accessor with hop appended.
func (a Accessor) Plus(hop string) Accessor {
	out := make(Accessor, 0, len(a)+1)
	out = append(out, a...)
	return append(out, hop)
}

// Concat returns a new accessor with other appended.
func (a Accessor) Concat(other Accessor) Accessor {
	out := make(Accessor, 0, len(a)+len(other))
	out = append(out, a...)
	return append(out, other...)
}

// Equal reports hop-wise equality.
func (a Accessor) Equal(other Accessor) bool {
	return slices.Equal(a, other)
}

// HasPrefix reports whether prefix is a leading subsequence of a.
func (a Accessor) HasPrefix(prefix Accessor) bool {
	return len(prefix) <= len(a) && slices.Equal(a[:len(prefix)], prefix)
}

func (a Accessor) String() string {
	return strings.Join(a, ".")
}

// Resolve returns the hops still needed to reach subject when the current
// construction context already holds a. Both are relative to the same
// origin. The path is shortened only when a is a strict prefix of subject;
// in every other case subject is returned unchanged and stays relative to
// the origin.
func (a Accessor) Resolve(subject Accessor) Accessor {
	if !a.RelativeTo(subject) {
		return subject
	}
	return slices.Clone(subject[len(a):])
}

// RelativeTo reports whether Resolve(subject) shortens the path, meaning the
// result is relative to a rather than to the origin.
func (a Accessor) RelativeTo(subject Accessor) bool {
	return !a.IsEmpty() && len(a) < len(subject) && subject.HasPrefix(a)
}
