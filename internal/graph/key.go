package graph

import (
	"github.com/iVampireSP/injectgen/internal/decl"
)

// Key identifies a requested value: a type plus an optional qualifier.
// An empty qualifier means "unqualified", which never matches a qualified key.
type Key struct {
	Type      *decl.Type
	Qualifier string
}

// NewKey builds a Key.
func NewKey(t *decl.Type, qualifier string) Key {
	return Key{Type: t, Qualifier: qualifier}
}

// ID is the canonical, comparable identity of the key.
func (k Key) ID() string {
	if k.Qualifier == "" {
		return k.Type.String()
	}
	return "@" + k.Qualifier + " " + k.Type.String()
}

// Equal reports whether both keys denote the same type and qualifier.
func (k Key) Equal(o Key) bool {
	return k.ID() == o.ID()
}

// String renders the key with short package names for diagnostics.
func (k Key) String() string {
	if k.Qualifier == "" {
		return k.Type.ShortString()
	}
	return "@" + k.Qualifier + " " + k.Type.ShortString()
}
