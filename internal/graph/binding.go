package graph

import (
	"github.com/iVampireSP/injectgen/internal/decl"
)

// Binding is a rule for producing the value of a Key. The set of
// implementations is closed; every consumer switches over the concrete
// variants and panics on an unknown one.
type Binding interface {
	Key() Key
	// Dependencies are the keys resolved from the graph, in parameter order.
	Dependencies() []Dependency
	// Scope is the cache label, "" when unscoped.
	Scope() string
	// Delayable reports whether the value is an indirect reference whose
	// construction is deferred, which makes it able to break a cycle.
	Delayable() bool
	Pos() decl.Position
	// Source names the declaration behind the binding.
	Source() string

	isBinding()
}

// Dependency is one parameter of a binding.
type Dependency struct {
	Name       string
	Key        Key
	HasDefault bool
	Assisted   bool
}

type bindingBase struct {
	key    Key
	scope  string
	pos    decl.Position
	source string
}

func (b *bindingBase) Key() Key           { return b.key }
func (b *bindingBase) Scope() string      { return b.scope }
func (b *bindingBase) Pos() decl.Position { return b.pos }
func (b *bindingBase) Source() string     { return b.source }
func (b *bindingBase) Delayable() bool    { return false }
func (b *bindingBase) isBinding()         {}

// ConstructorBinding calls an injectable constructor.
type ConstructorBinding struct {
	bindingBase
	Class  *decl.Class
	Func   *decl.Function
	Params []Dependency // every parameter, assisted ones included
}

func (b *ConstructorBinding) Dependencies() []Dependency {
	var deps []Dependency
	for _, p := range b.Params {
		if !p.Assisted {
			deps = append(deps, p)
		}
	}
	return deps
}

// AssistedParams returns the caller-supplied parameters.
func (b *ConstructorBinding) AssistedParams() []Dependency {
	var deps []Dependency
	for _, p := range b.Params {
		if p.Assisted {
			deps = append(deps, p)
		}
	}
	return deps
}

// CollectionKind tells set contributions from map contributions.
type CollectionKind int

const (
	SetContribution CollectionKind = iota
	MapContribution
)

// Contribution marks a provider as feeding a multibound collection.
type Contribution struct {
	Kind       CollectionKind
	Collection Key
	Multiple   bool   // supplies a whole sub-collection to flatten
	MapKey     string // literal key; "" when the provider computes the key
	Override   bool   // may replace an earlier entry with the same key
}

// ProviderFunctionBinding calls a provider function, or an abstract
// requirement of an ancestor component when Member is set.
type ProviderFunctionBinding struct {
	bindingBase
	Func         *decl.Function
	Declarer     *Component
	Params       []Dependency
	Member       bool
	Contribution *Contribution
}

func (b *ProviderFunctionBinding) Dependencies() []Dependency { return b.Params }

// ProviderPropertyBinding reads a package variable, or a component
// parameter exposed with the provides flag when Prop is nil.
type ProviderPropertyBinding struct {
	bindingBase
	Prop         *decl.Property
	Param        string
	Declarer     *Component
	Contribution *Contribution
}

func (b *ProviderPropertyBinding) Dependencies() []Dependency { return nil }

// ComponentParameterBinding reads a component constructor parameter that is
// itself a component. Parent is that component.
type ComponentParameterBinding struct {
	bindingBase
	Param    decl.Param
	Declarer *Component
	Parent   *Component
}

func (b *ComponentParameterBinding) Dependencies() []Dependency { return nil }

// SetMultibinding aggregates set contributions.
type SetMultibinding struct {
	bindingBase
	Elem    *decl.Type
	Entries []Entry // ancestor first, declaration order within a component
}

func (b *SetMultibinding) Dependencies() []Dependency { return entryDependencies(b.Entries) }

// MapMultibinding aggregates map contributions.
type MapMultibinding struct {
	bindingBase
	KeyType *decl.Type
	Elem    *decl.Type
	Entries []Entry
}

func (b *MapMultibinding) Dependencies() []Dependency { return entryDependencies(b.Entries) }

func entryDependencies(entries []Entry) []Dependency {
	deps := make([]Dependency, 0, len(entries))
	for _, e := range entries {
		deps = append(deps, Dependency{Name: e.Binding.Source(), Key: e.Binding.Key()})
	}
	return deps
}

// FunctionTypeBinding produces a func literal or lazy handle that resolves
// Result when called. Args are supplied by the caller.
type FunctionTypeBinding struct {
	bindingBase
	Wrapper   string
	Args      []*decl.Type
	Result    Key
	delayable bool
}

func (b *FunctionTypeBinding) Dependencies() []Dependency {
	return []Dependency{{Key: b.Result}}
}

func (b *FunctionTypeBinding) Delayable() bool { return b.delayable }

// AssistedFactoryBinding implements a named factory func type whose
// parameters feed the assisted parameters of Target's constructor.
type AssistedFactoryBinding struct {
	bindingBase
	Factory *decl.Class
	Args    []*decl.Type
	Target  Key
}

func (b *AssistedFactoryBinding) Dependencies() []Dependency {
	return []Dependency{{Key: b.Target}}
}

func (b *AssistedFactoryBinding) Delayable() bool { return true }

func contributionOf(b Binding) *Contribution {
	switch b := b.(type) {
	case *ProviderFunctionBinding:
		return b.Contribution
	case *ProviderPropertyBinding:
		return b.Contribution
	}
	return nil
}
