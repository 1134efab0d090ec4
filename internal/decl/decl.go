// Package decl is the declaration model consumed by the resolver.
//
// A front end (go/packages or a YAML manifest) turns source declarations into
// Class, Function, Property and Param values and exposes them through the
// read-only Provider interface. Nothing in the resolver depends on which
// front end produced them.
package decl

import (
	"fmt"
)

// Position is a source location attached to a declaration for diagnostics.
type Position struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a file.
func (p Position) IsValid() bool { return p.File != "" }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Visibility of a declaration outside its package.
type Visibility int

const (
	Exported Visibility = iota
	Unexported
)

// Param is a function or component constructor parameter.
type Param struct {
	Name        string
	Type        *Type
	Annotations Annotations
	HasDefault  bool
	Pos         Position
}

// Function is a package-level function or an interface method.
type Function struct {
	Name         string
	Pkg          string
	PkgName      string
	Params       []Param
	Results      []*Type // without the trailing error
	ReturnsError bool
	Annotations  Annotations
	Visibility   Visibility
	Pos          Position
}

// Result returns the single provided result, or nil when the function
// returns zero or several values.
func (f *Function) Result() *Type {
	if len(f.Results) == 1 {
		return f.Results[0]
	}
	return nil
}

// QualifiedName returns "pkg/path.Name".
func (f *Function) QualifiedName() string {
	return f.Pkg + "." + f.Name
}

// Property is a package-level variable.
type Property struct {
	Name        string
	Pkg         string
	PkgName     string
	Type        *Type
	Annotations Annotations
	Visibility  Visibility
	Pos         Position
}

// QualifiedName returns "pkg/path.Name".
func (p *Property) QualifiedName() string {
	return p.Pkg + "." + p.Name
}

// Class is a declared named type together with everything attached to it:
// component requirements and parameters, the injectable constructor, and
// provider declarations targeting it.
type Class struct {
	Name        string
	Pkg         string
	PkgName     string
	Abstract    bool
	Visibility  Visibility
	Annotations Annotations
	Supertypes  []*Type
	Params      []Param     // component constructor parameters
	Members     []*Function // abstract requirements
	Constructor *Function   // injectable constructor
	Provides    []*Function
	Properties  []*Property
	Multibinds  []*Type
	Signature   *Type // underlying func type of a factory
	Pos         Position
}

// Type returns the named type the class declares.
func (c *Class) Type() *Type {
	return &Type{Kind: Named, Pkg: c.Pkg, PkgName: c.PkgName, Name: c.Name}
}

// QualifiedName returns "pkg/path.Name".
func (c *Class) QualifiedName() string {
	return c.Pkg + "." + c.Name
}

// IsComponent reports whether the class is annotated as a component.
func (c *Class) IsComponent() bool {
	return c.Annotations.Has(AnnotComponent)
}

// Provider is the read-only capability interface front ends implement.
type Provider interface {
	// Components returns every class annotated as a component, in
	// declaration order.
	Components() []*Class
	// Class looks up the class declaring t. Pointers are not stripped.
	Class(t *Type) (*Class, bool)
}
