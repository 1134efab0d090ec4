package decl

import (
	"strings"
)

// Kind classifies a Type.
type Kind int

const (
	Basic   Kind = iota // predeclared types and anything without a richer shape
	Named               // declared type, possibly generic or an alias
	Pointer             // *Elem
	Slice               // []Elem
	Map                 // map[Key]Elem
	Func                // func(Params...) Results
)

// Type is the backend-neutral description of a Go type.
//
// Two types are identical when their canonical strings match; aliases are
// resolved before comparison, so an alias and its target are the same type.
type Type struct {
	Kind    Kind
	Pkg     string  // import path, Named only
	PkgName string  // declared package name; informational, not part of identity
	Name    string  // Named and Basic
	Args    []*Type // Named: type arguments. Func: parameters
	Results []*Type // Func only
	Elem    *Type   // Pointer, Slice, Map value
	Key     *Type   // Map key
	Alias   *Type   // set when a Named type is an alias of another type
}

// BasicType returns a predeclared type such as string or error.
func BasicType(name string) *Type {
	return &Type{Kind: Basic, Name: name}
}

// NamedType returns a declared type in package pkg.
func NamedType(pkg, name string, args ...*Type) *Type {
	return &Type{Kind: Named, Pkg: pkg, Name: name, Args: args}
}

// PointerTo returns *elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

// SliceOf returns []elem.
func SliceOf(elem *Type) *Type {
	return &Type{Kind: Slice, Elem: elem}
}

// MapOf returns map[key]elem.
func MapOf(key, elem *Type) *Type {
	return &Type{Kind: Map, Key: key, Elem: elem}
}

// FuncOf returns func(params...) results.
func FuncOf(params, results []*Type) *Type {
	return &Type{Kind: Func, Args: params, Results: results}
}

// AliasOf returns a named alias declared in pkg that stands for target.
func AliasOf(pkg, name string, target *Type) *Type {
	return &Type{Kind: Named, Pkg: pkg, Name: name, Alias: target}
}

// Resolve follows alias chains to the underlying declared type.
func (t *Type) Resolve() *Type {
	for t != nil && t.Alias != nil {
		t = t.Alias
	}
	return t
}

// String returns the canonical form with full import paths,
// e.g. "*example.com/app.DB" or "map[string]func() example.com/app.Handler".
func (t *Type) String() string {
	var b strings.Builder
	t.write(&b, func(t *Type) string { return t.Pkg })
	return b.String()
}

// ShortString renders the type with package names instead of import paths.
// Used for diagnostics only.
func (t *Type) ShortString() string {
	var b strings.Builder
	t.write(&b, func(t *Type) string { return t.PackageName() })
	return b.String()
}

// PackageName returns the declared package name, falling back to the
// last import path element (skipping major version suffixes).
func (t *Type) PackageName() string {
	if t.PkgName != "" {
		return t.PkgName
	}
	return PackageNameOf(t.Pkg)
}

// Format renders the type as Go source. qualify returns the package
// qualifier for a named type, or "" to leave it unqualified.
func (t *Type) Format(qualify func(*Type) string) string {
	var b strings.Builder
	t.write(&b, qualify)
	return b.String()
}

func (t *Type) write(b *strings.Builder, qualify func(*Type) string) {
	t = t.Resolve()
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case Pointer:
		b.WriteString("*")
		t.Elem.write(b, qualify)
	case Slice:
		b.WriteString("[]")
		t.Elem.write(b, qualify)
	case Map:
		b.WriteString("map[")
		t.Key.write(b, qualify)
		b.WriteString("]")
		t.Elem.write(b, qualify)
	case Func:
		b.WriteString("func(")
		writeList(b, t.Args, qualify)
		b.WriteString(")")
		switch len(t.Results) {
		case 0:
		case 1:
			b.WriteString(" ")
			t.Results[0].write(b, qualify)
		default:
			b.WriteString(" (")
			writeList(b, t.Results, qualify)
			b.WriteString(")")
		}
	case Named:
		if q := qualify(t); q != "" {
			b.WriteString(q)
			b.WriteString(".")
		}
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteString("[")
			writeList(b, t.Args, qualify)
			b.WriteString("]")
		}
	default:
		b.WriteString(t.Name)
	}
}

func writeList(b *strings.Builder, types []*Type, qualify func(*Type) string) {
	for i, t := range types {
		if i > 0 {
			b.WriteString(", ")
		}
		t.write(b, qualify)
	}
}

// Identical reports whether t and o denote the same type.
func (t *Type) Identical(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.String() == o.String()
}

// Base strips one level of pointer indirection.
func (t *Type) Base() *Type {
	t = t.Resolve()
	if t != nil && t.Kind == Pointer {
		return t.Elem.Resolve()
	}
	return t
}

// SimpleName returns a short identifier-friendly name for the type,
// e.g. "DB" for *example.com/app.DB and "Plugin" for []example.com/app.Plugin.
func (t *Type) SimpleName() string {
	t = t.Resolve()
	switch t.Kind {
	case Pointer, Slice:
		return t.Elem.SimpleName()
	case Map:
		return t.Elem.SimpleName() + "Map"
	case Func:
		if len(t.Results) == 1 {
			return t.Results[0].SimpleName() + "Func"
		}
		return "func"
	default:
		return t.Name
	}
}

// IsError reports whether t is the predeclared error type.
func (t *Type) IsError() bool {
	t = t.Resolve()
	return t != nil && t.Kind == Basic && t.Name == "error"
}

// PackageNameOf guesses a package name from its import path.
// "github.com/redis/go-redis/v9" yields "redis".
func PackageNameOf(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	name := parts[len(parts)-1]
	if len(name) >= 2 && name[0] == 'v' && name[1] >= '0' && name[1] <= '9' && len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	if idx := strings.LastIndex(name, "-"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
