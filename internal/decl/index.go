package decl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Index is the in-memory Provider both front ends populate.
type Index struct {
	classes map[string]*Class
	order   []*Class
}

var _ Provider = (*Index)(nil)

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{classes: make(map[string]*Class)}
}

// Ensure returns the class for pkg.name, creating an empty one on first use.
// Front ends discover a type's declaration, constructor and providers in
// arbitrary order and merge them here.
func (x *Index) Ensure(pkg, name string) *Class {
	key := pkg + "." + name
	if c, ok := x.classes[key]; ok {
		return c
	}
	c := &Class{Name: name, Pkg: pkg}
	x.classes[key] = c
	x.order = append(x.order, c)
	return c
}

// Add registers a fully built class, replacing any previous one.
func (x *Index) Add(c *Class) {
	key := c.QualifiedName()
	if _, ok := x.classes[key]; !ok {
		x.order = append(x.order, c)
	} else {
		for i, old := range x.order {
			if old.QualifiedName() == key {
				x.order[i] = c
			}
		}
	}
	x.classes[key] = c
}

// Classes returns every class in registration order.
func (x *Index) Classes() []*Class {
	return x.order
}

// Components implements Provider.
func (x *Index) Components() []*Class {
	var out []*Class
	for _, c := range x.order {
		if c.IsComponent() {
			out = append(out, c)
		}
	}
	return out
}

// Class implements Provider.
func (x *Index) Class(t *Type) (*Class, bool) {
	t = t.Resolve()
	if t == nil || t.Kind != Named {
		return nil, false
	}
	c, ok := x.classes[t.Pkg+"."+t.Name]
	return c, ok
}

// AttachConstructor files f as the injectable constructor of the named type
// it returns.
func (x *Index) AttachConstructor(f *Function) error {
	r := f.Result()
	if r == nil {
		return fmt.Errorf("%s: constructor %s must return exactly one value", f.Pos, f.Name)
	}
	base := r.Base().Resolve()
	if base.Kind != Named {
		return fmt.Errorf("%s: constructor %s must return a named type", f.Pos, f.Name)
	}
	cls := x.Ensure(base.Pkg, base.Name)
	if cls.PkgName == "" {
		cls.PkgName = base.PackageName()
		cls.Visibility = VisibilityOf(base.Name)
	}
	if cls.Constructor != nil {
		return fmt.Errorf("%s: %s already has constructor %s", f.Pos, base.Name, cls.Constructor.Name)
	}
	cls.Constructor = f
	return nil
}

// ProvidesTarget returns the component named by the provides annotation in
// as. A bare name refers to pkg.
func (x *Index) ProvidesTarget(as Annotations, pkg string, pos Position) (*Class, error) {
	a, ok := as.Get(AnnotProvides)
	if !ok || a.Arg(0) == "" {
		return nil, fmt.Errorf("%s: provides needs a component name", pos)
	}
	name := a.Arg(0)
	if i := strings.LastIndex(name, "."); i >= 0 {
		pkg, name = name[:i], name[i+1:]
	}
	cls := x.Ensure(pkg, name)
	if cls.PkgName == "" {
		cls.PkgName = PackageNameOf(pkg)
	}
	return cls, nil
}

// VisibilityOf reports whether an identifier is exported.
func VisibilityOf(name string) Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return Exported
	}
	return Unexported
}
