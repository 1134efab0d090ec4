package graph

import (
	"slices"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/diag"
)

// Arg is a caller-supplied argument in scope while resolving.
type Arg struct {
	Name string
	Type *decl.Type
}

// Requirement is an abstract member of a component that the generated code
// must implement.
type Requirement struct {
	Name string
	Func *decl.Function
	Key  Key
	Args []Arg
}

// Component is a component class with its declarations turned into bindings.
// Components are immutable once built.
type Component struct {
	Class         *decl.Class
	Name          string
	Parent        *Component
	ParentHop     string // parameter holding Parent
	Scopes        []string
	Params        []decl.Param
	Bindings      []Binding // ordinary bindings declared here
	Contributions []Binding // multibinding contributions declared here
	Multibinds    []Key     // collections declared possibly empty
	Requirements  []Requirement
}

// Type returns the component's interface type.
func (c *Component) Type() *decl.Type { return c.Class.Type() }

// Declares reports whether the component itself declares label.
func (c *Component) Declares(label string) bool {
	return slices.Contains(c.Scopes, label)
}

// Authorized reports whether the component or any ancestor declares label.
func (c *Component) Authorized(label string) bool {
	for comp := c; comp != nil; comp = comp.Parent {
		if comp.Declares(label) {
			return true
		}
	}
	return false
}

// BuildComponent turns a component class into a Component, building its
// parent chain on the way. Problems are reported to sink; the returned error
// is non-nil when the component cannot be used.
func BuildComponent(decls decl.Provider, cls *decl.Class, opts Options, sink *diag.Sink) (*Component, error) {
	b := &componentBuilder{decls: decls, opts: opts, sink: sink, visiting: make(map[string]bool)}
	before := sink.Len()
	comp := b.build(cls)
	if sink.Len() > before {
		return nil, sink.Err()
	}
	return comp, nil
}

type componentBuilder struct {
	decls    decl.Provider
	opts     Options
	sink     *diag.Sink
	visiting map[string]bool
}

func (b *componentBuilder) build(cls *decl.Class) *Component {
	name := cls.QualifiedName()
	if b.visiting[name] {
		b.sink.Report(diag.InvalidDeclaration, cls.Pos, "component %s is its own ancestor", cls.Name)
		return nil
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	if !cls.Abstract {
		b.sink.Report(diag.InvalidDeclaration, cls.Pos, "component %s must be an interface", cls.Name)
		return nil
	}

	comp := &Component{Class: cls, Name: cls.Name, Params: cls.Params}
	chain := b.inheritance(cls)
	for _, c := range chain {
		for _, label := range b.opts.scopes(c.Annotations) {
			if !comp.Declares(label) {
				comp.Scopes = append(comp.Scopes, label)
			}
		}
	}

	for _, p := range cls.Params {
		b.param(comp, p)
	}

	seen := make(map[string]bool)
	for _, c := range chain {
		for _, m := range c.Members {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			b.requirement(comp, m)
		}
	}

	for _, c := range chain {
		for _, f := range c.Provides {
			b.provider(comp, f)
		}
		for _, p := range c.Properties {
			b.property(comp, p)
		}
		for _, t := range c.Multibinds {
			comp.Multibinds = append(comp.Multibinds, NewKey(t, ""))
		}
	}
	return comp
}

// inheritance returns cls followed by its supertypes, depth first.
func (b *componentBuilder) inheritance(cls *decl.Class) []*decl.Class {
	var chain []*decl.Class
	seen := make(map[string]bool)
	var visit func(c *decl.Class)
	visit = func(c *decl.Class) {
		if seen[c.QualifiedName()] {
			return
		}
		seen[c.QualifiedName()] = true
		chain = append(chain, c)
		for _, st := range c.Supertypes {
			if sc, ok := b.decls.Class(st); ok {
				visit(sc)
			}
		}
	}
	visit(cls)
	return chain
}

func (b *componentBuilder) param(comp *Component, p decl.Param) {
	key := NewKey(p.Type, b.opts.qualifier(p.Annotations))
	source := comp.Class.QualifiedName() + "." + p.Name

	switch {
	case p.Annotations.Has(decl.AnnotComponent):
		if comp.Parent != nil {
			b.sink.Report(diag.InvalidDeclaration, p.Pos,
				"component %s declares more than one parent component", comp.Name)
			return
		}
		pcls, ok := b.decls.Class(p.Type)
		if !ok || !pcls.IsComponent() {
			b.sink.Report(diag.InvalidDeclaration, p.Pos,
				"parameter %s of %s is not a component", p.Name, comp.Name)
			return
		}
		parent := b.build(pcls)
		if parent == nil {
			return
		}
		comp.Parent, comp.ParentHop = parent, p.Name
		comp.Bindings = append(comp.Bindings, &ComponentParameterBinding{
			bindingBase: bindingBase{key: key, pos: p.Pos, source: source},
			Param:       p,
			Declarer:    comp,
			Parent:      parent,
		})

	case p.Annotations.Has(decl.AnnotProvides):
		comp.Bindings = append(comp.Bindings, &ProviderPropertyBinding{
			bindingBase: bindingBase{key: key, pos: p.Pos, source: source},
			Param:       p.Name,
			Declarer:    comp,
		})
	}
}

func (b *componentBuilder) requirement(comp *Component, m *decl.Function) {
	if len(m.Results) != 1 || m.ReturnsError {
		b.sink.Report(diag.InvalidDeclaration, m.Pos,
			"requirement %s.%s must return exactly one value", comp.Name, m.Name)
		return
	}
	req := Requirement{
		Name: m.Name,
		Func: m,
		Key:  NewKey(m.Result(), b.opts.qualifier(m.Annotations)),
	}
	for _, p := range m.Params {
		req.Args = append(req.Args, Arg{Name: p.Name, Type: p.Type})
	}
	comp.Requirements = append(comp.Requirements, req)
}

func (b *componentBuilder) scope(as decl.Annotations, pos decl.Position, what string) string {
	labels := b.opts.scopes(as)
	if len(labels) > 1 {
		b.sink.Report(diag.InvalidDeclaration, pos, "%s declares more than one scope: %v", what, labels)
	}
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}

func (b *componentBuilder) provider(comp *Component, f *decl.Function) {
	if f.Pkg != comp.Class.Pkg && f.Visibility == decl.Unexported {
		b.sink.Report(diag.InvalidDeclaration, f.Pos,
			"provider %s must be exported to be called from package %s", f.Name, comp.Class.Pkg)
		return
	}
	qualifier := b.opts.qualifier(f.Annotations)
	scope := b.scope(f.Annotations, f.Pos, "provider "+f.Name)

	contribution, value, ok := b.contribution(f.Annotations, f.Results, f.ReturnsError, qualifier, scope, f.Pos)
	if !ok {
		return
	}
	if contribution == nil {
		if len(f.Results) != 1 {
			b.sink.Report(diag.InvalidDeclaration, f.Pos, "provider %s must return exactly one value", f.Name)
			return
		}
		value = f.Results[0]
	}

	binding := &ProviderFunctionBinding{
		bindingBase:  bindingBase{key: NewKey(value, qualifier), scope: scope, pos: f.Pos, source: f.QualifiedName()},
		Func:         f,
		Declarer:     comp,
		Params:       dependencies(b.opts, f.Params),
		Contribution: contribution,
	}
	if contribution != nil {
		comp.Contributions = append(comp.Contributions, binding)
		return
	}
	comp.Bindings = append(comp.Bindings, binding)
}

func (b *componentBuilder) property(comp *Component, p *decl.Property) {
	if p.Pkg != comp.Class.Pkg && p.Visibility == decl.Unexported {
		b.sink.Report(diag.InvalidDeclaration, p.Pos,
			"provider %s must be exported to be read from package %s", p.Name, comp.Class.Pkg)
		return
	}
	qualifier := b.opts.qualifier(p.Annotations)
	scope := b.scope(p.Annotations, p.Pos, "provider "+p.Name)

	contribution, value, ok := b.contribution(p.Annotations, []*decl.Type{p.Type}, false, qualifier, scope, p.Pos)
	if !ok {
		return
	}
	if contribution == nil {
		value = p.Type
	}

	binding := &ProviderPropertyBinding{
		bindingBase:  bindingBase{key: NewKey(value, qualifier), scope: scope, pos: p.Pos, source: p.QualifiedName()},
		Prop:         p,
		Declarer:     comp,
		Contribution: contribution,
	}
	if contribution != nil {
		comp.Contributions = append(comp.Contributions, binding)
		return
	}
	comp.Bindings = append(comp.Bindings, binding)
}

// contribution reads intoset/intomap annotations. It returns a nil
// Contribution for ordinary providers, and ok=false after reporting a
// malformed one. value is the type the provider itself yields.
func (b *componentBuilder) contribution(as decl.Annotations, results []*decl.Type, returnsError bool,
	qualifier, scope string, pos decl.Position) (c *Contribution, value *decl.Type, ok bool) {
	set, isSet := as.Get(decl.AnnotIntoSet)
	m, isMap := as.Get(decl.AnnotIntoMap)

	bad := func(format string, args ...any) (*Contribution, *decl.Type, bool) {
		b.sink.Report(diag.InvalidMultibindingShape, pos, format, args...)
		return nil, nil, false
	}

	switch {
	case !isSet && !isMap:
		return nil, nil, true
	case isSet && isMap:
		return bad("a provider cannot contribute to both a set and a map")
	case isSet:
		if len(results) != 1 {
			return bad("set contribution must return exactly one value")
		}
		r := results[0]
		c := &Contribution{Kind: SetContribution, Multiple: set.Flag(decl.FlagMultiple)}
		collection := decl.SliceOf(r)
		if c.Multiple {
			if r.Resolve().Kind != decl.Slice {
				return bad("multiple set contribution must return a slice, got %s", r.ShortString())
			}
			collection = r
		}
		c.Collection = NewKey(collection, qualifier)
		return c, r, true
	}

	literal, hasKey := m.Param("key")
	c = &Contribution{Kind: MapContribution, Multiple: m.Flag(decl.FlagMultiple), MapKey: literal, Override: m.Flag(decl.FlagOverride)}
	switch {
	case c.Multiple && hasKey:
		return bad("multiple map contribution cannot carry a key")
	case c.Multiple:
		if len(results) != 1 || results[0].Resolve().Kind != decl.Map {
			return bad("multiple map contribution must return a map")
		}
		c.Collection = NewKey(results[0], qualifier)
		return c, results[0], true
	case hasKey:
		if len(results) != 1 {
			return bad("map contribution with key=%s must return exactly one value", literal)
		}
		c.Collection = NewKey(decl.MapOf(decl.BasicType("string"), results[0]), qualifier)
		return c, results[0], true
	default:
		if len(results) != 2 || returnsError {
			return bad("map contribution must return (key, value), a value with key=<literal>, or a map with multiple")
		}
		if scope != "" {
			return bad("map contribution with a computed key cannot be scoped")
		}
		c.Collection = NewKey(decl.MapOf(results[0], results[1]), qualifier)
		return c, results[1], true
	}
}

func dependencies(opts Options, params []decl.Param) []Dependency {
	deps := make([]Dependency, 0, len(params))
	for _, p := range params {
		deps = append(deps, Dependency{
			Name:       p.Name,
			Key:        NewKey(p.Type, opts.qualifier(p.Annotations)),
			HasDefault: p.HasDefault,
			Assisted:   p.Annotations.Has(decl.AnnotAssisted),
		})
	}
	return deps
}
