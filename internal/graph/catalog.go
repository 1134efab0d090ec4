package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/diag"
)

// Entry is a binding as seen from one component: who declared it and how to
// reach the declarer.
type Entry struct {
	Binding  Binding
	Declarer *Component // nil for synthesized bindings
	Path     Accessor   // from the catalog's component to Declarer
}

// Catalog indexes every binding visible from a component: its own, its
// ancestors' (visible, not owned), aggregated multibindings, and
// constructor, function and factory bindings synthesized on demand.
type Catalog struct {
	comp  *Component
	decls decl.Provider
	opts  Options

	ordinary      map[string][]Entry
	exposed       map[string]Entry // zero-arg requirements of ancestors
	contributions map[string][]Entry
	declared      map[string]bool // //inject:multibinds
	collections   map[string]Entry
	synthesized   map[string]Entry
}

// NewCatalog indexes comp and its parent chain.
func NewCatalog(comp *Component, decls decl.Provider, opts Options) *Catalog {
	c := &Catalog{
		comp:          comp,
		decls:         decls,
		opts:          opts,
		ordinary:      make(map[string][]Entry),
		exposed:       make(map[string]Entry),
		contributions: make(map[string][]Entry),
		declared:      make(map[string]bool),
		collections:   make(map[string]Entry),
		synthesized:   make(map[string]Entry),
	}

	type level struct {
		comp *Component
		path Accessor
	}
	var levels []level
	var path Accessor
	for cur := comp; cur != nil; cur = cur.Parent {
		levels = append(levels, level{comp: cur, path: path})

		for _, b := range cur.Bindings {
			id := b.Key().ID()
			c.ordinary[id] = append(c.ordinary[id], Entry{Binding: b, Declarer: cur, Path: path})
		}
		if !path.IsEmpty() {
			// An ancestor's requirements are callable on the ancestor instance.
			for _, req := range cur.Requirements {
				id := req.Key.ID()
				if _, ok := c.exposed[id]; ok || len(req.Args) > 0 {
					continue
				}
				c.exposed[id] = Entry{
					Binding: &ProviderFunctionBinding{
						bindingBase: bindingBase{key: req.Key, pos: req.Func.Pos, source: cur.Class.QualifiedName() + "." + req.Name},
						Func:        req.Func,
						Declarer:    cur,
						Member:      true,
					},
					Declarer: cur,
					Path:      path,
				}
			}
		}
		for _, k := range cur.Multibinds {
			c.declared[k.ID()] = true
		}
		path = path.Plus(cur.ParentHop)
	}

	// Contributions merge ancestor first.
	for i := len(levels) - 1; i >= 0; i-- {
		for _, b := range levels[i].comp.Contributions {
			id := contributionOf(b).Collection.ID()
			c.contributions[id] = append(c.contributions[id], Entry{Binding: b, Declarer: levels[i].comp, Path: levels[i].path})
		}
	}
	return c
}

// Component returns the component the catalog was built for.
func (c *Catalog) Component() *Component { return c.comp }

// Lookup returns the binding applying to key. The returned error is not
// reported anywhere; the caller attaches a trace and reports it.
func (c *Catalog) Lookup(key Key) (Entry, *diag.Error) {
	id := key.ID()

	entries := c.ordinary[id]
	if contributions, ok := c.contributions[id]; len(entries) > 0 && (ok || c.declared[id]) {
		return Entry{}, shadowed(key, entries, contributions)
	}
	switch len(entries) {
	case 0:
	case 1:
		return entries[0], nil
	default:
		return Entry{}, ambiguous(key, entries)
	}

	if e, ok := c.exposed[id]; ok {
		return e, nil
	}

	if e, ok := c.collections[id]; ok {
		return e, nil
	}
	if contributions, ok := c.contributions[id]; ok || c.declared[id] {
		b, err := Aggregate(key, contributions)
		if err != nil {
			return Entry{}, err
		}
		e := Entry{Binding: b}
		c.collections[id] = e
		return e, nil
	}

	if e, ok := c.synthesized[id]; ok {
		return e, nil
	}
	b, err := c.synthesize(key)
	if err != nil {
		return Entry{}, err
	}
	if b == nil {
		return Entry{}, diag.Newf(diag.MissingBinding, decl.Position{},
			"cannot find an injectable constructor or provider for %s", key)
	}
	e := Entry{Binding: b}
	c.synthesized[id] = e
	return e, nil
}

// synthesize builds a binding for a key nobody declared: function types, lazy
// handles, assisted factories and injectable constructors. A nil binding
// with a nil error means the key is simply missing.
func (c *Catalog) synthesize(key Key) (Binding, *diag.Error) {
	t := key.Type.Resolve()

	if t.Kind == decl.Func {
		if len(t.Results) != 1 {
			return nil, nil
		}
		return &FunctionTypeBinding{
			bindingBase: bindingBase{key: key, source: "func " + key.String()},
			Wrapper:     WrapperFunc,
			Args:        t.Args,
			Result:      NewKey(t.Results[0], key.Qualifier),
			delayable:   c.opts.delays(WrapperFunc),
		}, nil
	}

	if wrapper, elem, ok := c.opts.lazyHandle(t); ok {
		return &FunctionTypeBinding{
			bindingBase: bindingBase{key: key, source: "lazy " + key.String()},
			Wrapper:     wrapper,
			Result:      NewKey(elem, key.Qualifier),
			delayable:   true,
		}, nil
	}

	cls, ok := c.decls.Class(t.Base())
	if !ok {
		return nil, nil
	}

	if cls.Annotations.Has(decl.AnnotFactory) && t.Kind == decl.Named {
		sig := cls.Signature.Resolve()
		if sig == nil || sig.Kind != decl.Func || len(sig.Results) != 1 {
			return nil, diag.Newf(diag.InvalidDeclaration, cls.Pos,
				"factory %s must be a func type returning exactly one value", cls.Name)
		}
		return &AssistedFactoryBinding{
			bindingBase: bindingBase{key: key, pos: cls.Pos, source: cls.QualifiedName()},
			Factory:     cls,
			Args:        sig.Args,
			Target:      NewKey(sig.Results[0], key.Qualifier),
		}, nil
	}

	ctor := cls.Constructor
	if ctor == nil || !ctor.Result().Identical(key.Type) {
		return nil, nil
	}
	if c.opts.qualifier(ctor.Annotations) != key.Qualifier {
		return nil, nil
	}
	if ctor.Pkg != c.comp.Class.Pkg && ctor.Visibility == decl.Unexported {
		return nil, diag.Newf(diag.InvalidDeclaration, ctor.Pos,
			"constructor %s must be exported to be called from package %s", ctor.Name, c.comp.Class.Pkg)
	}

	labels := c.opts.scopes(cls.Annotations)
	for _, label := range c.opts.scopes(ctor.Annotations) {
		if !slices.Contains(labels, label) {
			labels = append(labels, label)
		}
	}
	if len(labels) > 1 {
		return nil, diag.Newf(diag.InvalidDeclaration, ctor.Pos,
			"%s declares more than one scope: %v", cls.Name, labels)
	}
	var scope string
	if len(labels) == 1 {
		scope = labels[0]
	}

	return &ConstructorBinding{
		bindingBase: bindingBase{key: key, scope: scope, pos: ctor.Pos, source: ctor.QualifiedName()},
		Class:       cls,
		Func:        ctor,
		Params:      dependencies(c.opts, ctor.Params),
	}, nil
}

// shadowed reports a collection key that also has ordinary bindings.
func shadowed(key Key, entries, contributions []Entry) *diag.Error {
	var lines []string
	for _, e := range slices.Concat(entries, contributions) {
		lines = append(lines, fmt.Sprintf("  %d. %s (%s)", len(lines)+1, e.Binding.Source(), e.Binding.Pos()))
	}
	if len(contributions) == 0 {
		lines = append(lines, fmt.Sprintf("  %d. multibinds declaration", len(lines)+1))
	}
	return diag.Newf(diag.AmbiguousBinding, entries[0].Binding.Pos(),
		"%s is bound both directly and as a multibinding:\n%s", key, strings.Join(lines, "\n"))
}

func ambiguous(key Key, entries []Entry) *diag.Error {
	var lines []string
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("  %d. %s (%s)", i+1, e.Binding.Source(), e.Binding.Pos()))
	}
	return diag.Newf(diag.AmbiguousBinding, entries[len(entries)-1].Binding.Pos(),
		"%s is bound more than once:\n%s", key, strings.Join(lines, "\n"))
}
