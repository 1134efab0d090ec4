package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/graph"
)

const runtimePkg = "github.com/iVampireSP/injectgen/inject"

// site is where an expression is evaluated: the component instance the
// surrounding code has at hand and how it is reached.
type site struct {
	path   graph.Accessor // component in hand, relative to the generated one
	recv   string         // expression holding it
	used   *bool          // set when recv is referred to
	helper *graph.Node    // helper whose body is being written
}

func rootSite() *site {
	return &site{recv: graph.Receiver, used: new(bool)}
}

func (cx *site) inHelper(n *graph.Node) *site {
	c := *cx
	c.helper = n
	return &c
}

// writer renders plan nodes as Go expressions.
type writer struct {
	imp    *importSet
	err    error
	active map[*graph.Node]bool // scoped nodes whose initializer is being written
}

func newWriter(imp *importSet) *writer {
	return &writer{imp: imp, active: make(map[*graph.Node]bool)}
}

func (w *writer) fail(format string, args ...any) string {
	if w.err == nil {
		w.err = fmt.Errorf(format, args...)
	}
	return "nil"
}

func (w *writer) typ(t *decl.Type) string { return w.imp.typeString(t) }

func (w *writer) rt(name string) string { return w.imp.qualified(runtimePkg, "inject", name) }

// component returns an expression for the component instance at path. The
// result is untyped (any) unless it is the receiver or one of its fields.
func (w *writer) component(cx *site, path graph.Accessor) (expr string, untyped bool) {
	if path.IsEmpty() {
		return graph.Receiver, false
	}
	if cx.recv != graph.Receiver {
		if cx.path.Equal(path) {
			*cx.used = true
			return cx.recv, true
		}
		if cx.path.RelativeTo(path) {
			*cx.used = true
			return w.follow(cx.recv, cx.path.Resolve(path)), true
		}
	}
	if len(path) == 1 {
		return graph.Receiver + "." + path[0], false
	}
	return w.follow(graph.Receiver+"."+path[0], path[1:]), true
}

func (w *writer) follow(base string, hops []string) string {
	args := []string{base}
	for _, h := range hops {
		args = append(args, strconv.Quote(h))
	}
	return w.rt("Follow") + "(" + strings.Join(args, ", ") + ")"
}

// param reads the constructor parameter name of the component at path.
func (w *writer) param(cx *site, path graph.Accessor, name string, t *decl.Type) string {
	if path.IsEmpty() {
		return graph.Receiver + "." + name
	}
	comp, _ := w.component(cx, path)
	return w.follow(comp, []string{name}) + ".(" + w.typ(t) + ")"
}

func (w *writer) scope(cx *site, path graph.Accessor) string {
	if path.IsEmpty() {
		return "&" + graph.Receiver + ".scope"
	}
	comp, _ := w.component(cx, path)
	return w.rt("ScopeOf") + "(" + comp + ")"
}

func (w *writer) call(f *decl.Function, args []string) string {
	expr := w.imp.qualified(f.Pkg, f.PkgName, f.Name) + "(" + strings.Join(args, ", ") + ")"
	if f.ReturnsError {
		return w.rt("Must") + "(" + expr + ")"
	}
	return expr
}

func (w *writer) args(cx *site, deps []*graph.Node, params []graph.Dependency) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		if d == nil {
			out[i] = "*new(" + w.typ(params[i].Key.Type) + ")"
			continue
		}
		out[i] = w.node(cx, d)
	}
	return out
}

func (w *writer) signature(args []graph.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + " " + w.typ(a.Type)
	}
	return strings.Join(parts, ", ")
}

// node renders the expression producing n's value in cx.
func (w *writer) node(cx *site, n *graph.Node) string {
	switch n.Kind {
	case graph.NodeArg, graph.NodeLocalRef:
		return n.Name

	case graph.NodeLateInit:
		t := w.typ(n.Key.Type)
		return fmt.Sprintf("func() %s {\nvar %s %s\n%s = %s\nreturn %s\n}()",
			t, n.Name, t, n.Name, w.node(cx, n.Deps[0]), n.Name)

	case graph.NodeConstruct:
		b := n.Binding.(*graph.ConstructorBinding)
		return w.call(b.Func, w.args(cx, n.Deps, b.Params))

	case graph.NodeCall:
		b := n.Binding.(*graph.ProviderFunctionBinding)
		if b.Member {
			comp, untyped := w.component(cx, n.Path)
			if untyped {
				comp += ".(" + w.typ(b.Declarer.Type()) + ")"
			}
			return comp + "." + b.Func.Name + "()"
		}
		return w.call(b.Func, w.args(cx, n.Deps, b.Params))

	case graph.NodeProperty:
		b := n.Binding.(*graph.ProviderPropertyBinding)
		if b.Prop != nil {
			return w.imp.qualified(b.Prop.Pkg, b.Prop.PkgName, b.Prop.Name)
		}
		return w.param(cx, n.Path, b.Param, n.Key.Type)

	case graph.NodeParam:
		b := n.Binding.(*graph.ComponentParameterBinding)
		return w.param(cx, n.Path, b.Param.Name, b.Param.Type)

	case graph.NodeScoped:
		return w.scoped(cx, n)

	case graph.NodeSet:
		if call, ok := w.helperCall(cx, n); ok {
			return call
		}
		return w.set(cx, n)

	case graph.NodeMap:
		if call, ok := w.helperCall(cx, n); ok {
			return call
		}
		return w.mapOf(cx, n)

	case graph.NodeFunction:
		b := n.Binding.(*graph.FunctionTypeBinding)
		body := w.node(cx, n.Deps[0])
		result := w.typ(b.Result.Type)
		switch b.Wrapper {
		case graph.WrapperFunc:
			return fmt.Sprintf("func(%s) %s {\nreturn %s\n}", w.signature(n.Args), result, body)
		case graph.WrapperLazy:
			return fmt.Sprintf("%s(func() %s {\nreturn %s\n})", w.rt("NewLazy"), result, body)
		}
		return w.fail("%s: no code generation for delay wrapper %s", n.Key, b.Wrapper)

	case graph.NodeFactory:
		if call, ok := w.helperCall(cx, n); ok {
			return call
		}
		b := n.Binding.(*graph.AssistedFactoryBinding)
		return fmt.Sprintf("func(%s) %s {\nreturn %s\n}",
			w.signature(n.Args), w.typ(b.Target.Type), w.node(cx, n.Deps[0]))

	default:
		panic(fmt.Sprintf("emit: unhandled node kind %s", n.Kind))
	}
}

func (w *writer) helperCall(cx *site, n *graph.Node) (string, bool) {
	if n.Helper == "" || cx.helper == n {
		return "", false
	}
	return graph.Receiver + "." + n.Helper + "()", true
}

// scoped fetches n from its owner's cache; the initializer runs in the
// owner's context.
func (w *writer) scoped(cx *site, n *graph.Node) string {
	cache := w.scope(cx, n.Path)
	t := w.typ(n.Key.Type)
	key := strconv.Quote(graph.CacheKey(n))

	if w.active[n] {
		return fmt.Sprintf("%s[%s](%s, %s)", w.rt("Cached"), t, cache, key)
	}
	w.active[n] = true
	defer delete(w.active, n)

	if n.Path.IsEmpty() {
		body := w.node(rootSite(), n.Deps[0])
		return fmt.Sprintf("%s(%s, %s, func() %s {\nreturn %s\n})", w.rt("Get"), cache, key, t, body)
	}

	owner := &site{path: n.Path, recv: "owner", used: new(bool)}
	body := w.node(owner, n.Deps[0])
	if !*owner.used {
		return fmt.Sprintf("%s(%s, %s, func() %s {\nreturn %s\n})", w.rt("Get"), cache, key, t, body)
	}
	comp, _ := w.component(cx, n.Path)
	return fmt.Sprintf("%s(%s, %s, func() %s {\nowner := %s\nreturn %s\n})", w.rt("Get"), cache, key, t, comp, body)
}

func (w *writer) set(cx *site, n *graph.Node) string {
	b := n.Binding.(*graph.SetMultibinding)
	elem := w.typ(b.Elem)
	parts := make([]string, 0, len(n.Deps))
	for _, d := range n.Deps {
		expr := w.node(cx, d)
		if c := graph.ContributionOf(d.Binding); c != nil && c.Multiple {
			parts = append(parts, expr)
			continue
		}
		parts = append(parts, "[]"+elem+"{"+expr+"}")
	}
	return fmt.Sprintf("%s[%s](%s)", w.rt("Elements"), elem, strings.Join(parts, ", "))
}

func (w *writer) mapOf(cx *site, n *graph.Node) string {
	b := n.Binding.(*graph.MapMultibinding)
	targs := "[" + w.typ(b.KeyType) + ", " + w.typ(b.Elem) + "]"
	parts := make([]string, 0, len(n.Deps))
	for _, d := range n.Deps {
		expr := w.node(cx, d)
		c := graph.ContributionOf(d.Binding)
		var part string
		switch {
		case c == nil:
			return w.fail("%s: %s is not a map contribution", n.Key, d.Binding.Source())
		case c.Multiple:
			part = w.rt("EntriesOf") + targs + "(" + expr + ")"
		case c.MapKey != "":
			part = w.rt("EntryOf") + targs + "(" + strconv.Quote(c.MapKey) + ", " + expr + ")"
		default:
			part = w.rt("EntryOf") + targs + "(" + expr + ")"
		}
		if c.Override {
			part = w.rt("Overriding") + targs + "(" + part + ")"
		}
		parts = append(parts, part)
	}
	return w.rt("MapOf") + targs + "(" + strings.Join(parts, ", ") + ")"
}
