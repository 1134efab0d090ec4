package graph

import (
	"fmt"
	"go/token"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/diag"
)

// Resolver turns components into construction plans. It is not safe for
// concurrent use: a pass resolves one component at a time.
type Resolver struct {
	decls  decl.Provider
	opts   Options
	log    *zap.Logger
	args   *NameAllocator
	locals *NameAllocator
}

// NewResolver creates a resolver reading declarations from decls.
func NewResolver(decls decl.Provider, opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		decls:  decls,
		opts:   opts,
		log:    log,
		args:   NewNameAllocator(),
		locals: NewNameAllocator(),
	}
}

// Resolve plans every requirement of comp. All problems of the component are
// collected before an error is returned; no plan is produced then.
func (r *Resolver) Resolve(comp *Component) (*Plan, error) {
	p := r.newPass(comp)
	for _, req := range comp.Requirements {
		at := site{comp: comp, args: req.Args}
		node, err := p.resolve(at, Stack{}, Dependency{Name: req.Name, Key: req.Key}, req.Func.Pos)
		if err != nil {
			continue
		}
		p.plan.Members = append(p.plan.Members, Member{Requirement: req, Node: node})
	}

	if err := p.sink.Err(); err != nil {
		r.log.Debug("component failed",
			zap.String("component", comp.Name), zap.Int("errors", p.sink.Len()))
		return nil, err
	}
	r.log.Debug("component resolved",
		zap.String("component", comp.Name),
		zap.Int("members", len(p.plan.Members)),
		zap.Int("slots", len(p.plan.Slots)),
		zap.Int("nested", len(p.plan.Nested)))
	return p.plan, nil
}

// ResolveKey resolves a single key from comp.
func (r *Resolver) ResolveKey(comp *Component, key Key) (*Node, error) {
	p := r.newPass(comp)
	node, _ := p.resolve(site{comp: comp}, Stack{}, Dependency{Key: key}, comp.Class.Pos)
	if err := p.sink.Err(); err != nil {
		return nil, err
	}
	return node, nil
}

func (r *Resolver) newPass(comp *Component) *pass {
	r.args.Reset()
	r.locals.Reset()
	// Generated methods live next to the receiver and parameter fields.
	for _, name := range Reserved {
		r.locals.Unique(name)
	}
	for _, prm := range comp.Params {
		r.locals.Unique(prm.Name)
	}
	for _, req := range comp.Requirements {
		for _, a := range req.Args {
			r.args.Unique(a.Name)
		}
	}
	return &pass{
		r:        r,
		root:     comp,
		sink:     &diag.Sink{},
		catalogs: make(map[*Component]*Catalog),
		detector: NewDetector(),
		shared:   make(map[sharedID]*Node),
		failed:   make(map[sharedID]error),
		lateInit: make(map[string]string),
		nested:   make(map[string]string),
		plan:     &Plan{Component: comp},
	}
}

// site is the context a value is constructed in.
type site struct {
	comp *Component
	path Accessor // origin to comp
	args []Arg    // caller-supplied arguments in scope
}

type sharedID struct {
	owner *Component
	key   string
}

type pass struct {
	r        *Resolver
	root     *Component
	sink     *diag.Sink
	catalogs map[*Component]*Catalog
	detector *Detector
	shared   map[sharedID]*Node
	failed   map[sharedID]error // already reported
	lateInit map[string]string // key id and stack depth -> local awaiting its LateInit
	nested   map[string]string // key id -> helper name
	plan     *Plan
}

func (p *pass) catalog(comp *Component) *Catalog {
	c, ok := p.catalogs[comp]
	if !ok {
		c = NewCatalog(comp, p.r.decls, p.r.opts)
		p.catalogs[comp] = c
	}
	return c
}

// report attaches the resolution trace to err and records it.
func (p *pass) report(err *diag.Error, stack Stack, key Key, pos decl.Position) error {
	if !err.Pos.IsValid() {
		err.Pos = pos
	}
	for _, k := range stack.Trace() {
		err.Trace = append(err.Trace, k.String())
	}
	err.Trace = append(err.Trace, key.String())
	p.sink.Add(err)
	return err
}

func (p *pass) resolve(at site, stack Stack, dep Dependency, pos decl.Position) (*Node, error) {
	if arg, ok := matchArg(at.args, dep.Key); ok {
		return &Node{Kind: NodeArg, Key: dep.Key, Name: arg.Name, Owner: at.comp, Path: at.path}, nil
	}

	entry, derr := p.catalog(at.comp).Lookup(dep.Key)
	if derr != nil {
		if derr.Kind == diag.MissingBinding && dep.HasDefault {
			return nil, nil
		}
		return nil, p.report(derr, stack, dep.Key, pos)
	}
	return p.resolveEntry(at, stack, dep.Key, entry)
}

// matchArg finds the innermost caller-supplied argument of the key's type.
func matchArg(args []Arg, key Key) (Arg, bool) {
	if key.Qualifier != "" {
		return Arg{}, false
	}
	for i := len(args) - 1; i >= 0; i-- {
		if args[i].Type.Identical(key.Type) {
			return args[i], true
		}
	}
	return Arg{}, false
}

func (p *pass) resolveEntry(at site, stack Stack, key Key, e Entry) (*Node, error) {
	track := trackingKey(key, e.Binding)
	depth := stack.Depth()
	own, scoped, derr := AnalyzeScope(e, at.comp, at.path)

	next, res := p.detector.Enter(stack, track)
	switch res.Outcome {
	case Cycle:
		return nil, p.report(diag.Newf(diag.FatalCycle, e.Binding.Pos(),
			"dependency cycle: %s", formatKeys(res.Path)), stack, key, e.Binding.Pos())
	case Resolvable:
		if derr == nil && scoped {
			// Back reference to a cached value from inside its own initializer.
			if n, ok := p.shared[sharedID{owner: own.Owner, key: track.ID()}]; ok {
				return n, nil
			}
		}
		if !res.Crosses {
			return &Node{Kind: NodeLocalRef, Key: key, Binding: e.Binding,
				Name: p.lateInitName(track, res.Depth), Owner: at.comp, Path: at.path}, nil
		}
		// A local of the enclosing construction is not visible inside a
		// cached initializer; build a new instance there instead.
		next = stack.Push(track)
	}
	defer p.detector.Finish(track)

	if derr != nil {
		return nil, p.report(derr, stack, key, e.Binding.Pos())
	}
	if scoped {
		return p.scoped(at, next, depth, key, track, e, own)
	}

	n, err := p.construct(at, next, key, e.Binding, at.path.Concat(e.Path))
	if err != nil {
		return nil, err
	}
	return p.wrapLateInit(track, depth, n), nil
}

// trackingKey is the identity a binding is tracked under for cycles. Each
// contribution to a collection is distinct from the ordinary binding of the
// same type.
func trackingKey(key Key, b Binding) Key {
	if contributionOf(b) == nil {
		return key
	}
	return NewKey(key.Type, key.Qualifier+"+"+b.Source())
}

// scoped returns the cache node for a scoped binding, creating it and its
// initializer on first use. The initializer is built in the owner's context.
func (p *pass) scoped(at site, stack Stack, depth int, key, track Key, e Entry, own Ownership) (*Node, error) {
	id := sharedID{owner: own.Owner, key: track.ID()}
	if n, ok := p.shared[id]; ok {
		return n, nil
	}
	if err, ok := p.failed[id]; ok {
		return nil, err
	}

	n := &Node{Kind: NodeScoped, Key: key, Binding: e.Binding, Owner: own.Owner, Path: own.Path}
	p.shared[id] = n

	init, err := p.construct(site{comp: own.Owner, path: own.Path}, stack.Boundary(), key, e.Binding, at.path.Concat(e.Path))
	if err != nil {
		delete(p.shared, id)
		p.failed[id] = err
		return nil, err
	}
	n.Deps = []*Node{p.wrapLateInit(track, depth, init)}
	if own.Owner == p.root {
		p.plan.Slots = append(p.plan.Slots, CacheSlot{Key: key, Node: n})
	}
	return n, nil
}

// construct builds the node producing b's value at the given site. abs is
// the path to b's declarer.
func (p *pass) construct(at site, stack Stack, key Key, b Binding, abs Accessor) (*Node, error) {
	switch b := b.(type) {
	case *ConstructorBinding:
		if len(b.AssistedParams()) > 0 {
			return nil, p.report(diag.Newf(diag.InvalidDeclaration, b.Pos(),
				"%s has assisted parameters and must be created through its factory", key), stack, key, b.Pos())
		}
		deps, err := p.resolveAll(at, stack, b.Params, b.Pos())
		return &Node{Kind: NodeConstruct, Key: key, Binding: b, Deps: deps, Owner: at.comp, Path: at.path}, err

	case *ProviderFunctionBinding:
		if b.Member {
			return &Node{Kind: NodeCall, Key: key, Binding: b, Owner: b.Declarer, Path: abs}, nil
		}
		deps, err := p.resolveAll(at, stack, b.Params, b.Pos())
		return &Node{Kind: NodeCall, Key: key, Binding: b, Deps: deps, Owner: at.comp, Path: at.path}, err

	case *ProviderPropertyBinding:
		return &Node{Kind: NodeProperty, Key: key, Binding: b, Owner: b.Declarer, Path: abs}, nil

	case *ComponentParameterBinding:
		return &Node{Kind: NodeParam, Key: key, Binding: b, Owner: b.Declarer, Path: abs}, nil

	case *SetMultibinding:
		return p.collection(at, stack, NodeSet, key, b, b.Entries)

	case *MapMultibinding:
		return p.collection(at, stack, NodeMap, key, b, b.Entries)

	case *FunctionTypeBinding:
		args := make([]Arg, len(b.Args))
		for i, t := range b.Args {
			args[i] = Arg{Name: p.r.args.NewName(i), Type: t}
		}
		inner := site{comp: at.comp, path: at.path, args: append(slices.Clone(at.args), args...)}
		if b.Delayable() {
			stack = stack.Delay()
		}
		body, err := p.resolve(inner, stack, Dependency{Key: b.Result}, b.Pos())
		return &Node{Kind: NodeFunction, Key: key, Binding: b, Deps: []*Node{body}, Args: args, Owner: at.comp, Path: at.path}, err

	case *AssistedFactoryBinding:
		return p.factory(at, stack, key, b)

	default:
		panic(fmt.Sprintf("graph: unhandled binding %T", b))
	}
}

func (p *pass) resolveAll(at site, stack Stack, deps []Dependency, pos decl.Position) ([]*Node, error) {
	nodes := make([]*Node, len(deps))
	var first error
	for i, dep := range deps {
		n, err := p.resolve(at, stack, dep, pos)
		if err != nil && first == nil {
			first = err
		}
		nodes[i] = n
	}
	return nodes, first
}

func (p *pass) collection(at site, stack Stack, kind NodeKind, key Key, b Binding, entries []Entry) (*Node, error) {
	n := &Node{Kind: kind, Key: key, Binding: b, Owner: at.comp, Path: at.path}
	var first error
	for _, e := range entries {
		child, err := p.resolveEntry(at, stack, e.Binding.Key(), e)
		if err != nil && first == nil {
			first = err
		}
		n.Deps = append(n.Deps, child)
	}
	if first != nil {
		return nil, first
	}
	p.hoist(at, key, n, "")
	return n, nil
}

func (p *pass) factory(at site, stack Stack, key Key, b *AssistedFactoryBinding) (*Node, error) {
	entry, derr := p.catalog(at.comp).Lookup(b.Target)
	if derr != nil {
		return nil, p.report(derr, stack, b.Target, b.Pos())
	}
	ctor, ok := entry.Binding.(*ConstructorBinding)
	if !ok {
		return nil, p.report(diag.Newf(diag.InvalidDeclaration, b.Pos(),
			"factory %s must produce a type with an injectable constructor", b.Factory.Name), stack, key, b.Pos())
	}
	if ctor.Scope() != "" {
		return nil, p.report(diag.Newf(diag.InvalidDeclaration, ctor.Pos(),
			"%s is created by factory %s and cannot be scoped", b.Target, b.Factory.Name), stack, key, ctor.Pos())
	}
	assisted := ctor.AssistedParams()
	if len(assisted) != len(b.Args) {
		return nil, p.report(diag.Newf(diag.InvalidDeclaration, b.Pos(),
			"factory %s supplies %d arguments but %s has %d assisted parameters",
			b.Factory.Name, len(b.Args), b.Target, len(assisted)), stack, key, b.Pos())
	}

	args := make([]Arg, len(b.Args))
	for i, t := range b.Args {
		if !t.Identical(assisted[i].Key.Type) {
			return nil, p.report(diag.Newf(diag.InvalidDeclaration, b.Pos(),
				"factory %s argument %d is %s but assisted parameter %s is %s",
				b.Factory.Name, i, t.ShortString(), assisted[i].Name, assisted[i].Key.Type.ShortString()), stack, key, b.Pos())
		}
		args[i] = Arg{Name: p.r.args.NewName(i), Type: t}
	}

	delayed := stack.Delay()
	depth := delayed.Depth()
	next, res := p.detector.Enter(delayed, b.Target)
	if res.Outcome == Cycle {
		return nil, p.report(diag.Newf(diag.FatalCycle, ctor.Pos(),
			"dependency cycle: %s", formatKeys(res.Path)), stack, b.Target, ctor.Pos())
	}
	defer p.detector.Finish(b.Target)

	ctorNode := &Node{Kind: NodeConstruct, Key: b.Target, Binding: ctor, Owner: at.comp, Path: at.path}
	var first error
	j := 0
	for _, param := range ctor.Params {
		if param.Assisted {
			ctorNode.Deps = append(ctorNode.Deps, &Node{Kind: NodeArg, Key: param.Key, Name: args[j].Name, Owner: at.comp, Path: at.path})
			j++
			continue
		}
		dep, err := p.resolve(at, next, param, ctor.Pos())
		if err != nil && first == nil {
			first = err
		}
		ctorNode.Deps = append(ctorNode.Deps, dep)
	}
	if first != nil {
		return nil, first
	}

	n := &Node{Kind: NodeFactory, Key: key, Binding: b, Deps: []*Node{p.wrapLateInit(b.Target, depth, ctorNode)}, Args: args, Owner: at.comp, Path: at.path}
	p.hoist(at, key, n, "Factory")
	return n, nil
}

// hoist publishes a collection or factory built at the root with no
// caller-supplied arguments as a nested helper of the plan.
func (p *pass) hoist(at site, key Key, n *Node, suffix string) {
	if !at.path.IsEmpty() || len(at.args) > 0 || hasLocalRef(n) {
		return
	}
	id := key.ID()
	if name, ok := p.nested[id]; ok {
		n.Helper = name
		return
	}
	if suffix == "" {
		suffix = "Set"
		if n.Kind == NodeMap {
			suffix = "Map"
		}
	}
	base := key.Type.SimpleName()
	if key.Qualifier != "" {
		base = key.Qualifier + exportName(base)
	}
	if !strings.HasSuffix(base, suffix) {
		base += suffix
	}
	name := p.r.locals.Unique(identifier(base))
	n.Helper = name
	p.nested[id] = name
	p.plan.Nested = append(p.plan.Nested, Nested{Name: name, Node: n})
}

func hasLocalRef(n *Node) bool {
	found := false
	Walk(n, func(n *Node) bool {
		if n.Kind == NodeLocalRef {
			found = true
		}
		return !found && n.Kind != NodeScoped
	})
	return found
}

// lateInitName names the local holding the value under construction at
// the given stack depth.
func (p *pass) lateInitName(key Key, depth int) string {
	id := lateInitID(key, depth)
	if name, ok := p.lateInit[id]; ok {
		return name
	}
	name := p.r.locals.Unique(identifier(key.Type.SimpleName()) + "Ref")
	p.lateInit[id] = name
	return name
}

// wrapLateInit declares the local a Resolvable cycle refers back to.
func (p *pass) wrapLateInit(track Key, depth int, n *Node) *Node {
	id := lateInitID(track, depth)
	name, ok := p.lateInit[id]
	if !ok {
		return n
	}
	delete(p.lateInit, id)
	return &Node{Kind: NodeLateInit, Key: n.Key, Binding: n.Binding, Name: name, Deps: []*Node{n}, Owner: n.Owner, Path: n.Path}
}

func lateInitID(key Key, depth int) string {
	return fmt.Sprintf("%s@%d", key.ID(), depth)
}

func formatKeys(keys []Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}

// identifier lower-cases the leading initialism of s ("DBConn" becomes
// "dbConn") and avoids Go keywords.
func identifier(s string) string {
	if s == "" {
		return "v"
	}
	r := []rune(s)
	upper := 0
	for upper < len(r) && unicode.IsUpper(r[upper]) {
		upper++
	}
	if upper > 1 && upper < len(r) {
		upper--
	}
	for i := 0; i < upper; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	s = string(r)
	if token.IsKeyword(s) {
		s += "_"
	}
	return s
}

func exportName(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
