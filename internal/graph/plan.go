package graph

// NodeKind says how a Node produces its value.
type NodeKind int

const (
	NodeConstruct NodeKind = iota // call an injectable constructor
	NodeCall                      // call a provider function, or an ancestor requirement
	NodeProperty                  // read a package variable or provided component parameter
	NodeParam                     // read a component parameter
	NodeScoped                    // fetch from a cache slot; Deps[0] initializes it
	NodeSet                       // build a set multibinding
	NodeMap                       // build a map multibinding
	NodeFunction                  // func literal or lazy handle around Deps[0]
	NodeFactory                   // assisted factory around the constructor in Deps[0]
	NodeArg                       // caller-supplied argument Name
	NodeLocalRef                  // late-initialized local Name
	NodeLateInit                  // declare local Name, then build Deps[0]
)

var nodeKindNames = [...]string{
	NodeConstruct: "construct",
	NodeCall:      "call",
	NodeProperty:  "property",
	NodeParam:     "param",
	NodeScoped:    "scoped",
	NodeSet:       "set",
	NodeMap:       "map",
	NodeFunction:  "function",
	NodeFactory:   "factory",
	NodeArg:       "arg",
	NodeLocalRef:  "ref",
	NodeLateInit:  "lateinit",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// Node is one step of a construction plan.
//
// Path is always relative to the component being generated. For
// NodeScoped it leads to the owner of the cache slot; for NodeParam,
// NodeProperty and member NodeCall to the declaring component; for every
// other kind to the component whose context the node was built in. A scoped
// node is shared by every reference to it, so references compute their own
// shortened access with Accessor.Resolve against the context they are in.
type Node struct {
	Kind    NodeKind
	Key     Key
	Binding Binding
	Deps    []*Node // a nil entry is a defaulted parameter left unresolved
	Owner   *Component
	Path    Accessor
	Name    string // NodeArg, NodeLocalRef, NodeLateInit
	Args    []Arg  // NodeFunction, NodeFactory
	Helper  string // set when the value is built by a generated helper
}

// Walk visits n and its dependencies depth first, each node once.
// fn returning false skips the node's dependencies.
func Walk(n *Node, fn func(*Node) bool) {
	seen := make(map[*Node]bool)
	var visit func(*Node)
	visit = func(n *Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if !fn(n) {
			return
		}
		for _, d := range n.Deps {
			visit(d)
		}
	}
	visit(n)
}

// Receiver is the name generated methods use for the component.
const Receiver = "c"

// Reserved identifiers of generated code that planned names must avoid.
var Reserved = []string{Receiver, "scope", "owner"}

// CacheKey is the identity of a scoped node within its owner's cache.
func CacheKey(n *Node) string {
	return trackingKey(n.Key, n.Binding).ID()
}

// ContributionOf returns the contribution a binding makes to a collection,
// or nil for ordinary bindings.
func ContributionOf(b Binding) *Contribution {
	return contributionOf(b)
}

// CacheSlot is one scoped value cached by the planned component.
type CacheSlot struct {
	Key  Key
	Node *Node
}

// Member implements one requirement.
type Member struct {
	Requirement Requirement
	Node        *Node
}

// Nested is a synthesized helper: a collection builder or a factory
// implementation the generated component exposes under Name.
type Nested struct {
	Name string
	Node *Node
}

// Plan is everything an emitter needs to implement a component.
type Plan struct {
	Component *Component
	Slots     []CacheSlot
	Members   []Member
	Nested    []Nested
}
