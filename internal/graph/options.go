package graph

import (
	"slices"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// Recognized delay wrappers. WrapperFunc covers every func type; any other
// entry names a generic handle type used as *Name[T].
const (
	WrapperFunc = "func"
	WrapperLazy = "github.com/iVampireSP/injectgen/inject.Lazy"
)

// Options tune how declarations are read. They never change what a
// well-formed graph resolves to.
type Options struct {
	// LegacyAnnotations also accepts //inject:named as a qualifier and
	// //inject:singleton as the "singleton" scope label.
	LegacyAnnotations bool
	// DelayWrappers is the set of dependency shapes that defer construction
	// and may therefore break a cycle.
	DelayWrappers []string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{DelayWrappers: []string{WrapperFunc, WrapperLazy}}
}

func (o Options) delays(wrapper string) bool {
	return slices.Contains(o.DelayWrappers, wrapper)
}

// lazyHandle matches *pkg.Name[T] against the configured wrappers and returns
// the wrapper name and T.
func (o Options) lazyHandle(t *decl.Type) (string, *decl.Type, bool) {
	t = t.Resolve()
	if t.Kind != decl.Pointer {
		return "", nil, false
	}
	named := t.Elem.Resolve()
	if named.Kind != decl.Named || len(named.Args) != 1 {
		return "", nil, false
	}
	name := named.Pkg + "." + named.Name
	if name == WrapperFunc || !o.delays(name) {
		return "", nil, false
	}
	return name, named.Args[0], true
}

func (o Options) qualifier(as decl.Annotations) string {
	if q, ok := as.Get(decl.AnnotQualifier); ok {
		return q.Arg(0)
	}
	if o.LegacyAnnotations {
		if q, ok := as.Get(decl.AnnotNamed); ok {
			return q.Arg(0)
		}
	}
	return ""
}

func (o Options) scopes(as decl.Annotations) []string {
	var labels []string
	for _, a := range as.All(decl.AnnotScope) {
		for _, label := range a.Args {
			if !slices.Contains(labels, label) {
				labels = append(labels, label)
			}
		}
	}
	if o.LegacyAnnotations && as.Has(decl.AnnotSingleton) && !slices.Contains(labels, decl.AnnotSingleton) {
		labels = append(labels, decl.AnnotSingleton)
	}
	return labels
}
