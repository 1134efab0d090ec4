package graph

import (
	"github.com/iVampireSP/injectgen/internal/diag"
)

// Ownership names the component instance caching a scoped value.
type Ownership struct {
	Owner *Component
	Path  Accessor // from the origin to Owner
}

// FindOwner walks from start, reached from the origin through path, up the
// parent chain and returns the first component declaring label.
func FindOwner(start *Component, path Accessor, label string) (Ownership, bool) {
	for comp := start; comp != nil; comp = comp.Parent {
		if comp.Declares(label) {
			return Ownership{Owner: comp, Path: path}, true
		}
		path = path.Plus(comp.ParentHop)
	}
	return Ownership{}, false
}

// AnalyzeScope decides whether the binding of e is cached and where.
// requester is the component whose catalog produced e, reached from the
// origin through base.
//
// Declared providers are cached by their declaring component, which must
// carry the label itself. Constructor bindings are cached by the nearest
// component up from the requester that declares the label.
func AnalyzeScope(e Entry, requester *Component, base Accessor) (Ownership, bool, *diag.Error) {
	label := e.Binding.Scope()
	if label == "" {
		return Ownership{}, false, nil
	}

	if e.Declarer != nil {
		if !e.Declarer.Declares(label) {
			return Ownership{}, false, diag.Newf(diag.UnauthorizedScope, e.Binding.Pos(),
				"%s is scoped %q but component %s does not declare that scope",
				e.Binding.Source(), label, e.Declarer.Name)
		}
		return Ownership{Owner: e.Declarer, Path: base.Concat(e.Path)}, true, nil
	}

	own, ok := FindOwner(requester, base, label)
	if !ok {
		return Ownership{}, false, diag.Newf(diag.UnauthorizedScope, e.Binding.Pos(),
			"cannot find a component with scope %q to cache %s", label, e.Binding.Key())
	}
	return own, true, nil
}
