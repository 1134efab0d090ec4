package golang

import (
	"fmt"
	"go/ast"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// directives extracts //inject: directives from a doc comment. Component
// parameter declarations (//inject:param) are returned separately.
func directives(doc *ast.CommentGroup) (as decl.Annotations, params []decl.Annotation) {
	if doc == nil {
		return nil, nil
	}
	for _, c := range doc.List {
		a, ok := decl.ParseDirective(c.Text, Prefix)
		if !ok {
			continue
		}
		if a.Name == decl.AnnotParam {
			params = append(params, a)
			continue
		}
		as = append(as, a)
	}
	return as, params
}

// paramDirectives moves directives that name a parameter onto that
// parameter:
//
//	//inject:qualifier <param> <label>
//	//inject:assisted <param>...
//	//inject:optional <param>...
//
// A one-argument qualifier stays on the function and qualifies its result.
func paramDirectives(as decl.Annotations, params []decl.Param) (decl.Annotations, error) {
	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Name] = i
	}
	lookup := func(a decl.Annotation, name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("//%s%s: no parameter named %s", Prefix, a.Name, name)
		}
		return i, nil
	}

	var rest decl.Annotations
	for _, a := range as {
		switch {
		case a.Name == decl.AnnotQualifier && len(a.Args) == 2:
			i, err := lookup(a, a.Args[0])
			if err != nil {
				return nil, err
			}
			params[i].Annotations = append(params[i].Annotations, decl.Annotation{Name: decl.AnnotQualifier, Args: a.Args[1:]})

		case a.Name == decl.AnnotAssisted:
			for _, name := range a.Args {
				i, err := lookup(a, name)
				if err != nil {
					return nil, err
				}
				params[i].Annotations = append(params[i].Annotations, decl.Annotation{Name: decl.AnnotAssisted})
			}

		case a.Name == decl.AnnotOptional:
			for _, name := range a.Args {
				i, err := lookup(a, name)
				if err != nil {
					return nil, err
				}
				params[i].HasDefault = true
			}

		default:
			rest = append(rest, a)
		}
	}
	return rest, nil
}
