package golang

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// converter maps go/types objects of one package to declarations.
type converter struct {
	pkg  *packages.Package
	fset *token.FileSet
}

func (c *converter) position(pos token.Pos) decl.Position {
	p := c.fset.Position(pos)
	return decl.Position{File: p.Filename, Line: p.Line, Column: p.Column}
}

// function converts a function or interface method. Directives naming a
// parameter are moved onto it.
func (c *converter) function(obj *types.Func, as decl.Annotations) (*decl.Function, error) {
	pos := c.position(obj.Pos())
	sig := obj.Type().(*types.Signature)
	if sig.Variadic() {
		return nil, fmt.Errorf("%s: %s: variadic functions cannot be injected", pos, obj.Name())
	}

	f := &decl.Function{
		Name:       obj.Name(),
		Pkg:        obj.Pkg().Path(),
		PkgName:    obj.Pkg().Name(),
		Visibility: decl.VisibilityOf(obj.Name()),
		Pos:        pos,
	}
	for i := range sig.Params().Len() {
		v := sig.Params().At(i)
		t, err := c.typeOf(v.Type())
		if err != nil {
			return nil, fmt.Errorf("%s: %s parameter %s: %w", pos, obj.Name(), v.Name(), err)
		}
		f.Params = append(f.Params, decl.Param{Name: v.Name(), Type: t, Pos: c.position(v.Pos())})
	}
	results := sig.Results()
	for i := range results.Len() {
		rt := results.At(i).Type()
		if i == results.Len()-1 && isError(rt) {
			f.ReturnsError = true
			continue
		}
		t, err := c.typeOf(rt)
		if err != nil {
			return nil, fmt.Errorf("%s: %s result: %w", pos, obj.Name(), err)
		}
		f.Results = append(f.Results, t)
	}

	var err error
	if f.Annotations, err = paramDirectives(as, f.Params); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", pos, obj.Name(), err)
	}
	return f, nil
}

// componentParam reads
//
//	//inject:param <name> <type> [component] [provides] [qualifier=<label>]
//
// The type is a Go expression evaluated in the scope of the declaring file.
func (c *converter) componentParam(a decl.Annotation, pos token.Pos) (decl.Param, error) {
	if len(a.Args) < 2 {
		return decl.Param{}, fmt.Errorf("//%sparam needs a name and a type", Prefix)
	}
	p := decl.Param{Name: a.Args[0]}
	expr := a.Args[1:]
	for len(expr) > 1 {
		last := expr[len(expr)-1]
		if last != decl.AnnotComponent && last != decl.AnnotProvides {
			break
		}
		p.Annotations = append(p.Annotations, decl.Annotation{Name: last})
		expr = expr[:len(expr)-1]
	}
	if q, ok := a.Param(decl.AnnotQualifier); ok {
		p.Annotations = append(p.Annotations, decl.Annotation{Name: decl.AnnotQualifier, Args: []string{q}})
	}
	t, err := c.eval(expr, pos)
	if err != nil {
		return decl.Param{}, fmt.Errorf("param %s: %w", p.Name, err)
	}
	p.Type = t
	return p, nil
}

// eval evaluates a type expression written in a directive.
func (c *converter) eval(words []string, pos token.Pos) (*decl.Type, error) {
	expr := strings.Join(words, " ")
	tv, err := types.Eval(c.fset, c.pkg.Types, pos, expr)
	if err != nil {
		return nil, err
	}
	if !tv.IsType() {
		return nil, fmt.Errorf("%s is not a type", expr)
	}
	return c.typeOf(tv.Type)
}

// typeOf converts a go/types type. Shapes the resolver never inspects
// (arrays, channels, structs, interface literals) are kept as opaque basic
// types carrying their source form.
func (c *converter) typeOf(t types.Type) (*decl.Type, error) {
	switch t := t.(type) {
	case *types.Alias:
		obj := t.Obj()
		target, err := c.typeOf(types.Unalias(t))
		if err != nil {
			return nil, err
		}
		if obj.Pkg() == nil {
			return target, nil
		}
		return decl.AliasOf(obj.Pkg().Path(), obj.Name(), target), nil

	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return decl.BasicType(obj.Name()), nil
		}
		if t.TypeParams().Len() > 0 && t.TypeArgs().Len() == 0 {
			return nil, fmt.Errorf("generic type %s used without type arguments", obj.Name())
		}
		named := decl.NamedType(obj.Pkg().Path(), obj.Name())
		named.PkgName = obj.Pkg().Name()
		for i := range t.TypeArgs().Len() {
			arg, err := c.typeOf(t.TypeArgs().At(i))
			if err != nil {
				return nil, err
			}
			named.Args = append(named.Args, arg)
		}
		return named, nil

	case *types.Basic:
		return decl.BasicType(types.Typ[t.Kind()].Name()), nil

	case *types.Pointer:
		elem, err := c.typeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return decl.PointerTo(elem), nil

	case *types.Slice:
		elem, err := c.typeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return decl.SliceOf(elem), nil

	case *types.Map:
		key, err := c.typeOf(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := c.typeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return decl.MapOf(key, elem), nil

	case *types.Signature:
		if t.Variadic() {
			return nil, fmt.Errorf("variadic func type %s is not supported", t)
		}
		params, err := c.tuple(t.Params())
		if err != nil {
			return nil, err
		}
		results, err := c.tuple(t.Results())
		if err != nil {
			return nil, err
		}
		return decl.FuncOf(params, results), nil

	case *types.Interface:
		if t.Empty() {
			return decl.BasicType("any"), nil
		}

	case *types.TypeParam:
		return nil, fmt.Errorf("type parameter %s cannot be injected", t)
	}
	return decl.BasicType(types.TypeString(t, (*types.Package).Name)), nil
}

func (c *converter) tuple(tup *types.Tuple) ([]*decl.Type, error) {
	var out []*decl.Type
	for i := range tup.Len() {
		t, err := c.typeOf(tup.At(i).Type())
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}
