// Package golang reads declarations from Go packages. Directives are
// //inject: comments on types, functions and package variables.
package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// Prefix of every directive comment.
const Prefix = "inject:"

// Config controls which packages are read.
type Config struct {
	// Dir is the directory packages are loaded from, normally the module root.
	Dir string
	// Exclude reports package paths to skip. Their types are still visible
	// to the packages that import them.
	Exclude func(pkgPath string) bool
	// Tags are passed to the build system.
	Tags []string
	Log  *zap.Logger
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedImports |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax

// Load loads the packages matching patterns and returns their declarations.
func Load(ctx context.Context, cfg Config, patterns ...string) (*decl.Index, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	pcfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     cfg.Dir,
	}
	if len(cfg.Tags) > 0 {
		pcfg.BuildFlags = []string{"-tags=" + strings.Join(cfg.Tags, ",")}
	}

	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var errs error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = multierr.Append(errs, e)
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("package errors: %w", errs)
	}

	idx := decl.NewIndex()
	r := newReader(idx)
	for _, pkg := range pkgs {
		r.collectDocs(pkg)
	}
	for _, pkg := range pkgs {
		if cfg.Exclude != nil && cfg.Exclude(pkg.PkgPath) {
			log.Debug("package excluded", zap.String("pkg", pkg.PkgPath))
			continue
		}
		if err := r.read(pkg); err != nil {
			errs = multierr.Append(errs, err)
		}
		log.Debug("package read", zap.String("pkg", pkg.PkgPath), zap.Int("files", len(pkg.Syntax)))
	}
	if errs != nil {
		return nil, errs
	}
	return idx, nil
}

// reader turns the syntax and type information of loaded packages into
// declarations.
type reader struct {
	index *decl.Index
	// methodDocs holds the doc comments of interface methods by position so
	// that embedded methods keep their directives.
	methodDocs map[token.Pos]*ast.CommentGroup
}

func newReader(idx *decl.Index) *reader {
	return &reader{index: idx, methodDocs: make(map[token.Pos]*ast.CommentGroup)}
}

func (r *reader) collectDocs(pkg *packages.Package) {
	for _, f := range pkg.Syntax {
		ast.Inspect(f, func(n ast.Node) bool {
			it, ok := n.(*ast.InterfaceType)
			if !ok {
				return true
			}
			for _, field := range it.Methods.List {
				if field.Doc != nil && len(field.Names) > 0 {
					r.methodDocs[field.Names[0].Pos()] = field.Doc
				}
			}
			return true
		})
	}
}

// read adds the declarations of pkg to the index.
func (r *reader) read(pkg *packages.Package) error {
	c := &converter{pkg: pkg, fset: pkg.Fset}
	var errs error
	for _, f := range pkg.Syntax {
		for _, d := range f.Decls {
			var err error
			switch d := d.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					err = r.function(c, d)
				}
			case *ast.GenDecl:
				err = r.genDecl(c, d)
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *reader) genDecl(c *converter, d *ast.GenDecl) error {
	var errs error
	for _, spec := range d.Specs {
		switch spec := spec.(type) {
		case *ast.TypeSpec:
			doc := spec.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			errs = multierr.Append(errs, r.typeSpec(c, spec, doc))
		case *ast.ValueSpec:
			if d.Tok != token.VAR {
				continue
			}
			doc := spec.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			errs = multierr.Append(errs, r.variables(c, spec, doc))
		}
	}
	return errs
}

func (r *reader) typeSpec(c *converter, spec *ast.TypeSpec, doc *ast.CommentGroup) error {
	obj, ok := c.pkg.TypesInfo.Defs[spec.Name].(*types.TypeName)
	if !ok || obj.IsAlias() {
		return nil
	}
	as, params := directives(doc)
	iface, isIface := obj.Type().Underlying().(*types.Interface)
	if len(as) == 0 && len(params) == 0 {
		return nil
	}

	cls := r.index.Ensure(c.pkg.PkgPath, obj.Name())
	cls.PkgName = c.pkg.Name
	cls.Visibility = decl.VisibilityOf(obj.Name())
	cls.Pos = c.position(spec.Name.Pos())
	cls.Abstract = isIface

	var errs error
	for _, a := range as {
		if a.Name == decl.AnnotMultibinds {
			t, err := c.eval(a.Args, doc.Pos())
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: multibinds: %w", cls.Pos, err))
				continue
			}
			cls.Multibinds = append(cls.Multibinds, t)
			continue
		}
		cls.Annotations = append(cls.Annotations, a)
	}
	for _, p := range params {
		param, err := c.componentParam(p, doc.Pos())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", cls.Pos, err))
			continue
		}
		param.Pos = cls.Pos
		cls.Params = append(cls.Params, param)
	}

	switch {
	case cls.IsComponent():
		if !isIface {
			return multierr.Append(errs, fmt.Errorf("%s: component %s must be an interface", cls.Pos, cls.Name))
		}
		for i := range iface.NumEmbeddeds() {
			t, err := c.typeOf(iface.EmbeddedType(i))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", cls.Pos, err))
				continue
			}
			cls.Supertypes = append(cls.Supertypes, t)
		}
		for i := range iface.NumMethods() {
			m, err := r.method(c, iface.Method(i))
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			cls.Members = append(cls.Members, m)
		}

	case cls.Annotations.Has(decl.AnnotFactory):
		sig, ok := obj.Type().Underlying().(*types.Signature)
		if !ok {
			return multierr.Append(errs, fmt.Errorf("%s: factory %s must be a func type", cls.Pos, cls.Name))
		}
		t, err := c.typeOf(sig)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("%s: %w", cls.Pos, err))
		}
		cls.Signature = t
	}
	return errs
}

func (r *reader) method(c *converter, m *types.Func) (*decl.Function, error) {
	as, _ := directives(r.methodDocs[m.Pos()])
	f, err := c.function(m, as)
	if err != nil {
		return nil, err
	}
	for i := range f.Params {
		if f.Params[i].Name == "" || f.Params[i].Name == "_" {
			f.Params[i].Name = fmt.Sprintf("p%d", i)
		}
	}
	return f, nil
}

func (r *reader) function(c *converter, d *ast.FuncDecl) error {
	as, _ := directives(d.Doc)
	if !as.Has(decl.AnnotInject) && !as.Has(decl.AnnotProvides) {
		return nil
	}
	obj, ok := c.pkg.TypesInfo.Defs[d.Name].(*types.Func)
	if !ok {
		return nil
	}
	if obj.Type().(*types.Signature).TypeParams().Len() > 0 {
		return fmt.Errorf("%s: %s: generic functions cannot be injected", c.position(obj.Pos()), obj.Name())
	}
	f, err := c.function(obj, as)
	if err != nil {
		return err
	}
	if as.Has(decl.AnnotInject) {
		return r.index.AttachConstructor(f)
	}
	target, err := r.index.ProvidesTarget(f.Annotations, f.Pkg, f.Pos)
	if err != nil {
		return err
	}
	target.Provides = append(target.Provides, f)
	return nil
}

func (r *reader) variables(c *converter, spec *ast.ValueSpec, doc *ast.CommentGroup) error {
	as, _ := directives(doc)
	if !as.Has(decl.AnnotProvides) {
		return nil
	}
	var errs error
	for _, name := range spec.Names {
		obj, ok := c.pkg.TypesInfo.Defs[name].(*types.Var)
		if !ok {
			continue
		}
		pos := c.position(name.Pos())
		t, err := c.typeOf(obj.Type())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", pos, err))
			continue
		}
		prop := &decl.Property{
			Name:        obj.Name(),
			Pkg:         c.pkg.PkgPath,
			PkgName:     c.pkg.Name,
			Type:        t,
			Annotations: as,
			Visibility:  decl.VisibilityOf(obj.Name()),
			Pos:         pos,
		}
		target, err := r.index.ProvidesTarget(as, prop.Pkg, pos)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		target.Properties = append(target.Properties, prop)
	}
	return errs
}
