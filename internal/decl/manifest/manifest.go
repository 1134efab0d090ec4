// Package manifest reads declarations from a YAML document instead of Go
// sources. Types are Go type expressions with full import paths, annotations
// are directive bodies without the //inject: prefix:
//
//	classes:
//	  - name: App
//	    package: example.com/app
//	    abstract: true
//	    annotations: [component, scope app]
//	    members:
//	      - name: Server
//	        results: ["*example.com/app.Server"]
//	functions:
//	  - name: ProvideDB
//	    package: example.com/app
//	    results: ["*example.com/app.DB"]
//	    error: true
//	    annotations: [provides App, scope app]
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// Manifest is the document root.
type Manifest struct {
	Classes    []ClassSpec    `yaml:"classes"`
	Functions  []FunctionSpec `yaml:"functions"`
	Properties []PropertySpec `yaml:"properties"`
}

// ClassSpec declares a named type.
type ClassSpec struct {
	Name        string         `yaml:"name"`
	Package     string         `yaml:"package"`
	Abstract    bool           `yaml:"abstract"`
	Annotations []string       `yaml:"annotations"`
	Supertypes  []string       `yaml:"supertypes"`
	Params      []ParamSpec    `yaml:"params"`
	Members     []FunctionSpec `yaml:"members"`
	Constructor *FunctionSpec  `yaml:"constructor"`
	Provides    []FunctionSpec `yaml:"provides"`
	Properties  []PropertySpec `yaml:"properties"`
	Multibinds  []string       `yaml:"multibinds"`
	Signature   string         `yaml:"signature"`
}

// FunctionSpec declares a function, method or constructor.
type FunctionSpec struct {
	Name        string      `yaml:"name"`
	Package     string      `yaml:"package"`
	Params      []ParamSpec `yaml:"params"`
	Results     []string    `yaml:"results"`
	Error       bool        `yaml:"error"`
	Annotations []string    `yaml:"annotations"`
}

// ParamSpec declares a parameter.
type ParamSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Annotations []string `yaml:"annotations"`
	Default     bool     `yaml:"default"`
}

// PropertySpec declares a package variable.
type PropertySpec struct {
	Name        string   `yaml:"name"`
	Package     string   `yaml:"package"`
	Type        string   `yaml:"type"`
	Annotations []string `yaml:"annotations"`
}

// LoadFile reads the manifest at path.
func LoadFile(path string) (*decl.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Load(bytes.NewReader(data), path)
}

// Load decodes a manifest. name is used in positions and errors.
func Load(r io.Reader, name string) (*decl.Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}

	b := &builder{file: name, index: decl.NewIndex(), lines: newLineIndex(&root)}
	if err := b.build(&m); err != nil {
		return nil, err
	}
	return b.index, nil
}

type builder struct {
	file  string
	index *decl.Index
	lines lineIndex
}

func (b *builder) build(m *Manifest) error {
	// Pass 1: declared types
	for i := range m.Classes {
		if err := b.class(&m.Classes[i], b.lines.at("classes", i)); err != nil {
			return err
		}
	}

	// Pass 2: free constructors and providers
	for i, f := range m.Functions {
		fn, err := b.function(f, "", b.lines.at("functions", i).node)
		if err != nil {
			return err
		}
		if err := b.attachFunction(fn); err != nil {
			return err
		}
	}
	for i, p := range m.Properties {
		prop, err := b.property(p, "", b.lines.at("properties", i).node)
		if err != nil {
			return err
		}
		target, err := b.index.ProvidesTarget(prop.Annotations, prop.Pkg, prop.Pos)
		if err != nil {
			return err
		}
		target.Properties = append(target.Properties, prop)
	}
	return nil
}

func (b *builder) class(s *ClassSpec, at located) error {
	if s.Name == "" || s.Package == "" {
		return b.errorf(at.node, "class needs a name and a package")
	}
	cls := b.index.Ensure(s.Package, s.Name)
	if cls.Pos.IsValid() {
		return b.errorf(at.node, "class %s.%s declared twice", s.Package, s.Name)
	}
	cls.PkgName = decl.PackageNameOf(s.Package)
	cls.Abstract = s.Abstract
	cls.Visibility = decl.VisibilityOf(s.Name)
	cls.Pos = b.pos(at.node)

	var err error
	if cls.Annotations, err = b.annotations(s.Annotations, at.node); err != nil {
		return err
	}
	for _, st := range s.Supertypes {
		t, err := b.parseType(st, at.node)
		if err != nil {
			return err
		}
		cls.Supertypes = append(cls.Supertypes, t)
	}
	if cls.Params, err = b.params(s.Params, at.child("params")); err != nil {
		return err
	}
	for i, ms := range s.Members {
		m, err := b.function(ms, s.Package, at.child("members").at(i))
		if err != nil {
			return err
		}
		cls.Members = append(cls.Members, m)
	}
	if s.Constructor != nil {
		if cls.Constructor, err = b.function(*s.Constructor, s.Package, at.child("constructor").node); err != nil {
			return err
		}
	}
	for i, ps := range s.Provides {
		f, err := b.function(ps, s.Package, at.child("provides").at(i))
		if err != nil {
			return err
		}
		cls.Provides = append(cls.Provides, f)
	}
	for i, ps := range s.Properties {
		p, err := b.property(ps, s.Package, at.child("properties").at(i))
		if err != nil {
			return err
		}
		cls.Properties = append(cls.Properties, p)
	}
	for _, mb := range s.Multibinds {
		t, err := b.parseType(mb, at.node)
		if err != nil {
			return err
		}
		cls.Multibinds = append(cls.Multibinds, t)
	}
	if s.Signature != "" {
		if cls.Signature, err = b.parseType(s.Signature, at.node); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) function(s FunctionSpec, pkg string, node *yaml.Node) (*decl.Function, error) {
	if s.Package != "" {
		pkg = s.Package
	}
	if s.Name == "" || pkg == "" {
		return nil, b.errorf(node, "function needs a name and a package")
	}
	f := &decl.Function{
		Name:         s.Name,
		Pkg:          pkg,
		PkgName:      decl.PackageNameOf(pkg),
		ReturnsError: s.Error,
		Visibility:   decl.VisibilityOf(s.Name),
		Pos:          b.pos(node),
	}
	var err error
	if f.Annotations, err = b.annotations(s.Annotations, node); err != nil {
		return nil, err
	}
	if f.Params, err = b.params(s.Params, located{node: node}.child("params")); err != nil {
		return nil, err
	}
	for _, r := range s.Results {
		t, err := b.parseType(r, node)
		if err != nil {
			return nil, err
		}
		f.Results = append(f.Results, t)
	}
	return f, nil
}

func (b *builder) params(specs []ParamSpec, at located) ([]decl.Param, error) {
	var params []decl.Param
	for i, s := range specs {
		node := at.at(i)
		t, err := b.parseType(s.Type, node)
		if err != nil {
			return nil, err
		}
		as, err := b.annotations(s.Annotations, node)
		if err != nil {
			return nil, err
		}
		params = append(params, decl.Param{Name: s.Name, Type: t, Annotations: as, HasDefault: s.Default, Pos: b.pos(node)})
	}
	return params, nil
}

func (b *builder) property(s PropertySpec, pkg string, node *yaml.Node) (*decl.Property, error) {
	if s.Package != "" {
		pkg = s.Package
	}
	if s.Name == "" || pkg == "" {
		return nil, b.errorf(node, "property needs a name and a package")
	}
	t, err := b.parseType(s.Type, node)
	if err != nil {
		return nil, err
	}
	as, err := b.annotations(s.Annotations, node)
	if err != nil {
		return nil, err
	}
	return &decl.Property{
		Name:        s.Name,
		Pkg:         pkg,
		PkgName:     decl.PackageNameOf(pkg),
		Type:        t,
		Annotations: as,
		Visibility:  decl.VisibilityOf(s.Name),
		Pos:         b.pos(node),
	}, nil
}

// attachFunction files a free function under the class it constructs or
// the component it provides for.
func (b *builder) attachFunction(f *decl.Function) error {
	switch {
	case f.Annotations.Has(decl.AnnotInject):
		return b.index.AttachConstructor(f)

	case f.Annotations.Has(decl.AnnotProvides):
		target, err := b.index.ProvidesTarget(f.Annotations, f.Pkg, f.Pos)
		if err != nil {
			return err
		}
		target.Provides = append(target.Provides, f)
		return nil
	}
	return fmt.Errorf("%s: function %s has neither an inject nor a provides annotation", f.Pos, f.Name)
}

func (b *builder) annotations(texts []string, node *yaml.Node) (decl.Annotations, error) {
	var as decl.Annotations
	for _, text := range texts {
		a, ok := decl.ParseDirective(text, "")
		if !ok {
			return nil, b.errorf(node, "empty annotation")
		}
		as = append(as, a)
	}
	return as, nil
}

func (b *builder) parseType(s string, node *yaml.Node) (*decl.Type, error) {
	t, err := decl.ParseType(s)
	if err != nil {
		return nil, b.errorf(node, "%v", err)
	}
	return t, nil
}

func (b *builder) pos(node *yaml.Node) decl.Position {
	p := decl.Position{File: b.file}
	if node != nil {
		p.Line, p.Column = node.Line, node.Column
	}
	return p
}

func (b *builder) errorf(node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s", b.pos(node), fmt.Sprintf(format, args...))
}
