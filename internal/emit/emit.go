// Package emit renders resolved plans as Go source.
package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/graph"
)

// DefaultSuffix is appended to the snake-cased component name to form the
// generated file name.
const DefaultSuffix = "_inject.go"

// Options controls the generated code.
type Options struct {
	// Companion also emits New<Component>, returning the component
	// interface.
	Companion bool
	// Suffix of generated file names; DefaultSuffix when empty.
	Suffix string
}

// File is one generated source file.
type File struct {
	Name    string // base name
	Pkg     string // import path of the package the file belongs to
	Content []byte
}

// Emitter turns plans into files.
type Emitter struct {
	opts Options
	log  *zap.Logger
}

// New returns an emitter.
func New(opts Options, log *zap.Logger) *Emitter {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{opts: opts, log: log}
}

type fieldData struct {
	Name string
	Type string
}

type methodData struct {
	Name   string
	Params string
	Result string
	Body   string
}

type fileData struct {
	Package   string
	Imports   []goImport
	Runtime   string
	Struct    string
	Iface     string
	Name      string
	Companion bool
	Fields    []fieldData
	Members   []methodData
	Helpers   []methodData
}

var fileTemplate = template.Must(template.New("component").Parse(`// Code generated by injectgen; DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)

var (
	_ {{.Iface}} = (*{{.Struct}})(nil)
	_ {{.Runtime}}.Component = (*{{.Struct}})(nil)
)

// {{.Struct}} implements {{.Iface}}.
type {{.Struct}} struct {
	scope {{.Runtime}}.LazyMap
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}

// New{{.Struct}} returns a new {{.Name}} component.
func New{{.Struct}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Name}} {{$f.Type}}{{end}}) *{{.Struct}} {
	return &{{.Struct}}{
{{- range .Fields}}
		{{.Name}}: {{.Name}},
{{- end}}
	}
}
{{if .Companion}}
// New{{.Name}} returns a new {{.Name}} component.
func New{{.Name}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Name}} {{$f.Type}}{{end}}) {{.Iface}} {
	return New{{.Struct}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Name}}{{end}})
}
{{end}}
// InjectScope returns the cache of values scoped to this component.
func (c *{{.Struct}}) InjectScope() *{{.Runtime}}.LazyMap {
	return &c.scope
}

// InjectParam returns the constructor parameter called name.
func (c *{{.Struct}}) InjectParam(name string) any {
	switch name {
{{- range .Fields}}
	case "{{.Name}}":
		return c.{{.Name}}
{{- end}}
	}
	return nil
}
{{range .Members}}
func (c *{{$.Struct}}) {{.Name}}({{.Params}}) {{.Result}} {
	return {{.Body}}
}
{{end}}
{{- range .Helpers}}
func (c *{{$.Struct}}) {{.Name}}() {{.Result}} {
	return {{.Body}}
}
{{end}}`))

// Emit renders plan as a Go file in the component's package.
func (e *Emitter) Emit(plan *graph.Plan) (*File, error) {
	comp := plan.Component
	imp := newImportSet(comp.Class.Pkg)
	w := newWriter(imp)

	data := fileData{
		Package:   comp.Class.PkgName,
		Runtime:   imp.qualifier(runtimePkg, "inject"),
		Struct:    "Inject" + comp.Name,
		Iface:     w.typ(comp.Type()),
		Name:      comp.Name,
		Companion: e.opts.Companion,
	}
	for _, p := range comp.Params {
		data.Fields = append(data.Fields, fieldData{Name: p.Name, Type: w.typ(p.Type)})
	}
	for _, m := range plan.Members {
		req := m.Requirement
		data.Members = append(data.Members, methodData{
			Name:   req.Name,
			Params: w.signature(req.Args),
			Result: w.typ(req.Key.Type),
			Body:   w.node(rootSite(), m.Node),
		})
	}
	for _, n := range plan.Nested {
		data.Helpers = append(data.Helpers, methodData{
			Name:   n.Name,
			Result: w.typ(n.Node.Key.Type),
			Body:   w.node(rootSite().inHelper(n.Node), n.Node),
		})
	}
	if w.err != nil {
		return nil, fmt.Errorf("component %s: %w", comp.Name, w.err)
	}
	data.Imports = imp.imports()
	if data.Package == "" {
		data.Package = decl.PackageNameOf(comp.Class.Pkg)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("component %s: %w", comp.Name, err)
	}
	name := snake(comp.Name) + e.opts.Suffix
	src, err := imports.Process(name, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}

	e.log.Debug("component emitted",
		zap.String("component", comp.Name),
		zap.String("file", name),
		zap.Int("members", len(plan.Members)),
		zap.Int("helpers", len(plan.Nested)),
		zap.Int("imports", len(data.Imports)))
	return &File{Name: name, Pkg: comp.Class.Pkg, Content: src}, nil
}

// snake converts a Go identifier to snake case: "HTTPServer" becomes
// "http_server".
func snake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
