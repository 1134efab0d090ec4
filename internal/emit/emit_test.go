package emit

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/decl/manifest"
	"github.com/iVampireSP/injectgen/internal/diag"
	"github.com/iVampireSP/injectgen/internal/graph"
)

func plan(t *testing.T, doc, name string) *graph.Plan {
	t.Helper()
	idx, err := manifest.Load(strings.NewReader(doc), "test.yaml")
	require.NoError(t, err)
	cls, ok := idx.Class(decl.NamedType("example.com/app", name))
	require.True(t, ok, "class %s", name)
	opts := graph.DefaultOptions()
	comp, err := graph.BuildComponent(idx, cls, opts, &diag.Sink{})
	require.NoError(t, err)
	p, err := graph.NewResolver(idx, opts, nil).Resolve(comp)
	require.NoError(t, err)
	return p
}

func emit(t *testing.T, doc, name string, opts Options) string {
	t.Helper()
	f, err := New(opts, nil).Emit(plan(t, doc, name))
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), f.Name, f.Content, parser.AllErrors)
	require.NoError(t, err, "generated code:\n%s", f.Content)
	return string(f.Content)
}

const scopedApp = `
classes:
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component, scope app]
    params:
      - {name: dsn, type: string, annotations: [provides]}
    members:
      - {name: Server, results: ["*example.com/app.Server"]}
      - {name: Worker, results: ["*example.com/app.Worker"]}
  - {name: DB, package: example.com/app, annotations: [scope app]}
functions:
  - name: NewDB
    package: example.com/app
    params: [{name: dsn, type: string}]
    results: ["*example.com/app.DB"]
    error: true
    annotations: [inject]
  - name: NewServer
    package: example.com/app
    params:
      - {name: db, type: "*example.com/app.DB"}
      - {name: log, type: "*log/slog.Logger", default: true}
    results: ["*example.com/app.Server"]
    annotations: [inject]
  - {name: NewWorker, package: example.com/app, params: [{name: db, type: "*example.com/app.DB"}], results: ["*example.com/app.Worker"], annotations: [inject]}
`

func TestEmitScopedComponent(t *testing.T) {
	t.Parallel()

	f, err := New(Options{}, nil).Emit(plan(t, scopedApp, "App"))
	require.NoError(t, err)
	assert.Equal(t, "app_inject.go", f.Name)
	assert.Equal(t, "example.com/app", f.Pkg)

	src := string(f.Content)
	for _, want := range []string{
		"// Code generated by injectgen; DO NOT EDIT.",
		"package app",
		`"github.com/iVampireSP/injectgen/inject"`,
		`"log/slog"`,
		"_ App ",
		"_ inject.Component = (*InjectApp)(nil)",
		"scope inject.LazyMap",
		"func NewInjectApp(dsn string) *InjectApp {",
		`case "dsn":`,
		"func (c *InjectApp) Server() *Server {",
		`inject.Get(&c.scope, "*example.com/app.DB", func() *DB {`,
		"return inject.Must(NewDB(c.dsn))",
		"*new(*slog.Logger)",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "func NewApp(")
	assert.NotContains(t, src, `"example.com/app"`)
}

func TestEmitCompanionConstructor(t *testing.T) {
	t.Parallel()

	src := emit(t, scopedApp, "App", Options{Companion: true, Suffix: ".gen.go"})
	assert.Contains(t, src, "func NewApp(dsn string) App {")
	assert.Contains(t, src, "return NewInjectApp(dsn)")
}

func TestEmitParentComponent(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - name: Root
    package: example.com/app
    abstract: true
    annotations: [component, scope app]
    members:
      - {name: Config, results: ["*example.com/app.Config"]}
  - name: Request
    package: example.com/app
    abstract: true
    annotations: [component]
    params:
      - {name: root, type: "example.com/app.Root", annotations: [component]}
    members:
      - {name: Handler, results: ["*example.com/app.Handler"]}
  - {name: Config, package: example.com/app, annotations: [scope app]}
functions:
  - {name: NewConfig, package: example.com/app, results: ["*example.com/app.Config"], annotations: [inject]}
  - {name: NewHandler, package: example.com/app, params: [{name: cfg, type: "*example.com/app.Config"}], results: ["*example.com/app.Handler"], annotations: [inject]}
`
	src := emit(t, doc, "Request", Options{})
	assert.Contains(t, src, "func NewInjectRequest(root Root) *InjectRequest {")
	assert.Contains(t, src, `inject.Get(inject.ScopeOf(c.root), "*example.com/app.Config", func() *Config {`)
}

func TestEmitDelayedCycle(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - {name: App, package: example.com/app, abstract: true, annotations: [component],
     members: [{name: A, results: ["*example.com/app.A"]}]}
functions:
  - {name: NewA, package: example.com/app, params: [{name: b, type: "func() *example.com/app.B"}], results: ["*example.com/app.A"], annotations: [inject]}
  - {name: NewB, package: example.com/app, params: [{name: a, type: "*example.com/app.A"}], results: ["*example.com/app.B"], annotations: [inject]}
`
	src := emit(t, doc, "App", Options{})
	assert.Contains(t, src, "var aRef *A")
	assert.Contains(t, src, "aRef = NewA(func() *B {")
	assert.Contains(t, src, "return NewB(aRef)")
}

func TestEmitCycleThroughCache(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component, scope app]
    members:
      - {name: B, results: ["*example.com/app.B"]}
  - {name: B, package: example.com/app, annotations: [scope app]}
functions:
  - {name: NewA, package: example.com/app, params: [{name: b, type: "func() *example.com/app.B"}], results: ["*example.com/app.A"], annotations: [inject]}
  - {name: NewB, package: example.com/app, params: [{name: a, type: "*example.com/app.A"}], results: ["*example.com/app.B"], annotations: [inject]}
`
	src := emit(t, doc, "App", Options{})
	assert.Contains(t, src, `inject.Get(&c.scope, "*example.com/app.B", func() *B {`)
	assert.Contains(t, src, `return inject.Cached[*B](&c.scope, "*example.com/app.B")`)
}

func TestEmitMultibindingHelpers(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component]
    members:
      - {name: Plugins, results: ["[]example.com/app.Plugin"]}
      - {name: Routes, results: ["map[string]example.com/app.Handler"]}
functions:
  - {name: CorePlugin, package: example.com/app, results: ["example.com/app.Plugin"], annotations: [provides App, intoset]}
  - {name: ExtraPlugins, package: example.com/app, results: ["[]example.com/app.Plugin"], annotations: [provides App, intoset multiple]}
  - {name: HomeRoute, package: example.com/app, results: ["example.com/app.Handler"], annotations: [provides App, intomap key=home]}
  - {name: PluginRoute, package: example.com/app, results: [string, "example.com/app.Handler"], annotations: [provides App, intomap override]}
`
	src := emit(t, doc, "App", Options{})
	assert.Contains(t, src, "return c.pluginSet()")
	assert.Contains(t, src, "func (c *InjectApp) pluginSet() []Plugin {")
	assert.Contains(t, src, "inject.Elements[Plugin]([]Plugin{CorePlugin()}, ExtraPlugins())")
	assert.Contains(t, src, "return c.handlerMap()")
	assert.Contains(t, src, `inject.MapOf[string, Handler](inject.EntryOf[string, Handler]("home", HomeRoute()), inject.Overriding[string, Handler](inject.EntryOf[string, Handler](PluginRoute())))`)
}

func TestEmitAssistedFactory(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component]
    members:
      - {name: Greeters, results: ["example.com/app.GreeterFactory"]}
  - {name: GreeterFactory, package: example.com/app, annotations: [factory], signature: "func(string) *example.com/app.Greeter"}
functions:
  - name: NewGreeter
    package: example.com/app
    params:
      - {name: name, type: string, annotations: [assisted]}
      - {name: clock, type: "*example.com/app.Clock"}
    results: ["*example.com/app.Greeter"]
    annotations: [inject]
  - {name: NewClock, package: example.com/app, results: ["*example.com/app.Clock"], annotations: [inject]}
`
	src := emit(t, doc, "App", Options{})
	assert.Contains(t, src, "return c.greeterFactory()")
	assert.Contains(t, src, "func (c *InjectApp) greeterFactory() GreeterFactory {")
	assert.Contains(t, src, "return NewGreeter(arg0, NewClock())")
}

func TestSnake(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"App":         "app",
		"HTTPServer":  "http_server",
		"RequestComp": "request_comp",
		"V2Api":       "v2_api",
		"DB":          "db",
	}
	for in, want := range tests {
		assert.Equal(t, want, snake(in), in)
	}
}

func TestImportAlias(t *testing.T) {
	t.Parallel()

	imp := newImportSet("example.com/app")
	assert.Equal(t, "", imp.qualifier("example.com/app", "app"))
	assert.Equal(t, "log", imp.qualifier("log", "log"))
	assert.Equal(t, "charmbraceletlog", imp.qualifier("github.com/charmbracelet/log", "log"))
	assert.Equal(t, "log", imp.qualifier("log", "log"))

	got := imp.imports()
	require.Len(t, got, 2)
	assert.Equal(t, goImport{Name: "charmbraceletlog", Path: "github.com/charmbracelet/log"}, got[0])
	assert.Equal(t, goImport{Path: "log"}, got[1])
}
