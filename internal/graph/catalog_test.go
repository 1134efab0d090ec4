package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/diag"
)

const catalogApp = `
classes:
  - name: Root
    package: example.com/app
    abstract: true
    annotations: [component, scope app]
    members:
      - {name: Config, results: ["*example.com/app.Config"]}
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component]
    params:
      - {name: root, type: example.com/app.Root, annotations: [component]}
      - {name: name, type: string, annotations: [provides, qualifier appName]}
  - name: Cache
    package: example.com/app
    annotations: [scope app]
  - name: Hidden
    package: example.com/app/internal
functions:
  - {name: NewCache, package: example.com/app, results: ["*example.com/app.Cache"], annotations: [inject]}
  - {name: newHidden, package: example.com/app/internal, results: ["*example.com/app/internal.Hidden"], annotations: [inject]}
  - {name: NewPrimary, package: example.com/app, results: ["*example.com/app.Store"], annotations: [inject, qualifier primary]}
  - {name: ProvideConfig, package: example.com/app, results: ["*example.com/app.Config"], annotations: [provides App]}
`

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	idx := loadDecls(t, catalogApp)
	app := buildComponent(t, idx, "App", DefaultOptions())
	c := NewCatalog(app, idx, DefaultOptions())
	assert.Same(t, app, c.Component())

	typ := decl.MustParseType

	t.Run("declared binding beats ancestor requirement", func(t *testing.T) {
		e, derr := c.Lookup(NewKey(typ("*example.com/app.Config"), ""))
		require.Nil(t, derr)
		assert.Equal(t, "example.com/app.ProvideConfig", e.Binding.Source())
		assert.Same(t, app, e.Declarer)
	})

	t.Run("parent component parameter", func(t *testing.T) {
		e, derr := c.Lookup(NewKey(typ("example.com/app.Root"), ""))
		require.Nil(t, derr)
		_, ok := e.Binding.(*ComponentParameterBinding)
		assert.True(t, ok)
	})

	t.Run("qualified parameter", func(t *testing.T) {
		e, derr := c.Lookup(NewKey(typ("string"), "appName"))
		require.Nil(t, derr)
		_, ok := e.Binding.(*ProviderPropertyBinding)
		assert.True(t, ok)

		_, derr = c.Lookup(NewKey(typ("string"), ""))
		require.NotNil(t, derr)
		assert.Equal(t, diag.MissingBinding, derr.Kind)
	})

	t.Run("scoped constructor", func(t *testing.T) {
		e, derr := c.Lookup(NewKey(typ("*example.com/app.Cache"), ""))
		require.Nil(t, derr)
		assert.Equal(t, "app", e.Binding.Scope())
		assert.Nil(t, e.Declarer)

		again, _ := c.Lookup(NewKey(typ("*example.com/app.Cache"), ""))
		assert.Same(t, e.Binding, again.Binding)
	})

	t.Run("qualified constructor", func(t *testing.T) {
		_, derr := c.Lookup(NewKey(typ("*example.com/app.Store"), ""))
		require.NotNil(t, derr)
		assert.Equal(t, diag.MissingBinding, derr.Kind)

		e, derr := c.Lookup(NewKey(typ("*example.com/app.Store"), "primary"))
		require.Nil(t, derr)
		assert.Equal(t, "example.com/app.NewPrimary", e.Binding.Source())
	})

	t.Run("unexported constructor in another package", func(t *testing.T) {
		_, derr := c.Lookup(NewKey(typ("*example.com/app/internal.Hidden"), ""))
		require.NotNil(t, derr)
		assert.Equal(t, diag.InvalidDeclaration, derr.Kind)
	})

	t.Run("value type does not match pointer constructor", func(t *testing.T) {
		_, derr := c.Lookup(NewKey(typ("example.com/app.Cache"), ""))
		require.NotNil(t, derr)
		assert.Equal(t, diag.MissingBinding, derr.Kind)
	})

	t.Run("function type", func(t *testing.T) {
		e, derr := c.Lookup(NewKey(typ("func() *example.com/app.Cache"), ""))
		require.Nil(t, derr)
		fb, ok := e.Binding.(*FunctionTypeBinding)
		require.True(t, ok)
		assert.True(t, fb.Delayable())
		assert.Equal(t, "*app.Cache", fb.Result.String())
	})
}

func TestCatalogExposesAncestorRequirements(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - name: Root
    package: example.com/app
    abstract: true
    annotations: [component]
    members:
      - {name: Config, results: ["*example.com/app.Config"]}
      - {name: Greet, params: [{name: n, type: string}], results: ["*example.com/app.Greeter"]}
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component]
    params:
      - {name: root, type: example.com/app.Root, annotations: [component]}
`
	idx := loadDecls(t, doc)
	app := buildComponent(t, idx, "App", DefaultOptions())
	c := NewCatalog(app, idx, DefaultOptions())

	e, derr := c.Lookup(NewKey(decl.MustParseType("*example.com/app.Config"), ""))
	require.Nil(t, derr)
	assert.Equal(t, Accessor{"root"}, e.Path)
	assert.Equal(t, "Root", e.Declarer.Name)

	_, derr = c.Lookup(NewKey(decl.MustParseType("*example.com/app.Greeter"), ""))
	require.NotNil(t, derr, "requirements with parameters are not exposed")
}

func TestCatalogAmbiguousAcrossChain(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - {name: Root, package: example.com/app, abstract: true, annotations: [component]}
  - name: App
    package: example.com/app
    abstract: true
    annotations: [component]
    params:
      - {name: root, type: example.com/app.Root, annotations: [component]}
functions:
  - {name: RootDB, package: example.com/app, results: ["*example.com/app.DB"], annotations: [provides Root]}
  - {name: AppDB, package: example.com/app, results: ["*example.com/app.DB"], annotations: [provides App]}
`
	idx := loadDecls(t, doc)
	app := buildComponent(t, idx, "App", DefaultOptions())
	_, derr := NewCatalog(app, idx, DefaultOptions()).Lookup(NewKey(decl.MustParseType("*example.com/app.DB"), ""))
	require.NotNil(t, derr)
	assert.Equal(t, diag.AmbiguousBinding, derr.Kind)
	assert.Contains(t, derr.Message, "1. example.com/app.AppDB")
	assert.Contains(t, derr.Message, "2. example.com/app.RootDB")
}

func TestCatalogLegacyAnnotations(t *testing.T) {
	t.Parallel()

	doc := `
classes:
  - {name: App, package: example.com/app, abstract: true, annotations: [component, singleton]}
functions:
  - {name: NewDB, package: example.com/app, results: ["*example.com/app.DB"], annotations: [inject, named primary, singleton]}
`
	idx := loadDecls(t, doc)
	opts := DefaultOptions()
	opts.LegacyAnnotations = true
	app := buildComponent(t, idx, "App", opts)
	assert.Equal(t, []string{decl.AnnotSingleton}, app.Scopes)

	e, derr := NewCatalog(app, idx, opts).Lookup(NewKey(decl.MustParseType("*example.com/app.DB"), "primary"))
	require.Nil(t, derr)
	assert.Equal(t, decl.AnnotSingleton, e.Binding.Scope())

	plain := buildComponent(t, idx, "App", DefaultOptions())
	assert.Empty(t, plain.Scopes)
	_, derr = NewCatalog(plain, idx, DefaultOptions()).Lookup(NewKey(decl.MustParseType("*example.com/app.DB"), "primary"))
	require.NotNil(t, derr)
}
