package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/diag"
)

func chain(t *testing.T) (root, session, request *Component) {
	t.Helper()
	doc := `
classes:
  - {name: Root, package: example.com/app, abstract: true, annotations: [component, scope app]}
  - name: Session
    package: example.com/app
    abstract: true
    annotations: [component, scope session]
    params: [{name: root, type: example.com/app.Root, annotations: [component]}]
  - name: Request
    package: example.com/app
    abstract: true
    annotations: [component]
    params: [{name: session, type: example.com/app.Session, annotations: [component]}]
`
	idx := loadDecls(t, doc)
	request = buildComponent(t, idx, "Request", DefaultOptions())
	require.NotNil(t, request.Parent)
	require.NotNil(t, request.Parent.Parent)
	return request.Parent.Parent, request.Parent, request
}

func TestFindOwner(t *testing.T) {
	t.Parallel()

	root, session, request := chain(t)

	tests := []struct {
		label string
		start *Component
		base  Accessor
		owner *Component
		path  Accessor
		ok    bool
	}{
		{label: "app", start: request, owner: root, path: Accessor{"session", "root"}, ok: true},
		{label: "session", start: request, owner: session, path: Accessor{"session"}, ok: true},
		{label: "app", start: session, base: Accessor{"session"}, owner: root, path: Accessor{"session", "root"}, ok: true},
		{label: "app", start: root, owner: root, ok: true},
		{label: "request", start: request},
	}
	for _, tt := range tests {
		t.Run(tt.start.Name+"/"+tt.label, func(t *testing.T) {
			t.Parallel()
			own, ok := FindOwner(tt.start, tt.base, tt.label)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Same(t, tt.owner, own.Owner)
			assert.True(t, tt.path.Equal(own.Path), "got %v", own.Path)
		})
	}

	assert.True(t, request.Authorized("app"))
	assert.False(t, request.Declares("app"))
	assert.False(t, root.Authorized("session"))
}

func TestAnalyzeScope(t *testing.T) {
	t.Parallel()

	root, session, request := chain(t)
	db := decl.MustParseType("*example.com/app.DB")

	unscoped := Entry{Binding: &ConstructorBinding{bindingBase: bindingBase{key: NewKey(db, "")}}}
	_, scoped, derr := AnalyzeScope(unscoped, request, nil)
	require.Nil(t, derr)
	assert.False(t, scoped)

	ctor := Entry{Binding: &ConstructorBinding{bindingBase: bindingBase{key: NewKey(db, ""), scope: "app"}}}
	own, scoped, derr := AnalyzeScope(ctor, request, nil)
	require.Nil(t, derr)
	assert.True(t, scoped)
	assert.Same(t, root, own.Owner)

	provided := Entry{
		Binding:  &ProviderFunctionBinding{bindingBase: bindingBase{key: NewKey(db, ""), scope: "session", source: "ProvideDB"}, Declarer: session},
		Declarer: session,
		Path:     Accessor{"session"},
	}
	own, scoped, derr = AnalyzeScope(provided, request, nil)
	require.Nil(t, derr)
	assert.True(t, scoped)
	assert.Same(t, session, own.Owner)
	assert.Equal(t, Accessor{"session"}, own.Path)

	// A provider may only cache under a label its own component declares,
	// even when an ancestor declares it.
	inherited := Entry{
		Binding:  &ProviderFunctionBinding{bindingBase: bindingBase{key: NewKey(db, ""), scope: "app", source: "ProvideDB"}, Declarer: session},
		Declarer: session,
		Path:     Accessor{"session"},
	}
	_, _, derr = AnalyzeScope(inherited, request, nil)
	require.NotNil(t, derr)
	assert.Equal(t, diag.UnauthorizedScope, derr.Kind)
}
