package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexAttachConstructor(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	newDB := &Function{Name: "NewDB", Pkg: "example.com/app", Results: []*Type{PointerTo(NamedType("example.com/app", "DB"))}}
	require.NoError(t, x.AttachConstructor(newDB))

	cls, ok := x.Class(NamedType("example.com/app", "DB"))
	require.True(t, ok)
	assert.Same(t, newDB, cls.Constructor)
	assert.Equal(t, "app", cls.PkgName)
	assert.Equal(t, Exported, cls.Visibility)

	again := &Function{Name: "OpenDB", Pkg: "example.com/app", Results: newDB.Results}
	err := x.AttachConstructor(again)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB already has constructor NewDB")

	tests := []struct {
		name string
		fn   *Function
		want string
	}{
		{name: "no result", fn: &Function{Name: "Nothing"}, want: "must return exactly one value"},
		{name: "basic result", fn: &Function{Name: "Port", Results: []*Type{BasicType("int")}}, want: "must return a named type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewIndex().AttachConstructor(tt.fn)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIndexProvidesTarget(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	local, err := x.ProvidesTarget(Annotations{{Name: AnnotProvides, Args: []string{"App"}}}, "example.com/app", Position{})
	require.NoError(t, err)
	assert.Equal(t, "example.com/app.App", local.QualifiedName())

	remote, err := x.ProvidesTarget(Annotations{{Name: AnnotProvides, Args: []string{"example.com/core.Root"}}}, "example.com/app", Position{})
	require.NoError(t, err)
	assert.Equal(t, "example.com/core.Root", remote.QualifiedName())
	assert.Equal(t, "core", remote.PkgName)

	again, err := x.ProvidesTarget(Annotations{{Name: AnnotProvides, Args: []string{"App"}}}, "example.com/app", Position{})
	require.NoError(t, err)
	assert.Same(t, local, again)
	assert.Len(t, x.Classes(), 2)
	assert.Empty(t, x.Components())

	_, err = x.ProvidesTarget(Annotations{{Name: AnnotProvides}}, "example.com/app", Position{})
	assert.ErrorContains(t, err, "provides needs a component name")
}

func TestVisibilityOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Exported, VisibilityOf("Server"))
	assert.Equal(t, Unexported, VisibilityOf("server"))
	assert.Equal(t, Unexported, VisibilityOf("_x"))
}
