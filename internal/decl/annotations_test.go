package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		prefix string
		want   Annotation
		ok     bool
	}{
		{
			name:   "bare",
			text:   "//inject:component",
			prefix: "inject:",
			want:   Annotation{Name: "component"},
			ok:     true,
		},
		{
			name:   "args and params",
			text:   "//inject:intomap override key=admin",
			prefix: "inject:",
			want:   Annotation{Name: "intomap", Args: []string{"override"}, Params: map[string]string{"key": "admin"}},
			ok:     true,
		},
		{
			name:   "foreign prefix",
			text:   "//go:generate injectgen",
			prefix: "inject:",
			ok:     false,
		},
		{
			name:   "manifest form",
			text:   "scope app",
			prefix: "",
			want:   Annotation{Name: "scope", Args: []string{"app"}},
			ok:     true,
		},
		{
			name:   "empty",
			text:   "//inject:",
			prefix: "inject:",
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseDirective(tt.text, tt.prefix)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAnnotationsLookup(t *testing.T) {
	t.Parallel()

	as := Annotations{
		{Name: AnnotScope, Args: []string{"app"}},
		{Name: AnnotIntoSet, Args: []string{FlagMultiple}},
		{Name: AnnotScope, Args: []string{"request"}},
	}
	assert.True(t, as.Has(AnnotIntoSet))
	assert.False(t, as.Has(AnnotIntoMap))

	scope, ok := as.Get(AnnotScope)
	require.True(t, ok)
	assert.Equal(t, "app", scope.Arg(0))
	assert.Equal(t, "", scope.Arg(3))
	assert.Len(t, as.All(AnnotScope), 2)

	set, _ := as.Get(AnnotIntoSet)
	assert.True(t, set.Flag(FlagMultiple))
	assert.False(t, set.Flag(FlagOverride))
}

func TestIndex(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	repo := x.Ensure("example.com/app", "Repo")
	assert.Same(t, repo, x.Ensure("example.com/app", "Repo"))

	comp := &Class{Name: "App", Pkg: "example.com/app", Abstract: true,
		Annotations: Annotations{{Name: AnnotComponent}}}
	x.Add(comp)

	assert.Equal(t, []*Class{comp}, x.Components())
	got, ok := x.Class(MustParseType("example.com/app.Repo"))
	require.True(t, ok)
	assert.Same(t, repo, got)

	_, ok = x.Class(MustParseType("*example.com/app.Repo"))
	assert.False(t, ok)
}
