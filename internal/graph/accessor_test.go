package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessorResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		current  Accessor
		subject  Accessor
		want     Accessor
		relative bool
	}{
		{name: "empty current", current: nil, subject: Accessor{"a", "b"}, want: Accessor{"a", "b"}},
		{name: "both empty", current: nil, subject: nil, want: nil},
		{name: "strict prefix", current: Accessor{"a"}, subject: Accessor{"a", "b", "c"}, want: Accessor{"b", "c"}, relative: true},
		{name: "longer prefix", current: Accessor{"a", "b"}, subject: Accessor{"a", "b", "c"}, want: Accessor{"c"}, relative: true},
		{name: "no common prefix", current: Accessor{"x"}, subject: Accessor{"a", "b"}, want: Accessor{"a", "b"}},
		{name: "partial prefix", current: Accessor{"a", "x"}, subject: Accessor{"a", "b"}, want: Accessor{"a", "b"}},
		{name: "equal", current: Accessor{"a", "b"}, subject: Accessor{"a", "b"}, want: Accessor{"a", "b"}},
		{name: "current longer", current: Accessor{"a", "b", "c"}, subject: Accessor{"a", "b"}, want: Accessor{"a", "b"}},
		{name: "empty subject", current: Accessor{"a"}, subject: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.current.Resolve(tt.subject)
			assert.Equal(t, len(tt.want), len(got))
			assert.True(t, tt.want.Equal(got), "got %v", got)
			assert.Equal(t, tt.relative, tt.current.RelativeTo(tt.subject))
		})
	}
}

func TestAccessorResolveDoesNotAlias(t *testing.T) {
	t.Parallel()

	subject := Accessor{"a", "b", "c"}
	got := Accessor{"a"}.Resolve(subject)
	got[0] = "z"
	assert.Equal(t, Accessor{"a", "b", "c"}, subject)
}

func TestAccessorBuilders(t *testing.T) {
	t.Parallel()

	base := Accessor{"parent"}
	plus := base.Plus("root")
	assert.Equal(t, Accessor{"parent", "root"}, plus)
	assert.Equal(t, Accessor{"parent"}, base)

	assert.Equal(t, Accessor{"parent", "root", "x"}, plus.Concat(Accessor{"x"}))
	assert.True(t, plus.HasPrefix(base))
	assert.False(t, base.HasPrefix(plus))
	assert.Equal(t, "parent.root", plus.String())
	assert.True(t, Accessor(nil).IsEmpty())
}
