package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/injectgen/internal/decl"
)

func mustKey(s string) Key {
	return NewKey(decl.MustParseType(s), "")
}

func TestStackCheck(t *testing.T) {
	t.Parallel()

	a, b, c := mustKey("p.A"), mustKey("p.B"), mustKey("p.C")

	tests := []struct {
		name  string
		stack Stack
		enter Key
		want  Outcome
		path  []Key
	}{
		{name: "fresh", stack: Stack{}, enter: a, want: NoCycle},
		{name: "self", stack: Stack{}.Push(a), enter: a, want: Cycle, path: []Key{a, a}},
		{name: "self delayed", stack: Stack{}.Push(a).Delay(), enter: a, want: Resolvable},
		{name: "two nodes", stack: Stack{}.Push(a).Push(b), enter: a, want: Cycle, path: []Key{a, b, a}},
		{name: "two nodes delayed", stack: Stack{}.Push(a).Delay().Push(b), enter: a, want: Resolvable},
		{name: "delay outside loop", stack: Stack{}.Delay().Push(a).Push(b), enter: a, want: Cycle, path: []Key{a, b, a}},
		{name: "inner loop", stack: Stack{}.Push(a).Delay().Push(b).Push(c), enter: b, want: Cycle, path: []Key{b, c, b}},
		{name: "inside cached initializer", stack: Stack{}.Push(a).Delay().Push(b).Boundary(), enter: a, want: Resolvable},
		{name: "qualified differs", stack: Stack{}.Push(a), enter: NewKey(a.Type, "primary"), want: NoCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.stack.Check(tt.enter)
			assert.Equal(t, tt.want, got.Outcome)
			assert.Equal(t, tt.name == "inside cached initializer", got.Crosses)
			if tt.path != nil {
				require.Len(t, got.Path, len(tt.path))
				for i := range tt.path {
					assert.True(t, tt.path[i].Equal(got.Path[i]), "path[%d] = %s", i, got.Path[i])
				}
			}
		})
	}
}

func TestStackIsImmutable(t *testing.T) {
	t.Parallel()

	a, b := mustKey("p.A"), mustKey("p.B")
	base := Stack{}.Push(a)
	left := base.Push(b)
	right := base.Delay()

	assert.Len(t, base.Trace(), 1)
	assert.Len(t, left.Trace(), 2)
	assert.Len(t, right.Trace(), 1)
	assert.False(t, right.Contains(b))
}

func TestDetectorState(t *testing.T) {
	t.Parallel()

	a := mustKey("p.A")
	d := NewDetector()
	assert.Equal(t, NotVisited, d.State(Stack{}, a))

	s, res := d.Enter(Stack{}, a)
	assert.Equal(t, NoCycle, res.Outcome)
	assert.Equal(t, InProgress, d.State(s, a))

	_, res = d.Enter(s, a)
	assert.Equal(t, Cycle, res.Outcome)

	d.Finish(a)
	assert.Equal(t, Done, d.State(Stack{}, a))
}
