package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDOT(t *testing.T) {
	t.Parallel()

	plan, err := resolvePlan(t, scopedApp, "App")
	require.NoError(t, err)

	out, err := DOT(plan)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, `"member:Server"`)
	assert.Contains(t, out, `"member:Worker"`)
	assert.Contains(t, out, "*app.DB")

	// The shared DB cache node is one vertex with two incoming edges.
	assert.Equal(t, 1, strings.Count(out, `scoped\n*app.DB`))
}
