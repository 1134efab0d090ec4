package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/decl/manifest"
	"github.com/iVampireSP/injectgen/internal/diag"
)

const testPkg = "example.com/app"

func loadDecls(t *testing.T, doc string) *decl.Index {
	t.Helper()
	idx, err := manifest.Load(strings.NewReader(doc), "test.yaml")
	require.NoError(t, err)
	return idx
}

func buildComponent(t *testing.T, idx *decl.Index, name string, opts Options) *Component {
	t.Helper()
	cls, ok := idx.Class(decl.NamedType(testPkg, name))
	require.True(t, ok, "class %s", name)
	comp, err := BuildComponent(idx, cls, opts, &diag.Sink{})
	require.NoError(t, err)
	return comp
}

func resolvePlan(t *testing.T, doc, name string) (*Plan, error) {
	t.Helper()
	idx := loadDecls(t, doc)
	comp := buildComponent(t, idx, name, DefaultOptions())
	return NewResolver(idx, DefaultOptions(), nil).Resolve(comp)
}

func member(t *testing.T, plan *Plan, name string) *Node {
	t.Helper()
	for _, m := range plan.Members {
		if m.Requirement.Name == name {
			return m.Node
		}
	}
	require.Failf(t, "member not planned", "%s", name)
	return nil
}
