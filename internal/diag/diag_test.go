package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/iVampireSP/injectgen/internal/decl"
)

func TestSinkCollects(t *testing.T) {
	t.Parallel()

	var s Sink
	require.NoError(t, s.Err())

	pos := decl.Position{File: "app.go", Line: 12}
	s.Report(MissingBinding, pos, "cannot find %s", "*app.DB")
	s.Add(nil)
	s.Add(Newf(FatalCycle, decl.Position{}, "cycle"))

	assert.Equal(t, 2, s.Len())
	err := s.Err()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, errors.Is(err, MissingBinding))
	assert.True(t, errors.Is(err, FatalCycle))
	assert.False(t, errors.Is(err, DuplicateMapKey))
}

func TestErrorFormat(t *testing.T) {
	t.Parallel()

	e := Newf(MissingBinding, decl.Position{File: "app.go", Line: 3, Column: 2}, "cannot find %s", "B")
	e.Trace = []string{"A", "B"}
	assert.Equal(t, "app.go:3:2: cannot find B\n  trace: A -> B", e.Error())

	bare := Newf(InvalidDeclaration, decl.Position{}, "bad")
	assert.Equal(t, "bad", bare.Error())
	assert.Equal(t, "invalid declaration", InvalidDeclaration.Error())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
