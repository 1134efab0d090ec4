package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameAllocator(t *testing.T) {
	t.Parallel()

	a := NewNameAllocator()
	assert.Equal(t, "arg0", a.NewName(0))
	assert.Equal(t, "arg1", a.NewName(1))
	assert.Equal(t, "arg1_", a.NewName(1))
	assert.Equal(t, "arg1__", a.NewName(1))

	assert.Equal(t, "db", a.Unique("db"))
	assert.Equal(t, "db_", a.Unique("db"))

	a.Reset()
	assert.Equal(t, "arg1", a.NewName(1))
	assert.Equal(t, "db", a.Unique("db"))
}
