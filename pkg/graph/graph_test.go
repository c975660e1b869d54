package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortOrdersRolesBeforeFunctionsBeforeRoutes(t *testing.T) {
	g := New()
	role := Ref{Kind: "role", Name: "worker-role"}
	fn := Ref{Kind: "function", Name: "worker"}
	route := Ref{Kind: "route", Name: "get-worker"}

	g.AddEdge(fn, role)    // function depends on role
	g.AddEdge(route, fn)   // route depends on function

	waves, err := g.Sort()
	require.NoError(t, err)
	require.Len(t, waves, 3)
	assert.Equal(t, Ref{Kind: "role", Name: "worker-role"}, waves[0][0])
	assert.Equal(t, Ref{Kind: "function", Name: "worker"}, waves[1][0])
	assert.Equal(t, Ref{Kind: "route", Name: "get-worker"}, waves[2][0])
}

func TestSortDetectsCycles(t *testing.T) {
	g := New()
	a := Ref{Kind: "function", Name: "a"}
	b := Ref{Kind: "function", Name: "b"}
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	_, err := g.Sort()
	require.Error(t, err)
	var cycleErr *CyclicDependencyError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestSortIndependentVerticesShareAWave(t *testing.T) {
	g := New()
	g.AddVertex(Ref{Kind: "queue", Name: "a"})
	g.AddVertex(Ref{Kind: "queue", Name: "b"})

	waves, err := g.Sort()
	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Len(t, waves[0], 2)
}
