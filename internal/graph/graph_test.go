package graph

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickGraph(nodes []string, adj map[int][]int) *Directed[string] {
	return ArenaBuilder[string]{}.BuildDirected(nodes, func(i int) []int { return adj[i] })
}

func TestBuildDirected_DropsOutOfRangeAndRepeats(t *testing.T) {
	g := quickGraph([]string{"a", "b", "c"}, map[int][]int{
		0: {1, 1, 2, 7, -1},
		2: {2},
	})
	require.Equal(t, 3, g.NodeCount())
	assert.Equal(t, []Edge{{0, 1}, {0, 2}, {2, 2}}, g.Edges())
	assert.Equal(t, []int{1, 2}, g.Successors(0))
}

func TestBuildDirected_NilEdgeSource(t *testing.T) {
	g := ArenaBuilder[int]{}.BuildDirected([]int{1, 2}, nil)
	assert.Equal(t, 2, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
}

func TestMap_PreservesTopology(t *testing.T) {
	g := quickGraph([]string{"a", "bb", "ccc"}, map[int][]int{0: {2}, 1: {0}})
	m, err := Map(g, func(i int, s string) (int, error) { return len(s) * 10, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30}, m.Nodes())
	assert.Equal(t, g.Edges(), m.Edges())
}

func TestMap_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	g := quickGraph([]string{"a", "b"}, nil)
	_, err := Map(g, func(i int, s string) (string, error) {
		if i == 1 {
			return "", boom
		}
		return s, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMarshalJSON_PetgraphLayout(t *testing.T) {
	g := quickGraph([]string{"a", "b"}, map[int][]int{0: {1}})
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":["a","b"],"node_holes":[],"edge_property":"directed","edges":[[0,1,null]]}`, string(data))

	und, err := json.Marshal(g.Undirected())
	require.NoError(t, err)
	assert.Contains(t, string(und), `"edge_property":"undirected"`)
}

func TestMarshalJSON_EmptyGraph(t *testing.T) {
	data, err := json.Marshal(ArenaBuilder[string]{}.BuildDirected(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, `{"nodes":[],"node_holes":[],"edge_property":"directed","edges":[]}`, string(data))
}

func TestUnmarshalJSON_RoundTrip(t *testing.T) {
	g := quickGraph([]string{"a", "b", "c"}, map[int][]int{2: {0}, 0: {1}})
	data, err := json.Marshal(g)
	require.NoError(t, err)

	var back Directed[string]
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, 3, back.NodeCount())
	require.Equal(t, 2, back.EdgeCount())
	assert.Equal(t, Edge{From: 2, To: 0}, back.Edges()[1])
}
