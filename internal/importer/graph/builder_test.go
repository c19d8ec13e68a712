package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallgraph/internal/importer/models"
)

func seg(id string, x1, y1, x2, y2 float64) models.Segment {
	return models.NewSegment(id, "W", models.Point{X: x1, Y: y1}, models.Point{X: x2, Y: y2})
}

func nodeAt(t *testing.T, g *Graph, x, y float64) models.Node {
	t.Helper()
	for _, n := range g.Nodes {
		if (models.Point{X: x, Y: y}).Distance(n.Position()) <= DefaultOptions.SnapTolerance {
			return n
		}
	}
	t.Fatalf("no node near (%v, %v)", x, y)
	return models.Node{}
}

func TestClassifyJunctions(t *testing.T) {
	tests := []struct {
		name     string
		segments []models.Segment
		want     models.NodeType
	}{
		{
			name: "tee",
			segments: []models.Segment{
				seg("w", 0, 0, -3000, 0),
				seg("e", 3000, 0, 0, 0),
				seg("n", 0, 0, 0, 3000),
			},
			want: models.NodeTee,
		},
		{
			name: "cross",
			segments: []models.Segment{
				seg("e", 0, 0, 3000, 0),
				seg("n", 0, 0, 0, 3000),
				seg("w", 0, 0, -3000, 0),
				seg("s", 0, -3000, 0, 0),
			},
			want: models.NodeCross,
		},
		{
			name: "corner",
			segments: []models.Segment{
				seg("e", 0, 0, 3000, 0),
				seg("n", 0, 3000, 0, 0),
			},
			want: models.NodeCorner,
		},
		{
			name: "pass through",
			segments: []models.Segment{
				seg("a", -3000, 0, 0, 0),
				seg("b", 0, 0, 3000, 10),
			},
			want: models.NodePass,
		},
		{
			name: "snapped corner",
			segments: []models.Segment{
				seg("e", 0, 0, 3000, 0),
				seg("n", 4, -3, 0, 3000),
			},
			want: models.NodeCorner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build(tt.segments, DefaultOptions)
			assert.Equal(t, tt.want, nodeAt(t, g, 0, 0).Type)
		})
	}
}

func TestFreeEndIsEnd(t *testing.T) {
	g := Build([]models.Segment{seg("a", 0, 0, 3000, 0)}, DefaultOptions)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, models.JunctionCounts{End: 2}, g.JunctionCounts())
	require.Len(t, g.Chains, 1)
	assert.Equal(t, []string{"a"}, g.Chains[0].SegmentIDs)
}

func TestRectangle(t *testing.T) {
	g := Build([]models.Segment{
		seg("s", 0, 0, 6000, 0),
		seg("e", 6000, 0, 6000, 4000),
		seg("n", 6000, 4000, 0, 4000),
		seg("w", 0, 4000, 0, 0),
	}, DefaultOptions)

	assert.Len(t, g.Nodes, 4)
	assert.Equal(t, models.JunctionCounts{L: 4}, g.JunctionCounts())
	assert.Len(t, g.Chains, 4)
	assert.Equal(t, 1, g.Components())

	var total float64
	for _, c := range g.Chains {
		assert.Len(t, c.SegmentIDs, 1)
		total += c.LengthMM
	}
	assert.InDelta(t, 20000, total, 1e-9)
}

func TestChainWalksThroughPassNodes(t *testing.T) {
	g := Build([]models.Segment{
		seg("a", 0, 0, 1000, 0),
		seg("b", 1000, 0, 2500, 0),
		seg("c", 4000, 0, 2500, 0),
		seg("up", 4000, 0, 4000, 2000),
	}, DefaultOptions)

	counts := g.JunctionCounts()
	assert.Equal(t, 1, counts.L)
	assert.Equal(t, 2, counts.End)

	require.Len(t, g.Chains, 2)
	var long models.Chain
	for _, c := range g.Chains {
		if len(c.SegmentIDs) == 3 {
			long = c
		}
	}
	require.NotEmpty(t, long.ID)
	assert.InDelta(t, 4000, long.LengthMM, 1e-9)
	assert.Len(t, long.Vertices, 4)

	for _, id := range long.NodeIDs[1 : len(long.NodeIDs)-1] {
		n, ok := g.Node(id)
		require.True(t, ok)
		assert.Equal(t, models.NodePass, n.Type)
		assert.Len(t, n.SegmentIDs, 2)
	}
}

func TestClosedLoopWithoutJunctions(t *testing.T) {
	// Two nearly straight halves of a thin loop: every node is a fold, so
	// nothing is significant.
	g := Build([]models.Segment{
		seg("a", 0, 0, 3000, 0),
		seg("b", 3000, 0, 0, 1),
	}, DefaultOptions)

	require.Len(t, g.Chains, 1)
	assert.True(t, g.Chains[0].Closed)
	assert.Equal(t, []string{"a", "b"}, g.Chains[0].SegmentIDs)
	assert.Equal(t, models.JunctionCounts{}, g.JunctionCounts())
}

func TestEveryEndpointMapsToOneNode(t *testing.T) {
	segments := []models.Segment{
		seg("a", 0, 0, 3000, 0),
		seg("b", 3002, 1, 3000, 3000),
		seg("c", 10000, 0, 12000, 0),
	}
	g := Build(segments, DefaultOptions)

	require.Len(t, g.Edges, 3)
	seen := map[int]int{}
	for _, e := range g.Edges {
		seen[e.From]++
		seen[e.To]++
	}
	assert.Len(t, seen, len(g.Nodes))
	assert.Equal(t, 2, g.Components())

	corner := nodeAt(t, g, 3000, 0)
	assert.InDelta(t, 3001, corner.X, 1e-9)
	assert.InDelta(t, 0.5, corner.Y, 1e-9)
	assert.ElementsMatch(t, []string{"a", "b"}, corner.SegmentIDs)
}

func TestDegenerateSegmentsAreSkipped(t *testing.T) {
	g := Build([]models.Segment{
		seg("a", 0, 0, 3000, 0),
		seg("dot", 5, 5, 5, 5),
		seg("tiny", 3000, 0, 3004, 0),
	}, DefaultOptions)

	assert.Equal(t, 2, g.Skipped)
	assert.Len(t, g.Edges, 1)
	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, models.JunctionCounts{End: 2}, g.JunctionCounts())
}

func TestCollapsedSegmentLeavesNoNode(t *testing.T) {
	g := Build([]models.Segment{seg("tick", 0, 0, 8, 0)}, DefaultOptions)

	assert.Equal(t, 1, g.Skipped)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Chains)
	assert.Equal(t, models.JunctionCounts{}, g.JunctionCounts())
	assert.Zero(t, g.Components())
}

func TestNodeIDsAreDenseAfterCollapse(t *testing.T) {
	g := Build([]models.Segment{
		seg("tick", 5000, 5000, 5006, 5000),
		seg("a", 0, 0, 3000, 0),
		seg("b", 3000, 0, 3000, 3000),
	}, DefaultOptions)

	require.Len(t, g.Nodes, 3)
	for i, n := range g.Nodes {
		assert.Equal(t, i, n.ID)
		assert.NotEmpty(t, n.SegmentIDs)
	}
	assert.Equal(t, models.JunctionCounts{L: 1, End: 2}, g.JunctionCounts())
}

func TestEmptyInput(t *testing.T) {
	g := Build(nil, DefaultOptions)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Chains)
	assert.Zero(t, g.Components())
}
