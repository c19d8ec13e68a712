package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"wallgraph/internal/importer/geom"
	"wallgraph/internal/importer/models"
)

// ============================================================
// Topology builder
// ============================================================

type Options struct {
	// SnapTolerance merges endpoints closer than this into one node.
	SnapTolerance float64
	// CollinearTolerance is how far from straight (radians) a degree-2 node
	// may bend and still count as a pass-through.
	CollinearTolerance float64
}

var DefaultOptions = Options{
	SnapTolerance:      10,
	CollinearTolerance: 2 * math.Pi / 180,
}

type Graph struct {
	Nodes  []models.Node
	Edges  []models.Edge
	Chains []models.Chain
	// Skipped counts segments dropped because they were degenerate or
	// collapsed into a single node after snapping.
	Skipped int

	segments map[string]models.Segment
	incident [][]int
}

// Build snaps segment endpoints into nodes, classifies every node and
// decomposes the graph into chains between significant nodes.
func Build(segments []models.Segment, opts Options) *Graph {
	g := &Graph{segments: make(map[string]models.Segment, len(segments))}

	usable := make([]models.Segment, 0, len(segments))
	for _, s := range segments {
		if s.Degenerate() {
			g.Skipped++
			continue
		}
		usable = append(usable, s)
	}

	labels, centroids := geom.Cluster(geom.Endpoints(usable), opts.SnapTolerance)

	// Nodes are created on first use, so a cluster whose only segments
	// collapsed into it never becomes a node.
	g.Nodes = make([]models.Node, 0, len(centroids))
	g.incident = make([][]int, 0, len(centroids))
	nodeOf := make([]int, len(centroids))
	for i := range nodeOf {
		nodeOf[i] = -1
	}
	node := func(label int) int {
		if nodeOf[label] < 0 {
			nodeOf[label] = len(g.Nodes)
			c := centroids[label]
			g.Nodes = append(g.Nodes, models.Node{ID: nodeOf[label], X: c.X, Y: c.Y})
			g.incident = append(g.incident, nil)
		}
		return nodeOf[label]
	}

	for i, s := range usable {
		if labels[2*i] == labels[2*i+1] {
			g.Skipped++
			continue
		}
		from, to := node(labels[2*i]), node(labels[2*i+1])

		edge := len(g.Edges)
		g.Edges = append(g.Edges, models.Edge{SegmentID: s.ID, From: from, To: to})
		g.segments[s.ID] = s

		g.attach(from, edge, geom.Outgoing(s, true))
		g.attach(to, edge, geom.Outgoing(s, false))
	}

	for id := range g.Nodes {
		g.Nodes[id].Type = classify(g.Nodes[id].Angles, opts.CollinearTolerance)
	}

	g.buildChains()
	return g
}

func (g *Graph) attach(node, edge int, angle float64) {
	n := &g.Nodes[node]
	n.SegmentIDs = append(n.SegmentIDs, g.Edges[edge].SegmentID)
	n.Angles = append(n.Angles, angle)
	g.incident[node] = append(g.incident[node], edge)
}

// classify derives the node type from its incident directions.
func classify(angles []float64, collinearTol float64) models.NodeType {
	switch len(angles) {
	case 0, 1:
		return models.NodeEnd
	case 2:
		d := geom.DirectionDifference(angles[0], angles[1])
		if math.Pi-d <= collinearTol || d <= collinearTol {
			return models.NodePass
		}
		return models.NodeCorner
	case 3:
		return models.NodeTee
	}
	return models.NodeCross
}

// ============================================================
// Chains
// ============================================================

func (g *Graph) buildChains() {
	visited := make([]bool, len(g.Edges))

	for id, n := range g.Nodes {
		if !n.Type.Significant() {
			continue
		}
		for _, e := range g.incident[id] {
			if !visited[e] {
				g.Chains = append(g.Chains, g.walk(id, e, visited))
			}
		}
	}

	// Whatever remains lies on loops made only of pass-through nodes.
	for e := range g.Edges {
		if !visited[e] {
			g.Chains = append(g.Chains, g.walk(g.Edges[e].From, e, visited))
		}
	}
}

func (g *Graph) walk(start, edge int, visited []bool) models.Chain {
	chain := models.Chain{
		ID:       fmt.Sprintf("c%d", len(g.Chains)+1),
		Vertices: []models.Point{g.Nodes[start].Position()},
		NodeIDs:  []int{start},
	}

	cur := start
	for {
		visited[edge] = true
		e := g.Edges[edge]
		next := e.To
		if next == cur {
			next = e.From
		}

		chain.Vertices = append(chain.Vertices, g.Nodes[next].Position())
		chain.NodeIDs = append(chain.NodeIDs, next)
		chain.SegmentIDs = append(chain.SegmentIDs, e.SegmentID)
		chain.LengthMM += g.segments[e.SegmentID].Length

		if next == start {
			chain.Closed = true
			return chain
		}
		if g.Nodes[next].Type.Significant() {
			return chain
		}

		edge = -1
		for _, cand := range g.incident[next] {
			if !visited[cand] {
				edge = cand
				break
			}
		}
		if edge < 0 {
			return chain
		}
		cur = next
	}
}

// ============================================================
// Reports
// ============================================================

func (g *Graph) JunctionCounts() models.JunctionCounts {
	var c models.JunctionCounts
	for _, n := range g.Nodes {
		switch n.Type {
		case models.NodeCorner:
			c.L++
		case models.NodeTee:
			c.T++
		case models.NodeCross:
			c.X++
		case models.NodeEnd:
			c.End++
		}
	}
	return c
}

// Components returns the number of connected wall groups.
func (g *Graph) Components() int {
	if len(g.Nodes) == 0 {
		return 0
	}

	ug := simple.NewUndirectedGraph()
	for _, n := range g.Nodes {
		ug.AddNode(simple.Node(int64(n.ID)))
	}
	for _, e := range g.Edges {
		from, to := int64(e.From), int64(e.To)
		if ug.HasEdgeBetween(from, to) {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(from), simple.Node(to)))
	}
	return len(topo.ConnectedComponents(ug))
}

// Segment returns the snapped-graph segment by ID.
func (g *Graph) Segment(id string) (models.Segment, bool) {
	s, ok := g.segments[id]
	return s, ok
}

func (g *Graph) Node(id int) (models.Node, bool) {
	if id < 0 || id >= len(g.Nodes) {
		return models.Node{}, false
	}
	return g.Nodes[id], true
}
