package geom

import (
	"math"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Disjoint set
// ============================================================

// DisjointSet is a union-find over dense integer IDs. The smaller index
// always becomes the root so results do not depend on union order.
type DisjointSet struct {
	parent []int
}

func NewDisjointSet(n int) *DisjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &DisjointSet{parent: parent}
}

func (d *DisjointSet) Find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *DisjointSet) Union(a, b int) {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
}

// ============================================================
// Grid index
// ============================================================

type cellKey struct{ x, y int64 }

// Grid buckets points into square cells for near-neighbour queries.
type Grid struct {
	cell    float64
	buckets map[cellKey][]int
}

func NewGrid(cell float64) *Grid {
	if !(cell > 0) {
		cell = 1
	}
	return &Grid{cell: cell, buckets: make(map[cellKey][]int)}
}

func (g *Grid) key(p models.Point) cellKey {
	return cellKey{x: int64(math.Floor(p.X / g.cell)), y: int64(math.Floor(p.Y / g.cell))}
}

func (g *Grid) Insert(id int, p models.Point) {
	k := g.key(p)
	g.buckets[k] = append(g.buckets[k], id)
}

// Near calls fn for every id stored in the 3x3 block of cells around p.
// Candidates are not distance-filtered.
func (g *Grid) Near(p models.Point, fn func(id int)) {
	k := g.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range g.buckets[cellKey{x: k.x + dx, y: k.y + dy}] {
				fn(id)
			}
		}
	}
}

// Within calls fn for every id stored in cells overlapping box.
func (g *Grid) Within(box models.BoundingBox, fn func(id int)) {
	if box.Empty {
		return
	}
	lo := g.key(models.Point{X: box.MinX, Y: box.MinY})
	hi := g.key(models.Point{X: box.MaxX, Y: box.MaxY})
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for _, id := range g.buckets[cellKey{x: x, y: y}] {
				fn(id)
			}
		}
	}
}

// ============================================================
// Clustering
// ============================================================

// Cluster merges points whose Euclidean distance is within tol, transitively.
// Labels are dense and assigned in order of first appearance; each centroid
// is the mean of its members.
func Cluster(points []models.Point, tol float64) (labels []int, centroids []models.Point) {
	ds := NewDisjointSet(len(points))
	grid := NewGrid(tol)

	for i, p := range points {
		grid.Near(p, func(j int) {
			if p.Distance(points[j]) <= tol {
				ds.Union(i, j)
			}
		})
		grid.Insert(i, p)
	}

	labels = make([]int, len(points))
	byRoot := make(map[int]int)
	var sums []models.Point
	var counts []int

	for i, p := range points {
		root := ds.Find(i)
		label, ok := byRoot[root]
		if !ok {
			label = len(sums)
			byRoot[root] = label
			sums = append(sums, models.Point{})
			counts = append(counts, 0)
		}
		labels[i] = label
		sums[label].X += p.X
		sums[label].Y += p.Y
		counts[label]++
	}

	centroids = make([]models.Point, len(sums))
	for i, s := range sums {
		n := float64(counts[i])
		centroids[i] = models.Point{X: s.X / n, Y: s.Y / n}
	}
	return labels, centroids
}

// Endpoints flattens segments into [start0, end0, start1, end1, ...].
func Endpoints(segments []models.Segment) []models.Point {
	points := make([]models.Point, 0, 2*len(segments))
	for _, s := range segments {
		points = append(points, s.Start(), s.End())
	}
	return points
}
