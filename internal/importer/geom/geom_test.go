package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"wallgraph/internal/importer/models"
)

func TestClusterMergesWithinTolerance(t *testing.T) {
	points := []models.Point{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 3, Y: 4}, // exactly 5 away from the first point
		{X: 100, Y: 6},
		{X: -4, Y: 0},
	}
	labels, centroids := Cluster(points, 5)

	assert.Equal(t, []int{0, 1, 0, 2, 0}, labels)
	assert.Len(t, centroids, 3)
	assert.InDelta(t, -1.0/3, centroids[0].X, 1e-9)
	assert.InDelta(t, 4.0/3, centroids[0].Y, 1e-9)
}

func TestClusterIsTransitive(t *testing.T) {
	points := []models.Point{{X: 0}, {X: 4}, {X: 8}, {X: 12}}
	labels, centroids := Cluster(points, 4)
	assert.Equal(t, []int{0, 0, 0, 0}, labels)
	assert.InDelta(t, 6, centroids[0].X, 1e-9)
}

func TestDisjointSetRootIsSmallest(t *testing.T) {
	ds := NewDisjointSet(4)
	ds.Union(3, 2)
	ds.Union(2, 1)
	assert.Equal(t, 1, ds.Find(3))
	assert.Equal(t, 0, ds.Find(0))
}

func TestAngleDifferences(t *testing.T) {
	assert.InDelta(t, math.Pi, DirectionDifference(0, math.Pi), 1e-12)
	assert.InDelta(t, 0.2, DirectionDifference(0.1, 2*math.Pi-0.1), 1e-12)
	assert.InDelta(t, 0, AxisDifference(0, math.Pi), 1e-12)
	assert.InDelta(t, math.Pi/2, AxisDifference(0, math.Pi/2), 1e-12)
	assert.InDelta(t, 0.1, AxisDifference(0.05, math.Pi-0.05), 1e-12)
}

func TestProject(t *testing.T) {
	s := models.NewSegment("a", "W", models.Point{}, models.Point{X: 10})
	tt, d := Project(s, models.Point{X: 4, Y: 3})
	assert.InDelta(t, 0.4, tt, 1e-12)
	assert.InDelta(t, 3, d, 1e-12)
	assert.Equal(t, models.Point{X: 4}, Lerp(s, 0.4))
}
