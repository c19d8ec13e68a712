package geom

import (
	"math"

	"wallgraph/internal/importer/models"
)

// DirectionDifference is the unsigned difference of two directions in [0, π].
func DirectionDifference(a, b float64) float64 {
	d := math.Abs(models.NormalizeAngle(a) - models.NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// AxisDifference ignores orientation: it compares the undirected lines
// through a and b, returning a value in [0, π/2].
func AxisDifference(a, b float64) float64 {
	d := math.Mod(DirectionDifference(a, b), math.Pi)
	return math.Min(d, math.Pi-d)
}

// Outgoing returns the direction of s pointing away from its start when
// atStart is true, or away from its end otherwise.
func Outgoing(s models.Segment, atStart bool) float64 {
	if atStart {
		return s.Angle
	}
	return models.NormalizeAngle(s.Angle + math.Pi)
}

// Project returns the parameter t of p projected on s and the distance
// from p to the projected point on the infinite line.
func Project(s models.Segment, p models.Point) (t, dist float64) {
	dx := s.EndX - s.StartX
	dy := s.EndY - s.StartY
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0, p.Distance(s.Start())
	}
	t = ((p.X-s.StartX)*dx + (p.Y-s.StartY)*dy) / l2
	proj := models.Point{X: s.StartX + t*dx, Y: s.StartY + t*dy}
	return t, p.Distance(proj)
}

// Lerp returns the point at parameter t along s.
func Lerp(s models.Segment, t float64) models.Point {
	return models.Point{X: s.StartX + t*(s.EndX-s.StartX), Y: s.StartY + t*(s.EndY-s.StartY)}
}

// parallelSin is the sine of the smallest angle treated as a real crossing.
const parallelSin = 1e-9

// Intersect returns the parameters on a and b of their crossing point.
// Parallel and collinear pairs, and pairs whose lines cross outside either
// segment, report false.
func Intersect(a, b models.Segment) (ta, tb float64, ok bool) {
	rx, ry := a.EndX-a.StartX, a.EndY-a.StartY
	sx, sy := b.EndX-b.StartX, b.EndY-b.StartY

	denom := rx*sy - ry*sx
	if math.Abs(denom) <= parallelSin*math.Hypot(rx, ry)*math.Hypot(sx, sy) {
		return 0, 0, false
	}

	qx, qy := b.StartX-a.StartX, b.StartY-a.StartY
	ta = (qx*sy - qy*sx) / denom
	tb = (qx*ry - qy*rx) / denom
	if ta < 0 || ta > 1 || tb < 0 || tb > 1 {
		return 0, 0, false
	}
	return ta, tb, true
}
