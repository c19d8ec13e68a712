package fingerprint

import (
	"math"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Fingerprints
// ============================================================

// Tolerance bounds each fingerprint field independently. All distances are
// millimeters, the unit of every normalized coordinate.
type Tolerance struct {
	Position float64 `json:"position"`
	Length   float64 `json:"length"`
	Angle    float64 `json:"angle"`
}

var DefaultTolerance = Tolerance{
	Position: 250,
	Length:   300,
	Angle:    0.15,
}

// Compute builds a fingerprint. The angle is folded into [0, π): which
// endpoint is the start does not change which side of a wall is which.
func Compute(mid models.Point, length, direction float64) models.WallFingerprint {
	return models.WallFingerprint{
		MidX:   mid.X,
		MidY:   mid.Y,
		Length: length,
		Angle:  foldHalfTurn(direction),
	}
}

func foldHalfTurn(a float64) float64 {
	a = math.Mod(a, math.Pi)
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a = 0
	}
	return a
}

// AngleDelta is the distance between two folded angles, taking the
// wraparound at π into account.
func AngleDelta(a, b float64) float64 {
	d := math.Abs(foldHalfTurn(a) - foldHalfTurn(b))
	return math.Min(d, math.Pi-d)
}

// Match reports whether two fingerprints describe the same physical wall.
func Match(a, b models.WallFingerprint, tol Tolerance) bool {
	if math.Hypot(a.MidX-b.MidX, a.MidY-b.MidY) > tol.Position {
		return false
	}
	if math.Abs(a.Length-b.Length) > tol.Length {
		return false
	}
	return AngleDelta(a.Angle, b.Angle) <= tol.Angle
}

// OfChain fingerprints a chain relative to origin. The midpoint is the
// length-weighted center of the chain's segments; the direction runs from
// the first to the last vertex, or along the first segment for a loop.
func OfChain(chain models.Chain, segments func(id string) (models.Segment, bool), origin models.Point) models.WallFingerprint {
	var sumX, sumY, total float64
	var first models.Segment
	haveFirst := false

	for _, id := range chain.SegmentIDs {
		s, ok := segments(id)
		if !ok {
			continue
		}
		if !haveFirst {
			first, haveFirst = s, true
		}
		m := s.Midpoint()
		sumX += m.X * s.Length
		sumY += m.Y * s.Length
		total += s.Length
	}

	var mid models.Point
	switch {
	case total > 0:
		mid = models.Point{X: sumX / total, Y: sumY / total}
	case len(chain.Vertices) > 0:
		mid = chain.Vertices[0]
	}
	mid = models.Point{X: mid.X - origin.X, Y: mid.Y - origin.Y}

	var direction float64
	if n := len(chain.Vertices); n >= 2 && !chain.Closed {
		a, b := chain.Vertices[0], chain.Vertices[n-1]
		direction = math.Atan2(b.Y-a.Y, b.X-a.X)
	} else if haveFirst {
		direction = first.Angle
	}

	return Compute(mid, chain.LengthMM, direction)
}
