package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Affine transform
// ============================================================

// Apply rotates and mirrors segments around the bounding-box center of the
// given set. Callers must always pass the original, untransformed segments:
// the pivot is taken from the input, so repeated calls with the same input
// and settings produce identical output.
//
// Order: translate to pivot, rotate clockwise, mirror X, mirror Y, translate back.
func Apply(segments []models.Segment, settings models.TransformSettings) ([]models.Segment, error) {
	linear, err := Matrix(settings)
	if err != nil {
		return nil, err
	}
	if settings.Identity() || len(segments) == 0 {
		return segments, nil
	}

	pivot := models.BoundsOf(segments).Center()
	apply := func(p models.Point) models.Point {
		dx, dy := p.X-pivot.X, p.Y-pivot.Y
		return models.Point{
			X: linear.At(0, 0)*dx + linear.At(0, 1)*dy + pivot.X,
			Y: linear.At(1, 0)*dx + linear.At(1, 1)*dy + pivot.Y,
		}
	}

	out := make([]models.Segment, len(segments))
	for i, s := range segments {
		out[i] = s.WithEndpoints(apply(s.Start()), apply(s.End()))
	}
	return out, nil
}

// Matrix returns the 2x2 linear part for settings. Entries are 0 or ±1 so
// the transform introduces no interpolation error.
func Matrix(settings models.TransformSettings) (*mat.Dense, error) {
	rot, err := rotation(settings.Rotation)
	if err != nil {
		return nil, err
	}

	m := mat.NewDense(2, 2, nil)
	m.Copy(rot)

	if settings.MirrorX {
		m.Mul(mat.NewDense(2, 2, []float64{-1, 0, 0, 1}), mat.DenseCopyOf(m))
	}
	if settings.FlipY {
		m.Mul(mat.NewDense(2, 2, []float64{1, 0, 0, -1}), mat.DenseCopyOf(m))
	}
	return m, nil
}

// rotation returns the clockwise rotation matrix for a multiple of 90°.
func rotation(deg int) (*mat.Dense, error) {
	switch ((deg % 360) + 360) % 360 {
	case 0:
		return mat.NewDense(2, 2, []float64{1, 0, 0, 1}), nil
	case 90:
		return mat.NewDense(2, 2, []float64{0, 1, -1, 0}), nil
	case 180:
		return mat.NewDense(2, 2, []float64{-1, 0, 0, -1}), nil
	case 270:
		return mat.NewDense(2, 2, []float64{0, -1, 1, 0}), nil
	}
	return nil, fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", deg)
}
