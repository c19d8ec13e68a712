package units

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Units
// ============================================================

const (
	Millimeters = "mm"
	Centimeters = "cm"
	Meters      = "m"
	Inches      = "in"
)

// ExtentThreshold separates meter drawings from millimeter drawings: a
// building footprint spans tens of meters or tens of thousands of mm.
const ExtentThreshold = 50.0

// medianThreshold is the same cut applied to the median segment length when
// the bounding box is dominated by a stray far-away entity.
const medianThreshold = 10.0

type Suggestion struct {
	Unit   string  `json:"unit"`
	Metric float64 `json:"metric"`
	Reason string  `json:"reason"`
}

// Classify suggests whether the drawing is authored in millimeters or
// meters. The answer is advisory; callers confirm the unit explicitly.
func Classify(res *models.ParseResult) Suggestion {
	if res == nil {
		return Suggestion{Unit: Millimeters, Reason: "default"}
	}

	extent := math.Max(res.BoundingBox.Width(), res.BoundingBox.Height())

	switch res.HeaderUnit {
	case Millimeters, Meters:
		return Suggestion{Unit: res.HeaderUnit, Metric: extent, Reason: "header"}
	}

	if extent == 0 {
		return Suggestion{Unit: Millimeters, Metric: 0, Reason: "default"}
	}
	if extent < ExtentThreshold {
		return Suggestion{Unit: Meters, Metric: extent, Reason: "extent"}
	}

	// A huge extent with a sub-10 median segment usually means meters plus
	// one stray entity far from the origin.
	if median := MedianLength(res.Segments); median > 0 && median < medianThreshold {
		return Suggestion{Unit: Meters, Metric: median, Reason: "median"}
	}
	return Suggestion{Unit: Millimeters, Metric: extent, Reason: "extent"}
}

// Apply records the suggestion on the parse result.
func Apply(res *models.ParseResult) {
	if res == nil {
		return
	}
	s := Classify(res)
	res.SuggestedUnit = s.Unit
	res.UnitMetric = s.Metric
	res.UnitReason = s.Reason
}

// MedianLength returns the median non-degenerate segment length.
func MedianLength(segments []models.Segment) float64 {
	lengths := make([]float64, 0, len(segments))
	for _, s := range segments {
		if !s.Degenerate() {
			lengths = append(lengths, s.Length)
		}
	}
	if len(lengths) == 0 {
		return 0
	}
	sort.Float64s(lengths)
	return stat.Quantile(0.5, stat.Empirical, lengths, nil)
}

// ============================================================
// Scaling
// ============================================================

// Factor returns the multiplier that converts unit into millimeters.
func Factor(unit string) (float64, error) {
	switch unit {
	case Millimeters, "":
		return 1, nil
	case Centimeters:
		return 10, nil
	case Meters:
		return 1000, nil
	case Inches:
		return 25.4, nil
	}
	return 0, fmt.Errorf("unsupported unit %q", unit)
}

// Scale returns copies of segments expressed in millimeters.
func Scale(segments []models.Segment, unit string) ([]models.Segment, error) {
	f, err := Factor(unit)
	if err != nil {
		return nil, err
	}
	if f == 1 {
		return segments, nil
	}

	out := make([]models.Segment, len(segments))
	for i, s := range segments {
		out[i] = s.WithEndpoints(
			models.Point{X: s.StartX * f, Y: s.StartY * f},
			models.Point{X: s.EndX * f, Y: s.EndY * f},
		)
	}
	return out, nil
}
