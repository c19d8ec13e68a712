package cleanup

import (
	"wallgraph/internal/importer/geom"
	"wallgraph/internal/importer/models"
)

// ============================================================
// Noise reduction
// ============================================================

type NoiseOptions struct {
	// MinLength drops shorter segments; they are drawing artifacts.
	MinLength float64
	// DuplicateTolerance is the endpoint distance under which two segments
	// are the same wall, in either direction.
	DuplicateTolerance float64
}

type NoiseReport struct {
	Short      int `json:"short"`
	Degenerate int `json:"degenerate"`
	Duplicates int `json:"duplicates"`
}

func (r NoiseReport) Removed() int {
	return r.Short + r.Degenerate + r.Duplicates
}

// ReduceNoise drops degenerate, too-short and duplicate segments. The first
// occurrence of a duplicate wins; survivors keep their relative order.
func ReduceNoise(segments []models.Segment, opts NoiseOptions) ([]models.Segment, NoiseReport) {
	var report NoiseReport

	tol := opts.DuplicateTolerance
	grid := geom.NewGrid(tol)
	kept := make([]models.Segment, 0, len(segments))

	for _, s := range segments {
		if s.Degenerate() {
			report.Degenerate++
			continue
		}
		if s.Length < opts.MinLength {
			report.Short++
			continue
		}

		mid := s.Midpoint()
		duplicate := false
		grid.Near(mid, func(id int) {
			if !duplicate && sameEndpoints(s, kept[id], tol) {
				duplicate = true
			}
		})
		if duplicate {
			report.Duplicates++
			continue
		}

		grid.Insert(len(kept), mid)
		kept = append(kept, s)
	}
	return kept, report
}

func sameEndpoints(a, b models.Segment, tol float64) bool {
	as, ae := a.Start(), a.End()
	bs, be := b.Start(), b.End()
	if as.Distance(bs) <= tol && ae.Distance(be) <= tol {
		return true
	}
	return as.Distance(be) <= tol && ae.Distance(bs) <= tol
}
