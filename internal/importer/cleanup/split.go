package cleanup

import (
	"fmt"
	"math"
	"sort"

	"wallgraph/internal/importer/geom"
	"wallgraph/internal/importer/models"
)

// splitCell is the bucket size of the endpoint index used for contact lookup.
const splitCell = 1000.0

// SplitAtContacts cuts a segment wherever another segment's endpoint touches
// its interior within tol, so a wall abutting the middle of another becomes
// a proper T, and wherever two segments cross, so a "+" becomes an X.
// It returns the new segment list and how many segments were added.
func SplitAtContacts(segments []models.Segment, tol float64) ([]models.Segment, int) {
	if len(segments) < 2 {
		return segments, 0
	}

	cuts := make([][]float64, len(segments))
	contactCuts(segments, tol, cuts)
	crossingCuts(segments, tol, cuts)

	out := make([]models.Segment, 0, len(segments))
	added := 0
	for i, s := range segments {
		if len(cuts[i]) == 0 {
			out = append(out, s)
			continue
		}
		pieces := splitSegment(s, cuts[i], tol)
		added += len(pieces) - 1
		out = append(out, pieces...)
	}
	return out, added
}

// contactCuts records, per segment, the parameters where another segment's
// endpoint lies on its interior.
func contactCuts(segments []models.Segment, tol float64, cuts [][]float64) {
	endpoints := geom.Endpoints(segments)
	grid := geom.NewGrid(math.Max(splitCell, tol))
	for i, p := range endpoints {
		grid.Insert(i, p)
	}

	for i, s := range segments {
		if s.Degenerate() {
			continue
		}
		grid.Within(expand(models.BoundsOf([]models.Segment{s}), tol), func(id int) {
			if id/2 == i {
				return
			}
			p := endpoints[id]
			if p.Distance(s.Start()) <= tol || p.Distance(s.End()) <= tol {
				return
			}
			t, dist := geom.Project(s, p)
			if dist > tol || t <= 0 || t >= 1 {
				return
			}
			cuts[i] = append(cuts[i], t)
		})
	}
}

// crossingCuts records interior intersections of segment pairs. A side is
// cut only when the crossing is farther than tol from both of its ends;
// crossings near an end are endpoint contacts and are left to snapping.
func crossingCuts(segments []models.Segment, tol float64, cuts [][]float64) {
	boxes := make([]models.BoundingBox, len(segments))
	order := make([]int, 0, len(segments))
	for i, s := range segments {
		if s.Degenerate() {
			continue
		}
		boxes[i] = models.BoundsOf([]models.Segment{s})
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return boxes[order[a]].MinX < boxes[order[b]].MinX
	})

	// Sweep along X: only pairs whose boxes overlap can cross.
	for a, i := range order {
		for _, j := range order[a+1:] {
			if boxes[j].MinX > boxes[i].MaxX {
				break
			}
			if boxes[j].MinY > boxes[i].MaxY || boxes[j].MaxY < boxes[i].MinY {
				continue
			}
			ti, tj, ok := geom.Intersect(segments[i], segments[j])
			if !ok {
				continue
			}
			if interior(segments[i], ti, tol) {
				cuts[i] = append(cuts[i], ti)
			}
			if interior(segments[j], tj, tol) {
				cuts[j] = append(cuts[j], tj)
			}
		}
	}
}

func interior(s models.Segment, t, tol float64) bool {
	return t*s.Length > tol && (1-t)*s.Length > tol
}

func expand(box models.BoundingBox, by float64) models.BoundingBox {
	box.MinX -= by
	box.MinY -= by
	box.MaxX += by
	box.MaxY += by
	return box
}

func splitSegment(s models.Segment, cuts []float64, tol float64) []models.Segment {
	sort.Float64s(cuts)
	minStep := tol / s.Length

	points := []models.Point{s.Start()}
	last := 0.0
	for _, t := range cuts {
		if t-last <= minStep || 1-t <= minStep {
			continue
		}
		points = append(points, geom.Lerp(s, t))
		last = t
	}
	points = append(points, s.End())

	if len(points) == 2 {
		return []models.Segment{s}
	}

	pieces := make([]models.Segment, 0, len(points)-1)
	for k := 0; k+1 < len(points); k++ {
		id := fmt.Sprintf("%s.%d", s.ID, k+1)
		pieces = append(pieces, models.NewSegment(id, s.Layer, points[k], points[k+1]))
	}
	return pieces
}
