package cleanup

import (
	"math"

	"wallgraph/internal/importer/geom"
	"wallgraph/internal/importer/models"
)

// ============================================================
// Collinear fusion
// ============================================================

type FuseOptions struct {
	// Tolerance is the endpoint distance under which two segments connect.
	Tolerance float64
	// AngleTolerance is the maximum axis deviation, in radians.
	AngleTolerance float64
	// JunctionTolerance is the radius in which other endpoints block a
	// joint. Set it to the topology snap tolerance so that nothing the
	// graph would see as a junction gets fused away. Values below
	// Tolerance are raised to Tolerance.
	JunctionTolerance float64
}

// joint links segment ends: link[2*i] is the neighbour across the start of
// segment i, link[2*i+1] across its end, or -1.
type joint []int

// Fuse merges runs of end-to-end collinear segments on the same layer into
// single segments. A joint is fusable only when exactly two endpoints lie
// within JunctionTolerance of it, counted over all layers, so junctions and
// contact splits survive. The fused segment
// keeps the ID and position of the run's first member in input order and
// follows that member's direction. It returns the segments and the number
// eliminated by fusion.
func Fuse(segments []models.Segment, opts FuseOptions) ([]models.Segment, int) {
	if len(segments) < 2 {
		return segments, 0
	}

	links := buildJoints(segments, opts)

	visited := make([]bool, len(segments))
	out := make([]models.Segment, 0, len(segments))
	merged := 0

	for i, s := range segments {
		if visited[i] {
			continue
		}
		if links[2*i] < 0 && links[2*i+1] < 0 {
			visited[i] = true
			out = append(out, s)
			continue
		}

		run, cyclic := collectRun(i, links)
		if cyclic {
			// A closed collinear loop has no free ends to span.
			for _, k := range run {
				visited[k.seg] = true
			}
			for _, k := range sortedCopy(run) {
				out = append(out, segments[k])
			}
			continue
		}

		for _, st := range run {
			visited[st.seg] = true
		}
		out = append(out, spanRun(segments, run, i))
		merged += len(run) - 1
	}
	return out, merged
}

func buildJoints(segments []models.Segment, opts FuseOptions) joint {
	endpoints := geom.Endpoints(segments)
	labels, _ := geom.Cluster(endpoints, math.Max(opts.Tolerance, opts.JunctionTolerance))

	members := make(map[int][]int)
	for idx, label := range labels {
		members[label] = append(members[label], idx)
	}

	links := make(joint, len(endpoints))
	for i := range links {
		links[i] = -1
	}

	for _, ends := range members {
		if len(ends) != 2 {
			continue
		}
		a, b := ends[0], ends[1]
		if endpoints[a].Distance(endpoints[b]) > opts.Tolerance {
			continue
		}
		sa, sb := segments[a/2], segments[b/2]
		if a/2 == b/2 || sa.Layer != sb.Layer || sa.Degenerate() || sb.Degenerate() {
			continue
		}
		// Outgoing directions must be opposite: a fold-back is not a run.
		da := geom.Outgoing(sa, a%2 == 0)
		db := geom.Outgoing(sb, b%2 == 0)
		if math.Pi-geom.DirectionDifference(da, db) > opts.AngleTolerance {
			continue
		}
		links[a] = b
		links[b] = a
	}
	return links
}

// step is one member of a run: the segment index and whether it is
// traversed against its own direction.
type step struct {
	seg      int
	reversed bool
}

// collectRun walks from segment i in both directions. The returned steps
// are ordered so that segment i keeps its own direction.
func collectRun(i int, links joint) ([]step, bool) {
	forward := walk(i, 2*i+1, links)
	for _, st := range forward {
		if st.seg == i {
			return forward, true
		}
	}
	backward := walk(i, 2*i, links)

	run := make([]step, 0, len(forward)+len(backward)+1)
	for k := len(backward) - 1; k >= 0; k-- {
		run = append(run, step{seg: backward[k].seg, reversed: !backward[k].reversed})
	}
	run = append(run, step{seg: i})
	run = append(run, forward...)
	return run, false
}

// walk follows links starting at endpoint `from` of segment i and returns
// the segments reached, each flagged reversed if entered through its end.
func walk(i, from int, links joint) []step {
	var out []step
	cur := from
	for {
		next := links[cur]
		if next < 0 {
			return out
		}
		seg := next / 2
		out = append(out, step{seg: seg, reversed: next%2 == 1})
		if seg == i {
			return out
		}
		// Leave the segment through its opposite endpoint.
		cur = next ^ 1
	}
}

func spanRun(segments []models.Segment, run []step, anchor int) models.Segment {
	first, last := run[0], run[len(run)-1]

	start := segments[first.seg].Start()
	if first.reversed {
		start = segments[first.seg].End()
	}
	end := segments[last.seg].End()
	if last.reversed {
		end = segments[last.seg].Start()
	}
	return segments[anchor].WithEndpoints(start, end)
}

func sortedCopy(run []step) []int {
	idx := make([]int, len(run))
	for k, st := range run {
		idx[k] = st.seg
	}
	for a := 1; a < len(idx); a++ {
		for b := a; b > 0 && idx[b] < idx[b-1]; b-- {
			idx[b], idx[b-1] = idx[b-1], idx[b]
		}
	}
	return idx
}
