package mapper

import (
	"math"

	"wallgraph/internal/common/config"
	"wallgraph/internal/importer/cleanup"
	"wallgraph/internal/importer/fingerprint"
	"wallgraph/internal/importer/graph"
)

// ============================================================
// Options
// ============================================================

type Options struct {
	Noise         cleanup.NoiseOptions
	Fuse          cleanup.FuseOptions
	Graph         graph.Options
	SplitContacts bool
	Fingerprint   fingerprint.Tolerance
}

func DefaultOptions() Options {
	return Options{
		Noise:         cleanup.NoiseOptions{MinLength: 50, DuplicateTolerance: 2},
		Fuse:          cleanup.FuseOptions{Tolerance: 5, AngleTolerance: 2 * math.Pi / 180},
		Graph:         graph.DefaultOptions,
		SplitContacts: true,
		Fingerprint:   fingerprint.DefaultTolerance,
	}
}

// OptionsFrom converts configured tolerances into converter options.
// Angles are configured in degrees.
func OptionsFrom(t config.Tolerances) Options {
	return Options{
		Noise: cleanup.NoiseOptions{
			MinLength:          t.MinSegmentMM,
			DuplicateTolerance: t.DuplicateTolMM,
		},
		Fuse: cleanup.FuseOptions{
			Tolerance:      t.FuseTolMM,
			AngleTolerance: t.FuseAngleDeg * math.Pi / 180,
		},
		Graph: graph.Options{
			SnapTolerance:      t.SnapTolMM,
			CollinearTolerance: t.CollinearDeg * math.Pi / 180,
		},
		SplitContacts: t.SplitContacts,
		Fingerprint: fingerprint.Tolerance{
			Position: t.FingerprintPosMM,
			Length:   t.FingerprintLenMM,
			Angle:    t.FingerprintAngle,
		},
	}
}

// fuse returns the fusion options with joints blocked by anything the
// topology builder would snap into a junction.
func (o Options) fuse() cleanup.FuseOptions {
	f := o.Fuse
	f.JunctionTolerance = math.Max(f.JunctionTolerance, o.Graph.SnapTolerance)
	return f
}
