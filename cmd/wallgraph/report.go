package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Report formatting
// ============================================================

func formatParse(name string, res *models.ParseResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s  %d segments, %d layers\n", color.CyanString(name), len(res.Segments), len(res.Layers))

	layers := append([]string(nil), res.Layers...)
	sort.SliceStable(layers, func(i, j int) bool {
		return res.LayerCounts[layers[i]] > res.LayerCounts[layers[j]]
	})
	for _, l := range layers {
		fmt.Fprintf(&sb, "  %-24s %6d\n", l, res.LayerCounts[l])
	}

	unit := res.SuggestedUnit
	if res.HeaderUnit != "" {
		unit += " (header " + res.HeaderUnit + ")"
	}
	fmt.Fprintf(&sb, "  unit: %s, %s %.3f\n", color.YellowString(unit), res.UnitReason, res.UnitMetric)
	fmt.Fprintf(&sb, "  extent: %.1f x %.1f\n", res.BoundingBox.Width(), res.BoundingBox.Height())
	return sb.String()
}

func formatStats(name string, st models.Stats) string {
	var sb strings.Builder

	status := color.GreenString("✓")
	if st.FinalWalls == 0 {
		status = color.YellowString("∅")
	}
	fmt.Fprintf(&sb, "%s %s  %d walls, %.0f mm\n", status, name, st.FinalWalls, st.TotalLengthMM)
	fmt.Fprintf(&sb, "  segments: %d original, %d on layers, %d noise, %d split, %d merged\n",
		st.OriginalSegments, st.AfterLayerFilter, st.RemovedNoise, st.SplitSegments, st.MergedSegments)
	fmt.Fprintf(&sb, "  junctions: L=%d T=%d X=%d end=%d, %d component(s)\n",
		st.JunctionCounts.L, st.JunctionCounts.T, st.JunctionCounts.X, st.JunctionCounts.End, st.Components)
	if st.FlippedWalls > 0 {
		fmt.Fprintf(&sb, "  %s\n", color.MagentaString("%d wall(s) flipped by corrections", st.FlippedWalls))
	}
	return sb.String()
}

func formatFailure(name string, err error) string {
	return fmt.Sprintf("%s %s  %s\n", color.RedString("✗"), name, color.RedString(err.Error()))
}

func formatCorrections(list []models.WallSideCorrection) string {
	if len(list) == 0 {
		return "no corrections\n"
	}

	var sb strings.Builder
	for _, c := range list {
		fmt.Fprintf(&sb, "%s  %s mid=(%.0f, %.0f) len=%.0f angle=%.3f  %s\n",
			color.CyanString(c.ID), c.Action,
			c.Fingerprint.MidX, c.Fingerprint.MidY, c.Fingerprint.Length, c.Fingerprint.Angle,
			c.CreatedAt.Format("2006-01-02 15:04"))
		if c.Label != "" {
			fmt.Fprintf(&sb, "    %s\n", c.Label)
		}
	}
	return sb.String()
}
