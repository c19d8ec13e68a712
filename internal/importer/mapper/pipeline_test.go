package mapper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallgraph/internal/importer/models"
	"wallgraph/internal/importer/parser"
)

func drawing(header string, lines ...string) []byte {
	var sb strings.Builder
	if header != "" {
		sb.WriteString("0\nSECTION\n2\nHEADER\n9\n$INSUNITS\n70\n" + header + "\n0\nENDSEC\n")
	}
	sb.WriteString("0\nSECTION\n2\nENTITIES\n")
	for _, l := range lines {
		sb.WriteString(l)
	}
	sb.WriteString("0\nENDSEC\n0\nEOF\n")
	return []byte(sb.String())
}

func line(layer, x1, y1, x2, y2 string) string {
	return "0\nLINE\n8\n" + layer + "\n10\n" + x1 + "\n20\n" + y1 + "\n11\n" + x2 + "\n21\n" + y2 + "\n"
}

// rectangle is a closed 6000x4000 loop on WALLS plus a stray 10mm dimension tick.
func rectangle() []byte {
	return drawing("4",
		line("WALLS", "0", "0", "6000", "0"),
		line("WALLS", "6000", "0", "6000", "4000"),
		line("WALLS", "6000", "4000", "0", "4000"),
		line("WALLS", "0", "4000", "0", "0"),
		line("DIMS", "100", "100", "110", "100"),
	)
}

func TestConvertRectangle(t *testing.T) {
	c := New(DefaultOptions(), nil)

	res, err := c.Convert(rectangle(), Request{Unit: "mm", Layers: []string{"WALLS"}})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Stats.OriginalSegments)
	assert.Equal(t, 4, res.Stats.AfterLayerFilter)
	assert.Zero(t, res.Stats.RemovedNoise)
	assert.Len(t, res.FinalSegments, 4)
	assert.Equal(t, models.JunctionCounts{L: 4}, res.Stats.JunctionCounts)
	assert.Equal(t, 4, res.Stats.FinalWalls)
	assert.Len(t, res.Walls, 4)
	assert.Equal(t, 1, res.Stats.Components)
	assert.InDelta(t, 20000, res.Stats.TotalLengthMM, 1e-9)
	assert.Equal(t, models.Point{X: 3000, Y: 2000}, res.Origin)
}

func TestNormalizeCountsNoiseOnSelectedLayers(t *testing.T) {
	c := New(DefaultOptions(), nil)
	parsed, err := c.Parse(rectangle())
	require.NoError(t, err)

	res, err := c.Normalize(parsed, Request{Unit: "mm", Layers: []string{"WALLS", "DIMS"}})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stats.AfterLayerFilter)
	assert.Equal(t, 1, res.Stats.RemovedNoise)
	assert.Equal(t, 4, res.Stats.FinalWalls)

	// The parse result is reusable.
	assert.Len(t, parsed.Segments, 5)
}

func TestNormalizeEmptySelection(t *testing.T) {
	c := New(DefaultOptions(), nil)
	parsed, err := c.Parse(rectangle())
	require.NoError(t, err)

	for _, layers := range [][]string{nil, {"MISSING"}} {
		res, err := c.Normalize(parsed, Request{Unit: "mm", Layers: layers})
		require.NoError(t, err)
		assert.Zero(t, res.Stats.FinalWalls)
		assert.Empty(t, res.FinalSegments)
		assert.NotNil(t, res.FinalSegments)
		assert.Zero(t, res.Stats.TotalLengthMM)
	}
}

func TestNormalizeJunctionScenarios(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		junctions models.JunctionCounts
		walls     int
		split     int
		merged    int
	}{
		{
			name: "tee with stem inside the snap band",
			lines: []string{
				line("W", "0", "0", "4000", "0"),
				line("W", "2000", "8", "2000", "3000"),
			},
			junctions: models.JunctionCounts{T: 1, End: 3},
			walls:     3,
			split:     1,
		},
		{
			name: "crossing lines",
			lines: []string{
				line("W", "0", "2000", "4000", "2000"),
				line("W", "2000", "0", "2000", "4000"),
			},
			junctions: models.JunctionCounts{X: 1, End: 4},
			walls:     4,
			split:     2,
		},
		{
			name: "corner with a near miss",
			lines: []string{
				line("W", "0", "0", "4000", "0"),
				line("W", "4006", "4", "4006", "3000"),
			},
			junctions: models.JunctionCounts{L: 1, End: 2},
			walls:     2,
		},
		{
			name: "collinear pieces with a small gap",
			lines: []string{
				line("W", "0", "0", "2000", "0"),
				line("W", "2003", "0", "4000", "0"),
			},
			junctions: models.JunctionCounts{End: 2},
			walls:     1,
			merged:    1,
		},
	}

	c := New(DefaultOptions(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Convert(drawing("4", tt.lines...), Request{Unit: "mm", Layers: []string{"W"}})
			require.NoError(t, err)

			assert.Equal(t, tt.junctions, res.Stats.JunctionCounts)
			assert.Equal(t, tt.walls, res.Stats.FinalWalls)
			assert.Equal(t, tt.split, res.Stats.SplitSegments)
			assert.Equal(t, tt.merged, res.Stats.MergedSegments)
			assert.Equal(t, 1, res.Stats.Components)
		})
	}
}

func TestNormalizeScalesMeters(t *testing.T) {
	c := New(DefaultOptions(), nil)
	parsed, err := c.Parse(drawing("",
		line("W", "0", "0", "6", "0"),
		line("W", "6", "0", "6", "4"),
		line("W", "6", "4", "0", "4"),
		line("W", "0", "4", "0", "0"),
	))
	require.NoError(t, err)
	assert.Equal(t, "m", parsed.SuggestedUnit)

	// Empty unit falls back to the suggestion.
	res, err := c.Normalize(parsed, Request{Layers: []string{"W"}})
	require.NoError(t, err)
	assert.InDelta(t, 20000, res.Stats.TotalLengthMM, 1e-6)
	assert.Equal(t, 4, res.Stats.JunctionCounts.L)
}

func TestNormalizeTransformIsIdempotent(t *testing.T) {
	c := New(DefaultOptions(), nil)
	parsed, err := c.Parse(rectangle())
	require.NoError(t, err)

	req := Request{Unit: "mm", Layers: []string{"WALLS"}, Transform: models.TransformSettings{Rotation: 90, FlipY: true}}
	first, err := c.Normalize(parsed, req)
	require.NoError(t, err)
	second, err := c.Normalize(parsed, req)
	require.NoError(t, err)

	assert.Equal(t, first.FinalSegments, second.FinalSegments)
	box := models.BoundsOf(first.FinalSegments)
	assert.InDelta(t, 4000, box.Width(), 1e-9)
	assert.InDelta(t, 6000, box.Height(), 1e-9)
	assert.Equal(t, 4, first.Stats.JunctionCounts.L)
}

func TestNormalizeRejectsInvalidRequest(t *testing.T) {
	c := New(DefaultOptions(), nil)
	parsed, err := c.Parse(rectangle())
	require.NoError(t, err)

	_, err = c.Normalize(parsed, Request{Unit: "ft", Layers: []string{"WALLS"}})
	assert.Error(t, err)

	_, err = c.Normalize(parsed, Request{Unit: "mm", Transform: models.TransformSettings{Rotation: 45}})
	assert.Error(t, err)

	_, err = c.Normalize(nil, Request{})
	assert.Error(t, err)
}

func TestConvertParseError(t *testing.T) {
	c := New(DefaultOptions(), nil)
	_, err := c.Convert([]byte(""), Request{})
	assert.ErrorIs(t, err, parser.ErrEmptyInput)
}

func TestCorrectionsSurviveReimport(t *testing.T) {
	c := New(DefaultOptions(), nil)
	req := Request{Unit: "mm", Layers: []string{"WALLS"}, ApplyCorrections: true}

	first, err := c.Convert(rectangle(), req)
	require.NoError(t, err)
	assert.Zero(t, first.Stats.FlippedWalls)

	var bottom models.Wall
	for _, w := range first.Walls {
		if w.Fingerprint.MidY < -1000 {
			bottom = w
		}
	}
	require.NotEmpty(t, bottom.ID)

	req.Corrections = []models.WallSideCorrection{{
		ID:          "corr-1",
		Fingerprint: bottom.Fingerprint,
		Action:      models.ActionFlip,
		CreatedAt:   time.Now(),
	}}

	// The revised drawing moves the bottom wall 50mm down.
	revised := drawing("4",
		line("WALLS", "0", "-50", "6000", "-50"),
		line("WALLS", "6000", "-50", "6000", "4000"),
		line("WALLS", "6000", "4000", "0", "4000"),
		line("WALLS", "0", "4000", "0", "-50"),
	)
	second, err := c.Convert(revised, req)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Stats.FlippedWalls)
	for _, w := range second.Walls {
		if w.Flipped {
			assert.Equal(t, "corr-1", w.CorrectionID)
			assert.InDelta(t, 6000, w.LengthMM, 1e-9)
		}
	}

	req.ApplyCorrections = false
	third, err := c.Convert(revised, req)
	require.NoError(t, err)
	assert.Zero(t, third.Stats.FlippedWalls)
}
