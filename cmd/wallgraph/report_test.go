package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallgraph/internal/importer/models"
)

func init() {
	color.NoColor = true
}

func TestFormatStats(t *testing.T) {
	out := formatStats("plan.dxf", models.Stats{
		OriginalSegments: 5,
		AfterLayerFilter: 4,
		FinalWalls:       4,
		Components:       1,
		TotalLengthMM:    20000,
		JunctionCounts:   models.JunctionCounts{L: 4},
		FlippedWalls:     1,
	})

	assert.Contains(t, out, "✓ plan.dxf  4 walls, 20000 mm")
	assert.Contains(t, out, "L=4 T=0 X=0 end=0, 1 component(s)")
	assert.Contains(t, out, "1 wall(s) flipped")
}

func TestFormatParseOrdersLayersByCount(t *testing.T) {
	out := formatParse("plan.dxf", &models.ParseResult{
		Layers:        []string{"DIMS", "WALLS"},
		LayerCounts:   map[string]int{"DIMS": 1, "WALLS": 4},
		SuggestedUnit: "mm",
		HeaderUnit:    "mm",
		UnitReason:    "header",
	})

	assert.Less(t, indexOf(out, "WALLS"), indexOf(out, "DIMS"))
	assert.Contains(t, out, "mm (header mm)")
}

func TestFormatFailureAndCorrections(t *testing.T) {
	assert.Equal(t, "✗ a.dxf  boom\n", formatFailure("a.dxf", errors.New("boom")))
	assert.Equal(t, "no corrections\n", formatCorrections(nil))

	out := formatCorrections([]models.WallSideCorrection{{ID: "c1", Action: models.ActionFlip, Label: "south", Fingerprint: models.WallFingerprint{Length: 6000}}})
	assert.Contains(t, out, "c1  flip")
	assert.Contains(t, out, "south")
}

func TestGlobFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "site", "level1"), 0o755))
	for _, name := range []string{"a.dxf", "site/b.dxf", "site/level1/c.dxf", "site/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("0\nEOF\n"), 0o644))
	}

	files, err := globFiles(filepath.Join(dir, "**", "*.dxf"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.dxf"),
		filepath.Join(dir, "site", "b.dxf"),
		filepath.Join(dir, "site", "level1", "c.dxf"),
	}, files)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
