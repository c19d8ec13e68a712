package mapper

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallgraph/internal/common/logging"
	"wallgraph/internal/common/metrics"
	"wallgraph/internal/importer/cleanup"
	"wallgraph/internal/importer/fingerprint"
	"wallgraph/internal/importer/graph"
	"wallgraph/internal/importer/models"
	"wallgraph/internal/importer/parser"
	"wallgraph/internal/importer/transform"
	"wallgraph/internal/importer/units"
)

// Request is the caller's confirmation of everything the parser could only
// guess: the drawing unit, the wall layers and the orientation.
type Request struct {
	// Unit of the source coordinates. Empty falls back to the suggested unit.
	Unit             string                      `json:"unit"`
	Layers           []string                    `json:"layers"`
	Transform        models.TransformSettings    `json:"transform"`
	ApplyCorrections bool                        `json:"applyCorrections"`
	Corrections      []models.WallSideCorrection `json:"-"`
}

// ============================================================
// Converter
// ============================================================

type Converter struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Converter {
	return &Converter{opts: opts, logger: logging.OrNop(logger)}
}

func (c *Converter) Options() Options {
	return c.opts
}

// Parse reads DXF content and attaches the unit suggestion. A failed parse
// is counted and returned; nothing downstream runs on it.
func (c *Converter) Parse(data []byte) (*models.ParseResult, error) {
	start := time.Now()
	res, err := parser.Parse(data)
	metrics.ObserveStage("parse", start)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("parse_error").Inc()
		c.logger.Warn("dxf parse failed", zap.Error(err), zap.Int("bytes", len(data)))
		return nil, err
	}

	units.Apply(res)
	metrics.ImportsTotal.WithLabelValues("parsed").Inc()
	c.logger.Debug("dxf parsed",
		zap.Int("segments", len(res.Segments)),
		zap.Strings("layers", res.Layers),
		zap.String("header_unit", res.HeaderUnit),
		zap.String("suggested_unit", res.SuggestedUnit),
		zap.String("unit_reason", res.UnitReason),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// Convert parses data and normalizes it in one pass.
func (c *Converter) Convert(data []byte, req Request) (*models.NormalizedResult, error) {
	parsed, err := c.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse DXF: %w", err)
	}
	return c.Normalize(parsed, req)
}

// Normalize runs every stage from the layer filter onward. The parse result
// is never modified, so a caller may re-run it with another selection.
// Only an unsupported unit or rotation is an error; empty selections yield
// an empty result with zero walls.
func (c *Converter) Normalize(parsed *models.ParseResult, req Request) (*models.NormalizedResult, error) {
	if parsed == nil {
		return nil, fmt.Errorf("normalize: no parse result")
	}

	unit := req.Unit
	if unit == "" {
		unit = parsed.SuggestedUnit
	}
	if _, err := units.Factor(unit); err != nil {
		return nil, err
	}
	if _, err := transform.Matrix(req.Transform); err != nil {
		return nil, err
	}

	stats := models.Stats{OriginalSegments: len(parsed.Segments)}

	// Layer filter
	start := time.Now()
	segments := cleanup.FilterLayers(parsed.Segments, req.Layers)
	stats.AfterLayerFilter = len(segments)
	metrics.ObserveStage("layer_filter", start)

	// Units
	start = time.Now()
	segments, err := units.Scale(segments, unit)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("scale", start)

	// Orientation
	start = time.Now()
	segments, err = transform.Apply(segments, req.Transform)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("transform", start)

	// Noise
	start = time.Now()
	segments, report := cleanup.ReduceNoise(segments, c.opts.Noise)
	stats.RemovedNoise = report.Removed()
	metrics.ObserveStage("noise", start)
	metrics.AddSegments("removed", stats.RemovedNoise)

	// Contacts
	if c.opts.SplitContacts {
		start = time.Now()
		segments, stats.SplitSegments = cleanup.SplitAtContacts(segments, c.opts.Graph.SnapTolerance)
		metrics.ObserveStage("split", start)
		metrics.AddSegments("split", stats.SplitSegments)
	}

	// Fusion
	start = time.Now()
	segments, stats.MergedSegments = cleanup.Fuse(segments, c.opts.fuse())
	metrics.ObserveStage("fuse", start)
	metrics.AddSegments("merged", stats.MergedSegments)

	// Topology
	start = time.Now()
	g := graph.Build(segments, c.opts.Graph)
	metrics.ObserveStage("topology", start)
	if g.Skipped > 0 {
		c.logger.Warn("segments skipped by topology builder", zap.Int("skipped", g.Skipped))
	}

	stats.JunctionCounts = g.JunctionCounts()
	stats.Components = g.Components()
	stats.FinalWalls = len(g.Chains)
	for _, s := range segments {
		stats.TotalLengthMM += s.Length
	}
	metrics.AddJunctions("L", stats.JunctionCounts.L)
	metrics.AddJunctions("T", stats.JunctionCounts.T)
	metrics.AddJunctions("X", stats.JunctionCounts.X)
	metrics.AddJunctions("end", stats.JunctionCounts.End)

	// Corrections
	start = time.Now()
	origin := models.BoundsOf(segments).Center()
	matcher := fingerprint.NewMatcher(req.Corrections, c.opts.Fingerprint, req.ApplyCorrections)
	walls := make([]models.Wall, 0, len(g.Chains))
	for _, chain := range g.Chains {
		w := models.Wall{
			Chain:       chain,
			Fingerprint: fingerprint.OfChain(chain, g.Segment, origin),
		}
		if matcher.ShouldFlip(w.Fingerprint) {
			corr, _ := matcher.Find(w.Fingerprint)
			w.Flipped = true
			w.CorrectionID = corr.ID
			stats.FlippedWalls++
		}
		walls = append(walls, w)
	}
	metrics.ObserveStage("fingerprint", start)
	metrics.CorrectionsApplied.Add(float64(stats.FlippedWalls))

	metrics.ImportsTotal.WithLabelValues("normalized").Inc()
	c.logger.Debug("normalization finished",
		zap.String("unit", unit),
		zap.Strings("layers", req.Layers),
		zap.Int("original", stats.OriginalSegments),
		zap.Int("after_layer_filter", stats.AfterLayerFilter),
		zap.Int("removed_noise", stats.RemovedNoise),
		zap.Int("split", stats.SplitSegments),
		zap.Int("merged", stats.MergedSegments),
		zap.Int("walls", stats.FinalWalls),
		zap.Int("flipped", stats.FlippedWalls),
	)

	return &models.NormalizedResult{
		FinalSegments:  nonNil(segments),
		SelectedLayers: nonNilStrings(req.Layers),
		Nodes:          g.Nodes,
		Edges:          g.Edges,
		Walls:          walls,
		Origin:         origin,
		Stats:          stats,
	}, nil
}

func nonNil(s []models.Segment) []models.Segment {
	if s == nil {
		return []models.Segment{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
