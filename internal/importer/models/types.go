package models

import (
	"math"
	"time"
)

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

type BoundingBox struct {
	MinX  float64 `json:"minX"`
	MinY  float64 `json:"minY"`
	MaxX  float64 `json:"maxX"`
	MaxY  float64 `json:"maxY"`
	Empty bool    `json:"empty"`
}

func EmptyBox() BoundingBox {
	return BoundingBox{Empty: true}
}

// Extend returns the box grown to include p.
func (b BoundingBox) Extend(p Point) BoundingBox {
	if b.Empty {
		return BoundingBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
	}
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
	return b
}

func (b BoundingBox) Width() float64 {
	if b.Empty {
		return 0
	}
	return b.MaxX - b.MinX
}

func (b BoundingBox) Height() float64 {
	if b.Empty {
		return 0
	}
	return b.MaxY - b.MinY
}

func (b BoundingBox) Center() Point {
	if b.Empty {
		return Point{}
	}
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

func (b BoundingBox) Diagonal() float64 {
	return math.Hypot(b.Width(), b.Height())
}

// BoundsOf returns the bounding box over every segment endpoint.
func BoundsOf(segments []Segment) BoundingBox {
	box := EmptyBox()
	for _, s := range segments {
		box = box.Extend(s.Start())
		box = box.Extend(s.End())
	}
	return box
}

// ============================================================
// Segment
// ============================================================

// Segment is an immutable 2D wall centerline piece. Length and Angle are
// derived from the endpoints; Angle is atan2(dy, dx) folded into [0, 2π).
type Segment struct {
	ID     string  `json:"id"`
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
	Layer  string  `json:"layerName"`
	Length float64 `json:"length"`
	Angle  float64 `json:"angle"`
}

func NewSegment(id, layer string, start, end Point) Segment {
	dx := end.X - start.X
	dy := end.Y - start.Y
	return Segment{
		ID:     id,
		StartX: start.X,
		StartY: start.Y,
		EndX:   end.X,
		EndY:   end.Y,
		Layer:  layer,
		Length: math.Hypot(dx, dy),
		Angle:  NormalizeAngle(math.Atan2(dy, dx)),
	}
}

func (s Segment) Start() Point { return Point{X: s.StartX, Y: s.StartY} }
func (s Segment) End() Point   { return Point{X: s.EndX, Y: s.EndY} }

func (s Segment) Midpoint() Point {
	return Point{X: (s.StartX + s.EndX) / 2, Y: (s.StartY + s.EndY) / 2}
}

// WithEndpoints returns a copy carrying the same ID and layer with new geometry.
func (s Segment) WithEndpoints(start, end Point) Segment {
	return NewSegment(s.ID, s.Layer, start, end)
}

// Degenerate reports whether the segment has no usable direction.
func (s Segment) Degenerate() bool {
	return !(s.Length > 1e-9) || math.IsNaN(s.Angle) || math.IsInf(s.Length, 0)
}

// NormalizeAngle folds a in radians into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// ============================================================
// Parse result
// ============================================================

const DefaultLayer = "0"

type ParseResult struct {
	Segments      []Segment      `json:"segments"`
	Layers        []string       `json:"layers"`
	LayerCounts   map[string]int `json:"layerCounts"`
	BoundingBox   BoundingBox    `json:"boundingBox"`
	HeaderUnit    string         `json:"headerUnit,omitempty"`
	SuggestedUnit string         `json:"suggestedUnit"`
	UnitMetric    float64        `json:"unitMetric"`
	UnitReason    string         `json:"unitReason,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ============================================================
// Topology
// ============================================================

type NodeType string

const (
	NodeEnd    NodeType = "end"
	NodeCorner NodeType = "L"
	NodeTee    NodeType = "T"
	NodeCross  NodeType = "X"
	// NodePass is a degree-2 collinear continuation, not a junction.
	NodePass NodeType = "pass"
)

// Significant reports whether chains start and stop at this node type.
func (t NodeType) Significant() bool {
	return t != NodePass
}

type Node struct {
	ID         int       `json:"id"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Type       NodeType  `json:"type"`
	SegmentIDs []string  `json:"connectedSegmentIds"`
	Angles     []float64 `json:"anglesOfIncidentSegments"`
}

func (n Node) Position() Point { return Point{X: n.X, Y: n.Y} }

// Edge is a segment expressed by its snapped node indices.
type Edge struct {
	SegmentID string `json:"segmentId"`
	From      int    `json:"from"`
	To        int    `json:"to"`
}

type Chain struct {
	ID         string   `json:"id"`
	Vertices   []Point  `json:"vertices"`
	NodeIDs    []int    `json:"nodeIds"`
	SegmentIDs []string `json:"segmentIds"`
	LengthMM   float64  `json:"lengthMm"`
	Closed     bool     `json:"closed,omitempty"`
}

type JunctionCounts struct {
	L   int `json:"L"`
	T   int `json:"T"`
	X   int `json:"X"`
	End int `json:"end"`
}

// ============================================================
// Fingerprints & corrections
// ============================================================

type WallFingerprint struct {
	MidX   float64 `json:"midX"`
	MidY   float64 `json:"midY"`
	Length float64 `json:"length"`
	Angle  float64 `json:"angle"`
}

type CorrectionAction string

const ActionFlip CorrectionAction = "flip"

type WallSideCorrection struct {
	ID          string           `json:"id,omitempty"`
	Fingerprint WallFingerprint  `json:"fingerprint"`
	Action      CorrectionAction `json:"action"`
	CreatedAt   time.Time        `json:"createdAt"`
	Label       string           `json:"label,omitempty"`
}

// Wall is a chain decorated with its fingerprint and applied correction.
type Wall struct {
	Chain
	Fingerprint  WallFingerprint `json:"fingerprint"`
	Flipped      bool            `json:"flipped"`
	CorrectionID string          `json:"correctionId,omitempty"`
}

// ============================================================
// Transform settings
// ============================================================

type TransformSettings struct {
	FlipY    bool `json:"flipY"`
	MirrorX  bool `json:"mirrorX"`
	Rotation int  `json:"rotation"`
}

func (t TransformSettings) Identity() bool {
	return !t.FlipY && !t.MirrorX && t.Rotation%360 == 0
}

// ============================================================
// Normalized result
// ============================================================

type Stats struct {
	OriginalSegments int            `json:"originalSegments"`
	AfterLayerFilter int            `json:"afterLayerFilter"`
	RemovedNoise     int            `json:"removedNoise"`
	SplitSegments    int            `json:"splitSegments"`
	MergedSegments   int            `json:"mergedSegments"`
	FinalWalls       int            `json:"finalWalls"`
	Components       int            `json:"components"`
	JunctionCounts   JunctionCounts `json:"junctionCounts"`
	TotalLengthMM    float64        `json:"totalLengthMM"`
	FlippedWalls     int            `json:"flippedWalls"`
}

type NormalizedResult struct {
	FinalSegments  []Segment `json:"finalSegments"`
	SelectedLayers []string  `json:"selectedLayers"`
	Nodes          []Node    `json:"nodes"`
	Edges          []Edge    `json:"edges"`
	Walls          []Wall    `json:"walls"`
	Origin         Point     `json:"origin"`
	Stats          Stats     `json:"stats"`
}
