package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Renderer
// ============================================================

// Renderer draws a normalized result as an SVG preview. CAD Y grows upward,
// so every point is mirrored into SVG space against the bounding box.
type Renderer struct {
	Margin      float64
	StrokeWidth float64
	NodeRadius  float64
}

func NewRenderer() *Renderer {
	return &Renderer{Margin: 500, StrokeWidth: 40, NodeRadius: 80}
}

var nodeColors = map[models.NodeType]string{
	models.NodeCorner: "#1f77b4",
	models.NodeTee:    "#ff7f0e",
	models.NodeCross:  "#9467bd",
	models.NodeEnd:    "#7f7f7f",
}

const (
	wallStroke    = "#000"
	flippedStroke = "#d62728"
)

func (r *Renderer) Render(res *models.NormalizedResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is nil")
	}

	box := models.BoundsOf(res.FinalSegments)
	if box.Empty {
		box = models.BoundingBox{MaxX: 1000, MaxY: 1000}
	}
	width := box.Width() + 2*r.Margin
	height := box.Height() + 2*r.Margin

	project := func(p models.Point) models.Point {
		return models.Point{
			X: p.X - box.MinX + r.Margin,
			Y: box.MaxY - p.Y + r.Margin,
		}
	}

	var elements []string
	elements = append(elements, r.renderWalls(res.Walls, project)...)
	elements = append(elements, r.renderNodes(res.Nodes, project)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderWalls(walls []models.Wall, project func(models.Point) models.Point) []string {
	out := make([]string, 0, len(walls))

	for _, w := range walls {
		if len(w.Vertices) < 2 {
			continue
		}

		var path strings.Builder
		path.WriteString(`<path id="`)
		path.WriteString(w.ID)
		path.WriteString(`" d="M `)
		path.WriteString(formatPoint(project(w.Vertices[0])))
		for _, p := range w.Vertices[1:] {
			path.WriteString(" L ")
			path.WriteString(formatPoint(project(p)))
		}

		stroke := wallStroke
		if w.Flipped {
			stroke = flippedStroke
		}
		fmt.Fprintf(&path, `" fill="none" stroke="%s" stroke-width="%s" data-length="%s" />`,
			stroke, formatFloat(r.StrokeWidth), formatFloat(w.LengthMM))

		out = append(out, path.String())
	}

	return out
}

func (r *Renderer) renderNodes(nodes []models.Node, project func(models.Point) models.Point) []string {
	var out []string

	for _, n := range nodes {
		color, ok := nodeColors[n.Type]
		if !ok {
			continue
		}
		p := project(n.Position())
		out = append(out, fmt.Sprintf(`<circle id="n%d" class="%s" cx="%s" cy="%s" r="%s" fill="%s" />`,
			n.ID, n.Type, formatFloat(p.X), formatFloat(p.Y), formatFloat(r.NodeRadius), color))
	}

	return out
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
