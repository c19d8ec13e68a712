package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrEmptyInput = errors.New("dxf: empty input")
	ErrNoEntities = errors.New("dxf: no LINE, LWPOLYLINE or POLYLINE entities found")
	ErrBinaryDXF  = errors.New("dxf: binary DXF is not supported")
)

// SyntaxError reports a malformed group code or value at a 1-based line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dxf: line %d: %s", e.Line, e.Msg)
}

// ============================================================
// Parser
// ============================================================

// ParseReader reads the whole stream and parses it.
func ParseReader(r io.Reader) (*models.ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dxf: %w", err)
	}
	return Parse(data)
}

// Parse extracts LINE, LWPOLYLINE and POLYLINE geometry from DXF text.
// Unknown entities are skipped. No geometric cleanup happens here.
func Parse(data []byte) (res *models.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("dxf: %v", r)
		}
	}()

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}
	if bytes.HasPrefix(data, []byte("AutoCAD Binary DXF")) {
		return nil, ErrBinaryDXF
	}

	pairs, err := readPairs(data)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrEmptyInput
	}

	header, entities := splitSections(pairs)

	b := newResultBuilder()
	b.result.HeaderUnit = headerUnit(header)

	if err := b.consume(entities); err != nil {
		return nil, err
	}
	if len(b.result.Segments) == 0 {
		return nil, ErrNoEntities
	}
	return b.result, nil
}

// ============================================================
// Group code reader
// ============================================================

type pair struct {
	code  int
	value string
	line  int
}

func readPairs(data []byte) ([]pair, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := strings.Split(string(data), "\n")

	// Trailing blank lines are common after EOF.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	pairs := make([]pair, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		raw := strings.TrimSpace(lines[i])
		code, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &SyntaxError{Line: i + 1, Msg: fmt.Sprintf("malformed group code %q", raw)}
		}
		pairs = append(pairs, pair{
			code:  code,
			value: strings.TrimSpace(strings.TrimSuffix(lines[i+1], "\r")),
			line:  i + 2,
		})
	}
	return pairs, nil
}

// splitSections returns the HEADER and ENTITIES pairs. A stream without
// any SECTION markers is treated as a bare entity list.
func splitSections(pairs []pair) (header, entities []pair) {
	hasSections := false
	for _, p := range pairs {
		if p.code == 0 && strings.EqualFold(p.value, "SECTION") {
			hasSections = true
			break
		}
	}
	if !hasSections {
		return nil, pairs
	}

	section := ""
	for i := 0; i < len(pairs); i++ {
		p := pairs[i]
		if p.code == 0 && strings.EqualFold(p.value, "SECTION") {
			if i+1 < len(pairs) && pairs[i+1].code == 2 {
				section = strings.ToUpper(pairs[i+1].value)
				i++
			}
			continue
		}
		if p.code == 0 && strings.EqualFold(p.value, "ENDSEC") {
			section = ""
			continue
		}
		switch section {
		case "HEADER":
			header = append(header, p)
		case "ENTITIES":
			entities = append(entities, p)
		}
	}
	return header, entities
}

func headerUnit(header []pair) string {
	for i := 0; i+1 < len(header); i++ {
		if header[i].code != 9 || header[i].value != "$INSUNITS" {
			continue
		}
		v, err := strconv.Atoi(header[i+1].value)
		if err != nil {
			return ""
		}
		switch v {
		case 1:
			return "in"
		case 4:
			return "mm"
		case 5:
			return "cm"
		case 6:
			return "m"
		}
		return ""
	}
	return ""
}

// ============================================================
// Entities
// ============================================================

type entity struct {
	kind  string
	line  int
	pairs []pair
}

func groupEntities(pairs []pair) []entity {
	var out []entity
	for _, p := range pairs {
		if p.code == 0 {
			out = append(out, entity{kind: strings.ToUpper(p.value), line: p.line})
			continue
		}
		if len(out) == 0 {
			continue
		}
		last := &out[len(out)-1]
		last.pairs = append(last.pairs, p)
	}
	return out
}

func (e entity) layer() string {
	for _, p := range e.pairs {
		if p.code == 8 && p.value != "" {
			return p.value
		}
	}
	return models.DefaultLayer
}

func (e entity) flags() int {
	for _, p := range e.pairs {
		if p.code == 70 {
			v, err := strconv.Atoi(p.value)
			if err == nil {
				return v
			}
		}
	}
	return 0
}

// coord returns the value of the first pair with the given code.
func (e entity) coord(code int) (float64, bool, error) {
	for _, p := range e.pairs {
		if p.code == code {
			v, err := parseFloat(p)
			return v, true, err
		}
	}
	return 0, false, nil
}

func parseFloat(p pair) (float64, error) {
	v, err := strconv.ParseFloat(p.value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &SyntaxError{Line: p.line, Msg: fmt.Sprintf("malformed coordinate %q for group code %d", p.value, p.code)}
	}
	return v, nil
}

const (
	polylineClosed      = 1
	polylineSplineFrame = 16
	polylinePolyface    = 64
	vertexSplineControl = 16
	vertexFaceRecord    = 128
)

type resultBuilder struct {
	result *models.ParseResult
	nextID int
}

func newResultBuilder() *resultBuilder {
	return &resultBuilder{
		result: &models.ParseResult{
			LayerCounts: make(map[string]int),
			BoundingBox: models.EmptyBox(),
		},
	}
}

func (b *resultBuilder) consume(pairs []pair) error {
	entities := groupEntities(pairs)

	for i := 0; i < len(entities); i++ {
		e := entities[i]
		switch e.kind {
		case "LINE":
			if err := b.addLine(e); err != nil {
				return err
			}
		case "LWPOLYLINE":
			if err := b.addLWPolyline(e); err != nil {
				return err
			}
		case "POLYLINE":
			// Vertices follow as separate entities up to SEQEND.
			j := i + 1
			for j < len(entities) && entities[j].kind == "VERTEX" {
				j++
			}
			if err := b.addPolyline(e, entities[i+1:j]); err != nil {
				return err
			}
			if j < len(entities) && entities[j].kind == "SEQEND" {
				j++
			}
			i = j - 1
		}
	}
	return nil
}

func (b *resultBuilder) addLine(e entity) error {
	var vals [4]float64
	for i, code := range []int{10, 20, 11, 21} {
		v, ok, err := e.coord(code)
		if err != nil {
			return err
		}
		if !ok {
			return &SyntaxError{Line: e.line, Msg: fmt.Sprintf("LINE missing group code %d", code)}
		}
		vals[i] = v
	}
	b.addSegment(e.layer(), models.Point{X: vals[0], Y: vals[1]}, models.Point{X: vals[2], Y: vals[3]})
	return nil
}

func (b *resultBuilder) addLWPolyline(e entity) error {
	var points []models.Point
	for _, p := range e.pairs {
		switch p.code {
		case 10:
			x, err := parseFloat(p)
			if err != nil {
				return err
			}
			points = append(points, models.Point{X: x})
		case 20:
			y, err := parseFloat(p)
			if err != nil {
				return err
			}
			if len(points) == 0 {
				return &SyntaxError{Line: p.line, Msg: "LWPOLYLINE y coordinate before x"}
			}
			points[len(points)-1].Y = y
		}
	}
	b.addPath(e.layer(), points, e.flags()&polylineClosed != 0)
	return nil
}

func (b *resultBuilder) addPolyline(e entity, vertices []entity) error {
	flags := e.flags()
	if flags&(polylineSplineFrame|polylinePolyface) != 0 {
		return nil
	}

	points := make([]models.Point, 0, len(vertices))
	for _, v := range vertices {
		if v.flags()&(vertexFaceRecord|vertexSplineControl) != 0 {
			continue
		}
		x, okX, err := v.coord(10)
		if err != nil {
			return err
		}
		y, okY, err := v.coord(20)
		if err != nil {
			return err
		}
		if !okX || !okY {
			return &SyntaxError{Line: v.line, Msg: "VERTEX missing coordinates"}
		}
		points = append(points, models.Point{X: x, Y: y})
	}
	b.addPath(e.layer(), points, flags&polylineClosed != 0)
	return nil
}

func (b *resultBuilder) addPath(layer string, points []models.Point, closed bool) {
	if len(points) < 2 {
		for _, p := range points {
			b.result.BoundingBox = b.result.BoundingBox.Extend(p)
		}
		return
	}
	for i := 0; i+1 < len(points); i++ {
		b.addSegment(layer, points[i], points[i+1])
	}
	first, last := points[0], points[len(points)-1]
	if closed && (first.X != last.X || first.Y != last.Y) {
		b.addSegment(layer, last, first)
	}
}

func (b *resultBuilder) addSegment(layer string, start, end models.Point) {
	b.nextID++
	seg := models.NewSegment(fmt.Sprintf("s%d", b.nextID), layer, start, end)

	r := b.result
	r.Segments = append(r.Segments, seg)
	if _, seen := r.LayerCounts[layer]; !seen {
		r.Layers = append(r.Layers, layer)
	}
	r.LayerCounts[layer]++
	r.BoundingBox = r.BoundingBox.Extend(start).Extend(end)
}
