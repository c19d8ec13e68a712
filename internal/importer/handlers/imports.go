package handlers

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"wallgraph/internal/importer/mapper"
	"wallgraph/internal/importer/models"
	"wallgraph/internal/importer/parser"
	"wallgraph/internal/importer/service"
)

// ============================================================
// Import Handlers
// ============================================================

// ImportSummary is the parse result without raw segments.
type ImportSummary struct {
	ID            string             `json:"id"`
	ProjectID     string             `json:"projectId,omitempty"`
	FileName      string             `json:"fileName,omitempty"`
	Segments      int                `json:"segments"`
	Layers        []string           `json:"layers"`
	LayerCounts   map[string]int     `json:"layerCounts"`
	BoundingBox   models.BoundingBox `json:"boundingBox"`
	HeaderUnit    string             `json:"headerUnit,omitempty"`
	SuggestedUnit string             `json:"suggestedUnit"`
	UnitMetric    float64            `json:"unitMetric"`
	UnitReason    string             `json:"unitReason,omitempty"`
}

func summarize(s *service.Session) ImportSummary {
	p := s.Parsed
	return ImportSummary{
		ID:            s.ID,
		ProjectID:     s.ProjectID,
		FileName:      s.FileName,
		Segments:      len(p.Segments),
		Layers:        p.Layers,
		LayerCounts:   p.LayerCounts,
		BoundingBox:   p.BoundingBox,
		HeaderUnit:    p.HeaderUnit,
		SuggestedUnit: p.SuggestedUnit,
		UnitMetric:    p.UnitMetric,
		UnitReason:    p.UnitReason,
	}
}

// CreateImport parses a DXF from multipart/form-data and opens an import session.
func (h *Handler) CreateImport(c fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "file required in multipart/form-data")
	}

	projectID := c.FormValue("projectId")
	if projectID != "" && !service.ValidProjectID(projectID) {
		return errorJSON(c, fiber.StatusBadRequest, service.ErrInvalidProject.Error())
	}

	f, err := file.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "failed to read file")
	}

	h.logger.Info("import received", zap.String("file", file.Filename), zap.Int64("size", file.Size), zap.String("project", projectID))

	parsed, err := h.converter.Parse(data)
	if err != nil {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, parser.ErrEmptyInput) {
			status = fiber.StatusBadRequest
		}
		return errorJSON(c, status, err.Error())
	}

	s := h.sessions.Issue(projectID, file.Filename, parsed)
	return c.Status(fiber.StatusCreated).JSON(summarize(s))
}

// NormalizeRequest is the body of a normalize call. Nil fields fall back to
// the project's stored settings and the service defaults.
type NormalizeRequest struct {
	Unit             string                    `json:"unit"`
	Layers           []string                  `json:"layers"`
	Transform        *models.TransformSettings `json:"transform"`
	ApplyCorrections *bool                     `json:"applyCorrections"`
}

// Normalize re-runs the pipeline from the layer filter onward.
func (h *Handler) Normalize(c fiber.Ctx) error {
	s, ok := h.sessions.Resolve(c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "import not found")
	}

	var body NormalizeRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid JSON payload")
		}
	}

	req := mapper.Request{
		Unit:             body.Unit,
		Layers:           body.Layers,
		ApplyCorrections: h.applyCorrections,
	}
	if body.ApplyCorrections != nil {
		req.ApplyCorrections = *body.ApplyCorrections
	}

	ctx := c.Context()
	if body.Transform != nil {
		req.Transform = *body.Transform
	} else if s.ProjectID != "" {
		t, err := h.projects.Transform(ctx, s.ProjectID)
		if err != nil {
			return h.projectError(c, err)
		}
		req.Transform = t
	}
	if s.ProjectID != "" && req.ApplyCorrections {
		list, err := h.projects.Corrections(ctx, s.ProjectID)
		if err != nil {
			return h.projectError(c, err)
		}
		req.Corrections = list
	}

	res, err := h.converter.Normalize(s.Parsed, req)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	h.sessions.Remember(s.ID, res)

	h.logger.Info("import normalized",
		zap.String("import", s.ID),
		zap.Int("walls", res.Stats.FinalWalls),
		zap.Int("flipped", res.Stats.FlippedWalls),
	)
	return c.JSON(res)
}

// Preview renders the last normalization of the import as SVG.
func (h *Handler) Preview(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.sessions.Resolve(id); !ok {
		return errorJSON(c, fiber.StatusNotFound, "import not found")
	}
	last, ok := h.sessions.Last(id)
	if !ok {
		return errorJSON(c, fiber.StatusConflict, "import has not been normalized")
	}

	svg, err := h.renderer.Render(last)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

func (h *Handler) DeleteImport(c fiber.Ctx) error {
	if !h.sessions.Drop(c.Params("id")) {
		return errorJSON(c, fiber.StatusNotFound, "import not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
