package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"wallgraph/internal/importer/models"
	"wallgraph/internal/importer/transform"
)

// ============================================================
// Project Handlers
// ============================================================

func (h *Handler) ListCorrections(c fiber.Ctx) error {
	list, err := h.projects.Corrections(c.Context(), c.Params("id"))
	if err != nil {
		return h.projectError(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) AddCorrection(c fiber.Ctx) error {
	var body models.WallSideCorrection
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if body.Fingerprint.Length <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "fingerprint length must be positive")
	}
	if body.Action != "" && body.Action != models.ActionFlip {
		return errorJSON(c, fiber.StatusBadRequest, "unsupported action")
	}

	created, err := h.projects.AddCorrection(c.Context(), c.Params("id"), body)
	if err != nil {
		return h.projectError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) RemoveCorrection(c fiber.Ctx) error {
	ok, err := h.projects.RemoveCorrection(c.Context(), c.Params("id"), c.Params("correctionId"))
	if err != nil {
		return h.projectError(c, err)
	}
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "correction not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveMatchingCorrections deletes every correction matching the
// fingerprint in the body.
func (h *Handler) RemoveMatchingCorrections(c fiber.Ctx) error {
	var fp models.WallFingerprint
	if err := json.Unmarshal(c.Body(), &fp); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	n, err := h.projects.RemoveMatching(c.Context(), c.Params("id"), fp)
	if err != nil {
		return h.projectError(c, err)
	}
	return c.JSON(fiber.Map{"removed": n})
}

func (h *Handler) GetTransform(c fiber.Ctx) error {
	settings, err := h.projects.Transform(c.Context(), c.Params("id"))
	if err != nil {
		return h.projectError(c, err)
	}
	return c.JSON(settings)
}

func (h *Handler) PutTransform(c fiber.Ctx) error {
	var settings models.TransformSettings
	if err := json.Unmarshal(c.Body(), &settings); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if _, err := transform.Matrix(settings); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.projects.SetTransform(c.Context(), c.Params("id"), settings); err != nil {
		return h.projectError(c, err)
	}
	return h.GetTransform(c)
}

func (h *Handler) GetFlag(c fiber.Ctx) error {
	name := c.Params("name")
	value, ok, err := h.projects.Flag(c.Context(), c.Params("id"), name)
	if err != nil {
		return h.projectError(c, err)
	}
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "flag not set")
	}
	return c.JSON(fiber.Map{"name": name, "value": value})
}

func (h *Handler) PutFlag(c fiber.Ctx) error {
	var body struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	name := c.Params("name")
	if err := h.projects.SetFlag(c.Context(), c.Params("id"), name, body.Value); err != nil {
		return h.projectError(c, err)
	}
	return c.JSON(fiber.Map{"name": name, "value": body.Value})
}
