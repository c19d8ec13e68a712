package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"wallgraph/internal/common/logging"
	"wallgraph/internal/importer/mapper"
	"wallgraph/internal/importer/service"
)

// ============================================================
// Handler
// ============================================================

type Handler struct {
	converter *mapper.Converter
	renderer  *mapper.Renderer
	sessions  *service.SessionManager
	projects  *service.Projects
	logger    *zap.Logger

	// applyCorrections is the default for requests that do not say.
	applyCorrections bool
}

func New(conv *mapper.Converter, sessions *service.SessionManager, projects *service.Projects, applyCorrections bool, logger *zap.Logger) *Handler {
	return &Handler{
		converter:        conv,
		renderer:         mapper.NewRenderer(),
		sessions:         sessions,
		projects:         projects,
		logger:           logging.OrNop(logger),
		applyCorrections: applyCorrections,
	}
}

// Register mounts every importer route on r.
func (h *Handler) Register(r fiber.Router) {
	r.Post("/imports", h.CreateImport)
	r.Post("/imports/:id/normalize", h.Normalize)
	r.Get("/imports/:id/preview", h.Preview)
	r.Delete("/imports/:id", h.DeleteImport)

	r.Get("/projects/:id/corrections", h.ListCorrections)
	r.Post("/projects/:id/corrections", h.AddCorrection)
	r.Delete("/projects/:id/corrections", h.RemoveMatchingCorrections)
	r.Delete("/projects/:id/corrections/:correctionId", h.RemoveCorrection)
	r.Get("/projects/:id/transform", h.GetTransform)
	r.Put("/projects/:id/transform", h.PutTransform)
	r.Get("/projects/:id/flags/:name", h.GetFlag)
	r.Put("/projects/:id/flags/:name", h.PutFlag)
}

func errorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// projectError maps repository failures onto HTTP statuses.
func (h *Handler) projectError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidProject):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownFlag):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	h.logger.Error("project store failed", zap.String("path", c.Path()), zap.Error(err))
	return errorJSON(c, fiber.StatusInternalServerError, "store unavailable")
}
