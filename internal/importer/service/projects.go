package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallgraph/internal/common/logging"
	"wallgraph/internal/importer/fingerprint"
	"wallgraph/internal/importer/models"
	"wallgraph/internal/store"
)

// ============================================================
// Project settings
// ============================================================

const (
	FlagUnit       = "unit"
	FlagEngineMode = "engine"
)

var (
	ErrInvalidProject = errors.New("invalid project id")
	ErrUnknownFlag    = errors.New("unknown flag")
)

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// Projects persists per-project corrections, transform settings and UI
// flags in the key-value store. Writes are last-writer-wins.
type Projects struct {
	kv     store.KV
	tol    fingerprint.Tolerance
	logger *zap.Logger
	now    func() time.Time
}

func NewProjects(kv store.KV, tol fingerprint.Tolerance, logger *zap.Logger) *Projects {
	return &Projects{kv: kv, tol: tol, logger: logging.OrNop(logger), now: time.Now}
}

func correctionsKey(project string) string { return "project:" + project + ":corrections" }
func transformKey(project string) string   { return "project:" + project + ":transform" }
func flagKey(project, name string) string  { return "project:" + project + ":flag:" + name }

func ValidProjectID(id string) bool {
	return projectIDPattern.MatchString(id)
}

// ============================================================
// Corrections
// ============================================================

// Corrections loads the project's correction set. A malformed stored value
// is logged and treated as empty.
func (p *Projects) Corrections(ctx context.Context, project string) ([]models.WallSideCorrection, error) {
	if !ValidProjectID(project) {
		return nil, ErrInvalidProject
	}
	raw, ok, err := p.kv.Get(ctx, correctionsKey(project))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.WallSideCorrection{}, nil
	}
	list := fingerprint.Decode(raw, p.logger.With(zap.String("project", project)))
	if list == nil {
		list = []models.WallSideCorrection{}
	}
	return list, nil
}

// AddCorrection evicts corrections matching the new fingerprint and stores
// the new one with a fresh ID and creation time.
func (p *Projects) AddCorrection(ctx context.Context, project string, c models.WallSideCorrection) (models.WallSideCorrection, error) {
	list, err := p.Corrections(ctx, project)
	if err != nil {
		return c, err
	}

	if c.Action == "" {
		c.Action = models.ActionFlip
	}
	if c.Action != models.ActionFlip {
		return c, fmt.Errorf("unsupported correction action %q", c.Action)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = p.now().UTC()
	c.Fingerprint = fingerprint.Compute(
		models.Point{X: c.Fingerprint.MidX, Y: c.Fingerprint.MidY},
		c.Fingerprint.Length,
		c.Fingerprint.Angle,
	)

	list = fingerprint.Add(list, c, p.tol)
	return c, p.saveCorrections(ctx, project, list)
}

// RemoveCorrection deletes by ID.
func (p *Projects) RemoveCorrection(ctx context.Context, project, id string) (bool, error) {
	list, err := p.Corrections(ctx, project)
	if err != nil {
		return false, err
	}
	list, ok := fingerprint.RemoveID(list, id)
	if !ok {
		return false, nil
	}
	return true, p.saveCorrections(ctx, project, list)
}

// RemoveMatching deletes every correction matching fp.
func (p *Projects) RemoveMatching(ctx context.Context, project string, fp models.WallFingerprint) (int, error) {
	list, err := p.Corrections(ctx, project)
	if err != nil {
		return 0, err
	}
	list, n := fingerprint.Remove(list, fp, p.tol)
	if n == 0 {
		return 0, nil
	}
	return n, p.saveCorrections(ctx, project, list)
}

func (p *Projects) saveCorrections(ctx context.Context, project string, list []models.WallSideCorrection) error {
	data, err := fingerprint.Encode(list)
	if err != nil {
		return fmt.Errorf("encode corrections: %w", err)
	}
	return p.kv.Set(ctx, correctionsKey(project), data)
}

// ============================================================
// Transform & flags
// ============================================================

func (p *Projects) Transform(ctx context.Context, project string) (models.TransformSettings, error) {
	var settings models.TransformSettings
	if !ValidProjectID(project) {
		return settings, ErrInvalidProject
	}
	raw, ok, err := p.kv.Get(ctx, transformKey(project))
	if err != nil || !ok {
		return settings, err
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		p.logger.Warn("discarding malformed transform settings", zap.String("project", project), zap.Error(err))
		return models.TransformSettings{}, nil
	}
	return settings, nil
}

func (p *Projects) SetTransform(ctx context.Context, project string, settings models.TransformSettings) error {
	if !ValidProjectID(project) {
		return ErrInvalidProject
	}
	settings.Rotation = ((settings.Rotation % 360) + 360) % 360
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return p.kv.Set(ctx, transformKey(project), string(data))
}

func (p *Projects) Flag(ctx context.Context, project, name string) (string, bool, error) {
	if !ValidProjectID(project) {
		return "", false, ErrInvalidProject
	}
	if !knownFlag(name) {
		return "", false, ErrUnknownFlag
	}
	return p.kv.Get(ctx, flagKey(project, name))
}

func (p *Projects) SetFlag(ctx context.Context, project, name, value string) error {
	if !ValidProjectID(project) {
		return ErrInvalidProject
	}
	if !knownFlag(name) {
		return ErrUnknownFlag
	}
	return p.kv.Set(ctx, flagKey(project, name), value)
}

func knownFlag(name string) bool {
	return name == FlagUnit || name == FlagEngineMode
}
