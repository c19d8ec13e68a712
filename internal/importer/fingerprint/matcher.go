package fingerprint

import (
	"encoding/json"

	"go.uber.org/zap"

	"wallgraph/internal/importer/models"
)

// ============================================================
// Correction matcher
// ============================================================

// Matcher answers whether a wall carries a stored side-flip correction.
type Matcher struct {
	corrections []models.WallSideCorrection
	tol         Tolerance
	enabled     bool
}

func NewMatcher(corrections []models.WallSideCorrection, tol Tolerance, enabled bool) *Matcher {
	return &Matcher{corrections: corrections, tol: tol, enabled: enabled}
}

// Find returns the correction matching fp. When several match, the most
// recently created wins; ties go to the later entry.
func (m *Matcher) Find(fp models.WallFingerprint) (models.WallSideCorrection, bool) {
	var best models.WallSideCorrection
	found := false
	for _, c := range m.corrections {
		if !Match(c.Fingerprint, fp, m.tol) {
			continue
		}
		if !found || !c.CreatedAt.Before(best.CreatedAt) {
			best, found = c, true
		}
	}
	return best, found
}

// ShouldFlip is true when corrections are enabled and a flip matches fp.
func (m *Matcher) ShouldFlip(fp models.WallFingerprint) bool {
	if !m.enabled {
		return false
	}
	c, ok := m.Find(fp)
	return ok && c.Action == models.ActionFlip
}

// ============================================================
// Correction set edits
// ============================================================

// Add evicts every correction matching c's fingerprint and appends c, so a
// physical wall carries at most one active correction.
func Add(list []models.WallSideCorrection, c models.WallSideCorrection, tol Tolerance) []models.WallSideCorrection {
	out, _ := Remove(list, c.Fingerprint, tol)
	return append(out, c)
}

// Remove drops every correction matching fp and reports how many were removed.
func Remove(list []models.WallSideCorrection, fp models.WallFingerprint, tol Tolerance) ([]models.WallSideCorrection, int) {
	out := make([]models.WallSideCorrection, 0, len(list))
	for _, c := range list {
		if Match(c.Fingerprint, fp, tol) {
			continue
		}
		out = append(out, c)
	}
	return out, len(list) - len(out)
}

// RemoveID drops the correction with the given ID.
func RemoveID(list []models.WallSideCorrection, id string) ([]models.WallSideCorrection, bool) {
	out := make([]models.WallSideCorrection, 0, len(list))
	for _, c := range list {
		if c.ID == id {
			continue
		}
		out = append(out, c)
	}
	return out, len(out) != len(list)
}

// Decode parses a stored correction array. Malformed input is logged and
// treated as no corrections.
func Decode(data string, logger *zap.Logger) []models.WallSideCorrection {
	if data == "" {
		return nil
	}
	var list []models.WallSideCorrection
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		if logger != nil {
			logger.Warn("discarding malformed wall corrections", zap.Error(err), zap.Int("bytes", len(data)))
		}
		return nil
	}
	return list
}

func Encode(list []models.WallSideCorrection) (string, error) {
	if list == nil {
		list = []models.WallSideCorrection{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
