package cleanup

import "wallgraph/internal/importer/models"

// FilterLayers keeps segments whose layer is selected, preserving order.
// An empty selection yields an empty result.
func FilterLayers(segments []models.Segment, layers []string) []models.Segment {
	selected := make(map[string]struct{}, len(layers))
	for _, l := range layers {
		selected[l] = struct{}{}
	}

	out := make([]models.Segment, 0, len(segments))
	for _, s := range segments {
		if _, ok := selected[s.Layer]; ok {
			out = append(out, s)
		}
	}
	return out
}
