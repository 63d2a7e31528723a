package omr

import (
	"image"

	"github.com/gradeworks/omr-engine/internal/detection"
)

// FillScore computes the fill density of one region: the fraction of its
// interior pixels that are foreground (marked) in the normalized binary
// image, in [0, 1].
//
// The region's interior is defined by its Contains test, so circles and
// cells score through the same code path. Interior pixels outside the image
// are ignored; a degenerate region with no interior pixels scores 0.
func FillScore(bin *image.Gray, region detection.Region) float64 {
	area := region.Bounds().Intersect(bin.Bounds())
	if area.Empty() {
		return 0
	}

	var inside, marked int
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if !region.Contains(x, y) {
				continue
			}
			inside++
			if bin.GrayAt(x, y).Y != 0 {
				marked++
			}
		}
	}

	if inside == 0 {
		return 0
	}
	return float64(marked) / float64(inside)
}

// RowScores computes the ordered fill scores of a row, one per region,
// truncated to at most limit slots (extra detections beyond the expected
// option count are noise). A limit of zero or below keeps all slots.
func RowScores(bin *image.Gray, row detection.Row, limit int) []float64 {
	regions := row.Regions
	if limit > 0 && len(regions) > limit {
		regions = regions[:limit]
	}

	scores := make([]float64, len(regions))
	for i, region := range regions {
		scores[i] = FillScore(bin, region)
	}
	return scores
}
