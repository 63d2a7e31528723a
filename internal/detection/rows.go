package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// toleranceFactor scales the median detected radius into a vertical
// clustering tolerance. Bubbles of one question sit on a common baseline;
// anything displaced by more than a bubble-and-a-quarter belongs to the
// next row.
const toleranceFactor = 1.25

// minTolerance floors the adaptive tolerance for very small detections.
const minTolerance = 8.0

// GroupRows clusters detected bubbles into ordered question rows.
//
// Circles are sorted by vertical center; a new row starts whenever a center
// departs from the current row's anchor by more than the vertical tolerance.
// Within each row circles are ordered left to right. Row indices follow
// detection order (top to bottom), 0-based.
//
// A tolerance of zero or below selects the adaptive tolerance: the median of
// the detected radii scaled by a fixed factor, so clustering tracks the scan
// resolution instead of assuming one. Pass a positive tolerance to pin it.
func GroupRows(circles []Circle, tolerance float64) []Row {
	if len(circles) == 0 {
		return nil
	}

	if tolerance <= 0 {
		tolerance = adaptiveTolerance(circles)
	}

	sorted := make([]Circle, len(circles))
	copy(sorted, circles)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	rows := make([]Row, 0)
	anchorY := sorted[0].Y
	current := Row{Index: 0}

	for _, c := range sorted {
		if math.Abs(float64(c.Y-anchorY)) > tolerance {
			rows = append(rows, current)
			current = Row{Index: len(rows)}
			anchorY = c.Y
		}
		current.Regions = append(current.Regions, c)
	}
	rows = append(rows, current)

	for i := range rows {
		regions := rows[i].Regions
		sort.Slice(regions, func(a, b int) bool {
			return regions[a].Center().X < regions[b].Center().X
		})
	}
	return rows
}

// adaptiveTolerance derives the row-clustering tolerance from the detected
// bubble radii so it scales with scan resolution.
func adaptiveTolerance(circles []Circle) float64 {
	radii := make([]float64, len(circles))
	for i, c := range circles {
		radii[i] = float64(c.Radius)
	}
	sort.Float64s(radii)

	tol := toleranceFactor * stat.Quantile(0.5, stat.Empirical, radii, nil)
	if tol < minTolerance {
		tol = minTolerance
	}
	return tol
}
