package detection

import (
	"image"
	"math"
	"sort"
)

// CircleParams tunes the Hough bubble search.
//
// The parameters trade recall for precision: tighter radius bounds and a
// higher sensitivity reject print noise but may miss lightly printed bubbles.
type CircleParams struct {
	// MinRadius and MaxRadius bound the search space in pixels.
	// Matched to the expected print resolution of the sheet.
	MinRadius int `yaml:"minRadius"`
	MaxRadius int `yaml:"maxRadius"`

	// MinDistance is the minimum center-to-center distance between two
	// reported bubbles. Calibrated to slightly less than the expected bubble
	// pitch so adjacent bubbles stay separate but a bubble is never reported
	// twice.
	MinDistance int `yaml:"minDistance"`

	// Sensitivity is the fraction of the expected accumulator support a
	// candidate center must collect before it is reported. Range (0, 1].
	Sensitivity float64 `yaml:"sensitivity"`
}

// DefaultCircleParams returns the calibration used for 150 DPI answer sheets.
func DefaultCircleParams() CircleParams {
	return CircleParams{
		MinRadius:   10,
		MaxRadius:   40,
		MinDistance: 20,
		Sensitivity: 0.6,
	}
}

// DetectCircles locates circular answer bubbles in a binarized sheet using a
// Hough circle transform.
//
// The input must be a normalized binary image where marked content is
// foreground (value 255); see the imaging package for the polarity convention.
// The returned set is unordered and may be empty; an empty set means no
// answer area was found and is treated as a hard failure by the orchestrator.
//
// # Algorithm
//
//  1. Boundary Extraction: foreground pixels with at least one background
//     4-neighbor form the edge set. A filled bubble contributes its outline.
//  2. Accumulator Voting: for each candidate radius, every edge pixel votes
//     for potential centers at 10° steps around itself.
//  3. Peak Detection: local maxima whose votes exceed
//     Sensitivity × (number of voting directions) become candidates.
//  4. Duplicate Suppression: candidates are sorted by votes and greedily
//     kept only when farther than MinDistance from every kept center.
func DetectCircles(bin *image.Gray, p CircleParams) []Circle {
	bounds := bin.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 || p.MinRadius <= 0 || p.MaxRadius < p.MinRadius {
		return nil
	}

	edges := boundaryPixels(bin)
	if len(edges) == 0 {
		return nil
	}

	const angleStep = 10
	directions := 360 / angleStep

	candidates := make([]Circle, 0)

	for radius := p.MinRadius; radius <= p.MaxRadius; radius++ {
		accumulator := make([][]int, height)
		for y := 0; y < height; y++ {
			accumulator[y] = make([]int, width)
		}

		// Vote for circle centers around every boundary pixel.
		for _, e := range edges {
			for angle := 0; angle < 360; angle += angleStep {
				rad := float64(angle) * math.Pi / 180
				cx := e.X - int(math.Round(float64(radius)*math.Cos(rad)))
				cy := e.Y - int(math.Round(float64(radius)*math.Sin(rad)))
				if cx >= 0 && cx < width && cy >= 0 && cy < height {
					accumulator[cy][cx]++
				}
			}
		}

		// A complete circle places roughly one vote per sampled direction
		// on its true center.
		threshold := int(float64(directions) * p.Sensitivity)
		if threshold < 1 {
			threshold = 1
		}

		for y := radius; y < height-radius; y++ {
			for x := radius; x < width-radius; x++ {
				votes := accumulator[y][x]
				if votes < threshold {
					continue
				}

				// Keep only local maxima so one bubble yields one candidate
				// per radius.
				isMax := true
				for dy := -5; dy <= 5 && isMax; dy++ {
					for dx := -5; dx <= 5 && isMax; dx++ {
						if dy == 0 && dx == 0 {
							continue
						}
						ny, nx := y+dy, x+dx
						if ny >= 0 && ny < height && nx >= 0 && nx < width {
							if accumulator[ny][nx] > votes {
								isMax = false
							}
						}
					}
				}

				if isMax {
					candidates = append(candidates, Circle{
						X:      x + bounds.Min.X,
						Y:      y + bounds.Min.Y,
						Radius: radius,
						Votes:  votes,
					})
				}
			}
		}
	}

	return suppressClose(candidates, p.MinDistance)
}

// boundaryPixels returns the foreground pixels that touch the background.
// 4-connectivity; image border pixels count their out-of-bounds side as
// background, so blobs clipped by the frame still produce a boundary.
func boundaryPixels(bin *image.Gray) []Point {
	bounds := bin.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := make([]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if bin.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y == 0 {
				continue
			}
			if x == 0 || y == 0 || x == width-1 || y == height-1 ||
				bin.GrayAt(x-1+bounds.Min.X, y+bounds.Min.Y).Y == 0 ||
				bin.GrayAt(x+1+bounds.Min.X, y+bounds.Min.Y).Y == 0 ||
				bin.GrayAt(x+bounds.Min.X, y-1+bounds.Min.Y).Y == 0 ||
				bin.GrayAt(x+bounds.Min.X, y+1+bounds.Min.Y).Y == 0 {
				edges = append(edges, Point{X: x, Y: y})
			}
		}
	}
	return edges
}

// suppressClose removes candidates whose center lies within minDist of an
// already kept, better supported candidate. Candidates are ranked by vote
// count so the strongest detection of each bubble survives.
func suppressClose(candidates []Circle, minDist int) []Circle {
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Votes > candidates[j].Votes
	})

	kept := make([]Circle, 0, len(candidates))
	for _, c := range candidates {
		tooClose := false
		for _, k := range kept {
			dx := float64(c.X - k.X)
			dy := float64(c.Y - k.Y)
			if math.Sqrt(dx*dx+dy*dy) < float64(minDist) {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, c)
		}
	}
	return kept
}
