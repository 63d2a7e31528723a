package detection

import (
	"image"
	"sort"
)

// GridParams tunes grid-block detection and partitioning for the
// layout-inference strategy.
type GridParams struct {
	// MinAreaFraction and MaxAreaFraction bound the acceptable block size as
	// a fraction of the whole sheet area. An answer grid occupies a bounded,
	// non-trivial share of the page.
	MinAreaFraction float64 `yaml:"minAreaFraction"`
	MaxAreaFraction float64 `yaml:"maxAreaFraction"`

	// MinAspect and MaxAspect bound the width/height ratio of a block.
	// Answer blocks run in rows, so they are wider than tall.
	MinAspect float64 `yaml:"minAspect"`
	MaxAspect float64 `yaml:"maxAspect"`

	// MinWidth and MinHeight exclude printing artifacts in absolute pixels.
	MinWidth  int `yaml:"minWidth"`
	MinHeight int `yaml:"minHeight"`

	// TopMarginFraction and HeightFraction define the fixed crop used when
	// no contour passes the filters. The top of the sheet is reserved for
	// identification fields and skipped.
	TopMarginFraction float64 `yaml:"topMarginFraction"`
	HeightFraction    float64 `yaml:"heightFraction"`

	// RowsPerColumn is the question capacity of one column of the grid.
	// Question counts beyond it wrap into additional columns.
	RowsPerColumn int `yaml:"rowsPerColumn"`

	// LabelFraction is the leading share of each row reserved for the
	// printed question-number label, excluded from answer cells.
	LabelFraction float64 `yaml:"labelFraction"`
}

// DefaultGridParams returns the calibration for standard CSAT-style sheets.
func DefaultGridParams() GridParams {
	return GridParams{
		MinAreaFraction:   0.02,
		MaxAreaFraction:   0.5,
		MinAspect:         0.8,
		MaxAspect:         3.0,
		MinWidth:          200,
		MinHeight:         300,
		TopMarginFraction: 0.2,
		HeightFraction:    0.7,
		RowsPerColumn:     20,
		LabelFraction:     0.2,
	}
}

// Block is a candidate answer-grid region of the sheet.
type Block struct {
	Rect image.Rectangle `json:"rect"`

	// Area is the bounding-box area in square pixels.
	Area int `json:"area"`
}

// DetectGridBlocks finds candidate answer-grid blocks in a binarized sheet.
//
// Enclosed boundary contours are grouped by flood fill, reduced to bounding
// boxes, and filtered by area fraction, aspect ratio, and absolute size per
// GridParams. Results are ordered top-to-bottom, then left-to-right.
//
// An empty result is not a failure: the caller falls back to FallbackBlock.
func DetectGridBlocks(bin *image.Gray, p GridParams) []Block {
	bounds := bin.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	sheetArea := float64(width * height)
	if sheetArea == 0 {
		return nil
	}

	blocks := make([]Block, 0)
	for _, contour := range findContours(bin) {
		minX, minY := width, height
		maxX, maxY := 0, 0
		for _, pt := range contour {
			if pt.X < minX {
				minX = pt.X
			}
			if pt.X > maxX {
				maxX = pt.X
			}
			if pt.Y < minY {
				minY = pt.Y
			}
			if pt.Y > maxY {
				maxY = pt.Y
			}
		}

		w := maxX - minX + 1
		h := maxY - minY + 1
		area := w * h

		frac := float64(area) / sheetArea
		if frac < p.MinAreaFraction || frac > p.MaxAreaFraction {
			continue
		}
		if w < p.MinWidth || h < p.MinHeight {
			continue
		}
		aspect := float64(w) / float64(h)
		if aspect <= p.MinAspect || aspect >= p.MaxAspect {
			continue
		}

		blocks = append(blocks, Block{
			Rect: image.Rect(minX+bounds.Min.X, minY+bounds.Min.Y,
				maxX+1+bounds.Min.X, maxY+1+bounds.Min.Y),
			Area: area,
		})
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Rect.Min.Y != blocks[j].Rect.Min.Y {
			return blocks[i].Rect.Min.Y < blocks[j].Rect.Min.Y
		}
		return blocks[i].Rect.Min.X < blocks[j].Rect.Min.X
	})

	return blocks
}

// FallbackBlock returns the fixed-fraction crop used when no contour passes
// the grid filters: the full sheet width with the identification header
// excluded. Degraded but functional, never a failure. The crop is placed
// relative to bounds, so sub-images with a non-zero origin stay correct.
func FallbackBlock(bounds image.Rectangle, p GridParams) Block {
	top := bounds.Min.Y + int(float64(bounds.Dy())*p.TopMarginFraction)
	h := int(float64(bounds.Dy()) * p.HeightFraction)
	if top+h > bounds.Max.Y {
		h = bounds.Max.Y - top
	}
	return Block{
		Rect: image.Rect(bounds.Min.X, top, bounds.Max.X, top+h),
		Area: bounds.Dx() * h,
	}
}

// LargestBlock returns the block with the greatest area, preferring the main
// answer grid over incidental boxes. Returns false when blocks is empty.
func LargestBlock(blocks []Block) (Block, bool) {
	if len(blocks) == 0 {
		return Block{}, false
	}
	best := blocks[0]
	for _, b := range blocks[1:] {
		if b.Area > best.Area {
			best = b
		}
	}
	return best, true
}

// PartitionBlock divides a grid block into per-question rows of answer cells
// by arithmetic layout inference, with no shape detection involved.
//
// Questions fill the block top to bottom in columns of RowsPerColumn. Each
// row slice skips the leading LabelFraction reserved for the printed question
// number and splits the remainder into optionsPerQuestion equal-width cells.
// The returned rows are already organized: Row i holds question i+1.
func PartitionBlock(block Block, questions, optionsPerQuestion int, p GridParams) []Row {
	if questions <= 0 || optionsPerQuestion <= 0 {
		return nil
	}

	rowsPerColumn := p.RowsPerColumn
	if rowsPerColumn <= 0 {
		rowsPerColumn = questions
	}
	if rowsPerColumn > questions {
		rowsPerColumn = questions
	}
	columns := (questions + rowsPerColumn - 1) / rowsPerColumn

	blockW := block.Rect.Dx()
	blockH := block.Rect.Dy()
	columnW := blockW / columns
	rowH := blockH / rowsPerColumn
	if columnW <= 0 || rowH <= 0 {
		return nil
	}

	rows := make([]Row, 0, questions)
	for q := 0; q < questions; q++ {
		column := q / rowsPerColumn
		rowInColumn := q % rowsPerColumn

		colX := block.Rect.Min.X + column*columnW
		rowY := block.Rect.Min.Y + rowInColumn*rowH
		if rowY+rowH > block.Rect.Max.Y {
			rowY = block.Rect.Max.Y - rowH
		}

		// The leading slice of the row holds the printed question number.
		labelW := int(float64(columnW) * p.LabelFraction)
		answerX := colX + labelW
		cellW := (columnW - labelW) / optionsPerQuestion
		if cellW <= 0 {
			rows = append(rows, Row{Index: q})
			continue
		}

		regions := make([]Region, 0, optionsPerQuestion)
		for pos := 0; pos < optionsPerQuestion; pos++ {
			x := answerX + pos*cellW
			regions = append(regions, Cell{
				Rect: image.Rect(x, rowY, x+cellW, rowY+rowH),
			})
		}
		rows = append(rows, Row{Index: q, Regions: regions})
	}
	return rows
}

// findContours groups connected foreground pixels into contours using
// iterative flood fill with 8-connectivity. Contours below 10 pixels are
// discarded as noise. Coordinates are relative to the image origin.
func findContours(bin *image.Gray) [][]Point {
	bounds := bin.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	fg := func(x, y int) bool {
		return bin.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y != 0
	}

	contours := make([][]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg(x, y) || visited[y][x] {
				continue
			}

			contour := make([]Point, 0)
			stack := []Point{{X: x, Y: y}}
			for len(stack) > 0 {
				pt := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				if pt.X < 0 || pt.X >= width || pt.Y < 0 || pt.Y >= height {
					continue
				}
				if visited[pt.Y][pt.X] || !fg(pt.X, pt.Y) {
					continue
				}

				visited[pt.Y][pt.X] = true
				contour = append(contour, pt)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, Point{X: pt.X + dx, Y: pt.Y + dy})
					}
				}
			}

			if len(contour) >= 10 {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}
