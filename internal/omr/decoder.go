package omr

import (
	"fmt"
	"image"

	"github.com/gradeworks/omr-engine/internal/detection"
	"github.com/gradeworks/omr-engine/internal/imaging"
)

// Located is the output of the localization stages: organized question rows
// plus the binary surface fill densities are measured on. The remote
// classifier path consumes Located directly instead of DecodeSheet.
type Located struct {
	// Rows holds the organized question rows in detection order.
	Rows []detection.Row

	// Scoring is the binary image fill densities are measured against.
	Scoring *image.Gray

	// TotalRegions counts all located answer regions.
	TotalRegions int

	// GridRegions counts candidate grid blocks (grid strategy only).
	GridRegions int
}

// LocateRows runs normalization and region localization for the configured
// strategy and returns organized rows ready for scoring.
//
// Returns ErrNoRegions when the shape strategy finds no bubbles at all. The
// grid strategy never fails here: when no contour passes the block filters
// it degrades to the fixed-fraction fallback crop.
func LocateRows(img image.Image, questions int, cfg Config) (*Located, error) {
	cfg = cfg.withDefaults()

	if cfg.Strategy == StrategyGrid {
		return locateGridRows(img, questions, cfg)
	}
	return locateShapeRows(img, cfg)
}

func locateShapeRows(img image.Image, cfg Config) (*Located, error) {
	opts := cfg.Normalize
	opts.Mode = imaging.ModeShape
	bin := imaging.Normalize(img, opts)

	circles := detection.DetectCircles(bin, cfg.Circles)
	if len(circles) == 0 {
		return nil, ErrNoRegions
	}

	return &Located{
		Rows:         detection.GroupRows(circles, cfg.RowTolerance),
		Scoring:      bin,
		TotalRegions: len(circles),
	}, nil
}

func locateGridRows(img image.Image, questions int, cfg Config) (*Located, error) {
	opts := cfg.Normalize
	opts.Mode = imaging.ModeGrid
	bin := imaging.Normalize(img, opts)

	blocks := detection.DetectGridBlocks(bin, cfg.Grid)
	block, ok := detection.LargestBlock(blocks)
	if !ok {
		block = detection.FallbackBlock(img.Bounds(), cfg.Grid)
	}

	rows := detection.PartitionBlock(block, questions, cfg.OptionsPerQuestion, cfg.Grid)
	if len(rows) == 0 {
		return nil, ErrNoRegions
	}

	// Cells are scored against a fresh global threshold of the block alone:
	// the adaptive binarization above highlights printed borders, which
	// would pollute fill densities.
	gray := imaging.ToGray(img)
	scoring := imaging.BinarizeOtsu(gray.SubImage(block.Rect).(*image.Gray))

	total := 0
	for _, row := range rows {
		total += len(row.Regions)
	}

	return &Located{
		Rows:         rows,
		Scoring:      scoring,
		TotalRegions: total,
		GridRegions:  len(blocks),
	}, nil
}

// DecodeSheet decodes a whole answer sheet into exactly questions verdicts.
//
// The pipeline runs normalization, localization, per-slot fill scoring, and
// per-row decisions, then pads or truncates so the result always holds one
// verdict per expected question: extra detected rows are discarded, missing
// rows yield placeholder verdicts. The only errors are a non-positive
// question count and ErrNoRegions from localization.
func DecodeSheet(img image.Image, questions int, cfg Config) (*SheetResult, error) {
	if questions <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", questions)
	}
	cfg = cfg.withDefaults()

	located, err := LocateRows(img, questions, cfg)
	if err != nil {
		return nil, err
	}

	return ScoreLocated(located, questions, cfg), nil
}

// ScoreLocated runs fill scoring and the decision engine over already
// located rows, padding and truncating to exactly questions verdicts.
func ScoreLocated(located *Located, questions int, cfg Config) *SheetResult {
	cfg = cfg.withDefaults()

	policy := PolicyAbsolute
	if cfg.Strategy == StrategyGrid {
		policy = PolicyRelative
	}

	answers := make([]Verdict, 0, questions)
	for q := 1; q <= questions; q++ {
		if q-1 >= len(located.Rows) {
			answers = append(answers, Decide(nil, q, policy, cfg))
			continue
		}

		scores := RowScores(located.Scoring, located.Rows[q-1], cfg.OptionsPerQuestion)
		answers = append(answers, Decide(scores, q, policy, cfg))
	}

	return &SheetResult{
		Answers:       answers,
		TotalDetected: located.TotalRegions,
		RowsDetected:  len(located.Rows),
		GridRegions:   located.GridRegions,
	}
}

// withDefaults fills zero-valued tunables from DefaultConfig so a partially
// specified Config behaves sensibly.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.OptionsPerQuestion <= 0 {
		c.OptionsPerQuestion = def.OptionsPerQuestion
	}
	if c.FillThreshold == 0 {
		c.FillThreshold = def.FillThreshold
	}
	if c.DensityFloor == 0 {
		c.DensityFloor = def.DensityFloor
	}
	if c.RelativeFactor == 0 {
		c.RelativeFactor = def.RelativeFactor
	}
	if c.Circles == (detection.CircleParams{}) {
		c.Circles = def.Circles
	}
	if c.Grid == (detection.GridParams{}) {
		c.Grid = def.Grid
	}
	return c
}
