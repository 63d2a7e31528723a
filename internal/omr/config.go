package omr

import (
	"github.com/gradeworks/omr-engine/internal/detection"
	"github.com/gradeworks/omr-engine/internal/imaging"
)

// Strategy selects how answer regions are localized on the sheet.
type Strategy string

const (
	// StrategyShape locates individual bubbles with the Hough circle
	// transform and clusters them into rows.
	StrategyShape Strategy = "shape"

	// StrategyGrid infers the answer layout from a detected (or assumed)
	// grid block and partitions it arithmetically.
	StrategyGrid Strategy = "grid"
)

// Config carries every tunable of the decoding pipeline. The engine reads
// no ambient state: callers pass a Config per invocation, typically starting
// from DefaultConfig.
type Config struct {
	// Strategy selects the region localizer. Default StrategyShape.
	Strategy Strategy `yaml:"strategy"`

	// OptionsPerQuestion is the number of answer slots per question row.
	OptionsPerQuestion int `yaml:"optionsPerQuestion"`

	// FillThreshold is the absolute fill density above which a slot counts
	// as marked under PolicyAbsolute.
	FillThreshold float64 `yaml:"fillThreshold"`

	// DensityFloor is the minimum peak density under PolicyRelative; rows
	// whose darkest slot stays below it read as unanswered outright.
	DensityFloor float64 `yaml:"densityFloor"`

	// RelativeFactor marks a slot as co-filled under PolicyRelative when its
	// density exceeds RelativeFactor times the row maximum, so near-tied
	// dark slots surface as ambiguous instead of a max-pick guess.
	RelativeFactor float64 `yaml:"relativeFactor"`

	// RowTolerance is the vertical clustering tolerance in pixels for the
	// shape strategy. Zero or below derives it from the detected bubble
	// radii, which tracks scan resolution.
	RowTolerance float64 `yaml:"rowTolerance"`

	// Circles tunes the Hough bubble search (shape strategy).
	Circles detection.CircleParams `yaml:"circles"`

	// Grid tunes block detection and partitioning (grid strategy).
	Grid detection.GridParams `yaml:"grid"`

	// Normalize tunes the strategy-appropriate normalization chain. Mode is
	// overridden by the decoder to match Strategy.
	Normalize imaging.NormalizeOptions `yaml:"normalize"`
}

// DefaultConfig returns the calibration used for 45-question CSAT-style
// sheets scanned around 150 DPI.
func DefaultConfig() Config {
	return Config{
		Strategy:           StrategyShape,
		OptionsPerQuestion: 5,
		FillThreshold:      0.5,
		DensityFloor:       0.1,
		RelativeFactor:     0.7,
		RowTolerance:       0,
		Circles:            detection.DefaultCircleParams(),
		Grid:               detection.DefaultGridParams(),
	}
}
