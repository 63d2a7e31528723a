package omr

import "fmt"

// Policy selects the slot-classification rule of the decision engine.
type Policy int

const (
	// PolicyAbsolute marks a slot as filled when its density exceeds the
	// configured fill threshold. Used with shape-strategy bubbles, whose
	// interiors are either dark or clean.
	PolicyAbsolute Policy = iota

	// PolicyRelative compares slots against the row's darkest slot: rows
	// whose peak stays under the density floor read as unanswered, and any
	// slot above RelativeFactor times the peak counts as co-filled. This
	// tolerates scan noise in grid cells better than a pure max pick.
	PolicyRelative
)

// Decide maps the ordered fill scores of one row to a single verdict.
//
// It is a pure function; every failure mode is encoded in the verdict
// fields, never as an error. A nil or empty score list represents a row the
// localizer could not produce and yields an unanswered verdict with a
// distinguishing note.
func Decide(scores []float64, questionNumber int, policy Policy, cfg Config) Verdict {
	if len(scores) == 0 {
		return Verdict{
			QuestionNumber: questionNumber,
			Notes:          "Row not detected",
		}
	}

	if policy == PolicyRelative {
		return decideRelative(scores, questionNumber, cfg)
	}
	return decideAbsolute(scores, questionNumber, cfg)
}

func decideAbsolute(scores []float64, questionNumber int, cfg Config) Verdict {
	filled := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > cfg.FillThreshold {
			filled = append(filled, i+1)
		}
	}

	switch len(filled) {
	case 1:
		pos := filled[0]
		return Verdict{
			QuestionNumber: questionNumber,
			SelectedOption: fmt.Sprintf("%d", pos),
			Confidence:     scores[pos-1],
			Notes:          fmt.Sprintf("Clear fill at position %d", pos),
		}
	case 0:
		return Verdict{
			QuestionNumber: questionNumber,
			Notes:          "No answer selected",
		}
	default:
		return Verdict{
			QuestionNumber: questionNumber,
			Ambiguous:      true,
			Notes:          fmt.Sprintf("Multiple bubbles filled: %v", filled),
		}
	}
}

func decideRelative(scores []float64, questionNumber int, cfg Config) Verdict {
	maxScore := scores[0]
	maxPos := 1
	for i, s := range scores {
		if s > maxScore {
			maxScore = s
			maxPos = i + 1
		}
	}

	if maxScore < cfg.DensityFloor {
		return Verdict{
			QuestionNumber: questionNumber,
			Notes:          "No answer detected",
		}
	}

	filled := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > cfg.RelativeFactor*maxScore {
			filled = append(filled, i+1)
		}
	}

	if len(filled) > 1 {
		return Verdict{
			QuestionNumber: questionNumber,
			Ambiguous:      true,
			Notes:          fmt.Sprintf("Multiple marks at positions %v", filled),
		}
	}

	return Verdict{
		QuestionNumber: questionNumber,
		SelectedOption: fmt.Sprintf("%d", maxPos),
		Confidence:     maxScore,
		Notes:          fmt.Sprintf("Density %.2f at position %d", maxScore, maxPos),
	}
}
