package omr

import "errors"

// ErrNoRegions reports that localization found no usable answer regions at
// all. It is the single hard failure past input decoding: no meaningful
// verdicts can be produced, so no partial result accompanies it.
var ErrNoRegions = errors.New("no answer regions detected")

// Verdict is the decoded outcome for one question.
//
// Invariants maintained by the decision engine:
//   - Ambiguous implies SelectedOption == "" and Confidence == 0.
//   - SelectedOption is the 1-based slot position as a label, or "" when no
//     single answer can be attributed.
type Verdict struct {
	// QuestionNumber is 1-based.
	QuestionNumber int `json:"questionNumber"`

	// SelectedOption is the chosen slot label ("1".."5"), or empty.
	SelectedOption string `json:"selectedOption"`

	// Confidence is the fill density of the selected slot, in [0, 1].
	Confidence float64 `json:"confidence"`

	// Ambiguous reports that more than one slot appeared marked.
	Ambiguous bool `json:"ambiguous"`

	// Notes is a human-readable account of how the verdict was reached.
	Notes string `json:"notes"`
}

// SheetResult is the decoded outcome for a whole sheet. Answers always holds
// exactly the requested question count, in ascending question order, however
// much of the sheet was actually located.
type SheetResult struct {
	Answers []Verdict `json:"answers"`

	// TotalDetected counts the answer regions the localizer produced.
	TotalDetected int `json:"totalDetected"`

	// RowsDetected counts the organized question rows.
	RowsDetected int `json:"rowsDetected"`

	// GridRegions counts candidate grid blocks (grid strategy only).
	GridRegions int `json:"gridRegions,omitempty"`
}
