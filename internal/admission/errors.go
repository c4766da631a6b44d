// internal/admission/errors.go
package admission

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCellType           = errors.New("INVALID_CELL_TYPE")
	ErrScoreOutOfRange           = errors.New("SCORE_OUT_OF_RANGE")
	ErrRowCountMismatch          = errors.New("ROW_COUNT_MISMATCH")
	ErrExaminationNumberMismatch = errors.New("EXAMINATION_NUMBER_MISMATCH")
	ErrAlreadyAssigned           = errors.New("EXAMINATION_NUMBER_ALREADY_ASSIGNED")
	ErrInsufficientData          = errors.New("INSUFFICIENT_DATA")
	ErrInvalidTransition         = errors.New("INVALID_STATUS_TRANSITION")
)

// CellError locates one offending cell of an imported score sheet.
type CellError struct {
	Row    int    `json:"row"`    // zero-based grid row
	Column int    `json:"column"` // zero-based grid column
	Cell   string `json:"cell"`   // spreadsheet reference, e.g. "D5"
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// SheetError aggregates every cell problem found in a single pass.
type SheetError struct {
	Cells []CellError `json:"cells"`
}

func (e *SheetError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "score sheet has %d invalid cell(s):", len(e.Cells))
	for _, c := range e.Cells {
		fmt.Fprintf(&b, "\n- %s: %s", c.Cell, c.Reason)
	}
	return b.String()
}

// Is matches ErrInvalidCellType and ErrScoreOutOfRange when at least one
// cell of that kind is present.
func (e *SheetError) Is(target error) bool {
	for _, c := range e.Cells {
		if (target == ErrInvalidCellType && c.Kind == ErrInvalidCellType.Error()) ||
			(target == ErrScoreOutOfRange && c.Kind == ErrScoreOutOfRange.Error()) {
			return true
		}
	}
	return false
}

// Code returns the dominant error code; type errors win over range errors.
func (e *SheetError) Code() string {
	for _, c := range e.Cells {
		if c.Kind == ErrInvalidCellType.Error() {
			return c.Kind
		}
	}
	return ErrScoreOutOfRange.Error()
}

// CellName converts zero-based coordinates into a spreadsheet reference.
func CellName(row, col int) string {
	var name []byte
	for i := col; i >= 0; i = i/26 - 1 {
		name = append([]byte{byte('A' + i%26)}, name...)
	}
	return fmt.Sprintf("%s%d", name, row+1)
}
