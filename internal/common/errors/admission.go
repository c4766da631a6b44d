// internal/common/errors/admission.go
package errors

import (
	stderrors "errors"
	"time"

	"admission-workers/internal/admission"
)

var admissionCodes = []struct {
	sentinel error
	code     ErrorCode
	message  string
}{
	{admission.ErrRowCountMismatch, ErrCodeRowCountMismatch, "Score sheet row count does not match the first round passers"},
	{admission.ErrExaminationNumberMismatch, ErrCodeExaminationNumberMismatch, "Score sheet does not match the first round passers"},
	{admission.ErrAlreadyAssigned, ErrCodeExaminationNumberAssigned, "Examination number already assigned"},
	{admission.ErrInsufficientData, ErrCodeInsufficientData, "Selection input is incomplete"},
	{admission.ErrInvalidTransition, ErrCodeInvalidStatusTransition, "Status transition not allowed"},
}

// FromAdmission maps an error raised by the admission engine onto a
// non-retryable StandardError. Score sheet cell errors are attached as the
// "cellErrors" metadata entry. It returns nil for errors the engine did not
// raise.
func FromAdmission(err error) *StandardError {
	if err == nil {
		return nil
	}

	var sheetErr *admission.SheetError
	if stderrors.As(err, &sheetErr) {
		return newBusinessError(ErrorCode(sheetErr.Code()), "Score sheet contains invalid cells", err.Error()).
			WithMetadata("cellErrors", sheetErr.Cells)
	}

	for _, m := range admissionCodes {
		if stderrors.Is(err, m.sentinel) {
			return &StandardError{
				Code:      m.code,
				Message:   m.message,
				Details:   err.Error(),
				Retryable: false,
				Timestamp: time.Now().UTC(),
			}
		}
	}
	return nil
}
