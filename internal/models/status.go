// internal/models/status.go
package models

// FormStatus tracks a form through both selection rounds.
type FormStatus string

const (
	StatusSubmitted    FormStatus = "SUBMITTED"
	StatusRejected     FormStatus = "REJECTED"
	StatusReceived     FormStatus = "RECEIVED"
	StatusFirstPassed  FormStatus = "FIRST_PASSED"
	StatusFirstFailed  FormStatus = "FIRST_FAILED"
	StatusNoShow       FormStatus = "NO_SHOW"
	StatusSecondPassed FormStatus = "SECOND_PASSED"
	StatusSecondFailed FormStatus = "SECOND_FAILED"
	StatusEntered      FormStatus = "ENTERED"
)

var transitions = map[FormStatus][]FormStatus{
	StatusSubmitted:    {StatusReceived, StatusRejected},
	StatusRejected:     {StatusSubmitted},
	StatusReceived:     {StatusFirstPassed, StatusFirstFailed, StatusRejected},
	StatusFirstPassed:  {StatusSecondPassed, StatusSecondFailed, StatusNoShow},
	StatusSecondPassed: {StatusEntered},
}

func (s FormStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusRejected, StatusReceived,
		StatusFirstPassed, StatusFirstFailed, StatusNoShow,
		StatusSecondPassed, StatusSecondFailed, StatusEntered:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to FormStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
