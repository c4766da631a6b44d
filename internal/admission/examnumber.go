// internal/admission/examnumber.go
package admission

import (
	"fmt"
	"sync"

	"admission-workers/internal/models"
)

// DefaultExaminationNumberBases gives each category its own block of
// numbers so that examination numbers are unique across the whole cycle.
var DefaultExaminationNumberBases = map[models.Category]int64{
	models.CategoryRegular:                   1000,
	models.CategoryMeisterTalent:             2000,
	models.CategorySocialIntegration:         3000,
	models.CategoryNationalVeteransEducation: 4000,
	models.CategorySpecialAdmission:          5000,
}

// Assigner issues per-category sequential examination numbers.
type Assigner struct {
	bases map[models.Category]int64
}

// NewAssigner returns an assigner numbering each category after its base.
// A nil map numbers every category from 1.
func NewAssigner(bases map[models.Category]int64) *Assigner {
	return &Assigner{bases: bases}
}

// Assign returns the next number for the application's category given the
// highest number already issued there. It does not modify app.
func (a *Assigner) Assign(app *models.Application, currentMax int64) (int64, error) {
	if app.HasExaminationNumber() {
		return 0, fmt.Errorf("%w: application %s already has examination number %d",
			ErrAlreadyAssigned, app.ID, *app.ExaminationNumber)
	}
	if !app.Category.Valid() {
		return 0, fmt.Errorf("%w: application %s has no category", ErrInsufficientData, app.ID)
	}

	next := currentMax
	if base := a.bases[app.Category]; base > next {
		next = base
	}
	return next + 1, nil
}

// CategoryLocks hands out one mutex per category so that read-then-write of
// the examination number counter is serialized within a process.
type CategoryLocks struct {
	mu    sync.Mutex
	locks map[models.Category]*sync.Mutex
}

func NewCategoryLocks() *CategoryLocks {
	return &CategoryLocks{locks: make(map[models.Category]*sync.Mutex)}
}

// Lock blocks until the category is free and returns its unlock function.
func (l *CategoryLocks) Lock(c models.Category) func() {
	l.mu.Lock()
	m, ok := l.locks[c]
	if !ok {
		m = &sync.Mutex{}
		l.locks[c] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
