// internal/selection/service.go
package selection

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/admission"
	"admission-workers/internal/common/database"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"
	"admission-workers/internal/models"
	"admission-workers/internal/repository"

	"github.com/google/uuid"
)

// Redis keys guarding the batch steps. Markers never expire: a round is
// selected once per admission cycle.
const (
	FirstPassLockKey    = "admission:lock:first-pass"
	FirstPassMarkerKey  = "admission:done:first-pass"
	SecondPassLockKey   = "admission:lock:second-pass"
	SecondPassMarkerKey = "admission:done:second-pass"
	ScoreImportLockKey  = "admission:lock:second-round-score"
)

const (
	RoundFirst  = "first"
	RoundSecond = "second"
)

// Summary reports one selection run.
type Summary struct {
	RunID       string                        `json:"runId"`
	Round       string                        `json:"round"`
	DryRun      bool                          `json:"dryRun"`
	Candidates  int                           `json:"candidates"`
	PassedCount int                           `json:"passedCount"`
	FailedCount int                           `json:"failedCount"`
	Unselected  int                           `json:"unselectedCount"`
	Categories  []admission.CategorySelection `json:"categories"`
	CompletedAt string                        `json:"completedAt"`
}

// CategoryCount is the per-category digest handed back to the process.
type CategoryCount struct {
	Category            string `json:"category"`
	Label               string `json:"label"`
	Candidates          int    `json:"candidates"`
	Target              int    `json:"target"`
	RegionalCap         int    `json:"regionalCap"`
	Admitted            int    `json:"admitted"`
	OtherRegionAdmitted int    `json:"otherRegionAdmitted"`
	Deferred            int    `json:"deferred"`
	Failed              int    `json:"failed"`
}

// Counts drops the id lists of the summary.
func (s *Summary) Counts() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, CategoryCount{
			Category:            string(c.Category),
			Label:               c.Category.Label(),
			Candidates:          c.Candidates,
			Target:              c.Target,
			RegionalCap:         c.RegionalCap,
			Admitted:            c.Admitted,
			OtherRegionAdmitted: c.OtherRegionAdmitted,
			Deferred:            len(c.Deferred),
			Failed:              len(c.Failed),
		})
	}
	return out
}

// ImportSummary reports one second-round score sheet import.
type ImportSummary struct {
	Rows        int    `json:"rows"`
	Present     int    `json:"present"`
	NoShow      int    `json:"noShow"`
	CompletedAt string `json:"completedAt"`
}

// Service runs the batch steps of an admission cycle on top of the
// repository transaction and the Redis batch lock.
type Service struct {
	repo    *repository.Applications
	redis   *database.RedisClient
	quota   admission.QuotaConfig
	lockTTL time.Duration
	logger  logger.Logger
	now     func() time.Time
}

type Options struct {
	Repository *repository.Applications
	Redis      *database.RedisClient
	Quota      admission.QuotaConfig
	LockTTL    time.Duration
	Logger     logger.Logger
}

func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:    opts.Repository,
		redis:   opts.Redis,
		quota:   opts.Quota,
		lockTTL: ttl,
		logger:  log,
		now:     time.Now,
	}
}

// SelectFirstPass selects first-round passers among RECEIVED forms and moves
// them to FIRST_PASSED in one transaction. Everyone else stays RECEIVED;
// failing them is not part of this step. A dry run only reads and computes.
func (s *Service) SelectFirstPass(ctx context.Context, dryRun bool) (*Summary, error) {
	if dryRun {
		records, err := s.repo.ListByStatus(ctx, models.StatusReceived)
		if err != nil {
			return nil, errors.FromQuery("list received applications", err)
		}
		result, err := admission.SelectFirstPass(records, s.quota)
		if err != nil {
			return nil, err
		}
		return s.summarize(RoundFirst, true, len(records), result, nil), nil
	}

	var summary *Summary
	err := s.exclusively(ctx, FirstPassLockKey, FirstPassMarkerKey, errors.ErrCodeFirstPassAlreadySelected, func(runID string) error {
		return s.repo.WithTx(ctx, func(tx *repository.Tx) error {
			records, err := tx.LockByStatus(ctx, models.StatusReceived)
			if err != nil {
				return errors.FromQuery("lock received applications", err)
			}

			result, err := admission.SelectFirstPass(records, s.quota)
			if err != nil {
				return err
			}
			if err := tx.UpdateStatus(ctx, result.PassedIDs(), models.StatusReceived, models.StatusFirstPassed); err != nil {
				return errors.FromQuery("mark first round passers", err)
			}

			summary = s.summarize(RoundFirst, false, len(records), result, nil)
			summary.RunID = runID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(summary)
	return summary, nil
}

// SelectSecondPass decides SECOND_PASSED and SECOND_FAILED among
// FIRST_PASSED forms that carry a total score.
func (s *Service) SelectSecondPass(ctx context.Context, dryRun bool) (*Summary, error) {
	if dryRun {
		records, err := s.repo.ListByStatus(ctx, models.StatusFirstPassed)
		if err != nil {
			return nil, errors.FromQuery("list first round passers", err)
		}
		result, err := admission.SelectSecondPass(records, s.quota)
		if err != nil {
			return nil, err
		}
		return s.summarize(RoundSecond, true, len(records), result, result.FailedIDs()), nil
	}

	var summary *Summary
	err := s.exclusively(ctx, SecondPassLockKey, SecondPassMarkerKey, errors.ErrCodeSecondPassAlreadySelected, func(runID string) error {
		return s.repo.WithTx(ctx, func(tx *repository.Tx) error {
			records, err := tx.LockByStatus(ctx, models.StatusFirstPassed)
			if err != nil {
				return errors.FromQuery("lock first round passers", err)
			}

			result, err := admission.SelectSecondPass(records, s.quota)
			if err != nil {
				return err
			}

			if err := tx.UpdateStatus(ctx, result.PassedIDs(), models.StatusFirstPassed, models.StatusSecondPassed); err != nil {
				return errors.FromQuery("mark second round passers", err)
			}
			if err := tx.UpdateStatus(ctx, result.FailedIDs(), models.StatusFirstPassed, models.StatusSecondFailed); err != nil {
				return errors.FromQuery("mark second round failures", err)
			}

			summary = s.summarize(RoundSecond, false, len(records), result, result.FailedIDs())
			summary.RunID = runID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(summary)
	return summary, nil
}

// ImportSecondRound validates the score sheet against the FIRST_PASSED
// snapshot and stores scores or NO_SHOW for every applicant at once.
func (s *Service) ImportSecondRound(ctx context.Context, grid admission.Grid) (*ImportSummary, error) {
	lock, err := s.acquire(ctx, ScoreImportLockKey)
	if err != nil {
		return nil, err
	}
	defer s.release(lock)

	summary := &ImportSummary{}
	err = s.repo.WithTx(ctx, func(tx *repository.Tx) error {
		records, err := tx.LockByStatus(ctx, models.StatusFirstPassed)
		if err != nil {
			return errors.FromQuery("lock first round passers", err)
		}

		rows, err := admission.ParseScoreSheet(grid, len(records), s.quota)
		if err != nil {
			countCellErrors(err)
			return err
		}

		updated, err := admission.ApplySecondRound(records, rows)
		if err != nil {
			return err
		}

		for _, app := range updated {
			if err := tx.SaveSecondRound(ctx, app); err != nil {
				return errors.FromQuery("save second round score", err)
			}
			if app.Status == models.StatusNoShow {
				summary.NoShow++
			} else {
				summary.Present++
			}
		}
		summary.Rows = len(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.CompletedAt = s.now().UTC().Format(time.RFC3339)
	s.logger.Info("second round scores imported", map[string]interface{}{
		"rows":    summary.Rows,
		"present": summary.Present,
		"noShow":  summary.NoShow,
	})
	return summary, nil
}

// exclusively runs fn under the batch lock unless the round's marker is
// already set. The marker is written only after fn succeeds.
func (s *Service) exclusively(ctx context.Context, lockKey, markerKey string, doneCode errors.ErrorCode, fn func(runID string) error) error {
	if err := s.checkMarker(ctx, markerKey, doneCode); err != nil {
		return err
	}

	lock, err := s.acquire(ctx, lockKey)
	if err != nil {
		return err
	}
	defer s.release(lock)

	// Another run may have finished between the first check and the lock.
	if err := s.checkMarker(ctx, markerKey, doneCode); err != nil {
		return err
	}

	runID := uuid.New().String()
	if err := fn(runID); err != nil {
		return err
	}

	if err := s.redis.SetMarker(ctx, markerKey, runID); err != nil {
		s.logger.Error("selection committed but completion marker was not written", map[string]interface{}{
			"marker": markerKey,
			"runId":  runID,
			"error":  err.Error(),
		})
	}
	return nil
}

func (s *Service) checkMarker(ctx context.Context, markerKey string, doneCode errors.ErrorCode) error {
	runID, done, err := s.redis.Marker(ctx, markerKey)
	if err != nil {
		return errors.NewLockFailedError(err)
	}
	if done {
		return errors.NewSelectionAlreadyDoneError(doneCode, fmt.Sprintf("completed by run %s", runID))
	}
	return nil
}

func (s *Service) acquire(ctx context.Context, key string) (*database.Lock, error) {
	lock, err := s.redis.AcquireLock(ctx, key, s.lockTTL)
	if stderrors.Is(err, database.ErrLockHeld) {
		return nil, errors.NewSelectionLockedError(key)
	}
	if err != nil {
		return nil, errors.NewLockFailedError(err)
	}
	return lock, nil
}

func (s *Service) release(lock *database.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lock.Release(ctx); err != nil {
		s.logger.Warn("failed to release batch lock", map[string]interface{}{
			"lock":  lock.Key(),
			"error": err.Error(),
		})
	}
}

// summarize counts the snapshot. Records neither passed nor failed keep
// their status and are reported as unselected.
func (s *Service) summarize(round string, dryRun bool, candidates int, result *admission.SelectionResult, failed []string) *Summary {
	passed := result.TotalPassed()
	return &Summary{
		Round:       round,
		DryRun:      dryRun,
		Candidates:  candidates,
		PassedCount: passed,
		FailedCount: len(failed),
		Unselected:  candidates - passed - len(failed),
		Categories:  result.Categories,
		CompletedAt: s.now().UTC().Format(time.RFC3339),
	}
}

func (s *Service) record(summary *Summary) {
	for _, c := range summary.Categories {
		label := strings.ToLower(string(c.Category))
		metrics.SelectionAdmitted.WithLabelValues(summary.Round, label).Set(float64(c.Admitted))
		metrics.SelectionDeferred.WithLabelValues(summary.Round, label).Set(float64(len(c.Deferred)))
	}
	s.logger.Info("selection completed", map[string]interface{}{
		"runId":      summary.RunID,
		"round":      summary.Round,
		"candidates": summary.Candidates,
		"passed":     summary.PassedCount,
		"failed":     summary.FailedCount,
		"unselected": summary.Unselected,
	})
}

func countCellErrors(err error) {
	var sheetErr *admission.SheetError
	if !stderrors.As(err, &sheetErr) {
		return
	}
	for _, c := range sheetErr.Cells {
		metrics.SheetCellErrors.WithLabelValues(c.Kind).Inc()
	}
}
