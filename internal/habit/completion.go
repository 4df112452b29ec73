package habit

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/gamification"
	"gorm.io/gorm"
)

var (
	ErrCompletionNotFound  = errors.New("no completion recorded for this day")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrInvalidCount        = errors.New("count must be at least 1")
	ErrInvalidNotes        = errors.New("notes must be at most 500 characters")
	ErrInvalidLevel        = errors.New("effort and satisfaction levels must be between 1 and 5")
	ErrInvalidSource       = errors.New("invalid completion source")
	ErrDuplicateCompletion = errors.New("a completion already exists for this day")
)

// RecordCompletion upserts the ledger row for (habit, day).
//
// An existing row has its count raised (capped at the habit's target) and only
// the explicitly supplied context fields overwritten, so replaying the same
// call is idempotent. A new row freezes streakAtCompletion and advances the
// habit's progress cache inside one transaction; the gamification award runs
// after commit and only for new rows.
func (s *Service) RecordCompletion(userID, habitID uuid.UUID, req RecordCompletionRequest) (*CompletionResponse, error) {
	h, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}
	if h.IsArchived {
		return nil, ErrHabitArchived
	}

	day := req.Date
	if day == "" {
		day = Today()
	}
	if _, err := ParseDay(day); err != nil {
		return nil, ErrInvalidDate
	}
	if req.Count < 1 {
		return nil, ErrInvalidCount
	}
	if err := validateContext(&req); err != nil {
		return nil, err
	}

	var row HabitCompletion
	created := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("habit_id = ? AND date = ?", habitID, day).First(&row).Error
		if findErr == nil {
			applyContext(&row, &req, h)
			row.CompletedAt = time.Now().UTC()
			return tx.Save(&row).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		streak, loadErr := s.streakWith(tx, h, day)
		if loadErr != nil {
			return loadErr
		}

		row = HabitCompletion{
			ID:                 uuid.New(),
			HabitID:            habitID,
			UserID:             userID,
			Date:               day,
			CompletedAt:        time.Now().UTC(),
			Count:              req.Count,
			TargetCount:        h.TargetCount,
			Source:             SourceManual,
			StreakAtCompletion: streak,
		}
		applyContext(&row, &req, h)

		if createErr := tx.Create(&row).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				// Lost a same-day race: the unique index makes the other
				// writer's insert win and this call becomes an update.
				if refetchErr := tx.Where("habit_id = ? AND date = ?", habitID, day).First(&row).Error; refetchErr != nil {
					return ErrDuplicateCompletion
				}
				applyContext(&row, &req, h)
				row.CompletedAt = time.Now().UTC()
				if saveErr := tx.Save(&row).Error; saveErr != nil {
					return saveErr
				}
				// The winner already advanced the progress cache; report
				// its values, not the ones loaded before the race.
				return tx.First(h, "id = ?", habitID).Error
			}
			return createErr
		}
		created = true

		h.TotalCompletions++
		h.CurrentStreak = streak
		if h.CurrentStreak > h.LongestStreak {
			h.LongestStreak = h.CurrentStreak
		}
		return tx.Save(h).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	if created {
		s.awardCompletion(userID, &row)
	}

	return &CompletionResponse{
		Completion:           row,
		CompletionPercentage: row.CompletionPercentage(),
		IsFullyCompleted:     row.IsFullyCompleted(),
		CurrentStreak:        h.CurrentStreak,
		LongestStreak:        h.LongestStreak,
		Created:              created,
	}, nil
}

// UndoCompletion deletes the day's ledger row and recomputes the streak from
// scratch; removing a link can affect the chain differently than a decrement.
// The recompute anchors at today, not at the deleted day: undoing an old
// completion must leave an intact recent chain alone.
func (s *Service) UndoCompletion(userID, habitID uuid.UUID, day, today string) (*Habit, error) {
	h, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}
	if day == "" {
		day = Today()
	}
	if _, err := ParseDay(day); err != nil {
		return nil, ErrInvalidDate
	}
	if today == "" {
		today = Today()
	}
	if _, err := ParseDay(today); err != nil {
		return nil, ErrInvalidDate
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("habit_id = ? AND date = ?", habitID, day).Delete(&HabitCompletion{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCompletionNotFound
		}

		if h.TotalCompletions > 0 {
			h.TotalCompletions--
		}

		remaining, loadErr := completedDays(tx, habitID)
		if loadErr != nil {
			return loadErr
		}
		h.CurrentStreak = CalculateStreak(h, remaining, today)
		return tx.Save(h).Error
	})
	if err != nil {
		if errors.Is(err, ErrCompletionNotFound) {
			return nil, ErrCompletionNotFound
		}
		return nil, fmt.Errorf("failed to undo completion: %w", err)
	}
	return h, nil
}

// streakWith computes the streak as it will stand once the given day is
// written. The day itself must be in the walked set: for a custom schedule
// the previous completion can sit several non-due days back, where an
// anchor-only check would see nothing on the day or its yesterday.
func (s *Service) streakWith(tx *gorm.DB, h *Habit, day string) (int, error) {
	days, err := completedDays(tx, h.ID)
	if err != nil {
		return 0, err
	}
	days[day] = true
	return CalculateStreak(h, days, day), nil
}

func completedDays(tx *gorm.DB, habitID uuid.UUID) (map[string]bool, error) {
	var rows []HabitCompletion
	if err := tx.Select("date").Where("habit_id = ?", habitID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load completion history: %w", err)
	}
	days := make(map[string]bool, len(rows))
	for _, r := range rows {
		days[r.Date] = true
	}
	return days, nil
}

// awardCompletion runs the gamification side effect. Failure is logged and
// reported but never rolls back the committed completion.
func (s *Service) awardCompletion(userID uuid.UUID, row *HabitCompletion) {
	if s.gamify == nil {
		return
	}
	_, err := s.gamify.AwardCompletion(userID, gamification.Award{
		StreakAtCompletion: row.StreakAtCompletion,
		EffortLevel:        row.EffortLevel,
		SatisfactionLevel:  row.SatisfactionLevel,
	})
	if err != nil {
		slog.Error("gamification award failed",
			"user_id", userID.String(),
			"habit_id", row.HabitID.String(),
			"error", err)
		sentry.CaptureException(err)
	}
}

func validateContext(req *RecordCompletionRequest) error {
	if req.Notes != nil && len(*req.Notes) > 500 {
		return ErrInvalidNotes
	}
	if req.MoodBefore != nil && !contains(Moods, *req.MoodBefore) {
		return ErrInvalidMood
	}
	if req.MoodAfter != nil && !contains(Moods, *req.MoodAfter) {
		return ErrInvalidMood
	}
	if req.EffortLevel != nil && (*req.EffortLevel < 1 || *req.EffortLevel > 5) {
		return ErrInvalidLevel
	}
	if req.SatisfactionLevel != nil && (*req.SatisfactionLevel < 1 || *req.SatisfactionLevel > 5) {
		return ErrInvalidLevel
	}
	if req.Source != nil && !contains(Sources, *req.Source) {
		return ErrInvalidSource
	}
	return nil
}

// applyContext caps the count at the habit's target and overwrites only the
// context fields the caller actually supplied.
func applyContext(row *HabitCompletion, req *RecordCompletionRequest, h *Habit) {
	row.Count = req.Count
	if row.Count > h.TargetCount {
		row.Count = h.TargetCount
	}
	if req.Notes != nil {
		row.Notes = *req.Notes
	}
	if req.MoodBefore != nil {
		row.MoodBefore = *req.MoodBefore
	}
	if req.MoodAfter != nil {
		row.MoodAfter = *req.MoodAfter
	}
	if req.EffortLevel != nil {
		row.EffortLevel = *req.EffortLevel
	}
	if req.SatisfactionLevel != nil {
		row.SatisfactionLevel = *req.SatisfactionLevel
	}
	if req.Source != nil {
		row.Source = *req.Source
	}
}
