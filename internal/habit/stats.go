package habit

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/scope"
)

type WeeklyBucket struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Actual   int    `json:"actual"`
	Expected int    `json:"expected"`
	// Rate is deliberately unclamped: over-completion reads above 100.
	Rate int `json:"rate"`
}

type HabitStatistics struct {
	HabitID             uuid.UUID      `json:"habit_id"`
	WindowDays          int            `json:"window_days"`
	TotalCompletions    int            `json:"total_completions"`
	AverageEffort       float64        `json:"average_effort"`
	AverageSatisfaction float64        `json:"average_satisfaction"`
	DayOfWeekHistogram  map[string]int `json:"day_of_week_histogram"`
	MonthlyHistogram    map[string]int `json:"monthly_histogram"`
	TimeOfDayPattern    map[string]int `json:"time_of_day_pattern"`
	WeeklyBuckets       []WeeklyBucket `json:"weekly_buckets"`
}

type CalendarDay struct {
	Date           string `json:"date"`
	DueHabits      int    `json:"due_habits"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completion_rate"`
}

type DashboardSummary struct {
	Date             string `json:"date"`
	DueToday         int    `json:"due_today"`
	CompletedToday   int    `json:"completed_today"`
	WeeklyRate       int    `json:"weekly_rate"`
	TopStreakHabit   *Habit `json:"top_streak_habit"`
	WeeklyPoints     int    `json:"weekly_points"`
	ActiveHabits     int    `json:"active_habits"`
	WeekCompletions  int    `json:"week_completions"`
	WeekExpectations int    `json:"week_expectations"`
}

// Statistics summarizes one habit's trailing window. Missing history is never
// an error; every aggregate degrades to zero or an empty bucket.
func (s *Service) Statistics(userID, habitID uuid.UUID, windowDays int, today string) (*HabitStatistics, error) {
	h, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}
	if _, err := ParseDay(today); err != nil {
		return nil, ErrInvalidDate
	}
	if windowDays < 7 {
		windowDays = 7
	}
	if windowDays > 365 {
		windowDays = 365
	}

	start := AddDays(today, -(windowDays - 1))
	var rows []HabitCompletion
	if err := s.db.Where("habit_id = ? AND date >= ? AND date <= ?", habitID, start, today).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}

	stats := &HabitStatistics{
		HabitID:            habitID,
		WindowDays:         windowDays,
		TotalCompletions:   len(rows),
		DayOfWeekHistogram: map[string]int{},
		MonthlyHistogram:   map[string]int{},
		TimeOfDayPattern:   map[string]int{"morning": 0, "afternoon": 0, "evening": 0, "night": 0},
		WeeklyBuckets:      []WeeklyBucket{},
	}
	for _, d := range Weekdays {
		stats.DayOfWeekHistogram[d] = 0
	}

	effortSum, effortN := 0, 0
	satisfactionSum, satisfactionN := 0, 0
	byDate := make(map[string]bool, len(rows))

	for _, r := range rows {
		byDate[r.Date] = true
		stats.DayOfWeekHistogram[WeekdayName(r.Date)]++
		if len(r.Date) >= 7 {
			stats.MonthlyHistogram[r.Date[:7]]++
		}
		if r.EffortLevel > 0 {
			effortSum += r.EffortLevel
			effortN++
		}
		if r.SatisfactionLevel > 0 {
			satisfactionSum += r.SatisfactionLevel
			satisfactionN++
		}
		switch hour := r.CompletedAt.Hour(); {
		case hour >= 5 && hour < 12:
			stats.TimeOfDayPattern["morning"]++
		case hour >= 12 && hour < 17:
			stats.TimeOfDayPattern["afternoon"]++
		case hour >= 17 && hour < 21:
			stats.TimeOfDayPattern["evening"]++
		default:
			stats.TimeOfDayPattern["night"]++
		}
	}
	stats.AverageEffort = roundTenth(effortSum, effortN)
	stats.AverageSatisfaction = roundTenth(satisfactionSum, satisfactionN)

	// Consecutive 7-day spans, oldest to newest; the last span may be short.
	expected := h.ExpectedPerWeek()
	for offset := 0; offset < windowDays; offset += 7 {
		bucketStart := AddDays(start, offset)
		bucketEnd := AddDays(start, offset+6)
		if bucketEnd > today {
			bucketEnd = today
		}
		actual := 0
		for day := bucketStart; day <= bucketEnd; day = AddDays(day, 1) {
			if byDate[day] {
				actual++
			}
		}
		bucket := WeeklyBucket{Start: bucketStart, End: bucketEnd, Actual: actual, Expected: expected}
		if expected > 0 {
			bucket.Rate = int(math.Round(float64(actual) / float64(expected) * 100))
		}
		stats.WeeklyBuckets = append(stats.WeeklyBuckets, bucket)
	}

	return stats, nil
}

// Calendar aggregates per-day due/completed counts for the inclusive range.
// Storage is queried once for the whole range, never per day.
func (s *Service) Calendar(userID uuid.UUID, start, end string) ([]CalendarDay, error) {
	startT, err := ParseDay(start)
	if err != nil {
		return nil, ErrInvalidDate
	}
	endT, err := ParseDay(end)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if endT.Before(startT) {
		return nil, ErrInvalidDate
	}
	if endT.Sub(startT).Hours() > 366*24 {
		return nil, ErrInvalidDate
	}

	var habits []Habit
	if err := s.db.Scopes(scope.ForUser(userID)).
		Where("is_active = true AND is_archived = false").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	var rows []HabitCompletion
	if err := s.db.Scopes(scope.ForUser(userID)).
		Where("date >= ? AND date <= ?", start, end).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}
	done := make(map[uuid.UUID]map[string]bool, len(habits))
	for _, r := range rows {
		if done[r.HabitID] == nil {
			done[r.HabitID] = map[string]bool{}
		}
		done[r.HabitID][r.Date] = true
	}

	var days []CalendarDay
	for day := start; day <= end; day = AddDays(day, 1) {
		entry := CalendarDay{Date: day}
		for i := range habits {
			if !habits[i].IsDueOn(day) {
				continue
			}
			entry.DueHabits++
			if done[habits[i].ID][day] {
				entry.Completed++
			}
		}
		if entry.DueHabits > 0 {
			entry.CompletionRate = int(math.Round(float64(entry.Completed) / float64(entry.DueHabits) * 100))
		}
		days = append(days, entry)
	}
	return days, nil
}

// Dashboard summarizes today plus the trailing week across all active habits.
func (s *Service) Dashboard(userID uuid.UUID, today string) (*DashboardSummary, error) {
	if _, err := ParseDay(today); err != nil {
		return nil, ErrInvalidDate
	}

	var habits []Habit
	if err := s.db.Scopes(scope.ForUser(userID)).
		Where("is_active = true AND is_archived = false").
		Order("created_at ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	// Only active habits count: archived ledgers stay readable elsewhere but
	// must not inflate the week against active-only expectations.
	habitIDs := make([]uuid.UUID, len(habits))
	for i, h := range habits {
		habitIDs[i] = h.ID
	}

	weekStart := AddDays(today, -6)
	var rows []HabitCompletion
	if len(habitIDs) > 0 {
		if err := s.db.Scopes(scope.ForUser(userID)).
			Where("habit_id IN ?", habitIDs).
			Where("date >= ? AND date <= ?", weekStart, today).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to load completions: %w", err)
		}
	}

	todayDone := map[uuid.UUID]bool{}
	weekCount := 0
	for _, r := range rows {
		weekCount++
		if r.Date == today {
			todayDone[r.HabitID] = true
		}
	}

	summary := &DashboardSummary{
		Date:            today,
		ActiveHabits:    len(habits),
		WeekCompletions: weekCount,
		WeeklyPoints:    weekCount * 10,
	}

	var top *Habit
	for i := range habits {
		h := &habits[i]
		if h.IsDueOn(today) {
			summary.DueToday++
			if todayDone[h.ID] {
				summary.CompletedToday++
			}
		}
		summary.WeekExpectations += h.ExpectedPerWeek()
		// Ties keep the first-encountered habit.
		if top == nil || h.CurrentStreak > top.CurrentStreak {
			top = h
		}
	}
	summary.TopStreakHabit = top
	if summary.WeekExpectations > 0 {
		summary.WeeklyRate = int(math.Round(float64(weekCount) / float64(summary.WeekExpectations) * 100))
	}
	return summary, nil
}

// refreshSnapshot recomputes the cached weekly/monthly rates and average
// completion time for one habit. Failures only degrade the snapshot.
func (s *Service) refreshSnapshot(h *Habit, today string) {
	if _, err := ParseDay(today); err != nil {
		return
	}

	monthStart := AddDays(today, -29)
	var rows []HabitCompletion
	if err := s.db.Where("habit_id = ? AND date >= ? AND date <= ?", h.ID, monthStart, today).
		Find(&rows).Error; err != nil {
		slog.Error("snapshot refresh failed", "habit_id", h.ID.String(), "error", err)
		return
	}

	weekStart := AddDays(today, -6)
	weekCount, monthCount := 0, 0
	minuteSum, minuteN := 0, 0
	for _, r := range rows {
		monthCount++
		if r.Date >= weekStart {
			weekCount++
		}
		minuteSum += r.CompletedAt.Hour()*60 + r.CompletedAt.Minute()
		minuteN++
	}

	expected := h.ExpectedPerWeek()
	h.WeeklyCompletionRate = snapshotRate(weekCount, expected)
	h.MonthlyCompletionRate = snapshotRate(monthCount, expected*30/7)
	if minuteN > 0 {
		avg := minuteSum / minuteN
		h.AverageCompletionTime = fmt.Sprintf("%02d:%02d", avg/60, avg%60)
	} else {
		h.AverageCompletionTime = ""
	}

	if err := s.db.Model(h).Updates(map[string]interface{}{
		"weekly_completion_rate":  h.WeeklyCompletionRate,
		"monthly_completion_rate": h.MonthlyCompletionRate,
		"average_completion_time": h.AverageCompletionTime,
	}).Error; err != nil {
		slog.Error("snapshot persist failed", "habit_id", h.ID.String(), "error", err)
	}
}

// snapshotRate clamps to the 0-100 snapshot range, unlike bucket rates.
func snapshotRate(actual, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	rate := float64(actual) / float64(expected) * 100
	if rate > 100 {
		rate = 100
	}
	return math.Round(rate*10) / 10
}

func roundTenth(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}
