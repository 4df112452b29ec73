package habit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCompletion(t *testing.T, db *gorm.DB, h *Habit, date string, completedAt time.Time, effort, satisfaction int) {
	t.Helper()
	row := HabitCompletion{
		ID:                uuid.New(),
		HabitID:           h.ID,
		UserID:            h.UserID,
		Date:              date,
		CompletedAt:       completedAt,
		Count:             1,
		TargetCount:       h.TargetCount,
		Source:            SourceManual,
		EffortLevel:       effort,
		SatisfactionLevel: satisfaction,
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestStatisticsAggregates(t *testing.T) {
	s, db := newTestService(t)
	userID := uuid.New()
	h := mustCreate(t, s, userID, CreateHabitRequest{
		Title: "Call a friend", Category: "social", Frequency: FrequencyWeekly,
	})

	seedCompletion(t, db, h, "2026-08-18", time.Date(2026, 8, 18, 8, 30, 0, 0, time.UTC), 5, 3)
	seedCompletion(t, db, h, "2026-08-20", time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC), 3, 0)

	stats, err := s.Statistics(userID, h.ID, 7, "2026-08-23")
	require.NoError(t, err)

	assert.Equal(t, 7, stats.WindowDays)
	assert.Equal(t, 2, stats.TotalCompletions)
	assert.Equal(t, 4.0, stats.AverageEffort)
	// Zero satisfaction means "not reported" and is excluded from the mean.
	assert.Equal(t, 3.0, stats.AverageSatisfaction)

	assert.Equal(t, 1, stats.DayOfWeekHistogram["tuesday"])
	assert.Equal(t, 1, stats.DayOfWeekHistogram["thursday"])
	assert.Equal(t, 0, stats.DayOfWeekHistogram["monday"])
	assert.Equal(t, 2, stats.MonthlyHistogram["2026-08"])
	assert.Equal(t, 1, stats.TimeOfDayPattern["morning"])
	assert.Equal(t, 1, stats.TimeOfDayPattern["evening"])
	assert.Equal(t, 0, stats.TimeOfDayPattern["night"])

	require.Len(t, stats.WeeklyBuckets, 1)
	bucket := stats.WeeklyBuckets[0]
	assert.Equal(t, "2026-08-17", bucket.Start)
	assert.Equal(t, "2026-08-23", bucket.End)
	assert.Equal(t, 2, bucket.Actual)
	assert.Equal(t, 1, bucket.Expected)
	// A weekly habit done twice reads over 100.
	assert.Equal(t, 200, bucket.Rate)
}

func TestStatisticsWindowClamping(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	h := mustCreate(t, s, userID, dailyDraft("Read"))

	stats, err := s.Statistics(userID, h.ID, 3, "2026-08-23")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.WindowDays)

	stats, err = s.Statistics(userID, h.ID, 9999, "2026-08-23")
	require.NoError(t, err)
	assert.Equal(t, 365, stats.WindowDays)
}

func TestStatisticsEmptyHistory(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	h := mustCreate(t, s, userID, dailyDraft("Read"))

	stats, err := s.Statistics(userID, h.ID, 14, "2026-08-23")
	require.NoError(t, err)

	assert.Zero(t, stats.TotalCompletions)
	assert.Zero(t, stats.AverageEffort)
	require.Len(t, stats.WeeklyBuckets, 2)
	assert.Equal(t, 0, stats.WeeklyBuckets[0].Actual)
	assert.Equal(t, 7, stats.WeeklyBuckets[0].Expected)
	assert.Equal(t, 0, stats.WeeklyBuckets[0].Rate)
}

func TestStatisticsRejectsBadInput(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	h := mustCreate(t, s, userID, dailyDraft("Read"))

	_, err := s.Statistics(userID, h.ID, 28, "bogus")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.Statistics(uuid.New(), h.ID, 28, "2026-08-23")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestCalendarCounts(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	daily := mustCreate(t, s, userID, dailyDraft("Water"))
	mustCreate(t, s, userID, customDraft("Gym", "monday"))
	mustRecord(t, s, userID, daily.ID, "2026-08-17")
	mustRecord(t, s, userID, daily.ID, "2026-08-18")

	days, err := s.Calendar(userID, "2026-08-17", "2026-08-19")
	require.NoError(t, err)
	require.Len(t, days, 3)

	// Monday: both habits due, one completed.
	assert.Equal(t, 2, days[0].DueHabits)
	assert.Equal(t, 1, days[0].Completed)
	assert.Equal(t, 50, days[0].CompletionRate)

	// Tuesday: only the daily habit, completed.
	assert.Equal(t, 1, days[1].DueHabits)
	assert.Equal(t, 100, days[1].CompletionRate)

	// Wednesday: due but missed.
	assert.Equal(t, 1, days[2].DueHabits)
	assert.Equal(t, 0, days[2].Completed)
	assert.Equal(t, 0, days[2].CompletionRate)
}

func TestCalendarZeroDueDay(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	mustCreate(t, s, userID, customDraft("Gym", "monday"))

	days, err := s.Calendar(userID, "2026-08-18", "2026-08-19")
	require.NoError(t, err)
	require.Len(t, days, 2)
	for _, d := range days {
		assert.Zero(t, d.DueHabits)
		assert.Zero(t, d.CompletionRate)
	}
}

func TestCalendarRangeValidation(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()

	_, err := s.Calendar(userID, "2026-08-20", "2026-08-17")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.Calendar(userID, "bogus", "2026-08-17")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.Calendar(userID, "2024-01-01", "2026-08-17")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDashboardSummary(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	reading := mustCreate(t, s, userID, dailyDraft("Read"))
	mustCreate(t, s, userID, dailyDraft("Water"))

	mustRecord(t, s, userID, reading.ID, "2026-08-22")
	mustRecord(t, s, userID, reading.ID, "2026-08-23")

	summary, err := s.Dashboard(userID, "2026-08-23")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ActiveHabits)
	assert.Equal(t, 2, summary.DueToday)
	assert.Equal(t, 1, summary.CompletedToday)
	assert.Equal(t, 2, summary.WeekCompletions)
	assert.Equal(t, 14, summary.WeekExpectations)
	assert.Equal(t, 14, summary.WeeklyRate)
	assert.Equal(t, 20, summary.WeeklyPoints)
	require.NotNil(t, summary.TopStreakHabit)
	assert.Equal(t, reading.ID, summary.TopStreakHabit.ID)
}

func TestDashboardIgnoresArchivedHabitCompletions(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	retired := mustCreate(t, s, userID, dailyDraft("Retired"))
	mustCreate(t, s, userID, dailyDraft("Water"))

	mustRecord(t, s, userID, retired.ID, "2026-08-22")
	mustRecord(t, s, userID, retired.ID, "2026-08-23")
	require.NoError(t, s.Archive(userID, retired.ID))

	summary, err := s.Dashboard(userID, "2026-08-23")
	require.NoError(t, err)

	// The archived ledger stays out of the week: expectations only count
	// active habits, so its completions must not count either.
	assert.Equal(t, 1, summary.ActiveHabits)
	assert.Equal(t, 0, summary.CompletedToday)
	assert.Equal(t, 0, summary.WeekCompletions)
	assert.Equal(t, 7, summary.WeekExpectations)
	assert.Equal(t, 0, summary.WeeklyRate)
	assert.Equal(t, 0, summary.WeeklyPoints)
}

func TestDashboardTopStreakTieKeepsOldest(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	first := mustCreate(t, s, userID, dailyDraft("First"))
	mustCreate(t, s, userID, dailyDraft("Second"))

	summary, err := s.Dashboard(userID, "2026-08-23")
	require.NoError(t, err)
	require.NotNil(t, summary.TopStreakHabit)
	assert.Equal(t, first.ID, summary.TopStreakHabit.ID)
}

func TestDashboardEmpty(t *testing.T) {
	s, _ := newTestService(t)

	summary, err := s.Dashboard(uuid.New(), "2026-08-23")
	require.NoError(t, err)
	assert.Zero(t, summary.DueToday)
	assert.Zero(t, summary.WeeklyRate)
	assert.Nil(t, summary.TopStreakHabit)
}

func TestDetailRefreshesSnapshot(t *testing.T) {
	s, _ := newTestService(t)
	userID := uuid.New()
	h := mustCreate(t, s, userID, dailyDraft("Read"))

	for day := "2026-08-17"; day <= "2026-08-23"; day = AddDays(day, 1) {
		mustRecord(t, s, userID, h.ID, day)
	}

	detail, err := s.Detail(userID, h.ID, "2026-08-23")
	require.NoError(t, err)

	require.Len(t, detail.RecentCompletions, 7)
	assert.Equal(t, "2026-08-23", detail.RecentCompletions[0].Date)

	// 7 of 7 expected this week; 7 of 30 this month.
	assert.Equal(t, 100.0, detail.Habit.WeeklyCompletionRate)
	assert.Equal(t, 23.3, detail.Habit.MonthlyCompletionRate)
	assert.Regexp(t, `^\d{2}:\d{2}$`, detail.Habit.AverageCompletionTime)

	// The snapshot is persisted, not just returned.
	got, err := s.Get(userID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.WeeklyCompletionRate)
}
