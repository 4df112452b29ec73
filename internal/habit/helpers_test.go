package habit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/gamification"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared in-memory database needs a single connection.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&Habit{},
		&HabitCompletion{},
		&HabitReminder{},
		&gamification.State{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewService(db, gamification.NewService(db)), db
}

func dailyDraft(title string) CreateHabitRequest {
	return CreateHabitRequest{
		Title:     title,
		Category:  "health",
		Frequency: FrequencyDaily,
	}
}

func customDraft(title string, days ...string) CreateHabitRequest {
	return CreateHabitRequest{
		Title:      title,
		Category:   "fitness",
		Frequency:  FrequencyCustom,
		CustomDays: days,
	}
}

func mustCreate(t *testing.T, s *Service, userID uuid.UUID, req CreateHabitRequest) *Habit {
	t.Helper()
	h, err := s.Create(userID, req)
	require.NoError(t, err)
	return h
}

func mustRecord(t *testing.T, s *Service, userID uuid.UUID, habitID uuid.UUID, day string) *CompletionResponse {
	t.Helper()
	resp, err := s.RecordCompletion(userID, habitID, RecordCompletionRequest{Date: day, Count: 1})
	require.NoError(t, err)
	return resp
}
