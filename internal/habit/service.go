package habit

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/gamification"
	"github.com/habitloop/habitloop-backend/internal/scope"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidTitle       = errors.New("title must be between 1 and 100 characters")
	ErrInvalidDescription = errors.New("description must be at most 500 characters")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidColor       = errors.New("color must be a hex value like #4ade80")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidCustomDays  = errors.New("custom frequency requires a non-empty set of valid weekday names")
	ErrInvalidTargetCount = errors.New("target count must be at least 1")
	ErrInvalidMood        = errors.New("invalid mood")
	ErrProgressReadOnly   = errors.New("streak and completion counters are managed by the engine")
	ErrHabitNotFound      = errors.New("habit not found")
	ErrHabitArchived      = errors.New("habit is archived")
	ErrReminderNotFound   = errors.New("reminder not found")
	ErrInvalidReminder    = errors.New("reminder time must be HH:MM")
)

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

type Service struct {
	db     *gorm.DB
	gamify *gamification.Service
}

func NewService(db *gorm.DB, gamify *gamification.Service) *Service {
	return &Service{db: db, gamify: gamify}
}

// Create validates the draft and persists it with zeroed progress fields.
func (s *Service) Create(userID uuid.UUID, req CreateHabitRequest) (*Habit, error) {
	if err := validateDraft(&req); err != nil {
		return nil, err
	}

	h := Habit{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Icon:        req.Icon,
		Color:       req.Color,
		Frequency:   req.Frequency,
		TargetCount: req.TargetCount,
		Unit:        req.Unit,
		MoodBooster: req.MoodBooster,
		IsActive:    true,
	}
	if h.TargetCount == 0 {
		h.TargetCount = 1
	}
	if req.Frequency == FrequencyCustom {
		days, _ := json.Marshal(req.CustomDays)
		h.CustomDays = datatypes.JSON(days)
		h.TimesPerWeek = len(req.CustomDays)
	}
	if len(req.BoostMoods) > 0 {
		moods, _ := json.Marshal(req.BoostMoods)
		h.BoostMoods = datatypes.JSON(moods)
	}

	if err := s.db.Create(&h).Error; err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	return &h, nil
}

// Get returns a habit only if owned by the user. Ownership is checked in the
// query itself so other users' ids behave exactly like missing ones.
func (s *Service) Get(userID, habitID uuid.UUID) (*Habit, error) {
	var h Habit
	err := s.db.Scopes(scope.ForUser(userID)).First(&h, "id = ?", habitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load habit: %w", err)
	}
	return &h, nil
}

// Update applies a partial update. Progress fields are engine-owned and
// rejected outright if present in the payload.
func (s *Service) Update(userID, habitID uuid.UUID, req UpdateHabitRequest) (*Habit, error) {
	if req.CurrentStreak != nil || req.LongestStreak != nil || req.TotalCompletions != nil {
		return nil, ErrProgressReadOnly
	}

	h, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if len(*req.Title) < 1 || len(*req.Title) > 100 {
			return nil, ErrInvalidTitle
		}
		h.Title = *req.Title
	}
	if req.Description != nil {
		if len(*req.Description) > 500 {
			return nil, ErrInvalidDescription
		}
		h.Description = *req.Description
	}
	if req.Category != nil {
		if !contains(Categories, *req.Category) {
			return nil, ErrInvalidCategory
		}
		h.Category = *req.Category
	}
	if req.Icon != nil {
		h.Icon = *req.Icon
	}
	if req.Color != nil {
		if !hexColorPattern.MatchString(*req.Color) {
			return nil, ErrInvalidColor
		}
		h.Color = *req.Color
	}
	if req.Frequency != nil {
		if !contains(Frequencies, *req.Frequency) {
			return nil, ErrInvalidFrequency
		}
		h.Frequency = *req.Frequency
		if *req.Frequency != FrequencyCustom {
			h.CustomDays = nil
			h.TimesPerWeek = 0
		}
	}
	if req.CustomDays != nil {
		if h.Frequency == FrequencyCustom {
			if len(*req.CustomDays) == 0 {
				return nil, ErrInvalidCustomDays
			}
			for _, d := range *req.CustomDays {
				if !isValidWeekday(d) {
					return nil, ErrInvalidCustomDays
				}
			}
			days, _ := json.Marshal(*req.CustomDays)
			h.CustomDays = datatypes.JSON(days)
			h.TimesPerWeek = len(*req.CustomDays)
		}
	}
	if h.Frequency == FrequencyCustom && len(h.DayNames()) == 0 {
		return nil, ErrInvalidCustomDays
	}
	if req.TargetCount != nil {
		if *req.TargetCount < 1 {
			return nil, ErrInvalidTargetCount
		}
		h.TargetCount = *req.TargetCount
	}
	if req.Unit != nil {
		h.Unit = *req.Unit
	}
	if req.MoodBooster != nil {
		h.MoodBooster = *req.MoodBooster
	}
	if req.BoostMoods != nil {
		for _, m := range *req.BoostMoods {
			if !contains(Moods, m) {
				return nil, ErrInvalidMood
			}
		}
		moods, _ := json.Marshal(*req.BoostMoods)
		h.BoostMoods = datatypes.JSON(moods)
	}
	if req.IsActive != nil {
		h.IsActive = *req.IsActive
	}

	if err := s.db.Save(h).Error; err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}
	return h, nil
}

// Archive is the only delete path. Ledger rows stay readable; due-day checks
// simply stop including the habit.
func (s *Service) Archive(userID, habitID uuid.UUID) error {
	h, err := s.Get(userID, habitID)
	if err != nil {
		return err
	}
	h.IsActive = false
	h.IsArchived = true
	if err := s.db.Save(h).Error; err != nil {
		return fmt.Errorf("failed to archive habit: %w", err)
	}
	return nil
}

// ListForUser returns the user's habits, each annotated with that day's
// ledger status when an as-of date is supplied.
func (s *Service) ListForUser(userID uuid.UUID, filters ListFilters) ([]HabitWithStatus, error) {
	q := s.db.Scopes(scope.ForUser(userID)).Where("is_archived = false")
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.Active != nil {
		q = q.Where("is_active = ?", *filters.Active)
	}

	var habits []Habit
	if err := q.Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}

	annotated := make([]HabitWithStatus, len(habits))
	for i, h := range habits {
		annotated[i] = HabitWithStatus{Habit: h}
	}
	if filters.AsOf == "" {
		return annotated, nil
	}

	var rows []HabitCompletion
	if err := s.db.Scopes(scope.ForUser(userID)).Where("date = ?", filters.AsOf).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger status: %w", err)
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		counts[r.HabitID] = r.Count
	}

	for i := range annotated {
		annotated[i].DueToday = annotated[i].IsDueOn(filters.AsOf)
		if count, ok := counts[annotated[i].ID]; ok {
			annotated[i].CompletedToday = true
			annotated[i].TodayCount = count
		}
	}
	return annotated, nil
}

// Detail returns the habit with its most recent completions and a fresh
// statistics snapshot.
func (s *Service) Detail(userID, habitID uuid.UUID, today string) (*HabitDetailResponse, error) {
	h, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}

	var recent []HabitCompletion
	if err := s.db.Where("habit_id = ?", habitID).
		Order("date DESC").
		Limit(30).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}

	s.refreshSnapshot(h, today)

	return &HabitDetailResponse{Habit: *h, RecentCompletions: recent}, nil
}

// Recommendations returns up to 3 active habits flagged as mood boosters or
// tagged for the given mood.
func (s *Service) Recommendations(userID uuid.UUID, mood string) ([]Habit, error) {
	if mood != "" && !contains(Moods, mood) {
		return nil, ErrInvalidMood
	}

	var habits []Habit
	err := s.db.Scopes(scope.ForUser(userID)).
		Where("is_active = true AND is_archived = false").
		Order("current_streak DESC").
		Find(&habits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	recommended := make([]Habit, 0, 3)
	for _, h := range habits {
		if len(recommended) == 3 {
			break
		}
		if h.MoodBooster || (mood != "" && contains(h.MoodTags(), mood)) {
			recommended = append(recommended, h)
		}
	}
	return recommended, nil
}

// --- Reminders ---

func (s *Service) ListReminders(userID, habitID uuid.UUID) ([]HabitReminder, error) {
	if _, err := s.Get(userID, habitID); err != nil {
		return nil, err
	}
	var reminders []HabitReminder
	err := s.db.Where("habit_id = ?", habitID).Order("time_of_day ASC").Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (s *Service) AddReminder(userID, habitID uuid.UUID, timeOfDay, message string) (*HabitReminder, error) {
	if !timeOfDayPattern.MatchString(timeOfDay) {
		return nil, ErrInvalidReminder
	}
	if _, err := s.Get(userID, habitID); err != nil {
		return nil, err
	}

	r := HabitReminder{
		ID:        uuid.New(),
		HabitID:   habitID,
		UserID:    userID,
		TimeOfDay: timeOfDay,
		Message:   message,
		Enabled:   true,
	}
	if err := s.db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return &r, nil
}

func (s *Service) DeleteReminder(userID, reminderID uuid.UUID) error {
	result := s.db.Scopes(scope.ForUser(userID)).Where("id = ?", reminderID).Delete(&HabitReminder{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reminder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func validateDraft(req *CreateHabitRequest) error {
	if len(req.Title) < 1 || len(req.Title) > 100 {
		return ErrInvalidTitle
	}
	if len(req.Description) > 500 {
		return ErrInvalidDescription
	}
	if !contains(Categories, req.Category) {
		return ErrInvalidCategory
	}
	if req.Color != "" && !hexColorPattern.MatchString(req.Color) {
		return ErrInvalidColor
	}
	if !contains(Frequencies, req.Frequency) {
		return ErrInvalidFrequency
	}
	if req.Frequency == FrequencyCustom {
		if len(req.CustomDays) == 0 {
			return ErrInvalidCustomDays
		}
		for _, d := range req.CustomDays {
			if !isValidWeekday(d) {
				return ErrInvalidCustomDays
			}
		}
	}
	// 0 means "not supplied" and defaults to 1 on create.
	if req.TargetCount < 0 {
		return ErrInvalidTargetCount
	}
	for _, m := range req.BoostMoods {
		if !contains(Moods, m) {
			return ErrInvalidMood
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
