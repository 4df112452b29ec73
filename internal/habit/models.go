package habit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Frequency values for a habit schedule.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyCustom = "custom"
)

var Frequencies = []string{FrequencyDaily, FrequencyWeekly, FrequencyCustom}

var Categories = []string{"health", "fitness", "mindfulness", "productivity", "learning", "social", "creativity", "other"}

// Moods is the fixed enumeration shared with the mood collaborator.
var Moods = []string{"happy", "calm", "tired", "stressed"}

// Completion source tags.
const (
	SourceManual         = "manual"
	SourceReminder       = "reminder"
	SourceRecommendation = "mood-recommendation"
)

var Sources = []string{SourceManual, SourceReminder, SourceRecommendation}

type Habit struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Category    string `gorm:"size:30;not null;index" json:"category"`
	Icon        string `gorm:"size:10" json:"icon"`
	Color       string `gorm:"size:7" json:"color"`

	Frequency    string         `gorm:"size:10;not null" json:"frequency"`
	CustomDays   datatypes.JSON `gorm:"type:jsonb" json:"custom_days,omitempty"`
	TimesPerWeek int            `gorm:"default:0" json:"times_per_week"`

	TargetCount int    `gorm:"not null;default:1" json:"target_count"`
	Unit        string `gorm:"size:30" json:"unit"`

	// Progress cache, owned by the streak calculator and completion ops.
	CurrentStreak    int `gorm:"default:0" json:"current_streak"`
	LongestStreak    int `gorm:"default:0" json:"longest_streak"`
	TotalCompletions int `gorm:"default:0" json:"total_completions"`

	MoodBooster bool           `gorm:"default:false" json:"mood_booster"`
	BoostMoods  datatypes.JSON `gorm:"type:jsonb" json:"boost_moods,omitempty"`

	IsActive   bool `gorm:"default:true;index" json:"is_active"`
	IsArchived bool `gorm:"default:false" json:"is_archived"`

	// Statistics snapshot, recomputed on demand.
	WeeklyCompletionRate  float64 `gorm:"default:0" json:"weekly_completion_rate"`
	MonthlyCompletionRate float64 `gorm:"default:0" json:"monthly_completion_rate"`
	AverageCompletionTime string  `gorm:"size:5" json:"average_completion_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayNames decodes the custom weekday set. Empty for daily/weekly habits.
func (h *Habit) DayNames() []string {
	if len(h.CustomDays) == 0 {
		return nil
	}
	var days []string
	if err := json.Unmarshal(h.CustomDays, &days); err != nil {
		return nil
	}
	return days
}

// MoodTags decodes the set of moods this habit is recommendable for.
func (h *Habit) MoodTags() []string {
	if len(h.BoostMoods) == 0 {
		return nil
	}
	var moods []string
	if err := json.Unmarshal(h.BoostMoods, &moods); err != nil {
		return nil
	}
	return moods
}

// HabitCompletion is one ledger row per (habit, calendar day).
type HabitCompletion struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HabitID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completions_habit_date" json:"habit_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Date        string    `gorm:"size:10;not null;uniqueIndex:idx_completions_habit_date;index" json:"date"`
	CompletedAt time.Time `json:"completed_at"`
	Count       int       `gorm:"not null;default:1" json:"count"`
	TargetCount int       `gorm:"not null;default:1" json:"target_count"`

	Notes             string `gorm:"size:500" json:"notes"`
	MoodBefore        string `gorm:"size:10" json:"mood_before"`
	MoodAfter         string `gorm:"size:10" json:"mood_after"`
	EffortLevel       int    `gorm:"default:0" json:"effort_level"`
	SatisfactionLevel int    `gorm:"default:0" json:"satisfaction_level"`
	Source            string `gorm:"size:20;default:'manual'" json:"source"`

	// Audit field, frozen at write time and never recomputed.
	StreakAtCompletion int `gorm:"default:0" json:"streak_at_completion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *HabitCompletion) CompletionPercentage() float64 {
	if c.TargetCount <= 0 {
		return 0
	}
	return float64(c.Count) / float64(c.TargetCount) * 100
}

func (c *HabitCompletion) IsFullyCompleted() bool {
	return c.Count >= c.TargetCount
}

// HabitReminder is consumed by the notification collaborator; the engine
// never sends anything itself.
type HabitReminder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HabitID   uuid.UUID `gorm:"type:uuid;not null;index" json:"habit_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TimeOfDay string    `gorm:"size:5;not null" json:"time_of_day"`
	Message   string    `gorm:"size:200" json:"message"`
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- DTOs ---

type CreateHabitRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	Frequency   string   `json:"frequency"`
	CustomDays  []string `json:"custom_days"`
	TargetCount int      `json:"target_count"`
	Unit        string   `json:"unit"`
	MoodBooster bool     `json:"mood_booster"`
	BoostMoods  []string `json:"boost_moods"`
}

type UpdateHabitRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Icon        *string   `json:"icon"`
	Color       *string   `json:"color"`
	Frequency   *string   `json:"frequency"`
	CustomDays  *[]string `json:"custom_days"`
	TargetCount *int      `json:"target_count"`
	Unit        *string   `json:"unit"`
	MoodBooster *bool     `json:"mood_booster"`
	BoostMoods  *[]string `json:"boost_moods"`
	IsActive    *bool     `json:"is_active"`

	// Engine-owned fields. Present only so we can reject them explicitly.
	CurrentStreak    *int `json:"current_streak"`
	LongestStreak    *int `json:"longest_streak"`
	TotalCompletions *int `json:"total_completions"`
}

type RecordCompletionRequest struct {
	Date              string  `json:"date"`
	Count             int     `json:"count"`
	Notes             *string `json:"notes"`
	MoodBefore        *string `json:"mood_before"`
	MoodAfter         *string `json:"mood_after"`
	EffortLevel       *int    `json:"effort_level"`
	SatisfactionLevel *int    `json:"satisfaction_level"`
	Source            *string `json:"source"`
}

type ListFilters struct {
	Category string
	Active   *bool
	AsOf     string
}

// HabitWithStatus annotates a habit with its ledger status for one day.
type HabitWithStatus struct {
	Habit
	DueToday       bool `json:"due_today"`
	CompletedToday bool `json:"completed_today"`
	TodayCount     int  `json:"today_count"`
}

type HabitListResponse struct {
	Habits []HabitWithStatus `json:"habits"`
	Total  int               `json:"total"`
	Date   string            `json:"date,omitempty"`
}

type HabitDetailResponse struct {
	Habit             Habit             `json:"habit"`
	RecentCompletions []HabitCompletion `json:"recent_completions"`
}

type CompletionResponse struct {
	Completion           HabitCompletion `json:"completion"`
	CompletionPercentage float64         `json:"completion_percentage"`
	IsFullyCompleted     bool            `json:"is_fully_completed"`
	CurrentStreak        int             `json:"current_streak"`
	LongestStreak        int             `json:"longest_streak"`
	Created              bool            `json:"created"`
}
