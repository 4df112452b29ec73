package gamification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Badge names awarded by the completion processor. Each is granted at most once.
const (
	BadgeStreak7  = "7-Day Streak"
	BadgeStreak30 = "30-Day Streak"
)

// State is the per-user gamification record. Points never decrease outside an
// explicit reset; Level is always floor(points/100)+1.
type State struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Points        int            `gorm:"default:0" json:"points"`
	Level         int            `gorm:"default:1" json:"level"`
	Badges        datatypes.JSON `gorm:"type:jsonb" json:"badges"`
	DomainStreaks datatypes.JSON `gorm:"type:jsonb" json:"domain_streaks"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (s *State) BadgeNames() []string {
	if len(s.Badges) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(s.Badges, &names); err != nil {
		return nil
	}
	return names
}

func (s *State) HasBadge(name string) bool {
	for _, b := range s.BadgeNames() {
		if b == name {
			return true
		}
	}
	return false
}

func (s *State) StreakCounters() map[string]int {
	counters := map[string]int{}
	if len(s.DomainStreaks) == 0 {
		return counters
	}
	_ = json.Unmarshal(s.DomainStreaks, &counters)
	return counters
}

// Award carries the completion facts the processor scores on.
type Award struct {
	StreakAtCompletion int
	EffortLevel        int
	SatisfactionLevel  int
}

// Result reports what a single completion earned.
type Result struct {
	PointsAwarded int      `json:"points_awarded"`
	TotalPoints   int      `json:"total_points"`
	Level         int      `json:"level"`
	LeveledUp     bool     `json:"leveled_up"`
	NewBadges     []string `json:"new_badges"`
}
