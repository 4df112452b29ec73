package gamification

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetState returns the user's gamification state, creating an empty record on
// first access.
func (s *Service) GetState(userID uuid.UUID) (*State, error) {
	var state State
	err := s.db.Where("user_id = ?", userID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = State{
			ID:     uuid.New(),
			UserID: userID,
			Points: 0,
			Level:  1,
		}
		if createErr := s.db.Create(&state).Error; createErr != nil {
			return nil, createErr
		}
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification state: %w", err)
	}
	return &state, nil
}

// AwardCompletion scores a newly created completion. Bonuses are additive;
// badges are granted exactly once per name, so an undo/redo sequence that
// reports the same streak value again is a no-op for the badge.
func (s *Service) AwardCompletion(userID uuid.UUID, award Award) (*Result, error) {
	state, err := s.GetState(userID)
	if err != nil {
		return nil, err
	}

	points := PointsFor(award)
	state.Points += points

	var newBadges []string
	if award.StreakAtCompletion == 7 && !state.HasBadge(BadgeStreak7) {
		newBadges = append(newBadges, BadgeStreak7)
	}
	if award.StreakAtCompletion == 30 && !state.HasBadge(BadgeStreak30) {
		newBadges = append(newBadges, BadgeStreak30)
	}
	if len(newBadges) > 0 {
		all := append(state.BadgeNames(), newBadges...)
		if b, err := json.Marshal(all); err == nil {
			state.Badges = datatypes.JSON(b)
		}
	}

	counters := state.StreakCounters()
	if award.StreakAtCompletion > counters["habit"] {
		counters["habit"] = award.StreakAtCompletion
		if b, err := json.Marshal(counters); err == nil {
			state.DomainStreaks = datatypes.JSON(b)
		}
	}

	newLevel := LevelForPoints(state.Points)
	leveledUp := newLevel > state.Level
	state.Level = newLevel

	if err := s.db.Save(state).Error; err != nil {
		return nil, fmt.Errorf("failed to save gamification state: %w", err)
	}

	return &Result{
		PointsAwarded: points,
		TotalPoints:   state.Points,
		Level:         state.Level,
		LeveledUp:     leveledUp,
		NewBadges:     newBadges,
	}, nil
}

// PointsFor computes the additive award for one completion.
func PointsFor(a Award) int {
	points := 10
	if a.EffortLevel >= 4 {
		points += 5
	}
	if a.SatisfactionLevel >= 4 {
		points += 5
	}
	if a.StreakAtCompletion >= 7 {
		points += 10
	}
	if a.StreakAtCompletion >= 30 {
		points += 25
	}
	return points
}

// LevelForPoints maps a points total to a level.
func LevelForPoints(points int) int {
	return points/100 + 1
}
