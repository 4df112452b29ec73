package gamification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/habitloop/habitloop-backend/internal/dto"
	"github.com/habitloop/habitloop-backend/internal/scope"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type StateResponse struct {
	Points        int            `json:"points"`
	Level         int            `json:"level"`
	Badges        []string       `json:"badges"`
	DomainStreaks map[string]int `json:"domain_streaks"`
}

// GetState handles GET /gamification - the authenticated user's points,
// level, and badges.
func (h *Handler) GetState(c *fiber.Ctx) error {
	userID, err := scope.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	state, err := h.svc.GetState(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load gamification state",
		})
	}

	badges := state.BadgeNames()
	if badges == nil {
		badges = []string{}
	}
	return c.JSON(StateResponse{
		Points:        state.Points,
		Level:         state.Level,
		Badges:        badges,
		DomainStreaks: state.StreakCounters(),
	})
}
