package syncqueue

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/dto"
	"github.com/habitloop/habitloop-backend/internal/habit"
	"github.com/habitloop/habitloop-backend/internal/scope"
)

type Handler struct {
	svc *habit.Service
}

func NewHandler(svc *habit.Service) *Handler {
	return &Handler{svc: svc}
}

type ReplayRequest struct {
	Entries []Entry `json:"entries"`
}

type EntryResult struct {
	HabitID uuid.UUID `json:"habit_id"`
	Date    string    `json:"date"`
	Applied bool      `json:"applied"`
	Error   string    `json:"error,omitempty"`
}

type ReplayResponse struct {
	Applied int           `json:"applied"`
	Failed  int           `json:"failed"`
	Results []EntryResult `json:"results"`
}

// Replay handles POST /sync/completions: a reconnecting client submits its
// buffered completions and keeps whichever ones fail for the next attempt.
// The ledger's upsert-by-unique-key makes duplicate submissions safe.
func (h *Handler) Replay(c *fiber.Ctx) error {
	userID, err := scope.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req ReplayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if len(req.Entries) > 500 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Too many entries; replay in batches of 500",
		})
	}

	sort.SliceStable(req.Entries, func(i, j int) bool {
		return req.Entries[i].QueuedAt.Before(req.Entries[j].QueuedAt)
	})

	resp := ReplayResponse{Results: make([]EntryResult, 0, len(req.Entries))}
	for _, e := range req.Entries {
		payload := e.Payload
		payload.Date = e.Date
		result := EntryResult{HabitID: e.HabitID, Date: e.Date}

		if _, err := h.svc.RecordCompletion(userID, e.HabitID, payload); err != nil {
			result.Error = err.Error()
			resp.Failed++
		} else {
			result.Applied = true
			resp.Applied++
		}
		resp.Results = append(resp.Results, result)
	}

	return c.JSON(resp)
}
