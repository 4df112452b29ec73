package habit

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/dto"
	"github.com/habitloop/habitloop-backend/internal/scope"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// clientDay resolves the caller's calendar day: explicit query param first,
// then the X-Client-Date header, then the server's UTC day.
func clientDay(c *fiber.Ctx) string {
	if day := c.Query("date"); day != "" {
		return day
	}
	if day := c.Get("X-Client-Date"); day != "" {
		return day
	}
	return Today()
}

var validationErrors = []error{
	ErrInvalidTitle, ErrInvalidDescription, ErrInvalidCategory, ErrInvalidColor,
	ErrInvalidFrequency, ErrInvalidCustomDays, ErrInvalidTargetCount, ErrInvalidMood,
	ErrProgressReadOnly, ErrInvalidDate, ErrInvalidCount, ErrInvalidNotes,
	ErrInvalidLevel, ErrInvalidSource, ErrInvalidReminder, ErrHabitArchived,
}

// fail maps service errors onto the HTTP taxonomy.
func fail(c *fiber.Ctx, err error, fallback string) error {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
	}
	switch {
	case errors.Is(err, ErrHabitNotFound), errors.Is(err, ErrCompletionNotFound), errors.Is(err, ErrReminderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrDuplicateCompletion):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: fallback})
}

func requireUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, err := scope.CurrentUserID(c)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// CreateHabit handles POST /habits.
func (h *Handler) CreateHabit(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	created, err := h.svc.Create(userID, req)
	if err != nil {
		return fail(c, err, "Failed to create habit")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListHabits handles GET /habits with category/active/date filters.
func (h *Handler) ListHabits(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	filters := ListFilters{Category: c.Query("category")}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filters.Active = &v
	}
	filters.AsOf = clientDay(c)

	habits, err := h.svc.ListForUser(userID, filters)
	if err != nil {
		return fail(c, err, "Failed to list habits")
	}
	return c.JSON(HabitListResponse{Habits: habits, Total: len(habits), Date: filters.AsOf})
}

// GetHabit handles GET /habits/:id.
func (h *Handler) GetHabit(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	detail, err := h.svc.Detail(userID, habitID, clientDay(c))
	if err != nil {
		return fail(c, err, "Failed to load habit")
	}
	return c.JSON(detail)
}

// UpdateHabit handles PUT /habits/:id.
func (h *Handler) UpdateHabit(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	var req UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	updated, err := h.svc.Update(userID, habitID, req)
	if err != nil {
		return fail(c, err, "Failed to update habit")
	}
	return c.JSON(updated)
}

// ArchiveHabit handles DELETE /habits/:id. Archiving is the only delete path.
func (h *Handler) ArchiveHabit(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	if err := h.svc.Archive(userID, habitID); err != nil {
		return fail(c, err, "Failed to archive habit")
	}
	return c.JSON(fiber.Map{"message": "Habit archived"})
}

// RecordCompletion handles POST /habits/:id/complete.
func (h *Handler) RecordCompletion(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	var req RecordCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Date == "" {
		if day := c.Get("X-Client-Date"); day != "" {
			req.Date = day
		}
	}

	resp, err := h.svc.RecordCompletion(userID, habitID, req)
	if err != nil {
		return fail(c, err, "Failed to record completion")
	}
	status := fiber.StatusOK
	if resp.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(resp)
}

// UndoCompletion handles DELETE /habits/:id/complete.
func (h *Handler) UndoCompletion(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	// The ?date= param picks the row to delete; the streak recompute still
	// anchors at the caller's current day.
	today := c.Get("X-Client-Date")
	if today == "" {
		today = Today()
	}
	updated, err := h.svc.UndoCompletion(userID, habitID, clientDay(c), today)
	if err != nil {
		return fail(c, err, "Failed to undo completion")
	}
	return c.JSON(fiber.Map{
		"message":        "Completion removed",
		"current_streak": updated.CurrentStreak,
		"longest_streak": updated.LongestStreak,
	})
}

// GetStatistics handles GET /habits/:id/stats.
func (h *Handler) GetStatistics(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	window := c.QueryInt("window", 28)
	stats, err := h.svc.Statistics(userID, habitID, window, clientDay(c))
	if err != nil {
		return fail(c, err, "Failed to compute statistics")
	}
	return c.JSON(stats)
}

// GetCalendar handles GET /calendar?start=&end=.
func (h *Handler) GetCalendar(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	days, err := h.svc.Calendar(userID, c.Query("start"), c.Query("end"))
	if err != nil {
		return fail(c, err, "Failed to build calendar")
	}
	return c.JSON(fiber.Map{"days": days})
}

// GetDashboard handles GET /dashboard.
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	summary, err := h.svc.Dashboard(userID, clientDay(c))
	if err != nil {
		return fail(c, err, "Failed to build dashboard")
	}
	return c.JSON(summary)
}

// GetRecommendations handles GET /recommendations?mood=.
func (h *Handler) GetRecommendations(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	habits, err := h.svc.Recommendations(userID, c.Query("mood"))
	if err != nil {
		return fail(c, err, "Failed to load recommendations")
	}
	return c.JSON(fiber.Map{"habits": habits})
}

// ListReminders handles GET /habits/:id/reminders.
func (h *Handler) ListReminders(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	reminders, err := h.svc.ListReminders(userID, habitID)
	if err != nil {
		return fail(c, err, "Failed to list reminders")
	}
	return c.JSON(fiber.Map{"reminders": reminders})
}

// AddReminder handles POST /habits/:id/reminders.
func (h *Handler) AddReminder(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	var req struct {
		TimeOfDay string `json:"time_of_day"`
		Message   string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	reminder, err := h.svc.AddReminder(userID, habitID, req.TimeOfDay, req.Message)
	if err != nil {
		return fail(c, err, "Failed to create reminder")
	}
	return c.Status(fiber.StatusCreated).JSON(reminder)
}

// DeleteReminder handles DELETE /reminders/:id.
func (h *Handler) DeleteReminder(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	reminderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid reminder ID",
		})
	}

	if err := h.svc.DeleteReminder(userID, reminderID); err != nil {
		return fail(c, err, "Failed to delete reminder")
	}
	return c.JSON(fiber.Map{"message": "Reminder deleted"})
}
