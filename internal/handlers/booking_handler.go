package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/gofiber/fiber/v2"
)

type bookingApplicationService interface {
	ListCoaches(ctx context.Context) ([]models.CoachAvailability, error)
	GetCoach(ctx context.Context, coachID int64) (*models.CoachAvailability, error)
	Book(ctx context.Context, clientID int64, role string, input services.BookInput) (*models.BookingDetail, error)
	ListMine(ctx context.Context, actorID int64, role string, status string) ([]models.BookingDetail, error)
	ListAll(ctx context.Context, status string, limit int, offset int) ([]models.BookingDetail, error)
	ListForCoach(ctx context.Context, coachID int64) ([]models.BookingDetail, error)
	Update(ctx context.Context, actorID int64, role string, bookingID int64, input services.UpdateBookingInput) (*models.Booking, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service bookingApplicationService) *BookingHandler {
	return &BookingHandler{service: service}
}

type bookRequest struct {
	CoachID     int64   `json:"coach_id" validate:"required,gt=0"`
	SlotNumber  int     `json:"slot_number" validate:"required,min=1"`
	ScheduledAt *string `json:"scheduled_at"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

type updateBookingRequest struct {
	Status      *string `json:"status" validate:"omitempty,oneof=confirm confirmed complete completed cancel cancelled canceled"`
	ScheduledAt *string `json:"scheduled_at"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *BookingHandler) ListCoaches(c *fiber.Ctx) error {
	coaches, err := h.service.ListCoaches(c.Context())
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"coaches": coaches})
}

func (h *BookingHandler) GetCoach(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	coach, err := h.service.GetCoach(c.Context(), coachID)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"coach": coach})
}

func (h *BookingHandler) Book(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	scheduledAt, err := parseOptionalTime(req.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be an RFC3339 timestamp"})
	}

	booking, err := h.service.Book(c.Context(), userID, currentRole(c), services.BookInput{
		CoachID:     req.CoachID,
		SlotNumber:  req.SlotNumber,
		ScheduledAt: scheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) ListMine(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	bookings, err := h.service.ListMine(c.Context(), userID, currentRole(c), c.Query("status"))
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

// CoachCalendar lists every booking held against the calling coach.
func (h *BookingHandler) CoachCalendar(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	bookings, err := h.service.ListForCoach(c.Context(), userID)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) Update(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req updateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	scheduledAt, err := parseOptionalTime(req.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be an RFC3339 timestamp"})
	}

	booking, err := h.service.Update(c.Context(), userID, currentRole(c), bookingID, services.UpdateBookingInput{
		Status:      req.Status,
		ScheduledAt: scheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) AdminList(c *fiber.Ctx) error {
	limit := clampLimit(parsePositiveInt(c.Query("limit"), maxPageLimit), maxHistoryLimit)
	offset := parseNonNegativeInt(c.Query("offset"), 0)

	bookings, err := h.service.ListAll(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings, "limit": limit, "offset": offset})
}

func (h *BookingHandler) AdminCoachBookings(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	bookings, err := h.service.ListForCoach(c.Context(), coachID)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

func parseOptionalTime(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Invalid status transition"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slot is already booked"})
	case errors.Is(err, services.ErrNoSlotsAvailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No available slots"})
	case errors.Is(err, services.ErrCoachNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	case errors.Is(err, services.ErrBookingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
