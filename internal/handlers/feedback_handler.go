package handlers

import (
	"context"
	"errors"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/gofiber/fiber/v2"
)

type feedbackApplicationService interface {
	Submit(ctx context.Context, input services.SubmitFeedbackInput) (*models.Feedback, error)
	List(ctx context.Context, skip int, limit int) ([]models.Feedback, int, error)
	UpdateStatus(ctx context.Context, feedbackID int64, status string) (*models.Feedback, error)
}

type FeedbackHandler struct {
	service feedbackApplicationService
}

func NewFeedbackHandler(service feedbackApplicationService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

type submitFeedbackRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Message     string  `json:"message" validate:"required,max=5000"`
	IsAnonymous bool    `json:"is_anonymous"`
	PageURL     *string `json:"page_url" validate:"omitempty,max=2048"`
}

type updateFeedbackStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Submit accepts feedback from anyone; a signed-in caller is linked unless
// they ask to stay anonymous.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req submitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	input := services.SubmitFeedbackInput{
		Name:        req.Name,
		Email:       req.Email,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
		PageURL:     req.PageURL,
	}
	if userAgent := c.Get(fiber.HeaderUserAgent); userAgent != "" {
		input.UserAgent = &userAgent
	}
	if userID, err := parseUserID(c); err == nil {
		input.UserID = &userID
	}

	feedback, err := h.service.Submit(c.Context(), input)
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"feedback": feedback})
}

func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	skip := parseNonNegativeInt(c.Query("skip"), 0)
	limit := clampLimit(parsePositiveInt(c.Query("limit"), maxPageLimit), maxHistoryLimit)

	items, total, err := h.service.List(c.Context(), skip, limit)
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return c.JSON(fiber.Map{"feedback": items, "total": total, "skip": skip, "limit": limit})
}

func (h *FeedbackHandler) UpdateStatus(c *fiber.Ctx) error {
	feedbackID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid feedback id"})
	}

	var req updateFeedbackStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	feedback, err := h.service.UpdateStatus(c.Context(), feedbackID, req.Status)
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return c.JSON(fiber.Map{"feedback": feedback})
}

func mapFeedbackError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	case errors.Is(err, services.ErrFeedbackNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Feedback not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process feedback"})
	}
}
