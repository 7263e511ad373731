package handlers

import (
	"context"
	"errors"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/gofiber/fiber/v2"
)

type userApplicationService interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, fullName string) (*models.User, error)
	ListUsers(ctx context.Context, role string, page int, limit int) ([]models.User, int, error)
	UpdateUser(ctx context.Context, actorID int64, userID int64, input services.UpdateUserInput) (*models.User, error)
	DisableUser(ctx context.Context, actorID int64, userID int64) (*models.User, error)
	Stats(ctx context.Context) (*models.PlatformStats, error)
}

type UserHandler struct {
	service userApplicationService
}

func NewUserHandler(service userApplicationService) *UserHandler {
	return &UserHandler{service: service}
}

type updateMeRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
}

type adminUpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=client coach admin"`
	IsActive *bool   `json:"is_active"`
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	user, err := h.service.GetUser(c.Context(), userID)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	user, err := h.service.UpdateProfile(c.Context(), userID, req.FullName)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := clampLimit(parsePositiveInt(c.Query("limit"), defaultPageLimit), maxPageLimit)

	users, total, err := h.service.ListUsers(c.Context(), c.Query("role"), page, limit)
	if err != nil {
		return mapUserError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := h.service.GetUser(c.Context(), userID)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	actorID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req adminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	user, err := h.service.UpdateUser(c.Context(), actorID, userID, services.UpdateUserInput{
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// DisableUser soft-deletes an account by deactivating it.
func (h *UserHandler) DisableUser(c *fiber.Ctx) error {
	actorID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := h.service.DisableUser(c.Context(), actorID, userID)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(stats)
}

func mapUserError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process user request"})
	}
}
