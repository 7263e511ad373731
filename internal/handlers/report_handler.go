package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/gofiber/fiber/v2"
)

type reportApplicationService interface {
	Usage(ctx context.Context, days int) (*models.UsageReport, error)
}

type ReportHandler struct {
	service reportApplicationService
}

func NewReportHandler(service reportApplicationService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Usage(c *fiber.Ctx) error {
	days := services.DefaultReportDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be a number"})
		}
		days = parsed
	}

	report, err := h.service.Usage(c.Context(), days)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be between 1 and 365"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build usage report"})
	}
	return c.JSON(fiber.Map{"report": report})
}
