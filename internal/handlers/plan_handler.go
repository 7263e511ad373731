package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/gofiber/fiber/v2"
)

type planApplicationService interface {
	CreateWorkoutPlan(ctx context.Context, coachID int64, clientID int64, input services.WorkoutPlanInput) (*models.WorkoutPlan, error)
	ListWorkoutPlans(ctx context.Context, coachID int64, clientID int64) ([]models.WorkoutPlan, error)
	UpdateWorkoutPlan(ctx context.Context, coachID int64, planID int64, input services.WorkoutPlanInput) (*models.WorkoutPlan, error)
	DeleteWorkoutPlan(ctx context.Context, coachID int64, planID int64) error
	MyWorkoutPlans(ctx context.Context, clientID int64) ([]models.WorkoutPlan, error)
	MyWorkoutPlan(ctx context.Context, clientID int64, planID int64) (*models.WorkoutPlan, error)
	CreateDietPlan(ctx context.Context, coachID int64, clientID int64, input services.DietPlanInput) (*models.DietPlan, error)
	ListDietPlans(ctx context.Context, coachID int64, clientID int64) ([]models.DietPlan, error)
	UpdateDietPlan(ctx context.Context, coachID int64, planID int64, input services.DietPlanInput) (*models.DietPlan, error)
	DeleteDietPlan(ctx context.Context, coachID int64, planID int64) error
	MyDietPlans(ctx context.Context, clientID int64) ([]models.DietPlan, error)
	MyDietPlan(ctx context.Context, clientID int64, planID int64) (*models.DietPlan, error)
}

type PlanHandler struct {
	service planApplicationService
}

func NewPlanHandler(service planApplicationService) *PlanHandler {
	return &PlanHandler{service: service}
}

type planFields struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Status      *string `json:"status" validate:"omitempty,oneof=active completed paused cancelled"`
}

type workoutPlanRequest struct {
	UserID         int64           `json:"user_id" validate:"required,gt=0"`
	Name           string          `json:"name" validate:"required,max=255"`
	Description    *string         `json:"description" validate:"omitempty,max=5000"`
	StartDate      string          `json:"start_date" validate:"required"`
	EndDate        *string         `json:"end_date"`
	DurationWeeks  *int            `json:"duration_weeks" validate:"omitempty,min=1"`
	WorkoutDetails json.RawMessage `json:"workout_details"`
}

type updateWorkoutPlanRequest struct {
	planFields
	DurationWeeks  *int            `json:"duration_weeks" validate:"omitempty,min=1"`
	WorkoutDetails json.RawMessage `json:"workout_details"`
}

type dietPlanRequest struct {
	UserID             int64           `json:"user_id" validate:"required,gt=0"`
	Name               string          `json:"name" validate:"required,max=255"`
	Description        *string         `json:"description" validate:"omitempty,max=5000"`
	StartDate          string          `json:"start_date" validate:"required"`
	EndDate            *string         `json:"end_date"`
	TargetCalories     *float64        `json:"target_calories" validate:"omitempty,min=0"`
	TargetProteinGrams *float64        `json:"target_protein_grams" validate:"omitempty,min=0"`
	TargetCarbsGrams   *float64        `json:"target_carbs_grams" validate:"omitempty,min=0"`
	TargetFatGrams     *float64        `json:"target_fat_grams" validate:"omitempty,min=0"`
	MealPlanDetails    json.RawMessage `json:"meal_plan_details"`
}

type updateDietPlanRequest struct {
	planFields
	TargetCalories     *float64        `json:"target_calories" validate:"omitempty,min=0"`
	TargetProteinGrams *float64        `json:"target_protein_grams" validate:"omitempty,min=0"`
	TargetCarbsGrams   *float64        `json:"target_carbs_grams" validate:"omitempty,min=0"`
	TargetFatGrams     *float64        `json:"target_fat_grams" validate:"omitempty,min=0"`
	MealPlanDetails    json.RawMessage `json:"meal_plan_details"`
}

func (h *PlanHandler) CreateWorkoutPlan(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req workoutPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	startDate, err := parseDate(&req.StartDate)
	if err != nil {
		return invalidDate(c, "start_date")
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return invalidDate(c, "end_date")
	}

	plan, err := h.service.CreateWorkoutPlan(c.Context(), coachID, req.UserID, services.WorkoutPlanInput{
		Name:           &req.Name,
		Description:    req.Description,
		StartDate:      startDate,
		EndDate:        endDate,
		DurationWeeks:  req.DurationWeeks,
		WorkoutDetails: planDetails(req.WorkoutDetails),
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"workout_plan": plan})
}

func (h *PlanHandler) ListWorkoutPlans(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	plans, err := h.service.ListWorkoutPlans(c.Context(), coachID, int64(parsePositiveInt(c.Query("client_id"), 0)))
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"workout_plans": plans})
}

func (h *PlanHandler) UpdateWorkoutPlan(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidPlanID(c)
	}

	var req updateWorkoutPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	startDate, endDate, field, err := parsePlanDates(req.planFields)
	if err != nil {
		return invalidDate(c, field)
	}

	plan, err := h.service.UpdateWorkoutPlan(c.Context(), coachID, planID, services.WorkoutPlanInput{
		Name:           req.Name,
		Description:    req.Description,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         req.Status,
		DurationWeeks:  req.DurationWeeks,
		WorkoutDetails: planDetails(req.WorkoutDetails),
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"workout_plan": plan})
}

func (h *PlanHandler) DeleteWorkoutPlan(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidPlanID(c)
	}

	if err := h.service.DeleteWorkoutPlan(c.Context(), coachID, planID); err != nil {
		return mapPlanError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlanHandler) MyWorkoutPlans(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	plans, err := h.service.MyWorkoutPlans(c.Context(), userID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"workout_plans": plans})
}

func (h *PlanHandler) MyWorkoutPlan(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidPlanID(c)
	}

	plan, err := h.service.MyWorkoutPlan(c.Context(), userID, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"workout_plan": plan})
}

func (h *PlanHandler) CreateDietPlan(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req dietPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	startDate, err := parseDate(&req.StartDate)
	if err != nil {
		return invalidDate(c, "start_date")
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return invalidDate(c, "end_date")
	}

	plan, err := h.service.CreateDietPlan(c.Context(), coachID, req.UserID, services.DietPlanInput{
		Name:               &req.Name,
		Description:        req.Description,
		StartDate:          startDate,
		EndDate:            endDate,
		TargetCalories:     req.TargetCalories,
		TargetProteinGrams: req.TargetProteinGrams,
		TargetCarbsGrams:   req.TargetCarbsGrams,
		TargetFatGrams:     req.TargetFatGrams,
		MealPlanDetails:    planDetails(req.MealPlanDetails),
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"diet_plan": plan})
}

func (h *PlanHandler) ListDietPlans(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	plans, err := h.service.ListDietPlans(c.Context(), coachID, int64(parsePositiveInt(c.Query("client_id"), 0)))
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"diet_plans": plans})
}

func (h *PlanHandler) UpdateDietPlan(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidPlanID(c)
	}

	var req updateDietPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	startDate, endDate, field, err := parsePlanDates(req.planFields)
	if err != nil {
		return invalidDate(c, field)
	}

	plan, err := h.service.UpdateDietPlan(c.Context(), coachID, planID, services.DietPlanInput{
		Name:               req.Name,
		Description:        req.Description,
		StartDate:          startDate,
		EndDate:            endDate,
		Status:             req.Status,
		TargetCalories:     req.TargetCalories,
		TargetProteinGrams: req.TargetProteinGrams,
		TargetCarbsGrams:   req.TargetCarbsGrams,
		TargetFatGrams:     req.TargetFatGrams,
		MealPlanDetails:    planDetails(req.MealPlanDetails),
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"diet_plan": plan})
}

func (h *PlanHandler) DeleteDietPlan(c *fiber.Ctx) error {
	coachID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidPlanID(c)
	}

	if err := h.service.DeleteDietPlan(c.Context(), coachID, planID); err != nil {
		return mapPlanError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlanHandler) MyDietPlans(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	plans, err := h.service.MyDietPlans(c.Context(), userID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"diet_plans": plans})
}

func (h *PlanHandler) MyDietPlan(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidPlanID(c)
	}

	plan, err := h.service.MyDietPlan(c.Context(), userID, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"diet_plan": plan})
}

func parsePlanDates(fields planFields) (start, end *time.Time, field string, err error) {
	if start, err = parseDate(fields.StartDate); err != nil {
		return nil, nil, "start_date", err
	}
	if end, err = parseDate(fields.EndDate); err != nil {
		return nil, nil, "end_date", err
	}
	return start, end, "", nil
}

// planDetails treats an explicit JSON null like an absent field.
func planDetails(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

func invalidPlanID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
}

func mapPlanError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	case errors.Is(err, services.ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Client not found"})
	case errors.Is(err, services.ErrPlanNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process plan request"})
	}
}
