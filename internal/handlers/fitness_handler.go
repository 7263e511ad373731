package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type fitnessApplicationService interface {
	LogWorkout(ctx context.Context, userID int64, input services.WorkoutLogInput) (*models.WorkoutLog, error)
	ListWorkoutLogs(ctx context.Context, userID int64, dates services.DateRange) ([]models.WorkoutLog, error)
	GetWorkoutLog(ctx context.Context, userID int64, logID int64) (*models.WorkoutLog, error)
	UpdateWorkoutLog(ctx context.Context, userID int64, logID int64, input services.WorkoutLogInput) (*models.WorkoutLog, error)
	DeleteWorkoutLog(ctx context.Context, userID int64, logID int64) error
	LogMeal(ctx context.Context, userID int64, input services.DietLogInput) (*models.DietLog, error)
	ListDietLogs(ctx context.Context, userID int64, dates services.DateRange) ([]models.DietLog, error)
	GetDietLog(ctx context.Context, userID int64, logID int64) (*models.DietLog, error)
	UpdateDietLog(ctx context.Context, userID int64, logID int64, input services.DietLogInput) (*models.DietLog, error)
	DeleteDietLog(ctx context.Context, userID int64, logID int64) error
	Progress(ctx context.Context, userID int64) (*models.Progress, error)
	ListClients(ctx context.Context) ([]models.User, error)
	GetClient(ctx context.Context, clientID int64) (*models.User, error)
	ClientWorkoutLogs(ctx context.Context, clientID int64, dates services.DateRange) ([]models.WorkoutLog, error)
	ClientDietLogs(ctx context.Context, clientID int64, dates services.DateRange) ([]models.DietLog, error)
	ClientProgress(ctx context.Context, clientID int64) (*models.Progress, error)
}

// FitnessHandler serves a client's own logs and progress, and the coach's
// read-only view of clients.
type FitnessHandler struct {
	service fitnessApplicationService
}

func NewFitnessHandler(service fitnessApplicationService) *FitnessHandler {
	return &FitnessHandler{service: service}
}

type workoutLogRequest struct {
	WorkoutDate     string   `json:"workout_date" validate:"required"`
	ExerciseName    string   `json:"exercise_name" validate:"required,max=255"`
	Sets            *int     `json:"sets" validate:"omitempty,min=0"`
	Reps            *int     `json:"reps" validate:"omitempty,min=0"`
	Weight          *float64 `json:"weight" validate:"omitempty,min=0"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,min=0"`
	Notes           *string  `json:"notes" validate:"omitempty,max=2000"`
}

type updateWorkoutLogRequest struct {
	WorkoutDate     *string  `json:"workout_date"`
	ExerciseName    *string  `json:"exercise_name" validate:"omitempty,min=1,max=255"`
	Sets            *int     `json:"sets" validate:"omitempty,min=0"`
	Reps            *int     `json:"reps" validate:"omitempty,min=0"`
	Weight          *float64 `json:"weight" validate:"omitempty,min=0"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,min=0"`
	Notes           *string  `json:"notes" validate:"omitempty,max=2000"`
}

type dietLogRequest struct {
	MealDate     string   `json:"meal_date" validate:"required"`
	MealType     string   `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snack"`
	FoodName     string   `json:"food_name" validate:"required,max=255"`
	Calories     *float64 `json:"calories" validate:"omitempty,min=0"`
	ProteinGrams *float64 `json:"protein_grams" validate:"omitempty,min=0"`
	CarbsGrams   *float64 `json:"carbs_grams" validate:"omitempty,min=0"`
	FatGrams     *float64 `json:"fat_grams" validate:"omitempty,min=0"`
	Notes        *string  `json:"notes" validate:"omitempty,max=2000"`
}

type updateDietLogRequest struct {
	MealDate     *string  `json:"meal_date"`
	MealType     *string  `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	FoodName     *string  `json:"food_name" validate:"omitempty,min=1,max=255"`
	Calories     *float64 `json:"calories" validate:"omitempty,min=0"`
	ProteinGrams *float64 `json:"protein_grams" validate:"omitempty,min=0"`
	CarbsGrams   *float64 `json:"carbs_grams" validate:"omitempty,min=0"`
	FatGrams     *float64 `json:"fat_grams" validate:"omitempty,min=0"`
	Notes        *string  `json:"notes" validate:"omitempty,max=2000"`
}

func (h *FitnessHandler) CreateWorkoutLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req workoutLogRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	workoutDate, err := parseDate(&req.WorkoutDate)
	if err != nil {
		return invalidDate(c, "workout_date")
	}

	log, err := h.service.LogWorkout(c.Context(), userID, services.WorkoutLogInput{
		WorkoutDate:     workoutDate,
		ExerciseName:    &req.ExerciseName,
		Sets:            req.Sets,
		Reps:            req.Reps,
		Weight:          req.Weight,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"workout_log": log})
}

func (h *FitnessHandler) ListWorkoutLogs(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	dates, ok := parseDateRange(c)
	if !ok {
		return invalidDate(c, "start_date and end_date")
	}

	logs, err := h.service.ListWorkoutLogs(c.Context(), userID, dates)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"workout_logs": logs})
}

func (h *FitnessHandler) GetWorkoutLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	logID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidLogID(c)
	}

	log, err := h.service.GetWorkoutLog(c.Context(), userID, logID)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"workout_log": log})
}

func (h *FitnessHandler) UpdateWorkoutLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	logID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidLogID(c)
	}

	var req updateWorkoutLogRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	workoutDate, err := parseDate(req.WorkoutDate)
	if err != nil {
		return invalidDate(c, "workout_date")
	}

	log, err := h.service.UpdateWorkoutLog(c.Context(), userID, logID, services.WorkoutLogInput{
		WorkoutDate:     workoutDate,
		ExerciseName:    req.ExerciseName,
		Sets:            req.Sets,
		Reps:            req.Reps,
		Weight:          req.Weight,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"workout_log": log})
}

func (h *FitnessHandler) DeleteWorkoutLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	logID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidLogID(c)
	}

	if err := h.service.DeleteWorkoutLog(c.Context(), userID, logID); err != nil {
		return mapFitnessError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FitnessHandler) CreateDietLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req dietLogRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	mealDate, err := parseDate(&req.MealDate)
	if err != nil {
		return invalidDate(c, "meal_date")
	}

	log, err := h.service.LogMeal(c.Context(), userID, services.DietLogInput{
		MealDate:     mealDate,
		MealType:     &req.MealType,
		FoodName:     &req.FoodName,
		Calories:     req.Calories,
		ProteinGrams: req.ProteinGrams,
		CarbsGrams:   req.CarbsGrams,
		FatGrams:     req.FatGrams,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"diet_log": log})
}

func (h *FitnessHandler) ListDietLogs(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	dates, ok := parseDateRange(c)
	if !ok {
		return invalidDate(c, "start_date and end_date")
	}

	logs, err := h.service.ListDietLogs(c.Context(), userID, dates)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"diet_logs": logs})
}

func (h *FitnessHandler) GetDietLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	logID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidLogID(c)
	}

	log, err := h.service.GetDietLog(c.Context(), userID, logID)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"diet_log": log})
}

func (h *FitnessHandler) UpdateDietLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	logID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidLogID(c)
	}

	var req updateDietLogRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	mealDate, err := parseDate(req.MealDate)
	if err != nil {
		return invalidDate(c, "meal_date")
	}

	log, err := h.service.UpdateDietLog(c.Context(), userID, logID, services.DietLogInput{
		MealDate:     mealDate,
		MealType:     req.MealType,
		FoodName:     req.FoodName,
		Calories:     req.Calories,
		ProteinGrams: req.ProteinGrams,
		CarbsGrams:   req.CarbsGrams,
		FatGrams:     req.FatGrams,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"diet_log": log})
}

func (h *FitnessHandler) DeleteDietLog(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	logID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidLogID(c)
	}

	if err := h.service.DeleteDietLog(c.Context(), userID, logID); err != nil {
		return mapFitnessError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FitnessHandler) Progress(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	progress, err := h.service.Progress(c.Context(), userID)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(progress)
}

func (h *FitnessHandler) ListClients(c *fiber.Ctx) error {
	clients, err := h.service.ListClients(c.Context())
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"clients": clients})
}

func (h *FitnessHandler) GetClient(c *fiber.Ctx) error {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidClientID(c)
	}

	client, err := h.service.GetClient(c.Context(), clientID)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"client": client})
}

func (h *FitnessHandler) ClientWorkoutLogs(c *fiber.Ctx) error {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidClientID(c)
	}
	dates, ok := parseDateRange(c)
	if !ok {
		return invalidDate(c, "start_date and end_date")
	}

	logs, err := h.service.ClientWorkoutLogs(c.Context(), clientID, dates)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"workout_logs": logs})
}

func (h *FitnessHandler) ClientDietLogs(c *fiber.Ctx) error {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidClientID(c)
	}
	dates, ok := parseDateRange(c)
	if !ok {
		return invalidDate(c, "start_date and end_date")
	}

	logs, err := h.service.ClientDietLogs(c.Context(), clientID, dates)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(fiber.Map{"diet_logs": logs})
}

func (h *FitnessHandler) ClientProgress(c *fiber.Ctx) error {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidClientID(c)
	}

	progress, err := h.service.ClientProgress(c.Context(), clientID)
	if err != nil {
		return mapFitnessError(c, err)
	}
	return c.JSON(progress)
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseDateRange(c *fiber.Ctx) (services.DateRange, bool) {
	start, end := c.Query("start_date"), c.Query("end_date")
	from, err := parseDate(&start)
	if err != nil {
		return services.DateRange{}, false
	}
	to, err := parseDate(&end)
	if err != nil {
		return services.DateRange{}, false
	}
	return services.DateRange{From: from, To: to}, true
}

func invalidDate(c *fiber.Ctx, field string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": field + " must be a YYYY-MM-DD date"})
}

func invalidLogID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid log id"})
}

func invalidClientID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid client id"})
}

func mapFitnessError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrLogNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Log entry not found"})
	case errors.Is(err, services.ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Client not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process fitness request"})
	}
}
