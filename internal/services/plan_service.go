package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/jackc/pgx/v5"
)

type (
	WorkoutPlanInput = repository.WorkoutPlanInput
	DietPlanInput    = repository.DietPlanInput
)

// PlanService lets coaches author workout and diet plans for clients.
// A coach sees and changes only the plans they wrote; a client reads only
// plans written for them.
type PlanService struct {
	workoutPlans *repository.WorkoutPlanRepository
	dietPlans    *repository.DietPlanRepository
	users        userReader
}

func NewPlanService(
	workoutPlans *repository.WorkoutPlanRepository,
	dietPlans *repository.DietPlanRepository,
	users userReader,
) *PlanService {
	return &PlanService{
		workoutPlans: workoutPlans,
		dietPlans:    dietPlans,
		users:        users,
	}
}

func (s *PlanService) CreateWorkoutPlan(
	ctx context.Context,
	coachID int64,
	clientID int64,
	input WorkoutPlanInput,
) (*models.WorkoutPlan, error) {
	if input.Name == nil || input.StartDate == nil {
		return nil, ErrInvalidInput
	}
	if err := normalizeWorkoutPlan(&input); err != nil {
		return nil, err
	}
	if err := checkPlanDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.workoutPlans.Create(ctx, clientID, coachID, input)
}

// ListWorkoutPlans lists the coach's plans, narrowed to one client when
// clientID is positive.
func (s *PlanService) ListWorkoutPlans(ctx context.Context, coachID int64, clientID int64) ([]models.WorkoutPlan, error) {
	return s.workoutPlans.List(ctx, repository.PlanListFilter{UserID: clientID, CoachID: coachID})
}

func (s *PlanService) UpdateWorkoutPlan(
	ctx context.Context,
	coachID int64,
	planID int64,
	input WorkoutPlanInput,
) (*models.WorkoutPlan, error) {
	if input.Name == nil && input.Description == nil && input.StartDate == nil && input.EndDate == nil &&
		input.Status == nil && input.DurationWeeks == nil && input.WorkoutDetails == nil {
		return nil, ErrInvalidInput
	}
	if err := normalizeWorkoutPlan(&input); err != nil {
		return nil, err
	}

	plan, err := s.ownedWorkoutPlan(ctx, coachID, planID)
	if err != nil {
		return nil, err
	}
	if err := checkPlanDates(mergeDate(input.StartDate, &plan.StartDate), mergeDate(input.EndDate, plan.EndDate)); err != nil {
		return nil, err
	}

	updated, err := s.workoutPlans.Update(ctx, planID, input)
	return updated, planError(err)
}

func (s *PlanService) DeleteWorkoutPlan(ctx context.Context, coachID int64, planID int64) error {
	if _, err := s.ownedWorkoutPlan(ctx, coachID, planID); err != nil {
		return err
	}
	deleted, err := s.workoutPlans.Delete(ctx, planID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPlanNotFound
	}
	return nil
}

func (s *PlanService) MyWorkoutPlans(ctx context.Context, clientID int64) ([]models.WorkoutPlan, error) {
	return s.workoutPlans.List(ctx, repository.PlanListFilter{UserID: clientID})
}

func (s *PlanService) MyWorkoutPlan(ctx context.Context, clientID int64, planID int64) (*models.WorkoutPlan, error) {
	plan, err := s.workoutPlans.GetByID(ctx, planID)
	if err != nil {
		return nil, planError(err)
	}
	if plan.UserID != clientID {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *PlanService) CreateDietPlan(
	ctx context.Context,
	coachID int64,
	clientID int64,
	input DietPlanInput,
) (*models.DietPlan, error) {
	if input.Name == nil || input.StartDate == nil {
		return nil, ErrInvalidInput
	}
	if err := normalizeDietPlan(&input); err != nil {
		return nil, err
	}
	if err := checkPlanDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.dietPlans.Create(ctx, clientID, coachID, input)
}

func (s *PlanService) ListDietPlans(ctx context.Context, coachID int64, clientID int64) ([]models.DietPlan, error) {
	return s.dietPlans.List(ctx, repository.PlanListFilter{UserID: clientID, CoachID: coachID})
}

func (s *PlanService) UpdateDietPlan(
	ctx context.Context,
	coachID int64,
	planID int64,
	input DietPlanInput,
) (*models.DietPlan, error) {
	if input.Name == nil && input.Description == nil && input.StartDate == nil && input.EndDate == nil &&
		input.Status == nil && input.TargetCalories == nil && input.TargetProteinGrams == nil &&
		input.TargetCarbsGrams == nil && input.TargetFatGrams == nil && input.MealPlanDetails == nil {
		return nil, ErrInvalidInput
	}
	if err := normalizeDietPlan(&input); err != nil {
		return nil, err
	}

	plan, err := s.ownedDietPlan(ctx, coachID, planID)
	if err != nil {
		return nil, err
	}
	if err := checkPlanDates(mergeDate(input.StartDate, &plan.StartDate), mergeDate(input.EndDate, plan.EndDate)); err != nil {
		return nil, err
	}

	updated, err := s.dietPlans.Update(ctx, planID, input)
	return updated, planError(err)
}

func (s *PlanService) DeleteDietPlan(ctx context.Context, coachID int64, planID int64) error {
	if _, err := s.ownedDietPlan(ctx, coachID, planID); err != nil {
		return err
	}
	deleted, err := s.dietPlans.Delete(ctx, planID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPlanNotFound
	}
	return nil
}

func (s *PlanService) MyDietPlans(ctx context.Context, clientID int64) ([]models.DietPlan, error) {
	return s.dietPlans.List(ctx, repository.PlanListFilter{UserID: clientID})
}

func (s *PlanService) MyDietPlan(ctx context.Context, clientID int64, planID int64) (*models.DietPlan, error) {
	plan, err := s.dietPlans.GetByID(ctx, planID)
	if err != nil {
		return nil, planError(err)
	}
	if plan.UserID != clientID {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *PlanService) requireClient(ctx context.Context, clientID int64) error {
	user, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrClientNotFound
		}
		return err
	}
	if user.Role != models.RoleClient || !user.IsActive {
		return ErrClientNotFound
	}
	return nil
}

func (s *PlanService) ownedWorkoutPlan(ctx context.Context, coachID int64, planID int64) (*models.WorkoutPlan, error) {
	plan, err := s.workoutPlans.GetByID(ctx, planID)
	if err != nil {
		return nil, planError(err)
	}
	if plan.CoachID == nil || *plan.CoachID != coachID {
		return nil, ErrForbidden
	}
	return plan, nil
}

func (s *PlanService) ownedDietPlan(ctx context.Context, coachID int64, planID int64) (*models.DietPlan, error) {
	plan, err := s.dietPlans.GetByID(ctx, planID)
	if err != nil {
		return nil, planError(err)
	}
	if plan.CoachID == nil || *plan.CoachID != coachID {
		return nil, ErrForbidden
	}
	return plan, nil
}

func planError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPlanNotFound
	}
	return err
}

func normalizeWorkoutPlan(input *WorkoutPlanInput) error {
	if err := normalizePlanHeader(&input.Name, &input.Status); err != nil {
		return err
	}
	if input.DurationWeeks != nil && *input.DurationWeeks < 1 {
		return ErrInvalidInput
	}
	if !validPlanDetails(input.WorkoutDetails) {
		return ErrInvalidInput
	}
	input.StartDate = calendarDayPtr(input.StartDate)
	input.EndDate = calendarDayPtr(input.EndDate)
	return nil
}

func normalizeDietPlan(input *DietPlanInput) error {
	if err := normalizePlanHeader(&input.Name, &input.Status); err != nil {
		return err
	}
	if negativeFloat(input.TargetCalories) || negativeFloat(input.TargetProteinGrams) ||
		negativeFloat(input.TargetCarbsGrams) || negativeFloat(input.TargetFatGrams) {
		return ErrInvalidInput
	}
	if !validPlanDetails(input.MealPlanDetails) {
		return ErrInvalidInput
	}
	input.StartDate = calendarDayPtr(input.StartDate)
	input.EndDate = calendarDayPtr(input.EndDate)
	return nil
}

func normalizePlanHeader(name **string, status **string) error {
	if *name != nil {
		trimmed, ok := normalizeName(**name)
		if !ok {
			return ErrInvalidInput
		}
		*name = &trimmed
	}
	if *status != nil {
		next := strings.ToLower(strings.TrimSpace(**status))
		if !models.IsValidPlanStatus(next) {
			return ErrInvalidStatus
		}
		*status = &next
	}
	return nil
}

// validPlanDetails accepts an absent value or a JSON object.
func validPlanDetails(details json.RawMessage) bool {
	if details == nil {
		return true
	}
	trimmed := bytes.TrimSpace(details)
	return json.Valid(trimmed) && len(trimmed) > 0 && trimmed[0] == '{'
}

func checkPlanDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidInput
	}
	return nil
}

func mergeDate(next, current *time.Time) *time.Time {
	if next != nil {
		return next
	}
	return current
}

func calendarDayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := calendarDay(*t)
	return &day
}
