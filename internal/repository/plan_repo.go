package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
)

const (
	workoutPlanColumns = `id, user_id, coach_id, name, description, start_date, end_date, status, duration_weeks, workout_details, created_at, updated_at`
	dietPlanColumns    = `id, user_id, coach_id, name, description, start_date, end_date, status, target_calories, target_protein_grams, target_carbs_grams, target_fat_grams, meal_plan_details, created_at, updated_at`
)

// PlanListFilter selects plans by the client they are for and/or the coach
// who wrote them. Zero fields are ignored.
type PlanListFilter struct {
	UserID  int64
	CoachID int64
}

func (f PlanListFilter) where() (string, []any) {
	args := []any{}
	where := ""
	if f.UserID > 0 {
		args = append(args, f.UserID)
		where = fmt.Sprintf("WHERE user_id = $%d", len(args))
	}
	if f.CoachID > 0 {
		args = append(args, f.CoachID)
		if where == "" {
			where = fmt.Sprintf("WHERE coach_id = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND coach_id = $%d", len(args))
		}
	}
	return where, args
}

type WorkoutPlanInput struct {
	Name           *string
	Description    *string
	StartDate      *time.Time
	EndDate        *time.Time
	Status         *string
	DurationWeeks  *int
	WorkoutDetails json.RawMessage
}

type DietPlanInput struct {
	Name               *string
	Description        *string
	StartDate          *time.Time
	EndDate            *time.Time
	Status             *string
	TargetCalories     *float64
	TargetProteinGrams *float64
	TargetCarbsGrams   *float64
	TargetFatGrams     *float64
	MealPlanDetails    json.RawMessage
}

type WorkoutPlanRepository struct {
	db DBTX
}

func NewWorkoutPlanRepository(db DBTX) *WorkoutPlanRepository {
	return &WorkoutPlanRepository{db: db}
}

func scanWorkoutPlan(row rowScanner) (*models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	if err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.CoachID,
		&plan.Name,
		&plan.Description,
		&plan.StartDate,
		&plan.EndDate,
		&plan.Status,
		&plan.DurationWeeks,
		&plan.WorkoutDetails,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *WorkoutPlanRepository) Create(
	ctx context.Context,
	userID int64,
	coachID int64,
	input WorkoutPlanInput,
) (*models.WorkoutPlan, error) {
	query := `
		INSERT INTO workout_plans (user_id, coach_id, name, description, start_date, end_date, status, duration_weeks, workout_details)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, 'active'), $8, $9)
		RETURNING ` + workoutPlanColumns
	return scanWorkoutPlan(r.db.QueryRow(
		ctx,
		query,
		userID,
		coachID,
		input.Name,
		input.Description,
		input.StartDate,
		input.EndDate,
		input.Status,
		input.DurationWeeks,
		input.WorkoutDetails,
	))
}

func (r *WorkoutPlanRepository) GetByID(ctx context.Context, planID int64) (*models.WorkoutPlan, error) {
	query := `SELECT ` + workoutPlanColumns + ` FROM workout_plans WHERE id = $1`
	return scanWorkoutPlan(r.db.QueryRow(ctx, query, planID))
}

func (r *WorkoutPlanRepository) List(ctx context.Context, filter PlanListFilter) ([]models.WorkoutPlan, error) {
	where, args := filter.where()
	query := `SELECT ` + workoutPlanColumns + ` FROM workout_plans ` + where + ` ORDER BY start_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.WorkoutPlan, 0)
	for rows.Next() {
		plan, err := scanWorkoutPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *WorkoutPlanRepository) Update(ctx context.Context, planID int64, input WorkoutPlanInput) (*models.WorkoutPlan, error) {
	query := `
		UPDATE workout_plans
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			start_date = COALESCE($4, start_date),
			end_date = COALESCE($5, end_date),
			status = COALESCE($6, status),
			duration_weeks = COALESCE($7, duration_weeks),
			workout_details = COALESCE($8, workout_details),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workoutPlanColumns
	return scanWorkoutPlan(r.db.QueryRow(
		ctx,
		query,
		planID,
		input.Name,
		input.Description,
		input.StartDate,
		input.EndDate,
		input.Status,
		input.DurationWeeks,
		input.WorkoutDetails,
	))
}

func (r *WorkoutPlanRepository) Delete(ctx context.Context, planID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM workout_plans WHERE id = $1`, planID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WorkoutPlanRepository) CountActiveForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workout_plans WHERE user_id = $1 AND status = 'active'`,
		userID,
	).Scan(&count)
	return count, err
}

type DietPlanRepository struct {
	db DBTX
}

func NewDietPlanRepository(db DBTX) *DietPlanRepository {
	return &DietPlanRepository{db: db}
}

func scanDietPlan(row rowScanner) (*models.DietPlan, error) {
	var plan models.DietPlan
	if err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.CoachID,
		&plan.Name,
		&plan.Description,
		&plan.StartDate,
		&plan.EndDate,
		&plan.Status,
		&plan.TargetCalories,
		&plan.TargetProteinGrams,
		&plan.TargetCarbsGrams,
		&plan.TargetFatGrams,
		&plan.MealPlanDetails,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *DietPlanRepository) Create(
	ctx context.Context,
	userID int64,
	coachID int64,
	input DietPlanInput,
) (*models.DietPlan, error) {
	query := `
		INSERT INTO diet_plans (
			user_id, coach_id, name, description, start_date, end_date, status,
			target_calories, target_protein_grams, target_carbs_grams, target_fat_grams, meal_plan_details
		)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, 'active'), $8, $9, $10, $11, $12)
		RETURNING ` + dietPlanColumns
	return scanDietPlan(r.db.QueryRow(
		ctx,
		query,
		userID,
		coachID,
		input.Name,
		input.Description,
		input.StartDate,
		input.EndDate,
		input.Status,
		input.TargetCalories,
		input.TargetProteinGrams,
		input.TargetCarbsGrams,
		input.TargetFatGrams,
		input.MealPlanDetails,
	))
}

func (r *DietPlanRepository) GetByID(ctx context.Context, planID int64) (*models.DietPlan, error) {
	query := `SELECT ` + dietPlanColumns + ` FROM diet_plans WHERE id = $1`
	return scanDietPlan(r.db.QueryRow(ctx, query, planID))
}

func (r *DietPlanRepository) List(ctx context.Context, filter PlanListFilter) ([]models.DietPlan, error) {
	where, args := filter.where()
	query := `SELECT ` + dietPlanColumns + ` FROM diet_plans ` + where + ` ORDER BY start_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.DietPlan, 0)
	for rows.Next() {
		plan, err := scanDietPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *DietPlanRepository) Update(ctx context.Context, planID int64, input DietPlanInput) (*models.DietPlan, error) {
	query := `
		UPDATE diet_plans
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			start_date = COALESCE($4, start_date),
			end_date = COALESCE($5, end_date),
			status = COALESCE($6, status),
			target_calories = COALESCE($7, target_calories),
			target_protein_grams = COALESCE($8, target_protein_grams),
			target_carbs_grams = COALESCE($9, target_carbs_grams),
			target_fat_grams = COALESCE($10, target_fat_grams),
			meal_plan_details = COALESCE($11, meal_plan_details),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + dietPlanColumns
	return scanDietPlan(r.db.QueryRow(
		ctx,
		query,
		planID,
		input.Name,
		input.Description,
		input.StartDate,
		input.EndDate,
		input.Status,
		input.TargetCalories,
		input.TargetProteinGrams,
		input.TargetCarbsGrams,
		input.TargetFatGrams,
		input.MealPlanDetails,
	))
}

func (r *DietPlanRepository) Delete(ctx context.Context, planID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM diet_plans WHERE id = $1`, planID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DietPlanRepository) CountActiveForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM diet_plans WHERE user_id = $1 AND status = 'active'`,
		userID,
	).Scan(&count)
	return count, err
}
