package models

import (
	"encoding/json"
	"time"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

const (
	PlanActive    = "active"
	PlanCompleted = "completed"
	PlanPaused    = "paused"
	PlanCancelled = "cancelled"
)

// Log and plan dates are calendar days; the time part is always midnight UTC.
type WorkoutLog struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	WorkoutDate     time.Time `json:"workout_date"`
	ExerciseName    string    `json:"exercise_name"`
	Sets            *int      `json:"sets"`
	Reps            *int      `json:"reps"`
	Weight          *float64  `json:"weight"`
	DurationMinutes *int      `json:"duration_minutes"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type DietLog struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	MealDate     time.Time `json:"meal_date"`
	MealType     string    `json:"meal_type"`
	FoodName     string    `json:"food_name"`
	Calories     *float64  `json:"calories"`
	ProteinGrams *float64  `json:"protein_grams"`
	CarbsGrams   *float64  `json:"carbs_grams"`
	FatGrams     *float64  `json:"fat_grams"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type WorkoutPlan struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	CoachID        *int64          `json:"coach_id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date"`
	Status         string          `json:"status"`
	DurationWeeks  *int            `json:"duration_weeks"`
	WorkoutDetails json.RawMessage `json:"workout_details,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type DietPlan struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	CoachID            *int64          `json:"coach_id"`
	Name               string          `json:"name"`
	Description        *string         `json:"description"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            *time.Time      `json:"end_date"`
	Status             string          `json:"status"`
	TargetCalories     *float64        `json:"target_calories"`
	TargetProteinGrams *float64        `json:"target_protein_grams"`
	TargetCarbsGrams   *float64        `json:"target_carbs_grams"`
	TargetFatGrams     *float64        `json:"target_fat_grams"`
	MealPlanDetails    json.RawMessage `json:"meal_plan_details,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func IsValidMealType(mealType string) bool {
	switch mealType {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	default:
		return false
	}
}

func IsValidPlanStatus(status string) bool {
	switch status {
	case PlanActive, PlanCompleted, PlanPaused, PlanCancelled:
		return true
	default:
		return false
	}
}
