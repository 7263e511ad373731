package models

import "time"

type ActivityCounts struct {
	WorkoutSessions int `json:"workout_sessions"`
	DietLogs        int `json:"diet_logs"`
}

type ActivePlanCounts struct {
	WorkoutPlans int `json:"workout_plans"`
	DietPlans    int `json:"diet_plans"`
}

// Progress summarises a client's recent logging. ActivePlans is only
// filled for the client's own view.
type Progress struct {
	ClientID    int64             `json:"client_id"`
	Last30Days  ActivityCounts    `json:"last_30_days"`
	ActivePlans *ActivePlanCounts `json:"active_plans,omitempty"`
}

type ActivityStats struct {
	TotalWorkouts      int `json:"total_workouts"`
	TotalDietLogs      int `json:"total_diet_logs"`
	RecentWorkouts     int `json:"recent_workouts"`
	RecentDietLogs     int `json:"recent_diet_logs"`
	ActiveWorkoutPlans int `json:"active_workout_plans"`
	ActiveDietPlans    int `json:"active_diet_plans"`
}

type TopUser struct {
	UserID       int64  `json:"user_id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	WorkoutCount int    `json:"workout_count"`
}

type UsageReport struct {
	ReportPeriodDays int       `json:"report_period_days"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	NewUsers         int       `json:"new_users"`
	WorkoutsLogged   int       `json:"workouts_logged"`
	DietLogs         int       `json:"diet_logs"`
	WorkoutPlans     int       `json:"workout_plans_created"`
	DietPlans        int       `json:"diet_plans_created"`
	TopUsers         []TopUser `json:"top_users"`
}
