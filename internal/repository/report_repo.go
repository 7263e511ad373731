package repository

import (
	"context"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
)

// ReportRepository runs the admin-side aggregate queries over logs and plans.
type ReportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Activity counts all logs, logs dated on or after since, and active plans.
func (r *ReportRepository) Activity(ctx context.Context, since time.Time) (models.ActivityStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM workout_logs),
			(SELECT COUNT(*) FROM diet_logs),
			(SELECT COUNT(*) FROM workout_logs WHERE workout_date >= $1),
			(SELECT COUNT(*) FROM diet_logs WHERE meal_date >= $1),
			(SELECT COUNT(*) FROM workout_plans WHERE status = 'active'),
			(SELECT COUNT(*) FROM diet_plans WHERE status = 'active')
	`
	var stats models.ActivityStats
	err := r.db.QueryRow(ctx, query, since).Scan(
		&stats.TotalWorkouts,
		&stats.TotalDietLogs,
		&stats.RecentWorkouts,
		&stats.RecentDietLogs,
		&stats.ActiveWorkoutPlans,
		&stats.ActiveDietPlans,
	)
	return stats, err
}

// Usage fills the counters of report for the window starting at since.
// Users and plans are counted by creation time, logs by their own date.
func (r *ReportRepository) Usage(ctx context.Context, since time.Time, report *models.UsageReport) error {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE created_at >= $1),
			(SELECT COUNT(*) FROM workout_logs WHERE workout_date >= $2),
			(SELECT COUNT(*) FROM diet_logs WHERE meal_date >= $2),
			(SELECT COUNT(*) FROM workout_plans WHERE created_at >= $1),
			(SELECT COUNT(*) FROM diet_plans WHERE created_at >= $1)
	`
	return r.db.QueryRow(ctx, query, since, since).Scan(
		&report.NewUsers,
		&report.WorkoutsLogged,
		&report.DietLogs,
		&report.WorkoutPlans,
		&report.DietPlans,
	)
}

func (r *ReportRepository) TopWorkoutUsers(ctx context.Context, since time.Time, limit int) ([]models.TopUser, error) {
	query := `
		SELECT u.id, u.full_name, u.email, COUNT(w.id) AS workout_count
		FROM users u
		JOIN workout_logs w ON w.user_id = u.id
		WHERE w.workout_date >= $1
		GROUP BY u.id, u.full_name, u.email
		ORDER BY workout_count DESC, u.id ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.TopUser, 0, limit)
	for rows.Next() {
		var user models.TopUser
		if err := rows.Scan(&user.UserID, &user.FullName, &user.Email, &user.WorkoutCount); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
