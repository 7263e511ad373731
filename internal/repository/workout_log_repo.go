package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
)

const workoutLogColumns = `id, user_id, workout_date, exercise_name, sets, reps, weight, duration_minutes, notes, created_at, updated_at`

// DateRange bounds a log listing by calendar day, both ends inclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) where(column string, args []any) ([]string, []any) {
	parts := []string{}
	if r.From != nil {
		args = append(args, *r.From)
		parts = append(parts, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if r.To != nil {
		args = append(args, *r.To)
		parts = append(parts, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	return parts, args
}

type WorkoutLogInput struct {
	WorkoutDate     *time.Time
	ExerciseName    *string
	Sets            *int
	Reps            *int
	Weight          *float64
	DurationMinutes *int
	Notes           *string
}

type WorkoutLogRepository struct {
	db DBTX
}

func NewWorkoutLogRepository(db DBTX) *WorkoutLogRepository {
	return &WorkoutLogRepository{db: db}
}

func scanWorkoutLog(row rowScanner) (*models.WorkoutLog, error) {
	var log models.WorkoutLog
	if err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.WorkoutDate,
		&log.ExerciseName,
		&log.Sets,
		&log.Reps,
		&log.Weight,
		&log.DurationMinutes,
		&log.Notes,
		&log.CreatedAt,
		&log.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &log, nil
}

// Create requires WorkoutDate and ExerciseName to be set.
func (r *WorkoutLogRepository) Create(ctx context.Context, userID int64, input WorkoutLogInput) (*models.WorkoutLog, error) {
	query := `
		INSERT INTO workout_logs (user_id, workout_date, exercise_name, sets, reps, weight, duration_minutes, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + workoutLogColumns
	return scanWorkoutLog(r.db.QueryRow(
		ctx,
		query,
		userID,
		input.WorkoutDate,
		input.ExerciseName,
		input.Sets,
		input.Reps,
		input.Weight,
		input.DurationMinutes,
		input.Notes,
	))
}

func (r *WorkoutLogRepository) GetForUser(ctx context.Context, userID int64, logID int64) (*models.WorkoutLog, error) {
	query := `SELECT ` + workoutLogColumns + ` FROM workout_logs WHERE id = $1 AND user_id = $2`
	return scanWorkoutLog(r.db.QueryRow(ctx, query, logID, userID))
}

func (r *WorkoutLogRepository) ListForUser(ctx context.Context, userID int64, dates DateRange) ([]models.WorkoutLog, error) {
	args := []any{userID}
	whereParts, args := dates.where("workout_date", args)
	whereParts = append([]string{"user_id = $1"}, whereParts...)

	query := `SELECT ` + workoutLogColumns + ` FROM workout_logs
		WHERE ` + strings.Join(whereParts, " AND ") + `
		ORDER BY workout_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.WorkoutLog, 0)
	for rows.Next() {
		log, err := scanWorkoutLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// UpdateForUser overwrites the non-nil fields of input.
func (r *WorkoutLogRepository) UpdateForUser(
	ctx context.Context,
	userID int64,
	logID int64,
	input WorkoutLogInput,
) (*models.WorkoutLog, error) {
	query := `
		UPDATE workout_logs
		SET workout_date = COALESCE($3, workout_date),
			exercise_name = COALESCE($4, exercise_name),
			sets = COALESCE($5, sets),
			reps = COALESCE($6, reps),
			weight = COALESCE($7, weight),
			duration_minutes = COALESCE($8, duration_minutes),
			notes = COALESCE($9, notes),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + workoutLogColumns
	return scanWorkoutLog(r.db.QueryRow(
		ctx,
		query,
		logID,
		userID,
		input.WorkoutDate,
		input.ExerciseName,
		input.Sets,
		input.Reps,
		input.Weight,
		input.DurationMinutes,
		input.Notes,
	))
}

func (r *WorkoutLogRepository) DeleteForUser(ctx context.Context, userID int64, logID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM workout_logs WHERE id = $1 AND user_id = $2`, logID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WorkoutLogRepository) CountForUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workout_logs WHERE user_id = $1 AND workout_date >= $2`,
		userID,
		since,
	).Scan(&count)
	return count, err
}
