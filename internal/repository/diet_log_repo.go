package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
)

const dietLogColumns = `id, user_id, meal_date, meal_type, food_name, calories, protein_grams, carbs_grams, fat_grams, notes, created_at, updated_at`

type DietLogInput struct {
	MealDate     *time.Time
	MealType     *string
	FoodName     *string
	Calories     *float64
	ProteinGrams *float64
	CarbsGrams   *float64
	FatGrams     *float64
	Notes        *string
}

type DietLogRepository struct {
	db DBTX
}

func NewDietLogRepository(db DBTX) *DietLogRepository {
	return &DietLogRepository{db: db}
}

func scanDietLog(row rowScanner) (*models.DietLog, error) {
	var log models.DietLog
	if err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.MealDate,
		&log.MealType,
		&log.FoodName,
		&log.Calories,
		&log.ProteinGrams,
		&log.CarbsGrams,
		&log.FatGrams,
		&log.Notes,
		&log.CreatedAt,
		&log.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &log, nil
}

// Create requires MealDate, MealType and FoodName to be set.
func (r *DietLogRepository) Create(ctx context.Context, userID int64, input DietLogInput) (*models.DietLog, error) {
	query := `
		INSERT INTO diet_logs (user_id, meal_date, meal_type, food_name, calories, protein_grams, carbs_grams, fat_grams, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + dietLogColumns
	return scanDietLog(r.db.QueryRow(
		ctx,
		query,
		userID,
		input.MealDate,
		input.MealType,
		input.FoodName,
		input.Calories,
		input.ProteinGrams,
		input.CarbsGrams,
		input.FatGrams,
		input.Notes,
	))
}

func (r *DietLogRepository) GetForUser(ctx context.Context, userID int64, logID int64) (*models.DietLog, error) {
	query := `SELECT ` + dietLogColumns + ` FROM diet_logs WHERE id = $1 AND user_id = $2`
	return scanDietLog(r.db.QueryRow(ctx, query, logID, userID))
}

func (r *DietLogRepository) ListForUser(ctx context.Context, userID int64, dates DateRange) ([]models.DietLog, error) {
	args := []any{userID}
	whereParts, args := dates.where("meal_date", args)
	whereParts = append([]string{"user_id = $1"}, whereParts...)

	query := `SELECT ` + dietLogColumns + ` FROM diet_logs
		WHERE ` + strings.Join(whereParts, " AND ") + `
		ORDER BY meal_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.DietLog, 0)
	for rows.Next() {
		log, err := scanDietLog(rows)
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

func (r *DietLogRepository) UpdateForUser(
	ctx context.Context,
	userID int64,
	logID int64,
	input DietLogInput,
) (*models.DietLog, error) {
	query := `
		UPDATE diet_logs
		SET meal_date = COALESCE($3, meal_date),
			meal_type = COALESCE($4, meal_type),
			food_name = COALESCE($5, food_name),
			calories = COALESCE($6, calories),
			protein_grams = COALESCE($7, protein_grams),
			carbs_grams = COALESCE($8, carbs_grams),
			fat_grams = COALESCE($9, fat_grams),
			notes = COALESCE($10, notes),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + dietLogColumns
	return scanDietLog(r.db.QueryRow(
		ctx,
		query,
		logID,
		userID,
		input.MealDate,
		input.MealType,
		input.FoodName,
		input.Calories,
		input.ProteinGrams,
		input.CarbsGrams,
		input.FatGrams,
		input.Notes,
	))
}

func (r *DietLogRepository) DeleteForUser(ctx context.Context, userID int64, logID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM diet_logs WHERE id = $1 AND user_id = $2`, logID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DietLogRepository) CountForUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM diet_logs WHERE user_id = $1 AND meal_date >= $2`,
		userID,
		since,
	).Scan(&count)
	return count, err
}
