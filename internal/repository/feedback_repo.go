package repository

import (
	"context"

	"github.com/Rafi653/vibe-project/internal/models"
)

const feedbackColumns = `id, user_id, name, email, message, is_anonymous, page_url, user_agent, status, created_at, updated_at`

type FeedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := row.Scan(
		&feedback.ID,
		&feedback.UserID,
		&feedback.Name,
		&feedback.Email,
		&feedback.Message,
		&feedback.IsAnonymous,
		&feedback.PageURL,
		&feedback.UserAgent,
		&feedback.Status,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) (*models.Feedback, error) {
	query := `
		INSERT INTO feedback (user_id, name, email, message, is_anonymous, page_url, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + feedbackColumns
	return scanFeedback(r.db.QueryRow(
		ctx,
		query,
		feedback.UserID,
		feedback.Name,
		feedback.Email,
		feedback.Message,
		feedback.IsAnonymous,
		feedback.PageURL,
		feedback.UserAgent,
	))
}

func (r *FeedbackRepository) List(ctx context.Context, limit int, offset int) ([]models.Feedback, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]models.Feedback, 0)
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *FeedbackRepository) UpdateStatus(ctx context.Context, feedbackID int64, status string) (*models.Feedback, error) {
	query := `
		UPDATE feedback
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + feedbackColumns
	return scanFeedback(r.db.QueryRow(ctx, query, feedbackID, status))
}

// Counts returns the total number of feedback entries and how many are open.
func (r *FeedbackRepository) Counts(ctx context.Context) (int, int, error) {
	var total, open int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'open')
		FROM feedback
	`).Scan(&total, &open)
	return total, open, err
}
