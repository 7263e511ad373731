package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/pkg/utils"
	"github.com/jackc/pgx/v5"
)

const maxFeedbackLength = 5000

type feedbackStore interface {
	Create(ctx context.Context, feedback *models.Feedback) (*models.Feedback, error)
	List(ctx context.Context, limit int, offset int) ([]models.Feedback, int, error)
	UpdateStatus(ctx context.Context, feedbackID int64, status string) (*models.Feedback, error)
}

type FeedbackService struct {
	repo feedbackStore
}

func NewFeedbackService(repo feedbackStore) *FeedbackService {
	return &FeedbackService{repo: repo}
}

type SubmitFeedbackInput struct {
	UserID      *int64
	Name        *string
	Email       *string
	Message     string
	IsAnonymous bool
	PageURL     *string
	UserAgent   *string
}

// Submit stores a feedback entry. Anonymous submissions keep no identity,
// even when the sender is signed in.
func (s *FeedbackService) Submit(ctx context.Context, input SubmitFeedbackInput) (*models.Feedback, error) {
	message := utils.SanitizeText(input.Message)
	if message == "" || utf8.RuneCountInString(message) > maxFeedbackLength {
		return nil, ErrInvalidInput
	}

	feedback := &models.Feedback{
		Message:     message,
		IsAnonymous: input.IsAnonymous,
		PageURL:     cleanOptional(input.PageURL),
		UserAgent:   cleanOptional(input.UserAgent),
	}
	if !input.IsAnonymous {
		feedback.UserID = input.UserID
		feedback.Name = cleanOptional(input.Name)
		feedback.Email = cleanOptional(input.Email)
	}

	return s.repo.Create(ctx, feedback)
}

func (s *FeedbackService) List(ctx context.Context, skip int, limit int) ([]models.Feedback, int, error) {
	if skip < 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.repo.List(ctx, limit, skip)
}

func (s *FeedbackService) UpdateStatus(ctx context.Context, feedbackID int64, status string) (*models.Feedback, error) {
	status = strings.TrimSpace(status)
	if !models.IsValidFeedbackStatus(status) {
		return nil, ErrInvalidStatus
	}
	feedback, err := s.repo.UpdateStatus(ctx, feedbackID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return feedback, nil
}

func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := utils.SanitizeText(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
