package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db           *pgxpool.Pool
	userRepo     *repository.UserRepository
	bookingRepo  *repository.BookingRepository
	messageRepo  *repository.MessageRepository
	feedbackRepo *repository.FeedbackRepository
	reportRepo   *repository.ReportRepository
	defaultSlots int
}

func NewUserService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	bookingRepo *repository.BookingRepository,
	messageRepo *repository.MessageRepository,
	feedbackRepo *repository.FeedbackRepository,
	reportRepo *repository.ReportRepository,
	defaultSlots int,
) *UserService {
	return &UserService{
		db:           db,
		userRepo:     userRepo,
		bookingRepo:  bookingRepo,
		messageRepo:  messageRepo,
		feedbackRepo: feedbackRepo,
		reportRepo:   reportRepo,
		defaultSlots: defaultSlots,
	}
}

type UpdateUserInput struct {
	FullName *string
	Role     *string
	IsActive *bool
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, fullName string) (*models.User, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return nil, ErrInvalidInput
	}
	return s.update(ctx, userID, repository.UpdateUserInput{FullName: &name})
}

func (s *UserService) ListUsers(
	ctx context.Context,
	role string,
	page int,
	limit int,
) ([]models.User, int, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, 0, ErrInvalidInput
	}
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.userRepo.List(ctx, repository.UserListFilter{
		Role:   role,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

// UpdateUser applies an admin edit. Promoting a user to coach gives them a
// coach profile with the default number of slots.
func (s *UserService) UpdateUser(
	ctx context.Context,
	actorID int64,
	userID int64,
	input UpdateUserInput,
) (*models.User, error) {
	if input.FullName == nil && input.Role == nil && input.IsActive == nil {
		return nil, ErrInvalidInput
	}
	if input.Role != nil && !models.IsValidRole(*input.Role) {
		return nil, ErrInvalidInput
	}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, ErrInvalidInput
		}
		input.FullName = &name
	}
	if actorID == userID && input.IsActive != nil && !*input.IsActive {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	user, err := repository.NewUserRepository(tx).Update(ctx, userID, repository.UpdateUserInput{
		FullName: input.FullName,
		Role:     input.Role,
		IsActive: input.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Role == models.RoleCoach {
		if err := repository.NewCoachProfileRepository(tx).Create(ctx, user.ID, s.defaultSlots); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// DisableUser soft-deletes an account. Admins cannot disable themselves.
func (s *UserService) DisableUser(ctx context.Context, actorID int64, userID int64) (*models.User, error) {
	if actorID == userID {
		return nil, ErrForbidden
	}
	inactive := false
	return s.update(ctx, userID, repository.UpdateUserInput{IsActive: &inactive})
}

func (s *UserService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	usersByRole, active, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	bookingsByStatus, err := s.bookingRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	feedbackTotal, feedbackOpen, err := s.feedbackRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	activity, err := s.reportRepo.Activity(ctx, calendarDay(time.Now().Add(-progressWindow)))
	if err != nil {
		return nil, err
	}

	return &models.PlatformStats{
		UsersByRole:      usersByRole,
		ActiveUsers:      active,
		BookingsByStatus: bookingsByStatus,
		TotalMessages:    messages,
		TotalFeedback:    feedbackTotal,
		OpenFeedback:     feedbackOpen,
		Activity:         activity,
	}, nil
}

func (s *UserService) update(
	ctx context.Context,
	userID int64,
	input repository.UpdateUserInput,
) (*models.User, error) {
	user, err := s.userRepo.Update(ctx, userID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
