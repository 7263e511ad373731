package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/jackc/pgx/v5"
)

const (
	maxLogNameLength = 255
	progressWindow   = 30 * 24 * time.Hour
)

type (
	WorkoutLogInput = repository.WorkoutLogInput
	DietLogInput    = repository.DietLogInput
	DateRange       = repository.DateRange
)

type clientLister interface {
	userReader
	ListClients(ctx context.Context) ([]models.User, error)
}

// FitnessService owns client workout and diet logs, the coach's read-only
// view of them, and progress summaries.
type FitnessService struct {
	workoutLogs  *repository.WorkoutLogRepository
	dietLogs     *repository.DietLogRepository
	workoutPlans *repository.WorkoutPlanRepository
	dietPlans    *repository.DietPlanRepository
	users        clientLister
	now          func() time.Time
}

func NewFitnessService(
	workoutLogs *repository.WorkoutLogRepository,
	dietLogs *repository.DietLogRepository,
	workoutPlans *repository.WorkoutPlanRepository,
	dietPlans *repository.DietPlanRepository,
	users clientLister,
) *FitnessService {
	return &FitnessService{
		workoutLogs:  workoutLogs,
		dietLogs:     dietLogs,
		workoutPlans: workoutPlans,
		dietPlans:    dietPlans,
		users:        users,
		now:          time.Now,
	}
}

func (s *FitnessService) LogWorkout(ctx context.Context, userID int64, input WorkoutLogInput) (*models.WorkoutLog, error) {
	if input.WorkoutDate == nil || input.ExerciseName == nil {
		return nil, ErrInvalidInput
	}
	if err := normalizeWorkoutLog(&input); err != nil {
		return nil, err
	}
	return s.workoutLogs.Create(ctx, userID, input)
}

func (s *FitnessService) ListWorkoutLogs(ctx context.Context, userID int64, dates DateRange) ([]models.WorkoutLog, error) {
	dates, err := normalizeDateRange(dates)
	if err != nil {
		return nil, err
	}
	return s.workoutLogs.ListForUser(ctx, userID, dates)
}

func (s *FitnessService) GetWorkoutLog(ctx context.Context, userID int64, logID int64) (*models.WorkoutLog, error) {
	log, err := s.workoutLogs.GetForUser(ctx, userID, logID)
	return log, logError(err)
}

func (s *FitnessService) UpdateWorkoutLog(
	ctx context.Context,
	userID int64,
	logID int64,
	input WorkoutLogInput,
) (*models.WorkoutLog, error) {
	if input == (WorkoutLogInput{}) {
		return nil, ErrInvalidInput
	}
	if err := normalizeWorkoutLog(&input); err != nil {
		return nil, err
	}
	log, err := s.workoutLogs.UpdateForUser(ctx, userID, logID, input)
	return log, logError(err)
}

func (s *FitnessService) DeleteWorkoutLog(ctx context.Context, userID int64, logID int64) error {
	deleted, err := s.workoutLogs.DeleteForUser(ctx, userID, logID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrLogNotFound
	}
	return nil
}

func (s *FitnessService) LogMeal(ctx context.Context, userID int64, input DietLogInput) (*models.DietLog, error) {
	if input.MealDate == nil || input.MealType == nil || input.FoodName == nil {
		return nil, ErrInvalidInput
	}
	if err := normalizeDietLog(&input); err != nil {
		return nil, err
	}
	return s.dietLogs.Create(ctx, userID, input)
}

func (s *FitnessService) ListDietLogs(ctx context.Context, userID int64, dates DateRange) ([]models.DietLog, error) {
	dates, err := normalizeDateRange(dates)
	if err != nil {
		return nil, err
	}
	return s.dietLogs.ListForUser(ctx, userID, dates)
}

func (s *FitnessService) GetDietLog(ctx context.Context, userID int64, logID int64) (*models.DietLog, error) {
	log, err := s.dietLogs.GetForUser(ctx, userID, logID)
	return log, logError(err)
}

func (s *FitnessService) UpdateDietLog(
	ctx context.Context,
	userID int64,
	logID int64,
	input DietLogInput,
) (*models.DietLog, error) {
	if input == (DietLogInput{}) {
		return nil, ErrInvalidInput
	}
	if err := normalizeDietLog(&input); err != nil {
		return nil, err
	}
	log, err := s.dietLogs.UpdateForUser(ctx, userID, logID, input)
	return log, logError(err)
}

func (s *FitnessService) DeleteDietLog(ctx context.Context, userID int64, logID int64) error {
	deleted, err := s.dietLogs.DeleteForUser(ctx, userID, logID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrLogNotFound
	}
	return nil
}

// Progress counts the client's logs dated within the last 30 days and
// their active plans.
func (s *FitnessService) Progress(ctx context.Context, userID int64) (*models.Progress, error) {
	progress, err := s.recentActivity(ctx, userID)
	if err != nil {
		return nil, err
	}
	workoutPlans, err := s.workoutPlans.CountActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dietPlans, err := s.dietPlans.CountActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress.ActivePlans = &models.ActivePlanCounts{WorkoutPlans: workoutPlans, DietPlans: dietPlans}
	return progress, nil
}

func (s *FitnessService) ListClients(ctx context.Context) ([]models.User, error) {
	return s.users.ListClients(ctx)
}

// GetClient returns clientID only if it is an active client account.
func (s *FitnessService) GetClient(ctx context.Context, clientID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleClient || !user.IsActive {
		return nil, ErrClientNotFound
	}
	return user, nil
}

func (s *FitnessService) ClientWorkoutLogs(ctx context.Context, clientID int64, dates DateRange) ([]models.WorkoutLog, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.ListWorkoutLogs(ctx, clientID, dates)
}

func (s *FitnessService) ClientDietLogs(ctx context.Context, clientID int64, dates DateRange) ([]models.DietLog, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.ListDietLogs(ctx, clientID, dates)
}

func (s *FitnessService) ClientProgress(ctx context.Context, clientID int64) (*models.Progress, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.recentActivity(ctx, clientID)
}

func (s *FitnessService) recentActivity(ctx context.Context, userID int64) (*models.Progress, error) {
	since := calendarDay(s.now().Add(-progressWindow))
	workouts, err := s.workoutLogs.CountForUserSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	meals, err := s.dietLogs.CountForUserSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return &models.Progress{
		ClientID:   userID,
		Last30Days: models.ActivityCounts{WorkoutSessions: workouts, DietLogs: meals},
	}, nil
}

func logError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLogNotFound
	}
	return err
}

func normalizeWorkoutLog(input *WorkoutLogInput) error {
	if input.ExerciseName != nil {
		name, ok := normalizeName(*input.ExerciseName)
		if !ok {
			return ErrInvalidInput
		}
		input.ExerciseName = &name
	}
	if input.WorkoutDate != nil {
		day := calendarDay(*input.WorkoutDate)
		input.WorkoutDate = &day
	}
	if negativeInt(input.Sets) || negativeInt(input.Reps) || negativeInt(input.DurationMinutes) || negativeFloat(input.Weight) {
		return ErrInvalidInput
	}
	return nil
}

func normalizeDietLog(input *DietLogInput) error {
	if input.FoodName != nil {
		name, ok := normalizeName(*input.FoodName)
		if !ok {
			return ErrInvalidInput
		}
		input.FoodName = &name
	}
	if input.MealType != nil {
		mealType := strings.ToLower(strings.TrimSpace(*input.MealType))
		if !models.IsValidMealType(mealType) {
			return ErrInvalidInput
		}
		input.MealType = &mealType
	}
	if input.MealDate != nil {
		day := calendarDay(*input.MealDate)
		input.MealDate = &day
	}
	if negativeFloat(input.Calories) || negativeFloat(input.ProteinGrams) ||
		negativeFloat(input.CarbsGrams) || negativeFloat(input.FatGrams) {
		return ErrInvalidInput
	}
	return nil
}

func normalizeDateRange(dates DateRange) (DateRange, error) {
	if dates.From != nil {
		from := calendarDay(*dates.From)
		dates.From = &from
	}
	if dates.To != nil {
		to := calendarDay(*dates.To)
		dates.To = &to
	}
	if dates.From != nil && dates.To != nil && dates.To.Before(*dates.From) {
		return dates, ErrInvalidInput
	}
	return dates, nil
}

func normalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxLogNameLength {
		return "", false
	}
	return name, true
}

// calendarDay truncates t to midnight UTC of its UTC date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func negativeInt(v *int) bool {
	return v != nil && *v < 0
}

func negativeFloat(v *float64) bool {
	return v != nil && *v < 0
}
