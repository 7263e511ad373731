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

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type BookingService struct {
	db               *pgxpool.Pool
	bookingRepo      *repository.BookingRepository
	coachProfileRepo *repository.CoachProfileRepository
	userRepo         userReader
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	coachProfileRepo *repository.CoachProfileRepository,
	userRepo userReader,
) *BookingService {
	return &BookingService{
		db:               db,
		bookingRepo:      bookingRepo,
		coachProfileRepo: coachProfileRepo,
		userRepo:         userRepo,
	}
}

type BookInput struct {
	CoachID     int64
	SlotNumber  int
	ScheduledAt *time.Time
	Notes       *string
}

type UpdateBookingInput struct {
	Status      *string
	ScheduledAt *time.Time
	Notes       *string
}

func (s *BookingService) ListCoaches(ctx context.Context) ([]models.CoachAvailability, error) {
	return s.coachProfileRepo.ListAvailability(ctx)
}

func (s *BookingService) GetCoach(ctx context.Context, coachID int64) (*models.CoachAvailability, error) {
	availability, err := s.coachProfileRepo.GetAvailability(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return availability, nil
}

// Book reserves one of the coach's slots for the client. The slot counter
// is decremented only while positive, in the same transaction as the
// insert, so concurrent requests can never oversell.
func (s *BookingService) Book(
	ctx context.Context,
	clientID int64,
	role string,
	input BookInput,
) (*models.BookingDetail, error) {
	if role != models.RoleClient {
		return nil, ErrForbidden
	}
	if input.CoachID <= 0 || input.SlotNumber < 1 || input.CoachID == clientID {
		return nil, ErrInvalidInput
	}

	coach, err := s.userRepo.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if coach.Role != models.RoleCoach || !coach.IsActive {
		return nil, ErrCoachNotFound
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var scheduledAt *time.Time
	if input.ScheduledAt != nil {
		utc := input.ScheduledAt.UTC()
		scheduledAt = &utc
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txCoachProfileRepo := repository.NewCoachProfileRepository(tx)

	exists, err := txBookingRepo.HasActiveSlot(ctx, input.CoachID, clientID, input.SlotNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	if _, err := txCoachProfileRepo.ReserveSlot(ctx, input.CoachID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSlotsAvailable
		}
		return nil, err
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateBookingInput{
		CoachID:     input.CoachID,
		ClientID:    clientID,
		SlotNumber:  input.SlotNumber,
		ScheduledAt: scheduledAt,
		Notes:       input.Notes,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &models.BookingDetail{
		Booking:    *booking,
		CoachName:  coach.FullName,
		ClientName: client.FullName,
	}, nil
}

func (s *BookingService) ListMine(
	ctx context.Context,
	actorID int64,
	role string,
	status string,
) ([]models.BookingDetail, error) {
	if role != models.RoleClient && role != models.RoleCoach {
		return nil, ErrForbidden
	}
	return s.bookingRepo.List(ctx, repository.BookingListFilter{
		ActorID: actorID,
		Role:    role,
		Status:  status,
	})
}

func (s *BookingService) ListAll(
	ctx context.Context,
	status string,
	limit int,
	offset int,
) ([]models.BookingDetail, error) {
	return s.bookingRepo.List(ctx, repository.BookingListFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *BookingService) ListForCoach(ctx context.Context, coachID int64) ([]models.BookingDetail, error) {
	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if coach.Role != models.RoleCoach {
		return nil, ErrCoachNotFound
	}
	return s.bookingRepo.List(ctx, repository.BookingListFilter{
		ActorID: coachID,
		Role:    models.RoleCoach,
	})
}

// Update applies a status transition and/or detail change. Leaving an
// active status for cancelled gives the slot back within the same
// transaction as the guarded transition.
func (s *BookingService) Update(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
	input UpdateBookingInput,
) (*models.Booking, error) {
	if input.Status == nil && input.ScheduledAt == nil && input.Notes == nil {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txCoachProfileRepo := repository.NewCoachProfileRepository(tx)

	booking, err := txBookingRepo.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !canAccessBooking(role, actorID, booking) {
		return nil, ErrForbidden
	}
	if role == models.RoleClient && (input.ScheduledAt != nil || input.Notes != nil) {
		return nil, ErrForbidden
	}

	updated := booking
	if input.Status != nil {
		nextStatus, err := normalizeRequestedStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		if err := validateStatusTransition(role, booking, nextStatus); err != nil {
			return nil, err
		}

		updated, err = txBookingRepo.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, nextStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidStateTransition
			}
			return nil, err
		}

		if nextStatus == models.BookingCancelled && booking.IsActive() {
			if err := txCoachProfileRepo.ReleaseSlot(ctx, booking.CoachID); err != nil {
				return nil, err
			}
		}
	}

	if input.ScheduledAt != nil || input.Notes != nil {
		var scheduledAt *time.Time
		if input.ScheduledAt != nil {
			utc := input.ScheduledAt.UTC()
			scheduledAt = &utc
		}
		updated, err = txBookingRepo.UpdateDetails(ctx, bookingID, scheduledAt, input.Notes)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func canAccessBooking(role string, actorID int64, booking *models.Booking) bool {
	switch role {
	case models.RoleClient:
		return booking.ClientID == actorID
	case models.RoleCoach:
		return booking.CoachID == actorID
	case models.RoleAdmin:
		return true
	}
	return false
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed":
		return models.BookingConfirmed, nil
	case "complete", "completed":
		return models.BookingCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.BookingCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateStatusTransition(role string, booking *models.Booking, nextStatus string) error {
	if !booking.IsActive() {
		return ErrInvalidStateTransition
	}
	if role == models.RoleClient && nextStatus != models.BookingCancelled {
		return ErrForbidden
	}

	switch nextStatus {
	case models.BookingConfirmed:
		if booking.Status != models.BookingPending {
			return ErrInvalidStateTransition
		}
	case models.BookingCompleted:
		if booking.Status != models.BookingConfirmed {
			return ErrInvalidStateTransition
		}
	}
	return nil
}
