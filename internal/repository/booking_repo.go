package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
)

const bookingColumns = `id, coach_id, client_id, slot_number, scheduled_at, status, notes, created_at, updated_at`

type CreateBookingInput struct {
	CoachID     int64
	ClientID    int64
	SlotNumber  int
	ScheduledAt *time.Time
	Notes       *string
}

type BookingListFilter struct {
	ActorID int64
	// Role selects the side of the booking ActorID is matched against.
	// Empty lists every booking.
	Role   string
	Status string
	Limit  int
	Offset int
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	if err := row.Scan(
		&booking.ID,
		&booking.CoachID,
		&booking.ClientID,
		&booking.SlotNumber,
		&booking.ScheduledAt,
		&booking.Status,
		&booking.Notes,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (coach_id, client_id, slot_number, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING ` + bookingColumns
	return scanBooking(r.db.QueryRow(
		ctx,
		query,
		input.CoachID,
		input.ClientID,
		input.SlotNumber,
		input.ScheduledAt,
		input.Notes,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) List(ctx context.Context, filter BookingListFilter) ([]models.BookingDetail, error) {
	args := []any{}
	whereParts := []string{}

	switch filter.Role {
	case models.RoleCoach:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, fmt.Sprintf("b.coach_id = $%d", len(args)))
	case models.RoleClient:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, fmt.Sprintf("b.client_id = $%d", len(args)))
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("b.status = $%d", len(args)))
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	limit := ""
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		limit = fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	query := fmt.Sprintf(`
		SELECT b.id, b.coach_id, b.client_id, b.slot_number, b.scheduled_at, b.status, b.notes,
			   b.created_at, b.updated_at, coach.full_name, client.full_name
		FROM bookings b
		JOIN users coach ON coach.id = b.coach_id
		JOIN users client ON client.id = b.client_id
		%s
		ORDER BY b.scheduled_at ASC NULLS LAST, b.created_at DESC, b.id DESC
		%s
	`, where, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.BookingDetail, 0)
	for rows.Next() {
		var detail models.BookingDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.CoachID,
			&detail.ClientID,
			&detail.SlotNumber,
			&detail.ScheduledAt,
			&detail.Status,
			&detail.Notes,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.CoachName,
			&detail.ClientName,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	currentStatus string,
	nextStatus string,
) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

func (r *BookingRepository) UpdateDetails(
	ctx context.Context,
	bookingID int64,
	scheduledAt *time.Time,
	notes *string,
) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET scheduled_at = COALESCE($2, scheduled_at),
			notes = COALESCE($3, notes),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, scheduledAt, notes))
}

func (r *BookingRepository) HasActiveSlot(
	ctx context.Context,
	coachID int64,
	clientID int64,
	slotNumber int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE coach_id = $1
			  AND client_id = $2
			  AND slot_number = $3
			  AND status IN ('pending', 'confirmed')
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, coachID, clientID, slotNumber).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{
		models.BookingPending:   0,
		models.BookingConfirmed: 0,
		models.BookingCompleted: 0,
		models.BookingCancelled: 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
