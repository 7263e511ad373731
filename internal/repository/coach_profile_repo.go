package repository

import (
	"context"

	"github.com/Rafi653/vibe-project/internal/models"
)

type CoachProfileRepository struct {
	db DBTX
}

func NewCoachProfileRepository(db DBTX) *CoachProfileRepository {
	return &CoachProfileRepository{db: db}
}

func (r *CoachProfileRepository) Create(ctx context.Context, userID int64, slots int) error {
	query := `
		INSERT INTO coach_profiles (user_id, available_slots, total_slots)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, slots)
	return err
}

func (r *CoachProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error) {
	query := `
		SELECT id, user_id, strengths, specialties, experience,
			   available_slots, total_slots, created_at, updated_at
		FROM coach_profiles
		WHERE user_id = $1
	`
	var profile models.CoachProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Strengths,
		&profile.Specialties,
		&profile.Experience,
		&profile.AvailableSlots,
		&profile.TotalSlots,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

const availabilityQuery = `
	SELECT
		u.id,
		u.full_name,
		cp.strengths,
		cp.specialties,
		cp.experience,
		cp.available_slots,
		cp.total_slots,
		(
			SELECT COUNT(*)
			FROM bookings b
			WHERE b.coach_id = u.id
			  AND b.status IN ('pending', 'confirmed')
		)
	FROM users u
	JOIN coach_profiles cp ON cp.user_id = u.id
	WHERE u.role = 'coach' AND u.is_active = TRUE
`

func scanAvailability(row rowScanner) (*models.CoachAvailability, error) {
	var availability models.CoachAvailability
	if err := row.Scan(
		&availability.CoachID,
		&availability.CoachName,
		&availability.Strengths,
		&availability.Specialties,
		&availability.Experience,
		&availability.AvailableSlots,
		&availability.TotalSlots,
		&availability.BookedSlots,
	); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (r *CoachProfileRepository) ListAvailability(ctx context.Context) ([]models.CoachAvailability, error) {
	rows, err := r.db.Query(ctx, availabilityQuery+` ORDER BY u.full_name ASC, u.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coaches := make([]models.CoachAvailability, 0)
	for rows.Next() {
		availability, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, *availability)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *CoachProfileRepository) GetAvailability(ctx context.Context, coachID int64) (*models.CoachAvailability, error) {
	return scanAvailability(r.db.QueryRow(ctx, availabilityQuery+` AND u.id = $1`, coachID))
}

// ReserveSlot decrements available_slots only while it is positive. It
// returns pgx.ErrNoRows when the coach has no slot left.
func (r *CoachProfileRepository) ReserveSlot(ctx context.Context, coachID int64) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx, `
		UPDATE coach_profiles
		SET available_slots = available_slots - 1, updated_at = NOW()
		WHERE user_id = $1 AND available_slots > 0
		RETURNING available_slots
	`, coachID).Scan(&remaining)
	return remaining, err
}

// ReleaseSlot gives a slot back, never exceeding total_slots.
func (r *CoachProfileRepository) ReleaseSlot(ctx context.Context, coachID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE coach_profiles
		SET available_slots = LEAST(available_slots + 1, total_slots), updated_at = NOW()
		WHERE user_id = $1
	`, coachID)
	return err
}
