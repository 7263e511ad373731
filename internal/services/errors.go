package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrCoachNotFound          = errors.New("coach not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrNoSlotsAvailable       = errors.New("no available slots")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrNotParticipant         = errors.New("not a participant of this conversation")
	ErrMessageNotFound        = errors.New("message not found")
	ErrEmptyMessage           = errors.New("message content is empty")
	ErrMessageTooLong         = errors.New("message content is too long")
	ErrFeedbackNotFound       = errors.New("feedback not found")
	ErrEmailTaken             = errors.New("email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountDisabled        = errors.New("account is disabled")
	ErrClientNotFound         = errors.New("client not found")
	ErrLogNotFound            = errors.New("log entry not found")
	ErrPlanNotFound           = errors.New("plan not found")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
