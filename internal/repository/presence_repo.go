package repository

import (
	"context"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
)

type PresenceRepository struct {
	db DBTX
}

func NewPresenceRepository(db DBTX) *PresenceRepository {
	return &PresenceRepository{db: db}
}

func (r *PresenceRepository) SetStatus(ctx context.Context, userID int64, online bool, lastSeen time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_presence (user_id, is_online, last_seen, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET is_online = EXCLUDED.is_online,
					  last_seen = EXCLUDED.last_seen,
					  updated_at = NOW()
	`, userID, online, lastSeen)
	return err
}

// Heartbeat marks every given user online with last_seen = now.
func (r *PresenceRepository) Heartbeat(ctx context.Context, userIDs []int64, now time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_presence (user_id, is_online, last_seen, updated_at)
		SELECT id, TRUE, $2, NOW()
		FROM unnest($1::bigint[]) AS id
		ON CONFLICT (user_id)
		DO UPDATE SET is_online = TRUE,
					  last_seen = EXCLUDED.last_seen,
					  updated_at = NOW()
	`, userIDs, now)
	return err
}

// MarkStaleOffline flips rows still flagged online whose last_seen is older
// than cutoff. It returns the number of rows changed.
func (r *PresenceRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_presence
		SET is_online = FALSE, updated_at = NOW()
		WHERE is_online = TRUE
		  AND (last_seen IS NULL OR last_seen < $1)
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PresenceRepository) LastSeen(ctx context.Context, userIDs []int64) (map[int64]models.Presence, error) {
	result := make(map[int64]models.Presence, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id, is_online, last_seen
		FROM user_presence
		WHERE user_id = ANY($1)
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var presence models.Presence
		if err := rows.Scan(&presence.UserID, &presence.IsOnline, &presence.LastSeen); err != nil {
			return nil, err
		}
		result[presence.UserID] = presence
	}
	return result, rows.Err()
}
