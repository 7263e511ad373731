package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rafi653/vibe-project/internal/models"
)

const conversationColumns = `id, type, name, created_by_id, is_active, created_at, updated_at`

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// DirectKey is the canonical identity of a one-to-one conversation.
func DirectKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := row.Scan(
		&conversation.ID,
		&conversation.Type,
		&conversation.Name,
		&conversation.CreatedByID,
		&conversation.IsActive,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// CreateOrGetDirect returns the direct conversation between the two users,
// creating it when absent. created is false when it already existed.
func (r *ConversationRepository) CreateOrGetDirect(
	ctx context.Context,
	creatorID int64,
	otherID int64,
) (*models.Conversation, bool, error) {
	query := `
		INSERT INTO conversations (type, created_by_id, direct_key)
		VALUES ('direct', $1, $2)
		ON CONFLICT (direct_key)
		DO UPDATE SET is_active = TRUE
		RETURNING ` + conversationColumns + `, (xmax = 0)
	`

	var conversation models.Conversation
	var created bool
	err := r.db.QueryRow(ctx, query, creatorID, DirectKey(creatorID, otherID)).Scan(
		&conversation.ID,
		&conversation.Type,
		&conversation.Name,
		&conversation.CreatedByID,
		&conversation.IsActive,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, err
	}
	return &conversation, created, nil
}

func (r *ConversationRepository) CreateGroup(
	ctx context.Context,
	creatorID int64,
	name string,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (type, name, created_by_id)
		VALUES ('group', $1, $2)
		RETURNING ` + conversationColumns
	return scanConversation(r.db.QueryRow(ctx, query, name, creatorID))
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(r.db.QueryRow(ctx, query, conversationID))
}

// AddParticipant reports false when the user was already a participant.
func (r *ConversationRepository) AddParticipant(
	ctx context.Context,
	conversationID int64,
	userID int64,
	isAdmin bool,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`, conversationID, userID, isAdmin)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ConversationRepository) RemoveParticipant(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ConversationRepository) GetParticipant(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (*models.Participant, error) {
	query := `
		SELECT cp.conversation_id, cp.user_id, u.full_name, u.role, cp.is_admin, cp.last_read_at, cp.joined_at
		FROM conversation_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.conversation_id = $1 AND cp.user_id = $2
	`
	var participant models.Participant
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(
		&participant.ConversationID,
		&participant.UserID,
		&participant.FullName,
		&participant.Role,
		&participant.IsAdmin,
		&participant.LastReadAt,
		&participant.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *ConversationRepository) IsParticipant(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM conversation_participants cp
			JOIN conversations c ON c.id = cp.conversation_id
			WHERE cp.conversation_id = $1 AND cp.user_id = $2 AND c.is_active = TRUE
		)
	`, conversationID, userID).Scan(&exists)
	return exists, err
}

// ListParticipants returns the participants of every given conversation,
// keyed by conversation ID.
func (r *ConversationRepository) ListParticipants(
	ctx context.Context,
	conversationIDs []int64,
) (map[int64][]models.Participant, error) {
	result := make(map[int64][]models.Participant, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT cp.conversation_id, cp.user_id, u.full_name, u.role, cp.is_admin, cp.last_read_at, cp.joined_at
		FROM conversation_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.conversation_id = ANY($1)
		ORDER BY cp.conversation_id, cp.joined_at, cp.user_id
	`, conversationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var participant models.Participant
		if err := rows.Scan(
			&participant.ConversationID,
			&participant.UserID,
			&participant.FullName,
			&participant.Role,
			&participant.IsAdmin,
			&participant.LastReadAt,
			&participant.JoinedAt,
		); err != nil {
			return nil, err
		}
		result[participant.ConversationID] = append(result[participant.ConversationID], participant)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ConversationRepository) ListIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT cp.conversation_id
		FROM conversation_participants cp
		JOIN conversations c ON c.id = cp.conversation_id
		WHERE cp.user_id = $1 AND c.is_active = TRUE
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListForParticipant returns the user's active conversations, most recently
// active first, each with its latest message and the number of messages
// from others newer than the user's last read mark.
func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.type,
			c.name,
			c.created_by_id,
			c.is_active,
			c.created_at,
			c.updated_at,
			lm.id,
			lm.sender_id,
			lm.content,
			lm.status,
			lm.is_edited,
			lm.created_at,
			lm.updated_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		JOIN conversation_participants me ON me.conversation_id = c.id AND me.user_id = $1
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, status, is_edited, created_at, updated_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND created_at > COALESCE(me.last_read_at, '-infinity'::timestamptz)
		) uc ON TRUE
		WHERE c.is_active = TRUE
		ORDER BY COALESCE(lm.created_at, c.updated_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageContent sql.NullString
		var messageStatus sql.NullString
		var messageIsEdited sql.NullBool
		var messageCreatedAt sql.NullTime
		var messageUpdatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.Type,
			&summary.Name,
			&summary.CreatedByID,
			&summary.IsActive,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&messageID,
			&messageSenderID,
			&messageContent,
			&messageStatus,
			&messageIsEdited,
			&messageCreatedAt,
			&messageUpdatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: summary.ID,
				SenderID:       messageSenderID.Int64,
				Content:        messageContent.String,
				Status:         messageStatus.String,
				IsRead:         messageStatus.String == models.MessageRead,
				IsEdited:       messageIsEdited.Bool,
				CreatedAt:      messageCreatedAt.Time,
				UpdatedAt:      messageUpdatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID int64, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversation_participants
		SET last_read_at = NOW()
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	return err
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}

func (r *ConversationRepository) CountUnread(ctx context.Context, conversationID int64, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_participants me ON me.conversation_id = m.conversation_id AND me.user_id = $2
		WHERE m.conversation_id = $1
		  AND m.sender_id <> $2
		  AND m.created_at > COALESCE(me.last_read_at, '-infinity'::timestamptz)
	`, conversationID, userID).Scan(&count)
	return count, err
}
