package repository

import (
	"context"

	"github.com/Rafi653/vibe-project/internal/models"
)

const messageColumns = `id, conversation_id, sender_id, content, status, is_edited, created_at, updated_at`

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.Status,
		&message.IsEdited,
		&message.CreatedAt,
		&message.UpdatedAt,
	); err != nil {
		return nil, err
	}
	message.IsRead = message.Status == models.MessageRead
	return &message, nil
}

func (r *MessageRepository) Create(
	ctx context.Context,
	conversationID int64,
	senderID int64,
	content string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content, status)
		VALUES ($1, $2, $3, 'sent')
		RETURNING ` + messageColumns
	return scanMessage(r.db.QueryRow(ctx, query, conversationID, senderID, content))
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return scanMessage(r.db.QueryRow(ctx, query, messageID))
}

// ListByConversation returns a page of messages, newest first.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID int64,
	limit int,
	offset int,
) ([]models.ChatMessage, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1
	`, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkRead flags a single message read. It is a no-op for the sender's own
// messages.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID int64, readerID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET status = 'read'
		WHERE id = $1
		  AND sender_id <> $2
		  AND status <> 'read'
	`, messageID, readerID)
	return err
}

func (r *MessageRepository) MarkConversationRead(
	ctx context.Context,
	conversationID int64,
	readerID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET status = 'read'
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND status <> 'read'
	`, conversationID, readerID)
	return err
}

func (r *MessageRepository) UpdateContent(
	ctx context.Context,
	messageID int64,
	content string,
) (*models.ChatMessage, error) {
	query := `
		UPDATE messages
		SET content = $2, is_edited = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + messageColumns
	return scanMessage(r.db.QueryRow(ctx, query, messageID, content))
}

func (r *MessageRepository) Delete(ctx context.Context, messageID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	return err
}

func (r *MessageRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
