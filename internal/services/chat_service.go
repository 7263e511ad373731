package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultMaxMessageLength = 5000

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	presenceRepo     *repository.PresenceRepository
	userRepo         userReader
	maxMessageLength int
}

// ChatDelivery is a persisted change together with the participants that
// should hear about it, the actor excluded.
type ChatDelivery struct {
	Message      *models.ChatMessage
	RecipientIDs []int64
}

type CreateConversationInput struct {
	Type           string
	Name           *string
	ParticipantIDs []int64
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	presenceRepo *repository.PresenceRepository,
	userRepo userReader,
	maxMessageLength int,
) *ChatService {
	if maxMessageLength <= 0 {
		maxMessageLength = DefaultMaxMessageLength
	}
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		presenceRepo:     presenceRepo,
		userRepo:         userRepo,
		maxMessageLength: maxMessageLength,
	}
}

const maxConversationNameLength = 255

// NormalizeContent enforces the message length bounds. Content is stored
// exactly as sent; whitespace-only content counts as empty.
func NormalizeContent(content string, maxLength int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxLength {
		return "", ErrMessageTooLong
	}
	return content, nil
}

func validGroupName(name *string) bool {
	if name == nil {
		return false
	}
	trimmed := strings.TrimSpace(*name)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= maxConversationNameLength
}

func (s *ChatService) CreateConversation(
	ctx context.Context,
	actorID int64,
	input CreateConversationInput,
) (*models.ConversationDetail, error) {
	others := uniqueOthers(input.ParticipantIDs, actorID)

	switch input.Type {
	case models.ConversationDirect:
		if len(others) != 1 {
			return nil, ErrInvalidInput
		}
	case models.ConversationGroup:
		if !validGroupName(input.Name) || len(others) < 2 {
			return nil, ErrInvalidInput
		}
	default:
		return nil, ErrInvalidInput
	}

	for _, userID := range others {
		if err := s.requireActiveUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)

	var conversation *models.Conversation
	if input.Type == models.ConversationDirect {
		conversation, _, err = txConversationRepo.CreateOrGetDirect(ctx, actorID, others[0])
		if err != nil {
			return nil, err
		}
		for _, userID := range []int64{actorID, others[0]} {
			if _, err := txConversationRepo.AddParticipant(ctx, conversation.ID, userID, false); err != nil {
				return nil, err
			}
		}
	} else {
		conversation, err = txConversationRepo.CreateGroup(ctx, actorID, strings.TrimSpace(*input.Name))
		if err != nil {
			return nil, err
		}
		if _, err := txConversationRepo.AddParticipant(ctx, conversation.ID, actorID, true); err != nil {
			return nil, err
		}
		for _, userID := range others {
			if _, err := txConversationRepo.AddParticipant(ctx, conversation.ID, userID, false); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.conversationDetail(ctx, conversation)
}

func (s *ChatService) ListConversations(ctx context.Context, actorID int64) ([]models.ConversationSummary, error) {
	summaries, err := s.conversationRepo.ListForParticipant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}
	participants, err := s.conversationRepo.ListParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Participants = participants[summaries[i].ID]
		if summaries[i].Participants == nil {
			summaries[i].Participants = []models.Participant{}
		}
	}
	return summaries, nil
}

// GetHistory returns a page of messages, newest first. Reading the history
// marks incoming messages read and moves the reader's last read mark;
// UnreadCount reports what was unread before this call.
func (s *ChatService) GetHistory(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	limit int,
	offset int,
) (*models.ConversationHistory, int, error) {
	if conversationID <= 0 || limit <= 0 || offset < 0 {
		return nil, 0, ErrInvalidInput
	}

	conversation, err := s.participantConversation(ctx, conversationID, actorID)
	if err != nil {
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	unread, err := txConversationRepo.CountUnread(ctx, conversationID, actorID)
	if err != nil {
		return nil, 0, err
	}

	messages, total, err := txMessageRepo.ListByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if err := txMessageRepo.MarkConversationRead(ctx, conversationID, actorID); err != nil {
		return nil, 0, err
	}
	if err := txConversationRepo.MarkRead(ctx, conversationID, actorID); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].SenderID != actorID {
			messages[i].Status = models.MessageRead
			messages[i].IsRead = true
		}
	}

	detail, err := s.conversationDetail(ctx, conversation)
	if err != nil {
		return nil, 0, err
	}

	return &models.ConversationHistory{
		ConversationDetail: *detail,
		Messages:           messages,
		UnreadCount:        unread,
	}, total, nil
}

// SendMessage validates and persists a message from a participant and
// touches the conversation. Nothing is written for non-participants.
func (s *ChatService) SendMessage(
	ctx context.Context,
	senderID int64,
	conversationID int64,
	content string,
) (*ChatDelivery, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	cleaned, err := NormalizeContent(content, s.maxMessageLength)
	if err != nil {
		return nil, err
	}

	ok, err := s.conversationRepo.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, conversationID, senderID, cleaned)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	recipients, err := s.otherParticipantIDs(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	return &ChatDelivery{Message: message, RecipientIDs: recipients}, nil
}

// MarkMessageRead marks another participant's message read. It returns a
// nil message when the reader is the sender, in which case nobody needs to
// be notified.
func (s *ChatService) MarkMessageRead(
	ctx context.Context,
	readerID int64,
	messageID int64,
) (*models.ChatMessage, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if message.SenderID == readerID {
		return nil, nil
	}

	ok, err := s.conversationRepo.IsParticipant(ctx, message.ConversationID, readerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	if err := s.messageRepo.MarkRead(ctx, messageID, readerID); err != nil {
		return nil, err
	}
	message.Status = models.MessageRead
	message.IsRead = true
	return message, nil
}

func (s *ChatService) EditMessage(
	ctx context.Context,
	actorID int64,
	messageID int64,
	content string,
) (*ChatDelivery, error) {
	cleaned, err := NormalizeContent(content, s.maxMessageLength)
	if err != nil {
		return nil, err
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, ErrForbidden
	}
	if _, err := s.participantConversation(ctx, message.ConversationID, actorID); err != nil {
		return nil, err
	}

	updated, err := s.messageRepo.UpdateContent(ctx, messageID, cleaned)
	if err != nil {
		return nil, err
	}

	recipients, err := s.otherParticipantIDs(ctx, updated.ConversationID, actorID)
	if err != nil {
		return nil, err
	}
	return &ChatDelivery{Message: updated, RecipientIDs: recipients}, nil
}

// DeleteMessage removes a message. Only its sender, while still a
// participant of an active conversation, or a platform admin may do so.
func (s *ChatService) DeleteMessage(
	ctx context.Context,
	actorID int64,
	role string,
	messageID int64,
) (*ChatDelivery, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if role != models.RoleAdmin {
		if message.SenderID != actorID {
			return nil, ErrForbidden
		}
		if _, err := s.participantConversation(ctx, message.ConversationID, actorID); err != nil {
			return nil, err
		}
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return nil, err
	}

	recipients, err := s.otherParticipantIDs(ctx, message.ConversationID, actorID)
	if err != nil {
		return nil, err
	}
	return &ChatDelivery{Message: message, RecipientIDs: recipients}, nil
}

// AddParticipants adds users to a group conversation. Only group admins
// may add, and users already present are reported as a conflict.
func (s *ChatService) AddParticipants(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	userIDs []int64,
) (*models.ConversationDetail, []int64, error) {
	conversation, err := s.participantConversation(ctx, conversationID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if conversation.Type != models.ConversationGroup {
		return nil, nil, ErrInvalidInput
	}

	actor, err := s.conversationRepo.GetParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin {
		return nil, nil, ErrForbidden
	}

	candidates := uniqueOthers(userIDs, actorID)
	if len(candidates) == 0 {
		return nil, nil, ErrInvalidInput
	}
	for _, userID := range candidates {
		if err := s.requireActiveUser(ctx, userID); err != nil {
			return nil, nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	added := make([]int64, 0, len(candidates))
	for _, userID := range candidates {
		ok, err := txConversationRepo.AddParticipant(ctx, conversationID, userID, false)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrConflict
		}
		added = append(added, userID)
	}
	if err := txConversationRepo.Touch(ctx, conversationID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	detail, err := s.conversationDetail(ctx, conversation)
	if err != nil {
		return nil, nil, err
	}
	return detail, added, nil
}

func (s *ChatService) LeaveConversation(ctx context.Context, actorID int64, conversationID int64) error {
	if _, err := s.participantConversation(ctx, conversationID, actorID); err != nil {
		return err
	}
	_, err := s.conversationRepo.RemoveParticipant(ctx, conversationID, actorID)
	return err
}

func (s *ChatService) IsParticipant(ctx context.Context, conversationID int64, userID int64) (bool, error) {
	return s.conversationRepo.IsParticipant(ctx, conversationID, userID)
}

func (s *ChatService) ConversationIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.conversationRepo.ListIDsForUser(ctx, userID)
}

func (s *ChatService) LastSeen(ctx context.Context, userIDs []int64) (map[int64]models.Presence, error) {
	return s.presenceRepo.LastSeen(ctx, userIDs)
}

func (s *ChatService) participantConversation(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conversation.IsActive {
		return nil, ErrConversationNotFound
	}

	ok, err := s.conversationRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	return conversation, nil
}

func (s *ChatService) conversationDetail(
	ctx context.Context,
	conversation *models.Conversation,
) (*models.ConversationDetail, error) {
	participants, err := s.conversationRepo.ListParticipants(ctx, []int64{conversation.ID})
	if err != nil {
		return nil, err
	}
	detail := &models.ConversationDetail{
		Conversation: *conversation,
		Participants: participants[conversation.ID],
	}
	if detail.Participants == nil {
		detail.Participants = []models.Participant{}
	}
	return detail, nil
}

func (s *ChatService) otherParticipantIDs(ctx context.Context, conversationID int64, actorID int64) ([]int64, error) {
	participants, err := s.conversationRepo.ListParticipants(ctx, []int64{conversationID})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(participants[conversationID]))
	for _, participant := range participants[conversationID] {
		if participant.UserID != actorID {
			ids = append(ids, participant.UserID)
		}
	}
	return ids, nil
}

func (s *ChatService) requireActiveUser(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.IsActive {
		return ErrUserNotFound
	}
	return nil
}

func uniqueOthers(ids []int64, actorID int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || id == actorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
