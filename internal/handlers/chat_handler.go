package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Rafi653/vibe-project/internal/middleware"
	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	chatws "github.com/Rafi653/vibe-project/internal/websocket"
	"github.com/Rafi653/vibe-project/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type chatApplicationService interface {
	CreateConversation(ctx context.Context, actorID int64, input services.CreateConversationInput) (*models.ConversationDetail, error)
	ListConversations(ctx context.Context, actorID int64) ([]models.ConversationSummary, error)
	GetHistory(ctx context.Context, actorID int64, conversationID int64, limit int, offset int) (*models.ConversationHistory, int, error)
	SendMessage(ctx context.Context, senderID int64, conversationID int64, content string) (*services.ChatDelivery, error)
	EditMessage(ctx context.Context, actorID int64, messageID int64, content string) (*services.ChatDelivery, error)
	DeleteMessage(ctx context.Context, actorID int64, role string, messageID int64) (*services.ChatDelivery, error)
	AddParticipants(ctx context.Context, actorID int64, conversationID int64, userIDs []int64) (*models.ConversationDetail, []int64, error)
	LeaveConversation(ctx context.Context, actorID int64, conversationID int64) error
	LastSeen(ctx context.Context, userIDs []int64) (map[int64]models.Presence, error)
}

type ChatHandler struct {
	service   chatApplicationService
	users     userLookup
	hub       *chatws.Hub
	jwtSecret string
	log       *zap.Logger
}

func NewChatHandler(
	service chatApplicationService,
	users userLookup,
	hub *chatws.Hub,
	jwtSecret string,
	log *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		service:   service,
		users:     users,
		hub:       hub,
		jwtSecret: jwtSecret,
		log:       log.Named("http.chat"),
	}
}

type createConversationRequest struct {
	Type           string  `json:"type" validate:"required,oneof=direct group"`
	Name           *string `json:"name" validate:"omitempty,max=255"`
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1,dive,gt=0"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type addParticipantsRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	conversation, err := h.service.CreateConversation(c.Context(), userID, services.CreateConversationInput{
		Type:           req.Type,
		Name:           req.Name,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		return mapChatError(c, err)
	}

	for _, participant := range conversation.Participants {
		h.hub.JoinConversation(conversation.ID, participant.UserID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}

	conversations, err := h.service.ListConversations(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	limit := clampLimit(parsePositiveInt(c.Query("limit"), defaultHistoryLimit), maxHistoryLimit)
	offset := parseNonNegativeInt(c.Query("offset"), 0)

	history, total, err := h.service.GetHistory(c.Context(), userID, conversationID, limit, offset)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversation": history,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// SendMessage is the REST twin of the websocket "message" event and fans
// out the same way.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	delivery, err := h.service.SendMessage(c.Context(), userID, conversationID, req.Content)
	if err != nil {
		return mapChatError(c, err)
	}

	h.hub.JoinConversation(conversationID, userID)
	h.hub.DeliverMessage(c.Context(), delivery)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	var req editMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	delivery, err := h.service.EditMessage(c.Context(), userID, messageID, req.Content)
	if err != nil {
		return mapChatError(c, err)
	}

	h.hub.NotifyMessageUpdated(c.Context(), delivery)
	return c.JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	delivery, err := h.service.DeleteMessage(c.Context(), userID, currentRole(c), messageID)
	if err != nil {
		return mapChatError(c, err)
	}

	h.hub.NotifyMessageDeleted(c.Context(), userID, delivery)
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func (h *ChatHandler) AddParticipants(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	var req addParticipantsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if msg := validateRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	conversation, added, err := h.service.AddParticipants(c.Context(), userID, conversationID, req.UserIDs)
	if err != nil {
		return mapChatError(c, err)
	}

	h.hub.JoinConversation(conversationID, added...)
	return c.JSON(fiber.Map{"conversation": conversation, "added": added})
}

func (h *ChatHandler) LeaveConversation(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return invalidToken(c)
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if err := h.service.LeaveConversation(c.Context(), userID, conversationID); err != nil {
		return mapChatError(c, err)
	}

	h.hub.LeaveConversation(conversationID, userID)
	return c.JSON(fiber.Map{"message": "Left conversation"})
}

// OnlineUsers lists the users connected to this instance with their last
// stored presence.
func (h *ChatHandler) OnlineUsers(c *fiber.Ctx) error {
	online := h.hub.OnlineUsers()

	lastSeen, err := h.service.LastSeen(c.Context(), online)
	if err != nil {
		return mapChatError(c, err)
	}

	users := make([]models.Presence, 0, len(online))
	for _, userID := range online {
		presence := models.Presence{UserID: userID, IsOnline: true}
		if stored, ok := lastSeen[userID]; ok {
			presence.LastSeen = stored.LastSeen
		}
		users = append(users, presence)
	}
	return c.JSON(fiber.Map{"users": users})
}

// WebSocketAuth authenticates the upgrade request. Missing, invalid or
// expired tokens and inactive accounts are rejected before the upgrade.
func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	user, err := middleware.ActiveUser(c.Context(), h.users, claims)
	if err != nil {
		return middleware.RejectUser(c, err)
	}

	middleware.SetIdentity(c, user)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, err := parseWSUserID(conn)
	if err != nil {
		_ = conn.Close()
		return
	}
	role, _ := conn.Locals(middleware.LocalRole).(string)

	ctx := context.Background()
	client := chatws.NewClient(conn, userID, role)
	if err := h.hub.Connect(ctx, client); err != nil {
		h.log.Error("failed to register websocket client", zap.Int64("user_id", userID), zap.Error(err))
		client.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(ctx, h.hub)
}

func parseWSUserID(conn *websocket.Conn) (int64, error) {
	userIDStr, ok := conn.Locals(middleware.LocalUserID).(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	return parseInt64(userIDStr)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		if bearer, ok := middleware.BearerToken(c.Get("Authorization")); ok {
			tokenString = bearer
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrNotParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a participant of this conversation"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is empty"})
	case errors.Is(err, services.ErrMessageTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is too long"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User is already a participant"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, services.ErrConversationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	case errors.Is(err, services.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
