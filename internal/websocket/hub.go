package chatws

import (
	"context"
	"errors"
	"time"

	"github.com/Rafi653/vibe-project/internal/bus"
	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const presenceWriteTimeout = 5 * time.Second

// ChatStore is the persistence side of the realtime path.
type ChatStore interface {
	SendMessage(ctx context.Context, senderID int64, conversationID int64, content string) (*services.ChatDelivery, error)
	MarkMessageRead(ctx context.Context, readerID int64, messageID int64) (*models.ChatMessage, error)
	IsParticipant(ctx context.Context, conversationID int64, userID int64) (bool, error)
	ConversationIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Hub ties the registry, presence tracker and fan-out together. It is
// built once at startup and shared by every connection handler.
type Hub struct {
	id       string
	registry *Registry
	presence *PresenceTracker
	bus      bus.Bus
	store    ChatStore
	log      *zap.Logger
}

func NewHub(store ChatStore, presence *PresenceTracker, b bus.Bus, log *zap.Logger) *Hub {
	if b == nil {
		b = bus.NewLocal()
	}
	return &Hub{
		id:       uuid.NewString(),
		registry: NewRegistry(),
		presence: presence,
		bus:      b,
		store:    store,
		log:      log.Named("chat.hub"),
	}
}

func (h *Hub) InstanceID() string {
	return h.id
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) Presence() *PresenceTracker {
	return h.presence
}

func (h *Hub) OnlineUsers() []int64 {
	return h.registry.OnlineUsers()
}

// Run consumes envelopes published by other instances until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	return h.bus.Subscribe(ctx, func(env bus.Envelope) {
		if env.Origin == h.id {
			return
		}
		h.drop(ctx, h.deliverEnvelope(env))
	})
}

// Connect registers a new connection, seeds its conversation membership
// from storage and, for the user's first connection, marks them online.
func (h *Hub) Connect(ctx context.Context, client *Client) error {
	conversationIDs, err := h.store.ConversationIDs(ctx, client.userID)
	if err != nil {
		return err
	}

	first := h.registry.Connect(client)
	for _, conversationID := range conversationIDs {
		h.registry.AddToConversation(client.userID, conversationID)
	}

	h.log.Debug("client connected",
		zap.Int64("user_id", client.userID),
		zap.String("client_id", client.id),
		zap.Bool("first", first),
	)

	if first {
		h.settlePresence(ctx, client.userID)
	}

	snapshot, err := encodeEvent(EventOnlineUsers, OnlineUsersData{UserIDs: h.registry.OnlineUsers()})
	if err != nil {
		return err
	}
	h.deliver(ctx, []*Client{client}, snapshot)
	return nil
}

// Disconnect removes a connection. Only the user's last connection going
// away marks them offline. Calling it twice for the same client is safe.
func (h *Hub) Disconnect(ctx context.Context, client *Client) {
	client.Close()
	if !h.registry.Disconnect(client) {
		return
	}

	h.log.Debug("user went offline",
		zap.Int64("user_id", client.userID),
		zap.String("client_id", client.id),
	)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), presenceWriteTimeout)
	defer cancel()
	h.settlePresence(writeCtx, client.userID)
}

// settlePresence aligns the user's presence with the registry and announces
// the change. Handles found dead during the announcement are dropped once
// the user's presence lock is released, since dropping them may settle
// other users' presence in turn.
func (h *Hub) settlePresence(ctx context.Context, userID int64) {
	var dead []*Client
	h.presence.Settle(ctx, userID,
		func() bool { return h.registry.IsOnline(userID) },
		func(online bool, at time.Time) {
			dead = h.broadcastStatus(ctx, userID, online, at)
		},
	)
	h.drop(ctx, dead)
}

// JoinConversation adds the connected ones among userIDs to the
// conversation's live membership.
func (h *Hub) JoinConversation(conversationID int64, userIDs ...int64) {
	for _, userID := range userIDs {
		h.registry.AddToConversation(userID, conversationID)
	}
}

func (h *Hub) LeaveConversation(conversationID int64, userID int64) {
	h.registry.RemoveFromConversation(userID, conversationID)
}

// DeliverMessage announces a newly persisted message to the other
// participants. The sender's own connections are skipped.
func (h *Hub) DeliverMessage(ctx context.Context, delivery *services.ChatDelivery) {
	h.announce(ctx, EventMessage, delivery)
}

func (h *Hub) NotifyMessageUpdated(ctx context.Context, delivery *services.ChatDelivery) {
	h.announce(ctx, EventMessageUpdated, delivery)
}

func (h *Hub) NotifyMessageDeleted(ctx context.Context, actorID int64, delivery *services.ChatDelivery) {
	payload, err := encodeEvent(EventMessageDeleted, MessageDeletedData{
		ID:             delivery.Message.ID,
		ConversationID: delivery.Message.ConversationID,
		DeletedBy:      actorID,
	})
	if err != nil {
		h.log.Error("failed to encode event", zap.String("type", EventMessageDeleted), zap.Error(err))
		return
	}
	h.SendToUsers(ctx, delivery.RecipientIDs, actorID, payload)
}

func (h *Hub) announce(ctx context.Context, eventType string, delivery *services.ChatDelivery) {
	message := delivery.Message
	h.JoinConversation(message.ConversationID, delivery.RecipientIDs...)

	payload, err := messageEvent(eventType, message)
	if err != nil {
		h.log.Error("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.SendToUsers(ctx, delivery.RecipientIDs, message.SenderID, payload)
}

func (h *Hub) broadcastStatus(ctx context.Context, userID int64, online bool, at time.Time) []*Client {
	payload, err := encodeEvent(EventUserStatus, UserStatusData{
		UserID:    userID,
		IsOnline:  online,
		Timestamp: services.FormatChatTimestamp(at),
	})
	if err != nil {
		h.log.Error("failed to encode event", zap.String("type", EventUserStatus), zap.Error(err))
		return nil
	}
	return h.publishCollect(ctx, bus.Envelope{
		Selector: bus.SelectAll,
		Exclude:  userID,
		Payload:  payload,
	})
}

func (h *Hub) reportError(client *Client, err error) {
	message := "failed to process event"
	switch {
	case errors.Is(err, ErrUnrecognizedEvent):
		message = ErrUnrecognizedEvent.Error()
	case errors.Is(err, ErrMalformedEvent):
		message = err.Error()
	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrInvalidInput):
		message = err.Error()
	default:
		h.log.Error("failed to process event",
			zap.Int64("user_id", client.userID),
			zap.String("client_id", client.id),
			zap.Error(err),
		)
	}

	payload, encodeErr := encodeEvent(EventError, ErrorData{Message: message})
	if encodeErr != nil {
		return
	}
	h.deliver(context.Background(), []*Client{client}, payload)
}
