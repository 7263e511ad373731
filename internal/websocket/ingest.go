package chatws

import (
	"context"
	"fmt"
	"time"

	"github.com/Rafi653/vibe-project/internal/services"
)

// Ingest handles one frame from a client. Errors are meant for the
// originating connection only; the connection stays open.
func (h *Hub) Ingest(ctx context.Context, client *Client, raw []byte) error {
	event, err := classify(raw)
	if err != nil {
		return err
	}

	switch ev := event.(type) {
	case sendMessage:
		return h.ingestMessage(ctx, client, ev)
	case typingNotice:
		return h.ingestTyping(ctx, client, ev)
	case readReceipt:
		return h.ingestReadReceipt(ctx, client, ev)
	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedEvent, event.eventType())
	}
}

func (h *Hub) ingestMessage(ctx context.Context, client *Client, ev sendMessage) error {
	delivery, err := h.store.SendMessage(ctx, client.userID, ev.ConversationID, ev.Content)
	if err != nil {
		return err
	}
	h.registry.AddToConversation(client.userID, ev.ConversationID)
	h.DeliverMessage(ctx, delivery)
	return nil
}

func (h *Hub) ingestTyping(ctx context.Context, client *Client, ev typingNotice) error {
	if !h.registry.InConversation(client.userID, ev.ConversationID) {
		ok, err := h.store.IsParticipant(ctx, ev.ConversationID, client.userID)
		if err != nil {
			return err
		}
		if !ok {
			return services.ErrNotParticipant
		}
		h.registry.AddToConversation(client.userID, ev.ConversationID)
	}

	payload, err := encodeEvent(EventTyping, TypingData{
		ConversationID: ev.ConversationID,
		UserID:         client.userID,
		IsTyping:       ev.IsTyping,
	})
	if err != nil {
		return err
	}
	h.SendToConversation(ctx, ev.ConversationID, client.userID, payload)
	return nil
}

// ingestReadReceipt notifies only the original sender. Receipts for the
// reader's own messages are ignored.
func (h *Hub) ingestReadReceipt(ctx context.Context, client *Client, ev readReceipt) error {
	message, err := h.store.MarkMessageRead(ctx, client.userID, ev.MessageID)
	if err != nil {
		return err
	}
	if message == nil {
		return nil
	}

	payload, err := encodeEvent(EventReadReceipt, ReadReceiptData{
		ConversationID: message.ConversationID,
		MessageID:      message.ID,
		UserID:         client.userID,
		ReadAt:         services.FormatChatTimestamp(time.Now()),
	})
	if err != nil {
		return err
	}
	h.SendToUsers(ctx, []int64{message.SenderID}, client.userID, payload)
	return nil
}
