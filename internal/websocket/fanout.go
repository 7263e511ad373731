package chatws

import (
	"context"

	"github.com/Rafi653/vibe-project/internal/bus"
	"go.uber.org/zap"
)

func (h *Hub) SendToUsers(ctx context.Context, userIDs []int64, exclude int64, payload []byte) {
	h.publish(ctx, bus.Envelope{
		Selector: bus.SelectUsers,
		UserIDs:  userIDs,
		Exclude:  exclude,
		Payload:  payload,
	})
}

func (h *Hub) SendToConversation(ctx context.Context, conversationID int64, exclude int64, payload []byte) {
	h.publish(ctx, bus.Envelope{
		Selector:       bus.SelectConversation,
		ConversationID: conversationID,
		Exclude:        exclude,
		Payload:        payload,
	})
}

// Broadcast sends to every connected user except exclude.
func (h *Hub) Broadcast(ctx context.Context, exclude int64, payload []byte) {
	h.publish(ctx, bus.Envelope{
		Selector: bus.SelectAll,
		Exclude:  exclude,
		Payload:  payload,
	})
}

// publish delivers to this instance's connections and hands the envelope
// to the bus for the others. Bus failures only cost remote delivery.
func (h *Hub) publish(ctx context.Context, env bus.Envelope) {
	h.drop(ctx, h.publishCollect(ctx, env))
}

// publishCollect is publish without pruning; the caller drops the returned
// handles.
func (h *Hub) publishCollect(ctx context.Context, env bus.Envelope) []*Client {
	env.Origin = h.id
	dead := h.deliverEnvelope(env)

	if err := h.bus.Publish(ctx, env); err != nil {
		h.log.Warn("failed to publish envelope",
			zap.String("selector", string(env.Selector)),
			zap.Error(err),
		)
	}
	return dead
}

func (h *Hub) deliverEnvelope(env bus.Envelope) []*Client {
	var targets []*Client
	switch env.Selector {
	case bus.SelectUsers:
		targets = h.registry.handlesFor(env.UserIDs, env.Exclude)
	case bus.SelectConversation:
		targets = h.registry.handlesFor(h.registry.ConversationMembers(env.ConversationID), env.Exclude)
	case bus.SelectAll:
		targets = h.registry.allHandles(env.Exclude)
	}
	_, dead := sendAll(targets, env.Payload)
	return dead
}

// deliver pushes payload to every target without blocking. Handles that
// cannot take it are disconnected after the pass.
func (h *Hub) deliver(ctx context.Context, targets []*Client, payload []byte) int {
	delivered, dead := sendAll(targets, payload)
	h.drop(ctx, dead)
	return delivered
}

func sendAll(targets []*Client, payload []byte) (int, []*Client) {
	delivered := 0
	var dead []*Client
	for _, client := range targets {
		if client.trySend(payload) {
			delivered++
			continue
		}
		dead = append(dead, client)
	}
	return delivered, dead
}

func (h *Hub) drop(ctx context.Context, dead []*Client) {
	for _, client := range dead {
		h.log.Debug("dropping unresponsive client",
			zap.Int64("user_id", client.userID),
			zap.String("client_id", client.id),
		)
		h.Disconnect(ctx, client)
	}
}
