// Package bus carries chat fan-out envelopes between server instances.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	RedisChannel = "vibe:chat:fanout"
	NATSSubject  = "vibe.chat.fanout"
)

type Selector string

const (
	SelectUsers        Selector = "users"
	SelectConversation Selector = "conversation"
	SelectAll          Selector = "all"
)

// Envelope describes one fan-out: who should receive Payload, and which
// instance produced it. Recipients are resolved by each instance against
// its own connection registry.
type Envelope struct {
	Origin         string          `json:"origin"`
	Selector       Selector        `json:"selector"`
	UserIDs        []int64         `json:"user_ids,omitempty"`
	ConversationID int64           `json:"conversation_id,omitempty"`
	Exclude        int64           `json:"exclude,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

type Handler func(Envelope)

type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe delivers every envelope to handler until ctx is done.
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

func Encode(env Envelope) ([]byte, error) {
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("envelope from %q has no payload", env.Origin)
	}
	return json.Marshal(env)
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Selector {
	case SelectUsers, SelectConversation, SelectAll:
	default:
		return Envelope{}, fmt.Errorf("decode envelope: unknown selector %q", env.Selector)
	}
	if len(env.Payload) == 0 {
		return Envelope{}, fmt.Errorf("decode envelope: empty payload")
	}
	return env, nil
}
