package chatws

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    inboundEvent
		wantErr error
	}{
		{
			name: "message at top level",
			raw:  `{"type":"message","conversation_id":3,"content":"hi"}`,
			want: sendMessage{ConversationID: 3, Content: "hi"},
		},
		{
			name: "message nested under data",
			raw:  `{"type":"message","data":{"conversation_id":3,"content":"hi"}}`,
			want: sendMessage{ConversationID: 3, Content: "hi"},
		},
		{
			name: "typing defaults to true",
			raw:  `{"type":"typing","conversation_id":5}`,
			want: typingNotice{ConversationID: 5, IsTyping: true},
		},
		{
			name: "typing stopped",
			raw:  `{"type":"typing","data":{"conversation_id":5,"is_typing":false}}`,
			want: typingNotice{ConversationID: 5, IsTyping: false},
		},
		{
			name: "read receipt",
			raw:  `{"type":"read_receipt","message_id":11}`,
			want: readReceipt{MessageID: 11},
		},
		{
			name: "read alias",
			raw:  `{"type":"read","data":{"message_id":11}}`,
			want: readReceipt{MessageID: 11},
		},
		{
			name:    "unknown type",
			raw:     `{"type":"wave"}`,
			wantErr: ErrUnrecognizedEvent,
		},
		{
			name:    "missing type",
			raw:     `{"conversation_id":3}`,
			wantErr: ErrUnrecognizedEvent,
		},
		{
			name:    "invalid json",
			raw:     `{"type":`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "message without conversation",
			raw:     `{"type":"message","content":"hi"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "receipt without message",
			raw:     `{"type":"read_receipt"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "data of the wrong shape",
			raw:     `{"type":"message","data":"hi"}`,
			wantErr: ErrMalformedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}
