package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Rafi653/vibe-project/internal/bus"
	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"go.uber.org/zap"
)

type fakeConn struct {
	incoming chan []byte
	mu       sync.Mutex
	written  [][]byte
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	payload, ok := <-f.incoming
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, payload, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type presenceWrite struct {
	userID int64
	online bool
}

type stubPresenceStore struct {
	mu     sync.Mutex
	writes []presenceWrite
	calls  int
	err    error
}

func (s *stubPresenceStore) SetStatus(_ context.Context, userID int64, online bool, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, presenceWrite{userID: userID, online: online})
	return nil
}

func (s *stubPresenceStore) snapshot() []presenceWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]presenceWrite(nil), s.writes...)
}

type stubChatStore struct {
	mu           sync.Mutex
	participants map[int64][]int64
	messages     []models.ChatMessage
	nextID       int64
}

func newStubChatStore() *stubChatStore {
	return &stubChatStore{participants: make(map[int64][]int64), nextID: 100}
}

func (s *stubChatStore) isParticipantLocked(conversationID, userID int64) bool {
	for _, id := range s.participants[conversationID] {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *stubChatStore) SendMessage(_ context.Context, senderID, conversationID int64, content string) (*services.ChatDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isParticipantLocked(conversationID, senderID) {
		return nil, services.ErrNotParticipant
	}
	s.nextID++
	message := models.ChatMessage{
		ID:             s.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Status:         models.MessageSent,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	s.messages = append(s.messages, message)

	recipients := make([]int64, 0)
	for _, id := range s.participants[conversationID] {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	return &services.ChatDelivery{Message: &message, RecipientIDs: recipients}, nil
}

func (s *stubChatStore) MarkMessageRead(_ context.Context, readerID, messageID int64) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID != messageID {
			continue
		}
		if s.messages[i].SenderID == readerID {
			return nil, nil
		}
		if !s.isParticipantLocked(s.messages[i].ConversationID, readerID) {
			return nil, services.ErrNotParticipant
		}
		s.messages[i].Status = models.MessageRead
		message := s.messages[i]
		return &message, nil
	}
	return nil, services.ErrMessageNotFound
}

func (s *stubChatStore) IsParticipant(_ context.Context, conversationID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isParticipantLocked(conversationID, userID), nil
}

func (s *stubChatStore) ConversationIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0)
	for conversationID := range s.participants {
		if s.isParticipantLocked(conversationID, userID) {
			ids = append(ids, conversationID)
		}
	}
	return ids, nil
}

func (s *stubChatStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// drain returns every frame queued for the client so far.
func drain(t *testing.T, client *Client) []frame {
	t.Helper()
	frames := make([]frame, 0)
	for {
		select {
		case payload := <-client.send:
			var f frame
			if err := json.Unmarshal(payload, &f); err != nil {
				t.Fatalf("invalid frame %s: %v", payload, err)
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func ofType(frames []frame, eventType string) []frame {
	matched := make([]frame, 0)
	for _, f := range frames {
		if f.Type == eventType {
			matched = append(matched, f)
		}
	}
	return matched
}

func newTestHub(store ChatStore, presenceStore PresenceStore) *Hub {
	presence := NewPresenceTracker(presenceStore, zap.NewNop())
	presence.delay = time.Millisecond
	return NewHub(store, presence, bus.NewLocal(), zap.NewNop())
}

func connect(t *testing.T, hub *Hub, userID int64) *Client {
	t.Helper()
	client := NewClient(newFakeConn(), userID, models.RoleClient)
	if err := hub.Connect(context.Background(), client); err != nil {
		t.Fatalf("Connect(%d): %v", userID, err)
	}
	return client
}

func TestRegistryOnlineFollowsConnectAndDisconnect(t *testing.T) {
	registry := NewRegistry()
	client := NewClient(newFakeConn(), 1, models.RoleClient)

	if registry.IsOnline(1) {
		t.Fatal("user should start offline")
	}
	if !registry.Connect(client) {
		t.Fatal("first connect should be reported as first")
	}
	if !registry.IsOnline(1) {
		t.Fatal("user should be online after connect")
	}
	if !registry.Disconnect(client) {
		t.Fatal("matching disconnect should be reported as last")
	}
	if registry.IsOnline(1) {
		t.Fatal("user should be offline after disconnect")
	}
	if registry.Disconnect(client) {
		t.Fatal("second disconnect of the same handle must be a no-op")
	}
}

func TestRegistryUserWithTwoHandlesStaysOnline(t *testing.T) {
	registry := NewRegistry()
	phone := NewClient(newFakeConn(), 7, models.RoleCoach)
	laptop := NewClient(newFakeConn(), 7, models.RoleCoach)

	registry.Connect(phone)
	if registry.Connect(laptop) {
		t.Fatal("second handle must not be reported as first")
	}

	if registry.Disconnect(phone) {
		t.Fatal("first disconnect must not be reported as last")
	}
	if !registry.IsOnline(7) {
		t.Fatal("user must remain online while a handle is live")
	}
	if !registry.Disconnect(laptop) {
		t.Fatal("last disconnect must be reported as last")
	}
	if registry.IsOnline(7) {
		t.Fatal("user must be offline after both handles disconnect")
	}
}

func TestRegistryMembershipOnlyForConnectedUsers(t *testing.T) {
	registry := NewRegistry()
	client := NewClient(newFakeConn(), 3, models.RoleClient)

	if registry.AddToConversation(3, 10) {
		t.Fatal("offline user must not be added to a conversation")
	}

	registry.Connect(client)
	if !registry.AddToConversation(3, 10) {
		t.Fatal("connected user should be added")
	}
	if members := registry.ConversationMembers(10); len(members) != 1 || members[0] != 3 {
		t.Fatalf("unexpected members %v", members)
	}

	registry.RemoveFromConversation(3, 10)
	if registry.InConversation(3, 10) {
		t.Fatal("membership should be removed")
	}

	registry.AddToConversation(3, 11)
	registry.Disconnect(client)
	if members := registry.ConversationMembers(11); len(members) != 0 {
		t.Fatalf("membership must be dropped on last disconnect, got %v", members)
	}
}

func TestHubConnectMarksOnlineAndAnnouncesStatus(t *testing.T) {
	presenceStore := &stubPresenceStore{}
	hub := newTestHub(newStubChatStore(), presenceStore)

	a := connect(t, hub, 1)
	aFrames := drain(t, a)
	if len(ofType(aFrames, EventOnlineUsers)) != 1 {
		t.Fatalf("expected an online_users snapshot, got %+v", aFrames)
	}

	b := connect(t, hub, 2)
	drain(t, b)

	statuses := ofType(drain(t, a), EventUserStatus)
	if len(statuses) != 1 {
		t.Fatalf("expected one user_status for B, got %d", len(statuses))
	}
	var status UserStatusData
	if err := json.Unmarshal(statuses[0].Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.UserID != 2 || !status.IsOnline || status.Timestamp == "" {
		t.Fatalf("unexpected status %+v", status)
	}

	hub.Disconnect(context.Background(), b)
	statuses = ofType(drain(t, a), EventUserStatus)
	if len(statuses) != 1 {
		t.Fatalf("expected one offline user_status, got %d", len(statuses))
	}
	if hub.Registry().IsOnline(2) || hub.Presence().IsOnline(2) {
		t.Fatal("B should be offline")
	}

	writes := presenceStore.snapshot()
	want := []presenceWrite{{1, true}, {2, true}, {2, false}}
	if len(writes) != len(want) {
		t.Fatalf("expected writes %v, got %v", want, writes)
	}
	for i := range want {
		if writes[i] != want[i] {
			t.Fatalf("expected writes %v, got %v", want, writes)
		}
	}
}

func TestHubSecondHandleDoesNotRepeatPresence(t *testing.T) {
	presenceStore := &stubPresenceStore{}
	hub := newTestHub(newStubChatStore(), presenceStore)

	first := connect(t, hub, 5)
	second := connect(t, hub, 5)
	hub.Disconnect(context.Background(), first)

	if !hub.Registry().IsOnline(5) {
		t.Fatal("user should remain online with one handle left")
	}
	hub.Disconnect(context.Background(), second)
	if hub.Registry().IsOnline(5) {
		t.Fatal("user should be offline")
	}

	if writes := presenceStore.snapshot(); len(writes) != 2 {
		t.Fatalf("expected exactly one online and one offline write, got %v", writes)
	}
}

func TestHubDirectMessageReachesRecipientOnly(t *testing.T) {
	store := newStubChatStore()
	store.participants[9] = []int64{1, 2}
	hub := newTestHub(store, &stubPresenceStore{})

	a := connect(t, hub, 1)
	b := connect(t, hub, 2)
	drain(t, a)
	drain(t, b)

	if err := hub.Ingest(context.Background(), a, []byte(`{"type":"message","conversation_id":9,"content":"hi"}`)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	bMessages := ofType(drain(t, b), EventMessage)
	if len(bMessages) != 1 {
		t.Fatalf("B expected exactly one message event, got %d", len(bMessages))
	}
	var message models.ChatMessage
	if err := json.Unmarshal(bMessages[0].Data, &message); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if message.Content != "hi" || message.SenderID != 1 || message.ConversationID != 9 {
		t.Fatalf("unexpected message %+v", message)
	}

	if aMessages := ofType(drain(t, a), EventMessage); len(aMessages) != 0 {
		t.Fatalf("sender must not receive its own message, got %d", len(aMessages))
	}
}

func TestHubReadReceiptNotifiesOriginalSenderOnly(t *testing.T) {
	store := newStubChatStore()
	store.participants[9] = []int64{1, 2}
	hub := newTestHub(store, &stubPresenceStore{})

	a := connect(t, hub, 1)
	b := connect(t, hub, 2)

	delivery, err := store.SendMessage(context.Background(), 2, 9, "done with sets")
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	drain(t, a)
	drain(t, b)

	if err := hub.Ingest(context.Background(), a, []byte(`{"type":"read_receipt","message_id":`+itoa(delivery.Message.ID)+`}`)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	receipts := ofType(drain(t, b), EventReadReceipt)
	if len(receipts) != 1 {
		t.Fatalf("B expected exactly one read_receipt, got %d", len(receipts))
	}
	var receipt ReadReceiptData
	if err := json.Unmarshal(receipts[0].Data, &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.MessageID != delivery.Message.ID || receipt.UserID != 1 || receipt.ConversationID != 9 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	if own := ofType(drain(t, a), EventReadReceipt); len(own) != 0 {
		t.Fatalf("reader must not receive its own receipt, got %d", len(own))
	}
}

func TestHubReadAliasAndOwnMessageIgnored(t *testing.T) {
	store := newStubChatStore()
	store.participants[9] = []int64{1, 2}
	hub := newTestHub(store, &stubPresenceStore{})

	a := connect(t, hub, 1)
	b := connect(t, hub, 2)
	delivery, _ := store.SendMessage(context.Background(), 1, 9, "mine")
	drain(t, a)
	drain(t, b)

	if err := hub.Ingest(context.Background(), a, []byte(`{"type":"read","data":{"message_id":`+itoa(delivery.Message.ID)+`}}`)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if frames := drain(t, b); len(frames) != 0 {
		t.Fatalf("no one should be notified about reading your own message, got %+v", frames)
	}
}

func TestHubRejectsNonParticipantMessage(t *testing.T) {
	store := newStubChatStore()
	store.participants[9] = []int64{1, 2}
	hub := newTestHub(store, &stubPresenceStore{})

	a := connect(t, hub, 1)
	b := connect(t, hub, 2)
	outsider := connect(t, hub, 3)
	drain(t, a)
	drain(t, b)
	drain(t, outsider)

	err := hub.Ingest(context.Background(), outsider, []byte(`{"type":"message","conversation_id":9,"content":"hello?"}`))
	if !errors.Is(err, services.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if store.messageCount() != 0 {
		t.Fatalf("rejected message must not be persisted")
	}
	if frames := drain(t, a); len(frames) != 0 {
		t.Fatalf("A must not receive anything, got %+v", frames)
	}
	if frames := drain(t, b); len(frames) != 0 {
		t.Fatalf("B must not receive anything, got %+v", frames)
	}
}

func TestHubTypingFansOutToConversationExcludingSender(t *testing.T) {
	store := newStubChatStore()
	store.participants[4] = []int64{1, 2, 3}
	hub := newTestHub(store, &stubPresenceStore{})

	a := connect(t, hub, 1)
	b := connect(t, hub, 2)
	c := connect(t, hub, 3)
	drain(t, a)
	drain(t, b)
	drain(t, c)

	if err := hub.Ingest(context.Background(), a, []byte(`{"type":"typing","conversation_id":4,"is_typing":true}`)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	for _, other := range []*Client{b, c} {
		if typing := ofType(drain(t, other), EventTyping); len(typing) != 1 {
			t.Fatalf("user %d expected one typing event, got %d", other.UserID(), len(typing))
		}
	}
	if typing := ofType(drain(t, a), EventTyping); len(typing) != 0 {
		t.Fatalf("sender must be excluded, got %d", len(typing))
	}

	err := hub.Ingest(context.Background(), a, []byte(`{"type":"typing","conversation_id":99}`))
	if !errors.Is(err, services.ErrNotParticipant) {
		t.Fatalf("typing into a foreign conversation: expected ErrNotParticipant, got %v", err)
	}
}

func TestHubUnknownEventSurfacesErrorFrame(t *testing.T) {
	hub := newTestHub(newStubChatStore(), &stubPresenceStore{})
	conn := newFakeConn()
	client := NewClient(conn, 1, models.RoleClient)
	if err := hub.Connect(context.Background(), client); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	drain(t, client)

	conn.incoming <- []byte(`{"type":"dance"}`)
	conn.incoming <- []byte(`not json`)
	close(conn.incoming)

	done := make(chan struct{})
	go func() {
		client.ReadPump(context.Background(), hub)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReadPump did not return after the connection closed")
	}
	frames := drain(t, client)

	errorsSeen := ofType(frames, EventError)
	if len(errorsSeen) != 2 {
		t.Fatalf("expected two error frames, got %+v", frames)
	}
	var data ErrorData
	if err := json.Unmarshal(errorsSeen[0].Data, &data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if data.Message != ErrUnrecognizedEvent.Error() {
		t.Fatalf("unexpected error message %q", data.Message)
	}
	if hub.Registry().IsOnline(1) {
		t.Fatal("client should be disconnected after the read loop ends")
	}
}

func TestHubDropsUnresponsiveHandles(t *testing.T) {
	hub := newTestHub(newStubChatStore(), &stubPresenceStore{})

	slow := connect(t, hub, 1)
	fast := connect(t, hub, 2)
	drain(t, fast)

	for i := 0; i < cap(slow.send); i++ {
		select {
		case slow.send <- []byte(`{}`):
		default:
		}
	}

	payload, _ := encodeEvent(EventTyping, TypingData{ConversationID: 1, UserID: 99, IsTyping: true})
	hub.Broadcast(context.Background(), 0, payload)

	if hub.Registry().IsOnline(1) {
		t.Fatal("unresponsive handle should be pruned")
	}
	if !slow.closed() {
		t.Fatal("pruned client should be closed")
	}
	frames := drain(t, fast)
	if len(ofType(frames, EventTyping)) != 1 {
		t.Fatalf("healthy client should still receive the broadcast, got %+v", frames)
	}
	if len(ofType(frames, EventUserStatus)) != 1 {
		t.Fatalf("healthy client should hear that the pruned user went offline, got %+v", frames)
	}
}

func TestPresenceWriteFailureKeepsTransition(t *testing.T) {
	store := &stubPresenceStore{err: errors.New("database unavailable")}
	tracker := NewPresenceTracker(store, zap.NewNop())
	tracker.delay = time.Millisecond

	changed := tracker.Settle(context.Background(), 42, func() bool { return true }, nil)

	if !changed {
		t.Fatal("first settle should report a change")
	}

	if !tracker.IsOnline(42) {
		t.Fatal("in-memory transition must stand when storage fails")
	}
	if store.calls != presenceWriteAttempts {
		t.Fatalf("expected %d attempts, got %d", presenceWriteAttempts, store.calls)
	}
	if _, ok := tracker.LastSeen(42); !ok {
		t.Fatal("last seen should be recorded")
	}
}

// gatedPresenceStore holds offline writes until release is closed.
type gatedPresenceStore struct {
	stubPresenceStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPresenceStore) SetStatus(ctx context.Context, userID int64, online bool, at time.Time) error {
	if !online {
		select {
		case g.entered <- struct{}{}:
		default:
		}
		<-g.release
	}
	return g.stubPresenceStore.SetStatus(ctx, userID, online, at)
}

func statusesFor(t *testing.T, frames []frame, userID int64) []bool {
	t.Helper()
	states := make([]bool, 0)
	for _, f := range ofType(frames, EventUserStatus) {
		var status UserStatusData
		if err := json.Unmarshal(f.Data, &status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.UserID == userID {
			states = append(states, status.IsOnline)
		}
	}
	return states
}

func TestHubReconnectDuringOfflineWriteEndsOnline(t *testing.T) {
	store := &gatedPresenceStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
	hub := newTestHub(newStubChatStore(), store)

	peer := connect(t, hub, 1)
	old := connect(t, hub, 2)
	drain(t, peer)

	disconnected := make(chan struct{})
	go func() {
		hub.Disconnect(context.Background(), old)
		close(disconnected)
	}()
	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("offline write did not start")
	}

	reconnected := make(chan *Client, 1)
	go func() {
		client := NewClient(newFakeConn(), 2, models.RoleClient)
		if err := hub.Connect(context.Background(), client); err != nil {
			t.Errorf("Connect: %v", err)
		}
		reconnected <- client
	}()

	deadline := time.Now().Add(time.Second)
	for !hub.Registry().IsOnline(2) {
		if time.Now().After(deadline) {
			t.Fatal("reconnect was not registered")
		}
		time.Sleep(time.Millisecond)
	}
	close(store.release)

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("Disconnect did not return")
	}
	select {
	case <-reconnected:
	case <-time.After(time.Second):
		t.Fatal("Connect did not return")
	}

	states := statusesFor(t, drain(t, peer), 2)
	if len(states) == 0 || !states[len(states)-1] {
		t.Fatalf("peer must end up seeing user 2 online, got %v", states)
	}
	if !hub.Presence().IsOnline(2) {
		t.Fatal("tracker must report user 2 online")
	}
	writes := store.snapshot()
	var last *presenceWrite
	for i := range writes {
		if writes[i].userID == 2 {
			last = &writes[i]
		}
	}
	if last == nil || !last.online {
		t.Fatalf("last stored write for user 2 must be online, got %v", writes)
	}
}

type fakeBus struct {
	handler chan bus.Handler
}

func (f *fakeBus) Publish(context.Context, bus.Envelope) error { return nil }

func (f *fakeBus) Subscribe(ctx context.Context, handler bus.Handler) error {
	f.handler <- handler
	<-ctx.Done()
	return nil
}

func (f *fakeBus) Close() error { return nil }

func TestHubDeliversForeignEnvelopesOnly(t *testing.T) {
	fb := &fakeBus{handler: make(chan bus.Handler, 1)}
	presence := NewPresenceTracker(&stubPresenceStore{}, zap.NewNop())
	hub := NewHub(newStubChatStore(), presence, fb, zap.NewNop())

	client := connect(t, hub, 1)
	drain(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	var handler bus.Handler
	select {
	case handler = <-fb.handler:
	case <-time.After(time.Second):
		t.Fatal("hub did not subscribe")
	}

	payload := json.RawMessage(`{"type":"typing","data":{}}`)
	handler(bus.Envelope{Origin: hub.InstanceID(), Selector: bus.SelectUsers, UserIDs: []int64{1}, Payload: payload})
	if frames := drain(t, client); len(frames) != 0 {
		t.Fatalf("own envelopes must not be delivered twice, got %+v", frames)
	}

	handler(bus.Envelope{Origin: "other-instance", Selector: bus.SelectUsers, UserIDs: []int64{1}, Payload: payload})
	if frames := drain(t, client); len(frames) != 1 {
		t.Fatalf("foreign envelope should be delivered once, got %+v", frames)
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
