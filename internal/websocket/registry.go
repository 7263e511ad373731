package chatws

import (
	"sort"
	"sync"
)

// Registry maps users to their live connections and tracks which
// conversations each connected user belongs to. A user may hold several
// connections and stays online until the last one is gone. Conversation
// membership is only kept for connected users.
type Registry struct {
	mu            sync.RWMutex
	handles       map[int64]map[*Client]struct{}
	conversations map[int64]map[int64]struct{} // conversation -> users
	memberships   map[int64]map[int64]struct{} // user -> conversations
}

func NewRegistry() *Registry {
	return &Registry{
		handles:       make(map[int64]map[*Client]struct{}),
		conversations: make(map[int64]map[int64]struct{}),
		memberships:   make(map[int64]map[int64]struct{}),
	}
}

// Connect records a handle and reports whether it is the user's first.
func (r *Registry) Connect(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handles[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.handles[client.userID] = set
	}
	set[client] = struct{}{}
	return len(set) == 1
}

// Disconnect removes a handle and reports whether it was the user's last.
// Removing a handle that is not registered is a no-op returning false.
func (r *Registry) Disconnect(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handles[client.userID]
	if !ok {
		return false
	}
	if _, exists := set[client]; !exists {
		return false
	}
	delete(set, client)
	if len(set) > 0 {
		return false
	}

	delete(r.handles, client.userID)
	for conversationID := range r.memberships[client.userID] {
		r.removeMemberLocked(conversationID, client.userID)
	}
	delete(r.memberships, client.userID)
	return true
}

func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles[userID]) > 0
}

func (r *Registry) HandleCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles[userID])
}

// OnlineUsers returns the connected user IDs in ascending order.
func (r *Registry) OnlineUsers() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]int64, 0, len(r.handles))
	for userID := range r.handles {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// AddToConversation records membership for a connected user. It returns
// false and records nothing when the user has no live connection.
func (r *Registry) AddToConversation(userID int64, conversationID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.handles[userID]) == 0 {
		return false
	}
	if r.conversations[conversationID] == nil {
		r.conversations[conversationID] = make(map[int64]struct{})
	}
	r.conversations[conversationID][userID] = struct{}{}
	if r.memberships[userID] == nil {
		r.memberships[userID] = make(map[int64]struct{})
	}
	r.memberships[userID][conversationID] = struct{}{}
	return true
}

func (r *Registry) RemoveFromConversation(userID int64, conversationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMemberLocked(conversationID, userID)
	if conversations, ok := r.memberships[userID]; ok {
		delete(conversations, conversationID)
		if len(conversations) == 0 {
			delete(r.memberships, userID)
		}
	}
}

func (r *Registry) InConversation(userID int64, conversationID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conversations[conversationID][userID]
	return ok
}

// ConversationMembers returns the connected members of a conversation.
func (r *Registry) ConversationMembers(conversationID int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]int64, 0, len(r.conversations[conversationID]))
	for userID := range r.conversations[conversationID] {
		members = append(members, userID)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}

func (r *Registry) handlesFor(userIDs []int64, exclude int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]*Client, 0, len(userIDs))
	seen := make(map[int64]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if userID == exclude {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		for client := range r.handles[userID] {
			targets = append(targets, client)
		}
	}
	return targets
}

func (r *Registry) allHandles(exclude int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]*Client, 0, len(r.handles))
	for userID, set := range r.handles {
		if userID == exclude {
			continue
		}
		for client := range set {
			targets = append(targets, client)
		}
	}
	return targets
}

func (r *Registry) removeMemberLocked(conversationID int64, userID int64) {
	members, ok := r.conversations[conversationID]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(r.conversations, conversationID)
	}
}
