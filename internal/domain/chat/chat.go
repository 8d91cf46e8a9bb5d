package chat

import (
	"errors"
	"strings"
	"time"
)

// DirectScope replaces the work post id for conversations not tied to a post.
const DirectScope = "direct"

var (
	ErrNotFound       = errors.New("chat not found")
	ErrNotParticipant = errors.New("caller is not a chat participant")
)

type Message struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}

type Chat struct {
	ChatID       string    `json:"chatId"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is one row of the caller's conversation list.
type Summary struct {
	Chat
	UnreadCount int      `json:"unreadCount"`
	LastMessage *Message `json:"lastMessage,omitempty"`
}

type SendRequest struct {
	Message    string `json:"message" binding:"required,max=4000"`
	ReceiverID string `json:"receiverId" binding:"required,max=64"`
}

// NewMessage is what the store appends; id, seq and timestamp are assigned on insert.
type NewMessage struct {
	ChatID       string
	Participants []string
	SenderID     string
	SenderName   string
	Message      string
}

// ID builds the deterministic conversation id "<a>_<b>_<workPostId|direct>".
func ID(senderID, receiverID, workPostID string) string {
	if workPostID == "" {
		workPostID = DirectScope
	}
	return senderID + "_" + receiverID + "_" + workPostID
}

// ParseID returns the two user ids encoded in a conversation id.
func ParseID(chatID string) (a, b, scope string, ok bool) {
	parts := strings.Split(chatID, "_")
	if len(parts) != 3 {
		return "", "", "", false
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", "", "", false
		}
	}
	if parts[0] == parts[1] {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// ImpliedParticipants is the participant set a conversation id commits to,
// or nil when the id is free-form.
func ImpliedParticipants(chatID string) []string {
	a, b, _, ok := ParseID(chatID)
	if !ok {
		return nil
	}
	return []string{a, b}
}

func (c Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
