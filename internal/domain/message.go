package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxMessageLen = 2000

var (
	ErrMessageEmpty   = errors.New("message text empty")
	ErrMessageTooLong = errors.New("message text too long")
)

type MessageID string

// Message is an immutable chat line. Sender is denormalized at send time.
type Message struct {
	ID        MessageID   `json:"id"`
	RoomID    RoomID      `json:"roomId"`
	SenderID  UserID      `json:"senderId"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
	Sender    Participant `json:"sender"`
}

func NewMessage(room RoomID, sender *User, text string, now time.Time) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, Validation(ErrMessageEmpty)
	}
	if len(text) > MaxMessageLen {
		return nil, Validation(ErrMessageTooLong)
	}
	return &Message{
		ID:        MessageID(uuid.NewString()),
		RoomID:    room,
		SenderID:  sender.ID,
		Text:      text,
		Timestamp: now,
		Sender:    NewParticipant(sender),
	}, nil
}
