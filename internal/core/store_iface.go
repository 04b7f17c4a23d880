package core

//go:generate mockgen -source=store_iface.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"

	"github.com/dkeye/WatchParty/internal/domain"
)

// MembershipChange is the state of a room after a conditional push or pull.
type MembershipChange struct {
	Room *domain.Room
	// Changed is false when the operation was a no-op (already member / not a member).
	Changed bool
	// Deleted is set when a pull emptied the room and the room was removed with its messages.
	Deleted bool
}

// RoomRepository is the persisted room store. Every method is atomic for a
// single room; membership is never read-modified-written by callers.
type RoomRepository interface {
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	GetRoomByAdmin(ctx context.Context, admin domain.UserID) (*domain.Room, error)
	CreateRoom(ctx context.Context, room *domain.Room) error
	// AddMember appends p unless it is already a member. Fails with
	// domain.ErrNotFound when the room does not exist.
	AddMember(ctx context.Context, id domain.RoomID, p domain.Participant) (MembershipChange, error)
	// RemoveMember pulls the user and deletes the room if nobody is left.
	RemoveMember(ctx context.Context, id domain.RoomID, user domain.UserID) (MembershipChange, error)
	// UpdatePlayback applies upd only while admin still owns the room.
	UpdatePlayback(ctx context.Context, id domain.RoomID, admin domain.UserID, upd domain.PlaybackUpdate) (*domain.Room, error)
	// DeleteRoom removes the room, its members and its messages together.
	DeleteRoom(ctx context.Context, id domain.RoomID) error
	// RoomsOfUser lists every room the user is a member of.
	RoomsOfUser(ctx context.Context, user domain.UserID) ([]*domain.Room, error)
}

type MessageRepository interface {
	// CreateMessage fails with domain.ErrNotFound if the room is gone.
	CreateMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, room domain.RoomID, limit int) ([]*domain.Message, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
}
