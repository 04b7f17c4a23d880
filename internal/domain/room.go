package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

func NewRoomID() RoomID { return RoomID(uuid.NewString()) }

func ParseRoomID(raw string) (RoomID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", Validationf("malformed room id %q", raw)
	}
	return RoomID(raw), nil
}

// Room is the persisted watch party record. Admin is always one of Users
// while the room exists.
type Room struct {
	ID           RoomID        `json:"id"`
	Admin        UserID        `json:"admin"`
	AdminName    string        `json:"adminName"`
	Users        []Participant `json:"users"`
	VideoURL     string        `json:"videoUrl"`
	ServiceID    string        `json:"serviceId"`
	IsPlaying    bool          `json:"isPlaying"`
	PlaybackTime float64       `json:"playbackTime"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// NewRoom returns a room with the admin as its only member and a stopped clock.
func NewRoom(admin *User, adminName string, now time.Time) *Room {
	return &Room{
		ID:        NewRoomID(),
		Admin:     admin.ID,
		AdminName: adminName,
		Users:     []Participant{NewParticipant(admin)},
		CreatedAt: now,
	}
}

func (r *Room) IsAdmin(id UserID) bool { return r.Admin == id }

func (r *Room) HasMember(id UserID) bool {
	for _, p := range r.Users {
		if p.ID == id {
			return true
		}
	}
	return false
}

// PlaybackUpdate carries the playback fields a control event persists.
// Nil pointers leave the stored value untouched.
type PlaybackUpdate struct {
	VideoURL     *string
	ServiceID    *string
	IsPlaying    *bool
	PlaybackTime float64
}
