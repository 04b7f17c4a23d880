package store

import (
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

// userRecord mirrors the users table owned by the auth service.
type userRecord struct {
	ID         string `gorm:"primarykey;size:36"`
	Username   string `gorm:"size:64;not null"`
	ProfilePic string `gorm:"size:512"`
	Email      string `gorm:"size:255"`
}

func (userRecord) TableName() string { return "users" }

type roomRecord struct {
	ID           string    `gorm:"primarykey;size:36"`
	AdminID      string    `gorm:"size:36;not null;uniqueIndex"`
	AdminName    string    `gorm:"size:64;not null"`
	VideoURL     string    `gorm:"size:2048"`
	ServiceID    string    `gorm:"size:64"`
	IsPlaying    bool      `gorm:"not null;default:false"`
	PlaybackTime float64   `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (roomRecord) TableName() string { return "rooms" }

// memberRecord is one entry of a room's users list. Seq keeps insertion
// order; the user_id index doubles as the user -> rooms lookup.
type memberRecord struct {
	Seq        uint   `gorm:"primarykey;autoIncrement"`
	RoomID     string `gorm:"size:36;not null;uniqueIndex:idx_room_user"`
	UserID     string `gorm:"size:36;not null;uniqueIndex:idx_room_user;index"`
	Username   string `gorm:"size:64"`
	ProfilePic string `gorm:"size:512"`
	Email      string `gorm:"size:255"`
}

func (memberRecord) TableName() string { return "room_members" }

type messageRecord struct {
	ID               string    `gorm:"primarykey;size:36"`
	RoomID           string    `gorm:"size:36;not null;index"`
	SenderID         string    `gorm:"size:36;not null"`
	Text             string    `gorm:"size:2000;not null"`
	Timestamp        time.Time `gorm:"not null;index"`
	SenderUsername   string    `gorm:"size:64"`
	SenderProfilePic string    `gorm:"size:512"`
	SenderEmail      string    `gorm:"size:255"`
}

func (messageRecord) TableName() string { return "messages" }

func (u *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:         domain.UserID(u.ID),
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		Email:      u.Email,
	}
}

func (r *roomRecord) toDomain(members []memberRecord) *domain.Room {
	room := &domain.Room{
		ID:           domain.RoomID(r.ID),
		Admin:        domain.UserID(r.AdminID),
		AdminName:    r.AdminName,
		Users:        make([]domain.Participant, 0, len(members)),
		VideoURL:     r.VideoURL,
		ServiceID:    r.ServiceID,
		IsPlaying:    r.IsPlaying,
		PlaybackTime: r.PlaybackTime,
		CreatedAt:    r.CreatedAt,
	}
	for _, m := range members {
		room.Users = append(room.Users, domain.Participant{
			ID:         domain.UserID(m.UserID),
			Username:   m.Username,
			ProfilePic: m.ProfilePic,
			Email:      m.Email,
		})
	}
	return room
}

func newMemberRecord(room domain.RoomID, p domain.Participant) *memberRecord {
	return &memberRecord{
		RoomID:     string(room),
		UserID:     string(p.ID),
		Username:   p.Username,
		ProfilePic: p.ProfilePic,
		Email:      p.Email,
	}
}

func newMessageRecord(m *domain.Message) *messageRecord {
	return &messageRecord{
		ID:               string(m.ID),
		RoomID:           string(m.RoomID),
		SenderID:         string(m.SenderID),
		Text:             m.Text,
		Timestamp:        m.Timestamp,
		SenderUsername:   m.Sender.Username,
		SenderProfilePic: m.Sender.ProfilePic,
		SenderEmail:      m.Sender.Email,
	}
}

func (m *messageRecord) toDomain() *domain.Message {
	return &domain.Message{
		ID:        domain.MessageID(m.ID),
		RoomID:    domain.RoomID(m.RoomID),
		SenderID:  domain.UserID(m.SenderID),
		Text:      m.Text,
		Timestamp: m.Timestamp,
		Sender: domain.Participant{
			ID:         domain.UserID(m.SenderID),
			Username:   m.SenderUsername,
			ProfilePic: m.SenderProfilePic,
			Email:      m.SenderEmail,
		},
	}
}
