package orch

import (
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// Outbound event names.
const (
	EventRoomCreated        = "room-created"
	EventRoomDetails        = "room-details"
	EventRoomJoined         = "room-joined"
	EventUpdateParticipants = "update-participants"
	EventRoomDismissed      = "room-dismissed"
	EventLoadVideo          = "load-video"
	EventPauseVideo         = "pause-video"
	EventResumeVideo        = "resume-video"
	EventSeekVideo          = "seek-video"
	EventReceiveMessage     = "receive-message"
	EventUserJoinedVoice    = "user-joined-voice"
	EventUserLeftVoice      = "user-left-voice"
	EventMicEnabled         = "mic-enabled"
	EventMicDisabled        = "mic-disabled"
	EventVoiceOffer         = "voice-offer"
	EventVoiceAnswer        = "voice-answer"
	EventVoiceCandidate     = "voice-candidate"
	EventRoomError          = "room-error"
	EventPong               = "pong"
)

type roomCreated struct {
	Type      string               `json:"type"`
	RoomID    domain.RoomID        `json:"roomId"`
	AdminID   domain.UserID        `json:"adminId"`
	AdminName string               `json:"adminName"`
	Users     []domain.Participant `json:"users"`
}

type roomDetails struct {
	Type string       `json:"type"`
	Room *domain.Room `json:"room"`
}

type roomJoined struct {
	Type         string               `json:"type"`
	RoomID       domain.RoomID        `json:"roomId"`
	AdminID      domain.UserID        `json:"adminId"`
	AdminName    string               `json:"adminName"`
	Users        []domain.Participant `json:"users"`
	VideoURL     string               `json:"videoUrl"`
	ServiceID    string               `json:"serviceId"`
	IsPlaying    bool                 `json:"isPlaying"`
	PlaybackTime float64              `json:"playbackTime"`
	CreatedAt    time.Time            `json:"createdAt"`
	Messages     []*domain.Message    `json:"messages"`
}

type updateParticipants struct {
	Type         string               `json:"type"`
	Participants []domain.Participant `json:"participants"`
}

type roomDismissed struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type loadVideo struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	ServiceID string `json:"serviceId,omitempty"`
}

// playbackTime is shared by pause-video, resume-video and seek-video.
type playbackTime struct {
	Type string  `json:"type"`
	Time float64 `json:"time"`
}

type receiveMessage struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

// voicePresence is shared by the voice join/leave and mic events. UserID is
// empty when a connection that never identified drops out of voice.
type voicePresence struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId,omitempty"`
	ConnID core.ConnID   `json:"connId"`
}

type voiceOffer struct {
	Type  string                    `json:"type"`
	From  core.ConnID               `json:"from"`
	Offer webrtc.SessionDescription `json:"offer"`
}

type voiceAnswer struct {
	Type   string                    `json:"type"`
	From   core.ConnID               `json:"from"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type voiceCandidate struct {
	Type      string                  `json:"type"`
	From      core.ConnID             `json:"from"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type roomError struct {
	Type    string `json:"type"`
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

type pong struct {
	Type string `json:"type"`
}
