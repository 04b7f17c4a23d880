package signal

import "github.com/pion/webrtc/v4"

// Inbound payloads. Every event is a flat JSON object with a "type" field;
// ids are checked here for shape and resolved by the orchestrator. Length
// limits on names and chat text belong to the domain and count bytes.

type createRoomPayload struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	UserName string `json:"userName" validate:"required"`
}

type roomUserPayload struct {
	RoomID string `json:"roomId" validate:"required,uuid"`
	UserID string `json:"userId" validate:"required,uuid"`
}

type roomPayload struct {
	RoomID string `json:"roomId" validate:"required,uuid"`
}

type playVideoPayload struct {
	RoomID    string `json:"roomId" validate:"required,uuid"`
	URL       string `json:"url" validate:"required,url"`
	ServiceID string `json:"serviceId" validate:"max=64"`
	AdminID   string `json:"adminId" validate:"required,uuid"`
}

type timedPayload struct {
	RoomID  string   `json:"roomId" validate:"required,uuid"`
	Time    *float64 `json:"time" validate:"required,min=0"`
	AdminID string   `json:"adminId" validate:"required,uuid"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId" validate:"required,uuid"`
	Message struct {
		UserID string `json:"userId" validate:"required,uuid"`
		Text   string `json:"text" validate:"required"`
	} `json:"message"`
}

type offerPayload struct {
	To    string                    `json:"to" validate:"required"`
	Offer webrtc.SessionDescription `json:"offer"`
}

type answerPayload struct {
	To     string                    `json:"to" validate:"required"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type candidatePayload struct {
	To        string                  `json:"to" validate:"required"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}
