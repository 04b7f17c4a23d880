package orch

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

func (o *Orchestrator) JoinVoice(cid core.ConnID, rawRoomID, rawUserID string) error {
	rid, uid, err := parseVoice(rawRoomID, rawUserID)
	if err != nil {
		return err
	}
	if o.Channels.Join(app.VoiceChannel(rid), cid) {
		log.Info().Str("module", "app.orch").Str("room", string(rid)).Str("conn", string(cid)).Msg("joined voice")
		o.announceVoice(EventUserJoinedVoice, rid, uid, cid)
	}
	return nil
}

func (o *Orchestrator) LeaveVoice(cid core.ConnID, rawRoomID, rawUserID string) error {
	rid, uid, err := parseVoice(rawRoomID, rawUserID)
	if err != nil {
		return err
	}
	if o.Channels.Leave(app.VoiceChannel(rid), cid) {
		log.Info().Str("module", "app.orch").Str("room", string(rid)).Str("conn", string(cid)).Msg("left voice")
		o.announceVoice(EventUserLeftVoice, rid, uid, cid)
	}
	return nil
}

// SetMic broadcasts the mic state to the voice channel. Nothing is stored.
func (o *Orchestrator) SetMic(cid core.ConnID, rawRoomID, rawUserID string, enabled bool) error {
	rid, uid, err := parseVoice(rawRoomID, rawUserID)
	if err != nil {
		return err
	}
	event := EventMicDisabled
	if enabled {
		event = EventMicEnabled
	}
	o.announceVoice(event, rid, uid, cid)
	return nil
}

func (o *Orchestrator) RelayOffer(cid, to core.ConnID, offer webrtc.SessionDescription) error {
	if err := validateSDP(offer, webrtc.SDPTypeOffer); err != nil {
		return err
	}
	return o.relay(to, voiceOffer{Type: EventVoiceOffer, From: cid, Offer: offer})
}

func (o *Orchestrator) RelayAnswer(cid, to core.ConnID, answer webrtc.SessionDescription) error {
	if err := validateSDP(answer, webrtc.SDPTypeAnswer); err != nil {
		return err
	}
	return o.relay(to, voiceAnswer{Type: EventVoiceAnswer, From: cid, Answer: answer})
}

func (o *Orchestrator) RelayCandidate(cid, to core.ConnID, candidate webrtc.ICECandidateInit) error {
	if candidate.Candidate == "" {
		return domain.Validationf("empty ice candidate")
	}
	return o.relay(to, voiceCandidate{Type: EventVoiceCandidate, From: cid, Candidate: candidate})
}

// relay sends v to a single connection. The target may be in any room;
// peers learn connection ids from voice presence events.
func (o *Orchestrator) relay(to core.ConnID, v any) error {
	if to == "" {
		return domain.Validationf("missing relay target")
	}
	if _, ok := o.Registry.Conn(to); !ok {
		return domain.NotFoundf("connection %s", to)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := o.Fanout.SendTo(to, data); err != nil {
		o.applyPolicy("", core.PublishResult{Dropped: []core.ConnID{to}})
	}
	return nil
}

func (o *Orchestrator) announceVoice(event string, rid domain.RoomID, uid domain.UserID, cid core.ConnID) {
	o.broadcast(app.VoiceChannel(rid), voicePresence{Type: event, RoomID: rid, UserID: uid, ConnID: cid}, cid)
}

func parseVoice(rawRoomID, rawUserID string) (domain.RoomID, domain.UserID, error) {
	rid, err := domain.ParseRoomID(rawRoomID)
	if err != nil {
		return "", "", err
	}
	uid, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return "", "", err
	}
	return rid, uid, nil
}

func validateSDP(sd webrtc.SessionDescription, want webrtc.SDPType) error {
	if sd.Type != want {
		return domain.Validationf("session description type %q, want %q", sd.Type.String(), want.String())
	}
	if _, err := sd.Unmarshal(); err != nil {
		return domain.Validation(err)
	}
	return nil
}
