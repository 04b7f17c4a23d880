package signal

import (
	"github.com/dkeye/WatchParty/internal/core"
)

func (ctl *SignalWSController) handleVoice(cid core.ConnID, event string, data []byte) error {
	var p roomUserPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	switch event {
	case "join-voice":
		return ctl.Orch.JoinVoice(cid, p.RoomID, p.UserID)
	case "leave-voice":
		return ctl.Orch.LeaveVoice(cid, p.RoomID, p.UserID)
	default:
		return ctl.Orch.SetMic(cid, p.RoomID, p.UserID, event == "mic-enabled")
	}
}

func (ctl *SignalWSController) handleOffer(cid core.ConnID, data []byte) error {
	var p offerPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.RelayOffer(cid, core.ConnID(p.To), p.Offer)
}

func (ctl *SignalWSController) handleAnswer(cid core.ConnID, data []byte) error {
	var p answerPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.RelayAnswer(cid, core.ConnID(p.To), p.Answer)
}

func (ctl *SignalWSController) handleCandidate(cid core.ConnID, data []byte) error {
	var p candidatePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.RelayCandidate(cid, core.ConnID(p.To), p.Candidate)
}
