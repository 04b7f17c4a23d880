package signal

import (
	"context"

	"github.com/dkeye/WatchParty/internal/core"
)

func (ctl *SignalWSController) handlePlayVideo(ctx context.Context, cid core.ConnID, data []byte) error {
	var p playVideoPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.PlayVideo(ctx, cid, p.RoomID, p.URL, p.ServiceID, p.AdminID)
}

func (ctl *SignalWSController) handleTimed(ctx context.Context, cid core.ConnID, event string, data []byte) error {
	var p timedPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	switch event {
	case "pause-video":
		return ctl.Orch.PauseVideo(ctx, cid, p.RoomID, *p.Time, p.AdminID)
	case "resume-video":
		return ctl.Orch.ResumeVideo(ctx, cid, p.RoomID, *p.Time, p.AdminID)
	default:
		return ctl.Orch.SeekVideo(ctx, cid, p.RoomID, *p.Time, p.AdminID)
	}
}
