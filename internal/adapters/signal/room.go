package signal

import (
	"context"

	"github.com/dkeye/WatchParty/internal/core"
)

func (ctl *SignalWSController) handleCreateRoom(ctx context.Context, cid core.ConnID, data []byte) error {
	var p createRoomPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.CreateRoom(ctx, cid, p.UserID, p.UserName)
}

func (ctl *SignalWSController) handleJoinRoom(ctx context.Context, cid core.ConnID, data []byte) error {
	var p roomUserPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.JoinRoom(ctx, cid, p.RoomID, p.UserID)
}

func (ctl *SignalWSController) handleRoomDetails(ctx context.Context, cid core.ConnID, data []byte) error {
	var p roomPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.GetRoomDetails(ctx, cid, p.RoomID)
}

func (ctl *SignalWSController) handleLeaveRoom(ctx context.Context, cid core.ConnID, data []byte) error {
	var p roomUserPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.LeaveRoom(ctx, cid, p.RoomID, p.UserID)
}
