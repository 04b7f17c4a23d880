package orch

import (
	"context"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// SendMessage persists a chat line with the sender's current profile and
// broadcasts the stored record.
func (o *Orchestrator) SendMessage(ctx context.Context, cid core.ConnID, rawRoomID, rawUserID, text string) error {
	rid, err := domain.ParseRoomID(rawRoomID)
	if err != nil {
		return err
	}
	uid, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	sender, err := o.Users.GetUser(ctx, uid)
	if err != nil {
		return err
	}
	msg, err := domain.NewMessage(rid, sender, text, o.Now())
	if err != nil {
		return err
	}
	if err := o.Messages.CreateMessage(ctx, msg); err != nil {
		return err
	}
	o.broadcast(app.RoomChannel(rid), receiveMessage{Type: EventReceiveMessage, Message: msg})
	return nil
}
