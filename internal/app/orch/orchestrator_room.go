package orch

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// CreateRoom makes the user admin of a fresh room. A room the user already
// administers is dismissed first.
func (o *Orchestrator) CreateRoom(ctx context.Context, cid core.ConnID, rawUserID, userName string) error {
	uid, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	userName = strings.TrimSpace(userName)
	if err := domain.ValidateUsername(userName); err != nil {
		return err
	}
	user, err := o.Users.GetUser(ctx, uid)
	if err != nil {
		return err
	}

	unlock := o.Locks.Lock(adminLock(uid))
	defer unlock()

	prev, err := o.Rooms.GetRoomByAdmin(ctx, uid)
	switch {
	case err == nil:
		unlockPrev := o.Locks.Lock(roomLock(prev.ID))
		err := o.dismissLocked(ctx, prev.ID)
		unlockPrev()
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	room := domain.NewRoom(user, userName, o.Now())
	if err := o.Rooms.CreateRoom(ctx, room); err != nil {
		return err
	}
	key := app.RoomChannel(room.ID)
	o.Channels.Join(key, cid)
	o.Registry.Identify(cid, uid)
	log.Info().Str("module", "app.orch").Str("room", string(room.ID)).Str("admin", string(uid)).Msg("room created")

	o.broadcast(key, roomCreated{
		Type:      EventRoomCreated,
		RoomID:    room.ID,
		AdminID:   room.Admin,
		AdminName: room.AdminName,
		Users:     room.Users,
	})
	o.broadcast(key, roomDetails{Type: EventRoomDetails, Room: room})
	return nil
}

func (o *Orchestrator) JoinRoom(ctx context.Context, cid core.ConnID, rawRoomID, rawUserID string) error {
	rid, err := domain.ParseRoomID(rawRoomID)
	if err != nil {
		return err
	}
	uid, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	user, err := o.Users.GetUser(ctx, uid)
	if err != nil {
		return err
	}

	unlock := o.Locks.Lock(roomLock(rid))
	defer unlock()

	change, err := o.Rooms.AddMember(ctx, rid, domain.NewParticipant(user))
	if err != nil {
		return err
	}
	room := change.Room
	key := app.RoomChannel(rid)
	o.Channels.Join(key, cid)
	o.Registry.Identify(cid, uid)
	if change.Changed {
		log.Info().Str("module", "app.orch").Str("room", string(rid)).Str("user", string(uid)).Msg("joined room")
	}

	o.send(cid, roomJoined{
		Type:         EventRoomJoined,
		RoomID:       room.ID,
		AdminID:      room.Admin,
		AdminName:    room.AdminName,
		Users:        room.Users,
		VideoURL:     room.VideoURL,
		ServiceID:    room.ServiceID,
		IsPlaying:    room.IsPlaying,
		PlaybackTime: room.PlaybackTime,
		CreatedAt:    room.CreatedAt,
		Messages:     o.history(ctx, rid),
	})
	o.broadcast(key, updateParticipants{Type: EventUpdateParticipants, Participants: room.Users})
	o.broadcast(key, roomDetails{Type: EventRoomDetails, Room: room})
	return nil
}

// GetRoomDetails is the pull path a connection uses to resynchronize.
func (o *Orchestrator) GetRoomDetails(ctx context.Context, cid core.ConnID, rawRoomID string) error {
	rid, err := domain.ParseRoomID(rawRoomID)
	if err != nil {
		return err
	}
	room, err := o.Rooms.GetRoom(ctx, rid)
	if err != nil {
		return err
	}
	o.send(cid, roomDetails{Type: EventRoomDetails, Room: room})
	return nil
}

// LeaveRoom takes the connection off the room channels before touching the
// store, so it stops receiving room events even when persistence fails.
func (o *Orchestrator) LeaveRoom(ctx context.Context, cid core.ConnID, rawRoomID, rawUserID string) error {
	rid, err := domain.ParseRoomID(rawRoomID)
	if err != nil {
		return err
	}
	uid, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	o.Channels.Leave(app.RoomChannel(rid), cid)
	if o.Channels.Leave(app.VoiceChannel(rid), cid) {
		o.announceVoice(EventUserLeftVoice, rid, uid, cid)
	}
	return o.leave(ctx, rid, uid)
}

// OnDisconnect is the transport's last call for cid. It runs the leave
// logic for every room the connection's user belongs to.
func (o *Orchestrator) OnDisconnect(ctx context.Context, cid core.ConnID) {
	uid, identified := o.Registry.Unbind(cid)
	for _, key := range o.Channels.LeaveAll(cid) {
		if rid, ok := key.VoiceRoom(); ok {
			o.announceVoice(EventUserLeftVoice, rid, uid, cid)
		}
	}
	if !identified {
		log.Debug().Str("module", "app.orch").Str("conn", string(cid)).Msg("disconnect of unidentified connection")
		return
	}

	rooms, err := o.Rooms.RoomsOfUser(ctx, uid)
	if err != nil {
		log.Error().Str("module", "app.orch").Str("user", string(uid)).Err(err).Msg("lookup rooms on disconnect")
		return
	}
	for _, room := range rooms {
		if err := o.leave(ctx, room.ID, uid); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Error().Str("module", "app.orch").Str("room", string(room.ID)).Str("user", string(uid)).Err(err).Msg("leave on disconnect")
		}
	}
	log.Info().Str("module", "app.orch").Str("conn", string(cid)).Str("user", string(uid)).Int("rooms", len(rooms)).Msg("disconnect cleaned up")
}

func (o *Orchestrator) leave(ctx context.Context, rid domain.RoomID, uid domain.UserID) error {
	unlock := o.Locks.Lock(roomLock(rid))
	defer unlock()

	room, err := o.Rooms.GetRoom(ctx, rid)
	if err != nil {
		return err
	}
	if room.IsAdmin(uid) {
		return o.dismissLocked(ctx, rid)
	}

	change, err := o.Rooms.RemoveMember(ctx, rid, uid)
	if err != nil {
		return err
	}
	key := app.RoomChannel(rid)
	if change.Deleted {
		log.Warn().Str("module", "app.orch").Str("room", string(rid)).Msg("room emptied without its admin, deleted")
		o.Channels.Drop(key)
		o.Channels.Drop(app.VoiceChannel(rid))
		return nil
	}
	if !change.Changed {
		return nil
	}
	log.Info().Str("module", "app.orch").Str("room", string(rid)).Str("user", string(uid)).Msg("left room")
	o.broadcast(key, updateParticipants{Type: EventUpdateParticipants, Participants: change.Room.Users})
	o.broadcast(key, roomDetails{Type: EventRoomDetails, Room: change.Room})
	return nil
}

// dismissLocked deletes the room and then tells its channel. The caller
// holds the room's lock.
func (o *Orchestrator) dismissLocked(ctx context.Context, rid domain.RoomID) error {
	if err := o.Rooms.DeleteRoom(ctx, rid); err != nil {
		return err
	}
	key := app.RoomChannel(rid)
	o.broadcast(key, roomDismissed{Type: EventRoomDismissed, RoomID: rid})
	o.Channels.Drop(key)
	o.Channels.Drop(app.VoiceChannel(rid))
	log.Info().Str("module", "app.orch").Str("room", string(rid)).Msg("room dismissed")
	return nil
}

func (o *Orchestrator) history(ctx context.Context, rid domain.RoomID) []*domain.Message {
	if o.Messages == nil || o.HistoryLimit <= 0 {
		return []*domain.Message{}
	}
	msgs, err := o.Messages.ListMessages(ctx, rid, o.HistoryLimit)
	if err != nil {
		log.Error().Str("module", "app.orch").Str("room", string(rid)).Err(err).Msg("load chat history")
		return []*domain.Message{}
	}
	return msgs
}
