package orch

import (
	"context"
	"math"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// PlayVideo loads a new source. The clock restarts stopped at zero.
func (o *Orchestrator) PlayVideo(ctx context.Context, cid core.ConnID, rawRoomID, rawURL, serviceID, rawAdminID string) error {
	if err := validateVideoURL(rawURL); err != nil {
		return err
	}
	playing := false
	room, err := o.control(ctx, rawRoomID, rawAdminID, domain.PlaybackUpdate{
		VideoURL:  &rawURL,
		ServiceID: &serviceID,
		IsPlaying: &playing,
	})
	if err != nil {
		return err
	}
	o.broadcast(app.RoomChannel(room.ID), loadVideo{Type: EventLoadVideo, URL: room.VideoURL, ServiceID: room.ServiceID})
	return nil
}

func (o *Orchestrator) PauseVideo(ctx context.Context, cid core.ConnID, rawRoomID string, at float64, rawAdminID string) error {
	playing := false
	return o.timed(ctx, EventPauseVideo, rawRoomID, rawAdminID, at, &playing)
}

func (o *Orchestrator) ResumeVideo(ctx context.Context, cid core.ConnID, rawRoomID string, at float64, rawAdminID string) error {
	playing := true
	return o.timed(ctx, EventResumeVideo, rawRoomID, rawAdminID, at, &playing)
}

// SeekVideo moves the clock and keeps the playing flag.
func (o *Orchestrator) SeekVideo(ctx context.Context, cid core.ConnID, rawRoomID string, at float64, rawAdminID string) error {
	return o.timed(ctx, EventSeekVideo, rawRoomID, rawAdminID, at, nil)
}

func (o *Orchestrator) timed(ctx context.Context, event, rawRoomID, rawAdminID string, at float64, playing *bool) error {
	if math.IsNaN(at) || math.IsInf(at, 0) || at < 0 {
		return domain.Validationf("playback time must be a finite non-negative number")
	}
	room, err := o.control(ctx, rawRoomID, rawAdminID, domain.PlaybackUpdate{IsPlaying: playing, PlaybackTime: at})
	if err != nil {
		return err
	}
	o.broadcast(app.RoomChannel(room.ID), playbackTime{Type: event, Time: room.PlaybackTime})
	return nil
}

// control re-reads the room to check the requester against the persisted
// admin, then persists the update. The store repeats the admin check in
// the same statement.
func (o *Orchestrator) control(ctx context.Context, rawRoomID, rawAdminID string, upd domain.PlaybackUpdate) (*domain.Room, error) {
	rid, err := domain.ParseRoomID(rawRoomID)
	if err != nil {
		return nil, err
	}
	uid, err := domain.ParseUserID(rawAdminID)
	if err != nil {
		return nil, err
	}
	room, err := o.Rooms.GetRoom(ctx, rid)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(uid) {
		return nil, domain.Unauthorizedf("only the room admin controls playback")
	}
	room, err = o.Rooms.UpdatePlayback(ctx, rid, uid, upd)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("module", "app.orch").Str("room", string(rid)).Bool("playing", room.IsPlaying).Float64("time", room.PlaybackTime).Msg("playback updated")
	return room, nil
}

func validateVideoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.Validationf("video url must be an absolute http(s) url")
	}
	return nil
}
