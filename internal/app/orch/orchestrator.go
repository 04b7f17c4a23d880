package orch

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

const DefaultHistoryLimit = 50

// Orchestrator runs every room event: it keeps the persisted rooms and the
// in-process channels in step and fans the results out.
type Orchestrator struct {
	Registry *app.Registry
	Channels *app.Channels
	Fanout   *app.Fanout
	Locks    *app.KeyLocks
	Policy   app.Policy

	Rooms    core.RoomRepository
	Users    core.UserRepository
	Messages core.MessageRepository

	Now          func() time.Time
	HistoryLimit int
}

func New(rooms core.RoomRepository, users core.UserRepository, messages core.MessageRepository) *Orchestrator {
	reg := app.NewRegistry()
	ch := app.NewChannels()
	return &Orchestrator{
		Registry:     reg,
		Channels:     ch,
		Fanout:       app.NewFanout(reg, ch),
		Locks:        app.NewKeyLocks(),
		Policy:       app.SimplePolicy{},
		Rooms:        rooms,
		Users:        users,
		Messages:     messages,
		Now:          time.Now,
		HistoryLimit: DefaultHistoryLimit,
	}
}

func roomLock(id domain.RoomID) string { return "room:" + string(id) }
func adminLock(id domain.UserID) string { return "admin:" + string(id) }

// ReportError answers a failed event with room-error on the originating
// connection only. Store failures are logged with their cause and reported
// with a generic message.
func (o *Orchestrator) ReportError(cid core.ConnID, event string, err error) {
	msg := err.Error()
	switch domain.Kind(err) {
	case domain.ErrValidation, domain.ErrNotFound:
		log.Info().Str("module", "app.orch").Str("conn", string(cid)).Str("event", event).Err(err).Msg("event rejected")
	case domain.ErrAuthorization:
		log.Warn().Str("module", "app.orch").Str("conn", string(cid)).Str("event", event).Err(err).Msg("unauthorized event")
	default:
		log.Error().Str("module", "app.orch").Str("conn", string(cid)).Str("event", event).Err(err).Msg("event failed")
		msg = "internal error"
	}
	o.send(cid, roomError{Type: EventRoomError, Event: event, Message: msg})
}

// Pong answers a keepalive ping.
func (o *Orchestrator) Pong(cid core.ConnID) {
	o.send(cid, pong{Type: EventPong})
}

func (o *Orchestrator) send(cid core.ConnID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Str("module", "app.orch").Err(err).Msg("marshal event")
		return
	}
	if err := o.Fanout.SendTo(cid, data); err != nil {
		if errors.Is(err, app.ErrUnknownConn) {
			log.Debug().Str("module", "app.orch").Str("conn", string(cid)).Msg("send to unbound connection")
			return
		}
		o.applyPolicy("", core.PublishResult{Dropped: []core.ConnID{cid}})
	}
}

func (o *Orchestrator) broadcast(key app.ChannelKey, v any, skip ...core.ConnID) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Str("module", "app.orch").Err(err).Msg("marshal event")
		return
	}
	o.applyPolicy(key, o.Fanout.Broadcast(key, data, skip...))
}

func (o *Orchestrator) applyPolicy(key app.ChannelKey, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(key, slow) {
		case app.KickMember:
			log.Warn().Str("module", "app.orch").Str("conn", string(slow)).Str("channel", string(key)).Msg("send queue full, kicking")
			o.Registry.Kick(slow)
		case app.DropFrame:
			log.Debug().Str("module", "app.orch").Str("conn", string(slow)).Str("channel", string(key)).Msg("send queue full, frame dropped")
		}
	}
}
