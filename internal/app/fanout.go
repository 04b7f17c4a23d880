package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/core"
)

var ErrUnknownConn = errors.New("unknown connection")

// Fanout delivers frames to single connections or whole channels.
// Delivery is a non-blocking TrySend; nothing is acknowledged or replayed.
type Fanout struct {
	Registry *Registry
	Channels *Channels
}

func NewFanout(reg *Registry, ch *Channels) *Fanout {
	return &Fanout{Registry: reg, Channels: ch}
}

func (f *Fanout) SendTo(cid core.ConnID, data core.Frame) error {
	conn, ok := f.Registry.Conn(cid)
	if !ok {
		return ErrUnknownConn
	}
	return conn.TrySend(data)
}

// Broadcast sends data to every connection joined to key, except the
// optional skip connections.
func (f *Fanout) Broadcast(key ChannelKey, data core.Frame, skip ...core.ConnID) core.PublishResult {
	res := core.PublishResult{}
	for _, cid := range f.Channels.Members(key) {
		if contains(skip, cid) {
			continue
		}
		conn, ok := f.Registry.Conn(cid)
		if !ok {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.fanout").Str("channel", string(key)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func contains(ids []core.ConnID, id core.ConnID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
