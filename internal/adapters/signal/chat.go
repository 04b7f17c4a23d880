package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

func (ctl *SignalWSController) handleSendMessage(ctx context.Context, cid core.ConnID, data []byte) error {
	var p sendMessagePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	if !ctl.limiter.Allow(ctl.rateKey(cid)) {
		log.Warn().Str("module", "signal").Str("conn", string(cid)).Msg("chat rate limited")
		return domain.Validationf("too many messages, slow down")
	}
	return ctl.Orch.SendMessage(ctx, cid, p.RoomID, p.Message.UserID, p.Message.Text)
}

// rateKey shares one window across all connections of a user. User windows
// outlive a single connection and are swept by the limiter once idle.
func (ctl *SignalWSController) rateKey(cid core.ConnID) string {
	if uid, ok := ctl.Orch.Registry.UserOf(cid); ok {
		return "user:" + string(uid)
	}
	return connRateKey(cid)
}

func connRateKey(cid core.ConnID) string { return "conn:" + string(cid) }
