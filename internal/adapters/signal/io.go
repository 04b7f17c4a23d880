package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cid core.ConnID, c *WsSignalConn) {
	defer ctl.wg.Done()
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(cid)).Msg("readPump closing")
		c.Close()
		ctl.disconnect(ctx, cid)
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		ctl.handleSignal(ctx, cid, data)
	}
}

// disconnect runs on a context detached from the connection so cleanup
// still reaches the store after the connection was cancelled.
func (ctl *SignalWSController) disconnect(ctx context.Context, cid core.ConnID) {
	ctl.limiter.Forget(connRateKey(cid))
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ctl.cfg.CleanupTimeout)
	defer cancel()
	ctl.Orch.OnDisconnect(cleanupCtx, cid)
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cid core.ConnID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("bad json")
		ctl.Orch.ReportError(cid, "", domain.Validationf("malformed event"))
		return
	}

	var err error
	switch env.Type {
	case "create-room":
		err = ctl.handleCreateRoom(ctx, cid, data)
	case "join-room":
		err = ctl.handleJoinRoom(ctx, cid, data)
	case "get-room-details":
		err = ctl.handleRoomDetails(ctx, cid, data)
	case "leave-room":
		err = ctl.handleLeaveRoom(ctx, cid, data)
	case "play-video":
		err = ctl.handlePlayVideo(ctx, cid, data)
	case "pause-video", "resume-video", "seek-video":
		err = ctl.handleTimed(ctx, cid, env.Type, data)
	case "send-message":
		err = ctl.handleSendMessage(ctx, cid, data)
	case "join-voice", "leave-voice", "mic-enabled", "mic-disabled":
		err = ctl.handleVoice(cid, env.Type, data)
	case "voice-offer":
		err = ctl.handleOffer(cid, data)
	case "voice-answer":
		err = ctl.handleAnswer(cid, data)
	case "voice-candidate":
		err = ctl.handleCandidate(cid, data)
	case "ping":
		ctl.Orch.Pong(cid)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		err = domain.Validationf("unknown event %q", env.Type)
	}
	if err != nil {
		ctl.Orch.ReportError(cid, env.Type, err)
	}
}

// decode unmarshals and validates an inbound payload.
func (ctl *SignalWSController) decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Validationf("bad payload: %v", err)
	}
	if err := ctl.validate.Struct(v); err != nil {
		return domain.Validation(err)
	}
	return nil
}
