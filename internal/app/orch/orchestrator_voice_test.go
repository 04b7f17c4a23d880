package orch

import (
	"context"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchParty/internal/domain"
)

const testSDP = "v=0\r\n" +
	"o=- 4215775240449105457 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n"

func TestVoicePresence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, bob := h.user(t, "alice"), h.user(t, "bob")
	c1, c2 := h.connect("c1"), h.connect("c2")
	rid := h.createRoom(t, "c1", alice)
	require.NoError(t, h.o.JoinRoom(ctx, "c2", string(rid), string(bob.ID)))
	c1.reset()
	c2.reset()

	require.NoError(t, h.o.JoinVoice("c1", string(rid), string(alice.ID)))
	require.NoError(t, h.o.JoinVoice("c2", string(rid), string(bob.ID)))

	joined := c1.last(t, EventUserJoinedVoice)
	assert.Equal(t, string(bob.ID), joined["userId"])
	assert.Equal(t, "c2", joined["connId"])
	assert.Equal(t, string(rid), joined["roomId"])
	assert.Empty(t, c2.types(t), "no echo to the sender")

	require.NoError(t, h.o.SetMic("c2", string(rid), string(bob.ID), true))
	assert.Equal(t, "c2", c1.last(t, EventMicEnabled)["connId"])
	require.NoError(t, h.o.SetMic("c2", string(rid), string(bob.ID), false))
	assert.Equal(t, "c2", c1.last(t, EventMicDisabled)["connId"])

	require.NoError(t, h.o.LeaveVoice("c2", string(rid), string(bob.ID)))
	assert.Equal(t, string(bob.ID), c1.last(t, EventUserLeftVoice)["userId"])

	t.Run("disconnect announces voice departure", func(t *testing.T) {
		require.NoError(t, h.o.JoinVoice("c2", string(rid), string(bob.ID)))
		c1.reset()
		h.o.OnDisconnect(ctx, "c2")
		assert.Contains(t, c1.types(t), EventUserLeftVoice)
	})

	t.Run("unidentified connection leaves without a user id", func(t *testing.T) {
		h.connect("c3")
		require.NoError(t, h.o.JoinVoice("c3", string(rid), string(bob.ID)))
		c1.reset()
		h.o.OnDisconnect(ctx, "c3")

		left := c1.last(t, EventUserLeftVoice)
		assert.Equal(t, "c3", left["connId"])
		assert.NotContains(t, left, "userId")
	})

	t.Run("malformed ids", func(t *testing.T) {
		assert.ErrorIs(t, h.o.JoinVoice("c1", "room", string(alice.ID)), domain.ErrValidation)
		assert.ErrorIs(t, h.o.SetMic("c1", string(rid), "user", true), domain.ErrValidation)
	})
}

func TestVoiceRelay(t *testing.T) {
	h := newHarness(t)
	h.connect("c1")
	c2 := h.connect("c2")

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: testSDP}
	require.NoError(t, h.o.RelayOffer("c1", "c2", offer))
	ev := c2.last(t, EventVoiceOffer)
	assert.Equal(t, "c1", ev["from"])
	sd := ev["offer"].(map[string]any)
	assert.Equal(t, "offer", sd["type"])
	assert.Equal(t, testSDP, sd["sdp"])

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: testSDP}
	require.NoError(t, h.o.RelayAnswer("c1", "c2", answer))
	assert.Equal(t, "answer", c2.last(t, EventVoiceAnswer)["answer"].(map[string]any)["type"])

	mid := "0"
	candidate := webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 2122260223 192.168.1.2 54321 typ host", SDPMid: &mid}
	require.NoError(t, h.o.RelayCandidate("c1", "c2", candidate))
	cand := c2.last(t, EventVoiceCandidate)
	assert.Equal(t, "c1", cand["from"])
	assert.Equal(t, candidate.Candidate, cand["candidate"].(map[string]any)["candidate"])

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"offer with answer type", h.o.RelayOffer("c1", "c2", answer), domain.ErrValidation},
		{"unparsable sdp", h.o.RelayOffer("c1", "c2", webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "not sdp"}), domain.ErrValidation},
		{"empty candidate", h.o.RelayCandidate("c1", "c2", webrtc.ICECandidateInit{}), domain.ErrValidation},
		{"missing target", h.o.RelayOffer("c1", "", offer), domain.ErrValidation},
		{"unknown target", h.o.RelayOffer("c1", "c9", offer), domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
		})
	}
}
