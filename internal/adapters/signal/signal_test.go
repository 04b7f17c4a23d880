package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/store"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(f, &ev))
		out = append(out, ev)
	}
	return out
}

func (c *fakeConn) last(t *testing.T, typ string) map[string]any {
	t.Helper()
	evs := c.events(t)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i]["type"] == typ {
			return evs[i]
		}
	}
	t.Fatalf("no %s event received", typ)
	return nil
}

func (c *fakeConn) count(t *testing.T, typ string) int {
	n := 0
	for _, ev := range c.events(t) {
		if ev["type"] == typ {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	return &config.Config{
		Mode:             "test",
		ReadLimit:        32768,
		PingPeriod:       time.Second,
		PongWait:         2 * time.Second,
		WriteWait:        time.Second,
		SendBuffer:       16,
		ChatRateLimit:    3,
		ChatRateInterval: time.Minute,
		CleanupTimeout:   time.Second,
		HistoryLimit:     10,
	}
}

type fixture struct {
	ctl   *SignalWSController
	users *store.UserStore
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	users := store.NewUserStore(db)
	o := orch.New(store.NewRoomStore(db), users, store.NewMessageStore(db))
	return &fixture{ctl: NewSignalWSController(o, cfg), users: users}
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: domain.UserID(uuid.NewString()), Username: name}
	require.NoError(t, f.users.SaveUser(context.Background(), u))
	return u
}

func (f *fixture) connect(cid core.ConnID) *fakeConn {
	c := &fakeConn{}
	f.ctl.Orch.Registry.Bind(cid, c, nil)
	return c
}

func (f *fixture) send(cid core.ConnID, format string, args ...any) {
	f.ctl.handleSignal(context.Background(), cid, []byte(fmt.Sprintf(format, args...)))
}

func TestHandleSignal_BadInput(t *testing.T) {
	f := newFixture(t, testConfig())
	c1 := f.connect("c1")

	f.send("c1", "not json")
	assert.Equal(t, 1, c1.count(t, "room-error"))

	f.send("c1", `{"type":"dance"}`)
	ev := c1.last(t, "room-error")
	assert.Equal(t, "dance", ev["event"])
	assert.Contains(t, ev["message"], "unknown event")

	f.send("c1", `{"type":"join-room","roomId":"r1","userId":"u1"}`)
	assert.Equal(t, "join-room", c1.last(t, "room-error")["event"])

	f.send("c1", `{"type":"ping"}`)
	assert.Equal(t, 1, c1.count(t, "pong"))
}

func TestHandleSignal_LengthLimitsCountBytes(t *testing.T) {
	f := newFixture(t, testConfig())
	alice := f.user(t, "alice")
	c1 := f.connect("c1")

	// 40 runes, 80 bytes.
	name := strings.Repeat("é", 40)
	f.send("c1", `{"type":"create-room","userId":%q,"userName":%q}`, alice.ID, name)
	assert.Contains(t, c1.last(t, "room-error")["message"], domain.ErrUsernameTooLong.Error())
	assert.Zero(t, c1.count(t, "room-created"))

	f.send("c1", `{"type":"create-room","userId":%q,"userName":%q}`, alice.ID, strings.Repeat("é", 32))
	rid := c1.last(t, "room-created")["roomId"].(string)

	f.send("c1", `{"type":"send-message","roomId":%q,"message":{"userId":%q,"text":%q}}`, rid, alice.ID, strings.Repeat("é", 1001))
	assert.Contains(t, c1.last(t, "room-error")["message"], domain.ErrMessageTooLong.Error())
	assert.Zero(t, c1.count(t, "receive-message"))
}

func TestHandleSignal_RoomFlow(t *testing.T) {
	f := newFixture(t, testConfig())
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	c1, c2 := f.connect("c1"), f.connect("c2")

	f.send("c1", `{"type":"create-room","userId":%q,"userName":"Alice"}`, alice.ID)
	created := c1.last(t, "room-created")
	rid := created["roomId"].(string)
	assert.Equal(t, "Alice", created["adminName"])

	f.send("c2", `{"type":"join-room","roomId":%q,"userId":%q}`, rid, bob.ID)
	assert.Equal(t, rid, c2.last(t, "room-joined")["roomId"])
	assert.Len(t, c1.last(t, "update-participants")["participants"], 2)

	f.send("c2", `{"type":"play-video","roomId":%q,"url":"https://x/video","adminId":%q}`, rid, bob.ID)
	assert.Equal(t, "play-video", c2.last(t, "room-error")["event"])
	assert.Zero(t, c1.count(t, "load-video"))

	f.send("c1", `{"type":"play-video","roomId":%q,"url":"https://x/video","adminId":%q}`, rid, alice.ID)
	assert.Equal(t, "https://x/video", c2.last(t, "load-video")["url"])

	f.send("c1", `{"type":"seek-video","roomId":%q,"time":0,"adminId":%q}`, rid, alice.ID)
	assert.Equal(t, 0.0, c2.last(t, "seek-video")["time"])

	errsBefore := c1.count(t, "room-error")
	f.send("c1", `{"type":"pause-video","roomId":%q,"adminId":%q}`, rid, alice.ID)
	assert.Equal(t, errsBefore+1, c1.count(t, "room-error"), "time is required")

	f.send("c2", `{"type":"send-message","roomId":%q,"message":{"userId":%q,"text":"hi"}}`, rid, bob.ID)
	msg := c1.last(t, "receive-message")["message"].(map[string]any)
	assert.Equal(t, "hi", msg["text"])

	f.send("c2", `{"type":"get-room-details","roomId":%q}`, rid)
	assert.Equal(t, rid, c2.last(t, "room-details")["room"].(map[string]any)["id"])

	f.send("c1", `{"type":"leave-room","roomId":%q,"userId":%q}`, rid, alice.ID)
	assert.Equal(t, rid, c2.last(t, "room-dismissed")["roomId"])
}

func TestHandleSignal_ChatRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.ChatRateLimit = 2
	f := newFixture(t, cfg)
	alice := f.user(t, "alice")
	c1 := f.connect("c1")

	f.send("c1", `{"type":"create-room","userId":%q,"userName":"Alice"}`, alice.ID)
	rid := c1.last(t, "room-created")["roomId"].(string)

	for i := 0; i < 3; i++ {
		f.send("c1", `{"type":"send-message","roomId":%q,"message":{"userId":%q,"text":"spam"}}`, rid, alice.ID)
	}
	assert.Equal(t, 2, c1.count(t, "receive-message"))
	assert.Contains(t, c1.last(t, "room-error")["message"], "too many messages")
}

func TestHandleSignal_ChatRateLimitSurvivesReconnect(t *testing.T) {
	cfg := testConfig()
	cfg.ChatRateLimit = 2
	f := newFixture(t, cfg)
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	c1, _, c3 := f.connect("c1"), f.connect("c2"), f.connect("c3")

	f.send("c1", `{"type":"create-room","userId":%q,"userName":"Alice"}`, alice.ID)
	rid := c1.last(t, "room-created")["roomId"].(string)
	f.send("c2", `{"type":"join-room","roomId":%q,"userId":%q}`, rid, bob.ID)
	f.send("c3", `{"type":"join-room","roomId":%q,"userId":%q}`, rid, bob.ID)

	for i := 0; i < 2; i++ {
		f.send("c2", `{"type":"send-message","roomId":%q,"message":{"userId":%q,"text":"hi"}}`, rid, bob.ID)
	}
	f.ctl.disconnect(context.Background(), "c2")

	f.send("c3", `{"type":"send-message","roomId":%q,"message":{"userId":%q,"text":"again"}}`, rid, bob.ID)
	assert.Contains(t, c3.last(t, "room-error")["message"], "too many messages")
	assert.Equal(t, 2, c1.count(t, "receive-message"))
}

func TestHandleSignal_Voice(t *testing.T) {
	f := newFixture(t, testConfig())
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	c1, c2 := f.connect("c1"), f.connect("c2")
	rid := uuid.NewString()

	f.send("c1", `{"type":"join-voice","roomId":%q,"userId":%q}`, rid, alice.ID)
	f.send("c2", `{"type":"join-voice","roomId":%q,"userId":%q}`, rid, bob.ID)
	assert.Equal(t, "c2", c1.last(t, "user-joined-voice")["connId"])

	f.send("c2", `{"type":"mic-enabled","roomId":%q,"userId":%q}`, rid, bob.ID)
	assert.Equal(t, string(bob.ID), c1.last(t, "mic-enabled")["userId"])

	sdp := "v=0\r\no=- 1 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n" +
		"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\nc=IN IP4 0.0.0.0\r\na=rtpmap:111 opus/48000/2\r\n"
	offer, err := json.Marshal(map[string]any{
		"type":  "voice-offer",
		"to":    "c2",
		"offer": map[string]string{"type": "offer", "sdp": sdp},
	})
	require.NoError(t, err)
	f.ctl.handleSignal(context.Background(), "c1", offer)
	ev := c2.last(t, "voice-offer")
	assert.Equal(t, "c1", ev["from"])
	assert.Equal(t, sdp, ev["offer"].(map[string]any)["sdp"])

	f.send("c1", `{"type":"voice-candidate","to":"c2","candidate":{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host","sdpMid":"0"}}`)
	assert.Equal(t, "c1", c2.last(t, "voice-candidate")["from"])

	f.send("c1", `{"type":"voice-answer","to":"c2","answer":{"type":"bogus","sdp":""}}`)
	assert.Equal(t, "voice-answer", c1.last(t, "room-error")["event"])

	f.send("c2", `{"type":"leave-voice","roomId":%q,"userId":%q}`, rid, bob.ID)
	assert.Equal(t, "c2", c1.last(t, "user-left-voice")["connId"])
}

func TestChatRateLimiter(t *testing.T) {
	rl := NewChatRateLimiter(2, 10*time.Second)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "keys are independent")

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("u1"), "window slid past the old attempts")

	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	rl.Forget("u1")
	assert.True(t, rl.Allow("u1"))

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("u3"))
	assert.Equal(t, 1, rl.size(), "idle keys are swept")
}
