package app

import (
	"strings"
	"sync"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// ChannelKey names a multicast group of connections.
type ChannelKey string

func RoomChannel(id domain.RoomID) ChannelKey  { return ChannelKey("room:" + id) }
func VoiceChannel(id domain.RoomID) ChannelKey { return ChannelKey("voice:" + id) }

// Channels tracks which connections are joined to which channel.
// Membership here is transport state only; it is independent of the
// persisted room users list.
type Channels struct {
	mu      sync.RWMutex
	members map[ChannelKey]map[core.ConnID]struct{}
	byConn  map[core.ConnID]map[ChannelKey]struct{}
}

func NewChannels() *Channels {
	return &Channels{
		members: make(map[ChannelKey]map[core.ConnID]struct{}),
		byConn:  make(map[core.ConnID]map[ChannelKey]struct{}),
	}
}

// Join reports whether cid was newly added.
func (c *Channels) Join(key ChannelKey, cid core.ConnID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.members[key]
	if !ok {
		set = make(map[core.ConnID]struct{})
		c.members[key] = set
	}
	if _, ok := set[cid]; ok {
		return false
	}
	set[cid] = struct{}{}
	keys, ok := c.byConn[cid]
	if !ok {
		keys = make(map[ChannelKey]struct{})
		c.byConn[cid] = keys
	}
	keys[key] = struct{}{}
	return true
}

// Leave reports whether cid was a member.
func (c *Channels) Leave(key ChannelKey, cid core.ConnID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leaveLocked(key, cid)
}

// LeaveAll removes cid from every channel and returns those channels.
func (c *Channels) LeaveAll(cid core.ConnID) []ChannelKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]ChannelKey, 0, len(c.byConn[cid]))
	for key := range c.byConn[cid] {
		keys = append(keys, key)
	}
	for _, key := range keys {
		c.leaveLocked(key, cid)
	}
	return keys
}

// Drop empties the channel.
func (c *Channels) Drop(key ChannelKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for cid := range c.members[key] {
		c.leaveLocked(key, cid)
	}
}

func (c *Channels) Members(key ChannelKey) []core.ConnID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.ConnID, 0, len(c.members[key]))
	for cid := range c.members[key] {
		out = append(out, cid)
	}
	return out
}

func (c *Channels) IsMember(key ChannelKey, cid core.ConnID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[key][cid]
	return ok
}

func (c *Channels) leaveLocked(key ChannelKey, cid core.ConnID) bool {
	set, ok := c.members[key]
	if !ok {
		return false
	}
	if _, ok := set[cid]; !ok {
		return false
	}
	delete(set, cid)
	if len(set) == 0 {
		delete(c.members, key)
	}
	if keys, ok := c.byConn[cid]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byConn, cid)
		}
	}
	return true
}

// VoiceRoom reports the room of a voice channel key.
func (k ChannelKey) VoiceRoom() (domain.RoomID, bool) {
	id, ok := strings.CutPrefix(string(k), "voice:")
	return domain.RoomID(id), ok
}
