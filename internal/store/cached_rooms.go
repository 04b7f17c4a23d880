package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// Cache is the subset of cache.Cache the room cache needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// CachedRooms is a read-through cache in front of a RoomRepository keyed by
// room id. The wrapped repository stays the source of truth: every mutation
// goes to it first and then drops the cached entry. Cache failures are
// logged and never fail the operation.
//
// A fill is only written if no invalidation happened since its read
// started; mu orders fills against invalidations. An invalidation also
// detaches the in-flight read from sf, so readers arriving after a mutation
// never share a read that began before it. Entries in fills exist only
// while a read of that room is in flight.
type CachedRooms struct {
	next  core.RoomRepository
	cache Cache
	sf    singleflight.Group

	mu    sync.Mutex
	fills map[domain.RoomID]*fillState
}

type fillState struct {
	gen      uint64
	inflight int
}

func NewCachedRooms(next core.RoomRepository, cache Cache) *CachedRooms {
	return &CachedRooms{next: next, cache: cache, fills: make(map[domain.RoomID]*fillState)}
}

var _ core.RoomRepository = (*CachedRooms)(nil)

func roomKey(id domain.RoomID) string { return "room:" + string(id) }

func (c *CachedRooms) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var cached domain.Room
	found, err := c.cache.Get(ctx, roomKey(id), &cached)
	if err != nil {
		log.Warn().Err(err).Str("module", "store.cache").Str("room", string(id)).Msg("cache read failed")
	}
	if found {
		return &cached, nil
	}

	v, err, _ := c.sf.Do(string(id), func() (any, error) {
		st, g := c.beginFill(id)
		room, err := c.next.GetRoom(ctx, id)
		c.finishFill(ctx, id, st, g, room)
		if err != nil {
			return nil, err
		}
		return room, nil
	})
	if err != nil {
		return nil, err
	}
	room := *v.(*domain.Room)
	return &room, nil
}

func (c *CachedRooms) GetRoomByAdmin(ctx context.Context, admin domain.UserID) (*domain.Room, error) {
	return c.next.GetRoomByAdmin(ctx, admin)
}

func (c *CachedRooms) CreateRoom(ctx context.Context, room *domain.Room) error {
	defer c.invalidate(ctx, room.ID)
	return c.next.CreateRoom(ctx, room)
}

func (c *CachedRooms) AddMember(ctx context.Context, id domain.RoomID, p domain.Participant) (core.MembershipChange, error) {
	defer c.invalidate(ctx, id)
	return c.next.AddMember(ctx, id, p)
}

func (c *CachedRooms) RemoveMember(ctx context.Context, id domain.RoomID, user domain.UserID) (core.MembershipChange, error) {
	defer c.invalidate(ctx, id)
	return c.next.RemoveMember(ctx, id, user)
}

func (c *CachedRooms) UpdatePlayback(ctx context.Context, id domain.RoomID, admin domain.UserID, upd domain.PlaybackUpdate) (*domain.Room, error) {
	defer c.invalidate(ctx, id)
	return c.next.UpdatePlayback(ctx, id, admin, upd)
}

func (c *CachedRooms) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	defer c.invalidate(ctx, id)
	return c.next.DeleteRoom(ctx, id)
}

func (c *CachedRooms) RoomsOfUser(ctx context.Context, user domain.UserID) ([]*domain.Room, error) {
	return c.next.RoomsOfUser(ctx, user)
}

func (c *CachedRooms) beginFill(id domain.RoomID) (*fillState, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.fills[id]
	if !ok {
		st = &fillState{}
		c.fills[id] = st
	}
	st.inflight++
	return st, st.gen
}

// finishFill caches room unless it was invalidated after beginFill. A nil
// room only releases the in-flight slot.
func (c *CachedRooms) finishFill(ctx context.Context, id domain.RoomID, st *fillState, g uint64, room *domain.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st.inflight--
	if st.inflight == 0 {
		delete(c.fills, id)
	}
	if room == nil || st.gen != g {
		return
	}
	if err := c.cache.Set(ctx, roomKey(id), room); err != nil {
		log.Warn().Err(err).Str("module", "store.cache").Str("room", string(id)).Msg("cache fill failed")
	}
}

func (c *CachedRooms) invalidate(ctx context.Context, id domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.fills[id]; ok {
		st.gen++
	}
	c.sf.Forget(string(id))
	if err := c.cache.Delete(context.WithoutCancel(ctx), roomKey(id)); err != nil {
		log.Warn().Err(err).Str("module", "store.cache").Str("room", string(id)).Msg("cache invalidation failed")
	}
}
