package store

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// mapCache is an in-process stand-in for cache.Cache.
type mapCache struct {
	mu    sync.Mutex
	items map[string][]byte
	hits  int
}

func newMapCache() *mapCache { return &mapCache{items: make(map[string][]byte)} }

func (m *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(data, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *mapCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func TestCachedRooms_ReadThroughAndInvalidate(t *testing.T) {
	db := setupTestDB(t)
	mc := newMapCache()
	repo := NewCachedRooms(NewRoomStore(db), mc)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	room := seedRoom(t, db, alice)

	_, err := repo.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, mc.has(roomKey(room.ID)))

	_, err = repo.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mc.hits)

	_, err = repo.AddMember(ctx, room.ID, domain.NewParticipant(bob))
	require.NoError(t, err)
	assert.False(t, mc.has(roomKey(room.ID)), "mutation drops the entry")

	got, err := repo.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, got.Users, 2)

	require.NoError(t, repo.DeleteRoom(ctx, room.ID))
	_, err = repo.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mc.has(roomKey(room.ID)))
}

func TestCachedRooms_StaleFillIsDiscarded(t *testing.T) {
	db := setupTestDB(t)
	mc := newMapCache()
	repo := NewCachedRooms(NewRoomStore(db), mc)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	room := seedRoom(t, db, alice)

	st, g := repo.beginFill(room.ID)
	stale, err := NewRoomStore(db).GetRoom(ctx, room.ID)
	require.NoError(t, err)

	repo.invalidate(ctx, room.ID)
	repo.finishFill(ctx, room.ID, st, g, stale)

	assert.False(t, mc.has(roomKey(room.ID)))
	assert.Empty(t, repo.fills, "no state kept once reads finish")
}

// gatedRooms parks the first GetRoom after it has read the room, until
// release is closed.
type gatedRooms struct {
	core.RoomRepository
	calls   atomic.Int32
	read    chan struct{}
	release chan struct{}
}

func (g *gatedRooms) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	room, err := g.RoomRepository.GetRoom(ctx, id)
	if g.calls.Add(1) == 1 {
		close(g.read)
		<-g.release
	}
	return room, err
}

func TestCachedRooms_ReadAfterDeleteSkipsInflightRead(t *testing.T) {
	db := setupTestDB(t)
	mc := newMapCache()
	gated := &gatedRooms{
		RoomRepository: NewRoomStore(db),
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
	repo := NewCachedRooms(gated, mc)
	ctx := context.Background()
	room := seedRoom(t, db, seedUser(t, db, "alice"))

	var once sync.Once
	release := func() { once.Do(func() { close(gated.release) }) }
	t.Cleanup(release)

	first := make(chan error, 1)
	go func() {
		_, err := repo.GetRoom(ctx, room.ID)
		first <- err
	}()
	<-gated.read

	require.NoError(t, repo.DeleteRoom(ctx, room.ID))

	second := make(chan error, 1)
	go func() {
		_, err := repo.GetRoom(ctx, room.ID)
		second <- err
	}()

	select {
	case err := <-second:
		assert.ErrorIs(t, err, domain.ErrNotFound)
	case <-time.After(time.Second):
		t.Fatal("read after delete joined the read that started before it")
	}

	release()
	assert.NoError(t, <-first, "the earlier read completes with what it saw")
	assert.False(t, mc.has(roomKey(room.ID)), "stale read is not cached")
}
