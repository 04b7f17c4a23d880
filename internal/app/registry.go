package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

type connEntry struct {
	Conn   core.SignalConnection
	User   domain.UserID
	Cancel context.CancelFunc
}

// Registry maps live connections to their transport and, once the
// connection identified itself, to a user. Entries live exactly as long as
// the connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnID]*connEntry),
	}
}

func (r *Registry) Bind(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("bound connection")
}

// Identify records which user speaks on cid. Later calls overwrite.
func (r *Registry) Identify(cid core.ConnID, user domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	if e.User != user {
		e.User = user
		log.Info().Str("module", "app.registry").Str("conn", string(cid)).Str("user", string(user)).Msg("identified connection")
	}
	return true
}

func (r *Registry) UserOf(cid core.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (r *Registry) Conn(cid core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Unbind drops cid and returns the user it was identified as, if any.
func (r *Registry) Unbind(cid core.ConnID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return "", false
	}
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("unbind connection")
	return e.User, e.User != ""
}

// Kick cancels the connection context and closes the transport, which
// makes the adapter run the regular disconnect path.
func (r *Registry) Kick(cid core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("kicked connection")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
