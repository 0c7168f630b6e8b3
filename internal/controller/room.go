// Package controller implements the room controller: the serialized state
// machine that owns a room's roomstate.State, mutates it on command, calls
// the scoring engine and the store/cache, and emits events onto the room's
// broadcast.Hub. Every mutation — whether triggered by a socket frame or
// an HTTP handler — runs through Room.Do, which enforces FIFO, single-owner
// discipline via one goroutine consuming a command channel.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nrgchamp/quizhub/internal/admission"
	"github.com/nrgchamp/quizhub/internal/broadcast"
	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/clock"
	"github.com/nrgchamp/quizhub/internal/roomstate"
	"github.com/nrgchamp/quizhub/internal/store"
	"github.com/nrgchamp/quizhub/internal/ws"
)

// ReactionMinInterval is the per-participant emoji rate limit floor.
const ReactionMinInterval = 2 * time.Second

type command struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// Room is one active quiz room's controller, state, hub and admission
// control bundled together.
type Room struct {
	Code string

	state     *roomstate.State
	hub       *broadcast.Hub
	admission *admission.Controller

	store store.Store
	cache *cache.Cache
	clock clock.Clock
	log   *slog.Logger

	cmdCh  chan command
	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	sockets         map[string]*ws.Session // session id -> session
	participantSock map[string]*ws.Session // participant id -> session
	adminSock       map[string]*ws.Session // session id -> admin session

	onEmpty func(code string) // called when the last socket leaves
}

// NewRoom creates and starts a room controller for an already-loaded quiz.
func NewRoom(code string, totalQuestions int, st store.Store, c *cache.Cache, clk clock.Clock, log *slog.Logger, maxSockets, acceptRate int, onEmpty func(code string)) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		Code:            code,
		state:           roomstate.New(code, totalQuestions),
		hub:             broadcast.New(code, log),
		admission:       admission.New(maxSockets, acceptRate),
		store:           st,
		cache:           c,
		clock:           clk,
		log:             log.With(slog.String("component", "room_controller"), slog.String("room", code)),
		cmdCh:           make(chan command, 64),
		ctx:             ctx,
		cancel:          cancel,
		sockets:         make(map[string]*ws.Session),
		participantSock: make(map[string]*ws.Session),
		adminSock:       make(map[string]*ws.Session),
		onEmpty:         onEmpty,
	}
	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case cmd := <-r.cmdCh:
			cmd.fn(r.ctx)
			close(cmd.done)
		}
	}
}

// Do submits fn to the room's single serialization point and blocks until
// it has run, satisfying the FIFO-per-room requirement for both socket
// frames and HTTP handlers that mutate state.
func (r *Room) Do(ctx context.Context, fn func(ctx context.Context)) {
	done := make(chan struct{})
	select {
	case r.cmdCh <- command{fn: fn, done: done}:
	case <-ctx.Done():
		return
	case <-r.ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// State exposes the room's state for read-only accessors invoked from
// within a Do callback; outside one, reads race the owning goroutine.
func (r *Room) State() *roomstate.State { return r.state }

// TryAdmit applies admission control to an incoming socket; the
// caller must call ReleaseAdmission if Admit was returned and the socket
// subsequently fails to register (e.g. a failed upgrade).
func (r *Room) TryAdmit(now time.Time) admission.Decision {
	return r.admission.TryAccept(now)
}

// ReleaseAdmission frees an admission-control slot without a registered
// socket (upgrade failure after admission was granted).
func (r *Room) ReleaseAdmission() {
	r.admission.Release()
}

// RegisterSocket adds a session to both the hub's fan-out set and the
// room's own session index.
func (r *Room) RegisterSocket(s *ws.Session) {
	r.hub.Register(s)
	r.mu.Lock()
	r.sockets[s.ID()] = s
	r.mu.Unlock()
}

// DisplaceParticipant closes any existing socket bound to participantID
// with a "replaced" reason before the new one takes over.
func (r *Room) DisplaceParticipant(participantID string) {
	r.mu.Lock()
	old, ok := r.participantSock[participantID]
	r.mu.Unlock()
	if ok {
		old.Close(ws.CloseReplaced, "replaced")
	}
}

// BindParticipantSocket records that session now owns participantID's
// socket slot, evicting the previous mapping.
func (r *Room) BindParticipantSocket(s *ws.Session, participantID string) {
	r.mu.Lock()
	r.participantSock[participantID] = s
	r.mu.Unlock()
}

// BindAdminSocket records s as (one of) the room's admin sockets and
// updates roomstate's single admin-socket handle.
func (r *Room) BindAdminSocket(s *ws.Session) {
	r.mu.Lock()
	r.adminSock[s.ID()] = s
	r.mu.Unlock()
	r.state.SetAdminSocket(s.ID())
}

// UnregisterSocket removes a session from every index on disconnect and
// releases its admission-control slot; if the room is now empty it tears
// itself down.
func (r *Room) UnregisterSocket(s *ws.Session) {
	r.hub.Unregister(s.ID())
	r.admission.Release()

	r.mu.Lock()
	delete(r.sockets, s.ID())
	if s.ParticipantID() != "" {
		if cur, ok := r.participantSock[s.ParticipantID()]; ok && cur == s {
			delete(r.participantSock, s.ParticipantID())
		}
	}
	delete(r.adminSock, s.ID())
	empty := len(r.sockets) == 0
	r.mu.Unlock()

	if s.Role() == ws.RoleAdmin {
		r.Do(context.Background(), func(ctx context.Context) {
			if r.state.AdminSocket() == s.ID() {
				r.state.SetAdminSocket("")
			}
		})
	}

	if empty {
		r.Teardown()
	}
}

// Teardown stops the hub, the sweeper and marks the room done; the onEmpty
// callback lets the registry drop the room from its index once the last
// socket leaves.
func (r *Room) Teardown() {
	r.cancel()
	r.hub.Close()
	if r.onEmpty != nil {
		r.onEmpty(r.Code)
	}
}

// broadcast is a small convenience wrapper so controller code reads like
// "room.broadcast(tag, payload)" instead of reaching into r.hub directly.
func (r *Room) broadcast(eventType string, payload map[string]any) {
	r.hub.Enqueue(broadcast.Event{Type: eventType, Payload: payload})
}
