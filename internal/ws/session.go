package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nrgchamp/quizhub/internal/clock"
)

// Role distinguishes the two identities a socket may assert.
type Role int

const (
	RoleUnidentified Role = iota
	RoleAdmin
	RoleParticipant
)

// Dispatcher is what a Session hands decoded inbound frames to; the room
// controller implements it. Keeping this as an interface (rather than a
// direct import) avoids a cycle between ws and controller.
type Dispatcher interface {
	HandleInbound(s *Session, tag string, payload map[string]any)
	HandleDisconnect(s *Session)
}

// Session is one socket connection's session state: identification, the
// write surface broadcast.Hub fans out through, and the heartbeat/read
// pump.
type Session struct {
	id            string
	conn          *websocket.Conn
	roomCode      string
	hasAdminToken bool

	dispatcher Dispatcher
	clock      clock.Clock
	log        *slog.Logger

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool

	role          Role
	participantID string

	mu           sync.Mutex
	lastReceived time.Time
}

// New wraps an upgraded connection. hasAdminToken reflects whether the
// upgrade request carried a valid admin bearer token, gating the
// admin_joined path.
func New(conn *websocket.Conn, roomCode string, hasAdminToken bool, dispatcher Dispatcher, clk clock.Clock, log *slog.Logger, heartbeatInterval, heartbeatTimeout time.Duration) *Session {
	s := &Session{
		id:                uuid.NewString(),
		conn:              conn,
		roomCode:          roomCode,
		hasAdminToken:     hasAdminToken,
		dispatcher:        dispatcher,
		clock:             clk,
		log:               log.With(slog.String("component", "ws_session"), slog.String("room", roomCode)),
		heartbeatInterval: heartbeatInterval,
		heartbeatTimeout:  heartbeatTimeout,
		lastReceived:      time.Now(),
	}
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) RoomCode() string { return s.roomCode }
func (s *Session) Role() Role       { return s.role }
func (s *Session) ParticipantID() string { return s.participantID }
func (s *Session) HasAdminToken() bool   { return s.hasAdminToken }

// IdentifyAsAdmin marks this session as the room's admin socket once an
// admin_joined frame arrives on a socket that presented a valid token.
func (s *Session) IdentifyAsAdmin() {
	s.role = RoleAdmin
}

// IdentifyAsParticipant binds this session to a participant id.
func (s *Session) IdentifyAsParticipant(participantID string) {
	s.role = RoleParticipant
	s.participantID = participantID
}

// Closed reports whether the session's transport is gone; broadcast.Hub
// checks this before every send.
func (s *Session) Closed() bool { return s.closed.Load() }

// Send writes a pre-marshaled payload as a single text frame. Concurrent
// callers (the hub's fan-out and the heartbeat goroutine) are serialized by
// writeMu, since a single gorilla/websocket connection supports at most one
// concurrent writer.
func (s *Session) Send(payload []byte) error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close marks the session dead and closes the underlying connection with
// the given close code/reason.
func (s *Session) Close(code int, reason string) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.writeMu.Unlock()
	_ = s.conn.Close()
}

// Run starts the session's read loop and heartbeat; it blocks until the
// connection is closed or ctx is cancelled (which closes the connection).
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.heartbeatLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = s.conn.Close() // unblocks readLoop when ctx is cancelled
	}()
	s.readLoop()
	s.dispatcher.HandleDisconnect(s)
}

func (s *Session) readLoop() {
	defer func() {
		s.closed.Store(true)
		_ = s.conn.Close()
	}()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.lastReceived = time.Now()
		s.mu.Unlock()

		var env map[string]any
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warn("ws_decode_failed", slog.Any("err", err))
			continue
		}
		tag, _ := env["type"].(string)
		if tag == "" {
			continue
		}
		if tag == TagPing {
			s.replyPong(env)
			continue
		}
		s.dispatcher.HandleInbound(s, tag, env)
	}
}

func (s *Session) replyPong(env map[string]any) {
	out := map[string]any{
		"type":       OutPong,
		"serverTime": s.clock.NowMillis(),
	}
	if ct, ok := env["clientTime"]; ok {
		out["clientTime"] = ct
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return
	}
	_ = s.Send(payload)
}

// heartbeatLoop sends an application-level ping every heartbeatInterval; if
// no inbound frame has been received within heartbeatTimeout, it sends a
// keep-alive ping rather than closing.
func (s *Session) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.closed.Load() {
				return
			}
			s.mu.Lock()
			idle := time.Since(s.lastReceived)
			s.mu.Unlock()
			_ = idle // the keep-alive ping is unconditional; idle is informational only
			payload, err := json.Marshal(map[string]any{"type": OutPing, "t": s.clock.NowMillis()})
			if err != nil {
				continue
			}
			if err := s.Send(payload); err != nil {
				s.log.Debug("ws_heartbeat_send_failed", slog.Any("err", err))
				return
			}
		}
	}
}
