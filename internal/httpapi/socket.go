package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nrgchamp/quizhub/internal/admission"
	"github.com/nrgchamp/quizhub/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS is enforced by gorilla/handlers on the HTTP surface
}

// handleSocketUpgrade implements the `GET /ws/{code}` socket entrypoint:
// admission control gates the accept, then a Session is created and
// registered with the room controller.
func (s *Server) handleSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	ctx := r.Context()

	room, err := s.registry.GetOrCreate(ctx, code)
	if err != nil {
		http.Error(w, "quiz not found", http.StatusNotFound)
		return
	}

	decision := room.TryAdmit(time.Now())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws_upgrade_failed", slog.Any("err", err))
		if decision == admission.Admit {
			room.ReleaseAdmission()
		}
		return
	}

	switch decision {
	case admission.RejectCapacity:
		closeImmediately(conn, ws.CloseCapacity, "capacity")
		return
	case admission.RejectRate:
		closeImmediately(conn, ws.CloseRateLimited, "too many connections")
		return
	}

	hasAdminToken := AdminTokenValid([]byte(s.cfg.JWTSecret), r.Header.Get("Authorization"))
	session := ws.New(conn, code, hasAdminToken, room, s.clock, s.log, s.cfg.HeartbeatInterval, s.cfg.HeartbeatTimeout)
	room.RegisterSocket(session)

	// r.Context() is cancelled as soon as this handler returns, so the
	// session runs on its own context.
	go session.Run(context.Background())
}

func closeImmediately(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
