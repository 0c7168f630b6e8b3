package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nrgchamp/quizhub/internal/models"
	"github.com/nrgchamp/quizhub/internal/roomstate"
	"github.com/nrgchamp/quizhub/internal/ws"
)

// HandleInbound implements ws.Dispatcher, mapping the inbound tag table
// onto Room operations. Every branch runs inside Do so all socket-triggered
// mutations are serialized with HTTP-triggered ones.
func (r *Room) HandleInbound(s *ws.Session, tag string, payload map[string]any) {
	switch tag {
	case ws.TagAdminJoined:
		r.handleAdminJoined(s)
	case ws.TagParticipantJoined:
		r.handleParticipantJoined(s, payload)
	case ws.TagRequestStateSync:
		r.handleRequestStateSync(s)
	case ws.TagQuizStarting:
		if s.Role() != ws.RoleAdmin {
			return
		}
		r.StartQuizStarting(context.Background())
	case ws.TagShowAnswer:
		if s.Role() != ws.RoleAdmin {
			return
		}
		r.Do(context.Background(), r.ShowAnswer)
	case ws.TagShowLeaderboard:
		if s.Role() != ws.RoleAdmin {
			return
		}
		r.Do(context.Background(), r.ShowLeaderboard)
	case ws.TagNextQuestion:
		if s.Role() != ws.RoleAdmin {
			return
		}
		r.Do(context.Background(), r.NextQuestion)
	case ws.TagAutoSubmit:
		if s.Role() != ws.RoleParticipant {
			return
		}
		pid := s.ParticipantID()
		r.Do(context.Background(), func(ctx context.Context) { r.AutoSubmit(ctx, pid) })
	case ws.TagReaction:
		r.handleReaction(s, payload)
	case ws.TagKickPlayer:
		if s.Role() != ws.RoleAdmin {
			return
		}
		r.handleKickPlayer(payload)
	default:
		// Unknown tags are ignored.
	}
}

func (r *Room) handleAdminJoined(s *ws.Session) {
	if !s.HasAdminToken() {
		return
	}
	s.IdentifyAsAdmin()
	ctx := context.Background()
	r.Do(ctx, func(ctx context.Context) { r.BindAdminSocket(s) })
	participants, err := r.store.ListParticipants(ctx, r.Code)
	if err != nil {
		r.log.Warn("admin_joined_list_participants_failed", slog.Any("err", err))
		participants = nil
	}
	r.sendTo(s, ws.OutAllParticipants, map[string]any{"participants": participants})
}

func (r *Room) handleParticipantJoined(s *ws.Session, payload map[string]any) {
	participantID, _ := payload["participantId"].(string)
	if participantID == "" {
		return
	}
	r.DisplaceParticipant(participantID)
	s.IdentifyAsParticipant(participantID)
	r.BindParticipantSocket(s, participantID)

	ctx := context.Background()
	p, err := r.store.GetParticipant(ctx, participantID)
	if err != nil {
		r.log.Warn("participant_joined_load_failed", slog.Any("err", err))
		return
	}
	var sync SyncPayload
	r.Do(ctx, func(ctx context.Context) {
		r.state.AddParticipant(toSnapshot(p))
		sync = r.SyncStateFor(ctx, participantID)
	})
	r.sendTo(s, ws.OutSyncState, syncPayloadToMap(sync))

	r.broadcast(ws.OutParticipantJoined, map[string]any{
		"participant": map[string]any{
			"id":         p.ID,
			"name":       p.DisplayName,
			"avatarSeed": p.AvatarSeed,
		},
	})
}

func (r *Room) handleRequestStateSync(s *ws.Session) {
	var sync SyncPayload
	r.Do(context.Background(), func(ctx context.Context) {
		sync = r.SyncStateFor(ctx, s.ParticipantID())
	})
	r.sendTo(s, ws.OutSyncState, syncPayloadToMap(sync))
}

func (r *Room) handleReaction(s *ws.Session, payload map[string]any) {
	emoji, _ := payload["emoji"].(string)
	if !ws.ReactionAllowed(emoji) {
		return
	}
	pid := s.ParticipantID()
	if pid == "" {
		return
	}
	r.Do(context.Background(), func(ctx context.Context) {
		if !r.state.ReactionAllowed(pid, time.Now(), ReactionMinInterval) {
			return
		}
		userID := pid
		if len(userID) > 8 {
			userID = userID[:8]
		}
		r.broadcast(ws.OutReaction, map[string]any{"emoji": emoji, "userId": userID})
	})
}

func (r *Room) handleKickPlayer(payload map[string]any) {
	participantID, _ := payload["participantId"].(string)
	if participantID == "" {
		return
	}
	ctx := context.Background()
	p, err := r.store.GetParticipant(ctx, participantID)
	name := ""
	if err == nil {
		name = p.DisplayName
	}
	r.Do(ctx, func(ctx context.Context) {
		r.KickPlayer(ctx, participantID, name)
	})
}

// HandleDisconnect implements ws.Dispatcher.
func (r *Room) HandleDisconnect(s *ws.Session) {
	r.UnregisterSocket(s)
}

// sendTo marshals and sends a single envelope directly to one socket,
// bypassing the hub's fan-out for targeted replies (admin_joined's
// all_participants, sync_state).
func (r *Room) sendTo(s *ws.Session, eventType string, fields map[string]any) {
	out := map[string]any{"type": eventType}
	for k, v := range fields {
		out[k] = v
	}
	payload, err := json.Marshal(out)
	if err != nil {
		r.log.Error("ws_send_marshal_failed", slog.Any("err", err))
		return
	}
	if err := s.Send(payload); err != nil {
		r.log.Debug("ws_send_failed", slog.Any("err", err))
	}
}

func syncPayloadToMap(p SyncPayload) map[string]any {
	b, _ := json.Marshal(p)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}

func toSnapshot(p models.Participant) roomstate.ParticipantSnapshot {
	return roomstate.ParticipantSnapshot{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarSeed:  p.AvatarSeed,
		Score:       p.Score,
		JoinedAt:    p.JoinedAt,
	}
}
