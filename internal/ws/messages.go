// Package ws implements the socket session: per-connection framing,
// identification handshake, heartbeat, and the inbound tag dispatch table,
// built on gorilla/websocket as the pack's quiz-domain manifests
// (dinhkhaphancs-real-time-quiz-backend, splindsay-92-the-quiz-game) do.
package ws

// Inbound tags accepted from a socket.
const (
	TagAdminJoined       = "admin_joined"
	TagParticipantJoined = "participant_joined"
	TagRequestStateSync  = "request_state_sync"
	TagQuizStarting      = "quiz_starting"
	TagShowAnswer        = "show_answer"
	TagShowLeaderboard   = "show_leaderboard"
	TagNextQuestion      = "next_question"
	TagAutoSubmit        = "auto_submit"
	TagReaction          = "reaction"
	TagKickPlayer        = "kick_player"
	TagPing              = "ping"
)

// Outbound tags.
const (
	OutPing               = "ping"
	OutPong               = "pong"
	OutAllParticipants    = "all_participants"
	OutSyncState          = "sync_state"
	OutParticipantJoined  = "participant_joined"
	OutParticipantKicked  = "participant_kicked"
	OutCountdownStart     = "countdown_start"
	OutCountdownTick      = "countdown_tick"
	OutQuizStarting       = "quiz_starting"
	OutNextQuestion       = "next_question"
	OutShowAnswer         = "show_answer"
	OutShowLeaderboard    = "show_leaderboard"
	OutShowPodium         = "show_podium"
	OutAnswerCount        = "answer_count"
	OutAnswerStats        = "answer_stats"
	OutQuizStatusChanged  = "quiz_status_changed"
	OutQuizEnded          = "quiz_ended"
	OutAvatarUpdated      = "avatar_updated"
	OutReaction           = "reaction"
)

// Close codes.
const (
	CloseReplaced     = 1000
	CloseQuizEnded    = 1008
	CloseCapacity     = 1013
	CloseRateLimited  = 1013
	CloseKicked       = 4001
)

// reactionAllowList is the closed emoji set reactions are restricted to;
// anything else is dropped silently.
var reactionAllowList = map[string]struct{}{
	"👍": {},
	"🔥": {},
	"😂": {},
	"😮": {},
	"❤️": {},
}

// ReactionAllowed reports whether emoji is in the closed reaction set.
func ReactionAllowed(emoji string) bool {
	_, ok := reactionAllowList[emoji]
	return ok
}

// inboundEnvelope is the generic shape every inbound frame decodes into
// first; fields beyond Type are pulled with map lookups per tag, since the
// tag vocabulary is small and each tag's payload shape differs.
type inboundEnvelope struct {
	Type string `json:"type"`
}
