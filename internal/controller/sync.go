package controller

import (
	"context"

	"github.com/nrgchamp/quizhub/internal/roomstate"
)

// SyncPayload is the state-sync responder's result, serving both the
// HTTP `GET /quiz/{code}/state` endpoint and the inbound `request_state_sync`
// frame with the same shape.
type SyncPayload struct {
	Phase            string         `json:"phase"`
	CurrentQuestion  int            `json:"current_question"`
	QuestionNumber   int            `json:"question_number"`
	TotalQuestions   int            `json:"total_questions"`
	ShowAnswers      bool           `json:"show_answers"`
	ServerTime       int64          `json:"server_time"`
	QuestionStart    int64          `json:"question_start_time,omitempty"`
	TimeLimit        int            `json:"time_limit,omitempty"`
	TimeRemaining    float64        `json:"time_remaining"`
	AnsweredCount    int            `json:"answered_count"`
	TotalParticipant int            `json:"total_participants"`
	Question         any            `json:"question,omitempty"`
	RedirectLeader   bool           `json:"redirect_leaderboard,omitempty"`
	IsFinal          bool           `json:"is_final,omitempty"`
	RedirectPodium   bool           `json:"redirect_podium,omitempty"`
	ParticipantScore *int           `json:"participant_score,omitempty"`
}

// BuildSyncState assembles the sync payload from current room state. questionPayload
// is the sanitized current question (nil outside QUESTION/ANSWER_REVEAL).
// When participantID resolves in the roster, its score is attached.
func (r *Room) BuildSyncState(ctx context.Context, participantID string, questionPayload any) SyncPayload {
	now := r.clock.NowMillis()
	phase := r.state.GetPhase()

	p := SyncPayload{
		Phase:            string(phase),
		CurrentQuestion:  r.state.CurrentQuestion(),
		QuestionNumber:   r.state.CurrentQuestion() + 1,
		TotalQuestions:   r.state.TotalQuestion,
		ShowAnswers:      r.state.ShowAnswers(),
		ServerTime:       now,
		AnsweredCount:    r.state.AnsweredCount(),
		TotalParticipant: r.state.TotalParticipants(),
	}

	switch phase {
	case roomstate.PhaseQuestion, roomstate.PhaseAnswerReveal:
		p.QuestionStart = r.state.QuestionStartMs()
		p.TimeLimit = r.state.TimeLimitSecs()
		p.TimeRemaining = r.state.TimeRemaining(now)
		p.Question = questionPayload
	case roomstate.PhaseLeaderboard:
		p.RedirectLeader = true
	case roomstate.PhaseFinalLeaderboard:
		p.RedirectLeader = true
		p.IsFinal = true
	case roomstate.PhasePodium:
		p.RedirectPodium = true
	}

	if participantID != "" {
		if snap, ok := r.state.Participant(participantID); ok {
			score := snap.Score
			p.ParticipantScore = &score
		}
	}

	return p
}

// SyncStateFor builds the sync payload like BuildSyncState but loads and
// sanitizes the current question itself when the phase calls for one,
// sparing callers (notably the HTTP state-sync handler) from reaching into
// the room's cached questions directly.
func (r *Room) SyncStateFor(ctx context.Context, participantID string) SyncPayload {
	phase := r.state.GetPhase()
	var qPayload any
	if phase == roomstate.PhaseQuestion || phase == roomstate.PhaseAnswerReveal {
		questions, err := r.loadQuestions(ctx)
		if err == nil {
			qPayload = sanitizedQuestionAt(questions, r.state.CurrentQuestion())
		}
	}
	return r.BuildSyncState(ctx, participantID, qPayload)
}
