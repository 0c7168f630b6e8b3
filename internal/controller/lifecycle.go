package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/nrgchamp/quizhub/internal/roomstate"
	"github.com/nrgchamp/quizhub/internal/ws"
)

// StartQuizStarting runs the quiz start sequence: an immediate priority
// countdown_start, four countdown_tick broadcasts one second apart, and the
// QUESTION-phase transition at t+5s. The ticks run on their own goroutine
// (not inside a single Do call) so the room keeps serving joins and other
// commands during the five-second countdown.
func (r *Room) StartQuizStarting(ctx context.Context) {
	questions, err := r.loadQuestions(ctx)
	if err != nil {
		r.log.Error("quiz_starting_load_questions_failed", slog.Any("err", err))
		return
	}
	total := len(questions)

	r.Do(ctx, func(ctx context.Context) {
		r.broadcast(ws.OutCountdownStart, map[string]any{
			"countdown":       5,
			"total_questions": total,
			"server_time":     r.clock.NowMillis(),
		})
	})

	go r.runCountdown()
}

func (r *Room) runCountdown() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	tick := 0
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			tick++
			if tick <= 4 {
				remaining := 5 - tick
				r.Do(r.ctx, func(ctx context.Context) {
					r.broadcast(ws.OutCountdownTick, map[string]any{"countdown": remaining})
				})
				continue
			}
			r.Do(r.ctx, func(ctx context.Context) {
				r.beginFirstQuestion(ctx)
			})
			return
		}
	}
}

// beginFirstQuestion performs step 4 of the start sequence under Do's
// serialization.
func (r *Room) beginFirstQuestion(ctx context.Context) {
	questions, err := r.loadQuestions(ctx)
	if err != nil {
		r.log.Error("quiz_starting_begin_failed", slog.Any("err", err))
		return
	}
	q, ok := questionAt(questions, 0)
	if !ok {
		r.log.Error("quiz_starting_no_questions")
		return
	}
	now := r.clock.NowMillis()
	r.state.SetPhase(roomstate.PhaseQuestion)
	r.state.SetQuestion(0, q.TimeLimitSecs, now)

	r.broadcast(ws.OutQuizStarting, map[string]any{
		"question_number":     1,
		"current_question":    0,
		"question":            q.Sanitize(),
		"time_limit":          q.TimeLimitSecs,
		"total_questions":     len(questions),
		"server_time":         now,
		"question_start_time": now,
	})
}

// ShowAnswer transitions QUESTION -> ANSWER_REVEAL and broadcasts the
// reveal, enabling showAnswers for subsequent sync-state responses.
func (r *Room) ShowAnswer(ctx context.Context) {
	r.state.SetPhase(roomstate.PhaseAnswerReveal)
	r.state.SetShowAnswers(true)
	r.broadcast(ws.OutShowAnswer, map[string]any{
		"current_question": r.state.CurrentQuestion(),
		"server_time":      r.clock.NowMillis(),
	})
}

// ShowLeaderboard transitions to LEADERBOARD or FINAL_LEADERBOARD depending
// on whether the current question is the last one.
func (r *Room) ShowLeaderboard(ctx context.Context) {
	isFinal := r.state.CurrentQuestion() >= r.state.TotalQuestion-1
	if isFinal {
		r.state.SetPhase(roomstate.PhaseFinalLeaderboard)
	} else {
		r.state.SetPhase(roomstate.PhaseLeaderboard)
	}
	r.broadcast(ws.OutShowLeaderboard, map[string]any{
		"is_final":          isFinal,
		"current_question":  r.state.CurrentQuestion(),
		"total_questions":   r.state.TotalQuestion,
	})
}

// NextQuestion advances to the next question, or to PODIUM if the current
// one was the last.
func (r *Room) NextQuestion(ctx context.Context) {
	next := r.state.CurrentQuestion() + 1
	if next >= r.state.TotalQuestion {
		r.state.SetPhase(roomstate.PhasePodium)
		r.broadcast(ws.OutShowPodium, map[string]any{"server_time": r.clock.NowMillis()})
		return
	}

	questions, err := r.loadQuestions(ctx)
	if err != nil {
		r.log.Error("next_question_load_failed", slog.Any("err", err))
		return
	}
	q, ok := questionAt(questions, next)
	if !ok {
		r.state.SetPhase(roomstate.PhasePodium)
		r.broadcast(ws.OutShowPodium, map[string]any{"server_time": r.clock.NowMillis()})
		return
	}

	now := r.clock.NowMillis()
	r.state.SetPhase(roomstate.PhaseQuestion)
	r.state.SetQuestion(next, q.TimeLimitSecs, now)

	r.broadcast(ws.OutNextQuestion, map[string]any{
		"question_number":     next + 1,
		"current_question":    next,
		"question":            q.Sanitize(),
		"time_limit":          q.TimeLimitSecs,
		"total_questions":     len(questions),
		"server_time":         now,
		"question_start_time": now,
	})
}

// EndQuiz marks the quiz ENDED from any phase (admin override).
func (r *Room) EndQuiz(ctx context.Context, message string) {
	r.state.SetPhase(roomstate.PhaseEnded)
	r.broadcast(ws.OutQuizEnded, map[string]any{"message": message})
}

// KickPlayer removes a participant from the store and the room, closing
// their socket with the "kicked" close code.
func (r *Room) KickPlayer(ctx context.Context, participantID, displayName string) {
	if err := r.store.DeleteParticipant(ctx, participantID); err != nil {
		r.log.Warn("kick_player_store_delete_failed", slog.Any("err", err))
	}
	if err := r.store.IncrementParticipantCount(ctx, r.Code, -1); err != nil {
		r.log.Warn("kick_player_decrement_participant_count_failed", slog.Any("err", err))
	}
	r.state.RemoveParticipant(participantID)

	r.mu.Lock()
	sock, ok := r.participantSock[participantID]
	r.mu.Unlock()
	if ok {
		sock.Close(ws.CloseKicked, "kicked")
	}

	r.broadcast(ws.OutParticipantKicked, map[string]any{
		"participantId": participantID,
		"name":          displayName,
	})
}
