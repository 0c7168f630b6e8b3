package controller

import (
	"errors"
	"math"
	"time"

	"github.com/nrgchamp/quizhub/internal/apierr"
	"github.com/nrgchamp/quizhub/internal/models"
	"github.com/nrgchamp/quizhub/internal/roomstate"
	"github.com/nrgchamp/quizhub/internal/scoring"
	"github.com/nrgchamp/quizhub/internal/store"
	"github.com/nrgchamp/quizhub/internal/ws"

	"context"
)

// AnswerResult is what SubmitAnswer returns to the HTTP submit-answer
// handler; the auto_submit socket path does not produce one.
type AnswerResult struct {
	Ignored       bool
	Correct       bool
	Breakdown     scoring.Breakdown
	CorrectAnswer any // only populated when showCorrectAnswers
}

// SubmitAnswer runs the answer-submission pipeline. It must be called
// from inside a Room.Do callback — it reads and writes roomstate directly
// without its own locking.
func (r *Room) SubmitAnswer(ctx context.Context, participantID string, questionIndex, selectedOption int, elapsedSecs float64) (AnswerResult, error) {
	phase := r.state.GetPhase()
	if phase == roomstate.PhaseEnded || phase == roomstate.PhasePodium {
		return AnswerResult{Ignored: true}, nil
	}

	if r.state.HasAnswered(participantID) {
		return AnswerResult{}, apierr.New(apierr.KindConflict, "already answered this question")
	}

	quiz, err := r.loadQuiz(ctx)
	if err != nil {
		return AnswerResult{}, apierr.Wrap(apierr.KindDependency, "load quiz failed", err)
	}
	questions, err := r.loadQuestions(ctx)
	if err != nil {
		return AnswerResult{}, apierr.Wrap(apierr.KindDependency, "load questions failed", err)
	}
	q, ok := questionAt(questions, questionIndex)
	if !ok {
		return AnswerResult{}, apierr.New(apierr.KindNotFound, "question not found")
	}
	participant, err := r.store.GetParticipant(ctx, participantID)
	if err != nil {
		return AnswerResult{}, apierr.Wrap(apierr.KindNotFound, "participant not found", err)
	}

	correct := q.CorrectAnswer.IsCorrect(selectedOption)
	position := r.state.AnsweredCount()
	breakdown := scoring.Compute(q.Points.Weight(), correct, elapsedSecs, q.TimeLimitSecs, participant.TrailingStreak(), position)

	rec := models.AnswerRecord{
		QuestionIndex:  questionIndex,
		SelectedOption: selectedOption,
		Correct:        correct,
		TimeTakenSecs:  math.Round(elapsedSecs*100) / 100,
		Points:         breakdown.Total,
		BasePoints:     breakdown.Base,
		TimeBonus:      breakdown.TimeBonus,
		StreakBonus:    breakdown.StreakBonus,
		SubmittedAt:    time.Now().UTC(),
	}

	updated, err := r.store.AppendAnswer(ctx, participantID, rec, quiz.QuestionCount)
	if errors.Is(err, store.ErrConflict) {
		return AnswerResult{}, apierr.New(apierr.KindConflict, "already answered this question")
	}
	if err != nil {
		return AnswerResult{}, apierr.Wrap(apierr.KindDependency, "persist answer failed", err)
	}

	r.state.MarkAnswered(participantID)
	r.state.RecordTally(questionIndex, selectedOption)
	r.state.UpdateParticipantScore(participantID, updated.Score)

	r.broadcast(ws.OutAnswerCount, map[string]any{
		"answeredCount":     r.state.AnsweredCount(),
		"totalParticipants": r.state.TotalParticipants(),
	})
	r.broadcast(ws.OutAnswerStats, map[string]any{
		"questionIndex": questionIndex,
		"stats":         r.state.TallyFor(questionIndex),
	})

	result := AnswerResult{Correct: correct, Breakdown: breakdown}
	if quiz.ShowCorrect {
		result.CorrectAnswer = correctAnswerWire(q.CorrectAnswer)
	}
	return result, nil
}

func correctAnswerWire(c models.CorrectAnswer) any {
	if c.Kind == models.CorrectSingle {
		return c.Single
	}
	out := make([]int, 0, len(c.Multi))
	for idx := range c.Multi {
		out = append(out, idx)
	}
	return out
}

// AutoSubmit marks a participant answered without scoring, the timeout
// sentinel path.
func (r *Room) AutoSubmit(ctx context.Context, participantID string) {
	if r.state.HasAnswered(participantID) {
		return
	}
	r.state.MarkAnswered(participantID)
	r.broadcast(ws.OutAnswerCount, map[string]any{
		"answeredCount":     r.state.AnsweredCount(),
		"totalParticipants": r.state.TotalParticipants(),
	})
}
