// Package roomstate implements the opaque per-room record: lifecycle
// phase, current question context, participant roster, answered set and
// per-option tally. The record is never read or written outside the owning
// controller's execution context — every accessor here assumes the caller
// already holds that single-owner discipline; roomstate itself adds no
// locking of its own.
package roomstate

import (
	"time"

	"github.com/nrgchamp/quizhub/internal/models"
)

// Phase is the room lifecycle phase.
type Phase string

const (
	PhaseLobby            Phase = "LOBBY"
	PhaseQuestion         Phase = "QUESTION"
	PhaseAnswerReveal     Phase = "ANSWER_REVEAL"
	PhaseLeaderboard      Phase = "LEADERBOARD"
	PhaseFinalLeaderboard Phase = "FINAL_LEADERBOARD"
	PhasePodium           Phase = "PODIUM"
	PhaseEnded            Phase = "ENDED"
)

// ParticipantSnapshot is the controller's in-memory view of a participant,
// co-owned with the store: the store wins for durable fields (score,
// answers), the controller wins for transient ones.
type ParticipantSnapshot struct {
	ID          string
	DisplayName string
	AvatarSeed  string
	Score       int
	JoinedAt    time.Time
}

// State is the per-room mutable record owned by a single room controller.
type State struct {
	QuizCode      string
	Phase         Phase
	TotalQuestion int // total question count

	currentQuestion int
	timeLimitSecs   int
	questionStartMs int64 // ms since epoch, set by SetQuestion

	participants map[string]ParticipantSnapshot
	answered     map[string]struct{}
	// tally[questionIndex][option] = count
	tally map[int]map[int]int

	showAnswers    bool
	adminSocketID  string
	lastReactionAt map[string]time.Time
}

func New(quizCode string, totalQuestions int) *State {
	return &State{
		QuizCode:       quizCode,
		Phase:          PhaseLobby,
		TotalQuestion:  totalQuestions,
		participants:   make(map[string]ParticipantSnapshot),
		answered:       make(map[string]struct{}),
		tally:          make(map[int]map[int]int),
		lastReactionAt: make(map[string]time.Time),
	}
}

// GetPhase/SetPhase: direct phase accessors.
func (s *State) GetPhase() Phase    { return s.Phase }
func (s *State) SetPhase(p Phase)   { s.Phase = p }

// CurrentQuestion returns the 0-based current question index.
func (s *State) CurrentQuestion() int { return s.currentQuestion }

// SetQuestion transitions to a new question index, resetting the answered
// set and recording the question-start timestamp.
func (s *State) SetQuestion(index, timeLimitSecs int, nowMs int64) {
	s.currentQuestion = index
	s.timeLimitSecs = timeLimitSecs
	s.questionStartMs = nowMs
	s.answered = make(map[string]struct{})
	s.showAnswers = false
}

func (s *State) QuestionStartMs() int64 { return s.questionStartMs }
func (s *State) TimeLimitSecs() int     { return s.timeLimitSecs }

// TimeRemaining computes `max(0, time_limit - (now - question_start)/1000)`,
// meaningful only in QUESTION phase; every other phase reads zero.
func (s *State) TimeRemaining(nowMs int64) float64 {
	if s.Phase != PhaseQuestion {
		return 0
	}
	elapsedSecs := float64(nowMs-s.questionStartMs) / 1000.0
	remaining := float64(s.timeLimitSecs) - elapsedSecs
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarkAnswered idempotently records that participantID answered the
// current question.
func (s *State) MarkAnswered(participantID string) {
	s.answered[participantID] = struct{}{}
}

// HasAnswered reports whether participantID is in the current answered set.
func (s *State) HasAnswered(participantID string) bool {
	_, ok := s.answered[participantID]
	return ok
}

// ClearAnswered empties the answered set without touching the question
// context.
func (s *State) ClearAnswered() {
	s.answered = make(map[string]struct{})
}

// AnsweredCount returns the count of participants who answered the current
// question; used both for broadcast and for the scoring engine's arrival
// position (the count is read before the current submission is added).
func (s *State) AnsweredCount() int { return len(s.answered) }

// TotalParticipants returns the current roster size.
func (s *State) TotalParticipants() int { return len(s.participants) }

// AddParticipant adds or replaces a participant snapshot in the roster.
func (s *State) AddParticipant(p ParticipantSnapshot) {
	s.participants[p.ID] = p
}

// RemoveParticipant drops a participant from the roster, answered set, and
// reaction rate-limit tracking (kick_player, leave).
func (s *State) RemoveParticipant(participantID string) {
	delete(s.participants, participantID)
	delete(s.answered, participantID)
	delete(s.lastReactionAt, participantID)
}

// Participant returns a roster snapshot by id.
func (s *State) Participant(participantID string) (ParticipantSnapshot, bool) {
	p, ok := s.participants[participantID]
	return p, ok
}

// Participants returns every roster snapshot, in no particular order.
func (s *State) Participants() []ParticipantSnapshot {
	out := make([]ParticipantSnapshot, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	return out
}

// UpdateParticipantScore refreshes the controller's cached score for a
// participant after a scored answer, keeping the transient roster in sync
// with the durable store write.
func (s *State) UpdateParticipantScore(participantID string, score int) {
	if p, ok := s.participants[participantID]; ok {
		p.Score = score
		s.participants[participantID] = p
	}
}

// UpdateParticipantAvatar refreshes the cached avatar seed.
func (s *State) UpdateParticipantAvatar(participantID, seed string) {
	if p, ok := s.participants[participantID]; ok {
		p.AvatarSeed = seed
		s.participants[participantID] = p
	}
}

// RecordTally increments the per-option answer distribution for the
// current question index.
func (s *State) RecordTally(questionIndex, option int) {
	m, ok := s.tally[questionIndex]
	if !ok {
		m = make(map[int]int)
		s.tally[questionIndex] = m
	}
	m[option]++
}

// TallyFor returns the per-option answer distribution for a question index.
func (s *State) TallyFor(questionIndex int) map[int]int {
	out := make(map[int]int)
	for k, v := range s.tally[questionIndex] {
		out[k] = v
	}
	return out
}

func (s *State) ShowAnswers() bool      { return s.showAnswers }
func (s *State) SetShowAnswers(v bool)  { s.showAnswers = v }

// SetAdminSocket records the admin socket handle; the empty string means no
// admin is currently attached.
func (s *State) SetAdminSocket(socketID string) { s.adminSocketID = socketID }
func (s *State) AdminSocket() string            { return s.adminSocketID }

// ReactionAllowed enforces the per-participant emoji rate limit floor; it
// both checks and, on success, stamps lastReactionAt so the check is
// atomic under the controller's single-owner discipline.
func (s *State) ReactionAllowed(participantID string, now time.Time, minInterval time.Duration) bool {
	last, ok := s.lastReactionAt[participantID]
	if ok && now.Sub(last) < minInterval {
		return false
	}
	s.lastReactionAt[participantID] = now
	return true
}

// EveryoneAnswered reports whether the answered set already covers the
// whole roster; an empty roster reports false.
func (s *State) EveryoneAnswered() bool {
	return len(s.participants) > 0 && len(s.answered) >= len(s.participants)
}

// ToParticipantModel builds a durable participant constructor input from a
// join, used by the HTTP join handler to hand a fresh participant to the store.
func ToParticipantModel(id, quizCode, displayName, avatarSeed string, attemptNo int, joinedAt time.Time) models.Participant {
	return models.Participant{
		ID:           id,
		DisplayName:  displayName,
		QuizCode:     quizCode,
		AvatarSeed:   avatarSeed,
		JoinedAt:     joinedAt,
		LastActiveAt: joinedAt,
		AttemptNo:    attemptNo,
	}
}
