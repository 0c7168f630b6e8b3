package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nrgchamp/quizhub/internal/apierr"
	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/models"
	"github.com/nrgchamp/quizhub/internal/roomstate"
)

type joinRequest struct {
	QuizCode    string `json:"quizCode"`
	DisplayName string `json:"displayName"`
}

type joinResponse struct {
	ParticipantID string `json:"participantId"`
	AvatarSeed    string `json:"avatarSeed"`
	AttemptNo     int    `json:"attemptNo"`
}

// handleJoin implements POST /join: resolves the quiz, enforces the
// attempt cap, allocates an avatar seed unique within the room, and
// registers the participant in both the store and the room controller's
// roster.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "malformed join request"))
		return
	}
	if req.QuizCode == "" || req.DisplayName == "" {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "quizCode and displayName are required"))
		return
	}

	ctx := r.Context()
	quiz, err := s.store.GetQuiz(ctx, req.QuizCode)
	if err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "quiz not found"))
		return
	}
	if quiz.Status != models.QuizActive {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "quiz is not active"))
		return
	}

	attemptNo, err := s.store.CountAttempts(ctx, req.QuizCode, req.DisplayName)
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "count attempts failed", err))
		return
	}
	attemptNo++
	if quiz.AttemptCap > 0 && attemptNo > quiz.AttemptCap {
		apierr.WriteHTTP(w, apierr.New(apierr.KindConflict, "attempt cap exceeded for this quiz"))
		return
	}

	room, err := s.registry.GetOrCreate(ctx, req.QuizCode)
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "room init failed", err))
		return
	}

	participantID := uuid.NewString()
	joinedAt := time.Now().UTC()
	var seed string
	room.Do(ctx, func(ctx context.Context) {
		taken := make(map[string]struct{})
		for _, p := range room.State().Participants() {
			taken[p.AvatarSeed] = struct{}{}
		}
		seed = models.NextAvatarSeed(taken)
		room.State().AddParticipant(roomstate.ParticipantSnapshot{
			ID:          participantID,
			DisplayName: req.DisplayName,
			AvatarSeed:  seed,
			JoinedAt:    joinedAt,
		})
	})

	participant := roomstate.ToParticipantModel(participantID, req.QuizCode, req.DisplayName, seed, attemptNo, joinedAt)
	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		room.Do(ctx, func(ctx context.Context) { room.State().RemoveParticipant(participantID) })
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "create participant failed", err))
		return
	}
	if err := s.store.IncrementParticipantCount(ctx, req.QuizCode, 1); err != nil {
		s.log.Warn("join_increment_participant_count_failed")
	}
	s.cache.Invalidate(ctx, cache.QuizKey(req.QuizCode))

	writeJSON(w, http.StatusOK, joinResponse{ParticipantID: participant.ID, AvatarSeed: seed, AttemptNo: attemptNo})
}

// handleGetQuestions implements GET /quiz/{code}/questions: sanitized
// questions in storage-index order for non-admin callers.
func (s *Server) handleGetQuestions(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	questions, err := s.store.GetQuestions(r.Context(), code)
	if err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "quiz not found"))
		return
	}
	out := make([]models.SanitizedQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Sanitize())
	}
	writeJSON(w, http.StatusOK, out)
}

type submitAnswerRequest struct {
	QuizCode       string  `json:"quizCode"`
	ParticipantID  string  `json:"participantId"`
	QuestionIndex  int     `json:"questionIndex"`
	SelectedOption int     `json:"selectedOption"`
	TimeTakenSecs  float64 `json:"timeTaken"`
}

type submitAnswerResponse struct {
	Ignored       bool `json:"ignored,omitempty"`
	Correct       bool `json:"correct"`
	Base          int  `json:"basePoints"`
	TimeBonus     int  `json:"timeBonus"`
	StreakBonus   int  `json:"streakBonus"`
	Total         int  `json:"points"`
	CorrectAnswer any  `json:"correctAnswer,omitempty"`
}

// handleSubmitAnswer implements POST /submit-answer, routed through the
// same Room.Do serialization the socket path uses.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "malformed submit-answer request"))
		return
	}

	ctx := r.Context()
	room, err := s.registry.GetOrCreate(ctx, req.QuizCode)
	if err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "quiz not found"))
		return
	}

	var resp submitAnswerResponse
	var handlerErr error
	room.Do(ctx, func(ctx context.Context) {
		result, err := room.SubmitAnswer(ctx, req.ParticipantID, req.QuestionIndex, req.SelectedOption, req.TimeTakenSecs)
		if err != nil {
			handlerErr = err
			return
		}
		resp = submitAnswerResponse{
			Ignored:       result.Ignored,
			Correct:       result.Correct,
			Base:          result.Breakdown.Base,
			TimeBonus:     result.Breakdown.TimeBonus,
			StreakBonus:   result.Breakdown.StreakBonus,
			Total:         result.Breakdown.Total,
			CorrectAnswer: result.CorrectAnswer,
		}
	})
	if handlerErr != nil {
		apierr.WriteHTTP(w, handlerErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLeaderboard implements GET /leaderboard/{code}: full ranking.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	board, err := cache.GetOrLoad(r.Context(), s.cache, cache.LeaderboardKey(code), cache.TTLLeaderboard, func(ctx context.Context) ([]models.Participant, error) {
		return s.store.Leaderboard(ctx, code)
	})
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "leaderboard load failed", err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleStateSync implements GET /quiz/{code}/state[?participantId=…].
func (s *Server) handleStateSync(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	participantID := r.URL.Query().Get("participantId")

	room, ok := s.registry.Get(code)
	if !ok {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "room not active"))
		return
	}

	ctx := r.Context()
	var payload any
	room.Do(ctx, func(ctx context.Context) {
		payload = room.SyncStateFor(ctx, participantID)
	})
	writeJSON(w, http.StatusOK, payload)
}

type timeSyncResponse struct {
	ServerTime int64 `json:"serverTime"`
	Timestamp  int64 `json:"timestamp"`
}

// handleTimeSync implements GET /time-sync: initial clock calibration.
func (s *Server) handleTimeSync(w http.ResponseWriter, r *http.Request) {
	now := s.clock.NowMillis()
	writeJSON(w, http.StatusOK, timeSyncResponse{ServerTime: now, Timestamp: now})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
