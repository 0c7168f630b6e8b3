package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nrgchamp/quizhub/internal/apierr"
	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/models"
	"github.com/nrgchamp/quizhub/internal/store"
)

type createQuizRequest struct {
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	DurationSeconds int                `json:"durationSeconds"`
	AttemptCap      int                `json:"attemptCap"`
	Shuffle         bool               `json:"shuffle"`
	ShowCorrect     bool               `json:"showCorrectAnswers"`
	Questions       []questionRequest  `json:"questions"`
}

type questionRequest struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer any      `json:"correctAnswer"`
	TimeLimitSecs int      `json:"timeLimit"`
	Points        any      `json:"points"`
	Media         string   `json:"media"`
}

// handleCreateQuiz implements POST /admin/quiz (admin-gated): create quiz,
// returns code.
func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "malformed create-quiz request"))
		return
	}
	if req.Title == "" || len(req.Questions) == 0 {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "title and at least one question are required"))
		return
	}

	ctx := r.Context()
	var code string
	for attempt := 0; attempt < 5; attempt++ {
		c, err := models.NewCode()
		if err != nil {
			apierr.WriteHTTP(w, apierr.Wrap(apierr.KindInternal, "code generation failed", err))
			return
		}
		if _, err := s.store.GetQuiz(ctx, c); err == store.ErrNotFound {
			code = c
			break
		}
	}
	if code == "" {
		apierr.WriteHTTP(w, apierr.New(apierr.KindInternal, "could not allocate a unique quiz code"))
		return
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, qr := range req.Questions {
		points, err := models.ParsePoints(qr.Points)
		if err != nil {
			apierr.WriteHTTP(w, apierr.Wrap(apierr.KindValidation, "invalid points", err))
			return
		}
		correct, err := models.ParseCorrectAnswer(qr.CorrectAnswer, len(qr.Options))
		if err != nil {
			apierr.WriteHTTP(w, apierr.Wrap(apierr.KindValidation, "invalid correctAnswer", err))
			return
		}
		questions = append(questions, models.Question{
			QuizCode:      code,
			Index:         i,
			Prompt:        qr.Prompt,
			Options:       qr.Options,
			CorrectAnswer: correct,
			TimeLimitSecs: qr.TimeLimitSecs,
			Points:        points,
			Media:         qr.Media,
		})
	}

	quiz := models.Quiz{
		Code:            code,
		Title:           req.Title,
		Description:     req.Description,
		DurationSeconds: req.DurationSeconds,
		Status:          models.QuizInactive,
		QuestionCount:   len(questions),
		AttemptCap:      req.AttemptCap,
		Shuffle:         req.Shuffle,
		ShowCorrect:     req.ShowCorrect,
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "create quiz failed", err))
		return
	}
	if err := s.store.AddQuestions(ctx, code, questions); err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "add questions failed", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

// handleListQuizzes implements GET /admin/quizzes (admin-gated): list with
// status filter, limit <= 500, skip >= 0.
func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statusFilter := q.Get("status")
	limit := parseIntDefault(q.Get("limit"), 100)
	if limit > 500 {
		limit = 500
	}
	skip := parseIntDefault(q.Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}

	quizzes, err := s.store.ListQuizzes(r.Context(), statusFilter, limit, skip)
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "list quizzes failed", err))
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

// handleGetQuizAdmin implements GET /admin/quiz/{code} (admin-gated): quiz
// plus questions with correct answers included.
func (s *Server) handleGetQuizAdmin(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	ctx := r.Context()

	quiz, err := s.store.GetQuiz(ctx, code)
	if err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "quiz not found"))
		return
	}
	questions, err := s.store.GetQuestions(ctx, code)
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "load questions failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz, "questions": questions})
}

// handlePatchQuizStatus implements PATCH /admin/quiz/{code}/status (admin-
// gated): also invalidates cache and, on `ended`, tears down the room.
func (s *Server) handlePatchQuizStatus(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	status := models.QuizStatus(r.URL.Query().Get("status"))
	switch status {
	case models.QuizActive, models.QuizInactive, models.QuizEnded:
	default:
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "status must be active, inactive or ended"))
		return
	}

	ctx := r.Context()
	if err := s.store.SetQuizStatus(ctx, code, status); err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "quiz not found"))
		return
	}
	s.cache.Invalidate(ctx, cache.QuizKey(code), cache.QuestionsKey(code), cache.LeaderboardKey(code))

	if status == models.QuizEnded {
		s.registry.EndAndTeardown(ctx, code)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// handleDeleteQuiz implements DELETE /admin/quiz/{code} (admin-gated):
// deletes quiz, questions, participants.
func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	ctx := r.Context()
	if err := s.store.DeleteQuiz(ctx, code); err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindNotFound, "quiz not found"))
		return
	}
	s.cache.Invalidate(ctx, cache.QuizKey(code), cache.QuestionsKey(code), cache.LeaderboardKey(code))
	s.registry.EndAndTeardown(ctx, code)
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// handleAdminLogin implements POST /admin/login: username + password ->
// bearer token (HMAC-SHA256, 24h TTL, claim set {sub, role:"admin", iat, exp}).
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteHTTP(w, apierr.New(apierr.KindValidation, "malformed login request"))
		return
	}

	ok, err := s.store.VerifyAdmin(r.Context(), req.Username, store.SHA256Hex(req.Password))
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindDependency, "verify admin failed", err))
		return
	}
	if !ok {
		apierr.WriteHTTP(w, apierr.New(apierr.KindForbidden, "invalid credentials"))
		return
	}

	token, err := IssueToken([]byte(s.cfg.JWTSecret), req.Username, s.cfg.JWTTTL)
	if err != nil {
		apierr.WriteHTTP(w, apierr.Wrap(apierr.KindInternal, "token issuance failed", err))
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
