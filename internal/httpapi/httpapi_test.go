package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/clock"
	"github.com/nrgchamp/quizhub/internal/config"
	"github.com/nrgchamp/quizhub/internal/controller"
	"github.com/nrgchamp/quizhub/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir(), discardLogger())
	require.NoError(t, err)
	c := cache.New(cache.NewLocal(), cache.NewLocal(), discardLogger())
	reg := controller.NewRegistry(st, c, clock.Real{}, discardLogger(), 250, 10)
	cfg := config.Config{JWTSecret: "test-secret", JWTTTL: 24 * time.Hour}
	s := NewServer(cfg, st, c, reg, clock.Real{}, discardLogger(), nil)

	token, err := IssueToken([]byte(cfg.JWTSecret), "admin", cfg.JWTTTL)
	require.NoError(t, err)
	return s, token
}

// TestHandleCreateQuizAcceptsMultiSelectCorrectAnswer exercises the real
// json.Decode path a multi-select question creation request takes: a JSON
// array decoded into a field typed `any` arrives as []interface{}, never
// []int, so this is the path the models.ParseCorrectAnswer "[]int only"
// bug made unreachable.
func TestHandleCreateQuizAcceptsMultiSelectCorrectAnswer(t *testing.T) {
	s, token := newTestServer(t)

	body := []byte(`{
		"title": "geo quiz",
		"questions": [
			{
				"prompt": "pick the even numbers",
				"options": ["1", "2", "3", "4"],
				"correctAnswer": [1, 3],
				"timeLimit": 20,
				"points": "standard"
			}
		]
	}`)

	req := httptest.NewRequest(http.MethodPost, "/admin/quiz", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	code := created["code"]
	require.NotEmpty(t, code)

	getReq := httptest.NewRequest(http.MethodGet, "/admin/quiz/"+code, nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	getRec := httptest.NewRecorder()
	s.Router().ServeHTTP(getRec, getReq)

	require.Equal(t, http.StatusOK, getRec.Code, getRec.Body.String())
	var got struct {
		Questions []struct {
			CorrectAnswer struct {
				Kind  int                  `json:"Kind"`
				Multi map[string]struct{} `json:"Multi"`
			} `json:"CorrectAnswer"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	require.Len(t, got.Questions, 1)
	assert.Contains(t, got.Questions[0].CorrectAnswer.Multi, "1")
	assert.Contains(t, got.Questions[0].CorrectAnswer.Multi, "3")
}

func TestHandleCreateQuizRejectsUnauthenticated(t *testing.T) {
	s, _ := newTestServer(t)

	body := []byte(`{"title": "t", "questions": [{"prompt": "p", "options": ["a","b"], "correctAnswer": 0, "timeLimit": 10, "points": "standard"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/quiz", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateQuizRejectsMalformedBody(t *testing.T) {
	s, token := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/quiz", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleJoinEnforcesAttemptCap creates a single-attempt quiz, lets one
// participant join, then verifies a second join attempt under the same
// display name is rejected as a conflict.
func TestHandleJoinEnforcesAttemptCap(t *testing.T) {
	s, token := newTestServer(t)

	createBody := []byte(`{
		"title": "capped quiz",
		"attemptCap": 1,
		"questions": [{"prompt": "p", "options": ["a","b"], "correctAnswer": 0, "timeLimit": 10, "points": "standard"}]
	}`)
	createReq := httptest.NewRequest(http.MethodPost, "/admin/quiz", bytes.NewReader(createBody))
	createReq.Header.Set("Authorization", "Bearer "+token)
	createRec := httptest.NewRecorder()
	s.Router().ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code, createRec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	code := created["code"]

	statusReq := httptest.NewRequest(http.MethodPatch, "/admin/quiz/"+code+"/status?status=active", nil)
	statusReq.Header.Set("Authorization", "Bearer "+token)
	statusRec := httptest.NewRecorder()
	s.Router().ServeHTTP(statusRec, statusReq)
	require.Equal(t, http.StatusOK, statusRec.Code, statusRec.Body.String())

	joinBody := []byte(`{"quizCode": "` + code + `", "displayName": "alice"}`)

	firstReq := httptest.NewRequest(http.MethodPost, "/join", bytes.NewReader(joinBody))
	firstRec := httptest.NewRecorder()
	s.Router().ServeHTTP(firstRec, firstReq)
	require.Equal(t, http.StatusOK, firstRec.Code, firstRec.Body.String())

	secondReq := httptest.NewRequest(http.MethodPost, "/join", bytes.NewReader(joinBody))
	secondRec := httptest.NewRecorder()
	s.Router().ServeHTTP(secondRec, secondReq)
	assert.Equal(t, http.StatusConflict, secondRec.Code)
}
