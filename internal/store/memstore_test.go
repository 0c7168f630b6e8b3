package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrgchamp/quizhub/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return s
}

func TestCreateQuizRejectsDuplicateCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q := models.Quiz{Code: "ABCDEF", Title: "t", QuestionCount: 1}
	require.NoError(t, s.CreateQuiz(ctx, q))
	assert.ErrorIs(t, s.CreateQuiz(ctx, q), ErrConflict)
}

func TestGetQuizNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetQuiz(context.Background(), "NOPE00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetQuestionsReturnsIndexSorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	qs := []models.Question{
		{QuizCode: "ABC123", Index: 2, Prompt: "c"},
		{QuizCode: "ABC123", Index: 0, Prompt: "a"},
		{QuizCode: "ABC123", Index: 1, Prompt: "b"},
	}
	require.NoError(t, s.AddQuestions(ctx, "ABC123", qs))

	out, err := s.GetQuestions(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Prompt)
	assert.Equal(t, "b", out[1].Prompt)
	assert.Equal(t, "c", out[2].Prompt)
}

func TestAppendAnswerRejectsDuplicateQuestionIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := models.Participant{ID: "p1", QuizCode: "ABC123", DisplayName: "alice", JoinedAt: time.Now()}
	require.NoError(t, s.CreateParticipant(ctx, p))

	rec := models.AnswerRecord{QuestionIndex: 0, Correct: true, Points: 900}
	_, err := s.AppendAnswer(ctx, "p1", rec, 3)
	require.NoError(t, err)

	_, err = s.AppendAnswer(ctx, "p1", rec, 3)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAppendAnswerAccumulatesScoreAndTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := models.Participant{ID: "p1", QuizCode: "ABC123", DisplayName: "alice", JoinedAt: time.Now()}
	require.NoError(t, s.CreateParticipant(ctx, p))

	_, err := s.AppendAnswer(ctx, "p1", models.AnswerRecord{QuestionIndex: 0, Points: 900, TimeTakenSecs: 3.5}, 2)
	require.NoError(t, err)
	got, err := s.AppendAnswer(ctx, "p1", models.AnswerRecord{QuestionIndex: 1, Points: 700, TimeTakenSecs: 4.0}, 2)
	require.NoError(t, err)

	assert.Equal(t, 1600, got.Score)
	assert.InDelta(t, 7.5, got.TotalTime, 0.0001)
	assert.NotNil(t, got.CompletedAt)
}

func TestLeaderboardOrdersByScoreThenTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateParticipant(ctx, models.Participant{ID: "p1", QuizCode: "Q1", Score: 500, TotalTime: 5, JoinedAt: time.Now()}))
	require.NoError(t, s.CreateParticipant(ctx, models.Participant{ID: "p2", QuizCode: "Q1", Score: 900, TotalTime: 9, JoinedAt: time.Now()}))
	require.NoError(t, s.CreateParticipant(ctx, models.Participant{ID: "p3", QuizCode: "Q1", Score: 900, TotalTime: 2, JoinedAt: time.Now()}))

	board, err := s.Leaderboard(ctx, "Q1")
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "p3", board[0].ID) // same score as p2, lower time wins
	assert.Equal(t, "p2", board[1].ID)
	assert.Equal(t, "p1", board[2].ID)
}

func TestDeleteQuizCascadesQuestionsAndParticipants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateQuiz(ctx, models.Quiz{Code: "Q1", Title: "t"}))
	require.NoError(t, s.AddQuestions(ctx, "Q1", []models.Question{{QuizCode: "Q1", Index: 0}}))
	require.NoError(t, s.CreateParticipant(ctx, models.Participant{ID: "p1", QuizCode: "Q1", JoinedAt: time.Now()}))

	require.NoError(t, s.DeleteQuiz(ctx, "Q1"))

	_, err := s.GetQuiz(ctx, "Q1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetQuestions(ctx, "Q1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetParticipant(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyAdminAndSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedAdmin(ctx, "admin", SHA256Hex("secret")))
	require.NoError(t, s.SeedAdmin(ctx, "admin", SHA256Hex("different"))) // no-op: already seeded

	ok, err := s.VerifyAdmin(ctx, "admin", SHA256Hex("secret"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifyAdmin(ctx, "admin", SHA256Hex("wrong"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, s1.CreateQuiz(context.Background(), models.Quiz{Code: "Q1", Title: "t"}))

	s2, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	q, err := s2.GetQuiz(context.Background(), "Q1")
	require.NoError(t, err)
	assert.Equal(t, "t", q.Title)
}
