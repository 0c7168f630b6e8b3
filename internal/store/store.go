// Package store defines the persistent document store interface the core
// consumes and a concrete append-safe JSON-backed implementation. This is
// a collaborator interface, not the system's central concern — the core
// only ever talks to the Store interface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nrgchamp/quizhub/internal/models"
)

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")

// Store is every durable operation the room runtime and the admin CRUD
// surface need. Four collections back it: quizzes, questions,
// participants, administrators.
type Store interface {
	// Quizzes
	CreateQuiz(ctx context.Context, q models.Quiz) error
	GetQuiz(ctx context.Context, code string) (models.Quiz, error)
	ListQuizzes(ctx context.Context, statusFilter string, limit, skip int) ([]models.Quiz, error)
	SetQuizStatus(ctx context.Context, code string, status models.QuizStatus) error
	TouchLastPlayed(ctx context.Context, code string, at time.Time) error
	IncrementParticipantCount(ctx context.Context, code string, delta int) error
	DeleteQuiz(ctx context.Context, code string) error

	// Questions
	AddQuestions(ctx context.Context, code string, qs []models.Question) error
	GetQuestions(ctx context.Context, code string) ([]models.Question, error)
	DeleteQuestions(ctx context.Context, code string) error

	// Participants
	CreateParticipant(ctx context.Context, p models.Participant) error
	GetParticipant(ctx context.Context, id string) (models.Participant, error)
	ListParticipants(ctx context.Context, quizCode string) ([]models.Participant, error)
	CountAttempts(ctx context.Context, quizCode, displayName string) (int, error)
	AppendAnswer(ctx context.Context, participantID string, rec models.AnswerRecord, totalQuestions int) (models.Participant, error)
	UpdateAvatarSeed(ctx context.Context, participantID, seed string) error
	DeleteParticipant(ctx context.Context, participantID string) error
	Leaderboard(ctx context.Context, quizCode string) ([]models.Participant, error)

	// Administrators
	VerifyAdmin(ctx context.Context, username, passwordSHA256Hex string) (bool, error)
	SeedAdmin(ctx context.Context, username, passwordSHA256Hex string) error
}
