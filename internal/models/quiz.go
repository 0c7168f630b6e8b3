// Package models defines the durable and ephemeral data types of the quiz
// room runtime, including the tagged variants used instead of
// stringly-typed or interface{} fields.
package models

import (
	"crypto/rand"
	"time"
)

// QuizStatus is the lifecycle status of a durable quiz document.
type QuizStatus string

const (
	QuizActive   QuizStatus = "active"
	QuizInactive QuizStatus = "inactive"
	QuizEnded    QuizStatus = "ended"
)

// codeAlphabet excludes visually ambiguous glyphs (O, 0, I, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Quiz is the durable quiz document. Immutable after creation except
// Status, ParticipantCount and LastPlayedAt.
type Quiz struct {
	Code             string
	Title            string
	Description      string
	DurationSeconds  int
	Status           QuizStatus
	CreatedAt        time.Time
	QuestionCount    int
	ParticipantCount int
	AttemptCap       int
	Shuffle          bool // advisory only — never reorders the wire payload
	ShowCorrect      bool
	StartAt          *time.Time
	EndAt            *time.Time
	LastPlayedAt     *time.Time
}

// NewCode draws a random 6-character code from the unambiguous alphabet.
func NewCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return string(out), nil
}
