package controller

import (
	"context"

	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/models"
)

// loadQuiz consults the cache's quiz:{code} key, falling through to the
// store on a miss.
func (r *Room) loadQuiz(ctx context.Context) (models.Quiz, error) {
	return cache.GetOrLoad(ctx, r.cache, cache.QuizKey(r.Code), cache.TTLQuiz, func(ctx context.Context) (models.Quiz, error) {
		return r.store.GetQuiz(ctx, r.Code)
	})
}

// loadQuestions consults the cache's questions:{code} key; indexed order is
// authoritative.
func (r *Room) loadQuestions(ctx context.Context) ([]models.Question, error) {
	return cache.GetOrLoad(ctx, r.cache, cache.QuestionsKey(r.Code), cache.TTLQuestions, func(ctx context.Context) ([]models.Question, error) {
		return r.store.GetQuestions(ctx, r.Code)
	})
}

// sanitizedQuestionAt returns the wire-safe payload for question index, or
// nil if out of range.
func sanitizedQuestionAt(questions []models.Question, index int) any {
	for _, q := range questions {
		if q.Index == index {
			return q.Sanitize()
		}
	}
	return nil
}

func questionAt(questions []models.Question, index int) (models.Question, bool) {
	for _, q := range questions {
		if q.Index == index {
			return q, true
		}
	}
	return models.Question{}, false
}
