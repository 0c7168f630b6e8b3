package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/clock"
	"github.com/nrgchamp/quizhub/internal/store"
)

// Registry owns the set of currently-active room controllers; at most one
// room controller exists per quiz code in the process.
type Registry struct {
	store store.Store
	cache *cache.Cache
	clock clock.Clock
	log   *slog.Logger

	maxSockets int
	acceptRate int

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry(st store.Store, c *cache.Cache, clk clock.Clock, log *slog.Logger, maxSockets, acceptRate int) *Registry {
	return &Registry{
		store:      st,
		cache:      c,
		clock:      clk,
		log:        log.With(slog.String("component", "room_registry")),
		maxSockets: maxSockets,
		acceptRate: acceptRate,
		rooms:      make(map[string]*Room),
	}
}

// GetOrCreate returns the room controller for code, lazily loading the
// quiz's question count and starting a new controller on first use.
func (reg *Registry) GetOrCreate(ctx context.Context, code string) (*Room, error) {
	reg.mu.Lock()
	if r, ok := reg.rooms[code]; ok {
		reg.mu.Unlock()
		return r, nil
	}
	reg.mu.Unlock()

	quiz, err := reg.store.GetQuiz(ctx, code)
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[code]; ok {
		return r, nil
	}
	r := NewRoom(code, quiz.QuestionCount, reg.store, reg.cache, reg.clock, reg.log, reg.maxSockets, reg.acceptRate, reg.drop)
	reg.rooms[code] = r
	reg.log.Info("room_created", slog.String("room", code))
	return r, nil
}

// Get returns an already-active room without creating one.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// Count reports the number of active rooms, used by metrics.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// EndAndTeardown forces a room to ENDED and tears it down immediately, used
// by the admin status-change HTTP path (PATCH .../status?status=ended).
func (reg *Registry) EndAndTeardown(ctx context.Context, code string) {
	r, ok := reg.Get(code)
	if !ok {
		return
	}
	r.Do(ctx, func(ctx context.Context) {
		r.EndQuiz(ctx, "quiz ended by admin")
	})
	r.Teardown()
}

// drop removes a room from the registry once its controller has torn down
// (last socket left).
func (reg *Registry) drop(code string) {
	reg.mu.Lock()
	delete(reg.rooms, code)
	reg.mu.Unlock()
	reg.log.Info("room_torn_down", slog.String("room", code))
}
