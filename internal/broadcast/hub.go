// Package broadcast implements the per-room fan-out hub: one hub per
// room, created on first connection and torn down when the last socket
// leaves. Events are delivered to every socket live at dequeue time, in
// enqueue order, in at-most-one attempt per socket — a socket that fails a
// send is marked dead and dropped without retry.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// priorityTypes flush immediately rather than joining the batching window.
var priorityTypes = map[string]struct{}{
	"quiz_starting":       {},
	"next_question":       {},
	"show_answer":         {},
	"show_leaderboard":    {},
	"show_podium":         {},
	"sync_state":          {},
	"question_time_sync":  {},
	"participant_kicked":  {},
	"quiz_ended":          {},
	"countdown_start":     {},
	"countdown_tick":      {},
}

// IsPriority reports whether eventType must flush immediately rather than
// being eligible for batching.
func IsPriority(eventType string) bool {
	_, ok := priorityTypes[eventType]
	return ok
}

// Sink is the minimal per-socket write surface the hub depends on; ws.Session
// implements it. A Send error or a closed sink both count as dead.
type Sink interface {
	ID() string
	Send(payload []byte) error
	Closed() bool
}

// Event is one outbound message; Type drives both the batching decision and
// the wire `type` field.
type Event struct {
	Type    string
	Payload any
}

const batchWindow = 10 * time.Millisecond
const sweepInterval = 30 * time.Second

// Hub fans events out to every socket registered in a room.
type Hub struct {
	roomCode string
	log      *slog.Logger

	queue chan Event

	mu      sync.RWMutex
	sockets map[string]Sink

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates and starts a hub for roomCode; the caller must call Close when
// the last socket in the room leaves.
func New(roomCode string, log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		roomCode: roomCode,
		log:      log.With(slog.String("component", "broadcast_hub"), slog.String("room", roomCode)),
		queue:    make(chan Event, 256),
		sockets:  make(map[string]Sink),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.run()
	go h.sweep()
	return h
}

// Register adds a socket to the room's fan-out set.
func (h *Hub) Register(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sockets[s.ID()] = s
}

// Unregister removes a socket, e.g. on disconnect or displacement.
func (h *Hub) Unregister(socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sockets, socketID)
}

// SocketCount reports the number of live sockets, used by admission control
// and teardown decisions.
func (h *Hub) SocketCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sockets)
}

// Enqueue queues an event for delivery; enqueued events after Close are
// discarded.
func (h *Hub) Enqueue(ev Event) {
	select {
	case h.queue <- ev:
	case <-h.ctx.Done():
		h.log.Warn("broadcast_enqueue_after_close", slog.String("type", ev.Type))
	default:
		// Queue full: drop the oldest non-priority risk is unacceptable for
		// priority events, so a full queue on a priority event blocks briefly;
		// for non-priority we drop rather than stall the room.
		if IsPriority(ev.Type) {
			select {
			case h.queue <- ev:
			case <-h.ctx.Done():
			}
			return
		}
		h.log.Warn("broadcast_queue_full_dropped", slog.String("type", ev.Type))
	}
}

// Close stops the hub's worker and sweeper; further Enqueue calls are
// discarded.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	batch := make([]Event, 0, 8)
	var timer *time.Timer

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if len(batch) == 1 {
			h.deliver(batch[0])
		} else {
			h.deliverBatch(batch)
		}
		batch = batch[:0]
	}

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}
		select {
		case <-h.ctx.Done():
			flush()
			return
		case ev := <-h.queue:
			if IsPriority(ev.Type) {
				flush()
				h.deliver(ev)
				continue
			}
			batch = append(batch, ev)
			if timer == nil {
				timer = time.NewTimer(batchWindow)
			}
		case <-timerC:
			flush()
			timer = nil
		}
	}
}

func (h *Hub) deliver(ev Event) {
	payload, err := json.Marshal(wireEnvelope(ev))
	if err != nil {
		h.log.Error("broadcast_marshal_failed", slog.String("type", ev.Type), slog.Any("err", err))
		return
	}
	h.fanOut(payload)
}

func (h *Hub) deliverBatch(batch []Event) {
	messages := make([]any, 0, len(batch))
	for _, ev := range batch {
		messages = append(messages, wireEnvelope(ev))
	}
	payload, err := json.Marshal(map[string]any{"type": "batch", "messages": messages})
	if err != nil {
		h.log.Error("broadcast_batch_marshal_failed", slog.Any("err", err))
		return
	}
	h.fanOut(payload)
}

func wireEnvelope(ev Event) map[string]any {
	out := map[string]any{"type": ev.Type}
	if m, ok := ev.Payload.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	out["data"] = ev.Payload
	return out
}

// fanOut delivers payload to every socket live at this instant; any socket
// whose send fails (or that reports itself closed) is dropped without retry.
func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	targets := make([]Sink, 0, len(h.sockets))
	for _, s := range h.sockets {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	var dead []string
	for _, s := range targets {
		if s.Closed() {
			dead = append(dead, s.ID())
			continue
		}
		if err := s.Send(payload); err != nil {
			h.log.Warn("broadcast_send_failed", slog.String("socket", s.ID()), slog.Any("err", err))
			dead = append(dead, s.ID())
		}
	}
	if len(dead) > 0 {
		h.mu.Lock()
		for _, id := range dead {
			delete(h.sockets, id)
		}
		h.mu.Unlock()
	}
}

// sweep drops sockets whose transport reports closing/closed every 30s, a
// backstop for sockets that never produced a send error.
func (h *Hub) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			for id, s := range h.sockets {
				if s.Closed() {
					delete(h.sockets, id)
				}
			}
			h.mu.Unlock()
		}
	}
}
