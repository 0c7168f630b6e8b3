package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	id     string
	mu     sync.Mutex
	sent   [][]byte
	closed bool
	failOn int // fail the Nth send (1-based); 0 never fails
	count  int
}

func (f *fakeSink) ID() string { return f.id }

func (f *fakeSink) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.failOn != 0 && f.count == f.failOn {
		return assertErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeSink) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSink) snapshot() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

var assertErr = &sinkError{"send failed"}

type sinkError struct{ msg string }

func (e *sinkError) Error() string { return e.msg }

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestPriorityEventFlushesImmediately(t *testing.T) {
	h := New("ROOM1", testLogger())
	defer h.Close()

	sink := &fakeSink{id: "s1"}
	h.Register(sink)

	h.Enqueue(Event{Type: "quiz_starting", Payload: map[string]any{"question_number": 1}})

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(sink.snapshot()[0], &decoded))
	assert.Equal(t, "quiz_starting", decoded["type"])
}

func TestNonPriorityEventsBatch(t *testing.T) {
	h := New("ROOM2", testLogger())
	defer h.Close()

	sink := &fakeSink{id: "s1"}
	h.Register(sink)

	h.Enqueue(Event{Type: "reaction", Payload: map[string]any{"emoji": "👍"}})
	h.Enqueue(Event{Type: "reaction", Payload: map[string]any{"emoji": "🔥"}})

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(sink.snapshot()[0], &decoded))
	assert.Equal(t, "batch", decoded["type"])
	msgs, ok := decoded["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestDeadSocketDroppedAfterSendFailure(t *testing.T) {
	h := New("ROOM3", testLogger())
	defer h.Close()

	sink := &fakeSink{id: "s1", failOn: 1}
	h.Register(sink)
	require.Equal(t, 1, h.SocketCount())

	h.Enqueue(Event{Type: "quiz_ended", Payload: map[string]any{"message": "done"}})

	require.Eventually(t, func() bool { return h.SocketCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClosedSocketDroppedOnFanOut(t *testing.T) {
	h := New("ROOM4", testLogger())
	defer h.Close()

	sink := &fakeSink{id: "s1", closed: true}
	h.Register(sink)

	h.Enqueue(Event{Type: "show_podium", Payload: map[string]any{}})

	require.Eventually(t, func() bool { return h.SocketCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Len(t, sink.snapshot(), 0)
}

func TestUnregisterRemovesSocket(t *testing.T) {
	h := New("ROOM5", testLogger())
	defer h.Close()

	sink := &fakeSink{id: "s1"}
	h.Register(sink)
	require.Equal(t, 1, h.SocketCount())

	h.Unregister("s1")
	assert.Equal(t, 0, h.SocketCount())
}

func TestIsPriority(t *testing.T) {
	assert.True(t, IsPriority("next_question"))
	assert.False(t, IsPriority("reaction"))
}
