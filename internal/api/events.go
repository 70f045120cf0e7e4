package api

import (
	"sync"
	"time"

	"github.com/nerrad567/temptick-core/internal/scalar"
)

// eventLogSize is the number of recent events kept for GET /events.
const eventLogSize = 64

// Event is one event produced by the device.
type Event struct {
	Time  string `json:"time"`
	Code  string `json:"code"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// eventLog is a fixed-size ring of recent events. It is written by the tick
// loop and read by handlers.
type eventLog struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
}

func newEventLog(size int) *eventLog {
	return &eventLog{buf: make([]Event, size)}
}

func (l *eventLog) add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// recent returns up to limit events, oldest first. limit <= 0 returns all.
func (l *eventLog) recent(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	start := l.next - n
	if start < 0 {
		start += len(l.buf)
	}
	for i := range n {
		out[i] = l.buf[(start+i)%len(l.buf)]
	}
	return out
}

// recordEvent is the system event tap. It runs on the tick loop.
func (s *Server) recordEvent(code string, v scalar.Value) {
	e := Event{
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
		Code:  code,
		Kind:  v.Kind().String(),
		Value: v.Format(),
	}
	s.events.add(e)
	s.hub.Broadcast(code, e)
}
