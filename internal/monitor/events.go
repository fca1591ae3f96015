package monitor

import (
	"github.com/raysh454/nyxguard/internal/engine"
	"github.com/raysh454/nyxguard/internal/model"
)

type EventType string

const (
	EventResult  EventType = "result"
	EventCleared EventType = "cleared"
	EventAlert   EventType = "alert"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`

	Result *model.DetectionResult `json:"result,omitempty"`
	// Diff is set when Result supersedes an earlier result for the same URL.
	Diff  *engine.ResultDiff `json:"diff,omitempty"`
	Alert *Alert             `json:"alert,omitempty"`
}

type subscriber struct {
	session string
	ch      chan Event
}

// Subscribe returns a channel of events for sessionID, or for every
// session when sessionID is empty, and a function that ends the
// subscription. Slow subscribers miss events rather than block evaluation.
func (m *Monitor) Subscribe(sessionID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = subscriber{session: sessionID, ch: ch}
	m.subsMu.Unlock()

	var cancelled bool
	cancel := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if cancelled {
			return
		}
		cancelled = true
		delete(m.subs, id)
		close(ch)
	}
	return ch, cancel
}

func (m *Monitor) emit(ev Event) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		if sub.session != "" && sub.session != ev.SessionID {
			continue
		}
		// Non-blocking send; drop if buffer is full.
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
