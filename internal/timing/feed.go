// Package timing produces the live timing board: a real Orbits feed or a
// simulator behind one interface, plus the race-control helpers around it.
package timing

import (
	"context"
	"sync"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

// Feed returns the current classification.
type Feed interface {
	Snapshot(ctx context.Context) ([]models.TimingRow, error)
}

// Connection states shown next to the board.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusSimulated    = "simulated"
)

// Event kinds in the live ticker.
const (
	EventBest = "best"
	EventInfo = "info"
	EventFlag = "flag"
)

type Event struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Kind string `json:"type"`
}

const eventLogSize = 5

// EventLog keeps the five most recent ticker events, newest first.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *EventLog) Add(text, kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append([]Event{{ID: util.NewID(), Text: text, Kind: kind}}, l.events...)
	if len(l.events) > eventLogSize {
		l.events = l.events[:eventLogSize]
	}
}

func (l *EventLog) List() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
