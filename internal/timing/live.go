package timing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

type TrackSource interface {
	GetTrackStatus(ctx context.Context) models.TrackFlag
}

// Board is one frame of the live timing screen.
type Board struct {
	Rows       []models.TimingRow `json:"rows"`
	Connection string             `json:"connection"`
	Flag       models.TrackFlag   `json:"flag"`
	Events     []Event            `json:"events"`
	UpdatedAt  int64              `json:"updatedAt"`
}

// Live refreshes the board on a fixed interval and fans frames out to
// subscribers. Slow subscribers miss frames rather than block the loop.
type Live struct {
	selector *Selector
	track    TrackSource
	log      *EventLog
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	latest Board
	flag   models.TrackFlag
	subs   map[int]chan Board
	nextID int
}

func NewLive(selector *Selector, track TrackSource, log *EventLog, interval time.Duration, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	if log == nil {
		log = &EventLog{}
	}
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	return &Live{
		selector: selector,
		track:    track,
		log:      log,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		flag:     models.FlagGreen,
		subs:     map[int]chan Board{},
	}
}

func (l *Live) Events() *EventLog { return l.log }

// Refresh builds a new frame, stores it and publishes it.
func (l *Live) Refresh(ctx context.Context) Board {
	flag := l.track.GetTrackStatus(ctx)

	l.mu.Lock()
	changed := flag != l.flag
	l.flag = flag
	l.mu.Unlock()
	if changed {
		l.log.Add(fmt.Sprintf("CAMBIO DE BANDERA: %s", strings.ToUpper(string(flag))), EventFlag)
	}

	rows, status := l.selector.Snapshot(ctx)
	b := Board{
		Rows:       rows,
		Connection: status,
		Flag:       flag,
		Events:     l.log.List(),
		UpdatedAt:  l.now().UnixMilli(),
	}

	l.mu.Lock()
	l.latest = b
	for _, ch := range l.subs {
		select {
		case ch <- b:
		default:
		}
	}
	l.mu.Unlock()
	return b
}

// Latest returns the last published frame, refreshing once if none exists yet.
func (l *Live) Latest(ctx context.Context) Board {
	l.mu.RLock()
	b := l.latest
	l.mu.RUnlock()
	if b.UpdatedAt == 0 {
		return l.Refresh(ctx)
	}
	return b
}

// Subscribe returns a channel of frames and a function that releases it.
func (l *Live) Subscribe() (<-chan Board, func()) {
	ch := make(chan Board, 1)
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

func (l *Live) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("live timing started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("live timing stopped")
			return
		case <-ticker.C:
			l.Refresh(ctx)
		}
	}
}
