package timing

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Antennas is the loop-detector state shown on the race-control monitor.
type Antennas struct {
	S1     bool `json:"s1"`
	S2     bool `json:"s2"`
	Finish bool `json:"finish"`
}

// Monitor simulates antenna health. It only changes state while enabled,
// which mirrors the monitor tab being open.
type Monitor struct {
	mu       sync.Mutex
	rng      *rand.Rand
	enabled  bool
	state    Antennas
	interval time.Duration
	logger   *zap.Logger
}

func NewMonitor(rng *rand.Rand, interval time.Duration, logger *zap.Logger) *Monitor {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{rng: rng, interval: interval, logger: logger, state: Antennas{S1: true, S2: true, Finish: true}}
}

func (m *Monitor) SetEnabled(on bool) {
	m.mu.Lock()
	m.enabled = on
	m.mu.Unlock()
}

func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *Monitor) State() Antennas {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Tick draws a new antenna state if the monitor is enabled.
func (m *Monitor) Tick() Antennas {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return m.state
	}
	m.state = Antennas{
		S1:     m.rng.Float64() > 0.3,
		S2:     m.rng.Float64() > 0.3,
		Finish: m.rng.Float64() > 0.1,
	}
	return m.state
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}
