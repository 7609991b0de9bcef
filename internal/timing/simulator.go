package timing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"

	"kdo-portal/internal/models"
)

// sessionRecord is the reference lap a new best must beat to count as a
// session best.
const sessionRecord = 47.9

func seedRows() []models.TimingRow {
	return []models.TimingRow{
		{Pos: 1, No: "01", Name: "JUAN ACOSTA", Laps: 10, LastLap: "47.902", BestLap: "47.902", S1: "12.1", S2: "18.3", S3: "17.5", Gap: "-", Interval: "-", Status: "TRACK", IsSessionBest: true, IsPersonalBest: true, Predictive: "47.8", Delta: "down", TransponderSignal: "Good"},
		{Pos: 2, No: "12", Name: "MARTIN GARCIA", Laps: 10, LastLap: "48.210", BestLap: "48.210", S1: "12.3", S2: "18.5", S3: "17.4", Gap: "+0.308", Interval: "+0.308", Status: "TRACK", IsPersonalBest: true, Predictive: "48.1", Delta: "up", TransponderSignal: "Good"},
		{Pos: 3, No: "08", Name: "FRANCISCO PEROYE", Laps: 9, LastLap: "48.550", BestLap: "48.300", S1: "12.4", S2: "18.6", S3: "17.6", Gap: "+0.648", Interval: "+0.340", Status: "TRACK", Predictive: "48.5", Delta: "steady", TransponderSignal: "Good"},
	}
}

// Simulator fabricates a plausible session. Each snapshot advances it one
// step: roughly one kart in seven completes a lap, the rest refresh their
// predictive time and first sector.
type Simulator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	rows []models.TimingRow
	log  *EventLog
}

// NewSimulator accepts a nil log when ticker events are not wanted.
func NewSimulator(rng *rand.Rand, log *EventLog) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{rng: rng, log: log}
}

func (s *Simulator) Snapshot(context.Context) ([]models.TimingRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
	out := make([]models.TimingRow, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *Simulator) step() {
	if len(s.rows) == 0 {
		s.rows = seedRows()
		return
	}
	for i := range s.rows {
		row := &s.rows[i]
		if row.Status == "PITS" {
			continue
		}
		best := lapSeconds(row.BestLap)
		if s.rng.Float64() > 0.85 {
			lap := best + (s.rng.Float64()-0.45)*0.4
			lapText := strconv.FormatFloat(lap, 'f', 3, 64)
			better := lapSeconds(lapText) < best
			row.Laps++
			row.LastLap = lapText
			row.IsPersonalBest = better
			row.IsSessionBest = better && lapSeconds(lapText) < sessionRecord
			if better {
				row.BestLap = lapText
				row.Delta = "down"
				if s.log != nil {
					first := strings.Fields(row.Name)
					name := row.Name
					if len(first) > 0 {
						name = first[0]
					}
					s.log.Add(fmt.Sprintf("KART #%s %s - PB: %s", row.No, name, lapText), EventBest)
				}
			} else {
				row.Delta = "up"
			}
			continue
		}
		row.Predictive = strconv.FormatFloat(best+(s.rng.Float64()-0.5)*0.1, 'f', 3, 64)
		row.S1 = strconv.FormatFloat(12+s.rng.Float64()*0.5, 'f', 1, 64)
	}
	sortBoard(s.rows)
}

// sortBoard orders by laps completed, then best lap, and renumbers.
func sortBoard(rows []models.TimingRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Laps != rows[j].Laps {
			return rows[i].Laps > rows[j].Laps
		}
		return lapSeconds(rows[i].BestLap) < lapSeconds(rows[j].BestLap)
	})
	for i := range rows {
		rows[i].Pos = i + 1
	}
}

func lapSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 999
	}
	return v
}
