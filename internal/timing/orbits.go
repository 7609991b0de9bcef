package timing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kdo-portal/internal/models"
)

// OrbitsFeed reads the JSON classification exported by an Orbits timing
// server on the local network.
type OrbitsFeed struct {
	IP     string
	client *http.Client
}

func NewOrbitsFeed(ip string, client *http.Client) *OrbitsFeed {
	if client == nil {
		client = &http.Client{Timeout: time.Second}
	}
	return &OrbitsFeed{IP: strings.TrimSpace(ip), client: client}
}

func (f *OrbitsFeed) url() string {
	if strings.HasPrefix(f.IP, "http://") || strings.HasPrefix(f.IP, "https://") {
		return strings.TrimRight(f.IP, "/") + "/results.json"
	}
	return "http://" + f.IP + "/results.json"
}

func (f *OrbitsFeed) Snapshot(ctx context.Context) ([]models.TimingRow, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orbits: unexpected status %d", resp.StatusCode)
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("orbits: decode: %w", err)
	}
	rows := make([]models.TimingRow, 0, len(items))
	for i, it := range items {
		rows = append(rows, mapOrbitsRow(it, i))
	}
	return rows, nil
}

// mapOrbitsRow accepts the field spellings seen across Orbits exports.
func mapOrbitsRow(it map[string]any, idx int) models.TimingRow {
	pos := int(field(it, 0, "Position"))
	if pos == 0 {
		pos = idx + 1
	}
	laps, _ := strconv.Atoi(text(it, "0", "Laps", "LAPS"))
	return models.TimingRow{
		Pos:      pos,
		No:       text(it, "", "No", "Number", "KART"),
		Name:     text(it, "", "Name", "Driver", "PILOT"),
		Laps:     laps,
		LastLap:  text(it, "00.000", "LastLap", "LAST_LAP"),
		BestLap:  text(it, "00.000", "BestLap", "BEST_LAP"),
		S1:       text(it, "00.0", "S1"),
		S2:       text(it, "00.0", "S2"),
		S3:       text(it, "00.0", "S3"),
		Gap:      text(it, "-", "Gap"),
		Interval: text(it, "-", "Interval"),
		Status:   "TRACK",
		Delta:    "steady",
	}
}

func text(it map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		switch v := it[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return def
}

func field(it map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		switch v := it[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return def
}
