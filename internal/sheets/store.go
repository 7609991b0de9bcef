package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"kdo-portal/internal/util"
)

const (
	// A1:Z gives 26 columns: key, updated_at and up to 24 value chunks.
	maxColumns = 26
	headerRows = 1
	// Sheets rejects cells above 50000 characters.
	chunkSize = 45000
)

type rowAPI interface {
	readAll(ctx context.Context, tab string) ([][]interface{}, error)
	appendRow(ctx context.Context, tab string, row []interface{}) error
	updateRow(ctx context.Context, tab string, rowNum int, row []interface{}) error
	clearRow(ctx context.Context, tab string, rowNum int) error
}

// Store keeps one key per row in a single tab:
// key | updated_at | value chunk 1 | value chunk 2 | ...
// The first row is a header written by hand and is skipped.
type Store struct {
	api rowAPI
	tab string
	mu  sync.Mutex
}

func NewStore(c *Client, tab string) *Store {
	return &Store{api: c, tab: tab}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	values, err := s.api.readAll(ctx, s.tab)
	if err != nil {
		return nil, false, fmt.Errorf("sheets read %s: %w", key, err)
	}
	row, _ := find(values, key)
	if row == nil {
		return nil, false, nil
	}
	var b strings.Builder
	for i := 2; i < len(row); i++ {
		b.WriteString(get(row, i))
	}
	return []byte(b.String()), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	chunks := split(string(value))
	if len(chunks) > maxColumns-2 {
		return fmt.Errorf("sheets set %s: value too large (%d bytes)", key, len(value))
	}
	row := []interface{}{key, util.NowISO()}
	for _, c := range chunks {
		row = append(row, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.api.readAll(ctx, s.tab)
	if err != nil {
		return fmt.Errorf("sheets read %s: %w", key, err)
	}
	if _, rowNum := find(values, key); rowNum > 0 {
		if err := s.api.updateRow(ctx, s.tab, rowNum, row); err != nil {
			return fmt.Errorf("sheets update %s: %w", key, err)
		}
		return nil
	}
	if err := s.api.appendRow(ctx, s.tab, row); err != nil {
		return fmt.Errorf("sheets append %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.api.readAll(ctx, s.tab)
	if err != nil {
		return fmt.Errorf("sheets read %s: %w", key, err)
	}
	_, rowNum := find(values, key)
	if rowNum == 0 {
		return nil
	}
	if err := s.api.clearRow(ctx, s.tab, rowNum); err != nil {
		return fmt.Errorf("sheets clear %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

// find returns the row holding key and its 1-indexed sheet row number.
func find(values [][]interface{}, key string) ([]interface{}, int) {
	for i := headerRows; i < len(values); i++ {
		row := values[i]
		if len(row) < 1 {
			continue
		}
		if get(row, 0) == key {
			return row, i + 1
		}
	}
	return nil, 0
}

func split(s string) []string {
	if s == "" {
		return []string{""}
	}
	out := []string{}
	for len(s) > chunkSize {
		out = append(out, s[:chunkSize])
		s = s[chunkSize:]
	}
	return append(out, s)
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}
