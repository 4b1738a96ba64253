package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paycal/internal/core"
	"paycal/internal/sheets"
)

var _ sheets.ScheduleExporter = (*Store)(nil)

// Store keeps exported schedules in memory, keyed by "YYYY-MM".
type Store struct {
	mu      sync.Mutex
	exports map[string][]sheets.ScheduleRow
	count   int
}

func New() *Store {
	return &Store{exports: make(map[string][]sheets.ScheduleRow)}
}

// ExportMonth replaces the stored schedule for (year, month) and returns a synthetic reference.
func (s *Store) ExportMonth(_ context.Context, year int, month time.Month, rows []sheets.ScheduleRow) (string, error) {
	if month < time.January || month > time.December {
		return "", fmt.Errorf("invalid month: %d", month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := core.MonthKey(year, month)
	s.exports[key] = append([]sheets.ScheduleRow(nil), rows...)
	s.count++
	return fmt.Sprintf("mem:%s:%d", key, s.count), nil
}

// Rows returns a copy of the last schedule exported for (year, month).
func (s *Store) Rows(year int, month time.Month) []sheets.ScheduleRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ScheduleRow(nil), s.exports[core.MonthKey(year, month)]...)
}
