// Package store persists the calendar configuration.
package store

import (
	"context"
	"slices"
	"sync"

	"tramite/internal/calendar/models"
	id "tramite/pkg/domain"
	"tramite/pkg/platform/sentinel"
)

// InMemoryStore keeps the calendar in process memory.
type InMemoryStore struct {
	mu          sync.RWMutex
	schedules   []models.WorkSchedule
	holidays    map[id.HolidayID]models.Holiday
	nextID      int64
	nextHoliday id.HolidayID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{holidays: make(map[id.HolidayID]models.Holiday)}
}

func (s *InMemoryStore) Snapshot(_ context.Context) (models.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cal := models.Calendar{Schedules: slices.Clone(s.schedules)}
	for _, h := range s.holidays {
		if h.IsActive {
			cal.Holidays = append(cal.Holidays, h)
		}
	}
	return cal, nil
}

func (s *InMemoryStore) ListSchedules(_ context.Context) ([]models.WorkSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.schedules)
	slices.SortFunc(out, func(a, b models.WorkSchedule) int { return int(a.Weekday - b.Weekday) })
	return out, nil
}

func (s *InMemoryStore) ReplaceSchedules(_ context.Context, schedules []models.WorkSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = make([]models.WorkSchedule, len(schedules))
	for i, ws := range schedules {
		s.nextID++
		ws.ID = s.nextID
		s.schedules[i] = ws
	}
	return nil
}

func (s *InMemoryStore) CreateHoliday(_ context.Context, h *models.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.holidays {
		if existing.Date == h.Date {
			return sentinel.ErrConflict
		}
	}
	s.nextHoliday++
	h.ID = s.nextHoliday
	s.holidays[h.ID] = *h
	return nil
}

func (s *InMemoryStore) ListHolidays(_ context.Context) ([]models.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Holiday, 0, len(s.holidays))
	for _, h := range s.holidays {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b models.Holiday) int {
		if c := compareDate(a.Date, b.Date); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (s *InMemoryStore) DeleteHoliday(_ context.Context, holidayID id.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[holidayID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.holidays, holidayID)
	return nil
}

func compareDate(a, b models.Date) int {
	switch {
	case a.Year != b.Year:
		return a.Year - b.Year
	case a.Month != b.Month:
		return int(a.Month - b.Month)
	default:
		return a.Day - b.Day
	}
}
