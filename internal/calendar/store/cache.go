package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"tramite/internal/calendar/models"
	id "tramite/pkg/domain"
)

const snapshotKey = "tramite:calendar:snapshot"

// Backend is the store a CachedStore decorates.
type Backend interface {
	Snapshot(ctx context.Context) (models.Calendar, error)
	ListSchedules(ctx context.Context) ([]models.WorkSchedule, error)
	ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) error
	CreateHoliday(ctx context.Context, h *models.Holiday) error
	ListHolidays(ctx context.Context) ([]models.Holiday, error)
	DeleteHoliday(ctx context.Context, holidayID id.HolidayID) error
}

// CachedStore serves Snapshot from Redis and drops the entry on every write.
// Redis failures degrade to the backend.
type CachedStore struct {
	Backend
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(backend Backend, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{Backend: backend, rdb: rdb, ttl: ttl, logger: logger}
}

func (s *CachedStore) Snapshot(ctx context.Context) (models.Calendar, error) {
	raw, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	switch {
	case err == nil:
		var cal models.Calendar
		if jerr := json.Unmarshal(raw, &cal); jerr == nil {
			return cal, nil
		}
		s.logger.WarnContext(ctx, "discarding undecodable calendar cache entry")
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "calendar cache read failed", "error", err)
	}

	cal, err := s.Backend.Snapshot(ctx)
	if err != nil {
		return models.Calendar{}, err
	}
	if body, jerr := json.Marshal(cal); jerr == nil {
		if serr := s.rdb.Set(ctx, snapshotKey, body, s.ttl).Err(); serr != nil {
			s.logger.WarnContext(ctx, "calendar cache write failed", "error", serr)
		}
	}
	return cal, nil
}

func (s *CachedStore) ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) error {
	if err := s.Backend.ReplaceSchedules(ctx, schedules); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	if err := s.Backend.CreateHoliday(ctx, h); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) DeleteHoliday(ctx context.Context, holidayID id.HolidayID) error {
	if err := s.Backend.DeleteHoliday(ctx, holidayID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context) {
	if err := s.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "calendar cache invalidation failed", "error", err)
	}
}
