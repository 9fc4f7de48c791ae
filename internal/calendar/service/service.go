// Package service exposes the schedule oracle and calendar maintenance.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	calmetrics "tramite/internal/calendar/metrics"
	"tramite/internal/calendar/models"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/sentinel"
	"tramite/pkg/requestcontext"
)

type Store interface {
	Snapshot(ctx context.Context) (models.Calendar, error)
	ListSchedules(ctx context.Context) ([]models.WorkSchedule, error)
	ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) error
	CreateHoliday(ctx context.Context, h *models.Holiday) error
	ListHolidays(ctx context.Context) ([]models.Holiday, error)
	DeleteHoliday(ctx context.Context, holidayID id.HolidayID) error
}

// Service classifies instants against the configured calendar.
type Service struct {
	store    Store
	location *time.Location
	logger   *slog.Logger
	metrics  *calmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *calmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service that localizes instants to loc.
func New(store Store, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{store: store, location: loc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify evaluates the request-scoped now.
func (s *Service) Classify(ctx context.Context) (models.Result, error) {
	return s.ClassifyAt(ctx, requestcontext.Now(ctx))
}

// ClassifyAt evaluates at. It has no side effects beyond metrics.
func (s *Service) ClassifyAt(ctx context.Context, at time.Time) (models.Result, error) {
	cal, err := s.store.Snapshot(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load calendar")
	}
	result := cal.Classify(at.In(s.location))
	s.metrics.IncrementClassification(result)
	return result, nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]models.WorkSchedule, error) {
	out, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list work schedules")
	}
	return out, nil
}

// ReplaceSchedules validates the full set and swaps it in atomically.
func (s *Service) ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) ([]models.WorkSchedule, error) {
	if err := models.ValidateSchedules(schedules); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceSchedules(ctx, schedules); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "work schedules changed concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to replace work schedules")
	}
	s.logger.InfoContext(ctx, "work schedules replaced",
		"request_id", requestcontext.RequestID(ctx),
		"count", len(schedules),
	)
	return schedules, nil
}

func (s *Service) CreateHoliday(ctx context.Context, date models.Date, description string) (*models.Holiday, error) {
	if date.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date is required")
	}
	h := &models.Holiday{Date: date, Description: strings.TrimSpace(description), IsActive: true}
	if err := s.store.CreateHoliday(ctx, h); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a holiday already exists for that date")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create holiday")
	}
	return h, nil
}

func (s *Service) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	out, err := s.store.ListHolidays(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list holidays")
	}
	return out, nil
}

func (s *Service) DeleteHoliday(ctx context.Context, holidayID id.HolidayID) error {
	if err := s.store.DeleteHoliday(ctx, holidayID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "holiday not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete holiday")
	}
	return nil
}
