package store

import (
	"context"
	"database/sql"
	"fmt"

	"tramite/internal/calendar/models"
	"tramite/internal/platform/postgres"
	id "tramite/pkg/domain"
	"tramite/pkg/platform/sentinel"
	"tramite/pkg/platform/tx"
)

// PostgresStore persists the calendar in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Snapshot(ctx context.Context) (models.Calendar, error) {
	schedules, err := s.ListSchedules(ctx)
	if err != nil {
		return models.Calendar{}, err
	}
	holidays, err := s.listHolidays(ctx, true)
	if err != nil {
		return models.Calendar{}, err
	}
	return models.Calendar{Schedules: schedules, Holidays: holidays}, nil
}

func (s *PostgresStore) ListSchedules(ctx context.Context) ([]models.WorkSchedule, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT id, weekday, start_time::text, end_time::text, is_active
		FROM work_schedules
		ORDER BY weekday
	`)
	if err != nil {
		return nil, fmt.Errorf("list work schedules: %w", err)
	}
	defer rows.Close()

	var out []models.WorkSchedule
	for rows.Next() {
		var (
			ws         models.WorkSchedule
			start, end string
		)
		if err := rows.Scan(&ws.ID, &ws.Weekday, &start, &end, &ws.IsActive); err != nil {
			return nil, fmt.Errorf("scan work schedule: %w", err)
		}
		if ws.Start, err = models.ParseTimeOfDay(start); err != nil {
			return nil, fmt.Errorf("parse start_time: %w", err)
		}
		if ws.End, err = models.ParseTimeOfDay(end); err != nil {
			return nil, fmt.Errorf("parse end_time: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// ReplaceSchedules deletes every row and inserts the new set in one transaction.
func (s *PostgresStore) ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) error {
	return tx.Run(ctx, s.db, nil, func(ctx context.Context) error {
		exec := tx.Pick(ctx, s.db)
		if _, err := exec.ExecContext(ctx, `DELETE FROM work_schedules`); err != nil {
			return fmt.Errorf("clear work schedules: %w", err)
		}
		for i := range schedules {
			ws := &schedules[i]
			err := exec.QueryRowContext(ctx, `
				INSERT INTO work_schedules (weekday, start_time, end_time, is_active)
				VALUES ($1, $2::time, $3::time, $4)
				RETURNING id
			`, int(ws.Weekday), ws.Start.String(), ws.End.String(), ws.IsActive).Scan(&ws.ID)
			if err != nil {
				return postgres.Translate(err, "insert work schedule")
			}
		}
		return nil
	})
}

func (s *PostgresStore) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO holidays (date, description, is_active)
		VALUES ($1::date, $2, $3)
		RETURNING id
	`, h.Date.String(), h.Description, h.IsActive).Scan(&h.ID)
	if err != nil {
		return postgres.Translate(err, "insert holiday")
	}
	return nil
}

func (s *PostgresStore) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	return s.listHolidays(ctx, false)
}

func (s *PostgresStore) listHolidays(ctx context.Context, activeOnly bool) ([]models.Holiday, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT id, date::text, description, is_active
		FROM holidays
		WHERE is_active OR NOT $1
		ORDER BY date, id
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []models.Holiday
	for rows.Next() {
		var (
			h    models.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &date, &h.Description, &h.IsActive); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		if h.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse holiday date: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteHoliday(ctx context.Context, holidayID id.HolidayID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, int64(holidayID))
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete holiday rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
