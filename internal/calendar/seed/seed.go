// Package seed loads an initial calendar from a YAML file.
//
//	schedules:
//	  - weekday: 0        # Monday
//	    start: "08:00"
//	    end: "17:00"
//	holidays:
//	  - date: "2025-12-25"
//	    description: Christmas
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tramite/internal/calendar/models"
)

type File struct {
	Schedules []ScheduleEntry `yaml:"schedules"`
	Holidays  []HolidayEntry  `yaml:"holidays"`
}

type ScheduleEntry struct {
	Weekday int    `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

type HolidayEntry struct {
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}

// Target is the calendar service surface the seed writes through.
type Target interface {
	ListSchedules(ctx context.Context) ([]models.WorkSchedule, error)
	ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) ([]models.WorkSchedule, error)
	ListHolidays(ctx context.Context) ([]models.Holiday, error)
	CreateHoliday(ctx context.Context, date models.Date, description string) (*models.Holiday, error)
}

// Load reads and decodes path.
func Load(path string) (*File, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar seed: %w", err)
	}
	return Parse(body)
}

// Parse decodes a seed document.
func Parse(body []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decode calendar seed: %w", err)
	}
	return &f, nil
}

// WorkSchedules converts the schedule entries.
func (f *File) WorkSchedules() ([]models.WorkSchedule, error) {
	out := make([]models.WorkSchedule, 0, len(f.Schedules))
	for _, e := range f.Schedules {
		start, err := models.ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, err
		}
		end, err := models.ParseTimeOfDay(e.End)
		if err != nil {
			return nil, err
		}
		out = append(out, models.WorkSchedule{Weekday: models.Weekday(e.Weekday), Start: start, End: end, IsActive: true})
	}
	return out, nil
}

// Apply writes the seed without clobbering existing configuration: schedules
// are installed only when none exist, and holidays are added for dates not
// already present.
func (f *File) Apply(ctx context.Context, target Target) error {
	current, err := target.ListSchedules(ctx)
	if err != nil {
		return err
	}
	if len(current) == 0 && len(f.Schedules) > 0 {
		schedules, err := f.WorkSchedules()
		if err != nil {
			return err
		}
		if _, err := target.ReplaceSchedules(ctx, schedules); err != nil {
			return err
		}
	}

	existing, err := target.ListHolidays(ctx)
	if err != nil {
		return err
	}
	known := make(map[models.Date]struct{}, len(existing))
	for _, h := range existing {
		known[h.Date] = struct{}{}
	}
	for _, e := range f.Holidays {
		date, err := models.ParseDate(e.Date)
		if err != nil {
			return err
		}
		if _, ok := known[date]; ok {
			continue
		}
		if _, err := target.CreateHoliday(ctx, date, e.Description); err != nil {
			return err
		}
		known[date] = struct{}{}
	}
	return nil
}
