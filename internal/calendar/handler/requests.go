package handler

import (
	"tramite/internal/calendar/models"
	dErrors "tramite/pkg/domain-errors"
)

// NoLaborableMessage is returned when registration is closed for the day.
const NoLaborableMessage = "procedure registration is not available on Sundays or holidays"

// ScheduleItem is one weekday window in a replace request.
type ScheduleItem struct {
	Weekday  *int   `json:"weekday" validate:"required,min=0,max=6"`
	Start    string `json:"start_time" validate:"required"`
	End      string `json:"end_time" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// ReplaceSchedulesRequest is the body for PUT /work-schedules.
type ReplaceSchedulesRequest struct {
	Schedules []ScheduleItem `json:"schedules" validate:"dive"`

	parsed []models.WorkSchedule
}

// Validate parses times; set-level rules run in the service.
func (r *ReplaceSchedulesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Schedules) > 7 {
		return dErrors.New(dErrors.CodeValidation, "at most 7 schedules are allowed")
	}
	r.parsed = make([]models.WorkSchedule, 0, len(r.Schedules))
	for _, item := range r.Schedules {
		start, err := models.ParseTimeOfDay(item.Start)
		if err != nil {
			return err
		}
		end, err := models.ParseTimeOfDay(item.End)
		if err != nil {
			return err
		}
		active := true
		if item.IsActive != nil {
			active = *item.IsActive
		}
		r.parsed = append(r.parsed, models.WorkSchedule{
			Weekday:  models.Weekday(*item.Weekday),
			Start:    start,
			End:      end,
			IsActive: active,
		})
	}
	return nil
}

// CreateHolidayRequest is the body for POST /holidays.
type CreateHolidayRequest struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"max=200"`

	parsedDate models.Date
}

func (r *CreateHolidayRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	d, err := models.ParseDate(r.Date)
	if err != nil {
		return err
	}
	r.parsedDate = d
	return nil
}
