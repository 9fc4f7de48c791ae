package handler

import "tramite/internal/calendar/models"

type CheckScheduleResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type ScheduleResponse struct {
	ID       int64  `json:"id"`
	Weekday  int    `json:"weekday"`
	Start    string `json:"start_time"`
	End      string `json:"end_time"`
	IsActive bool   `json:"is_active"`
}

type ReplaceSchedulesResponse struct {
	Message   string             `json:"message"`
	Schedules []ScheduleResponse `json:"schedules"`
}

type HolidayResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func toScheduleResponses(in []models.WorkSchedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(in))
	for _, ws := range in {
		out = append(out, ScheduleResponse{
			ID:       ws.ID,
			Weekday:  int(ws.Weekday),
			Start:    ws.Start.String(),
			End:      ws.End.String(),
			IsActive: ws.IsActive,
		})
	}
	return out
}

func toHolidayResponse(h models.Holiday) HolidayResponse {
	return HolidayResponse{
		ID:          int64(h.ID),
		Date:        h.Date.String(),
		Description: h.Description,
		IsActive:    h.IsActive,
	}
}
