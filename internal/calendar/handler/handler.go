package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tramite/internal/calendar/models"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/httputil"
	"tramite/pkg/requestcontext"
)

// Service defines the calendar operations the handler needs.
type Service interface {
	Classify(ctx context.Context) (models.Result, error)
	ListSchedules(ctx context.Context) ([]models.WorkSchedule, error)
	ReplaceSchedules(ctx context.Context, schedules []models.WorkSchedule) ([]models.WorkSchedule, error)
	ListHolidays(ctx context.Context) ([]models.Holiday, error)
	CreateHoliday(ctx context.Context, date models.Date, description string) (*models.Holiday, error)
	DeleteHoliday(ctx context.Context, holidayID id.HolidayID) error
}

// Handler wires calendar endpoints to the calendar service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public schedule check.
func (h *Handler) Register(r chi.Router) {
	r.Get("/check-schedule", h.HandleCheckSchedule)
}

// RegisterAdmin mounts calendar maintenance; callers wrap r with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/work-schedules", h.HandleListSchedules)
	r.Put("/work-schedules", h.HandleReplaceSchedules)
	r.Get("/holidays", h.HandleListHolidays)
	r.Post("/holidays", h.HandleCreateHoliday)
	r.Delete("/holidays/{id}", h.HandleDeleteHoliday)
}

// HandleCheckSchedule handles GET /check-schedule.
func (h *Handler) HandleCheckSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.Classify(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "schedule check failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if result == models.NoLaborable {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, NoLaborableMessage))
		return
	}
	msg := "registration enabled"
	if result == models.OutOfSchedule {
		msg = "registration enabled; submissions received now are processed on the next business day"
	}
	httputil.WriteJSON(w, http.StatusOK, CheckScheduleResponse{Message: msg, Status: string(result)})
}

// HandleListSchedules handles GET /work-schedules.
func (h *Handler) HandleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.service.ListSchedules(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScheduleResponses(schedules))
}

// HandleReplaceSchedules handles PUT /work-schedules.
func (h *Handler) HandleReplaceSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReplaceSchedulesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	saved, err := h.service.ReplaceSchedules(ctx, req.parsed)
	if err != nil {
		h.logger.WarnContext(ctx, "replace work schedules failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReplaceSchedulesResponse{
		Message:   "work schedules updated",
		Schedules: toScheduleResponses(saved),
	})
}

// HandleListHolidays handles GET /holidays.
func (h *Handler) HandleListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.service.ListHolidays(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]HolidayResponse, 0, len(holidays))
	for _, hd := range holidays {
		out = append(out, toHolidayResponse(hd))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleCreateHoliday handles POST /holidays.
func (h *Handler) HandleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateHolidayRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	holiday, err := h.service.CreateHoliday(ctx, req.parsedDate, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toHolidayResponse(*holiday))
}

// HandleDeleteHoliday handles DELETE /holidays/{id}.
func (h *Handler) HandleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	holidayID, err := id.ParseHolidayID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteHoliday(r.Context(), holidayID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
