package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tramite/internal/procedure/models"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/httputil"
	"tramite/pkg/requestcontext"
)

// Service defines the procedure operations the handler needs.
type Service interface {
	CreateArea(ctx context.Context, in models.CreateAreaInput) (*models.Area, error)
	ListAreas(ctx context.Context, agencyID id.AgencyID) ([]models.Area, error)
	SetAreaActive(ctx context.Context, areaID id.AreaID, active bool) (*models.Area, error)

	Register(ctx context.Context, in models.RegisterInput) (*models.RegisterResult, error)
	RegisterVirtual(ctx context.Context, in models.RegisterInput) (*models.RegisterResult, error)
	ListProcedures(ctx context.Context, page models.Page) (models.Paged[models.ProcedureView], error)
	ListVirtualProcedures(ctx context.Context, page models.Page) (models.Paged[models.ProcedureView], error)
	UpdateProcedure(ctx context.Context, procedureID id.ProcedureID, in models.UpdateInput) (*models.Procedure, error)
	Annul(ctx context.Context, procedureID id.ProcedureID, comment string) (*models.Procedure, error)
	ReplaceCopies(ctx context.Context, procedureID id.ProcedureID, areas []id.AreaID) ([]models.Flow, error)

	FlowHistory(ctx context.Context, q models.FlowHistoryQuery) ([]models.FlowView, error)
	Inbox(ctx context.Context, kind models.InboxKind, page models.Page) (models.Paged[models.FlowView], error)
	Dashboard(ctx context.Context) ([]models.DashboardRow, error)

	Receive(ctx context.Context, flowID id.FlowID) (*models.TransitionResult, error)
	Derive(ctx context.Context, flowID id.FlowID, in models.DeriveInput) (*models.TransitionResult, error)
	Finalize(ctx context.Context, flowID id.FlowID) (*models.TransitionResult, error)
	Reject(ctx context.Context, flowID id.FlowID, comment string) (*models.TransitionResult, error)
	Observe(ctx context.Context, flowID id.FlowID, comment string) (*models.TransitionResult, error)
	Resend(ctx context.Context, flowID id.FlowID, in models.ResendInput) (*models.TransitionResult, error)
}

// Handler wires procedure endpoints to the procedure service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the citizen-facing endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/virtual-procedures", h.HandleRegisterVirtual)
	r.Get("/flows", h.HandleFlowHistory)
}

// RegisterAdmin mounts area maintenance; callers wrap r with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/areas", h.HandleCreateArea)
	r.Patch("/areas/{id}", h.HandleSetAreaActive)
}

// Register mounts the desk endpoints; callers wrap r with the caller
// identity and active area middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/areas", h.HandleListAreas)

	r.Post("/procedures", h.HandleRegister)
	r.Get("/procedures", h.HandleListProcedures)
	r.Get("/procedures/virtual", h.HandleListVirtualProcedures)
	r.Put("/procedures/{id}", h.HandleUpdateProcedure)
	r.Post("/procedures/{id}/annul", h.HandleAnnul)
	r.Put("/procedures/{id}/copies", h.HandleReplaceCopies)

	r.Get("/inbox/{kind}", h.HandleInbox)
	r.Get("/dashboard/flows", h.HandleDashboard)

	r.Post("/flows/{id}/receive", h.HandleReceive)
	r.Post("/flows/{id}/derive", h.HandleDerive)
	r.Post("/flows/{id}/finalize", h.HandleFinalize)
	r.Post("/flows/{id}/reject", h.HandleReject)
	r.Post("/flows/{id}/observe", h.HandleObserve)
	r.Post("/flows/{id}/resend", h.HandleResend)
}

// =============================================================================
// Areas
// =============================================================================

// HandleCreateArea handles POST /areas.
func (h *Handler) HandleCreateArea(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateAreaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	area, err := h.service.CreateArea(ctx, models.CreateAreaInput{
		AgencyID: id.AgencyID(req.AgencyID),
		Name:     req.Name,
		Initials: req.Initials,
		Type:     models.AreaType(req.Type),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAreaResponse(area))
}

// HandleListAreas handles GET /areas. agency_id narrows the list.
func (h *Handler) HandleListAreas(w http.ResponseWriter, r *http.Request) {
	var agencyID id.AgencyID
	if raw := r.URL.Query().Get("agency_id"); raw != "" {
		parsed, err := id.ParseAgencyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		agencyID = parsed
	}
	areas, err := h.service.ListAreas(r.Context(), agencyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]AreaResponse, 0, len(areas))
	for i := range areas {
		out = append(out, toAreaResponse(&areas[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleSetAreaActive handles PATCH /areas/{id}.
func (h *Handler) HandleSetAreaActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	areaID, err := id.ParseAreaID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetAreaActiveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	area, err := h.service.SetAreaActive(ctx, areaID, *req.IsActive)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAreaResponse(area))
}

// =============================================================================
// Procedures
// =============================================================================

// HandleRegister handles POST /procedures.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.Register)
}

// HandleRegisterVirtual handles POST /virtual-procedures.
func (h *Handler) HandleRegisterVirtual(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.RegisterVirtual)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, run func(context.Context, models.RegisterInput) (*models.RegisterResult, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, files, ok := httputil.DecodeWithFiles[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := run(ctx, req.toInput(files))
	if err != nil {
		h.logger.WarnContext(ctx, "procedure registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRegisterResponse(result))
}

// HandleListProcedures handles GET /procedures.
func (h *Handler) HandleListProcedures(w http.ResponseWriter, r *http.Request) {
	h.listProcedures(w, r, h.service.ListProcedures)
}

// HandleListVirtualProcedures handles GET /procedures/virtual.
func (h *Handler) HandleListVirtualProcedures(w http.ResponseWriter, r *http.Request) {
	h.listProcedures(w, r, h.service.ListVirtualProcedures)
}

func (h *Handler) listProcedures(w http.ResponseWriter, r *http.Request, list func(context.Context, models.Page) (models.Paged[models.ProcedureView], error)) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := list(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := PagedResponse[ProcedureResponse]{Count: result.Count, Results: make([]ProcedureResponse, 0, len(result.Results))}
	for _, v := range result.Results {
		out.Results = append(out.Results, toProcedureResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleUpdateProcedure handles PUT /procedures/{id}.
func (h *Handler) HandleUpdateProcedure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, files, ok := httputil.DecodeWithFiles[UpdateProcedureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if _, err := h.service.UpdateProcedure(ctx, procedureID, req.toInput(files)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Procedure updated successfully"})
}

// HandleAnnul handles POST /procedures/{id}/annul.
func (h *Handler) HandleAnnul(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AnnulRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if _, err := h.service.Annul(ctx, procedureID, req.Comment); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Procedure annulled successfully"})
}

// HandleReplaceCopies handles PUT /procedures/{id}/copies.
func (h *Handler) HandleReplaceCopies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReplaceCopiesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	copies, err := h.service.ReplaceCopies(ctx, procedureID, areaIDs(req.AreaIDs))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CopiesResponse{
		Message: "Copies updated successfully",
		Copies:  toFlowResponses(copies),
	})
}

// =============================================================================
// Inboxes and history
// =============================================================================

// HandleInbox handles GET /inbox/{kind}.
func (h *Handler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseInboxKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Inbox(r.Context(), kind, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := PagedResponse[FlowResponse]{Count: result.Count, Results: make([]FlowResponse, 0, len(result.Results))}
	for _, v := range result.Results {
		out.Results = append(out.Results, toFlowViewResponse(v, models.AreaDisplay))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleDashboard handles GET /dashboard/flows.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := DashboardResponse{Results: make([]DashboardRowResponse, 0, len(rows))}
	for _, row := range rows {
		out.Results = append(out.Results, DashboardRowResponse{
			Kind:     string(row.Kind),
			Title:    row.Title,
			External: row.External,
			Internal: row.Internal,
			Total:    row.Total,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleFlowHistory handles GET /flows?code=&tracking_code=&origin_type=.
func (h *Handler) HandleFlowHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.FlowHistoryQuery{
		Code:         q.Get("code"),
		TrackingCode: q.Get("tracking_code"),
		OriginType:   models.AreaType(q.Get("origin_type")),
	}
	if query.OriginType != "" && !query.OriginType.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "origin_type must be TE, TI or TV"))
		return
	}
	flows, err := h.service.FlowHistory(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]FlowResponse, 0, len(flows))
	for _, v := range flows {
		out = append(out, toFlowViewResponse(v, models.GlobalDisplay))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// =============================================================================
// Flow transitions
// =============================================================================

// HandleReceive handles POST /flows/{id}/receive.
func (h *Handler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	flowID, ok := h.flowID(w, r)
	if !ok {
		return
	}
	res, err := h.service.Receive(r.Context(), flowID)
	if err != nil {
		h.transitionFailed(r.Context(), "receive", flowID, err)
		httputil.WriteError(w, err)
		return
	}
	resp := ReceiveResponse{Message: "Procedure received successfully"}
	if len(res.Flows) > 0 {
		resp.Sequence = res.Flows[0].Sequence
		resp.Status = string(res.Flows[0].Status)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleDerive handles POST /flows/{id}/derive.
func (h *Handler) HandleDerive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	flowID, ok := h.flowID(w, r)
	if !ok {
		return
	}
	req, files, ok := httputil.DecodeWithFiles[DeriveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Derive(ctx, flowID, req.toInput(files))
	if err != nil {
		h.transitionFailed(ctx, "derive", flowID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DeriveResponse{
		Message: "Procedure derived successfully",
		Flows:   toFlowResponses(res.Flows),
	})
}

// HandleFinalize handles POST /flows/{id}/finalize.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	flowID, ok := h.flowID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Finalize(r.Context(), flowID); err != nil {
		h.transitionFailed(r.Context(), "finalize", flowID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Procedure finalized successfully"})
}

// HandleReject handles POST /flows/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.comment(w, r, "reject", h.service.Reject, "Procedure rejected successfully")
}

// HandleObserve handles POST /flows/{id}/observe.
func (h *Handler) HandleObserve(w http.ResponseWriter, r *http.Request) {
	h.comment(w, r, "observe", h.service.Observe, "Procedure observed successfully")
}

func (h *Handler) comment(w http.ResponseWriter, r *http.Request, op string, run func(context.Context, id.FlowID, string) (*models.TransitionResult, error), message string) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	flowID, ok := h.flowID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CommentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if _, err := run(ctx, flowID, req.Comment); err != nil {
		h.transitionFailed(ctx, op, flowID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// HandleResend handles POST /flows/{id}/resend.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	flowID, ok := h.flowID(w, r)
	if !ok {
		return
	}
	req, files, ok := httputil.DecodeWithFiles[ResendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if _, err := h.service.Resend(ctx, flowID, req.toInput(files)); err != nil {
		h.transitionFailed(ctx, "resend", flowID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Procedure resent successfully"})
}

func (h *Handler) flowID(w http.ResponseWriter, r *http.Request) (id.FlowID, bool) {
	flowID, err := id.ParseFlowID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return flowID, true
}

func (h *Handler) transitionFailed(ctx context.Context, op string, flowID id.FlowID, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "flow transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"flow_id", flowID,
			"error", err,
		)
	}
}

// parsePage reads page and page_size, defaulting both.
func parsePage(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	number, err := queryInt(q.Get("page"), "page")
	if err != nil {
		return models.Page{}, err
	}
	size, err := queryInt(q.Get("page_size"), "page_size")
	if err != nil {
		return models.Page{}, err
	}
	return models.NormalizePage(number, size), nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a positive integer")
	}
	return v, nil
}
