package handler

import (
	"time"

	"tramite/internal/procedure/models"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type AreaResponse struct {
	ID       int64  `json:"id"`
	AgencyID int64  `json:"agency_id,omitempty"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Initials string `json:"initials,omitempty"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// AreaRef is the compact area embedded in procedures and flows.
type AreaRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

type RegisteredProcedure struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	ToAreaID     int64  `json:"to_area_id"`
	TrackingCode string `json:"tracking_code,omitempty"`
}

type RegisterResponse struct {
	Message    string                `json:"message"`
	Status     string                `json:"status"`
	Code       string                `json:"code"`
	Procedures []RegisteredProcedure `json:"procedures"`
}

type FileResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

type ProcedureResponse struct {
	ID                   int64          `json:"id"`
	Code                 string         `json:"code"`
	TrackingCode         string         `json:"tracking_code,omitempty"`
	DocumentTypeID       int64          `json:"document_type_id,omitempty"`
	DocumentNumber       string         `json:"document_number"`
	Folios               int            `json:"folios"`
	Subject              string         `json:"subject"`
	SenderDNI            string         `json:"sender_dni"`
	SenderName           string         `json:"sender_name"`
	SenderRepresentative string         `json:"sender_representative,omitempty"`
	SenderAddress        string         `json:"sender_address,omitempty"`
	SenderPhone          string         `json:"sender_phone,omitempty"`
	SenderEmail          string         `json:"sender_email,omitempty"`
	FromArea             *AreaRef       `json:"from_area"`
	ToArea               *AreaRef       `json:"to_area"`
	IsVirtual            bool           `json:"is_virtual"`
	IsAnnulled           bool           `json:"is_annulled"`
	AnnulledAt           *time.Time     `json:"annulled_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	Copies               []FlowResponse `json:"copies,omitempty"`
	Files                []FileResponse `json:"files,omitempty"`
}

type FlowResponse struct {
	ID                        int64          `json:"id"`
	ProcedureID               int64          `json:"procedure_id"`
	Code                      string         `json:"code,omitempty"`
	TrackingCode              string         `json:"tracking_code,omitempty"`
	FlowType                  string         `json:"flow_type"`
	Status                    string         `json:"status"`
	DisplayStatus             models.Display `json:"display_status"`
	FromAreaID                int64          `json:"from_area_id"`
	ToAreaID                  int64          `json:"to_area_id"`
	FromArea                  *AreaRef       `json:"from_area,omitempty"`
	ToArea                    *AreaRef       `json:"to_area,omitempty"`
	Sequence                  int            `json:"sequence"`
	IsActive                  bool           `json:"is_active"`
	IsToFinalize              bool           `json:"is_to_finalize"`
	IsToObserved              bool           `json:"is_to_observed"`
	IsDerive                  bool           `json:"is_derive"`
	OriginOptions             []string       `json:"origin_options"`
	Subject                   string         `json:"subject"`
	SubjectDerive             string         `json:"subject_derive,omitempty"`
	Comment                   string         `json:"comment,omitempty"`
	SenderName                string         `json:"sender_name,omitempty"`
	RegisteredOutOfScheduleAt *time.Time     `json:"registered_out_of_schedule_at,omitempty"`
	SentAt                    *time.Time     `json:"sent_at,omitempty"`
	CreatedAt                 time.Time      `json:"created_at"`
}

type ReceiveResponse struct {
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Status   string `json:"status"`
}

type DeriveResponse struct {
	Message string         `json:"message"`
	Flows   []FlowResponse `json:"flows"`
}

type CopiesResponse struct {
	Message string         `json:"message"`
	Copies  []FlowResponse `json:"copies"`
}

type PagedResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type DashboardRowResponse struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	External int    `json:"external"`
	Internal int    `json:"internal"`
	Total    int    `json:"total"`
}

type DashboardResponse struct {
	Results []DashboardRowResponse `json:"results"`
}

func toAreaResponse(a *models.Area) AreaResponse {
	return AreaResponse{
		ID:       int64(a.ID),
		AgencyID: int64(a.AgencyID),
		Name:     a.Name,
		Code:     a.Code,
		Initials: a.Initials,
		Type:     string(a.Type),
		IsActive: a.IsActive,
	}
}

func toAreaRef(a *models.Area) *AreaRef {
	if a == nil {
		return nil
	}
	return &AreaRef{ID: int64(a.ID), Name: a.Name, Code: a.Code, Type: string(a.Type)}
}

func toRegisterResponse(r *models.RegisterResult) RegisterResponse {
	resp := RegisterResponse{Message: r.Message, Status: string(r.Status)}
	for _, p := range r.Procedures {
		resp.Procedures = append(resp.Procedures, RegisteredProcedure{
			ID:           int64(p.ID),
			Code:         p.Code,
			ToAreaID:     int64(p.ToAreaID),
			TrackingCode: p.TrackingCode,
		})
	}
	if len(r.Procedures) > 0 {
		resp.Code = r.Procedures[0].Code
		if tc := r.TrackingCode(); tc != "" {
			resp.Code = tc
		}
	}
	return resp
}

func toProcedureResponse(v models.ProcedureView) ProcedureResponse {
	p := v.Procedure
	resp := ProcedureResponse{
		ID:                   int64(p.ID),
		Code:                 p.Code,
		TrackingCode:         p.TrackingCode,
		DocumentTypeID:       int64(p.DocumentTypeID),
		DocumentNumber:       p.DocumentNumber,
		Folios:               p.Folios,
		Subject:              p.Subject,
		SenderDNI:            p.Sender.DNI,
		SenderName:           p.Sender.Name,
		SenderRepresentative: p.Sender.Representative,
		SenderAddress:        p.Sender.Address,
		SenderPhone:          p.Sender.Phone,
		SenderEmail:          p.Sender.Email,
		FromArea:             toAreaRef(v.FromArea),
		ToArea:               toAreaRef(v.ToArea),
		IsVirtual:            p.IsVirtual,
		IsAnnulled:           p.IsAnnulled,
		AnnulledAt:           p.AnnulledAt,
		CreatedAt:            p.CreatedAt,
	}
	for i := range v.Copies {
		resp.Copies = append(resp.Copies, toFlowResponse(&v.Copies[i], models.AreaDisplay))
	}
	for _, f := range v.Files {
		resp.Files = append(resp.Files, FileResponse{
			ID:          int64(f.ID),
			Name:        f.Name,
			URL:         f.URL,
			ContentType: f.ContentType,
			Size:        f.Size,
		})
	}
	return resp
}

func toFlowResponse(f *models.Flow, display func(*models.Flow) models.Display) FlowResponse {
	options := f.OriginOptions
	if options == nil {
		options = []string{}
	}
	return FlowResponse{
		ID:                        int64(f.ID),
		ProcedureID:               int64(f.ProcedureID),
		FlowType:                  string(f.Type),
		Status:                    string(f.Status),
		DisplayStatus:             display(f),
		FromAreaID:                int64(f.FromAreaID),
		ToAreaID:                  int64(f.ToAreaID),
		Sequence:                  f.Sequence,
		IsActive:                  f.IsActive,
		IsToFinalize:              f.IsToFinalize,
		IsToObserved:              f.IsToObserved,
		IsDerive:                  f.IsDerive,
		OriginOptions:             options,
		Subject:                   f.Subject,
		SubjectDerive:             f.SubjectDerive,
		Comment:                   f.Comment,
		RegisteredOutOfScheduleAt: f.RegisteredOutOfScheduleAt,
		SentAt:                    f.SentAt,
		CreatedAt:                 f.CreatedAt,
	}
}

func toFlowViewResponse(v models.FlowView, display func(*models.Flow) models.Display) FlowResponse {
	resp := toFlowResponse(&v.Flow, display)
	resp.Code = v.Procedure.Code
	resp.TrackingCode = v.Procedure.TrackingCode
	resp.SenderName = v.Procedure.Sender.Name
	resp.FromArea = toAreaRef(v.FromArea)
	resp.ToArea = toAreaRef(v.ToArea)
	return resp
}

func toFlowResponses(flows []models.Flow) []FlowResponse {
	out := make([]FlowResponse, 0, len(flows))
	for i := range flows {
		out = append(out, toFlowResponse(&flows[i], models.AreaDisplay))
	}
	return out
}
