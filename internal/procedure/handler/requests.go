package handler

import (
	"strings"

	"tramite/internal/procedure/models"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/httputil"
)

// RegisterRequest is the body for POST /procedures and POST /virtual-procedures.
// Virtual submissions ignore the agency and area fields.
type RegisterRequest struct {
	AgencyID             int64   `json:"agency_id"`
	DocumentTypeID       int64   `json:"document_type_id" validate:"min=0"`
	DocumentNumber       string  `json:"document_number" validate:"max=50"`
	Folios               int     `json:"folios" validate:"min=0,max=100000"`
	Subject              string  `json:"subject" validate:"required,max=2000"`
	SenderDNI            string  `json:"sender_dni" validate:"max=20"`
	SenderName           string  `json:"sender_name" validate:"max=255"`
	SenderRepresentative string  `json:"sender_representative" validate:"max=255"`
	SenderAddress        string  `json:"sender_address" validate:"max=255"`
	SenderPhone          string  `json:"sender_phone" validate:"max=30"`
	SenderEmail          string  `json:"sender_email" validate:"omitempty,email,max=255"`
	FromAreaID           int64   `json:"from_area_id" validate:"min=0"`
	DestinationAreaIDs   []int64 `json:"destination_area_ids" validate:"max=50,dive,min=1"`
	CopyAreaIDs          []int64 `json:"copy_area_ids" validate:"max=50,dive,min=1"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	return nil
}

func (r *RegisterRequest) toInput(files []httputil.FilePart) models.RegisterInput {
	return models.RegisterInput{
		AgencyID:       id.AgencyID(r.AgencyID),
		DocumentTypeID: id.DocumentTypeID(r.DocumentTypeID),
		DocumentNumber: r.DocumentNumber,
		Folios:         r.Folios,
		Subject:        r.Subject,
		Sender: models.Sender{
			DNI:            r.SenderDNI,
			Name:           r.SenderName,
			Representative: r.SenderRepresentative,
			Address:        r.SenderAddress,
			Phone:          r.SenderPhone,
			Email:          r.SenderEmail,
		},
		FromAreaID:         id.AreaID(r.FromAreaID),
		DestinationAreaIDs: areaIDs(r.DestinationAreaIDs),
		CopyAreaIDs:        areaIDs(r.CopyAreaIDs),
		Files:              uploads(files),
	}
}

// UpdateProcedureRequest is the body for PUT /procedures/{id}. Omitted
// fields are left unchanged.
type UpdateProcedureRequest struct {
	DocumentTypeID *int64  `json:"document_type_id" validate:"omitempty,min=0"`
	DocumentNumber *string `json:"document_number" validate:"omitempty,max=50"`
	Folios         *int    `json:"folios" validate:"omitempty,min=0,max=100000"`
	Subject        *string `json:"subject" validate:"omitempty,max=2000"`
	SenderDNI      *string `json:"sender_dni" validate:"omitempty,max=20"`
	SenderName     *string `json:"sender_name" validate:"omitempty,max=255"`
	SenderAddress  *string `json:"sender_address" validate:"omitempty,max=255"`
	SenderPhone    *string `json:"sender_phone" validate:"omitempty,max=30"`
	SenderEmail    *string `json:"sender_email" validate:"omitempty,email,max=255"`
	FromAreaID     *int64  `json:"from_area_id" validate:"omitempty,min=0"`
	ToAreaID       *int64  `json:"to_area_id" validate:"omitempty,min=1"`
	IsVirtual      *bool   `json:"is_virtual"`
	DeletedFiles   []int64 `json:"deleted_files" validate:"max=100,dive,min=1"`
}

func (r *UpdateProcedureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *UpdateProcedureRequest) toInput(files []httputil.FilePart) models.UpdateInput {
	in := models.UpdateInput{
		DocumentNumber: r.DocumentNumber,
		Folios:         r.Folios,
		Subject:        r.Subject,
		SenderDNI:      r.SenderDNI,
		SenderName:     r.SenderName,
		SenderAddress:  r.SenderAddress,
		SenderPhone:    r.SenderPhone,
		SenderEmail:    r.SenderEmail,
		IsVirtual:      r.IsVirtual,
		AddFiles:       uploads(files),
	}
	if r.DocumentTypeID != nil {
		v := id.DocumentTypeID(*r.DocumentTypeID)
		in.DocumentTypeID = &v
	}
	if r.FromAreaID != nil {
		v := id.AreaID(*r.FromAreaID)
		in.FromAreaID = &v
	}
	if r.ToAreaID != nil {
		v := id.AreaID(*r.ToAreaID)
		in.ToAreaID = &v
	}
	for _, fid := range r.DeletedFiles {
		in.DeleteFileIDs = append(in.DeleteFileIDs, id.FileID(fid))
	}
	return in
}

// AnnulRequest is the body for POST /procedures/{id}/annul.
type AnnulRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

func (r *AnnulRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Comment = strings.TrimSpace(r.Comment)
	return nil
}

// ReplaceCopiesRequest is the body for PUT /procedures/{id}/copies.
type ReplaceCopiesRequest struct {
	AreaIDs []int64 `json:"copy_area_ids" validate:"max=50,dive,min=1"`
}

func (r *ReplaceCopiesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// DeriveRequest is the body for POST /flows/{id}/derive.
type DeriveRequest struct {
	DestinationAreaIDs []int64  `json:"destination_area_ids" validate:"required,min=1,max=50,dive,min=1"`
	CopyAreaIDs        []int64  `json:"copy_area_ids" validate:"max=50,dive,min=1"`
	OriginOptions      []string `json:"origin_options" validate:"max=10,dive,max=30"`
	SubjectDerive      string   `json:"subject_derive" validate:"max=2000"`
}

func (r *DeriveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SubjectDerive = strings.TrimSpace(r.SubjectDerive)
	return nil
}

func (r *DeriveRequest) toInput(files []httputil.FilePart) models.DeriveInput {
	return models.DeriveInput{
		DestinationAreaIDs: areaIDs(r.DestinationAreaIDs),
		CopyAreaIDs:        areaIDs(r.CopyAreaIDs),
		OriginOptions:      r.OriginOptions,
		SubjectDerive:      r.SubjectDerive,
		Files:              uploads(files),
	}
}

// CommentRequest is the body for reject and observe. The comment is
// optional and stored blank when absent.
type CommentRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

func (r *CommentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Comment = strings.TrimSpace(r.Comment)
	return nil
}

// ResendRequest is the body for POST /flows/{id}/resend.
type ResendRequest struct {
	DestinationAreaID int64   `json:"destination_area_id" validate:"required,min=1"`
	Subject           string  `json:"subject" validate:"max=2000"`
	SubjectDerive     string  `json:"subject_derive" validate:"max=2000"`
	DocumentTypeID    *int64  `json:"document_type_id" validate:"omitempty,min=0"`
	DocumentNumber    *string `json:"document_number" validate:"omitempty,max=50"`
	Folios            *int    `json:"folios" validate:"omitempty,min=0,max=100000"`
	DeletedFiles      []int64 `json:"deleted_files" validate:"max=100,dive,min=1"`
}

func (r *ResendRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Subject = strings.TrimSpace(r.Subject)
	r.SubjectDerive = strings.TrimSpace(r.SubjectDerive)
	return nil
}

func (r *ResendRequest) toInput(files []httputil.FilePart) models.ResendInput {
	in := models.ResendInput{
		DestinationAreaID: id.AreaID(r.DestinationAreaID),
		Subject:           r.Subject,
		SubjectDerive:     r.SubjectDerive,
		DocumentNumber:    r.DocumentNumber,
		Folios:            r.Folios,
		Files:             uploads(files),
	}
	for _, fid := range r.DeletedFiles {
		in.DeleteFileIDs = append(in.DeleteFileIDs, id.FileID(fid))
	}
	if r.DocumentTypeID != nil {
		v := id.DocumentTypeID(*r.DocumentTypeID)
		in.DocumentTypeID = &v
	}
	return in
}

// CreateAreaRequest is the body for POST /areas.
type CreateAreaRequest struct {
	AgencyID int64  `json:"agency_id" validate:"min=0"`
	Name     string `json:"name" validate:"required,max=255"`
	Initials string `json:"initials" validate:"max=20"`
	Type     string `json:"type" validate:"required,oneof=TE TI TV"`
}

func (r *CreateAreaRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// SetAreaActiveRequest is the body for PATCH /areas/{id}.
type SetAreaActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (r *SetAreaActiveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func areaIDs(in []int64) []id.AreaID {
	if len(in) == 0 {
		return nil
	}
	out := make([]id.AreaID, 0, len(in))
	for _, v := range in {
		out = append(out, id.AreaID(v))
	}
	return out
}

func uploads(files []httputil.FilePart) []models.Upload {
	if len(files) == 0 {
		return nil
	}
	out := make([]models.Upload, 0, len(files))
	for _, f := range files {
		out = append(out, models.Upload{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
	}
	return out
}
