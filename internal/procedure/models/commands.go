package models

import (
	"slices"
	"strings"

	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
)

// RegisterInput is an intake submission. One procedure is created per
// destination area.
type RegisterInput struct {
	AgencyID           id.AgencyID
	DocumentTypeID     id.DocumentTypeID
	DocumentNumber     string
	Folios             int
	Subject            string
	Sender             Sender
	FromAreaID         id.AreaID
	DestinationAreaIDs []id.AreaID
	CopyAreaIDs        []id.AreaID
	Files              []Upload
}

// Normalize trims free text fields and drops repeated or zero areas.
func (in *RegisterInput) Normalize() {
	in.DestinationAreaIDs = uniqueAreas(in.DestinationAreaIDs)
	in.CopyAreaIDs = uniqueAreas(in.CopyAreaIDs)
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Sender.DNI = strings.TrimSpace(in.Sender.DNI)
	in.Sender.Name = strings.TrimSpace(in.Sender.Name)
	in.Sender.Representative = strings.TrimSpace(in.Sender.Representative)
	in.Sender.Address = strings.TrimSpace(in.Sender.Address)
	in.Sender.Phone = strings.TrimSpace(in.Sender.Phone)
	in.Sender.Email = strings.TrimSpace(in.Sender.Email)
}

func uniqueAreas(in []id.AreaID) []id.AreaID {
	if len(in) == 0 {
		return nil
	}
	out := make([]id.AreaID, 0, len(in))
	for _, a := range in {
		if a.IsZero() || slices.Contains(out, a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// RegisterResult reports what a registration created.
type RegisterResult struct {
	Procedures []*Procedure
	Status     Status
	Message    string
}

// Deferred reports whether the submission waits for the next business day.
func (r *RegisterResult) Deferred() bool {
	return r.Status == StatusPendingSchedule
}

// TrackingCode is the public code of a virtual submission, or "".
func (r *RegisterResult) TrackingCode() string {
	if len(r.Procedures) == 0 {
		return ""
	}
	return r.Procedures[0].TrackingCode
}

// UpdateInput is a partial edit of a procedure, allowed only before routing
// has progressed. Nil fields are left unchanged.
type UpdateInput struct {
	DocumentTypeID *id.DocumentTypeID
	DocumentNumber *string
	Folios         *int
	Subject        *string
	SenderDNI      *string
	SenderName     *string
	SenderAddress  *string
	SenderPhone    *string
	SenderEmail    *string
	FromAreaID     *id.AreaID
	ToAreaID       *id.AreaID
	IsVirtual      *bool
	AddFiles       []Upload
	DeleteFileIDs  []id.FileID
}

// Apply copies the set fields onto p and reports whether the single flow's
// subject or destination changed.
func (in *UpdateInput) Apply(p *Procedure) (syncFlow bool) {
	if in.DocumentTypeID != nil {
		p.DocumentTypeID = *in.DocumentTypeID
	}
	if in.DocumentNumber != nil {
		p.DocumentNumber = strings.TrimSpace(*in.DocumentNumber)
	}
	if in.Folios != nil {
		p.Folios = *in.Folios
	}
	if in.Subject != nil {
		p.Subject = strings.TrimSpace(*in.Subject)
		syncFlow = true
	}
	if in.SenderDNI != nil {
		p.Sender.DNI = strings.TrimSpace(*in.SenderDNI)
	}
	if in.SenderName != nil {
		p.Sender.Name = strings.TrimSpace(*in.SenderName)
	}
	if in.SenderAddress != nil {
		p.Sender.Address = strings.TrimSpace(*in.SenderAddress)
	}
	if in.SenderPhone != nil {
		p.Sender.Phone = strings.TrimSpace(*in.SenderPhone)
	}
	if in.SenderEmail != nil {
		p.Sender.Email = strings.TrimSpace(*in.SenderEmail)
	}
	if in.FromAreaID != nil {
		p.FromAreaID = *in.FromAreaID
	}
	if in.ToAreaID != nil {
		p.ToAreaID = *in.ToAreaID
		syncFlow = true
	}
	if in.IsVirtual != nil {
		p.IsVirtual = *in.IsVirtual
	}
	return syncFlow
}

// TransitionResult is what a flow transition produced.
type TransitionResult struct {
	Procedure *Procedure
	// Flows are the inserted rows, NORMAL rows first.
	Flows []Flow
}

// DeriveInput forwards a received flow.
type DeriveInput struct {
	DestinationAreaIDs []id.AreaID
	CopyAreaIDs        []id.AreaID
	OriginOptions      []string
	SubjectDerive      string
	Files              []Upload
}

// ResendInput returns an observed procedure into circulation, optionally
// correcting its document data.
type ResendInput struct {
	DestinationAreaID id.AreaID
	Subject           string
	SubjectDerive     string
	DocumentTypeID    *id.DocumentTypeID
	DocumentNumber    *string
	Folios            *int
	Files             []Upload
	DeleteFileIDs     []id.FileID
}

// Correction is the subset of document data a resend may fix.
type Correction struct {
	DocumentTypeID *id.DocumentTypeID
	DocumentNumber *string
	Folios         *int
}

func (c *Correction) IsEmpty() bool {
	return c == nil || (c.DocumentTypeID == nil && c.DocumentNumber == nil && c.Folios == nil)
}

// Apply copies the set fields onto p.
func (c *Correction) Apply(p *Procedure) {
	if c == nil {
		return
	}
	if c.DocumentTypeID != nil {
		p.DocumentTypeID = *c.DocumentTypeID
	}
	if c.DocumentNumber != nil {
		p.DocumentNumber = strings.TrimSpace(*c.DocumentNumber)
	}
	if c.Folios != nil {
		p.Folios = *c.Folios
	}
}

// CreateAreaInput registers a routing endpoint.
type CreateAreaInput struct {
	AgencyID id.AgencyID
	Name     string
	Initials string
	Type     AreaType
}

func (in *CreateAreaInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Initials = strings.ToUpper(strings.TrimSpace(in.Initials))
	if in.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !in.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "type must be one of TE, TI, TV")
	}
	return nil
}
