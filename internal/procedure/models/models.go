// Package models holds the procedure aggregate, its append-only flow log and
// the areas flows move between.
package models

import (
	"slices"
	"time"

	id "tramite/pkg/domain"
)

// AreaType classifies an organizational unit.
type AreaType string

const (
	AreaExternal AreaType = "TE"
	AreaInternal AreaType = "TI"
	AreaVirtual  AreaType = "TV"
)

func (t AreaType) IsValid() bool {
	switch t {
	case AreaExternal, AreaInternal, AreaVirtual:
		return true
	}
	return false
}

// Area is a routing endpoint. Code is assigned once at creation.
type Area struct {
	ID        id.AreaID
	AgencyID  id.AgencyID
	Name      string
	Code      string
	Initials  string
	Type      AreaType
	IsActive  bool
	CreatedAt time.Time
}

// FlowType separates the actionable lineage from informational copies.
type FlowType string

const (
	FlowNormal FlowType = "NR"
	FlowCopy   FlowType = "CP"
)

// Status is the state a flow row records.
type Status string

const (
	StatusSent            Status = "SENT"
	StatusReceived        Status = "RECEIVED"
	StatusFinalized       Status = "FINALIZED"
	StatusObserved        Status = "OBSERVED"
	StatusRejected        Status = "REJECTED"
	StatusSubsanation     Status = "SUBSANATION"
	StatusAnnulled        Status = "ANNULLED"
	StatusPendingSchedule Status = "PENDING_SCHEDULE"
)

// Origin options that make a derived branch eligible for finalization.
const (
	OptionAuthorized = "AUTHORIZED"
	OptionInfo       = "INFO"
)

// Sender identifies who submitted the document.
type Sender struct {
	DNI            string
	Name           string
	Representative string
	Address        string
	Phone          string
	Email          string
}

// Procedure is the case file routed between areas.
type Procedure struct {
	ID             id.ProcedureID
	AgencyID       id.AgencyID
	Code           string
	DocumentTypeID id.DocumentTypeID
	DocumentNumber string
	Folios         int
	Subject        string
	Sender         Sender
	FromAreaID     id.AreaID
	ToAreaID       id.AreaID
	IsVirtual      bool
	IsAnnulled     bool
	AnnulledAt     *time.Time
	TrackingCode   string
	CreatedBy      id.UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Flow is one immutable step of a procedure's routing history. Only
// IsActive, Status (annul, pending release) and SentAt change after insert.
type Flow struct {
	ID                        id.FlowID
	ProcedureID               id.ProcedureID
	Type                      FlowType
	Status                    Status
	FromAreaID                id.AreaID
	ToAreaID                  id.AreaID
	Sequence                  int
	IsActive                  bool
	IsToFinalize              bool
	IsToObserved              bool
	IsDerive                  bool
	OriginOptions             []string
	Subject                   string
	SubjectDerive             string
	Comment                   string
	SentBy                    id.UserID
	PredecessorID             id.FlowID
	CounterpartAreaID         id.AreaID
	RegisteredOutOfScheduleAt *time.Time
	SentAt                    *time.Time
	CreatedAt                 time.Time
}

// IsCopy reports whether f is an informational side-branch.
func (f *Flow) IsCopy() bool {
	return f.Type == FlowCopy
}

// Clone returns a deep copy safe to mutate.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	c := *f
	c.OriginOptions = slices.Clone(f.OriginOptions)
	if f.RegisteredOutOfScheduleAt != nil {
		t := *f.RegisteredOutOfScheduleAt
		c.RegisteredOutOfScheduleAt = &t
	}
	if f.SentAt != nil {
		t := *f.SentAt
		c.SentAt = &t
	}
	return &c
}

// File is a stored attachment of a procedure.
type File struct {
	ID          id.FileID
	ProcedureID id.ProcedureID
	Name        string
	ObjectKey   string
	URL         string
	ContentType string
	Size        int64
	UploadedBy  id.UserID
	CreatedAt   time.Time
}

// Upload is an attachment received with a request, not yet stored.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProcedureView is a procedure with the records list endpoints embed.
type ProcedureView struct {
	Procedure
	FromArea *Area
	ToArea   *Area
	Copies   []Flow
	Files    []File
}

// FlowView is a flow with its procedure and endpoint areas resolved.
type FlowView struct {
	Flow
	Procedure Procedure
	FromArea  *Area
	ToArea    *Area
}
