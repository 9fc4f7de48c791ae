package models

import (
	"slices"

	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
)

// InboxKind names a per-area worklist.
type InboxKind string

const (
	InboxPending   InboxKind = "pending"
	InboxReceived  InboxKind = "received"
	InboxSent      InboxKind = "sent"
	InboxCopies    InboxKind = "copies"
	InboxObserved  InboxKind = "observed"
	InboxRejected  InboxKind = "rejected"
	InboxFinalized InboxKind = "finalized"
)

// DashboardKinds are the worklists the dashboard aggregates, in display order.
var DashboardKinds = []InboxKind{
	InboxPending,
	InboxReceived,
	InboxSent,
	InboxFinalized,
	InboxObserved,
	InboxRejected,
}

var inboxTitles = map[InboxKind]string{
	InboxPending:   "Pendientes",
	InboxReceived:  "Recepcionados",
	InboxSent:      "Enviados",
	InboxCopies:    "Copias",
	InboxObserved:  "Observados",
	InboxRejected:  "Rechazados",
	InboxFinalized: "Finalizados",
}

// ParseInboxKind validates a path segment.
func ParseInboxKind(s string) (InboxKind, error) {
	k := InboxKind(s)
	if _, ok := inboxTitles[k]; !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown inbox")
	}
	return k, nil
}

func (k InboxKind) Title() string {
	return inboxTitles[k]
}

// InboxFilter is the declarative predicate behind an inbox. Zero-valued
// fields do not constrain.
type InboxFilter struct {
	Type              FlowType
	Statuses          []Status
	ActiveOnly        bool
	ToAreaID          id.AreaID
	FromAreaID        id.AreaID
	CounterpartAreaID id.AreaID
	ExcludeToObserved bool
}

// Filter builds the predicate for kind as seen by area.
func (k InboxKind) Filter(area id.AreaID) InboxFilter {
	switch k {
	case InboxPending:
		return InboxFilter{Type: FlowNormal, Statuses: []Status{StatusSent}, ActiveOnly: true, ToAreaID: area}
	case InboxReceived:
		return InboxFilter{Type: FlowNormal, Statuses: []Status{StatusReceived}, ActiveOnly: true, ToAreaID: area}
	case InboxSent:
		return InboxFilter{Type: FlowNormal, Statuses: []Status{StatusSent}, FromAreaID: area, ExcludeToObserved: true}
	case InboxCopies:
		return InboxFilter{Type: FlowCopy, Statuses: []Status{StatusSent}, ToAreaID: area}
	case InboxFinalized:
		return InboxFilter{Type: FlowNormal, Statuses: []Status{StatusFinalized}, ActiveOnly: true, ToAreaID: area}
	case InboxObserved:
		return InboxFilter{Type: FlowNormal, Statuses: []Status{StatusObserved}, ActiveOnly: true, CounterpartAreaID: area}
	case InboxRejected:
		return InboxFilter{Type: FlowNormal, Statuses: []Status{StatusRejected}, ActiveOnly: true, CounterpartAreaID: area}
	}
	return InboxFilter{}
}

// Matches evaluates the filter in process.
func (f InboxFilter) Matches(fl *Flow) bool {
	if f.Type != "" && fl.Type != f.Type {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, fl.Status) {
		return false
	}
	if f.ActiveOnly && !fl.IsActive {
		return false
	}
	if !f.ToAreaID.IsZero() && fl.ToAreaID != f.ToAreaID {
		return false
	}
	if !f.FromAreaID.IsZero() && fl.FromAreaID != f.FromAreaID {
		return false
	}
	if !f.CounterpartAreaID.IsZero() && fl.CounterpartAreaID != f.CounterpartAreaID {
		return false
	}
	if f.ExcludeToObserved && fl.IsToObserved {
		return false
	}
	return true
}

// OriginBucket is the dashboard column a procedure counts under, keyed by the
// type of its origin area. Virtual submissions count as external.
type OriginBucket string

const (
	BucketExternal OriginBucket = "TE"
	BucketInternal OriginBucket = "TI"
)

// BucketOf returns the bucket for an origin area type, or "" when the
// procedure has no origin area.
func BucketOf(t AreaType) OriginBucket {
	switch t {
	case AreaExternal, AreaVirtual:
		return BucketExternal
	case AreaInternal:
		return BucketInternal
	}
	return ""
}

// BucketCounts are inbox sizes split by origin bucket.
type BucketCounts struct {
	External int
	Internal int
}

// DashboardRow is one worklist's counts.
type DashboardRow struct {
	Kind     InboxKind
	Title    string
	External int
	Internal int
	Total    int
}

// Pagination defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a window of a list, 1-based.
type Page struct {
	Number int
	Size   int
}

// NormalizePage clamps number and size into range.
func NormalizePage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Paged is one page of results plus the unpaged total.
type Paged[T any] struct {
	Count   int
	Results []T
}

// FlowHistoryQuery looks up a procedure's full history.
type FlowHistoryQuery struct {
	Code         string
	TrackingCode string
	OriginType   AreaType
}

// ProcedureFilter selects procedures for the list endpoints.
type ProcedureFilter struct {
	FromAreaID  id.AreaID
	ToAreaID    id.AreaID
	VirtualOnly bool
}

func (f ProcedureFilter) Matches(p *Procedure) bool {
	if !f.FromAreaID.IsZero() && p.FromAreaID != f.FromAreaID {
		return false
	}
	if !f.ToAreaID.IsZero() && p.ToAreaID != f.ToAreaID {
		return false
	}
	if f.VirtualOnly && !p.IsVirtual {
		return false
	}
	return true
}
