// Package workflow plans flow transitions.
//
// Every transition is a pure function of the current flow, the acting area
// and the command. It either rejects the command or returns a Plan: the flow
// to deactivate and the rows to append. Nothing here touches storage; the
// service applies a Plan inside one transaction after the planner accepted it,
// so a rejected command never leaves a partial write behind.
package workflow

import (
	"slices"
	"time"

	calendar "tramite/internal/calendar/models"
	"tramite/internal/procedure/models"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/strings"
)

// Actor is the caller a transition runs for.
type Actor struct {
	AreaID id.AreaID
	UserID id.UserID
	Now    time.Time
}

// Plan is the effect of an accepted transition.
type Plan struct {
	// Deactivate is the flow the transition closes, or zero.
	Deactivate id.FlowID
	// Insert are the rows to append, in order.
	Insert []*models.Flow
	// Annul marks the procedure annulled and its sole flow ANNULLED.
	Annul *Annulment
	// Correct carries resend corrections to the procedure.
	Correct *models.Correction
	// AttachFiles reports whether uploads should be stored for the procedure.
	AttachFiles bool
}

// Annulment rewrites the sole flow of a procedure.
type Annulment struct {
	FlowID  id.FlowID
	Comment string
}

// Sequencer hands out NORMAL sequences. The service backs it with a counter
// read inside the transaction.
type Sequencer func() int

// Counter returns a Sequencer starting at next.
func Counter(next int) Sequencer {
	return func() int {
		n := next
		next++
		return n
	}
}

// Open builds the initial flows of a freshly registered procedure.
func Open(p *models.Procedure, result calendar.Result, copyAreas []id.AreaID, actor Actor) (Plan, error) {
	status, err := initialStatus(result)
	if err != nil {
		return Plan{}, err
	}
	initial := &models.Flow{
		ProcedureID: p.ID,
		Type:        models.FlowNormal,
		Status:      status,
		FromAreaID:  p.FromAreaID,
		ToAreaID:    p.ToAreaID,
		Sequence:    1,
		IsActive:    true,
		Subject:     p.Subject,
		SentBy:      actor.UserID,
		CreatedAt:   actor.Now,
	}
	stampSchedule(initial, status, actor.Now)
	plan := Plan{Insert: []*models.Flow{initial}, AttachFiles: true}
	for _, area := range copyAreas {
		cp := &models.Flow{
			ProcedureID: p.ID,
			Type:        models.FlowCopy,
			Status:      status,
			FromAreaID:  p.FromAreaID,
			ToAreaID:    area,
			Sequence:    1,
			IsActive:    true,
			Subject:     p.Subject,
			SentBy:      actor.UserID,
			CreatedAt:   actor.Now,
		}
		stampSchedule(cp, status, actor.Now)
		plan.Insert = append(plan.Insert, cp)
	}
	return plan, nil
}

func initialStatus(result calendar.Result) (models.Status, error) {
	switch result {
	case calendar.NoLaborable:
		return "", dErrors.New(dErrors.CodeValidation, "procedure registration is not available on Sundays or holidays")
	case calendar.OutOfSchedule:
		return models.StatusPendingSchedule, nil
	case calendar.InSchedule:
		return models.StatusSent, nil
	}
	return "", dErrors.New(dErrors.CodeInternal, "unknown schedule classification")
}

func stampSchedule(f *models.Flow, status models.Status, now time.Time) {
	t := now
	if status == models.StatusPendingSchedule {
		f.RegisteredOutOfScheduleAt = &t
		return
	}
	f.SentAt = &t
}

// Receive takes a SENT flow into the actor's area.
func Receive(cur *models.Flow, actor Actor, seq Sequencer) (Plan, error) {
	if err := require(cur, models.StatusSent, "pending flow not found"); err != nil {
		return Plan{}, err
	}
	if err := claim(cur, actor, "receive"); err != nil {
		return Plan{}, err
	}
	next := successor(cur, actor, seq)
	next.Status = models.StatusReceived
	next.FromAreaID = cur.FromAreaID
	next.ToAreaID = cur.ToAreaID
	next.IsToObserved = cur.IsToObserved
	return Plan{Deactivate: cur.ID, Insert: []*models.Flow{next}}, nil
}

// Derive closes a RECEIVED flow and opens one SENT branch per destination,
// plus informational copies.
func Derive(cur *models.Flow, actor Actor, seq Sequencer, in models.DeriveInput) (Plan, error) {
	if err := require(cur, models.StatusReceived, "received flow not found"); err != nil {
		return Plan{}, err
	}
	if err := claim(cur, actor, "derive"); err != nil {
		return Plan{}, err
	}
	destinations := dedupeAreas(in.DestinationAreaIDs)
	if err := ValidateRouting(destinations, in.CopyAreaIDs); err != nil {
		return Plan{}, err
	}

	options := in.OriginOptions
	if options == nil {
		options = cur.OriginOptions
	}
	options = strings.DedupeAndTrimUpper(options)
	toFinalize := strings.ContainsAny(options, models.OptionAuthorized, models.OptionInfo)

	plan := Plan{Deactivate: cur.ID, AttachFiles: len(in.Files) > 0}
	for _, area := range destinations {
		sentAt := actor.Now
		plan.Insert = append(plan.Insert, &models.Flow{
			ProcedureID:   cur.ProcedureID,
			Type:          models.FlowNormal,
			Status:        models.StatusSent,
			FromAreaID:    cur.ToAreaID,
			ToAreaID:      area,
			Sequence:      seq(),
			IsActive:      true,
			IsToFinalize:  toFinalize,
			IsDerive:      true,
			OriginOptions: slices.Clone(options),
			Subject:       cur.Subject,
			SubjectDerive: in.SubjectDerive,
			SentBy:        actor.UserID,
			PredecessorID: cur.ID,
			SentAt:        &sentAt,
			CreatedAt:     actor.Now,
		})
	}
	for _, area := range dedupeAreas(in.CopyAreaIDs) {
		sentAt := actor.Now
		plan.Insert = append(plan.Insert, &models.Flow{
			ProcedureID:   cur.ProcedureID,
			Type:          models.FlowCopy,
			Status:        models.StatusSent,
			FromAreaID:    cur.ToAreaID,
			ToAreaID:      area,
			Sequence:      1,
			IsActive:      true,
			IsToFinalize:  toFinalize,
			IsDerive:      true,
			OriginOptions: slices.Clone(options),
			Subject:       in.SubjectDerive,
			SubjectDerive: in.SubjectDerive,
			SentBy:        actor.UserID,
			PredecessorID: cur.ID,
			SentAt:        &sentAt,
			CreatedAt:     actor.Now,
		})
	}
	return plan, nil
}

// Finalize closes a RECEIVED flow with a terminal self-loop.
func Finalize(cur *models.Flow, actor Actor, seq Sequencer) (Plan, error) {
	if err := require(cur, models.StatusReceived, "received flow not found"); err != nil {
		return Plan{}, err
	}
	if err := claim(cur, actor, "finalize"); err != nil {
		return Plan{}, err
	}
	next := successor(cur, actor, seq)
	next.Status = models.StatusFinalized
	next.FromAreaID = cur.ToAreaID
	next.ToAreaID = cur.ToAreaID
	next.IsToFinalize = false
	next.OriginOptions = nil
	return Plan{Deactivate: cur.ID, Insert: []*models.Flow{next}}, nil
}

// Reject refuses a SENT branch. Other branches of the procedure are untouched.
func Reject(cur *models.Flow, actor Actor, seq Sequencer, comment string) (Plan, error) {
	if err := require(cur, models.StatusSent, "sent flow not found"); err != nil {
		return Plan{}, err
	}
	if err := claim(cur, actor, "reject"); err != nil {
		return Plan{}, err
	}
	return Plan{Deactivate: cur.ID, Insert: []*models.Flow{returned(cur, actor, seq, models.StatusRejected, comment)}}, nil
}

// Observe returns a RECEIVED flow to its sender for correction.
func Observe(cur *models.Flow, actor Actor, seq Sequencer, comment string) (Plan, error) {
	if err := require(cur, models.StatusReceived, "received flow not found"); err != nil {
		return Plan{}, err
	}
	if err := claim(cur, actor, "observe"); err != nil {
		return Plan{}, err
	}
	return Plan{Deactivate: cur.ID, Insert: []*models.Flow{returned(cur, actor, seq, models.StatusObserved, comment)}}, nil
}

// returned builds a REJECTED or OBSERVED row. The row keeps from and to on
// the acting area and records the area that sent the branch as counterpart.
func returned(cur *models.Flow, actor Actor, seq Sequencer, status models.Status, comment string) *models.Flow {
	next := successor(cur, actor, seq)
	next.Status = status
	next.FromAreaID = cur.ToAreaID
	next.ToAreaID = cur.ToAreaID
	next.Comment = comment
	next.CounterpartAreaID = cur.FromAreaID
	return next
}

// Resend puts an OBSERVED procedure back into circulation from the actor's
// area. Corrections and new files apply only when the observed branch was
// not itself produced by a derive.
func Resend(cur *models.Flow, actor Actor, seq Sequencer, in models.ResendInput) (Plan, error) {
	if err := require(cur, models.StatusObserved, "observed flow not found"); err != nil {
		return Plan{}, err
	}
	if actor.AreaID.IsZero() {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "active area header is required")
	}
	if in.DestinationAreaID.IsZero() {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "destination area is required")
	}
	sentAt := actor.Now
	next := &models.Flow{
		ProcedureID:   cur.ProcedureID,
		Type:          models.FlowNormal,
		Status:        models.StatusSent,
		FromAreaID:    actor.AreaID,
		ToAreaID:      in.DestinationAreaID,
		Sequence:      seq(),
		IsActive:      true,
		IsToFinalize:  cur.IsToFinalize,
		IsToObserved:  true,
		IsDerive:      cur.IsDerive,
		OriginOptions: slices.Clone(cur.OriginOptions),
		Subject:       in.Subject,
		SubjectDerive: in.SubjectDerive,
		Comment:       cur.Comment,
		SentBy:        actor.UserID,
		PredecessorID: cur.ID,
		SentAt:        &sentAt,
		CreatedAt:     actor.Now,
	}
	plan := Plan{Deactivate: cur.ID, Insert: []*models.Flow{next}}
	if !cur.IsDerive {
		c := &models.Correction{
			DocumentTypeID: in.DocumentTypeID,
			DocumentNumber: in.DocumentNumber,
			Folios:         in.Folios,
		}
		if !c.IsEmpty() {
			plan.Correct = c
		}
		plan.AttachFiles = len(in.Files) > 0
	}
	return plan, nil
}

// Annul cancels a procedure that has not been routed past its first flow.
func Annul(p *models.Procedure, flows []*models.Flow, comment string) (Plan, error) {
	if p.IsAnnulled {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "procedure is already annulled")
	}
	if len(flows) > 1 {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "procedure cannot be changed because it already has more than one flow")
	}
	if len(flows) == 0 {
		return Plan{}, dErrors.New(dErrors.CodeNotFound, "procedure has no flow")
	}
	return Plan{Annul: &Annulment{FlowID: flows[0].ID, Comment: comment}}, nil
}

// CanEdit enforces the edit lock: core fields change only while the
// procedure has at most one flow.
func CanEdit(p *models.Procedure, flowCount int) error {
	if p.IsAnnulled {
		return dErrors.New(dErrors.CodeValidation, "procedure is annulled")
	}
	if flowCount > 1 {
		return dErrors.New(dErrors.CodeValidation, "procedure cannot be changed because it already has more than one flow")
	}
	return nil
}

// ReplaceCopies rebuilds the copy branches of a procedure that has not been
// routed yet.
func ReplaceCopies(p *models.Procedure, normalCount int, areas []id.AreaID, actor Actor) (Plan, error) {
	if p.IsAnnulled {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "procedure is annulled")
	}
	if normalCount > 1 {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "copies cannot be changed because the procedure has already been routed")
	}
	if slices.Contains(areas, p.ToAreaID) {
		return Plan{}, dErrors.New(dErrors.CodeValidation, "the destination area cannot also receive a copy")
	}
	var plan Plan
	for _, area := range dedupeAreas(areas) {
		sentAt := actor.Now
		plan.Insert = append(plan.Insert, &models.Flow{
			ProcedureID: p.ID,
			Type:        models.FlowCopy,
			Status:      models.StatusSent,
			FromAreaID:  p.FromAreaID,
			ToAreaID:    area,
			Sequence:    1,
			IsActive:    true,
			Subject:     p.Subject,
			SentBy:      actor.UserID,
			SentAt:      &sentAt,
			CreatedAt:   actor.Now,
		})
	}
	return plan, nil
}

// ValidateRouting checks destination and copy sets of a registration.
func ValidateRouting(destinations, copies []id.AreaID) error {
	if len(dedupeAreas(destinations)) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one destination area is required")
	}
	return disjoint(destinations, copies)
}

func require(cur *models.Flow, status models.Status, notFound string) error {
	if cur == nil || cur.Type != models.FlowNormal || cur.Status != status || !cur.IsActive {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return nil
}

func claim(cur *models.Flow, actor Actor, verb string) error {
	if actor.AreaID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "active area header is required")
	}
	if cur.ToAreaID != actor.AreaID {
		return dErrors.New(dErrors.CodeValidation, "you cannot "+verb+" a procedure from another area")
	}
	return nil
}

// successor copies the lineage markers of cur onto a fresh active row.
func successor(cur *models.Flow, actor Actor, seq Sequencer) *models.Flow {
	return &models.Flow{
		ProcedureID:   cur.ProcedureID,
		Type:          cur.Type,
		IsActive:      true,
		Sequence:      seq(),
		IsToFinalize:  cur.IsToFinalize,
		IsDerive:      cur.IsDerive,
		OriginOptions: slices.Clone(cur.OriginOptions),
		Subject:       cur.Subject,
		SubjectDerive: cur.SubjectDerive,
		SentBy:        actor.UserID,
		PredecessorID: cur.ID,
		CreatedAt:     actor.Now,
	}
}

func disjoint(destinations, copies []id.AreaID) error {
	for _, c := range copies {
		if slices.Contains(destinations, c) {
			return dErrors.New(dErrors.CodeValidation, "an area cannot be both destination and copy")
		}
	}
	return nil
}

func dedupeAreas(in []id.AreaID) []id.AreaID {
	out := make([]id.AreaID, 0, len(in))
	for _, a := range in {
		if a.IsZero() || slices.Contains(out, a) {
			continue
		}
		out = append(out, a)
	}
	return out
}
