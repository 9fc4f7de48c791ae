package service

import (
	"context"
	"fmt"
	"slices"

	calendar "tramite/internal/calendar/models"
	"tramite/internal/procedure/models"
	"tramite/internal/procedure/workflow"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/requestcontext"
)

const (
	channelDesk    = "desk"
	channelVirtual = "virtual"
)

// Register creates one procedure per destination area, each with its
// initial flow and copies. Outside business hours the flows wait in
// PENDING_SCHEDULE; on Sundays and holidays nothing is created.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.RegisterResult, error) {
	in.Normalize()
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}
	if err := workflow.ValidateRouting(in.DestinationAreaIDs, in.CopyAreaIDs); err != nil {
		return nil, err
	}
	areaIDs := append(slices.Clone(in.DestinationAreaIDs), in.CopyAreaIDs...)
	if !in.FromAreaID.IsZero() {
		areaIDs = append(areaIDs, in.FromAreaID)
	}
	if err := s.requireAreas(ctx, areaIDs); err != nil {
		return nil, err
	}
	return s.register(ctx, in, false)
}

// RegisterVirtual accepts an anonymous submission. It is routed from the
// virtual intake area to the front desk and gets a public tracking code.
func (s *Service) RegisterVirtual(ctx context.Context, in models.RegisterInput) (*models.RegisterResult, error) {
	in.Normalize()
	if s.virtual.IntakeAreaID.IsZero() || s.virtual.FrontDeskID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInternal, "virtual routing is not configured")
	}
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}
	in.AgencyID = s.virtual.AgencyID
	in.FromAreaID = s.virtual.IntakeAreaID
	in.DestinationAreaIDs = []id.AreaID{s.virtual.FrontDeskID}
	in.CopyAreaIDs = nil
	return s.register(ctx, in, true)
}

func validateRegistration(in *models.RegisterInput) error {
	if in.AgencyID == 0 {
		return dErrors.New(dErrors.CodeValidation, "agency is required")
	}
	if in.Subject == "" {
		return dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if in.Folios < 0 {
		return dErrors.New(dErrors.CodeValidation, "folios must be zero or more")
	}
	return nil
}

func (s *Service) register(ctx context.Context, in models.RegisterInput, virtual bool) (*models.RegisterResult, error) {
	classification, err := s.scheduler.Classify(ctx)
	if err != nil {
		return nil, err
	}
	if classification == calendar.NoLaborable {
		return nil, dErrors.New(dErrors.CodeValidation, "procedure registration is not available on Sundays or holidays")
	}

	actor := workflow.Actor{UserID: requestcontext.UserID(ctx), Now: requestcontext.Now(ctx)}
	var created []*models.Procedure
	var status models.Status

	for attempt := 1; ; attempt++ {
		created, status = nil, ""
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			for _, dest := range in.DestinationAreaIDs {
				p, st, err := s.createOne(ctx, in, dest, virtual, classification, actor)
				if err != nil {
					return err
				}
				created = append(created, p)
				status = st
			}
			return nil
		})
		if err == nil || !dErrors.HasCode(translate(err, "", "register procedure"), dErrors.CodeConflict) || attempt == maxAllocationAttempts {
			break
		}
		s.metrics.IncrementAllocationRetry()
		s.logger.WarnContext(ctx, "code allocation conflict, retrying",
			"request_id", requestcontext.RequestID(ctx),
			"attempt", attempt,
		)
	}
	if err != nil {
		if dErrors.HasCode(translate(err, "", "register procedure"), dErrors.CodeConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate a procedure code")
		}
		return nil, translate(err, "area not found", "register procedure")
	}

	channel := channelDesk
	if virtual {
		channel = channelVirtual
	}
	for _, p := range created {
		s.metrics.IncrementRegistration(string(status), channel)
		s.attachFiles(ctx, p, in.Files, actor.UserID)
	}
	s.logger.InfoContext(ctx, "procedures registered",
		"request_id", requestcontext.RequestID(ctx),
		"count", len(created),
		"code", created[0].Code,
		"status", status,
		"virtual", virtual,
		"client_ip", requestcontext.ClientIP(ctx),
	)

	result := &models.RegisterResult{Procedures: created, Status: status}
	if virtual {
		s.notify(ctx, created[0], status == models.StatusPendingSchedule)
	}
	result.Message = registrationMessage(result, virtual)
	return result, nil
}

// createOne inserts a procedure for dest with its opening flows.
func (s *Service) createOne(ctx context.Context, in models.RegisterInput, dest id.AreaID, virtual bool, classification calendar.Result, actor workflow.Actor) (*models.Procedure, models.Status, error) {
	code, err := s.allocator.NextProcedureCode(ctx, in.AgencyID, actor.Now.Year())
	if err != nil {
		return nil, "", err
	}
	p := &models.Procedure{
		AgencyID:       in.AgencyID,
		Code:           code,
		DocumentTypeID: in.DocumentTypeID,
		DocumentNumber: in.DocumentNumber,
		Folios:         in.Folios,
		Subject:        in.Subject,
		Sender:         in.Sender,
		FromAreaID:     in.FromAreaID,
		ToAreaID:       dest,
		IsVirtual:      virtual,
		CreatedBy:      actor.UserID,
		CreatedAt:      actor.Now,
		UpdatedAt:      actor.Now,
	}
	if virtual {
		if p.TrackingCode, err = s.allocator.NextTrackingCode(ctx); err != nil {
			return nil, "", err
		}
	}
	if err := s.store.CreateProcedure(ctx, p); err != nil {
		return nil, "", err
	}
	plan, err := workflow.Open(p, classification, in.CopyAreaIDs, actor)
	if err != nil {
		return nil, "", err
	}
	if err := s.apply(ctx, p, plan); err != nil {
		return nil, "", err
	}
	return p, plan.Insert[0].Status, nil
}

func registrationMessage(r *models.RegisterResult, virtual bool) string {
	switch {
	case virtual && r.Deferred():
		return fmt.Sprintf("The procedure was registered outside business hours and will be processed automatically on the next business day. "+
			"A confirmation was sent with your tracking code: %s", r.TrackingCode())
	case virtual:
		return fmt.Sprintf("Your document was registered successfully. A confirmation was sent with your tracking code: %s", r.TrackingCode())
	case r.Deferred():
		return "The procedure was registered outside business hours and will be processed automatically on the next business day."
	default:
		return "Procedure registered successfully."
	}
}

// requireAreas fails validation when any id does not name an active area.
func (s *Service) requireAreas(ctx context.Context, ids []id.AreaID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.store.FindAreas(ctx, ids)
	if err != nil {
		return translate(err, "area not found", "load areas")
	}
	for _, areaID := range ids {
		a, ok := found[areaID]
		if !ok {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("area %d does not exist", areaID))
		}
		if !a.IsActive {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("area %d is inactive", areaID))
		}
	}
	return nil
}

// =============================================================================
// Edits
// =============================================================================

// UpdateProcedure edits a procedure that has not been routed yet, keeping
// its single flow's subject and destination in step.
func (s *Service) UpdateProcedure(ctx context.Context, procedureID id.ProcedureID, in models.UpdateInput) (*models.Procedure, error) {
	var check []id.AreaID
	if in.FromAreaID != nil && !in.FromAreaID.IsZero() {
		check = append(check, *in.FromAreaID)
	}
	if in.ToAreaID != nil {
		if in.ToAreaID.IsZero() {
			return nil, dErrors.New(dErrors.CodeValidation, "destination area is required")
		}
		check = append(check, *in.ToAreaID)
	}
	if in.Folios != nil && *in.Folios < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "folios must be zero or more")
	}
	if in.Subject != nil && *in.Subject == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if err := s.requireAreas(ctx, check); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.Procedure
		removed []models.File
	)
	err := s.tx.RunInTx(withProcedureLock(ctx, procedureID), func(ctx context.Context) error {
		p, err := s.store.LockProcedure(ctx, procedureID)
		if err != nil {
			return err
		}
		flows, err := s.store.ListFlows(ctx, procedureID)
		if err != nil {
			return err
		}
		if err := workflow.CanEdit(p, len(flows)); err != nil {
			return err
		}
		if in.ToAreaID != nil && p.ToAreaID != *in.ToAreaID {
			for _, f := range flows {
				if f.IsCopy() && f.ToAreaID == *in.ToAreaID {
					return dErrors.New(dErrors.CodeValidation, "the destination area cannot also receive a copy")
				}
			}
		}
		if in.Apply(p) {
			for _, f := range flows {
				if f.Type != models.FlowNormal {
					continue
				}
				f.Subject = p.Subject
				f.ToAreaID = p.ToAreaID
				if err := s.store.UpdateFlow(ctx, f); err != nil {
					return err
				}
			}
		}
		p.UpdatedAt = now
		if err := s.store.UpdateProcedure(ctx, p); err != nil {
			return err
		}
		if removed, err = s.store.DeleteFiles(ctx, procedureID, in.DeleteFileIDs); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "procedure not found", "update procedure")
	}

	s.deleteBlobs(ctx, removed)
	s.attachFiles(ctx, updated, in.AddFiles, requestcontext.UserID(ctx))
	s.logger.InfoContext(ctx, "procedure updated",
		"request_id", requestcontext.RequestID(ctx),
		"procedure_id", procedureID,
		"files_added", len(in.AddFiles),
		"files_removed", len(removed),
	)
	return updated, nil
}

// Annul cancels a procedure whose only flow has not moved.
func (s *Service) Annul(ctx context.Context, procedureID id.ProcedureID, comment string) (*models.Procedure, error) {
	now := requestcontext.Now(ctx)
	var annulled *models.Procedure
	err := s.tx.RunInTx(withProcedureLock(ctx, procedureID), func(ctx context.Context) error {
		p, err := s.store.LockProcedure(ctx, procedureID)
		if err != nil {
			return err
		}
		flows, err := s.store.ListFlows(ctx, procedureID)
		if err != nil {
			return err
		}
		plan, err := workflow.Annul(p, flows, comment)
		if err != nil {
			return err
		}
		sole := flows[0]
		sole.Status = models.StatusAnnulled
		sole.IsActive = false
		sole.Comment = plan.Annul.Comment
		if err := s.store.UpdateFlow(ctx, sole); err != nil {
			return err
		}
		p.IsAnnulled = true
		p.AnnulledAt = &now
		p.UpdatedAt = now
		if err := s.store.UpdateProcedure(ctx, p); err != nil {
			return err
		}
		annulled = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "procedure not found", "annul procedure")
	}
	s.logger.InfoContext(ctx, "procedure annulled",
		"request_id", requestcontext.RequestID(ctx),
		"procedure_id", procedureID,
	)
	return annulled, nil
}

// ReplaceCopies swaps every copy branch of an unrouted procedure for one
// per given area.
func (s *Service) ReplaceCopies(ctx context.Context, procedureID id.ProcedureID, areas []id.AreaID) ([]models.Flow, error) {
	if err := s.requireAreas(ctx, areas); err != nil {
		return nil, err
	}
	actor := workflow.Actor{UserID: requestcontext.UserID(ctx), Now: requestcontext.Now(ctx)}
	var copies []models.Flow
	err := s.tx.RunInTx(withProcedureLock(ctx, procedureID), func(ctx context.Context) error {
		p, err := s.store.LockProcedure(ctx, procedureID)
		if err != nil {
			return err
		}
		_, normal, err := s.store.CountFlows(ctx, procedureID)
		if err != nil {
			return err
		}
		plan, err := workflow.ReplaceCopies(p, normal, areas, actor)
		if err != nil {
			return err
		}
		if _, err := s.store.DeleteCopies(ctx, procedureID); err != nil {
			return err
		}
		if err := s.apply(ctx, p, plan); err != nil {
			return err
		}
		for _, f := range plan.Insert {
			copies = append(copies, *f)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "procedure not found", "replace copies")
	}
	s.logger.InfoContext(ctx, "procedure copies replaced",
		"request_id", requestcontext.RequestID(ctx),
		"procedure_id", procedureID,
		"count", len(copies),
	)
	return copies, nil
}

// =============================================================================
// Areas
// =============================================================================

func (s *Service) CreateArea(ctx context.Context, in models.CreateAreaInput) (*models.Area, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a := &models.Area{
		AgencyID:  in.AgencyID,
		Name:      in.Name,
		Initials:  in.Initials,
		Type:      in.Type,
		IsActive:  true,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.CreateArea(ctx, a); err != nil {
		return nil, translate(err, "", "create area")
	}
	s.logger.InfoContext(ctx, "area created",
		"request_id", requestcontext.RequestID(ctx),
		"area_id", a.ID,
		"code", a.Code,
	)
	return a, nil
}

func (s *Service) ListAreas(ctx context.Context, agencyID id.AgencyID) ([]models.Area, error) {
	out, err := s.store.ListAreas(ctx, agencyID)
	if err != nil {
		return nil, translate(err, "", "list areas")
	}
	return out, nil
}

// SetAreaActive toggles the only mutable attribute of an area.
func (s *Service) SetAreaActive(ctx context.Context, areaID id.AreaID, active bool) (*models.Area, error) {
	if err := s.store.SetAreaActive(ctx, areaID, active); err != nil {
		return nil, translate(err, "area not found", "update area")
	}
	a, err := s.store.GetArea(ctx, areaID)
	if err != nil {
		return nil, translate(err, "area not found", "load area")
	}
	return a, nil
}

// =============================================================================
// Lists
// =============================================================================

// ListProcedures returns the procedures originated by the caller's area.
func (s *Service) ListProcedures(ctx context.Context, page models.Page) (models.Paged[models.ProcedureView], error) {
	area, err := requireArea(ctx)
	if err != nil {
		return models.Paged[models.ProcedureView]{}, err
	}
	return s.listProcedures(ctx, models.ProcedureFilter{FromAreaID: area}, page)
}

// ListVirtualProcedures returns the virtual submissions addressed to the
// caller's area.
func (s *Service) ListVirtualProcedures(ctx context.Context, page models.Page) (models.Paged[models.ProcedureView], error) {
	area, err := requireArea(ctx)
	if err != nil {
		return models.Paged[models.ProcedureView]{}, err
	}
	return s.listProcedures(ctx, models.ProcedureFilter{ToAreaID: area, VirtualOnly: true}, page)
}

func (s *Service) listProcedures(ctx context.Context, filter models.ProcedureFilter, page models.Page) (models.Paged[models.ProcedureView], error) {
	procedures, total, err := s.store.ListProcedures(ctx, filter, page)
	if err != nil {
		return models.Paged[models.ProcedureView]{}, translate(err, "", "list procedures")
	}
	views, err := s.procedureViews(ctx, procedures)
	if err != nil {
		return models.Paged[models.ProcedureView]{}, err
	}
	return models.Paged[models.ProcedureView]{Count: total, Results: views}, nil
}

// procedureViews resolves areas, copies and files for a page of procedures.
func (s *Service) procedureViews(ctx context.Context, procedures []*models.Procedure) ([]models.ProcedureView, error) {
	ids := make([]id.ProcedureID, 0, len(procedures))
	var areaIDs []id.AreaID
	for _, p := range procedures {
		ids = append(ids, p.ID)
		areaIDs = append(areaIDs, p.FromAreaID, p.ToAreaID)
	}
	copies, err := s.store.ListCopies(ctx, ids)
	if err != nil {
		return nil, translate(err, "", "list copies")
	}
	files, err := s.store.ListFiles(ctx, ids)
	if err != nil {
		return nil, translate(err, "", "list files")
	}
	for _, cps := range copies {
		for _, c := range cps {
			areaIDs = append(areaIDs, c.ToAreaID)
		}
	}
	areas, err := s.store.FindAreas(ctx, areaIDs)
	if err != nil {
		return nil, translate(err, "", "load areas")
	}

	views := make([]models.ProcedureView, 0, len(procedures))
	for _, p := range procedures {
		fs := files[p.ID]
		for i := range fs {
			fs[i].URL = s.fileURL(fs[i].ObjectKey)
		}
		views = append(views, models.ProcedureView{
			Procedure: *p,
			FromArea:  areas[p.FromAreaID],
			ToArea:    areas[p.ToAreaID],
			Copies:    copies[p.ID],
			Files:     fs,
		})
	}
	return views, nil
}

func requireArea(ctx context.Context) (id.AreaID, error) {
	area := requestcontext.AreaID(ctx)
	if area.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "active area header is required")
	}
	return area, nil
}
