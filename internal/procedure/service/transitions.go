package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tramite/internal/procedure/models"
	"tramite/internal/procedure/workflow"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/requestcontext"
)

// Transition names used in metrics, spans and logs.
const (
	OpReceive  = "receive"
	OpDerive   = "derive"
	OpFinalize = "finalize"
	OpReject   = "reject"
	OpObserve  = "observe"
	OpResend   = "resend"
)

// planFunc asks the workflow planner for the effect of a transition.
type planFunc func(cur *models.Flow, actor workflow.Actor, seq workflow.Sequencer) (workflow.Plan, error)

// fileChanges are the attachment edits a transition carries. Removals run in
// the transaction; additions are stored after commit.
type fileChanges struct {
	add    []models.Upload
	remove []id.FileID
}

// Receive takes a SENT flow addressed to the caller's area.
func (s *Service) Receive(ctx context.Context, flowID id.FlowID) (*models.TransitionResult, error) {
	return s.transition(ctx, OpReceive, flowID, "pending flow not found", fileChanges{}, workflow.Receive)
}

// Derive forwards a received flow to one or more areas, with optional copies.
func (s *Service) Derive(ctx context.Context, flowID id.FlowID, in models.DeriveInput) (*models.TransitionResult, error) {
	if err := s.requireAreas(ctx, append(append([]id.AreaID{}, in.DestinationAreaIDs...), in.CopyAreaIDs...)); err != nil {
		return nil, err
	}
	return s.transition(ctx, OpDerive, flowID, "received flow not found", fileChanges{add: in.Files},
		func(cur *models.Flow, actor workflow.Actor, seq workflow.Sequencer) (workflow.Plan, error) {
			return workflow.Derive(cur, actor, seq, in)
		})
}

// Finalize closes a received flow in the caller's area.
func (s *Service) Finalize(ctx context.Context, flowID id.FlowID) (*models.TransitionResult, error) {
	return s.transition(ctx, OpFinalize, flowID, "received flow not found", fileChanges{}, workflow.Finalize)
}

// Reject returns a SENT flow to its sender with a comment.
func (s *Service) Reject(ctx context.Context, flowID id.FlowID, comment string) (*models.TransitionResult, error) {
	return s.transition(ctx, OpReject, flowID, "sent flow not found", fileChanges{},
		func(cur *models.Flow, actor workflow.Actor, seq workflow.Sequencer) (workflow.Plan, error) {
			return workflow.Reject(cur, actor, seq, comment)
		})
}

// Observe returns a received flow to its sender for correction.
func (s *Service) Observe(ctx context.Context, flowID id.FlowID, comment string) (*models.TransitionResult, error) {
	return s.transition(ctx, OpObserve, flowID, "received flow not found", fileChanges{},
		func(cur *models.Flow, actor workflow.Actor, seq workflow.Sequencer) (workflow.Plan, error) {
			return workflow.Observe(cur, actor, seq, comment)
		})
}

// Resend puts an observed procedure back into circulation.
func (s *Service) Resend(ctx context.Context, flowID id.FlowID, in models.ResendInput) (*models.TransitionResult, error) {
	if !in.DestinationAreaID.IsZero() {
		if err := s.requireAreas(ctx, []id.AreaID{in.DestinationAreaID}); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, OpResend, flowID, "observed flow not found",
		fileChanges{add: in.Files, remove: in.DeleteFileIDs},
		func(cur *models.Flow, actor workflow.Actor, seq workflow.Sequencer) (workflow.Plan, error) {
			return workflow.Resend(cur, actor, seq, in)
		})
}

// transition runs one flow transition under the procedure lock. The flow is
// read again after the lock so two callers racing on the same flow see one
// winner; the loser gets the planner's not-found error.
func (s *Service) transition(ctx context.Context, op string, flowID id.FlowID, notFound string, files fileChanges, plan planFunc) (res *models.TransitionResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "procedure."+op, trace.WithAttributes(attribute.Int64("flow_id", int64(flowID))))
	defer func() {
		result := "ok"
		if err != nil {
			result = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
		s.metrics.IncrementTransition(op, result)
		s.metrics.ObserveTransitionLatency(op, time.Since(start))
	}()

	head, err := s.store.GetFlow(ctx, flowID)
	if err != nil {
		return nil, translate(err, notFound, op)
	}
	actor := workflow.Actor{
		AreaID: requestcontext.AreaID(ctx),
		UserID: requestcontext.UserID(ctx),
		Now:    requestcontext.Now(ctx),
	}

	var (
		accepted workflow.Plan
		removed  []models.File
	)
	res = &models.TransitionResult{}
	err = s.tx.RunInTx(withProcedureLock(ctx, head.ProcedureID), func(ctx context.Context) error {
		p, err := s.store.LockProcedure(ctx, head.ProcedureID)
		if err != nil {
			return err
		}
		if p.IsAnnulled {
			return dErrors.New(dErrors.CodeValidation, "procedure is annulled")
		}
		cur, err := s.store.GetFlow(ctx, flowID)
		if err != nil {
			return err
		}
		next, err := s.allocator.NextFlowSequence(ctx, p.ID)
		if err != nil {
			return err
		}
		if accepted, err = plan(cur, actor, workflow.Counter(next)); err != nil {
			return err
		}
		if err := s.apply(ctx, p, accepted); err != nil {
			return err
		}
		if removed, err = s.store.DeleteFiles(ctx, p.ID, files.remove); err != nil {
			return err
		}
		res.Procedure = p
		for _, f := range accepted.Insert {
			res.Flows = append(res.Flows, *f)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, notFound, op)
	}
	span.SetAttributes(attribute.Int64("procedure_id", int64(res.Procedure.ID)))

	s.deleteBlobs(ctx, removed)
	if accepted.AttachFiles {
		s.attachFiles(ctx, res.Procedure, files.add, actor.UserID)
	}
	s.logger.InfoContext(ctx, "flow transition applied",
		"request_id", requestcontext.RequestID(ctx),
		"operation", op,
		"flow_id", flowID,
		"procedure_id", res.Procedure.ID,
		"area_id", actor.AreaID,
		"inserted", len(res.Flows),
		"files_removed", len(removed),
	)
	return res, nil
}

// apply writes an accepted plan. It must run inside RunInTx.
func (s *Service) apply(ctx context.Context, p *models.Procedure, plan workflow.Plan) error {
	if !plan.Deactivate.IsZero() {
		if err := s.store.DeactivateFlow(ctx, plan.Deactivate); err != nil {
			return err
		}
	}
	for _, f := range plan.Insert {
		if err := s.store.InsertFlow(ctx, f); err != nil {
			return err
		}
	}
	if !plan.Correct.IsEmpty() {
		plan.Correct.Apply(p)
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateProcedure(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Post-commit side effects
// =============================================================================

// attachFiles stores uploads for p. Failures are logged and counted; the
// procedure itself is already committed.
func (s *Service) attachFiles(ctx context.Context, p *models.Procedure, uploads []models.Upload, userID id.UserID) {
	if len(uploads) == 0 {
		return
	}
	if s.files == nil {
		s.logger.WarnContext(ctx, "file store not configured, attachments dropped",
			"request_id", requestcontext.RequestID(ctx),
			"procedure_id", p.ID,
			"count", len(uploads),
		)
		return
	}
	for _, u := range uploads {
		key := objectKey(p, u.Name)
		if err := s.files.Put(ctx, key, u.ContentType, u.Data); err != nil {
			s.sideEffectFailed(ctx, "upload", p.ID, err)
			continue
		}
		f := &models.File{
			ProcedureID: p.ID,
			Name:        u.Name,
			ObjectKey:   key,
			ContentType: u.ContentType,
			Size:        int64(len(u.Data)),
			UploadedBy:  userID,
			CreatedAt:   requestcontext.Now(ctx),
		}
		if err := s.store.InsertFile(ctx, f); err != nil {
			s.sideEffectFailed(ctx, "upload", p.ID, err)
			if derr := s.files.Delete(ctx, key); derr != nil {
				s.sideEffectFailed(ctx, "delete_blob", p.ID, derr)
			}
		}
	}
}

// deleteBlobs removes stored objects whose rows are already gone.
func (s *Service) deleteBlobs(ctx context.Context, removed []models.File) {
	if s.files == nil {
		return
	}
	for _, f := range removed {
		if err := s.files.Delete(ctx, f.ObjectKey); err != nil {
			s.sideEffectFailed(ctx, "delete_blob", f.ProcedureID, err)
		}
	}
}

// notify sends the registration confirmation. Senders without an email are
// skipped.
func (s *Service) notify(ctx context.Context, p *models.Procedure, outOfSchedule bool) {
	if s.notifier == nil || p.Sender.Email == "" {
		return
	}
	if err := s.notifier.NotifyRegistration(ctx, p, outOfSchedule); err != nil {
		s.sideEffectFailed(ctx, "notify", p.ID, err)
	}
}

func (s *Service) sideEffectFailed(ctx context.Context, kind string, procedureID id.ProcedureID, err error) {
	s.metrics.IncrementSideEffectFailure(kind)
	s.logger.WarnContext(ctx, "post-commit side effect failed",
		"request_id", requestcontext.RequestID(ctx),
		"kind", kind,
		"procedure_id", procedureID,
		"error", err,
	)
}

func (s *Service) fileURL(key string) string {
	if s.files == nil {
		return ""
	}
	return s.files.URL(key)
}

// objectKey is procedures/agency_<id>/<code>/<uuid><ext>.
func objectKey(p *models.Procedure, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return fmt.Sprintf("procedures/agency_%d/%s/%s%s", p.AgencyID, p.Code, uuid.NewString(), ext)
}
