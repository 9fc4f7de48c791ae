package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tramite/internal/procedure/models"
	id "tramite/pkg/domain"
	"tramite/pkg/requestcontext"
)

// Inbox lists one page of the caller's area inbox of the given kind.
func (s *Service) Inbox(ctx context.Context, kind models.InboxKind, page models.Page) (models.Paged[models.FlowView], error) {
	area, err := requireArea(ctx)
	if err != nil {
		return models.Paged[models.FlowView]{}, err
	}
	ctx, span := s.tracer.Start(ctx, "procedure.inbox", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int64("area_id", int64(area)),
	))
	defer span.End()

	start := time.Now()
	flows, total, err := s.store.ListInbox(ctx, kind.Filter(area), page)
	s.metrics.ObserveInboxLatency(string(kind), time.Since(start))
	if err != nil {
		span.RecordError(err)
		return models.Paged[models.FlowView]{}, translate(err, "", "list inbox")
	}
	views, err := s.flowViews(ctx, flows)
	if err != nil {
		return models.Paged[models.FlowView]{}, err
	}
	return models.Paged[models.FlowView]{Count: total, Results: views}, nil
}

// Dashboard counts every inbox of the caller's area, split by origin.
func (s *Service) Dashboard(ctx context.Context) ([]models.DashboardRow, error) {
	area, err := requireArea(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.DashboardRow, len(models.DashboardKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.DashboardKinds {
		g.Go(func() error {
			counts, err := s.store.CountInbox(gctx, kind.Filter(area))
			if err != nil {
				return err
			}
			rows[i] = models.DashboardRow{
				Kind:     kind,
				Title:    kind.Title(),
				External: counts.External,
				Internal: counts.Internal,
				Total:    counts.External + counts.Internal,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, translate(err, "", "count inbox")
	}
	s.logger.DebugContext(ctx, "dashboard computed",
		"request_id", requestcontext.RequestID(ctx),
		"area_id", area,
	)
	return rows, nil
}

// FlowHistory returns the routing history of the procedures matching q. A
// query naming neither code returns nothing.
func (s *Service) FlowHistory(ctx context.Context, q models.FlowHistoryQuery) ([]models.FlowView, error) {
	if q.Code == "" && q.TrackingCode == "" {
		return []models.FlowView{}, nil
	}
	flows, err := s.store.FlowHistory(ctx, q)
	if err != nil {
		return nil, translate(err, "", "load flow history")
	}
	return s.flowViews(ctx, flows)
}

// flowViews resolves the procedure and endpoint areas of each flow.
func (s *Service) flowViews(ctx context.Context, flows []*models.Flow) ([]models.FlowView, error) {
	var (
		procedureIDs []id.ProcedureID
		areaIDs      []id.AreaID
	)
	for _, f := range flows {
		procedureIDs = append(procedureIDs, f.ProcedureID)
		areaIDs = append(areaIDs, f.FromAreaID, f.ToAreaID)
	}
	procedures, err := s.store.FindProcedures(ctx, procedureIDs)
	if err != nil {
		return nil, translate(err, "", "load procedures")
	}
	areas, err := s.store.FindAreas(ctx, areaIDs)
	if err != nil {
		return nil, translate(err, "", "load areas")
	}
	views := make([]models.FlowView, 0, len(flows))
	for _, f := range flows {
		v := models.FlowView{Flow: *f, FromArea: areas[f.FromAreaID], ToArea: areas[f.ToAreaID]}
		if p, ok := procedures[f.ProcedureID]; ok {
			v.Procedure = *p
		}
		views = append(views, v)
	}
	return views, nil
}
