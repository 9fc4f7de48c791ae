// Package service runs the procedure workflow: registration, flow
// transitions, edits, and the per-area inbox queries.
//
// Every mutating operation follows the same shape: load and lock the
// procedure inside a transaction, ask the workflow planner for a Plan, apply
// it, commit. Notifications and blob uploads happen after commit and never
// fail the operation.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	calendar "tramite/internal/calendar/models"
	pmetrics "tramite/internal/procedure/metrics"
	"tramite/internal/procedure/models"
	"tramite/internal/sequence"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/sentinel"
)

// Store is the persistence the service needs. Calls inside RunInTx join the
// open transaction.
type Store interface {
	sequence.Store

	CreateArea(ctx context.Context, a *models.Area) error
	GetArea(ctx context.Context, areaID id.AreaID) (*models.Area, error)
	FindAreas(ctx context.Context, ids []id.AreaID) (map[id.AreaID]*models.Area, error)
	ListAreas(ctx context.Context, agencyID id.AgencyID) ([]models.Area, error)
	SetAreaActive(ctx context.Context, areaID id.AreaID, active bool) error

	CreateProcedure(ctx context.Context, p *models.Procedure) error
	GetProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
	LockProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
	FindProcedures(ctx context.Context, ids []id.ProcedureID) (map[id.ProcedureID]*models.Procedure, error)
	UpdateProcedure(ctx context.Context, p *models.Procedure) error
	ListProcedures(ctx context.Context, filter models.ProcedureFilter, page models.Page) ([]*models.Procedure, int, error)

	InsertFlow(ctx context.Context, f *models.Flow) error
	GetFlow(ctx context.Context, flowID id.FlowID) (*models.Flow, error)
	DeactivateFlow(ctx context.Context, flowID id.FlowID) error
	UpdateFlow(ctx context.Context, f *models.Flow) error
	ListFlows(ctx context.Context, procedureID id.ProcedureID) ([]*models.Flow, error)
	CountFlows(ctx context.Context, procedureID id.ProcedureID) (total, normal int, err error)
	DeleteCopies(ctx context.Context, procedureID id.ProcedureID) (int, error)
	ListCopies(ctx context.Context, ids []id.ProcedureID) (map[id.ProcedureID][]models.Flow, error)
	ListInbox(ctx context.Context, filter models.InboxFilter, page models.Page) ([]*models.Flow, int, error)
	CountInbox(ctx context.Context, filter models.InboxFilter) (models.BucketCounts, error)
	FlowHistory(ctx context.Context, q models.FlowHistoryQuery) ([]*models.Flow, error)

	InsertFile(ctx context.Context, f *models.File) error
	ListFiles(ctx context.Context, ids []id.ProcedureID) (map[id.ProcedureID][]models.File, error)
	DeleteFiles(ctx context.Context, procedureID id.ProcedureID, fileIDs []id.FileID) ([]models.File, error)
}

// Scheduler classifies the current instant.
type Scheduler interface {
	Classify(ctx context.Context) (calendar.Result, error)
}

// Notifier sends the registration confirmation to the sender.
type Notifier interface {
	NotifyRegistration(ctx context.Context, p *models.Procedure, outOfSchedule bool) error
}

// FileStore holds attachment blobs.
type FileStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// VirtualRouting names the fixed areas virtual submissions travel between.
type VirtualRouting struct {
	AgencyID     id.AgencyID
	IntakeAreaID id.AreaID
	FrontDeskID  id.AreaID
}

// maxAllocationAttempts bounds registration retries after a code conflict.
const maxAllocationAttempts = 3

// Service coordinates procedures and their flows.
type Service struct {
	store     Store
	tx        ProcedureTx
	scheduler Scheduler
	allocator *sequence.Allocator
	notifier  Notifier
	files     FileStore
	virtual   VirtualRouting
	logger    *slog.Logger
	metrics   *pmetrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *pmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx replaces the default in-process transaction boundary.
func WithTx(t ProcedureTx) Option {
	return func(s *Service) {
		s.tx = t
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithFileStore(f FileStore) Option {
	return func(s *Service) {
		s.files = f
	}
}

func WithVirtualRouting(v VirtualRouting) Option {
	return func(s *Service) {
		s.virtual = v
	}
}

func WithAllocator(a *sequence.Allocator) Option {
	return func(s *Service) {
		s.allocator = a
	}
}

func New(store Store, scheduler Scheduler, opts ...Option) *Service {
	s := &Service{
		store:     store,
		scheduler: scheduler,
		logger:    slog.Default(),
		tracer:    otel.Tracer("tramite/procedure"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	if s.allocator == nil {
		s.allocator = sequence.New(store)
	}
	return s
}

// translate maps store sentinels to coded errors. Coded errors pass through.
func translate(err error, notFound, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, op+" conflicted with a concurrent change")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+" timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
