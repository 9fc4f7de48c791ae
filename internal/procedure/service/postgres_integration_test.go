//go:build integration

package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	calendar "tramite/internal/calendar/models"
	"tramite/internal/platform/postgres"
	"tramite/internal/procedure/models"
	"tramite/internal/procedure/pending"
	"tramite/internal/procedure/service"
	"tramite/internal/procedure/store"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/requestcontext"
	"tramite/pkg/testutil/containers"
)

type fixedScheduler struct {
	mu     sync.Mutex
	result calendar.Result
}

func (f *fixedScheduler) set(r calendar.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = r
}

func (f *fixedScheduler) Classify(context.Context) (calendar.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, nil
}

type PostgresServiceSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.PostgresStore
	scheduler *fixedScheduler
	service   *service.Service
	desk      id.AreaID
	logistics id.AreaID
	legal     id.AreaID
}

func TestPostgresServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresServiceSuite))
}

func (s *PostgresServiceSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresServiceSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"procedure_files", "procedure_flows", "procedures", "procedure_sequences", "areas"))

	s.scheduler = &fixedScheduler{result: calendar.InSchedule}
	s.service = service.New(s.store, s.scheduler, service.WithTx(service.NewPostgresTx(s.postgres.DB)))
	s.desk = s.area("Mesa de partes")
	s.logistics = s.area("Logistica")
	s.legal = s.area("Asesoria legal")
}

func (s *PostgresServiceSuite) area(name string) id.AreaID {
	a, err := s.service.CreateArea(context.Background(), models.CreateAreaInput{AgencyID: 1, Name: name, Type: models.AreaInternal})
	s.Require().NoError(err)
	return a.ID
}

func (s *PostgresServiceSuite) ctx(area id.AreaID) context.Context {
	ctx := requestcontext.WithArea(context.Background(), area)
	return requestcontext.WithTime(ctx, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
}

func (s *PostgresServiceSuite) register(dest ...id.AreaID) *models.RegisterResult {
	res, err := s.service.Register(s.ctx(s.desk), models.RegisterInput{
		AgencyID:           1,
		Subject:            "Solicitud",
		Sender:             models.Sender{Name: "Maria Quispe"},
		FromAreaID:         s.desk,
		DestinationAreaIDs: dest,
	})
	s.Require().NoError(err)
	return res
}

func (s *PostgresServiceSuite) TestAreaCodesAreSequential() {
	areas, err := s.service.ListAreas(context.Background(), 1)
	s.Require().NoError(err)
	s.Require().Len(areas, 3)
	s.Equal("001", areas[0].Code)
	s.Equal("003", areas[2].Code)
}

// TestConcurrentRegistrationCodes verifies the per agency and year counter
// never hands out the same number twice under concurrent registrations.
func (s *PostgresServiceSuite) TestConcurrentRegistrationCodes() {
	const goroutines = 25
	var wg sync.WaitGroup
	codes := make(chan string, goroutines)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.service.Register(s.ctx(s.desk), models.RegisterInput{
				AgencyID:           1,
				Subject:            "Solicitud",
				FromAreaID:         s.desk,
				DestinationAreaIDs: []id.AreaID{s.logistics},
			})
			if s.NoError(err) {
				codes <- res.Procedures[0].Code
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for c := range codes {
		s.False(seen[c], "duplicate code %s", c)
		seen[c] = true
	}
	s.Len(seen, goroutines)
	s.True(seen["000001-2025"])
	s.True(seen["000025-2025"])
}

// TestConcurrentReceiveHasOneWinner verifies the row lock lets exactly one
// receiver take a SENT flow.
func (s *PostgresServiceSuite) TestConcurrentReceiveHasOneWinner() {
	res := s.register(s.logistics)
	flows, err := s.store.ListFlows(context.Background(), res.Procedures[0].ID)
	s.Require().NoError(err)
	s.Require().Len(flows, 1)
	flowID := flows[0].ID

	const goroutines = 10
	var (
		wg       sync.WaitGroup
		wins     atomic.Int32
		notFound atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Receive(s.ctx(s.logistics), flowID)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), notFound.Load())
}

func (s *PostgresServiceSuite) TestDeriveAndHistory() {
	res := s.register(s.logistics)
	code := res.Procedures[0].Code
	flows, err := s.store.ListFlows(context.Background(), res.Procedures[0].ID)
	s.Require().NoError(err)

	received, err := s.service.Receive(s.ctx(s.logistics), flows[0].ID)
	s.Require().NoError(err)
	derived, err := s.service.Derive(s.ctx(s.logistics), received.Flows[0].ID, models.DeriveInput{
		DestinationAreaIDs: []id.AreaID{s.legal},
	})
	s.Require().NoError(err)
	s.Require().Len(derived.Flows, 1)
	s.Equal(3, derived.Flows[0].Sequence)

	history, err := s.service.FlowHistory(context.Background(), models.FlowHistoryQuery{Code: code})
	s.Require().NoError(err)
	s.Len(history, 3)

	inbox, err := s.service.Inbox(s.ctx(s.legal), models.InboxPending, models.NormalizePage(1, 10))
	s.Require().NoError(err)
	s.Equal(1, inbox.Count)
	s.Equal(code, inbox.Results[0].Procedure.Code)
}

func (s *PostgresServiceSuite) TestPendingRelease() {
	s.scheduler.set(calendar.OutOfSchedule)
	res := s.register(s.logistics)
	s.Equal(models.StatusPendingSchedule, res.Status)

	s.scheduler.set(calendar.InSchedule)
	worker := pending.New(s.store, s.scheduler)
	n, err := worker.RunOnce(s.ctx(s.desk))
	s.Require().NoError(err)
	s.Equal(1, n)

	flows, err := s.store.ListFlows(context.Background(), res.Procedures[0].ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSent, flows[0].Status)
	s.NotNil(flows[0].RegisteredOutOfScheduleAt)

	n, err = worker.RunOnce(s.ctx(s.desk))
	s.Require().NoError(err)
	s.Zero(n)
}
