package pending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	calendar "tramite/internal/calendar/models"
	"tramite/internal/procedure/models"
	"tramite/internal/procedure/store"
	id "tramite/pkg/domain"
	"tramite/pkg/requestcontext"
)

type fixedScheduler struct {
	result calendar.Result
	err    error
}

func (f *fixedScheduler) Classify(context.Context) (calendar.Result, error) {
	return f.result, f.err
}

type stubLocker struct {
	err      error
	obtained int
	released int
}

func (l *stubLocker) Obtain(context.Context, string, time.Duration) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.obtained++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

type WorkerSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	scheduler *fixedScheduler
	worker    *Worker
	flowID    id.FlowID
	now       time.Time
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	ctx := context.Background()
	s.store = store.NewInMemory()
	s.scheduler = &fixedScheduler{result: calendar.InSchedule}
	s.worker = New(s.store, s.scheduler)
	s.now = time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	origin := &models.Area{AgencyID: 1, Name: "Mesa de partes", Type: models.AreaInternal, IsActive: true}
	dest := &models.Area{AgencyID: 1, Name: "Logistica", Type: models.AreaInternal, IsActive: true}
	s.Require().NoError(s.store.CreateArea(ctx, origin))
	s.Require().NoError(s.store.CreateArea(ctx, dest))

	p := &models.Procedure{AgencyID: 1, Code: "000001-2025", Subject: "Solicitud", FromAreaID: origin.ID, ToAreaID: dest.ID}
	s.Require().NoError(s.store.CreateProcedure(ctx, p))
	registered := s.now.Add(-12 * time.Hour)
	f := &models.Flow{
		ProcedureID:               p.ID,
		Type:                      models.FlowNormal,
		Status:                    models.StatusPendingSchedule,
		FromAreaID:                origin.ID,
		ToAreaID:                  dest.ID,
		Sequence:                  1,
		IsActive:                  true,
		RegisteredOutOfScheduleAt: &registered,
		CreatedAt:                 registered,
	}
	s.Require().NoError(s.store.InsertFlow(ctx, f))
	s.flowID = f.ID
}

func (s *WorkerSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *WorkerSuite) TestRunOnce() {
	s.Run("in schedule releases pending flows", func() {
		n, err := s.worker.RunOnce(s.ctx())
		s.Require().NoError(err)
		s.Equal(1, n)

		f, err := s.store.GetFlow(context.Background(), s.flowID)
		s.Require().NoError(err)
		s.Equal(models.StatusSent, f.Status)
		s.Require().NotNil(f.SentAt)
		s.True(f.SentAt.Equal(s.now))
		s.NotNil(f.RegisteredOutOfScheduleAt)
	})

	s.Run("second run is a no-op", func() {
		n, err := s.worker.RunOnce(s.ctx())
		s.Require().NoError(err)
		s.Zero(n)
	})
}

func (s *WorkerSuite) TestOutsideSchedule() {
	for _, result := range []calendar.Result{calendar.OutOfSchedule, calendar.NoLaborable} {
		s.Run(string(result), func() {
			s.scheduler.result = result
			n, err := s.worker.RunOnce(s.ctx())
			s.Require().NoError(err)
			s.Zero(n)

			f, err := s.store.GetFlow(context.Background(), s.flowID)
			s.Require().NoError(err)
			s.Equal(models.StatusPendingSchedule, f.Status)
		})
	}
}

func (s *WorkerSuite) TestLocking() {
	s.Run("held lock skips the batch", func() {
		w := New(s.store, s.scheduler, WithLocker(&stubLocker{err: ErrLocked}, time.Minute))
		n, err := w.RunOnce(s.ctx())
		s.Require().NoError(err)
		s.Zero(n)
	})

	s.Run("lock failure is returned", func() {
		w := New(s.store, s.scheduler, WithLocker(&stubLocker{err: errors.New("redis down")}, time.Minute))
		_, err := w.RunOnce(s.ctx())
		s.Error(err)
	})

	s.Run("obtained lock is released", func() {
		locker := &stubLocker{}
		w := New(s.store, s.scheduler, WithLocker(locker, time.Minute))
		n, err := w.RunOnce(s.ctx())
		s.Require().NoError(err)
		s.Equal(1, n)
		s.Equal(1, locker.obtained)
		s.Equal(1, locker.released)
	})
}

func (s *WorkerSuite) TestSchedulerFailure() {
	s.scheduler.err = errors.New("calendar unavailable")
	_, err := s.worker.RunOnce(s.ctx())
	s.Error(err)
}

func (s *WorkerSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx())
	cancel()
	err := s.worker.Run(ctx, time.Hour)
	s.ErrorIs(err, context.Canceled)
}
