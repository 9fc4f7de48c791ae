package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	calendar "tramite/internal/calendar/models"
	"tramite/internal/procedure/filestore"
	"tramite/internal/procedure/models"
	"tramite/internal/procedure/notifier"
	"tramite/internal/procedure/store"
	"tramite/internal/sequence"
	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/requestcontext"
)

type stubScheduler struct {
	mu     sync.Mutex
	result calendar.Result
}

func (s *stubScheduler) set(r calendar.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
}

func (s *stubScheduler) Classify(context.Context) (calendar.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, nil
}

type ServiceSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	scheduler *stubScheduler
	files     *filestore.Memory
	notifier  *notifier.Recorder
	service   *Service
	now       time.Time

	desk      id.AreaID // internal front desk, origin of desk registrations
	logistics id.AreaID
	legal     id.AreaID
	archive   id.AreaID
	citizen   id.AreaID // external origin
	intake    id.AreaID // virtual intake
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.scheduler = &stubScheduler{result: calendar.InSchedule}
	s.files = filestore.NewMemory("http://files.test")
	s.notifier = &notifier.Recorder{}
	s.now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	s.desk = s.area("Mesa de partes", models.AreaInternal)
	s.logistics = s.area("Logistica", models.AreaInternal)
	s.legal = s.area("Asesoria legal", models.AreaInternal)
	s.archive = s.area("Archivo", models.AreaInternal)
	s.citizen = s.area("Administrado", models.AreaExternal)
	s.intake = s.area("Mesa virtual", models.AreaVirtual)

	s.service = New(s.store, s.scheduler,
		WithFileStore(s.files),
		WithNotifier(s.notifier),
		WithVirtualRouting(VirtualRouting{AgencyID: 1, IntakeAreaID: s.intake, FrontDeskID: s.desk}),
	)
}

func (s *ServiceSuite) area(name string, t models.AreaType) id.AreaID {
	a := &models.Area{AgencyID: 1, Name: name, Type: t, IsActive: true}
	s.Require().NoError(s.store.CreateArea(context.Background(), a))
	return a.ID
}

// as returns a request context for a caller acting from area.
func (s *ServiceSuite) as(area id.AreaID) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = requestcontext.WithUserID(ctx, 42)
	return requestcontext.WithArea(ctx, area)
}

func (s *ServiceSuite) registration(dest ...id.AreaID) models.RegisterInput {
	return models.RegisterInput{
		AgencyID:           1,
		DocumentNumber:     "OF-001",
		Folios:             3,
		Subject:            "Solicitud de informacion",
		Sender:             models.Sender{DNI: "44556677", Name: "Ana Quispe", Email: "ana@example.com"},
		FromAreaID:         s.citizen,
		DestinationAreaIDs: dest,
	}
}

// register creates a procedure addressed to dest and returns its opening flow.
func (s *ServiceSuite) register(dest id.AreaID) (*models.Procedure, *models.Flow) {
	res, err := s.service.Register(s.as(s.desk), s.registration(dest))
	s.Require().NoError(err)
	s.Require().Len(res.Procedures, 1)
	return res.Procedures[0], s.activeFlow(res.Procedures[0].ID)
}

func (s *ServiceSuite) flows(pid id.ProcedureID) []*models.Flow {
	flows, err := s.store.ListFlows(context.Background(), pid)
	s.Require().NoError(err)
	return flows
}

// activeFlow returns the only active NORMAL flow of pid.
func (s *ServiceSuite) activeFlow(pid id.ProcedureID) *models.Flow {
	var active []*models.Flow
	for _, f := range s.flows(pid) {
		if f.Type == models.FlowNormal && f.IsActive {
			active = append(active, f)
		}
	}
	s.Require().Len(active, 1)
	return active[0]
}

func (s *ServiceSuite) received(dest id.AreaID) (*models.Procedure, *models.Flow) {
	p, f := s.register(dest)
	res, err := s.service.Receive(s.as(dest), f.ID)
	s.Require().NoError(err)
	return p, &res.Flows[0]
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

// =============================================================================
// Registration
// =============================================================================

func (s *ServiceSuite) TestRegister() {
	s.Run("one procedure per destination with copies and files", func() {
		in := s.registration(s.logistics, s.legal)
		in.CopyAreaIDs = []id.AreaID{s.archive}
		in.Files = []models.Upload{{Name: "oficio.PDF", ContentType: "application/pdf", Data: []byte("%PDF-1.7")}}

		res, err := s.service.Register(s.as(s.desk), in)
		s.Require().NoError(err)
		s.Equal(models.StatusSent, res.Status)
		s.False(res.Deferred())
		s.Equal("Procedure registered successfully.", res.Message)
		s.Require().Len(res.Procedures, 2)
		s.Equal("000001-2025", res.Procedures[0].Code)
		s.Equal("000002-2025", res.Procedures[1].Code)

		for i, dest := range []id.AreaID{s.logistics, s.legal} {
			p := res.Procedures[i]
			flows := s.flows(p.ID)
			s.Require().Len(flows, 2)
			initial := s.activeFlow(p.ID)
			s.Equal(dest, initial.ToAreaID)
			s.Equal(s.citizen, initial.FromAreaID)
			s.Equal(1, initial.Sequence)
			s.Equal(models.StatusSent, initial.Status)
			s.NotNil(initial.SentAt)
			s.Nil(initial.RegisteredOutOfScheduleAt)

			files, err := s.store.ListFiles(context.Background(), []id.ProcedureID{p.ID})
			s.Require().NoError(err)
			s.Require().Len(files[p.ID], 1)
			s.Contains(files[p.ID][0].ObjectKey, fmt.Sprintf("procedures/agency_1/%s/", p.Code))
			s.Contains(files[p.ID][0].ObjectKey, ".pdf")
		}

		copies, err := s.store.ListCopies(context.Background(), []id.ProcedureID{res.Procedures[0].ID})
		s.Require().NoError(err)
		s.Require().Len(copies[res.Procedures[0].ID], 1)
		cp := copies[res.Procedures[0].ID][0]
		s.Equal(s.archive, cp.ToAreaID)
		s.Equal(1, cp.Sequence)
		s.Equal(models.StatusSent, cp.Status)
		s.Len(s.files.Keys(), 2)
		s.Empty(s.notifier.Sent())
	})

	s.Run("out of schedule defers the flows", func() {
		s.scheduler.set(calendar.OutOfSchedule)
		defer s.scheduler.set(calendar.InSchedule)

		in := s.registration(s.logistics)
		in.CopyAreaIDs = []id.AreaID{s.archive}
		res, err := s.service.Register(s.as(s.desk), in)
		s.Require().NoError(err)
		s.True(res.Deferred())
		s.Contains(res.Message, "next business day")

		for _, f := range s.flows(res.Procedures[0].ID) {
			s.Equal(models.StatusPendingSchedule, f.Status)
			s.NotNil(f.RegisteredOutOfScheduleAt)
			s.Nil(f.SentAt)
		}
	})

	s.Run("non working day creates nothing", func() {
		s.scheduler.set(calendar.NoLaborable)
		defer s.scheduler.set(calendar.InSchedule)

		before, _, err := s.store.ListProcedures(context.Background(), models.ProcedureFilter{}, models.NormalizePage(1, 100))
		s.Require().NoError(err)
		_, err = s.service.Register(s.as(s.desk), s.registration(s.logistics))
		s.requireCode(err, dErrors.CodeValidation)
		after, _, err := s.store.ListProcedures(context.Background(), models.ProcedureFilter{}, models.NormalizePage(1, 100))
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("destination and copy must be disjoint", func() {
		in := s.registration(s.logistics)
		in.CopyAreaIDs = []id.AreaID{s.logistics}
		_, err := s.service.Register(s.as(s.desk), in)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("missing destination", func() {
		_, err := s.service.Register(s.as(s.desk), s.registration())
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown or inactive area", func() {
		_, err := s.service.Register(s.as(s.desk), s.registration(9999))
		s.requireCode(err, dErrors.CodeValidation)

		closed := s.area("Cerrada", models.AreaInternal)
		_, err = s.service.SetAreaActive(context.Background(), closed, false)
		s.Require().NoError(err)
		_, err = s.service.Register(s.as(s.desk), s.registration(closed))
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("subject is required", func() {
		in := s.registration(s.logistics)
		in.Subject = "   "
		_, err := s.service.Register(s.as(s.desk), in)
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestRegisterConcurrentCodes() {
	const n = 20
	var wg sync.WaitGroup
	codes := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.service.Register(s.as(s.desk), s.registration(s.logistics))
			if err == nil {
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
	s.Len(seen, n)
	for i := 1; i <= n; i++ {
		s.True(seen[sequence.FormatProcedureCode(i, 2025)], "missing code %d", i)
	}
}

func (s *ServiceSuite) TestRegisterVirtual() {
	s.Run("routes intake to front desk with tracking code", func() {
		in := s.registration(s.logistics)
		in.CopyAreaIDs = []id.AreaID{s.archive}
		in.FromAreaID = s.citizen

		res, err := s.service.RegisterVirtual(requestcontext.WithTime(context.Background(), s.now), in)
		s.Require().NoError(err)
		s.Require().Len(res.Procedures, 1)
		p := res.Procedures[0]
		s.True(p.IsVirtual)
		s.Len(p.TrackingCode, sequence.TrackingCodeLength)
		s.Equal(s.intake, p.FromAreaID)
		s.Equal(s.desk, p.ToAreaID)
		s.Contains(res.Message, p.TrackingCode)
		s.Len(s.flows(p.ID), 1)

		sent := s.notifier.Sent()
		s.Require().Len(sent, 1)
		s.Equal(p.TrackingCode, sent[0].TrackingCode)
		s.False(sent[0].OutOfSchedule)
	})

	s.Run("sender without email is not notified", func() {
		before := len(s.notifier.Sent())
		in := s.registration()
		in.Sender.Email = ""
		_, err := s.service.RegisterVirtual(context.Background(), in)
		s.Require().NoError(err)
		s.Len(s.notifier.Sent(), before)
	})

	s.Run("notifier failure does not fail registration", func() {
		s.notifier.FailWith(errors.New("broker down"))
		defer s.notifier.FailWith(nil)
		res, err := s.service.RegisterVirtual(context.Background(), s.registration())
		s.Require().NoError(err)
		s.NotEmpty(res.TrackingCode())
	})

	s.Run("deferred message", func() {
		s.scheduler.set(calendar.OutOfSchedule)
		defer s.scheduler.set(calendar.InSchedule)
		res, err := s.service.RegisterVirtual(context.Background(), s.registration())
		s.Require().NoError(err)
		s.Contains(res.Message, "next business day")
		s.Contains(res.Message, res.TrackingCode())
	})
}

// =============================================================================
// Transitions
// =============================================================================

func (s *ServiceSuite) TestReceive() {
	s.Run("wrong area leaves the flow untouched", func() {
		_, f := s.register(s.logistics)
		_, err := s.service.Receive(s.as(s.legal), f.ID)
		s.requireCode(err, dErrors.CodeValidation)

		got, err := s.store.GetFlow(context.Background(), f.ID)
		s.Require().NoError(err)
		s.True(got.IsActive)
		s.Equal(models.StatusSent, got.Status)
	})

	s.Run("missing area header", func() {
		_, f := s.register(s.logistics)
		_, err := s.service.Receive(requestcontext.WithTime(context.Background(), s.now), f.ID)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("appends a received flow", func() {
		p, f := s.register(s.logistics)
		res, err := s.service.Receive(s.as(s.logistics), f.ID)
		s.Require().NoError(err)
		s.Require().Len(res.Flows, 1)
		s.Equal(models.StatusReceived, res.Flows[0].Status)
		s.Equal(2, res.Flows[0].Sequence)
		s.Equal(f.ID, res.Flows[0].PredecessorID)

		old, err := s.store.GetFlow(context.Background(), f.ID)
		s.Require().NoError(err)
		s.False(old.IsActive)
		s.Equal(res.Flows[0].ID, s.activeFlow(p.ID).ID)
	})

	s.Run("second receive is not found", func() {
		_, f := s.register(s.logistics)
		_, err := s.service.Receive(s.as(s.logistics), f.ID)
		s.Require().NoError(err)
		_, err = s.service.Receive(s.as(s.logistics), f.ID)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("unknown flow", func() {
		_, err := s.service.Receive(s.as(s.logistics), 99999)
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestConcurrentReceiveHasOneWinner() {
	p, f := s.register(s.logistics)
	const n = 10
	var (
		wg       sync.WaitGroup
		ok       atomic.Int32
		notFound atomic.Int32
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Receive(s.as(s.logistics), f.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(n-1), notFound.Load())
	s.Len(s.flows(p.ID), 2)
}

func (s *ServiceSuite) TestDerive() {
	s.Run("fans out destinations and copies", func() {
		p, recv := s.received(s.logistics)
		res, err := s.service.Derive(s.as(s.logistics), recv.ID, models.DeriveInput{
			DestinationAreaIDs: []id.AreaID{s.legal, s.archive},
			CopyAreaIDs:        []id.AreaID{s.desk},
			OriginOptions:      []string{"authorized"},
			SubjectDerive:      "Para opinion legal",
		})
		s.Require().NoError(err)
		s.Require().Len(res.Flows, 3)

		var normal, copies int
		for _, f := range res.Flows {
			s.Equal(models.StatusSent, f.Status)
			s.True(f.IsToFinalize)
			s.True(f.IsDerive)
			s.Equal(s.logistics, f.FromAreaID)
			if f.IsCopy() {
				copies++
				s.Equal(1, f.Sequence)
				continue
			}
			normal++
		}
		s.Equal(2, normal)
		s.Equal(1, copies)
		s.Equal(3, res.Flows[0].Sequence)
		s.Equal(4, res.Flows[1].Sequence)

		old, err := s.store.GetFlow(context.Background(), recv.ID)
		s.Require().NoError(err)
		s.False(old.IsActive)
		s.Len(s.flows(p.ID), 5)
	})

	s.Run("destination overlapping copies", func() {
		_, recv := s.received(s.logistics)
		_, err := s.service.Derive(s.as(s.logistics), recv.ID, models.DeriveInput{
			DestinationAreaIDs: []id.AreaID{s.legal},
			CopyAreaIDs:        []id.AreaID{s.legal},
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("requires a received flow", func() {
		_, f := s.register(s.logistics)
		_, err := s.service.Derive(s.as(s.logistics), f.ID, models.DeriveInput{DestinationAreaIDs: []id.AreaID{s.legal}})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("attaches files to the procedure", func() {
		p, recv := s.received(s.logistics)
		_, err := s.service.Derive(s.as(s.logistics), recv.ID, models.DeriveInput{
			DestinationAreaIDs: []id.AreaID{s.legal},
			Files:              []models.Upload{{Name: "informe.pdf", Data: []byte("%PDF-1.4")}},
		})
		s.Require().NoError(err)
		files, err := s.store.ListFiles(context.Background(), []id.ProcedureID{p.ID})
		s.Require().NoError(err)
		s.Len(files[p.ID], 1)
	})
}

func (s *ServiceSuite) TestFinalize() {
	_, recv := s.received(s.logistics)

	_, err := s.service.Finalize(s.as(s.legal), recv.ID)
	s.requireCode(err, dErrors.CodeValidation)

	res, err := s.service.Finalize(s.as(s.logistics), recv.ID)
	s.Require().NoError(err)
	f := res.Flows[0]
	s.Equal(models.StatusFinalized, f.Status)
	s.Equal(s.logistics, f.FromAreaID)
	s.Equal(s.logistics, f.ToAreaID)
	s.True(f.IsActive)
}

func (s *ServiceSuite) TestRejectAndObserve() {
	s.Run("reject records the counterpart", func() {
		_, f := s.register(s.logistics)
		res, err := s.service.Reject(s.as(s.logistics), f.ID, "incompleto")
		s.Require().NoError(err)
		r := res.Flows[0]
		s.Equal(models.StatusRejected, r.Status)
		s.Equal("incompleto", r.Comment)
		s.Equal(s.citizen, r.CounterpartAreaID)

		page, err := s.service.Inbox(s.as(s.citizen), models.InboxRejected, models.NormalizePage(1, 10))
		s.Require().NoError(err)
		s.Equal(1, page.Count)
		s.Equal(r.ID, page.Results[0].ID)
	})

	s.Run("reject requires a sent flow", func() {
		_, recv := s.received(s.logistics)
		_, err := s.service.Reject(s.as(s.logistics), recv.ID, "x")
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("observe then resend applies corrections", func() {
		p, recv := s.received(s.logistics)
		obs, err := s.service.Observe(s.as(s.logistics), recv.ID, "falta firma")
		s.Require().NoError(err)
		s.Equal(models.StatusObserved, obs.Flows[0].Status)

		number := "OF-001-A"
		folios := 5
		res, err := s.service.Resend(s.as(s.citizen), obs.Flows[0].ID, models.ResendInput{
			DestinationAreaID: s.logistics,
			Subject:           "Subsanado",
			DocumentNumber:    &number,
			Folios:            &folios,
		})
		s.Require().NoError(err)
		sent := res.Flows[0]
		s.Equal(models.StatusSent, sent.Status)
		s.True(sent.IsToObserved)
		s.Equal(s.citizen, sent.FromAreaID)
		s.Equal(4, sent.Sequence)

		got, err := s.store.GetProcedure(context.Background(), p.ID)
		s.Require().NoError(err)
		s.Equal("OF-001-A", got.DocumentNumber)
		s.Equal(5, got.Folios)

		page, err := s.service.Inbox(s.as(s.citizen), models.InboxSent, models.NormalizePage(1, 10))
		s.Require().NoError(err)
		for _, v := range page.Results {
			s.NotEqual(sent.ID, v.ID)
		}
	})

	s.Run("resend drops the listed attachments of its procedure", func() {
		in := s.registration(s.logistics, s.legal)
		in.Files = []models.Upload{{Name: "oficio.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7")}}
		reg, err := s.service.Register(s.as(s.desk), in)
		s.Require().NoError(err)
		s.Require().Len(reg.Procedures, 2)
		p, other := reg.Procedures[0], reg.Procedures[1]

		files, err := s.store.ListFiles(context.Background(), []id.ProcedureID{p.ID, other.ID})
		s.Require().NoError(err)
		s.Require().Len(files[p.ID], 1)
		s.Require().Len(files[other.ID], 1)
		blobs := len(s.files.Keys())

		recv, err := s.service.Receive(s.as(s.logistics), s.activeFlow(p.ID).ID)
		s.Require().NoError(err)
		obs, err := s.service.Observe(s.as(s.logistics), recv.Flows[0].ID, "")
		s.Require().NoError(err)
		s.Empty(obs.Flows[0].Comment)

		_, err = s.service.Resend(s.as(s.citizen), obs.Flows[0].ID, models.ResendInput{
			DestinationAreaID: s.logistics,
			DeleteFileIDs:     []id.FileID{files[p.ID][0].ID, files[other.ID][0].ID},
		})
		s.Require().NoError(err)

		files, err = s.store.ListFiles(context.Background(), []id.ProcedureID{p.ID, other.ID})
		s.Require().NoError(err)
		s.Empty(files[p.ID])
		s.Len(files[other.ID], 1)
		s.Len(s.files.Keys(), blobs-1)
	})

	s.Run("resend of a derived observation keeps the procedure", func() {
		p, recv := s.received(s.logistics)
		der, err := s.service.Derive(s.as(s.logistics), recv.ID, models.DeriveInput{DestinationAreaIDs: []id.AreaID{s.legal}})
		s.Require().NoError(err)
		recv2, err := s.service.Receive(s.as(s.legal), der.Flows[0].ID)
		s.Require().NoError(err)
		obs, err := s.service.Observe(s.as(s.legal), recv2.Flows[0].ID, "revisar")
		s.Require().NoError(err)

		folios := 99
		_, err = s.service.Resend(s.as(s.logistics), obs.Flows[0].ID, models.ResendInput{DestinationAreaID: s.legal, Folios: &folios})
		s.Require().NoError(err)
		got, err := s.store.GetProcedure(context.Background(), p.ID)
		s.Require().NoError(err)
		s.Equal(3, got.Folios)
	})
}

func (s *ServiceSuite) TestSequencesAreGapFree() {
	p, f := s.register(s.logistics)
	recv, err := s.service.Receive(s.as(s.logistics), f.ID)
	s.Require().NoError(err)
	der, err := s.service.Derive(s.as(s.logistics), recv.Flows[0].ID, models.DeriveInput{DestinationAreaIDs: []id.AreaID{s.legal}})
	s.Require().NoError(err)
	_, err = s.service.Receive(s.as(s.legal), der.Flows[0].ID)
	s.Require().NoError(err)

	var seqs []int
	for _, fl := range s.flows(p.ID) {
		if fl.Type == models.FlowNormal {
			seqs = append(seqs, fl.Sequence)
		}
	}
	s.Equal([]int{1, 2, 3, 4}, seqs)
}

// =============================================================================
// Edits
// =============================================================================

func (s *ServiceSuite) TestAnnul() {
	s.Run("sole flow is annulled", func() {
		p, f := s.register(s.logistics)
		got, err := s.service.Annul(s.as(s.desk), p.ID, "duplicado")
		s.Require().NoError(err)
		s.True(got.IsAnnulled)
		s.NotNil(got.AnnulledAt)

		fl, err := s.store.GetFlow(context.Background(), f.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAnnulled, fl.Status)
		s.False(fl.IsActive)
		s.Equal("duplicado", fl.Comment)

		_, err = s.service.Annul(s.as(s.desk), p.ID, "otra vez")
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("routed procedure cannot be annulled", func() {
		p, _ := s.received(s.logistics)
		_, err := s.service.Annul(s.as(s.desk), p.ID, "x")
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown procedure", func() {
		_, err := s.service.Annul(s.as(s.desk), 99999, "x")
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestUpdateProcedure() {
	s.Run("edits and syncs the single flow", func() {
		p, f := s.register(s.logistics)
		subject := "Asunto corregido"
		in := models.UpdateInput{
			Subject:  &subject,
			ToAreaID: &s.legal,
			AddFiles: []models.Upload{{Name: "anexo.pdf", Data: []byte("%PDF-1.4")}},
		}
		got, err := s.service.UpdateProcedure(s.as(s.desk), p.ID, in)
		s.Require().NoError(err)
		s.Equal(subject, got.Subject)
		s.Equal(s.legal, got.ToAreaID)

		fl, err := s.store.GetFlow(context.Background(), f.ID)
		s.Require().NoError(err)
		s.Equal(subject, fl.Subject)
		s.Equal(s.legal, fl.ToAreaID)

		files, err := s.store.ListFiles(context.Background(), []id.ProcedureID{p.ID})
		s.Require().NoError(err)
		s.Require().Len(files[p.ID], 1)

		_, err = s.service.UpdateProcedure(s.as(s.desk), p.ID, models.UpdateInput{DeleteFileIDs: []id.FileID{files[p.ID][0].ID}})
		s.Require().NoError(err)
		files, err = s.store.ListFiles(context.Background(), []id.ProcedureID{p.ID})
		s.Require().NoError(err)
		s.Empty(files[p.ID])
		s.Empty(s.files.Keys())
	})

	s.Run("locked after routing", func() {
		p, _ := s.received(s.logistics)
		subject := "tarde"
		_, err := s.service.UpdateProcedure(s.as(s.desk), p.ID, models.UpdateInput{Subject: &subject})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("negative folios", func() {
		p, _ := s.register(s.logistics)
		folios := -1
		_, err := s.service.UpdateProcedure(s.as(s.desk), p.ID, models.UpdateInput{Folios: &folios})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestReplaceCopies() {
	s.Run("replaces every copy", func() {
		in := s.registration(s.logistics)
		in.CopyAreaIDs = []id.AreaID{s.archive}
		res, err := s.service.Register(s.as(s.desk), in)
		s.Require().NoError(err)
		p := res.Procedures[0]

		copies, err := s.service.ReplaceCopies(s.as(s.desk), p.ID, []id.AreaID{s.legal, s.desk})
		s.Require().NoError(err)
		s.Len(copies, 2)

		listed, err := s.store.ListCopies(context.Background(), []id.ProcedureID{p.ID})
		s.Require().NoError(err)
		s.Require().Len(listed[p.ID], 2)
		for _, c := range listed[p.ID] {
			s.NotEqual(s.archive, c.ToAreaID)
			s.Equal(models.StatusSent, c.Status)
		}
	})

	s.Run("destination cannot be a copy", func() {
		p, _ := s.register(s.logistics)
		_, err := s.service.ReplaceCopies(s.as(s.desk), p.ID, []id.AreaID{s.logistics})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("routed procedure is locked", func() {
		p, _ := s.received(s.logistics)
		_, err := s.service.ReplaceCopies(s.as(s.desk), p.ID, []id.AreaID{s.legal})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

// =============================================================================
// Queries
// =============================================================================

func (s *ServiceSuite) TestInboxAndDashboard() {
	_, pending := s.register(s.logistics)
	s.register(s.logistics)
	_, recv := s.received(s.logistics)

	page, err := s.service.Inbox(s.as(s.logistics), models.InboxPending, models.NormalizePage(1, 10))
	s.Require().NoError(err)
	s.Equal(2, page.Count)
	s.Equal(s.citizen, page.Results[0].FromArea.ID)
	s.NotEmpty(page.Results[0].Procedure.Code)

	page, err = s.service.Inbox(s.as(s.logistics), models.InboxPending, models.NormalizePage(2, 1))
	s.Require().NoError(err)
	s.Equal(2, page.Count)
	s.Require().Len(page.Results, 1)
	s.Equal(pending.ID, page.Results[0].ID)

	page, err = s.service.Inbox(s.as(s.logistics), models.InboxReceived, models.NormalizePage(1, 10))
	s.Require().NoError(err)
	s.Equal(1, page.Count)
	s.Equal(recv.ID, page.Results[0].ID)

	rows, err := s.service.Dashboard(s.as(s.logistics))
	s.Require().NoError(err)
	s.Require().Len(rows, len(models.DashboardKinds))
	s.Equal(models.InboxPending, rows[0].Kind)
	s.Equal("Pendientes", rows[0].Title)
	s.Equal(2, rows[0].External)
	s.Equal(0, rows[0].Internal)
	s.Equal(2, rows[0].Total)
	s.Equal(1, rows[1].Total)

	_, err = s.service.Dashboard(requestcontext.WithTime(context.Background(), s.now))
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestFlowHistory() {
	p, recv := s.received(s.logistics)

	views, err := s.service.FlowHistory(context.Background(), models.FlowHistoryQuery{Code: p.Code})
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal(1, views[0].Sequence)
	s.Equal(recv.ID, views[1].ID)
	s.Equal(p.Code, views[1].Procedure.Code)

	views, err = s.service.FlowHistory(context.Background(), models.FlowHistoryQuery{})
	s.Require().NoError(err)
	s.Empty(views)

	views, err = s.service.FlowHistory(context.Background(), models.FlowHistoryQuery{TrackingCode: "ZZZZZZ"})
	s.Require().NoError(err)
	s.Empty(views)
}

func (s *ServiceSuite) TestListProcedures() {
	in := s.registration(s.logistics)
	in.CopyAreaIDs = []id.AreaID{s.archive}
	in.Files = []models.Upload{{Name: "a.pdf", Data: []byte("%PDF-1.4")}}
	_, err := s.service.Register(s.as(s.desk), in)
	s.Require().NoError(err)
	_, err = s.service.RegisterVirtual(context.Background(), s.registration())
	s.Require().NoError(err)

	page, err := s.service.ListProcedures(s.as(s.citizen), models.NormalizePage(1, 10))
	s.Require().NoError(err)
	s.Equal(1, page.Count)
	v := page.Results[0]
	s.Len(v.Copies, 1)
	s.Require().Len(v.Files, 1)
	s.Contains(v.Files[0].URL, "http://files.test/procedures/")
	s.Equal(s.logistics, v.ToArea.ID)

	virtual, err := s.service.ListVirtualProcedures(s.as(s.desk), models.NormalizePage(1, 10))
	s.Require().NoError(err)
	s.Equal(1, virtual.Count)
	s.True(virtual.Results[0].IsVirtual)

	_, err = s.service.ListProcedures(context.Background(), models.NormalizePage(1, 10))
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestAreas() {
	a, err := s.service.CreateArea(context.Background(), models.CreateAreaInput{AgencyID: 1, Name: " Tesoreria ", Initials: "tes", Type: models.AreaInternal})
	s.Require().NoError(err)
	s.Equal("Tesoreria", a.Name)
	s.Equal("TES", a.Initials)
	s.Equal("007", a.Code)
	s.True(a.IsActive)

	_, err = s.service.CreateArea(context.Background(), models.CreateAreaInput{Name: "x", Type: "XX"})
	s.requireCode(err, dErrors.CodeValidation)

	got, err := s.service.SetAreaActive(context.Background(), a.ID, false)
	s.Require().NoError(err)
	s.False(got.IsActive)

	_, err = s.service.SetAreaActive(context.Background(), 99999, true)
	s.requireCode(err, dErrors.CodeNotFound)

	areas, err := s.service.ListAreas(context.Background(), 1)
	s.Require().NoError(err)
	s.Len(areas, 7)
}
