// Package store persists areas, procedures, their flow log and attachments.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"tramite/internal/procedure/models"
	id "tramite/pkg/domain"
	"tramite/pkg/platform/sentinel"
)

type counterKey struct {
	agency id.AgencyID
	year   int
}

// InMemoryStore keeps everything in process memory. Each method is atomic;
// multi-step transactions are serialized by the service's sharded tx.
type InMemoryStore struct {
	mu         sync.RWMutex
	areas      map[id.AreaID]*models.Area
	procedures map[id.ProcedureID]*models.Procedure
	flows      map[id.FlowID]*models.Flow
	files      map[id.FileID]*models.File
	counters   map[counterKey]int
	tracking   map[string]id.ProcedureID

	nextArea      id.AreaID
	nextProcedure id.ProcedureID
	nextFlow      id.FlowID
	nextFile      id.FileID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		areas:      make(map[id.AreaID]*models.Area),
		procedures: make(map[id.ProcedureID]*models.Procedure),
		flows:      make(map[id.FlowID]*models.Flow),
		files:      make(map[id.FileID]*models.File),
		counters:   make(map[counterKey]int),
		tracking:   make(map[string]id.ProcedureID),
	}
}

// =============================================================================
// Sequences
// =============================================================================

func (s *InMemoryStore) IncrementProcedureCounter(_ context.Context, agencyID id.AgencyID, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey{agency: agencyID, year: year}
	s.counters[key]++
	return s.counters[key], nil
}

func (s *InMemoryStore) MaxNormalSequence(_ context.Context, procedureID id.ProcedureID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxSeq := 0
	for _, f := range s.flows {
		if f.ProcedureID == procedureID && f.Type == models.FlowNormal && f.Sequence > maxSeq {
			maxSeq = f.Sequence
		}
	}
	return maxSeq, nil
}

func (s *InMemoryStore) TrackingCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tracking[code]
	return ok, nil
}

// =============================================================================
// Areas
// =============================================================================

// CreateArea assigns the next 3-digit code.
func (s *InMemoryStore) CreateArea(_ context.Context, a *models.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextArea++
	a.ID = s.nextArea
	a.Code = fmt.Sprintf("%03d", len(s.areas)+1)
	c := *a
	s.areas[a.ID] = &c
	return nil
}

func (s *InMemoryStore) GetArea(_ context.Context, areaID id.AreaID) (*models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.areas[areaID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *InMemoryStore) FindAreas(_ context.Context, ids []id.AreaID) (map[id.AreaID]*models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.AreaID]*models.Area, len(ids))
	for _, areaID := range ids {
		if a, ok := s.areas[areaID]; ok {
			c := *a
			out[areaID] = &c
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListAreas(_ context.Context, agencyID id.AgencyID) ([]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Area, 0, len(s.areas))
	for _, a := range s.areas {
		if agencyID != 0 && a.AgencyID != agencyID {
			continue
		}
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b models.Area) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}

func (s *InMemoryStore) SetAreaActive(_ context.Context, areaID id.AreaID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[areaID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.IsActive = active
	return nil
}

// =============================================================================
// Procedures
// =============================================================================

func (s *InMemoryStore) CreateProcedure(_ context.Context, p *models.Procedure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.procedures {
		if existing.AgencyID == p.AgencyID && existing.Code == p.Code {
			return fmt.Errorf("procedure code %s: %w", p.Code, sentinel.ErrConflict)
		}
	}
	if p.TrackingCode != "" {
		if _, taken := s.tracking[p.TrackingCode]; taken {
			return fmt.Errorf("tracking code: %w", sentinel.ErrConflict)
		}
	}
	s.nextProcedure++
	p.ID = s.nextProcedure
	c := *p
	s.procedures[p.ID] = &c
	if p.TrackingCode != "" {
		s.tracking[p.TrackingCode] = p.ID
	}
	return nil
}

func (s *InMemoryStore) GetProcedure(_ context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.procedures[procedureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *p
	return &c, nil
}

// LockProcedure is GetProcedure; the sharded tx already holds the
// procedure's lock.
func (s *InMemoryStore) LockProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	return s.GetProcedure(ctx, procedureID)
}

func (s *InMemoryStore) FindProcedures(_ context.Context, ids []id.ProcedureID) (map[id.ProcedureID]*models.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.ProcedureID]*models.Procedure, len(ids))
	for _, pid := range ids {
		if p, ok := s.procedures[pid]; ok {
			c := *p
			out[pid] = &c
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateProcedure(_ context.Context, p *models.Procedure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.procedures[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *p
	s.procedures[p.ID] = &c
	return nil
}

// ListProcedures returns one page, newest first.
func (s *InMemoryStore) ListProcedures(_ context.Context, filter models.ProcedureFilter, page models.Page) ([]*models.Procedure, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Procedure
	for _, p := range s.procedures {
		if filter.Matches(p) {
			c := *p
			matched = append(matched, &c)
		}
	}
	slices.SortFunc(matched, func(a, b *models.Procedure) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return window(matched, page), len(matched), nil
}

// =============================================================================
// Flows
// =============================================================================

func (s *InMemoryStore) InsertFlow(_ context.Context, f *models.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.procedures[f.ProcedureID]; !ok {
		return fmt.Errorf("flow procedure: %w", sentinel.ErrNotFound)
	}
	if f.Type == models.FlowNormal {
		for _, existing := range s.flows {
			if existing.ProcedureID == f.ProcedureID && existing.Type == models.FlowNormal && existing.Sequence == f.Sequence {
				return fmt.Errorf("flow sequence %d: %w", f.Sequence, sentinel.ErrConflict)
			}
		}
	}
	s.nextFlow++
	f.ID = s.nextFlow
	s.flows[f.ID] = f.Clone()
	return nil
}

func (s *InMemoryStore) GetFlow(_ context.Context, flowID id.FlowID) (*models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flows[flowID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return f.Clone(), nil
}

// DeactivateFlow closes an active flow; an already closed flow conflicts.
func (s *InMemoryStore) DeactivateFlow(_ context.Context, flowID id.FlowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[flowID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !f.IsActive {
		return fmt.Errorf("flow %d already closed: %w", flowID, sentinel.ErrConflict)
	}
	f.IsActive = false
	return nil
}

func (s *InMemoryStore) UpdateFlow(_ context.Context, f *models.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[f.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.flows[f.ID] = f.Clone()
	return nil
}

// ListFlows returns the full log of a procedure ordered by sequence.
func (s *InMemoryStore) ListFlows(_ context.Context, procedureID id.ProcedureID) ([]*models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Flow
	for _, f := range s.flows {
		if f.ProcedureID == procedureID {
			out = append(out, f.Clone())
		}
	}
	sortBySequence(out)
	return out, nil
}

func (s *InMemoryStore) CountFlows(_ context.Context, procedureID id.ProcedureID) (total, normal int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.flows {
		if f.ProcedureID != procedureID {
			continue
		}
		total++
		if f.Type == models.FlowNormal {
			normal++
		}
	}
	return total, normal, nil
}

func (s *InMemoryStore) DeleteCopies(_ context.Context, procedureID id.ProcedureID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for fid, f := range s.flows {
		if f.ProcedureID == procedureID && f.Type == models.FlowCopy {
			delete(s.flows, fid)
			n++
		}
	}
	return n, nil
}

// ListCopies groups the COPY flows of procedures by procedure.
func (s *InMemoryStore) ListCopies(_ context.Context, ids []id.ProcedureID) (map[id.ProcedureID][]models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var copies []*models.Flow
	for _, f := range s.flows {
		if f.Type == models.FlowCopy && slices.Contains(ids, f.ProcedureID) {
			copies = append(copies, f.Clone())
		}
	}
	sortBySequence(copies)
	out := make(map[id.ProcedureID][]models.Flow, len(ids))
	for _, f := range copies {
		out[f.ProcedureID] = append(out[f.ProcedureID], *f)
	}
	return out, nil
}

// ListInbox returns one page of matching flows, newest first.
func (s *InMemoryStore) ListInbox(_ context.Context, filter models.InboxFilter, page models.Page) ([]*models.Flow, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Flow
	for _, f := range s.flows {
		if filter.Matches(f) {
			matched = append(matched, f.Clone())
		}
	}
	slices.SortFunc(matched, func(a, b *models.Flow) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return window(matched, page), len(matched), nil
}

// CountInbox splits the matching flows by their procedure's origin area type.
func (s *InMemoryStore) CountInbox(_ context.Context, filter models.InboxFilter) (models.BucketCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts models.BucketCounts
	for _, f := range s.flows {
		if !filter.Matches(f) {
			continue
		}
		p, ok := s.procedures[f.ProcedureID]
		if !ok {
			continue
		}
		origin, ok := s.areas[p.FromAreaID]
		if !ok {
			continue
		}
		switch models.BucketOf(origin.Type) {
		case models.BucketExternal:
			counts.External++
		case models.BucketInternal:
			counts.Internal++
		}
	}
	return counts, nil
}

// FlowHistory returns every flow of the procedures matching q.
func (s *InMemoryStore) FlowHistory(_ context.Context, q models.FlowHistoryQuery) ([]*models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Flow
	for _, f := range s.flows {
		p, ok := s.procedures[f.ProcedureID]
		if !ok || !s.historyMatches(p, q) {
			continue
		}
		out = append(out, f.Clone())
	}
	sortBySequence(out)
	return out, nil
}

func (s *InMemoryStore) historyMatches(p *models.Procedure, q models.FlowHistoryQuery) bool {
	if q.Code != "" && p.Code != q.Code {
		return false
	}
	if q.TrackingCode != "" && (p.TrackingCode != q.TrackingCode || !p.IsVirtual) {
		return false
	}
	if q.OriginType != "" {
		origin, ok := s.areas[p.FromAreaID]
		if !ok || origin.Type != q.OriginType {
			return false
		}
	}
	return true
}

// ReleasePending flips every active PENDING_SCHEDULE flow to SENT.
func (s *InMemoryStore) ReleasePending(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.flows {
		if f.Status != models.StatusPendingSchedule || !f.IsActive {
			continue
		}
		t := now
		f.Status = models.StatusSent
		f.SentAt = &t
		n++
	}
	return n, nil
}

// =============================================================================
// Files
// =============================================================================

func (s *InMemoryStore) InsertFile(_ context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.procedures[f.ProcedureID]; !ok {
		return fmt.Errorf("file procedure: %w", sentinel.ErrNotFound)
	}
	s.nextFile++
	f.ID = s.nextFile
	c := *f
	s.files[f.ID] = &c
	return nil
}

func (s *InMemoryStore) ListFiles(_ context.Context, ids []id.ProcedureID) (map[id.ProcedureID][]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.File
	for _, f := range s.files {
		if slices.Contains(ids, f.ProcedureID) {
			all = append(all, *f)
		}
	}
	slices.SortFunc(all, func(a, b models.File) int { return cmp.Compare(a.ID, b.ID) })
	out := make(map[id.ProcedureID][]models.File, len(ids))
	for _, f := range all {
		out[f.ProcedureID] = append(out[f.ProcedureID], f)
	}
	return out, nil
}

// DeleteFiles removes the listed files of a procedure and returns them.
// Ids that belong to other procedures are ignored.
func (s *InMemoryStore) DeleteFiles(_ context.Context, procedureID id.ProcedureID, fileIDs []id.FileID) ([]models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted []models.File
	for _, fid := range fileIDs {
		f, ok := s.files[fid]
		if !ok || f.ProcedureID != procedureID {
			continue
		}
		deleted = append(deleted, *f)
		delete(s.files, fid)
	}
	return deleted, nil
}

func sortBySequence(flows []*models.Flow) {
	slices.SortFunc(flows, func(a, b *models.Flow) int {
		if c := cmp.Compare(a.Sequence, b.Sequence); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func window[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := len(items)
	if page.Size > 0 && start+page.Size < end {
		end = start + page.Size
	}
	return items[start:end]
}
