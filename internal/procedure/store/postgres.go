package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"tramite/internal/platform/postgres"
	"tramite/internal/procedure/models"
	id "tramite/pkg/domain"
	"tramite/pkg/platform/sentinel"
	"tramite/pkg/platform/tx"
)

// areaCodeLock serializes area code assignment.
const areaCodeLock = 7716002

const flowColumns = `f.id, f.procedure_id, f.flow_type, f.status, f.from_area_id, f.to_area_id,
	f.sequence, f.is_active, f.is_to_finalize, f.is_to_observed, f.is_derive, f.origin_options,
	f.subject, f.subject_derive, f.comment, f.sent_by, f.predecessor_id, f.counterpart_area_id,
	f.registered_out_of_schedule_at, f.sent_at, f.created_at`

const procedureColumns = `p.id, p.agency_id, p.code, p.document_type_id, p.document_number, p.folios,
	p.subject, p.sender_dni, p.sender_name, p.sender_representative, p.sender_address,
	p.sender_phone, p.sender_email, p.from_area_id, p.to_area_id, p.is_virtual, p.is_annulled,
	p.annulled_at, p.tracking_code, p.created_by, p.created_at, p.updated_at`

const areaColumns = `id, agency_id, name, code, initials, area_type, is_active, created_at`

// PostgresStore persists procedures in PostgreSQL. Every method joins the
// transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// =============================================================================
// Sequences
// =============================================================================

// IncrementProcedureCounter creates or bumps the (agency, year) row in one
// statement; the row lock it takes serializes concurrent registrations.
func (s *PostgresStore) IncrementProcedureCounter(ctx context.Context, agencyID id.AgencyID, year int) (int, error) {
	var n int
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO procedure_sequences (agency_id, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (agency_id, year) DO UPDATE
			SET last_number = procedure_sequences.last_number + 1
		RETURNING last_number
	`, int64(agencyID), year).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment procedure counter: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) MaxNormalSequence(ctx context.Context, procedureID id.ProcedureID) (int, error) {
	var n int
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0)
		FROM procedure_flows
		WHERE procedure_id = $1 AND flow_type = 'NR'
	`, int64(procedureID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max flow sequence: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM procedures WHERE tracking_code = $1::text)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tracking code: %w", err)
	}
	return exists, nil
}

// =============================================================================
// Areas
// =============================================================================

// CreateArea assigns the next 3-digit code under an advisory lock.
func (s *PostgresStore) CreateArea(ctx context.Context, a *models.Area) error {
	return tx.Run(ctx, s.db, nil, func(ctx context.Context) error {
		exec := tx.Pick(ctx, s.db)
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, areaCodeLock); err != nil {
			return fmt.Errorf("lock area codes: %w", err)
		}
		var next int
		if err := exec.QueryRowContext(ctx, `SELECT COALESCE(MAX(code::int), 0) + 1 FROM areas`).Scan(&next); err != nil {
			return fmt.Errorf("next area code: %w", err)
		}
		if next > 999 {
			return fmt.Errorf("area codes exhausted: %w", sentinel.ErrInvalidState)
		}
		a.Code = fmt.Sprintf("%03d", next)
		err := exec.QueryRowContext(ctx, `
			INSERT INTO areas (agency_id, name, code, initials, area_type, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, nullID(int64(a.AgencyID)), a.Name, a.Code, a.Initials, string(a.Type), a.IsActive, a.CreatedAt).Scan(&a.ID)
		return postgres.Translate(err, "insert area")
	})
}

func (s *PostgresStore) GetArea(ctx context.Context, areaID id.AreaID) (*models.Area, error) {
	row := tx.Pick(ctx, s.db).QueryRowContext(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = $1`, int64(areaID))
	a, err := scanArea(row)
	if err != nil {
		return nil, postgres.Translate(err, "get area")
	}
	return a, nil
}

func (s *PostgresStore) FindAreas(ctx context.Context, ids []id.AreaID) (map[id.AreaID]*models.Area, error) {
	out := make(map[id.AreaID]*models.Area, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]int64, len(ids))
	for i, v := range ids {
		raw[i] = int64(v)
	}
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT `+areaColumns+` FROM areas WHERE id = ANY($1::bigint[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find areas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListAreas(ctx context.Context, agencyID id.AgencyID) ([]models.Area, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT `+areaColumns+`
		FROM areas
		WHERE $1::bigint = 0 OR agency_id = $1::bigint
		ORDER BY code
	`, int64(agencyID))
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()
	var out []models.Area
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetAreaActive(ctx context.Context, areaID id.AreaID, active bool) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `UPDATE areas SET is_active = $2 WHERE id = $1`, int64(areaID), active)
	if err != nil {
		return fmt.Errorf("update area: %w", err)
	}
	return expectRows(res, "update area")
}

// =============================================================================
// Procedures
// =============================================================================

func (s *PostgresStore) CreateProcedure(ctx context.Context, p *models.Procedure) error {
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO procedures (
			agency_id, code, document_type_id, document_number, folios, subject,
			sender_dni, sender_name, sender_representative, sender_address, sender_phone, sender_email,
			from_area_id, to_area_id, is_virtual, is_annulled, tracking_code, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`,
		int64(p.AgencyID), p.Code, nullID(int64(p.DocumentTypeID)), p.DocumentNumber, p.Folios, p.Subject,
		p.Sender.DNI, p.Sender.Name, p.Sender.Representative, p.Sender.Address, p.Sender.Phone, p.Sender.Email,
		nullID(int64(p.FromAreaID)), int64(p.ToAreaID), p.IsVirtual, p.IsAnnulled, nullString(p.TrackingCode),
		nullID(int64(p.CreatedBy)), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	return postgres.Translate(err, "insert procedure")
}

func (s *PostgresStore) GetProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	return s.getProcedure(ctx, procedureID, "")
}

// LockProcedure reads the procedure row FOR UPDATE so transitions on the
// same procedure run one after another.
func (s *PostgresStore) LockProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	if _, ok := tx.From(ctx); !ok {
		return nil, fmt.Errorf("lock procedure outside transaction: %w", sentinel.ErrInvalidState)
	}
	return s.getProcedure(ctx, procedureID, " FOR UPDATE")
}

func (s *PostgresStore) getProcedure(ctx context.Context, procedureID id.ProcedureID, suffix string) (*models.Procedure, error) {
	row := tx.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+procedureColumns+` FROM procedures p WHERE p.id = $1`+suffix, int64(procedureID))
	p, err := scanProcedure(row)
	if err != nil {
		return nil, postgres.Translate(err, "get procedure")
	}
	return p, nil
}

func (s *PostgresStore) FindProcedures(ctx context.Context, ids []id.ProcedureID) (map[id.ProcedureID]*models.Procedure, error) {
	out := make(map[id.ProcedureID]*models.Procedure, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT `+procedureColumns+` FROM procedures p WHERE p.id = ANY($1::bigint[])`, pq.Array(procedureIDs(ids)))
	if err != nil {
		return nil, fmt.Errorf("find procedures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateProcedure(ctx context.Context, p *models.Procedure) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		UPDATE procedures SET
			document_type_id = $2, document_number = $3, folios = $4, subject = $5,
			sender_dni = $6, sender_name = $7, sender_representative = $8, sender_address = $9,
			sender_phone = $10, sender_email = $11, from_area_id = $12, to_area_id = $13,
			is_virtual = $14, is_annulled = $15, annulled_at = $16, updated_at = $17
		WHERE id = $1
	`,
		int64(p.ID), nullID(int64(p.DocumentTypeID)), p.DocumentNumber, p.Folios, p.Subject,
		p.Sender.DNI, p.Sender.Name, p.Sender.Representative, p.Sender.Address,
		p.Sender.Phone, p.Sender.Email, nullID(int64(p.FromAreaID)), int64(p.ToAreaID),
		p.IsVirtual, p.IsAnnulled, p.AnnulledAt, p.UpdatedAt,
	)
	if err != nil {
		return postgres.Translate(err, "update procedure")
	}
	return expectRows(res, "update procedure")
}

func (s *PostgresStore) ListProcedures(ctx context.Context, filter models.ProcedureFilter, page models.Page) ([]*models.Procedure, int, error) {
	where := `($1::bigint = 0 OR p.from_area_id = $1::bigint)
		AND ($2::bigint = 0 OR p.to_area_id = $2::bigint)
		AND (NOT $3::boolean OR p.is_virtual)`
	args := []any{int64(filter.FromAreaID), int64(filter.ToAreaID), filter.VirtualOnly}
	exec := tx.Pick(ctx, s.db)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM procedures p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count procedures: %w", err)
	}
	rows, err := exec.QueryContext(ctx, `
		SELECT `+procedureColumns+`
		FROM procedures p
		WHERE `+where+`
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $4 OFFSET $5
	`, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list procedures: %w", err)
	}
	defer rows.Close()
	var out []*models.Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan procedure: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// =============================================================================
// Flows
// =============================================================================

func (s *PostgresStore) InsertFlow(ctx context.Context, f *models.Flow) error {
	options := f.OriginOptions
	if options == nil {
		options = []string{}
	}
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO procedure_flows (
			procedure_id, flow_type, status, from_area_id, to_area_id, sequence, is_active,
			is_to_finalize, is_to_observed, is_derive, origin_options, subject, subject_derive,
			comment, sent_by, predecessor_id, counterpart_area_id,
			registered_out_of_schedule_at, sent_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::text[], $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`,
		int64(f.ProcedureID), string(f.Type), string(f.Status), nullID(int64(f.FromAreaID)), int64(f.ToAreaID),
		f.Sequence, f.IsActive, f.IsToFinalize, f.IsToObserved, f.IsDerive, pq.Array(options),
		f.Subject, f.SubjectDerive, f.Comment, nullID(int64(f.SentBy)), nullID(int64(f.PredecessorID)),
		nullID(int64(f.CounterpartAreaID)), f.RegisteredOutOfScheduleAt, f.SentAt, f.CreatedAt,
	).Scan(&f.ID)
	return postgres.Translate(err, "insert flow")
}

func (s *PostgresStore) GetFlow(ctx context.Context, flowID id.FlowID) (*models.Flow, error) {
	row := tx.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+flowColumns+` FROM procedure_flows f WHERE f.id = $1`, int64(flowID))
	f, err := scanFlow(row)
	if err != nil {
		return nil, postgres.Translate(err, "get flow")
	}
	return f, nil
}

// DeactivateFlow closes an active flow; an already closed flow conflicts.
func (s *PostgresStore) DeactivateFlow(ctx context.Context, flowID id.FlowID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx,
		`UPDATE procedure_flows SET is_active = FALSE WHERE id = $1 AND is_active`, int64(flowID))
	if err != nil {
		return fmt.Errorf("deactivate flow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate flow: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("flow %d already closed: %w", flowID, sentinel.ErrConflict)
	}
	return nil
}

// UpdateFlow rewrites the mutable columns of a flow.
func (s *PostgresStore) UpdateFlow(ctx context.Context, f *models.Flow) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		UPDATE procedure_flows SET
			status = $2, is_active = $3, subject = $4, comment = $5,
			from_area_id = $6, to_area_id = $7, sent_at = $8
		WHERE id = $1
	`, int64(f.ID), string(f.Status), f.IsActive, f.Subject, f.Comment,
		nullID(int64(f.FromAreaID)), int64(f.ToAreaID), f.SentAt)
	if err != nil {
		return postgres.Translate(err, "update flow")
	}
	return expectRows(res, "update flow")
}

func (s *PostgresStore) ListFlows(ctx context.Context, procedureID id.ProcedureID) ([]*models.Flow, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT `+flowColumns+`
		FROM procedure_flows f
		WHERE f.procedure_id = $1
		ORDER BY f.sequence, f.id
	`, int64(procedureID))
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	return collectFlows(rows)
}

func (s *PostgresStore) CountFlows(ctx context.Context, procedureID id.ProcedureID) (total, normal int, err error) {
	err = tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE flow_type = 'NR')
		FROM procedure_flows
		WHERE procedure_id = $1
	`, int64(procedureID)).Scan(&total, &normal)
	if err != nil {
		return 0, 0, fmt.Errorf("count flows: %w", err)
	}
	return total, normal, nil
}

func (s *PostgresStore) DeleteCopies(ctx context.Context, procedureID id.ProcedureID) (int, error) {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx,
		`DELETE FROM procedure_flows WHERE procedure_id = $1 AND flow_type = 'CP'`, int64(procedureID))
	if err != nil {
		return 0, fmt.Errorf("delete copies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete copies: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) ListCopies(ctx context.Context, ids []id.ProcedureID) (map[id.ProcedureID][]models.Flow, error) {
	out := make(map[id.ProcedureID][]models.Flow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT `+flowColumns+`
		FROM procedure_flows f
		WHERE f.flow_type = 'CP' AND f.procedure_id = ANY($1::bigint[])
		ORDER BY f.sequence, f.id
	`, pq.Array(procedureIDs(ids)))
	if err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}
	flows, err := collectFlows(rows)
	if err != nil {
		return nil, err
	}
	for _, f := range flows {
		out[f.ProcedureID] = append(out[f.ProcedureID], *f)
	}
	return out, nil
}

func (s *PostgresStore) ListInbox(ctx context.Context, filter models.InboxFilter, page models.Page) ([]*models.Flow, int, error) {
	where, args := inboxWhere(filter)
	exec := tx.Pick(ctx, s.db)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM procedure_flows f WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inbox: %w", err)
	}
	n := len(args)
	rows, err := exec.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM procedure_flows f
		WHERE %s
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $%d OFFSET $%d
	`, flowColumns, where, n+1, n+2), append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inbox: %w", err)
	}
	flows, err := collectFlows(rows)
	if err != nil {
		return nil, 0, err
	}
	return flows, total, nil
}

// CountInbox splits the matching flows by the origin area type of their
// procedure. Procedures without an origin area count in neither bucket.
func (s *PostgresStore) CountInbox(ctx context.Context, filter models.InboxFilter) (models.BucketCounts, error) {
	where, args := inboxWhere(filter)
	var counts models.BucketCounts
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE a.area_type IN ('TE', 'TV')),
			COUNT(*) FILTER (WHERE a.area_type = 'TI')
		FROM procedure_flows f
		JOIN procedures p ON p.id = f.procedure_id
		JOIN areas a ON a.id = p.from_area_id
		WHERE `+where, args...).Scan(&counts.External, &counts.Internal)
	if err != nil {
		return models.BucketCounts{}, fmt.Errorf("count inbox: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) FlowHistory(ctx context.Context, q models.FlowHistoryQuery) ([]*models.Flow, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT `+flowColumns+`
		FROM procedure_flows f
		JOIN procedures p ON p.id = f.procedure_id
		LEFT JOIN areas a ON a.id = p.from_area_id
		WHERE ($1::text = '' OR p.code = $1::text)
			AND ($2::text = '' OR (p.tracking_code = $2::text AND p.is_virtual))
			AND ($3::text = '' OR a.area_type = $3::text)
		ORDER BY f.sequence, f.id
	`, q.Code, q.TrackingCode, string(q.OriginType))
	if err != nil {
		return nil, fmt.Errorf("flow history: %w", err)
	}
	return collectFlows(rows)
}

// ReleasePending flips every active PENDING_SCHEDULE flow to SENT.
func (s *PostgresStore) ReleasePending(ctx context.Context, now time.Time) (int, error) {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		UPDATE procedure_flows
		SET status = 'SENT', sent_at = $1
		WHERE status = 'PENDING_SCHEDULE' AND is_active
	`, now)
	if err != nil {
		return 0, fmt.Errorf("release pending flows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release pending flows: %w", err)
	}
	return int(n), nil
}

// =============================================================================
// Files
// =============================================================================

func (s *PostgresStore) InsertFile(ctx context.Context, f *models.File) error {
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO procedure_files (procedure_id, name, object_key, content_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, int64(f.ProcedureID), f.Name, f.ObjectKey, f.ContentType, f.Size, nullID(int64(f.UploadedBy)), f.CreatedAt).Scan(&f.ID)
	return postgres.Translate(err, "insert file")
}

func (s *PostgresStore) ListFiles(ctx context.Context, ids []id.ProcedureID) (map[id.ProcedureID][]models.File, error) {
	out := make(map[id.ProcedureID][]models.File, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT id, procedure_id, name, object_key, content_type, size_bytes, uploaded_by, created_at
		FROM procedure_files
		WHERE procedure_id = ANY($1::bigint[])
		ORDER BY id
	`, pq.Array(procedureIDs(ids)))
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files, err := collectFiles(rows)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		out[f.ProcedureID] = append(out[f.ProcedureID], f)
	}
	return out, nil
}

// DeleteFiles removes the listed files of a procedure and returns them.
func (s *PostgresStore) DeleteFiles(ctx context.Context, procedureID id.ProcedureID, fileIDs []id.FileID) ([]models.File, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	raw := make([]int64, len(fileIDs))
	for i, v := range fileIDs {
		raw[i] = int64(v)
	}
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, `
		DELETE FROM procedure_files
		WHERE procedure_id = $1 AND id = ANY($2::bigint[])
		RETURNING id, procedure_id, name, object_key, content_type, size_bytes, uploaded_by, created_at
	`, int64(procedureID), pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("delete files: %w", err)
	}
	return collectFiles(rows)
}

// =============================================================================
// Scanning
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanArea(row scanner) (*models.Area, error) {
	var (
		a        models.Area
		agencyID sql.NullInt64
		areaType string
	)
	if err := row.Scan(&a.ID, &agencyID, &a.Name, &a.Code, &a.Initials, &areaType, &a.IsActive, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.AgencyID = id.AgencyID(agencyID.Int64)
	a.Type = models.AreaType(areaType)
	return &a, nil
}

func scanProcedure(row scanner) (*models.Procedure, error) {
	var (
		p            models.Procedure
		docType      sql.NullInt64
		fromArea     sql.NullInt64
		annulledAt   sql.NullTime
		trackingCode sql.NullString
		createdBy    sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.AgencyID, &p.Code, &docType, &p.DocumentNumber, &p.Folios,
		&p.Subject, &p.Sender.DNI, &p.Sender.Name, &p.Sender.Representative, &p.Sender.Address,
		&p.Sender.Phone, &p.Sender.Email, &fromArea, &p.ToAreaID, &p.IsVirtual, &p.IsAnnulled,
		&annulledAt, &trackingCode, &createdBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.DocumentTypeID = id.DocumentTypeID(docType.Int64)
	p.FromAreaID = id.AreaID(fromArea.Int64)
	p.TrackingCode = strings.TrimSpace(trackingCode.String)
	p.CreatedBy = id.UserID(createdBy.Int64)
	if annulledAt.Valid {
		t := annulledAt.Time
		p.AnnulledAt = &t
	}
	return &p, nil
}

func scanFlow(row scanner) (*models.Flow, error) {
	var (
		f                 models.Flow
		flowType, status  string
		fromArea, sentBy  sql.NullInt64
		predecessor       sql.NullInt64
		counterpart       sql.NullInt64
		options           []string
		outOfSchedule, at sql.NullTime
	)
	err := row.Scan(
		&f.ID, &f.ProcedureID, &flowType, &status, &fromArea, &f.ToAreaID,
		&f.Sequence, &f.IsActive, &f.IsToFinalize, &f.IsToObserved, &f.IsDerive, pq.Array(&options),
		&f.Subject, &f.SubjectDerive, &f.Comment, &sentBy, &predecessor, &counterpart,
		&outOfSchedule, &at, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Type = models.FlowType(flowType)
	f.Status = models.Status(status)
	f.FromAreaID = id.AreaID(fromArea.Int64)
	f.SentBy = id.UserID(sentBy.Int64)
	f.PredecessorID = id.FlowID(predecessor.Int64)
	f.CounterpartAreaID = id.AreaID(counterpart.Int64)
	if len(options) > 0 {
		f.OriginOptions = options
	}
	if outOfSchedule.Valid {
		t := outOfSchedule.Time
		f.RegisteredOutOfScheduleAt = &t
	}
	if at.Valid {
		t := at.Time
		f.SentAt = &t
	}
	return &f, nil
}

func collectFlows(rows *sql.Rows) ([]*models.Flow, error) {
	defer rows.Close()
	var out []*models.Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func collectFiles(rows *sql.Rows) ([]models.File, error) {
	defer rows.Close()
	var out []models.File
	for rows.Next() {
		var (
			f          models.File
			uploadedBy sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.ProcedureID, &f.Name, &f.ObjectKey, &f.ContentType, &f.Size, &uploadedBy, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.UploadedBy = id.UserID(uploadedBy.Int64)
		out = append(out, f)
	}
	return out, rows.Err()
}

// inboxWhere renders an InboxFilter over the flow alias f.
func inboxWhere(filter models.InboxFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Type != "" {
		clauses = append(clauses, "f.flow_type = "+arg(string(filter.Type)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		clauses = append(clauses, "f.status = ANY("+arg(pq.Array(statuses))+"::text[])")
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "f.is_active")
	}
	if !filter.ToAreaID.IsZero() {
		clauses = append(clauses, "f.to_area_id = "+arg(int64(filter.ToAreaID)))
	}
	if !filter.FromAreaID.IsZero() {
		clauses = append(clauses, "f.from_area_id = "+arg(int64(filter.FromAreaID)))
	}
	if !filter.CounterpartAreaID.IsZero() {
		clauses = append(clauses, "f.counterpart_area_id = "+arg(int64(filter.CounterpartAreaID)))
	}
	if filter.ExcludeToObserved {
		clauses = append(clauses, "NOT f.is_to_observed")
	}
	if len(clauses) == 0 {
		return "TRUE", nil
	}
	return strings.Join(clauses, " AND "), args
}

func procedureIDs(ids []id.ProcedureID) []int64 {
	out := make([]int64, len(ids))
	for i, v := range ids {
		out[i] = int64(v)
	}
	return out
}

func nullID(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func expectRows(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}
