package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const defaultListLimit = 500

type DocketRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocketRepository(db *sql.DB) *DocketRepository {
	return &DocketRepository{db: db, now: time.Now}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocketRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2025081201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS dockets (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	supplier_name TEXT NOT NULL DEFAULT '',
	delivery_date TIMESTAMPTZ,
	item_count INTEGER NOT NULL DEFAULT 0,
	overall_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	overall_compliance TEXT NOT NULL DEFAULT '',
	fallback_mode BOOLEAN NOT NULL DEFAULT FALSE,
	needs_review BOOLEAN NOT NULL DEFAULT FALSE,
	extraction JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dockets_status ON dockets(status);
CREATE INDEX IF NOT EXISTS idx_dockets_created_at ON dockets(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocketRepository) Create(ctx context.Context, docket *domain.Docket) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO dockets (
	id, filename, mime_type, storage_path, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		docket.ID, docket.Filename, docket.MimeType, docket.StoragePath, string(docket.Status),
		docket.Error, docket.CreatedAt, docket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert docket: %w", err)
	}
	return nil
}

const selectDocketColumns = `
SELECT id, filename, mime_type, storage_path, status, supplier_name, delivery_date, item_count,
	overall_confidence, overall_compliance, fallback_mode, needs_review, error_message, created_at, updated_at
FROM dockets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocket(row rowScanner) (*domain.Docket, error) {
	var d domain.Docket
	var status, compliance string
	var deliveryDate sql.NullTime

	err := row.Scan(
		&d.ID, &d.Filename, &d.MimeType, &d.StoragePath, &status, &d.SupplierName, &deliveryDate,
		&d.ItemCount, &d.OverallConfidence, &compliance, &d.FallbackMode, &d.NeedsReview, &d.Error,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DocketStatus(status)
	d.OverallCompliance = domain.OverallCompliance(compliance)
	if deliveryDate.Valid {
		ts := deliveryDate.Time.UTC()
		d.DeliveryDate = &ts
	}
	return &d, nil
}

func (r *DocketRepository) GetByID(ctx context.Context, id string) (*domain.Docket, error) {
	row := r.db.QueryRowContext(ctx, selectDocketColumns+`
WHERE id = $1
`, id)

	d, err := scanDocket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocketNotFound, "get docket", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan docket: %w", err)
	}
	return d, nil
}

func (r *DocketRepository) UpdateStatus(ctx context.Context, id string, status domain.DocketStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE dockets
SET status = $2, error_message = $3, needs_review = $4, updated_at = $5
WHERE id = $1
`, id, string(status), errMessage, status == domain.StatusReview, r.now().UTC())
	if err != nil {
		return fmt.Errorf("update docket status: %w", err)
	}
	return ensureAffected(res, "update docket status", id)
}

// SaveExtraction stores the full record and refreshes the denormalized summary columns.
func (r *DocketRepository) SaveExtraction(ctx context.Context, id string, extraction *domain.DocumentAIExtraction) error {
	if extraction == nil {
		return domain.WrapError(domain.ErrInvalidInput, "save extraction", errors.New("extraction is nil"))
	}
	payload, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}

	var summary domain.Docket
	summary.ApplyExtraction(extraction)
	var deliveryDate sql.NullTime
	if summary.DeliveryDate != nil {
		deliveryDate = sql.NullTime{Time: *summary.DeliveryDate, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE dockets
SET extraction = $2, supplier_name = $3, delivery_date = $4, item_count = $5, overall_confidence = $6,
	overall_compliance = $7, fallback_mode = $8, updated_at = $9
WHERE id = $1
`, id, payload, summary.SupplierName, deliveryDate, summary.ItemCount, summary.OverallConfidence,
		string(summary.OverallCompliance), summary.FallbackMode, r.now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return ensureAffected(res, "save extraction", id)
}

func (r *DocketRepository) GetExtraction(ctx context.Context, id string) (*domain.DocumentAIExtraction, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT extraction FROM dockets WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocketNotFound, "get extraction", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan extraction: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrDocketNotFound, "get extraction", fmt.Errorf("docket %s has no extraction yet", id))
	}

	var out domain.DocumentAIExtraction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return &out, nil
}

// ListProcessed returns dockets that reached a terminal extraction state, newest first.
func (r *DocketRepository) ListProcessed(ctx context.Context, limit int) ([]domain.Docket, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, selectDocketColumns+`
WHERE status IN ($1, $2)
ORDER BY created_at DESC
LIMIT $3
`, string(domain.StatusReady), string(domain.StatusReview), limit)
	if err != nil {
		return nil, fmt.Errorf("list dockets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Docket, 0)
	for rows.Next() {
		d, err := scanDocket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan docket: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dockets: %w", err)
	}
	return out, nil
}

func ensureAffected(res sql.Result, operation, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrDocketNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
