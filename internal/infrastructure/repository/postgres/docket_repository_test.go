package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

var fixedNow = time.Date(2025, 8, 13, 10, 0, 0, 0, time.UTC)

var docketColumns = []string{
	"id", "filename", "mime_type", "storage_path", "status", "supplier_name", "delivery_date", "item_count",
	"overall_confidence", "overall_compliance", "fallback_mode", "needs_review", "error_message", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*DocketRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocketRepository{db: db, now: func() time.Time { return fixedNow }}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocketNotFound) {
		t.Fatalf("expected ErrDocketNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansSummaryColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	delivered := time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(docketColumns).AddRow(
			"d1", "docket.jpg", "image/jpeg", "d1_docket.jpg", "review", "Fresh Foods Ltd", delivered, 1,
			0.62, "warning", true, true, "", fixedNow, fixedNow,
		))

	got, err := repo.GetByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != domain.StatusReview || got.OverallCompliance != domain.OverallWarning {
		t.Fatalf("unexpected status fields %+v", got)
	}
	if got.DeliveryDate == nil || !got.DeliveryDate.Equal(delivered) {
		t.Fatalf("unexpected delivery date %v", got.DeliveryDate)
	}
	if !got.NeedsReview || !got.FallbackMode || got.ItemCount != 1 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE dockets").
		WithArgs("missing", string(domain.StatusProcessing), "", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrDocketNotFound) {
		t.Fatalf("expected ErrDocketNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusFlagsReview(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE dockets").
		WithArgs("d1", string(domain.StatusReview), "", true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "d1", domain.StatusReview, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveExtractionWritesSummaryColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	ext := &domain.DocumentAIExtraction{
		Supplier:        domain.SupplierField{Value: "Fresh Foods Ltd"},
		DeliveryDate:    domain.DeliveryDateField{Value: "2025-08-12T00:00:00.000Z"},
		TemperatureData: domain.TemperatureData{OverallCompliance: domain.OverallCompliant},
		Analysis:        domain.ExtractionAnalysis{ItemCount: 2, OverallConfidence: 0.81},
	}
	mock.ExpectExec("UPDATE dockets").
		WithArgs("d1", sqlmock.AnyArg(), "Fresh Foods Ltd", sqlmock.AnyArg(), 2, 0.81, "compliant", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveExtraction(context.Background(), "d1", ext); err != nil {
		t.Fatalf("SaveExtraction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveExtractionRejectsNil(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	if err := repo.SaveExtraction(context.Background(), "d1", nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGetExtractionDecodesRecord(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	raw, err := json.Marshal(domain.DocumentAIExtraction{Supplier: domain.SupplierField{Value: "Fresh Foods Ltd"}, RawText: "text"})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	mock.ExpectQuery("SELECT extraction FROM dockets").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"extraction"}).AddRow(raw))

	got, err := repo.GetExtraction(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetExtraction() error = %v", err)
	}
	if got.Supplier.Value != "Fresh Foods Ltd" || got.RawText != "text" {
		t.Fatalf("unexpected extraction %+v", got)
	}
}

func TestGetExtractionMissingRecord(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT extraction FROM dockets").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"extraction"}).AddRow(nil))

	if _, err := repo.GetExtraction(context.Background(), "d1"); !domain.IsKind(err, domain.ErrDocketNotFound) {
		t.Fatalf("expected ErrDocketNotFound, got %v", err)
	}
}

func TestListProcessedClampsLimit(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename").
		WithArgs(string(domain.StatusReady), string(domain.StatusReview), defaultListLimit).
		WillReturnRows(sqlmock.NewRows(docketColumns).
			AddRow("d1", "a.jpg", "image/jpeg", "a", "ready", "Fresh Foods Ltd", nil, 1, 0.9, "compliant", false, false, "", fixedNow, fixedNow).
			AddRow("d2", "b.pdf", "application/pdf", "b", "review", "", nil, 0, 0.3, "unknown", true, true, "", fixedNow, fixedNow))

	got, err := repo.ListProcessed(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListProcessed() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "d1" || got[1].DeliveryDate != nil {
		t.Fatalf("unexpected dockets %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
