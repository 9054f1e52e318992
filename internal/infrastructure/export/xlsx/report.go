package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	docketsSheet = "Dockets"
	summarySheet = "Summary"
)

var docketHeaders = []string{
	"Docket ID",
	"Filename",
	"Supplier",
	"Delivery Date",
	"Status",
	"Items",
	"Confidence",
	"Compliance",
	"Fallback",
	"Needs Review",
	"Updated At",
}

// ReportWriter renders processed dockets into a two-sheet workbook.
type ReportWriter struct{}

func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

func (ReportWriter) Write(w io.Writer, dockets []domain.Docket) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", docketsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	out := &sheetWriter{f: f, sheet: docketsSheet}
	for i, h := range docketHeaders {
		out.set(i+1, 1, h)
	}

	counts := make(map[domain.OverallCompliance]int)
	review := 0
	for i, d := range dockets {
		row := i + 2
		delivery := ""
		if d.DeliveryDate != nil {
			delivery = d.DeliveryDate.Format("2006-01-02")
		}
		out.set(1, row, d.ID)
		out.set(2, row, d.Filename)
		out.set(3, row, d.SupplierName)
		out.set(4, row, delivery)
		out.set(5, row, string(d.Status))
		out.set(6, row, d.ItemCount)
		out.set(7, row, d.OverallConfidence)
		out.set(8, row, string(d.OverallCompliance))
		out.set(9, row, d.FallbackMode)
		out.set(10, row, d.NeedsReview)
		out.set(11, row, d.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))

		counts[d.OverallCompliance]++
		if d.NeedsReview {
			review++
		}
	}
	out.width("A", "A", 38)
	out.width("B", "C", 28)
	out.width("D", "K", 14)
	if out.err != nil {
		return out.err
	}

	summary := [][2]any{
		{"Total dockets", len(dockets)},
		{"Compliant", counts[domain.OverallCompliant]},
		{"Warning", counts[domain.OverallWarning]},
		{"Violation", counts[domain.OverallViolation]},
		{"Unknown", counts[domain.OverallUnknown]},
		{"Needs review", review},
	}
	sum := &sheetWriter{f: f, sheet: summarySheet}
	for i, kv := range summary {
		sum.set(1, i+1, kv[0])
		sum.set(2, i+1, kv[1])
	}
	sum.width("A", "A", 18)
	if sum.err != nil {
		return sum.err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// sheetWriter keeps the first excelize error so a row loop can stay flat.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(col, row int, v any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = fmt.Errorf("%s cell (%d,%d): %w", s.sheet, col, row, err)
		return
	}
	if err := s.f.SetCellValue(s.sheet, cell, v); err != nil {
		s.err = fmt.Errorf("%s %s: %w", s.sheet, cell, err)
	}
}

func (s *sheetWriter) width(from, to string, w float64) {
	if s.err != nil {
		return
	}
	if err := s.f.SetColWidth(s.sheet, from, to, w); err != nil {
		s.err = fmt.Errorf("%s width %s:%s: %w", s.sheet, from, to, err)
	}
}
