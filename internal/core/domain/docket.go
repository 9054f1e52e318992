package domain

import "time"

type DocketStatus string

const (
	StatusUploaded   DocketStatus = "uploaded"
	StatusProcessing DocketStatus = "processing"
	StatusReady      DocketStatus = "ready"
	StatusReview     DocketStatus = "review"
	StatusFailed     DocketStatus = "failed"
)

// Docket is an uploaded delivery document and the summary of its last extraction.
type Docket struct {
	ID                string            `json:"id"`
	Filename          string            `json:"filename"`
	MimeType          string            `json:"mime_type"`
	StoragePath       string            `json:"storage_path"`
	Status            DocketStatus      `json:"status"`
	SupplierName      string            `json:"supplier_name,omitempty"`
	DeliveryDate      *time.Time        `json:"delivery_date,omitempty"`
	ItemCount         int               `json:"item_count"`
	OverallConfidence float64           `json:"overall_confidence"`
	OverallCompliance OverallCompliance `json:"overall_compliance,omitempty"`
	FallbackMode      bool              `json:"fallback_mode"`
	NeedsReview       bool              `json:"needs_review"`
	Error             string            `json:"error,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ApplyExtraction copies the denormalized summary columns from a finished extraction.
func (d *Docket) ApplyExtraction(ext *DocumentAIExtraction) {
	if ext == nil {
		return
	}
	d.SupplierName = ext.Supplier.Value
	if ts, err := time.Parse(ISOTimestampLayout, ext.DeliveryDate.Value); err == nil {
		d.DeliveryDate = &ts
	}
	d.ItemCount = ext.Analysis.ItemCount
	d.OverallConfidence = ext.Analysis.OverallConfidence
	d.OverallCompliance = ext.TemperatureData.OverallCompliance
	d.FallbackMode = ext.ProcessingMetadata.FallbackMode
}
