package domain

import "math"

type ProductCategory string

const (
	CategoryFrozen       ProductCategory = "frozen"
	CategoryChilled      ProductCategory = "chilled"
	CategoryAmbient      ProductCategory = "ambient"
	CategoryUnclassified ProductCategory = "unclassified"
)

// ClassifiedCategories lists the keyword-backed categories in tie-break order.
var ClassifiedCategories = []ProductCategory{CategoryFrozen, CategoryChilled, CategoryAmbient}

type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "C"
	UnitFahrenheit TemperatureUnit = "F"
)

type ComplianceStatus string

const (
	CompliancePass    ComplianceStatus = "pass"
	ComplianceFail    ComplianceStatus = "fail"
	ComplianceWarning ComplianceStatus = "warning"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type OverallCompliance string

const (
	OverallCompliant OverallCompliance = "compliant"
	OverallViolation OverallCompliance = "violation"
	OverallWarning   OverallCompliance = "warning"
	OverallUnknown   OverallCompliance = "unknown"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

const (
	MethodEntityRecognition      = "entity_recognition"
	MethodPatternMatching        = "pattern_matching"
	MethodTextDetection          = "text_detection"
	MethodHandwritingRecognition = "handwriting_recognition"
	MethodFallback               = "fallback"
	MethodEmergencyFallback      = "emergency_fallback"
)

const (
	DateFormatDMY   = "DD/MM/YYYY"
	DateFormatISO   = "YYYY-MM-DD"
	DateFormatOther = "other"
)

// ISOTimestampLayout renders delivery dates as UTC timestamps with millisecond precision.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z"

type LineItem struct {
	Description     string          `json:"description"`
	Quantity        float64         `json:"quantity"`
	UnitSize        string          `json:"unitSize,omitempty"`
	UnitPrice       float64         `json:"unitPrice,omitempty"`
	TotalPrice      float64         `json:"totalPrice,omitempty"`
	SKU             string          `json:"sku,omitempty"`
	ProductCategory ProductCategory `json:"productCategory"`
	Confidence      float64         `json:"confidence"`
	BoundingBox     *BoundingBox    `json:"boundingBox,omitempty"`
}

type TemperatureReading struct {
	Value            float64          `json:"value"`
	Unit             TemperatureUnit  `json:"unit"`
	ProductContext   string           `json:"productContext,omitempty"`
	BoundingBox      *BoundingBox     `json:"boundingBox,omitempty"`
	Confidence       float64          `json:"confidence"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
	RiskLevel        RiskLevel        `json:"riskLevel"`
}

// Celsius returns the reading in degrees Celsius.
func (r TemperatureReading) Celsius() float64 {
	if r.Unit == UnitFahrenheit {
		return FahrenheitToCelsius(r.Value)
	}
	return r.Value
}

type TemperatureRequirement struct {
	Min      float64         `json:"min"`
	Max      float64         `json:"max"`
	Unit     TemperatureUnit `json:"unit"`
	Critical bool            `json:"critical"`
}

// Contains reports whether a Celsius value lies inside the inclusive range.
func (r TemperatureRequirement) Contains(celsius float64) bool {
	return celsius >= r.Min && celsius <= r.Max
}

type ClassifiedProduct struct {
	Name                   string                 `json:"name"`
	Category               ProductCategory        `json:"category"`
	Confidence             float64                `json:"confidence"`
	TemperatureRequirement TemperatureRequirement `json:"temperatureRequirement"`
	RiskLevel              RiskLevel              `json:"riskLevel"`
}

type ClassificationSummary struct {
	TotalProducts     int     `json:"totalProducts"`
	FrozenCount       int     `json:"frozenCount"`
	ChilledCount      int     `json:"chilledCount"`
	AmbientCount      int     `json:"ambientCount"`
	UnclassifiedCount int     `json:"unclassifiedCount"`
	Confidence        float64 `json:"confidence"`
}

type ProductClassification struct {
	Frozen       []ClassifiedProduct   `json:"frozen"`
	Chilled      []ClassifiedProduct   `json:"chilled"`
	Ambient      []ClassifiedProduct   `json:"ambient"`
	Unclassified []ClassifiedProduct   `json:"unclassified"`
	Summary      ClassificationSummary `json:"summary"`
}

// NewEmptyClassification returns a classification with non-nil empty buckets.
func NewEmptyClassification() ProductClassification {
	return ProductClassification{
		Frozen:       []ClassifiedProduct{},
		Chilled:      []ClassifiedProduct{},
		Ambient:      []ClassifiedProduct{},
		Unclassified: []ClassifiedProduct{},
	}
}

// Add places a product in its bucket and keeps the counts in step.
func (c *ProductClassification) Add(p ClassifiedProduct) {
	switch p.Category {
	case CategoryFrozen:
		c.Frozen = append(c.Frozen, p)
		c.Summary.FrozenCount++
	case CategoryChilled:
		c.Chilled = append(c.Chilled, p)
		c.Summary.ChilledCount++
	case CategoryAmbient:
		c.Ambient = append(c.Ambient, p)
		c.Summary.AmbientCount++
	default:
		c.Unclassified = append(c.Unclassified, p)
		c.Summary.UnclassifiedCount++
	}
	c.Summary.TotalProducts++
}

// Bucket returns the products assigned to one category.
func (c ProductClassification) Bucket(category ProductCategory) []ClassifiedProduct {
	switch category {
	case CategoryFrozen:
		return c.Frozen
	case CategoryChilled:
		return c.Chilled
	case CategoryAmbient:
		return c.Ambient
	default:
		return c.Unclassified
	}
}

type RequirementRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type ComplianceViolation struct {
	Product     string           `json:"product"`
	Temperature float64          `json:"temperature"`
	Requirement RequirementRange `json:"requirement"`
	Severity    Severity         `json:"severity"`
}

type ComplianceSummary struct {
	CompliantProducts int `json:"compliantProducts"`
	ViolatingProducts int `json:"violatingProducts"`
	WarningProducts   int `json:"warningProducts"`
}

type ComplianceAnalysis struct {
	OverallCompliance OverallCompliance     `json:"overallCompliance"`
	Violations        []ComplianceViolation `json:"violations"`
	Summary           ComplianceSummary     `json:"summary"`
}

type SupplierField struct {
	Value            string       `json:"value"`
	Confidence       float64      `json:"confidence"`
	BoundingBox      *BoundingBox `json:"boundingBox,omitempty"`
	ExtractionMethod string       `json:"extractionMethod"`
}

type DeliveryDateField struct {
	Value            string       `json:"value"`
	Confidence       float64      `json:"confidence"`
	BoundingBox      *BoundingBox `json:"boundingBox,omitempty"`
	Format           string       `json:"format"`
	ExtractionMethod string       `json:"extractionMethod"`
}

type HandwrittenNotes struct {
	SignedBy         string       `json:"signedBy"`
	Confidence       float64      `json:"confidence"`
	BoundingBox      *BoundingBox `json:"boundingBox,omitempty"`
	ExtractionMethod string       `json:"extractionMethod"`
}

type InvoiceNumberField struct {
	Value            string       `json:"value"`
	Confidence       float64      `json:"confidence"`
	BoundingBox      *BoundingBox `json:"boundingBox,omitempty"`
	ExtractionMethod string       `json:"extractionMethod"`
}

type TemperatureData struct {
	Readings          []TemperatureReading `json:"readings"`
	OverallCompliance OverallCompliance    `json:"overallCompliance"`
	Analysis          ComplianceAnalysis   `json:"analysis"`
}

type ExtractionAnalysis struct {
	ProductClassification ProductClassification `json:"productClassification"`
	EstimatedValue        float64               `json:"estimatedValue"`
	ItemCount             int                   `json:"itemCount"`
	DistinctProductCount  int                   `json:"distinctProductCount"`
	ProcessingTime        int64                 `json:"processingTime"`
	OverallConfidence     float64               `json:"overallConfidence"`
}

type ProcessingMetadata struct {
	DocumentType      string   `json:"documentType"`
	PageCount         int      `json:"pageCount"`
	Language          string   `json:"language"`
	ProcessingStages  []string `json:"processingStages"`
	AIModelVersion    string   `json:"aiModelVersion"`
	FallbackMode      bool     `json:"fallbackMode"`
	EmergencyFallback bool     `json:"emergencyFallback"`
	ProcessingNotes   string   `json:"processingNotes"`
	ErrorDetails      string   `json:"errorDetails,omitempty"`
}

// DocumentAIExtraction is the canonical result record produced for every document.
type DocumentAIExtraction struct {
	Supplier           SupplierField       `json:"supplier"`
	DeliveryDate       DeliveryDateField   `json:"deliveryDate"`
	HandwrittenNotes   HandwrittenNotes    `json:"handwrittenNotes"`
	InvoiceNumber      *InvoiceNumberField `json:"invoiceNumber"`
	TemperatureData    TemperatureData     `json:"temperatureData"`
	LineItems          []LineItem          `json:"lineItems"`
	Analysis           ExtractionAnalysis  `json:"analysis"`
	RawText            string              `json:"rawText"`
	ProcessingMetadata ProcessingMetadata  `json:"processingMetadata"`
}

// ClampConfidence bounds a confidence to [0,1]; NaN becomes 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// RoundConfidence clamps and rounds to three decimals.
func RoundConfidence(v float64) float64 {
	return RoundTo(ClampConfidence(v), 3)
}

func FahrenheitToCelsius(f float64) float64 {
	return RoundTo((f-32)*5/9, 1)
}
