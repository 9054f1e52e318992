package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/extraction"
	"github.com/kirillkom/docket-compliance/internal/core/validation"
)

const (
	StageStructure      = "structure"
	StageEntities       = "entities"
	StageEnhancement    = "enhancement"
	StageClassification = "classification"
	StageCompliance     = "compliance"
	StageValidation     = "validation"
)

const (
	structureFallbackConfidence      = 0.3
	fieldFallbackConfidence          = 0.1
	classificationFallbackConfidence = 0.2
	validationFallbackConfidence     = 0.1
)

var errNoProvider = errors.New("no document ai provider configured")

type stage struct {
	name     string
	run      func(ctx context.Context, st *state) error
	fallback func(ctx context.Context, st *state, cause error) error
}

// state is the per-document scratchpad shared by the stages.
type state struct {
	input domain.DocumentInput

	layout            domain.DocumentLayout
	ocr               domain.OCRDocument
	fields            extraction.Fields
	classification    domain.ProductClassification
	compliance        domain.ComplianceAnalysis
	overallConfidence float64

	completed    []string
	notes        []string
	fallbackMode bool
}

func newState(input domain.DocumentInput) *state {
	return &state{
		input:          input,
		ocr:            domain.OCRDocument{Entities: []domain.Entity{}},
		classification: domain.NewEmptyClassification(),
		compliance: domain.ComplianceAnalysis{
			OverallCompliance: domain.OverallUnknown,
			Violations:        []domain.ComplianceViolation{},
		},
		completed: make([]string, 0, 6),
	}
}

// amendNote adds detail to the note of the stage currently in fallback so
// each degraded stage reports exactly one note.
func (st *state) amendNote(detail string) {
	if len(st.notes) == 0 {
		st.notes = append(st.notes, detail)
		return
	}
	st.notes[len(st.notes)-1] += " (" + detail + ")"
}

func (p *Pipeline) defaultStages() []stage {
	return []stage{
		{name: StageStructure, run: p.analyzeStructure, fallback: p.structureFallback},
		{name: StageEntities, run: p.extractEntities, fallback: p.entitiesFallback},
		{name: StageEnhancement, run: p.enhanceFields, fallback: p.enhancementFallback},
		{name: StageClassification, run: p.classifyProducts, fallback: p.classificationFallback},
		{name: StageCompliance, run: p.analyzeCompliance, fallback: p.complianceFallback},
		{name: StageValidation, run: p.validate, fallback: p.validationFallback},
	}
}

func (p *Pipeline) analyzeStructure(ctx context.Context, st *state) error {
	if p.provider == nil {
		return errNoProvider
	}
	callCtx, cancel := p.providerContext(ctx)
	defer cancel()

	layout, err := p.provider.AnalyzeLayout(callCtx, st.input)
	if err != nil {
		return fmt.Errorf("analyze layout: %w", err)
	}
	st.layout = layout
	return nil
}

func (p *Pipeline) structureFallback(_ context.Context, st *state, _ error) error {
	st.layout = domain.DocumentLayout{
		DocumentType: DocumentTypeUnknown,
		Confidence:   structureFallbackConfidence,
		FallbackMode: true,
	}
	return nil
}

func (p *Pipeline) extractEntities(ctx context.Context, st *state) error {
	if p.provider == nil {
		return errNoProvider
	}
	callCtx, cancel := p.providerContext(ctx)
	defer cancel()

	doc, err := p.provider.ExtractEntities(callCtx, st.input)
	if err != nil {
		return fmt.Errorf("extract entities: %w", err)
	}
	if doc.Entities == nil {
		doc.Entities = []domain.Entity{}
	}
	st.ocr = doc
	return nil
}

// entitiesFallback reads plain text locally. Recognizer errors degrade to empty text.
func (p *Pipeline) entitiesFallback(ctx context.Context, st *state, _ error) error {
	st.ocr = domain.OCRDocument{Entities: []domain.Entity{}}
	if p.recognizer == nil {
		return nil
	}
	text, err := p.recognizer.RecognizeText(ctx, st.input)
	if err != nil {
		p.logger.Warn("local_ocr_failed", "error", err)
		st.amendNote(fmt.Sprintf("local text recognition failed: %v", err))
		return nil
	}
	st.ocr.Text = text
	return nil
}

func (p *Pipeline) enhanceFields(_ context.Context, st *state) error {
	st.fields = p.extractor.Extract(st.ocr.Text, st.ocr.Entities)
	return nil
}

func (p *Pipeline) enhancementFallback(_ context.Context, st *state, _ error) error {
	st.fields = extraction.Fields{
		Supplier: domain.SupplierField{
			Value:            extraction.UnknownSupplier,
			Confidence:       fieldFallbackConfidence,
			ExtractionMethod: domain.MethodFallback,
		},
		DeliveryDate: domain.DeliveryDateField{
			Value:            p.now().UTC().Format(domain.ISOTimestampLayout),
			Confidence:       fieldFallbackConfidence,
			Format:           domain.DateFormatOther,
			ExtractionMethod: domain.MethodFallback,
		},
		HandwrittenNotes: domain.HandwrittenNotes{
			SignedBy:         "Not available",
			Confidence:       fieldFallbackConfidence,
			ExtractionMethod: domain.MethodFallback,
		},
		Temperatures: []domain.TemperatureReading{},
		LineItems:    []domain.LineItem{},
	}
	return nil
}

func (p *Pipeline) classifyProducts(_ context.Context, st *state) error {
	st.classification = p.classifier.ClassifyProducts(st.ocr.Text, st.fields.LineItems)
	for i := range st.fields.LineItems {
		st.fields.LineItems[i].ProductCategory = p.classifier.Classify(st.fields.LineItems[i].Description).Category
	}
	return nil
}

func (p *Pipeline) classificationFallback(_ context.Context, st *state, _ error) error {
	cls := domain.NewEmptyClassification()
	for _, item := range st.fields.LineItems {
		cls.Add(domain.ClassifiedProduct{
			Name:       item.Description,
			Category:   domain.CategoryUnclassified,
			Confidence: classificationFallbackConfidence,
			RiskLevel:  domain.RiskMedium,
		})
	}
	if cls.Summary.TotalProducts > 0 {
		cls.Summary.Confidence = classificationFallbackConfidence
	}
	st.classification = cls
	return nil
}

func (p *Pipeline) analyzeCompliance(_ context.Context, st *state) error {
	res := p.analyzer.Analyze(st.fields.Temperatures, st.classification)
	st.compliance = res.Analysis
	st.fields.Temperatures = res.Readings
	return nil
}

func (p *Pipeline) complianceFallback(_ context.Context, st *state, _ error) error {
	overall := domain.OverallUnknown
	if len(st.fields.Temperatures) > 0 {
		overall = domain.OverallWarning
	}
	st.compliance = domain.ComplianceAnalysis{
		OverallCompliance: overall,
		Violations:        []domain.ComplianceViolation{},
	}
	return nil
}

func (p *Pipeline) validate(_ context.Context, st *state) error {
	out := p.validator.Validate(validation.Input{
		Supplier:       st.fields.Supplier,
		DeliveryDate:   st.fields.DeliveryDate,
		Temperatures:   st.fields.Temperatures,
		LineItems:      st.fields.LineItems,
		Classification: st.classification,
		Compliance:     st.compliance,
	})
	st.fields.Supplier = out.Supplier
	st.fields.DeliveryDate = out.DeliveryDate
	st.fields.Temperatures = out.Temperatures
	st.fields.LineItems = out.LineItems
	st.overallConfidence = out.OverallConfidence
	return nil
}

func (p *Pipeline) validationFallback(_ context.Context, st *state, _ error) error {
	st.overallConfidence = validationFallbackConfidence
	return nil
}
