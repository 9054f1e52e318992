package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/classification"
	"github.com/kirillkom/docket-compliance/internal/core/compliance"
	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/extraction"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
	"github.com/kirillkom/docket-compliance/internal/core/validation"
)

const (
	DefaultAIModelVersion = "document-ai-enhanced-v1.2"
	allStagesOK           = "All stages completed successfully"
)

type FieldExtractor interface {
	Extract(text string, entities []domain.Entity) extraction.Fields
}

type ProductClassifier interface {
	Classify(description string) classification.Result
	ClassifyProducts(text string, items []domain.LineItem) domain.ProductClassification
}

type ComplianceAnalyzer interface {
	Analyze(readings []domain.TemperatureReading, cls domain.ProductClassification) compliance.Result
}

type Validator interface {
	Validate(in validation.Input) validation.Output
}

// Observer receives pipeline outcomes, typically for metrics.
type Observer interface {
	StageFallback(stage string)
	EmergencyFallback()
	ExtractionCompleted(overallConfidence float64, fallbackMode bool, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) StageFallback(string) {}
func (noopObserver) EmergencyFallback() {}
func (noopObserver) ExtractionCompleted(float64, bool, time.Duration) {}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// WithLocalRecognizer sets the text recognizer used when the provider entity pass fails.
func WithLocalRecognizer(recognizer ports.TextRecognizer) Option {
	return func(p *Pipeline) {
		p.recognizer = recognizer
	}
}

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.providerTimeout = timeout
		}
	}
}

func WithAIModelVersion(version string) Option {
	return func(p *Pipeline) {
		if v := strings.TrimSpace(version); v != "" {
			p.modelVersion = v
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs the six extraction stages over one document. Every stage has a
// fallback, and a failure that escapes the stages yields the emergency record,
// so Process always returns a complete result.
type Pipeline struct {
	provider   ports.DocumentAIProvider
	extractor  FieldExtractor
	classifier ProductClassifier
	analyzer   ComplianceAnalyzer
	validator  Validator

	recognizer      ports.TextRecognizer
	providerTimeout time.Duration
	modelVersion    string
	logger          *slog.Logger
	observer        Observer
	now             func() time.Time

	stages []stage
}

func New(
	provider ports.DocumentAIProvider,
	extractor FieldExtractor,
	classifier ProductClassifier,
	analyzer ComplianceAnalyzer,
	validator Validator,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		provider:        provider,
		extractor:       extractor,
		classifier:      classifier,
		analyzer:        analyzer,
		validator:       validator,
		providerTimeout: 30 * time.Second,
		modelVersion:    DefaultAIModelVersion,
		logger:          slog.Default(),
		observer:        noopObserver{},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stages = p.defaultStages()
	return p
}

// Process never returns nil and never panics.
func (p *Pipeline) Process(ctx context.Context, input domain.DocumentInput) (result *domain.DocumentAIExtraction) {
	started := p.now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline_panic", "panic", r, "stack", string(debug.Stack()))
			result = p.emergency(fmt.Errorf("panic: %v", r), started)
		}
	}()

	st := newState(input)
	for _, s := range p.stages {
		if err := p.runStage(ctx, st, s); err != nil {
			return p.emergency(err, started)
		}
	}

	out := p.assemble(st, started)
	p.observer.ExtractionCompleted(out.Analysis.OverallConfidence, out.ProcessingMetadata.FallbackMode, p.now().Sub(started))
	return out
}

func (p *Pipeline) runStage(ctx context.Context, st *state, s stage) error {
	err := safeCall(func() error { return s.run(ctx, st) })
	if err == nil {
		st.completed = append(st.completed, s.name)
		return nil
	}

	p.logger.Warn("stage_fallback", "stage", s.name, "error", err)
	p.observer.StageFallback(s.name)
	st.fallbackMode = true
	st.notes = append(st.notes, fmt.Sprintf("%s stage failed, using fallback: %v", s.name, err))

	if ferr := safeCall(func() error { return s.fallback(ctx, st, err) }); ferr != nil {
		return fmt.Errorf("%s fallback: %w", s.name, ferr)
	}
	st.completed = append(st.completed, s.name)
	return nil
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (p *Pipeline) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.providerTimeout)
}

func (p *Pipeline) assemble(st *state, started time.Time) *domain.DocumentAIExtraction {
	notes := allStagesOK
	if len(st.notes) > 0 {
		notes = strings.Join(st.notes, "; ")
	}

	docType := st.layout.DocumentType
	if docType == "" || docType == DocumentTypeUnknown {
		docType = DetectDocumentType(st.ocr.Text)
	}

	return &domain.DocumentAIExtraction{
		Supplier:         st.fields.Supplier,
		DeliveryDate:     st.fields.DeliveryDate,
		HandwrittenNotes: st.fields.HandwrittenNotes,
		InvoiceNumber:    st.fields.InvoiceNumber,
		TemperatureData: domain.TemperatureData{
			Readings:          nonNilReadings(st.fields.Temperatures),
			OverallCompliance: st.compliance.OverallCompliance,
			Analysis:          st.compliance,
		},
		LineItems: nonNilItems(st.fields.LineItems),
		Analysis: domain.ExtractionAnalysis{
			ProductClassification: st.classification,
			EstimatedValue:        EstimatedValue(st.fields.LineItems),
			ItemCount:             len(st.fields.LineItems),
			DistinctProductCount:  classification.CountDistinctProducts(st.fields.LineItems),
			ProcessingTime:        p.now().Sub(started).Milliseconds(),
			OverallConfidence:     st.overallConfidence,
		},
		RawText: st.ocr.Text,
		ProcessingMetadata: domain.ProcessingMetadata{
			DocumentType:     docType,
			PageCount:        max(st.layout.PageCount, st.ocr.PageCount),
			Language:         DetectLanguage(st.ocr.Text),
			ProcessingStages: st.completed,
			AIModelVersion:   p.modelVersion,
			FallbackMode:     st.fallbackMode,
			ProcessingNotes:  notes,
		},
	}
}

func nonNilReadings(in []domain.TemperatureReading) []domain.TemperatureReading {
	if in == nil {
		return []domain.TemperatureReading{}
	}
	return in
}

func nonNilItems(in []domain.LineItem) []domain.LineItem {
	if in == nil {
		return []domain.LineItem{}
	}
	return in
}
