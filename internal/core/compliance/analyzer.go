package compliance

import (
	"math"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	// nearBoundMargin is how close (°C) an in-range reading may sit to a bound before it is flagged.
	nearBoundMargin = 2.0
	// majorDeviation separates major from minor violations of non-critical ranges.
	majorDeviation = 5.0
)

// Result is the document-level analysis plus the readings revised with product context.
type Result struct {
	Analysis domain.ComplianceAnalysis
	Readings []domain.TemperatureReading
}

// Analyzer checks temperature readings against the storage ranges of classified products.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

type readingState struct {
	checked  bool
	nearEdge bool
	worst    domain.Severity
	violated bool
}

// Analyze never mutates its inputs.
func (a *Analyzer) Analyze(readings []domain.TemperatureReading, cls domain.ProductClassification) Result {
	analysis := domain.ComplianceAnalysis{
		OverallCompliance: domain.OverallCompliant,
		Violations:        []domain.ComplianceViolation{},
	}
	states := make([]readingState, len(readings))

	hasCritical := false
	hasWarning := false
	for _, category := range domain.ClassifiedCategories {
		for _, product := range cls.Bucket(category) {
			indices := relevantReadings(readings, product.Name)
			if len(indices) == 0 {
				continue
			}

			violated, warned := false, false
			req := product.TemperatureRequirement
			for _, idx := range indices {
				celsius := readings[idx].Celsius()
				states[idx].checked = true

				if !req.Contains(celsius) {
					severity := violationSeverity(req, celsius)
					analysis.Violations = append(analysis.Violations, domain.ComplianceViolation{
						Product:     product.Name,
						Temperature: celsius,
						Requirement: domain.RequirementRange{Min: req.Min, Max: req.Max},
						Severity:    severity,
					})
					states[idx].violated = true
					states[idx].worst = worseSeverity(states[idx].worst, severity)
					violated = true
					if severity == domain.SeverityCritical {
						hasCritical = true
					}
					continue
				}
				if celsius <= req.Min+nearBoundMargin || celsius >= req.Max-nearBoundMargin {
					states[idx].nearEdge = true
					warned = true
				}
			}

			switch {
			case violated:
				analysis.Summary.ViolatingProducts++
			case warned:
				analysis.Summary.WarningProducts++
			default:
				analysis.Summary.CompliantProducts++
			}
			if warned || violated {
				hasWarning = true
			}
		}
	}

	switch {
	case hasCritical:
		analysis.OverallCompliance = domain.OverallViolation
	case hasWarning:
		analysis.OverallCompliance = domain.OverallWarning
	}

	return Result{Analysis: analysis, Readings: reviseReadings(readings, states)}
}

// relevantReadings pairs readings to a product by mutual substring match of the
// reading context and product name. Without a match every reading is checked.
func relevantReadings(readings []domain.TemperatureReading, productName string) []int {
	name := strings.ToLower(strings.TrimSpace(productName))
	matched := make([]int, 0, len(readings))
	for i, r := range readings {
		ctx := strings.ToLower(strings.TrimSpace(r.ProductContext))
		if name == "" || ctx == "" {
			continue
		}
		if strings.Contains(ctx, name) || strings.Contains(name, ctx) {
			matched = append(matched, i)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	all := make([]int, len(readings))
	for i := range readings {
		all[i] = i
	}
	return all
}

func violationSeverity(req domain.TemperatureRequirement, celsius float64) domain.Severity {
	if req.Critical {
		return domain.SeverityCritical
	}
	mid := (req.Min + req.Max) / 2
	if math.Abs(celsius-mid) > majorDeviation {
		return domain.SeverityMajor
	}
	return domain.SeverityMinor
}

func worseSeverity(current, next domain.Severity) domain.Severity {
	rank := func(s domain.Severity) int {
		switch s {
		case domain.SeverityCritical:
			return 3
		case domain.SeverityMajor:
			return 2
		case domain.SeverityMinor:
			return 1
		default:
			return 0
		}
	}
	if rank(next) > rank(current) {
		return next
	}
	return current
}

func reviseReadings(readings []domain.TemperatureReading, states []readingState) []domain.TemperatureReading {
	out := make([]domain.TemperatureReading, len(readings))
	copy(out, readings)
	for i, st := range states {
		if !st.checked {
			continue
		}
		switch {
		case st.violated:
			out[i].ComplianceStatus = domain.ComplianceFail
			out[i].RiskLevel = riskForSeverity(st.worst)
		case st.nearEdge:
			out[i].ComplianceStatus = domain.CompliancePass
			out[i].RiskLevel = domain.RiskMedium
		default:
			out[i].ComplianceStatus = domain.CompliancePass
			out[i].RiskLevel = domain.RiskLow
		}
	}
	return out
}

func riskForSeverity(s domain.Severity) domain.RiskLevel {
	switch s {
	case domain.SeverityCritical:
		return domain.RiskCritical
	case domain.SeverityMajor:
		return domain.RiskHigh
	default:
		return domain.RiskMedium
	}
}
