package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	primaryConfidence   = 0.9
	secondaryConfidence = 0.7
	exactMatchBonus     = 0.1
	substringPenalty    = 0.8
	minKeywordScore     = 0.3
	patternConfidence   = 0.6
)

// Result is the outcome of classifying a single product description.
type Result struct {
	Category   domain.ProductCategory
	Confidence float64
	Keyword    string
}

type compiledCategory struct {
	name        domain.ProductCategory
	tiers       []tier
	requirement domain.TemperatureRequirement
	fallback    *regexp.Regexp
}

type tier struct {
	keywords   []string
	confidence float64
}

// Engine assigns products to temperature categories. It is safe for concurrent use.
type Engine struct {
	categories []compiledCategory
	ambient    domain.TemperatureRequirement
}

func NewEngine(tables Tables) (*Engine, error) {
	if err := tables.validate(); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build classification engine", err)
	}

	e := &Engine{categories: make([]compiledCategory, 0, len(tables.Categories))}
	for _, c := range tables.Categories {
		compiled := compiledCategory{
			name: c.Name,
			tiers: []tier{
				{keywords: normalizeKeywords(c.Primary), confidence: primaryConfidence},
				{keywords: normalizeKeywords(c.Secondary), confidence: secondaryConfidence},
			},
			requirement: c.Temperature.toDomain(),
		}
		if p := strings.TrimSpace(c.FallbackPattern); p != "" {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, domain.WrapError(domain.ErrInvalidInput, "build classification engine", fmt.Errorf("category %q pattern: %w", c.Name, err))
			}
			compiled.fallback = re
		}
		if c.Name == domain.CategoryAmbient {
			e.ambient = compiled.requirement
		}
		e.categories = append(e.categories, compiled)
	}
	return e, nil
}

// NewDefaultEngine builds an engine over the built-in keyword tables.
func NewDefaultEngine() (*Engine, error) {
	tables, err := DefaultTables()
	if err != nil {
		return nil, err
	}
	return NewEngine(tables)
}

// Classify scores a description against every keyword and keeps the strongest match.
// Ties keep the earlier category and tier.
func (e *Engine) Classify(description string) Result {
	text := strings.ToLower(strings.TrimSpace(description))
	if text == "" {
		return Result{Category: domain.CategoryUnclassified}
	}

	best := Result{Category: domain.CategoryUnclassified}
	for _, c := range e.categories {
		for _, t := range c.tiers {
			for _, kw := range t.keywords {
				if !strings.Contains(text, kw) {
					continue
				}
				score := matchScore(text, kw, t.confidence)
				if score > best.Confidence {
					best = Result{Category: c.name, Confidence: score, Keyword: kw}
				}
			}
		}
	}

	if best.Confidence >= minKeywordScore {
		return best
	}

	for _, c := range e.categories {
		if c.fallback != nil && c.fallback.MatchString(text) {
			return Result{Category: c.name, Confidence: patternConfidence}
		}
	}
	return Result{Category: domain.CategoryUnclassified}
}

// Requirement returns the storage range for a category. Unclassified products
// fall back to the ambient range.
func (e *Engine) Requirement(category domain.ProductCategory) domain.TemperatureRequirement {
	for _, c := range e.categories {
		if c.name == category {
			return c.requirement
		}
	}
	return e.ambient
}

// RiskLevel grades how much a classification should be trusted for a
// temperature-critical product.
func (e *Engine) RiskLevel(category domain.ProductCategory, confidence float64) domain.RiskLevel {
	if category == domain.CategoryUnclassified {
		return domain.RiskLow
	}
	if !e.Requirement(category).Critical {
		return domain.RiskLow
	}
	switch {
	case confidence < 0.7:
		return domain.RiskHigh
	case confidence < 0.9:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func matchScore(text, keyword string, base float64) float64 {
	switch {
	case text == keyword:
		return min(base+exactMatchBonus, 1.0)
	case containsWord(text, keyword):
		return base
	default:
		return base * substringPenalty
	}
}

// containsWord reports whether keyword occurs in text bounded by non-word characters.
func containsWord(text, keyword string) bool {
	offset := 0
	for {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
