package classification

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

//go:embed keywords.yaml
var defaultTablesYAML []byte

// Tables is the immutable keyword configuration of the engine.
type Tables struct {
	Categories []CategoryTable `yaml:"categories"`
}

type CategoryTable struct {
	Name            domain.ProductCategory `yaml:"name"`
	Primary         []string               `yaml:"primary"`
	Secondary       []string               `yaml:"secondary"`
	Temperature     requirementYAML        `yaml:"temperature"`
	FallbackPattern string                 `yaml:"fallbackPattern"`
}

type requirementYAML struct {
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Unit     string  `yaml:"unit"`
	Critical bool    `yaml:"critical"`
}

func (r requirementYAML) toDomain() domain.TemperatureRequirement {
	unit := domain.UnitCelsius
	if strings.EqualFold(r.Unit, "F") {
		unit = domain.UnitFahrenheit
	}
	return domain.TemperatureRequirement{Min: r.Min, Max: r.Max, Unit: unit, Critical: r.Critical}
}

// DefaultTables returns the built-in keyword tables.
func DefaultTables() (Tables, error) {
	return parseTables(defaultTablesYAML)
}

// LoadTables reads an override file, or the built-in tables when path is empty.
func LoadTables(path string) (Tables, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTables()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read keyword tables: %w", err)
	}
	return parseTables(raw)
}

func parseTables(raw []byte) (Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(raw, &tables); err != nil {
		return Tables{}, domain.WrapError(domain.ErrInvalidInput, "parse keyword tables", err)
	}
	if err := tables.validate(); err != nil {
		return Tables{}, domain.WrapError(domain.ErrInvalidInput, "validate keyword tables", err)
	}
	return tables, nil
}

func (t Tables) validate() error {
	if len(t.Categories) == 0 {
		return errors.New("no categories configured")
	}
	seen := make(map[domain.ProductCategory]bool, len(t.Categories))
	for _, c := range t.Categories {
		switch c.Name {
		case domain.CategoryFrozen, domain.CategoryChilled, domain.CategoryAmbient:
		default:
			return fmt.Errorf("unknown category %q", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		if c.Temperature.Min > c.Temperature.Max {
			return fmt.Errorf("category %q: min %.1f above max %.1f", c.Name, c.Temperature.Min, c.Temperature.Max)
		}
		if len(c.Primary) == 0 && len(c.Secondary) == 0 {
			return fmt.Errorf("category %q has no keywords", c.Name)
		}
	}
	if !seen[domain.CategoryAmbient] {
		return errors.New("ambient category is required")
	}
	return nil
}
