package reconciliation

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Policy holds the tunable thresholds of the matcher.
type Policy struct {
	// FeeToleranceYen is the largest shortfall attributed to a transfer fee
	// deducted by the payer.
	FeeToleranceYen int64 `yaml:"fee_tolerance_yen"`
	// AmountTolerance is the relative difference still counted as a near
	// amount match.
	AmountTolerance  float64 `yaml:"amount_tolerance"`
	StrongNameRatio  float64 `yaml:"strong_name_ratio"`
	PartialNameRatio float64 `yaml:"partial_name_ratio"`
	// MinContainRunes is the shortest name that may match by containment.
	MinContainRunes int `yaml:"min_contain_runes"`
	// ContainCoverage is the share of the longer name the contained one must
	// cover to count as a strong match. Shorter overlaps are partial.
	ContainCoverage float64 `yaml:"contain_coverage"`
	// DateWindowDays bounds the date proximity mentioned in match reasons.
	DateWindowDays int `yaml:"date_window_days"`
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		FeeToleranceYen:  1000,
		AmountTolerance:  0.01,
		StrongNameRatio:  0.85,
		PartialNameRatio: 0.5,
		MinContainRunes:  2,
		ContainCoverage:  0.6,
		DateWindowDays:   30,
	}
}

// LoadPolicy reads a YAML policy file. Keys absent from the file keep their
// default values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks that thresholds are in range.
func (p Policy) Validate() error {
	switch {
	case p.FeeToleranceYen < 0:
		return fmt.Errorf("policy: fee_tolerance_yen must not be negative")
	case p.AmountTolerance < 0 || p.AmountTolerance >= 1:
		return fmt.Errorf("policy: amount_tolerance must be in [0, 1)")
	case p.StrongNameRatio <= 0 || p.StrongNameRatio > 1:
		return fmt.Errorf("policy: strong_name_ratio must be in (0, 1]")
	case p.PartialNameRatio <= 0 || p.PartialNameRatio > p.StrongNameRatio:
		return fmt.Errorf("policy: partial_name_ratio must be in (0, strong_name_ratio]")
	case p.MinContainRunes < 1:
		return fmt.Errorf("policy: min_contain_runes must be positive")
	case p.ContainCoverage <= 0 || p.ContainCoverage > 1:
		return fmt.Errorf("policy: contain_coverage must be in (0, 1]")
	case p.DateWindowDays < 0:
		return fmt.Errorf("policy: date_window_days must not be negative")
	}
	return nil
}

func (p Policy) feeTolerance() decimal.Decimal {
	return decimal.NewFromInt(p.FeeToleranceYen)
}
