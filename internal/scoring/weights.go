// Package scoring turns issue lists into quality scores using per-domain
// severity weight tables.
package scoring

import "github.com/Tomas-vilte/MateReview/internal/models"

// Generic quality weights, used by the quality analyzer and for every merged
// (per-file and PR-wide) score.
const (
	GenericWeightLow      = 1.0
	GenericWeightMedium   = 3.0
	GenericWeightHigh     = 7.0
	GenericWeightCritical = 15.0
)

// Security issues weigh heavier than generic ones.
const (
	SecurityWeightLow      = 2.0
	SecurityWeightMedium   = 5.0
	SecurityWeightHigh     = 10.0
	SecurityWeightCritical = 20.0
)

// Style issues weigh lighter than generic ones.
const (
	StyleWeightLow      = 0.5
	StyleWeightMedium   = 1.0
	StyleWeightHigh     = 2.0
	StyleWeightCritical = 5.0
)

// WeightTable maps severities to their numeric penalty.
type WeightTable map[models.Severity]float64

// GenericWeights returns the generic quality weight table.
func GenericWeights() WeightTable {
	return WeightTable{
		models.SeverityLow:      GenericWeightLow,
		models.SeverityMedium:   GenericWeightMedium,
		models.SeverityHigh:     GenericWeightHigh,
		models.SeverityCritical: GenericWeightCritical,
	}
}

// SecurityWeights returns the security weight table.
func SecurityWeights() WeightTable {
	return WeightTable{
		models.SeverityLow:      SecurityWeightLow,
		models.SeverityMedium:   SecurityWeightMedium,
		models.SeverityHigh:     SecurityWeightHigh,
		models.SeverityCritical: SecurityWeightCritical,
	}
}

// StyleWeights returns the style weight table.
func StyleWeights() WeightTable {
	return WeightTable{
		models.SeverityLow:      StyleWeightLow,
		models.SeverityMedium:   StyleWeightMedium,
		models.SeverityHigh:     StyleWeightHigh,
		models.SeverityCritical: StyleWeightCritical,
	}
}

// Weight returns the penalty for a severity, falling back to the low weight
// for unknown severities.
func (t WeightTable) Weight(s models.Severity) float64 {
	if w, ok := t[s]; ok {
		return w
	}
	return t[models.SeverityLow]
}

// Critical returns the table's maximum weight, used as the formula
// denominator.
func (t WeightTable) Critical() float64 {
	return t[models.SeverityCritical]
}
